package finta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrAuth wraps every credential failure so callers can treat them as a
// single error kind.
var ErrAuth = errors.New("finta: authentication failed")

const tokenPath = "/identity/realms/fintatech/protocol/openid-connect/token"

// tokenExpirySlack refreshes the token well before the server-side expiry.
const tokenExpirySlack = 300 * time.Second

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
}

// Auth exchanges platform credentials for a bearer token and caches it until
// shortly before expiry. Safe for concurrent use.
type Auth struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	username   string
	password   string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewAuth(httpClient *http.Client, baseURL, username, password string) *Auth {
	return &Auth{
		httpClient: httpClient,
		baseURL:    baseURL,
		clientID:   "finta-platform",
		username:   username,
		password:   password,
	}
}

// GetToken returns a valid bearer token, fetching a fresh one when the
// cached token is absent or near expiry.
func (a *Auth) GetToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().UTC().Before(a.tokenExpiry) {
		return a.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", a.clientID)
	form.Set("username", a.username)
	form.Set("password", a.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrAuth, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: http code %v", ErrAuth, res.Status)
	}

	var dto tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&dto); err != nil {
		return "", fmt.Errorf("%w: failed to decode token response: %v", ErrAuth, err)
	}

	if dto.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrAuth)
	}

	a.accessToken = dto.AccessToken
	a.tokenExpiry = time.Now().UTC().Add(time.Duration(dto.ExpiresIn)*time.Second - tokenExpirySlack)

	log.Debugf("Auth.GetToken: refreshed token, expires in %ds", dto.ExpiresIn)

	return a.accessToken, nil
}
