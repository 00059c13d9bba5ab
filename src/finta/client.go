package finta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	barsCountBackPath = "/api/bars/v1/bars/count-back"
	barsDateRangePath = "/api/bars/v1/bars/date-range"
	instrumentsPath   = "/api/instruments/v1/instruments"
)

// Client talks to the Fintacharts REST API. All calls attach a bearer token
// from Auth and are bounded by the http client's timeout so a slow upstream
// cannot hang a request indefinitely.
type Client struct {
	httpClient *http.Client
	auth       *Auth
	baseURL    string
	wsURL      string
}

func NewClient(baseURL, wsURL, username, password string, timeout time.Duration) *Client {
	httpClient := &http.Client{Timeout: timeout}

	return &Client{
		httpClient: httpClient,
		auth:       NewAuth(httpClient, baseURL, username, password),
		baseURL:    baseURL,
		wsURL:      wsURL,
	}
}

// FetchBarsCountBack returns the most recent barsCount bars for an instrument.
func (c *Client) FetchBarsCountBack(ctx context.Context, instrumentID, provider string, interval int, periodicity string, barsCount int) (*BarsResponse, error) {
	q := url.Values{}
	q.Set("instrumentId", instrumentID)
	q.Set("provider", provider)
	q.Set("interval", strconv.Itoa(interval))
	q.Set("periodicity", periodicity)
	q.Set("barsCount", strconv.Itoa(barsCount))

	var dto BarsResponse
	if err := c.getJSON(ctx, barsCountBackPath, q, &dto); err != nil {
		return nil, fmt.Errorf("FetchBarsCountBack: %w", err)
	}

	return &dto, nil
}

// FetchBarsDateRange returns bars between startDate and endDate. A zero
// endDate leaves the window open-ended on the upstream side.
func (c *Client) FetchBarsDateRange(ctx context.Context, instrumentID, provider string, interval int, periodicity string, startDate, endDate time.Time) (*BarsResponse, error) {
	q := url.Values{}
	q.Set("instrumentId", instrumentID)
	q.Set("provider", provider)
	q.Set("interval", strconv.Itoa(interval))
	q.Set("periodicity", periodicity)
	q.Set("startDate", startDate.Format("2006-01-02"))

	if !endDate.IsZero() {
		q.Set("endDate", endDate.Format("2006-01-02"))
	}

	var dto BarsResponse
	if err := c.getJSON(ctx, barsDateRangePath, q, &dto); err != nil {
		return nil, fmt.Errorf("FetchBarsDateRange: %w", err)
	}

	return &dto, nil
}

// FetchInstruments returns one page of the instrument catalog. Empty
// provider or kind leaves that filter off.
func (c *Client) FetchInstruments(ctx context.Context, provider, kind string, page, size int) (*InstrumentsResponse, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	if provider != "" {
		q.Set("provider", provider)
	}

	if kind != "" {
		q.Set("kind", kind)
	}

	var dto InstrumentsResponse
	if err := c.getJSON(ctx, instrumentsPath, q, &dto); err != nil {
		return nil, fmt.Errorf("FetchInstruments: %w", err)
	}

	return &dto, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest interface{}) error {
	token, err := c.auth.GetToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.URL.RawQuery = query.Encode()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	log.Debugf("fetching from %v", req.URL.String())

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("http code %v", res.Status)
	}

	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode json: %w", err)
	}

	return nil
}
