package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/schema"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"market-price-api/src/models"
	"market-price-api/src/prices"
)

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

type currentPriceQuery struct {
	Symbol   string `schema:"symbol"`
	Provider string `schema:"provider"`
	Interval string `schema:"interval"`
}

func (s *Server) getCurrentPrice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		setErrorResponse("getCurrentPrice: failed to parse form", http.StatusBadRequest, err, w)
		return
	}

	var query currentPriceQuery
	if err := queryDecoder.Decode(&query, r.Form); err != nil {
		setErrorResponse("getCurrentPrice: failed to decode query", http.StatusBadRequest, err, w)
		return
	}

	if query.Symbol == "" || query.Provider == "" {
		setErrorResponse("getCurrentPrice: validation", http.StatusBadRequest, fmt.Errorf("symbol and provider are required"), w)
		return
	}

	if query.Interval == "" {
		query.Interval = models.DefaultInterval
	}

	dto, err := s.prices.GetCurrentPrice(r.Context(), query.Symbol, query.Provider, query.Interval)
	if err != nil {
		setErrorResponse("getCurrentPrice: failed to fetch price", http.StatusInternalServerError, err, w)
		return
	}

	if dto == nil {
		setErrorResponse("getCurrentPrice: not found", http.StatusNotFound, fmt.Errorf("no price available for %s/%s", query.Symbol, query.Provider), w)
		return
	}

	setResponse(http.StatusOK, dto, w)
}

type historicalPricesQuery struct {
	Symbol   string `schema:"symbol"`
	Provider string `schema:"provider"`
	Interval string `schema:"interval"`
	Start    string `schema:"startDate"`
	End      string `schema:"endDate"`
	Limit    int    `schema:"limit"`
}

func (s *Server) getHistoricalPrices(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		setErrorResponse("getHistoricalPrices: failed to parse form", http.StatusBadRequest, err, w)
		return
	}

	var query historicalPricesQuery
	if err := queryDecoder.Decode(&query, r.Form); err != nil {
		setErrorResponse("getHistoricalPrices: failed to decode query", http.StatusBadRequest, err, w)
		return
	}

	if query.Symbol == "" || query.Provider == "" {
		setErrorResponse("getHistoricalPrices: validation", http.StatusBadRequest, fmt.Errorf("symbol and provider are required"), w)
		return
	}

	if query.Start == "" {
		setErrorResponse("getHistoricalPrices: validation", http.StatusBadRequest, fmt.Errorf("startDate is required"), w)
		return
	}

	start, err := parseDate(query.Start)
	if err != nil {
		setErrorResponse("getHistoricalPrices: invalid startDate", http.StatusBadRequest, err, w)
		return
	}

	var end time.Time
	if query.End != "" {
		end, err = parseDate(query.End)
		if err != nil {
			setErrorResponse("getHistoricalPrices: invalid endDate", http.StatusBadRequest, err, w)
			return
		}
	}

	if query.Interval == "" {
		query.Interval = models.DefaultInterval
	}

	dtos, err := s.prices.GetHistoricalPrices(r.Context(), query.Symbol, query.Provider, query.Interval, start, end, query.Limit)
	if err != nil {
		setErrorResponse("getHistoricalPrices: failed to fetch prices", http.StatusInternalServerError, err, w)
		return
	}

	setResponse(http.StatusOK, dtos, w)
}

type multiplePricesQuery struct {
	Symbols  string `schema:"symbols"`
	Provider string `schema:"provider"`
	Interval string `schema:"interval"`
}

func (s *Server) getMultiplePrices(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		setErrorResponse("getMultiplePrices: failed to parse form", http.StatusBadRequest, err, w)
		return
	}

	var query multiplePricesQuery
	if err := queryDecoder.Decode(&query, r.Form); err != nil {
		setErrorResponse("getMultiplePrices: failed to decode query", http.StatusBadRequest, err, w)
		return
	}

	if query.Provider == "" {
		setErrorResponse("getMultiplePrices: validation", http.StatusBadRequest, fmt.Errorf("provider is required"), w)
		return
	}

	var requests []prices.PriceRequest
	for _, symbol := range strings.Split(query.Symbols, ",") {
		if symbol = strings.TrimSpace(symbol); symbol != "" {
			requests = append(requests, prices.PriceRequest{
				Symbol:   symbol,
				Provider: query.Provider,
				Interval: query.Interval,
			})
		}
	}

	if len(requests) == 0 {
		setErrorResponse("getMultiplePrices: validation", http.StatusBadRequest, fmt.Errorf("at least one symbol is required"), w)
		return
	}

	dtos, err := s.prices.GetMultiplePrices(r.Context(), requests)
	if err != nil {
		setErrorResponse("getMultiplePrices: failed to fetch prices", http.StatusInternalServerError, err, w)
		return
	}

	setResponse(http.StatusOK, dtos, w)
}

type savePriceRequest struct {
	Symbol    string          `json:"symbol"`
	Provider  string          `json:"provider"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	Interval  string          `json:"interval"`
	Timestamp time.Time       `json:"timestamp"`
}

type savePriceResponse struct {
	ID string `json:"id"`
}

func (s *Server) savePrice(w http.ResponseWriter, r *http.Request) {
	var req savePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		setErrorResponse("savePrice: failed to decode request", http.StatusBadRequest, err, w)
		return
	}

	if req.Symbol == "" || req.Provider == "" {
		setErrorResponse("savePrice: validation", http.StatusBadRequest, fmt.Errorf("symbol and provider are required"), w)
		return
	}

	if req.Timestamp.IsZero() {
		setErrorResponse("savePrice: validation", http.StatusBadRequest, fmt.Errorf("timestamp is required"), w)
		return
	}

	if req.Interval == "" {
		req.Interval = models.DefaultInterval
	}

	id, err := s.prices.SavePrice(r.Context(), prices.SavePriceRequest{
		Symbol:    req.Symbol,
		Provider:  req.Provider,
		Open:      req.Open,
		High:      req.High,
		Low:       req.Low,
		Close:     req.Close,
		Volume:    req.Volume,
		Interval:  req.Interval,
		Timestamp: req.Timestamp,
	})

	if err != nil {
		setErrorResponse("savePrice: failed to save price", http.StatusInternalServerError, err, w)
		return
	}

	log.Debugf("savePrice: stored bar %s for %s/%s", id, req.Symbol, req.Provider)

	setResponse(http.StatusCreated, savePriceResponse{ID: id.String()}, w)
}

// parseDate accepts both full RFC 3339 timestamps and plain dates.
func parseDate(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}

	ts, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parseDate: %q is not a valid date: %w", value, err)
	}

	return ts, nil
}
