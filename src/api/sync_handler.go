package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"market-price-api/src/models"
)

type syncInstrumentsQuery struct {
	Provider string `schema:"provider"`
	Kind     string `schema:"kind"`
}

type syncInstrumentsResponse struct {
	Created int `json:"created"`
}

func (s *Server) syncInstruments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		setErrorResponse("syncInstruments: failed to parse form", http.StatusBadRequest, err, w)
		return
	}

	var query syncInstrumentsQuery
	if err := queryDecoder.Decode(&query, r.Form); err != nil {
		setErrorResponse("syncInstruments: failed to decode query", http.StatusBadRequest, err, w)
		return
	}

	created, err := s.syncer.SyncInstruments(r.Context(), query.Provider, query.Kind)
	if err != nil {
		setErrorResponse("syncInstruments: sync failed", http.StatusInternalServerError, err, w)
		return
	}

	setResponse(http.StatusOK, syncInstrumentsResponse{Created: created}, w)
}

type syncPricesQuery struct {
	Provider string `schema:"provider"`
	Interval string `schema:"interval"`
}

func (s *Server) syncPricesForSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if symbol == "" {
		setErrorResponse("syncPricesForSymbol: validation", http.StatusBadRequest, fmt.Errorf("symbol is required"), w)
		return
	}

	if err := r.ParseForm(); err != nil {
		setErrorResponse("syncPricesForSymbol: failed to parse form", http.StatusBadRequest, err, w)
		return
	}

	var query syncPricesQuery
	if err := queryDecoder.Decode(&query, r.Form); err != nil {
		setErrorResponse("syncPricesForSymbol: failed to decode query", http.StatusBadRequest, err, w)
		return
	}

	if query.Provider == "" {
		setErrorResponse("syncPricesForSymbol: validation", http.StatusBadRequest, fmt.Errorf("provider is required"), w)
		return
	}

	if query.Interval == "" {
		query.Interval = models.DefaultInterval
	}

	if err := s.syncer.SyncPricesForSymbol(r.Context(), symbol, query.Provider, query.Interval); err != nil {
		setErrorResponse("syncPricesForSymbol: sync failed", http.StatusInternalServerError, err, w)
		return
	}

	setResponse(http.StatusOK, map[string]string{"status": "ok"}, w)
}

func (s *Server) syncAllActiveAssets(w http.ResponseWriter, r *http.Request) {
	if err := s.syncer.SyncAllActiveAssets(r.Context()); err != nil {
		setErrorResponse("syncAllActiveAssets: sync failed", http.StatusInternalServerError, err, w)
		return
	}

	setResponse(http.StatusOK, map[string]string{"status": "ok"}, w)
}

func (s *Server) getAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.assets.ActiveAssets(r.Context())
	if err != nil {
		setErrorResponse("getAssets: failed to list assets", http.StatusInternalServerError, err, w)
		return
	}

	setResponse(http.StatusOK, assets, w)
}
