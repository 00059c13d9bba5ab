package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"market-price-api/src/models"
	"market-price-api/src/prices"
)

// PriceReader is the price engine as seen by the HTTP layer.
type PriceReader interface {
	GetCurrentPrice(ctx context.Context, symbol, provider, interval string) (*models.PriceDTO, error)
	GetHistoricalPrices(ctx context.Context, symbol, provider, interval string, start, end time.Time, limit int) ([]models.PriceDTO, error)
	GetMultiplePrices(ctx context.Context, requests []prices.PriceRequest) ([]models.PriceDTO, error)
	SavePrice(ctx context.Context, req prices.SavePriceRequest) (uuid.UUID, error)
}

// SyncRunner triggers catalog and price synchronization runs.
type SyncRunner interface {
	SyncInstruments(ctx context.Context, provider, kind string) (int, error)
	SyncPricesForSymbol(ctx context.Context, symbol, provider, interval string) error
	SyncAllActiveAssets(ctx context.Context) error
}

// StreamController manages the streaming ingestion connection.
type StreamController interface {
	Start(ctx context.Context) error
	Stop()
	Subscribe(symbol, provider string)
	IsConnected() bool
}

// AssetLister exposes the asset catalog for read-only queries.
type AssetLister interface {
	ActiveAssets(ctx context.Context) ([]models.Asset, error)
}

// Server is the thin HTTP layer over the price engine: routing, validation
// and JSON only. All logic lives below it.
type Server struct {
	prices PriceReader
	syncer SyncRunner
	stream StreamController
	assets AssetLister
}

func NewServer(prices PriceReader, syncer SyncRunner, stream StreamController, assets AssetLister) *Server {
	return &Server{
		prices: prices,
		syncer: syncer,
		stream: stream,
		assets: assets,
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/prices/current", s.getCurrentPrice).Methods("GET")
	router.HandleFunc("/api/prices/historical", s.getHistoricalPrices).Methods("GET")
	router.HandleFunc("/api/prices/multiple", s.getMultiplePrices).Methods("GET")
	router.HandleFunc("/api/prices", s.savePrice).Methods("POST")

	router.HandleFunc("/api/sync/instruments", s.syncInstruments).Methods("POST")
	router.HandleFunc("/api/sync/prices/{symbol}", s.syncPricesForSymbol).Methods("POST")
	router.HandleFunc("/api/sync/all", s.syncAllActiveAssets).Methods("POST")

	router.HandleFunc("/api/stream/start", s.streamStart).Methods("POST")
	router.HandleFunc("/api/stream/stop", s.streamStop).Methods("POST")
	router.HandleFunc("/api/stream/subscribe", s.streamSubscribe).Methods("POST")
	router.HandleFunc("/api/stream/status", s.streamStatus).Methods("GET")

	router.HandleFunc("/api/assets", s.getAssets).Methods("GET")

	return router
}

type errorResponse struct {
	Type string `json:"type"`
	Msg  string `json:"message"`
}

func setResponse(statusCode int, response interface{}, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if response == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Printf("setResponse: encode: %v\n", err)
	}
}

func setErrorResponse(errType string, statusCode int, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := errorResponse{Type: errType, Msg: err.Error()}
	_ = json.NewEncoder(w).Encode(resp)
}
