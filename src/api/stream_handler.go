package api

import (
	"context"
	"fmt"
	"net/http"
)

type subscribeRequest struct {
	Symbol   string `json:"symbol" schema:"symbol"`
	Provider string `json:"provider" schema:"provider"`
}

type streamStatusResponse struct {
	Connected bool `json:"connected"`
}

func (s *Server) streamStart(w http.ResponseWriter, r *http.Request) {
	// The connection outlives the request.
	if err := s.stream.Start(context.Background()); err != nil {
		setErrorResponse("streamStart: failed to start stream", http.StatusBadGateway, err, w)
		return
	}

	setResponse(http.StatusOK, streamStatusResponse{Connected: s.stream.IsConnected()}, w)
}

func (s *Server) streamStop(w http.ResponseWriter, r *http.Request) {
	s.stream.Stop()

	setResponse(http.StatusOK, streamStatusResponse{Connected: false}, w)
}

func (s *Server) streamSubscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		setErrorResponse("streamSubscribe: failed to parse form", http.StatusBadRequest, err, w)
		return
	}

	var req subscribeRequest
	if err := queryDecoder.Decode(&req, r.Form); err != nil {
		setErrorResponse("streamSubscribe: failed to decode query", http.StatusBadRequest, err, w)
		return
	}

	if req.Symbol == "" || req.Provider == "" {
		setErrorResponse("streamSubscribe: validation", http.StatusBadRequest, fmt.Errorf("symbol and provider are required"), w)
		return
	}

	if !s.stream.IsConnected() {
		setErrorResponse("streamSubscribe: stream not connected", http.StatusConflict, fmt.Errorf("streaming pipeline is not running"), w)
		return
	}

	s.stream.Subscribe(req.Symbol, req.Provider)

	setResponse(http.StatusOK, map[string]string{"status": "subscribed"}, w)
}

func (s *Server) streamStatus(w http.ResponseWriter, r *http.Request) {
	setResponse(http.StatusOK, streamStatusResponse{Connected: s.stream.IsConnected()}, w)
}
