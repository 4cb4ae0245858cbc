package main

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ahinestrog/bestsellers/internal/cart"
	"github.com/ahinestrog/bestsellers/internal/rpc"
)

type screenResponse struct {
	Catalog *rpc.CatalogStatus `json:"catalog"`
	Screen  cart.Screen        `json:"screen"`
	Message string             `json:"message,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()

	p, err := s.load(ctx)
	if err != nil {
		writeJSON(w, httpStatus(err), errorResponse{Error: userMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, screenResponse{Catalog: p.Catalog, Screen: p.Screen})
}

// handleIntent applies one intent and answers with the whole screen, so a
// client never has to recompute totals itself.
func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	var in Intent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid intent: " + err.Error()})
		return
	}

	ctx, cancel := s.ctx(r)
	defer cancel()
	_, msg, err := s.apply(ctx, in)
	if err != nil {
		log.Warn().Err(err).Str("intent", in.Type).Str("book", in.BookID).Msg("intent failed")
		writeJSON(w, httpStatus(err), errorResponse{Error: userMessage(err)})
		return
	}

	p, err := s.load(ctx)
	if err != nil {
		writeJSON(w, httpStatus(err), errorResponse{Error: userMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, screenResponse{Catalog: p.Catalog, Screen: p.Screen, Message: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write json")
	}
}
