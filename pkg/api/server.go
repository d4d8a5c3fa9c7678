// Package api serves decoded meter readings over HTTP and websockets.
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/interpreter"
	"github.com/NotCoffee418/amshan_reader/pkg/metrics"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Server struct {
	hub     *interpreter.Hub
	mu      sync.RWMutex
	meter   *types.MeterInfo
	latest  types.Fields
	started time.Time
	logger  zerolog.Logger
}

func NewServer() *Server {
	return &Server{
		hub:     interpreter.NewHub(),
		started: time.Now(),
		logger:  log.With().Str("component", "api").Logger(),
	}
}

// Dispatch records the reading and broadcasts it to websocket clients.
func (s *Server) Dispatch(fields types.Fields) {
	s.mu.Lock()
	s.latest = fields
	if info, ok := types.MeterInfoFromFields(fields); ok {
		if s.meter == nil || s.meter.UniqueID() != info.UniqueID() {
			s.logger.Info().Str("meter", info.UniqueID()).Msg("meter identified")
		}
		s.meter = info
	}
	s.mu.Unlock()

	s.hub.Broadcast(fields)
}

func (s *Server) Latest() types.Fields {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Server) Meter() *types.MeterInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meter
}

// Close disconnects all websocket clients.
func (s *Server) Close() {
	s.hub.Close()
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/latest", s.handleLatest)
	mux.HandleFunc("/meter", s.handleMeter)
	mux.Handle(interpreter.WebSocketPath, s.hub)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "AMS/HAN Smart Meter API",
		"status":  "running",
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"clients": s.hub.Clients(),
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest := s.Latest()
	if latest == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No readings available yet"})
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

func (s *Server) handleMeter(w http.ResponseWriter, r *http.Request) {
	meter := s.Meter()
	if meter == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Meter not identified yet"})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		UniqueID string `json:"unique_id"`
		*types.MeterInfo
	}{meter.UniqueID(), meter})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("failed to write response")
	}
}
