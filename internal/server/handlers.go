package server

import (
	"encoding/json"
	"net/http"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "stocksim",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleTriggerPriceSync runs the price sync job immediately
func (s *Server) handleTriggerPriceSync(w http.ResponseWriter, r *http.Request) {
	if s.priceSyncJob == nil {
		s.writeError(w, http.StatusServiceUnavailable, "price sync job not registered")
		return
	}

	s.log.Info().Msg("Manual price sync triggered")

	if err := s.priceSyncJob.Run(); err != nil {
		s.log.Error().Err(err).Msg("Manual price sync failed")
		s.writeError(w, http.StatusInternalServerError, "price sync failed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
