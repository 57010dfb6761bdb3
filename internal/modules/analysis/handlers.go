package analysis

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles analysis HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analysis").Logger(),
	}
}

// Routes registers analysis routes on the given router
func (h *Handler) Routes(r chi.Router) {
	r.Get("/watchlist", h.HandleWatchlist)
}

// HandleWatchlist runs the watchlist analysis and returns the report
func (h *Handler) HandleWatchlist(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.AnalyzeWatchlist()
	if err != nil {
		h.log.Error().Err(err).Msg("Watchlist analysis failed")
		http.Error(w, "analysis failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode analysis report")
	}
}
