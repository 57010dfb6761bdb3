package watchlist

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/bluewave/stocksim/internal/events"
)

// Handler handles watchlist HTTP requests
type Handler struct {
	repo   *Repository
	events *events.Manager
	log    zerolog.Logger
}

// NewHandler creates a new watchlist handler
func NewHandler(repo *Repository, eventManager *events.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		events: eventManager,
		log:    log.With().Str("handler", "watchlist").Logger(),
	}
}

// Routes mounts the watchlist routes on a chi router
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleAdd)
	r.Delete("/{symbol}", h.HandleRemove)
}

// HandleList handles GET / - list watchlist entries
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.repo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list watchlist")
		http.Error(w, "Failed to retrieve watchlist", http.StatusInternalServerError)
		return
	}

	if entries == nil {
		entries = []Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

// HandleAdd handles POST / - add a symbol
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.repo.Add(payload.Symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", payload.Symbol).Msg("Failed to add symbol")
		http.Error(w, "Failed to add symbol", http.StatusBadRequest)
		return
	}

	h.events.Emit(events.SymbolAdded, "watchlist", map[string]interface{}{
		"symbol": entry.Symbol,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(entry)
}

// HandleRemove handles DELETE /{symbol}
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	removed, err := h.repo.Remove(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to remove symbol")
		http.Error(w, "Failed to remove symbol", http.StatusInternalServerError)
		return
	}
	if !removed {
		http.Error(w, "Symbol not in watchlist", http.StatusNotFound)
		return
	}

	h.events.Emit(events.SymbolRemoved, "watchlist", map[string]interface{}{
		"symbol": symbol,
	})

	w.WriteHeader(http.StatusNoContent)
}
