package simulation

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/bluewave/stocksim/internal/events"
	"github.com/bluewave/stocksim/internal/modules/signals"
)

// SymbolSource supplies the watchlist symbols for a run
type SymbolSource interface {
	Symbols() ([]string, error)
}

// Handler handles simulation HTTP requests
type Handler struct {
	paramsRepo *ParametersRepository
	provider   PriceProvider
	watchlist  SymbolSource
	events     *events.Manager
	log        zerolog.Logger
}

// NewHandler creates a new simulation handler
func NewHandler(
	paramsRepo *ParametersRepository,
	provider PriceProvider,
	watchlist SymbolSource,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		paramsRepo: paramsRepo,
		provider:   provider,
		watchlist:  watchlist,
		events:     eventManager,
		log:        log.With().Str("handler", "simulation").Logger(),
	}
}

// runRequest is the POST /run payload. All fields are optional; omitted
// parameters fall back to the stored ones and omitted symbols to the
// watchlist.
type runRequest struct {
	Parameters *Parameters `json:"parameters,omitempty"`
	Symbols    []string    `json:"symbols,omitempty"`
}

// HandleRun handles POST / - run a simulation and return the results
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	params := Parameters{}
	if req.Parameters != nil {
		params = *req.Parameters
	} else {
		var err error
		params, err = h.paramsRepo.GetParameters()
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to load simulation parameters")
			http.Error(w, "Failed to load simulation parameters", http.StatusInternalServerError)
			return
		}
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		var err error
		symbols, err = h.watchlist.Symbols()
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to load watchlist")
			http.Error(w, "Failed to load watchlist", http.StatusInternalServerError)
			return
		}
	}
	if len(symbols) == 0 {
		http.Error(w, "Watchlist is empty; nothing to simulate", http.StatusBadRequest)
		return
	}

	recParams, err := h.paramsRepo.GetRecommendationParameters()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load recommendation parameters")
		http.Error(w, "Failed to load recommendation parameters", http.StatusInternalServerError)
		return
	}

	engine := NewEngine(h.provider, params, recParams, h.log)

	h.events.Emit(events.SimulationStarted, "simulation", map[string]interface{}{
		"symbols":    len(symbols),
		"start_date": params.StartDate.Format("2006-01-02"),
	})

	started := time.Now()
	results, err := engine.Run(r.Context(), symbols, nil)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":      "invalid parameters",
				"violations": vErr.Violations,
			})
			return
		}
		h.log.Error().Err(err).Msg("Simulation run failed")
		h.events.EmitError("simulation", err, map[string]interface{}{
			"symbols": len(symbols),
		})
		http.Error(w, "Simulation failed", http.StatusInternalServerError)
		return
	}

	h.events.Emit(events.SimulationComplete, "simulation", map[string]interface{}{
		"trades":      results.NumberOfTrades,
		"final_value": results.FinalPortfolioValue,
	})

	h.log.Info().
		Dur("duration", time.Since(started)).
		Int("symbols", len(symbols)).
		Int("trades", results.NumberOfTrades).
		Msg("Simulation run served")

	writeJSON(w, http.StatusOK, results)
}

// HandleGetParameters handles GET /parameters
func (h *Handler) HandleGetParameters(w http.ResponseWriter, r *http.Request) {
	params, err := h.paramsRepo.GetParameters()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load parameters")
		http.Error(w, "Failed to load parameters", http.StatusInternalServerError)
		return
	}

	recParams, err := h.paramsRepo.GetRecommendationParameters()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load recommendation parameters")
		http.Error(w, "Failed to load recommendation parameters", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"simulation":     params,
		"recommendation": recParams,
	})
}

// parametersUpdate is the PUT /parameters payload
type parametersUpdate struct {
	Simulation     *Parameters                       `json:"simulation,omitempty"`
	Recommendation *signals.RecommendationParameters `json:"recommendation,omitempty"`
}

// HandleUpdateParameters handles PUT /parameters
func (h *Handler) HandleUpdateParameters(w http.ResponseWriter, r *http.Request) {
	var update parametersUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if update.Simulation != nil {
		if err := update.Simulation.Validate(time.Now()); err != nil {
			var vErr *ValidationError
			if errors.As(err, &vErr) {
				writeJSON(w, http.StatusBadRequest, map[string]interface{}{
					"error":      "invalid parameters",
					"violations": vErr.Violations,
				})
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.paramsRepo.SaveParameters(*update.Simulation); err != nil {
			h.log.Error().Err(err).Msg("Failed to save parameters")
			http.Error(w, "Failed to save parameters", http.StatusInternalServerError)
			return
		}
	}

	if update.Recommendation != nil {
		if err := h.paramsRepo.SaveRecommendationParameters(*update.Recommendation); err != nil {
			h.log.Error().Err(err).Msg("Failed to save recommendation parameters")
			http.Error(w, "Failed to save recommendation parameters", http.StatusInternalServerError)
			return
		}
	}

	h.events.Emit(events.ParametersUpdated, "simulation", map[string]interface{}{
		"simulation":     update.Simulation != nil,
		"recommendation": update.Recommendation != nil,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
