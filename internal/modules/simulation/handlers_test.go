package simulation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluewave/stocksim/internal/events"
)

type staticWatchlist []string

func (s staticWatchlist) Symbols() ([]string, error) {
	return s, nil
}

func newTestHandler(t *testing.T, provider PriceProvider, watchlist SymbolSource) *Handler {
	repo := NewParametersRepository(setupTestDB(t), zerolog.Nop())
	return NewHandler(repo, provider, watchlist, events.NewManager(zerolog.Nop()), zerolog.Nop())
}

func TestHandleRunWithBodyParameters(t *testing.T) {
	provider := &fakeProvider{series: risingSeries}
	handler := newTestHandler(t, provider, staticWatchlist{})

	start := time.Now().AddDate(0, 0, -5).Format("2006-01-02")
	body := `{
		"parameters": {
			"start_date": "` + start + `T00:00:00Z",
			"initial_capital": 10000,
			"transaction_fee_percent": 0.1,
			"investment_rules": {
				"strong_buy_percent": 20,
				"buy_percent": 10,
				"sell_percent": 50,
				"strong_sell_percent": 100
			},
			"max_single_position_percent": 20
		},
		"symbols": ["AAPL"]
	}`

	req := httptest.NewRequest("POST", "/run", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleRun(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var results Results
	require.NoError(t, json.NewDecoder(w.Body).Decode(&results))
	assert.Equal(t, 10000.0, results.InitialCapital)
	assert.NotEmpty(t, results.PortfolioValues)
}

func TestHandleRunEmptyWatchlist(t *testing.T) {
	handler := newTestHandler(t, &fakeProvider{series: risingSeries}, staticWatchlist{})

	req := httptest.NewRequest("POST", "/run", nil)
	w := httptest.NewRecorder()
	handler.HandleRun(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRunInvalidParameters(t *testing.T) {
	handler := newTestHandler(t, &fakeProvider{series: risingSeries}, staticWatchlist{"AAPL"})

	body := `{
		"parameters": {
			"start_date": "2030-01-01T00:00:00Z",
			"initial_capital": -5,
			"transaction_fee_percent": 0.1,
			"investment_rules": {
				"strong_buy_percent": 20,
				"buy_percent": 10,
				"sell_percent": 50,
				"strong_sell_percent": 100
			},
			"max_single_position_percent": 20
		}
	}`

	req := httptest.NewRequest("POST", "/run", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleRun(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var payload struct {
		Error      string   `json:"error"`
		Violations []string `json:"violations"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&payload))
	assert.Equal(t, "invalid parameters", payload.Error)
	assert.Len(t, payload.Violations, 2)
}

func TestHandleGetParameters(t *testing.T) {
	handler := newTestHandler(t, &fakeProvider{series: risingSeries}, staticWatchlist{})

	req := httptest.NewRequest("GET", "/parameters", nil)
	w := httptest.NewRecorder()
	handler.HandleGetParameters(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Simulation     Parameters `json:"simulation"`
		Recommendation struct {
			StrongBuy struct {
				TrendStrength float64 `json:"trend_strength"`
			} `json:"strong_buy"`
		} `json:"recommendation"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&payload))
	assert.Equal(t, 10000.0, payload.Simulation.InitialCapital)
	assert.Equal(t, 0.5, payload.Recommendation.StrongBuy.TrendStrength)
}

func TestHandleUpdateParameters(t *testing.T) {
	provider := &fakeProvider{series: risingSeries}
	repo := NewParametersRepository(setupTestDB(t), zerolog.Nop())
	handler := NewHandler(repo, provider, staticWatchlist{}, events.NewManager(zerolog.Nop()), zerolog.Nop())

	start := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	body := `{
		"simulation": {
			"start_date": "` + start + `T00:00:00Z",
			"initial_capital": 20000,
			"transaction_fee_percent": 0.2,
			"investment_rules": {
				"strong_buy_percent": 25,
				"buy_percent": 10,
				"sell_percent": 50,
				"strong_sell_percent": 100
			},
			"max_single_position_percent": 25
		}
	}`

	req := httptest.NewRequest("PUT", "/parameters", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleUpdateParameters(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	saved, err := repo.GetParameters()
	require.NoError(t, err)
	assert.Equal(t, 20000.0, saved.InitialCapital)
	assert.Equal(t, 25.0, saved.InvestmentRules.StrongBuyPercent)
}

func TestHandleUpdateParametersRejectsInvalid(t *testing.T) {
	handler := newTestHandler(t, &fakeProvider{series: risingSeries}, staticWatchlist{})

	body := `{
		"simulation": {
			"start_date": "2030-01-01T00:00:00Z",
			"initial_capital": 0,
			"transaction_fee_percent": 0.1,
			"investment_rules": {
				"strong_buy_percent": 20,
				"buy_percent": 10,
				"sell_percent": 50,
				"strong_sell_percent": 100
			},
			"max_single_position_percent": 20
		}
	}`

	req := httptest.NewRequest("PUT", "/parameters", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleUpdateParameters(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
