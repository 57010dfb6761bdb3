package simulation

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bluewave/stocksim/internal/modules/signals"
)

// ParametersSchema holds the stored simulation and recommendation
// parameters. Columns are typed and validated on load; malformed stored
// state fails loudly instead of silently defaulting.
const ParametersSchema = `
CREATE TABLE IF NOT EXISTS simulation_parameters (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    start_date TEXT NOT NULL,
    initial_capital REAL NOT NULL,
    transaction_fee_percent REAL NOT NULL,
    strong_buy_percent REAL NOT NULL,
    buy_percent REAL NOT NULL,
    sell_percent REAL NOT NULL,
    strong_sell_percent REAL NOT NULL,
    max_single_position_percent REAL NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS recommendation_parameters (
    category TEXT PRIMARY KEY,
    trend_strength REAL NOT NULL,
    macd_threshold REAL NOT NULL,
    histogram_change REAL NOT NULL
);
`

// InitSchema ensures the parameter tables exist
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(ParametersSchema)
	return err
}

// ParametersRepository persists simulation and recommendation parameters in
// the main application database
type ParametersRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewParametersRepository creates a new parameters repository
func NewParametersRepository(db *sql.DB, log zerolog.Logger) *ParametersRepository {
	return &ParametersRepository{
		db:  db,
		log: log.With().Str("repository", "parameters").Logger(),
	}
}

// GetParameters loads the saved simulation parameters, or the defaults
// (start date 90 days back) when none are stored yet
func (r *ParametersRepository) GetParameters() (Parameters, error) {
	var p Parameters
	var startDate, updatedAt string

	err := r.db.QueryRow(`
		SELECT start_date, initial_capital, transaction_fee_percent,
		       strong_buy_percent, buy_percent, sell_percent, strong_sell_percent,
		       max_single_position_percent, updated_at
		FROM simulation_parameters WHERE id = 1
	`).Scan(
		&startDate,
		&p.InitialCapital,
		&p.TransactionFeePercent,
		&p.InvestmentRules.StrongBuyPercent,
		&p.InvestmentRules.BuyPercent,
		&p.InvestmentRules.SellPercent,
		&p.InvestmentRules.StrongSellPercent,
		&p.MaxSinglePositionPercent,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		r.log.Debug().Msg("No saved parameters, using defaults")
		return DefaultParameters(time.Now().AddDate(0, 0, -90)), nil
	}
	if err != nil {
		return Parameters{}, fmt.Errorf("failed to load simulation parameters: %w", err)
	}

	p.StartDate, err = time.Parse("2006-01-02", startDate)
	if err != nil {
		return Parameters{}, fmt.Errorf("malformed stored start date %q: %w", startDate, err)
	}

	return p, nil
}

// SaveParameters upserts the simulation parameters
func (r *ParametersRepository) SaveParameters(p Parameters) error {
	_, err := r.db.Exec(`
		INSERT INTO simulation_parameters (
			id, start_date, initial_capital, transaction_fee_percent,
			strong_buy_percent, buy_percent, sell_percent, strong_sell_percent,
			max_single_position_percent, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			initial_capital = excluded.initial_capital,
			transaction_fee_percent = excluded.transaction_fee_percent,
			strong_buy_percent = excluded.strong_buy_percent,
			buy_percent = excluded.buy_percent,
			sell_percent = excluded.sell_percent,
			strong_sell_percent = excluded.strong_sell_percent,
			max_single_position_percent = excluded.max_single_position_percent,
			updated_at = excluded.updated_at
	`,
		p.StartDate.Format("2006-01-02"),
		p.InitialCapital,
		p.TransactionFeePercent,
		p.InvestmentRules.StrongBuyPercent,
		p.InvestmentRules.BuyPercent,
		p.InvestmentRules.SellPercent,
		p.InvestmentRules.StrongSellPercent,
		p.MaxSinglePositionPercent,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save simulation parameters: %w", err)
	}
	return nil
}

// GetRecommendationParameters loads the saved classification thresholds.
// Categories missing from storage fall back to the documented defaults.
func (r *ParametersRepository) GetRecommendationParameters() (signals.RecommendationParameters, error) {
	params := signals.DefaultRecommendationParameters()

	rows, err := r.db.Query(`
		SELECT category, trend_strength, macd_threshold, histogram_change
		FROM recommendation_parameters
	`)
	if err != nil {
		return params, fmt.Errorf("failed to load recommendation parameters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var t signals.CategoryThresholds
		if err := rows.Scan(&category, &t.TrendStrength, &t.MACDThreshold, &t.HistogramChange); err != nil {
			return params, fmt.Errorf("failed to scan recommendation parameters: %w", err)
		}

		switch category {
		case "strong_buy":
			params.StrongBuy = t
		case "buy":
			params.Buy = t
		case "sell":
			params.Sell = t
		case "strong_sell":
			params.StrongSell = t
		default:
			return params, fmt.Errorf("unknown recommendation category %q in storage", category)
		}
	}
	if err := rows.Err(); err != nil {
		return params, fmt.Errorf("error iterating recommendation parameters: %w", err)
	}

	return params, nil
}

// SaveRecommendationParameters upserts all four categories
func (r *ParametersRepository) SaveRecommendationParameters(params signals.RecommendationParameters) error {
	categories := map[string]signals.CategoryThresholds{
		"strong_buy":  params.StrongBuy,
		"buy":         params.Buy,
		"sell":        params.Sell,
		"strong_sell": params.StrongSell,
	}

	for category, t := range categories {
		_, err := r.db.Exec(`
			INSERT INTO recommendation_parameters (category, trend_strength, macd_threshold, histogram_change)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(category) DO UPDATE SET
				trend_strength = excluded.trend_strength,
				macd_threshold = excluded.macd_threshold,
				histogram_change = excluded.histogram_change
		`, category, t.TrendStrength, t.MACDThreshold, t.HistogramChange)
		if err != nil {
			return fmt.Errorf("failed to save %s thresholds: %w", category, err)
		}
	}

	return nil
}
