// Package history stores and serves daily price history. Each symbol gets
// its own SQLite database file under the history directory.
package history

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for per-symbol history files
	"github.com/rs/zerolog"

	"github.com/bluewave/stocksim/internal/domain"
)

const dailyPricesSchema = `
CREATE TABLE IF NOT EXISTS daily_prices (
    date TEXT PRIMARY KEY,
    open_price REAL NOT NULL,
    high_price REAL NOT NULL,
    low_price REAL NOT NULL,
    close_price REAL NOT NULL,
    volume INTEGER
);
`

// Store provides access to historical price data
type Store struct {
	historyDir string
	log        zerolog.Logger
}

// NewStore creates a new history store rooted at historyDir
func NewStore(historyDir string, log zerolog.Logger) *Store {
	return &Store{
		historyDir: historyDir,
		log:        log.With().Str("component", "history_store").Logger(),
	}
}

// GetDailyPrices fetches stored daily bars for a symbol within [start, end],
// ordered by date ascending. A symbol with no history database yields an
// empty series, not an error.
func (s *Store) GetDailyPrices(symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	db, err := s.openHistoryDB(symbol)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT date, open_price, high_price, low_price, close_price, volume
		FROM daily_prices
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []domain.PriceBar
	for rows.Next() {
		var dateStr string
		var bar domain.PriceBar
		var volume sql.NullInt64

		if err := rows.Scan(&dateStr, &bar.Open, &bar.High, &bar.Low, &bar.Close, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}

		bar.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("malformed stored date %q for %s: %w", dateStr, symbol, err)
		}
		if volume.Valid {
			bar.Volume = volume.Int64
		}

		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	return bars, nil
}

// SaveDailyPrices upserts daily bars for a symbol
func (s *Store) SaveDailyPrices(symbol string, bars []domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	db, err := s.openHistoryDB(symbol)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin save for %s: %w", symbol, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (date, open_price, high_price, low_price, close_price, volume)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			open_price = excluded.open_price,
			high_price = excluded.high_price,
			low_price = excluded.low_price,
			close_price = excluded.close_price,
			volume = excluded.volume
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare save for %s: %w", symbol, err)
	}
	defer stmt.Close()

	for _, bar := range bars {
		_, err := stmt.Exec(bar.Date.Format("2006-01-02"), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save bar %s/%s: %w", symbol, bar.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save for %s: %w", symbol, err)
	}

	s.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("Saved daily prices")
	return nil
}

// openHistoryDB opens (creating if needed) the history database for a symbol
func (s *Store) openHistoryDB(symbol string) (*sql.DB, error) {
	// Convert symbol format: BRK.B -> BRK_B
	dbSymbol := strings.ReplaceAll(strings.ToUpper(symbol), ".", "_")

	dbPath := filepath.Join(s.historyDir, dbSymbol+".db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database for %s: %w", symbol, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database for %s: %w", symbol, err)
	}

	if _, err := db.Exec(dailyPricesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema for %s: %w", symbol, err)
	}

	return db, nil
}
