// Package watchlist stores the ordered set of symbols the simulation and
// analysis run against.
package watchlist

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Schema for the watchlist table. Position keeps user ordering; symbol is
// unique so duplicates collapse to a single logical entry.
const Schema = `
CREATE TABLE IF NOT EXISTS watchlist (
    id INTEGER PRIMARY KEY,
    symbol TEXT UNIQUE NOT NULL,
    position INTEGER NOT NULL,
    added_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_watchlist_position ON watchlist(position);
`

// InitSchema ensures the watchlist table exists
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// Entry is one watchlist row
type Entry struct {
	ID      int64  `json:"id"`
	Symbol  string `json:"symbol"`
	AddedAt string `json:"added_at"`
}

// Repository provides watchlist persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new watchlist repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "watchlist").Logger(),
	}
}

// GetAll returns all watchlist entries in user order
func (r *Repository) GetAll() ([]Entry, error) {
	rows, err := r.db.Query(`SELECT id, symbol, added_at FROM watchlist ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Symbol, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlist: %w", err)
	}

	return entries, nil
}

// Symbols returns the ordered symbol list
func (r *Repository) Symbols() ([]string, error) {
	entries, err := r.GetAll()
	if err != nil {
		return nil, err
	}

	symbols := make([]string, len(entries))
	for i, e := range entries {
		symbols[i] = e.Symbol
	}
	return symbols, nil
}

// Add appends a symbol to the watchlist. The symbol is normalized to upper
// case; adding an already-present symbol is a no-op.
func (r *Repository) Add(symbol string) (Entry, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return Entry{}, fmt.Errorf("symbol cannot be empty")
	}

	_, err := r.db.Exec(`
		INSERT INTO watchlist (symbol, position, added_at)
		VALUES (?, COALESCE((SELECT MAX(position) FROM watchlist), 0) + 1, ?)
		ON CONFLICT(symbol) DO NOTHING
	`, normalized, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return Entry{}, fmt.Errorf("failed to add %s to watchlist: %w", normalized, err)
	}

	var e Entry
	err = r.db.QueryRow(`SELECT id, symbol, added_at FROM watchlist WHERE symbol = ?`, normalized).
		Scan(&e.ID, &e.Symbol, &e.AddedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read back watchlist entry: %w", err)
	}

	return e, nil
}

// Remove deletes a symbol from the watchlist. Returns true if a row was
// removed.
func (r *Repository) Remove(symbol string) (bool, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))

	result, err := r.db.Exec(`DELETE FROM watchlist WHERE symbol = ?`, normalized)
	if err != nil {
		return false, fmt.Errorf("failed to remove %s from watchlist: %w", normalized, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check removal of %s: %w", normalized, err)
	}

	return affected > 0, nil
}
