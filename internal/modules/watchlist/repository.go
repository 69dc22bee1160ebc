package watchlist

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrAlreadyActive is returned when adding a symbol that is already on the
// user's active watchlist. No row is mutated in that case.
var ErrAlreadyActive = fmt.Errorf("symbol already on watchlist")

// Repository handles watchlist persistence against app.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new watchlist repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "watchlist").Logger(),
	}
}

// Add puts a symbol on a user's watchlist. An inactive row for the same pair
// is reactivated with a fresh added_at; an active row yields ErrAlreadyActive
// without mutation.
func (r *Repository) Add(userID, symbol, notes string) (*AddResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	existing, err := r.get(userID, symbol)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if existing != nil {
		if existing.IsActive {
			return nil, ErrAlreadyActive
		}

		_, err := r.db.Exec(
			`UPDATE watchlist_entries SET is_active = 1, notes = ?, added_at = ? WHERE id = ?`,
			notes, now.Unix(), existing.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reactivate watchlist entry: %w", err)
		}

		existing.IsActive = true
		existing.Notes = notes
		existing.AddedAt = now
		return &AddResult{Entry: existing, Reactivated: true}, nil
	}

	entry := &Entry{
		ID:       uuid.NewString(),
		UserID:   userID,
		Symbol:   symbol,
		IsActive: true,
		Notes:    notes,
		AddedAt:  now,
	}

	_, err = r.db.Exec(
		`INSERT INTO watchlist_entries (id, user_id, symbol, is_active, notes, added_at)
		 VALUES (?, ?, ?, 1, ?, ?)`,
		entry.ID, entry.UserID, entry.Symbol, entry.Notes, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert watchlist entry: %w", err)
	}

	return &AddResult{Entry: entry}, nil
}

// BulkAdd adds multiple symbols, skipping already-active ones, and returns
// the entries that were added or reactivated.
func (r *Repository) BulkAdd(userID string, symbols []string) ([]Entry, error) {
	var added []Entry
	for _, symbol := range symbols {
		result, err := r.Add(userID, symbol, "")
		if err == ErrAlreadyActive {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("failed to add %s: %w", symbol, err)
		}
		added = append(added, *result.Entry)
	}
	return added, nil
}

// Remove soft-deletes a watchlist entry. Removing a symbol that is not
// actively watched reports sql.ErrNoRows.
func (r *Repository) Remove(userID, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	res, err := r.db.Exec(
		`UPDATE watchlist_entries SET is_active = 0 WHERE user_id = ? AND symbol = ? AND is_active = 1`,
		userID, symbol)
	if err != nil {
		return fmt.Errorf("failed to remove watchlist entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check removal: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// GetForUser returns a user's active watchlist entries, newest first.
func (r *Repository) GetForUser(userID string) ([]Entry, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, symbol, is_active, COALESCE(notes, ''), added_at
		 FROM watchlist_entries WHERE user_id = ? AND is_active = 1
		 ORDER BY added_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist for %s: %w", userID, err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetDistinctActiveSymbols returns every symbol actively watched by at least
// one user. This drives the collection run.
func (r *Repository) GetDistinctActiveSymbols() ([]string, error) {
	rows, err := r.db.Query(
		`SELECT DISTINCT symbol FROM watchlist_entries WHERE is_active = 1 ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}

	return symbols, rows.Err()
}

// GetUsersWatching returns the user ids actively watching a symbol. Used by
// the alert service to fan price alerts out to interested users.
func (r *Repository) GetUsersWatching(symbol string) ([]string, error) {
	rows, err := r.db.Query(
		`SELECT user_id FROM watchlist_entries WHERE symbol = ? AND is_active = 1`,
		strings.ToUpper(symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to query watchers for %s: %w", symbol, err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (r *Repository) get(userID, symbol string) (*Entry, error) {
	var e Entry
	var addedAt int64
	err := r.db.QueryRow(
		`SELECT id, user_id, symbol, is_active, COALESCE(notes, ''), added_at
		 FROM watchlist_entries WHERE user_id = ? AND symbol = ?`,
		userID, symbol).Scan(&e.ID, &e.UserID, &e.Symbol, &e.IsActive, &e.Notes, &addedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist entry: %w", err)
	}

	e.AddedAt = time.Unix(addedAt, 0)
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var addedAt int64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Symbol, &e.IsActive, &e.Notes, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		e.AddedAt = time.Unix(addedAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
