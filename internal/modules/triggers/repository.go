// Package triggers ingests externally-generated stock events and notifies
// users about them.
package triggers

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// StockEvent is one ingested trigger event.
type StockEvent struct {
	ID        string    `json:"id"`
	Ticker    string    `json:"ticker"`
	EventType string    `json:"event_type"`
	Details   string    `json:"details,omitempty"`
	Source    string    `json:"source,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository handles stock-event persistence against app.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new stock-event repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "triggers").Logger(),
	}
}

// Insert stores a new event. A missing ID is generated and the status is
// forced to pending.
func (r *Repository) Insert(e *StockEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Ticker = strings.ToUpper(strings.TrimSpace(e.Ticker))
	e.Status = StatusPending
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	query := `INSERT INTO stock_events
		(id, ticker, event_type, details, source, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		e.ID, e.Ticker, e.EventType, e.Details, e.Source, e.Status,
		now.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert stock event for %s: %w", e.Ticker, err)
	}

	return nil
}

// UpdateStatus moves an event to a new status.
func (r *Repository) UpdateStatus(id, status string) error {
	res, err := r.db.Exec(
		`UPDATE stock_events SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update stock event %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check stock event update: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// GetByTicker returns a ticker's events, newest first.
func (r *Repository) GetByTicker(ticker string, limit int) ([]StockEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, ticker, event_type, COALESCE(details, ''), COALESCE(source, ''),
		status, created_at, updated_at
		FROM stock_events WHERE ticker = ?
		ORDER BY created_at DESC LIMIT ?`

	rows, err := r.db.Query(query, strings.ToUpper(strings.TrimSpace(ticker)), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock events for %s: %w", ticker, err)
	}
	defer rows.Close()

	var events []StockEvent
	for rows.Next() {
		var e StockEvent
		var createdAt, updatedAt int64
		if err := rows.Scan(&e.ID, &e.Ticker, &e.EventType, &e.Details, &e.Source,
			&e.Status, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock event: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		e.UpdatedAt = time.Unix(updatedAt, 0)
		events = append(events, e)
	}

	return events, rows.Err()
}
