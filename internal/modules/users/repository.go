// Package users stores per-user account preferences.
package users

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Preferences is a user's account-level settings. Free-form settings live in
// PreferencesJSON so the dashboard can evolve without schema changes.
type Preferences struct {
	UserID          string    `json:"user_id"`
	Email           string    `json:"email,omitempty"`
	DisplayName     string    `json:"display_name,omitempty"`
	RiskTolerance   string    `json:"risk_tolerance,omitempty"`
	PreferencesJSON string    `json:"preferences_json,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Repository handles user preference persistence against app.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new user preferences repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "users").Logger(),
	}
}

// Upsert writes a user's preferences keyed by user id.
func (r *Repository) Upsert(p *Preferences) error {
	query := `INSERT INTO user_preferences
		(user_id, email, display_name, risk_tolerance, preferences_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			risk_tolerance = excluded.risk_tolerance,
			preferences_json = excluded.preferences_json,
			updated_at = excluded.updated_at`

	_, err := r.db.Exec(query,
		p.UserID, p.Email, p.DisplayName, p.RiskTolerance, p.PreferencesJSON,
		time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert preferences for %s: %w", p.UserID, err)
	}

	return nil
}

// Get returns a user's preferences, or nil when none are stored.
func (r *Repository) Get(userID string) (*Preferences, error) {
	query := `SELECT user_id, COALESCE(email, ''), COALESCE(display_name, ''),
		COALESCE(risk_tolerance, ''), COALESCE(preferences_json, ''), updated_at
		FROM user_preferences WHERE user_id = ?`

	var p Preferences
	var updatedAt int64
	err := r.db.QueryRow(query, userID).Scan(
		&p.UserID, &p.Email, &p.DisplayName, &p.RiskTolerance, &p.PreferencesJSON, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences for %s: %w", userID, err)
	}

	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

// GetEmailForUser returns a user's notification address, or "" when the
// user is unknown or has no email on file.
func (r *Repository) GetEmailForUser(userID string) (string, error) {
	p, err := r.Get(userID)
	if err != nil || p == nil {
		return "", err
	}
	return p.Email, nil
}
