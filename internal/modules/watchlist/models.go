// Package watchlist manages per-user symbol watchlists with soft-delete
// semantics: a (user, symbol) pair is unique forever, removal flips the
// active flag, and re-adding reactivates the existing row.
package watchlist

import "time"

// Entry is one watched symbol for one user.
type Entry struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Symbol   string    `json:"symbol"`
	IsActive bool      `json:"is_active"`
	Notes    string    `json:"notes,omitempty"`
	AddedAt  time.Time `json:"added_at"`
}

// AddResult describes the outcome of an add operation.
type AddResult struct {
	Entry       *Entry `json:"entry"`
	Reactivated bool   `json:"reactivated"`
}
