package newsletter

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// PrefsRepository handles newsletter preference persistence against app.db.
type PrefsRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPrefsRepository creates a new preferences repository.
func NewPrefsRepository(db *sql.DB, log zerolog.Logger) *PrefsRepository {
	return &PrefsRepository{
		db:  db,
		log: log.With().Str("repo", "newsletter_prefs").Logger(),
	}
}

const prefsColumns = `user_id, email, is_subscribed, frequency, preferred_day,
	interested_in_options, interested_in_dark_pool, interested_in_insiders,
	interested_in_recommendations, last_delivery_at, updated_at`

// Upsert writes preferences keyed by user id. The delivery timestamp is
// managed separately via RecordDelivery and is not touched here.
func (r *PrefsRepository) Upsert(p *Preferences) error {
	query := `INSERT INTO newsletter_preferences
		(user_id, email, is_subscribed, frequency, preferred_day,
		 interested_in_options, interested_in_dark_pool, interested_in_insiders,
		 interested_in_recommendations, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			email = excluded.email,
			is_subscribed = excluded.is_subscribed,
			frequency = excluded.frequency,
			preferred_day = excluded.preferred_day,
			interested_in_options = excluded.interested_in_options,
			interested_in_dark_pool = excluded.interested_in_dark_pool,
			interested_in_insiders = excluded.interested_in_insiders,
			interested_in_recommendations = excluded.interested_in_recommendations,
			updated_at = excluded.updated_at`

	_, err := r.db.Exec(query,
		p.UserID, p.Email, p.IsSubscribed, p.Frequency, p.PreferredDay,
		p.InterestedInOptions, p.InterestedInDarkPool, p.InterestedInInsiders,
		p.InterestedInRecommendations, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert newsletter preferences for %s: %w", p.UserID, err)
	}

	return nil
}

// Get returns one user's preferences, or nil when none are stored.
func (r *PrefsRepository) Get(userID string) (*Preferences, error) {
	row := r.db.QueryRow(
		`SELECT `+prefsColumns+` FROM newsletter_preferences WHERE user_id = ?`, userID)

	p, err := scanPrefs(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get newsletter preferences for %s: %w", userID, err)
	}
	return p, nil
}

// GetSubscribed returns every subscribed user's preferences.
func (r *PrefsRepository) GetSubscribed() ([]Preferences, error) {
	rows, err := r.db.Query(
		`SELECT ` + prefsColumns + ` FROM newsletter_preferences WHERE is_subscribed = 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribed users: %w", err)
	}
	defer rows.Close()

	var prefs []Preferences
	for rows.Next() {
		p, err := scanPrefs(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan newsletter preferences: %w", err)
		}
		prefs = append(prefs, *p)
	}

	return prefs, rows.Err()
}

// SetSubscribed flips the subscription flag for a user, creating a minimal
// row when subscribing an unknown user with an email address.
func (r *PrefsRepository) SetSubscribed(userID, email string, subscribed bool) error {
	if subscribed && email != "" {
		query := `INSERT INTO newsletter_preferences (user_id, email, is_subscribed, updated_at)
			VALUES (?, ?, 1, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				email = excluded.email,
				is_subscribed = 1,
				updated_at = excluded.updated_at`
		if _, err := r.db.Exec(query, userID, email, time.Now().Unix()); err != nil {
			return fmt.Errorf("failed to subscribe %s: %w", userID, err)
		}
		return nil
	}

	res, err := r.db.Exec(
		`UPDATE newsletter_preferences SET is_subscribed = ?, updated_at = ? WHERE user_id = ?`,
		subscribed, time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("failed to update subscription for %s: %w", userID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check subscription update: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// RecordDelivery stamps the last delivery time for a user.
func (r *PrefsRepository) RecordDelivery(userID string, at time.Time) error {
	_, err := r.db.Exec(
		`UPDATE newsletter_preferences SET last_delivery_at = ?, updated_at = ? WHERE user_id = ?`,
		at.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("failed to record delivery for %s: %w", userID, err)
	}
	return nil
}

func scanPrefs(scan func(dest ...interface{}) error) (*Preferences, error) {
	var p Preferences
	var lastDelivery sql.NullInt64
	var updatedAt int64

	err := scan(&p.UserID, &p.Email, &p.IsSubscribed, &p.Frequency, &p.PreferredDay,
		&p.InterestedInOptions, &p.InterestedInDarkPool, &p.InterestedInInsiders,
		&p.InterestedInRecommendations, &lastDelivery, &updatedAt)
	if err != nil {
		return nil, err
	}

	if lastDelivery.Valid {
		t := time.Unix(lastDelivery.Int64, 0)
		p.LastDeliveryAt = &t
	}
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}
