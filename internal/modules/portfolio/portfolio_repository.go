package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PortfolioRepository handles portfolio rows in app.db.
type PortfolioRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPortfolioRepository creates a new portfolio repository.
func NewPortfolioRepository(db *sql.DB, log zerolog.Logger) *PortfolioRepository {
	return &PortfolioRepository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

const portfolioColumns = `id, user_id, name, COALESCE(description, ''), is_default, is_active, created_at, updated_at`

// Insert writes a new portfolio row. The id is generated when empty.
func (r *PortfolioRepository) Insert(p *Portfolio) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO portfolios (id, user_id, name, description, is_default, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		p.ID, p.UserID, p.Name, p.Description, p.IsDefault, now.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}

	p.IsActive = true
	return nil
}

// Get returns a portfolio by id, or nil if it does not exist.
func (r *PortfolioRepository) Get(id string) (*Portfolio, error) {
	row := r.db.QueryRow(`SELECT `+portfolioColumns+` FROM portfolios WHERE id = ?`, id)
	return scanPortfolio(row)
}

// GetActive returns an active portfolio by id, or nil.
func (r *PortfolioRepository) GetActive(id string) (*Portfolio, error) {
	row := r.db.QueryRow(`SELECT `+portfolioColumns+` FROM portfolios WHERE id = ? AND is_active = 1`, id)
	return scanPortfolio(row)
}

// GetForUser returns a user's active portfolios, default first.
func (r *PortfolioRepository) GetForUser(userID string) ([]Portfolio, error) {
	rows, err := r.db.Query(
		`SELECT `+portfolioColumns+` FROM portfolios
		 WHERE user_id = ? AND is_active = 1
		 ORDER BY is_default DESC, created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios for %s: %w", userID, err)
	}
	defer rows.Close()

	var portfolios []Portfolio
	for rows.Next() {
		var p Portfolio
		var createdAt, updatedAt int64
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description,
			&p.IsDefault, &p.IsActive, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		p.CreatedAt = time.Unix(createdAt, 0)
		p.UpdatedAt = time.Unix(updatedAt, 0)
		portfolios = append(portfolios, p)
	}

	return portfolios, rows.Err()
}

// Update rewrites name, description and default flag for a portfolio.
func (r *PortfolioRepository) Update(p *Portfolio) error {
	p.UpdatedAt = time.Now()
	_, err := r.db.Exec(
		`UPDATE portfolios SET name = ?, description = ?, is_default = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Description, p.IsDefault, p.UpdatedAt.Unix(), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update portfolio %s: %w", p.ID, err)
	}
	return nil
}

// SoftDelete deactivates a portfolio and clears its default flag.
func (r *PortfolioRepository) SoftDelete(id string) error {
	_, err := r.db.Exec(
		`UPDATE portfolios SET is_active = 0, is_default = 0, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio %s: %w", id, err)
	}
	return nil
}

// ClearDefault unsets the default flag on all of a user's portfolios.
// Called before setting a new default so at most one is ever flagged.
func (r *PortfolioRepository) ClearDefault(userID string) error {
	_, err := r.db.Exec(
		`UPDATE portfolios SET is_default = 0, updated_at = ? WHERE user_id = ? AND is_default = 1`,
		time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("failed to clear default portfolio for %s: %w", userID, err)
	}
	return nil
}

// SetDefault flags one portfolio as the user's default.
func (r *PortfolioRepository) SetDefault(id string) error {
	_, err := r.db.Exec(
		`UPDATE portfolios SET is_default = 1, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to set default portfolio %s: %w", id, err)
	}
	return nil
}

// CountActive returns the number of active portfolios a user has.
func (r *PortfolioRepository) CountActive(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM portfolios WHERE user_id = ? AND is_active = 1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count portfolios for %s: %w", userID, err)
	}
	return count, nil
}

func scanPortfolio(row *sql.Row) (*Portfolio, error) {
	var p Portfolio
	var createdAt, updatedAt int64
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description,
		&p.IsDefault, &p.IsActive, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan portfolio: %w", err)
	}

	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}
