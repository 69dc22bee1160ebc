package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PositionRepository handles position rows in app.db.
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository.
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repo", "positions").Logger(),
	}
}

const positionColumns = `id, portfolio_id, symbol, quantity, average_cost,
	current_price, current_value, cost_basis, unrealized_gain,
	unrealized_gain_percent, COALESCE(notes, ''), is_active, created_at, updated_at`

// Insert writes a new position row. The id is generated when empty.
func (r *PositionRepository) Insert(p *Position) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO positions
		 (id, portfolio_id, symbol, quantity, average_cost, current_price,
		  current_value, cost_basis, unrealized_gain, unrealized_gain_percent,
		  notes, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		p.ID, p.PortfolioID, p.Symbol, p.Quantity, p.AverageCost, p.CurrentPrice,
		p.CurrentValue, p.CostBasis, p.UnrealizedGain, p.UnrealizedGainPercent,
		p.Notes, now.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert position: %w", err)
	}

	p.IsActive = true
	return nil
}

// Get returns a position by id, or nil if it does not exist.
func (r *PositionRepository) Get(id string) (*Position, error) {
	row := r.db.QueryRow(`SELECT `+positionColumns+` FROM positions WHERE id = ?`, id)
	return scanPositionRow(row)
}

// GetActiveForPortfolio returns a portfolio's active positions.
func (r *PositionRepository) GetActiveForPortfolio(portfolioID string) ([]Position, error) {
	rows, err := r.db.Query(
		`SELECT `+positionColumns+` FROM positions
		 WHERE portfolio_id = ? AND is_active = 1 ORDER BY symbol`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions for %s: %w", portfolioID, err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, *p)
	}

	return positions, rows.Err()
}

// Update rewrites a position's mutable fields including the derived
// valuation columns, which callers must have recomputed together.
func (r *PositionRepository) Update(p *Position) error {
	p.UpdatedAt = time.Now()
	_, err := r.db.Exec(
		`UPDATE positions SET quantity = ?, average_cost = ?, current_price = ?,
		 current_value = ?, cost_basis = ?, unrealized_gain = ?,
		 unrealized_gain_percent = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		p.Quantity, p.AverageCost, p.CurrentPrice, p.CurrentValue, p.CostBasis,
		p.UnrealizedGain, p.UnrealizedGainPercent, p.Notes, p.UpdatedAt.Unix(), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update position %s: %w", p.ID, err)
	}
	return nil
}

// SoftDelete deactivates a position.
func (r *PositionRepository) SoftDelete(id string) error {
	_, err := r.db.Exec(
		`UPDATE positions SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to delete position %s: %w", id, err)
	}
	return nil
}

func scanPosition(rows *sql.Rows) (*Position, error) {
	var p Position
	var createdAt, updatedAt int64
	if err := rows.Scan(&p.ID, &p.PortfolioID, &p.Symbol, &p.Quantity, &p.AverageCost,
		&p.CurrentPrice, &p.CurrentValue, &p.CostBasis, &p.UnrealizedGain,
		&p.UnrealizedGainPercent, &p.Notes, &p.IsActive, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

func scanPositionRow(row *sql.Row) (*Position, error) {
	var p Position
	var createdAt, updatedAt int64
	err := row.Scan(&p.ID, &p.PortfolioID, &p.Symbol, &p.Quantity, &p.AverageCost,
		&p.CurrentPrice, &p.CurrentValue, &p.CostBasis, &p.UnrealizedGain,
		&p.UnrealizedGainPercent, &p.Notes, &p.IsActive, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}

	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}
