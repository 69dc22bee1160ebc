// Package portfolio manages user portfolios: positions, the append-only
// transaction ledger, and daily performance snapshots.
package portfolio

import "time"

// Portfolio is one user-owned collection of positions. A user has at most
// one default portfolio among their active portfolios.
type Portfolio struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsDefault   bool      `json:"is_default"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Position is one holding. The valuation fields (current value, unrealized
// gain absolute/percent) are denormalized and always recomputed together
// from quantity, average cost and current price.
type Position struct {
	ID                    string    `json:"id"`
	PortfolioID           string    `json:"portfolio_id"`
	Symbol                string    `json:"symbol"`
	Quantity              float64   `json:"quantity"`
	AverageCost           float64   `json:"average_cost"`
	CurrentPrice          float64   `json:"current_price"`
	CurrentValue          float64   `json:"current_value"`
	CostBasis             float64   `json:"cost_basis"`
	UnrealizedGain        float64   `json:"unrealized_gain"`
	UnrealizedGainPercent float64   `json:"unrealized_gain_percent"`
	Notes                 string    `json:"notes,omitempty"`
	IsActive              bool      `json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// revalue recomputes the derived valuation fields from the inputs. Keeping
// this in one place preserves the invariant that they never drift apart.
func (p *Position) revalue() {
	p.CostBasis = p.Quantity * p.AverageCost
	p.CurrentValue = p.Quantity * p.CurrentPrice
	p.UnrealizedGain = p.CurrentValue - p.CostBasis
	if p.CostBasis != 0 {
		p.UnrealizedGainPercent = p.UnrealizedGain / p.CostBasis * 100
	} else {
		p.UnrealizedGainPercent = 0
	}
}

// Transaction is one row in the append-only trade ledger.
type Transaction struct {
	ID              string    `json:"id"`
	PortfolioID     string    `json:"portfolio_id"`
	PositionID      string    `json:"position_id,omitempty"`
	Type            string    `json:"type"`
	Symbol          string    `json:"symbol"`
	Quantity        float64   `json:"quantity"`
	Price           float64   `json:"price"`
	TotalValue      float64   `json:"total_value"`
	Fees            float64   `json:"fees"`
	TransactionDate string    `json:"transaction_date"`
	CreatedAt       time.Time `json:"created_at"`
}

// PerformanceSnapshot is one dated portfolio valuation roll-up. Day change
// compares against the snapshot dated exactly yesterday; absent that, day
// change is zero.
type PerformanceSnapshot struct {
	ID               string    `json:"id"`
	PortfolioID      string    `json:"portfolio_id"`
	Date             string    `json:"date"`
	TotalValue       float64   `json:"total_value"`
	CostBasis        float64   `json:"cost_basis"`
	DayChange        float64   `json:"day_change"`
	DayChangePercent float64   `json:"day_change_percent"`
	TotalGain        float64   `json:"total_gain"`
	TotalGainPercent float64   `json:"total_gain_percent"`
	PositionCount    int       `json:"position_count"`
	CreatedAt        time.Time `json:"created_at"`
}
