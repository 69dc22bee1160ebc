package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LedgerRepository handles the append-only tables in ledger.db: the
// transaction log and performance snapshots. Rows here are never updated or
// deleted.
type LedgerRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewLedgerRepository creates a new ledger repository.
func NewLedgerRepository(db *sql.DB, log zerolog.Logger) *LedgerRepository {
	return &LedgerRepository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

// AppendTransaction writes one trade to the ledger.
func (r *LedgerRepository) AppendTransaction(tx *Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.TransactionDate == "" {
		tx.TransactionDate = time.Now().Format("2006-01-02")
	}
	tx.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO transactions
		 (id, portfolio_id, position_id, type, symbol, quantity, price, total_value, fees, transaction_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.PortfolioID, tx.PositionID, tx.Type, tx.Symbol, tx.Quantity,
		tx.Price, tx.TotalValue, tx.Fees, tx.TransactionDate, tx.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// GetTransactions returns a portfolio's transactions, most recent first.
func (r *LedgerRepository) GetTransactions(portfolioID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(
		`SELECT id, portfolio_id, COALESCE(position_id, ''), type, symbol,
		 quantity, price, total_value, fees, transaction_date, created_at
		 FROM transactions WHERE portfolio_id = ?
		 ORDER BY transaction_date DESC, created_at DESC LIMIT ?`,
		portfolioID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for %s: %w", portfolioID, err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var tx Transaction
		var createdAt int64
		if err := rows.Scan(&tx.ID, &tx.PortfolioID, &tx.PositionID, &tx.Type,
			&tx.Symbol, &tx.Quantity, &tx.Price, &tx.TotalValue, &tx.Fees,
			&tx.TransactionDate, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.CreatedAt = time.Unix(createdAt, 0)
		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

// AppendSnapshot writes one performance snapshot.
func (r *LedgerRepository) AppendSnapshot(s *PerformanceSnapshot) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO performance_snapshots
		 (id, portfolio_id, date, total_value, cost_basis, day_change,
		  day_change_percent, total_gain, total_gain_percent, position_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.PortfolioID, s.Date, s.TotalValue, s.CostBasis, s.DayChange,
		s.DayChangePercent, s.TotalGain, s.TotalGainPercent, s.PositionCount,
		s.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}

	return nil
}

// GetSnapshotForDate returns the latest snapshot with an exact calendar-date
// match, or nil if none exists. Day-change computation uses this with
// yesterday's date.
func (r *LedgerRepository) GetSnapshotForDate(portfolioID, date string) (*PerformanceSnapshot, error) {
	row := r.db.QueryRow(
		`SELECT id, portfolio_id, date, total_value, cost_basis, day_change,
		 day_change_percent, total_gain, total_gain_percent, position_count, created_at
		 FROM performance_snapshots WHERE portfolio_id = ? AND date = ?
		 ORDER BY created_at DESC LIMIT 1`,
		portfolioID, date)

	var s PerformanceSnapshot
	var createdAt int64
	err := row.Scan(&s.ID, &s.PortfolioID, &s.Date, &s.TotalValue, &s.CostBasis,
		&s.DayChange, &s.DayChangePercent, &s.TotalGain, &s.TotalGainPercent,
		&s.PositionCount, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot for %s on %s: %w", portfolioID, date, err)
	}

	s.CreatedAt = time.Unix(createdAt, 0)
	return &s, nil
}

// GetSnapshotsSince returns snapshots dated on or after the cutoff, most
// recent first.
func (r *LedgerRepository) GetSnapshotsSince(portfolioID, cutoffDate string) ([]PerformanceSnapshot, error) {
	rows, err := r.db.Query(
		`SELECT id, portfolio_id, date, total_value, cost_basis, day_change,
		 day_change_percent, total_gain, total_gain_percent, position_count, created_at
		 FROM performance_snapshots WHERE portfolio_id = ? AND date >= ?
		 ORDER BY date DESC, created_at DESC`,
		portfolioID, cutoffDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots for %s: %w", portfolioID, err)
	}
	defer rows.Close()

	var snapshots []PerformanceSnapshot
	for rows.Next() {
		var s PerformanceSnapshot
		var createdAt int64
		if err := rows.Scan(&s.ID, &s.PortfolioID, &s.Date, &s.TotalValue,
			&s.CostBasis, &s.DayChange, &s.DayChangePercent, &s.TotalGain,
			&s.TotalGainPercent, &s.PositionCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.CreatedAt = time.Unix(createdAt, 0)
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}
