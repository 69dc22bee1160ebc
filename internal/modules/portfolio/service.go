package portfolio

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tramona1/AIHedgeFund/internal/modules/marketdata"
)

// QuoteSource provides the latest stored quote for a symbol. Implemented by
// the marketdata repository; faked in tests.
type QuoteSource interface {
	GetQuote(symbol string) (*marketdata.StockQuote, error)
}

// Service implements portfolio operations over the app and ledger
// repositories.
type Service struct {
	portfolios *PortfolioRepository
	positions  *PositionRepository
	ledger     *LedgerRepository
	quotes     QuoteSource
	log        zerolog.Logger
}

// NewService creates a portfolio service.
func NewService(
	portfolios *PortfolioRepository,
	positions *PositionRepository,
	ledger *LedgerRepository,
	quotes QuoteSource,
	log zerolog.Logger,
) *Service {
	return &Service{
		portfolios: portfolios,
		positions:  positions,
		ledger:     ledger,
		quotes:     quotes,
		log:        log.With().Str("service", "portfolio").Logger(),
	}
}

// CreatePortfolioInput carries the fields for CreatePortfolio.
type CreatePortfolioInput struct {
	Name        string
	Description string
	IsDefault   bool
}

// CreatePortfolio creates a portfolio for a user. The user's first portfolio
// becomes the default regardless of the requested flag; an explicit default
// request unsets the previous default first.
func (s *Service) CreatePortfolio(userID string, in CreatePortfolioInput) (*Portfolio, error) {
	count, err := s.portfolios.CountActive(userID)
	if err != nil {
		return nil, err
	}

	isDefault := in.IsDefault || count == 0
	if isDefault {
		if err := s.portfolios.ClearDefault(userID); err != nil {
			return nil, err
		}
	}

	p := &Portfolio{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		IsDefault:   isDefault,
	}
	if err := s.portfolios.Insert(p); err != nil {
		return nil, err
	}

	s.log.Info().Str("portfolio_id", p.ID).Str("user_id", userID).
		Bool("default", isDefault).Msg("Portfolio created")
	return p, nil
}

// UpdatePortfolioInput carries the updatable portfolio fields. Nil pointers
// leave the current value unchanged.
type UpdatePortfolioInput struct {
	Name        *string
	Description *string
	IsDefault   *bool
}

// UpdatePortfolio applies a partial update. Promoting a portfolio to default
// unsets the user's previous default.
func (s *Service) UpdatePortfolio(id string, in UpdatePortfolioInput) (*Portfolio, error) {
	p, err := s.portfolios.GetActive(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("portfolio %s not found", id)
	}

	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.IsDefault != nil && *in.IsDefault && !p.IsDefault {
		if err := s.portfolios.ClearDefault(p.UserID); err != nil {
			return nil, err
		}
		p.IsDefault = true
	}

	if err := s.portfolios.Update(p); err != nil {
		return nil, err
	}

	return p, nil
}

// DeletePortfolio soft-deletes a portfolio. When the deleted portfolio was
// the default, another active portfolio (if any) is promoted.
func (s *Service) DeletePortfolio(id string) error {
	p, err := s.portfolios.GetActive(id)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("portfolio %s not found", id)
	}

	if err := s.portfolios.SoftDelete(id); err != nil {
		return err
	}

	if p.IsDefault {
		remaining, err := s.portfolios.GetForUser(p.UserID)
		if err != nil {
			return err
		}
		if len(remaining) > 0 {
			if err := s.portfolios.SetDefault(remaining[0].ID); err != nil {
				return err
			}
			s.log.Info().Str("portfolio_id", remaining[0].ID).
				Msg("Promoted portfolio to default after deletion")
		}
	}

	return nil
}

// GetPortfoliosForUser returns a user's active portfolios with their active
// positions attached.
func (s *Service) GetPortfoliosForUser(userID string) ([]Portfolio, map[string][]Position, error) {
	portfolios, err := s.portfolios.GetForUser(userID)
	if err != nil {
		return nil, nil, err
	}

	positions := make(map[string][]Position, len(portfolios))
	for _, p := range portfolios {
		pos, err := s.positions.GetActiveForPortfolio(p.ID)
		if err != nil {
			return nil, nil, err
		}
		positions[p.ID] = pos
	}

	return portfolios, positions, nil
}

// AddPositionInput carries the fields for AddPosition.
type AddPositionInput struct {
	Symbol      string
	Quantity    float64
	AverageCost float64
	Notes       string
}

// AddPosition inserts a position, records a synthetic buy transaction and
// recomputes portfolio performance. The current price comes from the latest
// stored quote, falling back to the average cost when no quote exists.
func (s *Service) AddPosition(portfolioID string, in AddPositionInput) (*Position, error) {
	p, err := s.portfolios.GetActive(portfolioID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("portfolio %s not found", portfolioID)
	}

	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	price := s.currentPrice(symbol, in.AverageCost)

	pos := &Position{
		PortfolioID:  portfolioID,
		Symbol:       symbol,
		Quantity:     in.Quantity,
		AverageCost:  in.AverageCost,
		CurrentPrice: price,
		Notes:        in.Notes,
	}
	pos.revalue()

	if err := s.positions.Insert(pos); err != nil {
		return nil, err
	}

	if err := s.ledger.AppendTransaction(&Transaction{
		PortfolioID: portfolioID,
		PositionID:  pos.ID,
		Type:        "buy",
		Symbol:      symbol,
		Quantity:    in.Quantity,
		Price:       in.AverageCost,
		TotalValue:  in.Quantity * in.AverageCost,
	}); err != nil {
		s.log.Error().Err(err).Str("position_id", pos.ID).
			Msg("Failed to record buy transaction")
	}

	if err := s.UpdatePortfolioPerformance(portfolioID); err != nil {
		s.log.Error().Err(err).Str("portfolio_id", portfolioID).
			Msg("Failed to update performance after position add")
	}

	return pos, nil
}

// UpdatePositionInput carries the updatable position fields. Nil pointers
// leave the current value unchanged.
type UpdatePositionInput struct {
	Quantity    *float64
	AverageCost *float64
	Notes       *string
}

// UpdatePosition applies a partial update, recomputing the derived valuation
// fields against the latest price, then recomputes performance.
func (s *Service) UpdatePosition(positionID string, in UpdatePositionInput) (*Position, error) {
	pos, err := s.positions.Get(positionID)
	if err != nil {
		return nil, err
	}
	if pos == nil || !pos.IsActive {
		return nil, fmt.Errorf("position %s not found", positionID)
	}

	if in.Quantity != nil {
		pos.Quantity = *in.Quantity
	}
	if in.AverageCost != nil {
		pos.AverageCost = *in.AverageCost
	}
	if in.Notes != nil {
		pos.Notes = *in.Notes
	}

	pos.CurrentPrice = s.currentPrice(pos.Symbol, pos.AverageCost)
	pos.revalue()

	if err := s.positions.Update(pos); err != nil {
		return nil, err
	}

	if err := s.UpdatePortfolioPerformance(pos.PortfolioID); err != nil {
		s.log.Error().Err(err).Str("portfolio_id", pos.PortfolioID).
			Msg("Failed to update performance after position update")
	}

	return pos, nil
}

// RemovePosition soft-deletes a position and records a synthetic sell
// transaction at the current price (average-cost fallback).
func (s *Service) RemovePosition(positionID string) error {
	pos, err := s.positions.Get(positionID)
	if err != nil {
		return err
	}
	if pos == nil || !pos.IsActive {
		return fmt.Errorf("position %s not found", positionID)
	}

	price := s.currentPrice(pos.Symbol, pos.AverageCost)

	if err := s.positions.SoftDelete(positionID); err != nil {
		return err
	}

	if err := s.ledger.AppendTransaction(&Transaction{
		PortfolioID: pos.PortfolioID,
		PositionID:  pos.ID,
		Type:        "sell",
		Symbol:      pos.Symbol,
		Quantity:    pos.Quantity,
		Price:       price,
		TotalValue:  pos.Quantity * price,
	}); err != nil {
		s.log.Error().Err(err).Str("position_id", pos.ID).
			Msg("Failed to record sell transaction")
	}

	if err := s.UpdatePortfolioPerformance(pos.PortfolioID); err != nil {
		s.log.Error().Err(err).Str("portfolio_id", pos.PortfolioID).
			Msg("Failed to update performance after position removal")
	}

	return nil
}

// UpdatePortfolioPrices refreshes every active position from the latest
// quote table and recomputes performance. Positions without a stored quote
// keep their current price.
func (s *Service) UpdatePortfolioPrices(portfolioID string) error {
	positions, err := s.positions.GetActiveForPortfolio(portfolioID)
	if err != nil {
		return err
	}

	for i := range positions {
		pos := &positions[i]
		quote, err := s.quotes.GetQuote(pos.Symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", pos.Symbol).Msg("Quote lookup failed")
			continue
		}
		if quote == nil {
			continue
		}

		pos.CurrentPrice = quote.Price
		pos.revalue()
		if err := s.positions.Update(pos); err != nil {
			return err
		}
	}

	return s.UpdatePortfolioPerformance(portfolioID)
}

// UpdatePortfolioPerformance sums current value and cost basis across the
// active positions and appends a snapshot. Day change compares against the
// snapshot dated exactly yesterday; percentages guard zero denominators.
func (s *Service) UpdatePortfolioPerformance(portfolioID string) error {
	positions, err := s.positions.GetActiveForPortfolio(portfolioID)
	if err != nil {
		return err
	}

	var totalValue, costBasis float64
	for _, pos := range positions {
		totalValue += pos.CurrentValue
		costBasis += pos.CostBasis
	}

	now := time.Now()
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	prev, err := s.ledger.GetSnapshotForDate(portfolioID, yesterday)
	if err != nil {
		return err
	}

	var dayChange, dayChangePercent float64
	if prev != nil {
		dayChange = totalValue - prev.TotalValue
		if prev.TotalValue != 0 {
			dayChangePercent = dayChange / prev.TotalValue * 100
		}
	}

	totalGain := totalValue - costBasis
	totalGainPercent := 0.0
	if costBasis != 0 {
		totalGainPercent = totalGain / costBasis * 100
	}

	return s.ledger.AppendSnapshot(&PerformanceSnapshot{
		PortfolioID:      portfolioID,
		Date:             now.Format("2006-01-02"),
		TotalValue:       totalValue,
		CostBasis:        costBasis,
		DayChange:        dayChange,
		DayChangePercent: dayChangePercent,
		TotalGain:        totalGain,
		TotalGainPercent: totalGainPercent,
		PositionCount:    len(positions),
	})
}

// GetPortfolioPerformanceHistory returns snapshots from the last N days,
// most recent first. Days defaults to 30.
func (s *Service) GetPortfolioPerformanceHistory(portfolioID string, days int) ([]PerformanceSnapshot, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	return s.ledger.GetSnapshotsSince(portfolioID, cutoff)
}

// GetTransactions returns a portfolio's ledger entries, most recent first.
func (s *Service) GetTransactions(portfolioID string, limit int) ([]Transaction, error) {
	return s.ledger.GetTransactions(portfolioID, limit)
}

// RecordTransaction appends an explicit transaction to the ledger.
func (s *Service) RecordTransaction(tx *Transaction) error {
	if tx.Type != "buy" && tx.Type != "sell" {
		return fmt.Errorf("invalid transaction type %q", tx.Type)
	}
	tx.Symbol = strings.ToUpper(strings.TrimSpace(tx.Symbol))
	if tx.TotalValue == 0 {
		tx.TotalValue = tx.Quantity * tx.Price
	}
	return s.ledger.AppendTransaction(tx)
}

// currentPrice returns the latest stored price for a symbol, or the fallback
// when no quote exists or the lookup fails.
func (s *Service) currentPrice(symbol string, fallback float64) float64 {
	quote, err := s.quotes.GetQuote(symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote lookup failed")
		return fallback
	}
	if quote == nil || quote.Price <= 0 {
		return fallback
	}
	return quote.Price
}
