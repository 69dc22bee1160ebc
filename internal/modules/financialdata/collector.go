package financialdata

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Tramona1/AIHedgeFund/internal/clients/unusualwhales"
)

const feedFetchLimit = 100

// Collector pulls the filing-based feeds from Unusual Whales into the
// repository.
type Collector struct {
	repo *Repository
	flow unusualwhales.ClientInterface
	log  zerolog.Logger
}

// NewCollector creates a financial-data collector.
func NewCollector(repo *Repository, flow unusualwhales.ClientInterface, log zerolog.Logger) *Collector {
	return &Collector{
		repo: repo,
		flow: flow,
		log:  log.With().Str("component", "financialdata_collector").Logger(),
	}
}

// CollectInsiderTrades fetches and stores recent insider transactions.
func (c *Collector) CollectInsiderTrades(ctx context.Context) (int, error) {
	trades, err := c.flow.GetInsiderTrades(ctx, unusualwhales.QueryOpts{Limit: feedFetchLimit})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch insider trades: %w", err)
	}

	stored := 0
	for _, t := range trades {
		rec := &InsiderTrade{
			ID:              t.ID,
			Ticker:          t.Ticker,
			InsiderName:     t.InsiderName,
			Title:           t.Title,
			TransactionType: t.TransactionType,
			Shares:          t.Shares,
			Price:           t.Price,
			Value:           t.Value,
			FiledAt:         t.FiledAt,
			TransactionDate: t.TransactionDate,
		}
		if err := c.repo.UpsertInsiderTrade(rec); err != nil {
			c.log.Error().Err(err).Str("ticker", t.Ticker).Msg("Failed to store insider trade")
			continue
		}
		stored++
	}

	c.log.Info().Int("stored", stored).Int("fetched", len(trades)).
		Msg("Insider trades collected")
	return stored, nil
}

// CollectPoliticalTrades fetches and stores congressional disclosures.
func (c *Collector) CollectPoliticalTrades(ctx context.Context) (int, error) {
	trades, err := c.flow.GetPoliticalTrades(ctx, unusualwhales.QueryOpts{Limit: feedFetchLimit})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch political trades: %w", err)
	}

	stored := 0
	for _, t := range trades {
		rec := &PoliticalTrade{
			ID:              t.ID,
			Ticker:          t.Ticker,
			Politician:      t.Politician,
			Chamber:         t.Chamber,
			TransactionType: t.TransactionType,
			AmountRange:     t.AmountRange,
			TransactionDate: t.TransactionDate,
			DisclosedAt:     t.DisclosedAt,
		}
		if err := c.repo.UpsertPoliticalTrade(rec); err != nil {
			c.log.Error().Err(err).Str("ticker", t.Ticker).Msg("Failed to store political trade")
			continue
		}
		stored++
	}

	c.log.Info().Int("stored", stored).Int("fetched", len(trades)).
		Msg("Political trades collected")
	return stored, nil
}

// CollectAnalystRatings fetches and stores rating actions for one symbol.
// An empty symbol fetches the market-wide feed.
func (c *Collector) CollectAnalystRatings(ctx context.Context, symbol string) (int, error) {
	ratings, err := c.flow.GetAnalystRatings(ctx, unusualwhales.QueryOpts{
		Symbol: symbol,
		Limit:  feedFetchLimit,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch analyst ratings for %s: %w", symbol, err)
	}

	stored := 0
	for _, a := range ratings {
		rec := &AnalystRating{
			ID:          a.ID,
			Ticker:      a.Ticker,
			Analyst:     a.Analyst,
			Firm:        a.Firm,
			Rating:      a.Rating,
			Action:      a.Action,
			PriceTarget: a.PriceTarget,
			RatedAt:     a.RatedAt,
		}
		if err := c.repo.UpsertAnalystRating(rec); err != nil {
			c.log.Error().Err(err).Str("ticker", a.Ticker).Msg("Failed to store analyst rating")
			continue
		}
		stored++
	}

	return stored, nil
}
