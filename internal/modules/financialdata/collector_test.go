package financialdata

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tramona1/AIHedgeFund/internal/clients/unusualwhales"
)

type fakeFeedClient struct {
	insiders  []unusualwhales.InsiderTrade
	political []unusualwhales.PoliticalTrade
	ratings   []unusualwhales.AnalystRating
}

func (f *fakeFeedClient) GetOptionsFlow(ctx context.Context, opts unusualwhales.QueryOpts) ([]unusualwhales.FlowTrade, error) {
	return nil, nil
}

func (f *fakeFeedClient) GetDarkPool(ctx context.Context, opts unusualwhales.QueryOpts) ([]unusualwhales.DarkPoolTrade, error) {
	return nil, nil
}

func (f *fakeFeedClient) GetInsiderTrades(ctx context.Context, opts unusualwhales.QueryOpts) ([]unusualwhales.InsiderTrade, error) {
	return f.insiders, nil
}

func (f *fakeFeedClient) GetPoliticalTrades(ctx context.Context, opts unusualwhales.QueryOpts) ([]unusualwhales.PoliticalTrade, error) {
	return f.political, nil
}

func (f *fakeFeedClient) GetAnalystRatings(ctx context.Context, opts unusualwhales.QueryOpts) ([]unusualwhales.AnalystRating, error) {
	var out []unusualwhales.AnalystRating
	for _, r := range f.ratings {
		if opts.Symbol == "" || r.Ticker == opts.Symbol {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestCollectInsiderTrades(t *testing.T) {
	repo := setupTestRepo(t)
	client := &fakeFeedClient{insiders: []unusualwhales.InsiderTrade{
		{ID: "uw-1", Ticker: "AAPL", InsiderName: "Jane Roe", Shares: 1000, TransactionDate: "2026-08-20"},
		{ID: "uw-2", Ticker: "NVDA", InsiderName: "Sam Poe", Shares: 500, TransactionDate: "2026-08-21"},
	}}

	collector := NewCollector(repo, client, zerolog.Nop())
	stored, err := collector.CollectInsiderTrades(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	// Refetching the same ids does not duplicate rows.
	stored, err = collector.CollectInsiderTrades(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	_, total, err := repo.ListInsiderTrades(ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestCollectPoliticalTrades(t *testing.T) {
	repo := setupTestRepo(t)
	client := &fakeFeedClient{political: []unusualwhales.PoliticalTrade{
		{ID: "uw-3", Ticker: "MSFT", Politician: "A. Senator", Chamber: "senate",
			AmountRange: "$15,001 - $50,000", TransactionDate: "2026-08-18"},
	}}

	collector := NewCollector(repo, client, zerolog.Nop())
	stored, err := collector.CollectPoliticalTrades(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	trades, _, err := repo.ListPoliticalTrades(ListFilter{Ticker: "MSFT"})
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "senate", trades[0].Chamber)
}

func TestCollectAnalystRatings(t *testing.T) {
	repo := setupTestRepo(t)
	client := &fakeFeedClient{ratings: []unusualwhales.AnalystRating{
		{ID: "uw-4", Ticker: "NVDA", Firm: "MS", Rating: "overweight", RatedAt: "2026-08-20"},
		{ID: "uw-5", Ticker: "AAPL", Firm: "GS", Rating: "buy", RatedAt: "2026-08-21"},
	}}

	collector := NewCollector(repo, client, zerolog.Nop())
	stored, err := collector.CollectAnalystRatings(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	ratings, err := repo.GetAnalystSentiment("NVDA", 10)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, "MS", ratings[0].Firm)
}
