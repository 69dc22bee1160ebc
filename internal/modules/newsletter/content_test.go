package newsletter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tramona1/AIHedgeFund/internal/modules/marketdata"
	"github.com/Tramona1/AIHedgeFund/internal/modules/watchlist"
)

type fakeMarketData struct {
	quotes    map[string]*marketdata.StockQuote
	companies map[string]*marketdata.CompanyInfo
	flow      []marketdata.OptionFlowRecord
	pool      []marketdata.DarkPoolRecord
}

func (f *fakeMarketData) GetQuotes(symbols []string) (map[string]*marketdata.StockQuote, error) {
	out := make(map[string]*marketdata.StockQuote)
	for _, s := range symbols {
		if q, ok := f.quotes[s]; ok {
			out[s] = q
		}
	}
	return out, nil
}

func (f *fakeMarketData) GetCompanyInfoBatch(symbols []string) (map[string]*marketdata.CompanyInfo, error) {
	out := make(map[string]*marketdata.CompanyInfo)
	for _, s := range symbols {
		if c, ok := f.companies[s]; ok {
			out[s] = c
		}
	}
	return out, nil
}

func (f *fakeMarketData) RecentOptionFlow(limit int) ([]marketdata.OptionFlowRecord, error) {
	return f.flow, nil
}

func (f *fakeMarketData) RecentDarkPool(limit int) ([]marketdata.DarkPoolRecord, error) {
	return f.pool, nil
}

type fakeWatchlists struct {
	entries map[string][]watchlist.Entry
}

func (f *fakeWatchlists) GetForUser(userID string) ([]watchlist.Entry, error) {
	return f.entries[userID], nil
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		change float64
		want   string
	}{
		{2.5, "strongly bullish"},
		{1.01, "strongly bullish"},
		{1.0, "bullish"},
		{0.3, "bullish"},
		{0.0, "neutral"},
		{-0.3, "bearish"},
		{-1.0, "bearish"},
		{-1.01, "strongly bearish"},
		{-4.0, "strongly bearish"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyTrend(tt.change), "change %.2f", tt.change)
	}
}

func TestBuildMarketSummary(t *testing.T) {
	market := &fakeMarketData{
		quotes: map[string]*marketdata.StockQuote{
			"SPY": {Symbol: "SPY", Price: 580.25, ChangePercent: 1.4},
			"QQQ": {Symbol: "QQQ", Price: 495.10, ChangePercent: 0.9},
		},
	}

	summary, err := buildMarketSummary(market)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, "strongly bullish", summary.Trend)
	assert.Len(t, summary.Indexes, 2) // DIA missing from store
	assert.Equal(t, "SPY", summary.Indexes[0].Symbol)
}

func TestBuildMarketSummary_NoQuotes(t *testing.T) {
	summary, err := buildMarketSummary(&fakeMarketData{quotes: map[string]*marketdata.StockQuote{}})
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestBuildWatchlistSection(t *testing.T) {
	market := &fakeMarketData{
		quotes: map[string]*marketdata.StockQuote{
			"AAPL": {Symbol: "AAPL", Price: 230.50, ChangePercent: -0.8},
		},
		companies: map[string]*marketdata.CompanyInfo{
			"AAPL": {Symbol: "AAPL", Name: "Apple Inc", Sector: "Technology"},
		},
	}
	entries := []watchlist.Entry{
		{Symbol: "AAPL"},
		{Symbol: "ZZZZ"}, // no stored data, still listed
	}

	items, err := buildWatchlistSection(market, entries)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Apple Inc", items[0].Name)
	assert.Equal(t, "Technology", items[0].Sector)
	assert.Equal(t, 230.50, items[0].Price)
	assert.Equal(t, "ZZZZ", items[1].Symbol)
	assert.Empty(t, items[1].Name)
}

func TestBuildInsights(t *testing.T) {
	flow := []FlowHighlight{
		{Ticker: "NVDA"}, {Ticker: "NVDA"}, {Ticker: "NVDA"},
		{Ticker: "AMD"},
	}
	pool := []DarkPoolHighlight{
		{Ticker: "TSLA", Volume: 60_000},
		{Ticker: "TSLA", Volume: 55_000},
		{Ticker: "MSFT", Volume: 90_000},
	}

	insights := buildInsights(flow, pool)
	require.Len(t, insights, 2)

	// One insight per repeated-flow ticker, one per heavy dark-pool ticker.
	assert.Contains(t, insights[0], "3 recent trades on NVDA")
	assert.Contains(t, insights[1], "115000 shares of TSLA")
}

func TestBuildInsights_BelowThresholds(t *testing.T) {
	flow := []FlowHighlight{{Ticker: "NVDA"}, {Ticker: "AMD"}}
	pool := []DarkPoolHighlight{{Ticker: "TSLA", Volume: 100_000}} // not strictly above

	assert.Empty(t, buildInsights(flow, pool))
}

func TestBuildContent_InterestFlagsGateSections(t *testing.T) {
	market := &fakeMarketData{
		quotes: map[string]*marketdata.StockQuote{
			"SPY": {Symbol: "SPY", Price: 580, ChangePercent: -0.2},
		},
		flow: []marketdata.OptionFlowRecord{{Ticker: "NVDA", ContractType: "call", Strike: 150, Premium: 2_000_000}},
		pool: []marketdata.DarkPoolRecord{{Ticker: "TSLA", Volume: 250_000, Price: 240}},
	}
	watchlists := &fakeWatchlists{}

	prefs := &Preferences{
		UserID:                      "user-1",
		InterestedInOptions:         true,
		InterestedInDarkPool:        false,
		InterestedInRecommendations: true,
		InterestedInInsiders:        true,
	}

	content, err := buildContent(market, watchlists, prefs)
	require.NoError(t, err)

	assert.Equal(t, "bearish", content.Summary.Trend)
	assert.Len(t, content.OptionsFlow, 1)
	assert.Empty(t, content.DarkPool, "dark pool disabled by interest flag")
	assert.NotEmpty(t, content.Recommendations)

	// Recommendations gate everything off when the flag is unset.
	prefs.InterestedInRecommendations = false
	content, err = buildContent(market, watchlists, prefs)
	require.NoError(t, err)
	assert.Empty(t, content.Recommendations)
}

func TestRenderHTML_OmitsEmptySections(t *testing.T) {
	content := &Content{
		Summary: &MarketSummary{
			Trend:   "neutral",
			Indexes: []IndexQuote{{Symbol: "SPY", Price: 580, ChangePercent: 0}},
		},
	}

	html, err := renderHTML(content)
	require.NoError(t, err)

	assert.Contains(t, html, "SPY")
	assert.Contains(t, html, "neutral")
	assert.NotContains(t, html, "Options Flow")
	assert.NotContains(t, html, "Dark Pool")
}
