package newsletter

import (
	"fmt"

	"github.com/Tramona1/AIHedgeFund/internal/modules/marketdata"
	"github.com/Tramona1/AIHedgeFund/internal/modules/watchlist"
)

// The benchmark indexes leading every digest. SPY's move classifies the
// overall trend.
var indexSymbols = []string{"SPY", "QQQ", "DIA"}

const (
	darkPoolVolumeThreshold = 100_000
	feedHighlightLimit      = 10
)

// MarketData provides the stored market rows the digest draws from.
// Implemented by the marketdata repository.
type MarketData interface {
	GetQuotes(symbols []string) (map[string]*marketdata.StockQuote, error)
	GetCompanyInfoBatch(symbols []string) (map[string]*marketdata.CompanyInfo, error)
	RecentOptionFlow(limit int) ([]marketdata.OptionFlowRecord, error)
	RecentDarkPool(limit int) ([]marketdata.DarkPoolRecord, error)
}

// WatchlistSource provides a user's active watchlist entries.
type WatchlistSource interface {
	GetForUser(userID string) ([]watchlist.Entry, error)
}

// classifyTrend buckets SPY's change percent into the digest's headline
// sentiment.
func classifyTrend(spyChangePercent float64) string {
	switch {
	case spyChangePercent > 1:
		return "strongly bullish"
	case spyChangePercent > 0:
		return "bullish"
	case spyChangePercent < -1:
		return "strongly bearish"
	case spyChangePercent < 0:
		return "bearish"
	default:
		return "neutral"
	}
}

// buildMarketSummary loads the index quotes and classifies the trend.
// Returns nil when no index quote is stored yet.
func buildMarketSummary(market MarketData) (*MarketSummary, error) {
	quotes, err := market.GetQuotes(indexSymbols)
	if err != nil {
		return nil, fmt.Errorf("failed to load index quotes: %w", err)
	}
	if len(quotes) == 0 {
		return nil, nil
	}

	summary := &MarketSummary{Trend: "neutral"}
	for _, symbol := range indexSymbols {
		q, ok := quotes[symbol]
		if !ok {
			continue
		}
		summary.Indexes = append(summary.Indexes, IndexQuote{
			Symbol:        q.Symbol,
			Price:         q.Price,
			ChangePercent: q.ChangePercent,
		})
		if symbol == "SPY" {
			summary.Trend = classifyTrend(q.ChangePercent)
		}
	}

	return summary, nil
}

// buildWatchlistSection joins a user's watchlist with company name/sector
// and the latest price.
func buildWatchlistSection(market MarketData, entries []watchlist.Entry) ([]WatchlistItem, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		symbols = append(symbols, e.Symbol)
	}

	quotes, err := market.GetQuotes(symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist quotes: %w", err)
	}
	companies, err := market.GetCompanyInfoBatch(symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist companies: %w", err)
	}

	items := make([]WatchlistItem, 0, len(entries))
	for _, e := range entries {
		item := WatchlistItem{Symbol: e.Symbol}
		if c, ok := companies[e.Symbol]; ok {
			item.Name = c.Name
			item.Sector = c.Sector
		}
		if q, ok := quotes[e.Symbol]; ok {
			item.Price = q.Price
			item.ChangePercent = q.ChangePercent
		}
		items = append(items, item)
	}

	return items, nil
}

// buildInsights derives naive per-ticker pattern insights from the feed
// highlights: repeated options trades on one ticker, or summed dark-pool
// volume above the share threshold.
func buildInsights(flow []FlowHighlight, pool []DarkPoolHighlight) []string {
	var insights []string

	flowCounts := make(map[string]int)
	for _, f := range flow {
		flowCounts[f.Ticker]++
	}
	for _, f := range flow {
		if flowCounts[f.Ticker] >= 2 {
			insights = append(insights, fmt.Sprintf(
				"Unusual options activity: %d recent trades on %s", flowCounts[f.Ticker], f.Ticker))
			flowCounts[f.Ticker] = 0 // one insight per ticker
		}
	}

	poolVolumes := make(map[string]int64)
	for _, p := range pool {
		poolVolumes[p.Ticker] += p.Volume
	}
	for _, p := range pool {
		if v := poolVolumes[p.Ticker]; v > darkPoolVolumeThreshold {
			insights = append(insights, fmt.Sprintf(
				"Heavy dark pool volume: %d shares of %s traded off-exchange", v, p.Ticker))
			poolVolumes[p.Ticker] = 0
		}
	}

	return insights
}

// buildRecommendations returns the canned guidance sections gated by the
// user's interest flags.
func buildRecommendations(p *Preferences) []string {
	if !p.InterestedInRecommendations {
		return nil
	}

	recs := []string{
		"Review position sizing: keep any single holding under 10% of portfolio value.",
		"Rebalance quarterly rather than reacting to single-day moves.",
	}
	if p.InterestedInOptions {
		recs = append(recs, "Watch elevated options premium on your watchlist names before earnings.")
	}
	if p.InterestedInDarkPool {
		recs = append(recs, "Large dark pool prints often precede institutional repositioning; compare against float.")
	}
	if p.InterestedInInsiders {
		recs = append(recs, "Cluster insider buying is a stronger signal than isolated transactions.")
	}

	return recs
}

// buildContent assembles the full digest for one user.
func buildContent(market MarketData, watchlists WatchlistSource, prefs *Preferences) (*Content, error) {
	content := &Content{}

	summary, err := buildMarketSummary(market)
	if err != nil {
		return nil, err
	}
	content.Summary = summary

	entries, err := watchlists.GetForUser(prefs.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist for %s: %w", prefs.UserID, err)
	}
	content.Watchlist, err = buildWatchlistSection(market, entries)
	if err != nil {
		return nil, err
	}

	if prefs.InterestedInOptions {
		flow, err := market.RecentOptionFlow(feedHighlightLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load options flow: %w", err)
		}
		for _, f := range flow {
			content.OptionsFlow = append(content.OptionsFlow, FlowHighlight{
				Ticker:       f.Ticker,
				ContractType: f.ContractType,
				Strike:       f.Strike,
				Premium:      f.Premium,
			})
		}
	}

	if prefs.InterestedInDarkPool {
		pool, err := market.RecentDarkPool(feedHighlightLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load dark pool prints: %w", err)
		}
		for _, p := range pool {
			content.DarkPool = append(content.DarkPool, DarkPoolHighlight{
				Ticker: p.Ticker,
				Volume: p.Volume,
				Price:  p.Price,
			})
		}
	}

	content.Insights = buildInsights(content.OptionsFlow, content.DarkPool)
	content.Recommendations = buildRecommendations(prefs)

	return content, nil
}
