package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Tramona1/AIHedgeFund/internal/clients/alphavantage"
	"github.com/Tramona1/AIHedgeFund/internal/clients/unusualwhales"
	"github.com/Tramona1/AIHedgeFund/internal/events"
	"github.com/Tramona1/AIHedgeFund/pkg/formulas"
	"github.com/Tramona1/AIHedgeFund/pkg/pacer"
)

const defaultRSIPeriod = 14

// WatchlistSource provides the distinct active symbols to collect for.
// Implemented by the watchlist repository.
type WatchlistSource interface {
	GetDistinctActiveSymbols() ([]string, error)
}

// Collector pulls data from the vendor clients and upserts it into the
// market data repository.
type Collector struct {
	market    alphavantage.ClientInterface
	flow      unusualwhales.ClientInterface
	repo      *Repository
	watchlist WatchlistSource
	pace      pacer.Pacer
	bus       *events.Bus
	log       zerolog.Logger
}

// NewCollector creates a new collection service.
func NewCollector(
	market alphavantage.ClientInterface,
	flow unusualwhales.ClientInterface,
	repo *Repository,
	watchlist WatchlistSource,
	pace pacer.Pacer,
	bus *events.Bus,
	log zerolog.Logger,
) *Collector {
	return &Collector{
		market:    market,
		flow:      flow,
		repo:      repo,
		watchlist: watchlist,
		pace:      pace,
		bus:       bus,
		log:       log.With().Str("service", "collector").Logger(),
	}
}

// CollectStockQuote fetches and stores the latest quote for a symbol, and
// appends the day's row to price history for local indicator computation.
func (c *Collector) CollectStockQuote(ctx context.Context, symbol string) error {
	quote, err := c.market.GetQuote(ctx, symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}

	record := &StockQuote{
		Symbol:        symbol,
		Price:         quote.Price,
		Open:          quote.Open,
		High:          quote.High,
		Low:           quote.Low,
		PreviousClose: quote.PreviousClose,
		Volume:        quote.Volume,
		Change:        quote.Change,
		ChangePercent: quote.ChangePercent,
		Source:        "alpha_vantage",
	}
	if !quote.LatestTradingDay.IsZero() {
		record.QuoteDate = quote.LatestTradingDay.Format("2006-01-02")
	}

	if err := c.repo.UpsertQuote(record); err != nil {
		return err
	}

	if record.QuoteDate != "" {
		bar := &PriceBar{
			Symbol: symbol,
			Date:   record.QuoteDate,
			Open:   quote.Open,
			High:   quote.High,
			Low:    quote.Low,
			Close:  quote.Price,
			Volume: quote.Volume,
		}
		if err := c.repo.UpsertPriceBar(bar); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to record price history")
		}
	}

	c.bus.Emit(events.QuoteUpdated, "marketdata", map[string]interface{}{
		"symbol":         symbol,
		"price":          quote.Price,
		"change_percent": quote.ChangePercent,
	})

	return nil
}

// CollectCompanyInfo fetches and stores fundamental company data.
func (c *Collector) CollectCompanyInfo(ctx context.Context, symbol string) error {
	overview, err := c.market.GetOverview(ctx, symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch overview for %s: %w", symbol, err)
	}

	marketCap := float64(overview.MarketCapitalization)
	info := &CompanyInfo{
		Symbol:            symbol,
		Name:              overview.Name,
		Sector:            overview.Sector,
		Industry:          overview.Industry,
		MarketCap:         &marketCap,
		PERatio:           overview.PERatio,
		DividendYield:     overview.DividendYield,
		EPS:               overview.EPS,
		Beta:              overview.Beta,
		Week52High:        overview.FiftyTwoWeekHigh,
		Week52Low:         overview.FiftyTwoWeekLow,
		SharesOutstanding: overview.SharesOutstanding,
	}

	return c.repo.UpsertCompanyInfo(info)
}

// CollectBalanceSheet fetches and stores annual and quarterly balance sheets.
func (c *Collector) CollectBalanceSheet(ctx context.Context, symbol string) error {
	sheet, err := c.market.GetBalanceSheet(ctx, symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch balance sheet for %s: %w", symbol, err)
	}

	store := func(report alphavantage.BalanceSheetReport, quarterly bool) error {
		return c.repo.UpsertBalanceSheet(&BalanceSheetRecord{
			Symbol:             symbol,
			FiscalDateEnding:   report.FiscalDateEnding,
			IsQuarterly:        quarterly,
			ReportedCurrency:   report.ReportedCurrency,
			TotalAssets:        report.TotalAssets,
			TotalLiabilities:   report.TotalLiabilities,
			ShareholderEquity:  report.TotalShareholderEquity,
			CashAndEquivalents: report.CashAndEquivalents,
			CurrentAssets:      report.CurrentAssets,
			CurrentLiabilities: report.CurrentLiabilities,
			LongTermDebt:       report.LongTermDebt,
		})
	}

	for _, report := range sheet.AnnualReports {
		if err := store(report, false); err != nil {
			return err
		}
	}
	for _, report := range sheet.QuarterlyReports {
		if err := store(report, true); err != nil {
			return err
		}
	}

	return nil
}

// CollectRSI fetches and stores the RSI series for a symbol. When the vendor
// budget is exhausted it falls back to computing RSI locally from stored
// price history.
func (c *Collector) CollectRSI(ctx context.Context, symbol string, period int) error {
	if period <= 0 {
		period = defaultRSIPeriod
	}

	params, _ := json.Marshal(map[string]int{"period": period})

	data, err := c.market.GetRSI(ctx, symbol, period)
	if err != nil {
		var rateLimited alphavantage.ErrRateLimitExceeded
		if errors.As(err, &rateLimited) {
			return c.computeLocalRSI(symbol, period, string(params))
		}
		return fmt.Errorf("failed to fetch RSI for %s: %w", symbol, err)
	}

	for _, v := range data.Values {
		ind := &TechnicalIndicator{
			Symbol:        symbol,
			IndicatorType: "RSI",
			Date:          v.Date.Format("2006-01-02"),
			Value:         v.Value,
			Parameters:    string(params),
		}
		if err := c.repo.UpsertIndicator(ind); err != nil {
			return err
		}
	}

	return nil
}

// computeLocalRSI derives the latest RSI from stored closing prices when the
// vendor is unavailable.
func (c *Collector) computeLocalRSI(symbol string, period int, params string) error {
	closes, err := c.repo.GetRecentCloses(symbol, period*4)
	if err != nil {
		return err
	}

	value := formulas.LatestRSI(closes, period)
	if value == nil {
		return fmt.Errorf("insufficient price history to compute RSI for %s", symbol)
	}

	quote, err := c.repo.GetQuote(symbol)
	if err != nil {
		return err
	}
	if quote == nil || quote.QuoteDate == "" {
		return fmt.Errorf("no quote date available for local RSI for %s", symbol)
	}

	c.log.Info().Str("symbol", symbol).Float64("rsi", *value).
		Msg("Computed RSI locally, vendor budget exhausted")

	return c.repo.UpsertIndicator(&TechnicalIndicator{
		Symbol:        symbol,
		IndicatorType: "RSI",
		Date:          quote.QuoteDate,
		Value:         *value,
		Parameters:    params,
	})
}

// CollectOptionsFlow fetches and stores recent options-flow records.
func (c *Collector) CollectOptionsFlow(ctx context.Context) error {
	trades, err := c.flow.GetOptionsFlow(ctx, unusualwhales.QueryOpts{Limit: 50})
	if err != nil {
		return fmt.Errorf("failed to fetch options flow: %w", err)
	}

	for _, t := range trades {
		rec := &OptionFlowRecord{
			ID:           t.ID,
			Ticker:       t.Ticker,
			ContractType: t.ContractType,
			Strike:       t.Strike,
			Expiry:       t.Expiry,
			Premium:      t.Premium,
			Size:         t.Size,
			Volume:       t.Volume,
			OpenInterest: t.OpenInterest,
			Sentiment:    t.Sentiment,
			ExecutedAt:   t.ExecutedAt,
		}
		if err := c.repo.InsertOptionFlow(rec); err != nil {
			return err
		}
	}

	c.log.Debug().Int("count", len(trades)).Msg("Stored options flow")
	return nil
}

// CollectDarkPool fetches and stores recent dark-pool prints.
func (c *Collector) CollectDarkPool(ctx context.Context) error {
	prints, err := c.flow.GetDarkPool(ctx, unusualwhales.QueryOpts{Limit: 50})
	if err != nil {
		return fmt.Errorf("failed to fetch dark pool prints: %w", err)
	}

	for _, p := range prints {
		rec := &DarkPoolRecord{
			ID:         p.ID,
			Ticker:     p.Ticker,
			Volume:     p.Volume,
			Price:      p.Price,
			Premium:    p.Premium,
			ExecutedAt: p.ExecutedAt,
		}
		if err := c.repo.InsertDarkPool(rec); err != nil {
			return err
		}
	}

	c.log.Debug().Int("count", len(prints)).Msg("Stored dark pool prints")
	return nil
}

// CollectAllDataForSymbol runs the per-symbol collectors independently so one
// failure never aborts the others, returning a per-collector summary.
func (c *Collector) CollectAllDataForSymbol(ctx context.Context, symbol string) SymbolResult {
	collectors := []struct {
		name string
		fn   func() error
	}{
		{"quote", func() error { return c.CollectStockQuote(ctx, symbol) }},
		{"company_info", func() error { return c.CollectCompanyInfo(ctx, symbol) }},
		{"balance_sheet", func() error { return c.CollectBalanceSheet(ctx, symbol) }},
		{"rsi", func() error { return c.CollectRSI(ctx, symbol, defaultRSIPeriod) }},
	}

	result := SymbolResult{Symbol: symbol}
	for _, collector := range collectors {
		res := CollectorResult{Collector: collector.name, Success: true}
		if err := collector.fn(); err != nil {
			res.Success = false
			res.Error = err.Error()
			c.log.Warn().Err(err).
				Str("symbol", symbol).
				Str("collector", collector.name).
				Msg("Collector failed")
		}
		result.Results = append(result.Results, res)
	}

	return result
}

// CollectMarketWideData collects the feeds that are not scoped to a symbol.
// Each feed failure is logged and recorded; the others still run.
func (c *Collector) CollectMarketWideData(ctx context.Context) []CollectorResult {
	collectors := []struct {
		name string
		fn   func() error
	}{
		{"options_flow", func() error { return c.CollectOptionsFlow(ctx) }},
		{"dark_pool", func() error { return c.CollectDarkPool(ctx) }},
	}

	results := make([]CollectorResult, 0, len(collectors))
	for _, collector := range collectors {
		res := CollectorResult{Collector: collector.name, Success: true}
		if err := collector.fn(); err != nil {
			res.Success = false
			res.Error = err.Error()
			c.log.Warn().Err(err).
				Str("collector", collector.name).
				Msg("Collector failed")
		}
		results = append(results, res)
	}

	return results
}

// CollectDataForWatchlist collects all data for every distinct active
// watchlist symbol, sequentially and paced to respect the vendor rate limit.
// Per-symbol failures are recorded, never propagated; the run always returns
// one result entry per symbol.
func (c *Collector) CollectDataForWatchlist(ctx context.Context) ([]SymbolResult, error) {
	symbols, err := c.watchlist.GetDistinctActiveSymbols()
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist symbols: %w", err)
	}

	c.bus.Emit(events.CollectionStarted, "marketdata", map[string]interface{}{
		"symbols": len(symbols),
	})

	results := make([]SymbolResult, 0, len(symbols))
	for _, symbol := range symbols {
		if err := c.pace.Wait(ctx); err != nil {
			// Cancelled mid-run; report what was collected so far.
			return results, err
		}
		results = append(results, c.CollectAllDataForSymbol(ctx, symbol))
	}

	succeeded := 0
	for _, r := range results {
		if r.Succeeded() {
			succeeded++
		}
	}

	c.log.Info().
		Int("symbols", len(results)).
		Int("succeeded", succeeded).
		Msg("Watchlist collection completed")

	c.bus.Emit(events.CollectionCompleted, "marketdata", map[string]interface{}{
		"symbols":   len(results),
		"succeeded": succeeded,
	})

	return results, nil
}
