// Package alphavantage provides a client for the Alpha Vantage market data API.
// The free tier allows 25 requests per day and 5 per minute, so the client
// budgets requests, paces calls, and caches responses in memory.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	baseURL            = "https://www.alphavantage.co/query"
	dailyRequestLimit  = 25
	minRequestInterval = 500 * time.Millisecond
	requestTimeout     = 30 * time.Second
)

// Tables in cache.db holding persisted vendor responses.
const (
	tableQuote        = "alphavantage_quote"
	tableOverview     = "alphavantage_overview"
	tableBalanceSheet = "alphavantage_balance_sheet"
	tableDailySeries  = "alphavantage_daily_series"
	tableRSI          = "alphavantage_rsi"
	tableTopMovers    = "alphavantage_top_movers"
)

// PersistentCache stores responses durably so the daily request budget
// survives restarts. Satisfied by the clientdata repository.
type PersistentCache interface {
	Store(table, key string, data interface{}, ttl time.Duration) error
	GetIfFresh(table, key string) (json.RawMessage, error)
}

// cacheEntry is one in-memory cached response.
type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// Client is an Alpha Vantage API client with daily budgeting and caching.
type Client struct {
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger

	mu           sync.Mutex
	requestCount int
	resetAt      time.Time
	lastRequest  time.Time

	cacheMu  sync.RWMutex
	cache    map[string]cacheEntry
	cacheTTL CacheTTL
	store    PersistentCache
}

// NewClient creates a new Alpha Vantage client.
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        log.With().Str("client", "alphavantage").Logger(),
		resetAt:    nextMidnightUTC(),
		cache:      make(map[string]cacheEntry),
		cacheTTL:   DefaultCacheTTL(),
	}
}

// SetCacheTTL overrides the default cache durations.
func (c *Client) SetCacheTTL(ttl CacheTTL) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.cacheTTL = ttl
}

// SetPersistentCache attaches a durable response cache. Without one the
// client caches in memory only.
func (c *Client) SetPersistentCache(store PersistentCache) {
	c.store = store
}

// fromStore loads a fresh persisted response into dest. Read failures are
// treated as cache misses.
func (c *Client) fromStore(table, key string, dest interface{}) bool {
	if c.store == nil {
		return false
	}
	raw, err := c.store.GetIfFresh(table, key)
	if err != nil {
		c.log.Warn().Err(err).Str("table", table).Msg("Failed to read persisted response")
		return false
	}
	if raw == nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// toStore persists a response. Write failures are logged and ignored; the
// in-memory cache already holds the data.
func (c *Client) toStore(table, key string, data interface{}, ttl time.Duration) {
	if c.store == nil {
		return
	}
	if err := c.store.Store(table, key, data, ttl); err != nil {
		c.log.Warn().Err(err).Str("table", table).Msg("Failed to persist response")
	}
}

// nextMidnightUTC returns the next UTC midnight, when the vendor resets
// its daily quota.
func nextMidnightUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}

// checkRateLimit consumes one unit of the daily request budget.
func (c *Client) checkRateLimit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().UTC().After(c.resetAt) {
		c.requestCount = 0
		c.resetAt = nextMidnightUTC()
	}

	if c.requestCount >= dailyRequestLimit {
		return ErrRateLimitExceeded{ResetAt: c.resetAt.Format(time.RFC3339)}
	}

	c.requestCount++
	return nil
}

// GetRemainingRequests returns how many requests remain in today's budget.
func (c *Client) GetRemainingRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().UTC().After(c.resetAt) {
		c.requestCount = 0
		c.resetAt = nextMidnightUTC()
	}

	return dailyRequestLimit - c.requestCount
}

// ResetDailyCounter resets the daily request counter.
func (c *Client) ResetDailyCounter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestCount = 0
	c.resetAt = nextMidnightUTC()
}

// buildCacheKey builds a deterministic cache key from the function name and
// query parameters. The API key is excluded so keys are safe to log.
func buildCacheKey(function string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "apikey" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(function)
	for _, k := range keys {
		sb.WriteString("|")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(params[k])
	}
	return sb.String()
}

func (c *Client) getFromCache(key string) (interface{}, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()

	entry, ok := c.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

func (c *Client) setCache(key string, data interface{}, ttl time.Duration) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.cache[key] = cacheEntry{data: data, expiresAt: time.Now().Add(ttl)}
}

// ClearCache empties the in-memory response cache.
func (c *Client) ClearCache() {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.cache = make(map[string]cacheEntry)
}

// checkAPIError classifies vendor error payloads. The vendor returns HTTP 200
// for everything, signalling errors through body fields instead.
func (c *Client) checkAPIError(body []byte) error {
	text := string(body)

	if strings.HasPrefix(text, "Thank you for using Alpha Vantage") {
		return ErrRateLimitExceeded{}
	}

	if strings.Contains(text, `"Error Message"`) {
		return VendorError{Message: extractJSONField(text, "Error Message")}
	}

	for _, field := range []string{`"Note"`, `"Information"`} {
		if strings.Contains(text, field) {
			msg := extractJSONField(text, strings.Trim(field, `"`))
			if strings.Contains(strings.ToLower(msg), "limit") {
				return ErrRateLimitExceeded{}
			}
		}
	}

	return nil
}

// extractJSONField pulls a string field value out of a JSON body without a
// full unmarshal, tolerating the vendor's loosely structured error payloads.
func extractJSONField(body, field string) string {
	marker := `"` + field + `"`
	idx := strings.Index(body, marker)
	if idx < 0 {
		return ""
	}
	rest := body[idx+len(marker):]
	start := strings.Index(rest, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(rest[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return rest[start+1 : start+1+end]
}

// pace enforces the minimum interval between consecutive requests.
func (c *Client) pace(ctx context.Context) error {
	c.mu.Lock()
	wait := minRequestInterval - time.Since(c.lastRequest)
	c.lastRequest = time.Now().Add(wait)
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// doRequest performs a budgeted, paced GET against the query API and returns
// the raw body after vendor-error classification.
func (c *Client) doRequest(ctx context.Context, function string, params map[string]string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrInvalidAPIKey{}
	}

	if err := c.checkRateLimit(); err != nil {
		return nil, err
	}

	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("function", function)
	q.Set("apikey", c.apiKey)
	for k, v := range params {
		q.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	c.log.Debug().
		Str("function", function).
		Str("symbol", params["symbol"]).
		Int("remaining", c.GetRemainingRequests()).
		Msg("Requesting data")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from alpha vantage", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if err := c.checkAPIError(body); err != nil {
		return nil, err
	}

	return body, nil
}

// GetQuote fetches the latest quote for a symbol (GLOBAL_QUOTE).
func (c *Client) GetQuote(ctx context.Context, symbol string) (*GlobalQuote, error) {
	params := map[string]string{"symbol": symbol}
	key := buildCacheKey("GLOBAL_QUOTE", params)

	if cached, ok := c.getFromCache(key); ok {
		return cached.(*GlobalQuote), nil
	}

	var persisted GlobalQuote
	if c.fromStore(tableQuote, symbol, &persisted) {
		c.setCache(key, &persisted, c.cacheTTL.PriceData)
		return &persisted, nil
	}

	body, err := c.doRequest(ctx, "GLOBAL_QUOTE", params)
	if err != nil {
		return nil, err
	}

	quote, err := parseGlobalQuote(body)
	if err != nil {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}

	c.setCache(key, quote, c.cacheTTL.PriceData)
	c.toStore(tableQuote, symbol, quote, c.cacheTTL.PriceData)
	return quote, nil
}

// GetDailySeries fetches the daily OHLCV series for a symbol, newest first.
func (c *Client) GetDailySeries(ctx context.Context, symbol string) ([]DailyPrice, error) {
	params := map[string]string{"symbol": symbol, "outputsize": "compact"}
	key := buildCacheKey("TIME_SERIES_DAILY", params)

	if cached, ok := c.getFromCache(key); ok {
		return cached.([]DailyPrice), nil
	}

	var persisted []DailyPrice
	if c.fromStore(tableDailySeries, symbol, &persisted) {
		c.setCache(key, persisted, c.cacheTTL.PriceData)
		return persisted, nil
	}

	body, err := c.doRequest(ctx, "TIME_SERIES_DAILY", params)
	if err != nil {
		return nil, err
	}

	prices, err := parseDailyTimeSeries(body)
	if err != nil {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}

	c.setCache(key, prices, c.cacheTTL.PriceData)
	c.toStore(tableDailySeries, symbol, prices, c.cacheTTL.PriceData)
	return prices, nil
}

// SearchSymbol searches for symbols matching a keyword.
func (c *Client) SearchSymbol(ctx context.Context, keywords string) ([]SymbolMatch, error) {
	params := map[string]string{"keywords": keywords}
	key := buildCacheKey("SYMBOL_SEARCH", params)

	if cached, ok := c.getFromCache(key); ok {
		return cached.([]SymbolMatch), nil
	}

	body, err := c.doRequest(ctx, "SYMBOL_SEARCH", params)
	if err != nil {
		return nil, err
	}

	matches, err := parseSymbolSearch(body)
	if err != nil {
		return nil, err
	}

	c.setCache(key, matches, c.cacheTTL.Fundamentals)
	return matches, nil
}

// GetOverview fetches fundamental company data for a symbol.
func (c *Client) GetOverview(ctx context.Context, symbol string) (*CompanyOverview, error) {
	params := map[string]string{"symbol": symbol}
	key := buildCacheKey("OVERVIEW", params)

	if cached, ok := c.getFromCache(key); ok {
		return cached.(*CompanyOverview), nil
	}

	var persisted CompanyOverview
	if c.fromStore(tableOverview, symbol, &persisted) {
		c.setCache(key, &persisted, c.cacheTTL.Fundamentals)
		return &persisted, nil
	}

	body, err := c.doRequest(ctx, "OVERVIEW", params)
	if err != nil {
		return nil, err
	}

	overview, err := parseCompanyOverview(body)
	if err != nil {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}

	c.setCache(key, overview, c.cacheTTL.Fundamentals)
	c.toStore(tableOverview, symbol, overview, c.cacheTTL.Fundamentals)
	return overview, nil
}

// GetBalanceSheet fetches annual and quarterly balance sheets for a symbol.
func (c *Client) GetBalanceSheet(ctx context.Context, symbol string) (*BalanceSheet, error) {
	params := map[string]string{"symbol": symbol}
	key := buildCacheKey("BALANCE_SHEET", params)

	if cached, ok := c.getFromCache(key); ok {
		return cached.(*BalanceSheet), nil
	}

	var persisted BalanceSheet
	if c.fromStore(tableBalanceSheet, symbol, &persisted) {
		c.setCache(key, &persisted, c.cacheTTL.Fundamentals)
		return &persisted, nil
	}

	body, err := c.doRequest(ctx, "BALANCE_SHEET", params)
	if err != nil {
		return nil, err
	}

	sheet, err := parseBalanceSheet(body)
	if err != nil {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}

	c.setCache(key, sheet, c.cacheTTL.Fundamentals)
	c.toStore(tableBalanceSheet, symbol, sheet, c.cacheTTL.Fundamentals)
	return sheet, nil
}

// GetIncomeStatement fetches annual and quarterly income statements.
func (c *Client) GetIncomeStatement(ctx context.Context, symbol string) (*IncomeStatement, error) {
	params := map[string]string{"symbol": symbol}
	key := buildCacheKey("INCOME_STATEMENT", params)

	if cached, ok := c.getFromCache(key); ok {
		return cached.(*IncomeStatement), nil
	}

	body, err := c.doRequest(ctx, "INCOME_STATEMENT", params)
	if err != nil {
		return nil, err
	}

	stmt, err := parseIncomeStatement(body)
	if err != nil {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}

	c.setCache(key, stmt, c.cacheTTL.Fundamentals)
	return stmt, nil
}

// GetRSI fetches the daily RSI series for a symbol.
func (c *Client) GetRSI(ctx context.Context, symbol string, period int) (*RSIData, error) {
	params := map[string]string{
		"symbol":      symbol,
		"interval":    "daily",
		"time_period": fmt.Sprintf("%d", period),
		"series_type": "close",
	}
	key := buildCacheKey("RSI", params)

	if cached, ok := c.getFromCache(key); ok {
		return cached.(*RSIData), nil
	}

	storeKey := fmt.Sprintf("%s:%d", symbol, period)
	var persisted RSIData
	if c.fromStore(tableRSI, storeKey, &persisted) {
		c.setCache(key, &persisted, c.cacheTTL.TechnicalIndicators)
		return &persisted, nil
	}

	body, err := c.doRequest(ctx, "RSI", params)
	if err != nil {
		return nil, err
	}

	data, err := parseRSI(body, symbol, period)
	if err != nil {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}

	c.setCache(key, data, c.cacheTTL.TechnicalIndicators)
	c.toStore(tableRSI, storeKey, data, c.cacheTTL.TechnicalIndicators)
	return data, nil
}

// GetTopMovers fetches the top gainers, losers, and most active tickers.
func (c *Client) GetTopMovers(ctx context.Context) (*MarketMovers, error) {
	params := map[string]string{}
	key := buildCacheKey("TOP_GAINERS_LOSERS", params)

	if cached, ok := c.getFromCache(key); ok {
		return cached.(*MarketMovers), nil
	}

	var persisted MarketMovers
	if c.fromStore(tableTopMovers, "all", &persisted) {
		c.setCache(key, &persisted, c.cacheTTL.PriceData)
		return &persisted, nil
	}

	body, err := c.doRequest(ctx, "TOP_GAINERS_LOSERS", params)
	if err != nil {
		return nil, err
	}

	movers, err := parseMarketMovers(body)
	if err != nil {
		return nil, err
	}

	c.setCache(key, movers, c.cacheTTL.PriceData)
	c.toStore(tableTopMovers, "all", movers, c.cacheTTL.PriceData)
	return movers, nil
}
