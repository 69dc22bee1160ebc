// Package unusualwhales provides a client for the Unusual Whales API,
// covering options flow, dark pool prints, and filings-based feeds.
package unusualwhales

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/Tramona1/AIHedgeFund/pkg/retry"
)

const defaultBaseURL = "https://api.unusualwhales.com"

// Tables in cache.db holding persisted feed responses, keyed by scope
// (a symbol filter, or "all").
const (
	tableFlow      = "unusualwhales_flow"
	tableDarkPool  = "unusualwhales_darkpool"
	tableInsider   = "unusualwhales_insider"
	tablePolitical = "unusualwhales_political"
	tableAnalyst   = "unusualwhales_analyst"
)

// feedCacheTTL bounds how long a persisted feed response is served before
// the vendor is hit again.
const feedCacheTTL = time.Hour

// PersistentCache stores feed responses durably between collection cycles.
// Satisfied by the clientdata repository.
type PersistentCache interface {
	Store(table, key string, data interface{}, ttl time.Duration) error
	GetIfFresh(table, key string) (json.RawMessage, error)
}

// requestPolicy retries transient vendor failures before giving up.
var requestPolicy = retry.Policy{
	MaxAttempts: 3,
	Delays:      []time.Duration{time.Second, 2 * time.Second},
}

// Client is an Unusual Whales API client.
type Client struct {
	http   *resty.Client
	log    zerolog.Logger
	policy retry.Policy
	store  PersistentCache
}

// NewClient creates a new Unusual Whales client with Bearer authentication.
func NewClient(apiKey string, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(defaultBaseURL).
		SetTimeout(15 * time.Second).
		SetAuthToken(apiKey).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		log:    log.With().Str("client", "unusualwhales").Logger(),
		policy: requestPolicy,
	}
}

// SetBaseURL overrides the API base URL, used by tests with httptest servers.
func (c *Client) SetBaseURL(url string) {
	c.http.SetBaseURL(url)
}

// SetPersistentCache attaches a durable response cache. Without one every
// call hits the vendor.
func (c *Client) SetPersistentCache(store PersistentCache) {
	c.store = store
}

// scopeKey maps query options to the cache key for a feed table.
func scopeKey(opts QueryOpts) string {
	if opts.Symbol != "" {
		return opts.Symbol
	}
	return "all"
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

// toStore persists a response. Write failures are logged and ignored.
func (c *Client) toStore(table, key string, data interface{}) {
	if c.store == nil {
		return
	}
	if err := c.store.Store(table, key, data, feedCacheTTL); err != nil {
		c.log.Warn().Err(err).Str("table", table).Msg("Failed to persist response")
	}
}

// get performs a retried GET and unmarshals the response "data" array into out.
func (c *Client) get(ctx context.Context, path string, opts QueryOpts, out interface{}) error {
	params := map[string]string{}
	if opts.Symbol != "" {
		params["ticker_symbol"] = opts.Symbol
	}
	if opts.Limit > 0 {
		params["limit"] = fmt.Sprintf("%d", opts.Limit)
	}

	return retry.Do(ctx, c.policy, func(ctx context.Context) error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(path)
		if err != nil {
			return fmt.Errorf("request to %s failed: %w", path, err)
		}

		if resp.StatusCode() == 429 {
			return fmt.Errorf("unusual whales rate limit hit on %s", path)
		}
		if resp.StatusCode() >= 400 {
			return fmt.Errorf("unexpected status %d from %s", resp.StatusCode(), path)
		}

		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
			return fmt.Errorf("failed to parse response from %s: %w", path, err)
		}

		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to parse data from %s: %w", path, err)
		}

		return nil
	})
}

// GetOptionsFlow fetches recent options-flow alerts.
func (c *Client) GetOptionsFlow(ctx context.Context, opts QueryOpts) ([]FlowTrade, error) {
	var cached []FlowTrade
	if c.fromStore(tableFlow, scopeKey(opts), &cached) {
		return cached, nil
	}

	var raw []rawFlowTrade
	if err := c.get(ctx, "/api/option-trades/flow-alerts", opts, &raw); err != nil {
		return nil, err
	}

	trades := make([]FlowTrade, 0, len(raw))
	for _, r := range raw {
		trades = append(trades, transformFlowTrade(r))
	}

	c.toStore(tableFlow, scopeKey(opts), trades)
	c.log.Debug().Int("count", len(trades)).Str("symbol", opts.Symbol).Msg("Fetched options flow")
	return trades, nil
}

// GetDarkPool fetches recent dark pool prints.
func (c *Client) GetDarkPool(ctx context.Context, opts QueryOpts) ([]DarkPoolTrade, error) {
	var cached []DarkPoolTrade
	if c.fromStore(tableDarkPool, scopeKey(opts), &cached) {
		return cached, nil
	}

	var raw []rawDarkPoolTrade
	if err := c.get(ctx, "/api/darkpool/transactions", opts, &raw); err != nil {
		return nil, err
	}

	trades := make([]DarkPoolTrade, 0, len(raw))
	for _, r := range raw {
		trades = append(trades, transformDarkPoolTrade(r))
	}

	c.toStore(tableDarkPool, scopeKey(opts), trades)
	c.log.Debug().Int("count", len(trades)).Str("symbol", opts.Symbol).Msg("Fetched dark pool prints")
	return trades, nil
}

// GetInsiderTrades fetches recent insider transactions.
func (c *Client) GetInsiderTrades(ctx context.Context, opts QueryOpts) ([]InsiderTrade, error) {
	var cached []InsiderTrade
	if c.fromStore(tableInsider, scopeKey(opts), &cached) {
		return cached, nil
	}

	var raw []rawInsiderTrade
	if err := c.get(ctx, "/api/insider/trades", opts, &raw); err != nil {
		return nil, err
	}

	trades := make([]InsiderTrade, 0, len(raw))
	for _, r := range raw {
		trades = append(trades, transformInsiderTrade(r))
	}

	c.toStore(tableInsider, scopeKey(opts), trades)
	return trades, nil
}

// GetPoliticalTrades fetches recent congressional trading disclosures.
func (c *Client) GetPoliticalTrades(ctx context.Context, opts QueryOpts) ([]PoliticalTrade, error) {
	var cached []PoliticalTrade
	if c.fromStore(tablePolitical, scopeKey(opts), &cached) {
		return cached, nil
	}

	var raw []rawPoliticalTrade
	if err := c.get(ctx, "/api/congress/trades", opts, &raw); err != nil {
		return nil, err
	}

	trades := make([]PoliticalTrade, 0, len(raw))
	for _, r := range raw {
		trades = append(trades, transformPoliticalTrade(r))
	}

	c.toStore(tablePolitical, scopeKey(opts), trades)
	return trades, nil
}

// GetAnalystRatings fetches recent analyst rating actions.
func (c *Client) GetAnalystRatings(ctx context.Context, opts QueryOpts) ([]AnalystRating, error) {
	var cached []AnalystRating
	if c.fromStore(tableAnalyst, scopeKey(opts), &cached) {
		return cached, nil
	}

	var raw []rawAnalystRating
	if err := c.get(ctx, "/api/analysts/ratings", opts, &raw); err != nil {
		return nil, err
	}

	ratings := make([]AnalystRating, 0, len(raw))
	for _, r := range raw {
		ratings = append(ratings, transformAnalystRating(r))
	}

	c.toStore(tableAnalyst, scopeKey(opts), ratings)
	return ratings, nil
}

// ClientInterface defines the operations the collection and financial-data
// services consume, allowing fakes in tests.
type ClientInterface interface {
	GetOptionsFlow(ctx context.Context, opts QueryOpts) ([]FlowTrade, error)
	GetDarkPool(ctx context.Context, opts QueryOpts) ([]DarkPoolTrade, error)
	GetInsiderTrades(ctx context.Context, opts QueryOpts) ([]InsiderTrade, error)
	GetPoliticalTrades(ctx context.Context, opts QueryOpts) ([]PoliticalTrade, error)
	GetAnalystRatings(ctx context.Context, opts QueryOpts) ([]AnalystRating, error)
}

var _ ClientInterface = (*Client)(nil)
