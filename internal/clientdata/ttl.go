package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Quarterly financial data (updates with filings)
	TTLBalanceSheet = 45 * 24 * time.Hour // Quarterly balance sheets

	// Weekly-ish data (changes more frequently but not critical)
	TTLOverview = 7 * 24 * time.Hour // Company overview, P/E, market cap

	// Daily data (time-sensitive signals)
	TTLDailySeries = 24 * time.Hour // Daily OHLCV series
	TTLRSI         = 24 * time.Hour // RSI series refresh once per day

	// Short-lived data (changes frequently)
	TTLFlow      = time.Hour        // Unusual Whales flow/pool/filings feeds
	TTLTopMovers = time.Hour        // Top gainers/losers snapshot
	TTLQuote     = 10 * time.Minute // Quote cache between collection cycles
)
