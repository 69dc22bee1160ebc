package alphavantage

import "fmt"

// ErrRateLimitExceeded indicates the daily or per-minute API budget is spent.
type ErrRateLimitExceeded struct {
	ResetAt string
}

func (e ErrRateLimitExceeded) Error() string {
	if e.ResetAt != "" {
		return fmt.Sprintf("alpha vantage rate limit exceeded, resets at %s", e.ResetAt)
	}
	return "alpha vantage rate limit exceeded"
}

// ErrInvalidAPIKey indicates the configured API key was rejected.
type ErrInvalidAPIKey struct{}

func (e ErrInvalidAPIKey) Error() string {
	return "alpha vantage API key is invalid or missing"
}

// ErrSymbolNotFound indicates the vendor returned no data for a symbol.
type ErrSymbolNotFound struct {
	Symbol string
}

func (e ErrSymbolNotFound) Error() string {
	return fmt.Sprintf("no data found for symbol %s", e.Symbol)
}

// VendorError wraps an explicit "Error Message" payload from the vendor.
type VendorError struct {
	Message string
}

func (e VendorError) Error() string {
	return fmt.Sprintf("alpha vantage error: %s", e.Message)
}
