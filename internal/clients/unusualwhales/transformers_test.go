package unusualwhales

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformFlowTrade(t *testing.T) {
	raw := rawFlowTrade{
		ID:           "f-1",
		Ticker:       "aapl",
		OptionType:   "CALL",
		Strike:       "185.00",
		Expiry:       "2026-09-18",
		TotalPremium: "250000.50",
		TotalSize:    500,
		Volume:       1200,
		OpenInterest: 3400,
		Sentiment:    "Bullish",
		ExecutedAt:   "2026-08-28T14:30:00Z",
	}

	got := transformFlowTrade(raw)

	assert.Equal(t, "AAPL", got.Ticker)
	assert.Equal(t, "call", got.ContractType)
	assert.Equal(t, 185.0, got.Strike)
	assert.Equal(t, 250000.5, got.Premium)
	assert.Equal(t, int64(500), got.Size)
	assert.Equal(t, "bullish", got.Sentiment)
}

func TestTransformDarkPoolTrade(t *testing.T) {
	raw := rawDarkPoolTrade{
		TrackingID: "dp-7",
		Ticker:     "nvda",
		Size:       150000,
		Price:      "118.25",
		Premium:    "17737500",
		ExecutedAt: "2026-08-28T19:55:00Z",
	}

	got := transformDarkPoolTrade(raw)

	assert.Equal(t, "dp-7", got.ID)
	assert.Equal(t, "NVDA", got.Ticker)
	assert.Equal(t, int64(150000), got.Volume)
	assert.Equal(t, 118.25, got.Price)
}

func TestTransformInsiderTrade(t *testing.T) {
	raw := rawInsiderTrade{
		ID:              "in-3",
		Ticker:          "msft",
		OwnerName:       "Jane Roe",
		OfficerTitle:    "CFO",
		TransactionCode: "P",
		Shares:          "1000",
		PricePerShare:   "410.10",
		TotalValue:      "410100",
		FilingDate:      "2026-08-27",
		TransactionDate: "2026-08-25",
	}

	got := transformInsiderTrade(raw)

	assert.Equal(t, "MSFT", got.Ticker)
	assert.Equal(t, "buy", got.TransactionType)
	assert.Equal(t, 1000.0, got.Shares)
	assert.Equal(t, 410100.0, got.Value)
}

func TestInsiderTransactionType(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"P", "buy"},
		{"p", "buy"},
		{"S", "sell"},
		{"A", "award"},
		{"G", "gift"},
		{"X", "x"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, insiderTransactionType(tc.code))
	}
}

func TestTransformPoliticalTrade(t *testing.T) {
	raw := rawPoliticalTrade{
		ID:              "pt-9",
		Ticker:          "tsla",
		Reporter:        "Rep. Smith",
		Chamber:         "House",
		TxnType:         "Purchase",
		Amounts:         "$15,001 - $50,000",
		TransactionDate: "2026-08-20",
		DisclosureDate:  "2026-08-26",
	}

	got := transformPoliticalTrade(raw)

	assert.Equal(t, "TSLA", got.Ticker)
	assert.Equal(t, "Rep. Smith", got.Politician)
	assert.Equal(t, "house", got.Chamber)
	assert.Equal(t, "purchase", got.TransactionType)
	assert.Equal(t, "$15,001 - $50,000", got.AmountRange)
}

func TestTransformAnalystRating(t *testing.T) {
	raw := rawAnalystRating{
		ID:          "ar-2",
		Ticker:      "amd",
		AnalystName: "A. Analyst",
		FirmName:    "Big Bank",
		Rating:      "Buy",
		Action:      "Upgrade",
		PriceTarget: "210.00",
		Timestamp:   "2026-08-28T12:00:00Z",
	}

	got := transformAnalystRating(raw)

	assert.Equal(t, "AMD", got.Ticker)
	assert.Equal(t, "buy", got.Rating)
	assert.Equal(t, "upgrade", got.Action)
	assert.Equal(t, 210.0, got.PriceTarget)
}

func TestParseVendorFloat(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"123.45", 123.45},
		{"", 0},
		{"null", 0},
		{"garbage", 0},
		{" 10.5 ", 10.5},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, parseVendorFloat(tc.input))
	}
}
