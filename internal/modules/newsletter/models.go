// Package newsletter assembles and delivers personalized market digests on
// per-user frequency schedules.
package newsletter

import "time"

// Delivery frequencies. Unknown values fall back to the weekly rule.
const (
	FrequencyDaily       = "daily"
	FrequencyTwiceWeekly = "twice-weekly"
	FrequencyWeekly      = "weekly"
	FrequencyBiWeekly    = "bi-weekly"
	FrequencyMonthly     = "monthly"
)

// Preferences is one user's newsletter subscription settings.
type Preferences struct {
	UserID                      string     `json:"user_id"`
	Email                       string     `json:"email"`
	IsSubscribed                bool       `json:"is_subscribed"`
	Frequency                   string     `json:"frequency"`
	PreferredDay                int        `json:"preferred_day"` // 0=Sunday .. 6=Saturday
	InterestedInOptions         bool       `json:"interested_in_options"`
	InterestedInDarkPool        bool       `json:"interested_in_dark_pool"`
	InterestedInInsiders        bool       `json:"interested_in_insiders"`
	InterestedInRecommendations bool       `json:"interested_in_recommendations"`
	LastDeliveryAt              *time.Time `json:"last_delivery_at,omitempty"`
	UpdatedAt                   time.Time  `json:"updated_at"`
}

// DeliveryResult summarizes one newsletter run.
type DeliveryResult struct {
	SentCount  int `json:"sent_count"`
	ErrorCount int `json:"error_count"`
}

// IndexQuote is one benchmark index row in the market summary.
type IndexQuote struct {
	Symbol        string
	Price         float64
	ChangePercent float64
}

// MarketSummary is the digest's lead section.
type MarketSummary struct {
	Trend   string
	Indexes []IndexQuote
}

// WatchlistItem is one watchlist row joined with company data.
type WatchlistItem struct {
	Symbol        string
	Name          string
	Sector        string
	Price         float64
	ChangePercent float64
}

// FlowHighlight is one options-flow row formatted for the digest.
type FlowHighlight struct {
	Ticker       string
	ContractType string
	Strike       float64
	Premium      float64
}

// DarkPoolHighlight is one dark-pool print formatted for the digest.
type DarkPoolHighlight struct {
	Ticker string
	Volume int64
	Price  float64
}

// Content is everything a rendered newsletter can contain. Empty sections
// are omitted from the HTML.
type Content struct {
	Summary         *MarketSummary
	Watchlist       []WatchlistItem
	OptionsFlow     []FlowHighlight
	DarkPool        []DarkPoolHighlight
	Insights        []string
	Recommendations []string
}
