// Package financialdata stores and serves the aggregated research feeds:
// insider trades, congressional trades, 13F-derived hedge-fund moves,
// financial news, analyst ratings, bank research and video summaries.
package financialdata

// InsiderTrade is one SEC Form 4 insider transaction.
type InsiderTrade struct {
	ID              string  `json:"id"`
	Ticker          string  `json:"ticker"`
	InsiderName     string  `json:"insider_name,omitempty"`
	Title           string  `json:"title,omitempty"`
	TransactionType string  `json:"transaction_type,omitempty"`
	Shares          float64 `json:"shares,omitempty"`
	Price           float64 `json:"price,omitempty"`
	Value           float64 `json:"value,omitempty"`
	FiledAt         string  `json:"filed_at,omitempty"`
	TransactionDate string  `json:"transaction_date,omitempty"`
}

// PoliticalTrade is one congressional trading disclosure.
type PoliticalTrade struct {
	ID              string `json:"id"`
	Ticker          string `json:"ticker"`
	Politician      string `json:"politician,omitempty"`
	Chamber         string `json:"chamber,omitempty"`
	TransactionType string `json:"transaction_type,omitempty"`
	AmountRange     string `json:"amount_range,omitempty"`
	TransactionDate string `json:"transaction_date,omitempty"`
	DisclosedAt     string `json:"disclosed_at,omitempty"`
}

// HedgeFundTrade is one 13F-derived position change.
type HedgeFundTrade struct {
	ID       string  `json:"id"`
	Ticker   string  `json:"ticker"`
	FundName string  `json:"fund_name,omitempty"`
	Action   string  `json:"action,omitempty"`
	Shares   float64 `json:"shares,omitempty"`
	Value    float64 `json:"value,omitempty"`
	Quarter  string  `json:"quarter,omitempty"`
	FiledAt  string  `json:"filed_at,omitempty"`
}

// NewsArticle is one aggregated financial news item.
type NewsArticle struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Summary     string `json:"summary,omitempty"`
	URL         string `json:"url,omitempty"`
	Source      string `json:"source,omitempty"`
	Tickers     string `json:"tickers,omitempty"` // comma-separated
	Sentiment   string `json:"sentiment,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// AnalystRating is one analyst rating action for a symbol.
type AnalystRating struct {
	ID          string  `json:"id"`
	Ticker      string  `json:"ticker"`
	Analyst     string  `json:"analyst,omitempty"`
	Firm        string  `json:"firm,omitempty"`
	Rating      string  `json:"rating,omitempty"`
	Action      string  `json:"action,omitempty"`
	PriceTarget float64 `json:"price_target,omitempty"`
	RatedAt     string  `json:"rated_at,omitempty"`
}

// BankReport is one bank research publication summary.
type BankReport struct {
	ID         string `json:"id"`
	BankName   string `json:"bank_name"`
	Title      string `json:"title,omitempty"`
	Summary    string `json:"summary,omitempty"`
	URL        string `json:"url,omitempty"`
	ReportDate string `json:"report_date,omitempty"`
}

// YouTubeVideo is one summarized finance video.
type YouTubeVideo struct {
	ID          string `json:"id"`
	Channel     string `json:"channel"`
	Title       string `json:"title,omitempty"`
	Summary     string `json:"summary,omitempty"`
	URL         string `json:"url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// ListFilter narrows a feed query. Zero values mean "no filter". Date
// bounds are inclusive and compare against each feed's natural date column.
type ListFilter struct {
	Ticker    string
	StartDate string
	EndDate   string
	Source    string // news source, bank name, or channel depending on feed
	Page      int
	Limit     int
}

func (f ListFilter) offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.limit()
}

func (f ListFilter) limit() int {
	if f.Limit < 1 {
		return 20
	}
	return f.Limit
}
