package unusualwhales

// FlowTrade is one options-flow record, with vendor field names mapped to
// the internal schema at the client boundary.
type FlowTrade struct {
	ID           string  `json:"id"`
	Ticker       string  `json:"ticker"`
	ContractType string  `json:"contract_type"`
	Strike       float64 `json:"strike"`
	Expiry       string  `json:"expiry"`
	Premium      float64 `json:"premium"`
	Size         int64   `json:"size"`
	Volume       int64   `json:"volume"`
	OpenInterest int64   `json:"open_interest"`
	Sentiment    string  `json:"sentiment"`
	ExecutedAt   string  `json:"executed_at"`
}

// DarkPoolTrade is one off-exchange block trade record.
type DarkPoolTrade struct {
	ID         string  `json:"id"`
	Ticker     string  `json:"ticker"`
	Volume     int64   `json:"volume"`
	Price      float64 `json:"price"`
	Premium    float64 `json:"premium"`
	ExecutedAt string  `json:"executed_at"`
}

// InsiderTrade is one SEC Form 4 insider transaction.
type InsiderTrade struct {
	ID              string  `json:"id"`
	Ticker          string  `json:"ticker"`
	InsiderName     string  `json:"insider_name"`
	Title           string  `json:"title"`
	TransactionType string  `json:"transaction_type"`
	Shares          float64 `json:"shares"`
	Price           float64 `json:"price"`
	Value           float64 `json:"value"`
	FiledAt         string  `json:"filed_at"`
	TransactionDate string  `json:"transaction_date"`
}

// PoliticalTrade is one congressional trading disclosure.
type PoliticalTrade struct {
	ID              string `json:"id"`
	Ticker          string `json:"ticker"`
	Politician      string `json:"politician"`
	Chamber         string `json:"chamber"`
	TransactionType string `json:"transaction_type"`
	AmountRange     string `json:"amount_range"`
	TransactionDate string `json:"transaction_date"`
	DisclosedAt     string `json:"disclosed_at"`
}

// AnalystRating is one analyst rating action.
type AnalystRating struct {
	ID          string  `json:"id"`
	Ticker      string  `json:"ticker"`
	Analyst     string  `json:"analyst"`
	Firm        string  `json:"firm"`
	Rating      string  `json:"rating"`
	Action      string  `json:"action"`
	PriceTarget float64 `json:"price_target"`
	RatedAt     string  `json:"rated_at"`
}

// QueryOpts filters a feed request.
type QueryOpts struct {
	Symbol string
	Limit  int
}
