// Package marketdata collects and serves market data: quotes, fundamentals,
// technical indicators, and unusual-activity feeds.
package marketdata

import "time"

// StockQuote is the latest quote for one symbol, one logical row per symbol.
type StockQuote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PreviousClose float64   `json:"previous_close"`
	Volume        int64     `json:"volume"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Source        string    `json:"source"`
	QuoteDate     string    `json:"quote_date,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PriceBar is one day of OHLCV history for a symbol.
type PriceBar struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// CompanyInfo is fundamental company data, upserted per symbol.
type CompanyInfo struct {
	Symbol            string    `json:"symbol"`
	Name              string    `json:"name"`
	Sector            string    `json:"sector"`
	Industry          string    `json:"industry"`
	MarketCap         *float64  `json:"market_cap"`
	PERatio           *float64  `json:"pe_ratio"`
	DividendYield     *float64  `json:"dividend_yield"`
	EPS               *float64  `json:"eps"`
	Beta              *float64  `json:"beta"`
	Week52High        *float64  `json:"week_52_high"`
	Week52Low         *float64  `json:"week_52_low"`
	SharesOutstanding *float64  `json:"shares_outstanding"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// BalanceSheetRecord is one fiscal period's balance sheet, upserted per
// (symbol, fiscal date, quarterly flag).
type BalanceSheetRecord struct {
	Symbol             string  `json:"symbol"`
	FiscalDateEnding   string  `json:"fiscal_date_ending"`
	IsQuarterly        bool    `json:"is_quarterly"`
	ReportedCurrency   string  `json:"reported_currency"`
	TotalAssets        int64   `json:"total_assets"`
	TotalLiabilities   int64   `json:"total_liabilities"`
	ShareholderEquity  int64   `json:"total_shareholder_equity"`
	CashAndEquivalents int64   `json:"cash_and_equivalents"`
	CurrentAssets      int64   `json:"current_assets"`
	CurrentLiabilities int64   `json:"current_liabilities"`
	LongTermDebt       int64   `json:"long_term_debt"`
}

// TechnicalIndicator is one dated indicator value, keyed by
// (symbol, indicator type, date).
type TechnicalIndicator struct {
	Symbol        string  `json:"symbol"`
	IndicatorType string  `json:"indicator_type"`
	Date          string  `json:"date"`
	Value         float64 `json:"value"`
	Parameters    string  `json:"parameters,omitempty"`
}

// OptionFlowRecord is one stored options-flow row.
type OptionFlowRecord struct {
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

// DarkPoolRecord is one stored dark-pool print.
type DarkPoolRecord struct {
	ID         string  `json:"id"`
	Ticker     string  `json:"ticker"`
	Volume     int64   `json:"volume"`
	Price      float64 `json:"price"`
	Premium    float64 `json:"premium"`
	ExecutedAt string  `json:"executed_at"`
}

// CollectorResult is the outcome of one collector for one symbol.
type CollectorResult struct {
	Collector string `json:"collector"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// SymbolResult summarizes all collectors for one symbol.
type SymbolResult struct {
	Symbol  string            `json:"symbol"`
	Results []CollectorResult `json:"results"`
}

// Succeeded reports whether every collector for the symbol succeeded.
func (r SymbolResult) Succeeded() bool {
	for _, res := range r.Results {
		if !res.Success {
			return false
		}
	}
	return true
}
