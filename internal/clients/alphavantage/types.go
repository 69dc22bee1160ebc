package alphavantage

import (
	"context"
	"time"
)

// GlobalQuote represents a real-time quote from the GLOBAL_QUOTE endpoint.
type GlobalQuote struct {
	Symbol           string
	Open             float64
	High             float64
	Low              float64
	Price            float64
	Volume           int64
	LatestTradingDay time.Time
	PreviousClose    float64
	Change           float64
	ChangePercent    float64
}

// DailyPrice represents a single day of OHLCV data.
type DailyPrice struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// SymbolMatch represents a search result from SYMBOL_SEARCH.
type SymbolMatch struct {
	Symbol     string
	Name       string
	Type       string
	Region     string
	Currency   string
	MatchScore float64
}

// CompanyOverview represents fundamental company data from OVERVIEW.
// Numeric fields the vendor reports as "None" or "-" are nil pointers.
type CompanyOverview struct {
	Symbol               string
	AssetType            string
	Name                 string
	Description          string
	Exchange             string
	Currency             string
	Country              string
	Sector               string
	Industry             string
	MarketCapitalization int64
	PERatio              *float64
	EPS                  *float64
	DividendYield        *float64
	Beta                 *float64
	FiftyTwoWeekHigh     *float64
	FiftyTwoWeekLow      *float64
	SharesOutstanding    *float64
}

// BalanceSheetReport is one fiscal period from BALANCE_SHEET.
type BalanceSheetReport struct {
	FiscalDateEnding       string
	ReportedCurrency       string
	TotalAssets            int64
	TotalLiabilities       int64
	TotalShareholderEquity int64
	CashAndEquivalents     int64
	CurrentAssets          int64
	CurrentLiabilities     int64
	LongTermDebt           int64
}

// BalanceSheet holds annual and quarterly reports for one symbol.
type BalanceSheet struct {
	Symbol           string
	AnnualReports    []BalanceSheetReport
	QuarterlyReports []BalanceSheetReport
}

// IncomeReport is one fiscal period from INCOME_STATEMENT.
type IncomeReport struct {
	FiscalDateEnding string
	ReportedCurrency string
	TotalRevenue     int64
	GrossProfit      int64
	OperatingIncome  int64
	NetIncome        int64
}

// IncomeStatement holds annual and quarterly reports for one symbol.
type IncomeStatement struct {
	Symbol           string
	AnnualReports    []IncomeReport
	QuarterlyReports []IncomeReport
}

// IndicatorValue is one dated value from a technical indicator series.
type IndicatorValue struct {
	Date  time.Time
	Value float64
}

// RSIData holds an RSI series for one symbol.
type RSIData struct {
	Symbol string
	Period int
	Values []IndicatorValue
}

// Mover is one entry from the TOP_GAINERS_LOSERS endpoint.
type Mover struct {
	Ticker        string
	Price         float64
	ChangeAmount  float64
	ChangePercent float64
	Volume        int64
}

// MarketMovers holds the top gainers/losers/most-active snapshot.
type MarketMovers struct {
	LastUpdated string
	TopGainers  []Mover
	TopLosers   []Mover
	MostActive  []Mover
}

// CacheTTL configures cache durations per data category.
type CacheTTL struct {
	Fundamentals        time.Duration
	TechnicalIndicators time.Duration
	PriceData           time.Duration
}

// DefaultCacheTTL returns the default cache durations.
func DefaultCacheTTL() CacheTTL {
	return CacheTTL{
		Fundamentals:        24 * time.Hour,
		TechnicalIndicators: 1 * time.Hour,
		PriceData:           15 * time.Minute,
	}
}

// ClientInterface defines the operations the collection service consumes.
// Allows substituting a fake client in tests.
type ClientInterface interface {
	GetQuote(ctx context.Context, symbol string) (*GlobalQuote, error)
	GetDailySeries(ctx context.Context, symbol string) ([]DailyPrice, error)
	GetOverview(ctx context.Context, symbol string) (*CompanyOverview, error)
	GetBalanceSheet(ctx context.Context, symbol string) (*BalanceSheet, error)
	GetIncomeStatement(ctx context.Context, symbol string) (*IncomeStatement, error)
	GetRSI(ctx context.Context, symbol string, period int) (*RSIData, error)
	GetTopMovers(ctx context.Context) (*MarketMovers, error)
	GetRemainingRequests() int
}
