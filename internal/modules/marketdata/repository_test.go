package marketdata

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE TABLE stock_quotes (
	symbol TEXT PRIMARY KEY,
	price REAL NOT NULL,
	open REAL,
	high REAL,
	low REAL,
	previous_close REAL,
	volume INTEGER,
	change REAL,
	change_percent REAL,
	source TEXT NOT NULL DEFAULT 'alpha_vantage',
	raw_payload TEXT,
	quote_timestamp TEXT,
	updated_at INTEGER NOT NULL
);
CREATE TABLE price_history (
	symbol TEXT NOT NULL,
	date TEXT NOT NULL,
	open REAL,
	high REAL,
	low REAL,
	close REAL NOT NULL,
	volume INTEGER,
	PRIMARY KEY (symbol, date)
);
CREATE TABLE company_info (
	symbol TEXT PRIMARY KEY,
	name TEXT,
	sector TEXT,
	industry TEXT,
	market_cap REAL,
	pe_ratio REAL,
	dividend_yield REAL,
	eps REAL,
	beta REAL,
	week_52_high REAL,
	week_52_low REAL,
	shares_outstanding REAL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE balance_sheets (
	symbol TEXT NOT NULL,
	fiscal_date_ending TEXT NOT NULL,
	is_quarterly INTEGER NOT NULL,
	reported_currency TEXT,
	total_assets REAL,
	total_liabilities REAL,
	total_shareholder_equity REAL,
	cash_and_equivalents REAL,
	current_assets REAL,
	current_liabilities REAL,
	long_term_debt REAL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (symbol, fiscal_date_ending, is_quarterly)
);
CREATE TABLE technical_indicators (
	symbol TEXT NOT NULL,
	indicator_type TEXT NOT NULL,
	date TEXT NOT NULL,
	value REAL NOT NULL,
	parameters TEXT,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (symbol, indicator_type, date)
);
CREATE TABLE option_flow (
	id TEXT PRIMARY KEY,
	ticker TEXT NOT NULL,
	contract_type TEXT,
	strike REAL,
	expiry TEXT,
	premium REAL,
	size INTEGER,
	volume INTEGER,
	open_interest INTEGER,
	sentiment TEXT,
	executed_at TEXT,
	collected_at INTEGER NOT NULL
);
CREATE TABLE dark_pool (
	id TEXT PRIMARY KEY,
	ticker TEXT NOT NULL,
	volume INTEGER,
	price REAL,
	premium REAL,
	executed_at TEXT,
	collected_at INTEGER NOT NULL
);
`

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return NewRepository(db, zerolog.Nop())
}

func TestUpsertQuote(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.UpsertQuote(&StockQuote{
		Symbol:        "AAPL",
		Price:         185.50,
		Open:          184.00,
		High:          186.20,
		Low:           183.10,
		PreviousClose: 183.00,
		Volume:        52_000_000,
		Change:        2.50,
		ChangePercent: 1.37,
		Source:        "alpha_vantage",
		QuoteDate:     "2026-08-28",
	})
	require.NoError(t, err)

	got, err := repo.GetQuote("AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, 185.50, got.Price)
	assert.Equal(t, "2026-08-28", got.QuoteDate)

	// Second upsert replaces the row rather than duplicating it.
	err = repo.UpsertQuote(&StockQuote{Symbol: "AAPL", Price: 190.00, QuoteDate: "2026-08-29"})
	require.NoError(t, err)

	got, err = repo.GetQuote("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.00, got.Price)

	var count int
	require.NoError(t, repo.db.QueryRow("SELECT COUNT(*) FROM stock_quotes").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestGetQuote_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	got, err := repo.GetQuote("MISSING")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetSignificantChanges(t *testing.T) {
	repo := setupTestRepo(t)

	quotes := []StockQuote{
		{Symbol: "AAPL", Price: 100, ChangePercent: 1.2},
		{Symbol: "TSLA", Price: 200, ChangePercent: -8.4},
		{Symbol: "NVDA", Price: 300, ChangePercent: 6.1},
		{Symbol: "MSFT", Price: 400, ChangePercent: 4.9},
	}
	for i := range quotes {
		require.NoError(t, repo.UpsertQuote(&quotes[i]))
	}

	got, err := repo.GetSignificantChanges(5.0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by absolute move, largest first.
	assert.Equal(t, "TSLA", got[0].Symbol)
	assert.Equal(t, "NVDA", got[1].Symbol)
}

func TestGetRecentCloses(t *testing.T) {
	repo := setupTestRepo(t)

	dates := []string{"2026-08-24", "2026-08-25", "2026-08-26", "2026-08-27", "2026-08-28"}
	for i, d := range dates {
		require.NoError(t, repo.UpsertPriceBar(&PriceBar{
			Symbol: "AAPL",
			Date:   d,
			Close:  100 + float64(i),
		}))
	}

	closes, err := repo.GetRecentCloses("AAPL", 3)
	require.NoError(t, err)

	// Most recent three, returned oldest first.
	assert.Equal(t, []float64{102, 103, 104}, closes)
}

func TestUpsertCompanyInfo(t *testing.T) {
	repo := setupTestRepo(t)

	marketCap := 2.9e12
	pe := 31.4
	require.NoError(t, repo.UpsertCompanyInfo(&CompanyInfo{
		Symbol:    "AAPL",
		Name:      "Apple Inc",
		Sector:    "TECHNOLOGY",
		Industry:  "ELECTRONIC COMPUTERS",
		MarketCap: &marketCap,
		PERatio:   &pe,
	}))

	got, err := repo.GetCompanyInfo("AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Apple Inc", got.Name)
	require.NotNil(t, got.MarketCap)
	assert.Equal(t, marketCap, *got.MarketCap)
	assert.Nil(t, got.Beta)
}

func TestUpsertBalanceSheet(t *testing.T) {
	repo := setupTestRepo(t)

	rec := &BalanceSheetRecord{
		Symbol:           "AAPL",
		FiscalDateEnding: "2025-09-30",
		IsQuarterly:      false,
		ReportedCurrency: "USD",
		TotalAssets:      352_000_000_000,
		TotalLiabilities: 290_000_000_000,
	}
	require.NoError(t, repo.UpsertBalanceSheet(rec))

	// Same period again updates in place.
	rec.TotalAssets = 353_000_000_000
	require.NoError(t, repo.UpsertBalanceSheet(rec))

	var count int
	require.NoError(t, repo.db.QueryRow("SELECT COUNT(*) FROM balance_sheets").Scan(&count))
	assert.Equal(t, 1, count)

	// Quarterly report for the same date is a distinct row.
	rec.IsQuarterly = true
	require.NoError(t, repo.UpsertBalanceSheet(rec))
	require.NoError(t, repo.db.QueryRow("SELECT COUNT(*) FROM balance_sheets").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestGetLatestIndicator(t *testing.T) {
	repo := setupTestRepo(t)

	for _, row := range []TechnicalIndicator{
		{Symbol: "AAPL", IndicatorType: "RSI", Date: "2026-08-26", Value: 55.2},
		{Symbol: "AAPL", IndicatorType: "RSI", Date: "2026-08-28", Value: 61.8},
		{Symbol: "AAPL", IndicatorType: "RSI", Date: "2026-08-27", Value: 58.0},
	} {
		ind := row
		require.NoError(t, repo.UpsertIndicator(&ind))
	}

	got, err := repo.GetLatestIndicator("AAPL", "RSI")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2026-08-28", got.Date)
	assert.Equal(t, 61.8, got.Value)

	missing, err := repo.GetLatestIndicator("AAPL", "MACD")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInsertOptionFlow_GeneratesID(t *testing.T) {
	repo := setupTestRepo(t)

	rec := &OptionFlowRecord{Ticker: "TSLA", ContractType: "call", Strike: 250, Premium: 1_200_000}
	require.NoError(t, repo.InsertOptionFlow(rec))
	assert.NotEmpty(t, rec.ID)

	got, err := repo.RecentOptionFlow(10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "TSLA", got[0].Ticker)
}

func TestInsertDarkPool(t *testing.T) {
	repo := setupTestRepo(t)

	require.NoError(t, repo.InsertDarkPool(&DarkPoolRecord{
		ID:     "dp-1",
		Ticker: "NVDA",
		Volume: 500_000,
		Price:  121.30,
	}))

	// Same vendor id replaces the row.
	require.NoError(t, repo.InsertDarkPool(&DarkPoolRecord{
		ID:     "dp-1",
		Ticker: "NVDA",
		Volume: 600_000,
		Price:  121.30,
	}))

	got, err := repo.RecentDarkPool(10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(600_000), got[0].Volume)
}
