package marketdata

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository handles market data persistence against market.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new market data repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "marketdata").Logger(),
	}
}

// UpsertQuote writes the latest quote for a symbol, last writer wins.
func (r *Repository) UpsertQuote(q *StockQuote) error {
	query := `INSERT INTO stock_quotes
		(symbol, price, open, high, low, previous_close, volume, change, change_percent, source, quote_timestamp, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			price = excluded.price,
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			previous_close = excluded.previous_close,
			volume = excluded.volume,
			change = excluded.change,
			change_percent = excluded.change_percent,
			source = excluded.source,
			quote_timestamp = excluded.quote_timestamp,
			updated_at = excluded.updated_at`

	_, err := r.db.Exec(query,
		q.Symbol, q.Price, q.Open, q.High, q.Low, q.PreviousClose,
		q.Volume, q.Change, q.ChangePercent, q.Source, q.QuoteDate,
		time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert quote for %s: %w", q.Symbol, err)
	}

	return nil
}

// GetQuote returns the latest quote for a symbol, or nil if none exists.
func (r *Repository) GetQuote(symbol string) (*StockQuote, error) {
	query := `SELECT symbol, price, open, high, low, previous_close, volume,
		change, change_percent, source, quote_timestamp, updated_at
		FROM stock_quotes WHERE symbol = ?`

	var q StockQuote
	var updatedAt int64
	err := r.db.QueryRow(query, symbol).Scan(
		&q.Symbol, &q.Price, &q.Open, &q.High, &q.Low, &q.PreviousClose,
		&q.Volume, &q.Change, &q.ChangePercent, &q.Source, &q.QuoteDate, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
	}

	q.UpdatedAt = time.Unix(updatedAt, 0)
	return &q, nil
}

// GetQuotes returns the latest quotes for a set of symbols, keyed by symbol.
func (r *Repository) GetQuotes(symbols []string) (map[string]*StockQuote, error) {
	quotes := make(map[string]*StockQuote, len(symbols))
	for _, symbol := range symbols {
		q, err := r.GetQuote(symbol)
		if err != nil {
			return nil, err
		}
		if q != nil {
			quotes[symbol] = q
		}
	}
	return quotes, nil
}

// GetSignificantChanges returns quotes whose absolute change percent meets
// the threshold.
func (r *Repository) GetSignificantChanges(thresholdPercent float64) ([]StockQuote, error) {
	query := `SELECT symbol, price, open, high, low, previous_close, volume,
		change, change_percent, source, quote_timestamp, updated_at
		FROM stock_quotes WHERE ABS(change_percent) >= ?
		ORDER BY ABS(change_percent) DESC`

	rows, err := r.db.Query(query, thresholdPercent)
	if err != nil {
		return nil, fmt.Errorf("failed to query significant changes: %w", err)
	}
	defer rows.Close()

	var quotes []StockQuote
	for rows.Next() {
		var q StockQuote
		var updatedAt int64
		if err := rows.Scan(&q.Symbol, &q.Price, &q.Open, &q.High, &q.Low,
			&q.PreviousClose, &q.Volume, &q.Change, &q.ChangePercent,
			&q.Source, &q.QuoteDate, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		q.UpdatedAt = time.Unix(updatedAt, 0)
		quotes = append(quotes, q)
	}

	return quotes, rows.Err()
}

// UpsertPriceBar writes one day of price history keyed by (symbol, date).
func (r *Repository) UpsertPriceBar(bar *PriceBar) error {
	query := `INSERT INTO price_history (symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume`

	_, err := r.db.Exec(query, bar.Symbol, bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	if err != nil {
		return fmt.Errorf("failed to upsert price bar for %s: %w", bar.Symbol, err)
	}

	return nil
}

// GetRecentCloses returns up to limit closing prices for a symbol, oldest
// first, suitable for indicator computation.
func (r *Repository) GetRecentCloses(symbol string, limit int) ([]float64, error) {
	query := `SELECT close FROM (
		SELECT close, date FROM price_history WHERE symbol = ?
		ORDER BY date DESC LIMIT ?
	) ORDER BY date ASC`

	rows, err := r.db.Query(query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query closes for %s: %w", symbol, err)
	}
	defer rows.Close()

	var closes []float64
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan close: %w", err)
		}
		closes = append(closes, c)
	}

	return closes, rows.Err()
}

// UpsertCompanyInfo writes fundamental company data keyed by symbol.
func (r *Repository) UpsertCompanyInfo(info *CompanyInfo) error {
	query := `INSERT INTO company_info
		(symbol, name, sector, industry, market_cap, pe_ratio, dividend_yield,
		 eps, beta, week_52_high, week_52_low, shares_outstanding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name = excluded.name,
			sector = excluded.sector,
			industry = excluded.industry,
			market_cap = excluded.market_cap,
			pe_ratio = excluded.pe_ratio,
			dividend_yield = excluded.dividend_yield,
			eps = excluded.eps,
			beta = excluded.beta,
			week_52_high = excluded.week_52_high,
			week_52_low = excluded.week_52_low,
			shares_outstanding = excluded.shares_outstanding,
			updated_at = excluded.updated_at`

	_, err := r.db.Exec(query,
		info.Symbol, info.Name, info.Sector, info.Industry,
		info.MarketCap, info.PERatio, info.DividendYield, info.EPS, info.Beta,
		info.Week52High, info.Week52Low, info.SharesOutstanding,
		time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert company info for %s: %w", info.Symbol, err)
	}

	return nil
}

// GetCompanyInfo returns company data for a symbol, or nil if none exists.
func (r *Repository) GetCompanyInfo(symbol string) (*CompanyInfo, error) {
	query := `SELECT symbol, name, sector, industry, market_cap, pe_ratio,
		dividend_yield, eps, beta, week_52_high, week_52_low, shares_outstanding, updated_at
		FROM company_info WHERE symbol = ?`

	var info CompanyInfo
	var updatedAt int64
	err := r.db.QueryRow(query, symbol).Scan(
		&info.Symbol, &info.Name, &info.Sector, &info.Industry,
		&info.MarketCap, &info.PERatio, &info.DividendYield, &info.EPS, &info.Beta,
		&info.Week52High, &info.Week52Low, &info.SharesOutstanding, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company info for %s: %w", symbol, err)
	}

	info.UpdatedAt = time.Unix(updatedAt, 0)
	return &info, nil
}

// GetCompanyInfoBatch returns company data for multiple symbols keyed by symbol.
func (r *Repository) GetCompanyInfoBatch(symbols []string) (map[string]*CompanyInfo, error) {
	infos := make(map[string]*CompanyInfo, len(symbols))
	for _, symbol := range symbols {
		info, err := r.GetCompanyInfo(symbol)
		if err != nil {
			return nil, err
		}
		if info != nil {
			infos[symbol] = info
		}
	}
	return infos, nil
}

// UpsertBalanceSheet writes one balance sheet report keyed by
// (symbol, fiscal_date_ending, is_quarterly).
func (r *Repository) UpsertBalanceSheet(rec *BalanceSheetRecord) error {
	query := `INSERT INTO balance_sheets
		(symbol, fiscal_date_ending, is_quarterly, reported_currency,
		 total_assets, total_liabilities, total_shareholder_equity,
		 cash_and_equivalents, current_assets, current_liabilities, long_term_debt, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, fiscal_date_ending, is_quarterly) DO UPDATE SET
			reported_currency = excluded.reported_currency,
			total_assets = excluded.total_assets,
			total_liabilities = excluded.total_liabilities,
			total_shareholder_equity = excluded.total_shareholder_equity,
			cash_and_equivalents = excluded.cash_and_equivalents,
			current_assets = excluded.current_assets,
			current_liabilities = excluded.current_liabilities,
			long_term_debt = excluded.long_term_debt,
			updated_at = excluded.updated_at`

	_, err := r.db.Exec(query,
		rec.Symbol, rec.FiscalDateEnding, rec.IsQuarterly, rec.ReportedCurrency,
		rec.TotalAssets, rec.TotalLiabilities, rec.ShareholderEquity,
		rec.CashAndEquivalents, rec.CurrentAssets, rec.CurrentLiabilities,
		rec.LongTermDebt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert balance sheet for %s: %w", rec.Symbol, err)
	}

	return nil
}

// UpsertIndicator writes one technical indicator value keyed by
// (symbol, indicator_type, date).
func (r *Repository) UpsertIndicator(ind *TechnicalIndicator) error {
	query := `INSERT INTO technical_indicators (symbol, indicator_type, date, value, parameters, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, indicator_type, date) DO UPDATE SET
			value = excluded.value,
			parameters = excluded.parameters,
			updated_at = excluded.updated_at`

	_, err := r.db.Exec(query, ind.Symbol, ind.IndicatorType, ind.Date, ind.Value, ind.Parameters, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert indicator %s/%s: %w", ind.Symbol, ind.IndicatorType, err)
	}

	return nil
}

// GetLatestIndicator returns the most recent value for a symbol/indicator
// pair, or nil if none exists.
func (r *Repository) GetLatestIndicator(symbol, indicatorType string) (*TechnicalIndicator, error) {
	query := `SELECT symbol, indicator_type, date, value, COALESCE(parameters, '')
		FROM technical_indicators WHERE symbol = ? AND indicator_type = ?
		ORDER BY date DESC LIMIT 1`

	var ind TechnicalIndicator
	err := r.db.QueryRow(query, symbol, indicatorType).Scan(
		&ind.Symbol, &ind.IndicatorType, &ind.Date, &ind.Value, &ind.Parameters)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get indicator %s/%s: %w", symbol, indicatorType, err)
	}

	return &ind, nil
}

// InsertOptionFlow stores one options-flow record. Records without a vendor
// id get a generated one.
func (r *Repository) InsertOptionFlow(rec *OptionFlowRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	query := `INSERT OR REPLACE INTO option_flow
		(id, ticker, contract_type, strike, expiry, premium, size, volume, open_interest, sentiment, executed_at, collected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		rec.ID, rec.Ticker, rec.ContractType, rec.Strike, rec.Expiry,
		rec.Premium, rec.Size, rec.Volume, rec.OpenInterest, rec.Sentiment,
		rec.ExecutedAt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert option flow for %s: %w", rec.Ticker, err)
	}

	return nil
}

// RecentOptionFlow returns the most recently collected flow rows.
func (r *Repository) RecentOptionFlow(limit int) ([]OptionFlowRecord, error) {
	query := `SELECT id, ticker, contract_type, strike, COALESCE(expiry, ''),
		premium, size, volume, open_interest, COALESCE(sentiment, ''), COALESCE(executed_at, '')
		FROM option_flow ORDER BY collected_at DESC, executed_at DESC LIMIT ?`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query option flow: %w", err)
	}
	defer rows.Close()

	var records []OptionFlowRecord
	for rows.Next() {
		var rec OptionFlowRecord
		if err := rows.Scan(&rec.ID, &rec.Ticker, &rec.ContractType, &rec.Strike,
			&rec.Expiry, &rec.Premium, &rec.Size, &rec.Volume, &rec.OpenInterest,
			&rec.Sentiment, &rec.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan option flow: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// InsertDarkPool stores one dark-pool print.
func (r *Repository) InsertDarkPool(rec *DarkPoolRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	query := `INSERT OR REPLACE INTO dark_pool
		(id, ticker, volume, price, premium, executed_at, collected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		rec.ID, rec.Ticker, rec.Volume, rec.Price, rec.Premium,
		rec.ExecutedAt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert dark pool print for %s: %w", rec.Ticker, err)
	}

	return nil
}

// RecentDarkPool returns the most recently collected dark-pool rows.
func (r *Repository) RecentDarkPool(limit int) ([]DarkPoolRecord, error) {
	query := `SELECT id, ticker, volume, price, premium, COALESCE(executed_at, '')
		FROM dark_pool ORDER BY collected_at DESC, executed_at DESC LIMIT ?`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query dark pool: %w", err)
	}
	defer rows.Close()

	var records []DarkPoolRecord
	for rows.Next() {
		var rec DarkPoolRecord
		if err := rows.Scan(&rec.ID, &rec.Ticker, &rec.Volume, &rec.Price,
			&rec.Premium, &rec.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dark pool print: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
