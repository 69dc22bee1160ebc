package alphavantage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// parseFloat64 coerces a vendor numeric string to a float.
// The vendor reports missing values as "None", "-", "null" or the empty
// string; a trailing '%' is stripped. Unparseable input yields 0.
func parseFloat64(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" || s == "None" || s == "null" || s == "-" || s == "." {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseFloat64Ptr is like parseFloat64 but distinguishes "missing" as nil.
func parseFloat64Ptr(s string) *float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" || s == "None" || s == "null" || s == "-" || s == "." {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseInt64 coerces a vendor numeric string to an integer, tolerating
// scientific notation and decimal values (truncated).
func parseInt64(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "null" || s == "-" {
		return 0
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

func parseDate(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

// parseGlobalQuote parses a GLOBAL_QUOTE response body.
func parseGlobalQuote(body []byte) (*GlobalQuote, error) {
	var resp struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse global quote: %w", err)
	}
	if len(resp.GlobalQuote) == 0 {
		return nil, fmt.Errorf("empty global quote response")
	}

	q := resp.GlobalQuote
	return &GlobalQuote{
		Symbol:           q["01. symbol"],
		Open:             parseFloat64(q["02. open"]),
		High:             parseFloat64(q["03. high"]),
		Low:              parseFloat64(q["04. low"]),
		Price:            parseFloat64(q["05. price"]),
		Volume:           parseInt64(q["06. volume"]),
		LatestTradingDay: parseDate(q["07. latest trading day"]),
		PreviousClose:    parseFloat64(q["08. previous close"]),
		Change:           parseFloat64(q["09. change"]),
		ChangePercent:    parseFloat64(q["10. change percent"]),
	}, nil
}

// parseDailyTimeSeries parses TIME_SERIES_DAILY, returning prices sorted
// newest first.
func parseDailyTimeSeries(body []byte) ([]DailyPrice, error) {
	var resp struct {
		Series map[string]map[string]string `json:"Time Series (Daily)"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse daily time series: %w", err)
	}
	if len(resp.Series) == 0 {
		return nil, fmt.Errorf("empty daily time series response")
	}

	prices := make([]DailyPrice, 0, len(resp.Series))
	for date, values := range resp.Series {
		prices = append(prices, DailyPrice{
			Date:   parseDate(date),
			Open:   parseFloat64(values["1. open"]),
			High:   parseFloat64(values["2. high"]),
			Low:    parseFloat64(values["3. low"]),
			Close:  parseFloat64(values["4. close"]),
			Volume: parseInt64(values["5. volume"]),
		})
	}

	sort.Slice(prices, func(i, j int) bool {
		return prices[i].Date.After(prices[j].Date)
	})

	return prices, nil
}

// parseSymbolSearch parses SYMBOL_SEARCH best matches.
func parseSymbolSearch(body []byte) ([]SymbolMatch, error) {
	var resp struct {
		BestMatches []map[string]string `json:"bestMatches"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse symbol search: %w", err)
	}

	matches := make([]SymbolMatch, 0, len(resp.BestMatches))
	for _, m := range resp.BestMatches {
		matches = append(matches, SymbolMatch{
			Symbol:     m["1. symbol"],
			Name:       m["2. name"],
			Type:       m["3. type"],
			Region:     m["4. region"],
			Currency:   m["8. currency"],
			MatchScore: parseFloat64(m["9. matchScore"]),
		})
	}

	return matches, nil
}

// parseCompanyOverview parses an OVERVIEW response.
func parseCompanyOverview(body []byte) (*CompanyOverview, error) {
	var raw map[string]string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse company overview: %w", err)
	}
	if raw["Symbol"] == "" {
		return nil, fmt.Errorf("empty company overview response")
	}

	return &CompanyOverview{
		Symbol:               raw["Symbol"],
		AssetType:            raw["AssetType"],
		Name:                 raw["Name"],
		Description:          raw["Description"],
		Exchange:             raw["Exchange"],
		Currency:             raw["Currency"],
		Country:              raw["Country"],
		Sector:               raw["Sector"],
		Industry:             raw["Industry"],
		MarketCapitalization: parseInt64(raw["MarketCapitalization"]),
		PERatio:              parseFloat64Ptr(raw["PERatio"]),
		EPS:                  parseFloat64Ptr(raw["EPS"]),
		DividendYield:        parseFloat64Ptr(raw["DividendYield"]),
		Beta:                 parseFloat64Ptr(raw["Beta"]),
		FiftyTwoWeekHigh:     parseFloat64Ptr(raw["52WeekHigh"]),
		FiftyTwoWeekLow:      parseFloat64Ptr(raw["52WeekLow"]),
		SharesOutstanding:    parseFloat64Ptr(raw["SharesOutstanding"]),
	}, nil
}

type rawBalanceReport struct {
	FiscalDateEnding       string `json:"fiscalDateEnding"`
	ReportedCurrency       string `json:"reportedCurrency"`
	TotalAssets            string `json:"totalAssets"`
	TotalLiabilities       string `json:"totalLiabilities"`
	TotalShareholderEquity string `json:"totalShareholderEquity"`
	CashAndEquivalents     string `json:"cashAndCashEquivalentsAtCarryingValue"`
	TotalCurrentAssets     string `json:"totalCurrentAssets"`
	TotalCurrentLiab       string `json:"totalCurrentLiabilities"`
	LongTermDebt           string `json:"longTermDebt"`
}

func (r rawBalanceReport) toReport() BalanceSheetReport {
	return BalanceSheetReport{
		FiscalDateEnding:       r.FiscalDateEnding,
		ReportedCurrency:       r.ReportedCurrency,
		TotalAssets:            parseInt64(r.TotalAssets),
		TotalLiabilities:       parseInt64(r.TotalLiabilities),
		TotalShareholderEquity: parseInt64(r.TotalShareholderEquity),
		CashAndEquivalents:     parseInt64(r.CashAndEquivalents),
		CurrentAssets:          parseInt64(r.TotalCurrentAssets),
		CurrentLiabilities:     parseInt64(r.TotalCurrentLiab),
		LongTermDebt:           parseInt64(r.LongTermDebt),
	}
}

// parseBalanceSheet parses a BALANCE_SHEET response.
func parseBalanceSheet(body []byte) (*BalanceSheet, error) {
	var resp struct {
		Symbol           string             `json:"symbol"`
		AnnualReports    []rawBalanceReport `json:"annualReports"`
		QuarterlyReports []rawBalanceReport `json:"quarterlyReports"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse balance sheet: %w", err)
	}
	if resp.Symbol == "" {
		return nil, fmt.Errorf("empty balance sheet response")
	}

	sheet := &BalanceSheet{Symbol: resp.Symbol}
	for _, r := range resp.AnnualReports {
		sheet.AnnualReports = append(sheet.AnnualReports, r.toReport())
	}
	for _, r := range resp.QuarterlyReports {
		sheet.QuarterlyReports = append(sheet.QuarterlyReports, r.toReport())
	}

	return sheet, nil
}

type rawIncomeReport struct {
	FiscalDateEnding string `json:"fiscalDateEnding"`
	ReportedCurrency string `json:"reportedCurrency"`
	TotalRevenue     string `json:"totalRevenue"`
	GrossProfit      string `json:"grossProfit"`
	OperatingIncome  string `json:"operatingIncome"`
	NetIncome        string `json:"netIncome"`
}

func (r rawIncomeReport) toReport() IncomeReport {
	return IncomeReport{
		FiscalDateEnding: r.FiscalDateEnding,
		ReportedCurrency: r.ReportedCurrency,
		TotalRevenue:     parseInt64(r.TotalRevenue),
		GrossProfit:      parseInt64(r.GrossProfit),
		OperatingIncome:  parseInt64(r.OperatingIncome),
		NetIncome:        parseInt64(r.NetIncome),
	}
}

// parseIncomeStatement parses an INCOME_STATEMENT response.
func parseIncomeStatement(body []byte) (*IncomeStatement, error) {
	var resp struct {
		Symbol           string            `json:"symbol"`
		AnnualReports    []rawIncomeReport `json:"annualReports"`
		QuarterlyReports []rawIncomeReport `json:"quarterlyReports"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse income statement: %w", err)
	}
	if resp.Symbol == "" {
		return nil, fmt.Errorf("empty income statement response")
	}

	stmt := &IncomeStatement{Symbol: resp.Symbol}
	for _, r := range resp.AnnualReports {
		stmt.AnnualReports = append(stmt.AnnualReports, r.toReport())
	}
	for _, r := range resp.QuarterlyReports {
		stmt.QuarterlyReports = append(stmt.QuarterlyReports, r.toReport())
	}

	return stmt, nil
}

// parseIndicatorSeries parses a single-valued technical indicator series
// such as "Technical Analysis: RSI".
func parseIndicatorSeries(body []byte, analysisKey, valueKey string) ([]IndicatorValue, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse indicator response: %w", err)
	}

	seriesRaw, ok := raw[analysisKey]
	if !ok {
		return nil, fmt.Errorf("missing %q in indicator response", analysisKey)
	}

	var series map[string]map[string]string
	if err := json.Unmarshal(seriesRaw, &series); err != nil {
		return nil, fmt.Errorf("failed to parse indicator series: %w", err)
	}

	values := make([]IndicatorValue, 0, len(series))
	for date, v := range series {
		values = append(values, IndicatorValue{
			Date:  parseDate(date),
			Value: parseFloat64(v[valueKey]),
		})
	}

	sort.Slice(values, func(i, j int) bool {
		return values[i].Date.After(values[j].Date)
	})

	return values, nil
}

type rawMover struct {
	Ticker           string `json:"ticker"`
	Price            string `json:"price"`
	ChangeAmount     string `json:"change_amount"`
	ChangePercentage string `json:"change_percentage"`
	Volume           string `json:"volume"`
}

func (m rawMover) toMover() Mover {
	return Mover{
		Ticker:        m.Ticker,
		Price:         parseFloat64(m.Price),
		ChangeAmount:  parseFloat64(m.ChangeAmount),
		ChangePercent: parseFloat64(m.ChangePercentage),
		Volume:        parseInt64(m.Volume),
	}
}

// parseMarketMovers parses a TOP_GAINERS_LOSERS response.
func parseMarketMovers(body []byte) (*MarketMovers, error) {
	var resp struct {
		Metadata struct {
			LastUpdated string `json:"last_updated"`
		} `json:"metadata"`
		TopGainers []rawMover `json:"top_gainers"`
		TopLosers  []rawMover `json:"top_losers"`
		MostActive []rawMover `json:"most_actively_traded"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse market movers: %w", err)
	}

	movers := &MarketMovers{LastUpdated: resp.Metadata.LastUpdated}
	for _, m := range resp.TopGainers {
		movers.TopGainers = append(movers.TopGainers, m.toMover())
	}
	for _, m := range resp.TopLosers {
		movers.TopLosers = append(movers.TopLosers, m.toMover())
	}
	for _, m := range resp.MostActive {
		movers.MostActive = append(movers.MostActive, m.toMover())
	}

	return movers, nil
}

// parseRSI parses an RSI response into an RSIData series.
func parseRSI(body []byte, symbol string, period int) (*RSIData, error) {
	values, err := parseIndicatorSeries(body, "Technical Analysis: RSI", "RSI")
	if err != nil {
		return nil, err
	}
	return &RSIData{Symbol: symbol, Period: period, Values: values}, nil
}
