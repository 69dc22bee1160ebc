package portfolio

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/Tramona1/AIHedgeFund/internal/modules/marketdata"
)

const appTestSchema = `
CREATE TABLE portfolios (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	is_default INTEGER NOT NULL DEFAULT 0,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE positions (
	id TEXT PRIMARY KEY,
	portfolio_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	quantity REAL NOT NULL,
	average_cost REAL NOT NULL,
	current_price REAL NOT NULL,
	current_value REAL NOT NULL,
	cost_basis REAL NOT NULL,
	unrealized_gain REAL NOT NULL,
	unrealized_gain_percent REAL NOT NULL,
	notes TEXT,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

const ledgerTestSchema = `
CREATE TABLE transactions (
	id TEXT PRIMARY KEY,
	portfolio_id TEXT NOT NULL,
	position_id TEXT,
	type TEXT NOT NULL CHECK (type IN ('buy', 'sell')),
	symbol TEXT NOT NULL,
	quantity REAL NOT NULL,
	price REAL NOT NULL,
	total_value REAL NOT NULL,
	fees REAL NOT NULL DEFAULT 0,
	transaction_date TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE performance_snapshots (
	id TEXT PRIMARY KEY,
	portfolio_id TEXT NOT NULL,
	date TEXT NOT NULL,
	total_value REAL NOT NULL,
	cost_basis REAL NOT NULL,
	day_change REAL NOT NULL,
	day_change_percent REAL NOT NULL,
	total_gain REAL NOT NULL,
	total_gain_percent REAL NOT NULL,
	position_count INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
`

// fakeQuotes serves canned prices keyed by symbol.
type fakeQuotes struct {
	prices map[string]float64
}

func (f *fakeQuotes) GetQuote(symbol string) (*marketdata.StockQuote, error) {
	price, ok := f.prices[symbol]
	if !ok {
		return nil, nil
	}
	return &marketdata.StockQuote{Symbol: symbol, Price: price}, nil
}

func setupService(t *testing.T, quotes *fakeQuotes) (*Service, *LedgerRepository) {
	t.Helper()

	appDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { appDB.Close() })
	_, err = appDB.Exec(appTestSchema)
	require.NoError(t, err)

	ledgerDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { ledgerDB.Close() })
	_, err = ledgerDB.Exec(ledgerTestSchema)
	require.NoError(t, err)

	if quotes == nil {
		quotes = &fakeQuotes{prices: map[string]float64{}}
	}

	log := zerolog.Nop()
	ledger := NewLedgerRepository(ledgerDB, log)
	svc := NewService(
		NewPortfolioRepository(appDB, log),
		NewPositionRepository(appDB, log),
		ledger,
		quotes,
		log,
	)
	return svc, ledger
}

func TestCreatePortfolio_FirstIsDefault(t *testing.T) {
	svc, _ := setupService(t, nil)

	p, err := svc.CreatePortfolio("user-1", CreatePortfolioInput{Name: "Main"})
	require.NoError(t, err)
	assert.True(t, p.IsDefault)
}

func TestCreatePortfolio_NewDefaultUnsetsOld(t *testing.T) {
	svc, _ := setupService(t, nil)

	first, err := svc.CreatePortfolio("user-1", CreatePortfolioInput{Name: "Main"})
	require.NoError(t, err)

	second, err := svc.CreatePortfolio("user-1", CreatePortfolioInput{Name: "Growth", IsDefault: true})
	require.NoError(t, err)
	assert.True(t, second.IsDefault)

	portfolios, _, err := svc.GetPortfoliosForUser("user-1")
	require.NoError(t, err)
	require.Len(t, portfolios, 2)

	defaults := 0
	for _, p := range portfolios {
		if p.IsDefault {
			defaults++
			assert.Equal(t, second.ID, p.ID)
		}
		if p.ID == first.ID {
			assert.False(t, p.IsDefault)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestDeletePortfolio_PromotesNewDefault(t *testing.T) {
	svc, _ := setupService(t, nil)

	first, err := svc.CreatePortfolio("user-1", CreatePortfolioInput{Name: "Main"})
	require.NoError(t, err)
	second, err := svc.CreatePortfolio("user-1", CreatePortfolioInput{Name: "Growth"})
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	require.NoError(t, svc.DeletePortfolio(first.ID))

	portfolios, _, err := svc.GetPortfoliosForUser("user-1")
	require.NoError(t, err)
	require.Len(t, portfolios, 1)
	assert.Equal(t, second.ID, portfolios[0].ID)
	assert.True(t, portfolios[0].IsDefault)
}

func TestAddPosition_ValuationAndSyntheticBuy(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 200}}
	svc, ledger := setupService(t, quotes)

	p, err := svc.CreatePortfolio("user-1", CreatePortfolioInput{Name: "Main"})
	require.NoError(t, err)

	pos, err := svc.AddPosition(p.ID, AddPositionInput{Symbol: "aapl", Quantity: 10, AverageCost: 150})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", pos.Symbol)
	assert.Equal(t, 200.0, pos.CurrentPrice)
	assert.Equal(t, 2000.0, pos.CurrentValue)
	assert.Equal(t, 1500.0, pos.CostBasis)
	assert.Equal(t, 500.0, pos.UnrealizedGain)
	assert.InDelta(t, 33.33, pos.UnrealizedGainPercent, 0.01)

	// Synthetic buy at the average cost.
	txs, err := ledger.GetTransactions(p.ID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "buy", txs[0].Type)
	assert.Equal(t, 150.0, txs[0].Price)
	assert.Equal(t, 1500.0, txs[0].TotalValue)

	// Performance snapshot appended.
	today := time.Now().Format("2006-01-02")
	snap, err := ledger.GetSnapshotForDate(p.ID, today)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 2000.0, snap.TotalValue)
	assert.Equal(t, 1, snap.PositionCount)
}

func TestAddPosition_PriceFallsBackToAverageCost(t *testing.T) {
	svc, _ := setupService(t, nil)

	p, err := svc.CreatePortfolio("user-1", CreatePortfolioInput{Name: "Main"})
	require.NoError(t, err)

	pos, err := svc.AddPosition(p.ID, AddPositionInput{Symbol: "ZZZZ", Quantity: 5, AverageCost: 40})
	require.NoError(t, err)

	assert.Equal(t, 40.0, pos.CurrentPrice)
	assert.Equal(t, 200.0, pos.CurrentValue)
	assert.Equal(t, 0.0, pos.UnrealizedGain)
	assert.Equal(t, 0.0, pos.UnrealizedGainPercent)
}

func TestRemovePosition_SyntheticSell(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 210}}
	svc, ledger := setupService(t, quotes)

	p, err := svc.CreatePortfolio("user-1", CreatePortfolioInput{Name: "Main"})
	require.NoError(t, err)
	pos, err := svc.AddPosition(p.ID, AddPositionInput{Symbol: "AAPL", Quantity: 10, AverageCost: 150})
	require.NoError(t, err)

	require.NoError(t, svc.RemovePosition(pos.ID))

	txs, err := ledger.GetTransactions(p.ID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	var sell *Transaction
	for i := range txs {
		if txs[i].Type == "sell" {
			sell = &txs[i]
		}
	}
	require.NotNil(t, sell)
	assert.Equal(t, 210.0, sell.Price)
	assert.Equal(t, 2100.0, sell.TotalValue)

	// Removed position no longer counts toward the portfolio.
	_, positions, err := svc.GetPortfoliosForUser("user-1")
	require.NoError(t, err)
	assert.Empty(t, positions[p.ID])
}

func TestUpdatePortfolioPrices(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 150}}
	svc, _ := setupService(t, quotes)

	p, err := svc.CreatePortfolio("user-1", CreatePortfolioInput{Name: "Main"})
	require.NoError(t, err)
	pos, err := svc.AddPosition(p.ID, AddPositionInput{Symbol: "AAPL", Quantity: 10, AverageCost: 150})
	require.NoError(t, err)
	assert.Equal(t, 150.0, pos.CurrentPrice)

	quotes.prices["AAPL"] = 180
	require.NoError(t, svc.UpdatePortfolioPrices(p.ID))

	_, positions, err := svc.GetPortfoliosForUser("user-1")
	require.NoError(t, err)
	require.Len(t, positions[p.ID], 1)

	updated := positions[p.ID][0]
	assert.Equal(t, 180.0, updated.CurrentPrice)
	assert.Equal(t, 1800.0, updated.CurrentValue)
	assert.Equal(t, 300.0, updated.UnrealizedGain)
}

func TestUpdatePortfolioPerformance_DayChange(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 200}}
	svc, ledger := setupService(t, quotes)

	p, err := svc.CreatePortfolio("user-1", CreatePortfolioInput{Name: "Main"})
	require.NoError(t, err)
	_, err = svc.AddPosition(p.ID, AddPositionInput{Symbol: "AAPL", Quantity: 10, AverageCost: 150})
	require.NoError(t, err)

	// Seed an exact-yesterday snapshot to diff against.
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	require.NoError(t, ledger.AppendSnapshot(&PerformanceSnapshot{
		PortfolioID: p.ID,
		Date:        yesterday,
		TotalValue:  1900,
		CostBasis:   1500,
	}))

	require.NoError(t, svc.UpdatePortfolioPerformance(p.ID))

	today := time.Now().Format("2006-01-02")
	snap, err := ledger.GetSnapshotForDate(p.ID, today)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 2000.0, snap.TotalValue)
	assert.Equal(t, 100.0, snap.DayChange)
	assert.InDelta(t, 5.26, snap.DayChangePercent, 0.01)
	assert.Equal(t, 500.0, snap.TotalGain)
}

func TestUpdatePortfolioPerformance_NoPriorSnapshot(t *testing.T) {
	svc, ledger := setupService(t, nil)

	p, err := svc.CreatePortfolio("user-1", CreatePortfolioInput{Name: "Main"})
	require.NoError(t, err)

	require.NoError(t, svc.UpdatePortfolioPerformance(p.ID))

	today := time.Now().Format("2006-01-02")
	snap, err := ledger.GetSnapshotForDate(p.ID, today)
	require.NoError(t, err)
	require.NotNil(t, snap)

	// No positions, no prior day: everything zero, no division by zero.
	assert.Equal(t, 0.0, snap.TotalValue)
	assert.Equal(t, 0.0, snap.DayChange)
	assert.Equal(t, 0.0, snap.DayChangePercent)
	assert.Equal(t, 0.0, snap.TotalGainPercent)
	assert.Equal(t, 0, snap.PositionCount)
}

func TestGetPortfolioPerformanceHistory(t *testing.T) {
	svc, ledger := setupService(t, nil)

	p, err := svc.CreatePortfolio("user-1", CreatePortfolioInput{Name: "Main"})
	require.NoError(t, err)

	for _, daysAgo := range []int{45, 10, 2} {
		require.NoError(t, ledger.AppendSnapshot(&PerformanceSnapshot{
			PortfolioID: p.ID,
			Date:        time.Now().AddDate(0, 0, -daysAgo).Format("2006-01-02"),
			TotalValue:  float64(1000 + daysAgo),
		}))
	}

	history, err := svc.GetPortfolioPerformanceHistory(p.ID, 30)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Most recent first.
	assert.Equal(t, 1002.0, history[0].TotalValue)
	assert.Equal(t, 1010.0, history[1].TotalValue)
}

func TestRecordTransaction_InvalidType(t *testing.T) {
	svc, _ := setupService(t, nil)

	err := svc.RecordTransaction(&Transaction{Type: "short", Symbol: "AAPL", Quantity: 1, Price: 10})
	assert.Error(t, err)
}
