package alerts

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tramona1/AIHedgeFund/internal/clients/sendgrid"
	"github.com/Tramona1/AIHedgeFund/internal/events"
	"github.com/Tramona1/AIHedgeFund/internal/modules/marketdata"
)

type fakeQuoteSource struct {
	quotes []marketdata.StockQuote
}

func (f *fakeQuoteSource) GetSignificantChanges(threshold float64) ([]marketdata.StockQuote, error) {
	var out []marketdata.StockQuote
	for _, q := range f.quotes {
		if q.ChangePercent >= threshold || q.ChangePercent <= -threshold {
			out = append(out, q)
		}
	}
	return out, nil
}

type fakeWatcherSource struct {
	watchers map[string][]string // symbol -> user ids
}

func (f *fakeWatcherSource) GetUsersWatching(symbol string) ([]string, error) {
	return f.watchers[symbol], nil
}

type fakeEmailSource struct {
	emails map[string]string
}

func (f *fakeEmailSource) GetEmailForUser(userID string) (string, error) {
	return f.emails[userID], nil
}

type fakeAlertSender struct {
	sent    []sendgrid.Message
	failAll bool
}

func (f *fakeAlertSender) Send(_ context.Context, msg sendgrid.Message) error {
	if f.failAll {
		return fmt.Errorf("smtp unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestChecker(quotes *fakeQuoteSource, watchers *fakeWatcherSource,
	emails *fakeEmailSource, sender *fakeAlertSender) *Checker {
	return NewChecker(quotes, watchers, emails, sender,
		events.NewBus(zerolog.Nop()), "alerts@example.com", zerolog.Nop())
}

func TestCheckPriceChanges(t *testing.T) {
	quotes := &fakeQuoteSource{quotes: []marketdata.StockQuote{
		{Symbol: "TSLA", Price: 240, ChangePercent: 6.2},
		{Symbol: "NVDA", Price: 150, ChangePercent: -7.1},
		{Symbol: "AAPL", Price: 230, ChangePercent: 3.0}, // below threshold
	}}
	watchers := &fakeWatcherSource{watchers: map[string][]string{
		"TSLA": {"user-1", "user-2"},
		"NVDA": {"user-1"},
	}}
	emails := &fakeEmailSource{emails: map[string]string{
		"user-1": "one@example.com",
		"user-2": "two@example.com",
	}}
	sender := &fakeAlertSender{}

	checker := newTestChecker(quotes, watchers, emails, sender)
	result, err := checker.CheckPriceChanges(context.Background(), DefaultChangeThreshold)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Notified)
	require.Len(t, sender.sent, 2)

	// user-1 gets one email covering both symbols.
	assert.Equal(t, "one@example.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Subject, "TSLA")
	assert.Contains(t, sender.sent[0].Subject, "NVDA")
	assert.Contains(t, sender.sent[0].HTML, "down")

	// user-2 watches only TSLA.
	assert.Equal(t, "two@example.com", sender.sent[1].To)
	assert.Contains(t, sender.sent[1].Subject, "TSLA moved 6.2%")
}

func TestCheckPriceChanges_BelowThresholdExcluded(t *testing.T) {
	quotes := &fakeQuoteSource{quotes: []marketdata.StockQuote{
		{Symbol: "AAPL", Price: 230, ChangePercent: 3.0},
	}}
	sender := &fakeAlertSender{}

	checker := newTestChecker(quotes, &fakeWatcherSource{}, &fakeEmailSource{}, sender)
	result, err := checker.CheckPriceChanges(context.Background(), DefaultChangeThreshold)
	require.NoError(t, err)

	assert.Equal(t, CheckResult{}, result)
	assert.Empty(t, sender.sent)
}

func TestCheckPriceChanges_NoEmailOnFile(t *testing.T) {
	quotes := &fakeQuoteSource{quotes: []marketdata.StockQuote{
		{Symbol: "TSLA", Price: 240, ChangePercent: 8.0},
	}}
	watchers := &fakeWatcherSource{watchers: map[string][]string{
		"TSLA": {"user-1"},
	}}
	sender := &fakeAlertSender{}

	checker := newTestChecker(quotes, watchers, &fakeEmailSource{}, sender)
	result, err := checker.CheckPriceChanges(context.Background(), DefaultChangeThreshold)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Notified)
	assert.Empty(t, sender.sent)
}

func TestRunAllAlertChecks_SumsChecks(t *testing.T) {
	quotes := &fakeQuoteSource{quotes: []marketdata.StockQuote{
		{Symbol: "TSLA", Price: 240, ChangePercent: 6.0},
	}}
	watchers := &fakeWatcherSource{watchers: map[string][]string{
		"TSLA": {"user-1"},
	}}
	emails := &fakeEmailSource{emails: map[string]string{"user-1": "one@example.com"}}
	sender := &fakeAlertSender{}

	checker := newTestChecker(quotes, watchers, emails, sender)
	total := checker.RunAllAlertChecks(context.Background())

	// The three stub checks contribute nothing.
	assert.Equal(t, CheckResult{Processed: 1, Notified: 1}, total)
}

func TestRunAllAlertChecks_SendFailureDoesNotCountNotified(t *testing.T) {
	quotes := &fakeQuoteSource{quotes: []marketdata.StockQuote{
		{Symbol: "TSLA", Price: 240, ChangePercent: 6.0},
	}}
	watchers := &fakeWatcherSource{watchers: map[string][]string{
		"TSLA": {"user-1"},
	}}
	emails := &fakeEmailSource{emails: map[string]string{"user-1": "one@example.com"}}
	sender := &fakeAlertSender{failAll: true}

	checker := newTestChecker(quotes, watchers, emails, sender)
	total := checker.RunAllAlertChecks(context.Background())

	assert.Equal(t, CheckResult{Processed: 1, Notified: 0}, total)
}
