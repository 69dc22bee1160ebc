package newsletter

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

type fakeSender struct {
	sent    []sendgrid.Message
	failFor string // recipient address that always errors
}

func (f *fakeSender) Send(_ context.Context, msg sendgrid.Message) error {
	if msg.To == f.failFor {
		return fmt.Errorf("smtp rejected %s", msg.To)
	}
	f.sent = append(f.sent, msg)
	return nil
}

func setupNewsletterService(t *testing.T, sender *fakeSender) (*Service, *PrefsRepository) {
	t.Helper()

	repo := setupPrefsRepo(t)
	market := &fakeMarketData{
		quotes: map[string]*marketdata.StockQuote{
			"SPY": {Symbol: "SPY", Price: 580, ChangePercent: 0.5},
		},
	}
	svc := NewService(repo, market, &fakeWatchlists{}, sender,
		events.NewBus(zerolog.Nop()), "digest@example.com", zerolog.Nop())
	return svc, repo
}

func TestGenerateAndSendNewsletters(t *testing.T) {
	sender := &fakeSender{}
	svc, repo := setupNewsletterService(t, sender)

	// Two due subscribers (no prior delivery) and one unsubscribed user.
	require.NoError(t, repo.Upsert(testPrefs("user-1")))
	require.NoError(t, repo.Upsert(testPrefs("user-2")))
	unsubbed := testPrefs("user-3")
	unsubbed.IsSubscribed = false
	require.NoError(t, repo.Upsert(unsubbed))

	result, err := svc.GenerateAndSendNewsletters(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.SentCount)
	assert.Equal(t, 0, result.ErrorCount)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "digest@example.com", sender.sent[0].From)
	assert.Contains(t, sender.sent[0].Subject, "Your Market Digest")
	assert.Contains(t, sender.sent[0].HTML, "SPY")

	// Delivery stamped, so an immediate second run sends nothing.
	got, err := repo.Get("user-1")
	require.NoError(t, err)
	require.NotNil(t, got.LastDeliveryAt)

	result, err = svc.GenerateAndSendNewsletters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.SentCount)
}

func TestGenerateAndSendNewsletters_FailureIsolation(t *testing.T) {
	sender := &fakeSender{failFor: "user-1@example.com"}
	svc, repo := setupNewsletterService(t, sender)

	require.NoError(t, repo.Upsert(testPrefs("user-1")))
	require.NoError(t, repo.Upsert(testPrefs("user-2")))

	result, err := svc.GenerateAndSendNewsletters(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.SentCount)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "user-2@example.com", sender.sent[0].To)

	// Failed delivery must not be stamped; the user stays due.
	got, err := repo.Get("user-1")
	require.NoError(t, err)
	assert.Nil(t, got.LastDeliveryAt)
}

func TestGenerateAndSendNewsletters_NoSubscribers(t *testing.T) {
	sender := &fakeSender{}
	svc, _ := setupNewsletterService(t, sender)

	result, err := svc.GenerateAndSendNewsletters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DeliveryResult{}, result)
	assert.Empty(t, sender.sent)
}
