package unusualwhales

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOptionsFlow(t *testing.T) {
	var gotAuth, gotPath, gotTicker string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotTicker = r.URL.Query().Get("ticker_symbol")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[
			{"id":"f-1","ticker":"aapl","option_type":"CALL","strike":"185.00","total_premium":"250000","total_size":500,"sentiment":"Bullish"},
			{"id":"f-2","ticker":"nvda","option_type":"PUT","strike":"110.00","total_premium":"90000","total_size":200,"sentiment":"Bearish"}
		]}`))
	}))
	defer server.Close()

	client := NewClient("uw-test-key", zerolog.Nop())
	client.SetBaseURL(server.URL)

	trades, err := client.GetOptionsFlow(context.Background(), QueryOpts{Symbol: "AAPL", Limit: 50})
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, "Bearer uw-test-key", gotAuth)
	assert.Equal(t, "/api/option-trades/flow-alerts", gotPath)
	assert.Equal(t, "AAPL", gotTicker)

	assert.Equal(t, "AAPL", trades[0].Ticker)
	assert.Equal(t, "call", trades[0].ContractType)
	assert.Equal(t, 185.0, trades[0].Strike)
	assert.Equal(t, "bearish", trades[1].Sentiment)
}

func TestGetDarkPool_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"tracking_id":"dp-1","ticker":"spy","size":200000,"price":"550.10"}]}`))
	}))
	defer server.Close()

	client := NewClient("uw-test-key", zerolog.Nop())
	client.SetBaseURL(server.URL)
	client.policy.Delays = []time.Duration{time.Millisecond}

	trades, err := client.GetDarkPool(context.Background(), QueryOpts{})
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "SPY", trades[0].Ticker)
	assert.Equal(t, int64(200000), trades[0].Volume)
}

func TestGet_ExhaustedRetriesReturnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("uw-test-key", zerolog.Nop())
	client.SetBaseURL(server.URL)
	client.policy.Delays = []time.Duration{time.Millisecond}

	_, err := client.GetInsiderTrades(context.Background(), QueryOpts{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestGetPoliticalTrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/congress/trades", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"pt-1","ticker":"tsla","reporter":"Rep. Smith","chamber":"House","txn_type":"Purchase","amounts":"$1,001 - $15,000"}]}`))
	}))
	defer server.Close()

	client := NewClient("uw-test-key", zerolog.Nop())
	client.SetBaseURL(server.URL)

	trades, err := client.GetPoliticalTrades(context.Background(), QueryOpts{})
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "TSLA", trades[0].Ticker)
	assert.Equal(t, "purchase", trades[0].TransactionType)
}
