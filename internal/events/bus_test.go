package events

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_EmitDeliversToSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var received []*Event
	bus.Subscribe(QuoteUpdated, func(e *Event) {
		received = append(received, e)
	})

	bus.Emit(QuoteUpdated, "marketdata", map[string]interface{}{"symbol": "AAPL"})

	require.Len(t, received, 1)
	assert.Equal(t, QuoteUpdated, received[0].Type)
	assert.Equal(t, "marketdata", received[0].Module)
	assert.Equal(t, "AAPL", received[0].Data["symbol"])
	assert.False(t, received[0].Timestamp.IsZero())
}

func TestBus_EmitIgnoresUnsubscribedTypes(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	called := 0
	bus.Subscribe(CollectionCompleted, func(e *Event) { called++ })

	bus.Emit(QuoteUpdated, "marketdata", nil)
	assert.Equal(t, 0, called)
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	first, second := 0, 0
	bus.Subscribe(AlertTriggered, func(e *Event) { first++ })
	bus.Subscribe(AlertTriggered, func(e *Event) { second++ })

	bus.Emit(AlertTriggered, "alerts", nil)
	bus.Emit(AlertTriggered, "alerts", nil)

	assert.Equal(t, 2, first)
	assert.Equal(t, 2, second)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	called := 0
	unsubscribe := bus.Subscribe(QuoteUpdated, func(e *Event) { called++ })

	bus.Emit(QuoteUpdated, "marketdata", nil)
	unsubscribe()
	bus.Emit(QuoteUpdated, "marketdata", nil)

	assert.Equal(t, 1, called)
}

func TestBus_PanickingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	called := false
	bus.Subscribe(QuoteUpdated, func(e *Event) { panic("boom") })
	bus.Subscribe(QuoteUpdated, func(e *Event) { called = true })

	bus.Emit(QuoteUpdated, "marketdata", nil)
	assert.True(t, called)
}

func TestBus_EmitError(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var received *Event
	bus.Subscribe(ErrorOccurred, func(e *Event) { received = e })

	bus.EmitError("collection", errors.New("vendor down"), map[string]interface{}{"symbol": "TSLA"})

	require.NotNil(t, received)
	assert.Equal(t, "vendor down", received.Data["error"])
}
