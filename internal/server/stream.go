package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/Tramona1/AIHedgeFund/internal/events"
)

// streamBuffer is how many events a slow client may fall behind before the
// connection is dropped.
const streamBuffer = 64

// StreamHandler pushes bus events to dashboard websocket clients.
type StreamHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewStreamHandler creates a websocket event stream handler.
func NewStreamHandler(bus *events.Bus, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		bus: bus,
		log: log.With().Str("handler", "events_stream").Logger(),
	}
}

// HandleStream upgrades the connection and forwards every bus event until
// the client disconnects.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ch := make(chan *events.Event, streamBuffer)
	unsubscribers := make([]func(), 0, len(events.AllTypes))
	for _, eventType := range events.AllTypes {
		unsubscribers = append(unsubscribers, h.bus.Subscribe(eventType, func(e *events.Event) {
			select {
			case ch <- e:
			default:
				// Slow client; drop the event rather than block the emitter.
			}
		}))
	}
	defer func() {
		for _, unsubscribe := range unsubscribers {
			unsubscribe()
		}
	}()

	h.log.Debug().Str("remote", r.RemoteAddr).Msg("Event stream client connected")

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case event := <-ch:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, event)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("Event stream client write failed")
				return
			}
		}
	}
}
