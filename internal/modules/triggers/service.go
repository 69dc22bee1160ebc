package triggers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Tramona1/AIHedgeFund/internal/clients/sendgrid"
	"github.com/Tramona1/AIHedgeFund/internal/events"
	"github.com/Tramona1/AIHedgeFund/pkg/retry"
)

// Payload is one incoming trigger event.
type Payload struct {
	Ticker    string `json:"ticker"`
	EventType string `json:"event_type"`
	Details   string `json:"details,omitempty"`
	Source    string `json:"source,omitempty"`
}

// Service processes trigger events: persist, notify, mark done.
type Service struct {
	repo     *Repository
	email    sendgrid.Sender
	bus      *events.Bus
	policy   retry.Policy
	from     string
	notifyTo string
	log      zerolog.Logger
}

// NewService creates a trigger service. Notifications go to notifyTo.
func NewService(
	repo *Repository,
	email sendgrid.Sender,
	bus *events.Bus,
	from, notifyTo string,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		email:    email,
		bus:      bus,
		policy:   retry.DefaultPolicy,
		from:     from,
		notifyTo: notifyTo,
		log:      log.With().Str("service", "triggers").Logger(),
	}
}

// ProcessTrigger stores the event as pending, sends the stock-update
// notification with retries, and marks the event completed. When every
// attempt fails the event is marked failed and the last error is returned.
func (s *Service) ProcessTrigger(ctx context.Context, payload Payload) (*StockEvent, error) {
	event := &StockEvent{
		Ticker:    payload.Ticker,
		EventType: payload.EventType,
		Details:   payload.Details,
		Source:    payload.Source,
	}
	if err := s.repo.Insert(event); err != nil {
		return nil, err
	}

	err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		return s.email.Send(ctx, sendgrid.Message{
			To:      s.notifyTo,
			From:    s.from,
			Subject: fmt.Sprintf("Stock Update: %s (%s)", event.Ticker, event.EventType),
			HTML:    renderEventEmail(event),
		})
	})
	if err != nil {
		s.log.Error().Err(err).
			Str("event_id", event.ID).
			Str("ticker", event.Ticker).
			Msg("Trigger processing exhausted retries")
		if markErr := s.repo.UpdateStatus(event.ID, StatusFailed); markErr != nil {
			s.log.Error().Err(markErr).Str("event_id", event.ID).
				Msg("Failed to mark trigger event failed")
		}
		event.Status = StatusFailed
		return event, fmt.Errorf("failed to process trigger for %s: %w", event.Ticker, err)
	}

	if err := s.repo.UpdateStatus(event.ID, StatusCompleted); err != nil {
		return event, err
	}
	event.Status = StatusCompleted

	s.bus.Emit(events.TriggerProcessed, "triggers", map[string]interface{}{
		"event_id":   event.ID,
		"ticker":     event.Ticker,
		"event_type": event.EventType,
	})

	return event, nil
}

// GetEventsByTicker returns a ticker's processed events, newest first.
func (s *Service) GetEventsByTicker(ticker string, limit int) ([]StockEvent, error) {
	return s.repo.GetByTicker(ticker, limit)
}

func renderEventEmail(e *StockEvent) string {
	html := fmt.Sprintf(
		`<h2>Stock Update: %s</h2><p>Event: <strong>%s</strong></p>`,
		e.Ticker, e.EventType)
	if e.Details != "" {
		html += fmt.Sprintf("<p>%s</p>", e.Details)
	}
	if e.Source != "" {
		html += fmt.Sprintf(`<p style="color: #888; font-size: 12px;">Source: %s</p>`, e.Source)
	}
	return html
}
