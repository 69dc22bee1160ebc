package newsletter

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tramona1/AIHedgeFund/internal/clients/sendgrid"
	"github.com/Tramona1/AIHedgeFund/internal/events"
)

// Service generates and delivers newsletters.
type Service struct {
	prefs      *PrefsRepository
	market     MarketData
	watchlists WatchlistSource
	email      sendgrid.Sender
	bus        *events.Bus
	from       string
	log        zerolog.Logger
}

// NewService creates a newsletter service. from is the sender address.
func NewService(
	prefs *PrefsRepository,
	market MarketData,
	watchlists WatchlistSource,
	email sendgrid.Sender,
	bus *events.Bus,
	from string,
	log zerolog.Logger,
) *Service {
	return &Service{
		prefs:      prefs,
		market:     market,
		watchlists: watchlists,
		email:      email,
		bus:        bus,
		from:       from,
		log:        log.With().Str("service", "newsletter").Logger(),
	}
}

// GenerateAndSendNewsletters runs one delivery pass over every subscribed
// user. Per-user failures are counted and logged, never propagated; the
// batch always completes.
func (s *Service) GenerateAndSendNewsletters(ctx context.Context) (DeliveryResult, error) {
	var result DeliveryResult

	subscribers, err := s.prefs.GetSubscribed()
	if err != nil {
		return result, fmt.Errorf("failed to load subscribers: %w", err)
	}

	now := time.Now()
	for i := range subscribers {
		prefs := &subscribers[i]
		if !ShouldSendNewsletter(prefs, now) {
			continue
		}

		if err := s.sendToUser(ctx, prefs, now); err != nil {
			result.ErrorCount++
			s.log.Error().Err(err).Str("user_id", prefs.UserID).
				Msg("Newsletter delivery failed")
			continue
		}
		result.SentCount++
	}

	s.log.Info().
		Int("sent", result.SentCount).
		Int("errors", result.ErrorCount).
		Int("subscribers", len(subscribers)).
		Msg("Newsletter run completed")

	s.bus.Emit(events.NewsletterSent, "newsletter", map[string]interface{}{
		"sent":   result.SentCount,
		"errors": result.ErrorCount,
	})

	return result, nil
}

// sendToUser assembles, renders and delivers one digest, then records the
// delivery timestamp.
func (s *Service) sendToUser(ctx context.Context, prefs *Preferences, now time.Time) error {
	content, err := buildContent(s.market, s.watchlists, prefs)
	if err != nil {
		return err
	}

	html, err := renderHTML(content)
	if err != nil {
		return err
	}

	msg := sendgrid.Message{
		To:      prefs.Email,
		From:    s.from,
		Subject: "Your Market Digest — " + now.Format("January 2, 2006"),
		HTML:    html,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send newsletter to %s: %w", prefs.Email, err)
	}

	if err := s.prefs.RecordDelivery(prefs.UserID, now); err != nil {
		return err
	}

	return nil
}
