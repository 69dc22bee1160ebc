// Package alerts scans stored market data for notable moves and emails the
// users watching the affected symbols.
package alerts

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Tramona1/AIHedgeFund/internal/clients/sendgrid"
	"github.com/Tramona1/AIHedgeFund/internal/events"
	"github.com/Tramona1/AIHedgeFund/internal/modules/marketdata"
)

// DefaultChangeThreshold is the absolute change-percent that qualifies a
// quote as a price alert.
const DefaultChangeThreshold = 5.0

// PriceAlert is one triggered alert for one symbol.
type PriceAlert struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Direction     string  `json:"direction"` // "up" or "down"
}

// CheckResult counts one check's work: alerts evaluated and users emailed.
type CheckResult struct {
	Processed int `json:"processed"`
	Notified  int `json:"notified"`
}

func (r CheckResult) add(other CheckResult) CheckResult {
	return CheckResult{
		Processed: r.Processed + other.Processed,
		Notified:  r.Notified + other.Notified,
	}
}

// QuoteSource provides the quotes that moved past a threshold.
type QuoteSource interface {
	GetSignificantChanges(thresholdPercent float64) ([]marketdata.StockQuote, error)
}

// WatcherSource resolves which users watch a symbol.
type WatcherSource interface {
	GetUsersWatching(symbol string) ([]string, error)
}

// EmailSource resolves a user's notification address. Empty string means
// the user has no address on file.
type EmailSource interface {
	GetEmailForUser(userID string) (string, error)
}

// Checker runs the alert check pipeline.
type Checker struct {
	quotes   QuoteSource
	watchers WatcherSource
	emails   EmailSource
	email    sendgrid.Sender
	bus      *events.Bus
	from     string
	log      zerolog.Logger
}

// NewChecker creates an alert checker. from is the sender address.
func NewChecker(
	quotes QuoteSource,
	watchers WatcherSource,
	emails EmailSource,
	email sendgrid.Sender,
	bus *events.Bus,
	from string,
	log zerolog.Logger,
) *Checker {
	return &Checker{
		quotes:   quotes,
		watchers: watchers,
		emails:   emails,
		email:    email,
		bus:      bus,
		from:     from,
		log:      log.With().Str("service", "alerts").Logger(),
	}
}

// RunAllAlertChecks runs every check in sequence and sums their counts.
// Individual check failures are logged and do not stop later checks.
func (c *Checker) RunAllAlertChecks(ctx context.Context) CheckResult {
	var total CheckResult

	checks := []struct {
		name string
		fn   func(context.Context) (CheckResult, error)
	}{
		{"price_changes", func(ctx context.Context) (CheckResult, error) {
			return c.CheckPriceChanges(ctx, DefaultChangeThreshold)
		}},
		{"price_thresholds", c.CheckPriceThresholds},
		{"volume_surges", c.CheckVolumeSurges},
		{"rsi", c.CheckRSIAlerts},
	}

	for _, check := range checks {
		result, err := check.fn(ctx)
		if err != nil {
			c.log.Error().Err(err).Str("check", check.name).Msg("Alert check failed")
			continue
		}
		total = total.add(result)
	}

	c.log.Info().
		Int("processed", total.Processed).
		Int("notified", total.Notified).
		Msg("Alert checks completed")

	return total
}

// CheckPriceChanges finds symbols whose absolute change percent meets the
// threshold, resolves the users watching them, and sends each affected user
// one email covering all of their triggered symbols.
func (c *Checker) CheckPriceChanges(ctx context.Context, thresholdPercent float64) (CheckResult, error) {
	var result CheckResult

	quotes, err := c.quotes.GetSignificantChanges(thresholdPercent)
	if err != nil {
		return result, fmt.Errorf("failed to load significant changes: %w", err)
	}

	byUser := make(map[string][]PriceAlert)
	for _, q := range quotes {
		alert := PriceAlert{
			Symbol:        q.Symbol,
			Price:         q.Price,
			ChangePercent: q.ChangePercent,
			Direction:     "up",
		}
		if q.ChangePercent < 0 {
			alert.Direction = "down"
		}
		result.Processed++

		users, err := c.watchers.GetUsersWatching(q.Symbol)
		if err != nil {
			c.log.Error().Err(err).Str("symbol", q.Symbol).Msg("Failed to resolve watchers")
			continue
		}
		for _, userID := range users {
			byUser[userID] = append(byUser[userID], alert)
		}

		c.bus.Emit(events.AlertTriggered, "alerts", map[string]interface{}{
			"symbol":         q.Symbol,
			"change_percent": q.ChangePercent,
			"direction":      alert.Direction,
		})
	}

	// Stable send order keeps the logs readable.
	userIDs := make([]string, 0, len(byUser))
	for userID := range byUser {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	for _, userID := range userIDs {
		if err := c.notifyUser(ctx, userID, byUser[userID]); err != nil {
			c.log.Error().Err(err).Str("user_id", userID).Msg("Alert notification failed")
			continue
		}
		result.Notified++
	}

	return result, nil
}

// CheckPriceThresholds checks user-configured absolute price levels. No
// per-user threshold storage exists yet, so it reports no work.
func (c *Checker) CheckPriceThresholds(ctx context.Context) (CheckResult, error) {
	return CheckResult{}, nil
}

// CheckVolumeSurges checks for abnormal volume. No baseline-volume storage
// exists yet, so it reports no work.
func (c *Checker) CheckVolumeSurges(ctx context.Context) (CheckResult, error) {
	return CheckResult{}, nil
}

// CheckRSIAlerts checks for overbought/oversold RSI readings. No per-user
// RSI alert configuration exists yet, so it reports no work.
func (c *Checker) CheckRSIAlerts(ctx context.Context) (CheckResult, error) {
	return CheckResult{}, nil
}

func (c *Checker) notifyUser(ctx context.Context, userID string, alerts []PriceAlert) error {
	email, err := c.emails.GetEmailForUser(userID)
	if err != nil {
		return fmt.Errorf("failed to resolve email for %s: %w", userID, err)
	}
	if email == "" {
		return fmt.Errorf("no email on file for %s", userID)
	}

	msg := sendgrid.Message{
		To:      email,
		From:    c.from,
		Subject: alertSubject(alerts),
		HTML:    renderAlertEmail(alerts),
	}
	return c.email.Send(ctx, msg)
}

func alertSubject(alerts []PriceAlert) string {
	if len(alerts) == 1 {
		return fmt.Sprintf("Price Alert: %s moved %.1f%%", alerts[0].Symbol, alerts[0].ChangePercent)
	}

	symbols := make([]string, 0, len(alerts))
	for _, a := range alerts {
		symbols = append(symbols, a.Symbol)
	}
	return "Price Alerts: " + strings.Join(symbols, ", ")
}
