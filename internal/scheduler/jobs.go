package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tramona1/AIHedgeFund/internal/events"
	"github.com/Tramona1/AIHedgeFund/internal/modules/alerts"
	"github.com/Tramona1/AIHedgeFund/internal/modules/financialdata"
	"github.com/Tramona1/AIHedgeFund/internal/modules/marketdata"
	"github.com/Tramona1/AIHedgeFund/internal/modules/newsletter"
)

// Cron schedules (seconds field first).
const (
	ScheduleMarketHours = "0 */15 * * * *" // every 15 minutes
	ScheduleCollection  = "0 */10 * * * *" // every 10 minutes
	ScheduleAlerts      = "0 */15 * * * *" // every 15 minutes
	ScheduleNewsletter  = "0 0 * * * *"    // hourly
	ScheduleCleanup     = "0 30 3 * * *"   // daily, off-hours
	ScheduleBackup      = "0 0 4 * * *"    // daily, off-hours
)

const collectionTimeout = 30 * time.Minute

// MarketHoursJob keeps the shared market clock current, logging and
// emitting an event only when the state flips.
type MarketHoursJob struct {
	clock *MarketClock
	bus   *events.Bus
	log   zerolog.Logger
}

// NewMarketHoursJob creates a market-hours tracking job.
func NewMarketHoursJob(clock *MarketClock, bus *events.Bus, log zerolog.Logger) *MarketHoursJob {
	return &MarketHoursJob{
		clock: clock,
		bus:   bus,
		log:   log.With().Str("job", "market_hours").Logger(),
	}
}

// Name implements Job.
func (j *MarketHoursJob) Name() string { return "market-hours" }

// Run implements Job.
func (j *MarketHoursJob) Run() error {
	open, changed := j.clock.Observe(time.Now())
	if !changed {
		return nil
	}

	status := "closed"
	if open {
		status = "open"
	}
	j.log.Info().Str("status", status).Msg("Market status changed")

	j.bus.Emit(events.MarketStatusChanged, "scheduler", map[string]interface{}{
		"open": open,
	})
	return nil
}

// CollectionJob runs a watchlist collection pass plus the market-wide and
// filings feeds when the collection windows allow it.
type CollectionJob struct {
	collector *marketdata.Collector
	feeds     *financialdata.Collector
	log       zerolog.Logger
}

// NewCollectionJob creates a collection job.
func NewCollectionJob(collector *marketdata.Collector, feeds *financialdata.Collector, log zerolog.Logger) *CollectionJob {
	return &CollectionJob{
		collector: collector,
		feeds:     feeds,
		log:       log.With().Str("job", "collection").Logger(),
	}
}

// Name implements Job.
func (j *CollectionJob) Name() string { return "collection" }

// Run implements Job. Outside the collection windows it does nothing.
func (j *CollectionJob) Run() error {
	if !ShouldCollectData(time.Now()) {
		j.log.Debug().Msg("Outside collection window, skipping")
		return nil
	}
	return j.collect()
}

// ForceCollect runs a collection pass regardless of the window. Used by the
// manual trigger endpoint.
func (j *CollectionJob) ForceCollect() error {
	j.log.Info().Msg("Forced collection requested")
	return j.collect()
}

func (j *CollectionJob) collect() error {
	ctx, cancel := context.WithTimeout(context.Background(), collectionTimeout)
	defer cancel()

	results, err := j.collector.CollectDataForWatchlist(ctx)
	if err != nil {
		return err
	}

	j.collector.CollectMarketWideData(ctx)
	j.collectFeeds(ctx)

	j.log.Info().Int("symbols", len(results)).Msg("Collection pass finished")
	return nil
}

// collectFeeds pulls the filings-based feeds. Failures are logged per feed
// and never abort the pass.
func (j *CollectionJob) collectFeeds(ctx context.Context) {
	feeds := []struct {
		name string
		fn   func() (int, error)
	}{
		{"insider_trades", func() (int, error) { return j.feeds.CollectInsiderTrades(ctx) }},
		{"political_trades", func() (int, error) { return j.feeds.CollectPoliticalTrades(ctx) }},
		{"analyst_ratings", func() (int, error) { return j.feeds.CollectAnalystRatings(ctx, "") }},
	}

	for _, feed := range feeds {
		count, err := feed.fn()
		if err != nil {
			j.log.Warn().Err(err).Str("feed", feed.name).Msg("Feed collection failed")
			continue
		}
		j.log.Debug().Str("feed", feed.name).Int("stored", count).Msg("Feed collected")
	}
}

// AlertsJob runs the alert check pipeline.
type AlertsJob struct {
	checker *alerts.Checker
	log     zerolog.Logger
}

// NewAlertsJob creates an alerts job.
func NewAlertsJob(checker *alerts.Checker, log zerolog.Logger) *AlertsJob {
	return &AlertsJob{
		checker: checker,
		log:     log.With().Str("job", "alerts").Logger(),
	}
}

// Name implements Job.
func (j *AlertsJob) Name() string { return "alerts" }

// Run implements Job. Check failures are already handled inside the
// pipeline, so Run itself never errors.
func (j *AlertsJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	j.checker.RunAllAlertChecks(ctx)
	return nil
}

// NewsletterJob runs a newsletter delivery pass. Per-user frequency gating
// happens inside the service, so an hourly schedule is safe.
type NewsletterJob struct {
	service *newsletter.Service
	log     zerolog.Logger
}

// NewNewsletterJob creates a newsletter job.
func NewNewsletterJob(service *newsletter.Service, log zerolog.Logger) *NewsletterJob {
	return &NewsletterJob{
		service: service,
		log:     log.With().Str("job", "newsletter").Logger(),
	}
}

// Name implements Job.
func (j *NewsletterJob) Name() string { return "newsletter" }

// Run implements Job.
func (j *NewsletterJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	_, err := j.service.GenerateAndSendNewsletters(ctx)
	return err
}
