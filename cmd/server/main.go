// Package main is the entry point for the AIHedgeFund market intelligence
// backend. It wires the vendor clients, the four sqlite databases, the
// collection and delivery jobs, and the HTTP API, then runs until a
// shutdown signal arrives.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Tramona1/AIHedgeFund/internal/clientdata"
	"github.com/Tramona1/AIHedgeFund/internal/clients/alphavantage"
	"github.com/Tramona1/AIHedgeFund/internal/clients/sendgrid"
	"github.com/Tramona1/AIHedgeFund/internal/clients/unusualwhales"
	"github.com/Tramona1/AIHedgeFund/internal/config"
	"github.com/Tramona1/AIHedgeFund/internal/database"
	"github.com/Tramona1/AIHedgeFund/internal/events"
	"github.com/Tramona1/AIHedgeFund/internal/modules/alerts"
	"github.com/Tramona1/AIHedgeFund/internal/modules/financialdata"
	"github.com/Tramona1/AIHedgeFund/internal/modules/marketdata"
	"github.com/Tramona1/AIHedgeFund/internal/modules/newsletter"
	"github.com/Tramona1/AIHedgeFund/internal/modules/portfolio"
	"github.com/Tramona1/AIHedgeFund/internal/modules/triggers"
	"github.com/Tramona1/AIHedgeFund/internal/modules/users"
	"github.com/Tramona1/AIHedgeFund/internal/modules/watchlist"
	"github.com/Tramona1/AIHedgeFund/internal/reliability"
	"github.com/Tramona1/AIHedgeFund/internal/scheduler"
	"github.com/Tramona1/AIHedgeFund/internal/server"
	"github.com/Tramona1/AIHedgeFund/pkg/logger"
	"github.com/Tramona1/AIHedgeFund/pkg/pacer"
)

// collectionPace is the delay between vendor calls during a collection pass.
const collectionPace = 1200 * time.Millisecond

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("env", cfg.AppEnv).Msg("Starting AIHedgeFund")

	// Databases. market.db holds collected vendor data, app.db holds user
	// state, ledger.db the immutable transaction history, cache.db the
	// persisted vendor responses.
	marketDB, err := openDatabase(cfg.DataDir, "market", database.ProfileStandard)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open market database")
	}
	defer marketDB.Close()

	appDB, err := openDatabase(cfg.DataDir, "app", database.ProfileStandard)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open app database")
	}
	defer appDB.Close()

	ledgerDB, err := openDatabase(cfg.DataDir, "ledger", database.ProfileLedger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	cacheDB, err := openDatabase(cfg.DataDir, "cache", database.ProfileCache)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	databases := []*database.DB{marketDB, appDB, ledgerDB, cacheDB}

	// Vendor clients. The persistent cache keeps responses across restarts
	// so the Alpha Vantage daily budget is not burned on every boot.
	cacheRepo := clientdata.NewRepository(cacheDB.Conn())

	marketClient := alphavantage.NewClient(cfg.AlphaVantageAPIKey, log)
	marketClient.SetPersistentCache(cacheRepo)

	flowClient := unusualwhales.NewClient(cfg.UnusualWhalesAPIKey, log)
	flowClient.SetPersistentCache(cacheRepo)

	emailClient := sendgrid.NewClient(cfg.SendGridAPIKey, cfg.IsProduction(), log)

	bus := events.NewBus(log)

	// Repositories and services.
	marketRepo := marketdata.NewRepository(marketDB.Conn(), log)
	watchlistRepo := watchlist.NewRepository(appDB.Conn(), log)
	usersRepo := users.NewRepository(appDB.Conn(), log)
	prefsRepo := newsletter.NewPrefsRepository(appDB.Conn(), log)
	triggersRepo := triggers.NewRepository(appDB.Conn(), log)
	feedsRepo := financialdata.NewRepository(marketDB.Conn(), log)

	portfolioService := portfolio.NewService(
		portfolio.NewPortfolioRepository(appDB.Conn(), log),
		portfolio.NewPositionRepository(appDB.Conn(), log),
		portfolio.NewLedgerRepository(ledgerDB.Conn(), log),
		marketRepo,
		log,
	)

	symbols := marketdata.WithTracked(watchlistRepo, cfg.TrackedTickers)
	collector := marketdata.NewCollector(
		marketClient,
		flowClient,
		marketRepo,
		symbols,
		pacer.NewFixedDelay(collectionPace),
		bus,
		log,
	)
	feedsCollector := financialdata.NewCollector(feedsRepo, flowClient, log)

	newsletterService := newsletter.NewService(
		prefsRepo, marketRepo, watchlistRepo, emailClient, bus, cfg.NewsletterFrom, log)

	alertChecker := alerts.NewChecker(
		marketRepo, watchlistRepo, usersRepo, emailClient, bus, cfg.AlertsFrom, log)

	triggersService := triggers.NewService(
		triggersRepo, emailClient, bus, cfg.AlertsFrom, cfg.TriggerNotify, log)

	// Background jobs.
	clock := scheduler.NewMarketClock()
	sched := scheduler.New(log)

	marketHoursJob := scheduler.NewMarketHoursJob(clock, bus, log)
	collectionJob := scheduler.NewCollectionJob(collector, feedsCollector, log)
	alertsJob := scheduler.NewAlertsJob(alertChecker, log)

	jobs := []struct {
		schedule string
		job      scheduler.Job
	}{
		{scheduler.ScheduleMarketHours, marketHoursJob},
		{scheduler.ScheduleCollection, collectionJob},
		{scheduler.ScheduleAlerts, alertsJob},
		{scheduler.ScheduleNewsletter, scheduler.NewNewsletterJob(newsletterService, log)},
		{scheduler.ScheduleCleanup, clientdata.NewCleanupJob(cacheRepo, log)},
	}

	if cfg.Backup != nil && cfg.Backup.Enabled {
		store, err := reliability.NewS3Store(
			context.Background(),
			cfg.Backup.Endpoint,
			cfg.Backup.Region,
			cfg.Backup.AccessKeyID,
			cfg.Backup.SecretKey,
			cfg.Backup.Bucket,
			log,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize backup storage")
		}
		backupService := reliability.NewBackupService(
			store, databases, cfg.DataDir, cfg.Backup.RetentionDays, log)
		jobs = append(jobs, struct {
			schedule string
			job      scheduler.Job
		}{scheduler.ScheduleBackup, reliability.NewBackupJob(backupService, log)})
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Nightly backups enabled")
	}

	for _, j := range jobs {
		if err := sched.AddJob(j.schedule, j.job); err != nil {
			log.Fatal().Err(err).Str("job", j.job.Name()).Msg("Failed to schedule job")
		}
	}

	sched.Start()
	defer sched.Stop()

	// Prime the recurring jobs so the clock, collected data, and alerts are
	// current right after boot instead of waiting for the first tick. A
	// collection pass is paced and can take minutes, so this must not block
	// server startup.
	go func() {
		sched.RunNow(marketHoursJob)
		sched.RunNow(collectionJob)
		sched.RunNow(alertsJob)
	}()

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Databases: databases,
		Bus:       bus,
		Clock:     clock,

		CollectionJob: collectionJob,

		MarketDataHandler:    marketdata.NewHandler(marketRepo, marketClient, log),
		WatchlistHandler:     watchlist.NewHandler(watchlistRepo, log),
		UsersHandler:         users.NewHandler(usersRepo, log),
		PortfolioHandler:     portfolio.NewHandler(portfolioService, log),
		NewsletterHandler:    newsletter.NewHandler(prefsRepo, log),
		FinancialDataHandler: financialdata.NewHandler(feedsRepo, log),
		TriggersHandler:      triggers.NewHandler(triggersService, log),
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}

// openDatabase opens one of the named databases under the data directory
// and applies its schema.
func openDatabase(dataDir, name string, profile database.Profile) (*database.DB, error) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(dataDir, name+".db"),
		Profile: profile,
		Name:    name,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
