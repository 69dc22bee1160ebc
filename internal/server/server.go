// Package server provides the HTTP API surface: module routes under /api,
// system endpoints and the dashboard event stream.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Tramona1/AIHedgeFund/internal/database"
	"github.com/Tramona1/AIHedgeFund/internal/events"
	"github.com/Tramona1/AIHedgeFund/internal/modules/financialdata"
	"github.com/Tramona1/AIHedgeFund/internal/modules/marketdata"
	"github.com/Tramona1/AIHedgeFund/internal/modules/newsletter"
	"github.com/Tramona1/AIHedgeFund/internal/modules/portfolio"
	"github.com/Tramona1/AIHedgeFund/internal/modules/triggers"
	"github.com/Tramona1/AIHedgeFund/internal/modules/users"
	"github.com/Tramona1/AIHedgeFund/internal/modules/watchlist"
	"github.com/Tramona1/AIHedgeFund/internal/scheduler"
)

// Config holds everything the server needs to route requests.
type Config struct {
	Log     zerolog.Logger
	Port    int
	DevMode bool

	Databases []*database.DB
	Bus       *events.Bus
	Clock     *scheduler.MarketClock

	CollectionJob *scheduler.CollectionJob

	MarketDataHandler    *marketdata.Handler
	WatchlistHandler     *watchlist.Handler
	UsersHandler         *users.Handler
	PortfolioHandler     *portfolio.Handler
	NewsletterHandler    *newsletter.Handler
	FinancialDataHandler *financialdata.Handler
	TriggersHandler      *triggers.Handler
}

// Server is the HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config

	system *SystemHandlers
	stream *StreamHandler
}

// New creates a new HTTP server with all routes mounted.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
		system: NewSystemHandlers(cfg.Databases, cfg.Clock, cfg.CollectionJob, cfg.Log),
		stream: NewStreamHandler(cfg.Bus, cfg.Log),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.system.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		s.cfg.MarketDataHandler.RegisterRoutes(r)
		s.cfg.WatchlistHandler.RegisterRoutes(r)
		s.cfg.UsersHandler.RegisterRoutes(r)
		s.cfg.PortfolioHandler.RegisterRoutes(r)
		s.cfg.NewsletterHandler.RegisterRoutes(r)
		s.cfg.FinancialDataHandler.RegisterRoutes(r)
		s.cfg.TriggersHandler.RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/stats", s.system.HandleStats)
			r.Get("/market-status", s.system.HandleMarketStatus)
			r.Post("/collect", s.system.HandleForceCollect)
		})

		r.Get("/events/stream", s.stream.HandleStream)
	})
}

// Start begins serving. Blocks until the listener fails or is shut down.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
