package marketdata

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Tramona1/AIHedgeFund/internal/clients/alphavantage"
	"github.com/Tramona1/AIHedgeFund/internal/server/respond"
)

// Handler serves quote and market-mover endpoints.
type Handler struct {
	repo   *Repository
	market alphavantage.ClientInterface
	log    zerolog.Logger
}

// NewHandler creates a market data handler.
func NewHandler(repo *Repository, market alphavantage.ClientInterface, log zerolog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		market: market,
		log:    log.With().Str("handler", "marketdata").Logger(),
	}
}

// RegisterRoutes mounts the market data routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/market-data", func(r chi.Router) {
		r.Get("/quote/{symbol}", h.HandleGetQuote)
		r.Get("/movers", h.HandleGetMovers)
	})
}

// HandleGetQuote returns the stored quote for a symbol, refreshing from the
// vendor when nothing has been collected yet.
func (h *Handler) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if symbol == "" {
		respond.Fail(w, http.StatusBadRequest, "symbol is required")
		return
	}

	quote, err := h.repo.GetQuote(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to load quote")
		respond.Fail(w, http.StatusInternalServerError, "failed to load quote")
		return
	}
	if quote != nil {
		respond.OK(w, quote)
		return
	}

	// Not collected yet: one live fetch before giving up.
	live, err := h.market.GetQuote(r.Context(), symbol)
	if err != nil {
		var notFound alphavantage.ErrSymbolNotFound
		if errors.As(err, &notFound) {
			respond.Fail(w, http.StatusNotFound, "symbol not found: "+symbol)
			return
		}
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("Live quote fetch failed")
		respond.Fail(w, http.StatusBadGateway, "quote vendor unavailable")
		return
	}

	respond.OK(w, StockQuote{
		Symbol:        live.Symbol,
		Price:         live.Price,
		Open:          live.Open,
		High:          live.High,
		Low:           live.Low,
		PreviousClose: live.PreviousClose,
		Volume:        live.Volume,
		Change:        live.Change,
		ChangePercent: live.ChangePercent,
		Source:        "alphavantage",
	})
}

// HandleGetMovers returns the vendor's top gainers, losers and most active
// symbols.
func (h *Handler) HandleGetMovers(w http.ResponseWriter, r *http.Request) {
	movers, err := h.market.GetTopMovers(r.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to fetch top movers")
		respond.Fail(w, http.StatusBadGateway, "movers unavailable")
		return
	}
	respond.OK(w, movers)
}
