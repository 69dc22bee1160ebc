package financialdata

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Tramona1/AIHedgeFund/internal/server/respond"
)

// Handler serves the research-feed endpoints.
type Handler struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandler creates a financial-data handler.
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "financialdata").Logger(),
	}
}

// RegisterRoutes mounts the financial-data routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/financial-data", func(r chi.Router) {
		r.Get("/insider-trades", h.HandleInsiderTrades)
		r.Get("/political-trades", h.HandlePoliticalTrades)
		r.Get("/hedge-fund-trades", h.HandleHedgeFundTrades)
		r.Get("/financial-news", h.HandleFinancialNews)
		r.Get("/bank-reports", h.HandleBankReports)
		r.Get("/youtube-videos", h.HandleYouTubeVideos)
		r.Get("/analyst-sentiment", h.HandleAnalystSentiment)
	})
}

// parseFilter reads the shared query parameters for a feed listing.
// sourceParam names the feed's domain filter ("source", "fund", "bank",
// "channel"); empty disables it.
func parseFilter(r *http.Request, sourceParam string) ListFilter {
	page, limit := respond.ParsePageParams(r)

	f := ListFilter{
		Page:      page,
		Limit:     limit,
		Ticker:    r.URL.Query().Get("ticker"),
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}
	if sourceParam != "" {
		f.Source = r.URL.Query().Get(sourceParam)
	}
	return f
}

func (h *Handler) respondPage(w http.ResponseWriter, feed string, items interface{}, total int, f ListFilter, err error) {
	if err != nil {
		h.log.Error().Err(err).Str("feed", feed).Msg("Feed query failed")
		respond.Fail(w, http.StatusInternalServerError, "failed to load "+feed)
		return
	}
	respond.Paged(w, items, respond.NewPagination(f.Page, f.limit(), total))
}

// HandleInsiderTrades lists insider transactions.
func (h *Handler) HandleInsiderTrades(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r, "")
	items, total, err := h.repo.ListInsiderTrades(f)
	h.respondPage(w, "insider trades", items, total, f, err)
}

// HandlePoliticalTrades lists congressional disclosures.
func (h *Handler) HandlePoliticalTrades(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r, "")
	items, total, err := h.repo.ListPoliticalTrades(f)
	h.respondPage(w, "political trades", items, total, f, err)
}

// HandleHedgeFundTrades lists 13F position changes, filterable by fund.
func (h *Handler) HandleHedgeFundTrades(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r, "fund")
	items, total, err := h.repo.ListHedgeFundTrades(f)
	h.respondPage(w, "hedge fund trades", items, total, f, err)
}

// HandleFinancialNews lists news, filterable by source and ticker.
func (h *Handler) HandleFinancialNews(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r, "source")
	items, total, err := h.repo.ListNewsArticles(f)
	h.respondPage(w, "financial news", items, total, f, err)
}

// HandleBankReports lists bank research summaries, filterable by bank.
func (h *Handler) HandleBankReports(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r, "bank")
	items, total, err := h.repo.ListBankReports(f)
	h.respondPage(w, "bank reports", items, total, f, err)
}

// HandleYouTubeVideos lists video summaries, filterable by channel.
func (h *Handler) HandleYouTubeVideos(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r, "channel")
	items, total, err := h.repo.ListYouTubeVideos(f)
	h.respondPage(w, "videos", items, total, f, err)
}

// HandleAnalystSentiment returns a symbol's rating actions.
func (h *Handler) HandleAnalystSentiment(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		respond.Fail(w, http.StatusBadRequest, "symbol query parameter is required")
		return
	}

	ratings, err := h.repo.GetAnalystSentiment(symbol, 50)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Analyst sentiment query failed")
		respond.Fail(w, http.StatusInternalServerError, "failed to load analyst sentiment")
		return
	}

	respond.OK(w, ratings)
}
