package watchlist

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Tramona1/AIHedgeFund/internal/server/respond"
)

// Handler serves watchlist HTTP requests under /market-data/watchlist.
type Handler struct {
	repo     *Repository
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a watchlist handler.
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		validate: validator.New(),
		log:      log.With().Str("handler", "watchlist").Logger(),
	}
}

// RegisterRoutes mounts the watchlist routes under the market-data prefix.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/market-data/watchlist", func(r chi.Router) {
		r.Get("/{userID}", h.HandleGetWatchlist)
		r.Post("/", h.HandleAdd)
		r.Post("/bulk-add", h.HandleBulkAdd)
		r.Delete("/{userID}/{symbol}", h.HandleRemove)
	})
}

type addRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Symbol string `json:"symbol" validate:"required"`
	Notes  string `json:"notes"`
}

type bulkAddRequest struct {
	UserID  string   `json:"user_id" validate:"required"`
	Symbols []string `json:"symbols" validate:"required,min=1,dive,required"`
}

// HandleGetWatchlist returns a user's active watchlist entries.
func (h *Handler) HandleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	entries, err := h.repo.GetForUser(userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to load watchlist")
		respond.Fail(w, http.StatusInternalServerError, "failed to load watchlist")
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	respond.OK(w, entries)
}

// HandleAdd adds one symbol; an already-active symbol is a 409.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.repo.Add(req.UserID, req.Symbol, req.Notes)
	if errors.Is(err, ErrAlreadyActive) {
		respond.Fail(w, http.StatusConflict, "symbol already on watchlist")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("user_id", req.UserID).Str("symbol", req.Symbol).
			Msg("Failed to add watchlist entry")
		respond.Fail(w, http.StatusInternalServerError, "failed to add symbol")
		return
	}

	respond.Created(w, result)
}

// HandleBulkAdd adds multiple symbols, silently skipping already-active ones.
func (h *Handler) HandleBulkAdd(w http.ResponseWriter, r *http.Request) {
	var req bulkAddRequest
	if !h.decode(w, r, &req) {
		return
	}

	added, err := h.repo.BulkAdd(req.UserID, req.Symbols)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", req.UserID).Msg("Bulk add failed")
		respond.Fail(w, http.StatusInternalServerError, "failed to add symbols")
		return
	}
	if added == nil {
		added = []Entry{}
	}

	respond.Created(w, map[string]interface{}{
		"added":     added,
		"requested": len(req.Symbols),
	})
}

// HandleRemove soft-deletes one watchlist entry.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	symbol := chi.URLParam(r, "symbol")

	err := h.repo.Remove(userID, symbol)
	if errors.Is(err, sql.ErrNoRows) {
		respond.Fail(w, http.StatusNotFound, "symbol not on watchlist")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Str("symbol", symbol).
			Msg("Failed to remove watchlist entry")
		respond.Fail(w, http.StatusInternalServerError, "failed to remove symbol")
		return
	}

	respond.Message(w, http.StatusOK, "symbol removed from watchlist")
}

// decode unmarshals and validates a request body, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respond.Fail(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return "validation failed on field '" + verrs[0].Field() + "' (" + verrs[0].Tag() + ")"
	}
	return "validation failed"
}
