package newsletter

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

// Handler serves newsletter preference endpoints.
type Handler struct {
	repo     *PrefsRepository
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a newsletter handler.
func NewHandler(repo *PrefsRepository, log zerolog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		validate: validator.New(),
		log:      log.With().Str("handler", "newsletter").Logger(),
	}
}

// RegisterRoutes mounts the newsletter routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/newsletter", func(r chi.Router) {
		r.Get("/preferences/{userID}", h.HandleGetPreferences)
		r.Post("/preferences", h.HandleUpsertPreferences)
		r.Post("/subscribe", h.HandleSubscribe)
		r.Post("/unsubscribe", h.HandleUnsubscribe)
	})
}

type preferencesRequest struct {
	UserID                      string `json:"user_id" validate:"required"`
	Email                       string `json:"email" validate:"required,email"`
	IsSubscribed                bool   `json:"is_subscribed"`
	Frequency                   string `json:"frequency" validate:"omitempty,oneof=daily twice-weekly weekly bi-weekly monthly"`
	PreferredDay                int    `json:"preferred_day" validate:"gte=0,lte=6"`
	InterestedInOptions         bool   `json:"interested_in_options"`
	InterestedInDarkPool        bool   `json:"interested_in_dark_pool"`
	InterestedInInsiders        bool   `json:"interested_in_insiders"`
	InterestedInRecommendations bool   `json:"interested_in_recommendations"`
}

type subscribeRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Email  string `json:"email" validate:"omitempty,email"`
}

// HandleGetPreferences returns one user's newsletter preferences.
func (h *Handler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	prefs, err := h.repo.Get(userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to load preferences")
		respond.Fail(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	if prefs == nil {
		respond.Fail(w, http.StatusNotFound, "no newsletter preferences for user")
		return
	}

	respond.OK(w, prefs)
}

// HandleUpsertPreferences creates or replaces newsletter preferences.
func (h *Handler) HandleUpsertPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.Frequency == "" {
		req.Frequency = FrequencyWeekly
	}

	prefs := &Preferences{
		UserID:                      req.UserID,
		Email:                       req.Email,
		IsSubscribed:                req.IsSubscribed,
		Frequency:                   req.Frequency,
		PreferredDay:                req.PreferredDay,
		InterestedInOptions:         req.InterestedInOptions,
		InterestedInDarkPool:        req.InterestedInDarkPool,
		InterestedInInsiders:        req.InterestedInInsiders,
		InterestedInRecommendations: req.InterestedInRecommendations,
	}
	if err := h.repo.Upsert(prefs); err != nil {
		h.log.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to save preferences")
		respond.Fail(w, http.StatusInternalServerError, "failed to save preferences")
		return
	}

	respond.OK(w, prefs)
}

// HandleSubscribe turns the subscription on for a user.
func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.repo.SetSubscribed(req.UserID, req.Email, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respond.Fail(w, http.StatusNotFound, "no newsletter preferences for user; include email to subscribe")
			return
		}
		h.log.Error().Err(err).Str("user_id", req.UserID).Msg("Subscribe failed")
		respond.Fail(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}

	respond.Message(w, http.StatusOK, "subscribed")
}

// HandleUnsubscribe turns the subscription off for a user.
func (h *Handler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.repo.SetSubscribed(req.UserID, "", false); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respond.Fail(w, http.StatusNotFound, "no newsletter preferences for user")
			return
		}
		h.log.Error().Err(err).Str("user_id", req.UserID).Msg("Unsubscribe failed")
		respond.Fail(w, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}

	respond.Message(w, http.StatusOK, "unsubscribed")
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			respond.Fail(w, http.StatusBadRequest,
				"validation failed on field '"+verrs[0].Field()+"' ("+verrs[0].Tag()+")")
			return false
		}
		respond.Fail(w, http.StatusBadRequest, "validation failed")
		return false
	}
	return true
}
