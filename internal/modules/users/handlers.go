package users

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Tramona1/AIHedgeFund/internal/server/respond"
)

// Handler serves user preference endpoints.
type Handler struct {
	repo     *Repository
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a user preferences handler.
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		validate: validator.New(),
		log:      log.With().Str("handler", "users").Logger(),
	}
}

// RegisterRoutes mounts the user routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/{userID}/preferences", h.HandleGetPreferences)
		r.Post("/preferences", h.HandleUpsertPreferences)
	})
}

type preferencesRequest struct {
	UserID          string `json:"user_id" validate:"required"`
	Email           string `json:"email" validate:"omitempty,email"`
	DisplayName     string `json:"display_name"`
	RiskTolerance   string `json:"risk_tolerance" validate:"omitempty,oneof=conservative moderate aggressive"`
	PreferencesJSON string `json:"preferences_json"`
}

// HandleGetPreferences returns stored preferences for a user.
func (h *Handler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	prefs, err := h.repo.Get(userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to load preferences")
		respond.Fail(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	if prefs == nil {
		respond.Fail(w, http.StatusNotFound, "no preferences for user")
		return
	}

	respond.OK(w, prefs)
}

// HandleUpsertPreferences creates or replaces a user's preferences.
func (h *Handler) HandleUpsertPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			respond.Fail(w, http.StatusBadRequest,
				"validation failed on field '"+verrs[0].Field()+"' ("+verrs[0].Tag()+")")
			return
		}
		respond.Fail(w, http.StatusBadRequest, "validation failed")
		return
	}

	prefs := &Preferences{
		UserID:          req.UserID,
		Email:           req.Email,
		DisplayName:     req.DisplayName,
		RiskTolerance:   req.RiskTolerance,
		PreferencesJSON: req.PreferencesJSON,
	}
	if err := h.repo.Upsert(prefs); err != nil {
		h.log.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to save preferences")
		respond.Fail(w, http.StatusInternalServerError, "failed to save preferences")
		return
	}

	respond.OK(w, prefs)
}
