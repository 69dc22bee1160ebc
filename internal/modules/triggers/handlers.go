package triggers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Tramona1/AIHedgeFund/internal/server/respond"
)

// Handler serves the trigger ingest and lookup endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a trigger handler.
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		log:      log.With().Str("handler", "triggers").Logger(),
	}
}

// RegisterRoutes mounts the trigger routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ai-triggers", func(r chi.Router) {
		r.Post("/", h.HandleIngest)
		r.Get("/{ticker}", h.HandleGetByTicker)
	})
}

type ingestRequest struct {
	Ticker    string `json:"ticker" validate:"required"`
	EventType string `json:"event_type" validate:"required"`
	Details   string `json:"details"`
	Source    string `json:"source"`
}

// HandleIngest accepts a trigger event and processes it synchronously.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			respond.Fail(w, http.StatusBadRequest,
				"validation failed on field '"+verrs[0].Field()+"' ("+verrs[0].Tag()+")")
			return
		}
		respond.Fail(w, http.StatusBadRequest, "validation failed")
		return
	}

	event, err := h.service.ProcessTrigger(r.Context(), Payload{
		Ticker:    req.Ticker,
		EventType: req.EventType,
		Details:   req.Details,
		Source:    req.Source,
	})
	if err != nil {
		h.log.Error().Err(err).Str("ticker", req.Ticker).Msg("Trigger ingest failed")
		respond.Fail(w, http.StatusInternalServerError, "failed to process trigger")
		return
	}

	respond.Created(w, event)
}

// HandleGetByTicker returns a ticker's stored events.
func (h *Handler) HandleGetByTicker(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	events, err := h.service.GetEventsByTicker(ticker, 50)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to load trigger events")
		respond.Fail(w, http.StatusInternalServerError, "failed to load events")
		return
	}

	respond.OK(w, events)
}
