package portfolio

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Tramona1/AIHedgeFund/internal/server/respond"
)

// Handler serves portfolio HTTP requests.
type Handler struct {
	service  *Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a portfolio handler.
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		log:      log.With().Str("handler", "portfolio").Logger(),
	}
}

// RegisterRoutes mounts all portfolio routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/user/{userID}", h.HandleGetForUser)
		r.Post("/create", h.HandleCreate)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)

		r.Post("/{id}/positions", h.HandleAddPosition)
		r.Put("/{id}/positions/{positionID}", h.HandleUpdatePosition)
		r.Delete("/{id}/positions/{positionID}", h.HandleRemovePosition)

		r.Get("/{id}/transactions", h.HandleGetTransactions)
		r.Post("/{id}/transactions", h.HandleRecordTransaction)

		r.Post("/{id}/update-prices", h.HandleUpdatePrices)
		r.Get("/{id}/performance", h.HandleGetPerformance)
	})
}

type createPortfolioRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	IsDefault   bool   `json:"is_default"`
}

type updatePortfolioRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsDefault   *bool   `json:"is_default"`
}

type addPositionRequest struct {
	Symbol      string  `json:"symbol" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	AverageCost float64 `json:"average_cost" validate:"required,gt=0"`
	Notes       string  `json:"notes"`
}

type updatePositionRequest struct {
	Quantity    *float64 `json:"quantity" validate:"omitempty,gt=0"`
	AverageCost *float64 `json:"average_cost" validate:"omitempty,gt=0"`
	Notes       *string  `json:"notes"`
}

type recordTransactionRequest struct {
	PositionID      string  `json:"position_id"`
	Type            string  `json:"type" validate:"required,oneof=buy sell"`
	Symbol          string  `json:"symbol" validate:"required"`
	Quantity        float64 `json:"quantity" validate:"required,gt=0"`
	Price           float64 `json:"price" validate:"required,gt=0"`
	Fees            float64 `json:"fees" validate:"gte=0"`
	TransactionDate string  `json:"transaction_date"`
}

// portfolioView is a portfolio with its active positions inlined.
type portfolioView struct {
	Portfolio
	Positions []Position `json:"positions"`
}

// HandleGetForUser returns a user's active portfolios with positions.
func (h *Handler) HandleGetForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	portfolios, positions, err := h.service.GetPortfoliosForUser(userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to load portfolios")
		respond.Fail(w, http.StatusInternalServerError, "failed to load portfolios")
		return
	}

	views := make([]portfolioView, 0, len(portfolios))
	for _, p := range portfolios {
		pos := positions[p.ID]
		if pos == nil {
			pos = []Position{}
		}
		views = append(views, portfolioView{Portfolio: p, Positions: pos})
	}

	respond.OK(w, views)
}

// HandleCreate creates a portfolio.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPortfolioRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.CreatePortfolio(req.UserID, CreatePortfolioInput{
		Name:        req.Name,
		Description: req.Description,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		h.log.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to create portfolio")
		respond.Fail(w, http.StatusInternalServerError, "failed to create portfolio")
		return
	}

	respond.Created(w, p)
}

// HandleUpdate applies a partial portfolio update.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updatePortfolioRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.UpdatePortfolio(chi.URLParam(r, "id"), UpdatePortfolioInput{
		Name:        req.Name,
		Description: req.Description,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		h.respondServiceError(w, err, "failed to update portfolio")
		return
	}

	respond.OK(w, p)
}

// HandleDelete soft-deletes a portfolio.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePortfolio(chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err, "failed to delete portfolio")
		return
	}
	respond.Message(w, http.StatusOK, "portfolio deleted")
}

// HandleAddPosition adds a position to a portfolio.
func (h *Handler) HandleAddPosition(w http.ResponseWriter, r *http.Request) {
	var req addPositionRequest
	if !h.decode(w, r, &req) {
		return
	}

	pos, err := h.service.AddPosition(chi.URLParam(r, "id"), AddPositionInput{
		Symbol:      req.Symbol,
		Quantity:    req.Quantity,
		AverageCost: req.AverageCost,
		Notes:       req.Notes,
	})
	if err != nil {
		h.respondServiceError(w, err, "failed to add position")
		return
	}

	respond.Created(w, pos)
}

// HandleUpdatePosition applies a partial position update.
func (h *Handler) HandleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	var req updatePositionRequest
	if !h.decode(w, r, &req) {
		return
	}

	pos, err := h.service.UpdatePosition(chi.URLParam(r, "positionID"), UpdatePositionInput{
		Quantity:    req.Quantity,
		AverageCost: req.AverageCost,
		Notes:       req.Notes,
	})
	if err != nil {
		h.respondServiceError(w, err, "failed to update position")
		return
	}

	respond.OK(w, pos)
}

// HandleRemovePosition soft-deletes a position.
func (h *Handler) HandleRemovePosition(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemovePosition(chi.URLParam(r, "positionID")); err != nil {
		h.respondServiceError(w, err, "failed to remove position")
		return
	}
	respond.Message(w, http.StatusOK, "position removed")
}

// HandleGetTransactions returns a portfolio's ledger, most recent first.
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	txs, err := h.service.GetTransactions(chi.URLParam(r, "id"), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load transactions")
		respond.Fail(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}
	if txs == nil {
		txs = []Transaction{}
	}

	respond.OK(w, txs)
}

// HandleRecordTransaction appends an explicit transaction.
func (h *Handler) HandleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req recordTransactionRequest
	if !h.decode(w, r, &req) {
		return
	}

	tx := &Transaction{
		PortfolioID:     chi.URLParam(r, "id"),
		PositionID:      req.PositionID,
		Type:            req.Type,
		Symbol:          req.Symbol,
		Quantity:        req.Quantity,
		Price:           req.Price,
		Fees:            req.Fees,
		TransactionDate: req.TransactionDate,
	}
	if err := h.service.RecordTransaction(tx); err != nil {
		h.log.Error().Err(err).Msg("Failed to record transaction")
		respond.Fail(w, http.StatusInternalServerError, "failed to record transaction")
		return
	}

	respond.Created(w, tx)
}

// HandleUpdatePrices refreshes prices for every active position.
func (h *Handler) HandleUpdatePrices(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.UpdatePortfolioPrices(id); err != nil {
		h.log.Error().Err(err).Str("portfolio_id", id).Msg("Failed to update prices")
		respond.Fail(w, http.StatusInternalServerError, "failed to update prices")
		return
	}
	respond.Message(w, http.StatusOK, "prices updated")
}

// HandleGetPerformance returns snapshots for the portfolio, ?days=N window.
func (h *Handler) HandleGetPerformance(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}

	snapshots, err := h.service.GetPortfolioPerformanceHistory(chi.URLParam(r, "id"), days)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load performance history")
		respond.Fail(w, http.StatusInternalServerError, "failed to load performance history")
		return
	}
	if snapshots == nil {
		snapshots = []PerformanceSnapshot{}
	}

	respond.OK(w, snapshots)
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

// respondServiceError maps "not found" service errors to 404 and everything
// else to 500.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	if strings.Contains(err.Error(), "not found") {
		respond.Fail(w, http.StatusNotFound, err.Error())
		return
	}
	h.log.Error().Err(err).Msg(fallback)
	respond.Fail(w, http.StatusInternalServerError, fallback)
}
