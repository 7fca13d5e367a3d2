package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rasaeel/rasaeel/internal/auth"
	"github.com/rasaeel/rasaeel/internal/llm"
	"github.com/rasaeel/rasaeel/internal/pipeline"
)

// ErrorResponse is the JSON body echo renders for HTTP errors.
type ErrorResponse struct {
	Message string `json:"message"`
}

type SimulateRequest struct {
	CustomerID string `json:"customer_id"`
	Message    string `json:"message"`
}

type SimulateResponse struct {
	Reply      string                `json:"reply"`
	Escalated  bool                  `json:"escalated"`
	Fallback   bool                  `json:"fallback"`
	OrderReady bool                  `json:"order_ready"`
	Order      *llm.OrderEntities    `json:"order,omitempty"`
	Analysis   *llm.ResponseAnalysis `json:"analysis,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// SimulateHandler lets an authenticated merchant preview replies without
// touching customers, orders or stored conversations.
type SimulateHandler struct {
	logger       *slog.Logger
	orchestrator *pipeline.Orchestrator
}

func NewSimulateHandler(log *slog.Logger, orchestrator *pipeline.Orchestrator) *SimulateHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SimulateHandler{
		logger:       log.With(slog.String("handler", "simulate")),
		orchestrator: orchestrator,
	}
}

func (h *SimulateHandler) Register(e *echo.Echo) {
	e.POST("/api/pipeline/simulate", h.Simulate)
}

// Simulate godoc
// @Summary Preview a reply
// @Description Runs context loading and the model for the caller's merchant. Orders are not placed.
// @Tags pipeline
// @Accept json
// @Produce json
// @Param request body SimulateRequest true "Customer message"
// @Success 200 {object} SimulateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/pipeline/simulate [post]
func (h *SimulateHandler) Simulate(c echo.Context) error {
	merchantID, err := auth.MerchantIDFromContext(c)
	if err != nil {
		return err
	}
	var req SimulateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	preview, err := h.orchestrator.Simulate(c.Request().Context(), merchantID, req.CustomerID, req.Message)
	switch {
	case errors.Is(err, pipeline.ErrEmptyMessage):
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	case errors.Is(err, pipeline.ErrUnknownMerchant):
		return echo.NewHTTPError(http.StatusNotFound, "merchant not found")
	case err != nil:
		h.logger.Error("simulate failed", slog.String("merchant_id", merchantID.String()), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := SimulateResponse{
		Reply:     preview.Reply,
		Escalated: preview.Outcome.Escalated,
		Fallback:  preview.Outcome.Fallback,
		Analysis:  preview.Outcome.Analysis(),
	}
	if preview.Outcome.Err != nil {
		resp.Error = preview.Outcome.Err.Error()
	}
	if args := preview.Outcome.Arguments; args != nil {
		_, resp.OrderReady = args.ReadyOrder()
		resp.Order = args.Order
	}
	return c.JSON(http.StatusOK, resp)
}
