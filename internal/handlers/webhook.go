package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rasaeel/rasaeel/internal/config"
	"github.com/rasaeel/rasaeel/internal/instagram"
	"github.com/rasaeel/rasaeel/internal/pipeline"
)

const maxWebhookBody = 1 << 20

// WebhookResponse is returned for every accepted delivery.
type WebhookResponse struct {
	Status string `json:"status"`
}

// InstagramWebhookHandler terminates Meta's Instagram messaging webhook.
type InstagramWebhookHandler struct {
	logger       *slog.Logger
	orchestrator *pipeline.Orchestrator
	appSecret    string
	verifyToken  string
	enforce      bool
}

func NewInstagramWebhookHandler(log *slog.Logger, cfg config.Config, orchestrator *pipeline.Orchestrator) *InstagramWebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &InstagramWebhookHandler{
		logger:       log.With(slog.String("handler", "instagram_webhook")),
		orchestrator: orchestrator,
		appSecret:    cfg.Meta.AppSecret,
		verifyToken:  cfg.Meta.WebhookVerifyToken,
		enforce:      cfg.IsProduction(),
	}
}

func (h *InstagramWebhookHandler) Register(e *echo.Echo) {
	e.GET("/webhooks/instagram", h.Verify)
	e.POST("/webhooks/instagram", h.Receive)
}

// Verify godoc
// @Summary Webhook subscription challenge
// @Tags webhooks
// @Produce plain
// @Param hub.mode query string true "subscribe"
// @Param hub.verify_token query string true "Shared verify token"
// @Param hub.challenge query string true "Challenge to echo"
// @Success 200 {string} string
// @Failure 403 {object} ErrorResponse
// @Router /webhooks/instagram [get]
func (h *InstagramWebhookHandler) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")
	if mode != "subscribe" || h.verifyToken == "" || token != h.verifyToken {
		h.logger.Warn("webhook verification rejected", slog.String("mode", mode))
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return c.String(http.StatusOK, challenge)
}

// Receive godoc
// @Summary Instagram messaging events
// @Tags webhooks
// @Accept json
// @Produce json
// @Param X-Hub-Signature-256 header string true "sha256=<hex>"
// @Success 200 {object} WebhookResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /webhooks/instagram [post]
func (h *InstagramWebhookHandler) Receive(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	if len(body) > maxWebhookBody {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "body too large")
	}

	if err := instagram.VerifySignature(h.appSecret, body, c.Request().Header.Get(instagram.SignatureHeader)); err != nil {
		if h.enforce {
			h.logger.Warn("webhook signature rejected", slog.String("remote_ip", c.RealIP()))
			return echo.NewHTTPError(http.StatusForbidden, "forbidden")
		}
		h.logger.Warn("webhook signature mismatch ignored outside production", slog.Any("error", err))
	}

	var envelope instagram.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.logger.Warn("webhook body is not json", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusBadRequest, pipeline.ErrInvalidJSON.Error())
	}

	ctx := c.Request().Context()
	for _, entry := range envelope.Entry {
		for _, event := range entry.Messaging {
			res, err := h.orchestrator.HandleEvent(ctx, entry.ID, event)
			if err != nil {
				level := slog.LevelError
				if errors.Is(err, pipeline.ErrUnknownMerchant) {
					level = slog.LevelWarn
				}
				h.logger.Log(ctx, level, "event processing failed",
					slog.String("page_id", entry.ID),
					slog.String("customer_id", event.Sender.ID),
					slog.Any("error", err),
				)
				continue
			}
			if res.Skipped != "" {
				h.logger.Debug("event skipped", slog.String("page_id", entry.ID), slog.String("reason", res.Skipped))
			}
		}
	}
	return c.JSON(http.StatusOK, WebhookResponse{Status: "received"})
}
