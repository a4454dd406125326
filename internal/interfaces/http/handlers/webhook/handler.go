package webhook

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vendorflow/internal/application/common/emailevent"
	"vendorflow/internal/application/pipeline"
	"vendorflow/internal/infrastructure/email"
	"vendorflow/internal/shared/biztime"
	"vendorflow/internal/shared/errors"
	"vendorflow/internal/shared/logger"
	"vendorflow/internal/shared/utils"
)

const maxWebhookBody = 1 << 20

// EventHandler consumes parsed email webhooks. Inbound replies go through the
// async path since they call the LLM and send email.
type EventHandler interface {
	HandleEmailWebhook(ctx context.Context, event emailevent.Event) (*pipeline.WebhookResult, error)
	HandleEmailWebhookAsync(ctx context.Context, event emailevent.Event, onError func(error))
}

// Deduplicator claims webhook delivery ids so redeliveries are processed once.
type Deduplicator interface {
	FirstSeen(ctx context.Context, deliveryID string) (bool, error)
	Forget(ctx context.Context, deliveryID string) error
}

type Handler struct {
	events EventHandler
	dedup  Deduplicator
	secret string
	logger logger.Interface
	now    func() time.Time
}

// NewHandler builds the email webhook handler. Signatures are only checked
// when secret is set; dedup may be nil.
func NewHandler(events EventHandler, dedup Deduplicator, secret string, log logger.Interface) *Handler {
	return &Handler{
		events: events,
		dedup:  dedup,
		secret: secret,
		logger: log,
		now:    biztime.NowUTC,
	}
}

// HandleEmail handles POST /webhooks/email
// @Summary Receive email provider webhooks
// @Description Accepts delivery receipts and inbound vendor replies
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Success 202 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /webhooks/email [post]
func (h *Handler) HandleEmail(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warnw("failed to read webhook body", "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("unreadable webhook body"))
		return
	}

	if h.secret != "" {
		if err := email.VerifySignature(h.secret, c.Request.Header, body, h.now()); err != nil {
			h.logger.Warnw("rejected email webhook", "error", err, "client_ip", c.ClientIP())
			utils.ErrorResponseWithError(c, errors.NewUnauthorizedError("invalid webhook signature"))
			return
		}
	}

	deliveryID := email.DeliveryID(c.Request.Header)
	event, err := email.ParseWebhook(deliveryID, body)
	if err != nil {
		h.logger.Warnw("invalid email webhook payload", "webhook_id", deliveryID, "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid webhook payload"))
		return
	}

	ctx := c.Request.Context()
	claimed := false
	if h.dedup != nil && deliveryID != "" {
		first, err := h.dedup.FirstSeen(ctx, deliveryID)
		switch {
		case err != nil:
			h.logger.Warnw("webhook dedup unavailable, processing anyway", "webhook_id", deliveryID, "error", err)
		case !first:
			h.logger.Infow("duplicate email webhook ignored", "webhook_id", deliveryID, "type", event.RawType)
			utils.SuccessResponse(c, http.StatusOK, "duplicate webhook ignored", gin.H{"duplicate": true})
			return
		default:
			claimed = true
		}
	}

	release := func() {
		if !claimed {
			return
		}
		if err := h.dedup.Forget(context.WithoutCancel(ctx), deliveryID); err != nil {
			h.logger.Warnw("failed to release webhook claim", "webhook_id", deliveryID, "error", err)
		}
	}

	if event.Kind == emailevent.KindInbound {
		h.events.HandleEmailWebhookAsync(ctx, event, func(error) { release() })
		utils.AcceptedResponse(c, &pipeline.WebhookResult{Kind: event.Kind, Queued: true}, "inbound email queued")
		return
	}

	result, err := h.events.HandleEmailWebhook(ctx, event)
	if err != nil {
		release()
		h.logger.Errorw("failed to handle email webhook", "webhook_id", deliveryID, "type", event.RawType, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
