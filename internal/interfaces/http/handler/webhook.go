package handler

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/interfaces/http/dto"
)

// SignatureHeader carries the hex-encoded HMAC of the raw request body.
const SignatureHeader = "X-Webhook-Signature"

// WebhookProcessor handles one inbound webhook delivery
type WebhookProcessor interface {
	HandleDelivery(ctx context.Context, marketplace integration.MarketplaceCode, signature string, body []byte) (*integration.WebhookEvent, error)
}

// WebhookHandler receives marketplace webhook deliveries
type WebhookHandler struct {
	BaseHandler
	processor WebhookProcessor
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(processor WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// webhookEventResponse is the delivery acknowledgment body
type webhookEventResponse struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type,omitempty"`
	Processed  bool      `json:"processed"`
	Success    bool      `json:"success"`
	ReceivedAt time.Time `json:"received_at"`
}

// Receive handles POST /webhooks/:marketplace
func (h *WebhookHandler) Receive(c *gin.Context) {
	marketplace := integration.MarketplaceCode(c.Param("marketplace"))

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "failed to read request body")
		return
	}

	event, err := h.processor.HandleDelivery(c.Request.Context(), marketplace, c.GetHeader(SignatureHeader), body)
	if err != nil {
		switch {
		case errors.Is(err, integration.ErrInvalidMarketplace),
			errors.Is(err, integration.ErrMarketplaceNotConfigured):
			h.ErrorWithCode(c, dto.ErrCodeMarketplaceNotConfigured, "unknown or unconfigured marketplace")
		case errors.Is(err, integration.ErrInvalidSignature):
			h.ErrorWithCode(c, dto.ErrCodeInvalidSignature, "signature verification failed")
		case errors.Is(err, integration.ErrMalformedPayload):
			h.ErrorWithCode(c, dto.ErrCodeMalformedPayload, "malformed webhook payload")
		case errors.Is(err, integration.ErrUnknownEventType):
			h.ErrorWithCode(c, dto.ErrCodeUnknownEventType, "unknown event type")
		default:
			// Dispatch failed; a 5xx tells the marketplace to redeliver.
			h.InternalError(c, "webhook processing failed")
		}
		return
	}

	h.Success(c, webhookEventResponse{
		EventID:    event.ID.String(),
		EventType:  event.EventType,
		Processed:  event.Processed,
		Success:    event.Success,
		ReceivedAt: event.ReceivedAt,
	})
}
