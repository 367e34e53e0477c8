package integration

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/integration"
)

// WebhookService verifies, records, and dispatches inbound marketplace
// deliveries. Every delivery is written to the audit log, including the ones
// rejected before dispatch.
type WebhookService struct {
	credentials integration.CredentialStore
	events      integration.WebhookEventRepository
	orders      *OrderSyncService
	catalog     integration.LocalCatalog
	logger      *zap.Logger
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(
	credentials integration.CredentialStore,
	events integration.WebhookEventRepository,
	orders *OrderSyncService,
	catalog integration.LocalCatalog,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		credentials: credentials,
		events:      events,
		orders:      orders,
		catalog:     catalog,
		logger:      logger,
	}
}

// ---------------------------------------------------------------------------
// Payload Envelopes
// ---------------------------------------------------------------------------

type webhookEnvelope struct {
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

type webhookOrderLine struct {
	Barcode   string          `json:"barcode"`
	StockCode string          `json:"stockCode"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type webhookOrderPayload struct {
	OrderID         string             `json:"orderId"`
	OrderNumber     string             `json:"orderNumber"`
	Status          string             `json:"status"`
	CustomerName    string             `json:"customerName"`
	CustomerEmail   string             `json:"customerEmail"`
	ShippingAddress string             `json:"shippingAddress"`
	ShippingCity    string             `json:"shippingCity"`
	Lines           []webhookOrderLine `json:"lines"`
	GrossAmount     decimal.Decimal    `json:"grossAmount"`
	Currency        string             `json:"currency"`
	PlacedAt        time.Time          `json:"placedAt"`
}

type webhookStatusPayload struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type webhookStockPayload struct {
	Items []struct {
		Barcode  string          `json:"barcode"`
		Quantity decimal.Decimal `json:"quantity"`
	} `json:"items"`
}

// ---------------------------------------------------------------------------
// Delivery Handling
// ---------------------------------------------------------------------------

// HandleDelivery processes one inbound webhook delivery. The returned event
// is the audit record; the returned error classifies rejections
// (ErrInvalidSignature, ErrMalformedPayload, ErrUnknownEventType) and
// dispatch failures for the HTTP layer to map onto status codes. A duplicate
// delivery returns a nil error.
func (s *WebhookService) HandleDelivery(
	ctx context.Context,
	marketplace integration.MarketplaceCode,
	signature string,
	body []byte,
) (*integration.WebhookEvent, error) {
	if !marketplace.IsValid() {
		return nil, integration.ErrInvalidMarketplace
	}

	creds, err := s.credentials.Get(marketplace)
	if err != nil {
		return nil, err
	}

	if !verifySignature(creds.WebhookSecret, signature, body) {
		// The body is untrusted at this point; record the rejection without
		// parsing it.
		event := integration.NewWebhookEvent(marketplace, "")
		event.MarkRejected(false, "signature verification failed")
		s.persistEvent(ctx, event)
		s.logger.Warn("rejected webhook with invalid signature",
			zap.String("marketplace", marketplace.String()))
		return event, integration.ErrInvalidSignature
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.EventType == "" {
		event := integration.NewWebhookEvent(marketplace, envelope.EventType)
		event.MarkRejected(true, "malformed payload")
		s.persistEvent(ctx, event)
		return event, integration.ErrMalformedPayload
	}

	event := integration.NewWebhookEvent(marketplace, envelope.EventType)

	if !integration.WebhookEventType(envelope.EventType).IsValid() {
		event.MarkRejected(true, "unknown event type")
		s.persistEvent(ctx, event)
		s.logger.Warn("rejected webhook with unknown event type",
			zap.String("marketplace", marketplace.String()),
			zap.String("event_type", envelope.EventType))
		return event, integration.ErrUnknownEventType
	}

	note, err := s.dispatch(ctx, marketplace, integration.WebhookEventType(envelope.EventType), envelope.Data, body)
	if err != nil {
		event.MarkProcessed(false, err.Error())
		s.persistEvent(ctx, event)
		return event, err
	}

	event.MarkProcessed(true, note)
	s.persistEvent(ctx, event)
	return event, nil
}

func (s *WebhookService) persistEvent(ctx context.Context, event *integration.WebhookEvent) {
	if err := s.events.Insert(ctx, event); err != nil {
		s.logger.Error("failed to persist webhook event",
			zap.String("marketplace", event.Marketplace.String()),
			zap.String("event_type", event.EventType),
			zap.Error(err))
	}
}

// verifySignature checks the hex-encoded HMAC-SHA256 of the body against the
// signature header in constant time.
func verifySignature(secret, signature string, body []byte) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

func (s *WebhookService) dispatch(
	ctx context.Context,
	marketplace integration.MarketplaceCode,
	eventType integration.WebhookEventType,
	data json.RawMessage,
	rawBody []byte,
) (string, error) {
	switch eventType {
	case integration.EventOrderCreated:
		return s.handleOrderCreated(ctx, marketplace, data, rawBody)
	case integration.EventOrderStatusChanged:
		return s.handleOrderStatusChanged(ctx, marketplace, data)
	case integration.EventStockUpdated:
		return s.handleStockUpdated(ctx, marketplace, data)
	default:
		return "", integration.ErrUnknownEventType
	}
}

func (s *WebhookService) handleOrderCreated(
	ctx context.Context,
	marketplace integration.MarketplaceCode,
	data json.RawMessage,
	rawBody []byte,
) (string, error) {
	var payload webhookOrderPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", integration.ErrMalformedPayload
	}
	if payload.OrderID == "" {
		return "", integration.ErrMalformedPayload
	}

	lines := make([]integration.RemoteOrderLine, 0, len(payload.Lines))
	for _, l := range payload.Lines {
		lines = append(lines, integration.RemoteOrderLine{
			Barcode:     l.Barcode,
			StockCode:   l.StockCode,
			ProductName: l.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}

	localID, imported, err := s.orders.ImportRemoteOrder(ctx, &integration.RemoteOrder{
		RemoteOrderID:   payload.OrderID,
		OrderNumber:     payload.OrderNumber,
		Marketplace:     marketplace,
		Status:          payload.Status,
		CustomerName:    payload.CustomerName,
		CustomerEmail:   payload.CustomerEmail,
		ShippingAddress: payload.ShippingAddress,
		ShippingCity:    payload.ShippingCity,
		Lines:           lines,
		GrossAmount:     payload.GrossAmount,
		Currency:        payload.Currency,
		PlacedAt:        payload.PlacedAt,
		RawPayload:      string(rawBody),
	})
	if err != nil {
		return "", err
	}
	if !imported {
		return fmt.Sprintf("duplicate delivery for order %s, no-op", payload.OrderID), nil
	}
	return fmt.Sprintf("imported order %s as %s", payload.OrderID, localID), nil
}

func (s *WebhookService) handleOrderStatusChanged(
	ctx context.Context,
	marketplace integration.MarketplaceCode,
	data json.RawMessage,
) (string, error) {
	var payload webhookStatusPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", integration.ErrMalformedPayload
	}
	if payload.OrderID == "" || payload.Status == "" {
		return "", integration.ErrMalformedPayload
	}

	if err := s.orders.ApplyRemoteStatus(ctx, marketplace, payload.OrderID, payload.Status); err != nil {
		return "", err
	}
	return fmt.Sprintf("applied status %s to order %s", payload.Status, payload.OrderID), nil
}

func (s *WebhookService) handleStockUpdated(
	ctx context.Context,
	marketplace integration.MarketplaceCode,
	data json.RawMessage,
) (string, error) {
	var payload webhookStockPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", integration.ErrMalformedPayload
	}

	updated, skipped := 0, 0
	for _, item := range payload.Items {
		product, err := s.catalog.FindProductByBarcode(ctx, item.Barcode)
		if err != nil {
			return "", &integration.TransientError{Op: "catalog.findByBarcode", Err: err}
		}
		if product == nil {
			// Unknown barcodes are skipped, not fatal: the marketplace may
			// list products this system does not carry.
			s.logger.Warn("stock update for unknown barcode skipped",
				zap.String("marketplace", marketplace.String()),
				zap.String("barcode", item.Barcode))
			skipped++
			continue
		}
		if err := s.catalog.UpdateStock(ctx, product.ID, item.Quantity); err != nil {
			return "", &integration.TransientError{Op: "catalog.updateStock", Err: err}
		}
		updated++
	}
	return fmt.Sprintf("updated stock for %d products, skipped %d unknown barcodes", updated, skipped), nil
}
