package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appintegration "github.com/marketsync/backend/internal/application/integration"
	"github.com/marketsync/backend/internal/domain/integration"
	"github.com/marketsync/backend/internal/infrastructure/scheduler"
	"github.com/marketsync/backend/internal/interfaces/http/dto"
)

// ---------------------------------------------------------------------------
// Service Ports
// ---------------------------------------------------------------------------

// SyncAdmin exposes the operator view over jobs, mappings, and events
type SyncAdmin interface {
	ListJobs(ctx context.Context, filter integration.SyncJobFilter) ([]integration.SyncJob, int64, error)
	GetJob(ctx context.Context, id uuid.UUID) (*integration.SyncJob, error)
	RequeueJob(ctx context.Context, id uuid.UUID) error
	ListProductMappings(ctx context.Context, filter integration.ProductMappingFilter) ([]integration.ProductMapping, int64, error)
	ListOrderMappings(ctx context.Context, filter integration.OrderMappingFilter) ([]integration.OrderMapping, int64, error)
	ListWebhookEvents(ctx context.Context, filter integration.WebhookEventFilter) ([]integration.WebhookEvent, int64, error)
	Stats(ctx context.Context, marketplace integration.MarketplaceCode) (*appintegration.MarketplaceStats, error)
}

// ProductEnqueuer queues outbound product pushes
type ProductEnqueuer interface {
	EnqueueProductSync(ctx context.Context, localProductID uuid.UUID, marketplace integration.MarketplaceCode) (*integration.SyncJob, error)
}

// StatusPushEnqueuer queues outbound order status pushes
type StatusPushEnqueuer interface {
	EnqueueStatusPush(ctx context.Context, localOrderID uuid.UUID, marketplace integration.MarketplaceCode, status integration.LocalOrderStatus) (*integration.SyncJob, error)
}

// CycleTrigger runs sync cycles on demand
type CycleTrigger interface {
	RunCycle(ctx context.Context, marketplace integration.MarketplaceCode) (*scheduler.CycleReport, error)
	RunAll(ctx context.Context) ([]scheduler.CycleReport, error)
}

// SyncHandler serves the sync engine's operator API
type SyncHandler struct {
	BaseHandler
	admin    SyncAdmin
	products ProductEnqueuer
	orders   StatusPushEnqueuer
	cycles   CycleTrigger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(admin SyncAdmin, products ProductEnqueuer, orders StatusPushEnqueuer, cycles CycleTrigger) *SyncHandler {
	return &SyncHandler{
		admin:    admin,
		products: products,
		orders:   orders,
		cycles:   cycles,
	}
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

type syncJobResponse struct {
	ID            string     `json:"id"`
	Marketplace   string     `json:"marketplace"`
	EntityKind    string     `json:"entity_kind"`
	EntityLocalID string     `json:"entity_local_id"`
	Operation     string     `json:"operation"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"max_attempts"`
	LastError     string     `json:"last_error,omitempty"`
	ClaimedAt     *time.Time `json:"claimed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toSyncJobResponse(job *integration.SyncJob) syncJobResponse {
	return syncJobResponse{
		ID:            job.ID.String(),
		Marketplace:   string(job.Marketplace),
		EntityKind:    string(job.EntityKind),
		EntityLocalID: job.EntityLocalID,
		Operation:     string(job.Operation),
		Status:        string(job.Status),
		Attempts:      job.Attempts,
		MaxAttempts:   job.MaxAttempts,
		LastError:     job.LastError,
		ClaimedAt:     job.ClaimedAt,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
	}
}

type productMappingResponse struct {
	ID              string     `json:"id"`
	LocalProductID  string     `json:"local_product_id"`
	Marketplace     string     `json:"marketplace"`
	RemoteProductID string     `json:"remote_product_id,omitempty"`
	RemoteBarcode   string     `json:"remote_barcode,omitempty"`
	Approved        bool       `json:"approved"`
	LastSyncStatus  string     `json:"last_sync_status"`
	LastSyncError   string     `json:"last_sync_error,omitempty"`
	LastSyncAt      *time.Time `json:"last_sync_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type orderMappingResponse struct {
	ID            string    `json:"id"`
	LocalOrderID  string    `json:"local_order_id"`
	Marketplace   string    `json:"marketplace"`
	RemoteOrderID string    `json:"remote_order_id"`
	RemoteStatus  string    `json:"remote_status,omitempty"`
	LocalStatus   string    `json:"local_status,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type webhookEventListItem struct {
	ID             string    `json:"id"`
	Marketplace    string    `json:"marketplace"`
	EventType      string    `json:"event_type,omitempty"`
	SignatureValid bool      `json:"signature_valid"`
	Processed      bool      `json:"processed"`
	Success        bool      `json:"success"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	ReceivedAt     time.Time `json:"received_at"`
}

// ---------------------------------------------------------------------------
// Cycles
// ---------------------------------------------------------------------------

// RunAllCycles handles POST /sync/cycles
func (h *SyncHandler) RunAllCycles(c *gin.Context) {
	reports, err := h.cycles.RunAll(c.Request.Context())
	if err != nil {
		h.InternalError(c, "sync cycle failed")
		return
	}
	h.Success(c, reports)
}

// RunCycle handles POST /sync/cycles/:marketplace
func (h *SyncHandler) RunCycle(c *gin.Context) {
	marketplace, ok := h.marketplaceParam(c)
	if !ok {
		return
	}

	report, err := h.cycles.RunCycle(c.Request.Context(), marketplace)
	if err != nil {
		if errors.Is(err, scheduler.ErrCycleAlreadyRunning) {
			h.ErrorWithCode(c, dto.ErrCodeCycleRunning, "a sync cycle for this marketplace is already running")
			return
		}
		h.InternalError(c, "sync cycle failed")
		return
	}
	h.Success(c, report)
}

// ---------------------------------------------------------------------------
// Enqueue
// ---------------------------------------------------------------------------

type enqueueProductRequest struct {
	ProductID   string `json:"product_id" binding:"required,uuid"`
	Marketplace string `json:"marketplace" binding:"required"`
}

// EnqueueProduct handles POST /sync/products
func (h *SyncHandler) EnqueueProduct(c *gin.Context) {
	var req enqueueProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body")
		return
	}
	marketplace := integration.MarketplaceCode(req.Marketplace)
	if !marketplace.IsValid() {
		h.BadRequest(c, "unknown marketplace")
		return
	}

	job, err := h.products.EnqueueProductSync(c.Request.Context(), uuid.MustParse(req.ProductID), marketplace)
	if err != nil {
		h.InternalError(c, "failed to enqueue product sync")
		return
	}
	h.Created(c, toSyncJobResponse(job))
}

type enqueueStatusPushRequest struct {
	OrderID     string `json:"order_id" binding:"required,uuid"`
	Marketplace string `json:"marketplace" binding:"required"`
	Status      string `json:"status" binding:"required"`
}

// EnqueueOrderStatus handles POST /sync/orders/status
func (h *SyncHandler) EnqueueOrderStatus(c *gin.Context) {
	var req enqueueStatusPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body")
		return
	}
	marketplace := integration.MarketplaceCode(req.Marketplace)
	if !marketplace.IsValid() {
		h.BadRequest(c, "unknown marketplace")
		return
	}
	status := integration.LocalOrderStatus(req.Status)
	if !status.IsValid() {
		h.BadRequest(c, "unknown order status")
		return
	}

	job, err := h.orders.EnqueueStatusPush(c.Request.Context(), uuid.MustParse(req.OrderID), marketplace, status)
	if err != nil {
		if errors.Is(err, integration.ErrOrderMappingNotFound) {
			h.NotFound(c, "order is not mapped to this marketplace")
			return
		}
		h.InternalError(c, "failed to enqueue status push")
		return
	}
	h.Created(c, toSyncJobResponse(job))
}

// ---------------------------------------------------------------------------
// Jobs
// ---------------------------------------------------------------------------

// ListJobs handles GET /sync/jobs
func (h *SyncHandler) ListJobs(c *gin.Context) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, "invalid pagination parameters")
		return
	}
	list.Normalize()

	filter := integration.SyncJobFilter{Page: list.Page, PageSize: list.PageSize}
	if raw := c.Query("marketplace"); raw != "" {
		marketplace := integration.MarketplaceCode(raw)
		if !marketplace.IsValid() {
			h.BadRequest(c, "unknown marketplace")
			return
		}
		filter.Marketplace = &marketplace
	}
	if raw := c.Query("entity_kind"); raw != "" {
		kind := integration.EntityKind(raw)
		if !kind.IsValid() {
			h.BadRequest(c, "unknown entity kind")
			return
		}
		filter.EntityKind = &kind
	}
	if raw := c.Query("status"); raw != "" {
		status := integration.JobStatus(raw)
		filter.Status = &status
	}

	jobs, total, err := h.admin.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.InternalError(c, "failed to list jobs")
		return
	}

	items := make([]syncJobResponse, len(jobs))
	for i := range jobs {
		items[i] = toSyncJobResponse(&jobs[i])
	}
	h.SuccessWithMeta(c, items, total, list.Page, list.PageSize)
}

// GetJob handles GET /sync/jobs/:id
func (h *SyncHandler) GetJob(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	job, err := h.admin.GetJob(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, integration.ErrJobNotFound) {
			h.NotFound(c, "sync job not found")
			return
		}
		h.InternalError(c, "failed to load job")
		return
	}
	h.Success(c, toSyncJobResponse(job))
}

// RequeueJob handles POST /sync/jobs/:id/requeue
func (h *SyncHandler) RequeueJob(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	if err := h.admin.RequeueJob(c.Request.Context(), id); err != nil {
		if errors.Is(err, integration.ErrJobNotFound) {
			h.NotFound(c, "sync job not found")
			return
		}
		h.InternalError(c, "failed to requeue job")
		return
	}
	h.Success(c, gin.H{"requeued": true})
}

// ---------------------------------------------------------------------------
// Mappings and Events
// ---------------------------------------------------------------------------

// ListProductMappings handles GET /sync/product-mappings
func (h *SyncHandler) ListProductMappings(c *gin.Context) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, "invalid pagination parameters")
		return
	}
	list.Normalize()

	filter := integration.ProductMappingFilter{Page: list.Page, PageSize: list.PageSize}
	if raw := c.Query("marketplace"); raw != "" {
		marketplace := integration.MarketplaceCode(raw)
		if !marketplace.IsValid() {
			h.BadRequest(c, "unknown marketplace")
			return
		}
		filter.Marketplace = &marketplace
	}
	if raw := c.Query("sync_status"); raw != "" {
		status := integration.SyncStatus(raw)
		filter.LastSyncStatus = &status
	}

	mappings, total, err := h.admin.ListProductMappings(c.Request.Context(), filter)
	if err != nil {
		h.InternalError(c, "failed to list product mappings")
		return
	}

	items := make([]productMappingResponse, len(mappings))
	for i, m := range mappings {
		items[i] = productMappingResponse{
			ID:              m.ID.String(),
			LocalProductID:  m.LocalProductID.String(),
			Marketplace:     string(m.Marketplace),
			RemoteProductID: m.RemoteProductID,
			RemoteBarcode:   m.RemoteBarcode,
			Approved:        m.Approved,
			LastSyncStatus:  string(m.LastSyncStatus),
			LastSyncError:   m.LastSyncError,
			LastSyncAt:      m.LastSyncAt,
			CreatedAt:       m.CreatedAt,
			UpdatedAt:       m.UpdatedAt,
		}
	}
	h.SuccessWithMeta(c, items, total, list.Page, list.PageSize)
}

// ListOrderMappings handles GET /sync/order-mappings
func (h *SyncHandler) ListOrderMappings(c *gin.Context) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, "invalid pagination parameters")
		return
	}
	list.Normalize()

	filter := integration.OrderMappingFilter{Page: list.Page, PageSize: list.PageSize}
	if raw := c.Query("marketplace"); raw != "" {
		marketplace := integration.MarketplaceCode(raw)
		if !marketplace.IsValid() {
			h.BadRequest(c, "unknown marketplace")
			return
		}
		filter.Marketplace = &marketplace
	}
	if raw := c.Query("local_status"); raw != "" {
		status := integration.LocalOrderStatus(raw)
		filter.LocalStatus = &status
	}

	mappings, total, err := h.admin.ListOrderMappings(c.Request.Context(), filter)
	if err != nil {
		h.InternalError(c, "failed to list order mappings")
		return
	}

	items := make([]orderMappingResponse, len(mappings))
	for i, m := range mappings {
		items[i] = orderMappingResponse{
			ID:            m.ID.String(),
			LocalOrderID:  m.LocalOrderID.String(),
			Marketplace:   string(m.Marketplace),
			RemoteOrderID: m.RemoteOrderID,
			RemoteStatus:  m.RemoteStatus,
			LocalStatus:   string(m.LocalStatus),
			CreatedAt:     m.CreatedAt,
			UpdatedAt:     m.UpdatedAt,
		}
	}
	h.SuccessWithMeta(c, items, total, list.Page, list.PageSize)
}

// ListWebhookEvents handles GET /sync/webhook-events
func (h *SyncHandler) ListWebhookEvents(c *gin.Context) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, "invalid pagination parameters")
		return
	}
	list.Normalize()

	filter := integration.WebhookEventFilter{Page: list.Page, PageSize: list.PageSize}
	if raw := c.Query("marketplace"); raw != "" {
		marketplace := integration.MarketplaceCode(raw)
		if !marketplace.IsValid() {
			h.BadRequest(c, "unknown marketplace")
			return
		}
		filter.Marketplace = &marketplace
	}
	if raw := c.Query("event_type"); raw != "" {
		filter.EventType = &raw
	}

	events, total, err := h.admin.ListWebhookEvents(c.Request.Context(), filter)
	if err != nil {
		h.InternalError(c, "failed to list webhook events")
		return
	}

	items := make([]webhookEventListItem, len(events))
	for i, e := range events {
		items[i] = webhookEventListItem{
			ID:             e.ID.String(),
			Marketplace:    string(e.Marketplace),
			EventType:      e.EventType,
			SignatureValid: e.SignatureValid,
			Processed:      e.Processed,
			Success:        e.Success,
			ErrorMessage:   e.ErrorMessage,
			ReceivedAt:     e.ReceivedAt,
		}
	}
	h.SuccessWithMeta(c, items, total, list.Page, list.PageSize)
}

// Stats handles GET /sync/marketplaces/:marketplace/stats
func (h *SyncHandler) Stats(c *gin.Context) {
	marketplace, ok := h.marketplaceParam(c)
	if !ok {
		return
	}

	stats, err := h.admin.Stats(c.Request.Context(), marketplace)
	if err != nil {
		h.InternalError(c, "failed to load marketplace stats")
		return
	}
	h.Success(c, stats)
}

// ---------------------------------------------------------------------------
// Param Helpers
// ---------------------------------------------------------------------------

func (h *SyncHandler) marketplaceParam(c *gin.Context) (integration.MarketplaceCode, bool) {
	marketplace := integration.MarketplaceCode(c.Param("marketplace"))
	if !marketplace.IsValid() {
		h.BadRequest(c, "unknown marketplace")
		return "", false
	}
	return marketplace, true
}

func (h *SyncHandler) idParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
