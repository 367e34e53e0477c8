package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/integration"
)

// OrderSyncService moves orders in both directions: inbound import of remote
// orders (from polling or webhooks) and outbound pushes of local status
// changes. Inbound import is idempotent on (marketplace, remote order id).
type OrderSyncService struct {
	jobs      integration.SyncJobRepository
	orderMaps integration.OrderMappingRepository
	catalog   integration.LocalCatalog
	orders    integration.LocalOrders
	registry  integration.GatewayRegistry
	logger    *zap.Logger
}

// NewOrderSyncService creates a new OrderSyncService.
func NewOrderSyncService(
	jobs integration.SyncJobRepository,
	orderMaps integration.OrderMappingRepository,
	catalog integration.LocalCatalog,
	orders integration.LocalOrders,
	registry integration.GatewayRegistry,
	logger *zap.Logger,
) *OrderSyncService {
	return &OrderSyncService{
		jobs:      jobs,
		orderMaps: orderMaps,
		catalog:   catalog,
		orders:    orders,
		registry:  registry,
		logger:    logger,
	}
}

// ---------------------------------------------------------------------------
// Inbound Import
// ---------------------------------------------------------------------------

// ImportRemoteOrder creates a local order from a remote one. Returns the
// local order id and whether an import actually happened: an order already
// mapped for this marketplace is a successful no-op, which is what makes
// webhook delivery and polling safe to overlap.
func (s *OrderSyncService) ImportRemoteOrder(ctx context.Context, order *integration.RemoteOrder) (uuid.UUID, bool, error) {
	if order.RemoteOrderID == "" {
		return uuid.Nil, false, integration.ErrInvalidRemoteID
	}

	exists, err := s.orderMaps.ExistsByRemoteOrder(ctx, order.Marketplace, order.RemoteOrderID)
	if err != nil {
		return uuid.Nil, false, &integration.TransientError{Op: "orderMapping.exists", Err: err}
	}
	if exists {
		return uuid.Nil, false, nil
	}

	lines := make([]integration.LocalOrderLine, 0, len(order.Lines))
	for _, remote := range order.Lines {
		line := integration.LocalOrderLine{
			Description: remote.ProductName,
			Barcode:     remote.Barcode,
			Quantity:    remote.Quantity,
			UnitPrice:   remote.UnitPrice,
		}
		product, err := s.catalog.FindProductByBarcode(ctx, remote.Barcode)
		if err != nil {
			return uuid.Nil, false, &integration.TransientError{Op: "catalog.findByBarcode", Err: err}
		}
		if product != nil {
			id := product.ID
			line.LocalProductID = &id
		} else {
			// Kept as a generic line; the order must not be dropped because
			// one product is not in the local catalog.
			s.logger.Warn("remote order line matched no local product",
				zap.String("marketplace", order.Marketplace.String()),
				zap.String("remote_order_id", order.RemoteOrderID),
				zap.String("barcode", remote.Barcode))
		}
		lines = append(lines, line)
	}

	localID, err := s.orders.Create(ctx, &integration.LocalOrderData{
		Marketplace:     order.Marketplace,
		RemoteOrderID:   order.RemoteOrderID,
		OrderNumber:     order.OrderNumber,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		ShippingAddress: order.ShippingAddress,
		ShippingCity:    order.ShippingCity,
		Lines:           lines,
		Total:           order.GrossAmount,
		Currency:        order.Currency,
	})
	if err != nil {
		return uuid.Nil, false, &integration.TransientError{Op: "orders.create", Err: err}
	}

	localStatus, known := integration.RemoteToLocal(order.Marketplace, order.Status)
	if !known {
		s.logger.Warn("unknown remote order status, defaulting to pending",
			zap.String("marketplace", order.Marketplace.String()),
			zap.String("remote_order_id", order.RemoteOrderID),
			zap.String("remote_status", order.Status))
	}

	mapping, err := integration.NewOrderMapping(localID, order.Marketplace, order.RemoteOrderID)
	if err != nil {
		return uuid.Nil, false, err
	}
	mapping.RawPayload = order.RawPayload
	mapping.RecordStatus(order.Status, localStatus)

	if err := s.orderMaps.Insert(ctx, mapping); err != nil {
		if errors.Is(err, integration.ErrOrderAlreadyMapped) {
			// Lost the race to a concurrent delivery; the other import owns
			// the order, so take back the one just created.
			if delErr := s.orders.Delete(ctx, localID); delErr != nil {
				s.logger.Error("failed to remove duplicate local order",
					zap.String("marketplace", order.Marketplace.String()),
					zap.String("remote_order_id", order.RemoteOrderID),
					zap.String("local_order_id", localID.String()),
					zap.Error(delErr))
				return uuid.Nil, false, &integration.TransientError{Op: "orders.delete", Err: delErr}
			}
			s.logger.Warn("concurrent import won the order mapping",
				zap.String("marketplace", order.Marketplace.String()),
				zap.String("remote_order_id", order.RemoteOrderID))
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, &integration.TransientError{Op: "orderMapping.insert", Err: err}
	}

	if localStatus != integration.LocalStatusPending {
		if err := s.orders.SetStatus(ctx, localID, localStatus); err != nil {
			return localID, true, &integration.TransientError{Op: "orders.setStatus", Err: err}
		}
	}

	s.logger.Info("remote order imported",
		zap.String("marketplace", order.Marketplace.String()),
		zap.String("remote_order_id", order.RemoteOrderID),
		zap.String("local_order_id", localID.String()),
		zap.String("local_status", string(localStatus)))
	return localID, true, nil
}

// PullOrders fetches orders in the window from the marketplace and imports
// whatever is not already mapped. Returns how many orders were imported.
func (s *OrderSyncService) PullOrders(ctx context.Context, marketplace integration.MarketplaceCode, window integration.OrderWindow) (int, error) {
	gateway, err := s.registry.Gateway(marketplace)
	if err != nil {
		return 0, err
	}

	remote, err := gateway.FetchOrders(ctx, window)
	if err != nil {
		return 0, err
	}

	imported := 0
	for i := range remote {
		_, ok, err := s.ImportRemoteOrder(ctx, &remote[i])
		if err != nil {
			// One bad order must not block the rest of the window.
			s.logger.Error("failed to import remote order",
				zap.String("marketplace", marketplace.String()),
				zap.String("remote_order_id", remote[i].RemoteOrderID),
				zap.Error(err))
			continue
		}
		if ok {
			imported++
		}
	}
	return imported, nil
}

// ApplyRemoteStatus applies a marketplace-side status change to the local
// order. Applying the same status twice is a no-op.
func (s *OrderSyncService) ApplyRemoteStatus(ctx context.Context, marketplace integration.MarketplaceCode, remoteOrderID, remoteStatus string) error {
	mapping, err := s.orderMaps.FindByRemoteOrder(ctx, marketplace, remoteOrderID)
	if err != nil {
		return err
	}
	if mapping.RemoteStatus == remoteStatus {
		return nil
	}

	localStatus, known := integration.RemoteToLocal(marketplace, remoteStatus)
	if !known {
		s.logger.Warn("unknown remote order status, defaulting to pending",
			zap.String("marketplace", marketplace.String()),
			zap.String("remote_order_id", remoteOrderID),
			zap.String("remote_status", remoteStatus))
	}

	if err := s.orders.SetStatus(ctx, mapping.LocalOrderID, localStatus); err != nil {
		return &integration.TransientError{Op: "orders.setStatus", Err: err}
	}
	return s.orderMaps.UpdateStatus(ctx, mapping.ID, remoteStatus, localStatus)
}

// ---------------------------------------------------------------------------
// Outbound Status Push
// ---------------------------------------------------------------------------

// EnqueueStatusPush records a local status change on the mapping and queues
// the outbound push. The job carries only the order id; the status to push is
// read from the mapping at processing time, so a burst of changes collapses
// into pushing the latest state.
func (s *OrderSyncService) EnqueueStatusPush(
	ctx context.Context,
	localOrderID uuid.UUID,
	marketplace integration.MarketplaceCode,
	status integration.LocalOrderStatus,
) (*integration.SyncJob, error) {
	mapping, err := s.orderMaps.FindByLocalOrder(ctx, localOrderID, marketplace)
	if err != nil {
		return nil, err
	}
	if err := s.orderMaps.UpdateStatus(ctx, mapping.ID, "", status); err != nil {
		return nil, err
	}

	job, err := integration.NewSyncJob(marketplace, integration.EntityKindOrder, localOrderID.String(), integration.OperationStatusPush)
	if err != nil {
		return nil, err
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// ProcessNext claims and processes the oldest pending order job for the
// marketplace. Returns false when the queue is empty.
func (s *OrderSyncService) ProcessNext(ctx context.Context, marketplace integration.MarketplaceCode) (bool, error) {
	job, err := s.jobs.ClaimNext(ctx, marketplace, integration.EntityKindOrder)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	if err := s.processStatusPush(ctx, job); err != nil {
		terminal := !integration.IsRetryable(err)
		updated, markErr := s.jobs.MarkFailed(ctx, job.ID, err.Error(), terminal)
		if markErr != nil {
			s.logger.Error("failed to record job failure",
				zap.String("job_id", job.ID.String()), zap.Error(markErr))
			return true, nil
		}
		if updated.Status == integration.JobStatusError {
			s.logger.Error("order status push failed permanently",
				zap.String("job_id", job.ID.String()),
				zap.String("marketplace", job.Marketplace.String()),
				zap.String("order_id", job.EntityLocalID),
				zap.Int("attempts", updated.Attempts),
				zap.Error(err))
		} else {
			s.logger.Warn("order status push failed, will retry",
				zap.String("job_id", job.ID.String()),
				zap.Int("attempts", updated.Attempts),
				zap.Error(err))
		}
		return true, nil
	}

	if err := s.jobs.MarkCompleted(ctx, job.ID); err != nil {
		return true, err
	}
	return true, nil
}

// Drain processes order jobs for the marketplace until the queue is empty or
// the context is cancelled.
func (s *OrderSyncService) Drain(ctx context.Context, marketplace integration.MarketplaceCode) (int, error) {
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		ok, err := s.ProcessNext(ctx, marketplace)
		if err != nil {
			return processed, err
		}
		if !ok {
			return processed, nil
		}
		processed++
	}
}

func (s *OrderSyncService) processStatusPush(ctx context.Context, job *integration.SyncJob) error {
	gateway, err := s.registry.Gateway(job.Marketplace)
	if err != nil {
		return err
	}

	localOrderID, err := uuid.Parse(job.EntityLocalID)
	if err != nil {
		return err
	}

	mapping, err := s.orderMaps.FindByLocalOrder(ctx, localOrderID, job.Marketplace)
	if err != nil {
		return err
	}

	remoteStatus, ok := integration.LocalToRemote(job.Marketplace, mapping.LocalStatus)
	if !ok {
		return fmt.Errorf("local status %q has no %s equivalent", mapping.LocalStatus, job.Marketplace)
	}

	if err := gateway.PushOrderStatus(ctx, mapping.RemoteOrderID, remoteStatus); err != nil {
		return err
	}
	return s.orderMaps.UpdateStatus(ctx, mapping.ID, remoteStatus, mapping.LocalStatus)
}
