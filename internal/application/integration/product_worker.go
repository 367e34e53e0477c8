package integration

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/integration"
)

// ProductSyncService drains the product sync queue for one marketplace at a
// time: it claims jobs, builds marketplace payloads from the local catalog
// and the mapping tables, and records the outcome on the product mapping row.
type ProductSyncService struct {
	jobs     integration.SyncJobRepository
	mappings integration.ProductMappingRepository
	catalog  integration.LocalCatalog
	resolver integration.MappingResolver
	registry integration.GatewayRegistry
	logger   *zap.Logger
}

// NewProductSyncService creates a new ProductSyncService.
func NewProductSyncService(
	jobs integration.SyncJobRepository,
	mappings integration.ProductMappingRepository,
	catalog integration.LocalCatalog,
	resolver integration.MappingResolver,
	registry integration.GatewayRegistry,
	logger *zap.Logger,
) *ProductSyncService {
	return &ProductSyncService{
		jobs:     jobs,
		mappings: mappings,
		catalog:  catalog,
		resolver: resolver,
		registry: registry,
		logger:   logger,
	}
}

// ---------------------------------------------------------------------------
// Enqueue
// ---------------------------------------------------------------------------

// EnqueueProductSync queues a push of one local product to one marketplace.
// The operation is chosen from the mapping state: products without a remote
// id get a create, everything else an update.
func (s *ProductSyncService) EnqueueProductSync(
	ctx context.Context,
	localProductID uuid.UUID,
	marketplace integration.MarketplaceCode,
) (*integration.SyncJob, error) {
	op := integration.OperationCreate
	mapping, err := s.mappings.FindByLocalProduct(ctx, localProductID, marketplace)
	switch {
	case err == nil && mapping.IsCreated():
		op = integration.OperationUpdate
	case err != nil && !errors.Is(err, integration.ErrMappingNotFound):
		return nil, err
	}

	job, err := integration.NewSyncJob(marketplace, integration.EntityKindProduct, localProductID.String(), op)
	if err != nil {
		return nil, err
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// ---------------------------------------------------------------------------
// Queue Draining
// ---------------------------------------------------------------------------

// ProcessNext claims and processes the oldest pending product job for the
// marketplace. Returns false when the queue is empty.
func (s *ProductSyncService) ProcessNext(ctx context.Context, marketplace integration.MarketplaceCode) (bool, error) {
	job, err := s.jobs.ClaimNext(ctx, marketplace, integration.EntityKindProduct)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	if err := s.processJob(ctx, job); err != nil {
		s.recordFailure(ctx, job, err)
		return true, nil
	}

	if err := s.jobs.MarkCompleted(ctx, job.ID); err != nil {
		return true, err
	}
	s.logger.Info("product sync completed",
		zap.String("job_id", job.ID.String()),
		zap.String("marketplace", job.Marketplace.String()),
		zap.String("product_id", job.EntityLocalID))
	return true, nil
}

// Drain processes product jobs for the marketplace until the queue is empty
// or the context is cancelled. Returns how many jobs were processed.
func (s *ProductSyncService) Drain(ctx context.Context, marketplace integration.MarketplaceCode) (int, error) {
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

func (s *ProductSyncService) recordFailure(ctx context.Context, job *integration.SyncJob, cause error) {
	terminal := !integration.IsRetryable(cause)
	updated, err := s.jobs.MarkFailed(ctx, job.ID, cause.Error(), terminal)
	if err != nil {
		s.logger.Error("failed to record job failure",
			zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}

	if updated.Status == integration.JobStatusError {
		s.logger.Error("product sync failed permanently",
			zap.String("job_id", job.ID.String()),
			zap.String("marketplace", job.Marketplace.String()),
			zap.String("product_id", job.EntityLocalID),
			zap.Int("attempts", updated.Attempts),
			zap.Error(cause))
	} else {
		s.logger.Warn("product sync failed, will retry",
			zap.String("job_id", job.ID.String()),
			zap.String("marketplace", job.Marketplace.String()),
			zap.Int("attempts", updated.Attempts),
			zap.Error(cause))
	}
}

// ---------------------------------------------------------------------------
// Job Processing
// ---------------------------------------------------------------------------

func (s *ProductSyncService) processJob(ctx context.Context, job *integration.SyncJob) error {
	gateway, err := s.registry.Gateway(job.Marketplace)
	if err != nil {
		return err
	}

	productID, err := uuid.Parse(job.EntityLocalID)
	if err != nil {
		return err
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		// Local reads are expected to recover; keep the attempt budget alive.
		return &integration.TransientError{Op: "catalog.getProduct", Err: err}
	}

	mapping, err := s.mappings.FindByLocalProduct(ctx, productID, job.Marketplace)
	if errors.Is(err, integration.ErrMappingNotFound) {
		mapping, err = integration.NewProductMapping(productID, job.Marketplace)
	}
	if err != nil {
		return err
	}

	push, err := s.buildPush(ctx, job.Marketplace, product, mapping)
	if err != nil {
		return err
	}

	var result *integration.ProductPushResult
	if mapping.IsCreated() {
		result, err = gateway.UpdateProduct(ctx, push)
	} else {
		result, err = gateway.CreateProduct(ctx, push)
	}
	if err != nil {
		mapping.RecordSyncFailure(err.Error())
		if upsertErr := s.mappings.Upsert(ctx, mapping); upsertErr != nil {
			s.logger.Error("failed to record sync failure on mapping",
				zap.String("product_id", productID.String()), zap.Error(upsertErr))
		}
		return err
	}

	mapping.RecordSyncSuccess(result.RemoteProductID, result.RemoteBarcode)
	if err := s.mappings.Upsert(ctx, mapping); err != nil {
		return &integration.TransientError{Op: "mapping.upsert", Err: err}
	}
	return nil
}

func (s *ProductSyncService) buildPush(
	ctx context.Context,
	marketplace integration.MarketplaceCode,
	product *integration.LocalProduct,
	mapping *integration.ProductMapping,
) (*integration.ProductPush, error) {
	categoryID, err := s.resolver.ResolveCategory(ctx, marketplace, product.CategoryID)
	if err != nil {
		return nil, err
	}
	brandID, err := s.resolver.ResolveBrand(ctx, marketplace, product.BrandID)
	if err != nil {
		return nil, err
	}
	attributes, err := s.resolver.ResolveAttributes(ctx, marketplace, product.Attributes)
	if err != nil {
		return nil, err
	}
	if dropped := len(product.Attributes) - len(attributes); dropped > 0 {
		s.logger.Warn("dropped unmapped product attributes",
			zap.String("product_id", product.ID.String()),
			zap.String("marketplace", marketplace.String()),
			zap.Int("dropped", dropped))
	}

	return &integration.ProductPush{
		LocalProductID:   product.ID,
		RemoteProductID:  mapping.RemoteProductID,
		Title:            product.Title,
		StockCode:        product.StockCode,
		Barcode:          product.Barcode,
		ListPrice:        product.ListPrice,
		SalePrice:        product.SalePrice,
		Quantity:         product.Quantity,
		RemoteCategoryID: categoryID,
		RemoteBrandID:    brandID,
		ImageURLs:        product.ImageURLs,
		Attributes:       attributes,
	}, nil
}
