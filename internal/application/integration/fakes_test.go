package integration

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketsync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// In-Memory Fakes
// ---------------------------------------------------------------------------

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*integration.SyncJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]*integration.SyncJob)}
}

func (r *fakeJobRepo) Enqueue(_ context.Context, job *integration.SyncJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *fakeJobRepo) ClaimNext(_ context.Context, marketplace integration.MarketplaceCode, kind integration.EntityKind) (*integration.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var candidates []*integration.SyncJob
	for _, job := range r.jobs {
		if job.Status == integration.JobStatusPending && job.Marketplace == marketplace && job.EntityKind == kind {
			candidates = append(candidates, job)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	job := candidates[0]
	if err := job.Claim(); err != nil {
		return nil, err
	}
	copied := *job
	return &copied, nil
}

func (r *fakeJobRepo) MarkCompleted(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return integration.ErrJobNotFound
	}
	job.Complete()
	return nil
}

func (r *fakeJobRepo) MarkFailed(_ context.Context, id uuid.UUID, errMsg string, terminal bool) (*integration.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, integration.ErrJobNotFound
	}
	if terminal {
		job.FailTerminal(errMsg)
	} else {
		job.Fail(errMsg)
	}
	copied := *job
	return &copied, nil
}

func (r *fakeJobRepo) Requeue(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return integration.ErrJobNotFound
	}
	job.Requeue()
	return nil
}

func (r *fakeJobRepo) RequeueStuck(_ context.Context, olderThan time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var swept int64
	for _, job := range r.jobs {
		if job.Status == integration.JobStatusProcessing && job.ClaimedAt != nil && job.ClaimedAt.Before(cutoff) {
			job.Status = integration.JobStatusPending
			job.ClaimedAt = nil
			swept++
		}
	}
	return swept, nil
}

func (r *fakeJobRepo) FindByID(_ context.Context, id uuid.UUID) (*integration.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, integration.ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (r *fakeJobRepo) List(_ context.Context, filter integration.SyncJobFilter) ([]integration.SyncJob, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []integration.SyncJob
	for _, job := range r.jobs {
		if filter.Marketplace != nil && job.Marketplace != *filter.Marketplace {
			continue
		}
		if filter.Status != nil && job.Status != *filter.Status {
			continue
		}
		out = append(out, *job)
	}
	return out, int64(len(out)), nil
}

func (r *fakeJobRepo) CountByStatus(_ context.Context, marketplace integration.MarketplaceCode) (map[integration.JobStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[integration.JobStatus]int64)
	for _, job := range r.jobs {
		if job.Marketplace == marketplace {
			counts[job.Status]++
		}
	}
	return counts, nil
}

var _ integration.SyncJobRepository = (*fakeJobRepo)(nil)

type productMappingKey struct {
	localProductID uuid.UUID
	marketplace    integration.MarketplaceCode
}

type fakeProductMappingRepo struct {
	mu       sync.Mutex
	mappings map[productMappingKey]*integration.ProductMapping
}

func newFakeProductMappingRepo() *fakeProductMappingRepo {
	return &fakeProductMappingRepo{mappings: make(map[productMappingKey]*integration.ProductMapping)}
}

func (r *fakeProductMappingRepo) FindByLocalProduct(_ context.Context, localProductID uuid.UUID, marketplace integration.MarketplaceCode) (*integration.ProductMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mapping, ok := r.mappings[productMappingKey{localProductID, marketplace}]
	if !ok {
		return nil, integration.ErrMappingNotFound
	}
	copied := *mapping
	return &copied, nil
}

func (r *fakeProductMappingRepo) FindByRemoteProduct(_ context.Context, marketplace integration.MarketplaceCode, remoteProductID string) (*integration.ProductMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mapping := range r.mappings {
		if mapping.Marketplace == marketplace && mapping.RemoteProductID == remoteProductID {
			copied := *mapping
			return &copied, nil
		}
	}
	return nil, integration.ErrMappingNotFound
}

func (r *fakeProductMappingRepo) FindByBarcode(_ context.Context, marketplace integration.MarketplaceCode, barcode string) (*integration.ProductMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mapping := range r.mappings {
		if mapping.Marketplace == marketplace && mapping.RemoteBarcode == barcode {
			copied := *mapping
			return &copied, nil
		}
	}
	return nil, integration.ErrMappingNotFound
}

func (r *fakeProductMappingRepo) Upsert(_ context.Context, mapping *integration.ProductMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *mapping
	r.mappings[productMappingKey{mapping.LocalProductID, mapping.Marketplace}] = &copied
	return nil
}

func (r *fakeProductMappingRepo) List(_ context.Context, filter integration.ProductMappingFilter) ([]integration.ProductMapping, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []integration.ProductMapping
	for _, mapping := range r.mappings {
		if filter.Marketplace != nil && mapping.Marketplace != *filter.Marketplace {
			continue
		}
		out = append(out, *mapping)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductMappingRepo) CountBySyncStatus(_ context.Context, marketplace integration.MarketplaceCode) (map[integration.SyncStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[integration.SyncStatus]int64)
	for _, mapping := range r.mappings {
		if mapping.Marketplace == marketplace {
			counts[mapping.LastSyncStatus]++
		}
	}
	return counts, nil
}

var _ integration.ProductMappingRepository = (*fakeProductMappingRepo)(nil)

type orderMappingKey struct {
	marketplace   integration.MarketplaceCode
	remoteOrderID string
}

type fakeOrderMappingRepo struct {
	mu       sync.Mutex
	mappings map[orderMappingKey]*integration.OrderMapping
}

func newFakeOrderMappingRepo() *fakeOrderMappingRepo {
	return &fakeOrderMappingRepo{mappings: make(map[orderMappingKey]*integration.OrderMapping)}
}

func (r *fakeOrderMappingRepo) Insert(_ context.Context, mapping *integration.OrderMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := orderMappingKey{mapping.Marketplace, mapping.RemoteOrderID}
	if _, exists := r.mappings[key]; exists {
		return integration.ErrOrderAlreadyMapped
	}
	copied := *mapping
	r.mappings[key] = &copied
	return nil
}

func (r *fakeOrderMappingRepo) ExistsByRemoteOrder(_ context.Context, marketplace integration.MarketplaceCode, remoteOrderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.mappings[orderMappingKey{marketplace, remoteOrderID}]
	return exists, nil
}

func (r *fakeOrderMappingRepo) FindByRemoteOrder(_ context.Context, marketplace integration.MarketplaceCode, remoteOrderID string) (*integration.OrderMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mapping, ok := r.mappings[orderMappingKey{marketplace, remoteOrderID}]
	if !ok {
		return nil, integration.ErrOrderMappingNotFound
	}
	copied := *mapping
	return &copied, nil
}

func (r *fakeOrderMappingRepo) FindByLocalOrder(_ context.Context, localOrderID uuid.UUID, marketplace integration.MarketplaceCode) (*integration.OrderMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mapping := range r.mappings {
		if mapping.LocalOrderID == localOrderID && mapping.Marketplace == marketplace {
			copied := *mapping
			return &copied, nil
		}
	}
	return nil, integration.ErrOrderMappingNotFound
}

func (r *fakeOrderMappingRepo) UpdateStatus(_ context.Context, id uuid.UUID, remoteStatus string, localStatus integration.LocalOrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mapping := range r.mappings {
		if mapping.ID == id {
			mapping.RecordStatus(remoteStatus, localStatus)
			return nil
		}
	}
	return integration.ErrOrderMappingNotFound
}

func (r *fakeOrderMappingRepo) List(_ context.Context, filter integration.OrderMappingFilter) ([]integration.OrderMapping, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []integration.OrderMapping
	for _, mapping := range r.mappings {
		if filter.Marketplace != nil && mapping.Marketplace != *filter.Marketplace {
			continue
		}
		out = append(out, *mapping)
	}
	return out, int64(len(out)), nil
}

var _ integration.OrderMappingRepository = (*fakeOrderMappingRepo)(nil)

type fakeEventRepo struct {
	mu     sync.Mutex
	events []integration.WebhookEvent
}

func newFakeEventRepo() *fakeEventRepo { return &fakeEventRepo{} }

func (r *fakeEventRepo) Insert(_ context.Context, event *integration.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeEventRepo) List(_ context.Context, filter integration.WebhookEventFilter) ([]integration.WebhookEvent, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]integration.WebhookEvent, len(r.events))
	copy(out, r.events)
	return out, int64(len(out)), nil
}

func (r *fakeEventRepo) Stats(_ context.Context, marketplace integration.MarketplaceCode) (*integration.WebhookEventStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &integration.WebhookEventStats{ByType: make(map[string]int64)}
	for _, event := range r.events {
		if event.Marketplace != marketplace {
			continue
		}
		stats.Total++
		if event.Success {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
		stats.ByType[event.EventType]++
	}
	return stats, nil
}

var _ integration.WebhookEventRepository = (*fakeEventRepo)(nil)

type fakeCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]*integration.LocalProduct
	stock    map[uuid.UUID]decimal.Decimal
}

func newFakeCatalog(products ...*integration.LocalProduct) *fakeCatalog {
	c := &fakeCatalog{
		products: make(map[uuid.UUID]*integration.LocalProduct),
		stock:    make(map[uuid.UUID]decimal.Decimal),
	}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *fakeCatalog) GetProduct(_ context.Context, id uuid.UUID) (*integration.LocalProduct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	product, ok := c.products[id]
	if !ok {
		return nil, errors.New("product not found")
	}
	copied := *product
	return &copied, nil
}

func (c *fakeCatalog) FindProductByBarcode(_ context.Context, barcode string) (*integration.LocalProduct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, product := range c.products {
		if product.Barcode == barcode {
			copied := *product
			return &copied, nil
		}
	}
	return nil, nil
}

func (c *fakeCatalog) UpdateStock(_ context.Context, id uuid.UUID, quantity decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stock[id] = quantity
	return nil
}

var _ integration.LocalCatalog = (*fakeCatalog)(nil)

type fakeOrders struct {
	mu       sync.Mutex
	created  map[uuid.UUID]*integration.LocalOrderData
	statuses map[uuid.UUID]integration.LocalOrderStatus
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{
		created:  make(map[uuid.UUID]*integration.LocalOrderData),
		statuses: make(map[uuid.UUID]integration.LocalOrderStatus),
	}
}

func (o *fakeOrders) Create(_ context.Context, order *integration.LocalOrderData) (uuid.UUID, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := uuid.New()
	o.created[id] = order
	o.statuses[id] = integration.LocalStatusPending
	return id, nil
}

func (o *fakeOrders) SetStatus(_ context.Context, id uuid.UUID, status integration.LocalOrderStatus) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses[id] = status
	return nil
}

func (o *fakeOrders) Delete(_ context.Context, id uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.created, id)
	delete(o.statuses, id)
	return nil
}

var _ integration.LocalOrders = (*fakeOrders)(nil)

type fakeResolver struct {
	categories map[uuid.UUID]string
	brands     map[uuid.UUID]string
	attributes map[string]string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		categories: make(map[uuid.UUID]string),
		brands:     make(map[uuid.UUID]string),
		attributes: make(map[string]string),
	}
}

func (r *fakeResolver) ResolveCategory(_ context.Context, marketplace integration.MarketplaceCode, localCategoryID uuid.UUID) (string, error) {
	remote, ok := r.categories[localCategoryID]
	if !ok {
		return "", &integration.MappingMissingError{Kind: "category", LocalID: localCategoryID.String(), Marketplace: marketplace}
	}
	return remote, nil
}

func (r *fakeResolver) ResolveBrand(_ context.Context, marketplace integration.MarketplaceCode, localBrandID uuid.UUID) (string, error) {
	remote, ok := r.brands[localBrandID]
	if !ok {
		return "", &integration.MappingMissingError{Kind: "brand", LocalID: localBrandID.String(), Marketplace: marketplace}
	}
	return remote, nil
}

func (r *fakeResolver) ResolveAttributes(_ context.Context, _ integration.MarketplaceCode, attributes map[string]string) (map[string]string, error) {
	resolved := make(map[string]string)
	for name, value := range attributes {
		if remote, ok := r.attributes[name]; ok {
			resolved[remote] = value
		}
	}
	return resolved, nil
}

var _ integration.MappingResolver = (*fakeResolver)(nil)

type fakeGateway struct {
	code integration.MarketplaceCode

	createFunc func(ctx context.Context, push *integration.ProductPush) (*integration.ProductPushResult, error)
	updateFunc func(ctx context.Context, push *integration.ProductPush) (*integration.ProductPushResult, error)
	pushFunc   func(ctx context.Context, remoteOrderID, remoteStatus string) error
	fetchFunc  func(ctx context.Context, window integration.OrderWindow) ([]integration.RemoteOrder, error)

	mu          sync.Mutex
	createCalls []*integration.ProductPush
	updateCalls []*integration.ProductPush
	pushCalls   [][2]string
}

func newFakeGateway(code integration.MarketplaceCode) *fakeGateway {
	return &fakeGateway{code: code}
}

func (g *fakeGateway) Marketplace() integration.MarketplaceCode { return g.code }

func (g *fakeGateway) CreateProduct(ctx context.Context, push *integration.ProductPush) (*integration.ProductPushResult, error) {
	g.mu.Lock()
	g.createCalls = append(g.createCalls, push)
	g.mu.Unlock()
	if g.createFunc != nil {
		return g.createFunc(ctx, push)
	}
	return &integration.ProductPushResult{RemoteProductID: "RMT-1", RemoteBarcode: push.Barcode}, nil
}

func (g *fakeGateway) UpdateProduct(ctx context.Context, push *integration.ProductPush) (*integration.ProductPushResult, error) {
	g.mu.Lock()
	g.updateCalls = append(g.updateCalls, push)
	g.mu.Unlock()
	if g.updateFunc != nil {
		return g.updateFunc(ctx, push)
	}
	return &integration.ProductPushResult{RemoteProductID: push.RemoteProductID}, nil
}

func (g *fakeGateway) PushOrderStatus(ctx context.Context, remoteOrderID, remoteStatus string) error {
	g.mu.Lock()
	g.pushCalls = append(g.pushCalls, [2]string{remoteOrderID, remoteStatus})
	g.mu.Unlock()
	if g.pushFunc != nil {
		return g.pushFunc(ctx, remoteOrderID, remoteStatus)
	}
	return nil
}

func (g *fakeGateway) FetchOrders(ctx context.Context, window integration.OrderWindow) ([]integration.RemoteOrder, error) {
	if g.fetchFunc != nil {
		return g.fetchFunc(ctx, window)
	}
	return nil, nil
}

func (g *fakeGateway) Ping(context.Context) error { return nil }

var _ integration.MarketplaceGateway = (*fakeGateway)(nil)

type fakeRegistry struct {
	gateways map[integration.MarketplaceCode]integration.MarketplaceGateway
}

func newFakeRegistry(gateways ...integration.MarketplaceGateway) *fakeRegistry {
	r := &fakeRegistry{gateways: make(map[integration.MarketplaceCode]integration.MarketplaceGateway)}
	for _, g := range gateways {
		r.gateways[g.Marketplace()] = g
	}
	return r
}

func (r *fakeRegistry) Gateway(code integration.MarketplaceCode) (integration.MarketplaceGateway, error) {
	gateway, ok := r.gateways[code]
	if !ok {
		return nil, integration.ErrMarketplaceNotConfigured
	}
	return gateway, nil
}

func (r *fakeRegistry) All() []integration.MarketplaceGateway {
	out := make([]integration.MarketplaceGateway, 0, len(r.gateways))
	for _, g := range r.gateways {
		out = append(out, g)
	}
	return out
}

var _ integration.GatewayRegistry = (*fakeRegistry)(nil)

type fakeCredentialStore struct {
	creds map[integration.MarketplaceCode]*integration.Credentials
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{creds: make(map[integration.MarketplaceCode]*integration.Credentials)}
}

func (s *fakeCredentialStore) Get(code integration.MarketplaceCode) (*integration.Credentials, error) {
	creds, ok := s.creds[code]
	if !ok {
		return nil, integration.ErrMarketplaceNotConfigured
	}
	return creds, nil
}

var _ integration.CredentialStore = (*fakeCredentialStore)(nil)
