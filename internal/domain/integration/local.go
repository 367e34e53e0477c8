package integration

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Local System Collaborators
// ---------------------------------------------------------------------------

// The engine never owns catalog or order data; it consumes the local
// commerce system through the narrow ports below. Product pushes are
// one-directional: the engine reads products but only ever writes stock
// quantities (stock-updated webhooks).

// LocalProduct is the slice of the local product record the sync engine
// needs to build a marketplace payload.
type LocalProduct struct {
	ID         uuid.UUID
	Title      string
	StockCode  string
	Barcode    string
	CategoryID uuid.UUID
	BrandID    uuid.UUID
	ListPrice  decimal.Decimal
	SalePrice  decimal.Decimal
	Quantity   decimal.Decimal
	// ImageURLs are absolute URLs in display order.
	ImageURLs []string
	// Attributes are local attribute name/value pairs, resolved to
	// marketplace vocabulary by the MappingResolver.
	Attributes map[string]string
}

// LocalCatalog reads products from, and writes stock quantities to, the
// local commerce system.
type LocalCatalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*LocalProduct, error)
	// FindProductByBarcode resolves a marketplace-visible barcode to a
	// local product. Returns (nil, nil) when no product matches.
	FindProductByBarcode(ctx context.Context, barcode string) (*LocalProduct, error)
	UpdateStock(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error
}

// LocalOrderLine is one line of an order being created locally from a
// remote order. LocalProductID is nil for lines whose barcode matched no
// local product; those are kept as generic lines rather than dropped.
type LocalOrderLine struct {
	LocalProductID *uuid.UUID
	Description    string
	Barcode        string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
}

// LocalOrderData is the shape handed to the local order system when a
// remote order is imported.
type LocalOrderData struct {
	Marketplace     MarketplaceCode
	RemoteOrderID   string
	OrderNumber     string
	CustomerName    string
	CustomerEmail   string
	ShippingAddress string
	ShippingCity    string
	Lines           []LocalOrderLine
	Total           decimal.Decimal
	Currency        string
}

// LocalOrders creates orders in, and pushes status changes to, the local
// commerce system. Delete exists so an import that loses the mapping race
// to a concurrent delivery can take back the order it just created; it is
// never called on an order that has a mapping.
type LocalOrders interface {
	Create(ctx context.Context, order *LocalOrderData) (uuid.UUID, error)
	SetStatus(ctx context.Context, id uuid.UUID, status LocalOrderStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Category / Brand / Attribute Mapping Resolution
// ---------------------------------------------------------------------------

// CategoryMapping links a local category to a marketplace category.
type CategoryMapping struct {
	ID               uuid.UUID
	LocalCategoryID  uuid.UUID
	Marketplace      MarketplaceCode
	RemoteCategoryID string
	IsActive         bool
}

// BrandMapping links a local brand to a marketplace brand.
type BrandMapping struct {
	ID            uuid.UUID
	LocalBrandID  uuid.UUID
	Marketplace   MarketplaceCode
	RemoteBrandID string
	IsActive      bool
}

// AttributeMapping links a local attribute name to a marketplace attribute
// name.
type AttributeMapping struct {
	ID          uuid.UUID
	LocalName   string
	Marketplace MarketplaceCode
	RemoteName  string
	IsActive    bool
}

// MappingResolver resolves local category, brand, and attribute identifiers
// into a marketplace's vocabulary. Category and brand resolution failures
// are terminal (*MappingMissingError): an operator has to create the
// mapping. Attribute resolution is lossy instead: attributes without an
// active mapping are dropped from the result, not defaulted.
type MappingResolver interface {
	ResolveCategory(ctx context.Context, marketplace MarketplaceCode, localCategoryID uuid.UUID) (string, error)
	ResolveBrand(ctx context.Context, marketplace MarketplaceCode, localBrandID uuid.UUID) (string, error)
	ResolveAttributes(ctx context.Context, marketplace MarketplaceCode, attributes map[string]string) (map[string]string, error)
}
