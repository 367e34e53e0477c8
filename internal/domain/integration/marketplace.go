package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// MarketplaceCode
// ---------------------------------------------------------------------------

// MarketplaceCode identifies an external marketplace platform.
type MarketplaceCode string

const (
	// MarketplaceTrendyol is the Trendyol marketplace.
	MarketplaceTrendyol MarketplaceCode = "TRENDYOL"
	// MarketplaceN11 is the N11 marketplace.
	MarketplaceN11 MarketplaceCode = "N11"
	// MarketplaceHepsiburada is the Hepsiburada marketplace.
	MarketplaceHepsiburada MarketplaceCode = "HEPSIBURADA"
)

// IsValid returns true if the marketplace code is known.
func (c MarketplaceCode) IsValid() bool {
	switch c {
	case MarketplaceTrendyol, MarketplaceN11, MarketplaceHepsiburada:
		return true
	default:
		return false
	}
}

// String returns the string representation of MarketplaceCode.
func (c MarketplaceCode) String() string {
	return string(c)
}

// AllMarketplaces returns every known marketplace code.
func AllMarketplaces() []MarketplaceCode {
	return []MarketplaceCode{MarketplaceTrendyol, MarketplaceN11, MarketplaceHepsiburada}
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// RemoteOrder is an order as reported by a marketplace, either pulled by
// polling or delivered via webhook.
type RemoteOrder struct {
	// RemoteOrderID is the order identifier on the marketplace. It is the
	// deduplication key for inbound import.
	RemoteOrderID string
	// OrderNumber is the human-facing order number on the marketplace.
	OrderNumber string
	// Marketplace identifies the source platform.
	Marketplace MarketplaceCode
	// Status is the order status in the marketplace's own vocabulary.
	Status string
	// CustomerName is the buyer's name.
	CustomerName string
	// CustomerEmail is the buyer's email, when the marketplace exposes it.
	CustomerEmail string
	// ShippingAddress is the flattened delivery address.
	ShippingAddress string
	// ShippingCity is the delivery city.
	ShippingCity string
	// Lines are the order line items.
	Lines []RemoteOrderLine
	// GrossAmount is the total the buyer paid.
	GrossAmount decimal.Decimal
	// Currency is the payment currency.
	Currency string
	// PlacedAt is when the order was created on the marketplace.
	PlacedAt time.Time
	// RawPayload is the original marketplace response, kept for audit.
	RawPayload string
}

// RemoteOrderLine is a line item in a RemoteOrder.
type RemoteOrderLine struct {
	// Barcode is the marketplace-visible product identifier used to match
	// local products.
	Barcode string
	// StockCode is the merchant SKU on the marketplace, if present.
	StockCode string
	// ProductName is the product title as sold.
	ProductName string
	// Quantity is the ordered quantity.
	Quantity decimal.Decimal
	// UnitPrice is the per-unit price.
	UnitPrice decimal.Decimal
}

// ProductPush is the marketplace-bound product payload built by the product
// sync worker. Category, brand, and attribute identifiers are already in the
// target marketplace's vocabulary.
type ProductPush struct {
	// LocalProductID is our internal product id.
	LocalProductID uuid.UUID
	// RemoteProductID is the existing id on the marketplace; empty for a
	// create call.
	RemoteProductID string
	// Title is the listing title.
	Title string
	// StockCode is our merchant SKU.
	StockCode string
	// Barcode is the product barcode.
	Barcode string
	// ListPrice is the undiscounted price.
	ListPrice decimal.Decimal
	// SalePrice is the selling (discounted) price.
	SalePrice decimal.Decimal
	// Quantity is the available stock quantity.
	Quantity decimal.Decimal
	// RemoteCategoryID is the resolved marketplace category id.
	RemoteCategoryID string
	// RemoteBrandID is the resolved marketplace brand id.
	RemoteBrandID string
	// ImageURLs are absolute image URLs in display order.
	ImageURLs []string
	// Attributes are marketplace attribute name/value pairs. Attributes
	// without a mapping were already dropped during resolution.
	Attributes map[string]string
}

// ProductPushResult is the marketplace's answer to a create or update call.
type ProductPushResult struct {
	// RemoteProductID is the marketplace-assigned product id.
	RemoteProductID string
	// RemoteBarcode is the barcode under which the marketplace lists the
	// product, when it differs from the submitted one.
	RemoteBarcode string
}

// StockItem is a marketplace-reported stock level for one product,
// identified by its marketplace-visible barcode.
type StockItem struct {
	Barcode  string
	Quantity decimal.Decimal
}

// OrderWindow is the trailing time range for inbound order polling.
type OrderWindow struct {
	Start time.Time
	End   time.Time
}

// ---------------------------------------------------------------------------
// MarketplaceGateway Port
// ---------------------------------------------------------------------------

// MarketplaceGateway is the port for one external marketplace. Concrete
// adapters (Trendyol, N11, ...) live in the infrastructure layer and wrap
// the retrying HTTP client. Implementations translate their platform's wire
// format into the value objects above and classify failures into the
// gateway error taxonomy.
type MarketplaceGateway interface {
	// Marketplace returns the code this gateway serves.
	Marketplace() MarketplaceCode

	// CreateProduct lists a new product on the marketplace.
	CreateProduct(ctx context.Context, push *ProductPush) (*ProductPushResult, error)

	// UpdateProduct updates an existing listing identified by
	// push.RemoteProductID.
	UpdateProduct(ctx context.Context, push *ProductPush) (*ProductPushResult, error)

	// PushOrderStatus pushes a status change for a remote order. The status
	// is already translated into the marketplace's vocabulary.
	PushOrderStatus(ctx context.Context, remoteOrderID, remoteStatus string) error

	// FetchOrders pulls orders created within the window, oldest first.
	FetchOrders(ctx context.Context, window OrderWindow) ([]RemoteOrder, error)

	// Ping verifies the marketplace API is reachable with the configured
	// credentials. Used by the readiness endpoint.
	Ping(ctx context.Context) error
}

// GatewayRegistry provides access to the configured marketplace gateways.
type GatewayRegistry interface {
	// Gateway returns the gateway for a marketplace, or
	// ErrMarketplaceNotConfigured.
	Gateway(code MarketplaceCode) (MarketplaceGateway, error)

	// All returns every configured gateway.
	All() []MarketplaceGateway
}

// ---------------------------------------------------------------------------
// Credentials
// ---------------------------------------------------------------------------

// Credentials holds the externally supplied secrets and endpoint for one
// marketplace. Read-only to the engine.
type Credentials struct {
	APIKey        string
	APISecret     string
	SupplierID    string
	WebhookSecret string
	BaseURL       string
}

// CredentialStore supplies marketplace credentials. Backed by static
// configuration; the engine never writes credentials.
type CredentialStore interface {
	Get(code MarketplaceCode) (*Credentials, error)
}
