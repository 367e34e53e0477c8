package marketplace

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/integration"
)

const hepsiburadaPageSize = 100

// HepsiburadaGateway implements MarketplaceGateway for the Hepsiburada
// merchant API. Authentication is HTTP basic over merchant id and secret;
// the merchant id also scopes the listing paths.
type HepsiburadaGateway struct {
	client     *Client
	merchantID string
	logger     *zap.Logger
}

// NewHepsiburadaGateway creates a Hepsiburada gateway from the merchant
// credentials.
func NewHepsiburadaGateway(creds *integration.Credentials, logger *zap.Logger, opts ...ClientOption) *HepsiburadaGateway {
	auth := base64.StdEncoding.EncodeToString([]byte(creds.APIKey + ":" + creds.APISecret))
	opts = append([]ClientOption{
		WithHeader("Authorization", "Basic "+auth),
	}, opts...)

	return &HepsiburadaGateway{
		client:     NewClient(creds.BaseURL, logger, opts...),
		merchantID: creds.SupplierID,
		logger:     logger,
	}
}

// Marketplace returns the marketplace code this gateway serves.
func (g *HepsiburadaGateway) Marketplace() integration.MarketplaceCode {
	return integration.MarketplaceHepsiburada
}

// ---------------------------------------------------------------------------
// Wire Types
// ---------------------------------------------------------------------------

type hepsiburadaListing struct {
	ListingID   string            `json:"listingId,omitempty"`
	Title       string            `json:"title"`
	MerchantSku string            `json:"merchantSku"`
	Barcode     string            `json:"barcode"`
	CategoryID  string            `json:"categoryId"`
	BrandID     string            `json:"brand"`
	Price       decimal.Decimal   `json:"price"`
	SalePrice   decimal.Decimal   `json:"salePrice"`
	Stock       int64             `json:"availableStock"`
	Images      []string          `json:"images,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

type hepsiburadaListingResponse struct {
	ListingID string `json:"listingId"`
	Barcode   string `json:"barcode"`
}

type hepsiburadaOrder struct {
	OrderID     string                 `json:"id"`
	OrderNumber string                 `json:"orderNumber"`
	Status      string                 `json:"status"`
	Customer    struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"customer"`
	Address struct {
		FullAddress string `json:"address"`
		City        string `json:"city"`
	} `json:"shippingAddress"`
	Items       []hepsiburadaOrderItem `json:"items"`
	TotalAmount decimal.Decimal        `json:"totalPrice"`
	Currency    string                 `json:"currency"`
	OrderDate   time.Time              `json:"orderDate"`
}

type hepsiburadaOrderItem struct {
	Barcode     string          `json:"barcode"`
	MerchantSku string          `json:"merchantSku"`
	Name        string          `json:"name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type hepsiburadaOrdersResponse struct {
	Orders     []hepsiburadaOrder `json:"items"`
	TotalPages int                `json:"totalPages"`
}

func (o *hepsiburadaOrder) toRemoteOrder() integration.RemoteOrder {
	order := integration.RemoteOrder{
		RemoteOrderID:   o.OrderID,
		OrderNumber:     o.OrderNumber,
		Marketplace:     integration.MarketplaceHepsiburada,
		Status:          o.Status,
		CustomerName:    o.Customer.Name,
		CustomerEmail:   o.Customer.Email,
		ShippingAddress: o.Address.FullAddress,
		ShippingCity:    o.Address.City,
		GrossAmount:     o.TotalAmount,
		Currency:        o.Currency,
		PlacedAt:        o.OrderDate,
	}
	for _, item := range o.Items {
		order.Lines = append(order.Lines, integration.RemoteOrderLine{
			Barcode:     item.Barcode,
			StockCode:   item.MerchantSku,
			ProductName: item.Name,
			Quantity:    decimal.NewFromInt(item.Quantity),
			UnitPrice:   item.UnitPrice,
		})
	}
	if raw, err := json.Marshal(o); err == nil {
		order.RawPayload = string(raw)
	}
	return order
}

// ---------------------------------------------------------------------------
// Gateway Operations
// ---------------------------------------------------------------------------

// CreateProduct lists a product on Hepsiburada.
func (g *HepsiburadaGateway) CreateProduct(ctx context.Context, push *integration.ProductPush) (*integration.ProductPushResult, error) {
	path := fmt.Sprintf("/listings/merchantid/%s", g.merchantID)
	return g.pushListing(ctx, "hepsiburada.createProduct", http.MethodPost, path, push)
}

// UpdateProduct updates an existing Hepsiburada listing.
func (g *HepsiburadaGateway) UpdateProduct(ctx context.Context, push *integration.ProductPush) (*integration.ProductPushResult, error) {
	path := fmt.Sprintf("/listings/merchantid/%s/listing/%s", g.merchantID, url.PathEscape(push.RemoteProductID))
	return g.pushListing(ctx, "hepsiburada.updateProduct", http.MethodPut, path, push)
}

func (g *HepsiburadaGateway) pushListing(ctx context.Context, op, method, path string, push *integration.ProductPush) (*integration.ProductPushResult, error) {
	body := hepsiburadaListing{
		ListingID:   push.RemoteProductID,
		Title:       push.Title,
		MerchantSku: push.StockCode,
		Barcode:     push.Barcode,
		CategoryID:  push.RemoteCategoryID,
		BrandID:     push.RemoteBrandID,
		Price:       push.ListPrice,
		SalePrice:   push.SalePrice,
		Stock:       push.Quantity.IntPart(),
		Images:      push.ImageURLs,
		Attributes:  push.Attributes,
	}

	var resp hepsiburadaListingResponse
	if err := g.client.Do(ctx, op, &Request{Method: method, Path: path, Body: body}, &resp); err != nil {
		return nil, err
	}

	result := &integration.ProductPushResult{
		RemoteProductID: resp.ListingID,
		RemoteBarcode:   resp.Barcode,
	}
	if result.RemoteProductID == "" {
		result.RemoteProductID = push.RemoteProductID
	}
	if result.RemoteProductID == "" {
		return nil, fmt.Errorf("%w: %s: response carries no listing id", integration.ErrGatewayInvalidResponse, op)
	}
	return result, nil
}

// PushOrderStatus pushes an order status in Hepsiburada vocabulary.
func (g *HepsiburadaGateway) PushOrderStatus(ctx context.Context, remoteOrderID, remoteStatus string) error {
	req := &Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/orders/merchantid/%s/id/%s/status", g.merchantID, url.PathEscape(remoteOrderID)),
		Body:   map[string]string{"status": remoteStatus},
	}
	return g.client.Do(ctx, "hepsiburada.pushOrderStatus", req, nil)
}

// FetchOrders pulls orders created in the window, walking all pages.
func (g *HepsiburadaGateway) FetchOrders(ctx context.Context, window integration.OrderWindow) ([]integration.RemoteOrder, error) {
	var orders []integration.RemoteOrder

	for page := 0; ; page++ {
		query := url.Values{}
		query.Set("begindate", window.Start.Format(time.RFC3339))
		query.Set("enddate", window.End.Format(time.RFC3339))
		query.Set("offset", strconv.Itoa(page))
		query.Set("limit", strconv.Itoa(hepsiburadaPageSize))

		var resp hepsiburadaOrdersResponse
		req := &Request{
			Method: http.MethodGet,
			Path:   fmt.Sprintf("/orders/merchantid/%s", g.merchantID),
			Query:  query,
		}
		if err := g.client.Do(ctx, "hepsiburada.fetchOrders", req, &resp); err != nil {
			return nil, err
		}

		for i := range resp.Orders {
			orders = append(orders, resp.Orders[i].toRemoteOrder())
		}
		if page >= resp.TotalPages-1 || len(resp.Orders) == 0 {
			break
		}
	}
	return orders, nil
}

// Ping verifies the API is reachable with the configured credentials.
func (g *HepsiburadaGateway) Ping(ctx context.Context) error {
	path := fmt.Sprintf("/listings/merchantid/%s?limit=1", g.merchantID)
	return g.client.Do(ctx, "hepsiburada.ping", &Request{Method: http.MethodGet, Path: path}, nil)
}

var _ integration.MarketplaceGateway = (*HepsiburadaGateway)(nil)
