package marketplace

import (
	"context"
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

const n11PageSize = 100

// N11Gateway implements MarketplaceGateway for the N11 REST API. N11
// authenticates with the appkey/appsecret header pair.
type N11Gateway struct {
	client *Client
	logger *zap.Logger
}

// NewN11Gateway creates an N11 gateway from the seller credentials.
func NewN11Gateway(creds *integration.Credentials, logger *zap.Logger, opts ...ClientOption) *N11Gateway {
	opts = append([]ClientOption{
		WithHeader("appkey", creds.APIKey),
		WithHeader("appsecret", creds.APISecret),
	}, opts...)

	return &N11Gateway{
		client: NewClient(creds.BaseURL, logger, opts...),
		logger: logger,
	}
}

// Marketplace returns the marketplace code this gateway serves.
func (g *N11Gateway) Marketplace() integration.MarketplaceCode {
	return integration.MarketplaceN11
}

// ---------------------------------------------------------------------------
// Wire Types
// ---------------------------------------------------------------------------

type n11Product struct {
	ProductID  string          `json:"id,omitempty"`
	Title      string          `json:"title"`
	StockCode  string          `json:"stockCode"`
	Barcode    string          `json:"barcode"`
	CategoryID string          `json:"categoryId"`
	BrandID    string          `json:"brandId"`
	ListPrice  decimal.Decimal `json:"price"`
	SalePrice  decimal.Decimal `json:"salePrice"`
	Quantity   int64           `json:"quantity"`
	Images     []string        `json:"images,omitempty"`
	Attributes []n11Attribute  `json:"attributes,omitempty"`
}

type n11Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type n11ProductResponse struct {
	ID      json.Number `json:"id"`
	Barcode string      `json:"barcode"`
}

type n11Order struct {
	ID          json.Number     `json:"id"`
	OrderNumber string          `json:"orderNumber"`
	Status      string          `json:"status"`
	Buyer       n11Buyer        `json:"buyer"`
	Address     n11Address      `json:"shippingAddress"`
	Lines       []n11OrderLine  `json:"lines"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Currency    string          `json:"currency"`
	CreatedAt   string          `json:"createdAt"` // "2006-01-02 15:04:05"
}

type n11Buyer struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type n11Address struct {
	Address string `json:"address"`
	City    string `json:"city"`
}

type n11OrderLine struct {
	Barcode     string          `json:"barcode"`
	StockCode   string          `json:"sellerStockCode"`
	ProductName string          `json:"productName"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type n11OrdersResponse struct {
	Orders     []n11Order `json:"content"`
	TotalPages int        `json:"totalPages"`
}

func (o *n11Order) toRemoteOrder() integration.RemoteOrder {
	order := integration.RemoteOrder{
		RemoteOrderID:   o.ID.String(),
		OrderNumber:     o.OrderNumber,
		Marketplace:     integration.MarketplaceN11,
		Status:          o.Status,
		CustomerName:    o.Buyer.FullName,
		CustomerEmail:   o.Buyer.Email,
		ShippingAddress: o.Address.Address,
		ShippingCity:    o.Address.City,
		GrossAmount:     o.TotalAmount,
		Currency:        o.Currency,
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", o.CreatedAt, time.Local); err == nil {
		order.PlacedAt = t
	}
	for _, line := range o.Lines {
		order.Lines = append(order.Lines, integration.RemoteOrderLine{
			Barcode:     line.Barcode,
			StockCode:   line.StockCode,
			ProductName: line.ProductName,
			Quantity:    decimal.NewFromInt(line.Quantity),
			UnitPrice:   line.Price,
		})
	}
	if raw, err := json.Marshal(o); err == nil {
		order.RawPayload = string(raw)
	}
	return order
}

// ---------------------------------------------------------------------------
// Product Operations
// ---------------------------------------------------------------------------

// CreateProduct lists a product on N11.
func (g *N11Gateway) CreateProduct(ctx context.Context, push *integration.ProductPush) (*integration.ProductPushResult, error) {
	return g.pushProduct(ctx, "n11.createProduct", http.MethodPost, "/ms/products", push)
}

// UpdateProduct updates an existing N11 listing.
func (g *N11Gateway) UpdateProduct(ctx context.Context, push *integration.ProductPush) (*integration.ProductPushResult, error) {
	path := "/ms/products/" + url.PathEscape(push.RemoteProductID)
	return g.pushProduct(ctx, "n11.updateProduct", http.MethodPut, path, push)
}

func (g *N11Gateway) pushProduct(ctx context.Context, op, method, path string, push *integration.ProductPush) (*integration.ProductPushResult, error) {
	body := n11Product{
		ProductID:  push.RemoteProductID,
		Title:      push.Title,
		StockCode:  push.StockCode,
		Barcode:    push.Barcode,
		CategoryID: push.RemoteCategoryID,
		BrandID:    push.RemoteBrandID,
		ListPrice:  push.ListPrice,
		SalePrice:  push.SalePrice,
		Quantity:   push.Quantity.IntPart(),
		Images:     push.ImageURLs,
	}
	for name, value := range push.Attributes {
		body.Attributes = append(body.Attributes, n11Attribute{Name: name, Value: value})
	}

	var resp n11ProductResponse
	if err := g.client.Do(ctx, op, &Request{Method: method, Path: path, Body: body}, &resp); err != nil {
		return nil, err
	}

	result := &integration.ProductPushResult{
		RemoteProductID: resp.ID.String(),
		RemoteBarcode:   resp.Barcode,
	}
	if result.RemoteProductID == "" {
		result.RemoteProductID = push.RemoteProductID
	}
	if result.RemoteProductID == "" {
		return nil, fmt.Errorf("%w: %s: response carries no product id", integration.ErrGatewayInvalidResponse, op)
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// PushOrderStatus pushes an order status in N11 vocabulary.
func (g *N11Gateway) PushOrderStatus(ctx context.Context, remoteOrderID, remoteStatus string) error {
	req := &Request{
		Method: http.MethodPut,
		Path:   "/ms/orders/" + url.PathEscape(remoteOrderID) + "/status",
		Body:   map[string]string{"status": remoteStatus},
	}
	return g.client.Do(ctx, "n11.pushOrderStatus", req, nil)
}

// FetchOrders pulls orders created in the window, walking all pages.
func (g *N11Gateway) FetchOrders(ctx context.Context, window integration.OrderWindow) ([]integration.RemoteOrder, error) {
	var orders []integration.RemoteOrder

	for page := 0; ; page++ {
		query := url.Values{}
		query.Set("startDate", window.Start.Format("2006-01-02 15:04:05"))
		query.Set("endDate", window.End.Format("2006-01-02 15:04:05"))
		query.Set("page", strconv.Itoa(page))
		query.Set("size", strconv.Itoa(n11PageSize))

		var resp n11OrdersResponse
		req := &Request{Method: http.MethodGet, Path: "/ms/orders", Query: query}
		if err := g.client.Do(ctx, "n11.fetchOrders", req, &resp); err != nil {
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
func (g *N11Gateway) Ping(ctx context.Context) error {
	return g.client.Do(ctx, "n11.ping", &Request{Method: http.MethodGet, Path: "/ms/sellers/me"}, nil)
}

var _ integration.MarketplaceGateway = (*N11Gateway)(nil)
