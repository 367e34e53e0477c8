package marketplace

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/integration"
)

// trendyolPageSize is the page size used when pulling orders.
const trendyolPageSize = 200

// TrendyolGateway implements MarketplaceGateway for the Trendyol supplier
// API. Authentication is HTTP basic over the API key pair; every path is
// scoped by the supplier id.
type TrendyolGateway struct {
	client     *Client
	supplierID string
	logger     *zap.Logger
}

// NewTrendyolGateway creates a Trendyol gateway from the supplier
// credentials.
func NewTrendyolGateway(creds *integration.Credentials, logger *zap.Logger, opts ...ClientOption) *TrendyolGateway {
	auth := base64.StdEncoding.EncodeToString([]byte(creds.APIKey + ":" + creds.APISecret))
	opts = append([]ClientOption{
		WithHeader("Authorization", "Basic "+auth),
		WithHeader("User-Agent", creds.SupplierID+" - SelfIntegration"),
	}, opts...)

	return &TrendyolGateway{
		client:     NewClient(creds.BaseURL, logger, opts...),
		supplierID: creds.SupplierID,
		logger:     logger,
	}
}

// Marketplace returns the marketplace code this gateway serves.
func (g *TrendyolGateway) Marketplace() integration.MarketplaceCode {
	return integration.MarketplaceTrendyol
}

// ---------------------------------------------------------------------------
// Product Operations
// ---------------------------------------------------------------------------

// CreateProduct lists a product on Trendyol.
func (g *TrendyolGateway) CreateProduct(ctx context.Context, push *integration.ProductPush) (*integration.ProductPushResult, error) {
	return g.pushProduct(ctx, "trendyol.createProduct", http.MethodPost, push)
}

// UpdateProduct updates an existing Trendyol listing.
func (g *TrendyolGateway) UpdateProduct(ctx context.Context, push *integration.ProductPush) (*integration.ProductPushResult, error) {
	return g.pushProduct(ctx, "trendyol.updateProduct", http.MethodPut, push)
}

func (g *TrendyolGateway) pushProduct(ctx context.Context, op, method string, push *integration.ProductPush) (*integration.ProductPushResult, error) {
	var resp trendyolProductResponse
	req := &Request{
		Method: method,
		Path:   fmt.Sprintf("/suppliers/%s/v2/products", g.supplierID),
		Body:   trendyolProductRequest{Items: []trendyolProductItem{toTrendyolProductItem(push)}},
	}
	if err := g.client.Do(ctx, op, req, &resp); err != nil {
		return nil, err
	}

	result := &integration.ProductPushResult{RemoteProductID: push.RemoteProductID}
	if len(resp.Items) > 0 {
		result.RemoteProductID = resp.Items[0].ProductID
		result.RemoteBarcode = resp.Items[0].Barcode
	}
	if result.RemoteProductID == "" {
		return nil, fmt.Errorf("%w: %s: response carries no product id", integration.ErrGatewayInvalidResponse, op)
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// PushOrderStatus pushes an order status in Trendyol vocabulary.
func (g *TrendyolGateway) PushOrderStatus(ctx context.Context, remoteOrderID, remoteStatus string) error {
	req := &Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/suppliers/%s/orders/%s/status", g.supplierID, url.PathEscape(remoteOrderID)),
		Body:   trendyolStatusRequest{Status: remoteStatus},
	}
	return g.client.Do(ctx, "trendyol.pushOrderStatus", req, nil)
}

// FetchOrders pulls orders created in the window, walking all pages.
func (g *TrendyolGateway) FetchOrders(ctx context.Context, window integration.OrderWindow) ([]integration.RemoteOrder, error) {
	var orders []integration.RemoteOrder

	for page := 0; ; page++ {
		query := url.Values{}
		query.Set("startDate", formatEpochMillis(window.Start))
		query.Set("endDate", formatEpochMillis(window.End))
		query.Set("page", strconv.Itoa(page))
		query.Set("size", strconv.Itoa(trendyolPageSize))
		query.Set("orderByField", "CreatedDate")
		query.Set("orderByDirection", "ASC")

		var resp trendyolOrdersResponse
		req := &Request{
			Method: http.MethodGet,
			Path:   fmt.Sprintf("/suppliers/%s/orders", g.supplierID),
			Query:  query,
		}
		if err := g.client.Do(ctx, "trendyol.fetchOrders", req, &resp); err != nil {
			return nil, err
		}

		for i := range resp.Content {
			orders = append(orders, resp.Content[i].toRemoteOrder())
		}
		if page >= resp.TotalPages-1 || len(resp.Content) == 0 {
			break
		}
	}
	return orders, nil
}

// Ping verifies the API is reachable with the configured credentials.
func (g *TrendyolGateway) Ping(ctx context.Context) error {
	req := &Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/suppliers/%s/addresses", g.supplierID),
	}
	return g.client.Do(ctx, "trendyol.ping", req, nil)
}

var _ integration.MarketplaceGateway = (*TrendyolGateway)(nil)
