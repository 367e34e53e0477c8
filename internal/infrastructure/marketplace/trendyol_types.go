package marketplace

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketsync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Trendyol Wire Types
// ---------------------------------------------------------------------------

// trendyolProductItem is one entry of a product create/update request.
type trendyolProductItem struct {
	Barcode      string              `json:"barcode"`
	Title        string              `json:"title"`
	ProductCode  string              `json:"stockCode"`
	BrandID      string              `json:"brandId"`
	CategoryID   string              `json:"categoryId"`
	Quantity     int64               `json:"quantity"`
	ListPrice    decimal.Decimal     `json:"listPrice"`
	SalePrice    decimal.Decimal     `json:"salePrice"`
	CurrencyType string              `json:"currencyType"`
	Images       []trendyolImage     `json:"images,omitempty"`
	Attributes   []trendyolAttribute `json:"attributes,omitempty"`
}

type trendyolImage struct {
	URL string `json:"url"`
}

type trendyolAttribute struct {
	Name  string `json:"attributeName"`
	Value string `json:"attributeValue"`
}

type trendyolProductRequest struct {
	Items []trendyolProductItem `json:"items"`
}

type trendyolProductResponse struct {
	Items []struct {
		ProductID string `json:"productId"`
		Barcode   string `json:"barcode"`
	} `json:"items"`
}

type trendyolStatusRequest struct {
	Status string `json:"status"`
}

// trendyolOrder mirrors one shipment package of the orders endpoint.
type trendyolOrder struct {
	ID            json.Number         `json:"id"`
	OrderNumber   string              `json:"orderNumber"`
	Status        string              `json:"status"`
	CustomerFirst string              `json:"customerFirstName"`
	CustomerLast  string              `json:"customerLastName"`
	CustomerEmail string              `json:"customerEmail"`
	Address       trendyolAddress     `json:"shipmentAddress"`
	Lines         []trendyolOrderLine `json:"lines"`
	GrossAmount   decimal.Decimal     `json:"grossAmount"`
	CurrencyCode  string              `json:"currencyCode"`
	OrderDate     int64               `json:"orderDate"` // epoch millis
}

type trendyolAddress struct {
	FullAddress string `json:"fullAddress"`
	City        string `json:"city"`
}

type trendyolOrderLine struct {
	Barcode     string          `json:"barcode"`
	MerchantSku string          `json:"merchantSku"`
	ProductName string          `json:"productName"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type trendyolOrdersResponse struct {
	Content       []trendyolOrder `json:"content"`
	TotalElements int64           `json:"totalElements"`
	TotalPages    int             `json:"totalPages"`
	Page          int             `json:"page"`
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

func toTrendyolProductItem(push *integration.ProductPush) trendyolProductItem {
	item := trendyolProductItem{
		Barcode:      push.Barcode,
		Title:        push.Title,
		ProductCode:  push.StockCode,
		BrandID:      push.RemoteBrandID,
		CategoryID:   push.RemoteCategoryID,
		Quantity:     push.Quantity.IntPart(),
		ListPrice:    push.ListPrice,
		SalePrice:    push.SalePrice,
		CurrencyType: "TRY",
	}
	for _, u := range push.ImageURLs {
		item.Images = append(item.Images, trendyolImage{URL: u})
	}
	for name, value := range push.Attributes {
		item.Attributes = append(item.Attributes, trendyolAttribute{Name: name, Value: value})
	}
	return item
}

func (o *trendyolOrder) toRemoteOrder() integration.RemoteOrder {
	order := integration.RemoteOrder{
		RemoteOrderID:   o.ID.String(),
		OrderNumber:     o.OrderNumber,
		Marketplace:     integration.MarketplaceTrendyol,
		Status:          o.Status,
		CustomerName:    joinName(o.CustomerFirst, o.CustomerLast),
		CustomerEmail:   o.CustomerEmail,
		ShippingAddress: o.Address.FullAddress,
		ShippingCity:    o.Address.City,
		GrossAmount:     o.GrossAmount,
		Currency:        o.CurrencyCode,
		PlacedAt:        time.UnixMilli(o.OrderDate),
	}
	for _, line := range o.Lines {
		order.Lines = append(order.Lines, integration.RemoteOrderLine{
			Barcode:     line.Barcode,
			StockCode:   line.MerchantSku,
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

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}

func formatEpochMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
