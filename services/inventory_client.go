package services

import (
	"context"
	"net/http"
)

// ReserveItem represents a single product + quantity for reservation
type ReserveItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price,omitempty"`
}

type StockCheckItem struct {
	ProductID         string `json:"product_id"`
	RequestedQuantity int    `json:"requested_quantity"`
	AvailableStock    int    `json:"available_stock"`
	Available         bool   `json:"available"`
}

type StockCheckResponse struct {
	AllAvailable bool             `json:"all_available"`
	Items        []StockCheckItem `json:"items"`
}

// InventoryGateway is the reservation-protocol contract with the inventory
// ledger. Reserve is idempotent on orderID; Release is safe to call on an
// order with no active reservation.
type InventoryGateway interface {
	CheckStock(ctx context.Context, items []ReserveItem) (*StockCheckResponse, error)
	Reserve(ctx context.Context, orderID, customerID string, items []ReserveItem, ttlMinutes int) error
	Confirm(ctx context.Context, orderID string, items []ReserveItem) error
	Release(ctx context.Context, orderID, reason string) error
}

// InventoryClient communicates with the inventory service via HTTP
type InventoryClient struct {
	gatewayClient
}

func NewInventoryClient(baseURL, token string) *InventoryClient {
	return &InventoryClient{gatewayClient: newGatewayClient(baseURL, token)}
}

type inventoryCheckRequest struct {
	Items []ReserveItem `json:"items"`
}

type inventoryReserveRequest struct {
	OrderID    string        `json:"order_id"`
	CustomerID string        `json:"customer_id"`
	Items      []ReserveItem `json:"items"`
	TTLMinutes int           `json:"ttl_minutes"`
}

type inventoryConfirmRequest struct {
	OrderID string        `json:"order_id"`
	Items   []ReserveItem `json:"items"`
}

type inventoryReleaseRequest struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

func (c *InventoryClient) CheckStock(ctx context.Context, items []ReserveItem) (*StockCheckResponse, error) {
	var out StockCheckResponse
	req := inventoryCheckRequest{Items: items}
	if err := c.doJSON(ctx, http.MethodPost, "/inventory/check", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *InventoryClient) Reserve(ctx context.Context, orderID, customerID string, items []ReserveItem, ttlMinutes int) error {
	req := inventoryReserveRequest{
		OrderID:    orderID,
		CustomerID: customerID,
		Items:      items,
		TTLMinutes: ttlMinutes,
	}
	return c.doJSON(ctx, http.MethodPost, "/inventory/reserve", req, nil)
}

func (c *InventoryClient) Confirm(ctx context.Context, orderID string, items []ReserveItem) error {
	req := inventoryConfirmRequest{OrderID: orderID, Items: items}
	return c.doJSON(ctx, http.MethodPost, "/inventory/confirm", req, nil)
}

func (c *InventoryClient) Release(ctx context.Context, orderID, reason string) error {
	req := inventoryReleaseRequest{OrderID: orderID, Reason: reason}
	return c.doJSON(ctx, http.MethodPost, "/inventory/release", req, nil)
}
