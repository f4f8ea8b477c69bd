package controllers

import (
	"time"

	"github.com/yashrajoria/order-saga-service/models"
)

// Responses are projected explicitly; the storage models never leak to the
// wire, so schema changes stay a deliberate API decision.

type OrderItemResponse struct {
	ProductID   string `json:"product_id"`
	SellerID    string `json:"seller_id"`
	ProductName string `json:"product_name"`
	ImageURL    string `json:"image_url,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int    `json:"unit_price"`
	TotalPrice  int    `json:"total_price"`
}

type AddressResponse struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	OrderNumber   string              `json:"order_number"`
	CustomerID    string              `json:"customer_id"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail string              `json:"customer_email"`
	Status        models.OrderStatus  `json:"status"`
	Address       AddressResponse     `json:"shipping_address"`
	Items         []OrderItemResponse `json:"items"`
	TotalItems    int                 `json:"total_items"`
	TotalAmount   int                 `json:"total_amount"`
	Notes         string              `json:"notes,omitempty"`
	CancelReason  string              `json:"cancel_reason,omitempty"`
	ConfirmedAt   *time.Time          `json:"confirmed_at,omitempty"`
	CanceledAt    *time.Time          `json:"canceled_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type CartItemResponse struct {
	ProductID   string    `json:"product_id"`
	SellerID    string    `json:"seller_id"`
	ProductName string    `json:"product_name"`
	ImageURL    string    `json:"image_url,omitempty"`
	Quantity    int       `json:"quantity"`
	UnitPrice   int       `json:"unit_price"`
	AddedAt     time.Time `json:"added_at"`
}

type CartResponse struct {
	CustomerID  string             `json:"customer_id"`
	Items       []CartItemResponse `json:"items"`
	TotalItems  int                `json:"total_items"`
	TotalAmount int                `json:"total_amount"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func toOrderResponse(order *models.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		items = append(items, OrderItemResponse{
			ProductID:   item.ProductID,
			SellerID:    item.SellerID,
			ProductName: item.ProductName,
			ImageURL:    item.ImageURL,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	return OrderResponse{
		ID:            order.ID.String(),
		OrderNumber:   order.OrderNumber,
		CustomerID:    order.CustomerID.String(),
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Status:        order.Status,
		Address: AddressResponse{
			Line1:      order.Address.Line1,
			Line2:      order.Address.Line2,
			City:       order.Address.City,
			State:      order.Address.State,
			PostalCode: order.Address.PostalCode,
			Country:    order.Address.Country,
		},
		Items:        items,
		TotalItems:   order.TotalItems,
		TotalAmount:  order.TotalAmount,
		Notes:        order.Notes,
		CancelReason: order.CancelReason,
		ConfirmedAt:  order.ConfirmedAt,
		CanceledAt:   order.CanceledAt,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}

func toOrderResponses(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return out
}

func toCartResponse(cart *models.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemResponse{
			ProductID:   item.ProductID,
			SellerID:    item.SellerID,
			ProductName: item.ProductName,
			ImageURL:    item.ImageURL,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			AddedAt:     item.AddedAt,
		})
	}
	return CartResponse{
		CustomerID:  cart.CustomerID,
		Items:       items,
		TotalItems:  cart.TotalItems,
		TotalAmount: cart.TotalAmount,
		UpdatedAt:   cart.UpdatedAt,
	}
}
