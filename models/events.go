package models

import "time"

// Topics. Events for one key (order number, product id, recipient id) always
// land in the same partition, so a single consumer sees them in order.
const (
	TopicOrders        = "orders"
	TopicInventory     = "inventory"
	TopicNotifications = "notifications"
)

const (
	EventOrderPlaced        = "order_placed"
	EventOrderConfirmed     = "order_confirmed"
	EventOrderCancelled     = "order_cancelled"
	EventOrderStatusUpdated = "order_status_updated"

	EventStockReserved      = "stock_reserved"
	EventStockReleased      = "stock_released"
	EventStockConfirmed     = "stock_confirmed"
	EventReservationExpired = "reservation_expired"

	EventCustomerOrderPlaced = "customer_order_placed"
	EventSellerOrderPlaced   = "seller_order_placed"
)

// Envelope wraps every published event. Delivery is at-least-once; consumers
// dedup on EventID (or EntityID+EventType).
type Envelope struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
	Producer  string    `json:"producer,omitempty"`
	Data      any       `json:"data"`
}

type OrderEventItem struct {
	ProductID  string `json:"product_id"`
	SellerID   string `json:"seller_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int    `json:"unit_price"`
	TotalPrice int    `json:"total_price"`
}

type OrderEventPayload struct {
	OrderID     string           `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	CustomerID  string           `json:"customer_id"`
	Status      OrderStatus      `json:"status"`
	TotalAmount int              `json:"total_amount"`
	Items       []OrderEventItem `json:"items,omitempty"`
	Reason      string           `json:"reason,omitempty"`
}

// CustomerNotificationPayload is keyed by the customer id.
type CustomerNotificationPayload struct {
	RecipientID string `json:"recipient_id"`
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	TotalAmount int    `json:"total_amount"`
	ItemCount   int    `json:"item_count"`
}

// SellerNotificationPayload carries one seller's subset of an order, keyed by
// the seller id.
type SellerNotificationPayload struct {
	RecipientID string           `json:"recipient_id"`
	OrderID     string           `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	Items       []OrderEventItem `json:"items"`
	Subtotal    int              `json:"subtotal"`
}
