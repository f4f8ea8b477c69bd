package inventory

import "time"

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationExpired   ReservationStatus = "expired"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Record is the on-hand stock for one product. Stock counts physical units;
// availability subtracts active reservations on top of it.
type Record struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

// Reservation is one product line held for an order. A reserve call for an
// order with n lines creates n reservations sharing the order id.
type Reservation struct {
	ID         string            `json:"id"`
	OrderID    string            `json:"order_id"`
	CustomerID string            `json:"customer_id"`
	ProductID  string            `json:"product_id"`
	Quantity   int               `json:"quantity"`
	Status     ReservationStatus `json:"status"`
	ReservedAt time.Time         `json:"reserved_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price,omitempty"`
}

type CheckResult struct {
	ProductID         string `json:"product_id"`
	RequestedQuantity int    `json:"requested_quantity"`
	AvailableStock    int    `json:"available_stock"`
	Available         bool   `json:"available"`
}

type CheckResponse struct {
	AllAvailable bool          `json:"all_available"`
	Items        []CheckResult `json:"items"`
}

type CheckRequest struct {
	Items []LineItem `json:"items" binding:"required,min=1,dive"`
}

type ReserveRequest struct {
	OrderID    string     `json:"order_id" binding:"required"`
	CustomerID string     `json:"customer_id" binding:"required"`
	Items      []LineItem `json:"items" binding:"required,min=1,dive"`
	TTLMinutes int        `json:"ttl_minutes"`
}

type ConfirmRequest struct {
	OrderID string     `json:"order_id" binding:"required"`
	Items   []LineItem `json:"items"`
}

type ReleaseRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	Reason  string `json:"reason"`
}

type SetStockRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Stock     int    `json:"stock" binding:"min=0"`
}
