package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is one product line in a customer's cart. Price, seller and
// availability are snapshots taken at add time; availability in particular is
// a hint only and is re-validated at order placement.
type CartItem struct {
	ProductID      string    `json:"product_id"`
	SellerID       string    `json:"seller_id"`
	ProductName    string    `json:"product_name"`
	ImageURL       string    `json:"image_url,omitempty"`
	Quantity       int       `json:"quantity"`
	UnitPrice      int       `json:"unit_price"`
	AvailableStock int       `json:"available_stock"`
	AddedAt        time.Time `json:"added_at"`
}

// Cart holds at most one item per product. Version backs optimistic
// concurrency in the cart repository: a save only succeeds when the stored
// version matches the one the caller read.
type Cart struct {
	CustomerID  string     `json:"customer_id"`
	Items       []CartItem `json:"items"`
	TotalItems  int        `json:"total_items"`
	TotalAmount int        `json:"total_amount"`
	Version     int64      `json:"version"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Recalculate recomputes the derived totals from the item list.
func (c *Cart) Recalculate() {
	c.TotalItems = 0
	c.TotalAmount = 0
	for _, item := range c.Items {
		c.TotalItems += item.Quantity
		c.TotalAmount += item.Quantity * item.UnitPrice
	}
}

// FindItem returns the index of the item for productID, or -1.
func (c *Cart) FindItem(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Address is the shipping address snapshot embedded into an order.
type Address struct {
	AddressID  string `json:"address_id"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type Order struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderNumber   string    `gorm:"uniqueIndex;not null"`
	CustomerID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerName  string    `gorm:"not null"`
	CustomerEmail string    `gorm:"not null"`
	Address       Address   `gorm:"embedded;embeddedPrefix:ship_"`
	Status        OrderStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	TotalItems    int         `gorm:"not null"`
	TotalAmount   int         `gorm:"not null"`
	Notes         string
	ConfirmedAt   *time.Time
	CanceledAt    *time.Time
	CancelReason  string
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
	OrderItems    []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem freezes one cart line at placement time. TotalPrice is computed
// once and never recomputed.
type OrderItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID   string    `gorm:"not null"`
	SellerID    string    `gorm:"not null;index"`
	ProductName string    `gorm:"not null"`
	ImageURL    string
	Quantity    int `gorm:"not null"`
	UnitPrice   int `gorm:"not null"`
	TotalPrice  int `gorm:"not null"`
}

// UnavailableItem names a product that failed an availability check, with the
// quantities involved.
type UnavailableItem struct {
	ProductID string `json:"product_id"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}
