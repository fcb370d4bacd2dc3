package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusUpdated = "OrderStatusUpdated"
)

// Item is a line item priced at placement time. Later catalog changes never
// touch it.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is price times quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Address struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
}

type OrderPlaced struct {
	OrderID         string          `json:"order_id"`
	UserID          string          `json:"user_id"`
	Items           []Item          `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress Address         `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	PlacedAt        time.Time       `json:"placed_at"`
}

// OrderStatusUpdated is emitted by every admin status change, including a
// change to the current status. TrackingNote is empty when unchanged.
type OrderStatusUpdated struct {
	OrderID        string     `json:"order_id"`
	PreviousStatus Status     `json:"previous_status"`
	Status         Status     `json:"status"`
	TrackingNote   string     `json:"tracking_note,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
