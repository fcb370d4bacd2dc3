package command

import (
	"github.com/example/shopwise/internal/domain/order"
	"github.com/example/shopwise/internal/domain/user"
	"github.com/shopspring/decimal"
)

// Account Commands
type AdminLogin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterCustomer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CustomerLogin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfile struct {
	UserID  string        `json:"-"`
	Name    *string       `json:"name"`
	Phone   *string       `json:"phone"`
	Address *user.Address `json:"address"`
}

type ChangePassword struct {
	UserID          string `json:"-"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdateAdminAccess changes another administrator. Nil fields are left as is.
type UpdateAdminAccess struct {
	AdminID     string    `json:"-"`
	ChangedBy   string    `json:"-"`
	Role        *string   `json:"role"`
	Permissions *[]string `json:"permissions"`
	IsActive    *bool     `json:"isActive"`
}

// Product Commands
type CreateProduct struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          *decimal.Decimal  `json:"price"`
	OriginalPrice  *decimal.Decimal  `json:"originalPrice"`
	Category       string            `json:"category"`
	Brand          string            `json:"brand"`
	Image          string            `json:"image"`
	Images         []string          `json:"images"`
	Stock          int               `json:"stock"`
	Specifications map[string]string `json:"specifications"`
	Features       []string          `json:"features"`
	Warranty       string            `json:"warranty"`
	ReturnPolicy   string            `json:"returnPolicy"`
	IsFeatured     bool              `json:"isFeatured"`
	IsActive       *bool             `json:"isActive"`
	Discount       float64           `json:"discount"`
}

type UpdateProduct struct {
	ProductID      string             `json:"-"`
	Name           *string            `json:"name"`
	Description    *string            `json:"description"`
	Price          *decimal.Decimal   `json:"price"`
	OriginalPrice  *decimal.Decimal   `json:"originalPrice"`
	Category       *string            `json:"category"`
	Brand          *string            `json:"brand"`
	Image          *string            `json:"image"`
	Images         *[]string          `json:"images"`
	Stock          *int               `json:"stock"`
	Rating         *float64           `json:"rating"`
	Specifications *map[string]string `json:"specifications"`
	Features       *[]string          `json:"features"`
	Warranty       *string            `json:"warranty"`
	ReturnPolicy   *string            `json:"returnPolicy"`
	IsFeatured     *bool              `json:"isFeatured"`
	IsActive       *bool              `json:"isActive"`
	Discount       *float64           `json:"discount"`
}

type DeleteProduct struct {
	ProductID string `json:"-"`
}

type AddReview struct {
	ProductID string `json:"-"`
	UserID    string `json:"-"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type RemoveReview struct {
	ProductID string `json:"-"`
	UserID    string `json:"-"`
}

// Cart Commands
type AddToCart struct {
	UserID    string `json:"-"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type SetCartQuantity struct {
	UserID    string `json:"-"`
	ProductID string `json:"-"`
	Quantity  int    `json:"quantity"`
}

type RemoveFromCart struct {
	UserID    string `json:"-"`
	ProductID string `json:"-"`
}

type ClearCart struct {
	UserID string `json:"-"`
}

// Order Commands
type OrderLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrder checks out the given lines, or the customer's cart when Items
// is empty.
type PlaceOrder struct {
	UserID          string        `json:"-"`
	Items           []OrderLine   `json:"items"`
	ShippingAddress order.Address `json:"shippingAddress"`
	PaymentMethod   string        `json:"paymentMethod"`
}

type UpdateOrderStatus struct {
	OrderID      string `json:"-"`
	Status       string `json:"status"`
	TrackingNote string `json:"trackingNote"`
}
