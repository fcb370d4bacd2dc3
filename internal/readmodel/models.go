package readmodel

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/shopwise/internal/auth"
	"github.com/shopspring/decimal"
)

// Read store collections
const (
	CollectionAdmins      = "admins"
	CollectionUsers       = "users"
	CollectionCredentials = "credentials"
	CollectionProducts    = "products"
	CollectionCarts       = "carts"
	CollectionOrders      = "orders"
)

// New returns a pointer to an empty model of the collection's type.
func New(collection string) (any, error) {
	switch collection {
	case CollectionAdmins:
		return &Admin{}, nil
	case CollectionUsers:
		return &User{}, nil
	case CollectionCredentials:
		return &Credential{}, nil
	case CollectionProducts:
		return &Product{}, nil
	case CollectionCarts:
		return &Cart{}, nil
	case CollectionOrders:
		return &Order{}, nil
	}
	return nil, fmt.Errorf("unknown read model collection %q", collection)
}

// PrincipalKind tells which account table a credential belongs to.
type PrincipalKind string

const (
	PrincipalAdmin    PrincipalKind = "admin"
	PrincipalCustomer PrincipalKind = "customer"
)

// CredentialKey is the credentials document id. Administrators and customers
// have separate email namespaces.
func CredentialKey(kind PrincipalKind, email string) string {
	return string(kind) + ":" + email
}

// Credential maps a normalized email to its account and secret hash. It is
// keyed by CredentialKey and never served to clients.
type Credential struct {
	Email        string        `json:"email"`
	PrincipalID  string        `json:"principalId"`
	Kind         PrincipalKind `json:"kind"`
	PasswordHash string        `json:"passwordHash"`
}

// Admin is the administrator profile served by the admin surface
type Admin struct {
	ID          string            `json:"id"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Role        auth.Role         `json:"role"`
	Permissions []auth.Permission `json:"permissions"`
	IsActive    bool              `json:"isActive"`
	LastLogin   *time.Time        `json:"lastLogin,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// User is a customer account
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      auth.Role  `json:"role"`
	Phone     string     `json:"phone,omitempty"`
	Address   Address    `json:"address"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type Review struct {
	UserID    string    `json:"user"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// LowStockThreshold is the stock level below which an in-stock product is low.
const LowStockThreshold = 10

// Product is the catalog entry. Deleted products are removed from the collection.
type Product struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          decimal.Decimal   `json:"price"`
	OriginalPrice  *decimal.Decimal  `json:"originalPrice,omitempty"`
	Category       string            `json:"category"`
	Brand          string            `json:"brand"`
	Image          string            `json:"image"`
	Images         []string          `json:"images"`
	Stock          int               `json:"stock"`
	Rating         float64           `json:"rating"`
	NumReviews     int               `json:"numReviews"`
	Reviews        []Review          `json:"reviews"`
	Specifications map[string]string `json:"specifications"`
	Features       []string          `json:"features"`
	Warranty       string            `json:"warranty"`
	ReturnPolicy   string            `json:"returnPolicy"`
	IsFeatured     bool              `json:"isFeatured"`
	IsActive       bool              `json:"isActive"`
	Views          int               `json:"views"`
	Sold           int               `json:"sold"`
	Discount       float64           `json:"discount"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// DiscountedPrice applies the percentage discount to the price.
func (p Product) DiscountedPrice() decimal.Decimal {
	if p.Discount <= 0 {
		return p.Price
	}
	off := p.Price.Mul(decimal.NewFromFloat(p.Discount)).Div(decimal.NewFromInt(100))
	return p.Price.Sub(off).Round(2)
}

func (p Product) InStock() bool { return p.Stock > 0 }

func (p Product) LowStock() bool { return p.Stock > 0 && p.Stock < LowStockThreshold }

// MarshalJSON adds the derived discountedPrice, inStock and lowStock fields.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		DiscountedPrice decimal.Decimal `json:"discountedPrice"`
		InStock         bool            `json:"inStock"`
		LowStock        bool            `json:"lowStock"`
	}{
		plain:           plain(p),
		DiscountedPrice: p.DiscountedPrice(),
		InStock:         p.InStock(),
		LowStock:        p.LowStock(),
	})
}

type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Cart holds product references only; prices are joined at read time.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type ShippingAddress struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
}

// Order is the order document shared by the customer and admin surfaces
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          string          `json:"status"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentStatus   string          `json:"paymentStatus"`
	TrackingNote    string          `json:"trackingNote,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	// Version is the last order event applied to this document.
	Version int `json:"version"`
}
