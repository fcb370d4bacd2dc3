package product

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventProductCreated          = "ProductCreated"
	EventProductUpdated          = "ProductUpdated"
	EventProductDeleted          = "ProductDeleted"
	EventProductReviewAdded      = "ProductReviewAdded"
	EventProductReviewRemoved    = "ProductReviewRemoved"
	EventProductStockDecremented = "ProductStockDecremented"
)

type Review struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type ProductCreated struct {
	ProductID      string            `json:"product_id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          decimal.Decimal   `json:"price"`
	OriginalPrice  *decimal.Decimal  `json:"original_price,omitempty"`
	Category       string            `json:"category"`
	Brand          string            `json:"brand"`
	Image          string            `json:"image"`
	Images         []string          `json:"images,omitempty"`
	Stock          int               `json:"stock"`
	Rating         float64           `json:"rating"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Features       []string          `json:"features,omitempty"`
	Warranty       string            `json:"warranty"`
	ReturnPolicy   string            `json:"return_policy"`
	IsFeatured     bool              `json:"is_featured"`
	IsActive       bool              `json:"is_active"`
	Discount       float64           `json:"discount"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ProductUpdated carries only the fields that changed.
type ProductUpdated struct {
	ProductID string    `json:"product_id"`
	Patch     Patch     `json:"patch"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProductDeleted struct {
	ProductID string    `json:"product_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// ProductReviewAdded adds or replaces the author's review and carries the
// recomputed aggregate rating.
type ProductReviewAdded struct {
	ProductID  string    `json:"product_id"`
	Review     Review    `json:"review"`
	Rating     float64   `json:"rating"`
	NumReviews int       `json:"num_reviews"`
	AddedAt    time.Time `json:"added_at"`
}

type ProductReviewRemoved struct {
	ProductID  string    `json:"product_id"`
	UserID     string    `json:"user_id"`
	Rating     float64   `json:"rating"`
	NumReviews int       `json:"num_reviews"`
	RemovedAt  time.Time `json:"removed_at"`
}

type ProductStockDecremented struct {
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Stock     int       `json:"stock"`
	Sold      int       `json:"sold"`
	At        time.Time `json:"at"`
}
