package product

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/example/shopwise/internal/domain"
	"github.com/example/shopwise/internal/domain/aggregate"
	"github.com/example/shopwise/internal/infrastructure/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateType = "Product"

const (
	DefaultImage        = "https://via.placeholder.com/400x400?text=No+Image"
	DefaultRating       = 4.0
	DefaultWarranty     = "1 Year Manufacturer Warranty"
	DefaultReturnPolicy = "7 Days Return & Exchange"
)

var (
	ErrProductNotFound   = domain.New(domain.ErrNotFound, "Product not found")
	ErrReviewNotFound    = domain.New(domain.ErrNotFound, "Review not found")
	ErrInvalidName       = domain.Invalid("name", "Product name is required")
	ErrInvalidPrice      = domain.Invalid("price", "Price must not be negative")
	ErrInvalidStock      = domain.Invalid("stock", "Stock must not be negative")
	ErrInvalidRating     = domain.Invalid("rating", "Rating must be between 0 and 5")
	ErrInvalidDiscount   = domain.Invalid("discount", "Discount must be between 0 and 100")
	ErrInvalidReview     = domain.Invalid("rating", "Review rating must be between 1 and 5")
	ErrInvalidQuantity   = domain.Invalid("quantity", "Quantity must be at least 1")
	ErrInsufficientStock = domain.New(domain.ErrConflict, "Insufficient stock")
)

type Product struct {
	ID             string            `json:"id"`
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
	NumReviews     int               `json:"num_reviews"`
	Reviews        []Review          `json:"reviews,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Features       []string          `json:"features,omitempty"`
	Warranty       string            `json:"warranty"`
	ReturnPolicy   string            `json:"return_policy"`
	IsFeatured     bool              `json:"is_featured"`
	IsActive       bool              `json:"is_active"`
	Sold           int               `json:"sold"`
	Discount       float64           `json:"discount"`
	IsDeleted      bool              `json:"is_deleted,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	Version        int               `json:"version"`
}

func (p *Product) GetID() string    { return p.ID }
func (p *Product) GetVersion() int  { return p.Version }
func (p *Product) SetVersion(v int) { p.Version = v }

// Draft holds the fields accepted on creation. Zero values of the optional
// fields fall back to the catalog defaults.
type Draft struct {
	Name           string
	Description    string
	Price          decimal.Decimal
	OriginalPrice  *decimal.Decimal
	Category       string
	Brand          string
	Image          string
	Images         []string
	Stock          int
	Rating         *float64
	Specifications map[string]string
	Features       []string
	Warranty       string
	ReturnPolicy   string
	IsFeatured     bool
	IsActive       *bool
	Discount       float64
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Name           *string            `json:"name,omitempty"`
	Description    *string            `json:"description,omitempty"`
	Price          *decimal.Decimal   `json:"price,omitempty"`
	OriginalPrice  *decimal.Decimal   `json:"original_price,omitempty"`
	Category       *string            `json:"category,omitempty"`
	Brand          *string            `json:"brand,omitempty"`
	Image          *string            `json:"image,omitempty"`
	Images         *[]string          `json:"images,omitempty"`
	Stock          *int               `json:"stock,omitempty"`
	Rating         *float64           `json:"rating,omitempty"`
	Specifications *map[string]string `json:"specifications,omitempty"`
	Features       *[]string          `json:"features,omitempty"`
	Warranty       *string            `json:"warranty,omitempty"`
	ReturnPolicy   *string            `json:"return_policy,omitempty"`
	IsFeatured     *bool              `json:"is_featured,omitempty"`
	IsActive       *bool              `json:"is_active,omitempty"`
	Discount       *float64           `json:"discount,omitempty"`
}

func validate(name string, price decimal.Decimal, stock int, rating, discount float64) error {
	switch {
	case strings.TrimSpace(name) == "":
		return ErrInvalidName
	case price.IsNegative():
		return ErrInvalidPrice
	case stock < 0:
		return ErrInvalidStock
	case rating < 0 || rating > 5:
		return ErrInvalidRating
	case discount < 0 || discount > 100:
		return ErrInvalidDiscount
	}
	return nil
}

// ApplyEvent applies a single event to the product state
func (p *Product) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventProductCreated:
		var data ProductCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		*p = Product{
			ID:             data.ProductID,
			Name:           data.Name,
			Description:    data.Description,
			Price:          data.Price,
			OriginalPrice:  data.OriginalPrice,
			Category:       data.Category,
			Brand:          data.Brand,
			Image:          data.Image,
			Images:         data.Images,
			Stock:          data.Stock,
			Rating:         data.Rating,
			Specifications: data.Specifications,
			Features:       data.Features,
			Warranty:       data.Warranty,
			ReturnPolicy:   data.ReturnPolicy,
			IsFeatured:     data.IsFeatured,
			IsActive:       data.IsActive,
			Discount:       data.Discount,
			CreatedAt:      data.CreatedAt,
			UpdatedAt:      data.CreatedAt,
		}
	case EventProductUpdated:
		var data ProductUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.applyPatch(data.Patch)
		p.UpdatedAt = data.UpdatedAt
	case EventProductDeleted:
		p.IsDeleted = true
	case EventProductReviewAdded:
		var data ProductReviewAdded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Reviews = upsertReview(p.Reviews, data.Review)
		p.Rating = data.Rating
		p.NumReviews = data.NumReviews
	case EventProductReviewRemoved:
		var data ProductReviewRemoved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Reviews = removeReview(p.Reviews, data.UserID)
		p.Rating = data.Rating
		p.NumReviews = data.NumReviews
	case EventProductStockDecremented:
		var data ProductStockDecremented
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Stock = data.Stock
		p.Sold = data.Sold
	}
	p.Version = event.Version
	return nil
}

func (p *Product) applyPatch(patch Patch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.OriginalPrice != nil {
		p.OriginalPrice = patch.OriginalPrice
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Images != nil {
		p.Images = *patch.Images
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Rating != nil {
		p.Rating = *patch.Rating
	}
	if patch.Specifications != nil {
		p.Specifications = *patch.Specifications
	}
	if patch.Features != nil {
		p.Features = *patch.Features
	}
	if patch.Warranty != nil {
		p.Warranty = *patch.Warranty
	}
	if patch.ReturnPolicy != nil {
		p.ReturnPolicy = *patch.ReturnPolicy
	}
	if patch.IsFeatured != nil {
		p.IsFeatured = *patch.IsFeatured
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if patch.Discount != nil {
		p.Discount = *patch.Discount
	}
}

func upsertReview(reviews []Review, r Review) []Review {
	out := removeReview(reviews, r.UserID)
	return append(out, r)
}

func removeReview(reviews []Review, userID string) []Review {
	out := make([]Review, 0, len(reviews))
	for _, existing := range reviews {
		if existing.UserID != userID {
			out = append(out, existing)
		}
	}
	return out
}

// AverageRating is the mean review rating rounded to one decimal, 0 without reviews.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(reviews))*10) / 10
}

type Service struct {
	eventStore store.EventStoreInterface
	now        func() time.Time
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es, now: time.Now}
}

func (s *Service) loadProduct(ctx context.Context, productID string) (*Product, error) {
	p, found, err := aggregate.Load(ctx, s.eventStore, productID, func() *Product {
		return &Product{}
	})
	if err != nil {
		return nil, err
	}
	if !found || p.IsDeleted {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// Get returns the current product state.
func (s *Service) Get(ctx context.Context, productID string) (*Product, error) {
	return s.loadProduct(ctx, productID)
}

// Create adds a product to the catalog.
func (s *Service) Create(ctx context.Context, d Draft) (*Product, error) {
	rating := DefaultRating
	if d.Rating != nil {
		rating = *d.Rating
	}
	if err := validate(d.Name, d.Price, d.Stock, rating, d.Discount); err != nil {
		return nil, err
	}

	isActive := true
	if d.IsActive != nil {
		isActive = *d.IsActive
	}

	productID := uuid.New().String()
	event := ProductCreated{
		ProductID:      productID,
		Name:           strings.TrimSpace(d.Name),
		Description:    d.Description,
		Price:          d.Price,
		OriginalPrice:  d.OriginalPrice,
		Category:       d.Category,
		Brand:          d.Brand,
		Image:          orDefault(d.Image, DefaultImage),
		Images:         d.Images,
		Stock:          d.Stock,
		Rating:         rating,
		Specifications: d.Specifications,
		Features:       d.Features,
		Warranty:       orDefault(d.Warranty, DefaultWarranty),
		ReturnPolicy:   orDefault(d.ReturnPolicy, DefaultReturnPolicy),
		IsFeatured:     d.IsFeatured,
		IsActive:       isActive,
		Discount:       d.Discount,
		CreatedAt:      s.now().UTC(),
	}

	storedEvent, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductCreated, event)
	if err != nil {
		return nil, err
	}

	p := &Product{}
	aggregate.ApplyAndSnapshot(ctx, s.eventStore, p, AggregateType, storedEvent)
	return p, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// Update applies a partial update and validates the merged result.
func (s *Service) Update(ctx context.Context, productID string, patch Patch) (*Product, error) {
	p, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	merged := *p
	merged.applyPatch(patch)
	if err := validate(merged.Name, merged.Price, merged.Stock, merged.Rating, merged.Discount); err != nil {
		return nil, err
	}

	event := ProductUpdated{
		ProductID: productID,
		Patch:     patch,
		UpdatedAt: s.now().UTC(),
	}
	storedEvent, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductUpdated, event)
	if err != nil {
		return nil, err
	}

	aggregate.ApplyAndSnapshot(ctx, s.eventStore, p, AggregateType, storedEvent)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, productID string) error {
	if _, err := s.loadProduct(ctx, productID); err != nil {
		return err
	}

	event := ProductDeleted{
		ProductID: productID,
		DeletedAt: s.now().UTC(),
	}

	_, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductDeleted, event)
	return err
}

// AddReview adds the author's review, replacing an earlier one by the same
// user, and recomputes the rating.
func (s *Service) AddReview(ctx context.Context, productID string, review Review) (*Product, error) {
	if review.Rating < 1 || review.Rating > 5 {
		return nil, ErrInvalidReview
	}

	p, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	review.CreatedAt = s.now().UTC()
	reviews := upsertReview(p.Reviews, review)

	event := ProductReviewAdded{
		ProductID:  productID,
		Review:     review,
		Rating:     AverageRating(reviews),
		NumReviews: len(reviews),
		AddedAt:    review.CreatedAt,
	}
	storedEvent, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductReviewAdded, event)
	if err != nil {
		return nil, err
	}

	aggregate.ApplyAndSnapshot(ctx, s.eventStore, p, AggregateType, storedEvent)
	return p, nil
}

// RemoveReview deletes the user's review and recomputes the rating.
func (s *Service) RemoveReview(ctx context.Context, productID, userID string) (*Product, error) {
	p, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	reviews := removeReview(p.Reviews, userID)
	if len(reviews) == len(p.Reviews) {
		return nil, ErrReviewNotFound
	}

	event := ProductReviewRemoved{
		ProductID:  productID,
		UserID:     userID,
		Rating:     AverageRating(reviews),
		NumReviews: len(reviews),
		RemovedAt:  s.now().UTC(),
	}
	storedEvent, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductReviewRemoved, event)
	if err != nil {
		return nil, err
	}

	aggregate.ApplyAndSnapshot(ctx, s.eventStore, p, AggregateType, storedEvent)
	return p, nil
}

// DecrementStockAfterPurchase moves quantity from stock to sold.
// Checkout does not call it; stock is managed by administrators.
func (s *Service) DecrementStockAfterPurchase(ctx context.Context, productID string, quantity int) (*Product, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Stock < quantity {
		return nil, ErrInsufficientStock
	}

	event := ProductStockDecremented{
		ProductID: productID,
		Quantity:  quantity,
		Stock:     p.Stock - quantity,
		Sold:      p.Sold + quantity,
		At:        s.now().UTC(),
	}
	storedEvent, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductStockDecremented, event)
	if err != nil {
		return nil, err
	}

	aggregate.ApplyAndSnapshot(ctx, s.eventStore, p, AggregateType, storedEvent)
	return p, nil
}
