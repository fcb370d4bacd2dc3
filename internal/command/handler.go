package command

import (
	"context"
	"log/slog"
	"strings"

	"github.com/example/shopwise/internal/auth"
	"github.com/example/shopwise/internal/domain"
	"github.com/example/shopwise/internal/domain/admin"
	"github.com/example/shopwise/internal/domain/cart"
	"github.com/example/shopwise/internal/domain/order"
	"github.com/example/shopwise/internal/domain/product"
	"github.com/example/shopwise/internal/domain/user"
	"github.com/example/shopwise/internal/logging"
	"github.com/example/shopwise/internal/query"
	"github.com/example/shopwise/internal/readmodel"
)

// AdminProductImage is the placeholder used by the back office when a new
// product has no image.
const AdminProductImage = "https://via.placeholder.com/200?text=No+Image"

var ErrProductFieldsRequired = domain.New(domain.ErrValidation, "Please provide name, price, and brand")

// LoginThrottle limits admin login attempts per email. *cache.LoginGuard
// implements it; a nil guard allows everything.
type LoginThrottle interface {
	Check(ctx context.Context, email string) error
	RecordFailure(ctx context.Context, email string)
	Reset(ctx context.Context, email string)
}

type noThrottle struct{}

func (noThrottle) Check(context.Context, string) error { return nil }
func (noThrottle) RecordFailure(context.Context, string) {}
func (noThrottle) Reset(context.Context, string)         {}

// Bootstrap is the credential pair that creates the first super_admin.
type Bootstrap struct {
	Email  string
	Secret string
}

// Deps groups the collaborators of the command handler.
type Deps struct {
	Admins    *admin.Service
	Users     *user.Service
	Products  *product.Service
	Carts     *cart.Service
	Orders    *order.Service
	Queries   *query.Handler
	Tokens    *auth.TokenIssuer
	Throttle  LoginThrottle
	Bootstrap Bootstrap
}

type Handler struct {
	adminSvc   *admin.Service
	userSvc    *user.Service
	productSvc *product.Service
	cartSvc    *cart.Service
	orderSvc   *order.Service
	queries    *query.Handler
	tokens     *auth.TokenIssuer
	throttle   LoginThrottle
	bootstrap  Bootstrap
	logger     *slog.Logger
}

func NewHandler(d Deps) *Handler {
	throttle := d.Throttle
	if throttle == nil {
		throttle = noThrottle{}
	}
	return &Handler{
		adminSvc:   d.Admins,
		userSvc:    d.Users,
		productSvc: d.Products,
		cartSvc:    d.Carts,
		orderSvc:   d.Orders,
		queries:    d.Queries,
		tokens:     d.Tokens,
		throttle:   throttle,
		bootstrap:  d.Bootstrap,
		logger:     logging.Component("command"),
	}
}

// ============================================
// Products
// ============================================

// CreateProduct is the back-office create. Name, price and brand are
// required; the category defaults to the brand.
func (h *Handler) CreateProduct(ctx context.Context, cmd CreateProduct) (*readmodel.Product, error) {
	if strings.TrimSpace(cmd.Name) == "" || cmd.Price == nil || strings.TrimSpace(cmd.Brand) == "" {
		return nil, ErrProductFieldsRequired
	}

	category := cmd.Category
	if strings.TrimSpace(category) == "" {
		category = cmd.Brand
	}
	image := cmd.Image
	if strings.TrimSpace(image) == "" {
		image = AdminProductImage
	}
	rating := 0.0

	p, err := h.productSvc.Create(ctx, product.Draft{
		Name:           cmd.Name,
		Description:    cmd.Description,
		Price:          *cmd.Price,
		OriginalPrice:  cmd.OriginalPrice,
		Category:       category,
		Brand:          cmd.Brand,
		Image:          image,
		Images:         cmd.Images,
		Stock:          cmd.Stock,
		Rating:         &rating,
		Specifications: cmd.Specifications,
		Features:       cmd.Features,
		Warranty:       cmd.Warranty,
		ReturnPolicy:   cmd.ReturnPolicy,
		IsFeatured:     cmd.IsFeatured,
		IsActive:       cmd.IsActive,
		Discount:       cmd.Discount,
	})
	if err != nil {
		return nil, err
	}
	return ProductView(p), nil
}

func (h *Handler) UpdateProduct(ctx context.Context, cmd UpdateProduct) (*readmodel.Product, error) {
	p, err := h.productSvc.Update(ctx, cmd.ProductID, product.Patch{
		Name:           cmd.Name,
		Description:    cmd.Description,
		Price:          cmd.Price,
		OriginalPrice:  cmd.OriginalPrice,
		Category:       cmd.Category,
		Brand:          cmd.Brand,
		Image:          cmd.Image,
		Images:         cmd.Images,
		Stock:          cmd.Stock,
		Rating:         cmd.Rating,
		Specifications: cmd.Specifications,
		Features:       cmd.Features,
		Warranty:       cmd.Warranty,
		ReturnPolicy:   cmd.ReturnPolicy,
		IsFeatured:     cmd.IsFeatured,
		IsActive:       cmd.IsActive,
		Discount:       cmd.Discount,
	})
	if err != nil {
		return nil, err
	}
	return ProductView(p), nil
}

func (h *Handler) DeleteProduct(ctx context.Context, cmd DeleteProduct) error {
	return h.productSvc.Delete(ctx, cmd.ProductID)
}

// AddReview adds or replaces the caller's review, signed with their name.
func (h *Handler) AddReview(ctx context.Context, cmd AddReview) (*readmodel.Product, error) {
	u, err := h.userSvc.Get(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	p, err := h.productSvc.AddReview(ctx, cmd.ProductID, product.Review{
		UserID:  u.ID,
		Name:    u.Name,
		Rating:  cmd.Rating,
		Comment: strings.TrimSpace(cmd.Comment),
	})
	if err != nil {
		return nil, err
	}
	return ProductView(p), nil
}

func (h *Handler) RemoveReview(ctx context.Context, cmd RemoveReview) (*readmodel.Product, error) {
	p, err := h.productSvc.RemoveReview(ctx, cmd.ProductID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	return ProductView(p), nil
}

// ============================================
// Cart
// ============================================

// AddToCart adds quantity (default 1) of an active catalog product.
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) (*query.CartView, error) {
	if cmd.ProductID == "" {
		return nil, cart.ErrInvalidProduct
	}
	p, err := h.productSvc.Get(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, product.ErrProductNotFound
	}

	qty := cmd.Quantity
	if qty == 0 {
		qty = 1
	}
	c, err := h.cartSvc.AddItem(ctx, cmd.UserID, cmd.ProductID, qty)
	if err != nil {
		return nil, err
	}
	return h.priceCart(ctx, c)
}

func (h *Handler) SetCartQuantity(ctx context.Context, cmd SetCartQuantity) (*query.CartView, error) {
	c, err := h.cartSvc.SetQuantity(ctx, cmd.UserID, cmd.ProductID, cmd.Quantity)
	if err != nil {
		return nil, err
	}
	return h.priceCart(ctx, c)
}

func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) (*query.CartView, error) {
	c, err := h.cartSvc.RemoveItem(ctx, cmd.UserID, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	return h.priceCart(ctx, c)
}

func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) (*query.CartView, error) {
	c, err := h.cartSvc.Clear(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	return h.priceCart(ctx, c)
}

// priceCart prices the aggregate's lines so the response reflects the write
// even before the cart projection catches up.
func (h *Handler) priceCart(ctx context.Context, c *cart.Cart) (*query.CartView, error) {
	items := make([]readmodel.CartItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, readmodel.CartItem(it))
	}
	return h.queries.PriceCart(ctx, c.UserID, items)
}
