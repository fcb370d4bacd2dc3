package query

import (
	"context"
	"fmt"
	"time"

	"github.com/example/shopwise/internal/domain"
	"github.com/example/shopwise/internal/domain/cart"
	"github.com/example/shopwise/internal/domain/product"
	"github.com/example/shopwise/internal/domain/user"
	"github.com/example/shopwise/internal/infrastructure/store"
	"github.com/example/shopwise/internal/readmodel"
	"github.com/shopspring/decimal"
)

type Handler struct {
	readStore store.ReadStoreInterface
	now       func() time.Time
}

func NewHandler(readStore store.ReadStoreInterface) *Handler {
	return &Handler{readStore: readStore, now: time.Now}
}

// WithClock replaces time.Now for the time-windowed statistics.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	cp := *h
	cp.now = now
	return &cp
}

func getOne[T any](ctx context.Context, rs store.ReadStoreInterface, collection, id string) (*T, bool, error) {
	data, ok, err := rs.Get(ctx, collection, id)
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	if !ok {
		return nil, false, nil
	}
	v, ok := data.(*T)
	if !ok {
		return nil, false, fmt.Errorf("get %s/%s: unexpected model %T", collection, id, data)
	}
	return v, true, nil
}

func listAll[T any](ctx context.Context, rs store.ReadStoreInterface, collection string) ([]*T, error) {
	items, err := rs.GetAll(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	out := make([]*T, 0, len(items))
	for _, item := range items {
		v, ok := item.(*T)
		if !ok {
			return nil, fmt.Errorf("list %s: unexpected model %T", collection, item)
		}
		out = append(out, v)
	}
	return out, nil
}

// ============================================
// Accounts
// ============================================

// GetAdmin returns the administrator profile; ok is false when it does not exist.
func (h *Handler) GetAdmin(ctx context.Context, id string) (*readmodel.Admin, bool, error) {
	return getOne[readmodel.Admin](ctx, h.readStore, readmodel.CollectionAdmins, id)
}

// GetCredential looks up an administrator or customer account by email.
func (h *Handler) GetCredential(ctx context.Context, kind readmodel.PrincipalKind, email string) (*readmodel.Credential, bool, error) {
	key := readmodel.CredentialKey(kind, domain.NormalizeEmail(email))
	return getOne[readmodel.Credential](ctx, h.readStore, readmodel.CollectionCredentials, key)
}

func (h *Handler) GetUser(ctx context.Context, id string) (*readmodel.User, error) {
	u, ok, err := getOne[readmodel.User](ctx, h.readStore, readmodel.CollectionUsers, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

// ============================================
// Products
// ============================================

func (h *Handler) GetProduct(ctx context.Context, id string) (*readmodel.Product, error) {
	p, ok, err := getOne[readmodel.Product](ctx, h.readStore, readmodel.CollectionProducts, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return p, nil
}

// ============================================
// Cart
// ============================================

type CartLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	InStock   bool            `json:"inStock"`
}

// CartView is the cart joined with current catalog prices.
type CartView struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Items     []CartLine      `json:"items"`
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"total"`
}

// GetCart returns the user's cart. Lines whose product left the catalog are
// omitted.
func (h *Handler) GetCart(ctx context.Context, userID string) (*CartView, error) {
	c, ok, err := getOne[readmodel.Cart](ctx, h.readStore, readmodel.CollectionCarts, cart.GetCartID(userID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return h.PriceCart(ctx, userID, nil)
	}
	return h.PriceCart(ctx, userID, c.Items)
}

// PriceCart joins cart lines with the current catalog prices.
func (h *Handler) PriceCart(ctx context.Context, userID string, items []readmodel.CartItem) (*CartView, error) {
	view := &CartView{ID: cart.GetCartID(userID), UserID: userID, Items: []CartLine{}, Total: decimal.Zero}
	for _, item := range items {
		p, found, err := getOne[readmodel.Product](ctx, h.readStore, readmodel.CollectionProducts, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.Items = append(view.Items, CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			Quantity:  item.Quantity,
			Subtotal:  subtotal,
			InStock:   p.InStock(),
		})
		view.ItemCount += item.Quantity
		view.Total = view.Total.Add(subtotal)
	}
	return view, nil
}
