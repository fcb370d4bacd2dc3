package query

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/example/shopwise/internal/domain/order"
	"github.com/example/shopwise/internal/readmodel"
)

// GetOrder returns any order; the caller is responsible for authorization.
func (h *Handler) GetOrder(ctx context.Context, id string) (*readmodel.Order, error) {
	o, ok, err := getOne[readmodel.Order](ctx, h.readStore, readmodel.CollectionOrders, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

// GetOrderForCustomer returns the order only when userID owns it. A foreign
// order answers not found so its existence is not disclosed.
func (h *Handler) GetOrderForCustomer(ctx context.Context, id, userID string) (*readmodel.Order, error) {
	o, err := h.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

// ListOrdersByUser returns the user's orders, newest first.
func (h *Handler) ListOrdersByUser(ctx context.Context, userID string) ([]*readmodel.Order, error) {
	all, err := listAll[readmodel.Order](ctx, h.readStore, readmodel.CollectionOrders)
	if err != nil {
		return nil, err
	}
	orders := slices.DeleteFunc(all, func(o *readmodel.Order) bool { return o.UserID != userID })
	sortOrdersNewestFirst(orders)
	return orders, nil
}

func sortOrdersNewestFirst(orders []*readmodel.Order) {
	slices.SortFunc(orders, func(a, b *readmodel.Order) int {
		return tieBreak(b.CreatedAt.Compare(a.CreatedAt), a.ID, b.ID)
	})
}

// OrderFilter is the admin order list request. Status "all" or empty means no
// status filter; Search matches the order id case-insensitively.
type OrderFilter struct {
	Status string
	Search string
	SortBy string
	Order  string
	PageRequest
}

var orderSortKeys = map[string]func(a, b *readmodel.Order) int{
	"createdAt":   func(a, b *readmodel.Order) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updatedAt":   func(a, b *readmodel.Order) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
	"totalAmount": func(a, b *readmodel.Order) int { return a.TotalAmount.Cmp(b.TotalAmount) },
	"status":      func(a, b *readmodel.Order) int { return cmp.Compare(a.Status, b.Status) },
}

// ListOrders is the admin order list, sorted by createdAt descending unless
// another known key is requested.
func (h *Handler) ListOrders(ctx context.Context, f OrderFilter) (Page[*readmodel.Order], error) {
	all, err := listAll[readmodel.Order](ctx, h.readStore, readmodel.CollectionOrders)
	if err != nil {
		return Page[*readmodel.Order]{}, err
	}

	status := strings.ToLower(strings.TrimSpace(f.Status))
	search := strings.TrimSpace(f.Search)
	orders := slices.DeleteFunc(all, func(o *readmodel.Order) bool {
		if status != "" && status != "all" && o.Status != status {
			return true
		}
		return search != "" && !containsFold(o.ID, search)
	})

	compare, ok := orderSortKeys[f.SortBy]
	if !ok {
		compare = orderSortKeys["createdAt"]
	}
	asc := ascending(f.Order)
	slices.SortFunc(orders, func(a, b *readmodel.Order) int {
		return tieBreak(directed(compare(a, b), asc), a.ID, b.ID)
	})

	return paginate(orders, f.PageRequest), nil
}

// inRange reports whether t lies within the optional [start, end] window.
func inRange(t time.Time, start, end *time.Time) bool {
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && t.After(*end) {
		return false
	}
	return true
}
