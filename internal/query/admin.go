package query

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/example/shopwise/internal/domain/order"
	"github.com/example/shopwise/internal/readmodel"
	"github.com/shopspring/decimal"
)

// UserFilter is the admin user list request; Search matches name or email.
type UserFilter struct {
	Search string
	PageRequest
}

// UserSummary is a customer with derived order statistics.
type UserSummary struct {
	*readmodel.User
	OrderCount int             `json:"orderCount"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
}

// ListUsers returns customers, newest first, with their order count and
// non-cancelled spend.
func (h *Handler) ListUsers(ctx context.Context, f UserFilter) (Page[UserSummary], error) {
	users, err := listAll[readmodel.User](ctx, h.readStore, readmodel.CollectionUsers)
	if err != nil {
		return Page[UserSummary]{}, err
	}
	orders, err := listAll[readmodel.Order](ctx, h.readStore, readmodel.CollectionOrders)
	if err != nil {
		return Page[UserSummary]{}, err
	}

	search := strings.TrimSpace(f.Search)
	users = slices.DeleteFunc(users, func(u *readmodel.User) bool {
		return search != "" && !containsFold(u.Name, search) && !containsFold(u.Email, search)
	})
	slices.SortFunc(users, func(a, b *readmodel.User) int {
		return tieBreak(b.CreatedAt.Compare(a.CreatedAt), a.ID, b.ID)
	})

	byUser := make(map[string][]*readmodel.Order)
	for _, o := range orders {
		byUser[o.UserID] = append(byUser[o.UserID], o)
	}

	page := paginate(users, f.PageRequest)
	out := Page[UserSummary]{
		Items:       make([]UserSummary, 0, len(page.Items)),
		Total:       page.Total,
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
	}
	for _, u := range page.Items {
		out.Items = append(out.Items, UserSummary{
			User:       u,
			OrderCount: len(byUser[u.ID]),
			TotalSpent: Revenue(byUser[u.ID]),
		})
	}
	return out, nil
}

type UserStats struct {
	TotalOrders     int             `json:"totalOrders"`
	TotalSpent      decimal.Decimal `json:"totalSpent"`
	PendingOrders   int             `json:"pendingOrders"`
	CompletedOrders int             `json:"completedOrders"`
}

type UserDetails struct {
	User   *readmodel.User    `json:"user"`
	Orders []*readmodel.Order `json:"orders"`
	Stats  UserStats          `json:"stats"`
}

// GetUserDetails returns a customer with all their orders, newest first.
func (h *Handler) GetUserDetails(ctx context.Context, userID string) (*UserDetails, error) {
	u, err := h.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	orders, err := h.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := UserStats{TotalOrders: len(orders), TotalSpent: Revenue(orders)}
	for _, o := range orders {
		switch order.Status(o.Status) {
		case order.StatusPending:
			stats.PendingOrders++
		case order.StatusDelivered:
			stats.CompletedOrders++
		}
	}
	return &UserDetails{User: u, Orders: orders, Stats: stats}, nil
}

// AdminProductFilter is the back-office product list request. Category is
// matched against the brand, and "all" disables it.
type AdminProductFilter struct {
	Search   string
	Category string
	SortBy   string
	Order    string
	PageRequest
}

var productSortKeys = map[string]func(a, b *readmodel.Product) int{
	"createdAt": func(a, b *readmodel.Product) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updatedAt": func(a, b *readmodel.Product) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
	"name":      func(a, b *readmodel.Product) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
	"price":     func(a, b *readmodel.Product) int { return a.Price.Cmp(b.Price) },
	"stock":     func(a, b *readmodel.Product) int { return cmp.Compare(a.Stock, b.Stock) },
	"sold":      func(a, b *readmodel.Product) int { return cmp.Compare(a.Sold, b.Sold) },
	"rating":    func(a, b *readmodel.Product) int { return cmp.Compare(a.Rating, b.Rating) },
}

// ListAdminProducts includes inactive products.
func (h *Handler) ListAdminProducts(ctx context.Context, f AdminProductFilter) (Page[*readmodel.Product], error) {
	products, err := listAll[readmodel.Product](ctx, h.readStore, readmodel.CollectionProducts)
	if err != nil {
		return Page[*readmodel.Product]{}, err
	}

	search := strings.TrimSpace(f.Search)
	category := strings.TrimSpace(f.Category)
	products = slices.DeleteFunc(products, func(p *readmodel.Product) bool {
		if search != "" && !containsFold(p.Name, search) && !containsFold(p.Brand, search) {
			return true
		}
		return category != "" && category != "all" && !strings.EqualFold(p.Brand, category)
	})

	compare, ok := productSortKeys[f.SortBy]
	if !ok {
		compare = productSortKeys["createdAt"]
	}
	asc := ascending(f.Order)
	slices.SortFunc(products, func(a, b *readmodel.Product) int {
		return tieBreak(directed(compare(a, b), asc), a.ID, b.ID)
	})

	return paginate(products, f.PageRequest), nil
}
