package query

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/example/shopwise/internal/domain/order"
	"github.com/example/shopwise/internal/readmodel"
	"github.com/shopspring/decimal"
)

const (
	dashboardListLimit = 10
	revenueMonths      = 6
)

// countsTowardRevenue delegates to the order status rule.
func countsTowardRevenue(o *readmodel.Order) bool {
	return order.Status(o.Status).CountsTowardRevenue()
}

// Revenue sums totalAmount over the orders that count toward revenue. Every
// revenue figure in the admin surface goes through here.
func Revenue(orders []*readmodel.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if countsTowardRevenue(o) {
			total = total.Add(o.TotalAmount)
		}
	}
	return total
}

type Overview struct {
	TotalUsers    int             `json:"totalUsers"`
	TotalProducts int             `json:"totalProducts"`
	TotalOrders   int             `json:"totalOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
}

type OrderCounts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Shipped    int `json:"shipped"`
	Delivered  int `json:"delivered"`
	Cancelled  int `json:"cancelled"`
}

type MonthlyRevenue struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RecentOrder is an order with its customer's name and email.
type RecentOrder struct {
	*readmodel.Order
	Customer *Customer `json:"customer,omitempty"`
}

// ItemSales aggregates sold quantity and revenue per line item name.
type ItemSales struct {
	Name      string          `json:"name"`
	TotalSold int             `json:"totalSold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type DashboardStats struct {
	Overview            Overview             `json:"overview"`
	Orders              OrderCounts          `json:"orders"`
	MonthlyRevenue      []MonthlyRevenue     `json:"monthlyRevenue"`
	RecentOrders        []RecentOrder        `json:"recentOrders"`
	LowStockProducts    []*readmodel.Product `json:"lowStockProducts"`
	BestSellingProducts []ItemSales          `json:"bestSellingProducts"`
}

// DashboardStats compiles the admin dashboard.
func (h *Handler) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	users, err := listAll[readmodel.User](ctx, h.readStore, readmodel.CollectionUsers)
	if err != nil {
		return nil, err
	}
	products, err := listAll[readmodel.Product](ctx, h.readStore, readmodel.CollectionProducts)
	if err != nil {
		return nil, err
	}
	orders, err := listAll[readmodel.Order](ctx, h.readStore, readmodel.CollectionOrders)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		Overview: Overview{
			TotalUsers:    len(users),
			TotalProducts: len(products),
			TotalOrders:   len(orders),
			TotalRevenue:  Revenue(orders),
		},
	}

	for _, o := range orders {
		switch order.Status(o.Status) {
		case order.StatusPending:
			stats.Orders.Pending++
		case order.StatusProcessing:
			stats.Orders.Processing++
		case order.StatusShipped:
			stats.Orders.Shipped++
		case order.StatusDelivered:
			stats.Orders.Delivered++
		case order.StatusCancelled:
			stats.Orders.Cancelled++
		}
	}

	since := h.now().UTC().AddDate(0, -revenueMonths, 0)
	stats.MonthlyRevenue = monthlyRevenue(orders, since)

	usersByID := make(map[string]*readmodel.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}
	recent := slices.Clone(orders)
	sortOrdersNewestFirst(recent)
	stats.RecentOrders = make([]RecentOrder, 0, dashboardListLimit)
	for _, o := range recent[:min(len(recent), dashboardListLimit)] {
		ro := RecentOrder{Order: o}
		if u, ok := usersByID[o.UserID]; ok {
			ro.Customer = &Customer{ID: u.ID, Name: u.Name, Email: u.Email}
		}
		stats.RecentOrders = append(stats.RecentOrders, ro)
	}

	stats.LowStockProducts = lowStock(products)
	stats.BestSellingProducts = topItems(orders)
	return stats, nil
}

func monthlyRevenue(orders []*readmodel.Order, since time.Time) []MonthlyRevenue {
	type key struct{ year, month int }
	buckets := make(map[key]*MonthlyRevenue)
	for _, o := range orders {
		if !countsTowardRevenue(o) || o.CreatedAt.Before(since) {
			continue
		}
		t := o.CreatedAt.UTC()
		k := key{t.Year(), int(t.Month())}
		b, ok := buckets[k]
		if !ok {
			b = &MonthlyRevenue{Year: k.year, Month: k.month, Revenue: decimal.Zero}
			buckets[k] = b
		}
		b.Revenue = b.Revenue.Add(o.TotalAmount)
		b.Orders++
	}

	out := make([]MonthlyRevenue, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b MonthlyRevenue) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Month, b.Month))
	})
	return out
}

// lowStock returns up to ten products with stock below the low-stock
// threshold, out-of-stock ones included, lowest stock first.
func lowStock(products []*readmodel.Product) []*readmodel.Product {
	out := make([]*readmodel.Product, 0)
	for _, p := range products {
		if p.Stock < readmodel.LowStockThreshold {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b *readmodel.Product) int {
		return tieBreak(cmp.Compare(a.Stock, b.Stock), a.ID, b.ID)
	})
	return out[:min(len(out), dashboardListLimit)]
}

// topItems ranks line items by quantity sold across revenue-counting orders.
func topItems(orders []*readmodel.Order) []ItemSales {
	byName := make(map[string]*ItemSales)
	for _, o := range orders {
		if !countsTowardRevenue(o) {
			continue
		}
		for _, it := range o.Items {
			s, ok := byName[it.Name]
			if !ok {
				s = &ItemSales{Name: it.Name, Revenue: decimal.Zero}
				byName[it.Name] = s
			}
			s.TotalSold += it.Quantity
			s.Revenue = s.Revenue.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}

	out := make([]ItemSales, 0, len(byName))
	for _, s := range byName {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b ItemSales) int {
		return cmp.Or(cmp.Compare(b.TotalSold, a.TotalSold), cmp.Compare(a.Name, b.Name))
	})
	return out[:min(len(out), dashboardListLimit)]
}

// ============================================
// Analytics
// ============================================

// AnalyticsFilter bounds the analytics window. Period "day" groups sales per
// day; anything else groups per month.
type AnalyticsFilter struct {
	Start  *time.Time
	End    *time.Time
	Period string
}

type SalesPoint struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Day     int             `json:"day,omitempty"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type CategorySales struct {
	Category  string          `json:"category"`
	Revenue   decimal.Decimal `json:"revenue"`
	ItemsSold int             `json:"itemsSold"`
}

type Analytics struct {
	SalesData           []SalesPoint    `json:"salesData"`
	TopProducts         []ItemSales     `json:"topProducts"`
	CategoryPerformance []CategorySales `json:"categoryPerformance"`
}

// UncategorizedLabel groups line items whose product is gone or has no category.
const UncategorizedLabel = "uncategorized"

func (h *Handler) Analytics(ctx context.Context, f AnalyticsFilter) (*Analytics, error) {
	all, err := listAll[readmodel.Order](ctx, h.readStore, readmodel.CollectionOrders)
	if err != nil {
		return nil, err
	}
	products, err := listAll[readmodel.Product](ctx, h.readStore, readmodel.CollectionProducts)
	if err != nil {
		return nil, err
	}

	orders := slices.DeleteFunc(all, func(o *readmodel.Order) bool {
		return !countsTowardRevenue(o) || !inRange(o.CreatedAt, f.Start, f.End)
	})

	return &Analytics{
		SalesData:           salesOverTime(orders, f.Period == "day"),
		TopProducts:         topItems(orders),
		CategoryPerformance: categoryPerformance(orders, products),
	}, nil
}

func salesOverTime(orders []*readmodel.Order, daily bool) []SalesPoint {
	type key struct{ year, month, day int }
	buckets := make(map[key]*SalesPoint)
	for _, o := range orders {
		t := o.CreatedAt.UTC()
		k := key{year: t.Year(), month: int(t.Month())}
		if daily {
			k.day = t.Day()
		}
		p, ok := buckets[k]
		if !ok {
			p = &SalesPoint{Year: k.year, Month: k.month, Day: k.day, Revenue: decimal.Zero}
			buckets[k] = p
		}
		p.Revenue = p.Revenue.Add(o.TotalAmount)
		p.Orders++
	}

	out := make([]SalesPoint, 0, len(buckets))
	for _, p := range buckets {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b SalesPoint) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Month, b.Month), cmp.Compare(a.Day, b.Day))
	})
	return out
}

func categoryPerformance(orders []*readmodel.Order, products []*readmodel.Product) []CategorySales {
	categoryOf := make(map[string]string, len(products))
	for _, p := range products {
		categoryOf[p.ID] = p.Category
	}

	byCategory := make(map[string]*CategorySales)
	for _, o := range orders {
		for _, it := range o.Items {
			c := categoryOf[it.ProductID]
			if c == "" {
				c = UncategorizedLabel
			}
			s, ok := byCategory[c]
			if !ok {
				s = &CategorySales{Category: c, Revenue: decimal.Zero}
				byCategory[c] = s
			}
			s.ItemsSold += it.Quantity
			s.Revenue = s.Revenue.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}

	out := make([]CategorySales, 0, len(byCategory))
	for _, s := range byCategory {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b CategorySales) int {
		return cmp.Or(b.Revenue.Cmp(a.Revenue), cmp.Compare(a.Category, b.Category))
	})
	return out
}
