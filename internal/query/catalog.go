package query

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/example/shopwise/internal/readmodel"
	"github.com/shopspring/decimal"
)

// Catalog sort options
const (
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortNameAZ    = "name-az"
	SortNameZA    = "name-za"
	SortNewest    = "newest"
	SortRating    = "rating"
)

// FeaturedLimit caps the featured product list.
const FeaturedLimit = 8

// CatalogFilter is the public product list request. Empty fields do not filter.
type CatalogFilter struct {
	Search   string
	Category string
	Brand    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

var catalogSorts = map[string]func(a, b *readmodel.Product) int{
	SortPriceLow:  func(a, b *readmodel.Product) int { return a.Price.Cmp(b.Price) },
	SortPriceHigh: func(a, b *readmodel.Product) int { return b.Price.Cmp(a.Price) },
	SortNameAZ:    func(a, b *readmodel.Product) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
	SortNameZA:    func(a, b *readmodel.Product) int { return cmp.Compare(strings.ToLower(b.Name), strings.ToLower(a.Name)) },
	SortNewest:    func(a, b *readmodel.Product) int { return b.CreatedAt.Compare(a.CreatedAt) },
	SortRating:    func(a, b *readmodel.Product) int { return cmp.Compare(b.Rating, a.Rating) },
}

// ListCatalog returns active products matching the filter. Unknown sort
// options fall back to newest first.
func (h *Handler) ListCatalog(ctx context.Context, f CatalogFilter) ([]*readmodel.Product, error) {
	products, err := listAll[readmodel.Product](ctx, h.readStore, readmodel.CollectionProducts)
	if err != nil {
		return nil, err
	}

	search := strings.TrimSpace(f.Search)
	products = slices.DeleteFunc(products, func(p *readmodel.Product) bool {
		switch {
		case !p.IsActive:
			return true
		case search != "" && !containsFold(p.Name, search) && !containsFold(p.Brand, search) && !containsFold(p.Description, search):
			return true
		case f.Category != "" && p.Category != f.Category:
			return true
		case f.Brand != "" && p.Brand != f.Brand:
			return true
		case f.MinPrice != nil && p.Price.LessThan(*f.MinPrice):
			return true
		case f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice):
			return true
		}
		return false
	})

	compare, ok := catalogSorts[f.Sort]
	if !ok {
		compare = catalogSorts[SortNewest]
	}
	slices.SortFunc(products, func(a, b *readmodel.Product) int {
		return tieBreak(compare(a, b), a.ID, b.ID)
	})
	return products, nil
}

// ListFeatured returns up to FeaturedLimit active featured products, newest first.
func (h *Handler) ListFeatured(ctx context.Context) ([]*readmodel.Product, error) {
	products, err := listAll[readmodel.Product](ctx, h.readStore, readmodel.CollectionProducts)
	if err != nil {
		return nil, err
	}
	products = slices.DeleteFunc(products, func(p *readmodel.Product) bool {
		return !p.IsFeatured || !p.IsActive
	})
	slices.SortFunc(products, func(a, b *readmodel.Product) int {
		return tieBreak(b.CreatedAt.Compare(a.CreatedAt), a.ID, b.ID)
	})
	if len(products) > FeaturedLimit {
		products = products[:FeaturedLimit]
	}
	return products, nil
}

// ListBrands returns the distinct brands of every product, sorted.
func (h *Handler) ListBrands(ctx context.Context) ([]string, error) {
	products, err := listAll[readmodel.Product](ctx, h.readStore, readmodel.CollectionProducts)
	if err != nil {
		return nil, err
	}
	brands := make([]string, 0, len(products))
	for _, p := range products {
		if p.Brand != "" {
			brands = append(brands, p.Brand)
		}
	}
	slices.Sort(brands)
	return slices.Compact(brands), nil
}
