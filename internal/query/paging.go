package query

import (
	"cmp"
	"strings"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest is a 1-based page number and page size. Out of range values
// are clamped.
type PageRequest struct {
	Page  int
	Limit int
}

func (r PageRequest) normalize() (page, limit int) {
	page, limit = r.Page, r.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

type Page[T any] struct {
	Items       []T
	Total       int
	CurrentPage int
	TotalPages  int
}

func paginate[T any](items []T, req PageRequest) Page[T] {
	page, limit := req.normalize()
	total := len(items)

	// page-1 is bounded first so the multiplication cannot overflow
	start := total
	if page-1 <= total/limit {
		start = min((page-1)*limit, total)
	}
	end := min(start+limit, total)

	out := make([]T, end-start)
	copy(out, items[start:end])
	return Page[T]{
		Items:       out,
		Total:       total,
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
	}
}

// ascending reports whether the order parameter asks for ascending order;
// anything else sorts descending.
func ascending(order string) bool {
	return strings.EqualFold(order, "asc")
}

func directed(c int, asc bool) int {
	if asc {
		return c
	}
	return -c
}

// tieBreak orders equal keys by id so pages are stable.
func tieBreak(c int, a, b string) int {
	if c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
