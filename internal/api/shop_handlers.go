package api

import (
	"net/http"
	"strings"

	"github.com/example/shopwise/internal/api/response"
	"github.com/example/shopwise/internal/command"
	"github.com/example/shopwise/internal/domain"
	"github.com/example/shopwise/internal/domain/product"
	"github.com/example/shopwise/internal/query"
	"github.com/shopspring/decimal"
)

// ============================================
// Catalog
// ============================================

func (h *Handlers) ListCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := query.CatalogFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
		Sort:     q.Get("sort"),
	}
	var err error
	if f.MinPrice, err = queryDecimal(q.Get("minPrice"), "minPrice"); err != nil {
		response.Error(w, r, err)
		return
	}
	if f.MaxPrice, err = queryDecimal(q.Get("maxPrice"), "maxPrice"); err != nil {
		response.Error(w, r, err)
		return
	}

	products, err := h.queries.ListCatalog(r.Context(), f)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, products)
}

func queryDecimal(raw, key string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, domain.Invalid(key, "Must be a number")
	}
	return &d, nil
}

// GetProduct hides products taken off sale.
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.queries.GetProduct(r.Context(), pathID(r, "id"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if !p.IsActive {
		response.Error(w, r, product.ErrProductNotFound)
		return
	}
	response.Success(w, http.StatusOK, p)
}

func (h *Handlers) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.queries.ListBrands(r.Context())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, brands)
}

func (h *Handlers) ListFeatured(w http.ResponseWriter, r *http.Request) {
	products, err := h.queries.ListFeatured(r.Context())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, products)
}

func (h *Handlers) AddReview(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddReview
	if err := decodeBody(w, r, &cmd); err != nil {
		response.Error(w, r, err)
		return
	}
	cmd.ProductID = pathID(r, "id")
	cmd.UserID = customerID(r)

	p, err := h.commands.AddReview(r.Context(), cmd)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.Envelope{
		Success: true,
		Message: "Review added",
		Data:    p,
	})
}

func (h *Handlers) RemoveReview(w http.ResponseWriter, r *http.Request) {
	p, err := h.commands.RemoveReview(r.Context(), command.RemoveReview{
		ProductID: pathID(r, "id"),
		UserID:    customerID(r),
	})
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Envelope{
		Success: true,
		Message: "Review removed",
		Data:    p,
	})
}

// ============================================
// Cart
// ============================================

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.queries.GetCart(r.Context(), customerID(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, c)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddToCart
	if err := decodeBody(w, r, &cmd); err != nil {
		response.Error(w, r, err)
		return
	}
	cmd.UserID = customerID(r)

	c, err := h.commands.AddToCart(r.Context(), cmd)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, c)
}

func (h *Handlers) SetCartQuantity(w http.ResponseWriter, r *http.Request) {
	var cmd command.SetCartQuantity
	if err := decodeBody(w, r, &cmd); err != nil {
		response.Error(w, r, err)
		return
	}
	cmd.UserID = customerID(r)
	cmd.ProductID = pathID(r, "productId")

	c, err := h.commands.SetCartQuantity(r.Context(), cmd)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, c)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.commands.RemoveFromCart(r.Context(), command.RemoveFromCart{
		UserID:    customerID(r),
		ProductID: pathID(r, "productId"),
	})
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, c)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.commands.ClearCart(r.Context(), command.ClearCart{UserID: customerID(r)})
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, c)
}

// ============================================
// Orders
// ============================================

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.PlaceOrder
	if err := decodeBody(w, r, &cmd); err != nil {
		response.Error(w, r, err)
		return
	}
	cmd.UserID = customerID(r)

	o, err := h.commands.PlaceOrder(r.Context(), cmd)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.Envelope{
		Success: true,
		Message: "Order placed successfully",
		Data:    o,
	})
}

func (h *Handlers) MyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queries.ListOrdersByUser(r.Context(), customerID(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, orders)
}

func (h *Handlers) MyOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.queries.GetOrderForCustomer(r.Context(), pathID(r, "id"), customerID(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, o)
}
