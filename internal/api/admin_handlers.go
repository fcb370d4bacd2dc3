package api

import (
	"net/http"

	"github.com/example/shopwise/internal/api/middleware"
	"github.com/example/shopwise/internal/api/response"
	"github.com/example/shopwise/internal/command"
	"github.com/example/shopwise/internal/query"
)

// ============================================
// Session and dashboard
// ============================================

func (h *Handlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var cmd command.AdminLogin
	if err := decodeBody(w, r, &cmd); err != nil {
		response.Error(w, r, err)
		return
	}

	session, err := h.commands.AdminLogin(r.Context(), cmd)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, session)
}

func (h *Handlers) AdminProfile(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.AdminFromContext(r.Context())
	response.Success(w, http.StatusOK, command.AdminView(a))
}

func (h *Handlers) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queries.DashboardStats(r.Context())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, stats)
}

func (h *Handlers) Analytics(w http.ResponseWriter, r *http.Request) {
	start, err := queryDate(r, "startDate", false)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	end, err := queryDate(r, "endDate", true)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	analytics, err := h.queries.Analytics(r.Context(), query.AnalyticsFilter{
		Start:  start,
		End:    end,
		Period: r.URL.Query().Get("period"),
	})
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, analytics)
}

// ============================================
// Orders
// ============================================

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.queries.ListOrders(r.Context(), query.OrderFilter{
		Status:      q.Get("status"),
		Search:      q.Get("search"),
		SortBy:      q.Get("sortBy"),
		Order:       q.Get("order"),
		PageRequest: pageRequest(r),
	})
	if err != nil {
		response.Error(w, r, err)
		return
	}
	writePage(w, page)
}

func (h *Handlers) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.queries.GetOrder(r.Context(), pathID(r, "id"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, o)
}

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateOrderStatus
	if err := decodeBody(w, r, &cmd); err != nil {
		response.Error(w, r, err)
		return
	}
	cmd.OrderID = pathID(r, "id")

	o, err := h.commands.UpdateOrderStatus(r.Context(), cmd)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Envelope{
		Success: true,
		Message: "Order status updated successfully",
		Data:    o,
	})
}

// ============================================
// Users
// ============================================

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.queries.ListUsers(r.Context(), query.UserFilter{
		Search:      r.URL.Query().Get("search"),
		PageRequest: pageRequest(r),
	})
	if err != nil {
		response.Error(w, r, err)
		return
	}
	writePage(w, page)
}

func (h *Handlers) UserDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.queries.GetUserDetails(r.Context(), pathID(r, "id"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, details)
}

// ============================================
// Products
// ============================================

func (h *Handlers) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.queries.ListAdminProducts(r.Context(), query.AdminProductFilter{
		Search:      q.Get("search"),
		Category:    q.Get("category"),
		SortBy:      q.Get("sortBy"),
		Order:       q.Get("order"),
		PageRequest: pageRequest(r),
	})
	if err != nil {
		response.Error(w, r, err)
		return
	}
	writePage(w, page)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateProduct
	if err := decodeBody(w, r, &cmd); err != nil {
		response.Error(w, r, err)
		return
	}

	p, err := h.commands.CreateProduct(r.Context(), cmd)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.Envelope{
		Success: true,
		Message: "Product created successfully",
		Data:    p,
	})
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateProduct
	if err := decodeBody(w, r, &cmd); err != nil {
		response.Error(w, r, err)
		return
	}
	cmd.ProductID = pathID(r, "id")

	p, err := h.commands.UpdateProduct(r.Context(), cmd)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Envelope{
		Success: true,
		Message: "Product updated successfully",
		Data:    p,
	})
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.commands.DeleteProduct(r.Context(), command.DeleteProduct{ProductID: pathID(r, "id")}); err != nil {
		response.Error(w, r, err)
		return
	}
	response.Message(w, http.StatusOK, "Product deleted successfully")
}

// ============================================
// Administrators
// ============================================

func (h *Handlers) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateAdminAccess
	if err := decodeBody(w, r, &cmd); err != nil {
		response.Error(w, r, err)
		return
	}
	cmd.AdminID = pathID(r, "id")
	if caller, ok := middleware.AdminFromContext(r.Context()); ok {
		cmd.ChangedBy = caller.ID
	}

	a, err := h.commands.UpdateAdminAccess(r.Context(), cmd)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, a)
}
