package api

import (
	"net/http"

	"github.com/example/shopwise/internal/api/middleware"
	"github.com/example/shopwise/internal/api/response"
	"github.com/example/shopwise/internal/auth"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Tokens  *auth.TokenIssuer
	Admins  middleware.AdminLoader
	DevMode bool
}

func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(response.DevMode(cfg.DevMode))
	r.Use(middleware.AccessLog)
	r.Use(middleware.Recover)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Fail(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.AdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminGate(cfg.Tokens, cfg.Admins))
				r.Get("/profile", h.AdminProfile)
				r.Get("/stats", h.DashboardStats)

				r.With(middleware.RequirePermission(auth.PermOrders)).Group(func(r chi.Router) {
					r.Get("/orders", h.ListOrders)
					r.Get("/orders/{id}", h.AdminGetOrder)
					r.Put("/orders/{id}/status", h.UpdateOrderStatus)
				})

				r.With(middleware.RequirePermission(auth.PermUsers)).Group(func(r chi.Router) {
					r.Get("/users", h.ListUsers)
					r.Get("/users/{id}", h.UserDetails)
				})

				r.With(middleware.RequirePermission(auth.PermProducts)).Group(func(r chi.Router) {
					r.Get("/products", h.AdminListProducts)
					r.Post("/products", h.CreateProduct)
					r.Put("/products/{id}", h.UpdateProduct)
					r.Delete("/products/{id}", h.DeleteProduct)
				})

				r.With(middleware.RequirePermission(auth.PermAnalytics)).Get("/analytics", h.Analytics)
				r.With(middleware.RequirePermission(auth.PermSettings)).Put("/admins/{id}", h.UpdateAdmin)
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.CustomerAuth(cfg.Tokens))
				r.Get("/me", h.Me)
				r.Put("/profile", h.UpdateProfile)
				r.Put("/password", h.ChangePassword)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListCatalog)
			r.Get("/brands", h.ListBrands)
			r.Get("/featured", h.ListFeatured)
			r.Get("/{id}", h.GetProduct)

			r.Group(func(r chi.Router) {
				r.Use(middleware.CustomerAuth(cfg.Tokens))
				r.Post("/{id}/reviews", h.AddReview)
				r.Delete("/{id}/reviews", h.RemoveReview)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.CustomerAuth(cfg.Tokens))

			r.Get("/cart", h.GetCart)
			r.Delete("/cart", h.ClearCart)
			r.Post("/cart/items", h.AddToCart)
			r.Put("/cart/items/{productId}", h.SetCartQuantity)
			r.Delete("/cart/items/{productId}", h.RemoveFromCart)

			r.Post("/orders", h.PlaceOrder)
			r.Get("/orders", h.MyOrders)
			r.Get("/orders/{id}", h.MyOrder)
		})
	})

	return r
}
