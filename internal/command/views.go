package command

import (
	"slices"

	"github.com/example/shopwise/internal/auth"
	"github.com/example/shopwise/internal/domain/admin"
	"github.com/example/shopwise/internal/domain/order"
	"github.com/example/shopwise/internal/domain/product"
	"github.com/example/shopwise/internal/domain/user"
	"github.com/example/shopwise/internal/readmodel"
)

// Aggregates carry secret hashes and event-store versions; responses are
// always built from these views.

func AdminView(a *admin.Admin) *readmodel.Admin {
	return &readmodel.Admin{
		ID:          a.ID,
		Email:       a.Email,
		Name:        a.Name,
		Role:        a.Role,
		Permissions: slices.Clone(a.Permissions),
		IsActive:    a.IsActive,
		LastLogin:   a.LastLogin,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func UserView(u *user.User) *readmodel.User {
	return &readmodel.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      auth.RoleCustomer,
		Phone:     u.Phone,
		Address:   readmodel.Address(u.Address),
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ProductView(p *product.Product) *readmodel.Product {
	reviews := make([]readmodel.Review, 0, len(p.Reviews))
	for _, r := range p.Reviews {
		reviews = append(reviews, readmodel.Review(r))
	}
	v := &readmodel.Product{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		OriginalPrice:  p.OriginalPrice,
		Category:       p.Category,
		Brand:          p.Brand,
		Image:          p.Image,
		Images:         p.Images,
		Stock:          p.Stock,
		Rating:         p.Rating,
		NumReviews:     p.NumReviews,
		Reviews:        reviews,
		Specifications: p.Specifications,
		Features:       p.Features,
		Warranty:       p.Warranty,
		ReturnPolicy:   p.ReturnPolicy,
		IsFeatured:     p.IsFeatured,
		IsActive:       p.IsActive,
		Sold:           p.Sold,
		Discount:       p.Discount,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if v.Images == nil {
		v.Images = []string{}
	}
	if v.Features == nil {
		v.Features = []string{}
	}
	if v.Specifications == nil {
		v.Specifications = map[string]string{}
	}
	return v
}

func OrderView(o *order.Order) *readmodel.Order {
	items := make([]readmodel.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, readmodel.OrderItem(it))
	}
	return &readmodel.Order{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		ShippingAddress: readmodel.ShippingAddress(o.ShippingAddress),
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   string(o.PaymentStatus),
		TrackingNote:    o.TrackingNote,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		DeliveredAt:     o.DeliveredAt,
		Version:         o.Version,
	}
}
