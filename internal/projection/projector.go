package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/example/shopwise/internal/auth"
	"github.com/example/shopwise/internal/domain/admin"
	"github.com/example/shopwise/internal/domain/cart"
	"github.com/example/shopwise/internal/domain/order"
	"github.com/example/shopwise/internal/domain/product"
	"github.com/example/shopwise/internal/domain/user"
	"github.com/example/shopwise/internal/infrastructure/store"
	"github.com/example/shopwise/internal/readmodel"
)

// Projector builds the read models from the event stream. Updates replace
// the stored model with a modified copy.
type Projector struct {
	readStore store.ReadStoreInterface
	logger    *slog.Logger
}

func NewProjector(readStore store.ReadStoreInterface) *Projector {
	return &Projector{
		readStore: readStore,
		logger:    slog.Default().With("component", "projector"),
	}
}

func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	event, err := store.DecodeEvent(value)
	if err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	p.logger.DebugContext(ctx, "received event",
		"event_type", event.EventType, "aggregate_type", event.AggregateType, "aggregate_id", event.AggregateID)

	switch event.AggregateType {
	case admin.AggregateType:
		return p.handleAdminEvent(ctx, event)
	case user.AggregateType:
		return p.handleUserEvent(ctx, event)
	case product.AggregateType:
		return p.handleProductEvent(ctx, event)
	case cart.AggregateType:
		return p.handleCartEvent(ctx, event)
	case order.AggregateType:
		return p.handleOrderEvent(ctx, event)
	}

	return nil
}

// ============================================
// Admins
// ============================================

func (p *Projector) handleAdminEvent(ctx context.Context, event store.Event) error {
	switch event.EventType {
	case admin.EventAdminCreated:
		var e admin.AdminCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		if err := p.readStore.Set(ctx, readmodel.CollectionAdmins, e.AdminID, &readmodel.Admin{
			ID:          e.AdminID,
			Email:       e.Email,
			Name:        e.Name,
			Role:        e.Role,
			Permissions: nonNil(e.Permissions),
			IsActive:    true,
			CreatedAt:   e.CreatedAt,
			UpdatedAt:   e.CreatedAt,
		}); err != nil {
			return err
		}
		return p.readStore.Set(ctx, readmodel.CollectionCredentials, readmodel.CredentialKey(readmodel.PrincipalAdmin, e.Email), &readmodel.Credential{
			Email:        e.Email,
			PrincipalID:  e.AdminID,
			Kind:         readmodel.PrincipalAdmin,
			PasswordHash: e.PasswordHash,
		})

	case admin.EventAdminLoggedIn:
		var e admin.AdminLoggedIn
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateAdmin(ctx, e.AdminID, func(a *readmodel.Admin) {
			at := e.LoggedAt
			a.LastLogin = &at
		})

	case admin.EventAdminAccessChanged:
		var e admin.AdminAccessChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateAdmin(ctx, e.AdminID, func(a *readmodel.Admin) {
			a.Role = e.Role
			a.Permissions = nonNil(e.Permissions)
			a.UpdatedAt = e.ChangedAt
		})

	case admin.EventAdminDeactivated:
		var e admin.AdminDeactivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateAdmin(ctx, e.AdminID, func(a *readmodel.Admin) {
			a.IsActive = false
			a.UpdatedAt = e.DeactivatedAt
		})

	case admin.EventAdminActivated:
		var e admin.AdminActivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateAdmin(ctx, e.AdminID, func(a *readmodel.Admin) {
			a.IsActive = true
			a.UpdatedAt = e.ActivatedAt
		})
	}
	return nil
}

func (p *Projector) updateAdmin(ctx context.Context, id string, fn func(*readmodel.Admin)) error {
	return p.update(ctx, readmodel.CollectionAdmins, id, func(current any) any {
		a := *current.(*readmodel.Admin)
		fn(&a)
		return &a
	})
}

// ============================================
// Customers
// ============================================

func (p *Projector) handleUserEvent(ctx context.Context, event store.Event) error {
	switch event.EventType {
	case user.EventUserCreated:
		var e user.UserCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		if err := p.readStore.Set(ctx, readmodel.CollectionUsers, e.UserID, &readmodel.User{
			ID:        e.UserID,
			Email:     e.Email,
			Name:      e.Name,
			Role:      auth.RoleCustomer,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.CreatedAt,
		}); err != nil {
			return err
		}
		return p.readStore.Set(ctx, readmodel.CollectionCredentials, readmodel.CredentialKey(readmodel.PrincipalCustomer, e.Email), &readmodel.Credential{
			Email:        e.Email,
			PrincipalID:  e.UserID,
			Kind:         readmodel.PrincipalCustomer,
			PasswordHash: e.PasswordHash,
		})

	case user.EventUserUpdated:
		var e user.UserUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateUser(ctx, e.UserID, func(u *readmodel.User) {
			u.Name = e.Name
			u.Phone = e.Phone
			u.Address = readmodel.Address(e.Address)
			u.UpdatedAt = e.UpdatedAt
		})

	case user.EventUserPasswordChanged:
		var e user.UserPasswordChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		current, ok, err := p.readStore.Get(ctx, readmodel.CollectionUsers, e.UserID)
		if err != nil {
			return err
		}
		if !ok {
			p.logger.WarnContext(ctx, "password change for unknown user", "user_id", e.UserID)
			return nil
		}
		email := current.(*readmodel.User).Email
		return p.update(ctx, readmodel.CollectionCredentials, readmodel.CredentialKey(readmodel.PrincipalCustomer, email), func(current any) any {
			c := *current.(*readmodel.Credential)
			c.PasswordHash = e.PasswordHash
			return &c
		})

	case user.EventUserLoggedIn:
		var e user.UserLoggedIn
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateUser(ctx, e.UserID, func(u *readmodel.User) {
			at := e.LoggedAt
			u.LastLogin = &at
		})
	}
	return nil
}

func (p *Projector) updateUser(ctx context.Context, id string, fn func(*readmodel.User)) error {
	return p.update(ctx, readmodel.CollectionUsers, id, func(current any) any {
		u := *current.(*readmodel.User)
		fn(&u)
		return &u
	})
}

// ============================================
// Products
// ============================================

func (p *Projector) handleProductEvent(ctx context.Context, event store.Event) error {
	switch event.EventType {
	case product.EventProductCreated:
		var e product.ProductCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.Set(ctx, readmodel.CollectionProducts, e.ProductID, &readmodel.Product{
			ID:             e.ProductID,
			Name:           e.Name,
			Description:    e.Description,
			Price:          e.Price,
			OriginalPrice:  e.OriginalPrice,
			Category:       e.Category,
			Brand:          e.Brand,
			Image:          e.Image,
			Images:         nonNil(e.Images),
			Stock:          e.Stock,
			Rating:         e.Rating,
			Reviews:        []readmodel.Review{},
			Specifications: nonNilMap(e.Specifications),
			Features:       nonNil(e.Features),
			Warranty:       e.Warranty,
			ReturnPolicy:   e.ReturnPolicy,
			IsFeatured:     e.IsFeatured,
			IsActive:       e.IsActive,
			Discount:       e.Discount,
			CreatedAt:      e.CreatedAt,
			UpdatedAt:      e.CreatedAt,
		})

	case product.EventProductUpdated:
		var e product.ProductUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateProduct(ctx, e.ProductID, func(prod *readmodel.Product) {
			applyProductPatch(prod, e.Patch)
			prod.UpdatedAt = e.UpdatedAt
		})

	case product.EventProductDeleted:
		var e product.ProductDeleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.Delete(ctx, readmodel.CollectionProducts, e.ProductID)

	case product.EventProductReviewAdded:
		var e product.ProductReviewAdded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateProduct(ctx, e.ProductID, func(prod *readmodel.Product) {
			reviews := withoutReview(prod.Reviews, e.Review.UserID)
			prod.Reviews = append(reviews, readmodel.Review{
				UserID:    e.Review.UserID,
				Name:      e.Review.Name,
				Rating:    e.Review.Rating,
				Comment:   e.Review.Comment,
				CreatedAt: e.Review.CreatedAt,
			})
			prod.Rating = e.Rating
			prod.NumReviews = e.NumReviews
		})

	case product.EventProductReviewRemoved:
		var e product.ProductReviewRemoved
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateProduct(ctx, e.ProductID, func(prod *readmodel.Product) {
			prod.Reviews = withoutReview(prod.Reviews, e.UserID)
			prod.Rating = e.Rating
			prod.NumReviews = e.NumReviews
		})

	case product.EventProductStockDecremented:
		var e product.ProductStockDecremented
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateProduct(ctx, e.ProductID, func(prod *readmodel.Product) {
			prod.Stock = e.Stock
			prod.Sold = e.Sold
		})
	}
	return nil
}

func (p *Projector) updateProduct(ctx context.Context, id string, fn func(*readmodel.Product)) error {
	return p.update(ctx, readmodel.CollectionProducts, id, func(current any) any {
		prod := *current.(*readmodel.Product)
		fn(&prod)
		return &prod
	})
}

func withoutReview(reviews []readmodel.Review, userID string) []readmodel.Review {
	out := make([]readmodel.Review, 0, len(reviews)+1)
	for _, r := range reviews {
		if r.UserID != userID {
			out = append(out, r)
		}
	}
	return out
}

func applyProductPatch(prod *readmodel.Product, patch product.Patch) {
	if patch.Name != nil {
		prod.Name = *patch.Name
	}
	if patch.Description != nil {
		prod.Description = *patch.Description
	}
	if patch.Price != nil {
		prod.Price = *patch.Price
	}
	if patch.OriginalPrice != nil {
		prod.OriginalPrice = patch.OriginalPrice
	}
	if patch.Category != nil {
		prod.Category = *patch.Category
	}
	if patch.Brand != nil {
		prod.Brand = *patch.Brand
	}
	if patch.Image != nil {
		prod.Image = *patch.Image
	}
	if patch.Images != nil {
		prod.Images = nonNil(*patch.Images)
	}
	if patch.Stock != nil {
		prod.Stock = *patch.Stock
	}
	if patch.Rating != nil {
		prod.Rating = *patch.Rating
	}
	if patch.Specifications != nil {
		prod.Specifications = nonNilMap(*patch.Specifications)
	}
	if patch.Features != nil {
		prod.Features = nonNil(*patch.Features)
	}
	if patch.Warranty != nil {
		prod.Warranty = *patch.Warranty
	}
	if patch.ReturnPolicy != nil {
		prod.ReturnPolicy = *patch.ReturnPolicy
	}
	if patch.IsFeatured != nil {
		prod.IsFeatured = *patch.IsFeatured
	}
	if patch.IsActive != nil {
		prod.IsActive = *patch.IsActive
	}
	if patch.Discount != nil {
		prod.Discount = *patch.Discount
	}
}

// ============================================
// Carts
// ============================================

func (p *Projector) handleCartEvent(ctx context.Context, event store.Event) error {
	switch event.EventType {
	case cart.EventItemAdded:
		var e cart.ItemAddedToCart
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.upsertCart(ctx, e.CartID, e.UserID, func(c *readmodel.Cart) {
			if i := cartIndex(c.Items, e.ProductID); i >= 0 {
				c.Items[i].Quantity += e.Quantity
			} else {
				c.Items = append(c.Items, readmodel.CartItem{ProductID: e.ProductID, Quantity: e.Quantity})
			}
			c.UpdatedAt = e.AddedAt
		})

	case cart.EventItemQuantitySet:
		var e cart.CartItemQuantitySet
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.upsertCart(ctx, e.CartID, e.UserID, func(c *readmodel.Cart) {
			if i := cartIndex(c.Items, e.ProductID); i >= 0 {
				c.Items[i].Quantity = e.Quantity
			}
			c.UpdatedAt = e.UpdatedAt
		})

	case cart.EventItemRemoved:
		var e cart.ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.upsertCart(ctx, e.CartID, e.UserID, func(c *readmodel.Cart) {
			if i := cartIndex(c.Items, e.ProductID); i >= 0 {
				c.Items = slices.Delete(c.Items, i, i+1)
			}
			c.UpdatedAt = e.RemovedAt
		})

	case cart.EventCartCleared:
		var e cart.CartCleared
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.Set(ctx, readmodel.CollectionCarts, e.CartID, &readmodel.Cart{
			ID:        e.CartID,
			UserID:    e.UserID,
			Items:     []readmodel.CartItem{},
			UpdatedAt: e.ClearedAt,
		})
	}
	return nil
}

// upsertCart applies fn to a copy of the cart, creating the cart on first use.
func (p *Projector) upsertCart(ctx context.Context, cartID, userID string, fn func(*readmodel.Cart)) error {
	current, ok, err := p.readStore.Get(ctx, readmodel.CollectionCarts, cartID)
	if err != nil {
		return err
	}

	c := readmodel.Cart{ID: cartID, UserID: userID}
	if ok {
		c = *current.(*readmodel.Cart)
	}
	c.Items = slices.Clone(c.Items)
	if c.Items == nil {
		c.Items = []readmodel.CartItem{}
	}
	fn(&c)
	return p.readStore.Set(ctx, readmodel.CollectionCarts, cartID, &c)
}

func cartIndex(items []readmodel.CartItem, productID string) int {
	return slices.IndexFunc(items, func(it readmodel.CartItem) bool { return it.ProductID == productID })
}

// ============================================
// Orders
// ============================================

func (p *Projector) handleOrderEvent(ctx context.Context, event store.Event) error {
	switch event.EventType {
	case order.EventOrderPlaced:
		var e order.OrderPlaced
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		items := make([]readmodel.OrderItem, 0, len(e.Items))
		for _, it := range e.Items {
			items = append(items, readmodel.OrderItem{
				ProductID: it.ProductID,
				Name:      it.Name,
				Price:     it.Price,
				Quantity:  it.Quantity,
			})
		}
		return p.readStore.Set(ctx, readmodel.CollectionOrders, e.OrderID, &readmodel.Order{
			ID:              e.OrderID,
			UserID:          e.UserID,
			Items:           items,
			TotalAmount:     e.TotalAmount,
			Status:          string(order.StatusPending),
			ShippingAddress: readmodel.ShippingAddress(e.ShippingAddress),
			PaymentMethod:   e.PaymentMethod,
			PaymentStatus:   string(e.PaymentStatus),
			CreatedAt:       e.PlacedAt,
			UpdatedAt:       e.PlacedAt,
			Version:         event.Version,
		})

	case order.EventOrderStatusUpdated:
		var e order.OrderStatusUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.update(ctx, readmodel.CollectionOrders, e.OrderID, func(current any) any {
			o := *current.(*readmodel.Order)
			// events can arrive out of order; a newer status wins
			if event.Version <= o.Version {
				p.logger.DebugContext(ctx, "stale order event skipped",
					"order_id", e.OrderID, "version", event.Version, "applied", o.Version)
				return current
			}
			o.Version = event.Version
			o.Status = string(e.Status)
			if e.TrackingNote != "" {
				o.TrackingNote = e.TrackingNote
			}
			if e.DeliveredAt != nil {
				at := *e.DeliveredAt
				o.DeliveredAt = &at
			}
			o.UpdatedAt = e.UpdatedAt
			return &o
		})
	}
	return nil
}

// update applies fn; a missing model is logged and skipped.
func (p *Projector) update(ctx context.Context, collection, id string, fn func(any) any) error {
	found, err := p.readStore.Update(ctx, collection, id, fn)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if !found {
		p.logger.WarnContext(ctx, "read model not found", "collection", collection, "id", id)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
