package command

import (
	"context"

	"github.com/example/shopwise/internal/domain/cart"
	"github.com/example/shopwise/internal/domain/order"
	"github.com/example/shopwise/internal/domain/product"
	"github.com/example/shopwise/internal/readmodel"
)

// PlaceOrder checks out explicit lines or, when none are given, the
// customer's cart. Each line is priced from the current catalog and the
// snapshot is never recomputed. Stock is left untouched. A non-empty cart is
// cleared once the order is recorded.
func (h *Handler) PlaceOrder(ctx context.Context, cmd PlaceOrder) (*readmodel.Order, error) {
	c, err := h.cartSvc.Get(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	lines := cmd.Items
	if len(lines) == 0 {
		for _, it := range c.Items {
			lines = append(lines, OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
		}
	}
	if len(lines) == 0 {
		return nil, order.ErrEmptyOrder
	}

	items := make([]order.Item, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, order.ErrInvalidQuantity
		}
		if line.ProductID == "" {
			return nil, cart.ErrInvalidProduct
		}
		p, err := h.productSvc.Get(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !p.IsActive {
			return nil, product.ErrProductNotFound
		}
		items = append(items, order.Item{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  line.Quantity,
		})
	}

	o, err := h.orderSvc.Place(ctx, cmd.UserID, items, cmd.ShippingAddress, cmd.PaymentMethod)
	if err != nil {
		return nil, err
	}
	h.logger.Info("order placed", "order_id", o.ID, "user_id", cmd.UserID, "total", o.TotalAmount.String())

	if len(c.Items) > 0 {
		if _, err := h.cartSvc.Clear(ctx, cmd.UserID); err != nil {
			h.logger.Warn("could not clear cart after checkout", "user_id", cmd.UserID, "error", err)
		}
	}
	return OrderView(o), nil
}

// UpdateOrderStatus sets the status under the order service's transition
// policy.
func (h *Handler) UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatus) (*readmodel.Order, error) {
	status, err := order.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	o, err := h.orderSvc.UpdateStatus(ctx, cmd.OrderID, status, cmd.TrackingNote)
	if err != nil {
		return nil, err
	}
	h.logger.Info("order status updated", "order_id", o.ID, "status", o.Status)
	return OrderView(o), nil
}
