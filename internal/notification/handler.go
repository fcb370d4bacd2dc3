package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/shopwise/internal/domain"
	"github.com/example/shopwise/internal/domain/order"
	"github.com/example/shopwise/internal/email"
	"github.com/example/shopwise/internal/infrastructure/store"
	"github.com/example/shopwise/internal/logging"
	"github.com/example/shopwise/internal/query"
	"github.com/example/shopwise/internal/readmodel"
)

// Mailer sends the order emails. *email.Service implements it.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, to string, data email.OrderConfirmation) error
	SendStatusUpdate(ctx context.Context, to string, data email.StatusUpdate) error
}

// Handler turns order events into customer emails.
type Handler struct {
	mailer  Mailer
	queries *query.Handler
	logger  *slog.Logger
}

func NewHandler(mailer Mailer, queries *query.Handler) *Handler {
	return &Handler{
		mailer:  mailer,
		queries: queries,
		logger:  logging.Component("notifier"),
	}
}

// HandleEvent processes one published event. Events other than order
// placement and status changes are ignored, as are orders whose customer
// cannot be resolved.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	event, err := store.DecodeEvent(value)
	if err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	switch event.EventType {
	case order.EventOrderPlaced:
		return h.handleOrderPlaced(ctx, event)
	case order.EventOrderStatusUpdated:
		return h.handleStatusUpdated(ctx, event)
	}
	return nil
}

func (h *Handler) handleOrderPlaced(ctx context.Context, event store.Event) error {
	var e order.OrderPlaced
	if err := json.Unmarshal(event.Data, &e); err != nil {
		return fmt.Errorf("decode %s: %w", event.EventType, err)
	}

	customer, err := h.customer(ctx, e.UserID)
	if err != nil || customer == nil {
		return err
	}

	lines := make([]email.Line, 0, len(e.Items))
	for _, it := range e.Items {
		lines = append(lines, email.Line{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
			Subtotal: it.Subtotal(),
		})
	}

	if err := h.mailer.SendOrderConfirmation(ctx, customer.Email, email.OrderConfirmation{
		CustomerName:  customer.Name,
		OrderID:       e.OrderID,
		Items:         lines,
		Total:         e.TotalAmount,
		PaymentMethod: e.PaymentMethod,
		Address:       formatAddress(e.ShippingAddress),
	}); err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "order confirmation sent", "order_id", e.OrderID, "user_id", e.UserID)
	return nil
}

func (h *Handler) handleStatusUpdated(ctx context.Context, event store.Event) error {
	var e order.OrderStatusUpdated
	if err := json.Unmarshal(event.Data, &e); err != nil {
		return fmt.Errorf("decode %s: %w", event.EventType, err)
	}

	o, err := h.queries.GetOrder(ctx, e.OrderID)
	if errors.Is(err, domain.ErrNotFound) {
		h.logger.WarnContext(ctx, "order not projected yet, skipping status email", "order_id", e.OrderID)
		return nil
	}
	if err != nil {
		return err
	}

	customer, err := h.customer(ctx, o.UserID)
	if err != nil || customer == nil {
		return err
	}

	if err := h.mailer.SendStatusUpdate(ctx, customer.Email, email.StatusUpdate{
		CustomerName:   customer.Name,
		OrderID:        e.OrderID,
		PreviousStatus: string(e.PreviousStatus),
		Status:         string(e.Status),
		TrackingNote:   e.TrackingNote,
	}); err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "status update sent", "order_id", e.OrderID, "status", e.Status)
	return nil
}

// customer returns nil without error when the account is unknown.
func (h *Handler) customer(ctx context.Context, userID string) (*readmodel.User, error) {
	u, err := h.queries.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		h.logger.WarnContext(ctx, "customer not found, skipping email", "user_id", userID)
		return nil, nil
	}
	return u, err
}

func formatAddress(a order.Address) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Address, a.City, a.Zip} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
