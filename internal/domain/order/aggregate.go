package order

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/example/shopwise/internal/domain"
	"github.com/example/shopwise/internal/domain/aggregate"
	"github.com/example/shopwise/internal/infrastructure/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateType = "Order"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}
}

// ParseStatus rejects anything outside the status enum.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(AllStatuses(), st) {
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// CountsTowardRevenue is the single revenue rule: every order except a
// cancelled one contributes its total.
func (s Status) CountsTowardRevenue() bool {
	return s != StatusCancelled
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// PaymentStatusFor maps a payment method to its initial payment status.
// Card payments are settled by the dummy gateway before checkout.
func PaymentStatusFor(method string) PaymentStatus {
	if method == "card" {
		return PaymentPaid
	}
	return PaymentPending
}

var (
	ErrOrderNotFound        = domain.New(domain.ErrNotFound, "Order not found")
	ErrEmptyOrder           = domain.Invalid("items", "Order must have at least one item")
	ErrInvalidQuantity      = domain.Invalid("quantity", "Quantity must be at least 1")
	ErrInvalidPrice         = domain.Invalid("price", "Price must not be negative")
	ErrMissingAddress       = domain.Invalid("shippingAddress", "Please provide address, city and zip")
	ErrMissingPayment       = domain.Invalid("paymentMethod", "Please select a payment method")
	ErrInvalidStatus        = domain.Invalid("status", "Invalid order status")
	ErrTransitionNotAllowed = domain.New(domain.ErrConflict, "Order status transition not allowed")
)

// TransitionPolicy decides which status changes UpdateStatus accepts.
type TransitionPolicy int

const (
	// Permissive allows any status to be set from any status.
	Permissive TransitionPolicy = iota
	// ForwardOnly follows validTransitions; setting the current status again
	// is always allowed.
	ForwardOnly
)

// validTransitions defines the forward-only lifecycle
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// Allows reports whether the policy permits from -> to.
func (p TransitionPolicy) Allows(from, to Status) bool {
	if p == Permissive || from == to {
		return true
	}
	return slices.Contains(validTransitions[from], to)
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []Item          `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          Status          `json:"status"`
	ShippingAddress Address         `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	TrackingNote    string          `json:"tracking_note,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	Version         int             `json:"version"` // Current event version
}

// Aggregate interface implementation
func (o *Order) GetID() string    { return o.ID }
func (o *Order) GetVersion() int  { return o.Version }
func (o *Order) SetVersion(v int) { o.Version = v }

// CanTransitionTo checks the target status against the forward-only lifecycle
func (o *Order) CanTransitionTo(target Status) bool {
	return ForwardOnly.Allows(o.Status, target)
}

// ApplyEvent applies a single event to the order state (implements aggregate.Root)
func (o *Order) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventOrderPlaced:
		var data OrderPlaced
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.ID = data.OrderID
		o.UserID = data.UserID
		o.Items = data.Items
		o.TotalAmount = data.TotalAmount
		o.Status = StatusPending
		o.ShippingAddress = data.ShippingAddress
		o.PaymentMethod = data.PaymentMethod
		o.PaymentStatus = data.PaymentStatus
		o.CreatedAt = data.PlacedAt
		o.UpdatedAt = data.PlacedAt
	case EventOrderStatusUpdated:
		var data OrderStatusUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = data.Status
		if data.TrackingNote != "" {
			o.TrackingNote = data.TrackingNote
		}
		if data.DeliveredAt != nil {
			o.DeliveredAt = data.DeliveredAt
		}
		o.UpdatedAt = data.UpdatedAt
	}
	o.Version = event.Version
	return nil
}

// Option configures a Service.
type Option func(*Service)

// WithTransitionPolicy replaces the default Permissive policy.
func WithTransitionPolicy(p TransitionPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	eventStore store.EventStoreInterface
	policy     TransitionPolicy
	now        func() time.Time
}

func NewService(es store.EventStoreInterface, opts ...Option) *Service {
	s := &Service{eventStore: es, policy: Permissive, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// loadOrder loads an order by replaying events, using snapshot if available
func (s *Service) loadOrder(ctx context.Context, orderID string) (*Order, error) {
	order, found, err := aggregate.Load(ctx, s.eventStore, orderID, func() *Order {
		return &Order{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Get returns the current state of an order.
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.loadOrder(ctx, orderID)
}

// Place records a new pending order. Items must already carry the catalog
// name and price; the total is summed here and never recomputed.
func (s *Service) Place(ctx context.Context, userID string, items []Item, addr Address, paymentMethod string) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	if addr.Address == "" || addr.City == "" || addr.Zip == "" {
		return nil, ErrMissingAddress
	}
	if paymentMethod == "" {
		return nil, ErrMissingPayment
	}

	total := decimal.Zero
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		if item.Price.IsNegative() {
			return nil, ErrInvalidPrice
		}
		total = total.Add(item.Subtotal())
	}

	orderID := uuid.New().String()
	event := OrderPlaced{
		OrderID:         orderID,
		UserID:          userID,
		Items:           items,
		TotalAmount:     total,
		ShippingAddress: addr,
		PaymentMethod:   paymentMethod,
		PaymentStatus:   PaymentStatusFor(paymentMethod),
		PlacedAt:        s.now().UTC(),
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventOrderPlaced, event)
	if err != nil {
		return nil, err
	}

	order := &Order{}
	aggregate.ApplyAndSnapshot(ctx, s.eventStore, order, AggregateType, storedEvent)
	return order, nil
}

// UpdateStatus sets the order status under the configured policy. An empty
// trackingNote keeps the existing note. Moving to delivered stamps
// deliveredAt with the current time on every call.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status Status, trackingNote string) (*Order, error) {
	if !slices.Contains(AllStatuses(), status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !s.policy.Allows(order.Status, status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrTransitionNotAllowed, order.Status, status)
	}

	now := s.now().UTC()
	event := OrderStatusUpdated{
		OrderID:        orderID,
		PreviousStatus: order.Status,
		Status:         status,
		TrackingNote:   trackingNote,
		UpdatedAt:      now,
	}
	if status == StatusDelivered {
		event.DeliveredAt = &now
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventOrderStatusUpdated, event)
	if err != nil {
		return nil, err
	}

	aggregate.ApplyAndSnapshot(ctx, s.eventStore, order, AggregateType, storedEvent)
	return order, nil
}
