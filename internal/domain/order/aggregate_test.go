package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/shopwise/internal/domain"
	"github.com/example/shopwise/internal/infrastructure/store/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAddr = Address{Address: "1 Main St", City: "Pune", Zip: "411001"}

func newTestOrderService(opts ...Option) (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore, opts...)
	return service, eventStore
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func placeTestOrder(t *testing.T, eventStore *mocks.MockEventStore, orderID string) {
	t.Helper()
	require.NoError(t, eventStore.AddEvent(orderID, AggregateType, EventOrderPlaced, OrderPlaced{
		OrderID:       orderID,
		UserID:        "user-123",
		Items:         []Item{{ProductID: "prod-1", Name: "Phone", Price: price("100"), Quantity: 1}},
		TotalAmount:   price("100"),
		PaymentMethod: "cod",
		PaymentStatus: PaymentPending,
		PlacedAt:      time.Now(),
	}))
}

// ============================================
// Place Order Tests
// ============================================

func TestService_Place_Success(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	items := []Item{
		{ProductID: "prod-1", Name: "Phone", Price: price("499.99"), Quantity: 2},
		{ProductID: "prod-2", Name: "Case", Price: price("20"), Quantity: 1},
	}

	order, err := service.Place(ctx, "user-123", items, testAddr, "card")

	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "user-123", order.UserID)
	assert.Equal(t, "1019.98", order.TotalAmount.String())
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, PaymentPaid, order.PaymentStatus)
	assert.Equal(t, testAddr, order.ShippingAddress)
	assert.Nil(t, order.DeliveredAt)
	assert.Equal(t, 1, order.Version)

	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventOrderPlaced, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, AggregateType, eventStore.AppendCalls[0].AggregateType)
}

func TestService_Place_CashOnDeliveryIsPending(t *testing.T) {
	service, _ := newTestOrderService()

	order, err := service.Place(context.Background(), "user-123",
		[]Item{{ProductID: "p", Name: "Cable", Price: price("5"), Quantity: 3}}, testAddr, "cod")

	require.NoError(t, err)
	assert.Equal(t, PaymentPending, order.PaymentStatus)
	assert.Equal(t, "15", order.TotalAmount.String())
}

func TestService_Place_ValidationErrors(t *testing.T) {
	ok := []Item{{ProductID: "p", Name: "Cable", Price: price("5"), Quantity: 1}}

	tests := []struct {
		name    string
		items   []Item
		addr    Address
		method  string
		wantErr error
	}{
		{"nil items", nil, testAddr, "cod", ErrEmptyOrder},
		{"empty items", []Item{}, testAddr, "cod", ErrEmptyOrder},
		{"zero quantity", []Item{{ProductID: "p", Price: price("5"), Quantity: 0}}, testAddr, "cod", ErrInvalidQuantity},
		{"negative price", []Item{{ProductID: "p", Price: price("-1"), Quantity: 1}}, testAddr, "cod", ErrInvalidPrice},
		{"missing zip", ok, Address{Address: "x", City: "y"}, "cod", ErrMissingAddress},
		{"missing payment", ok, testAddr, "", ErrMissingPayment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, eventStore := newTestOrderService()

			order, err := service.Place(context.Background(), "user-123", tt.items, tt.addr, tt.method)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Nil(t, order)
			assert.Empty(t, eventStore.AppendCalls)
		})
	}
}

func TestService_Place_AppendError(t *testing.T) {
	service, eventStore := newTestOrderService()
	eventStore.AppendErr = errors.New("store down")

	order, err := service.Place(context.Background(), "user-123",
		[]Item{{ProductID: "p", Price: price("5"), Quantity: 1}}, testAddr, "cod")

	assert.EqualError(t, err, "store down")
	assert.Nil(t, order)
}

// ============================================
// UpdateStatus Tests
// ============================================

func TestService_UpdateStatus_PermissiveAllowsAnyChange(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()
	placeTestOrder(t, eventStore, "order-1")

	// pending -> delivered -> pending, all allowed by default
	order, err := service.UpdateStatus(ctx, "order-1", StatusDelivered, "")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, order.Status)

	order, err = service.UpdateStatus(ctx, "order-1", StatusPending, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, order.Status)

	assert.Len(t, eventStore.AppendCalls, 2)
}

func TestService_UpdateStatus_DeliveredRestampsEachTime(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	service, eventStore := newTestOrderService(WithClock(func() time.Time { return now }))
	ctx := context.Background()
	placeTestOrder(t, eventStore, "order-1")

	first, err := service.UpdateStatus(ctx, "order-1", StatusDelivered, "")
	require.NoError(t, err)
	require.NotNil(t, first.DeliveredAt)
	assert.True(t, now.Equal(*first.DeliveredAt))

	now = now.Add(2 * time.Hour)
	second, err := service.UpdateStatus(ctx, "order-1", StatusDelivered, "")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, second.Status)
	assert.True(t, now.Equal(*second.DeliveredAt))
}

func TestService_UpdateStatus_TrackingNoteKeptWhenEmpty(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()
	placeTestOrder(t, eventStore, "order-1")

	order, err := service.UpdateStatus(ctx, "order-1", StatusShipped, "AWB 123")
	require.NoError(t, err)
	assert.Equal(t, "AWB 123", order.TrackingNote)

	order, err = service.UpdateStatus(ctx, "order-1", StatusShipped, "")
	require.NoError(t, err)
	assert.Equal(t, "AWB 123", order.TrackingNote)
}

func TestService_UpdateStatus_UnknownStatus(t *testing.T) {
	service, eventStore := newTestOrderService()
	placeTestOrder(t, eventStore, "order-1")

	_, err := service.UpdateStatus(context.Background(), "order-1", Status("returned"), "")

	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_UpdateStatus_OrderNotFound(t *testing.T) {
	service, _ := newTestOrderService()

	_, err := service.UpdateStatus(context.Background(), "missing", StatusShipped, "")

	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_UpdateStatus_ForwardOnlyPolicy(t *testing.T) {
	service, eventStore := newTestOrderService(WithTransitionPolicy(ForwardOnly))
	ctx := context.Background()
	placeTestOrder(t, eventStore, "order-1")

	_, err := service.UpdateStatus(ctx, "order-1", StatusDelivered, "")
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = service.UpdateStatus(ctx, "order-1", StatusProcessing, "")
	require.NoError(t, err)
	_, err = service.UpdateStatus(ctx, "order-1", StatusProcessing, "")
	require.NoError(t, err, "same status is always allowed")
}

func TestService_Get_ReplaysEvents(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()
	placeTestOrder(t, eventStore, "order-1")
	_, err := service.UpdateStatus(ctx, "order-1", StatusCancelled, "customer request")
	require.NoError(t, err)

	order, err := service.Get(ctx, "order-1")

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, order.Status)
	assert.Equal(t, "customer request", order.TrackingNote)
	assert.Equal(t, "100", order.TotalAmount.String())
	assert.Equal(t, 2, order.Version)
}

func TestService_SnapshotEveryTenEvents(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()
	placeTestOrder(t, eventStore, "order-1")

	for i := 0; i < 9; i++ {
		_, err := service.UpdateStatus(ctx, "order-1", StatusProcessing, "")
		require.NoError(t, err)
	}

	require.Len(t, eventStore.SnapshotCalls, 1)
	assert.Equal(t, 10, eventStore.SnapshotCalls[0].Version)

	order, err := service.Get(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, order.Status)
	assert.Equal(t, 10, order.Version)
}

// ============================================
// Status helpers
// ============================================

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("Shipped")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, st)

	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestStatus_CountsTowardRevenue(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.Equal(t, s != StatusCancelled, s.CountsTowardRevenue(), s)
	}
}

func TestCanTransitionTo(t *testing.T) {
	o := &Order{Status: StatusPending}
	assert.True(t, o.CanTransitionTo(StatusProcessing))
	assert.True(t, o.CanTransitionTo(StatusCancelled))
	assert.False(t, o.CanTransitionTo(StatusShipped))

	o.Status = StatusDelivered
	assert.False(t, o.CanTransitionTo(StatusCancelled))
}
