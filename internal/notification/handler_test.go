package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/shopwise/internal/domain/order"
	"github.com/example/shopwise/internal/domain/user"
	"github.com/example/shopwise/internal/email"
	"github.com/example/shopwise/internal/infrastructure/store"
	"github.com/example/shopwise/internal/infrastructure/store/mocks"
	"github.com/example/shopwise/internal/query"
	"github.com/example/shopwise/internal/readmodel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to           string
	confirmation *email.OrderConfirmation
	status       *email.StatusUpdate
}

type fakeMailer struct {
	err  error
	sent []sentMail
}

func (f *fakeMailer) SendOrderConfirmation(_ context.Context, to string, data email.OrderConfirmation) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, confirmation: &data})
	return nil
}

func (f *fakeMailer) SendStatusUpdate(_ context.Context, to string, data email.StatusUpdate) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, status: &data})
	return nil
}

func newTestNotifier() (*Handler, *fakeMailer, *mocks.MockReadStore) {
	readStore := mocks.NewMockReadStore()
	mailer := &fakeMailer{}
	return NewHandler(mailer, query.NewHandler(readStore)), mailer, readStore
}

func encodeEvent(t *testing.T, aggregateType, eventType, aggregateID string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	value, err := json.Marshal(store.Event{
		ID:            "evt-1",
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          raw,
		Timestamp:     time.Now(),
		Version:       1,
	})
	require.NoError(t, err)
	return value
}

func placedEvent(t *testing.T) []byte {
	return encodeEvent(t, order.AggregateType, order.EventOrderPlaced, "order-1", order.OrderPlaced{
		OrderID: "order-1",
		UserID:  "user-1",
		Items: []order.Item{
			{ProductID: "p-1", Name: "Phone", Price: decimal.RequireFromString("199.99"), Quantity: 2},
		},
		TotalAmount:     decimal.RequireFromString("399.98"),
		ShippingAddress: order.Address{Address: "1 Main St", City: "Pune", Zip: "411001"},
		PaymentMethod:   "cod",
		PlacedAt:        time.Now(),
	})
}

func seedCustomer(rs *mocks.MockReadStore) {
	rs.SetData(readmodel.CollectionUsers, "user-1", &readmodel.User{ID: "user-1", Email: "asha@example.com", Name: "Asha"})
}

func TestHandler_OrderPlacedSendsConfirmation(t *testing.T) {
	handler, mailer, readStore := newTestNotifier()
	seedCustomer(readStore)

	err := handler.HandleEvent(context.Background(), []byte("order-1"), placedEvent(t))

	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	sent := mailer.sent[0]
	assert.Equal(t, "asha@example.com", sent.to)
	require.NotNil(t, sent.confirmation)
	assert.Equal(t, "Asha", sent.confirmation.CustomerName)
	assert.Equal(t, "1 Main St, Pune, 411001", sent.confirmation.Address)
	require.Len(t, sent.confirmation.Items, 1)
	assert.Equal(t, "399.98", sent.confirmation.Items[0].Subtotal.String())
	assert.Equal(t, "399.98", sent.confirmation.Total.String())
}

func TestHandler_StatusUpdateSendsEmail(t *testing.T) {
	handler, mailer, readStore := newTestNotifier()
	seedCustomer(readStore)
	readStore.SetData(readmodel.CollectionOrders, "order-1", &readmodel.Order{ID: "order-1", UserID: "user-1", Status: "shipped"})

	value := encodeEvent(t, order.AggregateType, order.EventOrderStatusUpdated, "order-1", order.OrderStatusUpdated{
		OrderID:        "order-1",
		PreviousStatus: order.StatusProcessing,
		Status:         order.StatusShipped,
		TrackingNote:   "Courier AB123",
		UpdatedAt:      time.Now(),
	})
	err := handler.HandleEvent(context.Background(), []byte("order-1"), value)

	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	require.NotNil(t, mailer.sent[0].status)
	assert.Equal(t, "processing", mailer.sent[0].status.PreviousStatus)
	assert.Equal(t, "shipped", mailer.sent[0].status.Status)
	assert.Equal(t, "Courier AB123", mailer.sent[0].status.TrackingNote)
}

func TestHandler_SkipsUnresolvable(t *testing.T) {
	handler, mailer, _ := newTestNotifier()

	require.NoError(t, handler.HandleEvent(context.Background(), nil, placedEvent(t)))

	value := encodeEvent(t, order.AggregateType, order.EventOrderStatusUpdated, "order-9", order.OrderStatusUpdated{
		OrderID: "order-9",
		Status:  order.StatusShipped,
	})
	require.NoError(t, handler.HandleEvent(context.Background(), nil, value))

	assert.Empty(t, mailer.sent)
}

func TestHandler_IgnoresOtherEvents(t *testing.T) {
	handler, mailer, readStore := newTestNotifier()

	value := encodeEvent(t, user.AggregateType, user.EventUserCreated, "user-1", map[string]string{"user_id": "user-1"})
	require.NoError(t, handler.HandleEvent(context.Background(), nil, value))

	assert.Empty(t, mailer.sent)
	assert.Empty(t, readStore.GetCalls)
}

func TestHandler_Errors(t *testing.T) {
	t.Run("malformed payload", func(t *testing.T) {
		handler, _, _ := newTestNotifier()
		assert.Error(t, handler.HandleEvent(context.Background(), nil, []byte("{not json")))
	})

	t.Run("mail failure is returned for redelivery", func(t *testing.T) {
		handler, mailer, readStore := newTestNotifier()
		seedCustomer(readStore)
		mailer.err = errors.New("smtp down")

		err := handler.HandleEvent(context.Background(), nil, placedEvent(t))
		assert.EqualError(t, err, "smtp down")
	})

	t.Run("read store failure", func(t *testing.T) {
		handler, _, readStore := newTestNotifier()
		readStore.Err = errors.New("db down")

		err := handler.HandleEvent(context.Background(), nil, placedEvent(t))
		assert.ErrorContains(t, err, "db down")
	})
}
