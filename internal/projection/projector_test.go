package projection

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/shopwise/internal/auth"
	"github.com/example/shopwise/internal/domain/admin"
	"github.com/example/shopwise/internal/domain/cart"
	"github.com/example/shopwise/internal/domain/order"
	"github.com/example/shopwise/internal/domain/product"
	"github.com/example/shopwise/internal/domain/user"
	"github.com/example/shopwise/internal/infrastructure/store"
	"github.com/example/shopwise/internal/infrastructure/store/mocks"
	"github.com/example/shopwise/internal/readmodel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProjector() (*Projector, *mocks.MockReadStore) {
	readStore := mocks.NewMockReadStore()
	projector := NewProjector(readStore)
	return projector, readStore
}

func makeEvent(aggregateType, eventType string, data any) []byte {
	return makeVersionedEvent(aggregateType, eventType, 1, data)
}

func makeVersionedEvent(aggregateType, eventType string, version int, data any) []byte {
	jsonData, _ := json.Marshal(data)
	event := store.Event{
		ID:            "event-123",
		AggregateID:   "agg-123",
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       version,
	}
	result, _ := json.Marshal(event)
	return result
}

func handle(t *testing.T, p *Projector, aggregateType, eventType string, data any) {
	t.Helper()
	require.NoError(t, p.HandleEvent(context.Background(), nil, makeEvent(aggregateType, eventType, data)))
}

func handleVersion(t *testing.T, p *Projector, version int, aggregateType, eventType string, data any) {
	t.Helper()
	require.NoError(t, p.HandleEvent(context.Background(), nil, makeVersionedEvent(aggregateType, eventType, version, data)))
}

func TestProjector_InvalidPayload(t *testing.T) {
	projector, _ := newTestProjector()

	err := projector.HandleEvent(context.Background(), nil, []byte("not json"))

	assert.Error(t, err)
}

func TestProjector_UnknownAggregateIgnored(t *testing.T) {
	projector, readStore := newTestProjector()

	handle(t, projector, "Category", "CategoryCreated", map[string]string{"id": "c1"})

	assert.Empty(t, readStore.SetCalls)
}

// ============================================
// Admin Event Tests
// ============================================

func TestProjector_AdminLifecycle(t *testing.T) {
	projector, readStore := newTestProjector()
	now := time.Now().UTC()

	handle(t, projector, admin.AggregateType, admin.EventAdminCreated, admin.AdminCreated{
		AdminID:      "adm-1",
		Email:        "ops@shopwise.example",
		Name:         "Ops",
		PasswordHash: "hash",
		Role:         auth.RoleManager,
		Permissions:  []auth.Permission{auth.PermOrders},
		CreatedAt:    now,
	})

	data, ok := readStore.GetData(readmodel.CollectionAdmins, "adm-1")
	require.True(t, ok)
	a := data.(*readmodel.Admin)
	assert.Equal(t, auth.RoleManager, a.Role)
	assert.True(t, a.IsActive)
	assert.Equal(t, []auth.Permission{auth.PermOrders}, a.Permissions)

	cred, ok := readStore.GetData(readmodel.CollectionCredentials, readmodel.CredentialKey(readmodel.PrincipalAdmin, "ops@shopwise.example"))
	require.True(t, ok)
	assert.Equal(t, "adm-1", cred.(*readmodel.Credential).PrincipalID)
	assert.Equal(t, readmodel.PrincipalAdmin, cred.(*readmodel.Credential).Kind)
	assert.Equal(t, "hash", cred.(*readmodel.Credential).PasswordHash)

	handle(t, projector, admin.AggregateType, admin.EventAdminAccessChanged, admin.AdminAccessChanged{
		AdminID: "adm-1", Role: auth.RoleAdmin, Permissions: []auth.Permission{auth.PermProducts}, ChangedAt: now,
	})
	handle(t, projector, admin.AggregateType, admin.EventAdminDeactivated, admin.AdminDeactivated{
		AdminID: "adm-1", DeactivatedAt: now,
	})
	handle(t, projector, admin.AggregateType, admin.EventAdminLoggedIn, admin.AdminLoggedIn{
		AdminID: "adm-1", LoggedAt: now,
	})

	data, _ = readStore.GetData(readmodel.CollectionAdmins, "adm-1")
	updated := data.(*readmodel.Admin)
	assert.Equal(t, auth.RoleAdmin, updated.Role)
	assert.Equal(t, []auth.Permission{auth.PermProducts}, updated.Permissions)
	assert.False(t, updated.IsActive)
	require.NotNil(t, updated.LastLogin)

	// the first stored value was replaced, not mutated
	assert.True(t, a.IsActive)
}

// ============================================
// User Event Tests
// ============================================

func TestProjector_UserCreatedAndPasswordChanged(t *testing.T) {
	projector, readStore := newTestProjector()

	handle(t, projector, user.AggregateType, user.EventUserCreated, user.UserCreated{
		UserID: "user-1", Email: "a@b.cd", PasswordHash: "old", Name: "A", CreatedAt: time.Now(),
	})

	data, ok := readStore.GetData(readmodel.CollectionUsers, "user-1")
	require.True(t, ok)
	assert.Equal(t, auth.RoleCustomer, data.(*readmodel.User).Role)

	handle(t, projector, user.AggregateType, user.EventUserPasswordChanged, user.UserPasswordChanged{
		UserID: "user-1", PasswordHash: "new", ChangedAt: time.Now(),
	})

	cred, ok := readStore.GetData(readmodel.CollectionCredentials, readmodel.CredentialKey(readmodel.PrincipalCustomer, "a@b.cd"))
	require.True(t, ok)
	assert.Equal(t, "new", cred.(*readmodel.Credential).PasswordHash)
	assert.Equal(t, readmodel.PrincipalCustomer, cred.(*readmodel.Credential).Kind)
}

func TestProjector_UserUpdated(t *testing.T) {
	projector, readStore := newTestProjector()
	readStore.SetData(readmodel.CollectionUsers, "user-1", &readmodel.User{ID: "user-1", Name: "Old"})

	handle(t, projector, user.AggregateType, user.EventUserUpdated, user.UserUpdated{
		UserID:  "user-1",
		Name:    "New",
		Phone:   "123",
		Address: user.Address{City: "Osaka"},
	})

	data, _ := readStore.GetData(readmodel.CollectionUsers, "user-1")
	u := data.(*readmodel.User)
	assert.Equal(t, "New", u.Name)
	assert.Equal(t, "123", u.Phone)
	assert.Equal(t, "Osaka", u.Address.City)
}

func TestProjector_UpdateMissingModelIsSkipped(t *testing.T) {
	projector, readStore := newTestProjector()

	handle(t, projector, user.AggregateType, user.EventUserLoggedIn, user.UserLoggedIn{UserID: "ghost"})

	_, ok := readStore.GetData(readmodel.CollectionUsers, "ghost")
	assert.False(t, ok)
}

// ============================================
// Product Event Tests
// ============================================

func TestProjector_ProductCreated(t *testing.T) {
	projector, readStore := newTestProjector()

	handle(t, projector, product.AggregateType, product.EventProductCreated, product.ProductCreated{
		ProductID: "prod-123",
		Name:      "Test Product",
		Price:     decimal.RequireFromString("999.50"),
		Brand:     "Apple",
		Category:  "Apple",
		Stock:     5,
		Rating:    4,
		IsActive:  true,
		CreatedAt: time.Now(),
	})

	data, ok := readStore.GetData(readmodel.CollectionProducts, "prod-123")
	require.True(t, ok)
	prod := data.(*readmodel.Product)
	assert.Equal(t, "Test Product", prod.Name)
	assert.True(t, decimal.RequireFromString("999.5").Equal(prod.Price))
	assert.NotNil(t, prod.Images)
	assert.NotNil(t, prod.Reviews)
	assert.True(t, prod.LowStock())
}

func TestProjector_ProductUpdatedAppliesPatchOnly(t *testing.T) {
	projector, readStore := newTestProjector()
	readStore.SetData(readmodel.CollectionProducts, "prod-123", &readmodel.Product{
		ID:    "prod-123",
		Name:  "Old Name",
		Brand: "Apple",
		Price: decimal.NewFromInt(100),
		Stock: 10,
	})

	name := "New Name"
	stock := 3
	handle(t, projector, product.AggregateType, product.EventProductUpdated, product.ProductUpdated{
		ProductID: "prod-123",
		Patch:     product.Patch{Name: &name, Stock: &stock},
		UpdatedAt: time.Now(),
	})

	data, _ := readStore.GetData(readmodel.CollectionProducts, "prod-123")
	prod := data.(*readmodel.Product)
	assert.Equal(t, "New Name", prod.Name)
	assert.Equal(t, 3, prod.Stock)
	assert.Equal(t, "Apple", prod.Brand)
	assert.True(t, decimal.NewFromInt(100).Equal(prod.Price))
}

func TestProjector_ProductDeleted(t *testing.T) {
	projector, readStore := newTestProjector()
	readStore.SetData(readmodel.CollectionProducts, "prod-123", &readmodel.Product{ID: "prod-123"})

	handle(t, projector, product.AggregateType, product.EventProductDeleted, product.ProductDeleted{ProductID: "prod-123"})

	_, ok := readStore.GetData(readmodel.CollectionProducts, "prod-123")
	assert.False(t, ok)
}

func TestProjector_ProductReviews(t *testing.T) {
	projector, readStore := newTestProjector()
	readStore.SetData(readmodel.CollectionProducts, "prod-1", &readmodel.Product{ID: "prod-1"})

	handle(t, projector, product.AggregateType, product.EventProductReviewAdded, product.ProductReviewAdded{
		ProductID: "prod-1", Review: product.Review{UserID: "u1", Rating: 5}, Rating: 5, NumReviews: 1,
	})
	handle(t, projector, product.AggregateType, product.EventProductReviewAdded, product.ProductReviewAdded{
		ProductID: "prod-1", Review: product.Review{UserID: "u2", Rating: 4}, Rating: 4.5, NumReviews: 2,
	})
	handle(t, projector, product.AggregateType, product.EventProductReviewAdded, product.ProductReviewAdded{
		ProductID: "prod-1", Review: product.Review{UserID: "u1", Rating: 3}, Rating: 3.5, NumReviews: 2,
	})

	data, _ := readStore.GetData(readmodel.CollectionProducts, "prod-1")
	prod := data.(*readmodel.Product)
	assert.Len(t, prod.Reviews, 2)
	assert.Equal(t, 3.5, prod.Rating)

	handle(t, projector, product.AggregateType, product.EventProductReviewRemoved, product.ProductReviewRemoved{
		ProductID: "prod-1", UserID: "u1", Rating: 4, NumReviews: 1,
	})

	data, _ = readStore.GetData(readmodel.CollectionProducts, "prod-1")
	prod = data.(*readmodel.Product)
	require.Len(t, prod.Reviews, 1)
	assert.Equal(t, "u2", prod.Reviews[0].UserID)
	assert.Equal(t, 1, prod.NumReviews)
}

func TestProjector_StockDecremented(t *testing.T) {
	projector, readStore := newTestProjector()
	readStore.SetData(readmodel.CollectionProducts, "prod-1", &readmodel.Product{ID: "prod-1", Stock: 5})

	handle(t, projector, product.AggregateType, product.EventProductStockDecremented, product.ProductStockDecremented{
		ProductID: "prod-1", Quantity: 2, Stock: 3, Sold: 2,
	})

	data, _ := readStore.GetData(readmodel.CollectionProducts, "prod-1")
	assert.Equal(t, 3, data.(*readmodel.Product).Stock)
	assert.Equal(t, 2, data.(*readmodel.Product).Sold)
}

// ============================================
// Cart Event Tests
// ============================================

func TestProjector_CartLifecycle(t *testing.T) {
	projector, readStore := newTestProjector()
	cartID := cart.GetCartID("user-1")

	handle(t, projector, cart.AggregateType, cart.EventItemAdded, cart.ItemAddedToCart{
		CartID: cartID, UserID: "user-1", ProductID: "p1", Quantity: 2,
	})
	handle(t, projector, cart.AggregateType, cart.EventItemAdded, cart.ItemAddedToCart{
		CartID: cartID, UserID: "user-1", ProductID: "p1", Quantity: 1,
	})
	handle(t, projector, cart.AggregateType, cart.EventItemAdded, cart.ItemAddedToCart{
		CartID: cartID, UserID: "user-1", ProductID: "p2", Quantity: 1,
	})

	data, ok := readStore.GetData(readmodel.CollectionCarts, cartID)
	require.True(t, ok)
	c := data.(*readmodel.Cart)
	require.Len(t, c.Items, 2)
	assert.Equal(t, 3, c.Items[0].Quantity)

	handle(t, projector, cart.AggregateType, cart.EventItemQuantitySet, cart.CartItemQuantitySet{
		CartID: cartID, UserID: "user-1", ProductID: "p2", Quantity: 9,
	})
	handle(t, projector, cart.AggregateType, cart.EventItemRemoved, cart.ItemRemovedFromCart{
		CartID: cartID, UserID: "user-1", ProductID: "p1",
	})

	data, _ = readStore.GetData(readmodel.CollectionCarts, cartID)
	c = data.(*readmodel.Cart)
	require.Len(t, c.Items, 1)
	assert.Equal(t, readmodel.CartItem{ProductID: "p2", Quantity: 9}, c.Items[0])

	handle(t, projector, cart.AggregateType, cart.EventCartCleared, cart.CartCleared{CartID: cartID, UserID: "user-1"})

	data, _ = readStore.GetData(readmodel.CollectionCarts, cartID)
	assert.Empty(t, data.(*readmodel.Cart).Items)
}

// ============================================
// Order Event Tests
// ============================================

func TestProjector_OrderPlacedAndStatusUpdated(t *testing.T) {
	projector, readStore := newTestProjector()
	placed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	handle(t, projector, order.AggregateType, order.EventOrderPlaced, order.OrderPlaced{
		OrderID: "ord-1",
		UserID:  "user-1",
		Items: []order.Item{
			{ProductID: "p1", Name: "Phone", Price: decimal.NewFromInt(500), Quantity: 2},
		},
		TotalAmount:     decimal.NewFromInt(1000),
		ShippingAddress: order.Address{Address: "1 Main", City: "Tokyo", Zip: "100"},
		PaymentMethod:   "card",
		PaymentStatus:   order.PaymentPaid,
		PlacedAt:        placed,
	})

	data, ok := readStore.GetData(readmodel.CollectionOrders, "ord-1")
	require.True(t, ok)
	o := data.(*readmodel.Order)
	assert.Equal(t, "pending", o.Status)
	assert.Equal(t, "paid", o.PaymentStatus)
	assert.Equal(t, "Tokyo", o.ShippingAddress.City)
	assert.True(t, decimal.NewFromInt(1000).Equal(o.TotalAmount))

	delivered := placed.Add(48 * time.Hour)
	handleVersion(t, projector, 2, order.AggregateType, order.EventOrderStatusUpdated, order.OrderStatusUpdated{
		OrderID:        "ord-1",
		PreviousStatus: order.StatusPending,
		Status:         order.StatusDelivered,
		TrackingNote:   "left at door",
		DeliveredAt:    &delivered,
		UpdatedAt:      delivered,
	})
	handleVersion(t, projector, 3, order.AggregateType, order.EventOrderStatusUpdated, order.OrderStatusUpdated{
		OrderID:   "ord-1",
		Status:    order.StatusCancelled,
		UpdatedAt: delivered,
	})

	data, _ = readStore.GetData(readmodel.CollectionOrders, "ord-1")
	o = data.(*readmodel.Order)
	assert.Equal(t, "cancelled", o.Status)
	assert.Equal(t, 3, o.Version)
	assert.Equal(t, "left at door", o.TrackingNote)
	require.NotNil(t, o.DeliveredAt)
	assert.True(t, delivered.Equal(*o.DeliveredAt))
}

func TestProjector_StaleOrderStatusSkipped(t *testing.T) {
	projector, readStore := newTestProjector()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	handleVersion(t, projector, 1, order.AggregateType, order.EventOrderPlaced, order.OrderPlaced{
		OrderID: "ord-1", UserID: "user-1", TotalAmount: decimal.NewFromInt(100), PlacedAt: at,
	})
	// v3 lands before v2
	handleVersion(t, projector, 3, order.AggregateType, order.EventOrderStatusUpdated, order.OrderStatusUpdated{
		OrderID: "ord-1", Status: order.StatusShipped, UpdatedAt: at.Add(2 * time.Hour),
	})
	handleVersion(t, projector, 2, order.AggregateType, order.EventOrderStatusUpdated, order.OrderStatusUpdated{
		OrderID: "ord-1", Status: order.StatusCancelled, UpdatedAt: at.Add(time.Hour),
	})
	handleVersion(t, projector, 3, order.AggregateType, order.EventOrderStatusUpdated, order.OrderStatusUpdated{
		OrderID: "ord-1", Status: order.StatusPending, UpdatedAt: at.Add(3 * time.Hour),
	})

	data, ok := readStore.GetData(readmodel.CollectionOrders, "ord-1")
	require.True(t, ok)
	o := data.(*readmodel.Order)
	assert.Equal(t, "shipped", o.Status)
	assert.Equal(t, 3, o.Version)
	assert.True(t, at.Add(2*time.Hour).Equal(o.UpdatedAt))
}

func TestProjector_ReadStoreErrorPropagates(t *testing.T) {
	projector, readStore := newTestProjector()
	readStore.Err = errors.New("db down")

	err := projector.HandleEvent(context.Background(), nil, makeEvent(order.AggregateType, order.EventOrderPlaced, order.OrderPlaced{OrderID: "o"}))

	assert.EqualError(t, err, "db down")
}

// ============================================
// Inline Publisher Tests
// ============================================

type recordingHandler struct {
	keys []string
	err  error
}

func (h *recordingHandler) HandleEvent(_ context.Context, key, _ []byte) error {
	h.keys = append(h.keys, string(key))
	return h.err
}

func TestInlinePublisher_FollowerErrorsAreSwallowed(t *testing.T) {
	projector, readStore := newTestProjector()
	follower := &recordingHandler{err: errors.New("smtp down")}
	publisher := NewInlinePublisher(projector, follower)

	es := store.NewEventStore(publisher)
	_, err := es.Append(context.Background(), "ord-1", order.AggregateType, order.EventOrderPlaced, order.OrderPlaced{OrderID: "ord-1"})

	require.NoError(t, err)
	assert.Equal(t, []string{"ord-1"}, follower.keys)
	_, ok := readStore.GetData(readmodel.CollectionOrders, "ord-1")
	assert.True(t, ok)
}

func TestInlinePublisher_PrimaryErrorFailsPublish(t *testing.T) {
	primary := &recordingHandler{err: errors.New("projection failed")}
	follower := &recordingHandler{}
	publisher := NewInlinePublisher(primary, follower)

	err := publisher.Publish(context.Background(), "k", map[string]string{"a": "b"})

	assert.EqualError(t, err, "projection failed")
	assert.Empty(t, follower.keys)
}
