package cart

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/example/shopwise/internal/domain"
	"github.com/example/shopwise/internal/domain/aggregate"
	"github.com/example/shopwise/internal/infrastructure/store"
)

const AggregateType = "Cart"

var (
	ErrInvalidQuantity = domain.Invalid("quantity", "Quantity must be at least 1")
	ErrInvalidProduct  = domain.Invalid("productId", "Product is required")
	ErrItemNotInCart   = domain.New(domain.ErrNotFound, "Item not found in cart")
)

// CartItem holds a product reference and quantity. Prices are read from the
// catalog at display and checkout time.
type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"` // in insertion order
	UpdatedAt time.Time  `json:"updated_at"`
	Version   int        `json:"version"`
}

func (c *Cart) GetID() string    { return c.ID }
func (c *Cart) GetVersion() int  { return c.Version }
func (c *Cart) SetVersion(v int) { c.Version = v }

// GetCartID returns the cart ID for a user (one cart per customer)
func GetCartID(userID string) string {
	return "cart-" + userID
}

func (c *Cart) indexOf(productID string) int {
	return slices.IndexFunc(c.Items, func(it CartItem) bool { return it.ProductID == productID })
}

// Quantity returns how many units of productID are in the cart.
func (c *Cart) Quantity(productID string) int {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// ApplyEvent applies a single event to the cart state
func (c *Cart) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventItemAdded:
		var data ItemAddedToCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.ID = data.CartID
		c.UserID = data.UserID
		// Add or update item quantity
		if i := c.indexOf(data.ProductID); i >= 0 {
			c.Items[i].Quantity += data.Quantity
		} else {
			c.Items = append(c.Items, CartItem{ProductID: data.ProductID, Quantity: data.Quantity})
		}
		c.UpdatedAt = data.AddedAt
	case EventItemQuantitySet:
		var data CartItemQuantitySet
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if i := c.indexOf(data.ProductID); i >= 0 {
			c.Items[i].Quantity = data.Quantity
		}
		c.UpdatedAt = data.UpdatedAt
	case EventItemRemoved:
		var data ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if i := c.indexOf(data.ProductID); i >= 0 {
			c.Items = slices.Delete(c.Items, i, i+1)
		}
		c.UpdatedAt = data.RemovedAt
	case EventCartCleared:
		var data CartCleared
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.ID = data.CartID
		c.UserID = data.UserID
		c.Items = nil
		c.UpdatedAt = data.ClearedAt
	}
	c.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
	now        func() time.Time
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es, now: time.Now}
}

// Get returns the user's cart. A user without cart events has an empty cart.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	cartID := GetCartID(userID)
	c, _, err := aggregate.Load(ctx, s.eventStore, cartID, func() *Cart {
		return &Cart{ID: cartID, UserID: userID}
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) append(ctx context.Context, c *Cart, eventType string, event any) (*Cart, error) {
	storedEvent, err := s.eventStore.Append(ctx, c.ID, AggregateType, eventType, event)
	if err != nil {
		return nil, err
	}
	aggregate.ApplyAndSnapshot(ctx, s.eventStore, c, AggregateType, storedEvent)
	return c, nil
}

// AddItem adds quantity units of a product, merging with an existing line.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.append(ctx, c, EventItemAdded, ItemAddedToCart{
		CartID:    c.ID,
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   s.now().UTC(),
	})
}

// SetQuantity replaces the quantity of a line already in the cart.
func (s *Service) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.indexOf(productID) < 0 {
		return nil, ErrItemNotInCart
	}

	return s.append(ctx, c, EventItemQuantitySet, CartItemQuantitySet{
		CartID:    c.ID,
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		UpdatedAt: s.now().UTC(),
	})
}

// RemoveItem drops a line from the cart. Removing an absent line is a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.indexOf(productID) < 0 {
		return c, nil
	}

	return s.append(ctx, c, EventItemRemoved, ItemRemovedFromCart{
		CartID:    c.ID,
		UserID:    userID,
		ProductID: productID,
		RemovedAt: s.now().UTC(),
	})
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.append(ctx, c, EventCartCleared, CartCleared{
		CartID:    c.ID,
		UserID:    userID,
		ClearedAt: s.now().UTC(),
	})
}
