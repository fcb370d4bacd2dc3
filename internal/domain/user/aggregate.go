package user

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/example/shopwise/internal/auth"
	"github.com/example/shopwise/internal/domain"
	"github.com/example/shopwise/internal/domain/aggregate"
	"github.com/example/shopwise/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "User"

var (
	ErrUserNotFound  = domain.New(domain.ErrNotFound, "User not found")
	ErrInvalidEmail  = domain.Invalid("email", "Please provide a valid email")
	ErrInvalidName   = domain.Invalid("name", "Please provide a name")
	ErrWeakPassword  = domain.Invalid("password", "Password must be at least 6 characters")
	ErrWrongPassword = domain.Invalid("currentPassword", "Current password is incorrect")
	ErrNameTooLong   = domain.Invalid("name", "Name cannot exceed 50 characters")
	ErrPhoneTooLong  = domain.Invalid("phone", "Phone number cannot exceed 20 characters")
)

const (
	maxNameLength  = 50
	maxPhoneLength = 20
)

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// User is a customer account. Customers carry no role or permission fields;
// their tokens always hold auth.RoleCustomer.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password_hash"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone,omitempty"`
	Address      Address    `json:"address"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Version      int        `json:"version"`
}

func (u *User) GetID() string    { return u.ID }
func (u *User) GetVersion() int  { return u.Version }
func (u *User) SetVersion(v int) { u.Version = v }

func (u *User) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventUserCreated:
		var data UserCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.ID = data.UserID
		u.Email = data.Email
		u.PasswordHash = data.PasswordHash
		u.Name = data.Name
		u.CreatedAt = data.CreatedAt
		u.UpdatedAt = data.CreatedAt
	case EventUserUpdated:
		var data UserUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.Name = data.Name
		u.Phone = data.Phone
		u.Address = data.Address
		u.UpdatedAt = data.UpdatedAt
	case EventUserPasswordChanged:
		var data UserPasswordChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.PasswordHash = data.PasswordHash
		u.UpdatedAt = data.ChangedAt
	case EventUserLoggedIn:
		var data UserLoggedIn
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		at := data.LoggedAt
		u.LastLogin = &at
	}
	u.Version = event.Version
	return nil
}

// ProfilePatch holds the editable profile fields. Nil fields are left as is.
type ProfilePatch struct {
	Name    *string
	Phone   *string
	Address *Address
}

// Service handles customer account operations
type Service struct {
	eventStore store.EventStoreInterface
	now        func() time.Time
}

// NewService creates a new user service
func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es, now: time.Now}
}

func (s *Service) loadUser(ctx context.Context, userID string) (*User, error) {
	u, found, err := aggregate.Load(ctx, s.eventStore, userID, func() *User {
		return &User{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Get returns a customer by id.
func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	return s.loadUser(ctx, userID)
}

// Register creates a customer account. The caller checks email uniqueness
// against the credentials read model.
func (s *Service) Register(ctx context.Context, email, password, name string) (*User, error) {
	email = domain.NormalizeEmail(email)
	if !domain.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if len(name) > maxNameLength {
		return nil, ErrNameTooLong
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, ErrWeakPassword
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	userID := uuid.New().String()
	event := UserCreated{
		UserID:       userID,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    s.now().UTC(),
	}

	storedEvent, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserCreated, event)
	if err != nil {
		return nil, err
	}

	u := &User{}
	aggregate.ApplyAndSnapshot(ctx, s.eventStore, u, AggregateType, storedEvent)
	return u, nil
}

// RecordLogin records a customer login event
func (s *Service) RecordLogin(ctx context.Context, userID string) error {
	event := UserLoggedIn{
		UserID:   userID,
		LoggedAt: s.now().UTC(),
	}
	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserLoggedIn, event)
	return err
}

// UpdateProfile updates name, phone and address.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*User, error) {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	event := UserUpdated{
		UserID:    userID,
		Name:      u.Name,
		Phone:     u.Phone,
		Address:   u.Address,
		UpdatedAt: s.now().UTC(),
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		if len(name) > maxNameLength {
			return nil, ErrNameTooLong
		}
		event.Name = name
	}
	if patch.Phone != nil {
		phone := strings.TrimSpace(*patch.Phone)
		if len(phone) > maxPhoneLength {
			return nil, ErrPhoneTooLong
		}
		event.Phone = phone
	}
	if patch.Address != nil {
		event.Address = *patch.Address
	}

	storedEvent, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserUpdated, event)
	if err != nil {
		return nil, err
	}

	aggregate.ApplyAndSnapshot(ctx, s.eventStore, u, AggregateType, storedEvent)
	return u, nil
}

// ChangePassword verifies the current password before storing the new one.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(currentPassword, u.PasswordHash) {
		return ErrWrongPassword
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return ErrWeakPassword
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	event := UserPasswordChanged{
		UserID:       userID,
		PasswordHash: passwordHash,
		ChangedAt:    s.now().UTC(),
	}

	storedEvent, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserPasswordChanged, event)
	if err != nil {
		return err
	}
	aggregate.ApplyAndSnapshot(ctx, s.eventStore, u, AggregateType, storedEvent)
	return nil
}
