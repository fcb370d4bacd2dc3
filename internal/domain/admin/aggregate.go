package admin

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

const AggregateType = "Admin"

// DefaultName is used when an administrator is created without a name.
const DefaultName = "Admin"

var (
	ErrAdminNotFound  = domain.New(domain.ErrNotFound, "Admin not found")
	ErrInvalidEmail   = domain.Invalid("email", "Please provide a valid email")
	ErrSecretRequired = domain.Invalid("password", "Password is required")
	ErrInvalidRole    = domain.Invalid("role", "Invalid admin role")
)

type Admin struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	PasswordHash string            `json:"password_hash"`
	Role         auth.Role         `json:"role"`
	Permissions  []auth.Permission `json:"permissions"`
	IsActive     bool              `json:"is_active"`
	LastLogin    *time.Time        `json:"last_login,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Version      int               `json:"version"`
}

func (a *Admin) GetID() string    { return a.ID }
func (a *Admin) GetVersion() int  { return a.Version }
func (a *Admin) SetVersion(v int) { a.Version = v }

// Can is the permission check for this administrator.
func (a *Admin) Can(p auth.Permission) bool {
	return auth.HasPermission(a.Role, a.Permissions, p)
}

func (a *Admin) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventAdminCreated:
		var data AdminCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.ID = data.AdminID
		a.Email = data.Email
		a.Name = data.Name
		a.PasswordHash = data.PasswordHash
		a.Role = data.Role
		a.Permissions = data.Permissions
		a.IsActive = true
		a.CreatedAt = data.CreatedAt
		a.UpdatedAt = data.CreatedAt
	case EventAdminLoggedIn:
		var data AdminLoggedIn
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		at := data.LoggedAt
		a.LastLogin = &at
	case EventAdminAccessChanged:
		var data AdminAccessChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.Role = data.Role
		a.Permissions = data.Permissions
		a.UpdatedAt = data.ChangedAt
	case EventAdminDeactivated:
		var data AdminDeactivated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.IsActive = false
		a.UpdatedAt = data.DeactivatedAt
	case EventAdminActivated:
		var data AdminActivated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.IsActive = true
		a.UpdatedAt = data.ActivatedAt
	}
	a.Version = event.Version
	return nil
}

// NewAdmin describes an administrator to create. Secret is the plain text
// secret; it is hashed before it is stored.
type NewAdmin struct {
	Email       string
	Name        string
	Secret      string
	Role        auth.Role
	Permissions []auth.Permission
}

type Service struct {
	eventStore store.EventStoreInterface
	now        func() time.Time
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es, now: time.Now}
}

func (s *Service) loadAdmin(ctx context.Context, adminID string) (*Admin, error) {
	a, found, err := aggregate.Load(ctx, s.eventStore, adminID, func() *Admin {
		return &Admin{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrAdminNotFound
	}
	return a, nil
}

// Get returns the administrator's current state.
func (s *Service) Get(ctx context.Context, adminID string) (*Admin, error) {
	return s.loadAdmin(ctx, adminID)
}

// Create registers an administrator. Email uniqueness is the caller's
// responsibility since it spans aggregates.
func (s *Service) Create(ctx context.Context, in NewAdmin) (*Admin, error) {
	email := domain.NormalizeEmail(in.Email)
	if !domain.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if in.Secret == "" {
		return nil, ErrSecretRequired
	}

	role := in.Role
	if role == "" {
		role = auth.RoleAdmin
	}
	if !role.IsAdmin() {
		return nil, ErrInvalidRole
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = DefaultName
	}

	hash, err := auth.HashPassword(in.Secret)
	if err != nil {
		return nil, err
	}

	perms := in.Permissions
	if perms == nil {
		perms = []auth.Permission{}
	}

	adminID := uuid.New().String()
	event := AdminCreated{
		AdminID:      adminID,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		Permissions:  perms,
		CreatedAt:    s.now().UTC(),
	}

	storedEvent, err := s.eventStore.Append(ctx, adminID, AggregateType, EventAdminCreated, event)
	if err != nil {
		return nil, err
	}

	a := &Admin{}
	aggregate.ApplyAndSnapshot(ctx, s.eventStore, a, AggregateType, storedEvent)
	return a, nil
}

// RecordLogin stamps lastLogin.
func (s *Service) RecordLogin(ctx context.Context, adminID string) error {
	event := AdminLoggedIn{
		AdminID:  adminID,
		LoggedAt: s.now().UTC(),
	}
	_, err := s.eventStore.Append(ctx, adminID, AggregateType, EventAdminLoggedIn, event)
	return err
}

// SetAccess replaces the role and permission set of an administrator.
// Already issued tokens keep their role claim until they expire.
func (s *Service) SetAccess(ctx context.Context, adminID string, role auth.Role, perms []auth.Permission, changedBy string) (*Admin, error) {
	if !role.IsAdmin() {
		return nil, ErrInvalidRole
	}

	a, err := s.loadAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	if perms == nil {
		perms = []auth.Permission{}
	}
	event := AdminAccessChanged{
		AdminID:     adminID,
		Role:        role,
		Permissions: perms,
		ChangedBy:   changedBy,
		ChangedAt:   s.now().UTC(),
	}
	storedEvent, err := s.eventStore.Append(ctx, adminID, AggregateType, EventAdminAccessChanged, event)
	if err != nil {
		return nil, err
	}

	aggregate.ApplyAndSnapshot(ctx, s.eventStore, a, AggregateType, storedEvent)
	return a, nil
}

// SetActive activates or deactivates an administrator. Setting the current
// value again appends nothing.
func (s *Service) SetActive(ctx context.Context, adminID string, active bool, changedBy string) (*Admin, error) {
	a, err := s.loadAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if a.IsActive == active {
		return a, nil
	}

	now := s.now().UTC()
	var storedEvent *store.Event
	if active {
		storedEvent, err = s.eventStore.Append(ctx, adminID, AggregateType, EventAdminActivated,
			AdminActivated{AdminID: adminID, ActivatedBy: changedBy, ActivatedAt: now})
	} else {
		storedEvent, err = s.eventStore.Append(ctx, adminID, AggregateType, EventAdminDeactivated,
			AdminDeactivated{AdminID: adminID, DeactivatedBy: changedBy, DeactivatedAt: now})
	}
	if err != nil {
		return nil, err
	}

	aggregate.ApplyAndSnapshot(ctx, s.eventStore, a, AggregateType, storedEvent)
	return a, nil
}
