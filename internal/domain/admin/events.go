package admin

import (
	"time"

	"github.com/example/shopwise/internal/auth"
)

const (
	EventAdminCreated       = "AdminCreated"
	EventAdminLoggedIn      = "AdminLoggedIn"
	EventAdminAccessChanged = "AdminAccessChanged"
	EventAdminDeactivated   = "AdminDeactivated"
	EventAdminActivated     = "AdminActivated"
)

type AdminCreated struct {
	AdminID      string            `json:"admin_id"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	PasswordHash string            `json:"password_hash"`
	Role         auth.Role         `json:"role"`
	Permissions  []auth.Permission `json:"permissions"`
	CreatedAt    time.Time         `json:"created_at"`
}

type AdminLoggedIn struct {
	AdminID  string    `json:"admin_id"`
	LoggedAt time.Time `json:"logged_at"`
}

// AdminAccessChanged replaces the role and permission set.
type AdminAccessChanged struct {
	AdminID     string            `json:"admin_id"`
	Role        auth.Role         `json:"role"`
	Permissions []auth.Permission `json:"permissions"`
	ChangedBy   string            `json:"changed_by"`
	ChangedAt   time.Time         `json:"changed_at"`
}

type AdminDeactivated struct {
	AdminID       string    `json:"admin_id"`
	DeactivatedBy string    `json:"deactivated_by"`
	DeactivatedAt time.Time `json:"deactivated_at"`
}

type AdminActivated struct {
	AdminID     string    `json:"admin_id"`
	ActivatedBy string    `json:"activated_by"`
	ActivatedAt time.Time `json:"activated_at"`
}
