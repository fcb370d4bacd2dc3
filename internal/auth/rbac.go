package auth

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Role is the closed set of administrator roles. Customers carry RoleCustomer
// in their tokens and never pass the admin gate.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleSuperAdmin Role = "super_admin"
)

var adminRoles = []Role{RoleAdmin, RoleManager, RoleSuperAdmin}

// ParseRole converts a string to a Role, rejecting anything outside the enum.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if r == RoleCustomer || slices.Contains(adminRoles, r) {
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsAdmin reports whether the role may enter the admin surface.
func (r Role) IsAdmin() bool {
	return slices.Contains(adminRoles, r)
}

func (r Role) String() string { return string(r) }

// Permission is a named capability an administrator may hold.
type Permission string

const (
	PermProducts  Permission = "products"
	PermOrders    Permission = "orders"
	PermUsers     Permission = "users"
	PermAnalytics Permission = "analytics"
	PermSettings  Permission = "settings"
)

// AllPermissions returns the whole permission universe in declaration order.
func AllPermissions() []Permission {
	return []Permission{PermProducts, PermOrders, PermUsers, PermAnalytics, PermSettings}
}

// ParsePermission converts a string to a Permission.
func ParsePermission(s string) (Permission, error) {
	p := Permission(s)
	if slices.Contains(AllPermissions(), p) {
		return p, nil
	}
	return "", fmt.Errorf("unknown permission %q", s)
}

// ParsePermissions converts and de-duplicates a list of permission names.
func ParsePermissions(names []string) ([]Permission, error) {
	out := make([]Permission, 0, len(names))
	for _, n := range names {
		p, err := ParsePermission(n)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (p Permission) String() string { return string(p) }

// UnmarshalJSON rejects permission names outside the enum.
func (p *Permission) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePermission(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// HasPermission is the single permission decision for administrators.
// A super_admin holds every permission regardless of the stored set.
func HasPermission(role Role, granted []Permission, required Permission) bool {
	if role == RoleSuperAdmin {
		return true
	}
	return slices.Contains(granted, required)
}
