package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/example/shopwise/internal/api/response"
	"github.com/example/shopwise/internal/auth"
	"github.com/example/shopwise/internal/domain"
	"github.com/example/shopwise/internal/domain/admin"
)

// AccessTokenCookie carries the bearer token for browser clients.
const AccessTokenCookie = "access_token"

var (
	ErrNoToken          = domain.New(domain.ErrUnauthenticated, "Not authorized, no token provided")
	ErrTokenFailed      = domain.New(domain.ErrUnauthenticated, "Invalid or expired token")
	ErrNotAdmin         = domain.New(domain.ErrForbidden, "Access denied. Admin privileges required.")
	ErrNotCustomer      = domain.New(domain.ErrForbidden, "Access denied. Customer account required.")
	ErrAdminNotFound    = domain.New(domain.ErrUnauthenticated, "Admin account not found")
	ErrAdminDeactivated = domain.New(domain.ErrForbidden, "Admin account is deactivated")
)

// ExtractToken reads the Authorization bearer token, falling back to the
// access_token cookie.
func ExtractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); token != "" {
			return token
		}
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

type contextKey string

const (
	claimsContextKey contextKey = "claims"
	adminContextKey  contextKey = "admin"
)

// AdminLoader resolves administrators from the authoritative store.
// *admin.Service implements it.
type AdminLoader interface {
	Get(ctx context.Context, adminID string) (*admin.Admin, error)
}

// AdminGate authenticates an administrator on every request: the token must
// verify, carry an admin role, and name an active administrator. The role is
// taken from the token; the active flag and permissions are read fresh.
func AdminGate(tokens *auth.TokenIssuer, admins AdminLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verify(tokens, r)
			if err != nil {
				response.Error(w, r, err)
				return
			}
			if !claims.Role.IsAdmin() {
				response.Error(w, r, ErrNotAdmin)
				return
			}

			a, err := admins.Get(r.Context(), claims.ID)
			if errors.Is(err, domain.ErrNotFound) {
				response.Error(w, r, ErrAdminNotFound)
				return
			}
			if err != nil {
				response.Error(w, r, err)
				return
			}
			if !a.IsActive {
				response.Error(w, r, ErrAdminDeactivated)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			ctx = context.WithValue(ctx, adminContextKey, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CheckPermission allows a super_admin unconditionally and anyone else only
// with p granted.
func CheckPermission(a *admin.Admin, p auth.Permission) error {
	if auth.HasPermission(a.Role, a.Permissions, p) {
		return nil
	}
	return domain.New(domain.ErrForbidden,
		fmt.Sprintf("Access denied. You don't have permission to access %s", p))
}

// RequirePermission must run behind AdminGate.
func RequirePermission(p auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := AdminFromContext(r.Context())
			if !ok {
				response.Error(w, r, ErrNotAdmin)
				return
			}
			if err := CheckPermission(a, p); err != nil {
				response.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CustomerAuth admits only customer tokens.
func CustomerAuth(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verify(tokens, r)
			if err != nil {
				response.Error(w, r, err)
				return
			}
			if claims.Role != auth.RoleCustomer {
				response.Error(w, r, ErrNotCustomer)
				return
			}
			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verify(tokens *auth.TokenIssuer, r *http.Request) (*auth.Claims, error) {
	token := ExtractToken(r)
	if token == "" {
		return nil, ErrNoToken
	}
	claims, err := tokens.Verify(token)
	if err != nil {
		return nil, ErrTokenFailed
	}
	return claims, nil
}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims, ok
}

func AdminFromContext(ctx context.Context) (*admin.Admin, bool) {
	a, ok := ctx.Value(adminContextKey).(*admin.Admin)
	return a, ok
}

// PrincipalID is the verified token subject, or "" outside an authenticated
// route.
func PrincipalID(ctx context.Context) string {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return ""
	}
	return claims.ID
}
