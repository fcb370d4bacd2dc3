package command

import (
	"context"
	"errors"
	"time"

	"github.com/example/shopwise/internal/auth"
	"github.com/example/shopwise/internal/domain"
	"github.com/example/shopwise/internal/domain/admin"
	"github.com/example/shopwise/internal/domain/user"
	"github.com/example/shopwise/internal/readmodel"
)

// BootstrapAdminName is the name given to the super_admin created on first login.
const BootstrapAdminName = "ShopWise Admin"

var (
	ErrCredentialsRequired  = domain.New(domain.ErrValidation, "Please provide both email and password")
	ErrInvalidAdminLogin    = domain.New(domain.ErrInvalidCredentials, "Invalid admin credentials")
	ErrInvalidLogin         = domain.New(domain.ErrInvalidCredentials, "Invalid email or password")
	ErrAdminDeactivated     = domain.New(domain.ErrForbidden, "Admin account is deactivated")
	ErrEmailTaken           = domain.New(domain.ErrConflict, "User already exists with this email")
	ErrCannotDeactivateSelf = domain.New(domain.ErrConflict, "You cannot deactivate your own account")
	ErrPasswordsRequired    = domain.New(domain.ErrValidation, "Please provide current and new password")
)

// Session is the login result: the principal's public fields plus its token.
type Session struct {
	ID          string            `json:"id"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Role        auth.Role         `json:"role"`
	Permissions []auth.Permission `json:"permissions"`
	Token       string            `json:"token"`
	ExpiresAt   time.Time         `json:"-"`
}

// ============================================
// Administrators
// ============================================

// AdminLogin authenticates an administrator. An unknown email that matches
// the bootstrap pair creates the first super_admin. The secret is checked
// before the active flag.
func (h *Handler) AdminLogin(ctx context.Context, cmd AdminLogin) (*Session, error) {
	email := domain.NormalizeEmail(cmd.Email)
	if email == "" || cmd.Password == "" {
		return nil, ErrCredentialsRequired
	}
	if err := h.throttle.Check(ctx, email); err != nil {
		return nil, err
	}

	a, err := h.findAdmin(ctx, email, cmd.Password)
	if err != nil {
		return nil, err
	}
	if a == nil || !auth.CheckPassword(cmd.Password, a.PasswordHash) {
		h.throttle.RecordFailure(ctx, email)
		h.logger.Info("admin login rejected", "email", email)
		return nil, ErrInvalidAdminLogin
	}
	if !a.IsActive {
		return nil, ErrAdminDeactivated
	}
	h.throttle.Reset(ctx, email)

	if err := h.adminSvc.RecordLogin(ctx, a.ID); err != nil {
		h.logger.Warn("could not record admin login", "admin_id", a.ID, "error", err)
	}

	token, expiresAt, err := h.tokens.Issue(a.ID, a.Role)
	if err != nil {
		return nil, err
	}
	h.logger.Info("admin logged in", "admin_id", a.ID, "role", a.Role)
	return &Session{
		ID:          a.ID,
		Email:       a.Email,
		Name:        a.Name,
		Role:        a.Role,
		Permissions: a.Permissions,
		Token:       token,
		ExpiresAt:   expiresAt,
	}, nil
}

// findAdmin resolves the administrator behind email, bootstrapping the first
// super_admin when the pair matches. It returns nil when there is none.
func (h *Handler) findAdmin(ctx context.Context, email, secret string) (*admin.Admin, error) {
	cred, found, err := h.queries.GetCredential(ctx, readmodel.PrincipalAdmin, email)
	if err != nil {
		return nil, err
	}
	if found {
		a, err := h.adminSvc.Get(ctx, cred.PrincipalID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return a, err
	}

	if email != domain.NormalizeEmail(h.bootstrap.Email) || secret != h.bootstrap.Secret {
		return nil, nil
	}
	a, err := h.adminSvc.Create(ctx, admin.NewAdmin{
		Email:       email,
		Name:        BootstrapAdminName,
		Secret:      secret,
		Role:        auth.RoleSuperAdmin,
		Permissions: auth.AllPermissions(),
	})
	if err != nil {
		return nil, err
	}
	h.logger.Info("bootstrap super_admin created", "admin_id", a.ID)
	return a, nil
}

// UpdateAdminAccess changes another administrator's role, permissions or
// active flag. The caller cannot deactivate themselves.
func (h *Handler) UpdateAdminAccess(ctx context.Context, cmd UpdateAdminAccess) (*readmodel.Admin, error) {
	if cmd.IsActive != nil && !*cmd.IsActive && cmd.AdminID == cmd.ChangedBy {
		return nil, ErrCannotDeactivateSelf
	}

	a, err := h.adminSvc.Get(ctx, cmd.AdminID)
	if err != nil {
		return nil, err
	}

	if cmd.Role != nil || cmd.Permissions != nil {
		role := a.Role
		if cmd.Role != nil {
			parsed, err := auth.ParseRole(*cmd.Role)
			if err != nil || !parsed.IsAdmin() {
				return nil, admin.ErrInvalidRole
			}
			role = parsed
		}
		perms := a.Permissions
		if cmd.Permissions != nil {
			parsed, err := auth.ParsePermissions(*cmd.Permissions)
			if err != nil {
				return nil, domain.Invalid("permissions", err.Error())
			}
			perms = parsed
		}
		if a, err = h.adminSvc.SetAccess(ctx, cmd.AdminID, role, perms, cmd.ChangedBy); err != nil {
			return nil, err
		}
	}

	if cmd.IsActive != nil {
		if a, err = h.adminSvc.SetActive(ctx, cmd.AdminID, *cmd.IsActive, cmd.ChangedBy); err != nil {
			return nil, err
		}
	}
	return AdminView(a), nil
}

// ============================================
// Customers
// ============================================

// Register creates a customer account and signs them in.
func (h *Handler) Register(ctx context.Context, cmd RegisterCustomer) (*Session, error) {
	_, taken, err := h.queries.GetCredential(ctx, readmodel.PrincipalCustomer, cmd.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	u, err := h.userSvc.Register(ctx, cmd.Email, cmd.Password, cmd.Name)
	if err != nil {
		return nil, err
	}
	h.logger.Info("customer registered", "user_id", u.ID)
	return h.customerSession(u)
}

func (h *Handler) Login(ctx context.Context, cmd CustomerLogin) (*Session, error) {
	email := domain.NormalizeEmail(cmd.Email)
	if email == "" || cmd.Password == "" {
		return nil, ErrCredentialsRequired
	}

	cred, found, err := h.queries.GetCredential(ctx, readmodel.PrincipalCustomer, email)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrInvalidLogin
	}
	u, err := h.userSvc.Get(ctx, cred.PrincipalID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidLogin
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(cmd.Password, u.PasswordHash) {
		return nil, ErrInvalidLogin
	}

	if err := h.userSvc.RecordLogin(ctx, u.ID); err != nil {
		h.logger.Warn("could not record customer login", "user_id", u.ID, "error", err)
	}
	return h.customerSession(u)
}

func (h *Handler) customerSession(u *user.User) (*Session, error) {
	token, expiresAt, err := h.tokens.Issue(u.ID, auth.RoleCustomer)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        auth.RoleCustomer,
		Permissions: []auth.Permission{},
		Token:       token,
		ExpiresAt:   expiresAt,
	}, nil
}

func (h *Handler) UpdateProfile(ctx context.Context, cmd UpdateProfile) (*readmodel.User, error) {
	u, err := h.userSvc.UpdateProfile(ctx, cmd.UserID, user.ProfilePatch{
		Name:    cmd.Name,
		Phone:   cmd.Phone,
		Address: cmd.Address,
	})
	if err != nil {
		return nil, err
	}
	return UserView(u), nil
}

func (h *Handler) ChangePassword(ctx context.Context, cmd ChangePassword) error {
	if cmd.CurrentPassword == "" || cmd.NewPassword == "" {
		return ErrPasswordsRequired
	}
	return h.userSvc.ChangePassword(ctx, cmd.UserID, cmd.CurrentPassword, cmd.NewPassword)
}
