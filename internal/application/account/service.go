package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-account-api/internal/application/verification"
	"github.com/go-account-api/internal/domain"
)

// IdentityStore is the external system of record for users, confirmation
// flags and roles. Per-user mutations are assumed internally consistent; this
// service never reaches past the interface.
type IdentityStore interface {
	// Create registers a new, unconfirmed user. A password failing policy is
	// reported as *domain.CredentialPolicyError.
	Create(ctx context.Context, email, password string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, userID string) (*domain.User, error)
	ConfirmEmail(ctx context.Context, userID string) error
	// CheckPassword verifies the user's credential, returning
	// domain.ErrUnauthorized on a mismatch. The hash never leaves the store.
	CheckPassword(ctx context.Context, userID, password string) error
	GetRoles(ctx context.Context, userID string) ([]string, error)
	AddRole(ctx context.Context, userID, role string) error
	// ResetPassword replaces the user's credential. A password failing policy
	// is reported as *domain.CredentialPolicyError.
	ResetPassword(ctx context.Context, userID, newPassword string) error
}

type ValidateCodeRequest struct {
	CodeID int    `json:"code_id" validate:"min=0"`
	Code   string `json:"code" validate:"required,numeric"`
	Email  string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	CodeID      int    `json:"code_id" validate:"min=0"`
	Code        string `json:"code" validate:"required,numeric"`
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"new_password" validate:"required,max=72"`
}

// Service bridges verification outcomes into identity-store mutations: email
// confirmation with the role-assignment rule, and password reset.
type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	// Authenticate verifies the email and password pair, returning the user on
	// a correct credential even when the email is not yet confirmed. It issues
	// no token; the caller decides how to steer unconfirmed users.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)

	// RequestEmailConfirmation issues and dispatches a code for an existing,
	// not-yet-confirmed user and returns the code id.
	RequestEmailConfirmation(ctx context.Context, email string, now time.Time) (int, error)
	// ConfirmEmail validates the submitted code and, on success, marks the
	// email confirmed and applies the role rule: the administrative address
	// gains Admin, everyone else Basic, never duplicated, never revoked.
	ConfirmEmail(ctx context.Context, req ValidateCodeRequest, now time.Time) (domain.Outcome, error)

	// RequestPasswordReset issues and dispatches a reset code for an existing
	// user and returns the code id.
	RequestPasswordReset(ctx context.Context, email string, now time.Time) (int, error)
	// ResetPassword validates the code and, on success, sets the new password
	// through the identity store. The code is consumed at validation; a
	// subsequent policy rejection does not resurrect it, so the outcome can be
	// OutcomeSuccess alongside a *domain.CredentialPolicyError.
	ResetPassword(ctx context.Context, req ResetPasswordRequest, now time.Time) (domain.Outcome, error)
}

// Config carries the bridge's policy knobs.
type Config struct {
	AdminEmail string
}

type service struct {
	identity   IdentityStore
	codes      verification.Service
	adminEmail string
}

func NewService(identity IdentityStore, codes verification.Service, cfg Config) Service {
	return &service{identity: identity, codes: codes, adminEmail: cfg.AdminEmail}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if _, err := s.identity.FindByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("a user with this email already exists: %w", domain.ErrConflict)
	}
	return s.identity.Create(ctx, req.Email, req.Password)
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.identity.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if err := s.identity.CheckPassword(ctx, user.UserID, password); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.identity.FindByID(ctx, userID)
}

func (s *service) RequestEmailConfirmation(ctx context.Context, email string, now time.Time) (int, error) {
	user, err := s.identity.FindByEmail(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if user.EmailConfirmed {
		return 0, fmt.Errorf("email already confirmed: %w", domain.ErrConflict)
	}
	return s.codes.Issue(ctx, email, now)
}

func (s *service) ConfirmEmail(ctx context.Context, req ValidateCodeRequest, now time.Time) (domain.Outcome, error) {
	outcome, err := s.codes.Validate(ctx, req.CodeID, req.Code, now)
	if err != nil || outcome != domain.OutcomeSuccess {
		return outcome, err
	}

	user, err := s.identity.FindByEmail(ctx, req.Email)
	if err != nil {
		return outcome, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if err := s.identity.ConfirmEmail(ctx, user.UserID); err != nil {
		return outcome, err
	}
	if err := s.grantRole(ctx, user.UserID, req.Email); err != nil {
		return outcome, err
	}
	slog.Info("email confirmed", "user_id", user.UserID)
	return outcome, nil
}

// grantRole applies the role-assignment rule. Grants are additive: a role the
// user already holds is not granted again, and nothing is ever removed.
func (s *service) grantRole(ctx context.Context, userID, email string) error {
	role := domain.RoleBasic
	if strings.EqualFold(email, s.adminEmail) {
		role = domain.RoleAdmin
	}
	roles, err := s.identity.GetRoles(ctx, userID)
	if err != nil {
		return err
	}
	for _, held := range roles {
		if held == role {
			return nil
		}
	}
	return s.identity.AddRole(ctx, userID, role)
}

func (s *service) RequestPasswordReset(ctx context.Context, email string, now time.Time) (int, error) {
	if _, err := s.identity.FindByEmail(ctx, email); err != nil {
		return 0, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return s.codes.Issue(ctx, email, now)
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest, now time.Time) (domain.Outcome, error) {
	user, err := s.identity.FindByEmail(ctx, req.Email)
	if err != nil {
		return domain.OutcomeNotFound, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}

	outcome, err := s.codes.Validate(ctx, req.CodeID, req.Code, now)
	if err != nil || outcome != domain.OutcomeSuccess {
		return outcome, err
	}

	// The code is consumed at this point no matter what the identity store
	// says about the new password.
	if err := s.identity.ResetPassword(ctx, user.UserID, req.NewPassword); err != nil {
		return outcome, err
	}
	slog.Info("password reset", "user_id", user.UserID)
	return outcome, nil
}
