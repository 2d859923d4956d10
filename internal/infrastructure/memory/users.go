package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-account-api/internal/domain"
	"github.com/go-account-api/internal/pkg/id"
	"github.com/go-account-api/internal/pkg/password"
)

// UserStore is an in-memory identity store mirroring the DynamoDB repo's
// contract, including credential policy ownership.
type UserStore struct {
	mu          sync.RWMutex
	users       map[string]*domain.User // user_id -> user
	byEmail     map[string]string       // email -> user_id
	minPwLength int
}

func NewUserStore(minPwLength int) *UserStore {
	return &UserStore{
		users:       make(map[string]*domain.User),
		byEmail:     make(map[string]string),
		minPwLength: minPwLength,
	}
}

func (s *UserStore) Create(_ context.Context, email, pw string) (*domain.User, error) {
	if reasons := password.Check(pw, s.minPwLength); reasons != nil {
		return nil, &domain.CredentialPolicyError{Reasons: reasons}
	}
	hash, err := password.Hash(pw)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; ok {
		return nil, fmt.Errorf("user %s: %w", email, domain.ErrConflict)
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.UserID] = u
	s.byEmail[email] = u.UserID
	copied := *u
	return &copied, nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uid, ok := s.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	copied := *s.users[uid]
	return &copied, nil
}

func (s *UserStore) FindByID(_ context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

func (s *UserStore) CheckPassword(_ context.Context, userID, pw string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	if !password.Verify(u.PasswordHash, pw) {
		return fmt.Errorf("user %s: %w", userID, domain.ErrUnauthorized)
	}
	return nil
}

func (s *UserStore) ConfirmEmail(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	u.EmailConfirmed = true
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *UserStore) GetRoles(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	out := make([]string, len(u.Roles))
	copy(out, u.Roles)
	return out, nil
}

func (s *UserStore) AddRole(_ context.Context, userID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	if u.HasRole(role) {
		return nil
	}
	u.Roles = append(u.Roles, role)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *UserStore) ResetPassword(_ context.Context, userID, newPassword string) error {
	if reasons := password.Check(newPassword, s.minPwLength); reasons != nil {
		return &domain.CredentialPolicyError{Reasons: reasons}
	}
	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}
