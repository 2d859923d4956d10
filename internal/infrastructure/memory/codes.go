package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-account-api/internal/domain"
)

// CodeStore is a mutex-guarded in-memory verification code store with the
// same per-key atomicity as the DynamoDB repo. Used by tests and local runs
// without AWS access.
type CodeStore struct {
	mu    sync.Mutex
	codes map[int]domain.VerificationCode
}

func NewCodeStore() *CodeStore {
	return &CodeStore{codes: make(map[int]domain.VerificationCode)}
}

func (s *CodeStore) Put(_ context.Context, code *domain.VerificationCode, staleBefore time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.codes[code.CodeID]; ok && !existing.IssuedAt.Before(staleBefore) {
		return fmt.Errorf("code id %d outstanding: %w", code.CodeID, domain.ErrCollision)
	}
	s.codes[code.CodeID] = *code
	return nil
}

func (s *CodeStore) FindByID(_ context.Context, codeID int) (*domain.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[codeID]
	if !ok {
		return nil, fmt.Errorf("verification code %d: %w", codeID, domain.ErrNotFound)
	}
	return &code, nil
}

func (s *CodeStore) Delete(_ context.Context, codeID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[codeID]; !ok {
		return fmt.Errorf("verification code %d: %w", codeID, domain.ErrNotFound)
	}
	delete(s.codes, codeID)
	return nil
}

func (s *CodeStore) Consume(_ context.Context, code *domain.VerificationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.codes[code.CodeID]
	if !ok || existing.Value != code.Value || !existing.IssuedAt.Equal(code.IssuedAt) {
		return fmt.Errorf("verification code %d: %w", code.CodeID, domain.ErrNotFound)
	}
	delete(s.codes, code.CodeID)
	return nil
}

func (s *CodeStore) List(_ context.Context) ([]domain.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.VerificationCode, 0, len(s.codes))
	for _, code := range s.codes {
		out = append(out, code)
	}
	return out, nil
}
