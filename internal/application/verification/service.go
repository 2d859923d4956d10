package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-account-api/internal/domain"
)

// CodeStore is the narrow persistence contract the coordinator requires.
// Implementations must make every operation atomic with respect to concurrent
// callers touching the same code id; unrelated ids may proceed in parallel.
// The store never evaluates expiry on its own: callers pass explicit cutoff
// times so there is a single source of truth for "now".
type CodeStore interface {
	// Put inserts a record. It fails with domain.ErrCollision when the code id
	// already denotes an outstanding record issued at or after staleBefore.
	// An expired leftover under the same id is silently replaced.
	Put(ctx context.Context, code *domain.VerificationCode, staleBefore time.Time) error
	// FindByID returns the record regardless of expiry state, or
	// domain.ErrNotFound.
	FindByID(ctx context.Context, codeID int) (*domain.VerificationCode, error)
	// Delete removes whatever record holds the id, or returns
	// domain.ErrNotFound.
	Delete(ctx context.Context, codeID int) error
	// Consume deletes the exact record (id, value and issue time must all
	// still match) in one atomic step. A caller that lost a race to another
	// consumer, or whose record was swept, gets domain.ErrNotFound.
	Consume(ctx context.Context, code *domain.VerificationCode) error
	// List snapshots all records. Maintenance sweeps only; never the
	// validation hot path.
	List(ctx context.Context) ([]domain.VerificationCode, error)
}

// Notifier delivers an issued code out-of-band. The code id travels with the
// value so the recipient can echo it back; only the value is secret.
type Notifier interface {
	SendCode(ctx context.Context, email string, codeID int, value string) error
}

// Service coordinates code generation, storage, dispatch and one-time
// consumption. It holds no per-request state and is safe for concurrent use.
type Service interface {
	// Issue generates, persists and dispatches a code for the given address,
	// returning the code id. On a *domain.DeliveryError the record is already
	// persisted and the returned id is valid; retry delivery, not issuance.
	Issue(ctx context.Context, email string, now time.Time) (int, error)
	// Validate resolves a submitted code to an Outcome. OutcomeSuccess
	// consumes the record atomically: of two concurrent validations of the
	// same id, exactly one can succeed and the other observes NotFound.
	// Mismatch and Expired leave the record in place.
	Validate(ctx context.Context, codeID int, value string, now time.Time) (domain.Outcome, error)
	// ClearExpired deletes every record whose TTL elapsed at or before now and
	// reports how many were removed. Safe to run concurrently with Validate.
	ClearExpired(ctx context.Context, now time.Time) (int, error)
}

// Config carries the coordinator's policy knobs.
type Config struct {
	TTL          time.Duration
	IssueRetries int
}

type service struct {
	store    CodeStore
	gen      *Generator
	notifier Notifier
	ttl      time.Duration
	retries  int
}

func NewService(store CodeStore, gen *Generator, notifier Notifier, cfg Config) Service {
	return &service{
		store:    store,
		gen:      gen,
		notifier: notifier,
		ttl:      cfg.TTL,
		retries:  cfg.IssueRetries,
	}
}

func (s *service) Issue(ctx context.Context, email string, now time.Time) (int, error) {
	code, err := s.persistCandidate(ctx, now)
	if err != nil {
		return 0, err
	}
	if err := s.notifier.SendCode(ctx, email, code.CodeID, code.Value); err != nil {
		slog.Warn("verification code delivery failed", "code_id", code.CodeID, "err", err)
		return code.CodeID, &domain.DeliveryError{Err: err}
	}
	return code.CodeID, nil
}

// persistCandidate regenerates on code id collision. The keyspace is small
// enough that collisions are routine, so they are recovered here and never
// surfaced to the caller.
func (s *service) persistCandidate(ctx context.Context, now time.Time) (*domain.VerificationCode, error) {
	staleBefore := now.Add(-s.ttl)
	for attempt := 1; attempt <= s.retries; attempt++ {
		codeID, value := s.gen.Generate()
		code := &domain.VerificationCode{CodeID: codeID, Value: value, IssuedAt: now}
		err := s.store.Put(ctx, code, staleBefore)
		if errors.Is(err, domain.ErrCollision) {
			slog.Debug("code id collision, regenerating", "code_id", codeID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		return code, nil
	}
	return nil, fmt.Errorf("code id keyspace exhausted after %d attempts", s.retries)
}

func (s *service) Validate(ctx context.Context, codeID int, value string, now time.Time) (domain.Outcome, error) {
	code, err := s.store.FindByID(ctx, codeID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.OutcomeNotFound, nil
	}
	if err != nil {
		return domain.OutcomeNotFound, err
	}
	if code.Value != value {
		// Not consumed: the user may retry within the TTL window.
		return domain.OutcomeMismatch, nil
	}
	if code.Expired(now, s.ttl) {
		// Left in place for the sweeper. An expired code stays invalid even
		// when resubmitted with the correct value.
		return domain.OutcomeExpired, nil
	}
	if err := s.store.Consume(ctx, code); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Lost the race to a concurrent validation or the sweeper.
			return domain.OutcomeNotFound, nil
		}
		return domain.OutcomeNotFound, err
	}
	return domain.OutcomeSuccess, nil
}

func (s *service) ClearExpired(ctx context.Context, now time.Time) (int, error) {
	codes, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for i := range codes {
		code := &codes[i]
		if !code.Expired(now, s.ttl) {
			continue
		}
		// Consume rather than Delete so a fresh record that reused the id
		// between the snapshot and now is left alone.
		err := s.store.Consume(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		slog.Info("cleared expired verification codes", "count", removed)
	}
	return removed, nil
}
