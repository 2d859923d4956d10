package domain

import (
	"errors"
	"strings"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrCollision    = errors.New("code id collision")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
)

// DeliveryError reports that an issued code could not be handed to the
// notifier. The verification record is already persisted and stays valid, so
// the correct recovery is to retry delivery, not issuance.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string { return "code delivery failed: " + e.Err.Error() }

func (e *DeliveryError) Unwrap() error { return e.Err }

// CredentialPolicyError reports a password rejected by the identity store's
// policy, with one human-readable reason per violated rule.
type CredentialPolicyError struct {
	Reasons []string
}

func (e *CredentialPolicyError) Error() string {
	return "password rejected: " + strings.Join(e.Reasons, ", ")
}
