package domain

import "time"

// VerificationCode is a short-lived, single-use numeric secret proving control
// of an email address. CodeID is the non-secret correlation key the client
// echoes back on validation; Value only ever leaves the system through the
// notifier. Records are immutable once created; the only mutation is deletion.
type VerificationCode struct {
	CodeID   int       `json:"code_id" dynamodbav:"code_id"`
	Value    string    `json:"-" dynamodbav:"code_value"`
	IssuedAt time.Time `json:"issued_at" dynamodbav:"issued_at,unixtime"`
}

// Expired reports whether the code is no longer valid at the given instant.
// The boundary instant itself belongs to the expired side.
func (c *VerificationCode) Expired(now time.Time, ttl time.Duration) bool {
	return !now.Before(c.IssuedAt.Add(ttl))
}

// Outcome is the closed result space of a code validation. Mismatch, Expired
// and NotFound are ordinary results the caller acts on, not errors.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeMismatch
	OutcomeExpired
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeMismatch:
		return "mismatch"
	case OutcomeExpired:
		return "expired"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
