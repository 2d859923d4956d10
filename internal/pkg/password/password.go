package password

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Check applies the identity store's password policy and returns one reason
// per violated rule, or nil when the password is acceptable.
func Check(pw string, minLength int) []string {
	var reasons []string
	if len(pw) < minLength {
		reasons = append(reasons, fmt.Sprintf("must be at least %d characters", minLength))
	}
	var hasLetter, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		reasons = append(reasons, "must contain at least one letter")
	}
	if !hasDigit {
		reasons = append(reasons, "must contain at least one digit")
	}
	return reasons
}

// Hash returns the bcrypt hash of the password at the default cost.
func Hash(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Verify reports whether the password matches the stored bcrypt hash.
func Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
