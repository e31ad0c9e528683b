package auth

import (
	"context"
	"time"
)

// Challenge represents one outstanding passwordless sign-in attempt. The
// capability token itself is never stored, only its bcrypt hash.
type Challenge struct {
	Email     string
	TokenHash []byte
	IssuedAt  time.Time
	ExpiresAt time.Time // zero when expiry is disabled
}

// Expired reports whether the challenge's validity window has passed.
// A challenge without an expiry never expires.
func (c *Challenge) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ChallengeStore tracks at most one pending challenge per email.
type ChallengeStore interface {
	// Put records a pending challenge, replacing any prior one for the
	// same email.
	Put(ctx context.Context, challenge *Challenge) error

	// Get retrieves the pending challenge for an email. The email is the
	// key: the returned challenge is always the one issued for it.
	// Returns ErrNoChallenge when absent.
	Get(ctx context.Context, email string) (*Challenge, error)

	// Delete discards the pending challenge for an email, if any.
	Delete(ctx context.Context, email string) error
}
