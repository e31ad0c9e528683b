package auth

import "errors"

var (
	// ErrInvalidEmail is returned when a challenge is requested for a
	// malformed address.
	ErrInvalidEmail = errors.New("malformed email address")

	// ErrNoChallenge is returned when no pending challenge exists for an email.
	ErrNoChallenge = errors.New("no pending challenge for email")

	// ErrChallengeInvalid is returned when a presented capability does not
	// verify against the pending challenge, or the challenge has expired.
	ErrChallengeInvalid = errors.New("challenge capability invalid")

	// ErrDelivery is returned when the sign-in email could not be dispatched.
	ErrDelivery = errors.New("challenge delivery failed")

	// ErrTokenInvalid is returned when a session token fails verification.
	ErrTokenInvalid = errors.New("session token invalid")
)
