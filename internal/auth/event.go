package auth

import "time"

// TopicChallengeIssued carries sign-in capabilities awaiting email delivery.
const TopicChallengeIssued = "auth.challenge.issued"

// ChallengeIssuedEvent is published when a sign-in link must be delivered to
// an inbox. Token is the cleartext capability; it exists only in flight.
type ChallengeIssuedEvent struct {
	Email         string    `json:"email"`
	Token         string    `json:"token"`
	RequestedFrom string    `json:"requestedFrom,omitempty"`
	IssuedAt      time.Time `json:"issuedAt"`
}
