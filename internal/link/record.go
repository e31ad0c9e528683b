package link

import "time"

// ShortID is the compact unique token mapping to a link record.
type ShortID string

// Owner identifies the authenticated principal that created a record.
type Owner struct {
	ID    string
	Email string
}

// Record represents one shortened URL and its access policy.
// Records are immutable after creation; there is no edit or revoke path.
type Record struct {
	ShortID       ShortID
	OriginalURL   string
	OwnerID       string
	OwnerEmail    string
	AllowedEmails []string
	CreatedAt     time.Time
	ActiveFrom    *time.Time // access denied before this instant when set
	ActiveUntil   *time.Time // access denied at/after this instant when set
}
