package link

import "context"

// Store defines the interface for link record persistence.
type Store interface {
	// Save persists a new record. Returns ErrCodeExists when the short id
	// is already taken; the store's uniqueness guarantee is authoritative.
	Save(ctx context.Context, record *Record) error

	// GetByShortID retrieves a record by exact short id match.
	// Returns ErrNotFound when absent.
	GetByShortID(ctx context.Context, id ShortID) (*Record, error)

	// ListByOwner retrieves all records created by the given owner id.
	// No ordering is guaranteed.
	ListByOwner(ctx context.Context, ownerID string) ([]*Record, error)
}
