package store

import (
	"context"
	"sync"

	"github.com/serroba/gatelink/internal/auth"
	"github.com/serroba/gatelink/internal/link"
)

// MemoryLinkStore is an in-memory implementation of link.Store for tests and
// local development.
type MemoryLinkStore struct {
	mu    sync.RWMutex
	links map[link.ShortID]*link.Record
}

// NewMemoryLinkStore creates a new in-memory link store.
func NewMemoryLinkStore() *MemoryLinkStore {
	return &MemoryLinkStore{
		links: make(map[link.ShortID]*link.Record),
	}
}

func (m *MemoryLinkStore) Save(_ context.Context, record *link.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[record.ShortID]; ok {
		return link.ErrCodeExists
	}

	m.links[record.ShortID] = copyRecord(record)

	return nil
}

func (m *MemoryLinkStore) GetByShortID(_ context.Context, id link.ShortID) (*link.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.links[id]
	if !ok {
		return nil, link.ErrNotFound
	}

	return copyRecord(record), nil
}

func (m *MemoryLinkStore) ListByOwner(_ context.Context, ownerID string) ([]*link.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []*link.Record

	for _, record := range m.links {
		if record.OwnerID == ownerID {
			records = append(records, copyRecord(record))
		}
	}

	return records, nil
}

// copyRecord keeps stored records isolated from caller mutation.
func copyRecord(record *link.Record) *link.Record {
	c := *record
	c.AllowedEmails = append([]string(nil), record.AllowedEmails...)

	if record.ActiveFrom != nil {
		from := *record.ActiveFrom
		c.ActiveFrom = &from
	}

	if record.ActiveUntil != nil {
		until := *record.ActiveUntil
		c.ActiveUntil = &until
	}

	return &c
}

// MemoryChallengeStore is an in-memory implementation of auth.ChallengeStore.
type MemoryChallengeStore struct {
	mu         sync.RWMutex
	challenges map[string]*auth.Challenge
}

// NewMemoryChallengeStore creates a new in-memory challenge store.
func NewMemoryChallengeStore() *MemoryChallengeStore {
	return &MemoryChallengeStore{
		challenges: make(map[string]*auth.Challenge),
	}
}

func (m *MemoryChallengeStore) Put(_ context.Context, challenge *auth.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *challenge
	c.TokenHash = append([]byte(nil), challenge.TokenHash...)
	m.challenges[challenge.Email] = &c

	return nil
}

func (m *MemoryChallengeStore) Get(_ context.Context, email string) (*auth.Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	challenge, ok := m.challenges[email]
	if !ok {
		return nil, auth.ErrNoChallenge
	}

	c := *challenge
	c.TokenHash = append([]byte(nil), challenge.TokenHash...)

	return &c, nil
}

func (m *MemoryChallengeStore) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.challenges, email)

	return nil
}
