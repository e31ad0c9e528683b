package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/gatelink/internal/link"
)

// RedisLinkCache wraps a link.Store with Redis caching for short id reads.
// Records are immutable after creation, so cached entries never go stale.
type RedisLinkCache struct {
	store  link.Store
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisLinkCache creates a new Redis-cached link store decorator.
func NewRedisLinkCache(store link.Store, client *redis.Client, ttl time.Duration) *RedisLinkCache {
	return &RedisLinkCache{
		store:  store,
		client: client,
		prefix: "link:",
		ttl:    ttl,
	}
}

// Save persists the record in the underlying store and write-through caches it.
func (r *RedisLinkCache) Save(ctx context.Context, record *link.Record) error {
	if err := r.store.Save(ctx, record); err != nil {
		return err
	}

	r.cacheRecord(ctx, record)

	return nil
}

// GetByShortID retrieves a record by short id, checking the cache first.
func (r *RedisLinkCache) GetByShortID(ctx context.Context, id link.ShortID) (*link.Record, error) {
	if record, err := r.getFromCache(ctx, id); err == nil {
		return record, nil
	}

	record, err := r.store.GetByShortID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheRecord(ctx, record)

	return record, nil
}

// ListByOwner always queries the underlying store; owner listings are not
// cached.
func (r *RedisLinkCache) ListByOwner(ctx context.Context, ownerID string) ([]*link.Record, error) {
	return r.store.ListByOwner(ctx, ownerID)
}

func (r *RedisLinkCache) getFromCache(ctx context.Context, id link.ShortID) (*link.Record, error) {
	payload, err := r.client.Get(ctx, r.prefix+string(id)).Bytes()
	if err != nil {
		return nil, err
	}

	var record link.Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *RedisLinkCache) cacheRecord(ctx context.Context, record *link.Record) {
	payload, err := json.Marshal(record)
	if err != nil {
		return
	}

	_ = r.client.Set(ctx, r.prefix+string(record.ShortID), payload, r.ttl).Err()
}

// Compile-time check.
var _ link.Store = (*RedisLinkCache)(nil)
