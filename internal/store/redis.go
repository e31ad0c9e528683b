package store

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/gatelink/internal/auth"
)

// RedisChallengeStore is a Redis implementation of auth.ChallengeStore.
// Challenges live under one hash per email, so a reissue naturally replaces
// the pending challenge. When the challenge carries an expiry the key expires
// with it.
type RedisChallengeStore struct {
	client *redis.Client
	prefix string
}

// NewRedisChallengeStore creates a new Redis-backed challenge store.
func NewRedisChallengeStore(client *redis.Client) *RedisChallengeStore {
	return &RedisChallengeStore{
		client: client,
		prefix: "challenge:",
	}
}

func (r *RedisChallengeStore) Put(ctx context.Context, challenge *auth.Challenge) error {
	key := r.prefix + challenge.Email

	pipe := r.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]interface{}{
		"email":      challenge.Email,
		"token_hash": base64.StdEncoding.EncodeToString(challenge.TokenHash),
		"issued_at":  challenge.IssuedAt.UnixNano(),
		"expires_at": expiresAtNanos(challenge),
	})

	if !challenge.ExpiresAt.IsZero() {
		pipe.ExpireAt(ctx, key, challenge.ExpiresAt)
	}

	_, err := pipe.Exec(ctx)

	return err
}

func (r *RedisChallengeStore) Get(ctx context.Context, email string) (*auth.Challenge, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+email).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, auth.ErrNoChallenge
		}

		return nil, err
	}

	if len(result) == 0 {
		return nil, auth.ErrNoChallenge
	}

	hash, err := base64.StdEncoding.DecodeString(result["token_hash"])
	if err != nil {
		return nil, err
	}

	challenge := &auth.Challenge{
		Email:     result["email"],
		TokenHash: hash,
		IssuedAt:  timeFromNanos(result["issued_at"]),
		ExpiresAt: timeFromNanos(result["expires_at"]),
	}

	return challenge, nil
}

func (r *RedisChallengeStore) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, r.prefix+email).Err()
}

func expiresAtNanos(challenge *auth.Challenge) int64 {
	if challenge.ExpiresAt.IsZero() {
		return 0
	}

	return challenge.ExpiresAt.UnixNano()
}

func timeFromNanos(s string) time.Time {
	nanos, err := strconv.ParseInt(s, 10, 64)
	if err != nil || nanos == 0 {
		return time.Time{}
	}

	return time.Unix(0, nanos)
}
