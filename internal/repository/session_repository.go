package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/campus-events-api/internal/models"
)

const sessionKeyPrefix = "session:"

// SessionKey derives the storage key for a bearer token. Raw tokens are never
// written to Redis.
func SessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return sessionKeyPrefix + hex.EncodeToString(sum[:])
}

// SessionRepository keeps session snapshots in Redis.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository constructs the repository. A nil client disables
// storage: Get always misses and writes are dropped.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Get returns the session stored under key, or nil when there is none.
func (r *SessionRepository) Get(ctx context.Context, key string) (*models.Session, error) {
	if r.client == nil {
		return nil, nil
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

// Save stores session until its expiry.
func (r *SessionRepository) Save(ctx context.Context, session *models.Session) error {
	if r.client == nil || session == nil {
		return nil
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, session.Key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Delete drops the session under key.
func (r *SessionRepository) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
