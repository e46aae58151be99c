package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/tasktrack-api/internal/models"
	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
)

const snapshotKeyPrefix = "auth:snapshot:"

// SnapshotCache stores permission snapshots in Redis keyed by access token id.
type SnapshotCache struct {
	client *redis.Client
}

// NewSnapshotCache constructs a Redis backed snapshot cache.
func NewSnapshotCache(client *redis.Client) *SnapshotCache {
	return &SnapshotCache{client: client}
}

// Get retrieves the snapshot pinned to tokenID.
func (r *SnapshotCache) Get(ctx context.Context, tokenID string) (*models.PermissionSnapshot, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}
	key := snapshotKeyPrefix + tokenID
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var snap models.PermissionSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", key, err)
	}
	return &snap, nil
}

// Set pins snap to tokenID for ttl.
func (r *SnapshotCache) Set(ctx context.Context, tokenID string, snap models.PermissionSnapshot, ttl time.Duration) error {
	if r.client == nil || ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	key := snapshotKeyPrefix + tokenID
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (r *SnapshotCache) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection if present.
func (r *SnapshotCache) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
