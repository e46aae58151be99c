package memory

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/tasktrack-api/internal/models"
	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
)

type snapshotEntry struct {
	snap      models.PermissionSnapshot
	expiresAt time.Time
}

// SnapshotCache pins permission snapshots to token ids in process memory.
type SnapshotCache struct {
	mu      sync.Mutex
	entries map[string]snapshotEntry
	now     func() time.Time
}

// NewSnapshotCache creates an empty snapshot cache.
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{entries: make(map[string]snapshotEntry), now: time.Now}
}

// Get returns the live snapshot for tokenID.
func (c *SnapshotCache) Get(_ context.Context, tokenID string) (*models.PermissionSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[tokenID]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, tokenID)
		return nil, appErrors.ErrCacheMiss
	}
	snap := e.snap
	snap.Permissions = append([]string(nil), e.snap.Permissions...)
	return &snap, nil
}

// Set pins snap to tokenID for ttl and drops expired entries.
func (c *SnapshotCache) Set(_ context.Context, tokenID string, snap models.PermissionSnapshot, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	snap.Permissions = append([]string(nil), snap.Permissions...)
	c.entries[tokenID] = snapshotEntry{snap: snap, expiresAt: now.Add(ttl)}
	return nil
}
