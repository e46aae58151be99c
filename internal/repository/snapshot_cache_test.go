package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tasktrack-api/internal/models"
	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
)

func TestSnapshotCacheWithoutClient(t *testing.T) {
	cache := NewSnapshotCache(nil)

	_, err := cache.Get(context.Background(), "jti")
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.NoError(t, cache.Set(context.Background(), "jti", models.PermissionSnapshot{}, time.Minute))
	assert.NoError(t, cache.Ping(context.Background()))
	assert.NoError(t, cache.Close())
}

func TestSnapshotCacheUnreachableIsNotAMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	cache := NewSnapshotCache(client)
	defer cache.Close() //nolint:errcheck

	_, err := cache.Get(context.Background(), "jti")
	require.Error(t, err)
	assert.NotErrorIs(t, err, appErrors.ErrCacheMiss)
}
