package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestRedisRevocationRepository(t *testing.T) {
	mr, rdb := newMiniredis(t)
	repo := NewRedisRevocationRepository(rdb)
	ctx := context.Background()

	at, err := repo.RevokedAt(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, at.IsZero())

	revokedAt := time.Unix(1_700_000_000, 0)
	require.NoError(t, repo.Revoke(ctx, "u-1", revokedAt, time.Hour))

	at, err = repo.RevokedAt(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, at.Equal(revokedAt))
	assert.Equal(t, time.Hour, mr.TTL(revocationKeyPrefix+"u-1"))

	later := revokedAt.Add(time.Minute)
	require.NoError(t, repo.Revoke(ctx, "u-1", later, time.Hour))
	at, err = repo.RevokedAt(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, at.Equal(later))
}

func TestRedisRevocationRepository_Expires(t *testing.T) {
	mr, rdb := newMiniredis(t)
	repo := NewRedisRevocationRepository(rdb)
	ctx := context.Background()

	require.NoError(t, repo.Revoke(ctx, "u-2", time.Now(), time.Minute))
	mr.FastForward(2 * time.Minute)

	at, err := repo.RevokedAt(ctx, "u-2")
	require.NoError(t, err)
	assert.True(t, at.IsZero())
}

func TestRedisRevocationRepository_CorruptMarker(t *testing.T) {
	mr, rdb := newMiniredis(t)
	repo := NewRedisRevocationRepository(rdb)

	require.NoError(t, mr.Set(revocationKeyPrefix+"u-3", "yesterday"))
	_, err := repo.RevokedAt(context.Background(), "u-3")
	assert.Error(t, err)
}
