package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationRepository remembers when a user's access was revoked so that
// tokens issued before that instant can be refused before they expire.
type RevocationRepository interface {
	Revoke(ctx context.Context, userID string, at time.Time, ttl time.Duration) error
	// RevokedAt returns the zero time when the user has no active revocation.
	RevokedAt(ctx context.Context, userID string) (time.Time, error)
}

const revocationKeyPrefix = "taskboard:revoked:"

type redisRevocationRepository struct {
	rdb *redis.Client
}

func NewRedisRevocationRepository(rdb *redis.Client) RevocationRepository {
	return &redisRevocationRepository{rdb: rdb}
}

// Revoke keeps the marker only as long as a token issued before it could still be valid.
func (r *redisRevocationRepository) Revoke(ctx context.Context, userID string, at time.Time, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, revocationKeyPrefix+userID, at.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("redisRevocationRepository.Revoke: %w", err)
	}
	return nil
}

func (r *redisRevocationRepository) RevokedAt(ctx context.Context, userID string) (time.Time, error) {
	val, err := r.rdb.Get(ctx, revocationKeyPrefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("redisRevocationRepository.RevokedAt: %w", err)
	}
	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("redisRevocationRepository.RevokedAt: corrupt marker %q: %w", val, err)
	}
	return time.Unix(unix, 0), nil
}
