package security

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

var ErrMalformedHash = errors.New("stored password hash is missing or malformed")

// PasswordHasher wraps bcrypt. Hashing is CPU bound, so the number of
// concurrent hash/compare calls is capped; callers beyond the cap wait on ctx.
type PasswordHasher struct {
	cost int
	sem  *semaphore.Weighted

	dummyOnce sync.Once
	dummy     []byte
}

func NewPasswordHasher(cost, concurrency int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &PasswordHasher{cost: cost, sem: semaphore.NewWeighted(int64(concurrency))}
}

// Hash returns a salted bcrypt hash; two calls with the same input differ.
func (h *PasswordHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hashed. A mismatch is (false, nil);
// an empty or unparsable hash is (false, ErrMalformedHash).
func (h *PasswordHasher) Verify(ctx context.Context, plaintext, hashed string) (bool, error) {
	if hashed == "" {
		return false, ErrMalformedHash
	}
	if _, err := bcrypt.Cost([]byte(hashed)); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

// Burn spends the same work as a real comparison. Login calls it for unknown
// emails so response time does not reveal whether an account exists.
func (h *PasswordHasher) Burn(ctx context.Context, plaintext string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), h.cost)
	})
	if h.dummy == nil {
		return
	}
	_, _ = h.Verify(ctx, plaintext, string(h.dummy))
}
