package security

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *PasswordHasher {
	return NewPasswordHasher(bcrypt.MinCost, 2)
}

func TestPasswordHasher_HashIsSaltedAndVerifies(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	first, err := h.Hash(ctx, "pw123")
	require.NoError(t, err)
	second, err := h.Hash(ctx, "pw123")
	require.NoError(t, err)

	assert.NotEqual(t, "pw123", first)
	assert.NotEqual(t, first, second)

	ok, err := h.Verify(ctx, "pw123", first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(ctx, "wrong", first)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_MalformedHashFailsClosed(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	for _, hashed := range []string{"", "plaintext-password", "$2a$10$short"} {
		ok, err := h.Verify(ctx, "pw123", hashed)
		assert.False(t, ok, hashed)
		assert.ErrorIs(t, err, ErrMalformedHash, hashed)
	}
}

func TestPasswordHasher_InvalidCostFallsBack(t *testing.T) {
	h := NewPasswordHasher(99, 0)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}

func TestPasswordHasher_RespectsContextWhenSaturated(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 1)
	require.True(t, h.sem.TryAcquire(1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.Hash(ctx, "pw123")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPasswordHasher_Concurrent(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hashed, err := h.Hash(ctx, "pw123")
			if assert.NoError(t, err) {
				ok, err := h.Verify(ctx, "pw123", hashed)
				assert.NoError(t, err)
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()
}

func TestPasswordHasher_Burn(t *testing.T) {
	h := newTestHasher()
	h.Burn(context.Background(), "anything")
	assert.NotEmpty(t, h.dummy)
}
