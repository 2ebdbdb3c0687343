package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is an in-memory stand-in for the go-redis client.
type fakeClient struct {
	mu      sync.Mutex
	keys    map[string]interface{}
	ttls    map[string]time.Duration
	failErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		keys: make(map[string]interface{}),
		ttls: make(map[string]time.Duration),
	}
}

func (f *fakeClient) SetNX(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return redis.NewBoolResult(false, f.failErr)
	}
	if _, exists := f.keys[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = value
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

// Eval understands only the release script: delete KEYS[0] if it holds ARGV[0].
func (f *fakeClient) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return redis.NewCmdResult(nil, f.failErr)
	}
	if v, ok := f.keys[keys[0]]; ok && v == args[0] {
		delete(f.keys, keys[0])
		delete(f.ttls, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (f *fakeClient) Ping(context.Context) *redis.StatusCmd {
	if f.failErr != nil {
		return redis.NewStatusResult("", f.failErr)
	}
	return redis.NewStatusResult("PONG", nil)
}

func TestClaimKey(t *testing.T) {
	id := uuid.MustParse("6f1c1a2e-8a4b-4c1d-9e5f-1234567890ab")
	assert.Equal(t, "reminder:claim:6f1c1a2e-8a4b-4c1d-9e5f-1234567890ab", ClaimKey(id))
}

func TestClaimer(t *testing.T) {
	ctx := context.Background()

	t.Run("first claim wins", func(t *testing.T) {
		client := newFakeClient()
		first := NewClaimer(client, time.Hour, nil)
		second := NewClaimer(client, time.Hour, nil)
		id := uuid.New()

		ok, err := first.Claim(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = second.Claim(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok)

		assert.Equal(t, time.Hour, client.ttls[ClaimKey(id)])
		assert.NotEmpty(t, client.keys[ClaimKey(id)])
	})

	t.Run("release makes task claimable again", func(t *testing.T) {
		client := newFakeClient()
		claimer := NewClaimer(client, time.Minute, nil)
		id := uuid.New()

		ok, err := claimer.Claim(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, claimer.Release(ctx, id))

		ok, err = claimer.Claim(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("release leaves another worker's claim in place", func(t *testing.T) {
		client := newFakeClient()
		stale := NewClaimer(client, time.Minute, nil)
		current := NewClaimer(client, time.Minute, nil)
		id := uuid.New()

		ok, err := stale.Claim(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)

		// The stale claim expires and another worker takes the task.
		delete(client.keys, ClaimKey(id))
		ok, err = current.Claim(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, stale.Release(ctx, id))
		assert.Equal(t, current.owner, client.keys[ClaimKey(id)])

		ok, err = stale.Claim(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok, "task stays claimed by the current owner")
	})

	t.Run("claimers in one process have distinct owners", func(t *testing.T) {
		client := newFakeClient()
		assert.NotEqual(t, NewClaimer(client, time.Minute, nil).owner, NewClaimer(client, time.Minute, nil).owner)
	})

	t.Run("errors are wrapped", func(t *testing.T) {
		client := newFakeClient()
		client.failErr = errors.New("connection refused")
		claimer := NewClaimer(client, time.Minute, nil)
		id := uuid.New()

		ok, err := claimer.Claim(ctx, id)
		assert.False(t, ok)
		require.Error(t, err)
		assert.ErrorIs(t, err, client.failErr)
		assert.Contains(t, err.Error(), ClaimKey(id))

		err = claimer.Release(ctx, id)
		assert.ErrorIs(t, err, client.failErr)

		assert.ErrorIs(t, claimer.Ping(ctx), client.failErr)
	})
}

func TestNewClaimerPanicsOnNilClient(t *testing.T) {
	assert.Panics(t, func() { NewClaimer(nil, time.Minute, nil) })
}
