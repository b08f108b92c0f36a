package google

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicKeyCache_ServesFromSnapshotWithoutRefetch(t *testing.T) {
	key := newTestRSAKey(t)

	var keys atomic.Value
	var fetches atomic.Int64
	keys.Store([]map[string]string{jwkFor("kid-1", &key.PublicKey)})
	server := newJWKSServer(t, &keys, &fetches)

	cache := NewPublicKeyCache(server.URL, 24*time.Hour, newDiscardLogger())
	ctx := context.Background()

	got, err := cache.KeyForKid(ctx, "kid-1")
	require.NoError(t, err)
	assert.Equal(t, 0, key.PublicKey.N.Cmp(got.N))

	// Second lookup within TTL must not touch the network.
	_, err = cache.KeyForKid(ctx, "kid-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), fetches.Load())
}

func TestPublicKeyCache_RefreshesOnUnknownKid(t *testing.T) {
	oldKey := newTestRSAKey(t)
	newKey := newTestRSAKey(t)

	var keys atomic.Value
	var fetches atomic.Int64
	keys.Store([]map[string]string{jwkFor("kid-old", &oldKey.PublicKey)})
	server := newJWKSServer(t, &keys, &fetches)

	cache := NewPublicKeyCache(server.URL, 24*time.Hour, newDiscardLogger())
	ctx := context.Background()

	_, err := cache.KeyForKid(ctx, "kid-old")
	require.NoError(t, err)

	// Provider rotates keys: the unknown kid forces a refetch even though
	// the snapshot has not expired.
	keys.Store([]map[string]string{jwkFor("kid-new", &newKey.PublicKey)})

	got, err := cache.KeyForKid(ctx, "kid-new")
	require.NoError(t, err)
	assert.Equal(t, 0, newKey.PublicKey.N.Cmp(got.N))
	assert.Equal(t, int64(2), fetches.Load())
}

func TestPublicKeyCache_UnknownKidAfterRefresh(t *testing.T) {
	key := newTestRSAKey(t)

	var keys atomic.Value
	var fetches atomic.Int64
	keys.Store([]map[string]string{jwkFor("kid-1", &key.PublicKey)})
	server := newJWKSServer(t, &keys, &fetches)

	cache := NewPublicKeyCache(server.URL, 24*time.Hour, newDiscardLogger())

	_, err := cache.KeyForKid(context.Background(), "kid-unknown")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSigningKeyNotFound)
	assert.Equal(t, int64(1), fetches.Load())
}

func TestPublicKeyCache_ExpiryTriggersRefresh(t *testing.T) {
	key := newTestRSAKey(t)

	var keys atomic.Value
	var fetches atomic.Int64
	keys.Store([]map[string]string{jwkFor("kid-1", &key.PublicKey)})
	server := newJWKSServer(t, &keys, &fetches)

	cache := NewPublicKeyCache(server.URL, 24*time.Hour, newDiscardLogger())
	ctx := context.Background()

	_, err := cache.KeyForKid(ctx, "kid-1")
	require.NoError(t, err)

	// Jump past the shared snapshot expiry.
	cache.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	_, err = cache.KeyForKid(ctx, "kid-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetches.Load())
}

func TestPublicKeyCache_RefreshFailurePropagates(t *testing.T) {
	cache := NewPublicKeyCache("http://127.0.0.1:0/jwks", time.Hour, newDiscardLogger())

	_, err := cache.KeyForKid(context.Background(), "kid-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSigningKeyNotFound)
}

func TestPublicKeyCache_ConcurrentLookups(t *testing.T) {
	key := newTestRSAKey(t)

	var keys atomic.Value
	var fetches atomic.Int64
	keys.Store([]map[string]string{jwkFor("kid-1", &key.PublicKey)})
	server := newJWKSServer(t, &keys, &fetches)

	cache := NewPublicKeyCache(server.URL, 24*time.Hour, newDiscardLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := cache.KeyForKid(ctx, "kid-1")
			assert.NoError(t, err)
			assert.NotNil(t, got)
		}()
	}
	wg.Wait()
}
