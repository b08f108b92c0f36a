package impl

import (
	"context"
	"sync"
	"testing"
	"time"

	domainerrors "clinicore/internal/domain/errors"
	"clinicore/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStateService(repo *fakeStateRepo, metrics *fakeMetrics) *stateService {
	return &stateService{
		stateRepo: repo,
		metrics:   metrics,
		ttl:       5 * time.Minute,
		retention: time.Hour,
		logger:    newDiscardLogger(),
		now:       time.Now,
	}
}

func TestStateService_GenerateState(t *testing.T) {
	repo := newFakeStateRepo()
	srv := newTestStateService(repo, newFakeMetrics())
	tenantID := uuid.New()

	output, err := srv.GenerateState(context.Background(), usecase.GenerateStateInput{
		TenantID:    tenantID,
		RedirectURI: "https://clinic.example.com/done",
	})
	require.NoError(t, err)

	state := output.State
	assert.Len(t, state.Token, 64) // 32 random bytes, hex encoded
	assert.Len(t, state.Nonce, 64)
	assert.NotEqual(t, state.Token, state.Nonce)
	assert.Equal(t, tenantID, state.TenantID)
	assert.Equal(t, "https://clinic.example.com/done", state.RedirectURI)
	assert.False(t, state.Consumed)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), state.ExpiresAt, 2*time.Second)

	// Two generations never collide.
	second, err := srv.GenerateState(context.Background(), usecase.GenerateStateInput{TenantID: tenantID})
	require.NoError(t, err)
	assert.NotEqual(t, state.Token, second.State.Token)
}

func TestStateService_GenerateState_RejectsBlankTenant(t *testing.T) {
	repo := newFakeStateRepo()
	srv := newTestStateService(repo, newFakeMetrics())

	_, err := srv.GenerateState(context.Background(), usecase.GenerateStateInput{
		TenantID:    uuid.Nil,
		RedirectURI: "https://clinic.example.com/done",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	assert.Equal(t, 0, repo.len(), "no state row may be minted without a tenant")
}

func TestStateService_ValidateAndConsume(t *testing.T) {
	repo := newFakeStateRepo()
	metrics := newFakeMetrics()
	srv := newTestStateService(repo, metrics)
	tenantID := uuid.New()

	output, err := srv.GenerateState(context.Background(), usecase.GenerateStateInput{TenantID: tenantID})
	require.NoError(t, err)

	state, err := srv.ValidateAndConsume(context.Background(), output.State.Token)
	require.NoError(t, err)
	assert.Equal(t, tenantID, state.TenantID)
	assert.Equal(t, output.State.Nonce, state.Nonce)
	assert.True(t, state.Consumed)
	require.NotNil(t, state.ConsumedAt)
	assert.Equal(t, 1, metrics.consumptionCount("consumed"))

	// Replay of the same token is rejected.
	_, err = srv.ValidateAndConsume(context.Background(), output.State.Token)
	assert.ErrorIs(t, err, domainerrors.ErrStateAlreadyUsed)
	assert.Equal(t, 1, metrics.consumptionCount("already_used"))
}

func TestStateService_ValidateAndConsume_UnknownToken(t *testing.T) {
	metrics := newFakeMetrics()
	srv := newTestStateService(newFakeStateRepo(), metrics)

	_, err := srv.ValidateAndConsume(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, domainerrors.ErrStateNotFound)
	assert.Equal(t, 1, metrics.consumptionCount("not_found"))
}

func TestStateService_ValidateAndConsume_Expired(t *testing.T) {
	repo := newFakeStateRepo()
	metrics := newFakeMetrics()
	srv := newTestStateService(repo, metrics)

	output, err := srv.GenerateState(context.Background(), usecase.GenerateStateInput{TenantID: uuid.New()})
	require.NoError(t, err)

	// Move the clock past the TTL.
	srv.now = func() time.Time { return time.Now().Add(6 * time.Minute) }

	_, err = srv.ValidateAndConsume(context.Background(), output.State.Token)
	assert.ErrorIs(t, err, domainerrors.ErrStateExpired)
	assert.Equal(t, 1, metrics.consumptionCount("expired"))

	// The expired row was not consumed; it stays for the cleanup job.
	stored, err := repo.FindByToken(context.Background(), output.State.Token)
	require.NoError(t, err)
	assert.False(t, stored.Consumed)
}

func TestStateService_ValidateAndConsume_Concurrent(t *testing.T) {
	repo := newFakeStateRepo()
	metrics := newFakeMetrics()
	srv := newTestStateService(repo, metrics)

	output, err := srv.GenerateState(context.Background(), usecase.GenerateStateInput{TenantID: uuid.New()})
	require.NoError(t, err)

	const goroutines = 16

	var wg sync.WaitGroup
	errs := make([]error, goroutines)

	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = srv.ValidateAndConsume(context.Background(), output.State.Token)
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, domainerrors.ErrStateAlreadyUsed)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent consume must win")
}

func TestStateService_Cleanup(t *testing.T) {
	repo := newFakeStateRepo()
	metrics := newFakeMetrics()
	srv := newTestStateService(repo, metrics)
	ctx := context.Background()

	// Two unconsumed tokens and a consumed one past retention.
	_, err := srv.GenerateState(ctx, usecase.GenerateStateInput{TenantID: uuid.New()})
	require.NoError(t, err)

	_, err = srv.GenerateState(ctx, usecase.GenerateStateInput{TenantID: uuid.New()})
	require.NoError(t, err)

	consumed, err := srv.GenerateState(ctx, usecase.GenerateStateInput{TenantID: uuid.New()})
	require.NoError(t, err)
	_, err = srv.ValidateAndConsume(ctx, consumed.State.Token)
	require.NoError(t, err)

	srv.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	deleted, err := srv.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, int64(2), metrics.cleanupDeleted["expired"])

	deleted, err = srv.CleanupConsumed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, int64(1), metrics.cleanupDeleted["consumed"])

	assert.Equal(t, 0, repo.len())
}
