// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"clinicore/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// GenerateStateInput defines the data required to mint a new login state token.
type GenerateStateInput struct {
	TenantID    uuid.UUID
	RedirectURI string // Optional per-flow redirect override.
}

// --- Output DTOs ---

// GenerateStateOutput returns the freshly minted state token.
type GenerateStateOutput struct {
	State *entity.OAuthState
}

// StateUsecase defines the lifecycle operations of CSRF state tokens: mint,
// single-use consumption and periodic cleanup.
type StateUsecase interface {
	// GenerateState mints and persists a new state token for a tenant.
	GenerateState(ctx context.Context, input GenerateStateInput) (*GenerateStateOutput, error)

	// ValidateAndConsume atomically consumes an unconsumed, unexpired state
	// token and returns it. Replayed, unknown and expired tokens fail with
	// the corresponding domain error; under concurrent replay exactly one
	// caller succeeds.
	ValidateAndConsume(ctx context.Context, token string) (*entity.OAuthState, error)

	// CleanupExpired deletes unconsumed tokens past their expiry and
	// returns how many were removed.
	CleanupExpired(ctx context.Context) (int64, error)

	// CleanupConsumed deletes consumed tokens older than the configured
	// audit retention and returns how many were removed.
	CleanupConsumed(ctx context.Context) (int64, error)
}
