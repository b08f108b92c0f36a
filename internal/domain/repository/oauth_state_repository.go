// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"
	"time"

	"clinicore/internal/domain/entity"
)

// Domain-specific errors for state token persistence.
var (
	// ErrStateNotFound is returned when no state row exists for a token.
	ErrStateNotFound = errors.New("state token not found")
	// ErrStateAlreadyConsumed is returned when the guarded consume finds the
	// row already marked consumed. Under concurrent consumption exactly one
	// caller wins; every other caller receives this error.
	ErrStateAlreadyConsumed = errors.New("state token already consumed")
)

// OAuthStateRepository defines the standard operations for CSRF state token persistence.
type OAuthStateRepository interface {
	// Save persists a freshly minted state token.
	Save(ctx context.Context, state *entity.OAuthState) error

	// FindByToken retrieves a state row by its token value, consumed or not.
	// Returns ErrStateNotFound when no row exists.
	FindByToken(ctx context.Context, token string) (*entity.OAuthState, error)

	// ConsumeByToken atomically flips the row from unconsumed to consumed.
	// The update is guarded on `consumed = false`, so of any number of
	// concurrent callers exactly one succeeds; the rest get
	// ErrStateAlreadyConsumed. A missing row yields ErrStateNotFound.
	ConsumeByToken(ctx context.Context, token string, consumedAt time.Time) error

	// DeleteExpired removes every unconsumed row whose expiry is before now.
	// Returns the number of rows removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// DeleteConsumedBefore removes consumed rows whose consumption happened
	// before the cutoff, closing the audit window. Returns the number of
	// rows removed.
	DeleteConsumedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
