package repository

import (
	"context"
	"errors"

	"clinicore/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrIdentityNotFound is a domain-specific error returned when an identity is not found.
var ErrIdentityNotFound = errors.New("identity not found")

// IdentityRepository defines the standard operations for global identity persistence.
// The application layer will depend on this interface, not the concrete implementation.
type IdentityRepository interface {
	// FindByID retrieves a single identity by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Identity, error)

	// FindByEmail retrieves a single identity by its email address.
	FindByEmail(ctx context.Context, email string) (*entity.Identity, error)

	// FindByGoogleSubject retrieves the identity bound to an external provider subject.
	FindByGoogleSubject(ctx context.Context, subject string) (*entity.Identity, error)

	// Create persists a new identity to the storage.
	Create(ctx context.Context, identity *entity.Identity) error

	// Update modifies an existing identity in the storage.
	Update(ctx context.Context, identity *entity.Identity) error
}
