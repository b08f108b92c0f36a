package repository

import (
	"context"
	"errors"

	"clinicore/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrPatientProfileNotFound is returned when no profile exists for the lookup key.
var ErrPatientProfileNotFound = errors.New("patient profile not found")

// PatientProfileRepository defines the standard operations for tenant-scoped
// patient profile persistence. Every lookup is keyed by tenant first: a
// profile belonging to another clinic is invisible, not an error to be told apart.
type PatientProfileRepository interface {
	// FindByTenantAndIdentity retrieves the profile linking an identity to a tenant.
	FindByTenantAndIdentity(ctx context.Context, tenantID, identityID uuid.UUID) (*entity.PatientProfile, error)

	// FindByTenantAndGoogleSubject retrieves a profile by its denormalized
	// external subject within one tenant.
	FindByTenantAndGoogleSubject(ctx context.Context, tenantID uuid.UUID, subject string) (*entity.PatientProfile, error)

	// Create persists a new patient profile to the storage.
	Create(ctx context.Context, profile *entity.PatientProfile) error

	// Update modifies an existing patient profile in the storage.
	Update(ctx context.Context, profile *entity.PatientProfile) error
}
