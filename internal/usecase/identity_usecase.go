package usecase

import (
	"context"

	"clinicore/internal/domain/entity"
	"clinicore/internal/domain/service"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// AuthenticateInput carries the verified external claims to resolve against
// a tenant.
type AuthenticateInput struct {
	TenantID uuid.UUID
	Claims   *service.ExternalClaims
}

// --- Output DTOs ---

// AuthenticateOutput returns the resolved person and their tenant profile.
type AuthenticateOutput struct {
	Identity *entity.Identity
	Profile  *entity.PatientProfile

	// IsNewProfile is true when this login created the tenant profile
	// (first visit to this clinic, whether or not the person existed globally).
	IsNewProfile bool

	// AccountLinked is true when this login attached the external subject
	// to a pre-existing local account matched by email.
	AccountLinked bool
}

// IdentityUsecase resolves verified external claims to a global identity and
// a tenant-scoped patient profile.
type IdentityUsecase interface {
	// Authenticate finds or creates the identity for the claims (by external
	// subject first, then by email link, then fresh) and finds or creates
	// the patient profile for the tenant. Runs in a single transaction.
	Authenticate(ctx context.Context, input AuthenticateInput) (*AuthenticateOutput, error)

	// FindByExternalID is a pure tenant-scoped read: it never creates or
	// modifies anything.
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, subject string) (*entity.PatientProfile, error)
}
