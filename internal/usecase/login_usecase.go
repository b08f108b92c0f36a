package usecase

import (
	"context"

	"clinicore/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// BeginLoginInput defines the data required to start an external login flow.
type BeginLoginInput struct {
	TenantID    uuid.UUID
	RedirectURI string // Optional per-flow redirect override.
}

// CallbackInput carries the provider redirect parameters.
type CallbackInput struct {
	State string
	Code  string
}

// --- Output DTOs ---

// BeginLoginOutput returns the provider URL the browser should be sent to.
type BeginLoginOutput struct {
	AuthorizationURL string
	State            string
}

// CallbackOutput returns the authenticated person and their tenant profile.
type CallbackOutput struct {
	Identity      *entity.Identity
	Profile       *entity.PatientProfile
	IsNewProfile  bool
	AccountLinked bool
}

// LoginUsecase orchestrates the full external login flow across the state
// store, the provider client, the token validator and identity resolution.
type LoginUsecase interface {
	// BeginGoogleLogin mints a state token and builds the authorization URL.
	BeginGoogleLogin(ctx context.Context, input BeginLoginInput) (*BeginLoginOutput, error)

	// GoogleCallback consumes the state, exchanges the code, verifies the
	// ID token against the recovered nonce and resolves the identity.
	GoogleCallback(ctx context.Context, input CallbackInput) (*CallbackOutput, error)
}
