package service

import (
	"context"
	"time"

	"clinicore/internal/domain/entity"
)

// ExternalClaims is the subset of ID token claims the identity layer consumes.
type ExternalClaims struct {
	Subject       string              // Provider's stable user ID (`sub`).
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
	Name          string
	Provider      entity.ProviderType
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// IDTokenValidator verifies provider ID tokens against the cached signing keys.
//
// The return contract is deliberately asymmetric. Structural and
// cryptographic failures (malformed token, bad signature, wrong issuer or
// audience, nonce mismatch, unknown signing key) come back as errors: any of
// them means the token cannot have been minted by the expected provider for
// this client, so the caller treats it as possible tampering. An expired but
// otherwise fully valid token is NOT an error: it returns the claims with
// ok=false, because expiry is an expected, benign outcome that callers handle
// as "please log in again".
type IDTokenValidator interface {
	// VerifyIDToken verifies rawToken. expectedNonce is compared against the
	// token's nonce claim when non-empty.
	VerifyIDToken(ctx context.Context, rawToken, expectedNonce string) (claims *ExternalClaims, ok bool, err error)
}
