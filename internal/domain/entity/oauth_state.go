package entity

import (
	"time"

	"github.com/google/uuid"
)

// OAuthState is a single-use CSRF token minted when a login flow starts and
// consumed exactly once when the provider redirects back. The row survives
// consumption for a short audit window before the cleanup job removes it.
type OAuthState struct {
	ID          uuid.UUID  // The unique ID of this state record.
	Token       string     // The opaque state value round-tripped through the provider. Unique.
	TenantID    uuid.UUID  // The clinic the login flow was started for.
	Nonce       string     // Nonce bound into the authorization request; must reappear in the ID token.
	RedirectURI string     // Optional per-flow redirect override. Empty means the configured default.
	Consumed    bool       // Set exactly once; a consumed token can never authorize a callback again.
	ConsumedAt  *time.Time // When the token was consumed. Nil while unconsumed.
	ExpiresAt   time.Time  // Hard deadline after which the token is invalid even if unconsumed.
	CreatedAt   time.Time
}

// Expired reports whether the token's lifetime has elapsed at the given instant.
func (s *OAuthState) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
