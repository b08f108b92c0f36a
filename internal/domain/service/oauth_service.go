package service

import (
	"context"

	"clinicore/internal/domain/entity"
)

// AuthorizationRequest carries the per-flow values bound into the provider
// authorization URL.
type AuthorizationRequest struct {
	State       string // CSRF state token round-tripped through the provider.
	Nonce       string // Nonce that must reappear inside the returned ID token.
	RedirectURI string // Optional override; empty means the configured default.
}

// TokenResponse is the provider's answer to an authorization-code exchange.
type TokenResponse struct {
	IDToken      string // The OpenID Connect ID token carrying the identity claims.
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // Access token lifetime in seconds, as reported by the provider.
}

// OAuthService defines the interface for the provider-side half of the
// authorization-code flow: building the redirect URL and exchanging the code.
type OAuthService interface {
	// BuildAuthorizationURL assembles the provider authorization URL with the
	// given state and nonce bound in.
	BuildAuthorizationURL(req AuthorizationRequest) string

	// ExchangeCode trades an authorization code for the provider's token set.
	ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error)

	// GetProvider returns the OAuth provider type.
	GetProvider() entity.ProviderType
}
