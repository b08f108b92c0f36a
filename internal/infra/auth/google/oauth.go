// Package google implements the provider-side infrastructure for Google
// sign-in: the authorization-code flow client, the signing key cache and the
// ID token validator.
package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clinicore/config"
	"clinicore/internal/domain/entity"
	"clinicore/internal/domain/service"

	"github.com/pkg/errors"
)

const (
	defaultAuthEndpoint  = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenEndpoint = "https://oauth2.googleapis.com/token"
	defaultScopes        = "openid email profile"
)

// OAuthService handles Google OAuth infrastructure operations. It is
// stateless; CSRF state lives in the durable state store, not here.
type OAuthService struct {
	clientID      string
	clientSecret  string
	redirectURI   string
	scopes        string
	authEndpoint  string
	tokenEndpoint string

	client *http.Client
}

// NewOAuthService creates a new Google OAuth service
func NewOAuthService(cfg *config.Config) service.OAuthService {
	oauth := cfg.GoogleOAuth

	svc := &OAuthService{
		clientID:      oauth.ClientID,
		clientSecret:  oauth.ClientSecret,
		redirectURI:   oauth.RedirectURI,
		scopes:        oauth.Scopes,
		authEndpoint:  oauth.AuthEndpoint,
		tokenEndpoint: oauth.TokenEndpoint,
		client:        &http.Client{Timeout: 15 * time.Second},
	}
	if svc.scopes == "" {
		svc.scopes = defaultScopes
	}
	if svc.authEndpoint == "" {
		svc.authEndpoint = defaultAuthEndpoint
	}
	if svc.tokenEndpoint == "" {
		svc.tokenEndpoint = defaultTokenEndpoint
	}

	return svc
}

// BuildAuthorizationURL constructs the Google authorization URL with the
// state and nonce bound in. offline access + consent keeps refresh tokens
// flowing for returning patients.
func (s *OAuthService) BuildAuthorizationURL(req service.AuthorizationRequest) string {
	redirectURI := req.RedirectURI
	if redirectURI == "" {
		redirectURI = s.redirectURI
	}

	params := url.Values{}
	params.Set("client_id", s.clientID)
	params.Set("redirect_uri", redirectURI)
	params.Set("scope", s.scopes)
	params.Set("response_type", "code")
	params.Set("state", req.State)
	params.Set("nonce", req.Nonce)
	params.Set("access_type", "offline")
	params.Set("prompt", "consent")

	return s.authEndpoint + "?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for the provider token set.
func (s *OAuthService) ExchangeCode(ctx context.Context, code, redirectURI string) (*service.TokenResponse, error) {
	if redirectURI == "" {
		redirectURI = s.redirectURI
	}

	data := url.Values{}
	data.Set("client_id", s.clientID)
	data.Set("client_secret", s.clientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create token exchange request")
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to exchange code for token")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return nil, errors.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResponse struct {
		IDToken      string `json:"id_token"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int64  `json:"expires_in"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return nil, errors.Wrap(err, "failed to decode token response")
	}

	return &service.TokenResponse{
		IDToken:      tokenResponse.IDToken,
		AccessToken:  tokenResponse.AccessToken,
		RefreshToken: tokenResponse.RefreshToken,
		ExpiresIn:    tokenResponse.ExpiresIn,
	}, nil
}

// GetProvider returns the OAuth provider type
func (s *OAuthService) GetProvider() entity.ProviderType {
	return entity.ProviderGoogle
}
