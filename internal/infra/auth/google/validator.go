package google

import (
	"context"
	"log/slog"
	"time"

	"clinicore/config"
	"clinicore/internal/domain/entity"
	domainerrors "clinicore/internal/domain/errors"
	"clinicore/internal/domain/service"
	"clinicore/internal/errors"

	"github.com/golang-jwt/jwt/v5"
)

// idTokenValidator verifies Google ID tokens against the cached signing keys.
//
// Failure handling is split in two. Structural and cryptographic defects
// (malformed token, unknown signing key, bad signature, wrong issuer or
// audience, nonce mismatch) are hard errors: such a token cannot have been
// minted by Google for this client, so they surface as the tampering
// taxonomy. Expiry of an otherwise valid token is not an error at all; it
// returns ok=false with the claims, because it is the routine fate of every
// token that sits in a slow redirect.
type idTokenValidator struct {
	cache    *PublicKeyCache
	issuer   string
	clientID string
	logger   *slog.Logger

	now func() time.Time
}

// NewIDTokenValidator creates the validator backed by the given key cache.
func NewIDTokenValidator(cfg *config.Config, cache *PublicKeyCache, logger *slog.Logger) service.IDTokenValidator {
	return &idTokenValidator{
		cache:    cache,
		issuer:   cfg.GoogleOAuth.Issuer,
		clientID: cfg.GoogleOAuth.ClientID,
		logger:   logger,
		now:      time.Now,
	}
}

// idClaims carries the registered claims plus the Google profile claims.
type idClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Nonce         string `json:"nonce"`
	jwt.RegisteredClaims
}

// VerifyIDToken implements service.IDTokenValidator.
func (v *idTokenValidator) VerifyIDToken(ctx context.Context, rawToken, expectedNonce string) (*service.ExternalClaims, bool, error) {
	claims := &idClaims{}

	// Signature and structure first. Claim validation is disabled here so
	// that expiry can be classified separately from tampering below.
	token, err := jwt.ParseWithClaims(rawToken, claims,
		func(t *jwt.Token) (any, error) {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.WithStack(ErrSigningKeyNotFound)
			}

			return v.cache.KeyForKid(ctx, kid)
		},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, false, v.classifyParseError(err)
	}
	if !token.Valid {
		return nil, false, domainerrors.ErrInvalidSignature
	}

	if claims.Issuer != v.issuer {
		v.logger.Warn("id token issuer mismatch",
			slog.String("issuer", claims.Issuer))

		return nil, false, domainerrors.ErrIssuerMismatch
	}

	if !audienceContains(claims.Audience, v.clientID) {
		v.logger.Warn("id token audience mismatch",
			slog.Any("audience", claims.Audience))

		return nil, false, domainerrors.ErrAudienceMismatch
	}

	if claims.Nonce != expectedNonce {
		v.logger.Warn("id token nonce mismatch")

		return nil, false, domainerrors.ErrNonceMismatch
	}

	if claims.ExpiresAt == nil {
		return nil, false, domainerrors.ErrMalformedToken
	}

	external := toExternalClaims(claims)

	// Expiry is the one benign failure: the token is provably Google's,
	// just too old. Report it without an error so callers can answer
	// "please log in again" instead of treating it as an attack.
	if v.now().After(claims.ExpiresAt.Time) {
		return external, false, nil
	}

	return external, true, nil
}

// classifyParseError maps golang-jwt parse failures onto the domain taxonomy.
func (v *idTokenValidator) classifyParseError(err error) error {
	switch {
	case errors.Is(err, ErrSigningKeyNotFound):
		return domainerrors.ErrSigningKeyNotFound
	case errors.Is(err, jwt.ErrTokenMalformed):
		return domainerrors.ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return domainerrors.ErrInvalidSignature
	default:
		// Key fetch failures and other infrastructure errors pass through
		// wrapped; they are outages, not verdicts about the token.
		return errors.Wrap(err, "failed to verify id token")
	}
}

func audienceContains(aud jwt.ClaimStrings, clientID string) bool {
	for _, a := range aud {
		if a == clientID {
			return true
		}
	}

	return false
}

func toExternalClaims(claims *idClaims) *service.ExternalClaims {
	out := &service.ExternalClaims{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		GivenName:     claims.GivenName,
		FamilyName:    claims.FamilyName,
		Name:          claims.Name,
		Provider:      entity.ProviderGoogle,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	return out
}
