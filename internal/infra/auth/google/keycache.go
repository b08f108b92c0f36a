package google

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// ErrSigningKeyNotFound is returned when the provider's key set, even after a
// fresh fetch, does not contain the requested key ID.
var ErrSigningKeyNotFound = errors.New("signing key not found in provider key set")

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	N   string `json:"n"` // base64url modulus
	E   string `json:"e"` // base64url exponent
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

// keySnapshot is an immutable view of the provider key set. The whole struct
// is replaced on refresh; a snapshot is never mutated after publication, so
// readers holding an old pointer always see a complete, consistent key set.
type keySnapshot struct {
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
}

// PublicKeyCache caches the provider's JWKS in process memory. All cached
// keys share one expiry: a refresh fetches the entire document, builds a
// complete map and swaps it in atomically. There is no per-key TTL, no
// request coalescing (concurrent misses each fetch; last write wins with an
// equally fresh document) and no stale fallback: when a refresh fails the
// error propagates and the previous snapshot is left as-is.
type PublicKeyCache struct {
	jwksURL  string
	ttl      time.Duration
	client   *http.Client
	logger   *slog.Logger
	snapshot atomic.Pointer[keySnapshot]

	now func() time.Time
}

// NewPublicKeyCache creates an empty cache; the first verification populates it.
func NewPublicKeyCache(jwksURL string, ttl time.Duration, logger *slog.Logger) *PublicKeyCache {
	return &PublicKeyCache{
		jwksURL: jwksURL,
		ttl:     ttl,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		now:     time.Now,
	}
}

// KeyForKid returns the RSA public key for the given key ID. A usable key in
// a fresh snapshot is served without locking or network traffic. An expired
// snapshot, an empty cache or an unknown kid (key rotation) all trigger one
// full refresh; a kid still missing after the refresh is ErrSigningKeyNotFound.
func (c *PublicKeyCache) KeyForKid(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if snap := c.snapshot.Load(); snap != nil && c.now().Before(snap.expiresAt) {
		if key, ok := snap.keys[kid]; ok {
			return key, nil
		}
	}

	snap, err := c.refresh(ctx)
	if err != nil {
		return nil, err
	}

	key, ok := snap.keys[kid]
	if !ok {
		return nil, errors.WithStack(ErrSigningKeyNotFound)
	}

	return key, nil
}

// refresh fetches the whole JWKS document, materializes every RSA key and
// publishes the new snapshot.
func (c *PublicKeyCache) refresh(ctx context.Context) (*keySnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create jwks request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch jwks")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("jwks fetch failed with status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode jwks document")
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if !strings.EqualFold(k.Kty, "RSA") || k.Kid == "" {
			continue
		}

		key, err := rsaKeyFromJWK(k)
		if err != nil {
			c.logger.Warn("skipping unparseable jwk",
				slog.String("kid", k.Kid),
				slog.Any("error", err))

			continue
		}
		keys[k.Kid] = key
	}

	snap := &keySnapshot{
		keys:      keys,
		expiresAt: c.now().Add(c.ttl),
	}
	c.snapshot.Store(snap)

	c.logger.Debug("refreshed provider key set",
		slog.Int("keys", len(keys)),
		slog.Time("expiresAt", snap.expiresAt))

	return snap, nil
}

// rsaKeyFromJWK materializes an rsa.PublicKey from the base64url modulus and exponent.
func rsaKeyFromJWK(k jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode modulus")
	}

	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode exponent")
	}

	e := 0
	if len(eb) == 0 {
		e = 65537
	} else {
		for _, b := range eb {
			e = (e << 8) | int(b)
		}
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: e,
	}, nil
}
