package google

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return key
}

func jwkFor(kid string, pub *rsa.PublicKey) map[string]string {
	eb := big.NewInt(int64(pub.E)).Bytes()

	return map[string]string{
		"kty": "RSA",
		"alg": "RS256",
		"use": "sig",
		"kid": kid,
		"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(eb),
	}
}

// newJWKSServer serves the given keys and counts how many fetches it saw.
func newJWKSServer(t *testing.T, keys *atomic.Value, fetches *atomic.Int64) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)

		doc := map[string]any{"keys": keys.Load()}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(doc))
	}))
	t.Cleanup(server.Close)

	return server
}

type testTokenSpec struct {
	kid      string
	issuer   string
	audience string
	nonce    string
	subject  string
	email    string
	expires  time.Time
}

func signTestToken(t *testing.T, key *rsa.PrivateKey, spec testTokenSpec) string {
	t.Helper()

	claims := jwt.MapClaims{
		"iss":            spec.issuer,
		"aud":            spec.audience,
		"sub":            spec.subject,
		"email":          spec.email,
		"email_verified": true,
		"given_name":     "Test",
		"family_name":    "Patient",
		"name":           "Test Patient",
		"iat":            time.Now().Add(-time.Minute).Unix(),
		"exp":            spec.expires.Unix(),
	}
	if spec.nonce != "" {
		claims["nonce"] = spec.nonce
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = spec.kid

	signed, err := token.SignedString(key)
	require.NoError(t, err)

	return signed
}
