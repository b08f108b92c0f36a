package impl

import (
	"context"
	"testing"

	domainerrors "clinicore/internal/domain/errors"
	"clinicore/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginEnv struct {
	srv       *loginService
	stateRepo *fakeStateRepo
	oauth     *fakeOAuthService
	validator *fakeValidator
	metrics   *fakeMetrics
	publisher *fakePublisher
}

func newLoginEnv() *loginEnv {
	stateRepo := newFakeStateRepo()
	metrics := newFakeMetrics()
	identityEnv := newIdentityEnv()
	oauth := &fakeOAuthService{}
	validator := &fakeValidator{}
	publisher := &fakePublisher{}

	srv := &loginService{
		stateUsecase:    newTestStateService(stateRepo, metrics),
		identityUsecase: identityEnv.srv,
		oauthService:    oauth,
		validator:       validator,
		metrics:         metrics,
		publisher:       publisher,
		logger:          newDiscardLogger(),
	}

	return &loginEnv{
		srv:       srv,
		stateRepo: stateRepo,
		oauth:     oauth,
		validator: validator,
		metrics:   metrics,
		publisher: publisher,
	}
}

func TestBeginGoogleLogin(t *testing.T) {
	env := newLoginEnv()
	tenantID := uuid.New()

	output, err := env.srv.BeginGoogleLogin(context.Background(), usecase.BeginLoginInput{
		TenantID:    tenantID,
		RedirectURI: "https://clinic.example.com/done",
	})
	require.NoError(t, err)

	assert.Contains(t, output.AuthorizationURL, output.State)
	assert.Equal(t, output.State, env.oauth.lastRequest.State)
	assert.NotEmpty(t, env.oauth.lastRequest.Nonce)
	assert.Equal(t, "https://clinic.example.com/done", env.oauth.lastRequest.RedirectURI)
	assert.Equal(t, []string{"google"}, env.metrics.loginStarted)

	// The minted state is persisted and consumable.
	stored, err := env.stateRepo.FindByToken(context.Background(), output.State)
	require.NoError(t, err)
	assert.Equal(t, tenantID, stored.TenantID)
	assert.Equal(t, env.oauth.lastRequest.Nonce, stored.Nonce)
}

func TestGoogleCallback_Success(t *testing.T) {
	env := newLoginEnv()
	tenantID := uuid.New()

	begin, err := env.srv.BeginGoogleLogin(context.Background(), usecase.BeginLoginInput{
		TenantID:    tenantID,
		RedirectURI: "https://clinic.example.com/done",
	})
	require.NoError(t, err)

	env.validator.claims = googleClaims("sub-123", "meiling@example.com")
	env.validator.ok = true

	output, err := env.srv.GoogleCallback(context.Background(), usecase.CallbackInput{
		State: begin.State,
		Code:  "auth-code",
	})
	require.NoError(t, err)

	assert.Equal(t, "meiling@example.com", output.Identity.Email)
	assert.Equal(t, tenantID, output.Profile.TenantID)
	assert.True(t, output.IsNewProfile)
	assert.False(t, output.AccountLinked)

	// The exchange used the stored redirect and the verifier got the stored nonce.
	assert.Equal(t, "auth-code", env.oauth.lastCode)
	assert.Equal(t, "https://clinic.example.com/done", env.oauth.lastRedirect)
	assert.Equal(t, env.oauth.lastRequest.Nonce, env.validator.lastNonce)

	assert.Equal(t, []string{"valid"}, env.metrics.tokenValidation)
	assert.Equal(t, []string{"success"}, env.metrics.loginCompleted)

	event := env.publisher.lastEvent()
	require.NotNil(t, event)
	assert.Equal(t, "success", event.Outcome)
	assert.Equal(t, tenantID.String(), event.TenantID)
	assert.Equal(t, output.Identity.ID.String(), event.IdentityID)
	assert.True(t, event.NewProfile)
	assert.False(t, event.Linked)
}

func TestGoogleCallback_StateReplay(t *testing.T) {
	env := newLoginEnv()

	begin, err := env.srv.BeginGoogleLogin(context.Background(), usecase.BeginLoginInput{TenantID: uuid.New()})
	require.NoError(t, err)

	env.validator.claims = googleClaims("sub-123", "meiling@example.com")
	env.validator.ok = true

	_, err = env.srv.GoogleCallback(context.Background(), usecase.CallbackInput{State: begin.State, Code: "auth-code"})
	require.NoError(t, err)

	_, err = env.srv.GoogleCallback(context.Background(), usecase.CallbackInput{State: begin.State, Code: "auth-code"})
	assert.ErrorIs(t, err, domainerrors.ErrStateAlreadyUsed)

	assert.Equal(t, []string{"success", "rejected"}, env.metrics.loginCompleted)

	event := env.publisher.lastEvent()
	require.NotNil(t, event)
	assert.Equal(t, "rejected", event.Outcome)
	assert.Equal(t, "STATE_ALREADY_USED", event.ErrorCode)
}

func TestGoogleCallback_UnknownState(t *testing.T) {
	env := newLoginEnv()

	_, err := env.srv.GoogleCallback(context.Background(), usecase.CallbackInput{State: "bogus", Code: "auth-code"})
	assert.ErrorIs(t, err, domainerrors.ErrStateNotFound)
	assert.Equal(t, []string{"rejected"}, env.metrics.loginCompleted)
}

func TestGoogleCallback_ExchangeFailure(t *testing.T) {
	env := newLoginEnv()

	begin, err := env.srv.BeginGoogleLogin(context.Background(), usecase.BeginLoginInput{TenantID: uuid.New()})
	require.NoError(t, err)

	env.oauth.exchangeErr = errors.New("invalid_grant")

	_, err = env.srv.GoogleCallback(context.Background(), usecase.CallbackInput{State: begin.State, Code: "bad-code"})
	assert.ErrorIs(t, err, domainerrors.ErrOAuthCodeInvalid)

	event := env.publisher.lastEvent()
	require.NotNil(t, event)
	assert.Equal(t, "rejected", event.Outcome)
	assert.Equal(t, domainerrors.ErrOAuthCodeInvalid.ErrorCode(), event.ErrorCode)
}

func TestGoogleCallback_HardValidationFailure(t *testing.T) {
	env := newLoginEnv()

	begin, err := env.srv.BeginGoogleLogin(context.Background(), usecase.BeginLoginInput{TenantID: uuid.New()})
	require.NoError(t, err)

	env.validator.err = domainerrors.ErrInvalidSignature

	_, err = env.srv.GoogleCallback(context.Background(), usecase.CallbackInput{State: begin.State, Code: "auth-code"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidSignature)

	assert.Equal(t, []string{"INVALID_SIGNATURE"}, env.metrics.tokenValidation)
	assert.Equal(t, []string{"rejected"}, env.metrics.loginCompleted)

	event := env.publisher.lastEvent()
	require.NotNil(t, event)
	assert.Equal(t, "rejected", event.Outcome)
	assert.Equal(t, "INVALID_SIGNATURE", event.ErrorCode)
}

func TestGoogleCallback_ExpiredTokenIsSoftFailure(t *testing.T) {
	env := newLoginEnv()

	begin, err := env.srv.BeginGoogleLogin(context.Background(), usecase.BeginLoginInput{TenantID: uuid.New()})
	require.NoError(t, err)

	// A genuine but stale token: claims come back without a hard error.
	env.validator.claims = googleClaims("sub-123", "meiling@example.com")
	env.validator.ok = false

	_, err = env.srv.GoogleCallback(context.Background(), usecase.CallbackInput{State: begin.State, Code: "auth-code"})
	assert.ErrorIs(t, err, domainerrors.ErrLoginExpired)

	assert.Equal(t, []string{"expired"}, env.metrics.tokenValidation)
	assert.Equal(t, []string{"expired"}, env.metrics.loginCompleted)

	event := env.publisher.lastEvent()
	require.NotNil(t, event)
	assert.Equal(t, "expired", event.Outcome)
}

func TestGoogleCallback_PublisherFailureDoesNotBreakLogin(t *testing.T) {
	env := newLoginEnv()
	env.publisher.err = errors.New("broker unavailable")

	begin, err := env.srv.BeginGoogleLogin(context.Background(), usecase.BeginLoginInput{TenantID: uuid.New()})
	require.NoError(t, err)

	env.validator.claims = googleClaims("sub-123", "meiling@example.com")
	env.validator.ok = true

	output, err := env.srv.GoogleCallback(context.Background(), usecase.CallbackInput{State: begin.State, Code: "auth-code"})
	require.NoError(t, err)
	assert.NotNil(t, output.Identity)
}
