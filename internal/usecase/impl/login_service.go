package impl

import (
	"context"
	"log/slog"

	deliverycontext "clinicore/internal/delivery/context"
	"clinicore/internal/domain/constants"
	domainerrors "clinicore/internal/domain/errors"
	"clinicore/internal/domain/service"
	"clinicore/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// loginService implements the LoginUsecase interface. It orchestrates the
// whole callback: state consumption, code exchange, token verification and
// identity resolution, plus the best-effort metrics and event side channel.
type loginService struct {
	stateUsecase    usecase.StateUsecase
	identityUsecase usecase.IdentityUsecase
	oauthService    service.OAuthService
	validator       service.IDTokenValidator
	metrics         service.AuthMetrics
	publisher       service.EventPublisher
	logger          *slog.Logger
}

// LoginServiceParams holds dependencies for loginService, injected by Fx.
type LoginServiceParams struct {
	fx.In

	StateUsecase    usecase.StateUsecase
	IdentityUsecase usecase.IdentityUsecase
	OAuthService    service.OAuthService
	Validator       service.IDTokenValidator
	Metrics         service.AuthMetrics
	Publisher       service.EventPublisher
	Logger          *slog.Logger
}

// NewLoginService is the constructor for loginService.
func NewLoginService(params LoginServiceParams) usecase.LoginUsecase {
	return &loginService{
		stateUsecase:    params.StateUsecase,
		identityUsecase: params.IdentityUsecase,
		oauthService:    params.OAuthService,
		validator:       params.Validator,
		metrics:         params.Metrics,
		publisher:       params.Publisher,
		logger:          params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *loginService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// BeginGoogleLogin mints a state token and builds the provider authorization URL.
func (srv *loginService) BeginGoogleLogin(ctx context.Context, input usecase.BeginLoginInput) (*usecase.BeginLoginOutput, error) {
	provider := srv.oauthService.GetProvider().String()

	stateOut, err := srv.stateUsecase.GenerateState(ctx, usecase.GenerateStateInput{
		TenantID:    input.TenantID,
		RedirectURI: input.RedirectURI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin login")
	}

	authURL := srv.oauthService.BuildAuthorizationURL(service.AuthorizationRequest{
		State:       stateOut.State.Token,
		Nonce:       stateOut.State.Nonce,
		RedirectURI: input.RedirectURI,
	})

	srv.metrics.LoginStarted(provider)
	srv.log(ctx).Info("Login flow started",
		slog.Any("tenantID", input.TenantID),
		slog.String("provider", provider))

	return &usecase.BeginLoginOutput{
		AuthorizationURL: authURL,
		State:            stateOut.State.Token,
	}, nil
}

// GoogleCallback finishes the login flow started by BeginGoogleLogin.
func (srv *loginService) GoogleCallback(ctx context.Context, input usecase.CallbackInput) (*usecase.CallbackOutput, error) {
	provider := srv.oauthService.GetProvider().String()

	state, err := srv.stateUsecase.ValidateAndConsume(ctx, input.State)
	if err != nil {
		srv.metrics.LoginCompleted(provider, constants.AuthOutcomeRejected)
		srv.publishEvent(ctx, &service.AuthEvent{
			Provider:  provider,
			Outcome:   constants.AuthOutcomeRejected,
			ErrorCode: errorCode(err),
		})

		return nil, err
	}

	tokens, err := srv.oauthService.ExchangeCode(ctx, input.Code, state.RedirectURI)
	if err != nil {
		srv.log(ctx).Error("Authorization code exchange failed",
			slog.Any("tenantID", state.TenantID),
			slog.Any("error", err))
		srv.metrics.LoginCompleted(provider, constants.AuthOutcomeRejected)
		srv.publishEvent(ctx, &service.AuthEvent{
			TenantID:  state.TenantID.String(),
			Provider:  provider,
			Outcome:   constants.AuthOutcomeRejected,
			ErrorCode: domainerrors.ErrOAuthCodeInvalid.ErrorCode(),
		})

		return nil, domainerrors.ErrOAuthCodeInvalid.WrapMessage("authorization code exchange failed")
	}

	claims, valid, err := srv.validator.VerifyIDToken(ctx, tokens.IDToken, state.Nonce)
	if err != nil {
		// Hard failure: the token is not Google's work for this client.
		// Logged loudly; these are the interesting ones for security review.
		srv.log(ctx).Warn("ID token rejected",
			slog.Any("tenantID", state.TenantID),
			slog.String("reason", errorCode(err)),
			slog.Any("error", err))
		srv.metrics.TokenValidation(provider, errorCode(err))
		srv.metrics.LoginCompleted(provider, constants.AuthOutcomeRejected)
		srv.publishEvent(ctx, &service.AuthEvent{
			TenantID:  state.TenantID.String(),
			Provider:  provider,
			Outcome:   constants.AuthOutcomeRejected,
			ErrorCode: errorCode(err),
		})

		return nil, err
	}
	if !valid {
		// Soft failure: genuine token, elapsed lifetime. A retry fixes it.
		srv.metrics.TokenValidation(provider, "expired")
		srv.metrics.LoginCompleted(provider, constants.AuthOutcomeExpired)
		srv.publishEvent(ctx, &service.AuthEvent{
			TenantID:  state.TenantID.String(),
			Provider:  provider,
			Outcome:   constants.AuthOutcomeExpired,
			ErrorCode: domainerrors.ErrLoginExpired.ErrorCode(),
		})

		return nil, domainerrors.ErrLoginExpired
	}
	srv.metrics.TokenValidation(provider, "valid")

	authOut, err := srv.identityUsecase.Authenticate(ctx, usecase.AuthenticateInput{
		TenantID: state.TenantID,
		Claims:   claims,
	})
	if err != nil {
		srv.metrics.LoginCompleted(provider, constants.AuthOutcomeRejected)

		return nil, err
	}

	srv.metrics.LoginCompleted(provider, constants.AuthOutcomeSuccess)
	srv.publishEvent(ctx, &service.AuthEvent{
		TenantID:   state.TenantID.String(),
		IdentityID: authOut.Identity.ID.String(),
		Provider:   provider,
		Outcome:    constants.AuthOutcomeSuccess,
		NewProfile: authOut.IsNewProfile,
		Linked:     authOut.AccountLinked,
	})

	return &usecase.CallbackOutput{
		Identity:      authOut.Identity,
		Profile:       authOut.Profile,
		IsNewProfile:  authOut.IsNewProfile,
		AccountLinked: authOut.AccountLinked,
	}, nil
}

// publishEvent sends an auth event best-effort: failures are logged, never
// propagated, because the event stream must not break logins.
func (srv *loginService) publishEvent(ctx context.Context, event *service.AuthEvent) {
	event.RequestID = deliverycontext.GetRequestIDFromContext(ctx)

	if err := srv.publisher.PublishAuthEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish auth event",
			slog.String("outcome", event.Outcome),
			slog.Any("error", err))
	}
}

// errorCode extracts the business error code for metrics and events.
func errorCode(err error) string {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr.ErrorCode()
	}

	return "INTERNAL_ERROR"
}
