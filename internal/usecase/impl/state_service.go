// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"clinicore/config"
	deliverycontext "clinicore/internal/delivery/context"
	"clinicore/internal/domain/entity"
	domainerrors "clinicore/internal/domain/errors"
	"clinicore/internal/domain/repository"
	"clinicore/internal/domain/service"
	"clinicore/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// stateService implements the StateUsecase interface.
type stateService struct {
	stateRepo repository.OAuthStateRepository
	metrics   service.AuthMetrics
	ttl       time.Duration
	retention time.Duration
	logger    *slog.Logger

	now func() time.Time
}

// StateServiceParams holds dependencies for stateService, injected by Fx.
type StateServiceParams struct {
	fx.In

	StateRepo repository.OAuthStateRepository
	Metrics   service.AuthMetrics
	Config    *config.Config
	Logger    *slog.Logger
}

// NewStateService is the constructor for stateService.
func NewStateService(params StateServiceParams) usecase.StateUsecase {
	return &stateService{
		stateRepo: params.StateRepo,
		metrics:   params.Metrics,
		ttl:       params.Config.OAuthState.TTL,
		retention: params.Config.OAuthState.ConsumedRetention,
		logger:    params.Logger,
		now:       time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *stateService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GenerateState mints a state token and its nonce and persists them.
func (srv *stateService) GenerateState(ctx context.Context, input usecase.GenerateStateInput) (*usecase.GenerateStateOutput, error) {
	// A state row must always belong to a real tenant; the zero UUID would
	// mint a consumable token for nobody.
	if input.TenantID == uuid.Nil {
		return nil, domainerrors.ErrValidationFailed
	}

	token, err := generateSecureToken()
	if err != nil {
		return nil, err
	}
	nonce, err := generateSecureToken()
	if err != nil {
		return nil, err
	}

	state := &entity.OAuthState{
		Token:       token,
		TenantID:    input.TenantID,
		Nonce:       nonce,
		RedirectURI: input.RedirectURI,
		ExpiresAt:   srv.now().Add(srv.ttl),
	}

	if err := srv.stateRepo.Save(ctx, state); err != nil {
		srv.log(ctx).Error("Failed to save state token",
			slog.Any("tenantID", input.TenantID),
			slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to save state token")
	}

	srv.log(ctx).Debug("State token generated",
		slog.Any("tenantID", input.TenantID),
		slog.Time("expiresAt", state.ExpiresAt))

	return &usecase.GenerateStateOutput{State: state}, nil
}

// ValidateAndConsume checks and consumes a state token in that order: unknown
// token, replay, expiry, then the guarded consume. The final consume is what
// decides races; the pre-checks only exist to return precise errors.
func (srv *stateService) ValidateAndConsume(ctx context.Context, token string) (*entity.OAuthState, error) {
	state, err := srv.stateRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrStateNotFound) {
			srv.metrics.StateConsumption("not_found")

			return nil, domainerrors.ErrStateNotFound
		}

		return nil, errors.Wrap(err, "failed to load state token")
	}

	if state.Consumed {
		srv.metrics.StateConsumption("already_used")
		srv.log(ctx).Warn("State token replay detected",
			slog.Any("tenantID", state.TenantID))

		return nil, domainerrors.ErrStateAlreadyUsed
	}

	if state.Expired(srv.now()) {
		srv.metrics.StateConsumption("expired")

		return nil, domainerrors.ErrStateExpired
	}

	consumedAt := srv.now()
	if err := srv.stateRepo.ConsumeByToken(ctx, token, consumedAt); err != nil {
		switch {
		case errors.Is(err, repository.ErrStateAlreadyConsumed):
			// Lost the race against a concurrent callback with the same token.
			srv.metrics.StateConsumption("already_used")
			srv.log(ctx).Warn("State token lost consume race",
				slog.Any("tenantID", state.TenantID))

			return nil, domainerrors.ErrStateAlreadyUsed
		case errors.Is(err, repository.ErrStateNotFound):
			srv.metrics.StateConsumption("not_found")

			return nil, domainerrors.ErrStateNotFound
		default:
			return nil, errors.Wrap(err, "failed to consume state token")
		}
	}

	srv.metrics.StateConsumption("consumed")
	state.Consumed = true
	state.ConsumedAt = &consumedAt

	return state, nil
}

// CleanupExpired deletes unconsumed tokens past their expiry.
func (srv *stateService) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := srv.stateRepo.DeleteExpired(ctx, srv.now())
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired state tokens")
	}

	if deleted > 0 {
		srv.metrics.CleanupDeleted("expired", deleted)
		srv.log(ctx).Debug("Deleted expired state tokens", slog.Int64("count", deleted))
	}

	return deleted, nil
}

// CleanupConsumed deletes consumed tokens older than the audit retention.
func (srv *stateService) CleanupConsumed(ctx context.Context) (int64, error) {
	cutoff := srv.now().Add(-srv.retention)

	deleted, err := srv.stateRepo.DeleteConsumedBefore(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete consumed state tokens")
	}

	if deleted > 0 {
		srv.metrics.CleanupDeleted("consumed", deleted)
		srv.log(ctx).Debug("Deleted consumed state tokens", slog.Int64("count", deleted))
	}

	return deleted, nil
}

// generateSecureToken returns 32 bytes of cryptographic randomness, hex encoded.
func generateSecureToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.Wrap(err, "failed to generate random token")
	}

	return hex.EncodeToString(bytes), nil
}
