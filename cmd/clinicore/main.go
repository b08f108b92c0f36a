package main

import (
	"context"
	"log/slog"
	"os"

	"clinicore/config"
	"clinicore/internal/delivery"
	"clinicore/internal/delivery/http"
	"clinicore/internal/delivery/http/router/handler"
	"clinicore/internal/delivery/worker"
	"clinicore/internal/domain/service"
	"clinicore/internal/infra/auth"
	"clinicore/internal/infra/auth/google"
	logs "clinicore/internal/infra/log"
	"clinicore/internal/infra/metrics"
	"clinicore/internal/infra/persistence/postgres"
	"clinicore/internal/infra/pubsub"
	"clinicore/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectHandler(),
		pubsub.Module,
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewIdentityRepository,
			postgres.NewPatientProfileRepository,
			postgres.NewOAuthStateRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			newBcryptHasher,
			newAuthMetrics,
			newPublicKeyCache,
			google.NewOAuthService,
			google.NewIDTokenValidator,
		),
	)
}

// newBcryptHasher creates the password hasher with the configured cost
func newBcryptHasher(cfg *config.Config) service.PasswordHasher {
	return auth.NewBcryptHasher(cfg.Auth.BcryptCost)
}

// newAuthMetrics registers the Prometheus counters and exposes them as the domain interface
func newAuthMetrics() service.AuthMetrics {
	return metrics.New()
}

// newPublicKeyCache creates the JWKS cache from the provider configuration
func newPublicKeyCache(cfg *config.Config, logger *slog.Logger) *google.PublicKeyCache {
	return google.NewPublicKeyCache(cfg.GoogleOAuth.JWKSEndpoint, cfg.GoogleOAuth.KeyCacheTTL, logger)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewStateService,
			impl.NewIdentityService,
			impl.NewLoginService,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				worker.NewCleanupWorker,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
