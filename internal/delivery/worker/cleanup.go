// Package worker contains background deliveries that run beside the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"clinicore/config"
	"clinicore/internal/delivery"
	"clinicore/internal/usecase"

	"go.uber.org/fx"
)

// cleanupWorker periodically purges expired and consumed state tokens.
type cleanupWorker struct {
	stateUsecase usecase.StateUsecase
	logger       *slog.Logger
	interval     time.Duration
	stop         chan struct{}
}

// CleanupParams holds dependencies for the cleanup worker
type CleanupParams struct {
	fx.In

	Lc           fx.Lifecycle
	Cfg          *config.Config
	StateUsecase usecase.StateUsecase
	Logger       *slog.Logger
}

// NewCleanupWorker creates the state-token cleanup worker
func NewCleanupWorker(params CleanupParams) delivery.Delivery {
	w := &cleanupWorker{
		stateUsecase: params.StateUsecase,
		logger:       params.Logger,
		interval:     params.Cfg.OAuthState.CleanupInterval,
		stop:         make(chan struct{}),
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			close(w.stop)

			return nil
		},
	})

	return w
}

// Serve runs the cleanup loop until the context is cancelled or the worker stops.
// Cleanup failures are logged and swallowed: a missed run only defers the purge
// to the next tick and must never take the service down.
func (w *cleanupWorker) Serve(ctx context.Context) error {
	w.logger.Info("Starting state cleanup worker", slog.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("State cleanup worker stopped", slog.Any("reason", ctx.Err()))

			return nil
		case <-w.stop:
			w.logger.Info("State cleanup worker stopped")

			return nil
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// runOnce executes one cleanup pass. Both steps always run, even when the
// first one fails.
func (w *cleanupWorker) runOnce(ctx context.Context) {
	if _, err := w.stateUsecase.CleanupExpired(ctx); err != nil {
		w.logger.Warn("Failed to delete expired state tokens", slog.Any("error", err))
	}

	if _, err := w.stateUsecase.CleanupConsumed(ctx); err != nil {
		w.logger.Warn("Failed to delete consumed state tokens", slog.Any("error", err))
	}
}
