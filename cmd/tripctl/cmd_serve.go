package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"tripgraph/application/services"
	"tripgraph/infrastructure/config"
	"tripgraph/interfaces/http/rest"
	pkgerrors "tripgraph/pkg/errors"
	"tripgraph/pkg/observability"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the timeline graph over HTTP and keep it in sync with the events API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := observability.NewCollector()
	tracer := observability.NewTracer("tripctl", plannerCfg.EnableTracing)

	svc, err := newSession(tracer, services.WithSyncMetrics(collector))
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Load(ctx); err != nil {
		// the reconciler retries; the planner starts empty meanwhile
		logger.Warn("Initial load failed", zap.Error(err))
	}

	rec := &reconciler{svc: svc}
	rec.start(ctx, plannerCfg.ReconcileInterval)
	defer rec.stop()

	if watcher, err := config.NewPlannerWatcher(configPath, plannerCfg, logger); err != nil {
		logger.Warn("Configuration hot reload disabled", zap.Error(err))
	} else {
		defer watcher.Stop()
		watcher.OnChange(func(next *config.PlannerConfig) {
			applyReload(ctx, next, rec)
		})
	}

	errorHandler := pkgerrors.NewErrorHandler(logger, plannerCfg.Environment == "development")
	srv := &http.Server{
		Addr:         plannerCfg.Listen,
		Handler:      rest.NewPlannerRouter(svc, errorHandler, collector, tracer, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Planner listening",
			zap.String("address", plannerCfg.Listen),
			zap.String("api", plannerCfg.APIURL),
			zap.String("mode", string(svc.Mode())),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-serverErr:
		logger.Error("Planner server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Planner shutdown error", zap.Error(err))
	}
	if err := svc.Flush(shutdownCtx); err != nil {
		logger.Warn("Store calls still pending at exit", zap.Int("pending", svc.Pending()))
	}
	_ = logger.Sync()
	return err
}

// applyReload picks up the settings that can change without a restart
func applyReload(ctx context.Context, next *config.PlannerConfig, rec *reconciler) {
	if level, err := zapcore.ParseLevel(next.LogLevel); err == nil {
		logLevel.SetLevel(level)
	} else {
		logger.Warn("Ignoring invalid log_level", zap.String("log_level", next.LogLevel))
	}

	if next.ReconcileInterval != rec.currentInterval() {
		rec.start(ctx, next.ReconcileInterval)
	}

	if next.ChainMode != plannerCfg.ChainMode || next.APIURL != plannerCfg.APIURL {
		logger.Warn("chain_mode and api_url changes apply on restart")
	}
}

// reconciler owns the background Refresh loop so its interval can change
type reconciler struct {
	svc *services.TimelineService

	mu       sync.Mutex
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func (r *reconciler) start(ctx context.Context, interval time.Duration) {
	r.stop()

	r.mu.Lock()
	defer r.mu.Unlock()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.interval, r.cancel, r.done = interval, cancel, done

	go func() {
		defer close(done)
		r.svc.RunReconciler(loopCtx, interval)
	}()
	logger.Debug("Reconciler started", zap.Duration("interval", interval))
}

func (r *reconciler) stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (r *reconciler) currentInterval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}
