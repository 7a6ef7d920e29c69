package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"tripgraph/application/services"
	"tripgraph/domain/core/aggregates"
	"tripgraph/infrastructure/config"
	"tripgraph/infrastructure/gateway"
	"tripgraph/pkg/observability"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath   string
	apiURLFlag   string
	apiTokenFlag string
	chainMode    string

	plannerCfg *config.PlannerConfig
	logLevel   = zap.NewAtomicLevel()
	logger     = zap.NewNop()

	rootCmd = &cobra.Command{
		Use:   "tripctl",
		Short: "Plan a trip as a timeline graph over the events API",
		Long: `tripctl keeps a trip's events as an ordered timeline, maintains the
edges between them and persists every change to the events API.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadPlanner,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "tripctl.yaml", "planner configuration file")
	flags.StringVar(&apiURLFlag, "api-url", "", "events API base URL (overrides api_url)")
	flags.StringVar(&apiTokenFlag, "token", "", "bearer token for the events API (overrides api_token)")
	flags.StringVar(&chainMode, "mode", "", "edge strategy: derived or explicit (overrides chain_mode)")

	rootCmd.AddCommand(serveCmd, listCmd, addCmd, renameCmd, removeCmd, graphCmd, tokenCmd)
}

func loadPlanner(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadPlannerConfig(configPath)
	if err != nil {
		return err
	}
	if apiURLFlag != "" {
		cfg.APIURL = apiURLFlag
	}
	if apiTokenFlag != "" {
		cfg.APIToken = apiTokenFlag
	}
	if chainMode != "" {
		cfg.ChainMode = chainMode
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if logger, err = newLogger(cfg); err != nil {
		return err
	}
	plannerCfg = cfg
	return nil
}

func newLogger(cfg *config.PlannerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}
	logLevel.SetLevel(level)

	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = logLevel
	return zapCfg.Build()
}

// newSession builds a planning session against the events API. It is not
// loaded yet.
func newSession(tracer *observability.Tracer, opts ...services.ServiceOption) (*services.TimelineService, error) {
	gw, err := gateway.NewHTTPGateway(plannerCfg, tracer, logger)
	if err != nil {
		return nil, err
	}
	timeline := aggregates.NewTimeline(plannerCfg.DomainConfig())
	opts = append([]services.ServiceOption{services.WithCallTimeout(plannerCfg.RequestTimeout)}, opts...)
	return services.NewTimelineService(timeline, gw, logger, opts...), nil
}

// syncFailures counts store calls that failed during a one-shot command
type syncFailures struct {
	mu     sync.Mutex
	failed []string
}

func (f *syncFailures) ObserveSync(operation string, err error, _ time.Duration) {
	if err == nil {
		return
	}
	f.mu.Lock()
	f.failed = append(f.failed, operation)
	f.mu.Unlock()
}

func (f *syncFailures) SetPending(int) {}

func (f *syncFailures) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d store call(s) failed: %v", len(f.failed), f.failed)
}

// runOneShot loads a session, applies fn and waits for the store calls fn
// queued
func runOneShot(ctx context.Context, fn func(*services.TimelineService) error) (*services.TimelineService, error) {
	failures := &syncFailures{}
	svc, err := newSession(observability.NewTracer("tripctl", false), services.WithSyncMetrics(failures))
	if err != nil {
		return nil, err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*plannerCfg.RequestTimeout+5*time.Second)
	defer cancel()

	if err := svc.Load(ctx); err != nil {
		return nil, err
	}
	if err := fn(svc); err != nil {
		return nil, err
	}
	if err := svc.Flush(ctx); err != nil {
		return nil, err
	}
	return svc, failures.Err()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
