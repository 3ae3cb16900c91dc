package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	alarmhttp "refinery-ops/internal/alarms/interfaces/http"
	"refinery-ops/internal/audit"
	"refinery-ops/internal/auth"
	"refinery-ops/internal/config"
	dashboardhttp "refinery-ops/internal/dashboard/interfaces/http"
	"refinery-ops/internal/digest"
	equipmenthttp "refinery-ops/internal/equipment/interfaces/http"
	eventshttp "refinery-ops/internal/events/interfaces/http"
	"refinery-ops/internal/export"
	"refinery-ops/internal/observability/metrics"
	"refinery-ops/internal/platform/postgres"
	qualityhttp "refinery-ops/internal/quality/interfaces/http"
	usershttp "refinery-ops/internal/users/interfaces/http"
	waterhttp "refinery-ops/internal/water/interfaces/http"
)

const digestRunTimeout = 2 * time.Minute

func newServeCommand(root *rootOptions) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger, migrate bool) error {
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if migrate {
		applied, err := postgres.Migrate(ctx, a.db, logger)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", zap.Int("count", applied))
	}
	metrics.Init(a.db, logger)

	mux, err := a.routes(logger)
	if err != nil {
		return err
	}
	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy, a.users, auth.WithMiddlewareLogger(logger))

	scheduler, err := a.digestScheduler(cfg, logger)
	if err != nil {
		return err
	}
	if scheduler != nil {
		scheduler.Start()
		logger.Info("digest scheduled", zap.String("schedule", cfg.Digest.Schedule), zap.Time("next", scheduler.Next()))
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Warn("digest stop failed", zap.Error(err))
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (a *app) routes(logger *zap.Logger) (*http.ServeMux, error) {
	mux := http.NewServeMux()
	handle := func(base string, h http.Handler) {
		mux.Handle(base, h)
		mux.Handle(base+"/", h)
	}

	waterHandler, err := waterhttp.NewHandler(a.water, a.audit, logger)
	if err != nil {
		return nil, err
	}
	testHandler, err := qualityhttp.NewTestHandler(a.tests, a.audit, logger)
	if err != nil {
		return nil, err
	}
	standardHandler, err := qualityhttp.NewStandardHandler(a.standards, a.audit, logger)
	if err != nil {
		return nil, err
	}
	equipmentHandler, err := equipmenthttp.NewHandler(a.equipment, a.audit, logger)
	if err != nil {
		return nil, err
	}
	eventsHandler, err := eventshttp.NewHandler(a.events, a.audit, logger)
	if err != nil {
		return nil, err
	}
	thresholdHandler, err := alarmhttp.NewThresholdHandler(a.alarms, a.audit, logger)
	if err != nil {
		return nil, err
	}
	usersHandler, err := usershttp.NewHandler(a.users, a.audit, logger)
	if err != nil {
		return nil, err
	}
	alertsHandler, err := alarmhttp.NewAlertsHandler(a.alarms, logger)
	if err != nil {
		return nil, err
	}
	dashboardHandler, err := dashboardhttp.NewHandler(a.dashboard, logger)
	if err != nil {
		return nil, err
	}
	exportHandler, err := export.NewHandler(export.Sources{
		Water:     a.water,
		Quality:   a.tests,
		Standards: a.standards,
		Equipment: a.equipment,
		Events:    a.events,
		Alerts:    a.alarms,
	}, logger)
	if err != nil {
		return nil, err
	}

	handle(waterhttp.BasePath, waterHandler)
	handle(qualityhttp.TestsPath, testHandler)
	handle(qualityhttp.StandardsPath, standardHandler)
	handle(equipmenthttp.BasePath, equipmentHandler)
	handle(eventshttp.BasePath, eventsHandler)
	handle(alarmhttp.ThresholdsPath, thresholdHandler)
	handle(usershttp.BasePath, usersHandler)
	mux.Handle(usershttp.MePath, usershttp.MeHandler(a.users, logger))
	mux.Handle(alarmhttp.AlertsPath, alertsHandler)
	mux.Handle(dashboardhttp.Path, dashboardHandler)
	mux.Handle(export.BasePath, exportHandler)
	mux.Handle("/api/v1/audit", audit.NewHandler(a.audit))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.db.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux, nil
}

// digestScheduler returns nil when no schedule or channel is configured.
func (a *app) digestScheduler(cfg config.Config, logger *zap.Logger) (*digest.Scheduler, error) {
	if cfg.Digest.Schedule == "" {
		return nil, nil
	}
	if a.channel == nil {
		logger.Warn("digest schedule set without a notification channel; digest disabled")
		return nil, nil
	}
	job, err := a.digestJob(cfg, logger)
	if err != nil {
		return nil, err
	}
	return digest.NewScheduler(job, cfg.Digest.Schedule, digestRunTimeout, logger.Named("digest"))
}

func (a *app) digestJob(cfg config.Config, logger *zap.Logger) (*digest.Job, error) {
	return digest.NewJob(a.dashboard, a.channel,
		digest.WithLookback(cfg.Digest.Lookback),
		digest.WithLogger(logger.Named("digest")),
	)
}
