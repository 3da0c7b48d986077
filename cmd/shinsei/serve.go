package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pitabwire/shinsei/internal/auth"
	"github.com/pitabwire/shinsei/internal/config"
	"github.com/pitabwire/shinsei/internal/contract"
	"github.com/pitabwire/shinsei/internal/form"
	"github.com/pitabwire/shinsei/internal/observability"
	"github.com/pitabwire/shinsei/internal/postal"
	"github.com/pitabwire/shinsei/internal/request"
	"github.com/pitabwire/shinsei/internal/screen"
	"github.com/pitabwire/shinsei/internal/transport"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, observability.ServiceName, version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	// Catalog and API contract.
	forms := request.DefaultRegistry()
	cat, err := loadCatalog(cfg.Catalog, forms)
	if err != nil {
		return err
	}
	apiContract, err := contract.Load()
	if err != nil {
		return err
	}
	users, err := loadDirectory(cfg.Directory)
	if err != nil {
		return err
	}

	// Sessions.
	store, closeStore, err := buildSessionStore(ctx, cfg.Session, logger)
	if err != nil {
		return err
	}
	signer, err := buildSigner(cfg.Session, logger)
	if err != nil {
		return err
	}

	// Workspaces.
	lookups := postal.NewClient(cfg.Postal,
		postal.WithRecorder(metrics),
		postal.WithLogger(logger.Named("postal")),
	)
	manager := screen.NewManager(screen.Deps{
		Catalog:   cat,
		Forms:     forms,
		Directory: users,
		Postal:    lookups,
		Submitter: screen.Instrumented{
			Next:     form.LogSubmitter{Logger: logger.Named("submission")},
			Recorder: metrics,
		},
		Recorder: metrics,
		Logger:   logger,
	}, cfg.Workspace.IdleTimeout)
	screens := screen.NewRouter(auth.NewChecker(cfg.Auth), store, signer, manager)

	router := transport.NewRouter(transport.Dependencies{
		Config:   cfg,
		Screens:  screens,
		Catalog:  cat,
		Contract: apiContract,
		Metrics:  metrics,
		Gatherer: prometheus.DefaultGatherer,
		Readiness: observability.ReadinessChecks{
			CatalogLoaded:  func() bool { return len(cat.IDs()) > 0 },
			ContractLoaded: func() bool { return len(apiContract.OperationIDs()) > 0 },
			SessionStore:   observability.CheckFunc(store.Ping),
			Postal:         postalReadiness(lookups),
		},
		Logger: logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	bgCtx, bgCancel := context.WithCancel(ctx)
	defer bgCancel()
	go manager.Run(bgCtx, cfg.Workspace.SweepInterval)

	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("catalog", cat.Source()),
		zap.Int("workflows", len(cat.IDs())),
		zap.String("session_driver", cfg.Session.Driver),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return err
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	bgCancel()

	if closeStore != nil {
		if err := closeStore(); err != nil {
			logger.Error("session store close error", zap.Error(err))
		}
	}
	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}
