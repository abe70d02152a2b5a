package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/example/campus-planner/internal/application"
	"github.com/example/campus-planner/internal/config"
	httptransport "github.com/example/campus-planner/internal/http"
	"github.com/example/campus-planner/internal/identity"
	"github.com/example/campus-planner/internal/persistence"
	"github.com/example/campus-planner/internal/persistence/memory"
	"github.com/example/campus-planner/internal/persistence/sqlite"
	"github.com/example/campus-planner/internal/tasksync"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var inMemory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API on the configured port.

Pending migrations are applied before the server accepts requests. With
--memory nothing is written to disk and all data is lost on exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(true)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := openStore(ctx, cfg, inMemory, logger)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := store.Close(); cerr != nil {
					logger.Error("failed to close storage", "error", cerr)
				}
			}()

			router, err := newAPI(cfg, store, time.Now, logger)
			if err != nil {
				return err
			}
			return listenAndServe(ctx, router, cfg.HTTPPort, logger)
		},
	}
	cmd.Flags().BoolVar(&inMemory, "memory", false, "keep data in memory instead of SQLite")
	return cmd
}

func openStore(ctx context.Context, cfg config.Config, inMemory bool, logger *slog.Logger) (persistence.Store, error) {
	if inMemory {
		logger.Warn("using in-memory storage; data will not survive a restart")
		return memory.New(), nil
	}

	store, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.SQLiteDSN))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := store.Migrate(ctx, logger); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return store, nil
}

// newAPI wires every service over store and returns the router.
func newAPI(cfg config.Config, store persistence.Store, now func() time.Time, logger *slog.Logger) (*echo.Echo, error) {
	issuer, err := identity.NewIssuer(cfg.AuthSecret, cfg.TokenIssuer, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	verifier, err := identity.NewVerifier(cfg.AuthSecret, cfg.TokenIssuer, now)
	if err != nil {
		return nil, err
	}

	ids := uuid.NewString
	loc := cfg.Location
	syncer := tasksync.NewEngine(store, store, store, ids, now, logger)

	owners := application.NewOwnerService(store, issuer, ids, now, application.OwnerServiceOptions{
		DailyGoalMinutes: cfg.Focus.DailyGoalMinutes,
		Logger:           logger,
	})
	schedule := application.NewScheduleServiceWithLogger(store, ids, now, logger)
	attendance := application.NewAttendanceService(store, store, loc, ids, now, logger)
	tasks := application.NewTaskService(store, syncer, ids, now, logger)
	focus := application.NewFocusService(store, store, loc, ids, now, logger)
	liveStatus := application.NewLiveStatusService(store, store, loc, now, logger)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Owners:     httptransport.NewOwnerHandler(owners, logger),
		Schedule:   httptransport.NewScheduleHandler(schedule, logger),
		Attendance: httptransport.NewAttendanceHandler(attendance, logger),
		Tasks:      httptransport.NewTaskHandler(tasks, logger),
		Focus:      httptransport.NewFocusHandler(focus, logger),
		LiveStatus: httptransport.NewStatusHandler(liveStatus, logger),
		Verifier:   verifier,
		Logger:     logger,
	}), nil
}

func listenAndServe(ctx context.Context, handler http.Handler, port int, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("campus API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("campus API stopped")
	return nil
}
