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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/nao1215/pagecarbon/internal/api"
	"github.com/nao1215/pagecarbon/internal/config"
	"github.com/nao1215/pagecarbon/internal/database"
)

const (
	// defaultAnalysisTimeout bounds one analysis requested over the API.
	defaultAnalysisTimeout = 2 * time.Minute

	// shutdownTimeout is how long in-flight requests get to finish.
	shutdownTimeout = 5 * time.Second
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API server",
		Long: `Serve starts an HTTP server that runs analyses and returns saved reports
and chart data as JSON.

Every request under /api/v1 except /health must carry an X-User-ID header.
Reports are only visible to the user that created them.

Routes:
  GET  /api/v1/health
  POST /api/v1/analyses      {"url": "https://example.com"}
  GET  /api/v1/reports       ?since=&until= (RFC3339) or ?top=N
  GET  /api/v1/reports/:id
  GET  /api/v1/charts        ?report_id=

Examples:
  pagecarbon serve
  pagecarbon serve --listen 0.0.0.0:8080 --api-rate 0.5`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addEngineFlags(cmd)

	cmd.Flags().String("listen", config.DefaultListenAddr,
		"Address the server listens on")
	cmd.Flags().Float64("api-rate", config.DefaultAPIRateLimit,
		"Analyses per second allowed for each user (0 = unlimited)")
	cmd.Flags().Int("api-burst", config.DefaultAPIBurst,
		"Burst size of the per-user analysis limit")
	cmd.Flags().Duration("analysis-timeout", defaultAnalysisTimeout,
		"Timeout for one analysis requested over the API")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	if err := readEngineFlags(cmd, cfg); err != nil {
		return err
	}

	var err error
	if cfg.ListenAddr, err = cmd.Flags().GetString("listen"); err != nil {
		return err
	}
	if cfg.APIRateLimit, err = cmd.Flags().GetFloat64("api-rate"); err != nil {
		return err
	}
	if cfg.APIBurst, err = cmd.Flags().GetInt("api-burst"); err != nil {
		return err
	}
	analysisTimeout, err := cmd.Flags().GetDuration("analysis-timeout")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose, true)

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	eng, err := newEngine(cfg, db, logger)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Config{
		Analyzer:        eng,
		Store:           db,
		Logger:          logger,
		AnalysisTimeout: analysisTimeout,
		RateLimit:       cfg.APIRateLimit,
		Burst:           cfg.APIBurst,
		Version:         getVersion(),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}, logger)
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server forced shutdown: %w", err)
	}
	logger.Info("HTTP server drained gracefully")
	return nil
}
