package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagecarbon/internal/config"
	"github.com/nao1215/pagecarbon/internal/database"
	"github.com/nao1215/pagecarbon/internal/model"
	"github.com/nao1215/pagecarbon/internal/pipeline"
	"github.com/nao1215/pagecarbon/internal/report"
)

// errAnalysesFailed is returned when at least one page could not be analysed.
var errAnalysesFailed = errors.New("some analyses failed")

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [url...]",
		Short: "Estimate the carbon footprint of web pages",
		Long: `Analyze fetches each page, measures the images, videos, stylesheets and
scripts it references, and estimates the energy and CO2e needed to load it.

URLs without a scheme are analysed over https. Each report is saved to the
local database unless --no-save is given.

Examples:
  # Analyse a single page
  pagecarbon analyze example.com

  # Analyse several pages, four at a time
  pagecarbon analyze --batch 4 https://example.com https://example.org

  # Read URLs from a file, one per line
  pagecarbon analyze --list urls.txt

  # Write a Markdown report with pie charts
  pagecarbon analyze --markdown -o report.md example.com

Configuration file (.pagecarbon) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
  carbon:
    carbonIntensity: 300`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnalyzeCmd,
	}

	addEngineFlags(cmd)

	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of pages analysed in parallel")
	cmd.Flags().StringP("list", "l", "",
		"File with one URL per line (# starts a comment)")
	cmd.Flags().StringP("user", "u", config.DefaultUserID,
		"User that owns the saved reports")
	cmd.Flags().Bool("no-save", false,
		"Do not save reports to the database")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("resources", false,
		"List every sized resource in the text report")

	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.RequireTargets(); err != nil {
		return err
	}

	showResources, err := cmd.Flags().GetBool("resources")
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose, false)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAnalyze(ctx, cfg, analyzeOutput{
		stdout:        cmd.OutOrStdout(),
		stderr:        cmd.ErrOrStderr(),
		showResources: showResources,
	}, logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	if err := readEngineFlags(cmd, cfg); err != nil {
		return nil, err
	}

	var err error
	if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.UserID, err = cmd.Flags().GetString("user"); err != nil {
		return nil, err
	}
	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}

	listFile, err := cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}
	cfg.Targets = append(cfg.Targets, args...)
	if listFile != "" {
		targets, err := readTargetList(listFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, targets...)
	}

	return cfg, nil
}

// readTargetList reads one URL per line. Blank lines and lines starting
// with # are skipped.
func readTargetList(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return targets, nil
}

// analyzeOutput holds the destinations of an analyze run.
type analyzeOutput struct {
	// stdout receives reports when no output file is set.
	stdout io.Writer
	// stderr receives progress messages so they never mix with reports.
	stderr        io.Writer
	showResources bool
}

// runAnalyze analyses every target in cfg.
func runAnalyze(ctx context.Context, cfg *config.Config, out analyzeOutput, logger *slog.Logger) error {
	requests := make([]model.AnalysisRequest, 0, len(cfg.Targets))
	for _, target := range cfg.Targets {
		req, err := model.NewAnalysisRequest(target, cfg.UserID)
		if err != nil {
			return err
		}
		requests = append(requests, req)
	}

	logger.Info("starting analysis",
		"targets", len(requests),
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var saver pipeline.Saver
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
		saver = db
	}

	eng, err := newEngine(cfg, saver, logger)
	if err != nil {
		return err
	}

	dest, closeDest, err := openOutput(cfg.ReportFile, out.stdout)
	if err != nil {
		return err
	}
	defer closeDest()
	writer := newReportWriter(cfg, dest, out.showResources)

	var failed int
	if len(requests) > 1 && cfg.BatchSize > 1 {
		failed, err = runBatchAnalysis(ctx, cfg, eng, requests, writer, out.stderr, logger)
	} else {
		failed, err = runSequentialAnalysis(ctx, eng, requests, writer, out.stderr, logger)
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errAnalysesFailed, failed, len(requests))
	}
	return nil
}

// runSequentialAnalysis analyses pages one at a time.
func runSequentialAnalysis(
	ctx context.Context,
	eng *engine,
	requests []model.AnalysisRequest,
	writer report.Writer,
	progress io.Writer,
	logger *slog.Logger,
) (int, error) {
	var failed int
	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		fmt.Fprintf(progress, "Analysing %s...\n", req.TargetURL)
		start := time.Now()

		analysis, err := eng.Analyze(ctx, req)
		if err != nil {
			logger.Error("analysis failed", "url", req.TargetURL, "error", err)
			fmt.Fprintf(progress, "Analysis error for %s: %v\n", req.TargetURL, err)
			failed++
			continue
		}
		fmt.Fprintf(progress, "Analysis completed in %s\n\n", time.Since(start).Round(time.Millisecond))

		if _, err := writer.Write(analysis); err != nil {
			return failed, fmt.Errorf("failed to write report: %w", err)
		}
	}
	return failed, nil
}

// runBatchAnalysis analyses pages concurrently with a BatchProcessor.
// Reports are written as runs finish, so their order may differ from the
// input order.
func runBatchAnalysis(
	ctx context.Context,
	cfg *config.Config,
	eng *engine,
	requests []model.AnalysisRequest,
	writer report.Writer,
	progress io.Writer,
	logger *slog.Logger,
) (int, error) {
	fmt.Fprintf(progress, "Starting batch analysis of %d pages (concurrency: %d)...\n\n",
		len(requests), cfg.BatchSize)
	start := time.Now()

	bp := pipeline.NewBatchProcessor(eng.pipelineFor,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	var (
		mu       sync.Mutex
		failed   int
		writeErr error
	)
	err := bp.ProcessBatchWithCallback(ctx, requests, func(run *pipeline.Run, index int) {
		mu.Lock()
		defer mu.Unlock()

		if run.Err != nil {
			failed++
			fmt.Fprintf(progress, "[%d/%d] Analysis error for %s: %v\n",
				index+1, len(requests), run.Request.TargetURL, run.Err)
			return
		}
		fmt.Fprintf(progress, "[%d/%d] Analysis completed: %s\n",
			index+1, len(requests), run.Request.TargetURL)

		if writeErr != nil {
			return
		}
		if _, err := writer.Write(run.Report); err != nil {
			writeErr = fmt.Errorf("failed to write report: %w", err)
		}
	})

	fmt.Fprintf(progress, "\nBatch analysis completed in %s\n", time.Since(start).Round(time.Millisecond))

	if err != nil {
		return failed, err
	}
	return failed, writeErr
}

// openOutput returns the report destination: the named file, or stdout
// when path is empty.
func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports include user IDs and the URLs of pages behind a login.
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// newReportWriter selects the report format requested in cfg.
func newReportWriter(cfg *config.Config, w io.Writer, showResources bool) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(w, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(showResources))
	}
}
