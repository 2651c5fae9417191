package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pagecarbon/internal/model"
)

// DefaultBatchConcurrency is the number of pages analysed at once.
const DefaultBatchConcurrency = 4

// BatchProcessor analyses many pages concurrently.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline per analysis so no state
	// leaks between runs. It receives the request so site-specific
	// settings can be chosen per page.
	pipelineFactory func(req model.AnalysisRequest) (*Pipeline, error)

	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger for batch-level events.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent analyses.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor.
func NewBatchProcessor(pipelineFactory func(req model.AnalysisRequest) (*Pipeline, error), opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch analyses every request and returns one run per request in
// input order. A failed analysis, including one whose pipeline could not be
// built, is recorded in its run and does not stop the others. The error is
// non-nil only if ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, requests []model.AnalysisRequest) ([]*Run, error) {
	runs := make([]*Run, len(requests))
	err := bp.ProcessBatchWithCallback(ctx, requests, func(run *Run, index int) {
		runs[index] = run
	})
	return runs, err
}

// ProcessBatchWithCallback analyses every request and calls callback for
// each finished run. callback is invoked from worker goroutines and must be
// safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	requests []model.AnalysisRequest,
	callback func(run *Run, index int),
) error {
	bp.logger.Info("starting batch analysis",
		"total", len(requests),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, req := range requests {
		g.Go(func() error {
			run := NewRun(req)

			select {
			case <-gctx.Done():
				run.fail(gctx.Err())
				callback(run, i)
				return gctx.Err()
			default:
			}

			bp.logger.Info("analysing page",
				"url", req.TargetURL,
				"index", i+1,
				"total", len(requests),
			)

			p, err := bp.pipelineFactory(req)
			if err != nil {
				run.fail(err)
			} else {
				err = p.Execute(gctx, run)
			}
			if err != nil {
				bp.logger.Warn("analysis failed", "url", req.TargetURL, "error", err)
			}
			callback(run, i)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	bp.logger.Info("batch analysis complete",
		"total", len(requests),
		"elapsed", time.Since(start),
	)
	return err
}
