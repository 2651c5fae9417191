package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pagecarbon/internal/analyzer"
	"github.com/nao1215/pagecarbon/internal/carbon"
	"github.com/nao1215/pagecarbon/internal/fetch"
	"github.com/nao1215/pagecarbon/internal/model"
)

// DefaultSizingConcurrency is the number of resources measured at once.
const DefaultSizingConcurrency = 8

// Fetcher retrieves the primary page. *fetch.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*model.Page, error)
}

// ResourceSizer measures one resource in kilobytes. *sizer.Sizer satisfies it.
type ResourceSizer interface {
	Size(ctx context.Context, ref model.ResourceReference, baseURL string) float64
}

// FetchStep retrieves the page for the run's request.
type FetchStep struct {
	fetcher Fetcher
}

// NewFetchStep creates a FetchStep.
func NewFetchStep(fetcher Fetcher) *FetchStep {
	return &FetchStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchStep) Name() string { return "fetch" }

// Stage returns model.StageFetching.
func (s *FetchStep) Stage() model.Stage { return model.StageFetching }

// Do fetches the page.
func (s *FetchStep) Do(ctx context.Context, run *Run) error {
	page, err := s.fetcher.Fetch(ctx, run.Request.TargetURL)
	if err != nil {
		return err
	}
	run.Page = page
	return nil
}

// AnalyzeStep parses the fetched page and builds the resource inventory.
type AnalyzeStep struct {
	logger *slog.Logger
}

// NewAnalyzeStep creates an AnalyzeStep.
func NewAnalyzeStep(logger *slog.Logger) *AnalyzeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeStep{logger: logger}
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string { return "analyze" }

// Stage returns model.StageAnalyzing.
func (s *AnalyzeStep) Stage() model.Stage { return model.StageAnalyzing }

// Do parses the page. Non-HTML responses fail with a parse error.
func (s *AnalyzeStep) Do(_ context.Context, run *Run) error {
	pageURL := run.Request.TargetURL
	if run.Page == nil {
		return errNoPage
	}
	if !run.Page.IsHTML() {
		return &model.ParseError{URL: pageURL, Err: fetch.ErrNotHTML}
	}

	doc, err := analyzer.ParseBytes(run.Page.Body, pageURL)
	if err != nil {
		return err
	}
	run.Document = doc
	run.Inventory = analyzer.Analyze(doc)

	s.logger.Debug("document analyzed",
		"url", pageURL,
		"references", len(run.Inventory.References),
		"anchors", run.Inventory.PageCount,
	)
	return nil
}

// SizeStep measures every reference concurrently and aggregates totals.
type SizeStep struct {
	sizer       ResourceSizer
	concurrency int
}

// SizeStepOption configures a SizeStep.
type SizeStepOption func(*SizeStep)

// WithSizingConcurrency sets how many resources are measured at once.
func WithSizingConcurrency(n int) SizeStepOption {
	return func(s *SizeStep) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewSizeStep creates a SizeStep.
func NewSizeStep(sizer ResourceSizer, opts ...SizeStepOption) *SizeStep {
	s := &SizeStep{
		sizer:       sizer,
		concurrency: DefaultSizingConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *SizeStep) Name() string { return "size" }

// Stage returns model.StageSizing.
func (s *SizeStep) Stage() model.Stage { return model.StageSizing }

// Do sizes the inventory. Individual measurement gaps yield zero; only
// cancellation fails the step.
func (s *SizeStep) Do(ctx context.Context, run *Run) error {
	if run.Inventory == nil {
		return errNoInventory
	}
	refs := run.Inventory.References
	results := make([]model.SizedResource, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = model.SizedResource{
				ResourceReference: ref,
				SizeKB:            s.sizer.Size(gctx, ref, run.Request.TargetURL),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	metrics := model.PageMetrics{
		NumExternalResources: run.Inventory.NumExternalResources,
		NumInternalLinks:     run.Inventory.Links.Internal,
		NumExternalLinks:     run.Inventory.Links.External,
		NumSocialMediaLinks:  run.Inventory.Links.Social,
	}
	for _, r := range results {
		metrics.Add(r)
	}

	run.Resources = results
	run.Metrics = metrics
	return nil
}

// EstimateStep computes the footprint and assembles the report.
type EstimateStep struct {
	estimator *carbon.Estimator
	now       func() time.Time
}

// NewEstimateStep creates an EstimateStep. A nil estimator uses the default
// constants.
func NewEstimateStep(estimator *carbon.Estimator) *EstimateStep {
	if estimator == nil {
		estimator = carbon.Default()
	}
	return &EstimateStep{estimator: estimator, now: time.Now}
}

// Name returns the step name.
func (s *EstimateStep) Name() string { return "estimate" }

// Stage returns model.StageEstimating.
func (s *EstimateStep) Stage() model.Stage { return model.StageEstimating }

// Do builds run.Report.
func (s *EstimateStep) Do(_ context.Context, run *Run) error {
	report := model.NewAnalysisReport(run.Request)
	report.Metrics = run.Metrics
	report.Footprint = s.estimator.Footprint(run.Metrics)
	report.Resources = run.Resources
	report.CreatedAt = s.now().UTC()
	if run.Inventory != nil {
		report.PageCount = run.Inventory.PageCount
	}
	if run.Page != nil {
		report.ContentHash = run.Page.Hash
	}
	run.Report = report
	return nil
}

// Deps holds the collaborators of a standard analysis pipeline.
type Deps struct {
	Fetcher           Fetcher
	Sizer             ResourceSizer
	Estimator         *carbon.Estimator
	Saver             Saver
	Logger            *slog.Logger
	SizingConcurrency int
}

// NewAnalysisPipeline builds the fetch, analyze, size and estimate steps.
func NewAnalysisPipeline(deps Deps) *Pipeline {
	p := New(WithLogger(deps.Logger), WithSaver(deps.Saver))
	p.AddSteps(
		NewFetchStep(deps.Fetcher),
		NewAnalyzeStep(p.logger),
		NewSizeStep(deps.Sizer, WithSizingConcurrency(deps.SizingConcurrency)),
		NewEstimateStep(deps.Estimator),
	)
	return p
}
