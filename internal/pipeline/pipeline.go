package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/pagecarbon/internal/model"
)

// Step is one stage of an analysis.
type Step interface {
	// Do executes the step, reading and updating run.
	// A non-nil error fails the whole run.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging.
	Name() string

	// Stage returns the lifecycle stage the run is in while the step executes.
	Stage() model.Stage
}

// Saver persists a finished report and returns its assigned ID.
// Implementations must write all records for the report or none.
type Saver interface {
	SaveReport(ctx context.Context, report *model.AnalysisReport) (int64, error)
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps  []Step
	saver  Saver
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. A nil logger keeps slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithSaver sets the persistence collaborator invoked when a run completes.
func WithSaver(s Saver) Option {
	return func(p *Pipeline) {
		p.saver = s
	}
}

// New creates a Pipeline with no steps.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step against run. On success the run is Done and, if a
// Saver is configured, the report has been persisted. On any error the run
// is Failed, run.Report is nil and the error is returned.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("analysis cancelled",
				"step", step.Name(),
				"url", run.Request.TargetURL,
				"reason", ctx.Err(),
			)
			run.fail(ctx.Err())
			return ctx.Err()
		default:
		}

		run.Stage = step.Stage()
		p.logger.Info("executing step",
			"step", step.Name(),
			"url", run.Request.TargetURL,
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"url", run.Request.TargetURL,
				"error", err,
			)
			run.fail(err)
			return err
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"url", run.Request.TargetURL,
		)
	}

	if run.Report == nil {
		err := fmt.Errorf("pipeline finished without a report for %s", run.Request.TargetURL)
		run.fail(err)
		return err
	}

	if p.saver != nil {
		id, err := p.saver.SaveReport(ctx, run.Report)
		if err != nil {
			p.logger.Error("failed to save report",
				"url", run.Request.TargetURL,
				"error", err,
			)
			err = fmt.Errorf("failed to save report: %w", err)
			run.fail(err)
			return err
		}
		run.Report.ID = id
	}

	run.Stage = model.StageDone
	p.logger.Info("analysis complete",
		"url", run.Request.TargetURL,
		"page_size_kb", run.Report.Metrics.PageSizeKB,
		"energy_kwh", run.Report.Footprint.TotalEnergyUsageKWh,
	)
	return nil
}

// Analyze runs the pipeline for req and returns the finished report.
func (p *Pipeline) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisReport, error) {
	run := NewRun(req)
	if err := p.Execute(ctx, run); err != nil {
		return nil, err
	}
	return run.Report, nil
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
