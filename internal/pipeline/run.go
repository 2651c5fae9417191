package pipeline

import (
	"github.com/nao1215/pagecarbon/internal/analyzer"
	"github.com/nao1215/pagecarbon/internal/model"
)

// Run carries the state of one analysis. It is owned by a single pipeline
// execution and never shared.
type Run struct {
	// Request is the validated input.
	Request model.AnalysisRequest

	// Stage is the current lifecycle stage.
	Stage model.Stage

	// Page is set by the fetch step.
	Page *model.Page

	// Document is set by the analyze step.
	Document *analyzer.Document

	// Inventory is set by the analyze step.
	Inventory *analyzer.Inventory

	// Resources holds every sized reference in inventory order.
	Resources []model.SizedResource

	// Metrics is set by the size step.
	Metrics model.PageMetrics

	// Report is set by the estimate step.
	Report *model.AnalysisReport

	// Err is the error that moved the run to Failed.
	Err error
}

// NewRun creates a pending run for req.
func NewRun(req model.AnalysisRequest) *Run {
	return &Run{
		Request: req,
		Stage:   model.StagePending,
	}
}

// fail records err and moves the run to Failed.
func (r *Run) fail(err error) {
	r.Stage = model.StageFailed
	r.Err = err
	r.Report = nil
}
