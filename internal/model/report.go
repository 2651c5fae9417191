package model

import "time"

// AnalysisReport is the artifact produced by a successful analysis run.
// It is the only value handed to persistence.
type AnalysisReport struct {
	// ID is assigned by persistence. Zero until the report is saved.
	ID int64 `json:"id,omitempty"`

	Request   AnalysisRequest `json:"request"`
	Metrics   PageMetrics     `json:"metrics"`
	Footprint CarbonFootprint `json:"footprint"`

	// PageCount is the number of <a> tags found on the page.
	PageCount int `json:"page_count"`

	// CreatedAt is when the run finished.
	CreatedAt time.Time `json:"created_at"`

	// ContentHash is the SHA3-256 digest of the analysed document.
	ContentHash string `json:"content_hash,omitempty"`

	// Resources lists every sized resource. It is kept for reporting only
	// and is never persisted.
	Resources []SizedResource `json:"resources,omitempty"`
}

// NewAnalysisReport creates a report for the given request.
func NewAnalysisReport(req AnalysisRequest) *AnalysisReport {
	return &AnalysisReport{
		Request: req,
	}
}

// Score returns the 0-100 carbon rating for the page, computed by the caller
// supplied scorer from the summed footprint. It does not read
// Footprint.CarbonFootprintScore, which stores energy.
func (r *AnalysisReport) Score(score func(carbonKg float64) float64) float64 {
	return score(r.Footprint.TotalCarbonKg())
}
