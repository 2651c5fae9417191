package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/pagecarbon/internal/carbon"
	"github.com/nao1215/pagecarbon/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport wraps a report with derived values that are not stored.
type JSONReport struct {
	*model.AnalysisReport

	// OtherSizeKB is the page weight not attributed to images or video.
	OtherSizeKB float64 `json:"other_size_kb"`

	// TotalCarbonKg is the sum of the footprint breakdown.
	TotalCarbonKg float64 `json:"total_carbon_kg"`

	// Score is the 0-100 rating of TotalCarbonKg.
	Score float64 `json:"score"`
}

// NewJSONReport creates a JSONReport for report.
func NewJSONReport(report *model.AnalysisReport) *JSONReport {
	return &JSONReport{
		AnalysisReport: report,
		OtherSizeKB:    report.Metrics.OtherSizeKB(),
		TotalCarbonKg:  report.Footprint.TotalCarbonKg(),
		Score:          report.Score(carbon.DefaultScore),
	}
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(report *model.AnalysisReport) (int, error) {
	return w.writeJSON(NewJSONReport(report))
}

// WriteHistory outputs the reports as a JSON array.
func (w *JSONWriter) WriteHistory(reports []*model.AnalysisReport) (int, error) {
	wrapped := make([]*JSONReport, len(reports))
	for i, r := range reports {
		wrapped[i] = NewJSONReport(r)
	}
	return w.writeJSON(wrapped)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
