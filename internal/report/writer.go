package report

import (
	"io"

	"github.com/nao1215/pagecarbon/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs a single analysis report.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.AnalysisReport) (int, error)

	// WriteHistory outputs a list of reports, newest first.
	WriteHistory(reports []*model.AnalysisReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.AnalysisReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.Write(report) })
}

// WriteHistory outputs the history to all configured Writers.
func (m *MultiWriter) WriteHistory(reports []*model.AnalysisReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteHistory(reports) })
}

func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// timeFormat is used for every human readable timestamp.
const timeFormat = "2006-01-02 15:04:05 MST"
