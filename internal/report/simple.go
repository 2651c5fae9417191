package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pagecarbon/internal/carbon"
	"github.com/nao1215/pagecarbon/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds the per-resource listing to single reports.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.AnalysisReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeMetrics(&sb, report.Metrics)
	w.writeFootprint(&sb, report)
	if w.verbose {
		w.writeResources(&sb, report.Resources)
	}
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteHistory outputs one line per report.
func (w *SimpleWriter) WriteHistory(reports []*model.AnalysisReport) (int, error) {
	var sb strings.Builder

	sectionTitle(&sb, "REPORT HISTORY")
	if len(reports) == 0 {
		sb.WriteString("  No reports found\n")
	}
	for _, r := range reports {
		fmt.Fprintf(&sb, "  #%-5d %s  %-40s %10.2f KB  %.6f kWh\n",
			r.ID,
			r.CreatedAt.Format(timeFormat),
			r.Request.TargetURL,
			r.Metrics.PageSizeKB,
			r.Footprint.TotalEnergyUsageKWh,
		)
	}
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func sectionTitle(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the report header with request information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.AnalysisReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                     PAGE CARBON FOOTPRINT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "URL:            %s\n", report.Request.TargetURL)
	if report.ID != 0 {
		fmt.Fprintf(sb, "Report ID:      %d\n", report.ID)
	}
	fmt.Fprintf(sb, "Analysed:       %s\n", report.CreatedAt.Format(timeFormat))
	fmt.Fprintf(sb, "Anchors:        %d\n", report.PageCount)
	sb.WriteString("\n")
}

// writeMetrics writes counts and size totals.
func (w *SimpleWriter) writeMetrics(sb *strings.Builder, m model.PageMetrics) {
	sectionTitle(sb, "PAGE METRICS")

	fmt.Fprintf(sb, "  Page size:           %10.2f KB\n", m.PageSizeKB)
	fmt.Fprintf(sb, "  Images:              %10.2f KB  (%d)\n", m.TotalImageSizeKB, m.NumImages)
	fmt.Fprintf(sb, "  Videos:              %10.2f KB  (%d)\n", m.TotalVideoSizeKB, m.NumVideos)
	fmt.Fprintf(sb, "  Stylesheets:         %10.2f KB\n", m.TotalCSSSizeKB)
	fmt.Fprintf(sb, "  Scripts:             %10.2f KB\n", m.TotalJSSizeKB)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  Internal links:      %d\n", m.NumInternalLinks)
	fmt.Fprintf(sb, "  External links:      %d\n", m.NumExternalLinks)
	fmt.Fprintf(sb, "  Social media links:  %d\n", m.NumSocialMediaLinks)
	fmt.Fprintf(sb, "  External resources:  %d\n", m.NumExternalResources)
	sb.WriteString("\n")
}

// writeFootprint writes energy and carbon estimates.
func (w *SimpleWriter) writeFootprint(sb *strings.Builder, report *model.AnalysisReport) {
	sectionTitle(sb, "CARBON FOOTPRINT")

	f := report.Footprint
	fmt.Fprintf(sb, "  Energy usage:        %.6f kWh\n", f.TotalEnergyUsageKWh)
	fmt.Fprintf(sb, "  Images:              %.6f kg CO2e\n", f.CarbonFootprintImagesKg)
	fmt.Fprintf(sb, "  Videos:              %.6f kg CO2e\n", f.CarbonFootprintVideosKg)
	fmt.Fprintf(sb, "  Other:               %.6f kg CO2e\n", f.CarbonFootprintOtherKg)
	fmt.Fprintf(sb, "  Score:               %.1f / 100\n", report.Score(carbon.DefaultScore))
	sb.WriteString("\n")
}

// writeResources lists every sized resource.
func (w *SimpleWriter) writeResources(sb *strings.Builder, resources []model.SizedResource) {
	if len(resources) == 0 {
		return
	}

	sectionTitle(sb, "RESOURCES")
	for _, r := range resources {
		location := r.Location
		if r.Kind.IsInline() {
			location = fmt.Sprintf("(inline, %d bytes)", len(r.Location))
		}
		marker := " "
		if r.IsExternal {
			marker = "*"
		}
		fmt.Fprintf(sb, "  %s %-16s %10.2f KB  %s\n", marker, r.Kind, r.SizeKB, truncateString(location, 60))
	}
	sb.WriteString("\n  * external host\n\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by pagecarbon\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
