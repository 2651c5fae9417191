package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/pagecarbon/internal/carbon"
	"github.com/nao1215/pagecarbon/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing. Chart data is embedded as mermaid pie charts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AnalysisReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeMetrics(md, report.Metrics)
	w.writeFootprint(md, report)
	w.writeResources(md, report.Resources)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteHistory outputs the reports as a Markdown table.
func (w *MarkdownWriter) WriteHistory(reports []*model.AnalysisReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Report History")
	md.PlainText("")

	if len(reports) == 0 {
		md.PlainText("No reports found.")
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(reports))
	for i, r := range reports {
		rows[i] = []string{
			strconv.FormatInt(r.ID, 10),
			r.CreatedAt.Format(timeFormat),
			"`" + truncateString(r.Request.TargetURL, 60) + "`",
			formatFloat(r.Metrics.PageSizeKB, 2),
			formatFloat(r.Footprint.TotalEnergyUsageKWh, 6),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Date", "URL", "Size (KB)", "Energy (kWh)"},
		Rows:   rows,
	})
	md.PlainText("")

	if top := TopSites(reports, DefaultTopSites); len(top) > 0 {
		md.H2("Top Websites by Energy Usage")
		md.PlainText("")
		w.writePieChart(md, "Energy Usage (kWh)", top)
	}

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with request information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H1("Page Carbon Footprint Report")
	md.PlainText("")

	rows := [][]string{
		{"URL", "`" + report.Request.TargetURL + "`"},
		{"Analysed", report.CreatedAt.Format(timeFormat)},
		{"Anchors", strconv.Itoa(report.PageCount)},
	}
	if report.ID != 0 {
		rows = append([][]string{{"Report ID", strconv.FormatInt(report.ID, 10)}}, rows...)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeMetrics writes page statistics and the link distribution chart.
func (w *MarkdownWriter) writeMetrics(md *markdown.Markdown, m model.PageMetrics) {
	md.H2("Page Metrics")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Resource", "Count", "Size (KB)"},
		Rows: [][]string{
			{"Images", strconv.Itoa(m.NumImages), formatFloat(m.TotalImageSizeKB, 2)},
			{"Videos", strconv.Itoa(m.NumVideos), formatFloat(m.TotalVideoSizeKB, 2)},
			{"Stylesheets", "-", formatFloat(m.TotalCSSSizeKB, 2)},
			{"Scripts", "-", formatFloat(m.TotalJSSizeKB, 2)},
			{"**Total**", "-", "**" + formatFloat(m.PageSizeKB, 2) + "**"},
		},
	})
	md.PlainText("")

	w.writePieChart(md, "Link Distribution", LinkDistribution(m))
}

// writeFootprint writes energy, carbon and the score alert.
func (w *MarkdownWriter) writeFootprint(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H2("Carbon Footprint")
	md.PlainText("")

	f := report.Footprint
	md.Table(markdown.TableSet{
		Header: []string{"Measure", "Value"},
		Rows: [][]string{
			{"Energy usage (kWh)", formatFloat(f.TotalEnergyUsageKWh, 6)},
			{"Images (kg CO2e)", formatFloat(f.CarbonFootprintImagesKg, 6)},
			{"Videos (kg CO2e)", formatFloat(f.CarbonFootprintVideosKg, 6)},
			{"Other (kg CO2e)", formatFloat(f.CarbonFootprintOtherKg, 6)},
		},
	})
	md.PlainText("")

	w.writePieChart(md, "Carbon Footprint (kg)", FootprintBreakdown(f))
	w.writeAlert(md, report.Score(carbon.DefaultScore))
}

// writeAlert writes an alert matching the score band.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, score float64) {
	switch {
	case score <= 0:
		md.Cautionf("Score %.1f / 100. The page exceeds the carbon reference budget.", score)
	case score < 50:
		md.Warningf("Score %.1f / 100. The page uses more than half of the carbon reference budget.", score)
	case score < 90:
		md.Note(fmt.Sprintf("Score %.1f / 100.", score))
	default:
		md.Tip(fmt.Sprintf("Score %.1f / 100. The page is lightweight.", score))
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the non-zero slices.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, title string, slices []Slice) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle(title),
		piechart.WithShowData(true),
	)

	var n int
	for _, s := range slices {
		if s.Value <= 0 {
			continue
		}
		chart.LabelAndFloatValue(s.Label, s.Value)
		n++
	}
	if n == 0 {
		return
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeResources writes the sized resource table.
func (w *MarkdownWriter) writeResources(md *markdown.Markdown, resources []model.SizedResource) {
	if len(resources) == 0 {
		return
	}

	md.H2("Resources")
	md.PlainText("")

	rows := make([][]string, len(resources))
	for i, r := range resources {
		location := r.Location
		if r.Kind.IsInline() {
			location = "(inline)"
		}
		external := "no"
		if r.IsExternal {
			external = "yes"
		}
		rows[i] = []string{
			r.Kind.String(),
			"`" + truncateString(location, 50) + "`",
			external,
			formatFloat(r.SizeKB, 2),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Location", "External", "Size (KB)"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by pagecarbon*")
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
