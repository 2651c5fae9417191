package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/pagecarbon/internal/carbon"
	"github.com/nao1215/pagecarbon/internal/config"
	"github.com/nao1215/pagecarbon/internal/database"
	"github.com/nao1215/pagecarbon/internal/model"
)

const (
	directionWorsened  = "worsened"
	directionImproved  = "improved"
	directionUnchanged = "unchanged"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [url]",
		Short: "Compare a page's footprint with an earlier report",
		Long: `Compare shows how the weight and carbon footprint of a page changed
between two saved reports.

By default the latest report of the page is compared with the one before
it. Use 'pagecarbon analyze' to create reports.

Examples:
  # Compare the latest two reports of a page
  pagecarbon compare example.com

  # List the saved reports of a page
  pagecarbon compare --list example.com

  # Compare with a specific report by ID
  pagecarbon compare --with-id 5 example.com

  # Compare with the first report since a date
  pagecarbon compare --since 2025-01-01 example.com

  # List every analysed page
  pagecarbon compare --list-urls`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	addDBFlag(cmd)
	cmd.Flags().StringP("user", "u", config.DefaultUserID,
		"User whose reports are compared")
	cmd.Flags().BoolP("list", "l", false,
		"List saved reports for the page")
	cmd.Flags().BoolP("list-urls", "L", false,
		"List every analysed page")
	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare with a specific report by ID (use --list to see IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first report at or after this date (YYYY-MM-DD)")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison in Markdown format")

	return cmd
}

// compareOptions holds the parsed compare flags.
type compareOptions struct {
	userID   string
	url      string
	withID   int64
	since    string
	json     bool
	markdown bool
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	listURLs, err := cmd.Flags().GetBool("list-urls")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	opts := compareOptions{}
	if opts.userID, err = cmd.Flags().GetString("user"); err != nil {
		return err
	}

	// Validate before opening the database.
	if !listURLs {
		if len(args) == 0 {
			return errors.New("a URL is required (use --list-urls to see analysed pages)")
		}
		if opts.url, err = model.NormalizeURL(args[0]); err != nil {
			return err
		}
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if listURLs {
		return listAnalysedURLs(ctx, out, db, opts.userID)
	}

	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if list {
		return listURLHistory(ctx, out, db, opts.userID, opts.url)
	}

	if opts.withID, err = cmd.Flags().GetInt64("with-id"); err != nil {
		return err
	}
	if opts.since, err = cmd.Flags().GetString("since"); err != nil {
		return err
	}
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if opts.json && opts.markdown {
		return config.ErrConflictingReportFormats
	}

	return runComparison(ctx, out, db, opts)
}

// listAnalysedURLs prints every page userID has analysed.
func listAnalysedURLs(ctx context.Context, out io.Writer, db *database.ReportDB, userID string) error {
	urls, err := db.ListURLs(ctx, userID)
	if err != nil {
		return err
	}

	if len(urls) == 0 {
		fmt.Fprintln(out, "No analysed pages found in the database.")
		fmt.Fprintln(out, "\nUse 'pagecarbon analyze <url>' to analyse a page.")
		return nil
	}

	fmt.Fprintf(out, "Analysed pages (%d):\n\n", len(urls))
	for _, u := range urls {
		fmt.Fprintf(out, "  • %s\n", u)
	}
	fmt.Fprintln(out, "\nUse 'pagecarbon compare --list <url>' to see the reports of a page.")
	return nil
}

// listURLHistory prints the saved reports of one page.
func listURLHistory(ctx context.Context, out io.Writer, db *database.ReportDB, userID, url string) error {
	reports, err := db.URLHistory(ctx, userID, url)
	if err != nil {
		return err
	}

	if len(reports) == 0 {
		fmt.Fprintf(out, "No reports found for %s\n", url)
		fmt.Fprintln(out, "\nUse 'pagecarbon analyze' to analyse this page.")
		return nil
	}

	fmt.Fprintf(out, "Reports for %s (%d):\n\n", url, len(reports))
	fmt.Fprintf(out, "  %-6s  %-20s  %12s  %14s\n", "ID", "Date", "Size (KB)", "Energy (kWh)")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 58))
	for _, r := range reports {
		fmt.Fprintf(out, "  %-6d  %-20s  %12.2f  %14.6f\n",
			r.ID,
			r.CreatedAt.Format(time.DateTime),
			r.Metrics.PageSizeKB,
			r.Footprint.TotalEnergyUsageKWh,
		)
	}

	fmt.Fprintln(out, "\nUse 'pagecarbon compare <url>' to compare the latest two reports.")
	fmt.Fprintln(out, "Use 'pagecarbon compare --with-id <id> <url>' to compare with a specific report.")
	return nil
}

// runComparison selects the two reports and writes their comparison.
func runComparison(ctx context.Context, out io.Writer, db *database.ReportDB, opts compareOptions) error {
	reports, err := db.URLHistory(ctx, opts.userID, opts.url)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		return fmt.Errorf("no reports found for %s", opts.url)
	}
	if len(reports) < 2 && opts.withID == 0 && opts.since == "" {
		return fmt.Errorf("at least 2 reports are required for comparison (found %d)", len(reports))
	}

	current := reports[0]
	var previous *model.AnalysisReport

	switch {
	case opts.withID > 0:
		previous, err = db.GetReport(ctx, opts.userID, opts.withID)
		if err != nil {
			return err
		}
		if previous == nil {
			return fmt.Errorf("%w: %d", errReportNotFound, opts.withID)
		}
		if previous.Request.TargetURL != opts.url {
			return fmt.Errorf("report %d belongs to %s, not %s", opts.withID, previous.Request.TargetURL, opts.url)
		}
	case opts.since != "":
		sinceDate, err := time.Parse(time.DateOnly, opts.since)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		// reports are newest first, so walk backwards to the oldest match.
		for i := len(reports) - 1; i >= 0; i-- {
			if !reports[i].CreatedAt.Before(sinceDate) {
				previous = reports[i]
				break
			}
		}
		if previous == nil {
			return fmt.Errorf("no reports found since %s", opts.since)
		}
		if previous == current {
			return fmt.Errorf("only one report found since %s; at least 2 reports are required for comparison", opts.since)
		}
	default:
		previous = reports[1]
	}

	comparison := compareReports(previous, current)

	switch {
	case opts.json:
		return writeComparisonJSON(out, comparison)
	case opts.markdown:
		return writeComparisonMarkdown(out, comparison)
	default:
		return writeComparisonText(out, comparison)
	}
}

// ComparisonResult holds the difference between two reports of one page.
type ComparisonResult struct {
	URL      string         `json:"url"`
	Previous ReportSnapshot `json:"previous"`
	Current  ReportSnapshot `json:"current"`

	// Direction is "improved" when the page needs less energy than before,
	// "worsened" when it needs more, and "unchanged" otherwise.
	Direction string `json:"direction"`
}

// ReportSnapshot holds the compared figures of one report.
type ReportSnapshot struct {
	ID            int64     `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	PageSizeKB    float64   `json:"page_size_kb"`
	ImageSizeKB   float64   `json:"image_size_kb"`
	VideoSizeKB   float64   `json:"video_size_kb"`
	OtherSizeKB   float64   `json:"other_size_kb"`
	EnergyKWh     float64   `json:"energy_kwh"`
	TotalCarbonKg float64   `json:"total_carbon_kg"`
	Score         float64   `json:"score"`
}

// comparisonRow is one line of the text and Markdown tables.
type comparisonRow struct {
	label             string
	previous, current float64
	precision         int
}

func (r ReportSnapshot) rows(current ReportSnapshot) []comparisonRow {
	return []comparisonRow{
		{"Page size (KB)", r.PageSizeKB, current.PageSizeKB, 2},
		{"Images (KB)", r.ImageSizeKB, current.ImageSizeKB, 2},
		{"Videos (KB)", r.VideoSizeKB, current.VideoSizeKB, 2},
		{"Other (KB)", r.OtherSizeKB, current.OtherSizeKB, 2},
		{"Energy (kWh)", r.EnergyKWh, current.EnergyKWh, 6},
		{"Carbon (kg CO2e)", r.TotalCarbonKg, current.TotalCarbonKg, 6},
		{"Score", r.Score, current.Score, 1},
	}
}

func snapshot(r *model.AnalysisReport) ReportSnapshot {
	return ReportSnapshot{
		ID:            r.ID,
		CreatedAt:     r.CreatedAt,
		PageSizeKB:    r.Metrics.PageSizeKB,
		ImageSizeKB:   r.Metrics.TotalImageSizeKB,
		VideoSizeKB:   r.Metrics.TotalVideoSizeKB,
		OtherSizeKB:   r.Metrics.OtherSizeKB(),
		EnergyKWh:     r.Footprint.TotalEnergyUsageKWh,
		TotalCarbonKg: r.Footprint.TotalCarbonKg(),
		Score:         r.Score(carbon.DefaultScore),
	}
}

// compareReports compares two reports of the same page.
func compareReports(previous, current *model.AnalysisReport) *ComparisonResult {
	result := &ComparisonResult{
		URL:      current.Request.TargetURL,
		Previous: snapshot(previous),
		Current:  snapshot(current),
	}

	switch {
	case result.Current.EnergyKWh < result.Previous.EnergyKWh:
		result.Direction = directionImproved
	case result.Current.EnergyKWh > result.Previous.EnergyKWh:
		result.Direction = directionWorsened
	default:
		result.Direction = directionUnchanged
	}
	return result
}

func writeComparisonJSON(out io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func writeComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)

	md.H1("Footprint Comparison")
	md.PlainText("")
	md.PlainTextf("`%s`", result.URL)
	md.PlainText("")
	md.PlainTextf("%s %s", markdown.Bold("Status:"), formatDirection(result.Direction))
	md.PlainText("")

	rows := [][]string{{
		"Date",
		result.Previous.CreatedAt.Format("2006-01-02 15:04"),
		result.Current.CreatedAt.Format("2006-01-02 15:04"),
		"-",
	}}
	for _, row := range result.Previous.rows(result.Current) {
		rows = append(rows, []string{
			row.label,
			strconv.FormatFloat(row.previous, 'f', row.precision, 64),
			strconv.FormatFloat(row.current, 'f', row.precision, 64),
			formatDelta(row.current-row.previous, row.precision),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows:   rows,
	})

	return md.Build()
}

func writeComparisonText(out io.Writer, result *ComparisonResult) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Footprint Comparison: %s\n", result.URL)
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&sb, "\nStatus: %s\n", formatDirection(result.Direction))
	fmt.Fprintf(&sb, "\nPrevious report: #%d  %s\n", result.Previous.ID, result.Previous.CreatedAt.Format(time.DateTime))
	fmt.Fprintf(&sb, "Current report:  #%d  %s\n\n", result.Current.ID, result.Current.CreatedAt.Format(time.DateTime))

	fmt.Fprintf(&sb, "  %-18s  %14s  %14s  %14s\n", "Metric", "Previous", "Current", "Change")
	sb.WriteString("  " + strings.Repeat("-", 66) + "\n")
	for _, row := range result.Previous.rows(result.Current) {
		fmt.Fprintf(&sb, "  %-18s  %14.*f  %14.*f  %14s\n",
			row.label,
			row.precision, row.previous,
			row.precision, row.current,
			formatDelta(row.current-row.previous, row.precision),
		)
	}

	_, err := io.WriteString(out, sb.String())
	return err
}

// formatDirection formats the change direction for display.
func formatDirection(direction string) string {
	switch direction {
	case directionImproved:
		return "IMPROVED (less energy per load)"
	case directionWorsened:
		return "WORSENED (more energy per load)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a delta with an explicit sign.
func formatDelta(delta float64, precision int) string {
	s := strconv.FormatFloat(delta, 'f', precision, 64)
	if strings.Trim(s, "-0.") == "" {
		return strconv.FormatFloat(0, 'f', precision, 64)
	}
	if delta > 0 {
		return "+" + s
	}
	return s
}
