package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagecarbon/internal/config"
	"github.com/nao1215/pagecarbon/internal/database"
)

// defaultHistoryDays is the look-back window of the history command.
const defaultHistoryDays = 30

// errReportNotFound is returned by history --id for an unknown report.
var errReportNotFound = errors.New("report not found")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show saved carbon footprint reports",
		Long: `History lists the reports saved by previous analyses.

By default it shows the reports of the last 30 days, newest first.

Examples:
  # Reports from the last 30 days
  pagecarbon history

  # Reports since a given date
  pagecarbon history --since 2025-01-01

  # The three pages that use the most energy
  pagecarbon history --top 3

  # One report in full
  pagecarbon history --id 42 --markdown`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	addDBFlag(cmd)
	cmd.Flags().StringP("user", "u", config.DefaultUserID,
		"User whose reports are shown")
	cmd.Flags().IntP("days", "d", defaultHistoryDays,
		"Show reports created in the last N days")
	cmd.Flags().String("since", "",
		"Show reports created at or after this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().Int("top", 0,
		"Show the N reports with the highest energy use")
	cmd.Flags().Int64("id", 0,
		"Show a single report by ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write output to specified file path")

	return cmd
}

// historyQuery selects which reports the history command shows.
type historyQuery struct {
	userID string
	since  time.Time
	until  time.Time
	top    int
	id     int64
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	var err error

	if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return err
	}
	if cfg.UserID, err = cmd.Flags().GetString("user"); err != nil {
		return err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	query, err := buildHistoryQuery(cmd, cfg.UserID, time.Now())
	if err != nil {
		return err
	}

	setupLogger(getVerboseFlag(cmd), false)

	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	dest, closeDest, err := openOutput(cfg.ReportFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeDest()
	writer := newReportWriter(cfg, dest, true)

	ctx := cmd.Context()
	switch {
	case query.id > 0:
		r, err := db.GetReport(ctx, query.userID, query.id)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("%w: %d", errReportNotFound, query.id)
		}
		_, err = writer.Write(r)
		return err
	case query.top > 0:
		reports, err := db.TopByEnergy(ctx, query.userID, query.top)
		if err != nil {
			return err
		}
		_, err = writer.WriteHistory(reports)
		return err
	default:
		reports, err := db.History(ctx, query.userID, query.since, query.until)
		if err != nil {
			return err
		}
		_, err = writer.WriteHistory(reports)
		return err
	}
}

// buildHistoryQuery reads the selection flags. --since wins over --days.
func buildHistoryQuery(cmd *cobra.Command, userID string, now time.Time) (historyQuery, error) {
	q := historyQuery{userID: userID, until: now.Add(time.Second)}
	var err error

	if q.id, err = cmd.Flags().GetInt64("id"); err != nil {
		return q, err
	}
	if q.top, err = cmd.Flags().GetInt("top"); err != nil {
		return q, err
	}
	if q.top < 0 {
		return q, database.ErrInvalidLimit
	}

	since, err := cmd.Flags().GetString("since")
	if err != nil {
		return q, err
	}
	if since != "" {
		q.since, err = parseSince(since)
		return q, err
	}

	days, err := cmd.Flags().GetInt("days")
	if err != nil {
		return q, err
	}
	if days <= 0 {
		return q, fmt.Errorf("--days must be positive, got %d", days)
	}
	q.since = now.AddDate(0, 0, -days)
	return q, nil
}

// parseSince accepts an RFC3339 timestamp or a calendar date in UTC.
func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q: use RFC3339 or YYYY-MM-DD", s)
	}
	return t, nil
}
