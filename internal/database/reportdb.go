package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pagecarbon/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "pagecarbon.db"

// ErrInvalidLimit is returned when a ranking is requested with n < 1.
var ErrInvalidLimit = errors.New("limit must be at least 1")

// ReportDB stores analysis reports in SQLite.
type ReportDB struct {
	db     *sql.DB
	dbPath string

	// afterInsert is called after each table insert inside SaveReport.
	// Returning an error aborts the transaction.
	afterInsert func(table string) error
}

// Options configures ReportDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the report database in dbDir.
func Open(dbDir string, opts Options) (*ReportDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	mode := "rwc"
	if !opts.CreateIfNotExists {
		mode = "rw"
	}
	dsn := dbPath + "?mode=" + mode + "&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ReportDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *ReportDB) Close() error {
	return rdb.db.Close()
}

// Path returns the database file path.
func (rdb *ReportDB) Path() string {
	return rdb.dbPath
}

// SaveReport writes the website, page, image, video and carbon footprint
// records for report in a single transaction and returns the website ID.
func (rdb *ReportDB) SaveReport(ctx context.Context, report *model.AnalysisReport) (id int64, err error) {
	if report == nil {
		return 0, errors.New("report is nil")
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	user := report.Request.UserID
	created := report.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	websiteID, err := rdb.insert(ctx, tx, "website_reports",
		`INSERT INTO website_reports (user_id, url, pages, content_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		user, report.Request.TargetURL, report.PageCount, report.ContentHash, formatTimestamp(created),
	)
	if err != nil {
		return 0, err
	}

	m := report.Metrics
	pageID, err := rdb.insert(ctx, tx, "page_reports",
		`INSERT INTO page_reports (
			website_id, user_id, page_size, num_images, num_videos, num_external_resources,
			num_internal_links, num_external_links, num_social_media_links, total_css_size, total_js_size
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		websiteID, user, m.PageSizeKB, m.NumImages, m.NumVideos, m.NumExternalResources,
		m.NumInternalLinks, m.NumExternalLinks, m.NumSocialMediaLinks, m.TotalCSSSizeKB, m.TotalJSSizeKB,
	)
	if err != nil {
		return 0, err
	}

	if _, err = rdb.insert(ctx, tx, "image_reports",
		`INSERT INTO image_reports (page_id, user_id, total_size, format) VALUES (?, ?, ?, ?)`,
		pageID, user, m.TotalImageSizeKB, imageFormat,
	); err != nil {
		return 0, err
	}

	if _, err = rdb.insert(ctx, tx, "video_reports",
		`INSERT INTO video_reports (page_id, user_id, total_size, format) VALUES (?, ?, ?, ?)`,
		pageID, user, m.TotalVideoSizeKB, videoFormat,
	); err != nil {
		return 0, err
	}

	fp := report.Footprint
	if _, err = rdb.insert(ctx, tx, "carbon_footprint_reports",
		`INSERT INTO carbon_footprint_reports (
			page_id, user_id, total_energy_usage, carbon_footprint_score,
			carbon_footprint_images, carbon_footprint_videos, carbon_footprint_other
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pageID, user, fp.TotalEnergyUsageKWh, fp.CarbonFootprintScore,
		fp.CarbonFootprintImagesKg, fp.CarbonFootprintVideosKg, fp.CarbonFootprintOtherKg,
	); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit report: %w", err)
	}
	return websiteID, nil
}

// insert executes one INSERT inside tx and returns the new row ID.
func (rdb *ReportDB) insert(ctx context.Context, tx *sql.Tx, table, query string, args ...any) (int64, error) {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	if rdb.afterInsert != nil {
		if err := rdb.afterInsert(table); err != nil {
			return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return result.LastInsertId()
}

// selectReports joins the five tables into one row per report.
const selectReports = `
SELECT
	w.id, w.user_id, w.url, w.pages, w.content_hash, w.created_at,
	p.page_size, p.num_images, p.num_videos, p.num_external_resources,
	p.num_internal_links, p.num_external_links, p.num_social_media_links,
	p.total_css_size, p.total_js_size,
	i.total_size, v.total_size,
	c.total_energy_usage, c.carbon_footprint_score,
	c.carbon_footprint_images, c.carbon_footprint_videos, c.carbon_footprint_other
FROM website_reports w
JOIN page_reports p ON p.website_id = w.id
JOIN image_reports i ON i.page_id = p.id
JOIN video_reports v ON v.page_id = p.id
JOIN carbon_footprint_reports c ON c.page_id = p.id
`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*model.AnalysisReport, error) {
	var (
		r         model.AnalysisReport
		createdAt string
	)
	err := row.Scan(
		&r.ID, &r.Request.UserID, &r.Request.TargetURL, &r.PageCount, &r.ContentHash, &createdAt,
		&r.Metrics.PageSizeKB, &r.Metrics.NumImages, &r.Metrics.NumVideos, &r.Metrics.NumExternalResources,
		&r.Metrics.NumInternalLinks, &r.Metrics.NumExternalLinks, &r.Metrics.NumSocialMediaLinks,
		&r.Metrics.TotalCSSSizeKB, &r.Metrics.TotalJSSizeKB,
		&r.Metrics.TotalImageSizeKB, &r.Metrics.TotalVideoSizeKB,
		&r.Footprint.TotalEnergyUsageKWh, &r.Footprint.CarbonFootprintScore,
		&r.Footprint.CarbonFootprintImagesKg, &r.Footprint.CarbonFootprintVideosKg, &r.Footprint.CarbonFootprintOtherKg,
	)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = parseTimestamp(createdAt)
	return &r, nil
}

// GetReport returns the report with id owned by userID, or nil if absent.
func (rdb *ReportDB) GetReport(ctx context.Context, userID string, id int64) (*model.AnalysisReport, error) {
	row := rdb.db.QueryRowContext(ctx, selectReports+`WHERE w.user_id = ? AND w.id = ?`, userID, id)
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

// History returns userID's reports created in [since, until), newest first.
// A zero since or until leaves that side of the range open.
func (rdb *ReportDB) History(ctx context.Context, userID string, since, until time.Time) ([]*model.AnalysisReport, error) {
	var (
		where = []string{"w.user_id = ?"}
		args  = []any{userID}
	)
	if !since.IsZero() {
		where = append(where, "w.created_at >= ?")
		args = append(args, formatTimestamp(since))
	}
	if !until.IsZero() {
		where = append(where, "w.created_at < ?")
		args = append(args, formatTimestamp(until))
	}

	query := selectReports + "WHERE " + strings.Join(where, " AND ") + " ORDER BY w.created_at DESC, w.id DESC"
	return rdb.queryReports(ctx, query, args...)
}

// TopByEnergy returns userID's n reports with the highest total energy use.
func (rdb *ReportDB) TopByEnergy(ctx context.Context, userID string, n int) ([]*model.AnalysisReport, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	query := selectReports + `WHERE w.user_id = ? ORDER BY c.total_energy_usage DESC, w.id DESC LIMIT ?`
	return rdb.queryReports(ctx, query, userID, n)
}

// URLHistory returns userID's reports for url, newest first.
func (rdb *ReportDB) URLHistory(ctx context.Context, userID, url string) ([]*model.AnalysisReport, error) {
	query := selectReports + `WHERE w.user_id = ? AND w.url = ? ORDER BY w.created_at DESC, w.id DESC`
	return rdb.queryReports(ctx, query, userID, url)
}

// ListURLs returns the distinct URLs userID has analysed, sorted.
func (rdb *ReportDB) ListURLs(ctx context.Context, userID string) ([]string, error) {
	rows, err := rdb.db.QueryContext(ctx,
		`SELECT DISTINCT url FROM website_reports WHERE user_id = ? ORDER BY url`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list URLs: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan URL: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// CountReports returns the number of stored reports for userID.
func (rdb *ReportDB) CountReports(ctx context.Context, userID string) (int, error) {
	var n int
	err := rdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM website_reports WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return n, nil
}

// countRows returns the number of rows in table.
func (rdb *ReportDB) countRows(ctx context.Context, table string) (int, error) {
	var n int
	err := rdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n) //nolint:gosec // table names come from Tables
	return n, err
}

func (rdb *ReportDB) queryReports(ctx context.Context, query string, args ...any) ([]*model.AnalysisReport, error) {
	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []*model.AnalysisReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// timestampLayout has a fixed width so stored values sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the layouts accepted when reading timestamps.
// The order matters: more specific formats come first.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp tries each known layout and returns zero time on failure.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
