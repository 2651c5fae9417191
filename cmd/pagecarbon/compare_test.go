package main

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pagecarbon/internal/database"
	"github.com/nao1215/pagecarbon/internal/model"
)

// seedURL saves reports of one page for alice, oldest first, and returns
// their IDs.
func seedURL(t *testing.T, dir, url string, created []time.Time, pageKB []float64) []int64 {
	t.Helper()

	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ids := make([]int64, len(created))
	for i := range created {
		r := model.NewAnalysisReport(model.AnalysisRequest{TargetURL: url, UserID: "alice"})
		r.CreatedAt = created[i]
		r.Metrics.PageSizeKB = pageKB[i]
		r.Metrics.TotalImageSizeKB = pageKB[i] / 2
		r.Footprint.TotalEnergyUsageKWh = pageKB[i] / 1000
		r.Footprint.CarbonFootprintScore = r.Footprint.TotalEnergyUsageKWh
		if ids[i], err = db.SaveReport(context.Background(), r); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
	}
	return ids
}

// TestCompareCommand tests comparing saved reports of one page.
func TestCompareCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	url := "https://example.com/"
	jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	ids := seedURL(t, dir, url,
		[]time.Time{jan, jan.AddDate(0, 1, 0), jan.AddDate(0, 2, 0)},
		[]float64{300, 200, 250},
	)
	seedURL(t, dir, "https://other.example/", []time.Time{jan}, []float64{10})

	decode := func(t *testing.T, stdout string) ComparisonResult {
		t.Helper()
		var got ComparisonResult
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, stdout)
		}
		return got
	}

	t.Run("latest two reports", func(t *testing.T) {
		t.Parallel()
		stdout, _, err := executeRoot(t, "compare", "--db-dir", dir, "-u", "alice", "-j", url)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := decode(t, stdout)
		if got.Previous.ID != ids[1] || got.Current.ID != ids[2] {
			t.Errorf("compared %d -> %d, want %d -> %d", got.Previous.ID, got.Current.ID, ids[1], ids[2])
		}
		if got.Direction != directionWorsened {
			t.Errorf("direction = %q, want %q", got.Direction, directionWorsened)
		}
	})

	t.Run("with id", func(t *testing.T) {
		t.Parallel()
		stdout, _, err := executeRoot(t, "compare", "--db-dir", dir, "-u", "alice", "-j",
			"-i", strconv.FormatInt(ids[0], 10), url)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := decode(t, stdout)
		if got.Previous.ID != ids[0] || got.Direction != directionImproved {
			t.Errorf("unexpected comparison: %+v", got)
		}
	})

	t.Run("since date", func(t *testing.T) {
		t.Parallel()
		stdout, _, err := executeRoot(t, "compare", "--db-dir", dir, "-u", "alice", "-j", "-s", "2025-02-01", url)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := decode(t, stdout); got.Previous.ID != ids[1] {
			t.Errorf("previous = %d, want %d", got.Previous.ID, ids[1])
		}
	})

	t.Run("since leaves only the current report", func(t *testing.T) {
		t.Parallel()
		_, _, err := executeRoot(t, "compare", "--db-dir", dir, "-u", "alice", "-s", "2025-03-01", url)
		if err == nil || !strings.Contains(err.Error(), "only one report") {
			t.Errorf("expected single report error, got %v", err)
		}
	})

	t.Run("text output", func(t *testing.T) {
		t.Parallel()
		stdout, _, err := executeRoot(t, "compare", "--db-dir", dir, "-u", "alice", url)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"Footprint Comparison: " + url, "WORSENED", "+50.00"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("output missing %q:\n%s", want, stdout)
			}
		}
	})

	t.Run("markdown output", func(t *testing.T) {
		t.Parallel()
		stdout, _, err := executeRoot(t, "compare", "--db-dir", dir, "-u", "alice", "-m", url)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "# Footprint Comparison") || !strings.Contains(stdout, "| Metric") {
			t.Errorf("unexpected markdown:\n%s", stdout)
		}
	})

	t.Run("id of another page", func(t *testing.T) {
		t.Parallel()
		other, _, err := executeRoot(t, "compare", "--db-dir", dir, "-u", "alice", "-L")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(other, "https://other.example/") {
			t.Fatalf("expected other page in listing:\n%s", other)
		}
		_, _, err = executeRoot(t, "compare", "--db-dir", dir, "-u", "alice", "-i", strconv.FormatInt(ids[2]+1, 10), url)
		if err == nil || !strings.Contains(err.Error(), "belongs to") {
			t.Errorf("expected 'belongs to' error, got %v", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		_, _, err := executeRoot(t, "compare", "--db-dir", dir, "-u", "alice", "-i", "9999", url)
		if !errors.Is(err, errReportNotFound) {
			t.Errorf("expected errReportNotFound, got %v", err)
		}
	})

	t.Run("single report", func(t *testing.T) {
		t.Parallel()
		_, _, err := executeRoot(t, "compare", "--db-dir", dir, "-u", "alice", "https://other.example/")
		if err == nil || !strings.Contains(err.Error(), "at least 2 reports") {
			t.Errorf("expected at least 2 reports error, got %v", err)
		}
	})

	t.Run("list history", func(t *testing.T) {
		t.Parallel()
		stdout, _, err := executeRoot(t, "compare", "--db-dir", dir, "-u", "alice", "-l", url)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Reports for "+url+" (3)") {
			t.Errorf("unexpected listing:\n%s", stdout)
		}
	})

	t.Run("url required", func(t *testing.T) {
		t.Parallel()
		if _, _, err := executeRoot(t, "compare", "--db-dir", dir); err == nil {
			t.Error("expected error without URL")
		}
	})
}

// TestFormatDelta tests signed delta formatting.
func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		delta     float64
		precision int
		want      string
	}{
		{50, 2, "+50.00"},
		{-1.5, 1, "-1.5"},
		{0, 2, "0.00"},
		{-0.0000001, 2, "0.00"},
	}
	for _, tt := range tests {
		if got := formatDelta(tt.delta, tt.precision); got != tt.want {
			t.Errorf("formatDelta(%v, %d) = %q, want %q", tt.delta, tt.precision, got, tt.want)
		}
	}
}
