package report

import (
	"sort"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/pagecarbon/internal/model"
)

const (
	// DefaultTrendWindow is the trailing window used by ScoreTrend.
	DefaultTrendWindow = 30 * 24 * time.Hour

	// DefaultTopSites is the number of reports returned by TopSites.
	DefaultTopSites = 3
)

// label turns a lower-case series name into a chart label.
// Casers are stateful, so each call gets its own.
func label(name string) string {
	return cases.Title(language.English).String(name)
}

// Slice is one labelled value of a bar or pie chart.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// LinkDistribution returns the page statistics of m as chart slices.
// The order is fixed so charts of different reports line up.
func LinkDistribution(m model.PageMetrics) []Slice {
	return []Slice{
		{Label: label("internal links"), Value: float64(m.NumInternalLinks)},
		{Label: label("external links"), Value: float64(m.NumExternalLinks)},
		{Label: label("external resources"), Value: float64(m.NumExternalResources)},
		{Label: label("social media links"), Value: float64(m.NumSocialMediaLinks)},
		{Label: label("images"), Value: float64(m.NumImages)},
		{Label: label("videos"), Value: float64(m.NumVideos)},
	}
}

// FootprintBreakdown returns the carbon of each resource class in kg.
func FootprintBreakdown(f model.CarbonFootprint) []Slice {
	return []Slice{
		{Label: label("images"), Value: f.CarbonFootprintImagesKg},
		{Label: label("videos"), Value: f.CarbonFootprintVideosKg},
		{Label: label("other"), Value: f.CarbonFootprintOtherKg},
	}
}

// TrendPoint is one report on the score trend line.
type TrendPoint struct {
	ReportID  int64     `json:"report_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	Score     float64   `json:"score"`
}

// ScoreTrend returns the carbon footprint scores of reports created within
// window before now, oldest first. A non-positive window uses
// DefaultTrendWindow.
func ScoreTrend(reports []*model.AnalysisReport, now time.Time, window time.Duration) []TrendPoint {
	if window <= 0 {
		window = DefaultTrendWindow
	}
	since := now.Add(-window)

	points := make([]TrendPoint, 0, len(reports))
	for _, r := range reports {
		if r == nil || r.CreatedAt.Before(since) || r.CreatedAt.After(now) {
			continue
		}
		points = append(points, TrendPoint{
			ReportID:  r.ID,
			URL:       r.Request.TargetURL,
			CreatedAt: r.CreatedAt,
			Score:     r.Footprint.CarbonFootprintScore,
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].CreatedAt.Before(points[j].CreatedAt)
	})
	return points
}

// TopSites returns the n reports with the highest total energy usage as
// chart slices labelled by URL. A non-positive n uses DefaultTopSites.
func TopSites(reports []*model.AnalysisReport, n int) []Slice {
	if n <= 0 {
		n = DefaultTopSites
	}

	ranked := make([]*model.AnalysisReport, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Footprint.TotalEnergyUsageKWh > ranked[j].Footprint.TotalEnergyUsageKWh
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	slices := make([]Slice, len(ranked))
	for i, r := range ranked {
		slices[i] = Slice{Label: r.Request.TargetURL, Value: r.Footprint.TotalEnergyUsageKWh}
	}
	return slices
}

// Charts bundles every chart series for one report and its owner's history.
type Charts struct {
	LinkDistribution   []Slice      `json:"link_distribution"`
	FootprintBreakdown []Slice      `json:"footprint_breakdown"`
	ScoreTrend         []TrendPoint `json:"score_trend"`
	TopSites           []Slice      `json:"top_sites"`
}

// BuildCharts computes all chart series. report may be nil, in which case
// only the history based series are filled.
func BuildCharts(report *model.AnalysisReport, history []*model.AnalysisReport, now time.Time) Charts {
	c := Charts{
		ScoreTrend: ScoreTrend(history, now, DefaultTrendWindow),
		TopSites:   TopSites(history, DefaultTopSites),
	}
	if report != nil {
		c.LinkDistribution = LinkDistribution(report.Metrics)
		c.FootprintBreakdown = FootprintBreakdown(report.Footprint)
	}
	return c
}
