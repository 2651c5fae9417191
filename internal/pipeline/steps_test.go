package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/pagecarbon/internal/carbon"
	"github.com/nao1215/pagecarbon/internal/fetch"
	"github.com/nao1215/pagecarbon/internal/model"
	"github.com/nao1215/pagecarbon/internal/sizer"
)

// fakeFetcher serves a fixed body or error.
type fakeFetcher struct {
	body        string
	contentType string
	err         error
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (*model.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	ct := f.contentType
	if ct == "" {
		ct = "text/html; charset=utf-8"
	}
	page := &model.Page{URL: pageURL, StatusCode: http.StatusOK, ContentType: ct, Body: []byte(f.body)}
	page.ComputeHash()
	return page, nil
}

// fakeSizer returns sizes by location, or by kind for inline content.
type fakeSizer struct {
	sizes map[string]float64
	calls atomic.Int32
	delay time.Duration
}

func (f *fakeSizer) Size(ctx context.Context, ref model.ResourceReference, _ string) float64 {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return 0
		}
	}
	if ref.Kind.IsInline() {
		return float64(len(ref.Location)) / 1024
	}
	return f.sizes[ref.Location]
}

func newTestPipeline(f Fetcher, s ResourceSizer, saver Saver) *Pipeline {
	return NewAnalysisPipeline(Deps{
		Fetcher:   f,
		Sizer:     s,
		Estimator: carbon.Default(),
		Saver:     saver,
		Logger:    discardLogger(),
	})
}

// TestAnalysisPipelineSteps tests the standard step order.
func TestAnalysisPipelineSteps(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(&fakeFetcher{}, &fakeSizer{}, nil)
	want := []string{"fetch", "analyze", "size", "estimate"}
	got := p.StepNames()
	if len(got) != len(want) {
		t.Fatalf("steps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestTwoImagesEndToEnd tests totals and footprint for a known page.
func TestTwoImagesEndToEnd(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{body: `<html><body><img src="/a.png"><img src="/b.png"></body></html>`}
	s := &fakeSizer{sizes: map[string]float64{"/a.png": 10, "/b.png": 20}}
	saver := &mockSaver{}

	run := NewRun(testRequest())
	if err := newTestPipeline(f, s, saver).Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if run.Stage != model.StageDone {
		t.Errorf("Stage = %v, want done", run.Stage)
	}
	m := run.Report.Metrics
	if m.TotalImageSizeKB != 30 {
		t.Errorf("TotalImageSizeKB = %v, want 30", m.TotalImageSizeKB)
	}
	if m.PageSizeKB != 30 {
		t.Errorf("PageSizeKB = %v, want 30", m.PageSizeKB)
	}
	if m.NumImages != 2 {
		t.Errorf("NumImages = %d, want 2", m.NumImages)
	}

	wantEnergy, wantCarbon := carbon.Default().Estimate(30)
	fp := run.Report.Footprint
	if fp.TotalEnergyUsageKWh != wantEnergy {
		t.Errorf("TotalEnergyUsageKWh = %v, want %v", fp.TotalEnergyUsageKWh, wantEnergy)
	}
	if fp.CarbonFootprintImagesKg != wantCarbon {
		t.Errorf("CarbonFootprintImagesKg = %v, want %v", fp.CarbonFootprintImagesKg, wantCarbon)
	}
	if saver.count() != 1 {
		t.Errorf("saved %d reports, want 1", saver.count())
	}
	if run.Report.ContentHash == "" {
		t.Error("expected content hash on report")
	}
}

// TestPageSizeIsSumOfParts tests aggregation over every resource kind.
func TestPageSizeIsSumOfParts(t *testing.T) {
	t.Parallel()

	body := `<html><head>
<link rel="stylesheet" href="/site.css">
<link rel="icon" href="/favicon.ico">
<style>.hero { background-image: url(/hero.jpg) }</style>
<script src="/app.js"></script>
<script>var x = 1;</script>
</head><body>
<img src="/logo.png">
<svg><rect width="1" height="1"></rect></svg>
<video src="/clip.mp4"></video>
<video src="/broken.mp4"></video>
<iframe src="https://www.youtube.com/embed/abc"></iframe>
<a href="https://example.com">home</a>
<a href="https://social.example.net">social</a>
</body></html>`

	s := &fakeSizer{sizes: map[string]float64{
		"/site.css":                         3,
		"/hero.jpg":                         40,
		"/app.js":                           12,
		"/logo.png":                         5,
		"/clip.mp4":                         500,
		"https://www.youtube.com/embed/abc": 60,
	}}

	run := NewRun(testRequest())
	if err := newTestPipeline(&fakeFetcher{body: body}, s, nil).Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	m := run.Metrics
	sum := m.TotalImageSizeKB + m.TotalVideoSizeKB + m.TotalCSSSizeKB + m.TotalJSSizeKB
	if m.PageSizeKB != sum {
		t.Errorf("PageSizeKB = %v, sum of parts = %v", m.PageSizeKB, sum)
	}

	var resourceSum float64
	for _, r := range run.Resources {
		if r.Kind.IsVideo() && r.SizeKB == 0 {
			continue
		}
		resourceSum += r.SizeKB
	}
	if m.PageSizeKB != resourceSum {
		t.Errorf("PageSizeKB = %v, resource sum = %v", m.PageSizeKB, resourceSum)
	}

	if m.NumImages != 3 {
		t.Errorf("NumImages = %d, want 3 (img + background + svg)", m.NumImages)
	}
	if m.NumVideos != 2 {
		t.Errorf("NumVideos = %d, want 2 (zero-size video excluded)", m.NumVideos)
	}
	if m.TotalVideoSizeKB != 560 {
		t.Errorf("TotalVideoSizeKB = %v, want 560", m.TotalVideoSizeKB)
	}
	if m.NumExternalResources != 2 {
		t.Errorf("NumExternalResources = %d, want 2", m.NumExternalResources)
	}
	if m.NumInternalLinks != 1 || m.NumExternalLinks != 1 || m.NumSocialMediaLinks != 1 {
		t.Errorf("unexpected link counts: %+v", m)
	}
	if run.Report.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", run.Report.PageCount)
	}
	if s.calls.Load() != int32(len(run.Resources)) {
		t.Errorf("sizer calls = %d, resources = %d", s.calls.Load(), len(run.Resources))
	}
}

// TestFetchFailureFailsRun tests that no report is produced or saved.
func TestFetchFailureFailsRun(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{err: &model.FetchError{URL: "https://example.com", StatusCode: 503}}
	saver := &mockSaver{}

	run := NewRun(testRequest())
	err := newTestPipeline(f, &fakeSizer{}, saver).Execute(context.Background(), run)
	if !errors.Is(err, model.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if run.Stage != model.StageFailed {
		t.Errorf("Stage = %v, want failed", run.Stage)
	}
	if saver.count() != 0 {
		t.Errorf("saved %d reports, want 0", saver.count())
	}
}

// TestNonHTMLFailsWithParseError tests the content type guard.
func TestNonHTMLFailsWithParseError(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{body: `{"a":1}`, contentType: "application/json"}
	run := NewRun(testRequest())
	err := newTestPipeline(f, &fakeSizer{}, nil).Execute(context.Background(), run)
	if !errors.Is(err, model.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if !errors.Is(err, fetch.ErrNotHTML) {
		t.Errorf("expected ErrNotHTML cause, got %v", err)
	}
}

// TestSizeStepCancellation tests that cancelling during sizing fails the run.
func TestSizeStepCancellation(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := range 50 {
		fmt.Fprintf(&b, `<img src="/%d.png">`, i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	s := &fakeSizer{delay: time.Second}
	p := NewAnalysisPipeline(Deps{
		Fetcher:           &fakeFetcher{body: b.String()},
		Sizer:             s,
		Logger:            discardLogger(),
		SizingConcurrency: 2,
	})

	run := NewRun(testRequest())
	err := p.Execute(ctx, run)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if run.Stage != model.StageFailed {
		t.Errorf("Stage = %v, want failed", run.Stage)
	}
}

// TestAnalyzeStepWithoutPage tests that a missing page is an ordering
// error, not a parse failure.
func TestAnalyzeStepWithoutPage(t *testing.T) {
	t.Parallel()

	err := NewAnalyzeStep(discardLogger()).Do(context.Background(), NewRun(testRequest()))
	if !errors.Is(err, errNoPage) {
		t.Fatalf("expected errNoPage, got %v", err)
	}
	if errors.Is(err, model.ErrParse) {
		t.Errorf("missing page must not be reported as a parse error: %v", err)
	}
}

// TestSizeStepWithoutInventory tests the ordering guard.
func TestSizeStepWithoutInventory(t *testing.T) {
	t.Parallel()

	if err := NewSizeStep(&fakeSizer{}).Do(context.Background(), NewRun(testRequest())); err == nil {
		t.Error("expected error without inventory")
	}
}

// TestMissingContentLengthCompletes tests the real sizer against a server
// that omits Content-Length.
func TestMissingContentLengthCompletes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<img src="/sized.png"><img src="/unsized.png"><video src="/v.mp4"></video>`))
		case "/sized.png":
			w.Header().Set("Content-Length", "2048")
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	client, err := fetch.NewClient(fetch.WithTimeout(5 * time.Second))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	p := NewAnalysisPipeline(Deps{
		Fetcher: client,
		Sizer:   sizer.New(client.HTTPClient()),
		Logger:  discardLogger(),
	})

	run := NewRun(model.AnalysisRequest{TargetURL: server.URL + "/", UserID: "u"})
	if err := p.Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if run.Stage != model.StageDone {
		t.Errorf("Stage = %v, want done", run.Stage)
	}
	if run.Metrics.TotalImageSizeKB != 2 {
		t.Errorf("TotalImageSizeKB = %v, want 2", run.Metrics.TotalImageSizeKB)
	}
	if run.Metrics.NumImages != 2 {
		t.Errorf("NumImages = %d, want 2", run.Metrics.NumImages)
	}
	if run.Metrics.NumVideos != 0 {
		t.Errorf("NumVideos = %d, want 0", run.Metrics.NumVideos)
	}
}
