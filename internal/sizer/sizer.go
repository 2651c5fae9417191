package sizer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/pagecarbon/internal/model"
)

// DefaultTimeout bounds a single HEAD request.
const DefaultTimeout = 10 * time.Second

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Sizer measures resources. It is safe for concurrent use.
type Sizer struct {
	client    Doer
	timeout   time.Duration
	limiter   *rate.Limiter
	userAgent string
	logger    *slog.Logger
}

// Option configures a Sizer.
type Option func(*Sizer)

// WithTimeout sets the per-request timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(s *Sizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRateLimit caps outgoing HEAD requests at rps per second.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Sizer) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets the User-Agent header on HEAD requests.
func WithUserAgent(ua string) Option {
	return func(s *Sizer) {
		s.userAgent = ua
	}
}

// WithLogger sets the logger for measurement gaps.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Sizer that issues requests through client.
// A nil client uses http.DefaultClient.
func New(client Doer, opts ...Option) *Sizer {
	if client == nil {
		client = http.DefaultClient
	}
	s := &Sizer{
		client:  client,
		timeout: DefaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Size returns the size of ref in kilobytes. It never fails.
func (s *Sizer) Size(ctx context.Context, ref model.ResourceReference, baseURL string) float64 {
	size, _ := s.SizeIn(ctx, ref, baseURL, KB)
	return size
}

// SizeIn returns the size of ref in unit. Only an invalid unit is an error;
// measurement gaps yield 0.
func (s *Sizer) SizeIn(ctx context.Context, ref model.ResourceReference, baseURL string, unit Unit) (float64, error) {
	if unit != KB && unit != MB {
		return 0, &model.InvalidUnitError{Unit: unit.String()}
	}
	return Convert(s.byteLength(ctx, ref, baseURL), unit)
}

// byteLength measures ref in bytes.
func (s *Sizer) byteLength(ctx context.Context, ref model.ResourceReference, baseURL string) int64 {
	if ref.Kind.IsInline() || strings.HasPrefix(ref.Location, "data:") {
		return int64(len(ref.Location))
	}

	target, err := Resolve(baseURL, ref.Location)
	if err != nil {
		s.logger.Debug("unresolvable resource", "location", ref.Location, "error", err)
		return 0
	}
	return s.head(ctx, target)
}

// head issues a HEAD request and reads Content-Length.
func (s *Sizer) head(ctx context.Context, target string) int64 {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return 0
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		s.logger.Debug("failed to build HEAD request", "url", target, "error", err)
		return 0
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("HEAD request failed", "url", target, "error", err)
		return 0
	}
	if resp.Body != nil {
		defer resp.Body.Close()
	}

	if resp.StatusCode >= http.StatusBadRequest {
		s.logger.Debug("HEAD request returned error status", "url", target, "status", resp.StatusCode)
		return 0
	}

	return contentLength(resp)
}

// contentLength reads the Content-Length header, falling back to the
// length recorded by the transport.
func contentLength(resp *http.Response) int64 {
	if v := resp.Header.Get("Content-Length"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err == nil && n > 0 {
			return n
		}
		return 0
	}
	if resp.ContentLength > 0 {
		return resp.ContentLength
	}
	return 0
}

// Resolve turns location into an absolute http(s) URL relative to baseURL.
// An empty location resolves to the base itself.
func Resolve(baseURL, location string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return "", err
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", &url.Error{Op: "resolve", URL: abs.String(), Err: errUnsupportedScheme}
	}
	return abs.String(), nil
}
