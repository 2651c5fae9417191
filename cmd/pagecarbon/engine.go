package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/nao1215/pagecarbon/internal/carbon"
	"github.com/nao1215/pagecarbon/internal/config"
	"github.com/nao1215/pagecarbon/internal/fetch"
	"github.com/nao1215/pagecarbon/internal/model"
	"github.com/nao1215/pagecarbon/internal/pipeline"
	"github.com/nao1215/pagecarbon/internal/sizer"
)

// engine builds analysis pipelines that share one resource sizer and one
// estimator. Page fetch clients are created per host so that site cookies
// and headers reach only the site they were configured for.
type engine struct {
	cfg       *config.Config
	sizer     *sizer.Sizer
	estimator *carbon.Estimator
	saver     pipeline.Saver
	logger    *slog.Logger

	mu       sync.Mutex
	fetchers map[string]*fetch.Client
}

// newEngine creates an engine. saver may be nil, in which case reports are
// not persisted.
func newEngine(cfg *config.Config, saver pipeline.Saver, logger *slog.Logger) (*engine, error) {
	// Resources live on third-party hosts, so their client never carries
	// site credentials.
	userAgent := resourceUserAgent(cfg)
	resourceClient, err := fetch.NewClient(
		fetch.WithTimeout(cfg.ResourceTimeout),
		fetch.WithProxy(cfg.ProxyAddress),
		fetch.WithUserAgent(userAgent),
		fetch.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	carbonConfig := carbon.DefaultConfig()
	if cfg.SiteConfigs != nil {
		carbonConfig = cfg.SiteConfigs.CarbonConfig(carbonConfig)
	}
	estimator, err := carbon.NewEstimator(carbonConfig)
	if err != nil {
		return nil, fmt.Errorf("invalid carbon model: %w", err)
	}

	return &engine{
		cfg: cfg,
		sizer: sizer.New(resourceClient.HTTPClient(),
			sizer.WithTimeout(cfg.ResourceTimeout),
			sizer.WithRateLimit(cfg.RateLimit, cfg.Concurrency),
			sizer.WithUserAgent(userAgent),
			sizer.WithLogger(logger),
		),
		estimator: estimator,
		saver:     saver,
		logger:    logger,
		fetchers:  make(map[string]*fetch.Client),
	}, nil
}

// resourceUserAgent is the User-Agent for resource requests: the config
// file default when set, otherwise the --user-agent value.
func resourceUserAgent(cfg *config.Config) string {
	if cfg.SiteConfigs != nil && cfg.SiteConfigs.Defaults.UserAgent != "" {
		return cfg.SiteConfigs.Defaults.UserAgent
	}
	return cfg.UserAgent
}

// siteConfig returns the settings for the host of pageURL.
func (e *engine) siteConfig(pageURL string) config.SiteConfig {
	if e.cfg.SiteConfigs == nil {
		return config.SiteConfig{}
	}
	return e.cfg.SiteConfigs.GetSiteConfig(pageURL)
}

// fetcher returns the page client for the host of pageURL, creating it on
// first use.
func (e *engine) fetcher(pageURL string) (*fetch.Client, error) {
	site := e.siteConfig(pageURL)
	key := fetcherKey(pageURL)

	e.mu.Lock()
	defer e.mu.Unlock()
	if client, ok := e.fetchers[key]; ok {
		return client, nil
	}

	userAgent := e.cfg.UserAgent
	if site.UserAgent != "" {
		userAgent = site.UserAgent
	}
	opts := []fetch.Option{
		fetch.WithTimeout(e.cfg.Timeout),
		fetch.WithProxy(e.cfg.ProxyAddress),
		fetch.WithUserAgent(userAgent),
		fetch.WithMaxBodySize(e.cfg.MaxBodySize),
		fetch.WithLogger(e.logger),
	}
	if site.Cookie != "" {
		opts = append(opts, fetch.WithCookie(site.Cookie))
	}
	if len(site.Headers) > 0 {
		opts = append(opts, fetch.WithHeaders(site.Headers))
	}

	client, err := fetch.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	e.fetchers[key] = client
	return client, nil
}

// pipelineFor builds a fresh pipeline for req.
func (e *engine) pipelineFor(req model.AnalysisRequest) (*pipeline.Pipeline, error) {
	client, err := e.fetcher(req.TargetURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client for %s: %w", req.TargetURL, err)
	}
	return pipeline.NewAnalysisPipeline(pipeline.Deps{
		Fetcher:           client,
		Sizer:             e.sizer,
		Estimator:         e.estimator,
		Saver:             e.saver,
		Logger:            e.logger,
		SizingConcurrency: e.cfg.Concurrency,
	}), nil
}

// Analyze runs one analysis. It satisfies api.Analyzer.
func (e *engine) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisReport, error) {
	p, err := e.pipelineFor(req)
	if err != nil {
		return nil, err
	}
	return p.Analyze(ctx, req)
}

// fetcherKey is the cache key for page clients: the lower-case hostname.
func fetcherKey(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	return strings.ToLower(u.Hostname())
}
