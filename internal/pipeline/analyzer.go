package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/jsprobe/internal/extract"
	"github.com/nao1215/jsprobe/internal/fetcher"
	"github.com/nao1215/jsprobe/internal/model"
)

// Analyzer turns one URL into one PageResult by running the default
// pipeline: fetch, extract, resources.
//
// An Analyzer is safe for concurrent use as long as its PageFetcher is.
// Every Analyze call fetches again; nothing is cached.
type Analyzer struct {
	fetcher   PageFetcher
	site      model.SiteContext
	json      *extract.JSONExtractor
	endpoints *extract.EndpointExtractor
	resources bool
	logger    *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithJSONExtractor replaces the default JSON extractor.
func WithJSONExtractor(e *extract.JSONExtractor) AnalyzerOption {
	return func(a *Analyzer) {
		a.json = e
	}
}

// WithEndpointExtractor replaces the default endpoint extractor.
func WithEndpointExtractor(e *extract.EndpointExtractor) AnalyzerOption {
	return func(a *Analyzer) {
		a.endpoints = e
	}
}

// WithResources controls whether external script and stylesheet
// references are collected. Enabled by default.
func WithResources(enabled bool) AnalyzerOption {
	return func(a *Analyzer) {
		a.resources = enabled
	}
}

// WithAnalyzerLogger sets the logger.
func WithAnalyzerLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer creates an Analyzer that fetches through f and resolves
// endpoints against site.
func NewAnalyzer(f PageFetcher, site model.SiteContext, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		fetcher:   f,
		site:      site,
		resources: true,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.json == nil {
		a.json = extract.NewJSONExtractor(extract.WithJSONLogger(a.logger))
	}
	if a.endpoints == nil {
		a.endpoints = extract.NewEndpointExtractor(site, extract.WithEndpointLogger(a.logger))
	}

	return a
}

// Site returns the site context used for endpoint resolution.
func (a *Analyzer) Site() model.SiteContext {
	return a.site
}

// Pipeline builds a fresh pipeline with the analyzer's steps.
func (a *Analyzer) Pipeline() *Pipeline {
	p := New(WithLogger(a.logger))
	p.AddSteps(
		NewFetchStep(a.fetcher, a.logger),
		NewExtractStep(a.json, a.endpoints),
	)
	if a.resources {
		p.AddStep(NewResourceStep())
	}
	return p
}

// Analyze fetches url and extracts everything from it.
//
// When the page cannot be retrieved the result is nil and the error is a
// *fetcher.FetchError. That includes a context cancelled before the fetch
// started; errors.Is still reports context.Canceled through it. A page that
// yields nothing is not an error: the result is simply empty.
func (a *Analyzer) Analyze(ctx context.Context, url string) (*model.PageResult, error) {
	job := NewJob(url)
	if err := a.Pipeline().Execute(ctx, job); err != nil {
		var fetchErr *fetcher.FetchError
		if job.Page == nil && !errors.As(err, &fetchErr) {
			err = &fetcher.FetchError{URL: url, Err: err}
		}
		return nil, err
	}

	job.Result.AnalyzedAt = time.Now()

	a.logger.Info("page analyzed",
		"url", url,
		"findings", len(job.Result.Findings),
		"endpoints", job.Result.Endpoints.Len(),
		"resources", len(job.Result.Resources),
	)
	return job.Result, nil
}
