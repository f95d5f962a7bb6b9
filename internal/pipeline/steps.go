package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/jsprobe/internal/extract"
	"github.com/nao1215/jsprobe/internal/model"
)

// ErrNoPage is returned by steps that need a fetched page when FetchStep
// has not run or did not store one.
var ErrNoPage = errors.New("no fetched page in job")

// PageFetcher retrieves one page. *fetcher.Fetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*model.FetchedPage, error)
}

// FetchStep retrieves the page and parses it for the extract steps.
type FetchStep struct {
	fetcher PageFetcher
	logger  *slog.Logger
}

// NewFetchStep creates a fetch step.
func NewFetchStep(f PageFetcher, logger *slog.Logger) *FetchStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchStep{fetcher: f, logger: logger}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do fetches job.URL. Fetch errors are returned unchanged so callers can
// inspect the *fetcher.FetchError.
func (s *FetchStep) Do(ctx context.Context, job *Job) error {
	page, err := s.fetcher.Fetch(ctx, job.URL)
	if err != nil {
		return err
	}

	if page.Truncated {
		s.logger.Warn("response body truncated", "url", job.URL)
	}

	// Non-HTML bodies still go through extraction: the free-text pass
	// applies to any text.
	switch {
	case page.IsEmpty():
		s.logger.Debug("empty response body", "url", job.URL)
	case !page.IsHTML():
		s.logger.Debug("non-HTML response",
			"url", job.URL,
			"content_type", page.GetHeader("Content-Type"),
		)
	}

	s.logger.Debug("page fetched",
		"url", job.URL,
		"status", page.StatusCode,
		"bytes", len(page.Body),
		"sha256", page.Hash,
	)

	job.Page = page
	job.Doc = extract.Parse(page.Body)
	return nil
}

// ExtractStep runs the JSON and endpoint extractors over the same parsed
// page. The two extractors share nothing and run concurrently.
type ExtractStep struct {
	json      *extract.JSONExtractor
	endpoints *extract.EndpointExtractor
}

// NewExtractStep creates an extract step.
func NewExtractStep(json *extract.JSONExtractor, endpoints *extract.EndpointExtractor) *ExtractStep {
	return &ExtractStep{json: json, endpoints: endpoints}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do stores the findings and endpoints in job.Result.
func (s *ExtractStep) Do(ctx context.Context, job *Job) error {
	if job.Doc == nil {
		return ErrNoPage
	}

	var (
		findings  []model.JSONFinding
		endpoints *model.EndpointSet
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		findings = s.json.ExtractPage(job.Doc)
		return nil
	})
	g.Go(func() error {
		endpoints = s.endpoints.ExtractPage(job.Doc)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	job.Result.Findings = append(job.Result.Findings, findings...)
	job.Result.Endpoints.Merge(endpoints)
	return nil
}

// ResourceStep records the external scripts and stylesheets of the page,
// resolved against the page URL. References that cannot be resolved are
// skipped.
type ResourceStep struct{}

// NewResourceStep creates a resource step.
func NewResourceStep() *ResourceStep {
	return &ResourceStep{}
}

// Name returns the step name.
func (s *ResourceStep) Name() string {
	return "resources"
}

// Do stores the resolved resource references in job.Result.
func (s *ResourceStep) Do(_ context.Context, job *Job) error {
	if job.Doc == nil {
		return ErrNoPage
	}

	// Relative references in a page resolve against the page itself, not
	// the site base URL. After a redirect that is the final URL.
	base := job.URL
	if job.Page != nil {
		base = job.Page.BaseURL()
	}
	pageSite, err := model.NewSiteContext(base, 0)
	if err != nil {
		return err
	}

	for _, ref := range job.Doc.ResourceRefs() {
		if resolved, ok := pageSite.Resolve(ref); ok {
			job.Result.Resources = append(job.Result.Resources, resolved)
		}
	}
	return nil
}
