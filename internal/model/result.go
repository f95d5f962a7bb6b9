package model

import "time"

// PageResult is everything extracted from one fetched page.
// It is built entirely inside one analyzer call; callers receive it
// finished and should treat it as read-only.
type PageResult struct {
	// URL is the analyzed page URL.
	URL string `json:"url"`

	// Findings are the JSON values found in the page, in encounter order.
	// Free-text findings come first, followed by script-variable findings.
	Findings []JSONFinding `json:"json_data"`

	// Endpoints are the absolute URLs referenced by inline script code.
	Endpoints *EndpointSet `json:"js_endpoints"`

	// Resources are external script and stylesheet references of the page,
	// resolved against the page URL, in document order.
	Resources []string `json:"resources,omitempty"`

	// AnalyzedAt is the time extraction finished.
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// NewPageResult creates an empty result for url.
func NewPageResult(url string) *PageResult {
	return &PageResult{
		URL:       url,
		Findings:  make([]JSONFinding, 0),
		Endpoints: NewEndpointSet(),
		Resources: make([]string, 0),
	}
}

// IsEmpty reports whether nothing at all was extracted.
func (r *PageResult) IsEmpty() bool {
	return len(r.Findings) == 0 && r.Endpoints.Len() == 0 && len(r.Resources) == 0
}

// NamedFindings returns only the findings tagged with an identifier.
func (r *PageResult) NamedFindings() []JSONFinding {
	named := make([]JSONFinding, 0)
	for _, f := range r.Findings {
		if f.IsNamed() {
			named = append(named, f)
		}
	}
	return named
}

// Outcome is the result of analyzing one URL in a batch: either a
// PageResult or the error that prevented one. Exactly one of Result and
// Err is set.
type Outcome struct {
	// URL is the URL that was analyzed.
	URL string `json:"url"`

	// Result is set when analysis succeeded.
	Result *PageResult `json:"result,omitempty"`

	// Err is set when the page could not be retrieved or the run was cancelled.
	Err error `json:"-"`

	// ErrorMessage mirrors Err for JSON output.
	ErrorMessage string `json:"error,omitempty"`
}

// Succeeded creates a successful outcome.
func Succeeded(result *PageResult) Outcome {
	return Outcome{URL: result.URL, Result: result}
}

// Failed creates a failed outcome.
func Failed(url string, err error) Outcome {
	return Outcome{URL: url, Err: err, ErrorMessage: err.Error()}
}

// OK reports whether the outcome carries a result.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Result != nil
}

// BatchResult collects the outcomes of one batch run.
type BatchResult struct {
	// RunID identifies the run in logs and reports.
	RunID string `json:"run_id"`

	// Outcomes holds one entry per input URL, in input order.
	Outcomes []Outcome `json:"outcomes"`

	// StartedAt is the time the run started.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// SucceededCount returns the number of URLs that were analyzed.
func (b *BatchResult) SucceededCount() int {
	n := 0
	for _, o := range b.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// FailedCount returns the number of URLs that could not be analyzed.
func (b *BatchResult) FailedCount() int {
	return len(b.Outcomes) - b.SucceededCount()
}

// Results returns the successful page results in input order.
func (b *BatchResult) Results() []*PageResult {
	results := make([]*PageResult, 0, len(b.Outcomes))
	for _, o := range b.Outcomes {
		if o.OK() {
			results = append(results, o.Result)
		}
	}
	return results
}
