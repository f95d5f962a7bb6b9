package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/nao1215/jsprobe/internal/model"
)

const (
	// DefaultUserAgent identifies the tool to the servers it talks to.
	DefaultUserAgent = "SecurityResearchParser/1.0"

	// DefaultAccept prefers JSON but accepts anything.
	DefaultAccept = "application/json,*/*"

	// DefaultTimeout bounds a single request including the body read.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize is the largest body read from a response (5MB).
	// Anything beyond it is dropped and the page is marked truncated.
	DefaultMaxBodySize int64 = 5 * 1024 * 1024
)

// HeaderFunc returns extra request headers for the given target host.
// It is how per-site cookies and headers reach the fetcher.
// Returning nil adds nothing.
type HeaderFunc func(host string) map[string]string

// Fetcher retrieves pages over HTTP(S), one GET per call, after waiting on
// its pacing gate. A single Fetcher is meant to be shared by every worker
// of a run so that the politeness delay applies globally.
//
// A Fetcher is safe for concurrent use.
type Fetcher struct {
	// client is the resty client used for every request.
	client *resty.Client

	// pacer spaces request starts apart.
	pacer *Pacer

	// userAgent is the User-Agent header sent with every request.
	userAgent string

	// accept is the Accept header sent with every request.
	accept string

	// timeout bounds a single request.
	timeout time.Duration

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// proxyURL routes requests through a SOCKS5 or HTTP proxy when set.
	proxyURL string

	// headers supplies per-site request headers.
	headers HeaderFunc

	// logger receives request-level debug logs.
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithPacer sets the pacing gate. Pass the same Pacer to every Fetcher
// that must share a politeness budget.
func WithPacer(p *Pacer) Option {
	return func(f *Fetcher) {
		f.pacer = p
	}
}

// WithDelay is shorthand for WithPacer(NewPacer(d, policy)).
func WithDelay(d time.Duration, policy PacingPolicy) Option {
	return func(f *Fetcher) {
		f.pacer = NewPacer(d, policy)
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithProxy routes every request through proxyURL.
func WithProxy(proxyURL string) Option {
	return func(f *Fetcher) {
		f.proxyURL = proxyURL
	}
}

// WithHeaders sets the per-site header source.
func WithHeaders(fn HeaderFunc) Option {
	return func(f *Fetcher) {
		f.headers = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a Fetcher. Without options it sends the default headers,
// does not pace requests and connects directly.
func New(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		userAgent:   DefaultUserAgent,
		accept:      DefaultAccept,
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	client := resty.New().
		SetTimeout(f.timeout).
		SetRetryCount(0).
		SetLogger(newSlogAdapter(f.logger)).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	transport, err := newTransport(f.proxyURL)
	if err != nil {
		return nil, err
	}
	if transport != nil {
		client.SetTransport(transport)
	}

	f.client = client

	return f, nil
}

// Pacer returns the pacing gate in use.
func (f *Fetcher) Pacer() *Pacer {
	return f.pacer
}

// Fetch waits on the pacing gate and then issues exactly one GET for
// rawURL. Any transport failure, non-2xx status or cancellation is
// reported as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*model.FetchedPage, error) {
	if err := f.pacer.Wait(ctx); err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	req := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("User-Agent", f.userAgent).
		SetHeader("Accept", f.accept)

	if f.headers != nil {
		if u, err := url.Parse(rawURL); err == nil {
			for k, v := range f.headers(u.Hostname()) {
				req.SetHeader(k, v)
			}
		}
	}

	resp, err := req.Get(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	raw := resp.RawBody()
	defer raw.Close()

	f.logger.DebugContext(ctx, "request completed",
		"url", rawURL,
		"status", resp.StatusCode(),
		"duration", resp.Time(),
	)

	if !resp.IsSuccess() {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(raw, 4096)) //nolint:errcheck // best effort
		return nil, &FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("%w: %s", ErrUnexpectedStatus, http.StatusText(resp.StatusCode())),
		}
	}

	contentType := resp.Header().Get("Content-Type")
	body, truncated, err := readBody(raw, f.maxBodySize, contentType)
	if err != nil {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode(), Err: err}
	}

	finalURL := rawURL
	if r := resp.RawResponse; r != nil && r.Request != nil && r.Request.URL != nil {
		finalURL = r.Request.URL.String()
	}

	page := &model.FetchedPage{
		URL:         rawURL,
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode(),
		ContentType: contentType,
		Headers:     resp.Header(),
		Body:        body,
		Truncated:   truncated,
	}
	page.ComputeHash()

	return page, nil
}

// readBody reads at most limit bytes of r and decodes them to UTF-8.
func readBody(r io.Reader, limit int64, contentType string) (string, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", false, fmt.Errorf("failed to read response body: %w", err)
	}

	truncated := int64(len(data)) > limit
	if truncated {
		data = data[:limit]
	}

	return decodeBody(data, contentType), truncated, nil
}

// decodeBody converts data to UTF-8 using the charset declared by the
// Content-Type header, a byte order mark, or a <meta> tag.
// Bodies that are already valid UTF-8 are kept as is unless a charset was
// declared explicitly.
func decodeBody(data []byte, contentType string) string {
	enc, name, certain := charset.DetermineEncoding(data, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(data)) {
		return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

// slogAdapter routes resty's internal log output to slog.
type slogAdapter struct {
	logger *slog.Logger
}

var _ resty.Logger = (*slogAdapter)(nil)

func newSlogAdapter(logger *slog.Logger) *slogAdapter {
	return &slogAdapter{logger: logger.With("component", "resty")}
}

// Errorf implements resty.Logger.
func (a *slogAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

// Warnf implements resty.Logger.
func (a *slogAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn(fmt.Sprintf(format, v...))
}

// Debugf implements resty.Logger.
func (a *slogAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, v...))
}
