package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/jsprobe/internal/fetcher"
	"github.com/nao1215/jsprobe/internal/model"
)

// funcAnalyzer adapts a function to URLAnalyzer.
type funcAnalyzer func(ctx context.Context, url string) (*model.PageResult, error)

func (f funcAnalyzer) Analyze(ctx context.Context, url string) (*model.PageResult, error) {
	return f(ctx, url)
}

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	noop := funcAnalyzer(func(_ context.Context, url string) (*model.PageResult, error) {
		return model.NewPageResult(url), nil
	})

	t.Run("defaults to sequential processing", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(noop)
		if bp.Concurrency() != 1 {
			t.Errorf("expected default concurrency 1, got %d", bp.Concurrency())
		}
		if bp.logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		if bp := NewBatchProcessor(noop, WithConcurrency(5)); bp.Concurrency() != 5 {
			t.Errorf("expected concurrency 5, got %d", bp.Concurrency())
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		if bp := NewBatchProcessor(noop, WithConcurrency(0)); bp.Concurrency() != 1 {
			t.Errorf("expected concurrency 1, got %d", bp.Concurrency())
		}
	})
}

// TestBatchProcessorProcessBatch tests batch processing.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("failure does not stop the batch", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<script>fetch("/api/ping")</script>`)) //nolint:errcheck
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		dead := httptest.NewServer(http.NotFoundHandler())
		deadURL := dead.URL + "/"
		dead.Close()

		site, err := model.NewSiteContext(server.URL, 0)
		if err != nil {
			t.Fatalf("NewSiteContext() error: %v", err)
		}
		f, err := fetcher.New(fetcher.WithTimeout(2 * time.Second))
		if err != nil {
			t.Fatalf("fetcher.New() error: %v", err)
		}

		bp := NewBatchProcessor(NewAnalyzer(f, site))
		result, err := bp.ProcessBatch(context.Background(), []string{deadURL, server.URL + "/ok"})
		if err != nil {
			t.Fatalf("ProcessBatch() error: %v", err)
		}

		if len(result.Outcomes) != 2 {
			t.Fatalf("expected 2 outcomes, got %d", len(result.Outcomes))
		}

		first := result.Outcomes[0]
		if first.OK() {
			t.Error("expected first URL to fail")
		}
		var fetchErr *fetcher.FetchError
		if !errors.As(first.Err, &fetchErr) {
			t.Errorf("expected *FetchError, got %T: %v", first.Err, first.Err)
		}

		second := result.Outcomes[1]
		if !second.OK() {
			t.Fatalf("expected second URL to succeed, got %v", second.Err)
		}
		if !second.Result.Endpoints.Has(server.URL + "/api/ping") {
			t.Errorf("unexpected endpoints %v", second.Result.Endpoints.Sorted())
		}

		if result.RunID == "" {
			t.Error("expected run ID")
		}
		if result.SucceededCount() != 1 || result.FailedCount() != 1 {
			t.Errorf("unexpected counts: %d ok, %d failed", result.SucceededCount(), result.FailedCount())
		}
	})

	t.Run("keeps input order under concurrency", func(t *testing.T) {
		t.Parallel()

		analyzer := funcAnalyzer(func(_ context.Context, url string) (*model.PageResult, error) {
			if url == "https://a.test/" {
				time.Sleep(20 * time.Millisecond)
			}
			return model.NewPageResult(url), nil
		})

		urls := []string{"https://a.test/", "https://b.test/", "https://c.test/"}
		result, err := NewBatchProcessor(analyzer, WithConcurrency(3)).ProcessBatch(context.Background(), urls)
		if err != nil {
			t.Fatalf("ProcessBatch() error: %v", err)
		}
		for i, o := range result.Outcomes {
			if o.URL != urls[i] {
				t.Errorf("outcome %d: expected %q, got %q", i, urls[i], o.URL)
			}
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var inFlight, peak atomic.Int32
		analyzer := funcAnalyzer(func(_ context.Context, url string) (*model.PageResult, error) {
			n := inFlight.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			inFlight.Add(-1)
			return model.NewPageResult(url), nil
		})

		urls := make([]string, 8)
		for i := range urls {
			urls[i] = "https://example.com/"
		}
		if _, err := NewBatchProcessor(analyzer, WithConcurrency(2)).ProcessBatch(context.Background(), urls); err != nil {
			t.Fatalf("ProcessBatch() error: %v", err)
		}
		if peak.Load() > 2 {
			t.Errorf("expected at most 2 in flight, saw %d", peak.Load())
		}
	})

	t.Run("cancelled context fills every outcome", func(t *testing.T) {
		t.Parallel()

		analyzer := funcAnalyzer(func(_ context.Context, url string) (*model.PageResult, error) {
			return model.NewPageResult(url), nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		urls := []string{"https://a.test/", "https://b.test/"}
		result, err := NewBatchProcessor(analyzer).ProcessBatch(ctx, urls)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		for i, o := range result.Outcomes {
			if o.OK() || !errors.Is(o.Err, context.Canceled) {
				t.Errorf("outcome %d: expected cancellation, got %+v", i, o)
			}
		}
	})
}

// TestBatchProcessorSharedPacing tests that workers share one pacing gate.
func TestBatchProcessorSharedPacing(t *testing.T) {
	t.Parallel()

	const (
		delay = 40 * time.Millisecond
		// Slack for loopback and scheduling jitter between the pacer
		// releasing a request and the handler seeing it.
		jitter = delay / 4
	)

	var (
		mu       sync.Mutex
		arrivals []time.Time
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	site, err := model.NewSiteContext(server.URL, delay)
	if err != nil {
		t.Fatalf("NewSiteContext() error: %v", err)
	}
	f, err := fetcher.New(fetcher.WithDelay(site.RequestDelay(), fetcher.PaceBetween))
	if err != nil {
		t.Fatalf("fetcher.New() error: %v", err)
	}

	urls := []string{server.URL + "/1", server.URL + "/2", server.URL + "/3", server.URL + "/4"}
	bp := NewBatchProcessor(NewAnalyzer(f, site), WithConcurrency(len(urls)))

	if _, err := bp.ProcessBatch(context.Background(), urls); err != nil {
		t.Fatalf("ProcessBatch() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if len(arrivals) != len(urls) {
		t.Fatalf("server saw %d requests, want %d", len(arrivals), len(urls))
	}
	sort.Slice(arrivals, func(i, j int) bool { return arrivals[i].Before(arrivals[j]) })
	for i := 1; i < len(arrivals); i++ {
		if gap := arrivals[i].Sub(arrivals[i-1]); gap < delay-jitter {
			t.Errorf("requests %d and %d arrived %v apart, want at least %v", i-1, i, gap, delay)
		}
	}
}

// TestBatchProcessorWithCallback tests streaming outcomes.
func TestBatchProcessorWithCallback(t *testing.T) {
	t.Parallel()

	analyzer := funcAnalyzer(func(_ context.Context, url string) (*model.PageResult, error) {
		if url == "https://bad.test/" {
			return nil, errors.New("unreachable")
		}
		return model.NewPageResult(url), nil
	})

	var (
		mu   sync.Mutex
		seen = make(map[int]model.Outcome)
	)
	urls := []string{"https://good.test/", "https://bad.test/"}
	err := NewBatchProcessor(analyzer, WithConcurrency(2)).ProcessBatchWithCallback(
		context.Background(), urls,
		func(o model.Outcome, i int) {
			mu.Lock()
			defer mu.Unlock()
			seen[i] = o
		},
	)
	if err != nil {
		t.Fatalf("ProcessBatchWithCallback() error: %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("expected 2 callbacks, got %d", len(seen))
	}
	if !seen[0].OK() {
		t.Error("expected first outcome to succeed")
	}
	if seen[1].OK() || seen[1].ErrorMessage != "unreachable" {
		t.Errorf("unexpected second outcome %+v", seen[1])
	}
}

// TestBatchProcessorProgress tests the progress hook of ProcessBatch.
func TestBatchProcessorProgress(t *testing.T) {
	t.Parallel()

	analyzer := funcAnalyzer(func(_ context.Context, url string) (*model.PageResult, error) {
		return model.NewPageResult(url), nil
	})

	var calls atomic.Int32
	bp := NewBatchProcessor(analyzer,
		WithConcurrency(2),
		WithProgress(func(o model.Outcome, _ int) {
			if o.OK() {
				calls.Add(1)
			}
		}),
	)

	if _, err := bp.ProcessBatch(context.Background(), []string{"https://a.test/", "https://b.test/", "https://c.test/"}); err != nil {
		t.Fatalf("ProcessBatch() error: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 progress calls, got %d", calls.Load())
	}
}
