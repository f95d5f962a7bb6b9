package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/jsprobe/internal/model"
)

// URLAnalyzer analyzes a single URL. *Analyzer implements it.
type URLAnalyzer interface {
	Analyze(ctx context.Context, url string) (*model.PageResult, error)
}

// BatchProcessor analyzes many URLs with a bounded number of workers.
// A failed URL never stops the batch: its Outcome carries the error and
// the remaining URLs are still analyzed.
//
// All workers share one URLAnalyzer, and so one fetcher and one pacing
// gate. Raising the concurrency never raises the request rate above the
// configured delay.
type BatchProcessor struct {
	// analyzer is shared by every worker.
	analyzer URLAnalyzer

	// concurrency is the maximum number of URLs in flight.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// progress is called by ProcessBatch as each URL finishes.
	progress func(outcome model.Outcome, index int)
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of URLs in flight.
// Default is 1, which analyzes URLs strictly one after another.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithProgress sets a function ProcessBatch calls as each URL finishes.
// It runs on the worker goroutine and must be safe for concurrent use when
// the concurrency is above one.
func WithProgress(fn func(outcome model.Outcome, index int)) BatchOption {
	return func(b *BatchProcessor) {
		b.progress = fn
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(analyzer URLAnalyzer, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		analyzer:    analyzer,
		concurrency: 1,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// Concurrency returns the worker limit.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessBatch analyzes urls and returns one Outcome per URL in input
// order. The error is non-nil only when ctx was cancelled; URLs that were
// not reached then carry the cancellation error in their Outcome.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) (*model.BatchResult, error) {
	result := &model.BatchResult{
		RunID:     uuid.NewString(),
		Outcomes:  make([]model.Outcome, len(urls)),
		StartedAt: time.Now(),
	}

	err := bp.run(ctx, result.RunID, urls, func(o model.Outcome, i int) {
		// Each index is written by exactly one worker.
		result.Outcomes[i] = o
		if bp.progress != nil {
			bp.progress(o, i)
		}
	})

	result.Elapsed = time.Since(result.StartedAt)
	bp.logger.Info("batch complete",
		"run_id", result.RunID,
		"total", len(urls),
		"succeeded", result.SucceededCount(),
		"failed", result.FailedCount(),
		"elapsed", result.Elapsed,
	)

	return result, err
}

// ProcessBatchWithCallback analyzes urls and calls callback as each one
// finishes. The callback runs on the worker goroutine, so it must be safe
// for concurrent use when the concurrency is above one.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	urls []string,
	callback func(outcome model.Outcome, index int),
) error {
	return bp.run(ctx, uuid.NewString(), urls, callback)
}

// run is the worker loop shared by both entry points.
func (bp *BatchProcessor) run(
	ctx context.Context,
	runID string,
	urls []string,
	record func(outcome model.Outcome, index int),
) error {
	bp.logger.Info("starting batch",
		"run_id", runID,
		"total", len(urls),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, url := range urls {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				record(model.Failed(url, err), i)
				return err
			}

			bp.logger.Debug("analyzing",
				"run_id", runID,
				"url", url,
				"index", i+1,
				"total", len(urls),
			)

			result, err := bp.analyzer.Analyze(ctx, url)
			if err != nil {
				bp.logger.Warn("analysis failed",
					"run_id", runID,
					"url", url,
					"error", err,
				)
				record(model.Failed(url, err), i)
				// Keep going with the other URLs.
				return nil
			}

			record(model.Succeeded(result), i)
			return nil
		})
	}

	return g.Wait()
}
