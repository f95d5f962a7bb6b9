package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/jsprobe/internal/extract"
	"github.com/nao1215/jsprobe/internal/model"
)

// Job carries one URL through the pipeline. Steps read what earlier steps
// stored and add their own output. A Job belongs to a single Execute call
// and is never shared between goroutines except inside a step.
type Job struct {
	// URL is the page being analyzed.
	URL string

	// Page is the fetched page, set by FetchStep.
	Page *model.FetchedPage

	// Doc is the parsed page text, set by FetchStep.
	Doc *extract.Page

	// Result accumulates the extraction output.
	Result *model.PageResult

	// Steps records the names of the steps that completed.
	Steps []string
}

// NewJob creates a job for url with an empty result.
func NewJob(url string) *Job {
	return &Job{
		URL:    url,
		Result: model.NewPageResult(url),
		Steps:  make([]string, 0),
	}
}

// Step is one stage of page analysis.
type Step interface {
	// Do executes the step. An error stops the pipeline unless it was
	// built with WithContinueOnError.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline runs steps in order over a Job.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps executing later steps after one fails.
// Execute then returns the first error once all steps have run.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given steps and options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence. Cancellation is checked before
// each step; steps handle deadlines inside themselves.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	var firstErr error

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"url", job.URL,
				"reason", err,
			)
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", job.URL,
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Warn("step failed",
				"step", step.Name(),
				"url", job.URL,
				"error", err,
			)
			if !p.continueOnError {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		job.Steps = append(job.Steps, step.Name())
	}

	return firstErr
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
