package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/privacylens/internal/model"
)

// Step is one stage of the analysis. Steps run in sequence, each receiving
// the document and the report filled in by earlier steps.
type Step interface {
	// Do executes the step. A returned error is logged and recorded; it
	// does not undo what earlier steps wrote.
	Do(ctx context.Context, doc *Document, report *model.AnalysisReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline runs steps in order.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps running later steps after a step fails. All
// failures are then returned together.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a Pipeline. Steps are added with AddStep or AddSteps.
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

// Execute runs the steps in order. Cancellation is checked before each
// step. Without continue-on-error the first failure stops the run;
// otherwise every failure is collected and returned joined.
func (p *Pipeline) Execute(ctx context.Context, doc *Document, report *model.AnalysisReport) error {
	var errs []error
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.WarnContext(ctx, "pipeline cancelled",
				slog.String("step", step.Name()),
				slog.Any("reason", err),
			)
			return errors.Join(append(errs, err)...)
		}

		if err := step.Do(ctx, doc, report); err != nil {
			p.logger.ErrorContext(ctx, "step failed",
				slog.String("step", step.Name()),
				slog.String("url", report.URL),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", step.Name(), err))
			if !p.continueOnError {
				return errs[0]
			}
			continue
		}
		p.logger.DebugContext(ctx, "step completed",
			slog.String("step", step.Name()),
			slog.String("url", report.URL),
		)
	}
	return errors.Join(errs...)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
