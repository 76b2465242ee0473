package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/privacylens/internal/browser"
	"github.com/nao1215/privacylens/internal/model"
	"github.com/nao1215/privacylens/internal/scanner"
)

// Aggregator produces one report per target: it renders the page, runs
// the steps over it and seals the result.
type Aggregator struct {
	renderer browser.Renderer
	scanner  *scanner.Scanner
	steps    []Step
	logger   *slog.Logger
	now      func() time.Time
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithScanner sets the resource scanner used by the default steps.
func WithScanner(s *scanner.Scanner) AggregatorOption {
	return func(a *Aggregator) {
		a.scanner = s
	}
}

// WithSteps replaces DefaultSteps.
func WithSteps(steps ...Step) AggregatorOption {
	return func(a *Aggregator) {
		a.steps = steps
	}
}

// WithAggregatorLogger sets the logger.
func WithAggregatorLogger(logger *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithClock sets the time source for report timestamps.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAggregator creates an Aggregator that renders pages with renderer.
func NewAggregator(renderer browser.Renderer, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		renderer: renderer,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.scanner == nil {
		a.scanner = scanner.New(scanner.WithLogger(a.logger))
	}
	if a.steps == nil {
		a.steps = DefaultSteps(a.scanner, a.logger)
	}
	return a
}

// Analyze renders target and returns its sealed report. Rendering and
// parsing failures are returned as errors. Step failures are logged and
// leave the fields of that step at their zero values; later steps still
// run and the report is returned.
func (a *Aggregator) Analyze(ctx context.Context, target browser.Target) (*model.AnalysisReport, error) {
	page, err := a.renderer.Render(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", target.URL, err)
	}
	return a.AnalyzePage(ctx, page)
}

// AnalyzePage runs the steps over an already rendered page. The report
// timestamp is the time the steps start, after the observation window.
func (a *Aggregator) AnalyzePage(ctx context.Context, page *model.Page) (*model.AnalysisReport, error) {
	doc, err := NewDocument(page)
	if err != nil {
		return nil, err
	}

	report := model.NewAnalysisReport(page.URL, a.now())
	p := New(WithLogger(a.logger), WithContinueOnError(true))
	p.AddSteps(a.steps...)
	a.logger.DebugContext(ctx, "running analysis steps",
		slog.String("url", page.URL),
		slog.Any("steps", p.StepNames()),
	)
	if err := p.Execute(ctx, doc, report); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		a.logger.WarnContext(ctx, "analysis completed with step failures",
			slog.String("url", page.URL),
			slog.Any("error", err),
		)
	}

	a.logger.InfoContext(ctx, "analysis complete",
		slog.String("url", report.URL),
		slog.Int("third_party_domains", len(report.ThirdPartyDomains)),
		slog.Int("eval_patterns", len(report.EvalPatterns)),
		slog.Int("fingerprinting_apis", len(report.FingerprintingAPIs)),
		slog.Int("score", model.Score(report)),
	)
	return report.Clone(), nil
}
