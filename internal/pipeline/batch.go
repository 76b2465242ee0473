package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/privacylens/internal/browser"
	"github.com/nao1215/privacylens/internal/model"
)

// Result is the outcome of analyzing one target in a batch.
type Result struct {
	Target browser.Target
	Report *model.AnalysisReport
	Err    error
}

// BatchProcessor analyzes several targets concurrently.
type BatchProcessor struct {
	// aggregatorFactory returns the aggregator for a target, so per-site
	// settings can differ between targets.
	aggregatorFactory func(browser.Target) *Aggregator
	concurrency       int
	logger            *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent analyses.
// Default is 4.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor.
func NewBatchProcessor(aggregatorFactory func(browser.Target) *Aggregator, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		aggregatorFactory: aggregatorFactory,
		concurrency:       4,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch analyzes targets and returns one result per target in input
// order. A failed target is recorded in its Result and does not stop the
// others; the returned error is only set when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []browser.Target) ([]Result, error) {
	results := make([]Result, len(targets))
	err := bp.ProcessBatchWithCallback(ctx, targets, func(r Result, i int) {
		results[i] = r
	})
	return results, err
}

// ProcessBatchWithCallback analyzes targets and calls callback for each
// completed target with its index in targets. callback is called from
// worker goroutines and must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []browser.Target,
	callback func(r Result, index int),
) error {
	bp.logger.InfoContext(ctx, "starting batch analysis",
		slog.Int("total_targets", len(targets)),
		slog.Int("concurrency", bp.concurrency),
	)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				callback(Result{Target: target, Err: err}, i)
				return err
			}

			bp.logger.InfoContext(gctx, "analyzing target",
				slog.String("url", target.URL),
				slog.Int("index", i+1),
				slog.Int("total", len(targets)),
			)
			report, err := bp.aggregatorFactory(target).Analyze(gctx, target)
			if err != nil {
				bp.logger.WarnContext(gctx, "analysis failed",
					slog.String("url", target.URL),
					slog.Any("error", err),
				)
			}
			callback(Result{Target: target, Report: report, Err: err}, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.InfoContext(ctx, "batch analysis complete",
		slog.Int("total_targets", len(targets)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return err
}
