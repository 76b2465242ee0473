package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/privacylens/internal/model"
	"github.com/nao1215/privacylens/internal/pattern"
	"github.com/nao1215/privacylens/internal/scanner"
)

// Step names, in DefaultSteps order.
const (
	StepResources          = "resources"
	StepEvalPatterns       = "eval_patterns"
	StepFingerprintingAPIs = "fingerprinting_apis"
	StepFontFingerprinting = "font_fingerprinting"
	StepRuntimeSignals     = "runtime_signals"
	StepCookies            = "cookies"
)

// DefaultSteps returns the analysis steps in their fixed order.
func DefaultSteps(s *scanner.Scanner, logger *slog.Logger) []Step {
	return []Step{
		NewResourcesStep(s),
		&EvalPatternsStep{},
		&FingerprintingAPIsStep{logger: logger},
		&FontFingerprintingStep{},
		&RuntimeSignalsStep{},
		&CookiesStep{},
	}
}

// ResourcesStep records third-party resources and domains.
type ResourcesStep struct {
	scanner *scanner.Scanner
}

// NewResourcesStep creates a ResourcesStep. A nil scanner uses the
// defaults.
func NewResourcesStep(s *scanner.Scanner) *ResourcesStep {
	if s == nil {
		s = scanner.New()
	}
	return &ResourcesStep{scanner: s}
}

// Name returns the step name.
func (s *ResourcesStep) Name() string {
	return StepResources
}

// Do executes the step.
func (s *ResourcesStep) Do(ctx context.Context, doc *Document, report *model.AnalysisReport) error {
	res := s.scanner.Scan(ctx, doc.DOM, doc.Base)
	report.ThirdPartyResources = res.Resources
	for _, d := range res.Domains {
		report.AddThirdPartyDomain(d)
	}
	return nil
}

// EvalPatternsStep records dynamic-code constructs in script text.
type EvalPatternsStep struct{}

// Name returns the step name.
func (s *EvalPatternsStep) Name() string {
	return StepEvalPatterns
}

// Do executes the step.
func (s *EvalPatternsStep) Do(_ context.Context, doc *Document, report *model.AnalysisReport) error {
	report.EvalPatterns = append(report.EvalPatterns, pattern.DetectEvalPatterns(doc.Scripts)...)
	return nil
}

// FingerprintingAPIsStep records fingerprinting API names referenced by
// script text.
type FingerprintingAPIsStep struct {
	logger *slog.Logger
}

// Name returns the step name.
func (s *FingerprintingAPIsStep) Name() string {
	return StepFingerprintingAPIs
}

// Do executes the step.
func (s *FingerprintingAPIsStep) Do(ctx context.Context, doc *Document, report *model.AnalysisReport) error {
	for _, api := range pattern.DetectFingerprintingAPIs(doc.Scripts) {
		if report.AddFingerprintingAPI(api) && s.logger != nil {
			s.logger.DebugContext(ctx, "fingerprinting API referenced",
				slog.String("api", api),
				slog.String("family", pattern.Family(api)),
			)
		}
	}
	return nil
}

// FontFingerprintingStep applies the font enumeration heuristic.
type FontFingerprintingStep struct{}

// Name returns the step name.
func (s *FontFingerprintingStep) Name() string {
	return StepFontFingerprinting
}

// Do executes the step.
func (s *FontFingerprintingStep) Do(_ context.Context, doc *Document, report *model.AnalysisReport) error {
	report.FontFingerprinting = pattern.DetectFontFingerprinting(doc.Scripts)
	return nil
}

// RuntimeSignalsStep copies the renderer's signal snapshot into the report.
type RuntimeSignalsStep struct{}

// Name returns the step name.
func (s *RuntimeSignalsStep) Name() string {
	return StepRuntimeSignals
}

// Do executes the step.
func (s *RuntimeSignalsStep) Do(_ context.Context, doc *Document, report *model.AnalysisReport) error {
	sig := doc.Page.Signals
	report.CanvasFingerprinting = sig.Canvas
	report.WebGLFingerprinting = sig.WebGL
	report.LocalStorageAccess = sig.LocalStorage
	return nil
}

// CookiesStep counts the cookies visible to page scripts.
type CookiesStep struct{}

// Name returns the step name.
func (s *CookiesStep) Name() string {
	return StepCookies
}

// Do executes the step.
func (s *CookiesStep) Do(_ context.Context, doc *Document, report *model.AnalysisReport) error {
	report.CookieCount = scanner.CountCookies(doc.Page.Cookie)
	return nil
}
