package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/privacylens/internal/browser"
	"github.com/nao1215/privacylens/internal/model"
	"github.com/nao1215/privacylens/internal/pattern"
	"github.com/nao1215/privacylens/internal/scanner"
)

const (
	trackingScript = `
  var ua = navigator.userAgent;
  var w = screen.width;
  var r = eval("1 + 1");
  var c = document.createElement('canvas');
  c.toDataURL();
`
	writerScript = `
  function later() { document.write('<p>x</p>'); setTimeout("track()", 10); }
  document.cookie = "uid=abc";
`
)

const newsPage = `<!DOCTYPE html>
<html><head>
<script src="https://www.google-analytics.com/analytics.js"></script>
<script src="/js/app.js"></script>
<link rel="stylesheet" href="https://fonts.googleapis.com/css?family=Roboto">
<link rel="stylesheet" href="/css/site.css">
</head><body>
<img src="https://pixel.facebook.com/tr?id=1">
<img data-src="https://cdn.images.test/a.png">
<img src="/logo.png">
<img src="https://static.news.example.com/banner.png">
<iframe src="https://www.youtube.com/embed/abc"></iframe>
<script>` + trackingScript + `</script>
<script>` + writerScript + `</script>
</body></html>`

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestAggregatorAnalyze(t *testing.T) {
	t.Parallel()

	renderer := browser.NewSandboxRenderer(nil, browser.WithSandboxWindow(time.Second))
	agg := NewAggregator(renderer, WithClock(func() time.Time { return fixedTime }))

	got, err := agg.Analyze(context.Background(), browser.Target{
		URL:  "https://news.example.com/article",
		HTML: newsPage,
	})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	want := &model.AnalysisReport{
		URL:       "https://news.example.com/article",
		Timestamp: fixedTime,
		ThirdPartyDomains: []string{
			"google-analytics.com",
			"facebook.com",
			"images.test",
			"googleapis.com",
			"youtube.com",
		},
		ThirdPartyResources: model.ThirdPartyResources{
			Scripts:     []string{"www.google-analytics.com"},
			Images:      []string{"pixel.facebook.com", "cdn.images.test"},
			Stylesheets: []string{"fonts.googleapis.com"},
			Iframes:     []string{"www.youtube.com"},
			Fonts:       []string{"fonts.googleapis.com"},
		},
		EvalPatterns: []model.EvalPattern{
			{Type: model.EvalTypeEval, Location: "Inline script #2", Preview: pattern.Preview(trackingScript)},
			{Type: model.EvalTypeStringTimer, Location: "Inline script #3"},
			{Type: model.EvalTypeDocumentWrite, Location: "Inline script #3"},
		},
		FingerprintingAPIs:   []string{"navigator.userAgent", "screen.width"},
		CanvasFingerprinting: true,
		CookieCount:          1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultStepOrder(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddSteps(DefaultSteps(scanner.New(), slog.Default())...)
	want := []string{
		StepResources,
		StepEvalPatterns,
		StepFingerprintingAPIs,
		StepFontFingerprinting,
		StepRuntimeSignals,
		StepCookies,
	}
	if diff := cmp.Diff(want, p.StepNames()); diff != "" {
		t.Errorf("step order mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregatorStepFailureKeepsReport(t *testing.T) {
	t.Parallel()

	failing := &mockStep{
		name: "broken",
		doFunc: func(context.Context, *Document, *model.AnalysisReport) error {
			return errors.New("boom")
		},
	}
	agg := NewAggregator(browser.NewSandboxRenderer(nil), WithSteps(failing, &CookiesStep{}))

	report, err := agg.AnalyzePage(context.Background(), &model.Page{
		URL:    "https://www.example.com/",
		Cookie: "a=1; b=2; ",
	})
	if err != nil {
		t.Fatalf("step failure must not fail the analysis: %v", err)
	}
	if report.CookieCount != 2 {
		t.Errorf("CookieCount = %d, want 2", report.CookieCount)
	}
	if report.ThirdPartyDomains == nil || report.EvalPatterns == nil {
		t.Error("lists of skipped steps should be empty, not nil")
	}
}

func TestAggregatorRenderFailure(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(browser.NewSandboxRenderer(nil))
	if _, err := agg.Analyze(context.Background(), browser.Target{}); !errors.Is(err, browser.ErrNoTarget) {
		t.Errorf("expected ErrNoTarget, got %v", err)
	}
}

func TestAggregatorReturnsSealedCopy(t *testing.T) {
	t.Parallel()

	var captured *model.AnalysisReport
	capture := &mockStep{
		name: "capture",
		doFunc: func(_ context.Context, _ *Document, r *model.AnalysisReport) error {
			captured = r
			r.AddThirdPartyDomain("tracker.test")
			return nil
		},
	}
	agg := NewAggregator(browser.NewSandboxRenderer(nil), WithSteps(capture))
	report, err := agg.AnalyzePage(context.Background(), &model.Page{URL: "https://www.example.com/"})
	if err != nil {
		t.Fatal(err)
	}

	captured.AddThirdPartyDomain("late.test")
	if len(report.ThirdPartyDomains) != 1 {
		t.Errorf("late writes leaked into the sealed report: %v", report.ThirdPartyDomains)
	}
}

func TestRuntimeSignalsAndCookiesSteps(t *testing.T) {
	t.Parallel()

	doc := &Document{Page: &model.Page{
		Cookie:  "_ga=1; _gid=2; consent",
		Signals: model.RuntimeSignals{WebGL: true, LocalStorage: true},
	}}
	report := newReport()
	for _, s := range []Step{&RuntimeSignalsStep{}, &CookiesStep{}} {
		if err := s.Do(context.Background(), doc, report); err != nil {
			t.Fatalf("%s: %v", s.Name(), err)
		}
	}
	if report.CanvasFingerprinting || !report.WebGLFingerprinting || !report.LocalStorageAccess {
		t.Errorf("signals not copied: %+v", report)
	}
	if report.CookieCount != 3 {
		t.Errorf("CookieCount = %d, want 3", report.CookieCount)
	}
}

func TestFontFingerprintingStep(t *testing.T) {
	t.Parallel()

	doc := &Document{Scripts: []model.Script{
		{Index: 0, Src: "https://cdn.test/a.js"},
		{Index: 1, Text: "var fonts = ['Arial']; detectFonts(fonts);"},
	}}
	report := newReport()
	if err := (&FontFingerprintingStep{}).Do(context.Background(), doc, report); err != nil {
		t.Fatal(err)
	}
	if !report.FontFingerprinting {
		t.Error("expected font fingerprinting")
	}
}

func TestNewDocument(t *testing.T) {
	t.Parallel()

	doc, err := NewDocument(&model.Page{
		URL:  "https://www.example.com/a/",
		HTML: `<script src="b.js"></script><script>x()</script>`,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []model.Script{
		{Index: 0, Src: "https://www.example.com/a/b.js"},
		{Index: 1, Text: "x()"},
	}
	if diff := cmp.Diff(want, doc.Scripts); diff != "" {
		t.Errorf("scripts mismatch (-want +got):\n%s", diff)
	}

	if _, err := NewDocument(&model.Page{URL: "://bad"}); err == nil {
		t.Error("expected error for unparsable URL")
	}
}
