package model

import (
	"fmt"
	"testing"
	"time"
)

// reportWith builds a report with the given number of domains, eval findings
// and APIs, and the given flags.
func reportWith(domains, evals, apis int, canvas, webgl, font bool) *AnalysisReport {
	r := NewAnalysisReport("https://example.com/", time.Now())
	for i := range domains {
		r.AddThirdPartyDomain(fmt.Sprintf("tracker%d.com", i))
	}
	for i := range evals {
		r.EvalPatterns = append(r.EvalPatterns, EvalPattern{Type: EvalTypeEval, Location: fmt.Sprintf("Inline script #%d", i)})
	}
	for i := range apis {
		r.AddFingerprintingAPI(fmt.Sprintf("api%d", i))
	}
	r.CanvasFingerprinting = canvas
	r.WebGLFingerprinting = webgl
	r.FontFingerprinting = font
	return r
}

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		report *AnalysisReport
		want   int
	}{
		{name: "clean page", report: reportWith(0, 0, 0, false, false, false), want: 100},
		{name: "capped domains evals and all flags", report: reportWith(25, 10, 0, true, true, true), want: 20},
		{name: "exactly 20 domains is uncapped 40", report: reportWith(20, 0, 0, false, false, false), want: 60},
		{name: "21 domains still 40", report: reportWith(21, 0, 0, false, false, false), want: 60},
		{name: "19 domains", report: reportWith(19, 0, 0, false, false, false), want: 62},
		{name: "exactly 4 evals is uncapped 20", report: reportWith(0, 4, 0, false, false, false), want: 80},
		{name: "5 evals still 20", report: reportWith(0, 5, 0, false, false, false), want: 80},
		{name: "exactly 10 apis is uncapped 30", report: reportWith(0, 0, 10, false, false, false), want: 70},
		{name: "11 apis still 30", report: reportWith(0, 0, 11, false, false, false), want: 70},
		{name: "canvas only", report: reportWith(0, 0, 0, true, false, false), want: 90},
		{name: "webgl only", report: reportWith(0, 0, 0, false, true, false), want: 95},
		{name: "font only", report: reportWith(0, 0, 0, false, false, true), want: 95},
		{name: "everything maxed reaches zero", report: reportWith(50, 50, 50, true, true, true), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Score(tt.report); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputePenalties(t *testing.T) {
	t.Parallel()

	p := ComputePenalties(reportWith(3, 1, 2, true, false, true))
	want := Penalties{Domains: 6, Eval: 5, APIs: 6, Canvas: 10, Font: 5}
	if p != want {
		t.Errorf("ComputePenalties() = %+v, want %+v", p, want)
	}
	if p.Total() != 32 {
		t.Errorf("Total() = %d, want 32", p.Total())
	}
}

func TestTotalIssues(t *testing.T) {
	t.Parallel()

	r := reportWith(2, 1, 3, true, true, false)
	r.LocalStorageAccess = true
	if got := TotalIssues(r); got != 8 {
		t.Errorf("TotalIssues() = %d, want 8", got)
	}
}

func TestGradeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  Grade
		label string
	}{
		{score: 100, want: GradeGood, label: "Good"},
		{score: 70, want: GradeGood, label: "Good"},
		{score: 69, want: GradeFair, label: "Fair"},
		{score: 40, want: GradeFair, label: "Fair"},
		{score: 39, want: GradePoor, label: "Poor"},
		{score: 0, want: GradePoor, label: "Poor"},
	}

	for _, tt := range tests {
		got := GradeFor(tt.score)
		if got != tt.want {
			t.Errorf("GradeFor(%d) = %v, want %v", tt.score, got, tt.want)
		}
		if got.String() != tt.label {
			t.Errorf("GradeFor(%d).String() = %q, want %q", tt.score, got.String(), tt.label)
		}
	}

	if Grade(42).String() != "Unknown" {
		t.Errorf("unexpected label for invalid grade: %q", Grade(42).String())
	}
	if GradeGood.Color() != "#4CAF50" {
		t.Errorf("GradeGood.Color() = %q", GradeGood.Color())
	}
}

func TestAdvancedTechniques(t *testing.T) {
	t.Parallel()

	got := AdvancedTechniques(reportWith(0, 0, 0, true, false, true))
	if len(got) != 2 || got[0] != "Canvas Fingerprinting" || got[1] != "Font Fingerprinting" {
		t.Errorf("AdvancedTechniques() = %v", got)
	}
	if got := AdvancedTechniques(reportWith(0, 0, 0, false, false, false)); len(got) != 0 {
		t.Errorf("expected no techniques, got %v", got)
	}
}
