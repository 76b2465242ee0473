package model

// Score penalty weights and caps. Each term is computed from the final
// report state and capped independently before the total is clamped at 0.
const (
	maxScore = 100

	domainPenalty    = 2
	domainPenaltyCap = 40

	evalPenalty    = 5
	evalPenaltyCap = 20

	apiPenalty    = 3
	apiPenaltyCap = 30

	canvasPenalty = 10
	webglPenalty  = 5
	fontPenalty   = 5
)

// Penalties breaks the score deduction into its terms.
type Penalties struct {
	Domains int
	Eval    int
	APIs    int
	Canvas  int
	WebGL   int
	Font    int
}

// Total returns the sum of all penalty terms.
func (p Penalties) Total() int {
	return p.Domains + p.Eval + p.APIs + p.Canvas + p.WebGL + p.Font
}

// ComputePenalties returns the capped penalty terms for r.
func ComputePenalties(r *AnalysisReport) Penalties {
	p := Penalties{
		Domains: min(len(r.ThirdPartyDomains)*domainPenalty, domainPenaltyCap),
		Eval:    min(len(r.EvalPatterns)*evalPenalty, evalPenaltyCap),
		APIs:    min(len(r.FingerprintingAPIs)*apiPenalty, apiPenaltyCap),
	}
	if r.CanvasFingerprinting {
		p.Canvas = canvasPenalty
	}
	if r.WebGLFingerprinting {
		p.WebGL = webglPenalty
	}
	if r.FontFingerprinting {
		p.Font = fontPenalty
	}
	return p
}

// Score returns the privacy score of r in the range [0, 100].
// Higher is better. The score is derived on demand and never stored in
// the report.
func Score(r *AnalysisReport) int {
	return max(maxScore-ComputePenalties(r).Total(), 0)
}

// TotalIssues counts third-party domains, eval findings, fingerprinting
// APIs and each advanced fingerprinting flag that is set.
// Local storage access is not counted as an issue.
func TotalIssues(r *AnalysisReport) int {
	n := len(r.ThirdPartyDomains) + len(r.EvalPatterns) + len(r.FingerprintingAPIs)
	for _, flag := range []bool{r.CanvasFingerprinting, r.WebGLFingerprinting, r.FontFingerprinting} {
		if flag {
			n++
		}
	}
	return n
}

// AdvancedTechniques returns the names of the runtime and heuristic
// fingerprinting techniques flagged in r.
func AdvancedTechniques(r *AnalysisReport) []string {
	var out []string
	if r.CanvasFingerprinting {
		out = append(out, "Canvas Fingerprinting")
	}
	if r.WebGLFingerprinting {
		out = append(out, "WebGL Fingerprinting")
	}
	if r.FontFingerprinting {
		out = append(out, "Font Fingerprinting")
	}
	return out
}
