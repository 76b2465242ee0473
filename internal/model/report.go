package model

import (
	"net/url"
	"slices"
	"time"
)

// Category names a class of externally loaded resources.
type Category string

// Resource categories, in the order they are scanned and reported.
const (
	CategoryScripts     Category = "scripts"
	CategoryImages      Category = "images"
	CategoryStylesheets Category = "stylesheets"
	CategoryIframes     Category = "iframes"
	CategoryFonts       Category = "fonts"
)

// Categories returns all resource categories in scan order.
func Categories() []Category {
	return []Category{
		CategoryScripts,
		CategoryImages,
		CategoryStylesheets,
		CategoryIframes,
		CategoryFonts,
	}
}

// ThirdPartyResources lists third-party hostnames per resource category.
// Each list keeps DOM order and may contain duplicates.
type ThirdPartyResources struct {
	Scripts     []string `json:"scripts"`
	Images      []string `json:"images"`
	Stylesheets []string `json:"stylesheets"`
	Iframes     []string `json:"iframes"`
	Fonts       []string `json:"fonts"`
}

// NewThirdPartyResources returns a value with every category list empty
// but non-nil.
func NewThirdPartyResources() ThirdPartyResources {
	return ThirdPartyResources{
		Scripts:     []string{},
		Images:      []string{},
		Stylesheets: []string{},
		Iframes:     []string{},
		Fonts:       []string{},
	}
}

// Get returns the hostnames recorded for category.
func (r *ThirdPartyResources) Get(category Category) []string {
	if p := r.slot(category); p != nil {
		return *p
	}
	return nil
}

// Append records hostname under category. Unknown categories are ignored.
func (r *ThirdPartyResources) Append(category Category, hostname string) {
	if p := r.slot(category); p != nil {
		*p = append(*p, hostname)
	}
}

// Total returns the number of recorded hostnames across all categories.
func (r *ThirdPartyResources) Total() int {
	n := 0
	for _, c := range Categories() {
		n += len(r.Get(c))
	}
	return n
}

func (r *ThirdPartyResources) slot(category Category) *[]string {
	switch category {
	case CategoryScripts:
		return &r.Scripts
	case CategoryImages:
		return &r.Images
	case CategoryStylesheets:
		return &r.Stylesheets
	case CategoryIframes:
		return &r.Iframes
	case CategoryFonts:
		return &r.Fonts
	default:
		return nil
	}
}

func (r ThirdPartyResources) clone() ThirdPartyResources {
	return ThirdPartyResources{
		Scripts:     cloneStrings(r.Scripts),
		Images:      cloneStrings(r.Images),
		Stylesheets: cloneStrings(r.Stylesheets),
		Iframes:     cloneStrings(r.Iframes),
		Fonts:       cloneStrings(r.Fonts),
	}
}

// Eval pattern type labels.
const (
	EvalTypeEval          = "eval() usage"
	EvalTypeFunction      = "Function constructor"
	EvalTypeStringTimer   = "setTimeout/setInterval with string"
	EvalTypeDocumentWrite = "document.write() usage"
)

// EvalPattern is one dangerous dynamic-code construct found in a script.
type EvalPattern struct {
	// Type is one of the EvalType* labels.
	Type string `json:"type"`

	// Location is the script's src URL, or "Inline script #N" for inline
	// scripts where N is the 0-based index among all script elements.
	Location string `json:"location"`

	// Preview holds the first 80 UTF-16 code units of the script text with
	// whitespace collapsed. Only eval() findings carry a preview.
	Preview string `json:"preview,omitempty"`
}

// AnalysisReport holds the privacy findings for a single page load.
// A report is sealed once the pipeline returns it; stores and writers work
// on copies obtained through Clone.
type AnalysisReport struct {
	// URL is the page address at analysis time.
	URL string `json:"url"`

	// Timestamp is the instant the analysis ran.
	Timestamp time.Time `json:"timestamp"`

	// ThirdPartyDomains is the set of distinct third-party root domains,
	// in first-seen order.
	ThirdPartyDomains []string `json:"thirdPartyDomains"`

	// ThirdPartyResources lists third-party hostnames per category.
	ThirdPartyResources ThirdPartyResources `json:"thirdPartyResources"`

	// EvalPatterns lists dangerous dynamic-code findings in script order.
	EvalPatterns []EvalPattern `json:"evalPatterns"`

	// FingerprintingAPIs is the set of fingerprinting API names referenced
	// by script text.
	FingerprintingAPIs []string `json:"fingerprintingAPIs"`

	CanvasFingerprinting bool `json:"canvasFingerprinting"`
	WebGLFingerprinting  bool `json:"webglFingerprinting"`
	FontFingerprinting   bool `json:"fontFingerprinting"`
	LocalStorageAccess   bool `json:"localStorageAccess"`

	// CookieCount is the number of non-empty cookie entries at analysis time.
	CookieCount int `json:"cookieCount"`
}

// NewAnalysisReport returns an empty report for pageURL with every list
// initialized, so the JSON form never contains null arrays.
func NewAnalysisReport(pageURL string, ts time.Time) *AnalysisReport {
	return &AnalysisReport{
		URL:                 pageURL,
		Timestamp:           ts,
		ThirdPartyDomains:   []string{},
		ThirdPartyResources: NewThirdPartyResources(),
		EvalPatterns:        []EvalPattern{},
		FingerprintingAPIs:  []string{},
	}
}

// AddThirdPartyDomain adds root to the domain set.
// It reports whether root was not already present.
func (r *AnalysisReport) AddThirdPartyDomain(root string) bool {
	if slices.Contains(r.ThirdPartyDomains, root) {
		return false
	}
	r.ThirdPartyDomains = append(r.ThirdPartyDomains, root)
	return true
}

// AddFingerprintingAPI adds name to the API set.
// It reports whether name was not already present.
func (r *AnalysisReport) AddFingerprintingAPI(name string) bool {
	if slices.Contains(r.FingerprintingAPIs, name) {
		return false
	}
	r.FingerprintingAPIs = append(r.FingerprintingAPIs, name)
	return true
}

// Hostname returns the host part of the report URL without port, or an
// empty string when the URL cannot be parsed.
func (r *AnalysisReport) Hostname() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Clone returns a deep copy of the report. Nil lists become empty lists.
func (r *AnalysisReport) Clone() *AnalysisReport {
	if r == nil {
		return nil
	}
	out := *r
	out.ThirdPartyDomains = cloneStrings(r.ThirdPartyDomains)
	out.ThirdPartyResources = r.ThirdPartyResources.clone()
	out.EvalPatterns = make([]EvalPattern, len(r.EvalPatterns))
	copy(out.EvalPatterns, r.EvalPatterns)
	out.FingerprintingAPIs = cloneStrings(r.FingerprintingAPIs)
	return &out
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
