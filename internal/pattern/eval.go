package pattern

import (
	"regexp"
	"strconv"
	"unicode/utf16"

	"github.com/nao1215/privacylens/internal/model"
)

// jsSpace matches one JavaScript whitespace character. RE2's \s is ASCII
// only, so the class lists the Unicode spaces explicitly.
const jsSpace = `[\t\n\v\f\r \x{a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]`

// previewLength is the maximum length of an eval preview in UTF-16 code
// units, the unit JavaScript strings are measured in.
const previewLength = 80

// evalRule is one dangerous-pattern family. A script yields at most one
// finding per family.
type evalRule struct {
	label   string
	regexes []*regexp.Regexp
	preview bool
}

// evalRules are checked in this order for every script.
var evalRules = []evalRule{
	{
		label:   model.EvalTypeEval,
		regexes: []*regexp.Regexp{regexp.MustCompile(`\beval` + jsSpace + `*\(`)},
		preview: true,
	},
	{
		label:   model.EvalTypeFunction,
		regexes: []*regexp.Regexp{regexp.MustCompile(`(?i)new` + jsSpace + `+Function` + jsSpace + `*\(`)},
	},
	{
		label: model.EvalTypeStringTimer,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`setTimeout` + jsSpace + `*\(` + jsSpace + "*['\"`]"),
			regexp.MustCompile(`setInterval` + jsSpace + `*\(` + jsSpace + "*['\"`]"),
		},
	},
	{
		label:   model.EvalTypeDocumentWrite,
		regexes: []*regexp.Regexp{regexp.MustCompile(`document\.write` + jsSpace + `*\(`)},
	},
}

var whitespaceRun = regexp.MustCompile(jsSpace + `+`)

// DetectEvalPatterns returns the dangerous dynamic-code findings of scripts
// in script order. Scripts with empty text are skipped.
func DetectEvalPatterns(scripts []model.Script) []model.EvalPattern {
	findings := []model.EvalPattern{}
	for _, sc := range scripts {
		if sc.Text == "" {
			continue
		}
		for _, rule := range evalRules {
			if !rule.match(sc.Text) {
				continue
			}
			p := model.EvalPattern{Type: rule.label, Location: Location(sc)}
			if rule.preview {
				p.Preview = Preview(sc.Text)
			}
			findings = append(findings, p)
		}
	}
	return findings
}

func (r evalRule) match(text string) bool {
	for _, re := range r.regexes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Location returns the src of an external script or "Inline script #N".
func Location(sc model.Script) string {
	if sc.Src != "" {
		return sc.Src
	}
	return "Inline script #" + strconv.Itoa(sc.Index)
}

// Preview returns the first 80 UTF-16 code units of text with every
// whitespace run collapsed into a single space. A character outside the
// Basic Multilingual Plane that would straddle the cut is dropped whole.
func Preview(text string) string {
	units := 0
	for i, r := range text {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > previewLength {
			text = text[:i]
			break
		}
		units += n
	}
	return whitespaceRun.ReplaceAllString(text, " ")
}
