package pattern

import (
	"regexp"
	"strings"

	"github.com/nao1215/privacylens/internal/model"
)

var fontDetect = regexp.MustCompile(`(?i)fonts?.*detect`)

// IsFontFingerprinting reports whether a script text looks like font
// enumeration: it mentions measureText, or both offsetWidth and font, or
// matches "font ... detect" on one line.
func IsFontFingerprinting(text string) bool {
	return strings.Contains(text, "measureText") ||
		(strings.Contains(text, "offsetWidth") && strings.Contains(text, "font")) ||
		fontDetect.MatchString(text)
}

// DetectFontFingerprinting reports whether any script is flagged by
// IsFontFingerprinting.
func DetectFontFingerprinting(scripts []model.Script) bool {
	for _, sc := range scripts {
		if IsFontFingerprinting(sc.Text) {
			return true
		}
	}
	return false
}
