package pattern

import (
	"strings"

	"github.com/nao1215/privacylens/internal/model"
)

// Fingerprinting API families.
const (
	FamilyNavigator = "navigator"
	FamilyScreen    = "screen"
	FamilyTimezone  = "timezone"
	FamilyBattery   = "battery"
	FamilyWebGL     = "webgl"
)

// APIFamily is a named group of fingerprinting API names.
type APIFamily struct {
	Name string
	APIs []string
}

// catalog lists the API names searched for in script text, grouped by
// family. The canonical casing is what ends up in reports.
var catalog = []APIFamily{
	{
		Name: FamilyNavigator,
		APIs: []string{
			"navigator.userAgent",
			"navigator.platform",
			"navigator.language",
			"navigator.languages",
			"navigator.hardwareConcurrency",
			"navigator.deviceMemory",
			"navigator.maxTouchPoints",
			"navigator.vendor",
			"navigator.appVersion",
			"navigator.doNotTrack",
			"navigator.plugins",
			"navigator.mimeTypes",
		},
	},
	{
		Name: FamilyScreen,
		APIs: []string{
			"screen.width",
			"screen.height",
			"screen.availWidth",
			"screen.availHeight",
			"screen.colorDepth",
			"screen.pixelDepth",
			"window.screen",
			"window.innerWidth",
			"window.innerHeight",
			"window.outerWidth",
			"window.outerHeight",
		},
	},
	{
		Name: FamilyTimezone,
		APIs: []string{
			"Intl.DateTimeFormat",
			"getTimezoneOffset",
			"toTimeString",
		},
	},
	{
		Name: FamilyBattery,
		APIs: []string{
			"navigator.getBattery",
			"BatteryManager",
		},
	},
	{
		Name: FamilyWebGL,
		APIs: []string{
			"WebGLRenderingContext",
			"getParameter",
			"RENDERER",
			"VENDOR",
		},
	},
}

// lowered holds the catalog names in lower case, flattened in catalog order.
var lowered = func() []apiName {
	var out []apiName
	for _, f := range catalog {
		for _, api := range f.APIs {
			out = append(out, apiName{canonical: api, lower: strings.ToLower(api)})
		}
	}
	return out
}()

type apiName struct {
	canonical string
	lower     string
}

// Catalog returns a copy of the fingerprinting API catalog.
func Catalog() []APIFamily {
	out := make([]APIFamily, len(catalog))
	for i, f := range catalog {
		out[i] = APIFamily{Name: f.Name, APIs: append([]string(nil), f.APIs...)}
	}
	return out
}

// Family returns the family of a canonical API name, or an empty string
// when the name is not in the catalog.
func Family(api string) string {
	for _, f := range catalog {
		for _, name := range f.APIs {
			if name == api {
				return f.Name
			}
		}
	}
	return ""
}

// DetectFingerprintingAPIs returns the catalog names that occur as a
// case-insensitive substring of any script text. Each name appears once,
// ordered by first script hit and then by catalog order.
func DetectFingerprintingAPIs(scripts []model.Script) []string {
	found := []string{}
	seen := make(map[string]struct{})
	for _, sc := range scripts {
		text := strings.ToLower(sc.Text)
		if text == "" {
			continue
		}
		for _, api := range lowered {
			if _, ok := seen[api.canonical]; ok {
				continue
			}
			if strings.Contains(text, api.lower) {
				seen[api.canonical] = struct{}{}
				found = append(found, api.canonical)
			}
		}
	}
	return found
}
