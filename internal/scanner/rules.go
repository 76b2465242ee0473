package scanner

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/privacylens/internal/model"
)

// Rule describes how resources of one category are selected and how the
// source URL of a selected element is read.
type Rule struct {
	// Category is the resource category the rule fills.
	Category model.Category

	// Selector is the CSS selector matching candidate elements.
	Selector string

	// Source returns the raw source of the element and whether it is
	// relative to the page (true) or must already be absolute (false).
	// base is the page URL. ok=false skips the element.
	Source func(s *goquery.Selection, base *url.URL) (src string, relative bool, ok bool)

	// WarnOnInvalid logs unparseable sources at warning level.
	WarnOnInvalid bool
}

// Rules returns the selection rules in scan order.
func Rules() []Rule {
	return []Rule{
		{
			Category:      model.CategoryScripts,
			Selector:      "script[src]",
			Source:        attrSource("src"),
			WarnOnInvalid: true,
		},
		{
			Category: model.CategoryImages,
			Selector: "img[src], img[data-src]",
			Source:   imageSource,
		},
		{
			Category: model.CategoryStylesheets,
			Selector: `link[rel="stylesheet"]`,
			Source:   attrSource("href"),
		},
		{
			Category: model.CategoryIframes,
			Selector: "iframe[src]",
			Source:   attrSource("src"),
		},
		{
			Category: model.CategoryFonts,
			Selector: `link[rel*="font"], link[href*="fonts.googleapis"]`,
			Source:   attrSource("href"),
		},
	}
}

func attrSource(name string) func(*goquery.Selection, *url.URL) (string, bool, bool) {
	return func(s *goquery.Selection, _ *url.URL) (string, bool, bool) {
		v, ok := s.Attr(name)
		return strings.TrimSpace(v), true, ok
	}
}

// imageSource prefers src, resolved against the page like the DOM property,
// and falls back to the raw data-src attribute. Either way the source must
// start with "http"; a src with another scheme skips the element without
// trying data-src.
func imageSource(s *goquery.Selection, base *url.URL) (string, bool, bool) {
	if v, ok := s.Attr("src"); ok {
		v = strings.TrimSpace(v)
		ref, err := url.Parse(v)
		if err != nil {
			return v, true, true
		}
		resolved := base.ResolveReference(ref).String()
		if !strings.HasPrefix(resolved, "http") {
			return "", false, false
		}
		return resolved, false, true
	}
	v, ok := s.Attr("data-src")
	v = strings.TrimSpace(v)
	if !ok || !strings.HasPrefix(v, "http") {
		return "", false, false
	}
	return v, false, true
}
