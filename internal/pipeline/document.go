package pipeline

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/privacylens/internal/model"
	"github.com/nao1215/privacylens/internal/scanner"
)

// Document is a rendered page prepared for the steps: the page itself, its
// URL, the parsed DOM and its script elements.
type Document struct {
	Page    *model.Page
	Base    *url.URL
	DOM     *goquery.Document
	Scripts []model.Script
}

// NewDocument parses page once for all steps.
func NewDocument(page *model.Page) (*Document, error) {
	base, err := url.Parse(page.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page URL %q: %w", page.URL, err)
	}
	dom, err := scanner.ParseDocument(strings.NewReader(page.HTML))
	if err != nil {
		return nil, err
	}
	return &Document{
		Page:    page,
		Base:    base,
		DOM:     dom,
		Scripts: scanner.Scripts(dom, base),
	}, nil
}
