package scanner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/privacylens/internal/domain"
	"github.com/nao1215/privacylens/internal/model"
)

// Result is the outcome of a resource scan.
type Result struct {
	// Resources lists third-party hostnames per category in DOM order.
	Resources model.ThirdPartyResources

	// Domains holds distinct third-party root domains in first-seen order.
	Domains []string

	// Skipped counts elements whose source could not be used.
	Skipped int
}

// Scanner enumerates third-party resources of a document.
type Scanner struct {
	classifier        *domain.Classifier
	logger            *slog.Logger
	logAllInvalidURLs bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithClassifier sets the domain classifier. The default is the heuristic
// two-label classifier.
func WithClassifier(c *domain.Classifier) Option {
	return func(s *Scanner) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithLogger sets the logger for skipped URLs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLogAllInvalidURLs logs invalid URLs of every category at warning
// level instead of only scripts.
func WithLogAllInvalidURLs(enabled bool) Option {
	return func(s *Scanner) {
		s.logAllInvalidURLs = enabled
	}
}

// New creates a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		classifier: domain.NewClassifier(domain.ModeHeuristic),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseDocument parses an HTML document.
func ParseDocument(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return doc, nil
}

// Scan lists the third-party resources of doc. base is the page URL used to
// resolve relative sources and to determine the page's own root domain.
func (s *Scanner) Scan(ctx context.Context, doc *goquery.Document, base *url.URL) Result {
	res := Result{
		Resources: model.NewThirdPartyResources(),
		Domains:   []string{},
	}
	pageRoot := s.classifier.Root(strings.ToLower(base.Hostname()))
	seen := make(map[string]struct{})

	for _, rule := range Rules() {
		doc.Find(rule.Selector).Each(func(_ int, sel *goquery.Selection) {
			raw, relative, ok := rule.Source(sel, base)
			if !ok {
				return
			}
			host, err := hostOf(base, raw, relative)
			if err != nil {
				res.Skipped++
				s.logInvalid(ctx, rule, raw, err)
				return
			}
			root, third := s.classifier.IsThirdParty(pageRoot, host)
			if !third {
				return
			}
			res.Resources.Append(rule.Category, host)
			if _, dup := seen[root]; !dup {
				seen[root] = struct{}{}
				res.Domains = append(res.Domains, root)
			}
		})
	}
	return res
}

func (s *Scanner) logInvalid(ctx context.Context, rule Rule, raw string, err error) {
	attrs := []any{
		slog.String("category", string(rule.Category)),
		slog.String("url", raw),
		slog.Any("error", err),
	}
	if rule.WarnOnInvalid || s.logAllInvalidURLs {
		s.logger.WarnContext(ctx, "invalid resource URL", attrs...)
		return
	}
	s.logger.DebugContext(ctx, "skipping invalid resource URL", attrs...)
}

// hostOf returns the lower-cased hostname of raw. Relative sources are
// resolved against base first. URLs without a host are rejected.
func hostOf(base *url.URL, raw string, relative bool) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if relative {
		u = base.ResolveReference(u)
	} else if !u.IsAbs() {
		return "", fmt.Errorf("%w: %q", ErrNotAbsolute, raw)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: %q", ErrNoHost, raw)
	}
	return host, nil
}
