package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/privacylens/internal/fetch"
	"github.com/nao1215/privacylens/internal/model"
	"github.com/nao1215/privacylens/internal/scanner"
)

const fingerprintingPage = `<!DOCTYPE html>
<html>
<head>
  <script src="https://www.googletagmanager.com/gtag/js?id=G-1"></script>
  <script>
    var c = document.createElement('canvas');
    var ctx = c.getContext('2d');
    ctx.fillText('fp', 1, 1);
    window.fp = c.toDataURL();
  </script>
</head>
<body>
  <script>
    document.cookie = 'seen=1';
    setTimeout(function () { localStorage.setItem('uid', '42'); }, 100);
  </script>
</body>
</html>`

type stubFetcher struct {
	page *model.Page
	err  error
	urls []string
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string) (*model.Page, error) {
	f.urls = append(f.urls, rawURL)
	if f.err != nil {
		return nil, f.err
	}
	p := *f.page
	return &p, nil
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"sandbox", "chrome"} {
		k, err := ParseKind(name)
		if err != nil || string(k) != name {
			t.Errorf("ParseKind(%q) = %q, %v", name, k, err)
		}
	}
	if _, err := ParseKind("firefox"); !errors.Is(err, ErrUnknownRenderer) {
		t.Errorf("expected ErrUnknownRenderer, got %v", err)
	}
}

func TestSandboxRendererHTMLTarget(t *testing.T) {
	t.Parallel()

	r := NewSandboxRenderer(nil, WithSandboxWindow(time.Second))
	page, err := r.Render(context.Background(), Target{URL: "https://shop.example.com/", HTML: fingerprintingPage})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	want := model.RuntimeSignals{Canvas: true, LocalStorage: true}
	if page.Signals != want {
		t.Errorf("Signals = %+v, want %+v", page.Signals, want)
	}
	if page.Cookie != "seen=1" {
		t.Errorf("Cookie = %q", page.Cookie)
	}
	if page.URL != "https://shop.example.com/" || page.HTML != fingerprintingPage {
		t.Error("page should carry the target URL and document")
	}
}

func TestSandboxRendererWindowOverride(t *testing.T) {
	t.Parallel()

	r := NewSandboxRenderer(nil, WithSandboxWindow(time.Second))
	page, err := r.Render(context.Background(), Target{
		URL:    "https://shop.example.com/",
		HTML:   fingerprintingPage,
		Window: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	if page.Signals.LocalStorage {
		t.Error("timer due after the target window must not fire")
	}
}

func TestSandboxRendererFetchesURL(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{page: &model.Page{
		URL:        "https://www.example.com/final",
		StatusCode: http.StatusOK,
		HTML:       `<script>if (document.cookie !== 'a=1') { throw new Error(document.cookie); } localStorage.setItem('k', 'v');</script>`,
		Cookie:     "a=1",
	}}
	r := NewSandboxRenderer(f)

	page, err := r.Render(context.Background(), Target{URL: "https://www.example.com/"})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(f.urls) != 1 || f.urls[0] != "https://www.example.com/" {
		t.Errorf("fetched %v", f.urls)
	}
	if page.URL != "https://www.example.com/final" || page.StatusCode != http.StatusOK {
		t.Errorf("page = %+v", page)
	}
	if !page.Signals.LocalStorage {
		t.Error("script should have seen the fetched cookie and written storage")
	}
}

func TestSandboxRendererErrors(t *testing.T) {
	t.Parallel()

	fetchErr := errors.New("connection refused")
	tests := []struct {
		name    string
		fetcher Fetcher
		target  Target
		wantErr error
	}{
		{name: "empty target", target: Target{}, wantErr: ErrNoTarget},
		{name: "fetch failure", fetcher: &stubFetcher{err: fetchErr}, target: Target{URL: "https://a.test/"}, wantErr: fetchErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewSandboxRenderer(tt.fetcher).Render(context.Background(), tt.target)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSandboxRendererWithFetchClient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "_fbp", Value: "fb.1"})
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(fingerprintingPage))
	}))
	t.Cleanup(srv.Close)

	client, err := fetch.New()
	if err != nil {
		t.Fatal(err)
	}
	page, err := NewSandboxRenderer(client).Render(context.Background(), Target{URL: srv.URL})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if page.Cookie != "_fbp=fb.1; seen=1" {
		t.Errorf("Cookie = %q", page.Cookie)
	}
	if !page.Signals.Canvas {
		t.Error("expected canvas signal")
	}
}

func TestChromeRendererRejectsHTML(t *testing.T) {
	t.Parallel()

	r := NewChromeRenderer()
	if r.Kind() != KindChrome {
		t.Errorf("Kind() = %q", r.Kind())
	}
	if _, err := r.Render(context.Background(), Target{URL: "https://a.test/", HTML: "<p>"}); !errors.Is(err, ErrHTMLUnsupported) {
		t.Errorf("expected ErrHTMLUnsupported, got %v", err)
	}
	if _, err := r.Render(context.Background(), Target{}); !errors.Is(err, ErrNoTarget) {
		t.Errorf("expected ErrNoTarget, got %v", err)
	}
}

func TestChromeRendererAllocatorOptions(t *testing.T) {
	t.Parallel()

	base := len(chromedp.DefaultExecAllocatorOptions)
	plain := NewChromeRenderer().allocatorOptions()
	full := NewChromeRenderer(
		WithExecPath("/usr/bin/chromium"),
		WithChromeProxy("127.0.0.1:9050"),
		WithChromeUserAgent("ua"),
	).allocatorOptions()

	if len(plain) != base+4 {
		t.Errorf("expected %d options, got %d", base+4, len(plain))
	}
	if len(full) != len(plain)+3 {
		t.Errorf("expected exec path, proxy and user agent options, got %d", len(full)-len(plain))
	}
}

func TestWindowFor(t *testing.T) {
	t.Parallel()

	if got := windowFor(Target{}, 0); got != DefaultWindow {
		t.Errorf("windowFor() = %v, want default", got)
	}
	if got := windowFor(Target{}, time.Second); got != time.Second {
		t.Errorf("windowFor() = %v, want renderer window", got)
	}
	if got := windowFor(Target{Window: time.Millisecond}, time.Second); got != time.Millisecond {
		t.Errorf("windowFor() = %v, want target window", got)
	}
}

const tagLoaderPage = `<!DOCTYPE html>
<html>
<head>
  <script>
    (function (w, d, s, i) {
      var f = d.getElementsByTagName(s)[0], j = d.createElement(s);
      j.async = true;
      j.src = 'https://www.googletagmanager.com/gtm.js?id=' + i;
      f.parentNode.insertBefore(j, f);
    })(window, document, 'script', 'GTM-1');
  </script>
</head>
<body>
  <p>Shop & save</p>
  <script>
    setTimeout(function () {
      var px = document.createElement('img');
      px.src = 'https://pixel.facebook.com/tr?id=1&ev=PageView';
      document.body.appendChild(px);
    }, 300);
  </script>
</body>
</html>`

func TestSandboxRendererScriptAttachedResources(t *testing.T) {
	t.Parallel()

	r := NewSandboxRenderer(nil, WithSandboxWindow(time.Second))
	page, err := r.Render(context.Background(), Target{URL: "https://shop.example.com/", HTML: tagLoaderPage})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := scanner.ParseDocument(strings.NewReader(page.HTML))
	if err != nil {
		t.Fatal(err)
	}
	res := scanner.New().Scan(context.Background(), doc, base)

	if diff := cmp.Diff([]string{"googletagmanager.com", "facebook.com"}, res.Domains); diff != "" {
		t.Errorf("domains mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"pixel.facebook.com"}, res.Resources.Images); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(page.HTML, "<p>Shop &amp; save</p>") {
		t.Errorf("original content lost:\n%s", page.HTML)
	}
}

func TestSandboxRendererLateResourceOutsideWindow(t *testing.T) {
	t.Parallel()

	r := NewSandboxRenderer(nil, WithSandboxWindow(time.Second))
	page, err := r.Render(context.Background(), Target{
		URL:    "https://shop.example.com/",
		HTML:   tagLoaderPage,
		Window: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(page.HTML, "pixel.facebook.com") {
		t.Error("element attached after the window must not be reported")
	}
	if !strings.Contains(page.HTML, "googletagmanager.com/gtm.js") {
		t.Error("element attached by an inline script should be reported")
	}
}
