package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		c, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.timeout != DefaultTimeout {
			t.Errorf("timeout = %v, want %v", c.timeout, DefaultTimeout)
		}
		if c.UserAgent() != DefaultUserAgent {
			t.Errorf("UserAgent() = %q", c.UserAgent())
		}
		if c.http.Jar == nil {
			t.Error("expected a cookie jar")
		}
	})

	t.Run("valid proxy", func(t *testing.T) {
		t.Parallel()

		c, err := New(WithProxy("127.0.0.1:9050"), WithTimeout(5*time.Second))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.ProxyAddress() != "127.0.0.1:9050" {
			t.Errorf("ProxyAddress() = %q", c.ProxyAddress())
		}
		if c.http.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v", c.http.Timeout)
		}
	})

	t.Run("invalid proxy", func(t *testing.T) {
		t.Parallel()

		_, err := New(WithProxy("127.0.0.1"))
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})
}

func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		address  string
		expected bool
	}{
		{"valid IPv4 with port", "127.0.0.1:9050", true},
		{"valid localhost with port", "localhost:9050", true},
		{"valid IPv6 with port", "[::1]:1080", true},
		{"empty string", "", false},
		{"no port", "127.0.0.1", false},
		{"empty host", ":9050", false},
		{"empty port", "127.0.0.1:", false},
		{"port zero", "127.0.0.1:0", false},
		{"port too large", "127.0.0.1:65536", false},
		{"multiple colons", "127.0.0.1:9050:extra", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := isValidProxyAddress(tc.address); got != tc.expected {
				t.Errorf("isValidProxyAddress(%q) = %v, expected %v", tc.address, got, tc.expected)
			}
		})
	}
}

func TestFetch(t *testing.T) {
	t.Parallel()

	var gotUA, gotCookie, gotHeader string
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/page", http.StatusFound)
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCookie = r.Header.Get("Cookie")
		gotHeader = r.Header.Get("X-Test")
		http.SetCookie(w, &http.Cookie{Name: "_ga", Value: "GA1", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "secret", HttpOnly: true})
		http.SetCookie(w, &http.Cookie{Name: "theme", Value: "", MaxAge: -1})
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><script src="https://cdn.tracker.test/a.js"></script></html>`))
	})
	mux.HandleFunc("/missing", http.NotFound)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(
		WithUserAgent("privacylens-test"),
		WithCookie("theme=dark; consent=yes"),
		WithHeaders(map[string]string{"X-Test": "1"}),
	)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("follows redirects and derives cookies", func(t *testing.T) {
		page, err := c.Fetch(context.Background(), srv.URL+"/old")
		if err != nil {
			t.Fatalf("Fetch() error: %v", err)
		}
		if page.URL != srv.URL+"/page" {
			t.Errorf("URL = %q, want the redirect target", page.URL)
		}
		if page.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d", page.StatusCode)
		}
		if page.HTML == "" {
			t.Error("expected HTML body")
		}
		if page.Cookie != "consent=yes; _ga=GA1" {
			t.Errorf("Cookie = %q", page.Cookie)
		}
		if gotUA != "privacylens-test" || gotHeader != "1" {
			t.Errorf("headers not injected: ua=%q x-test=%q", gotUA, gotHeader)
		}
		if gotCookie != "theme=dark; consent=yes" {
			t.Errorf("request cookie = %q", gotCookie)
		}
	})

	t.Run("error status", func(t *testing.T) {
		_, err := c.Fetch(context.Background(), srv.URL+"/missing")
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("expected ErrUnexpectedStatus, got %v", err)
		}
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := c.Fetch(context.Background(), "ftp://example.com/")
		if !errors.Is(err, ErrUnsupportedScheme) {
			t.Errorf("expected ErrUnsupportedScheme, got %v", err)
		}
	})
}

func TestFetchBodyLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	t.Cleanup(srv.Close)

	c, err := New(WithMaxBodySize(4))
	if err != nil {
		t.Fatal(err)
	}
	page, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if page.HTML != "0123" {
		t.Errorf("HTML = %q, want the first 4 bytes", page.HTML)
	}
}

func TestDocumentCookie(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		request string
		set     []*http.Cookie
		want    string
	}{
		{name: "empty", want: ""},
		{name: "request only", request: " a=1 ;; b=2", want: "a=1; b=2"},
		{
			name:    "response overrides request",
			request: "a=1",
			set:     []*http.Cookie{{Name: "a", Value: "2"}, {Name: "c", Value: "3"}},
			want:    "a=2; c=3",
		},
		{
			name:    "expired cookie removed",
			request: "a=1; b=2",
			set:     []*http.Cookie{{Name: "a", Expires: time.Unix(0, 0)}},
			want:    "b=2",
		},
		{
			name:    "deleted then set again",
			request: "a=1",
			set:     []*http.Cookie{{Name: "a", MaxAge: -1}, {Name: "a", Value: "3"}},
			want:    "a=3",
		},
		{
			name: "http only hidden",
			set:  []*http.Cookie{{Name: "sid", Value: "x", HttpOnly: true}},
			want: "",
		},
	}
	for _, tt := range tests {
		if got := documentCookie(tt.request, tt.set); got != tt.want {
			t.Errorf("%s: documentCookie() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestHeaderInjectingTransportAppendsCookie(t *testing.T) {
	t.Parallel()

	var got string
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		got = r.Header.Get("Cookie")
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})
	tr := &headerInjectingTransport{base: base, cookie: "b=2"}

	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	req.Header.Set("Cookie", "a=1")
	resp, err := tr.RoundTrip(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got != "a=1; b=2" {
		t.Errorf("Cookie = %q", got)
	}
	if req.Header.Get("Cookie") != "a=1" {
		t.Error("original request must not be modified")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
