package log

import (
	"log/slog"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// minSecretLength is the shortest configured secret that is masked inside
// other values. Shorter literals would mask unrelated text.
const minSecretLength = 6

// defaultKeys are attribute keys whose values are always masked.
var defaultKeys = []string{
	// HTTP headers
	"authorization", "proxy-authorization", "cookie", "set-cookie", "x-api-key", "x-auth-token",
	// Page state
	"document.cookie", "document_cookie", "storage_value", "local_storage", "session_storage",
	// Credentials and sessions
	"password", "passwd", "secret", "token", "api_key", "apikey", "api-key",
	"access_token", "refresh_token", "private_key",
	"session", "session_id", "sessionid", "sid", "jsessionid",
	"credential", "credentials", "auth",
}

// keyKeywords mask any key containing them. The bare word "key" is left out
// because it matches names such as "primary_key" or "monkey".
var keyKeywords = []string{
	"password", "passwd", "secret", "token", "auth", "credential", "private",
}

// valuePatterns mask values that look like secrets whatever their key.
var valuePatterns = []*regexp.Regexp{
	// JWT
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	// Authorization header values
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	// Long opaque keys
	regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`),
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
	// document.cookie with at least two pairs
	regexp.MustCompile(`^[A-Za-z0-9_.\-]+=[^;]*(;\s*[A-Za-z0-9_.\-]+=[^;]*)+$`),
}

// defaultQueryParams are query parameters masked inside logged URLs, also
// when used as a suffix such as "access_token" or "x-session".
var defaultQueryParams = []string{
	"token", "key", "secret", "session", "sid", "auth", "password", "code", "signature",
}

// Redactor decides which log attribute values are masked.
// A Redactor is immutable after construction and safe for concurrent use.
type Redactor struct {
	keys        map[string]struct{}
	queryParams []string
	secrets     []string
}

// RedactorOption configures a Redactor.
type RedactorOption func(*Redactor)

// WithKeys masks the values of additional attribute keys. Keys are matched
// case-insensitively.
func WithKeys(keys ...string) RedactorOption {
	return func(r *Redactor) {
		for _, k := range keys {
			r.keys[strings.ToLower(k)] = struct{}{}
		}
	}
}

// WithQueryParams masks additional URL query parameters.
func WithQueryParams(params ...string) RedactorOption {
	return func(r *Redactor) {
		for _, p := range params {
			r.queryParams = append(r.queryParams, strings.ToLower(p))
		}
	}
}

// WithSecrets masks literal values wherever they appear in a logged string,
// for example cookies and header values from the site configuration.
func WithSecrets(secrets ...string) RedactorOption {
	return func(r *Redactor) {
		for _, s := range secrets {
			if len(s) >= minSecretLength && !slices.Contains(r.secrets, s) {
				r.secrets = append(r.secrets, s)
			}
		}
	}
}

// NewRedactor creates a Redactor with the default rules plus opts.
func NewRedactor(opts ...RedactorOption) *Redactor {
	r := &Redactor{
		keys:        make(map[string]struct{}, len(defaultKeys)),
		queryParams: slices.Clone(defaultQueryParams),
	}
	for _, k := range defaultKeys {
		r.keys[k] = struct{}{}
	}
	for _, opt := range opts {
		opt(r)
	}
	// Longest first, so a secret containing another is masked whole.
	slices.SortFunc(r.secrets, func(a, b string) int { return len(b) - len(a) })
	return r
}

// Attr returns a with its value masked where needed. Groups are redacted
// recursively.
func (r *Redactor) Attr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		redacted := make([]slog.Attr, len(group))
		for i, ga := range group {
			redacted[i] = r.Attr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	if r.SensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}
	if a.Value.Kind() == slog.KindString {
		if v, ok := r.Value(a.Value.String()); ok {
			return slog.String(a.Key, v)
		}
	}
	return a
}

// SensitiveKey reports whether values logged under key are always masked.
func (r *Redactor) SensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if _, ok := r.keys[key]; ok {
		return true
	}
	for _, kw := range keyKeywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

// Value returns the redacted form of a string value and whether it
// differs from value.
func (r *Redactor) Value(value string) (string, bool) {
	for _, p := range valuePatterns {
		if p.MatchString(value) {
			return MaskValue, true
		}
	}

	out, changed := value, false
	for _, s := range r.secrets {
		if strings.Contains(out, s) {
			out = strings.ReplaceAll(out, s, MaskValue)
			changed = true
		}
	}
	if masked, ok := r.url(out); ok {
		return masked, true
	}
	return out, changed
}

// url masks the values of sensitive query parameters of an absolute http
// or https URL. The mask is written literally, not query-escaped.
func (r *Redactor) url(value string) (string, bool) {
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return "", false
	}
	u, err := url.Parse(value)
	if err != nil || u.RawQuery == "" {
		return "", false
	}

	pairs := strings.Split(u.RawQuery, "&")
	masked := false
	for i, pair := range pairs {
		name, _, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(name); err == nil {
			name = unescaped
		}
		if r.sensitiveQueryParam(name) {
			pairs[i] = name + "=" + MaskValue
			masked = true
		}
	}
	if !masked {
		return "", false
	}

	query := "?" + strings.Join(pairs, "&")
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment, u.RawFragment = "", ""
	out := u.String() + query
	if i := strings.IndexByte(value, '#'); i >= 0 {
		out += value[i:]
	}
	return out, true
}

func (r *Redactor) sensitiveQueryParam(name string) bool {
	name = strings.ToLower(name)
	for _, p := range r.queryParams {
		if name == p || strings.HasSuffix(name, "_"+p) || strings.HasSuffix(name, "-"+p) {
			return true
		}
	}
	return false
}
