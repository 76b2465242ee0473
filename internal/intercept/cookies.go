package intercept

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// cookieJar backs document.cookie inside the sandbox. Attributes other than
// max-age and expires are ignored.
type cookieJar struct {
	names  []string
	values map[string]string
	now    func() time.Time
}

func newCookieJar(header string) *cookieJar {
	j := &cookieJar{values: make(map[string]string), now: time.Now}
	for _, pair := range strings.Split(header, ";") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		name, value := splitPair(pair)
		j.put(name, value)
	}
	return j
}

// Set applies a document.cookie assignment.
func (j *cookieJar) Set(raw string) {
	parts := strings.Split(raw, ";")
	name, value := splitPair(parts[0])
	for _, attr := range parts[1:] {
		k, v := splitPair(attr)
		switch strings.ToLower(k) {
		case "max-age":
			if n, err := strconv.Atoi(v); err == nil && n <= 0 {
				j.remove(name)
				return
			}
		case "expires":
			if t, err := http.ParseTime(v); err == nil && !t.After(j.now()) {
				j.remove(name)
				return
			}
		}
	}
	j.put(name, value)
}

// String returns the cookie string as read through document.cookie.
func (j *cookieJar) String() string {
	pairs := make([]string, 0, len(j.names))
	for _, name := range j.names {
		if name == "" {
			pairs = append(pairs, j.values[name])
			continue
		}
		pairs = append(pairs, name+"="+j.values[name])
	}
	return strings.Join(pairs, "; ")
}

func (j *cookieJar) put(name, value string) {
	if _, ok := j.values[name]; !ok {
		j.names = append(j.names, name)
	}
	j.values[name] = value
}

func (j *cookieJar) remove(name string) {
	if _, ok := j.values[name]; !ok {
		return
	}
	delete(j.values, name)
	for i, n := range j.names {
		if n == name {
			j.names = append(j.names[:i], j.names[i+1:]...)
			break
		}
	}
}

// splitPair splits "name=value". A segment without "=" is a value with an
// empty name.
func splitPair(s string) (string, string) {
	s = strings.TrimSpace(s)
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return "", s
	}
	return strings.TrimSpace(name), strings.TrimSpace(value)
}
