package scanner

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/privacylens/internal/model"
)

// Scripts returns every script element of doc in document order.
// Src is resolved against base; a src that cannot be parsed is kept as
// written. Text holds the inline text only.
func Scripts(doc *goquery.Document, base *url.URL) []model.Script {
	var scripts []model.Script
	doc.Find("script").Each(func(i int, sel *goquery.Selection) {
		sc := model.Script{Index: i, Text: sel.Text()}
		if src, ok := sel.Attr("src"); ok {
			sc.Src = resolve(base, strings.TrimSpace(src))
		}
		scripts = append(scripts, sc)
	})
	return scripts
}

// InlineScripts returns the scripts that have no src attribute and
// non-empty text.
func InlineScripts(scripts []model.Script) []model.Script {
	var out []model.Script
	for _, sc := range scripts {
		if sc.Src == "" && strings.TrimSpace(sc.Text) != "" {
			out = append(out, sc)
		}
	}
	return out
}

// CountCookies returns the number of non-empty entries in a
// document.cookie string.
func CountCookies(cookie string) int {
	n := 0
	for _, c := range strings.Split(cookie, ";") {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

func resolve(base *url.URL, raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(u).String()
}
