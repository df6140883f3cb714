// Package sanitizer restricts extracted article HTML to a small allow-list of
// tags and attributes and makes links and images absolute.
package sanitizer

import (
	"html"
	"net/url"
	"strings"

	nethtml "golang.org/x/net/html"
)

var allowedTags = map[string]bool{
	"p": true, "br": true, "strong": true, "em": true, "b": true, "i": true, "u": true,
	"blockquote": true, "ul": true, "ol": true, "li": true,
	"h2": true, "h3": true, "h4": true, "pre": true, "code": true,
	"img": true, "a": true, "hr": true,
}

var allowedAttrs = map[string]map[string]bool{
	"a":   {"href": true, "title": true},
	"img": {"src": true, "alt": true, "title": true, "width": true, "height": true, "loading": true},
}

// urlAttrs are resolved against the page URL.
var urlAttrs = map[string]bool{"href": true, "src": true}

var allowedSchemes = map[string]bool{"http": true, "https": true, "ftp": true, "mailto": true, "tel": true}

var voidTags = map[string]bool{"br": true, "img": true, "hr": true}

// Text inside these elements is dropped together with the element.
var discardContent = map[string]bool{
	"script": true, "style": true, "noscript": true, "textarea": true, "option": true,
	"template": true, "iframe": true, "object": true, "svg": true, "math": true,
}

// Sanitize returns raw with every tag and attribute outside the allow-list
// removed. Relative href and src values are resolved against baseURL; a value
// that cannot be resolved is kept as it is.
func Sanitize(raw, baseURL string) string {
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		base = nil
	}

	var out strings.Builder

	z := nethtml.NewTokenizer(strings.NewReader(raw))
	discardDepth := 0

	for {
		tt := z.Next()
		// io.EOF, or input the tokenizer gave up on; either way keep what was produced
		if tt == nethtml.ErrorToken {
			break
		}

		tok := z.Token()

		switch tt {
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			if discardContent[tok.Data] {
				if tt == nethtml.StartTagToken {
					discardDepth++
				}

				continue
			}

			if discardDepth > 0 || !allowedTags[tok.Data] {
				continue
			}

			writeStartTag(&out, tok, base)
		case nethtml.EndTagToken:
			if discardContent[tok.Data] {
				if discardDepth > 0 {
					discardDepth--
				}

				continue
			}

			if discardDepth > 0 || !allowedTags[tok.Data] || voidTags[tok.Data] {
				continue
			}

			out.WriteString("</" + tok.Data + ">")
		case nethtml.TextToken:
			if discardDepth > 0 {
				continue
			}

			out.WriteString(html.EscapeString(tok.Data))
		}
	}

	return out.String()
}

func writeStartTag(out *strings.Builder, tok nethtml.Token, base *url.URL) {
	out.WriteString("<" + tok.Data)

	allowed := allowedAttrs[tok.Data]
	seen := make(map[string]bool, len(tok.Attr))

	for _, attr := range tok.Attr {
		key := strings.ToLower(attr.Key)
		if attr.Namespace != "" || !allowed[key] || seen[key] {
			continue
		}

		val := attr.Val
		if urlAttrs[key] {
			var ok bool
			if val, ok = absolutize(val, base); !ok {
				continue
			}
		}

		seen[key] = true

		out.WriteString(" " + key + `="` + html.EscapeString(val) + `"`)
	}

	out.WriteString(">")
}

// absolutize resolves ref against base. ok is false when the resulting URL
// uses a scheme outside allowedSchemes (javascript:, data:, ...).
func absolutize(ref string, base *url.URL) (string, bool) {
	ref = strings.TrimSpace(ref)

	u, err := url.Parse(ref)
	if err != nil {
		return ref, !hasUnsafeScheme(ref)
	}

	if base != nil {
		u = base.ResolveReference(u)
	}

	if u.Scheme != "" && !allowedSchemes[strings.ToLower(u.Scheme)] {
		return "", false
	}

	return u.String(), true
}

// hasUnsafeScheme inspects a value url.Parse rejected.
func hasUnsafeScheme(ref string) bool {
	scheme, _, found := strings.Cut(ref, ":")
	if !found || strings.ContainsAny(scheme, "/?#") {
		return false
	}

	return !allowedSchemes[strings.ToLower(strings.TrimSpace(scheme))]
}
