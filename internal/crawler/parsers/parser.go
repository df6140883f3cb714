// Package parsers extracts article identifiers from author listing pages.
//
// Extraction is a prioritized chain of strategies. Each strategy is a pure
// function of the page and is only consulted while fewer than the requested
// number of IDs have been collected.
package parsers

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MinIDDigits is the minimum length of a numeric article ID. Shorter numbers
// are counters, indices or page sizes.
const MinIDDigits = 5

var articleIDPattern = regexp.MustCompile(`^\d{5,}$`)

// IsArticleID reports whether s looks like an article ID.
func IsArticleID(s string) bool {
	return articleIDPattern.MatchString(s)
}

// Page is a listing page parsed once and shared by all strategies.
type Page struct {
	Doc *goquery.Document
	Raw string
}

// NewPage parses raw HTML.
func NewPage(raw string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}

	return &Page{Doc: doc, Raw: raw}, nil
}

// Strategy is one way of finding article IDs in a page.
type Strategy struct {
	Find func(*Page) []string
	Name string
}

// Parser holds the compiled patterns used by the strategies.
type Parser struct {
	hrefPattern     *regexp.Regexp
	attrPattern     *regexp.Regexp
	statePattern    *regexp.Regexp
	rawPairPattern  *regexp.Regexp
	jsonScriptTypes map[string]bool
}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{
		// /p/3532943217940873, absolute or relative, optionally followed by a query or fragment
		hrefPattern: regexp.MustCompile(`(?:^|/)p/(\d{5,})(?:[/?#]|$)`),
		attrPattern: regexp.MustCompile(`^data-(?:article-|item-|entity-|a)?id$`),
		// window.initialState = {...}
		statePattern: regexp.MustCompile(`window\.(?:initialState|__INITIAL_STATE__|__PRELOADED_STATE__|__NUXT__)\s*=\s*`),
		// "itemId":"3532943217940873" or "id": 3532943217940873
		rawPairPattern: regexp.MustCompile(`"(?:id|[A-Za-z]+(?:Id|ID|_id))"\s*:\s*"?(\d{5,})\b`),
		jsonScriptTypes: map[string]bool{
			"application/json":    true,
			"application/ld+json": true,
		},
	}
}

// Strategies returns the extraction chain in priority order.
func (p *Parser) Strategies() []Strategy {
	return []Strategy{
		{Name: "anchors", Find: p.AnchorIDs},
		{Name: "attributes", Find: p.AttributeIDs},
		{Name: "embedded-json", Find: p.EmbeddedJSONIDs},
		{Name: "raw-json", Find: p.RawJSONIDs},
	}
}

// AnchorIDs collects IDs from <a href> values that point at article pages.
func (p *Parser) AnchorIDs(page *Page) []string {
	var ids []string

	page.Doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if m := p.hrefPattern.FindStringSubmatch(strings.TrimSpace(href)); m != nil {
			ids = append(ids, m[1])
		}
	})

	return ids
}

// AttributeIDs collects IDs from data-*id attributes on any element.
func (p *Parser) AttributeIDs(page *Page) []string {
	var ids []string

	page.Doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range s.Nodes[0].Attr {
			if !p.attrPattern.MatchString(strings.ToLower(attr.Key)) {
				continue
			}

			if v := strings.TrimSpace(attr.Val); IsArticleID(v) {
				ids = append(ids, v)
			}
		}
	})

	return ids
}

// EmbeddedJSONIDs walks the JSON state islands embedded in <script> tags.
func (p *Parser) EmbeddedJSONIDs(page *Page) []string {
	var ids []string

	page.Doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		body := strings.TrimSpace(s.Text())
		if body == "" {
			return
		}

		typ, _ := s.Attr("type")
		scriptID, _ := s.Attr("id")

		switch {
		case p.jsonScriptTypes[strings.ToLower(strings.TrimSpace(typ))] || scriptID == "__NEXT_DATA__":
		default:
			loc := p.statePattern.FindStringIndex(body)
			if loc == nil {
				return
			}

			body = body[loc[1]:]
		}

		value, err := DecodeJSON(body)
		if err != nil {
			return
		}

		ids = append(ids, WalkIDs(value)...)
	})

	return ids
}

// RawJSONIDs is the last resort: a regex scan for ID-like key/value pairs anywhere in the text.
func (p *Parser) RawJSONIDs(page *Page) []string {
	matches := p.rawPairPattern.FindAllStringSubmatch(page.Raw, -1)
	ids := make([]string, 0, len(matches))

	for _, m := range matches {
		ids = append(ids, m[1])
	}

	return ids
}
