package enricher

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"

	"authorfeed/internal/models"
)

// ErrEmptyDate is returned by ParseDate for blank input.
var ErrEmptyDate = errors.New("empty date")

// Meta tag names in priority order. Open Graph first, then generic tags.
var (
	titleKeys       = []string{"og:title", "twitter:title", "title"}
	descriptionKeys = []string{"og:description", "description", "twitter:description"}
	publishedKeys   = []string{
		"article:published_time", "og:article:published_time", "og:published_time",
		"pubdate", "publishdate", "publish_time", "publish-date", "date", "datePublished", "dc.date.issued",
	}
)

// Content is the main block isolated by readability.
type Content struct {
	HTML  string
	Title string
}

// ExtractContent runs readability over a page. found is false when the page
// has no recognizable main content.
func ExtractContent(raw, pageURL string) (Content, bool) {
	u, err := url.Parse(pageURL)
	if err != nil {
		u = nil
	}

	article, err := readability.FromReader(strings.NewReader(raw), u)
	if err != nil {
		return Content{}, false
	}

	if strings.TrimSpace(article.Content) == "" || strings.TrimSpace(article.TextContent) == "" {
		return Content{}, false
	}

	return Content{HTML: article.Content, Title: article.Title}, true
}

// ExtractMeta reads title, description and publish date from a page's head.
// Missing values are left empty.
func (e *Enricher) ExtractMeta(raw string) models.ArticleMeta {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return models.ArticleMeta{}
	}

	meta := models.ArticleMeta{
		Title:       e.text.NormalizeWhitespace(metaContent(doc, titleKeys...)),
		Description: e.text.NormalizeWhitespace(metaContent(doc, descriptionKeys...)),
	}

	if meta.Title == "" {
		meta.Title = e.text.NormalizeWhitespace(doc.Find("title").First().Text())
	}

	published := metaContent(doc, publishedKeys...)
	if published == "" {
		doc.Find("time[datetime]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			published, _ = s.Attr("datetime")
			published = strings.TrimSpace(published)

			return published == ""
		})
	}

	if t, err := ParseDate(published, e.opts.Location); err == nil {
		meta.PublishedAt = &t
	}

	return meta
}

// ParseDate accepts the many shapes publish dates come in (RFC 3339, "2025-10-31 12:28:28",
// epoch milliseconds, ...). Dates without a zone are read in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyDate
	}

	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}

	return t, nil
}

// metaContent returns the first non-empty content of <meta property|name|itemprop=key>.
func metaContent(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		selector := fmt.Sprintf(`meta[property=%q], meta[name=%q], meta[itemprop=%q]`, key, key, key)

		var value string

		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			value, _ = s.Attr("content")
			value = strings.TrimSpace(value)

			return value == ""
		})

		if value != "" {
			return value
		}
	}

	return ""
}
