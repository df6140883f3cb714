// Package models defines data structures shared by the crawler, enricher and feed builder.
package models

import (
	"html"
	"strings"
	"time"
)

// ArticlePathPrefix is the path segment that precedes an article ID in article URLs.
const ArticlePathPrefix = "/p/"

// ArticleRef identifies one article of the author's listing.
type ArticleRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// NewArticleRef derives the canonical article URL from the site base and the numeric ID.
func NewArticleRef(baseURL, id string) ArticleRef {
	return ArticleRef{
		ID:  id,
		URL: strings.TrimRight(baseURL, "/") + ArticlePathPrefix + id,
	}
}

// ArticleMeta holds everything extracted about one article.
type ArticleMeta struct {
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	BodyHTML    string     `json:"bodyHtml,omitempty"`
}

// WithDefaults fills the fields that could not be extracted.
// Title falls back to the article URL, the body to a paragraph wrapping the description.
func (m ArticleMeta) WithDefaults(articleURL string) ArticleMeta {
	m.Title = strings.TrimSpace(m.Title)
	m.Description = strings.TrimSpace(m.Description)

	if m.Title == "" {
		m.Title = articleURL
	}

	if strings.TrimSpace(m.BodyHTML) == "" {
		m.BodyHTML = "<p>" + html.EscapeString(m.Description) + "</p>"
	}

	return m
}

// FeedItem is one enriched article ready to be serialized into the feed.
type FeedItem struct {
	PubDate        *time.Time `json:"pubDate,omitempty"`
	Title          string     `json:"title"`
	Link           string     `json:"link"`
	GUID           string     `json:"guid"`
	Description    string     `json:"description"`
	ContentEncoded string     `json:"contentEncoded,omitempty"`
}

// NewFeedItem combines a reference with its metadata. GUID defaults to the link.
func NewFeedItem(ref ArticleRef, meta ArticleMeta) FeedItem {
	return FeedItem{
		Title:          meta.Title,
		Link:           ref.URL,
		GUID:           ref.URL,
		PubDate:        meta.PublishedAt,
		Description:    meta.Description,
		ContentEncoded: meta.BodyHTML,
	}
}
