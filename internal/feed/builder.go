// Package feed serializes enriched articles into an RSS 2.0 document and writes it to disk.
package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"authorfeed/internal/config"
	"authorfeed/internal/models"
)

// Namespaces declared on the root element.
const (
	ContentNamespace = "http://purl.org/rss/1.0/modules/content/"
	AtomNamespace    = "http://www.w3.org/2005/Atom"
)

// DateFormat is the RFC 1123 layout RSS readers expect, always in GMT.
const DateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// Channel is the channel-level metadata of the feed.
type Channel struct {
	Title       string
	Link        string
	Description string
	Language    string
	SelfURL     string
	TTL         int
}

// ChannelFromConfig maps the feed section of the configuration.
func ChannelFromConfig(cfg *config.FeedConfig) Channel {
	return Channel{
		Title:       cfg.Title,
		Link:        cfg.Link,
		Description: cfg.Description,
		Language:    cfg.Language,
		SelfURL:     cfg.SelfURL,
		TTL:         cfg.TTL,
	}
}

// Document is a complete feed. It is built once per run and not modified afterwards.
type Document struct {
	rss rssRoot
}

type rssRoot struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	ContentNS string     `xml:"xmlns:content,attr"`
	AtomNS    string     `xml:"xmlns:atom,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	TTL           int       `xml:"ttl,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate"`
	AtomLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title          string  `xml:"title"`
	Link           string  `xml:"link"`
	GUID           rssGUID `xml:"guid"`
	PubDate        string  `xml:"pubDate,omitempty"`
	Description    cdata   `xml:"description"`
	ContentEncoded *cdata  `xml:"content:encoded,omitempty"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// cdata keeps embedded HTML as literal character data.
type cdata struct {
	Text string `xml:",cdata"`
}

// newCDATA wraps s, replacing code points XML 1.0 forbids. encoding/xml does
// this for chardata but writes cdata verbatim.
func newCDATA(s string) cdata {
	return cdata{Text: strings.Map(xmlChar, s)}
}

func xmlChar(r rune) rune {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return r
	case r >= 0x20 && r <= 0xD7FF, r >= 0xE000 && r <= 0xFFFD, r >= 0x10000 && r <= utf8.MaxRune:
		return r
	}

	return utf8.RuneError
}

// Builder assembles documents for one channel.
type Builder struct {
	// Now supplies lastBuildDate. It is the only input that is not part of the items.
	Now     func() time.Time
	channel Channel
}

// NewBuilder creates a builder for the channel.
func NewBuilder(channel Channel) *Builder {
	return &Builder{
		Now:     time.Now,
		channel: channel,
	}
}

// Build creates a document with one item per input item, in input order.
func (b *Builder) Build(items []models.FeedItem) *Document {
	ch := rssChannel{
		Title:         b.channel.Title,
		Link:          b.channel.Link,
		Description:   b.channel.Description,
		Language:      b.channel.Language,
		TTL:           b.channel.TTL,
		LastBuildDate: FormatDate(b.Now()),
		AtomLink: atomLink{
			Href: b.channel.SelfURL,
			Rel:  "self",
			Type: "application/rss+xml",
		},
		Items: make([]rssItem, 0, len(items)),
	}

	for _, item := range items {
		guid := item.GUID
		if guid == "" {
			guid = item.Link
		}

		out := rssItem{
			Title:       item.Title,
			Link:        item.Link,
			GUID:        rssGUID{IsPermaLink: "true", Value: guid},
			Description: newCDATA(item.Description),
		}

		if item.PubDate != nil {
			out.PubDate = FormatDate(*item.PubDate)
		}

		if item.ContentEncoded != "" {
			body := newCDATA(item.ContentEncoded)
			out.ContentEncoded = &body
		}

		ch.Items = append(ch.Items, out)
	}

	return &Document{rss: rssRoot{
		Version:   "2.0",
		ContentNS: ContentNamespace,
		AtomNS:    AtomNamespace,
		Channel:   ch,
	}}
}

// Len returns the number of items.
func (d *Document) Len() int {
	return len(d.rss.Channel.Items)
}

// Marshal serializes the document with an XML declaration and two-space indentation.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	if err := enc.Encode(d.rss); err != nil {
		return nil, fmt.Errorf("failed to marshal feed: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush feed: %w", err)
	}

	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

// FormatDate renders t in the RSS date format.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateFormat)
}
