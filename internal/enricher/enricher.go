// Package enricher turns an article reference into title, description,
// publish date and a sanitized body, degrading field by field when pages
// cannot be fetched or parsed.
package enricher

import (
	"context"
	"net/url"
	"time"

	"authorfeed/internal/models"
	"authorfeed/internal/sanitizer"
	"authorfeed/pkg/utils"
)

// Fetcher retrieves a page body. crawler.Scraper satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Outcome is the result of trying one candidate URL.
type Outcome int

// Candidate outcomes.
const (
	// OutcomeFound means the candidate produced everything that was asked for.
	OutcomeFound Outcome = iota
	// OutcomeNoContent means the page loaded but no main content block was found.
	OutcomeNoContent
	// OutcomeFetchFailed means the page could not be retrieved.
	OutcomeFetchFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNoContent:
		return "no-content"
	case OutcomeFetchFailed:
		return "fetch-failed"
	}

	return "unknown"
}

// Attempt records one candidate URL and what came of it.
type Attempt struct {
	Err     error
	URL     string
	Outcome Outcome
}

// Report describes how an article was enriched.
type Report struct {
	MetaFrom string
	BodyFrom string
	Attempts []Attempt
}

// Degraded reports whether no candidate page could be loaded at all.
func (r Report) Degraded() bool {
	return r.MetaFrom == ""
}

// Options tune the enricher.
type Options struct {
	// Location applies to publish dates that carry no zone.
	Location *time.Location
	// MobileHost replaces the article host for the second candidate. Empty disables it.
	MobileHost string
	// FullContent enables readability extraction of the article body.
	FullContent bool
}

// Enricher extracts article metadata and content.
type Enricher struct {
	fetcher Fetcher
	text    *utils.StringHelper
	opts    Options
}

// New creates an enricher.
func New(fetcher Fetcher, opts Options) *Enricher {
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &Enricher{
		fetcher: fetcher,
		text:    utils.NewStringHelper(),
		opts:    opts,
	}
}

// Candidates lists the URLs tried for an article: the article itself, then its mobile-site variant.
func (e *Enricher) Candidates(articleURL string) []string {
	candidates := []string{articleURL}

	if e.opts.MobileHost == "" {
		return candidates
	}

	u, err := url.Parse(articleURL)
	if err != nil || u.Host == "" || u.Host == e.opts.MobileHost {
		return candidates
	}

	u.Host = e.opts.MobileHost

	return append(candidates, u.String())
}

// Enrich never fails: whatever could not be extracted falls back to the
// listing hint, if any, and then to the defaults of models.ArticleMeta.
func (e *Enricher) Enrich(ctx context.Context, ref models.ArticleRef, hint *models.ArticleMeta) (models.ArticleMeta, Report) {
	var (
		meta   models.ArticleMeta
		report Report
	)

	for _, candidate := range e.Candidates(ref.URL) {
		if ctx.Err() != nil {
			break
		}

		raw, err := e.fetcher.Fetch(ctx, candidate)
		if err != nil {
			report.Attempts = append(report.Attempts, Attempt{URL: candidate, Outcome: OutcomeFetchFailed, Err: err})

			continue
		}

		if report.MetaFrom == "" {
			meta = e.ExtractMeta(raw)
			report.MetaFrom = candidate
		}

		if !e.opts.FullContent {
			report.Attempts = append(report.Attempts, Attempt{URL: candidate, Outcome: OutcomeFound})

			break
		}

		content, found := ExtractContent(raw, candidate)
		if !found {
			report.Attempts = append(report.Attempts, Attempt{URL: candidate, Outcome: OutcomeNoContent})

			continue
		}

		// the body page may carry meta the first loaded page lacked
		if candidate != report.MetaFrom {
			meta = fillMissing(meta, e.ExtractMeta(raw))
		}

		meta.BodyHTML = sanitizer.Sanitize(content.HTML, candidate)
		if meta.Title == "" {
			meta.Title = e.text.NormalizeWhitespace(content.Title)
		}

		report.BodyFrom = candidate
		report.Attempts = append(report.Attempts, Attempt{URL: candidate, Outcome: OutcomeFound})

		break
	}

	if hint != nil {
		meta = fillMissing(meta, *hint)
	}

	return meta.WithDefaults(ref.URL), report
}

// fillMissing copies title, description and publish date from other where meta has none.
func fillMissing(meta, other models.ArticleMeta) models.ArticleMeta {
	if meta.Title == "" {
		meta.Title = other.Title
	}

	if meta.Description == "" {
		meta.Description = other.Description
	}

	if meta.PublishedAt == nil {
		meta.PublishedAt = other.PublishedAt
	}

	return meta
}
