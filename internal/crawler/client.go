package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"authorfeed/internal/config"
	"authorfeed/internal/enricher"
	"authorfeed/internal/feed"
	"authorfeed/internal/logger"
	"authorfeed/internal/models"
	"authorfeed/pkg/utils"
)

// ErrNoArticles indicates the listing yielded no article IDs.
var ErrNoArticles = errors.New("no article IDs found in listing")

// logTitleWidth bounds titles in progress lines, in terminal columns.
const logTitleWidth = 48

// Client drives one run: listing, enrichment, feed building and writing.
type Client struct {
	lister   Lister
	enricher *enricher.Enricher
	builder  *feed.Builder
	limiter  *rate.Limiter
	logger   *logger.Logger
	text     *utils.StringHelper
	output   string
}

// NewClient wires the pipeline from configuration.
func NewClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	scraper := NewScraperWithConfig(&cfg.Crawl)

	enr := enricher.New(scraper, enricher.Options{
		Location:    loc,
		MobileHost:  cfg.Source.MobileHost,
		FullContent: cfg.Crawl.FullContent,
	})

	return NewClientWithDeps(
		NewLister(cfg, scraper, log),
		enr,
		feed.NewBuilder(feed.ChannelFromConfig(&cfg.Feed)),
		NewLimiter(cfg.Crawl.GetDelay()),
		log,
		cfg.Output.Path,
	), nil
}

// NewClientWithDeps creates a client with injected dependencies.
func NewClientWithDeps(
	lister Lister,
	enr *enricher.Enricher,
	builder *feed.Builder,
	limiter *rate.Limiter,
	log *logger.Logger,
	output string,
) *Client {
	return &Client{
		lister:   lister,
		enricher: enr,
		builder:  builder,
		limiter:  limiter,
		logger:   log,
		text:     utils.NewStringHelper(),
		output:   output,
	}
}

// NewLimiter spaces article fetches delay apart. A zero delay disables waiting.
func NewLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}

	return rate.NewLimiter(rate.Every(delay), 1)
}

// Crawl lists the author's articles and enriches each of them in listing order.
// Only a failed or empty listing is an error; article failures degrade the item.
func (c *Client) Crawl(ctx context.Context) ([]models.FeedItem, error) {
	listing, err := c.lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	if len(listing.Refs) == 0 {
		return nil, ErrNoArticles
	}

	c.logger.Info("Article IDs found", "count", len(listing.Refs), "pages", listing.Pages)

	items := make([]models.FeedItem, 0, len(listing.Refs))

	for i, ref := range listing.Refs {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("crawl interrupted: %w", err)
		}

		var hint *models.ArticleMeta
		if h, ok := listing.Hints[ref.ID]; ok {
			hint = &h
		}

		meta, report := c.enricher.Enrich(ctx, ref, hint)
		c.logReport(ref, report)

		c.logger.Info("Article enriched",
			"progress", fmt.Sprintf("%d/%d", i+1, len(listing.Refs)),
			"id", ref.ID,
			"title", c.text.TruncateString(meta.Title, logTitleWidth),
			"body", report.BodyFrom != "",
		)

		items = append(items, models.NewFeedItem(ref, meta))
	}

	return items, nil
}

// Run crawls, builds the feed and writes it to the output path. It returns
// the number of items written.
func (c *Client) Run(ctx context.Context) (int, error) {
	items, err := c.Crawl(ctx)
	if err != nil {
		return 0, err
	}

	doc := c.builder.Build(items)

	data, err := doc.Marshal()
	if err != nil {
		return 0, err
	}

	if err := feed.WriteFile(c.output, data); err != nil {
		return 0, fmt.Errorf("failed to write feed: %w", err)
	}

	c.logger.Info("Feed written", "path", c.output, "items", doc.Len(), "bytes", len(data))

	return doc.Len(), nil
}

func (c *Client) logReport(ref models.ArticleRef, report enricher.Report) {
	for _, attempt := range report.Attempts {
		if attempt.Outcome == enricher.OutcomeFound {
			continue
		}

		args := []any{"id", ref.ID, "url", attempt.URL, "outcome", attempt.Outcome.String()}
		if attempt.Err != nil {
			args = append(args, "error", attempt.Err)
		}

		c.logger.Debug("Candidate skipped", args...)
	}

	if report.Degraded() {
		c.logger.Warn("Article page unavailable, using fallback metadata", "id", ref.ID, "url", ref.URL)
	}
}
