package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"authorfeed/internal/config"
	"authorfeed/internal/crawler/parsers"
	"authorfeed/internal/logger"
	"authorfeed/internal/models"
)

// Listing errors.
var (
	ErrAPIResponse = errors.New("listing api returned an error")
)

// Listing is the author's article list in publication order.
type Listing struct {
	// Hints holds metadata the listing itself carried, keyed by article ID.
	Hints map[string]models.ArticleMeta
	Refs  []models.ArticleRef
	Pages int
}

// Lister produces the author's article list.
type Lister interface {
	List(ctx context.Context) (*Listing, error)
}

// NewLister picks the listing source configured in source.mode.
func NewLister(cfg *config.Config, scraper *Scraper, log *logger.Logger) Lister {
	if cfg.Source.Mode == config.ModeAPI {
		return NewAPILister(cfg, scraper, log)
	}

	return NewHTMLLister(cfg, scraper, parsers.NewParser(), log)
}

// HTMLLister scrapes the author's listing page.
type HTMLLister struct {
	scraper *Scraper
	parser  *parsers.Parser
	logger  *logger.Logger
	source  config.SourceConfig
	limit   int
}

// NewHTMLLister creates a lister for the HTML listing page.
func NewHTMLLister(cfg *config.Config, scraper *Scraper, parser *parsers.Parser, log *logger.Logger) *HTMLLister {
	return &HTMLLister{
		scraper: scraper,
		parser:  parser,
		logger:  log,
		source:  cfg.Source,
		limit:   cfg.Crawl.MaxItems,
	}
}

// List fetches the listing page and extracts article IDs from it.
func (l *HTMLLister) List(ctx context.Context) (*Listing, error) {
	listingURL := l.source.ListingURL()

	content, status, duration, err := l.scraper.FetchWithMetrics(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing page: %w", err)
	}

	l.logger.Info("Listing page fetched", "url", listingURL, "status", status, "bytes", len(content), "duration", duration)

	result, err := l.parser.ExtractIDs(content, l.limit, l.source.UserID)
	if err != nil {
		return nil, err
	}

	for _, count := range result.Counts {
		l.logger.Debug("Extraction strategy", "strategy", count.Name, "added", count.Added)
	}

	listing := &Listing{Hints: map[string]models.ArticleMeta{}, Pages: 1}
	for _, id := range result.IDs {
		listing.Refs = append(listing.Refs, models.NewArticleRef(l.source.BaseURL, id))
	}

	return listing, nil
}

// Page events understood by the listing API.
const (
	pageEventFirst = 0
	pageEventNext  = 1
)

type apiRequest struct {
	PartnerID string   `json:"partner_id"`
	Param     apiParam `json:"param"`
	Timestamp int64    `json:"timestamp"`
}

type apiParam struct {
	UserID       string `json:"userId"`
	PageCallback string `json:"pageCallback"`
	PageEvent    int    `json:"pageEvent"`
	PageSize     int    `json:"pageSize"`
	SiteID       int    `json:"siteId"`
	PlatformID   int    `json:"platformId"`
}

type apiResponse struct {
	Msg  string  `json:"msg"`
	Data apiPage `json:"data"`
	Code int     `json:"code"`
}

type apiPage struct {
	PageCallback string    `json:"pageCallback"`
	ItemList     []apiItem `json:"itemList"`
}

type apiItem struct {
	TemplateMaterial *apiMaterial    `json:"templateMaterial"`
	ItemID           json.RawMessage `json:"itemId"`
}

type apiMaterial struct {
	WidgetTitle string `json:"widgetTitle"`
	Summary     string `json:"summary"`
	PublishTime int64  `json:"publishTime"`
}

// id returns the item ID whether the API sent it as a string or a number.
func (i apiItem) id() string {
	raw := bytes.TrimSpace(i.ItemID)

	return strings.Trim(string(raw), `"`)
}

func (i apiItem) hint() (models.ArticleMeta, bool) {
	m := i.TemplateMaterial
	if m == nil {
		return models.ArticleMeta{}, false
	}

	meta := models.ArticleMeta{
		Title:       strings.TrimSpace(m.WidgetTitle),
		Description: strings.TrimSpace(m.Summary),
	}

	if m.PublishTime > 0 {
		published := time.UnixMilli(m.PublishTime).UTC()
		meta.PublishedAt = &published
	}

	return meta, true
}

// APILister pages through the JSON listing endpoint using its continuation token.
type APILister struct {
	scraper *Scraper
	logger  *logger.Logger
	now     func() time.Time
	source  config.SourceConfig
	limit   int
}

// NewAPILister creates a lister for the paginated listing API.
func NewAPILister(cfg *config.Config, scraper *Scraper, log *logger.Logger) *APILister {
	return &APILister{
		scraper: scraper,
		logger:  log,
		now:     time.Now,
		source:  cfg.Source,
		limit:   cfg.Crawl.MaxItems,
	}
}

// List requests pages until the server returns no token, an empty page, or the cap is reached.
func (l *APILister) List(ctx context.Context) (*Listing, error) {
	collector := parsers.NewCollector(l.limit)
	listing := &Listing{Hints: map[string]models.ArticleMeta{}}

	event := pageEventFirst
	callback := ""

	for {
		req := apiRequest{
			PartnerID: l.source.API.PartnerID,
			Timestamp: l.now().UnixMilli(),
			Param: apiParam{
				UserID:       l.source.UserID,
				PageEvent:    event,
				PageSize:     l.source.API.PageSize,
				PageCallback: callback,
				SiteID:       l.source.API.SiteID,
				PlatformID:   l.source.API.PlatformID,
			},
		}

		var resp apiResponse
		if err := l.scraper.PostJSON(ctx, l.source.API.Endpoint, req, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch listing page %d: %w", listing.Pages+1, err)
		}

		if resp.Code != 0 {
			return nil, fmt.Errorf("%w: code %d: %s", ErrAPIResponse, resp.Code, resp.Msg)
		}

		listing.Pages++

		added := 0

		for _, item := range resp.Data.ItemList {
			id := item.id()
			if !collector.Add(id) {
				continue
			}

			added++

			if hint, ok := item.hint(); ok {
				listing.Hints[id] = hint
			}
		}

		l.logger.Info("Listing page fetched", "page", listing.Pages, "items", len(resp.Data.ItemList), "new", added)

		next := resp.Data.PageCallback
		if len(resp.Data.ItemList) == 0 || collector.Full() || next == "" || next == callback {
			break
		}

		event = pageEventNext
		callback = next
	}

	for _, id := range collector.IDs() {
		listing.Refs = append(listing.Refs, models.NewArticleRef(l.source.BaseURL, id))
	}

	return listing, nil
}
