package crawler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"authorfeed/internal/config"
	"authorfeed/internal/logger"
)

var fixedBuildTime = time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)

var storyText = strings.Repeat("The advertising war between the two companies moved into cloud computing, and advertisers, agencies and publishers started to shift their budgets. ", 10)

func storyPage(title, published string) string {
	return `<!DOCTYPE html><html><head>
<title>` + title + ` - 36氪</title>
<meta property="og:title" content="` + title + `">
<meta property="og:description" content="Summary of ` + title + `">
<meta property="article:published_time" content="` + published + `">
</head><body>
<header><a href="/">Home</a></header>
<article>
<h1>` + title + `</h1>
<p>` + storyText + `</p>
<p>` + storyText + `<img src="/img/cover.png" onerror="alert(1)"></p>
<p>` + storyText + `</p>
</article>
</body></html>`
}

const listingPage = `<!DOCTYPE html><html><body>
<div class="author">刀客Doc <a href="/user/5081058">profile</a></div>
<ul>
<li><a href="/p/1111111111">first</a></li>
<li><a href="https://www.36kr.com/p/2222222222?from=user">second</a></li>
<li><a href="/p/1111111111#comments">first again</a></li>
</ul>
</body></html>`

type siteFixture struct {
	listing  string
	articles map[string]string
	failing  map[string]bool
}

func (f siteFixture) server(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/user/5081058", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(f.listing))
	})

	mux.HandleFunc("/p/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/p/")

		if f.failing[id] {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		page, ok := f.articles[id]
		if !ok {
			http.NotFound(w, r)

			return
		}

		_, _ = w.Write([]byte(page))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func defaultFixture() siteFixture {
	return siteFixture{
		listing: listingPage,
		articles: map[string]string{
			"1111111111": storyPage("First story", "2025-10-31T12:28:28+08:00"),
			"2222222222": storyPage("Second story", "2025-10-20 16:19:29"),
		},
	}
}

func testClient(t *testing.T, srv *httptest.Server, output string) *Client {
	t.Helper()

	cfg := config.Default()
	cfg.Source.BaseURL = srv.URL
	cfg.Source.MobileHost = ""
	cfg.Crawl.DelayMs = 0
	cfg.Crawl.TimeoutSec = 5
	cfg.Output.Path = output

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Invalid test config: %v", err)
	}

	client, err := NewClient(cfg, logger.Discard())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	client.builder.Now = func() time.Time { return fixedBuildTime }

	return client
}

func readFeed(t *testing.T, path string) (*gofeed.Feed, []byte) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read feed: %v", err)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to parse feed: %v\n%s", err, data)
	}

	return parsed, data
}

func TestClient_RunEndToEnd(t *testing.T) {
	srv := defaultFixture().server(t)
	output := filepath.Join(t.TempDir(), "docs", "feed.xml")

	n, err := testClient(t, srv, output).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if n != 2 {
		t.Errorf("Expected 2 items written, got %d", n)
	}

	parsed, _ := readFeed(t, output)

	if len(parsed.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(parsed.Items))
	}

	first, second := parsed.Items[0], parsed.Items[1]

	if first.Link != srv.URL+"/p/1111111111" || second.Link != srv.URL+"/p/2222222222" {
		t.Errorf("Expected items in listing order, got %s, %s", first.Link, second.Link)
	}

	if first.Title != "First story" || first.Description != "Summary of First story" {
		t.Errorf("Unexpected first item metadata: %q / %q", first.Title, first.Description)
	}

	if first.Published != "Fri, 31 Oct 2025 04:28:28 GMT" {
		t.Errorf("Expected pubDate in GMT, got %q", first.Published)
	}

	// zone-less publish dates are read in the feed timezone
	if second.Published != "Mon, 20 Oct 2025 08:19:29 GMT" {
		t.Errorf("Expected pubDate read in Asia/Shanghai, got %q", second.Published)
	}

	if !strings.Contains(first.Content, "cloud computing") {
		t.Errorf("Expected article body in content:encoded, got %q", first.Content)
	}

	if strings.Contains(first.Content, "onerror") || strings.Contains(first.Content, "<article") {
		t.Errorf("Expected sanitized body, got %q", first.Content)
	}

	if !strings.Contains(first.Content, `src="`+srv.URL+`/img/cover.png"`) {
		t.Errorf("Expected absolute image URL, got %q", first.Content)
	}

	if parsed.Title != "刀客Doc" {
		t.Errorf("Expected channel title, got %q", parsed.Title)
	}
}

func TestClient_FailingArticleDegrades(t *testing.T) {
	fixture := defaultFixture()
	fixture.failing = map[string]bool{"2222222222": true}

	srv := fixture.server(t)
	output := filepath.Join(t.TempDir(), "feed.xml")

	if _, err := testClient(t, srv, output).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	parsed, data := readFeed(t, output)

	if len(parsed.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(parsed.Items))
	}

	failed := parsed.Items[1]
	articleURL := srv.URL + "/p/2222222222"

	if failed.Title != articleURL {
		t.Errorf("Expected title to fall back to URL, got %q", failed.Title)
	}

	if failed.Description != "" {
		t.Errorf("Expected empty description, got %q", failed.Description)
	}

	if failed.Content != "<p></p>" {
		t.Errorf("Expected empty paragraph body, got %q", failed.Content)
	}

	if bytes.Count(data, []byte("<pubDate>")) != 1 {
		t.Errorf("Expected pubDate only on the successful item:\n%s", data)
	}

	if parsed.Items[0].Title != "First story" {
		t.Errorf("Expected first item unaffected, got %q", parsed.Items[0].Title)
	}
}

func TestClient_RerunIsIdentical(t *testing.T) {
	srv := defaultFixture().server(t)
	dir := t.TempDir()

	first := filepath.Join(dir, "a.xml")
	second := filepath.Join(dir, "b.xml")

	if _, err := testClient(t, srv, first).Run(context.Background()); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	client := testClient(t, srv, second)
	client.builder.Now = func() time.Time { return fixedBuildTime.Add(time.Hour) }

	if _, err := client.Run(context.Background()); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)

	aLines := strings.Split(string(a), "\n")
	bLines := strings.Split(string(b), "\n")

	if len(aLines) != len(bLines) {
		t.Fatalf("Expected same line count, got %d and %d", len(aLines), len(bLines))
	}

	diffs := 0

	for i := range aLines {
		if aLines[i] == bLines[i] {
			continue
		}

		diffs++

		if !strings.Contains(aLines[i], "<lastBuildDate>") {
			t.Errorf("Unexpected difference on line %d: %q vs %q", i, aLines[i], bLines[i])
		}
	}

	if diffs != 1 {
		t.Errorf("Expected only lastBuildDate to differ, got %d differing lines", diffs)
	}
}

func TestClient_ListingFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	output := filepath.Join(t.TempDir(), "feed.xml")

	_, err := testClient(t, srv, output).Run(context.Background())
	if !errors.Is(err, ErrUnexpectedStatusCode) {
		t.Fatalf("Expected ErrUnexpectedStatusCode, got %v", err)
	}

	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Errorf("Expected no feed file after a failed listing, got %v", statErr)
	}
}

func TestClient_NoArticles(t *testing.T) {
	fixture := siteFixture{listing: `<html><body><p>nothing yet, 3 posts</p></body></html>`}
	srv := fixture.server(t)
	output := filepath.Join(t.TempDir(), "feed.xml")

	_, err := testClient(t, srv, output).Run(context.Background())
	if !errors.Is(err, ErrNoArticles) {
		t.Fatalf("Expected ErrNoArticles, got %v", err)
	}

	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Errorf("Expected no feed file without articles, got %v", statErr)
	}
}

func TestClient_CanceledContext(t *testing.T) {
	srv := defaultFixture().server(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(t, srv, filepath.Join(t.TempDir(), "feed.xml")).Crawl(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestNewLimiter(t *testing.T) {
	if got := NewLimiter(0).Limit(); got != rate.Inf {
		t.Errorf("Expected unlimited rate for zero delay, got %v", got)
	}

	if got := NewLimiter(1200 * time.Millisecond).Limit(); got != rate.Every(1200*time.Millisecond) {
		t.Errorf("Expected one event per 1.2s, got %v", got)
	}
}
