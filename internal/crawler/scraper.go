package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"authorfeed/internal/config"
	"authorfeed/pkg/utils"
)

// Scraper errors.
var (
	// ErrUnexpectedStatusCode indicates an HTTP response with unexpected status.
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrResponseTooLarge indicates a body larger than crawl.buffer_size_kb.
	ErrResponseTooLarge = errors.New("response body exceeds buffer size")
)

// Scraper performs single-shot HTTP requests with a fixed timeout. It never retries.
type Scraper struct {
	client       *http.Client
	headers      *utils.HTTPHelper
	bufferSizeKb int
}

// NewScraper creates a new scraper instance with default config.
func NewScraper() *Scraper {
	return NewScraperWithConfig(&config.Default().Crawl)
}

// NewScraperWithConfig creates a scraper using the crawl settings.
func NewScraperWithConfig(cfg *config.CrawlConfig) *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: cfg.GetTimeout(),
		},
		headers:      utils.NewHTTPHelper(cfg.UserAgent, cfg.AcceptLanguage),
		bufferSizeKb: cfg.BufferSizeKb,
	}
}

// FetchWithMetrics returns (content, statusCode, duration, error).
func (s *Scraper) FetchWithMetrics(ctx context.Context, url string) (string, int, time.Duration, error) {
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", 0, time.Since(startTime), fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = s.headers.BuildHeaders(nil)

	body, status, err := s.do(req)

	return string(body), status, time.Since(startTime), err
}

// Fetch fetches and returns content from the given URL.
func (s *Scraper) Fetch(ctx context.Context, url string) (string, error) {
	content, _, _, err := s.FetchWithMetrics(ctx, url)

	return content, err
}

// PostJSON sends payload as a JSON body and decodes the JSON response into out.
func (s *Scraper) PostJSON(ctx context.Context, url string, payload, out any) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = s.headers.BuildHeaders(map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	})

	body, _, err := s.do(req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

func (s *Scraper) do(req *http.Request) (body []byte, status int, err error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatusCode, resp.StatusCode, req.URL)
	}

	// bufferSizeKb is in KB, convert to bytes
	limit := int64(s.bufferSizeKb) * 1024

	// one byte past the limit tells a truncated body from one that fits exactly
	body, err = io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > limit {
		return nil, resp.StatusCode, fmt.Errorf("%w: more than %d KB from %s", ErrResponseTooLarge, s.bufferSizeKb, req.URL)
	}

	return body, resp.StatusCode, nil
}
