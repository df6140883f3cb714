// Package config provides configuration management for the feed generator.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // feed.timezone must resolve on hosts without a zoneinfo database

	"gopkg.in/yaml.v3"

	"authorfeed/pkg/utils"
)

// Source modes.
const (
	ModeHTML = "html"
	ModeAPI  = "api"
)

// Configuration validation errors.
var (
	ErrMissingUserID        = errors.New("source.user_id is required")
	ErrInvalidBaseURL       = errors.New("source.base_url must be an absolute http(s) URL")
	ErrInvalidMode          = errors.New("source.mode must be 'html' or 'api'")
	ErrInvalidAPIEndpoint   = errors.New("source.api.endpoint must be an absolute http(s) URL")
	ErrInvalidPageSize      = errors.New("source.api.page_size must be at least 1")
	ErrInvalidMaxItems      = errors.New("crawl.max_items must be at least 1")
	ErrInvalidDelay         = errors.New("crawl.delay_ms must be non-negative")
	ErrInvalidTimeout       = errors.New("crawl.timeout_sec must be at least 1")
	ErrInvalidBufferSize    = errors.New("crawl.buffer_size_kb must be at least 1")
	ErrMissingFeedTitle     = errors.New("feed.title is required")
	ErrInvalidSelfURL       = errors.New("feed.self_url must be an absolute http(s) URL")
	ErrInvalidTTL           = errors.New("feed.ttl must be non-negative")
	ErrInvalidTimezone      = errors.New("feed.timezone is not a known location")
	ErrMissingOutputPath    = errors.New("output.path is required")
	ErrInvalidLogLevel      = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidEnvOverride   = errors.New("invalid environment override")
	ErrUnsupportedEnvSwitch = errors.New("value must be true or false")
)

// Config represents the complete generator configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Crawl   CrawlConfig   `yaml:"crawl"`
	Feed    FeedConfig    `yaml:"feed"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// SourceConfig describes where the author's article list comes from.
type SourceConfig struct {
	BaseURL    string    `yaml:"base_url"`
	MobileHost string    `yaml:"mobile_host"`
	UserID     string    `yaml:"user_id"`
	Mode       string    `yaml:"mode"`
	API        APIConfig `yaml:"api"`
}

// APIConfig holds the constants of the paginated JSON listing endpoint.
type APIConfig struct {
	Endpoint   string `yaml:"endpoint"`
	PartnerID  string `yaml:"partner_id"`
	PageSize   int    `yaml:"page_size"`
	SiteID     int    `yaml:"site_id"`
	PlatformID int    `yaml:"platform_id"`
}

// CrawlConfig controls how pages are fetched.
type CrawlConfig struct {
	UserAgent      string `yaml:"user_agent"`
	AcceptLanguage string `yaml:"accept_language"`
	MaxItems       int    `yaml:"max_items"`
	DelayMs        int    `yaml:"delay_ms"`
	TimeoutSec     int    `yaml:"timeout_sec"`
	BufferSizeKb   int    `yaml:"buffer_size_kb"`
	FullContent    bool   `yaml:"full_content"`
}

// FeedConfig holds the channel-level metadata.
type FeedConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Link        string `yaml:"link"`
	SelfURL     string `yaml:"self_url"`
	Language    string `yaml:"language"`
	Timezone    string `yaml:"timezone"`
	TTL         int    `yaml:"ttl"`
}

// OutputConfig defines where the feed is written.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file or override is given.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL:    "https://www.36kr.com",
			MobileHost: "m.36kr.com",
			UserID:     "5081058",
			Mode:       ModeHTML,
			API: APIConfig{
				Endpoint:   "https://gateway.36kr.com/api/mis/me/article",
				PartnerID:  "web",
				PageSize:   20,
				SiteID:     1,
				PlatformID: 2,
			},
		},
		Crawl: CrawlConfig{
			UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			AcceptLanguage: "zh-CN,zh;q=0.9,en;q=0.8",
			MaxItems:       20,
			DelayMs:        1200,
			TimeoutSec:     20,
			BufferSizeKb:   4096,
			FullContent:    true,
		},
		Feed: FeedConfig{
			Title:       "刀客Doc",
			Description: "36氪用户 5081058 的文章更新",
			Link:        "https://tomdhyang-byte.github.io/36kr-user-feed/",
			SelfURL:     "https://tomdhyang-byte.github.io/36kr-user-feed/feed.xml",
			Language:    "zh-CN",
			Timezone:    "Asia/Shanghai",
			TTL:         30,
		},
		Output: OutputConfig{
			Path: "docs/feed.xml",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file and
// environment overrides, then validates it. An empty filepath skips the file.
func LoadConfig(filepath string) (*Config, error) {
	return LoadConfigWithOverrides(filepath, nil)
}

// LoadConfigWithOverrides is LoadConfig with a final override step, applied
// after the environment and before validation. The CLI passes its flags here.
func LoadConfigWithOverrides(filepath string, override func(*Config)) (*Config, error) {
	cfg := Default()

	if filepath != "" {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if override != nil {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from FEED_* variables. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"FEED_BASE_URL":    &c.Source.BaseURL,
		"FEED_MOBILE_HOST": &c.Source.MobileHost,
		"FEED_USER_ID":     &c.Source.UserID,
		"FEED_SOURCE_MODE": &c.Source.Mode,
		"FEED_API_URL":     &c.Source.API.Endpoint,
		"FEED_TITLE":       &c.Feed.Title,
		"FEED_DESCRIPTION": &c.Feed.Description,
		"FEED_SITE_URL":    &c.Feed.Link,
		"FEED_SELF_URL":    &c.Feed.SelfURL,
		"FEED_TIMEZONE":    &c.Feed.Timezone,
		"FEED_OUTPUT":      &c.Output.Path,
		"FEED_LOG_LEVEL":   &c.Logging.Level,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"FEED_MAX_ITEMS":   &c.Crawl.MaxItems,
		"FEED_DELAY_MS":    &c.Crawl.DelayMs,
		"FEED_TIMEOUT_SEC": &c.Crawl.TimeoutSec,
		"FEED_PAGE_SIZE":   &c.Source.API.PageSize,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidEnvOverride, key, v, err)
		}

		*dst = n
	}

	if v, ok := lookup("FEED_FULL_CONTENT"); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: FEED_FULL_CONTENT=%q: %w", ErrInvalidEnvOverride, v, ErrUnsupportedEnvSwitch)
		}

		c.Crawl.FullContent = b
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	urls := utils.NewHTTPHelper("", "")

	if strings.TrimSpace(c.Source.UserID) == "" {
		return ErrMissingUserID
	}

	if !urls.IsValidURL(c.Source.BaseURL) {
		return ErrInvalidBaseURL
	}

	switch c.Source.Mode {
	case ModeHTML:
	case ModeAPI:
		if !urls.IsValidURL(c.Source.API.Endpoint) {
			return ErrInvalidAPIEndpoint
		}

		if c.Source.API.PageSize < 1 {
			return ErrInvalidPageSize
		}
	default:
		return ErrInvalidMode
	}

	if c.Crawl.MaxItems < 1 {
		return ErrInvalidMaxItems
	}

	if c.Crawl.DelayMs < 0 {
		return ErrInvalidDelay
	}

	if c.Crawl.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Crawl.BufferSizeKb < 1 {
		return ErrInvalidBufferSize
	}

	if strings.TrimSpace(c.Feed.Title) == "" {
		return ErrMissingFeedTitle
	}

	if !urls.IsValidURL(c.Feed.SelfURL) {
		return ErrInvalidSelfURL
	}

	if c.Feed.TTL < 0 {
		return ErrInvalidTTL
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if strings.TrimSpace(c.Output.Path) == "" {
		return ErrMissingOutputPath
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// Location resolves feed.timezone. An empty value means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Feed.Timezone == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(c.Feed.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Feed.Timezone)
	}

	return loc, nil
}

// GetDelay returns the pause between successive article fetches.
func (c *CrawlConfig) GetDelay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// GetTimeout returns the per-request timeout.
func (c *CrawlConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// ListingURL is the author's listing page.
func (s *SourceConfig) ListingURL() string {
	return strings.TrimRight(s.BaseURL, "/") + "/user/" + s.UserID
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{User: %s, Mode: %s, MaxItems: %d, Delay: %dms, Output: %s}",
		c.Source.UserID,
		c.Source.Mode,
		c.Crawl.MaxItems,
		c.Crawl.DelayMs,
		c.Output.Path,
	)
}
