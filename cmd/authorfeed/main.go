// Package main provides the authorfeed command that turns an author's article list into an RSS feed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"authorfeed/internal/config"
	"authorfeed/internal/crawler"
	"authorfeed/internal/logger"
)

const defaultConfigFile = "configs/authorfeed.yaml"

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file (default "+defaultConfigFile+" when present)")
	output := flag.String("output", "", "Output feed path (overrides config)")
	userID := flag.String("user", "", "Author user ID (overrides config)")
	mode := flag.String("mode", "", "Listing source: html or api (overrides config)")
	maxItems := flag.Int("max-items", 0, "Maximum number of articles (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	showUsage := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *showUsage {
		printUsage()
		os.Exit(0)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	path := *configFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	cfg, err := config.LoadConfigWithOverrides(path, func(c *config.Config) {
		if *output != "" {
			c.Output.Path = *output
		}

		if *userID != "" {
			c.Source.UserID = *userID
		}

		if *mode != "" {
			c.Source.Mode = *mode
		}

		if *maxItems > 0 {
			c.Crawl.MaxItems = *maxItems
		}

		if *logLevel != "" {
			c.Logging.Level = *logLevel
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Logging.Level).With("run", uuid.NewString())
	log.Info("Starting feed generation", "config", cfg.String(), "file", path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := crawler.NewClient(cfg, log)
	if err != nil {
		log.Error("Failed to initialize crawler", "error", err)
		stop()
		os.Exit(1)
	}

	n, err := client.Run(ctx)
	if err != nil {
		log.Error("Feed generation failed", "error", err)
		stop()
		os.Exit(1)
	}

	log.Info("Done", "path", cfg.Output.Path, "items", n)
}

func printUsage() {
	fmt.Println("authorfeed - RSS feed generator for a single author's articles")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  authorfeed [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  FEED_USER_ID, FEED_OUTPUT, FEED_BASE_URL, FEED_SOURCE_MODE, FEED_MAX_ITEMS, FEED_DELAY_MS,")
	fmt.Println("  FEED_TIMEOUT_SEC, FEED_FULL_CONTENT, FEED_TITLE, FEED_DESCRIPTION, FEED_SITE_URL,")
	fmt.Println("  FEED_SELF_URL, FEED_TIMEZONE, FEED_LOG_LEVEL. A .env file in the working directory is loaded first.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  authorfeed")
	fmt.Println("  authorfeed -user 5081058 -output docs/feed.xml")
	fmt.Println("  authorfeed -config configs/authorfeed.yaml -mode api -max-items 10")
}
