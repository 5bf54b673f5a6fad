// Package main provides the uploader command: it publishes an existing
// consolidated report to the configured wiki page.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"xwikireport/internal/config"
	"xwikireport/internal/logger"
	"xwikireport/internal/publish"
	"xwikireport/internal/report"
	"xwikireport/internal/xwiki"
)

type options struct {
	Config  string `long:"config" short:"c" env:"XWIKI_REPORT_CONFIG" default:"configs/reporter.yaml" description:"Path to YAML configuration file"`
	Input   string `long:"input" short:"i" description:"Report to publish (default: today's consolidated report in output.dir)"`
	PageURL string `long:"page-url" description:"Wiki REST page URL (overrides publish.page_url)"`
	Token   string `long:"token" env:"XWIKI_BEARER_TOKEN" description:"Authorization token (overrides publish.token)"`
}

func main() {
	var opts options

	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}

		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, opts)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.LoadConfig(opts.Config)
	if err != nil {
		return err
	}

	if opts.PageURL != "" {
		cfg.Publish.PageURL = opts.PageURL
	}

	if opts.Token != "" {
		cfg.Publish.Token = opts.Token
	}

	cfg.Publish.Enabled = true
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	input := opts.Input
	if input == "" {
		input = filepath.Join(cfg.Output.Dir, report.ConsolidatedName(time.Now()))
	}

	log := logger.NewLogger(cfg.Logging.Level)
	log.Info("Starting uploader", "input", input, "page", cfg.Publish.PageURL)

	client, err := xwiki.NewClient(cfg.XWiki, log)
	if err != nil {
		return err
	}

	archived, err := publish.NewPublisher(cfg.Publish, client.HTTPClient(), log).Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Printf("\n✓ Published %s to %s\n", filepath.Base(input), cfg.Publish.PageURL)
	fmt.Printf("  Local copy archived as %s\n", archived)

	return nil
}
