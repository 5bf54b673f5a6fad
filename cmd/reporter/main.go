// Package main provides the reporter command: it inventories wiki spaces and
// writes per-space and consolidated history reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"xwikireport/internal/config"
	"xwikireport/internal/logger"
	"xwikireport/internal/pipeline"
	"xwikireport/internal/publish"
	"xwikireport/internal/xwiki"
)

type options struct {
	Config    string   `long:"config" short:"c" env:"XWIKI_REPORT_CONFIG" default:"configs/reporter.yaml" description:"Path to YAML configuration file"`
	OutputDir string   `long:"output-dir" short:"o" env:"XWIKI_REPORT_OUTPUT_DIR" description:"Directory for reports (overrides output.dir)"`
	Spaces    []string `long:"space" short:"s" description:"Only report on the space with this label (repeatable)"`
	LogLevel  string   `long:"log-level" env:"XWIKI_REPORT_LOG_LEVEL" description:"debug, info, warn or error (overrides logging.level)"`
	Username  string   `long:"username" env:"XWIKI_USERNAME" description:"Wiki user for basic auth"`
	Password  string   `long:"password" env:"XWIKI_PASSWORD" description:"Wiki password for basic auth"`
	Publish   bool     `long:"publish" description:"Publish the consolidated report (overrides publish.enabled)"`
}

func main() {
	var opts options

	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
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

func loadConfig(opts options) (*config.Config, error) {
	fmt.Printf("⚙️  Loading configuration from: %s\n", opts.Config)

	cfg, err := config.LoadConfig(opts.Config)
	if err != nil {
		return nil, err
	}

	if opts.OutputDir != "" {
		cfg.Output.Dir = opts.OutputDir
	}

	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}

	if opts.Username != "" {
		cfg.XWiki.Username = opts.Username
	}

	if opts.Password != "" {
		cfg.XWiki.Password = opts.Password
	}

	if opts.Publish {
		cfg.Publish.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	fmt.Printf("✅ Configuration loaded: %s\n\n", cfg)

	return cfg, nil
}

func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log := logger.NewLogger(cfg.Logging.Level)

	spaces := cfg.FilterSpaces(opts.Spaces)
	if len(spaces) == 0 {
		return fmt.Errorf("no enabled space matches %v", opts.Spaces)
	}

	client, err := xwiki.NewClient(cfg.XWiki, log)
	if err != nil {
		return err
	}

	var runnerOpts []pipeline.Option
	if cfg.Publish.Enabled {
		runnerOpts = append(runnerOpts, pipeline.WithPublisher(publish.NewPublisher(cfg.Publish, client.HTTPClient(), log)))
	}

	runner := pipeline.NewRunner(cfg, spaces, client, log, runnerOpts...)

	log.Info("🚀 Starting XWiki history report", "spaces", len(spaces), "output", cfg.Output.Dir)

	start := time.Now()
	summary, err := runner.Run(ctx)

	printSummary(summary, time.Since(start))

	return err
}

func printSummary(summary *pipeline.Summary, elapsed time.Duration) {
	fmt.Println("\n------------------------------------------------")
	fmt.Printf("📊 Summary Report (run %s)\n", summary.RunID)
	fmt.Println("------------------------------------------------")

	for _, rep := range summary.Spaces {
		source := "fetched"
		if rep.FromCheckpoint {
			source = "checkpoint"
		}

		fmt.Printf("%s: %d articles (%s), %d skipped\n", rep.Label, len(rep.Records), source, len(rep.Diagnostics))

		for _, path := range rep.Written {
			fmt.Printf("  ✓ %s\n", path)
		}

		for _, path := range rep.Existing {
			fmt.Printf("  = %s (already existed)\n", path)
		}

		for _, d := range rep.Diagnostics {
			fmt.Printf("  ⚠️  %s\n", d)
		}
	}

	if summary.Consolidated != "" {
		fmt.Printf("Consolidated report: %s\n", summary.Consolidated)
	}

	if summary.Archived != "" {
		fmt.Printf("Published, local copy archived as: %s\n", summary.Archived)
	}

	fmt.Printf("Total Duration: %v\n", elapsed.Truncate(time.Millisecond))
	fmt.Println("------------------------------------------------")
}
