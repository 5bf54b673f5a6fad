// Package pipeline runs the reporter: per space it fetches the listing,
// builds the page index, aggregates histories and writes reports, then it
// renders the consolidated report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"xwikireport/internal/aggregator"
	"xwikireport/internal/config"
	"xwikireport/internal/index"
	"xwikireport/internal/logger"
	"xwikireport/internal/models"
	"xwikireport/internal/report"
	"xwikireport/internal/xwiki"
)

// Publisher uploads a rendered report and returns where the local file was
// archived.
type Publisher interface {
	Publish(ctx context.Context, path string) (string, error)
}

// SpaceReport is the outcome for one space.
type SpaceReport struct {
	Space          models.Space
	Label          string
	Records        []models.ArticleRecord
	Diagnostics    []models.Diagnostic
	Flagged        []index.FlaggedPage
	FromCheckpoint bool
	Written        []string
	Existing       []string
}

// Summary is the outcome of a full run.
type Summary struct {
	RunID        string
	Spaces       []*SpaceReport
	Consolidated string
	Archived     string
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock overrides the time source used for date stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithPublisher publishes the consolidated report after it is written.
func WithPublisher(p Publisher) Option {
	return func(r *Runner) { r.publisher = p }
}

// Runner executes the reporting pipeline.
type Runner struct {
	fetcher      xwiki.Fetcher
	builder      *index.Builder
	aggregator   *aggregator.Aggregator
	publisher    Publisher
	spaces       []models.Space
	outDir       string
	consolidated bool
	runID        string
	log          *logger.Logger
	now          func() time.Time
}

// NewRunner wires a runner for the given spaces. Every log line carries the
// run id.
func NewRunner(cfg *config.Config, spaces []config.SpaceConfig, fetcher xwiki.Fetcher, log *logger.Logger, opts ...Option) *Runner {
	runID := uuid.NewString()
	log = log.With("run_id", runID)

	policy := index.Policy{
		Mode:         index.Mode(cfg.Sanitize.Mode),
		RedirectFrom: cfg.Sanitize.RedirectFrom,
		RedirectTo:   cfg.Sanitize.RedirectTo,
	}

	r := &Runner{
		fetcher:      fetcher,
		builder:      index.NewBuilder(policy, log),
		aggregator:   aggregator.New(fetcher, aggregator.CollisionPolicy(cfg.Aggregation.Collision), log),
		outDir:       cfg.Output.Dir,
		consolidated: cfg.Output.Consolidated,
		runID:        runID,
		log:          log,
		now:          time.Now,
	}

	for _, sp := range spaces {
		r.spaces = append(r.spaces, sp.Space())
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RunID identifies this run in logs.
func (r *Runner) RunID() string {
	return r.runID
}

// Run processes every space in order, then writes and optionally publishes
// the consolidated report. The summary is returned even when a step fails.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: r.runID}
	at := r.now()

	steps := make([]Step, 0, len(r.spaces)+2)

	for _, sp := range r.spaces {
		sp := sp
		steps = append(steps, step("space "+sp.Label(), func(ctx context.Context) error {
			rep, err := r.RunSpace(ctx, sp, at)
			if rep != nil {
				summary.Spaces = append(summary.Spaces, rep)
			}

			return err
		}))
	}

	if r.consolidated {
		steps = append(steps, step("consolidate", func(context.Context) error {
			path, err := r.writeConsolidated(summary.Spaces, at)
			summary.Consolidated = path

			return err
		}))

		if r.publisher != nil {
			steps = append(steps, step("publish", func(ctx context.Context) error {
				archived, err := r.publisher.Publish(ctx, summary.Consolidated)
				summary.Archived = archived

				return err
			}))
		}
	}

	return summary, runSteps(ctx, r.log, steps)
}

// RunSpace produces the checkpoint and reports for one space. When today's
// checkpoint already exists it is reused and nothing is fetched.
func (r *Runner) RunSpace(ctx context.Context, space models.Space, at time.Time) (*SpaceReport, error) {
	label := space.Label()
	log := r.log.With("space", label)

	rep := &SpaceReport{Space: space, Label: label}
	checkpoint := filepath.Join(r.outDir, report.CheckpointName(label, at))

	if _, err := os.Stat(checkpoint); err == nil {
		records, err := report.LoadCheckpoint(checkpoint)
		if err != nil {
			return rep, err
		}

		log.Info("reusing checkpoint", "path", checkpoint, "records", len(records))

		rep.Records = records
		rep.FromCheckpoint = true
		rep.Existing = append(rep.Existing, checkpoint)
	} else {
		if err := r.collect(ctx, log, space, rep); err != nil {
			return rep, err
		}

		if err := r.saveCheckpoint(log, rep, checkpoint); err != nil {
			return rep, err
		}
	}

	err := r.write(log, rep, filepath.Join(r.outDir, report.MarkdownName(label, at)), func() ([]byte, error) {
		return report.Markdown(label, rep.Records, rep.Diagnostics, at), nil
	})
	if err != nil {
		return rep, err
	}

	err = r.write(log, rep, filepath.Join(r.outDir, report.HTMLName(label, at)), func() ([]byte, error) {
		return report.HTML(label, rep.Records, rep.Diagnostics, at)
	})
	if err != nil {
		return rep, err
	}

	log.Info("space complete", "records", len(rep.Records), "skipped", len(rep.Diagnostics),
		"checkpoint_reused", rep.FromCheckpoint)

	return rep, nil
}

// collect fetches the listing and aggregates every processable page.
func (r *Runner) collect(ctx context.Context, log *logger.Logger, space models.Space, rep *SpaceReport) error {
	log.Info("fetching space listing", "url", space.URL)

	listing, err := r.fetcher.Fetch(ctx, space.URL)
	if err != nil {
		return fmt.Errorf("fetch listing for %s: %w", rep.Label, err)
	}

	idx, err := r.builder.Build(listing)
	if err != nil {
		return fmt.Errorf("index %s: %w", rep.Label, err)
	}

	log.Info("space indexed", "pages", len(idx.Pages), "flagged", len(idx.Flagged),
		"skipped", len(idx.Diagnostics)-len(idx.Flagged))

	rep.Flagged = idx.Flagged
	rep.Diagnostics = append(rep.Diagnostics, idx.Diagnostics...)

	result, err := r.aggregator.Aggregate(ctx, idx.Pages)
	if result != nil {
		rep.Records = result.Records
		rep.Diagnostics = append(rep.Diagnostics, result.Diagnostics...)
	}

	if err != nil {
		return fmt.Errorf("aggregate %s: %w", rep.Label, err)
	}

	return nil
}

// saveCheckpoint stores the collected records. A checkpoint created by a
// concurrent run in the meantime is kept.
func (r *Runner) saveCheckpoint(log *logger.Logger, rep *SpaceReport, path string) error {
	if err := report.SaveCheckpoint(path, rep.Records); err != nil {
		if errors.Is(err, report.ErrExists) {
			log.Info("output already exists, keeping it", "path", path)
			rep.Existing = append(rep.Existing, path)

			return nil
		}

		return err
	}

	log.Info("created output", "path", path)
	rep.Written = append(rep.Written, path)

	return nil
}

// write renders and writes one artifact. An artifact that already exists is
// kept as is and not rendered again.
func (r *Runner) write(log *logger.Logger, rep *SpaceReport, path string, render func() ([]byte, error)) error {
	if _, err := os.Stat(path); err == nil {
		log.Info("output already exists, keeping it", "path", path)
		rep.Existing = append(rep.Existing, path)

		return nil
	}

	data, err := render()
	if err != nil {
		return err
	}

	if err := report.WriteOnce(path, data); err != nil {
		if errors.Is(err, report.ErrExists) {
			log.Info("output already exists, keeping it", "path", path)
			rep.Existing = append(rep.Existing, path)

			return nil
		}

		return err
	}

	log.Info("created output", "path", path)
	rep.Written = append(rep.Written, path)

	return nil
}

func (r *Runner) writeConsolidated(reports []*SpaceReport, at time.Time) (string, error) {
	sections := make([]report.Section, 0, len(reports))
	for _, rep := range reports {
		sections = append(sections, report.Section{
			Label:       rep.Label,
			Records:     rep.Records,
			Diagnostics: rep.Diagnostics,
		})
	}

	path := filepath.Join(r.outDir, report.ConsolidatedName(at))

	data, err := report.ConsolidatedHTML(sections, at)
	if err != nil {
		return path, err
	}

	if err := report.WriteOnce(path, data); err != nil {
		if errors.Is(err, report.ErrExists) {
			r.log.Info("consolidated report already exists, keeping it", "path", path)

			return path, nil
		}

		return path, err
	}

	r.log.Info("created consolidated report", "path", path, "spaces", len(sections))

	return path, nil
}
