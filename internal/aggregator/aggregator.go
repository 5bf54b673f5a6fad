// Package aggregator reduces each page's revision history to one article
// record: creation time plus latest modification.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"xwikireport/internal/logger"
	"xwikireport/internal/models"
	"xwikireport/internal/xwiki"
)

// PageError is a per-article failure. It never aborts aggregation.
type PageError struct {
	Kind models.DiagnosticKind
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

func pageErr(kind models.DiagnosticKind, err error) *PageError {
	return &PageError{Kind: kind, Err: err}
}

// Result holds the records, sorted ascending by creation time, and one
// diagnostic per page that produced no record.
type Result struct {
	Records     []models.ArticleRecord
	Diagnostics []models.Diagnostic
}

// Aggregator resolves page descriptors into article records.
type Aggregator struct {
	fetcher   xwiki.Fetcher
	collision CollisionPolicy
	log       *logger.Logger
}

// New creates an aggregator.
func New(fetcher xwiki.Fetcher, collision CollisionPolicy, log *logger.Logger) *Aggregator {
	if collision == "" {
		collision = CollisionFirst
	}

	return &Aggregator{
		fetcher:   fetcher,
		collision: collision,
		log:       log,
	}
}

// Aggregate resolves every page sequentially. Per-page failures become
// diagnostics; the only error returned is context cancellation, together
// with the partial result gathered so far.
func (a *Aggregator) Aggregate(ctx context.Context, pages []models.PageDescriptor) (*Result, error) {
	acc := newAccumulator(a.collision, a.log)
	result := &Result{}

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			result.Records = acc.sorted()
			result.Diagnostics = append(result.Diagnostics, acc.diagnostics...)

			return result, err
		}

		a.log.Info("processing page", "n", i+1, "of", len(pages), "url", page.CanonicalURL)

		rec, err := a.Resolve(ctx, page)
		if err != nil {
			var pe *PageError
			if !errors.As(err, &pe) {
				pe = pageErr(models.KindFetchFailed, err)
			}

			a.log.Warn("skipping page", "title", page.Title, "url", page.CanonicalURL, "kind", pe.Kind, "error", pe.Err)

			result.Diagnostics = append(result.Diagnostics, models.Diagnostic{
				Title:   page.Title,
				PageURL: page.CanonicalURL,
				Kind:    pe.Kind,
				Reason:  pe.Err.Error(),
			})

			continue
		}

		acc.add(rec)
	}

	result.Records = acc.sorted()
	result.Diagnostics = append(result.Diagnostics, acc.diagnostics...)

	return result, nil
}

// Resolve builds the record for one page. All state is local to the call.
func (a *Aggregator) Resolve(ctx context.Context, page models.PageDescriptor) (models.ArticleRecord, error) {
	metadataHref, ok := FindMetadataLink(page.Links)
	if !ok {
		return models.ArticleRecord{}, pageErr(models.KindMissingMetadataLink, ErrMissingMetadataLink)
	}

	historyHref, ok := FindHistoryLink(page.Links)
	if !ok {
		return models.ArticleRecord{}, pageErr(models.KindMissingHistoryLink, ErrMissingHistoryLink)
	}

	created, err := a.fetchCreated(ctx, metadataHref)
	if err != nil {
		return models.ArticleRecord{}, err
	}

	latest, err := a.fetchLatest(ctx, page, historyHref)
	if err != nil {
		return models.ArticleRecord{}, err
	}

	rec := models.ArticleRecord{
		Title:          page.Title,
		PageURL:        page.CanonicalURL,
		Created:        created,
		LatestModified: latest.Modified,
		Modifier:       latest.Modifier,
	}

	if err := rec.Validate(); err != nil {
		return models.ArticleRecord{}, pageErr(models.KindInconsistentTimestamps, err)
	}

	return rec, nil
}

func (a *Aggregator) fetchCreated(ctx context.Context, href string) (models.Timestamp, error) {
	body, err := a.fetcher.Fetch(ctx, href)
	if err != nil {
		return models.Timestamp{}, pageErr(models.KindFetchFailed, fmt.Errorf("metadata %s: %w", href, err))
	}

	raw, err := xwiki.DecodeCreated(body)
	if err != nil {
		return models.Timestamp{}, pageErr(models.KindParseFailed, fmt.Errorf("metadata %s: %w", href, err))
	}

	created, err := models.ParseTimestamp(raw)
	if err != nil {
		return models.Timestamp{}, pageErr(models.KindParseFailed, fmt.Errorf("metadata %s: %w", href, err))
	}

	return created, nil
}

func (a *Aggregator) fetchLatest(ctx context.Context, page models.PageDescriptor, href string) (Revision, error) {
	body, err := a.fetcher.Fetch(ctx, href)
	if err != nil {
		return Revision{}, pageErr(models.KindFetchFailed, fmt.Errorf("history %s: %w", href, err))
	}

	entries, err := xwiki.DecodeHistory(body)
	if err != nil {
		return Revision{}, pageErr(models.KindParseFailed, fmt.Errorf("history %s: %w", href, err))
	}

	revisions, err := ParseRevisions(entries)
	if err != nil {
		return Revision{}, pageErr(models.KindParseFailed, fmt.Errorf("history %s: %w", href, err))
	}

	latest, newestFirst, err := Latest(revisions)
	if err != nil {
		return Revision{}, pageErr(models.KindNoRevisions, err)
	}

	if !newestFirst {
		a.log.Warn("history feed is not ordered newest first, using the latest timestamp",
			"title", page.Title, "url", href)
	}

	return latest, nil
}

// sortByCreated orders records ascending by creation time; ties keep their
// encounter order.
func sortByCreated(records []models.ArticleRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Created.Before(records[j].Created.Time)
	})
}
