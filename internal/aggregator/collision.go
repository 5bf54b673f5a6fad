package aggregator

import (
	"fmt"
	"path"
	"strings"

	"xwikireport/internal/logger"
	"xwikireport/internal/models"
)

// CollisionPolicy decides what happens when two pages resolve to the same
// title.
type CollisionPolicy string

// Collision policies.
const (
	// CollisionFirst keeps the first record and reports later ones.
	CollisionFirst CollisionPolicy = "first"
	// CollisionLast keeps the last record in the first one's position and
	// reports the replaced ones.
	CollisionLast CollisionPolicy = "last"
	// CollisionError drops every record sharing the title and reports each.
	CollisionError CollisionPolicy = "error"
	// CollisionDisambiguate keeps all records, suffixing later titles with
	// their URL leaf.
	CollisionDisambiguate CollisionPolicy = "disambiguate"
)

// accumulator collects records in encounter order under a collision policy.
type accumulator struct {
	policy      CollisionPolicy
	log         *logger.Logger
	records     []models.ArticleRecord
	dropped     []bool
	byTitle     map[string]int
	diagnostics []models.Diagnostic
}

func newAccumulator(policy CollisionPolicy, log *logger.Logger) *accumulator {
	return &accumulator{
		policy:  policy,
		log:     log,
		byTitle: make(map[string]int),
	}
}

func (a *accumulator) add(rec models.ArticleRecord) {
	idx, seen := a.byTitle[rec.Title]
	if !seen {
		a.byTitle[rec.Title] = len(a.records)
		a.records = append(a.records, rec)
		a.dropped = append(a.dropped, false)

		return
	}

	existing := a.records[idx]
	a.log.Warn("duplicate article title", "title", rec.Title, "policy", a.policy,
		"kept_url", existing.PageURL, "new_url", rec.PageURL)

	switch a.policy {
	case CollisionLast:
		a.records[idx] = rec
		a.report(existing, fmt.Sprintf("replaced by %s", rec.PageURL))
	case CollisionError:
		if !a.dropped[idx] {
			a.dropped[idx] = true
			a.report(existing, fmt.Sprintf("title also used by %s", rec.PageURL))
		}

		a.report(rec, fmt.Sprintf("title also used by %s", existing.PageURL))
	case CollisionDisambiguate:
		rec.Title = a.uniqueTitle(rec)
		a.byTitle[rec.Title] = len(a.records)
		a.records = append(a.records, rec)
		a.dropped = append(a.dropped, false)
	default:
		a.report(rec, fmt.Sprintf("title already used by %s", existing.PageURL))
	}
}

func (a *accumulator) report(rec models.ArticleRecord, reason string) {
	a.diagnostics = append(a.diagnostics, models.Diagnostic{
		Title:   rec.Title,
		PageURL: rec.PageURL,
		Kind:    models.KindDuplicateTitle,
		Reason:  reason,
	})
}

// uniqueTitle appends the URL leaf, then a counter, until the title is free.
func (a *accumulator) uniqueTitle(rec models.ArticleRecord) string {
	leaf := path.Base(strings.TrimRight(rec.PageURL, "/"))
	candidate := fmt.Sprintf("%s (%s)", rec.Title, leaf)

	for n := 2; ; n++ {
		if _, taken := a.byTitle[candidate]; !taken {
			return candidate
		}

		candidate = fmt.Sprintf("%s (%s %d)", rec.Title, leaf, n)
	}
}

// sorted returns the kept records ordered by creation time.
func (a *accumulator) sorted() []models.ArticleRecord {
	out := make([]models.ArticleRecord, 0, len(a.records))

	for i, rec := range a.records {
		if !a.dropped[i] {
			out = append(out, rec)
		}
	}

	sortByCreated(out)

	return out
}
