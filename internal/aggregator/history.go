package aggregator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"xwikireport/internal/models"
	"xwikireport/internal/xwiki"
)

// Extraction errors. Each maps to one diagnostic kind.
var (
	ErrMissingMetadataLink = errors.New("no page metadata link")
	ErrMissingHistoryLink  = errors.New("no history link")
	ErrNoRevisions         = errors.New("history contains no revisions")
)

// ModifierPrefixes are identity namespaces stripped from modifier values.
var ModifierPrefixes = []string{"XWiki.", "xwiki:"}

// Link relations of a page summary.
const (
	RelPage    = "http://www.xwiki.org/rel/page"
	RelHistory = "http://www.xwiki.org/rel/history"
)

var (
	metadataLinkRe = regexp.MustCompile(`pages/WebHome$`)
	historyLinkRe  = regexp.MustCompile(`WebHome/history`)
)

// Revision is one decoded history entry.
type Revision struct {
	Modified models.Timestamp
	Modifier string
}

// StripModifierPrefix removes known namespace prefixes from the front of a
// modifier until none remain. Applying it twice is the same as once.
func StripModifierPrefix(modifier string) string {
	modifier = strings.TrimSpace(modifier)

	for {
		trimmed := modifier
		for _, p := range ModifierPrefixes {
			trimmed = strings.TrimPrefix(trimmed, p)
		}

		if trimmed == modifier {
			return modifier
		}

		modifier = trimmed
	}
}

// FindMetadataLink returns the page's own metadata link: the one with the
// page relation, or else the last link without a relation whose path ends in
// pages/WebHome. Parent and space links of nested pages end the same way and
// are never chosen.
func FindMetadataLink(links []models.Link) (string, bool) {
	return findLink(links, RelPage, metadataLinkRe)
}

// FindHistoryLink returns the revision history link, chosen the same way as
// FindMetadataLink.
func FindHistoryLink(links []models.Link) (string, bool) {
	return findLink(links, RelHistory, historyLinkRe)
}

func findLink(links []models.Link, rel string, re *regexp.Regexp) (string, bool) {
	for _, l := range links {
		if l.Rel == rel {
			return l.Href, true
		}
	}

	href, found := "", false

	for _, l := range links {
		if l.Rel == "" && re.MatchString(linkPath(l.Href)) {
			href, found = l.Href, true
		}
	}

	return href, found
}

// linkPath drops any query or fragment so that the suffix match looks at
// the path only.
func linkPath(href string) string {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		return href[:i]
	}

	return href
}

// ParseRevisions converts decoded history entries, keeping document order.
func ParseRevisions(entries []xwiki.HistorySummary) ([]Revision, error) {
	revisions := make([]Revision, 0, len(entries))

	for i, e := range entries {
		modified, err := models.ParseTimestamp(e.Modified)
		if err != nil {
			return nil, fmt.Errorf("revision %d: %w", i, err)
		}

		revisions = append(revisions, Revision{
			Modified: modified,
			Modifier: StripModifierPrefix(e.Modifier),
		})
	}

	return revisions, nil
}

// Latest returns the revision with the greatest modification time; ties go
// to the earliest entry in document order. newestFirst reports whether the
// feed was already ordered newest first.
func Latest(revisions []Revision) (latest Revision, newestFirst bool, err error) {
	if len(revisions) == 0 {
		return Revision{}, false, ErrNoRevisions
	}

	latest = revisions[0]
	newestFirst = true

	for i := 1; i < len(revisions); i++ {
		r := revisions[i]
		if r.Modified.After(revisions[i-1].Modified.Time) {
			newestFirst = false
		}

		if r.Modified.After(latest.Modified.Time) {
			latest = r
		}
	}

	return latest, newestFirst, nil
}
