// Package index turns a space listing document into page descriptors.
package index

import (
	"errors"
	"fmt"
	"strings"

	"xwikireport/internal/logger"
	"xwikireport/internal/models"
	"xwikireport/internal/xwiki"
)

// ErrMalformedListing is fatal for the run: the listing itself could not be
// read.
var ErrMalformedListing = errors.New("malformed space listing")

// CategoryMarkers are the path segments that split a canonical URL into a
// prefix and a leaf, checked in this order.
var CategoryMarkers = []string{
	"/How-to/",
	"/General-Knowledge/",
	"/How-to-configure-VBO365/",
	"/Patch-notes/",
}

// UnmatchedCategoryError identifies a page whose URL has no known category
// segment.
type UnmatchedCategoryError struct {
	Title   string
	PageURL string
}

func (e *UnmatchedCategoryError) Error() string {
	return fmt.Sprintf("page %q (%s) matches no category marker", e.Title, e.PageURL)
}

// FlaggedPage is a page excluded by the sanitization policy.
type FlaggedPage struct {
	Title       string
	PageURL     string
	RedirectURL string
	Outcome     Outcome
}

// Result is the output of Build.
type Result struct {
	Pages       []models.PageDescriptor
	Flagged     []FlaggedPage
	Diagnostics []models.Diagnostic
}

// Builder builds page indexes under one sanitization policy.
type Builder struct {
	policy Policy
	log    *logger.Logger
}

// NewBuilder creates a builder.
func NewBuilder(policy Policy, log *logger.Logger) *Builder {
	return &Builder{policy: policy, log: log}
}

// SplitLeaf splits pageURL at the first matching category marker.
func SplitLeaf(pageURL string) (prefix, leaf string, ok bool) {
	for _, marker := range CategoryMarkers {
		if before, after, found := strings.Cut(pageURL, marker); found {
			return before, after, true
		}
	}

	return "", "", false
}

// Build parses a listing and returns the processable pages. Unmatched and
// flagged pages are reported in the result; only an unreadable listing is
// an error.
func (b *Builder) Build(listing []byte) (*Result, error) {
	summaries, err := xwiki.DecodePages(listing)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedListing, err)
	}

	result := &Result{}

	for _, s := range summaries {
		title := strings.TrimSpace(s.Title)
		pageURL := strings.TrimSpace(s.XWikiRelativeURL)

		b.log.Debug("listed page", "title", title, "xwikiRelativeUrl", pageURL)

		_, leaf, ok := SplitLeaf(pageURL)
		if !ok {
			unmatched := &UnmatchedCategoryError{Title: title, PageURL: pageURL}
			b.log.Warn("skipping page without category marker", "title", title, "url", pageURL)

			result.Diagnostics = append(result.Diagnostics, models.Diagnostic{
				Title:   title,
				PageURL: pageURL,
				Kind:    models.KindUnmatchedCategory,
				Reason:  unmatched.Error(),
			})

			continue
		}

		outcome := Sanitize(leaf)
		if outcome.Flagged() {
			redirect := b.policy.Redirect(pageURL)
			b.log.Warn("skipping page with restricted symbols in URL",
				"title", title, "url", pageURL, "marker", outcome.Marker, "redirect", redirect)

			result.Flagged = append(result.Flagged, FlaggedPage{
				Title:       title,
				PageURL:     pageURL,
				RedirectURL: redirect,
				Outcome:     outcome,
			})
			result.Diagnostics = append(result.Diagnostics, models.Diagnostic{
				Title:       title,
				PageURL:     pageURL,
				RedirectURL: redirect,
				Kind:        models.KindUnprocessableURL,
				Reason:      outcome.Reason,
			})

			continue
		}

		links := make([]models.Link, 0, len(s.Links))
		for _, l := range s.Links {
			links = append(links, models.Link{Href: l.Href, Rel: l.Rel})
		}

		result.Pages = append(result.Pages, models.PageDescriptor{
			Title:        title,
			CanonicalURL: pageURL,
			Links:        links,
		})
	}

	return result, nil
}
