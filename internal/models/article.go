// Package models defines data structures shared by the index builder,
// aggregator and report renderer.
package models

import (
	"errors"
	"fmt"
)

// ErrCreatedAfterModified indicates a record whose creation time is later
// than its latest modification.
var ErrCreatedAfterModified = errors.New("created is after latest modification")

// Link is an outbound reference scraped from a page's listing entry.
type Link struct {
	Href string `json:"href"`
	Rel  string `json:"rel,omitempty"`
}

// PageDescriptor is one wiki page as listed in a space, before its history
// is resolved.
type PageDescriptor struct {
	Title        string `json:"title"`
	CanonicalURL string `json:"canonicalUrl"`
	Links        []Link `json:"links"`
}

// ArticleRecord is the reduced creation/modification summary for one page.
type ArticleRecord struct {
	Created        Timestamp `json:"created"`
	LatestModified Timestamp `json:"latest_modified"`
	Title          string    `json:"-"`
	PageURL        string    `json:"page_url"`
	Modifier       string    `json:"modifier_without_prefix"`
}

// Validate checks the record invariants.
func (r ArticleRecord) Validate() error {
	if r.Created.After(r.LatestModified.Time) {
		return fmt.Errorf("%w: %q created %s, modified %s",
			ErrCreatedAfterModified, r.Title, r.Created, r.LatestModified)
	}

	return nil
}
