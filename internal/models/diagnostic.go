package models

import "fmt"

// DiagnosticKind classifies why a page produced no ArticleRecord.
type DiagnosticKind string

// Diagnostic kinds.
const (
	KindUnprocessableURL       DiagnosticKind = "unprocessable_url"
	KindUnmatchedCategory      DiagnosticKind = "unmatched_category"
	KindMissingMetadataLink    DiagnosticKind = "missing_metadata_link"
	KindMissingHistoryLink     DiagnosticKind = "missing_history_link"
	KindFetchFailed            DiagnosticKind = "fetch_failed"
	KindParseFailed            DiagnosticKind = "parse_failed"
	KindNoRevisions            DiagnosticKind = "no_revisions"
	KindInconsistentTimestamps DiagnosticKind = "inconsistent_timestamps"
	KindDuplicateTitle         DiagnosticKind = "duplicate_title"
)

// Diagnostic records a skipped page. RedirectURL is set when the page was
// redirected to an alternate portal instead of being dropped.
type Diagnostic struct {
	Title       string         `json:"title"`
	PageURL     string         `json:"pageUrl"`
	RedirectURL string         `json:"redirectUrl,omitempty"`
	Kind        DiagnosticKind `json:"kind"`
	Reason      string         `json:"reason"`
}

// String returns a one-line description.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s (%s): %s: %s", d.Title, d.PageURL, d.Kind, d.Reason)
}
