package index

import (
	"fmt"
	"strings"
)

// reservedMarker is a percent-encoded character that breaks downstream
// consumption of a page URL.
type reservedMarker struct {
	encoded string
	name    string
}

// reservedMarkers are checked in order; the first hit decides the reason.
var reservedMarkers = []reservedMarker{
	{encoded: "%5B", name: "open bracket"},
	{encoded: "%3A", name: "colon"},
	{encoded: "%60", name: "backtick"},
}

// Outcome is the result of sanitizing a URL leaf.
type Outcome struct {
	Leaf   string
	Marker string
	Reason string
	OK     bool
}

// Flagged reports whether the leaf must not be processed.
func (o Outcome) Flagged() bool {
	return !o.OK
}

// Sanitize checks a URL leaf for reserved encoded characters. It is pure:
// the same leaf always yields the same outcome.
func Sanitize(leaf string) Outcome {
	for _, m := range reservedMarkers {
		if strings.Contains(leaf, m.encoded) {
			return Outcome{
				Leaf:   leaf,
				Marker: m.encoded,
				Reason: fmt.Sprintf("restricted symbol %s (%s) in URL", m.encoded, m.name),
			}
		}
	}

	return Outcome{Leaf: leaf, OK: true}
}

// Mode selects what happens to flagged pages.
type Mode string

// Sanitization modes. Both exclude the page from aggregation; redirect also
// rewrites its URL to the alternate portal.
const (
	ModeSkip     Mode = "skip"
	ModeRedirect Mode = "redirect"
)

// Policy is the single sanitization policy applied by the index builder.
type Policy struct {
	Mode         Mode
	RedirectFrom string
	RedirectTo   string
}

// DefaultPolicy skips flagged pages.
func DefaultPolicy() Policy {
	return Policy{Mode: ModeSkip, RedirectFrom: "xwiki", RedirectTo: "xwiki-sup"}
}

// Redirect returns the alternate-portal URL for a flagged page: the first
// occurrence of RedirectFrom anywhere in the URL, usually the /xwiki/ path
// segment, is replaced by RedirectTo. It returns "" when the policy does not
// redirect or the label does not occur in the URL.
func (p Policy) Redirect(pageURL string) string {
	if p.Mode != ModeRedirect || p.RedirectFrom == "" || !strings.Contains(pageURL, p.RedirectFrom) {
		return ""
	}

	return strings.Replace(pageURL, p.RedirectFrom, p.RedirectTo, 1)
}
