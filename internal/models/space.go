package models

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Space is a named collection of wiki pages. The name only labels output
// artifacts.
type Space struct {
	Name string
	URL  string
}

// Label returns the space name, deriving one from the listing URL when the
// name is empty.
func (s Space) Label() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}

	return LabelFromURL(s.URL)
}

// LabelFromURL derives a space label from a REST children listing URL such
// as .../spaces/General-Knowledge/pages/WebHome/children, where the space
// segment is the fourth from the end.
func LabelFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	segments := strings.Split(strings.TrimRight(u.Path, "/"), "/")
	if len(segments) < 4 {
		return ""
	}

	segment, err := url.PathUnescape(segments[len(segments)-4])
	if err != nil {
		segment = segments[len(segments)-4]
	}

	name := strings.ReplaceAll(segment, "-", " ")

	return cases.Title(language.English, cases.NoLower).String(name)
}
