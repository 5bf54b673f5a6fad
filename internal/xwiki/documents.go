package xwiki

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Namespace is the XML namespace of every XWiki REST document.
const Namespace = "http://www.xwiki.org"

// Decoding errors.
var (
	ErrMalformedDocument = errors.New("malformed xml document")
	ErrMissingCreated    = errors.New("page document has no created element")
)

// LinkElement is an xwiki:link child.
type LinkElement struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// PageSummary is an xwiki:pageSummary element from a listing.
type PageSummary struct {
	Title            string        `xml:"http://www.xwiki.org title"`
	XWikiRelativeURL string        `xml:"http://www.xwiki.org xwikiRelativeUrl"`
	XWikiAbsoluteURL string        `xml:"http://www.xwiki.org xwikiAbsoluteUrl"`
	Links            []LinkElement `xml:"http://www.xwiki.org link"`
}

// HistorySummary is an xwiki:historySummary element from a history feed.
type HistorySummary struct {
	Version  string `xml:"http://www.xwiki.org version"`
	Modified string `xml:"http://www.xwiki.org modified"`
	Modifier string `xml:"http://www.xwiki.org modifier"`
}

type pageDocument struct {
	XMLName xml.Name `xml:"http://www.xwiki.org page"`
	Created *string  `xml:"http://www.xwiki.org created"`
}

// DecodePages returns every pageSummary in the document, at any depth, in
// document order.
func DecodePages(data []byte) ([]PageSummary, error) {
	var pages []PageSummary

	err := walk(data, "pageSummary", func(d *xml.Decoder, start *xml.StartElement) error {
		var p PageSummary
		if err := d.DecodeElement(&p, start); err != nil {
			return err
		}

		pages = append(pages, p)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return pages, nil
}

// DecodeHistory returns every historySummary in the document, at any depth,
// in document order.
func DecodeHistory(data []byte) ([]HistorySummary, error) {
	var entries []HistorySummary

	err := walk(data, "historySummary", func(d *xml.Decoder, start *xml.StartElement) error {
		var h HistorySummary
		if err := d.DecodeElement(&h, start); err != nil {
			return err
		}

		entries = append(entries, h)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// DecodeCreated returns the created value of a page document.
func DecodeCreated(data []byte) (string, error) {
	var doc pageDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	if doc.Created == nil || strings.TrimSpace(*doc.Created) == "" {
		return "", ErrMissingCreated
	}

	return strings.TrimSpace(*doc.Created), nil
}

// walk streams the document and calls fn for every element in the XWiki
// namespace with the given local name. A document with no root element is
// malformed.
func walk(data []byte, local string, fn func(*xml.Decoder, *xml.StartElement) error) error {
	d := xml.NewDecoder(bytes.NewReader(data))
	sawRoot := false

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedDocument, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		sawRoot = true

		if start.Name.Space != Namespace || start.Name.Local != local {
			continue
		}

		if err := fn(d, &start); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedDocument, err)
		}
	}

	if !sawRoot {
		return fmt.Errorf("%w: no root element", ErrMalformedDocument)
	}

	return nil
}
