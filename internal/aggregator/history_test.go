package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xwikireport/internal/models"
	"xwikireport/internal/xwiki"
)

func TestStripModifierPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"XWiki.Alice", "Alice"},
		{"xwiki:Bob", "Bob"},
		{"xwiki:XWiki.Carol", "Carol"},
		{"XWiki.XWiki.Dan", "Dan"},
		{"  XWiki.Eve ", "Eve"},
		{"Frank", "Frank"},
		{"Team.XWiki.Gus", "Team.XWiki.Gus"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := StripModifierPrefix(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, StripModifierPrefix(got), "idempotent")
		})
	}
}

func TestFindLinks(t *testing.T) {
	links := []models.Link{
		{Href: "https://w/rest/wikis/xwiki/spaces/VBM/pages/WebHome/translations"},
		{Href: "https://w/rest/wikis/xwiki/spaces/VBM/pages/WebHome?media=xml"},
		{Href: "https://w/rest/wikis/xwiki/spaces/VBM/pages/WebHome/history#top"},
	}

	meta, ok := FindMetadataLink(links)
	require.True(t, ok)
	assert.Equal(t, links[1].Href, meta)

	hist, ok := FindHistoryLink(links)
	require.True(t, ok)
	assert.Equal(t, links[2].Href, hist)

	_, ok = FindMetadataLink(links[:1])
	assert.False(t, ok)

	_, ok = FindHistoryLink(nil)
	assert.False(t, ok)
}

func TestFindLinks_NestedPageUsesOwnRelations(t *testing.T) {
	const base = "https://w/rest/wikis/xwiki/spaces/VBM/spaces/How-to/"

	links := []models.Link{
		{Href: "https://w/rest/wikis/xwiki/spaces/VBM", Rel: "http://www.xwiki.org/rel/space"},
		{Href: base + "pages/WebHome", Rel: "http://www.xwiki.org/rel/parent"},
		{Href: base + "spaces/Backup/pages/WebHome/history", Rel: RelHistory},
		{Href: base + "spaces/Backup/pages/WebHome", Rel: RelPage},
	}

	meta, ok := FindMetadataLink(links)
	require.True(t, ok)
	assert.Equal(t, base+"spaces/Backup/pages/WebHome", meta)

	hist, ok := FindHistoryLink(links)
	require.True(t, ok)
	assert.Equal(t, base+"spaces/Backup/pages/WebHome/history", hist)

	_, ok = FindMetadataLink(links[:3])
	assert.False(t, ok, "a parent link is never the page's own metadata")
}

func TestFindLinks_WithoutRelationsLastMatchWins(t *testing.T) {
	links := []models.Link{
		{Href: "https://w/rest/wikis/xwiki/spaces/VBM/pages/WebHome"},
		{Href: "https://w/rest/wikis/xwiki/spaces/VBM/spaces/Backup/pages/WebHome"},
	}

	meta, ok := FindMetadataLink(links)
	require.True(t, ok)
	assert.Equal(t, links[1].Href, meta)
}

func TestLatest(t *testing.T) {
	entries := []xwiki.HistorySummary{
		{Modified: "2024-02-02T00:00:00Z", Modifier: "XWiki.Alice"},
		{Modified: "2023-01-01T00:00:00Z", Modifier: "XWiki.Bob"},
	}

	revisions, err := ParseRevisions(entries)
	require.NoError(t, err)

	latest, newestFirst, err := Latest(revisions)
	require.NoError(t, err)
	assert.True(t, newestFirst)
	assert.Equal(t, "Alice", latest.Modifier)

	reversed := []Revision{revisions[1], revisions[0]}
	latest, newestFirst, err = Latest(reversed)
	require.NoError(t, err)
	assert.False(t, newestFirst)
	assert.Equal(t, "Alice", latest.Modifier)

	tie := []Revision{{Modified: revisions[0].Modified, Modifier: "first"}, {Modified: revisions[0].Modified, Modifier: "second"}}
	latest, _, err = Latest(tie)
	require.NoError(t, err)
	assert.Equal(t, "first", latest.Modifier)

	_, _, err = Latest(nil)
	assert.ErrorIs(t, err, ErrNoRevisions)
}

func TestParseRevisions_BadTimestamp(t *testing.T) {
	_, err := ParseRevisions([]xwiki.HistorySummary{{Modified: "yesterday"}})
	assert.Error(t, err)
}
