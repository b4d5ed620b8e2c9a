package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoflow-labs/readme-articles/internal/domain"
)

const testDoc = `# Jane's Profile

Some intro text.

<!-- ARTICLES -->
- [Stale entry](https://example.com/old)
<!-- /ARTICLES -->

Footer stays put.
`

func testArticles() []domain.Article {
	return []domain.Article{
		{
			Title:       "Writing a feed reader",
			URL:         "https://example.com/feed-reader",
			PublishedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			Title: "Undated thoughts",
			URL:   "https://example.com/thoughts",
		},
	}
}

func TestFragment(t *testing.T) {
	got := Fragment(testArticles())
	want := "- [Writing a feed reader](https://example.com/feed-reader) (2024-03-01)\n" +
		"- [Undated thoughts](https://example.com/thoughts)"
	assert.Equal(t, want, got)
}

func TestFragmentEmpty(t *testing.T) {
	assert.Equal(t, "", Fragment(nil))
}

func TestFragmentSanitizesTitles(t *testing.T) {
	got := Fragment([]domain.Article{{
		Title: "Multi\nline [bracketed] title",
		URL:   "https://example.com/x",
	}})
	assert.Equal(t, `- [Multi line \[bracketed\] title](https://example.com/x)`, got)
}

func TestRenderReplacesRegion(t *testing.T) {
	out, err := RenderArticles(testDoc, testArticles(), DefaultMarkers())
	require.NoError(t, err)

	assert.Contains(t, out, "- [Writing a feed reader](https://example.com/feed-reader) (2024-03-01)")
	assert.NotContains(t, out, "Stale entry")

	// Everything outside the markers is byte-identical.
	assert.True(t, strings.HasPrefix(out, "# Jane's Profile\n\nSome intro text.\n\n<!-- ARTICLES -->\n"))
	assert.True(t, strings.HasSuffix(out, "<!-- /ARTICLES -->\n\nFooter stays put.\n"))
}

func TestRenderEmptyListPreservesOutside(t *testing.T) {
	out, err := RenderArticles(testDoc, nil, DefaultMarkers())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# Jane's Profile\n\nSome intro text.\n\n<!-- ARTICLES -->\n"))
	assert.True(t, strings.HasSuffix(out, "<!-- /ARTICLES -->\n\nFooter stays put.\n"))
	assert.NotContains(t, out, "Stale entry")
}

func TestRenderIdempotent(t *testing.T) {
	articles := testArticles()

	once, err := RenderArticles(testDoc, articles, DefaultMarkers())
	require.NoError(t, err)

	twice, err := RenderArticles(once, articles, DefaultMarkers())
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestRenderMarkerErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "no start marker", doc: "# Hi\n<!-- /ARTICLES -->\n"},
		{name: "no end marker", doc: "# Hi\n<!-- ARTICLES -->\n"},
		{name: "no markers at all", doc: "# Hi\n"},
		{name: "markers out of order", doc: "<!-- /ARTICLES -->\n<!-- ARTICLES -->\n"},
		{name: "duplicated start marker", doc: "<!-- ARTICLES -->\n<!-- ARTICLES -->\n<!-- /ARTICLES -->\n"},
		{name: "duplicated end marker", doc: "<!-- ARTICLES -->\n<!-- /ARTICLES -->\n<!-- /ARTICLES -->\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RenderArticles(tt.doc, testArticles(), DefaultMarkers())
			assert.ErrorIs(t, err, ErrMarkerNotFound)
		})
	}
}

func TestRenderIndentedMarkers(t *testing.T) {
	doc := "intro\n  <!-- ARTICLES -->\nold\n  <!-- /ARTICLES -->\n"

	out, err := Render(doc, "new", DefaultMarkers())
	require.NoError(t, err)
	assert.Equal(t, "intro\n  <!-- ARTICLES -->\nnew\n  <!-- /ARTICLES -->\n", out)
}

func TestRenderNoTrailingNewline(t *testing.T) {
	doc := "<!-- ARTICLES -->\n<!-- /ARTICLES -->"

	out, err := Render(doc, "x", DefaultMarkers())
	require.NoError(t, err)
	assert.Equal(t, "<!-- ARTICLES -->\nx\n<!-- /ARTICLES -->", out)
}

func TestRenderCustomMarkers(t *testing.T) {
	m := Markers{Start: "<!-- posts:start -->", End: "<!-- posts:end -->"}
	doc := "<!-- posts:start -->\n<!-- posts:end -->\n"

	out, err := Render(doc, "content", m)
	require.NoError(t, err)
	assert.Equal(t, "<!-- posts:start -->\ncontent\n<!-- posts:end -->\n", out)
}
