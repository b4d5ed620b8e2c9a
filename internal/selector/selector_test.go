package selector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoflow-labs/readme-articles/internal/domain"
)

func dated(title string, y, m, d int) domain.Article {
	return domain.Article{
		Title:       title,
		URL:         "https://example.com/" + title,
		PublishedAt: time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC),
	}
}

func TestSelectRecent(t *testing.T) {
	articles := []domain.Article{
		dated("jan", 2024, 1, 1),
		dated("mar", 2024, 3, 1),
		dated("feb", 2024, 2, 1),
	}

	out := Select(articles, domain.SelectionPolicy{Mode: domain.ModeRecent, Limit: 2})
	require.Len(t, out, 2)
	assert.Equal(t, "mar", out[0].Title)
	assert.Equal(t, "feb", out[1].Title)
}

func TestSelectRecentUndatedLast(t *testing.T) {
	articles := []domain.Article{
		{Title: "no-date-1", URL: "https://example.com/1"},
		dated("feb", 2024, 2, 1),
		{Title: "no-date-2", URL: "https://example.com/2"},
		dated("mar", 2024, 3, 1),
	}

	out := Select(articles, domain.SelectionPolicy{Mode: domain.ModeRecent, Limit: 0})
	require.Len(t, out, 4)
	assert.Equal(t, "mar", out[0].Title)
	assert.Equal(t, "feb", out[1].Title)
	// Undated articles sort last, keeping their feed order.
	assert.Equal(t, "no-date-1", out[2].Title)
	assert.Equal(t, "no-date-2", out[3].Title)
}

func TestSelectRecentIdempotent(t *testing.T) {
	articles := []domain.Article{
		dated("jan", 2024, 1, 1),
		dated("mar", 2024, 3, 1),
		dated("feb", 2024, 2, 1),
	}
	policy := domain.SelectionPolicy{Mode: domain.ModeRecent, Limit: 2}

	first := Select(articles, policy)
	second := Select(articles, policy)
	assert.Equal(t, first, second)

	// Selecting over an already-selected subset keeps the order.
	assert.Equal(t, first, Select(first, policy))
}

func TestSelectNoLimitKeepsEverything(t *testing.T) {
	articles := []domain.Article{
		dated("a", 2024, 1, 1),
		dated("b", 2024, 1, 2),
		dated("c", 2024, 1, 3),
	}

	for _, limit := range []int{0, -1, -10} {
		out := Select(articles, domain.SelectionPolicy{Mode: domain.ModeTop, Limit: limit})
		assert.Len(t, out, 3)
	}
}

func TestSelectTopFeedOrder(t *testing.T) {
	// Plain feeds carry no ranking signal; top keeps feed order.
	articles := []domain.Article{
		dated("first", 2024, 1, 1),
		dated("second", 2024, 3, 1),
		dated("third", 2024, 2, 1),
	}

	out := Select(articles, domain.SelectionPolicy{Mode: domain.ModeTop, Limit: 2})
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Title)
	assert.Equal(t, "second", out[1].Title)
}

func TestSelectTopByReactions(t *testing.T) {
	articles := []domain.Article{
		{Title: "mild", URL: "https://dev.to/a", Reactions: 3, Comments: 9},
		{Title: "hot", URL: "https://dev.to/b", Reactions: 50, Comments: 2},
		{Title: "tied-more-comments", URL: "https://dev.to/c", Reactions: 3, Comments: 20},
	}

	out := Select(articles, domain.SelectionPolicy{Mode: domain.ModeTop, Limit: 3})
	require.Len(t, out, 3)
	assert.Equal(t, "hot", out[0].Title)
	assert.Equal(t, "tied-more-comments", out[1].Title)
	assert.Equal(t, "mild", out[2].Title)
}

func TestSelectEmpty(t *testing.T) {
	assert.Nil(t, Select(nil, domain.SelectionPolicy{Mode: domain.ModeRecent, Limit: 5}))
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	articles := []domain.Article{
		dated("jan", 2024, 1, 1),
		dated("mar", 2024, 3, 1),
	}

	Select(articles, domain.SelectionPolicy{Mode: domain.ModeRecent, Limit: 1})
	assert.Equal(t, "jan", articles[0].Title)
}

func TestCap(t *testing.T) {
	articles := []domain.Article{
		dated("a", 2024, 1, 1),
		dated("b", 2024, 1, 2),
	}

	assert.Len(t, Cap(articles, 1), 1)
	assert.Len(t, Cap(articles, 0), 2)
	assert.Len(t, Cap(articles, 5), 2)
}
