package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoflow-labs/readme-articles/internal/domain"
	"github.com/octoflow-labs/readme-articles/pkg/sources"
)

const testPage = `<!DOCTYPE html>
<html>
<head>
  <meta property="og:description" content="A fine article about feeds" />
  <meta property="og:image" content="/img/cover.png" />
  <title>ignored</title>
</head>
<body>hello</body>
</html>`

func TestEnrichBackfillsSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testPage)
	}))
	defer srv.Close()

	s := NewScraper(nil, nil)
	articles := []domain.Article{
		{Title: "Needs summary", URL: srv.URL + "/post"},
		{Title: "Already complete", URL: srv.URL + "/other", Summary: "existing", ImageURL: "https://cdn.example.com/i.png"},
	}

	out := s.Enrich(context.Background(), sources.Source{ID: "blog"}, articles)
	require.Len(t, out, 2)

	assert.Equal(t, "A fine article about feeds", out[0].Summary)
	// Relative image URLs resolve against the article URL.
	assert.Equal(t, srv.URL+"/img/cover.png", out[0].ImageURL)
	// Feed-supplied title stays authoritative.
	assert.Equal(t, "Needs summary", out[0].Title)

	assert.Equal(t, "existing", out[1].Summary)
	assert.Equal(t, "https://cdn.example.com/i.png", out[1].ImageURL)
}

func TestEnrichScrapeFailureLeavesArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	s := NewScraper(nil, nil)
	articles := []domain.Article{{Title: "Unlucky", URL: srv.URL + "/gone"}}

	out := s.Enrich(context.Background(), sources.Source{ID: "blog"}, articles)
	require.Len(t, out, 1)
	assert.Equal(t, articles[0], out[0])
}

func TestEnrichEmptyInput(t *testing.T) {
	s := NewScraper(nil, nil)
	out := s.Enrich(context.Background(), sources.Source{ID: "blog"}, nil)
	assert.Empty(t, out)
}
