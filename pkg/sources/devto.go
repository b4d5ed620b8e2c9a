package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/octoflow-labs/readme-articles/internal/domain"
)

const devtoAPIBase = "https://dev.to/api"

var devtoProfileRe = regexp.MustCompile(`dev\.to/@?([\w\d]+)`)

// devtoFetcher fetches a user's published articles from the dev.to API.
// Unlike plain feeds, dev.to entries carry explicit reaction and comment
// counts, which the selector uses for top ranking.
type devtoFetcher struct {
	client  HTTPClient
	apiBase string
}

// NewDevToFetcher builds a fetcher for devto sources.
func NewDevToFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &devtoFetcher{
		client:  client,
		apiBase: devtoAPIBase,
	}
}

// ID returns the source type for the dev.to fetcher.
func (f *devtoFetcher) ID() string {
	return TypeDevTo
}

// devtoArticle mirrors the subset of the dev.to articles API response
// the pipeline consumes.
type devtoArticle struct {
	Title                  string `json:"title"`
	URL                    string `json:"url"`
	Description            string `json:"description"`
	CoverImage             string `json:"cover_image"`
	PublishedAt            string `json:"published_at"`
	PositiveReactionsCount int    `json:"positive_reactions_count"`
	CommentsCount          int    `json:"comments_count"`
}

// Fetch retrieves the user's articles via the dev.to API.
func (f *devtoFetcher) Fetch(ctx context.Context, cfg Source) ([]domain.Article, error) {
	if !strings.EqualFold(cfg.Type, TypeDevTo) {
		return nil, fmt.Errorf("devto fetcher received incompatible source type %q", cfg.Type)
	}

	username := ExtractDevToUsername(cfg.URL)
	if username == "" {
		return nil, &SourceError{
			SourceID: cfg.ID,
			Stage:    StageFetch,
			Err:      fmt.Errorf("no dev.to username in url %q", cfg.URL),
		}
	}

	apiURL := fmt.Sprintf("%s/articles?username=%s", f.apiBase, url.QueryEscape(username))

	resp, err := f.client.Get(ctx, apiURL, Headers(cfg))
	if err != nil {
		return nil, &SourceError{SourceID: cfg.ID, Stage: StageFetch, Err: err}
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, &SourceError{
			SourceID: cfg.ID,
			Stage:    StageFetch,
			Err:      fmt.Errorf("dev.to api returned status %d body: %s", resp.StatusCode(), responseSnippet(body)),
		}
	}

	var raw []devtoArticle
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &SourceError{SourceID: cfg.ID, Stage: StageParse, Err: fmt.Errorf("decode dev.to articles: %w", err)}
	}

	articles := make([]domain.Article, 0, len(raw))
	for _, entry := range raw {
		title := strings.TrimSpace(entry.Title)
		link := strings.TrimSpace(entry.URL)
		if title == "" || !validLink(link) {
			continue
		}

		articles = append(articles, domain.Article{
			ID:          hashURL(link),
			Title:       title,
			URL:         link,
			Summary:     strings.TrimSpace(entry.Description),
			ImageURL:    entry.CoverImage,
			PublishedAt: parseDevToTime(entry.PublishedAt),
			SourceID:    cfg.ID,
			Reactions:   entry.PositiveReactionsCount,
			Comments:    entry.CommentsCount,
		})
	}
	return articles, nil
}

// ExtractDevToUsername pulls the username out of a dev.to profile URL.
// Returns "" when the URL does not look like a dev.to profile.
func ExtractDevToUsername(profileURL string) string {
	m := devtoProfileRe.FindStringSubmatch(profileURL)
	if m == nil {
		return ""
	}
	return m[1]
}

func parseDevToTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Time{}
}
