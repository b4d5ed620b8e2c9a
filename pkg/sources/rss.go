package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/octoflow-labs/readme-articles/internal/domain"
)

// rssFetcher fetches RSS 2.0 and Atom feeds. gofeed handles the dialect
// variance; normalization into domain.Article happens here.
type rssFetcher struct {
	client HTTPClient
}

// NewRSSFetcher builds a fetcher for rss sources.
func NewRSSFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &rssFetcher{client: client}
}

// ID returns the source type for the rss fetcher.
func (f *rssFetcher) ID() string {
	return TypeRSS
}

// Fetch retrieves and parses one feed document.
func (f *rssFetcher) Fetch(ctx context.Context, cfg Source) ([]domain.Article, error) {
	if !strings.EqualFold(cfg.Type, TypeRSS) {
		return nil, fmt.Errorf("rss fetcher received incompatible source type %q", cfg.Type)
	}
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("source %q url is empty", cfg.ID)
	}

	resp, err := f.client.Get(ctx, cfg.URL, Headers(cfg))
	if err != nil {
		return nil, &SourceError{SourceID: cfg.ID, Stage: StageFetch, Err: err}
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, &SourceError{
			SourceID: cfg.ID,
			Stage:    StageFetch,
			Err:      fmt.Errorf("feed returned status %d body: %s", resp.StatusCode(), responseSnippet(body)),
		}
	}

	// gofeed parsers are not safe for concurrent reuse; one per call.
	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, &SourceError{SourceID: cfg.ID, Stage: StageParse, Err: fmt.Errorf("parse feed: %w", err)}
	}

	return articlesFromFeed(cfg, feed), nil
}

// articlesFromFeed normalizes feed items in feed-declared order.
// Items without a title or a valid link are dropped.
func articlesFromFeed(cfg Source, feed *gofeed.Feed) []domain.Article {
	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || !validLink(link) {
			continue
		}

		art := domain.Article{
			ID:       item.GUID,
			Title:    title,
			URL:      link,
			Summary:  itemSummary(item),
			SourceID: cfg.ID,
		}
		if art.ID == "" {
			art.ID = hashURL(link)
		}

		// Atom feeds often carry only <updated>.
		if item.PublishedParsed != nil {
			art.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			art.PublishedAt = *item.UpdatedParsed
		}

		if item.Image != nil {
			art.ImageURL = item.Image.URL
		}

		articles = append(articles, art)
	}
	return articles
}

func itemSummary(item *gofeed.Item) string {
	if s := strings.TrimSpace(item.Description); s != "" {
		return s
	}
	return strings.TrimSpace(item.Content)
}

func validLink(link string) bool {
	u, err := url.Parse(link)
	return err == nil && u.Host != "" && (u.Scheme == "http" || u.Scheme == "https")
}
