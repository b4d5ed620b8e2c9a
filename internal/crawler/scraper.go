// Package crawler backfills article metadata that feeds omit by
// scraping the article pages for OpenGraph tags.
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/octoflow-labs/readme-articles/internal/domain"
	"github.com/octoflow-labs/readme-articles/internal/logger"
	"github.com/octoflow-labs/readme-articles/pkg/httpclient"
	"github.com/octoflow-labs/readme-articles/pkg/sources"
)

const (
	maxHTMLBodyBytes  = 1 << 20 // 1 MiB
	maxArticleWorkers = 10
)

// Scraper fetches article pages and extracts summary and image metadata
// for articles whose feed entry carried none.
type Scraper struct {
	client httpclient.Client
	log    logger.Logger
}

// NewScraper creates a Scraper with the given HTTP client and logger.
func NewScraper(client httpclient.Client, log logger.Logger) *Scraper {
	if client == nil {
		client = sources.DefaultHTTPClient()
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Scraper{client: client, log: log}
}

// Enrich backfills summaries and images for articles that lack them.
// Articles already complete are passed through untouched, as are
// articles whose pages fail to scrape.
func (s *Scraper) Enrich(ctx context.Context, cfg sources.Source, articles []domain.Article) []domain.Article {
	out := make([]domain.Article, len(articles))
	copy(out, articles) // default to originals so partial results survive a cancel

	var pending []int
	for idx, art := range articles {
		if art.Summary == "" || art.ImageURL == "" {
			pending = append(pending, idx)
		}
	}
	if len(pending) == 0 {
		return out
	}

	var limiter <-chan time.Time
	if delay := cfg.RequestDelay(); delay > 0 {
		ticker := time.NewTicker(delay)
		limiter = ticker.C
		defer ticker.Stop()
	}

	jobCh := make(chan int)
	var wg sync.WaitGroup

	for workerID := range min(len(pending), maxArticleWorkers) {
		wg.Add(1)
		go s.articleWorker(ctx, cfg, articles, limiter, jobCh, out, &wg, workerID)
	}

	for _, idx := range pending {
		if ctx.Err() != nil {
			break
		}
		jobCh <- idx
	}
	close(jobCh)

	wg.Wait()

	return out
}

// articleWorker processes indexes from the job channel, respecting the
// rate limiter.
func (s *Scraper) articleWorker(
	ctx context.Context,
	cfg sources.Source,
	articles []domain.Article,
	limiter <-chan time.Time,
	jobCh <-chan int,
	out []domain.Article,
	wg *sync.WaitGroup,
	workerID int,
) {
	defer wg.Done()

	for idx := range jobCh {
		if ctx.Err() != nil {
			return
		}

		if limiter != nil {
			select {
			case <-ctx.Done():
				return
			case <-limiter:
			}
		}

		art := articles[idx]
		enriched, err := s.fetchAndParse(ctx, cfg, art)
		if err != nil {
			s.log.WarnObj("article metadata scrape failed", "metadata_error", map[string]any{
				"worker_id": workerID,
				"source_id": cfg.ID,
				"url":       art.URL,
				"error":     err.Error(),
			})
			out[idx] = art
			continue
		}
		out[idx] = enriched
	}
}

// fetchAndParse fetches the article HTML and fills the missing fields.
// The feed-supplied title stays authoritative.
func (s *Scraper) fetchAndParse(ctx context.Context, cfg sources.Source, art domain.Article) (domain.Article, error) {
	resp, err := s.client.Get(ctx, art.URL, sources.Headers(cfg))
	if err != nil {
		return art, fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != 200 {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return art, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		s.log.DebugObj("html body truncated", "truncation", map[string]any{
			"source_id": cfg.ID,
			"url":       art.URL,
			"original":  len(body),
			"kept":      maxHTMLBodyBytes,
		})
		body = body[:maxHTMLBodyBytes]
	}

	meta, err := parseMeta(body)
	if err != nil {
		return art, err
	}

	updated := art
	if updated.Summary == "" {
		updated.Summary = meta.Description
	}
	if updated.ImageURL == "" && meta.ImageURL != "" {
		updated.ImageURL = resolveURL(meta.ImageURL, art.URL)
	}
	return updated, nil
}

// pageMeta holds metadata extracted from an HTML page.
type pageMeta struct {
	Description string
	ImageURL    string
}

// parseMeta extracts OpenGraph metadata from the HTML body.
func parseMeta(body []byte) (pageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	pm := pageMeta{
		ImageURL: extract(`meta[property="og:image"]`),
	}
	pm.Description = extract(`meta[property="og:description"]`)
	if pm.Description == "" {
		pm.Description = extract(`meta[name="description"]`)
	}

	return pm, nil
}

// resolveURL resolves a possibly relative URL against a base URL.
func resolveURL(raw, base string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if parsed.IsAbs() {
		return parsed.String()
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return raw
	}

	return baseURL.ResolveReference(parsed).String()
}
