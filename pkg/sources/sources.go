// Package sources fetches articles from configured endpoints. Each
// source type (rss, devto) has a Fetcher implementation; a registry
// resolves the fetcher for a given source config.
package sources

import (
	"context"
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/octoflow-labs/readme-articles/internal/domain"
	"github.com/octoflow-labs/readme-articles/pkg/httpclient"
)

const (
	// Supported source types.
	TypeRSS   = "rss"
	TypeDevTo = "devto"

	// Stages reported by SourceError.
	StageFetch = "fetch"
	StageParse = "parse"
)

// Source identifies one article endpoint.
type Source struct {
	ID             string            `json:"id" yaml:"id"`
	Type           string            `json:"type" yaml:"type"`
	URL            string            `json:"url" yaml:"url"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	RequestDelayMS int               `json:"request_delay_ms" yaml:"request_delay_ms"`
}

// RequestDelay returns the per-request delay used when scraping article
// pages belonging to this source.
func (s Source) RequestDelay() time.Duration {
	if s.RequestDelayMS <= 0 {
		return 0
	}
	return time.Duration(s.RequestDelayMS) * time.Millisecond
}

// SourceError is a per-source failure. Stage distinguishes transport
// failures from document parsing failures.
type SourceError struct {
	SourceID string
	Stage    string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %s: %v", e.SourceID, e.Stage, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// HTTPClient aliases the shared client interface for fetchers.
type HTTPClient = httpclient.Client

// Fetcher retrieves articles for sources of one type.
type Fetcher interface {
	// ID returns the source type this fetcher serves.
	ID() string
	Fetch(ctx context.Context, cfg Source) ([]domain.Article, error)
}

// FetcherRegistry resolves the fetcher for a source config.
type FetcherRegistry interface {
	FetcherFor(cfg Source) (Fetcher, error)
}

type fetcherRegistry struct {
	fetchers map[string]Fetcher
	mu       sync.RWMutex
}

// NewFetcherRegistry builds a registry for the provided fetcher implementations.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		fetchers: make(map[string]Fetcher, len(fetchers)),
	}

	for _, f := range fetchers {
		if f == nil {
			continue
		}
		reg.fetchers[strings.ToLower(strings.TrimSpace(f.ID()))] = f
	}

	return reg
}

// FetcherFor selects the fetcher for the given source based on its type.
func (r *fetcherRegistry) FetcherFor(cfg Source) (Fetcher, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("source %q has no type configured", cfg.ID)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.fetchers[strings.ToLower(cfg.Type)]; ok {
		return f, nil
	}

	return nil, fmt.Errorf("no fetcher registered for source type %q", cfg.Type)
}

// DefaultHTTPClient returns a tuned http client for source fetchers.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }

// DefaultFetcherRegistry wires up the known source fetchers.
func DefaultFetcherRegistry(client HTTPClient) FetcherRegistry {
	if client == nil {
		client = DefaultHTTPClient()
	}

	return NewFetcherRegistry(
		NewRSSFetcher(client),
		NewDevToFetcher(client),
	)
}

// SourceFor builds a Source from a raw URL, choosing the type by URL
// shape: dev.to profile URLs become devto sources, everything else rss.
func SourceFor(rawURL string) (Source, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Source{}, fmt.Errorf("source url is empty")
	}

	if username := ExtractDevToUsername(rawURL); username != "" {
		return Source{
			ID:   "dev.to/" + username,
			Type: TypeDevTo,
			URL:  rawURL,
		}, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Source{}, fmt.Errorf("source url %q is not a valid http(s) url", rawURL)
	}

	return Source{
		ID:   u.Host,
		Type: TypeRSS,
		URL:  rawURL,
	}, nil
}

// SourcesFromURLs expands a comma-separated url list into sources.
// Duplicate ids get a numeric suffix so per-source reporting stays
// unambiguous.
func SourcesFromURLs(raw string) ([]Source, error) {
	parts := strings.Split(raw, ",")
	seen := make(map[string]int, len(parts))

	var out []Source
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		src, err := SourceFor(part)
		if err != nil {
			return nil, err
		}

		seen[src.ID]++
		if n := seen[src.ID]; n > 1 {
			src.ID = fmt.Sprintf("%s#%d", src.ID, n)
		}
		out = append(out, src)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("feed url list %q contains no sources", raw)
	}
	return out, nil
}

// Headers returns the request headers for a source, always including a
// stable user agent.
func Headers(cfg Source) map[string]string {
	headers := map[string]string{
		"User-Agent": "readme-articles/1.0 (+https://github.com/octoflow-labs/readme-articles)",
	}
	for k, v := range cfg.Headers {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		headers[k] = v
	}
	return headers
}

// hashURL generates a SHA-1 hash of the given URL string.
func hashURL(u string) string {
	sum := sha1.Sum([]byte(u))
	return hex.EncodeToString(sum[:])
}

// responseSnippet returns a truncated snippet of the response body for errors.
func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
