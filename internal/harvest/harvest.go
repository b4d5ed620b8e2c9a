// Package harvest sequences the run: fetch and parse all configured
// sources concurrently, select articles per policy, render the README
// region. Per-source failures are collected, never fatal on their own.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/octoflow-labs/readme-articles/internal/crawler"
	"github.com/octoflow-labs/readme-articles/internal/domain"
	"github.com/octoflow-labs/readme-articles/internal/logger"
	"github.com/octoflow-labs/readme-articles/internal/render"
	"github.com/octoflow-labs/readme-articles/internal/selector"
	"github.com/octoflow-labs/readme-articles/pkg/sources"
)

// ErrAllSourcesFailed indicates no source produced articles because
// every fetch or parse errored.
var ErrAllSourcesFailed = errors.New("all sources failed")

// State is the run's lifecycle position.
type State string

const (
	StateInit      State = "init"
	StateFetching  State = "fetching"
	StateParsing   State = "parsing"
	StateSelecting State = "selecting"
	StateRendering State = "rendering"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

const defaultMaxWorkers = 8

// Options tune a single run.
type Options struct {
	Policy  domain.SelectionPolicy
	Markers render.Markers

	// EnrichMetadata turns on page scraping for articles missing a
	// summary or image.
	EnrichMetadata bool

	// MaxWorkers caps the fetch pool; defaults to 8.
	MaxWorkers int
}

// Harvester runs the fetch-select-render pipeline.
type Harvester struct {
	registry sources.FetcherRegistry
	scraper  crawler.SummaryBackfiller
	log      logger.Logger

	mu    sync.Mutex
	state State
}

// New creates a Harvester. scraper may be nil when enrichment is off.
func New(registry sources.FetcherRegistry, scraper crawler.SummaryBackfiller, log logger.Logger) *Harvester {
	if registry == nil {
		registry = sources.DefaultFetcherRegistry(nil)
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Harvester{
		registry: registry,
		scraper:  scraper,
		log:      log,
		state:    StateInit,
	}
}

// State returns the current run state.
func (h *Harvester) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Harvester) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// fetchResult is the per-source output of the fetch pool.
type fetchResult struct {
	articles []domain.Article
	err      error
}

// Run executes the pipeline over doc and returns the patched document
// plus a report covering every source. The returned error is non-nil
// only for fatal conditions: cancellation, every source failing, or a
// broken marker region. doc is never partially rewritten on error.
func (h *Harvester) Run(ctx context.Context, srcs []sources.Source, doc string, opts Options) (_ string, report domain.Report, _ error) {
	report = domain.Report{StartedAt: time.Now()}
	defer func() { report.FinishedAt = time.Now() }()

	if len(srcs) == 0 {
		h.setState(StateFailed)
		return "", report, fmt.Errorf("no sources configured: %w", ErrAllSourcesFailed)
	}

	h.setState(StateFetching)
	results := h.fetchAll(ctx, srcs, opts)

	if err := ctx.Err(); err != nil {
		h.setState(StateFailed)
		return "", report, fmt.Errorf("run cancelled: %w", err)
	}

	h.setState(StateParsing)
	failures := 0
	for i, src := range srcs {
		res := results[i]
		if res.err != nil {
			failures++
			h.log.WarnObj("source failed, skipping", "source_error", map[string]any{
				"source_id": src.ID,
				"url":       src.URL,
				"error":     res.err.Error(),
			})
			continue
		}
		if opts.EnrichMetadata && h.scraper != nil {
			results[i].articles = h.scraper.Enrich(ctx, src, res.articles)
		}
	}

	if failures == len(srcs) {
		h.setState(StateFailed)
		report.Sources = h.buildResults(srcs, results, nil)
		return "", report, ErrAllSourcesFailed
	}

	h.setState(StateSelecting)
	var selected []domain.Article
	perSource := make(map[string]int, len(srcs))
	for i, src := range srcs {
		if results[i].err != nil {
			continue
		}
		chosen := selector.Select(results[i].articles, opts.Policy)
		perSource[src.ID] = len(chosen)
		selected = append(selected, chosen...)
	}
	selected = selector.Cap(selected, opts.Policy.Limit)

	h.setState(StateRendering)
	updated, err := render.RenderArticles(doc, selected, opts.Markers)
	if err != nil {
		h.setState(StateFailed)
		report.Sources = h.buildResults(srcs, results, perSource)
		return "", report, fmt.Errorf("render document: %w", err)
	}

	report.Sources = h.buildResults(srcs, results, perSource)
	report.Kept = selected
	report.TotalKept = len(selected)

	h.setState(StateDone)
	h.log.InfoObj("run complete", "run_summary", map[string]any{
		"sources":  len(srcs),
		"failed":   failures,
		"articles": len(selected),
	})
	return updated, report, nil
}

// fetchAll runs the bounded fetch pool. Workers write disjoint indexes
// of the results slice, so no lock is needed on the collector.
func (h *Harvester) fetchAll(ctx context.Context, srcs []sources.Source, opts Options) []fetchResult {
	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers
	}

	results := make([]fetchResult, len(srcs))
	jobCh := make(chan int)
	var wg sync.WaitGroup

	for range min(len(srcs), maxWorkers) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobCh {
				if ctx.Err() != nil {
					results[idx] = fetchResult{err: ctx.Err()}
					continue
				}
				results[idx] = h.fetchOne(ctx, srcs[idx])
			}
		}()
	}

	for idx := range srcs {
		if ctx.Err() != nil {
			results[idx] = fetchResult{err: ctx.Err()}
			continue
		}
		jobCh <- idx
	}
	close(jobCh)

	wg.Wait()
	return results
}

func (h *Harvester) fetchOne(ctx context.Context, src sources.Source) fetchResult {
	fetcher, err := h.registry.FetcherFor(src)
	if err != nil {
		return fetchResult{err: err}
	}

	h.log.DebugObj("fetching source", "source_fetch", map[string]any{
		"source_id": src.ID,
		"url":       src.URL,
	})

	articles, err := fetcher.Fetch(ctx, src)
	if err != nil {
		return fetchResult{err: err}
	}
	return fetchResult{articles: articles}
}

func (h *Harvester) buildResults(srcs []sources.Source, results []fetchResult, kept map[string]int) []domain.SourceResult {
	out := make([]domain.SourceResult, len(srcs))
	for i, src := range srcs {
		out[i] = domain.SourceResult{
			SourceID: src.ID,
			URL:      src.URL,
			Articles: kept[src.ID],
			Err:      results[i].err,
		}
	}
	return out
}
