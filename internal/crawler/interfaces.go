package crawler

import (
	"context"

	"github.com/octoflow-labs/readme-articles/internal/domain"
	"github.com/octoflow-labs/readme-articles/pkg/sources"
)

// SummaryBackfiller fills missing article summaries by scraping the
// article pages.
type SummaryBackfiller interface {
	Enrich(ctx context.Context, cfg sources.Source, articles []domain.Article) []domain.Article
}
