// Package selector applies a SelectionPolicy to the articles of one
// source, and the overall cap across the aggregated result.
package selector

import (
	"sort"

	"github.com/octoflow-labs/readme-articles/internal/domain"
)

// Select returns the articles chosen for one source under the policy.
// The input slice is not modified.
//
// recent: publication date descending, undated articles last, original
// feed order as the stable tie-break. top: feed-declared order, except
// that sources carrying ranking signals (dev.to reactions) are sorted
// by reactions, then comments, descending. Limit <= 0 keeps everything
// in recent order.
func Select(articles []domain.Article, policy domain.SelectionPolicy) []domain.Article {
	if len(articles) == 0 {
		return nil
	}

	out := make([]domain.Article, len(articles))
	copy(out, articles)

	mode := policy.Mode
	if policy.Limit <= 0 {
		// No cap: the limit-driven "top N" question disappears, so
		// fall back to recent ordering.
		mode = domain.ModeRecent
	}

	switch mode {
	case domain.ModeTop:
		if hasRankingSignals(out) {
			sort.SliceStable(out, func(i, j int) bool {
				if out[i].Reactions != out[j].Reactions {
					return out[i].Reactions > out[j].Reactions
				}
				return out[i].Comments > out[j].Comments
			})
		}
		// Plain feeds: feed-declared order already reflects the
		// publisher's featured ordering, keep it.
	default:
		sort.SliceStable(out, func(i, j int) bool {
			di, dj := out[i].HasDate(), out[j].HasDate()
			if di != dj {
				return di
			}
			if !di {
				return false
			}
			return out[i].PublishedAt.After(out[j].PublishedAt)
		})
	}

	if policy.Limit > 0 && len(out) > policy.Limit {
		out = out[:policy.Limit]
	}
	return out
}

// Cap truncates the aggregated article list to the overall limit.
// Limit <= 0 means no cap.
func Cap(articles []domain.Article, limit int) []domain.Article {
	if limit <= 0 || len(articles) <= limit {
		return articles
	}
	return articles[:limit]
}

func hasRankingSignals(articles []domain.Article) bool {
	for _, a := range articles {
		if a.Reactions > 0 || a.Comments > 0 {
			return true
		}
	}
	return false
}
