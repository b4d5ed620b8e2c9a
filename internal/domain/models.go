package domain

import "time"

// Domain contains core models shared across the pipeline.

// Article is one entry pulled from a source. PublishedAt is the zero
// time when the source did not carry a parseable date.
type Article struct {
	ID          string
	Title       string
	URL         string
	Summary     string
	ImageURL    string
	PublishedAt time.Time
	SourceID    string

	// Ranking signals; only populated by sources that expose them
	// (dev.to reactions/comments). Zero elsewhere.
	Reactions int
	Comments  int
}

// HasDate reports whether the article carries a usable publication date.
func (a Article) HasDate() bool {
	return !a.PublishedAt.IsZero()
}

// SelectionMode determines how articles are ordered before the limit cut.
type SelectionMode string

const (
	ModeRecent SelectionMode = "recent"
	ModeTop    SelectionMode = "top"
)

// SelectionPolicy governs which articles survive selection.
// Limit <= 0 means no cap.
type SelectionPolicy struct {
	Mode  SelectionMode
	Limit int
}

// SourceResult is the per-source outcome of a run.
type SourceResult struct {
	SourceID string
	URL      string
	Articles int
	Err      error
}

// Report summarizes a full run for logging and publishers.
type Report struct {
	Sources    []SourceResult
	Kept       []Article
	TotalKept  int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed returns the results of sources that errored.
func (r Report) Failed() []SourceResult {
	var out []SourceResult
	for _, res := range r.Sources {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}
