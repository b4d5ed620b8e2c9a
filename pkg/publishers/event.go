// Package publishers delivers run results to configured sinks: the
// README file itself, the GitHub contents API, webhooks, and cloud
// queues.
package publishers

import (
	"context"
	"crypto/sha1" //nolint:gosec // non-cryptographic fingerprinting
	"encoding/hex"
	"time"
)

// Article is the wire shape of one selected article.
type Article struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Summary     string `json:"summary,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	SourceID    string `json:"source_id"`
}

// SourceSummary is the per-source outcome carried by the event.
type SourceSummary struct {
	SourceID string `json:"source_id"`
	URL      string `json:"url"`
	Articles int    `json:"articles"`
	Error    string `json:"error,omitempty"`
}

// Event is the payload handed to every publisher after a run.
type Event struct {
	RunAt    time.Time       `json:"run_at"`
	Document string          `json:"-"`
	Articles []Article       `json:"articles"`
	Sources  []SourceSummary `json:"sources"`
}

// Fingerprint identifies the article set independent of run time, so
// dedup can suppress repeat notifications for unchanged content.
func (e Event) Fingerprint() string {
	h := sha1.New() //nolint:gosec
	for _, a := range e.Articles {
		h.Write([]byte(a.URL))
		h.Write([]byte{0})
		h.Write([]byte(a.Title))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Publisher delivers one run event to a sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Logger mirrors the structured logger interface so this package does
// not depend on the logging implementation.
type Logger interface {
	DebugObj(msg, event string, obj map[string]any)
	InfoObj(msg, event string, obj map[string]any)
	WarnObj(msg, event string, obj map[string]any)
	ErrorObj(msg, event string, obj map[string]any)
}

type nopLogger struct{}

func (nopLogger) DebugObj(string, string, map[string]any) {}
func (nopLogger) InfoObj(string, string, map[string]any)  {}
func (nopLogger) WarnObj(string, string, map[string]any)  {}
func (nopLogger) ErrorObj(string, string, map[string]any) {}

// ensureLogger returns a usable logger even when callers pass nil.
func ensureLogger(log Logger) Logger {
	if log == nil {
		return nopLogger{}
	}
	return log
}
