package publishers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// filePublisher writes the rendered document to a local path. Writes go
// through a temp file plus rename so a failed run never leaves a
// half-written document behind.
type filePublisher struct {
	id   string
	typ  string
	path string
	log  Logger
}

// newFilePublisher creates a file publisher from the config entry.
func newFilePublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.File == nil || cfg.File.Path == "" {
		return nil, fmt.Errorf("publisher %q missing file path", cfg.ID)
	}

	return &filePublisher{
		id:   cfg.ID,
		typ:  cfg.Type,
		path: cfg.File.Path,
		log:  ensureLogger(log),
	}, nil
}

func (p *filePublisher) ID() string   { return p.id }
func (p *filePublisher) Type() string { return p.typ }

// Publish writes the event's document atomically.
func (p *filePublisher) Publish(_ context.Context, evt Event) error {
	dir := filepath.Dir(p.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(evt.Document); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, p.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", p.path, err)
	}

	p.log.DebugObj("file publisher wrote document", "publisher_file_write", map[string]any{
		"path":  p.path,
		"bytes": len(evt.Document),
	})
	return nil
}
