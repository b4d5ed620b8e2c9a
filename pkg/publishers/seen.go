package publishers

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var seenBucket = []byte("seen_events")

// SeenStore remembers delivered event fingerprints in a bbolt file so
// notification sinks do not re-announce an unchanged article set. The
// store never influences fetching, selection or rendering.
type SeenStore struct {
	db *bolt.DB
}

// OpenSeenStore opens (or creates) the bbolt file at path.
func OpenSeenStore(path string) (*SeenStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open seen store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(seenBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init seen store bucket: %w", err)
	}

	return &SeenStore{db: db}, nil
}

// Close releases the underlying file.
func (s *SeenStore) Close() error { return s.db.Close() }

// Seen reports whether the fingerprint was delivered before.
func (s *SeenStore) Seen(fingerprint string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(seenBucket).Get([]byte(fingerprint)) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("read seen store: %w", err)
	}
	return found, nil
}

// Mark records the fingerprint with the delivery time.
func (s *SeenStore) Mark(fingerprint string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(seenBucket).Put([]byte(fingerprint), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
	if err != nil {
		return fmt.Errorf("write seen store: %w", err)
	}
	return nil
}

// dedupPublisher wraps a Publisher and skips events whose fingerprint
// was already delivered through this wrapper's store.
type dedupPublisher struct {
	inner Publisher
	store *SeenStore
	log   Logger
}

// WithDedup wraps pub so repeat events are suppressed via store.
func WithDedup(pub Publisher, store *SeenStore, log Logger) Publisher {
	return &dedupPublisher{inner: pub, store: store, log: ensureLogger(log)}
}

func (p *dedupPublisher) ID() string   { return p.inner.ID() }
func (p *dedupPublisher) Type() string { return p.inner.Type() }

// Publish delivers the event unless its fingerprint is already marked.
// Store errors fall through to delivery; duplicate suppression is best
// effort only.
func (p *dedupPublisher) Publish(ctx context.Context, evt Event) error {
	fp := evt.Fingerprint()

	seen, err := p.store.Seen(fp)
	if err != nil {
		p.log.WarnObj("seen store read failed, delivering anyway", "dedup_read_error", map[string]any{
			"publisher_id": p.inner.ID(),
			"error":        err.Error(),
		})
	} else if seen {
		p.log.DebugObj("duplicate event suppressed", "dedup_skip", map[string]any{
			"publisher_id": p.inner.ID(),
			"fingerprint":  fp,
		})
		return nil
	}

	if err := p.inner.Publish(ctx, evt); err != nil {
		return err
	}

	if err := p.store.Mark(fp); err != nil {
		p.log.WarnObj("seen store write failed", "dedup_write_error", map[string]any{
			"publisher_id": p.inner.ID(),
			"error":        err.Error(),
		})
	}
	return nil
}
