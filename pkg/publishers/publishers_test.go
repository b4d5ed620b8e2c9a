package publishers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPublishersYAML = `
publishers:
  - id: readme
    type: file
    file:
      path: /tmp/README.md
  - id: hook
    type: http
    http:
      url: https://hooks.example.com/feed
      headers:
        X-Token: ${HOOK_TOKEN}
  - id: disabled-queue
    type: queue
    enabled: false
    queue:
      provider: aws-sqs
      aws:
        uri: https://sqs.eu-west-1.amazonaws.com/123/q
        region: eu-west-1
        access_key_id: AKIA123
        secret_access_key: secret
`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRegistry(t *testing.T) {
	t.Setenv("HOOK_TOKEN", "s3cr3t")

	reg, err := LoadRegistry(writeTempFile(t, "publishers.yaml", testPublishersYAML))
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, 3)

	hook, ok := reg.ByID("hook")
	require.True(t, ok)
	assert.Equal(t, TypeHTTP, hook.Type)
	assert.Equal(t, "POST", hook.HTTP.Method)
	// Env references are expanded at load time.
	assert.Equal(t, "s3cr3t", hook.HTTP.Headers["X-Token"])

	enabled := reg.Enabled()
	require.Len(t, enabled, 2)
	for _, cfg := range enabled {
		assert.NotEqual(t, "disabled-queue", cfg.ID)
	}
}

func TestLoadRegistryValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing id", yaml: "publishers:\n  - type: file\n    file:\n      path: /tmp/x\n"},
		{name: "missing type", yaml: "publishers:\n  - id: x\n"},
		{name: "unknown type", yaml: "publishers:\n  - id: x\n    type: carrier-pigeon\n"},
		{name: "file without path", yaml: "publishers:\n  - id: x\n    type: file\n"},
		{name: "http without url", yaml: "publishers:\n  - id: x\n    type: http\n    http:\n      method: POST\n"},
		{name: "queue without provider", yaml: "publishers:\n  - id: x\n    type: queue\n    queue: {}\n"},
		{name: "github without token", yaml: "publishers:\n  - id: x\n    type: github\n    github:\n      repository: a/b\n      path: README.md\n"},
		{name: "duplicate ids", yaml: "publishers:\n  - id: x\n    type: file\n    file:\n      path: /tmp/a\n  - id: x\n    type: file\n    file:\n      path: /tmp/b\n"},
		{name: "empty list", yaml: "publishers: []\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRegistry(writeTempFile(t, "publishers.yaml", tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestFilePublisher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md")

	pub, err := DefaultRegistry().PublisherFor(context.Background(), PublisherConfig{
		ID:   "readme",
		Type: TypeFile,
		File: &FilePublisherConfig{Path: path},
	}, nil)
	require.NoError(t, err)

	evt := Event{RunAt: time.Now(), Document: "# hello\n"}
	require.NoError(t, pub.Publish(context.Background(), evt))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# hello\n", string(got))

	// Overwrites on the next run.
	evt.Document = "# changed\n"
	require.NoError(t, pub.Publish(context.Background(), evt))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# changed\n", string(got))
}

func TestHTTPPublisher(t *testing.T) {
	var received Event
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Token")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	pub, err := DefaultRegistry().PublisherFor(context.Background(), PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{URL: srv.URL, Method: "POST", Headers: map[string]string{"X-Token": "abc"}},
	}, nil)
	require.NoError(t, err)

	evt := Event{
		RunAt:    time.Now(),
		Articles: []Article{{Title: "Post", URL: "https://example.com/1", SourceID: "blog"}},
	}
	require.NoError(t, pub.Publish(context.Background(), evt))

	assert.Equal(t, "abc", gotHeader)
	require.Len(t, received.Articles, 1)
	assert.Equal(t, "Post", received.Articles[0].Title)
}

func TestHTTPPublisherNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	pub, err := DefaultRegistry().PublisherFor(context.Background(), PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{URL: srv.URL, Method: "POST"},
	}, nil)
	require.NoError(t, err)

	assert.Error(t, pub.Publish(context.Background(), Event{}))
}

func TestEventFingerprint(t *testing.T) {
	a := Event{Articles: []Article{{Title: "A", URL: "https://x/1"}, {Title: "B", URL: "https://x/2"}}}
	b := Event{Articles: []Article{{Title: "A", URL: "https://x/1"}, {Title: "B", URL: "https://x/2"}}}
	c := Event{Articles: []Article{{Title: "B", URL: "https://x/2"}, {Title: "A", URL: "https://x/1"}}}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

// countingPublisher records deliveries for dedup tests.
type countingPublisher struct {
	calls int
}

func (p *countingPublisher) ID() string   { return "counting" }
func (p *countingPublisher) Type() string { return "test" }
func (p *countingPublisher) Publish(context.Context, Event) error {
	p.calls++
	return nil
}

func TestDedupPublisher(t *testing.T) {
	store, err := OpenSeenStore(filepath.Join(t.TempDir(), "seen.db"))
	require.NoError(t, err)
	defer store.Close()

	inner := &countingPublisher{}
	pub := WithDedup(inner, store, nil)

	evt := Event{Articles: []Article{{Title: "A", URL: "https://x/1"}}}
	require.NoError(t, pub.Publish(context.Background(), evt))
	require.NoError(t, pub.Publish(context.Background(), evt))
	assert.Equal(t, 1, inner.calls)

	changed := Event{Articles: []Article{{Title: "B", URL: "https://x/2"}}}
	require.NoError(t, pub.Publish(context.Background(), changed))
	assert.Equal(t, 2, inner.calls)
}

func TestGitHubPublisherCommit(t *testing.T) {
	var putBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"sha": "abc123", "content": "b2xk"}) // "old"
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&putBody))
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	pub, err := DefaultRegistry().PublisherFor(context.Background(), PublisherConfig{
		ID:   "github",
		Type: TypeGitHub,
		GitHub: &GitHubPublisherConfig{
			Repository: "jane/jane",
			Path:       "README.md",
			Token:      "tok",
			APIBase:    srv.URL,
		},
	}, nil)
	require.NoError(t, err)

	require.NoError(t, pub.Publish(context.Background(), Event{Document: "# new\n"}))

	require.NotNil(t, putBody)
	assert.Equal(t, "abc123", putBody["sha"])
	assert.Equal(t, "Update articles", putBody["message"])
	assert.NotEmpty(t, putBody["content"])
}

func TestGitHubPublisherSkipsUnchanged(t *testing.T) {
	putCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			// base64 of "# same\n"
			json.NewEncoder(w).Encode(map[string]string{"sha": "abc123", "content": "IyBzYW1lCg=="})
		case http.MethodPut:
			putCalls++
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	pub, err := DefaultRegistry().PublisherFor(context.Background(), PublisherConfig{
		ID:   "github",
		Type: TypeGitHub,
		GitHub: &GitHubPublisherConfig{
			Repository: "jane/jane",
			Path:       "README.md",
			Token:      "tok",
			APIBase:    srv.URL,
		},
	}, nil)
	require.NoError(t, err)

	require.NoError(t, pub.Publish(context.Background(), Event{Document: "# same\n"}))
	assert.Equal(t, 0, putCalls)
}
