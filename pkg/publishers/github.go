package publishers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/octoflow-labs/readme-articles/pkg/httpclient"
)

const githubDefaultAPIBase = "https://api.github.com"

// githubPublisher commits the rendered document through the GitHub
// contents API. The token is used only for the Authorization header and
// never logged.
type githubPublisher struct {
	id     string
	typ    string
	cfg    GitHubPublisherConfig
	client httpclient.Client
	log    Logger
}

// newGitHubPublisher creates a contents-API publisher from the config entry.
func newGitHubPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.GitHub == nil {
		return nil, fmt.Errorf("publisher %q missing github configuration", cfg.ID)
	}

	gh := *cfg.GitHub
	if gh.APIBase == "" {
		gh.APIBase = githubDefaultAPIBase
	}
	if gh.CommitMessage == "" {
		gh.CommitMessage = "Update articles"
	}

	return &githubPublisher{
		id:     cfg.ID,
		typ:    cfg.Type,
		cfg:    gh,
		client: httpclient.NewRestyClient(30 * time.Second),
		log:    ensureLogger(log),
	}, nil
}

func (p *githubPublisher) ID() string   { return p.id }
func (p *githubPublisher) Type() string { return p.typ }

// contentsResponse is the subset of the contents API response we read.
type contentsResponse struct {
	SHA     string `json:"sha"`
	Content string `json:"content"`
}

// Publish fetches the current file sha and commits the new document.
// An unchanged document is skipped so runs stay idempotent on the
// repository history.
func (p *githubPublisher) Publish(ctx context.Context, evt Event) error {
	contentsURL := fmt.Sprintf("%s/repos/%s/contents/%s",
		p.cfg.APIBase, p.cfg.Repository, url.PathEscape(p.cfg.Path))

	getURL := contentsURL
	if p.cfg.Branch != "" {
		getURL += "?ref=" + url.QueryEscape(p.cfg.Branch)
	}

	var sha string
	resp, err := p.client.Get(ctx, getURL, p.headers())
	if err != nil {
		return fmt.Errorf("fetch current contents: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		var current contentsResponse
		if err := json.Unmarshal(resp.Body(), &current); err != nil {
			return fmt.Errorf("decode contents response: %w", err)
		}
		sha = current.SHA
		if decoded, err := base64.StdEncoding.DecodeString(
			strings.ReplaceAll(current.Content, "\n", "")); err == nil && string(decoded) == evt.Document {
			p.log.DebugObj("document unchanged, skipping commit", "publisher_github_skip", map[string]any{
				"repository": p.cfg.Repository,
				"path":       p.cfg.Path,
			})
			return nil
		}
	case http.StatusNotFound:
		// File does not exist yet; the PUT below creates it.
	default:
		return fmt.Errorf("contents api returned status %d", resp.StatusCode())
	}

	payload := map[string]string{
		"message": p.cfg.CommitMessage,
		"content": base64.StdEncoding.EncodeToString([]byte(evt.Document)),
	}
	if sha != "" {
		payload["sha"] = sha
	}
	if p.cfg.Branch != "" {
		payload["branch"] = p.cfg.Branch
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal commit payload: %w", err)
	}

	resp, err = p.client.Do(ctx, http.MethodPut, contentsURL, p.headers(), body)
	if err != nil {
		return fmt.Errorf("commit contents: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return fmt.Errorf("contents api commit returned status %d", resp.StatusCode())
	}

	p.log.InfoObj("github publisher committed document", "publisher_github_commit", map[string]any{
		"repository": p.cfg.Repository,
		"path":       p.cfg.Path,
	})
	return nil
}

func (p *githubPublisher) headers() map[string]string {
	return map[string]string{
		"Authorization":        "Bearer " + p.cfg.Token,
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
}
