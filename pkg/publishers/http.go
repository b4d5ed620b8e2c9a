package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/octoflow-labs/readme-articles/pkg/httpclient"
)

const httpDefaultTimeout = 10 * time.Second

// httpPublisher POSTs the run event to a generic webhook.
type httpPublisher struct {
	id      string
	typ     string
	cfg     HTTPPublisherConfig
	client  httpclient.Client
	log     Logger
}

// newHTTPPublisher creates a webhook publisher from the config entry.
func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	timeout := httpDefaultTimeout
	if cfg.HTTP.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	}

	return &httpPublisher{
		id:     cfg.ID,
		typ:    cfg.Type,
		cfg:    *cfg.HTTP,
		client: httpclient.NewRestyClient(timeout),
		log:    ensureLogger(log),
	}, nil
}

func (p *httpPublisher) ID() string   { return p.id }
func (p *httpPublisher) Type() string { return p.typ }

// Publish sends the event as a JSON body with the configured method.
func (p *httpPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range p.cfg.Headers {
		headers[k] = v
	}

	resp, err := p.client.Do(ctx, p.cfg.Method, p.cfg.URL, headers, payload)
	if err != nil {
		p.log.ErrorObj("http publisher send failed", "publisher_http_error", map[string]any{
			"url":   p.cfg.URL,
			"error": err.Error(),
		})
		return fmt.Errorf("post event to %s: %w", p.cfg.URL, err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("webhook %s returned status %d", p.cfg.URL, resp.StatusCode())
	}

	p.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"url":    p.cfg.URL,
		"status": resp.StatusCode(),
	})
	return nil
}
