// Package webhook posts trade batches to an HTTP endpoint
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/albionflip/internal/core"
)

// Webhook implements the Sink interface for HTTP webhooks
type Webhook struct {
	url     string
	headers map[string]string
	region  core.Region
	client  *http.Client
	now     func() time.Time
}

// New creates a new Webhook sink
func New(url string, headers map[string]string, region core.Region) *Webhook {
	return &Webhook{
		url:     url,
		headers: headers,
		region:  region,
		client:  &http.Client{Timeout: 30 * time.Second},
		now:     time.Now,
	}
}

func (w *Webhook) Name() string { return "webhook" }

// Payload is the body posted for every batch
type Payload struct {
	Type        string       `json:"type"`
	Region      core.Region  `json:"region"`
	Count       int          `json:"count"`
	GeneratedAt string       `json:"generated_at"`
	Trades      []core.Trade `json:"trades"`
}

// Publish posts the batch. An empty batch is not sent.
func (w *Webhook) Publish(ctx context.Context, trades []core.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	return w.post(ctx, Payload{
		Type:        "trades",
		Region:      w.region,
		Count:       len(trades),
		GeneratedAt: w.now().UTC().Format(time.RFC3339),
		Trades:      trades,
	})
}

func (w *Webhook) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: server returned %d", resp.StatusCode)
	}

	return nil
}
