package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"salesintake/internal/port"
)

const defaultTriggerTimeout = 15 * time.Second

// HTTPTrigger posts pipeline events to a webhook.
type HTTPTrigger struct {
	url    string
	client *http.Client
}

var _ port.PipelineTrigger = (*HTTPTrigger)(nil)

// NewHTTPTrigger creates a trigger for url. A nil client gets a default one.
func NewHTTPTrigger(url string, client *http.Client) *HTTPTrigger {
	if client == nil {
		client = &http.Client{Timeout: defaultTriggerTimeout}
	}
	return &HTTPTrigger{url: url, client: client}
}

func (t *HTTPTrigger) Trigger(ctx context.Context, event port.PipelineEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("notify.Trigger: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify.Trigger: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify.Trigger: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify.Trigger: status %d", resp.StatusCode)
	}
	return nil
}
