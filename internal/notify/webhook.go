// Package notify delivers daily compliance summaries to an external
// webhook, for teams that want reports pushed rather than polled.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppe-watch/compliance/internal/httputil"
	"github.com/ppe-watch/compliance/internal/report"
)

// WebhookNotifier posts daily aggregates as JSON to a configured URL.
type WebhookNotifier struct {
	client httputil.HTTPClient
	url    string
}

// NewWebhookNotifier builds a notifier. A nil client falls back to the
// standard HTTP client.
func NewWebhookNotifier(client httputil.HTTPClient, url string) *WebhookNotifier {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	return &WebhookNotifier{client: client, url: url}
}

// SendDailySummary posts the aggregate. Non-2xx responses are errors so
// the caller can log and retry on the next report run.
func (n *WebhookNotifier) SendDailySummary(agg report.DailyAggregate) error {
	payload, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("marshal daily summary: %w", err)
	}

	resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("post daily summary to %s: %w", n.url, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned status %d", n.url, resp.StatusCode)
	}
	return nil
}
