package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// WebhookNotifier POSTs each alert as a flat JSON object:
//
//	{"level":"WARNING","title":"...","message":"...","ts":"2026-01-02T03:04:05Z"}
type WebhookNotifier struct {
	url    string
	client *http.Client
	now    func() time.Time
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{url: url, client: newHTTPClient(), now: time.Now}
}

type webhookPayload struct {
	Alert
	TS string `json:"ts"`
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	payload := webhookPayload{Alert: alert, TS: w.now().UTC().Format(time.RFC3339Nano)}

	status, _, err := postJSON(ctx, w.client, w.url, payload)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	if status/100 != 2 {
		return fmt.Errorf("webhook: unexpected status %d", status)
	}

	slog.Debug("[webhook] sent alert", "url", w.url, "title", alert.Title)
	return nil
}
