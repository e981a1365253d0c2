package alerts

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// WebhookNotifier posts notifications as JSON to a generic HTTP webhook.
type WebhookNotifier struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhookNotifier creates a generic webhook notifier.
// If secret is non-empty, requests are signed with HMAC-SHA256.
func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

// Send posts n. Receivers can route on the X-Report-Date and X-Alert-Count
// headers without decoding the body.
func (w *WebhookNotifier) Send(ctx context.Context, n Notification) error {
	payload := webhookPayload{
		Event:        "deadline_alerts",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Notification: n,
		ReportURL:    n.DashboardURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Project-Deadline-Monitor/1.0")
	req.Header.Set("X-Report-Date", n.GeneratedAt)
	req.Header.Set("X-Alert-Count", strconv.Itoa(n.TotalAlerts))

	if w.secret != "" {
		sig := computeHMAC(body, []byte(w.secret))
		req.Header.Set("X-Signature-256", "sha256="+sig)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

type webhookPayload struct {
	Event        string       `json:"event"`
	Timestamp    string       `json:"timestamp"`
	Notification Notification `json:"notification"`
	ReportURL    string       `json:"report_url,omitempty"`
}

func computeHMAC(message, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}
