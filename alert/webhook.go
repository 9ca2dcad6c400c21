// Package alert pushes job outcomes and price-change alerts to a
// configured webhook endpoint.
package alert

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/menuwatch/menuwatch/models"
	"github.com/menuwatch/menuwatch/store"
)

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string      `json:"type"` // "job.completed", "price.alert"
	JobID     string      `json:"job_id"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// retryDelays spaces out redelivery attempts; the leading zero is the
// immediate first try.
var retryDelays = []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}

// Notifier delivers events to one endpoint, asynchronously with retries.
// A nil Notifier or an empty URL disables delivery.
type Notifier struct {
	URL    string
	Secret string

	client *http.Client
}

func NewNotifier(url, secret string) *Notifier {
	return &Notifier{
		URL:    url,
		Secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// JobCompleted fans out a job-terminal event.
func (n *Notifier) JobCompleted(snap models.JobSnapshot) {
	n.send(&Event{
		Type:      "job.completed",
		JobID:     snap.JobID,
		Timestamp: time.Now().Unix(),
		Data:      snap,
	})
}

// PriceAlerts fans out the alerts raised by one scrape.
func (n *Notifier) PriceAlerts(jobID string, alerts []store.PriceAlert) {
	if len(alerts) == 0 {
		return
	}
	n.send(&Event{
		Type:      "price.alert",
		JobID:     jobID,
		Timestamp: time.Now().Unix(),
		Data:      alerts,
	})
}

// send dispatches one event in the background, retrying failed
// deliveries on the retryDelays schedule before giving up.
func (n *Notifier) send(event *Event) {
	if n == nil || n.URL == "" {
		return
	}
	go func() {
		for attempt, delay := range retryDelays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := n.Deliver(ctx, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"url", n.URL,
					"event", event.Type,
					"job_id", event.JobID,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", n.URL,
				"event", event.Type,
				"job_id", event.JobID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"url", n.URL,
			"event", event.Type,
			"job_id", event.JobID,
		)
	}()
}

// Deliver posts one event synchronously. The request body is signed with
// HMAC-SHA256 when a secret is configured.
// Header: X-Menuwatch-Signature: sha256=<hex>
func (n *Notifier) Deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Menuwatch-Webhook/1.0")
	if n.Secret != "" {
		req.Header.Set("X-Menuwatch-Signature", sign(n.Secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
