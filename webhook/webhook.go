// Package webhook posts signed batch lifecycle events to a caller-supplied
// endpoint.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	signatureHeader = "X-Pricescout-Signature"
	userAgent       = "Pricescout-Webhook/1.0"
	deliverTimeout  = 10 * time.Second
)

// retrySchedule spaces redeliveries after a failed attempt. Batch results
// stay available for polling for an hour, so giving up after the last entry
// loses the push, not the data.
var retrySchedule = []time.Duration{2 * time.Second, 10 * time.Second, 60 * time.Second}

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string      `json:"type"` // "batch.completed" or "batch.failed"
	JobID     string      `json:"job_id"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Deliver sends one event synchronously. The body is signed with
// HMAC-SHA256 when secret is non-empty:
//
//	X-Pricescout-Signature: sha256=<hex>
func Deliver(ctx context.Context, endpoint, secret string, event *Event) error {
	if endpoint == "" {
		return errors.New("webhook: empty endpoint")
	}
	if event == nil {
		return errors.New("webhook: nil event")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if secret != "" {
		req.Header.Set(signatureHeader, sign(secret, body))
	}

	client := &http.Client{Timeout: deliverTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends an event in the background, retrying per retrySchedule
// before giving up.
func DeliverAsync(endpoint, secret string, event *Event) {
	go func() {
		for attempt := 0; ; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
			err := Deliver(ctx, endpoint, secret, event)
			cancel()

			if err == nil {
				slog.Info("webhook delivered",
					"endpoint", endpoint,
					"event", event.Type,
					"job_id", event.JobID,
					"attempt", attempt+1,
				)
				return
			}
			if attempt >= len(retrySchedule) {
				slog.Error("webhook delivery abandoned",
					"endpoint", endpoint,
					"event", event.Type,
					"job_id", event.JobID,
					"attempts", attempt+1,
					"error", err,
				)
				return
			}
			slog.Warn("webhook delivery failed, will retry",
				"endpoint", endpoint,
				"event", event.Type,
				"job_id", event.JobID,
				"attempt", attempt+1,
				"retryIn", retrySchedule[attempt],
				"error", err,
			)
			time.Sleep(retrySchedule[attempt])
		}
	}()
}

// sign computes the hex HMAC-SHA256 signature header value for body.
func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
