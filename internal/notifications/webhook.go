// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	webhookTimeout    = 10 * time.Second
	webhookWorkers    = 3
	webhookBufferSize = 100
	webhookMaxRetries = 2
	webhookUserAgent  = "cinara-api/1"
)

// WebhookEnvelope is the JSON payload POSTed to the webhook endpoint.
type WebhookEnvelope struct {
	// Type identifies the notification family for consumers.
	Type string `json:"type"`

	// SchemaVersion allows consumers to detect breaking changes.
	SchemaVersion string `json:"schema_version"`

	// Timestamp is the RFC3339 time the notification was sent.
	Timestamp string `json:"timestamp"`

	// Data contains the full composed payload.
	Data Payload `json:"data"`
}

// webhookWork is an internal message handed to the worker pool.
type webhookWork struct {
	envelope WebhookEnvelope
}

// WebhookSender implements [Sender] for generic HTTP POST webhooks with a
// bounded buffer and a small worker pool.
type WebhookSender struct {
	httpClient *http.Client
	logger     *slog.Logger
	url        string
	authToken  string
	sendCh     chan webhookWork
	wg         sync.WaitGroup
}

// NewWebhookSender creates a [WebhookSender]. Returns an error if the URL is
// missing or not an absolute http(s) URL.
func NewWebhookSender(endpoint, authToken string, logger *slog.Logger) (*WebhookSender, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("webhook URL must use http or https scheme, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("webhook URL must include a host")
	}

	return &WebhookSender{
		httpClient: &http.Client{Timeout: webhookTimeout},
		logger:     logger,
		url:        endpoint,
		authToken:  authToken,
		sendCh:     make(chan webhookWork, webhookBufferSize),
	}, nil
}

// Name implements [Sender].
func (sender *WebhookSender) Name() string { return "webhook" }

// ShouldSend implements [Sender]. The webhook channel forwards every event class.
func (sender *WebhookSender) ShouldSend(Kind) bool { return true }

// Start implements [Sender]. Launches background workers to drain the send channel.
func (sender *WebhookSender) Start(context context.Context) {
	for worker := 0; worker < webhookWorkers; worker++ {
		sender.wg.Add(1)
		go sender.worker(context)
	}

	sender.logger.Info("webhook_sender_started",
		slog.String("url", sender.url),
		slog.Int("workers", webhookWorkers),
	)
}

// Close waits for all workers to finish draining queued notifications.
// Call after the context passed to Start is cancelled.
func (sender *WebhookSender) Close() {
	sender.wg.Wait()
}

// Send implements [Sender]. Enqueues the payload for async delivery; a full
// buffer drops the notification rather than blocking the caller.
func (sender *WebhookSender) Send(context context.Context, payload Payload) error {
	envelope := WebhookEnvelope{
		Type:          "cinara.issue.notification",
		SchemaVersion: "1",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Data:          payload,
	}

	select {
	case sender.sendCh <- webhookWork{envelope: envelope}:
		return nil
	case <-context.Done():
		return context.Err()
	default:
		sender.logger.Warn("webhook_buffer_full_dropping",
			slog.String("kind", string(payload.Kind)),
			slog.Int64("issue_id", payload.IssueID),
		)
		return fmt.Errorf("webhook send buffer full")
	}
}

// worker drains the send channel and delivers notifications. On context
// cancellation it drains remaining buffered items before exiting.
func (sender *WebhookSender) worker(ctx context.Context) {
	defer sender.wg.Done()
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case work := <-sender.sendCh:
					drainCtx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
					if err := sender.doSend(drainCtx, work.envelope); err != nil {
						sender.logger.Warn("webhook_send_failed_during_drain",
							slog.String("error", err.Error()),
						)
					}
					cancel()
				default:
					return
				}
			}
		case work, ok := <-sender.sendCh:
			if !ok {
				return
			}
			if err := sender.doSend(ctx, work.envelope); err != nil {
				sender.logger.Error("webhook_send_failed",
					slog.String("url", sender.url),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// doSend performs the HTTP POST with linear-backoff retries.
func (sender *WebhookSender) doSend(ctx context.Context, envelope WebhookEnvelope) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= webhookMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("context cancelled during backoff: %w", ctx.Err())
			}
		}

		lastErr = sender.doPost(ctx, body)
		if lastErr == nil {
			return nil
		}
	}

	return lastErr
}

// doPost performs a single HTTP POST attempt.
func (sender *WebhookSender) doPost(ctx context.Context, body []byte) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, sender.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("User-Agent", webhookUserAgent)
	if sender.authToken != "" {
		request.Header.Set("Authorization", "Bearer "+sender.authToken)
	}

	response, err := sender.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, response.Body)
		_ = response.Body.Close()
	}()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("webhook endpoint returned status %d", response.StatusCode)
	}

	return nil
}
