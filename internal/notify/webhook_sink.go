package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// WebhookSink posts events as JSON to a configured HTTP endpoint. It is an
// alternative NotificationSink for deployments that want to drive
// email/UI delivery directly rather than through the notifications queue
// topic (§4.7 leaves the downstream consumer unspecified).
//
// Unlike the callback observers this is grounded on, Notify returns the
// send error instead of swallowing it: §4.7 requires at-least-once
// emission, so a caller needs the failure to retry.
type WebhookSink struct {
	callbackURL string
	client      *http.Client
	headers     map[string]string
	timeout     time.Duration

	mu      sync.RWMutex
	enabled bool
}

// WebhookSinkConfig configures a WebhookSink.
type WebhookSinkConfig struct {
	CallbackURL string
	Timeout     time.Duration
	Headers     map[string]string
	Client      *http.Client
}

func NewWebhookSink(cfg WebhookSinkConfig) (*WebhookSink, error) {
	if cfg.CallbackURL == "" {
		return nil, fmt.Errorf("callback URL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	headers := make(map[string]string, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if _, ok := headers["Content-Type"]; !ok {
		headers["Content-Type"] = "application/json"
	}

	return &WebhookSink{
		callbackURL: cfg.CallbackURL,
		client:      client,
		headers:     headers,
		timeout:     timeout,
		enabled:     true,
	}, nil
}

func (s *WebhookSink) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

func (s *WebhookSink) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

func (s *WebhookSink) Notify(ctx context.Context, event Event) error {
	s.mu.RLock()
	enabled := s.enabled
	url := s.callbackURL
	client := s.client
	headers := make(map[string]string, len(s.headers))
	for k, v := range s.headers {
		headers[k] = v
	}
	s.mu.RUnlock()

	if !enabled {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification callback returned status %d", resp.StatusCode)
	}
	return nil
}
