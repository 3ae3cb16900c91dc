package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const webhookSender = "refinery-ops"

// webhookMessage is accepted by Slack and Mattermost incoming webhooks; other
// receivers read the same text field.
type webhookMessage struct {
	Text     string `json:"text"`
	Username string `json:"username,omitempty"`
}

// WebhookChannel posts notifications to an incoming-webhook URL.
type WebhookChannel struct {
	endpoint string
	client   *http.Client
	username string
}

// WebhookOption configures the webhook channel.
type WebhookOption func(*WebhookChannel)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(ch *WebhookChannel) {
		if client != nil {
			ch.client = client
		}
	}
}

// WithUsername sets the display name the receiver shows for the message.
func WithUsername(name string) WebhookOption {
	return func(ch *WebhookChannel) {
		ch.username = strings.TrimSpace(name)
	}
}

// NewWebhookChannel validates endpoint as an absolute http(s) URL.
func NewWebhookChannel(endpoint string, opts ...WebhookOption) (*WebhookChannel, error) {
	parsed, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("webhook channel: invalid url %q", endpoint)
	}
	channel := &WebhookChannel{
		endpoint: parsed.String(),
		client:   &http.Client{Timeout: 10 * time.Second},
		username: webhookSender,
	}
	for _, opt := range opts {
		opt(channel)
	}
	return channel, nil
}

// Name implements Channel.
func (w *WebhookChannel) Name() string { return "webhook" }

// Send posts content as the message text. Responses outside 2xx fail with
// the start of the response body attached.
func (w *WebhookChannel) Send(ctx context.Context, content string) error {
	if w == nil {
		return errors.New("webhook channel: not configured")
	}
	body, err := json.Marshal(webhookMessage{Text: content, Username: w.username})
	if err != nil {
		return fmt.Errorf("webhook channel: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook channel: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook channel: post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return fmt.Errorf("webhook channel: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}
