package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"metergate/internal/domain/alert"
	"metergate/internal/shared/errors"
)

const webhookTimeout = 10 * time.Second

// WebhookChannel POSTs the full alert payload as JSON to the organization's
// configured endpoint.
type WebhookChannel struct {
	client *http.Client
}

func NewWebhookChannel() *WebhookChannel {
	return &WebhookChannel{
		client: &http.Client{Timeout: webhookTimeout},
	}
}

func (c *WebhookChannel) Name() alert.ChannelType {
	return alert.ChannelWebhook
}

type webhookPayload struct {
	AlertSID   string  `json:"alert_sid"`
	OrgSID     string  `json:"org_sid"`
	Feature    string  `json:"feature"`
	Type       string  `json:"type"`
	Threshold  int     `json:"threshold,omitempty"`
	Percentage float64 `json:"percentage"`
	Severity   string  `json:"severity"`
	Message    string  `json:"message"`
	CreatedAt  string  `json:"created_at"`
}

func (c *WebhookChannel) Send(ctx context.Context, a *alert.Alert, cfg *alert.NotificationConfig) error {
	if cfg.WebhookURL == "" {
		return errors.NewConfigurationError("webhook channel enabled but no URL configured")
	}

	payload := webhookPayload{
		AlertSID:   a.SID(),
		OrgSID:     a.OrgSID(),
		Feature:    a.Feature(),
		Type:       string(a.AlertType()),
		Threshold:  a.Threshold(),
		Percentage: a.Percentage(),
		Severity:   string(a.Severity()),
		Message:    a.Message(),
		CreatedAt:  a.CreatedAt().UTC().Format(time.RFC3339),
	}

	return postJSON(ctx, c.client, cfg.WebhookURL, payload)
}

// ChatWebhookChannel posts a short text message to a chat-service incoming
// webhook (Slack-compatible payload).
type ChatWebhookChannel struct {
	client *http.Client
}

func NewChatWebhookChannel() *ChatWebhookChannel {
	return &ChatWebhookChannel{
		client: &http.Client{Timeout: webhookTimeout},
	}
}

func (c *ChatWebhookChannel) Name() alert.ChannelType {
	return alert.ChannelChatWebhook
}

func (c *ChatWebhookChannel) Send(ctx context.Context, a *alert.Alert, cfg *alert.NotificationConfig) error {
	if cfg.ChatWebhookURL == "" {
		return errors.NewConfigurationError("chat webhook channel enabled but no URL configured")
	}

	payload := map[string]string{
		"text": fmt.Sprintf("[%s] %s", a.Severity(), a.Message()),
	}
	return postJSON(ctx, c.client, cfg.ChatWebhookURL, payload)
}

func postJSON(ctx context.Context, client *http.Client, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return errors.NewNotificationDeliveryError("webhook delivery failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewNotificationDeliveryError(
			fmt.Sprintf("webhook returned status %d", resp.StatusCode))
	}
	return nil
}
