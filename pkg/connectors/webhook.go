package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

// WebhookConnector serves the WebSocket protocol slot: events are delivered by
// posting JSON documents to a configured webhook URL.
type WebhookConnector struct {
	config     Config
	configured bool
	client     *http.Client
	logger     *slog.Logger
}

// NewWebhookConnector creates an unconfigured webhook connector.
func NewWebhookConnector(logger *slog.Logger) *WebhookConnector {
	return &WebhookConnector{
		logger: logger.With("connector", "webhook"),
	}
}

func (c *WebhookConnector) ID() string         { return c.config.ID }
func (c *WebhookConnector) Name() string       { return c.config.Name }
func (c *WebhookConnector) Protocol() Protocol { return ProtocolWebSocket }

// Configure applies the configuration. WebhookURL is mandatory and must parse.
func (c *WebhookConnector) Configure(config Config) error {
	if config.WebhookURL == "" {
		return NewConfigurationError(ProtocolWebSocket, "webhook_url is required")
	}

	parsed, err := url.Parse(config.WebhookURL)
	if err != nil || parsed.Scheme == "" {
		return NewConfigurationError(ProtocolWebSocket, "webhook_url is not a valid URL: "+config.WebhookURL)
	}

	c.config = config
	c.client = &http.Client{Timeout: config.timeout()}
	c.configured = true

	return nil
}

// Validate reports whether the connector has been configured and is ready.
func (c *WebhookConnector) Validate() bool {
	return c.configured && c.config.ID != "" && c.config.Name != ""
}

// ProcessEvent posts the event document to the webhook URL.
func (c *WebhookConnector) ProcessEvent(ctx context.Context, event map[string]any) error {
	if !c.configured {
		return NewConfigurationError(ProtocolWebSocket, "connector is not configured")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}

	c.logger.Debug("Posting webhook event", "url", c.config.WebhookURL)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post failed: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook post returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
