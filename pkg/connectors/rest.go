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
	"strings"
)

// RestConnector talks JSON over HTTP to a REST API rooted at a base URL.
type RestConnector struct {
	config     Config
	configured bool
	client     *http.Client
	logger     *slog.Logger
}

// NewRestConnector creates an unconfigured REST connector.
func NewRestConnector(logger *slog.Logger) *RestConnector {
	return &RestConnector{
		logger: logger.With("connector", "rest"),
	}
}

func (c *RestConnector) ID() string         { return c.config.ID }
func (c *RestConnector) Name() string       { return c.config.Name }
func (c *RestConnector) Protocol() Protocol { return ProtocolREST }

// Configure applies the configuration. BaseURL is mandatory and must parse.
func (c *RestConnector) Configure(config Config) error {
	if config.BaseURL == "" {
		return NewConfigurationError(ProtocolREST, "base_url is required")
	}

	parsed, err := url.Parse(config.BaseURL)
	if err != nil || parsed.Scheme == "" {
		return NewConfigurationError(ProtocolREST, "base_url is not a valid URL: "+config.BaseURL)
	}

	c.config = config
	c.client = &http.Client{Timeout: config.timeout()}
	c.configured = true

	return nil
}

// Validate reports whether the connector has been configured and is ready.
func (c *RestConnector) Validate() bool {
	return c.configured && c.config.ID != "" && c.config.Name != ""
}

// SendRequest performs a JSON request against the configured base URL and
// decodes the response body. Non-2xx statuses are errors.
func (c *RestConnector) SendRequest(ctx context.Context, method, path string, body map[string]any) (map[string]any, error) {
	if !c.configured {
		return nil, NewConfigurationError(ProtocolREST, "connector is not configured")
	}

	var bodyReader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}

		bodyReader = bytes.NewReader(payload)
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}

	c.logger.Debug("Sending REST request", "method", method, "url", endpoint)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rest request failed: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("rest request returned status %d: %s", resp.StatusCode, string(respBody))
	}

	result := make(map[string]any)

	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &result); err != nil {
			// Non-JSON responses are returned raw.
			result["raw"] = string(respBody)
		}
	}

	result["status_code"] = resp.StatusCode

	return result, nil
}
