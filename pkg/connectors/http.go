package connectors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// HTTPConnector performs plain HTTP calls without any payload convention,
// returning the raw response body.
type HTTPConnector struct {
	config     Config
	configured bool
	client     *http.Client
	logger     *slog.Logger
}

// NewHTTPConnector creates an unconfigured HTTP connector.
func NewHTTPConnector(logger *slog.Logger) *HTTPConnector {
	return &HTTPConnector{
		logger: logger.With("connector", "http"),
	}
}

func (c *HTTPConnector) ID() string         { return c.config.ID }
func (c *HTTPConnector) Name() string       { return c.config.Name }
func (c *HTTPConnector) Protocol() Protocol { return ProtocolHTTP }

// Configure applies the configuration. BaseURL is mandatory and must parse.
func (c *HTTPConnector) Configure(config Config) error {
	if config.BaseURL == "" {
		return NewConfigurationError(ProtocolHTTP, "base_url is required")
	}

	parsed, err := url.Parse(config.BaseURL)
	if err != nil || parsed.Scheme == "" {
		return NewConfigurationError(ProtocolHTTP, "base_url is not a valid URL: "+config.BaseURL)
	}

	c.config = config
	c.client = &http.Client{Timeout: config.timeout()}
	c.configured = true

	return nil
}

// Validate reports whether the connector has been configured and is ready.
func (c *HTTPConnector) Validate() bool {
	return c.configured && c.config.ID != "" && c.config.Name != ""
}

// SendRequest performs a raw HTTP request and returns status code and body.
func (c *HTTPConnector) SendRequest(ctx context.Context, method, path, body string) (int, string, error) {
	if !c.configured {
		return 0, "", NewConfigurationError(ProtocolHTTP, "connector is not configured")
	}

	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), endpoint, bodyReader)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}

	c.logger.Debug("Sending HTTP request", "method", method, "url", endpoint)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("http request failed: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, string(respBody), nil
}
