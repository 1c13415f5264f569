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

const soapEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>%s</soap:Body>
</soap:Envelope>`

// SoapConnector posts SOAP envelopes to the service endpoint declared by a
// WSDL URL. The wire payload is treated as opaque XML; WSDL parsing is out of
// scope.
type SoapConnector struct {
	config     Config
	endpoint   string
	configured bool
	client     *http.Client
	logger     *slog.Logger
}

// NewSoapConnector creates an unconfigured SOAP connector.
func NewSoapConnector(logger *slog.Logger) *SoapConnector {
	return &SoapConnector{
		logger: logger.With("connector", "soap"),
	}
}

func (c *SoapConnector) ID() string         { return c.config.ID }
func (c *SoapConnector) Name() string       { return c.config.Name }
func (c *SoapConnector) Protocol() Protocol { return ProtocolSOAP }

// Configure applies the configuration. WSDLURL is mandatory; the service
// endpoint is derived by stripping the ?wsdl query.
func (c *SoapConnector) Configure(config Config) error {
	if config.WSDLURL == "" {
		return NewConfigurationError(ProtocolSOAP, "wsdl_url is required")
	}

	parsed, err := url.Parse(config.WSDLURL)
	if err != nil || parsed.Scheme == "" {
		return NewConfigurationError(ProtocolSOAP, "wsdl_url is not a valid URL: "+config.WSDLURL)
	}

	parsed.RawQuery = ""

	c.config = config
	c.endpoint = parsed.String()
	c.client = &http.Client{Timeout: config.timeout()}
	c.configured = true

	return nil
}

// Validate reports whether the connector has been configured and is ready.
func (c *SoapConnector) Validate() bool {
	return c.configured && c.config.ID != "" && c.config.Name != ""
}

// Call posts the body wrapped in a SOAP envelope with the given SOAPAction
// header and returns the raw response XML.
func (c *SoapConnector) Call(ctx context.Context, action, body string) (string, error) {
	if !c.configured {
		return "", NewConfigurationError(ProtocolSOAP, "connector is not configured")
	}

	envelope := fmt.Sprintf(soapEnvelope, body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(envelope))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", action)

	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}

	c.logger.Debug("Sending SOAP call", "action", action, "endpoint", c.endpoint)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("soap call failed: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("soap call returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return string(respBody), nil
}
