// Package connectors provides the protocol-specific adapters used by
// integration steps to talk to external systems, together with the factory
// that builds them and the registry that owns them.
package connectors

import "time"

// Protocol identifies the wire protocol a connector speaks.
type Protocol string

const (
	ProtocolREST      Protocol = "REST"
	ProtocolHTTP      Protocol = "HTTP"
	ProtocolSOAP      Protocol = "SOAP"
	ProtocolWebSocket Protocol = "WEBSOCKET"
)

// SupportedProtocols enumerates every protocol the factory can construct.
func SupportedProtocols() []Protocol {
	return []Protocol{ProtocolREST, ProtocolHTTP, ProtocolSOAP, ProtocolWebSocket}
}

// IsSupported reports whether the protocol is in the supported set.
func (p Protocol) IsSupported() bool {
	for _, supported := range SupportedProtocols() {
		if p == supported {
			return true
		}
	}

	return false
}

const defaultTimeout = 30 * time.Second

// Config carries the connector configuration. Which fields are mandatory
// depends on the protocol: BaseURL for REST/HTTP, WSDLURL for SOAP,
// WebhookURL for WebSocket.
type Config struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	BaseURL    string            `json:"base_url,omitempty"`
	WSDLURL    string            `json:"wsdl_url,omitempty"`
	WebhookURL string            `json:"webhook_url,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	TimeoutSec int               `json:"timeout_sec,omitempty"`
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSec > 0 {
		return time.Duration(c.TimeoutSec) * time.Second
	}

	return defaultTimeout
}

// Connector is the capability set shared by every protocol adapter. Concrete
// types add their protocol-specific call (SendRequest, Call, PostEvent).
type Connector interface {
	ID() string
	Name() string
	Protocol() Protocol

	// Configure applies the configuration. It fails fast on malformed values;
	// a configured connector still needs a Validate check before use.
	Configure(config Config) error

	// Validate reports whether the configured connector is ready for use.
	Validate() bool
}
