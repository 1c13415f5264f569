package connectors

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Factory constructs, configures, validates, and registers connectors.
type Factory struct {
	registry *Registry
	logger   *slog.Logger
}

// NewFactory creates a factory bound to the given registry.
func NewFactory(registry *Registry, logger *slog.Logger) *Factory {
	return &Factory{
		registry: registry,
		logger:   logger.With("module", "connector_factory"),
	}
}

// CreateConnector builds a connector for the protocol from a raw configuration
// document. The document is checked against the protocol's schema (id and name
// are always mandatory; base_url for REST/HTTP, wsdl_url for SOAP, webhook_url
// for WebSocket). The new connector is configured, validated, and registered;
// a false validation result is promoted to an error.
func (f *Factory) CreateConnector(protocol Protocol, raw map[string]any) (Connector, error) {
	if !protocol.IsSupported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, protocol)
	}

	if err := validateConfigSchema(protocol, raw); err != nil {
		return nil, err
	}

	config, err := decodeConfig(raw)
	if err != nil {
		return nil, &ConfigurationError{Protocol: protocol, Message: "malformed configuration", Err: err}
	}

	var connector Connector

	switch protocol {
	case ProtocolREST:
		connector = NewRestConnector(f.logger)
	case ProtocolHTTP:
		connector = NewHTTPConnector(f.logger)
	case ProtocolSOAP:
		connector = NewSoapConnector(f.logger)
	case ProtocolWebSocket:
		connector = NewWebhookConnector(f.logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, protocol)
	}

	if err := connector.Configure(config); err != nil {
		return nil, err
	}

	if !connector.Validate() {
		return nil, NewConfigurationError(protocol, "validation failed for protocol: "+string(protocol))
	}

	if err := f.registry.Register(connector); err != nil {
		return nil, err
	}

	f.logger.Info("Created connector",
		"connector_id", config.ID,
		"protocol", protocol,
	)

	return connector, nil
}

func decodeConfig(raw map[string]any) (Config, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return Config{}, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}

	return config, nil
}
