package connectors

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Per-protocol JSON Schemas for connector configuration documents. The factory
// validates raw configuration against these before constructing a connector.
var configSchemas = map[Protocol]string{
	ProtocolREST: `{
		"type": "object",
		"required": ["id", "name", "base_url"],
		"properties": {
			"id": {"type": "string", "minLength": 1},
			"name": {"type": "string", "minLength": 1},
			"base_url": {"type": "string", "minLength": 1},
			"headers": {"type": "object", "additionalProperties": {"type": "string"}},
			"timeout_sec": {"type": "integer", "minimum": 1}
		}
	}`,
	ProtocolHTTP: `{
		"type": "object",
		"required": ["id", "name", "base_url"],
		"properties": {
			"id": {"type": "string", "minLength": 1},
			"name": {"type": "string", "minLength": 1},
			"base_url": {"type": "string", "minLength": 1},
			"headers": {"type": "object", "additionalProperties": {"type": "string"}},
			"timeout_sec": {"type": "integer", "minimum": 1}
		}
	}`,
	ProtocolSOAP: `{
		"type": "object",
		"required": ["id", "name", "wsdl_url"],
		"properties": {
			"id": {"type": "string", "minLength": 1},
			"name": {"type": "string", "minLength": 1},
			"wsdl_url": {"type": "string", "minLength": 1},
			"headers": {"type": "object", "additionalProperties": {"type": "string"}},
			"timeout_sec": {"type": "integer", "minimum": 1}
		}
	}`,
	ProtocolWebSocket: `{
		"type": "object",
		"required": ["id", "name", "webhook_url"],
		"properties": {
			"id": {"type": "string", "minLength": 1},
			"name": {"type": "string", "minLength": 1},
			"webhook_url": {"type": "string", "minLength": 1},
			"headers": {"type": "object", "additionalProperties": {"type": "string"}},
			"timeout_sec": {"type": "integer", "minimum": 1}
		}
	}`,
}

// validateConfigSchema checks a raw configuration document against the
// protocol's schema and returns the first schema violation as a
// ConfigurationError.
func validateConfigSchema(protocol Protocol, raw map[string]any) error {
	schema, exists := configSchemas[protocol]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnsupportedProtocol, protocol)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return &ConfigurationError{Protocol: protocol, Message: "schema validation failed", Err: err}
	}

	if !result.Valid() {
		return NewConfigurationError(protocol, result.Errors()[0].String())
	}

	return nil
}
