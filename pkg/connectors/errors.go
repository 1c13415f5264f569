package connectors

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectorNotFound indicates no connector is registered for the protocol.
	ErrConnectorNotFound = errors.New("connector not found")

	// ErrProtocolRegistered indicates a connector already holds the protocol slot.
	ErrProtocolRegistered = errors.New("protocol already registered")

	// ErrUnsupportedProtocol indicates the protocol is outside the supported set.
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
)

// ConfigurationError wraps a connector configuration failure. Configuration
// errors are fatal to the operation attempted and are never retried.
type ConfigurationError struct {
	Protocol Protocol
	Message  string
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connector configuration failed for protocol %s: %s: %v", e.Protocol, e.Message, e.Err)
	}

	return fmt.Sprintf("connector configuration failed for protocol %s: %s", e.Protocol, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a configuration error for the given protocol.
func NewConfigurationError(protocol Protocol, message string) *ConfigurationError {
	return &ConfigurationError{Protocol: protocol, Message: message}
}

// IsConfigurationError reports whether err is a connector configuration error.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError

	return errors.As(err, &ce)
}
