package connectors

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry holds at most one connector per protocol. It is an explicitly
// constructed instance owned by the composition root and passed by reference
// to the factory and its consumers; registry state lives for the process
// lifetime with no automatic expiry.
type Registry struct {
	mu         sync.RWMutex
	connectors map[Protocol]Connector
	logger     *slog.Logger
}

// NewRegistry creates an empty connector registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		connectors: make(map[Protocol]Connector),
		logger:     logger.With("module", "connector_registry"),
	}
}

// Register adds a connector. It rejects connectors missing id, name, or a
// supported protocol, and rejects a second registration for a protocol that
// already has one.
func (r *Registry) Register(connector Connector) error {
	if connector == nil {
		return NewConfigurationError("", "connector is nil")
	}

	if connector.ID() == "" || connector.Name() == "" {
		return NewConfigurationError(connector.Protocol(), "connector requires id and name")
	}

	protocol := connector.Protocol()
	if !protocol.IsSupported() {
		return fmt.Errorf("%w: %s", ErrUnsupportedProtocol, protocol)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connectors[protocol]; exists {
		return fmt.Errorf("%w: %s", ErrProtocolRegistered, protocol)
	}

	r.connectors[protocol] = connector

	r.logger.Info("Registered connector",
		"connector_id", connector.ID(),
		"protocol", protocol,
	)

	return nil
}

// Get returns the connector registered for the protocol.
func (r *Registry) Get(protocol Protocol) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connector, exists := r.connectors[protocol]
	if !exists {
		return nil, fmt.Errorf("%w: no connector registered for protocol %s", ErrConnectorNotFound, protocol)
	}

	return connector, nil
}

// Remove unregisters the connector for the protocol.
func (r *Registry) Remove(protocol Protocol) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connectors[protocol]; !exists {
		return fmt.Errorf("%w: no connector registered for protocol %s", ErrConnectorNotFound, protocol)
	}

	delete(r.connectors, protocol)

	return nil
}

// Clear removes every registered connector.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connectors = make(map[Protocol]Connector)
}

// List returns the registered connectors in no particular order.
func (r *Registry) List() []Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Connector, 0, len(r.connectors))
	for _, connector := range r.connectors {
		list = append(list, connector)
	}

	return list
}
