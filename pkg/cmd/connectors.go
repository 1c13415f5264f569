package cmd

import (
	"log/slog"

	"github.com/weftlabs/weft/pkg/connectors"
)

// NewConnectorRegistry builds the connector registry and its factory. Each
// binary wires its own instance; connectors are registered per process
// through the factory.
func NewConnectorRegistry(logger *slog.Logger) (*connectors.Registry, *connectors.Factory) {
	registry := connectors.NewRegistry(logger)
	factory := connectors.NewFactory(registry, logger)

	return registry, factory
}
