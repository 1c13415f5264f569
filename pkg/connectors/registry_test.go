package connectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/pkg/log"
)

func configuredRestConnector(t *testing.T, id string) *RestConnector {
	t.Helper()

	connector := NewRestConnector(log.WithModule("test"))
	require.NoError(t, connector.Configure(Config{
		ID:      id,
		Name:    "Test REST",
		BaseURL: "https://api.example.com",
	}))

	return connector
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry(log.WithModule("test"))

	connector := configuredRestConnector(t, "rest-1")
	require.NoError(t, registry.Register(connector))

	got, err := registry.Get(ProtocolREST)
	require.NoError(t, err)
	assert.Equal(t, "rest-1", got.ID())
}

// A second registration for an occupied protocol fails and the first
// connector stays in place.
func TestRegistry_RegisterDuplicateProtocol(t *testing.T) {
	registry := NewRegistry(log.WithModule("test"))

	first := configuredRestConnector(t, "rest-1")
	second := configuredRestConnector(t, "rest-2")

	require.NoError(t, registry.Register(first))

	err := registry.Register(second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocolRegistered)

	got, err := registry.Get(ProtocolREST)
	require.NoError(t, err)
	assert.Equal(t, "rest-1", got.ID())
}

func TestRegistry_RegisterNil(t *testing.T) {
	registry := NewRegistry(log.WithModule("test"))

	err := registry.Register(nil)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestRegistry_RegisterUnconfigured(t *testing.T) {
	registry := NewRegistry(log.WithModule("test"))

	err := registry.Register(NewRestConnector(log.WithModule("test")))
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestRegistry_GetMissing(t *testing.T) {
	registry := NewRegistry(log.WithModule("test"))

	_, err := registry.Get(ProtocolSOAP)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectorNotFound)
}

func TestRegistry_RemoveAndClear(t *testing.T) {
	registry := NewRegistry(log.WithModule("test"))

	require.NoError(t, registry.Register(configuredRestConnector(t, "rest-1")))
	require.NoError(t, registry.Remove(ProtocolREST))

	_, err := registry.Get(ProtocolREST)
	require.Error(t, err)

	assert.ErrorIs(t, registry.Remove(ProtocolREST), ErrConnectorNotFound)

	require.NoError(t, registry.Register(configuredRestConnector(t, "rest-2")))
	registry.Clear()
	assert.Empty(t, registry.List())
}

func TestRegistry_List(t *testing.T) {
	registry := NewRegistry(log.WithModule("test"))

	require.NoError(t, registry.Register(configuredRestConnector(t, "rest-1")))

	list := registry.List()
	require.Len(t, list, 1)
	assert.Equal(t, ProtocolREST, list[0].Protocol())
}
