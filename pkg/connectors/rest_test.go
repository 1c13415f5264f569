package connectors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/pkg/log"
)

func TestRestConnector_SendRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/contacts", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))

		var body map[string]any

		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ada", body["name"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"c-1"}`))
	}))
	defer server.Close()

	connector := NewRestConnector(log.WithModule("test"))
	require.NoError(t, connector.Configure(Config{
		ID:      "crm",
		Name:    "CRM",
		BaseURL: server.URL,
		Headers: map[string]string{"X-Api-Key": "secret"},
	}))

	result, err := connector.SendRequest(t.Context(), "POST", "/contacts", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "c-1", result["id"])
	assert.Equal(t, http.StatusCreated, result["status_code"])
}

func TestRestConnector_NonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))
	defer server.Close()

	connector := NewRestConnector(log.WithModule("test"))
	require.NoError(t, connector.Configure(Config{ID: "x", Name: "X", BaseURL: server.URL}))

	result, err := connector.SendRequest(t.Context(), "GET", "/ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", result["raw"])
}

func TestRestConnector_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	connector := NewRestConnector(log.WithModule("test"))
	require.NoError(t, connector.Configure(Config{ID: "x", Name: "X", BaseURL: server.URL}))

	_, err := connector.SendRequest(t.Context(), "GET", "/denied", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestRestConnector_Unconfigured(t *testing.T) {
	connector := NewRestConnector(log.WithModule("test"))

	_, err := connector.SendRequest(t.Context(), "GET", "/", nil)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}
