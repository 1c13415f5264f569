package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_QueueName(t *testing.T) {
	assert.Equal(t, defaultQueue, Config{}.queueName())
	assert.Equal(t, "custom:queue", Config{Queue: "custom:queue"}.queueName())
}

func TestParseDB(t *testing.T) {
	db, err := ParseDB("")
	require.NoError(t, err)
	assert.Equal(t, 0, db)

	db, err = ParseDB("3")
	require.NoError(t, err)
	assert.Equal(t, 3, db)

	_, err = ParseDB("not-a-number")
	require.Error(t, err)
}

func TestExecutionRequest_RoundTrip(t *testing.T) {
	request := ExecutionRequest{
		WorkflowID:  "wf-1",
		Variables:   map[string]any{"region": "eu"},
		RequestedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	payload, err := json.Marshal(request)
	require.NoError(t, err)

	var decoded ExecutionRequest
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.Equal(t, request.WorkflowID, decoded.WorkflowID)
	assert.Equal(t, "eu", decoded.Variables["region"])
	assert.True(t, request.RequestedAt.Equal(decoded.RequestedAt))
}
