package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeEnvelopeShape(t *testing.T) {
	frame, err := Encode(TypeQueued, QueuedPayload{Position: 3, Message: "Waiting for partner..."})
	require.NoError(t, err)

	var env struct {
		Type      string         `json:"type"`
		Payload   map[string]any `json:"payload"`
		Timestamp int64          `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, "queued", env.Type)
	assert.Equal(t, float64(3), env.Payload["position"])
	assert.NotZero(t, env.Timestamp)
}

func TestClientEnvelopeKeepsDataRaw(t *testing.T) {
	raw := []byte(`{"type":"signal","data":{"sessionId":"s1","userId":"u1","signal":{"type":"offer","sdp":"v=0"}}}`)

	var env ClientEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, TypeSignal, env.Type)

	var p SignalData
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "s1", p.SessionID)
	// The signaling blob passes through byte-identical.
	assert.JSONEq(t, `{"type":"offer","sdp":"v=0"}`, string(p.Signal))
}

func TestSignalPayloadRoundTrip(t *testing.T) {
	blob := json.RawMessage(`{"candidate":"candidate:1 1 udp 2122260223"}`)
	frame, err := Encode(TypeSignalOut, SignalPayload{SessionID: "s1", Signal: blob})
	require.NoError(t, err)

	var env struct {
		Payload SignalPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.JSONEq(t, string(blob), string(env.Payload.Signal))
}
