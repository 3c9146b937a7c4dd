package signal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AniketShinde02/gurukul-match/internal/app"
	"github.com/AniketShinde02/gurukul-match/internal/config"
	"github.com/AniketShinde02/gurukul-match/internal/core"
)

// newTestConn builds a WsConn with no underlying socket; replies pile up in
// the send channel where the test drains them.
func newTestConn() *WsConn {
	return &WsConn{send: make(chan core.Frame, 64)}
}

func newTestController() *MatchWSController {
	cfg := &config.Config{SendBuffer: 64, ReadLimit: 32768, EndOnUnreachable: true}
	orch := app.NewOrchestrator(app.Options{EndOnUnreachable: true})
	return NewMatchWSController(orch, cfg)
}

type wsMsg struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func drain(t *testing.T, c *WsConn) []wsMsg {
	t.Helper()
	var out []wsMsg
	for {
		select {
		case f := <-c.send:
			var m wsMsg
			require.NoError(t, json.Unmarshal(f, &m))
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestMalformedFrameAnswersError(t *testing.T) {
	ctl := newTestController()
	st := &connState{conn: newTestConn()}

	ctl.handleMessage(st, []byte(`{not json`))

	msgs := drain(t, st.conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, "error", msgs[0].Type)
}

func TestUnknownTypeAnswersError(t *testing.T) {
	ctl := newTestController()
	st := &connState{conn: newTestConn()}

	ctl.handleMessage(st, []byte(`{"type":"teleport","data":{}}`))

	msgs := drain(t, st.conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, "error", msgs[0].Type)
	assert.Contains(t, msgs[0].Payload["message"], "unknown message type")
}

func TestJoinQueueRequiresUserID(t *testing.T) {
	ctl := newTestController()
	st := &connState{conn: newTestConn()}

	ctl.handleMessage(st, []byte(`{"type":"join_queue","data":{"matchMode":"global"}}`))

	msgs := drain(t, st.conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, "error", msgs[0].Type)
	assert.Equal(t, "userId required", msgs[0].Payload["message"])
}

func TestJoinQueueRejectsBadMode(t *testing.T) {
	ctl := newTestController()
	st := &connState{conn: newTestConn()}

	ctl.handleMessage(st, []byte(`{"type":"join_queue","data":{"userId":"u1","matchMode":"psychic"}}`))

	msgs := drain(t, st.conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, "error", msgs[0].Type)
}

func TestJoinQueueBindsAndQueues(t *testing.T) {
	ctl := newTestController()
	st := &connState{conn: newTestConn()}

	ctl.handleMessage(st, []byte(`{"type":"join_queue","data":{"userId":"u1","matchMode":"global","buddyIds":[]}}`))

	msgs := drain(t, st.conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, "queued", msgs[0].Type)
	assert.Equal(t, float64(1), msgs[0].Payload["position"])
	assert.True(t, ctl.Orch.Registry.IsAlive("u1"))

	// State error on re-join, no duplicate entry.
	ctl.handleMessage(st, []byte(`{"type":"join_queue","data":{"userId":"u1","matchMode":"global"}}`))
	msgs = drain(t, st.conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, "error", msgs[0].Type)
	assert.Equal(t, "already queued", msgs[0].Payload["message"])
	assert.Equal(t, 1, ctl.Orch.Match.QueueSize())
}

func TestConnectionCannotChangeUser(t *testing.T) {
	ctl := newTestController()
	st := &connState{conn: newTestConn()}

	ctl.handleMessage(st, []byte(`{"type":"join_queue","data":{"userId":"u1","matchMode":"global"}}`))
	drain(t, st.conn)

	ctl.handleMessage(st, []byte(`{"type":"leave_queue","data":{"userId":"someone-else"}}`))
	msgs := drain(t, st.conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, "error", msgs[0].Type)
}

func TestTwoConnectionsMatchThroughHandlers(t *testing.T) {
	ctl := newTestController()
	a := &connState{conn: newTestConn()}
	b := &connState{conn: newTestConn()}

	ctl.handleMessage(a, []byte(`{"type":"join_queue","data":{"userId":"alice","matchMode":"global"}}`))
	ctl.handleMessage(b, []byte(`{"type":"join_queue","data":{"userId":"bob","matchMode":"global"}}`))

	aMsgs := drain(t, a.conn)
	bMsgs := drain(t, b.conn)
	require.Len(t, aMsgs, 2) // queued, then match_found
	require.Len(t, bMsgs, 1)
	assert.Equal(t, "match_found", aMsgs[1].Type)
	assert.Equal(t, "match_found", bMsgs[0].Type)
	assert.Equal(t, aMsgs[1].Payload["sessionId"], bMsgs[0].Payload["sessionId"])
	assert.NotEqual(t, aMsgs[1].Payload["isInitiator"], bMsgs[0].Payload["isInitiator"])
}

func TestSignalRelayThroughHandlers(t *testing.T) {
	ctl := newTestController()
	a := &connState{conn: newTestConn()}
	b := &connState{conn: newTestConn()}

	ctl.handleMessage(a, []byte(`{"type":"join_queue","data":{"userId":"alice","matchMode":"global"}}`))
	ctl.handleMessage(b, []byte(`{"type":"join_queue","data":{"userId":"bob","matchMode":"global"}}`))
	aMsgs := drain(t, a.conn)
	drain(t, b.conn)
	sid := aMsgs[1].Payload["sessionId"].(string)

	frame := `{"type":"signal","data":{"sessionId":"` + sid + `","userId":"bob","targetUserId":"alice","signal":{"type":"offer","sdp":"v=0"}}}`
	ctl.handleMessage(b, []byte(frame))

	got := drain(t, a.conn)
	require.Len(t, got, 1)
	assert.Equal(t, "signal", got[0].Type)
	assert.Equal(t, sid, got[0].Payload["sessionId"])
	assert.Equal(t, "offer", got[0].Payload["signal"].(map[string]any)["type"])
}

func TestPingAnswersPong(t *testing.T) {
	ctl := newTestController()
	st := &connState{conn: newTestConn()}

	ctl.handleMessage(st, []byte(`{"type":"ping","data":{}}`))

	msgs := drain(t, st.conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, "pong", msgs[0].Type)
}
