// Package protocol defines the JSON wire format spoken over the matchmaking
// WebSocket. Client frames are {type, data}; server frames are
// {type, payload, timestamp}.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/AniketShinde02/gurukul-match/internal/core"
)

// Client → server message types.
const (
	TypeJoinQueue  = "join_queue"
	TypeLeaveQueue = "leave_queue"
	TypeSkip       = "skip"
	TypeEndSession = "end_session"
	TypeSignal     = "signal"
	TypePing       = "ping"
)

// Server → client message types.
const (
	TypeQueued         = "queued"
	TypeMatchFound     = "match_found"
	TypeSignalOut      = "signal"
	TypePartnerLeft    = "partner_left"
	TypeSessionEnded   = "session_ended"
	TypeQueueTimeout   = "queue_timeout"
	TypeLeftQueue      = "left_queue"
	TypeError          = "error"
	TypePong           = "pong"
	TypeServerShutdown = "server_shutdown"
)

// ClientEnvelope is the outer frame of every inbound message.
type ClientEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type JoinQueueData struct {
	UserID    string   `json:"userId"`
	MatchMode string   `json:"matchMode"`
	BuddyIDs  []string `json:"buddyIds"`
}

type LeaveQueueData struct {
	UserID string `json:"userId"`
}

type SkipData struct {
	SessionID string   `json:"sessionId"`
	UserID    string   `json:"userId"`
	MatchMode string   `json:"matchMode"`
	BuddyIDs  []string `json:"buddyIds"`
}

type EndSessionData struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

type SignalData struct {
	SessionID    string          `json:"sessionId"`
	UserID       string          `json:"userId"`
	TargetUserID string          `json:"targetUserId"`
	Signal       json.RawMessage `json:"signal"`
}

// ServerEnvelope is the outer frame of every outbound message.
type ServerEnvelope struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp int64  `json:"timestamp"`
}

type QueuedPayload struct {
	Position int    `json:"position"`
	Message  string `json:"message"`
}

type MatchFoundPayload struct {
	SessionID   string `json:"sessionId"`
	PartnerID   string `json:"partnerId"`
	IsInitiator bool   `json:"isInitiator"`
}

// SignalPayload re-emits the opaque signaling blob unchanged.
type SignalPayload struct {
	SessionID string          `json:"sessionId"`
	Signal    json.RawMessage `json:"signal"`
}

type PartnerLeftPayload struct {
	SessionID string `json:"sessionId"`
}

type SessionEndedPayload struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason"`
}

type QueueTimeoutPayload struct {
	Message string `json:"message"`
}

type LeftQueuePayload struct {
	Success bool `json:"success"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type ShutdownPayload struct {
	Message string `json:"message"`
}

// Encode wraps payload in the server envelope and marshals it.
func Encode(msgType string, payload any) (core.Frame, error) {
	b, err := json.Marshal(ServerEnvelope{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}
