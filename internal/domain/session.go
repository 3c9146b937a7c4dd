package domain

import "time"

type SessionID string

type SessionState string

const (
	SessionConnecting SessionState = "connecting"
	SessionActive     SessionState = "active"
	SessionEnded      SessionState = "ended"
)

// EndReason distinguishes why a session was torn down; it decides whether
// the surviving participant sees partner_left or session_ended.
type EndReason string

const (
	ReasonPartnerEnded        EndReason = "partner_ended"
	ReasonPartnerDisconnected EndReason = "partner_disconnected"
	ReasonSkipped             EndReason = "skipped"
	ReasonPartnerUnreachable  EndReason = "partner_unreachable"
)

// Session is an active pair. Exactly one participant is the initiator;
// it creates the WebRTC offer, the other side waits for it.
type Session struct {
	ID        SessionID
	UserA     UserID
	UserB     UserID
	Initiator UserID
	State     SessionState
	CreatedAt time.Time
}

// Has reports whether id participates in the session.
func (s *Session) Has(id UserID) bool {
	return s.UserA == id || s.UserB == id
}

// Other returns the participant opposite to id. Callers must check Has first.
func (s *Session) Other(id UserID) UserID {
	if s.UserA == id {
		return s.UserB
	}
	return s.UserA
}
