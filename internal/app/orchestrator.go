package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/AniketShinde02/gurukul-match/internal/core"
	"github.com/AniketShinde02/gurukul-match/internal/domain"
	"github.com/AniketShinde02/gurukul-match/internal/protocol"
)

// Options carries the policy knobs the orchestrator needs from config.
type Options struct {
	// EndOnUnreachable ends a session when a relay target has no live
	// connection instead of silently dropping the frame.
	EndOnUnreachable bool
}

// Orchestrator coordinates the connection registry and the matchmaker and
// owns every server→client notification. Handlers decode frames and call
// in; all shared-state mutation happens behind the registry's and
// matchmaker's own locks.
type Orchestrator struct {
	Registry *Registry
	Match    *Matchmaker
	Policy   Policy
	Opts     Options
}

func NewOrchestrator(opts Options) *Orchestrator {
	reg := NewRegistry()
	o := &Orchestrator{
		Registry: reg,
		Match:    NewMatchmaker(reg.IsAlive),
		Policy:   SimplePolicy{},
		Opts:     opts,
	}
	reg.OnEvict(o.onDisconnect)
	reg.OnSupersede(o.onSupersede)
	return o
}

// JoinQueue enqueues the user and notifies queued or match_found. The
// returned error is a state error the caller reports back to the client.
func (o *Orchestrator) JoinQueue(userID domain.UserID, mode domain.MatchMode, buddyIDs []domain.UserID) error {
	match, pos, err := o.Match.Join(userID, mode, buddyIDs)
	if err != nil {
		return err
	}
	if match != nil {
		o.notifyMatch(match)
		return nil
	}
	o.send(userID, protocol.TypeQueued, protocol.QueuedPayload{
		Position: pos,
		Message:  "Waiting for partner...",
	})
	return nil
}

func (o *Orchestrator) LeaveQueue(userID domain.UserID) {
	o.Match.Leave(userID)
	o.send(userID, protocol.TypeLeftQueue, protocol.LeftQueuePayload{Success: true})
}

// EndSession tears a session down on behalf of one participant and tells
// the other side session_ended.
func (o *Orchestrator) EndSession(sessionID domain.SessionID, userID domain.UserID) error {
	sess, ok := o.Match.Get(sessionID)
	if !ok {
		return ErrNoSuchSession
	}
	if !sess.Has(userID) {
		return ErrNotParticipant
	}
	if ended, ok := o.Match.End(sessionID); ok {
		o.send(ended.Other(userID), protocol.TypeSessionEnded, protocol.SessionEndedPayload{
			SessionID: string(ended.ID),
			Reason:    string(domain.ReasonPartnerEnded),
		})
	}
	return nil
}

// Skip ends the current session and re-enqueues only the requester. The
// skipped partner gets partner_left and decides on its own whether to
// requeue.
func (o *Orchestrator) Skip(sessionID domain.SessionID, userID domain.UserID, mode domain.MatchMode, buddyIDs []domain.UserID) error {
	ended, match, pos, err := o.Match.Skip(sessionID, userID, mode, buddyIDs)
	if err != nil {
		return err
	}
	o.send(ended.Other(userID), protocol.TypePartnerLeft, protocol.PartnerLeftPayload{
		SessionID: string(ended.ID),
	})
	if match != nil {
		o.notifyMatch(match)
		return nil
	}
	o.send(userID, protocol.TypeQueued, protocol.QueuedPayload{
		Position: pos,
		Message:  "Waiting for partner...",
	})
	return nil
}

// Relay forwards an opaque signaling blob to the sender's partner. Frames
// naming sessions the sender does not belong to are dropped, never
// delivered.
func (o *Orchestrator) Relay(sessionID domain.SessionID, from domain.UserID, target domain.UserID, signal json.RawMessage) {
	to, ok := o.Match.Relayable(sessionID, from)
	if !ok {
		log.Warn().Str("module", "app.orchestrator").
			Str("session", string(sessionID)).
			Str("from", string(from)).
			Msg("dropping signal for foreign or ended session")
		return
	}
	if target != "" && target != to {
		log.Warn().Str("module", "app.orchestrator").
			Str("session", string(sessionID)).
			Str("from", string(from)).
			Msg("dropping signal with mismatched target")
		return
	}
	conn, ok := o.Registry.Lookup(to)
	if !ok {
		if o.Opts.EndOnUnreachable {
			if ended, ok := o.Match.End(sessionID); ok {
				o.send(ended.Other(to), protocol.TypeSessionEnded, protocol.SessionEndedPayload{
					SessionID: string(ended.ID),
					Reason:    string(domain.ReasonPartnerUnreachable),
				})
			}
		}
		return
	}
	frame, err := protocol.Encode(protocol.TypeSignalOut, protocol.SignalPayload{
		SessionID: string(sessionID),
		Signal:    signal,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Msg("encode signal")
		return
	}
	if err := conn.TrySend(frame); err != nil {
		o.onBackpressure(to)
		return
	}
	o.Match.MarkActive(sessionID)
}

func (o *Orchestrator) notifyMatch(match *Match) {
	sess := match.Session
	for _, userID := range []domain.UserID{sess.UserA, sess.UserB} {
		o.send(userID, protocol.TypeMatchFound, protocol.MatchFoundPayload{
			SessionID:   string(sess.ID),
			PartnerID:   string(sess.Other(userID)),
			IsInitiator: userID == sess.Initiator,
		})
	}
}

// onDisconnect is the cleanup cascade shared by heartbeat eviction and
// transport close. The registry guarantees it runs once per connection.
func (o *Orchestrator) onDisconnect(userID domain.UserID) {
	o.Match.Leave(userID)
	if ended, ok := o.Match.EndByUser(userID); ok {
		o.send(ended.Other(userID), protocol.TypePartnerLeft, protocol.PartnerLeftPayload{
			SessionID: string(ended.ID),
		})
	}
}

// onSupersede drops the stale queue entry of a reconnecting user; an active
// session is kept so signaling can resume over the new socket.
func (o *Orchestrator) onSupersede(userID domain.UserID) {
	o.Match.Leave(userID)
}

// Shutdown broadcasts server_shutdown to every live connection.
func (o *Orchestrator) Shutdown(message string) {
	frame, err := protocol.Encode(protocol.TypeServerShutdown, protocol.ShutdownPayload{Message: message})
	if err != nil {
		return
	}
	o.Registry.Each(func(_ domain.UserID, conn core.SignalConnection) {
		_ = conn.TrySend(frame)
	})
}

func (o *Orchestrator) send(userID domain.UserID, msgType string, payload any) {
	conn, ok := o.Registry.Lookup(userID)
	if !ok {
		log.Warn().Str("module", "app.orchestrator").
			Str("user", string(userID)).
			Str("type", msgType).
			Msg("no live connection, dropping message")
		return
	}
	frame, err := protocol.Encode(msgType, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Msg("encode message")
		return
	}
	if err := conn.TrySend(frame); err != nil {
		o.onBackpressure(userID)
	}
}

func (o *Orchestrator) onBackpressure(userID domain.UserID) {
	if o.Policy == nil {
		return
	}
	switch o.Policy.OnBackPressure(userID) {
	case KickUser:
		log.Warn().Str("module", "app.orchestrator").Str("user", string(userID)).Msg("kicking slow consumer")
		o.Registry.Unregister(userID, nil)
	case DropFrame, NoAction:
	}
}
