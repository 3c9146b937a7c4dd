package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/AniketShinde02/gurukul-match/internal/domain"
	"github.com/AniketShinde02/gurukul-match/internal/protocol"
)

func (ctl *MatchWSController) handleSkip(st *connState, data json.RawMessage) {
	var p protocol.SkipData
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(st.conn, "bad skip payload")
		return
	}
	if err := ctl.bind(st, p.UserID); err != nil {
		ctl.sendError(st.conn, err.Error())
		return
	}
	mode, err := domain.ParseMatchMode(p.MatchMode)
	if err != nil {
		ctl.sendError(st.conn, err.Error())
		return
	}

	buddyIDs := make([]domain.UserID, 0, len(p.BuddyIDs))
	for _, id := range p.BuddyIDs {
		buddyIDs = append(buddyIDs, domain.UserID(id))
	}

	log.Info().Str("module", "signal").
		Str("user", p.UserID).
		Str("session", p.SessionID).
		Msg("skip")

	if err := ctl.Orch.Skip(domain.SessionID(p.SessionID), st.userID, mode, buddyIDs); err != nil {
		ctl.sendError(st.conn, err.Error())
	}
}

func (ctl *MatchWSController) handleEndSession(st *connState, data json.RawMessage) {
	var p protocol.EndSessionData
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(st.conn, "bad end_session payload")
		return
	}
	if err := ctl.bind(st, p.UserID); err != nil {
		ctl.sendError(st.conn, err.Error())
		return
	}

	log.Info().Str("module", "signal").
		Str("user", p.UserID).
		Str("session", p.SessionID).
		Msg("end_session")

	if err := ctl.Orch.EndSession(domain.SessionID(p.SessionID), st.userID); err != nil {
		ctl.sendError(st.conn, err.Error())
	}
}

// handleSignal relays the opaque blob; invalid frames are dropped without a
// reply so a probing client learns nothing about foreign sessions.
func (ctl *MatchWSController) handleSignal(st *connState, data json.RawMessage) {
	var p protocol.SignalData
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(st.conn, "bad signal payload")
		return
	}
	if p.UserID != "" {
		if err := ctl.bind(st, p.UserID); err != nil {
			ctl.sendError(st.conn, err.Error())
			return
		}
	}
	if st.userID == "" {
		ctl.sendError(st.conn, "userId required")
		return
	}
	ctl.Orch.Relay(
		domain.SessionID(p.SessionID),
		st.userID,
		domain.UserID(p.TargetUserID),
		p.Signal,
	)
}
