package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/AniketShinde02/gurukul-match/internal/domain"
	"github.com/AniketShinde02/gurukul-match/internal/protocol"
)

// bind associates the connection with the userId named in a message. The
// registry supersedes any older connection for the same user.
func (ctl *MatchWSController) bind(st *connState, rawID string) error {
	userID := domain.UserID(rawID)
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}
	if st.userID != "" && st.userID != userID {
		return errors.New("userId does not match this connection")
	}
	if st.userID == "" {
		st.userID = userID
		ctl.Orch.Registry.Register(userID, st.conn)
	}
	return nil
}

func (ctl *MatchWSController) handleJoinQueue(st *connState, data json.RawMessage) {
	var p protocol.JoinQueueData
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(st.conn, "bad join_queue payload")
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
		Str("mode", string(mode)).
		Int("buddies", len(buddyIDs)).
		Msg("join_queue")

	if err := ctl.Orch.JoinQueue(st.userID, mode, buddyIDs); err != nil {
		ctl.sendError(st.conn, err.Error())
	}
}

func (ctl *MatchWSController) handleLeaveQueue(st *connState, data json.RawMessage) {
	var p protocol.LeaveQueueData
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(st.conn, "bad leave_queue payload")
		return
	}
	if err := ctl.bind(st, p.UserID); err != nil {
		ctl.sendError(st.conn, err.Error())
		return
	}
	log.Info().Str("module", "signal").Str("user", p.UserID).Msg("leave_queue")
	ctl.Orch.LeaveQueue(st.userID)
}
