package signal

import "github.com/AniketShinde02/gurukul-match/internal/protocol"

func (ctl *MatchWSController) handlePing(st *connState) {
	if st.userID != "" {
		ctl.Orch.Registry.Touch(st.userID)
	}
	ctl.sendJSON(st.conn, protocol.TypePong, struct{}{})
}
