package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/AniketShinde02/gurukul-match/internal/protocol"
)

func (ctl *MatchWSController) writePump(ctx context.Context, cancel context.CancelFunc, c *WsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		// Closing the socket unblocks the read pump, which runs the
		// disconnect cascade.
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping failed")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *MatchWSController) readPump(ctx context.Context, cancel context.CancelFunc, st *connState) {
	c := st.conn
	defer func() {
		cancel()
		ctl.open.Add(-1)
		// Unregister runs the disconnect cascade exactly once; if this
		// socket was already superseded by a newer one, it is a no-op.
		if st.userID != "" {
			ctl.Orch.Registry.Unregister(st.userID, c)
		}
		c.Close()
		log.Info().Str("module", "signal").Str("user", string(st.userID)).Msg("readPump closed")
	}()

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Cfg.PongWait))
		if st.userID != "" {
			ctl.Orch.Registry.Touch(st.userID)
		}
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Cfg.PongWait))
			if st.userID != "" {
				ctl.Orch.Registry.Touch(st.userID)
			}
			ctl.handleMessage(st, data)
		}
	}
}

func (ctl *MatchWSController) handleMessage(st *connState, data []byte) {
	var env protocol.ClientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json frame")
		ctl.sendError(st.conn, "malformed message")
		return
	}

	switch env.Type {
	case protocol.TypeJoinQueue:
		ctl.handleJoinQueue(st, env.Data)
	case protocol.TypeLeaveQueue:
		ctl.handleLeaveQueue(st, env.Data)
	case protocol.TypeSkip:
		ctl.handleSkip(st, env.Data)
	case protocol.TypeEndSession:
		ctl.handleEndSession(st, env.Data)
	case protocol.TypeSignal:
		ctl.handleSignal(st, env.Data)
	case protocol.TypePing:
		ctl.handlePing(st)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown message type")
		ctl.sendError(st.conn, "unknown message type: "+env.Type)
	}
}

func (ctl *MatchWSController) sendJSON(c *WsConn, msgType string, payload any) {
	frame, err := protocol.Encode(msgType, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(frame)
}

func (ctl *MatchWSController) sendError(c *WsConn, message string) {
	ctl.sendJSON(c, protocol.TypeError, protocol.ErrorPayload{Message: message})
}
