// Package signal is the WebSocket front door: it upgrades connections,
// frames the JSON protocol and dispatches into the orchestrator.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/AniketShinde02/gurukul-match/internal/app"
	"github.com/AniketShinde02/gurukul-match/internal/config"
	"github.com/AniketShinde02/gurukul-match/internal/core"
	"github.com/AniketShinde02/gurukul-match/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type MatchWSController struct {
	Orch *app.Orchestrator
	Cfg  *config.Config

	// open counts accepted sockets, registered or not, for the admission cap.
	open atomic.Int64
}

func NewMatchWSController(orch *app.Orchestrator, cfg *config.Config) *MatchWSController {
	return &MatchWSController{Orch: orch, Cfg: cfg}
}

// WsConn wraps a websocket connection with a buffered outbound channel so
// the app layer never blocks on a slow client.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// connState is the per-connection task's local state. userID stays empty
// until the first message that names the user.
type connState struct {
	conn   *WsConn
	token  string
	userID domain.UserID
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and starts the per-connection pumps.
// Past the connection cap new sockets are rejected, not queued.
func (ctl *MatchWSController) HandleWS(ctx context.Context, c *gin.Context) {
	if max := int64(ctl.Cfg.MaxConnections); max > 0 && ctl.open.Load() >= max {
		c.String(http.StatusServiceUnavailable, "server at capacity")
		return
	}

	token := c.GetString("client_token")
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ctl.open.Add(1)
	log.Info().Str("module", "signal").Str("token", token).Msg("new WS connection")

	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}
	st := &connState{conn: conn, token: token}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, cancel, conn)
	go ctl.readPump(ctx, cancel, st)
}
