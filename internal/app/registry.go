package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AniketShinde02/gurukul-match/internal/core"
	"github.com/AniketShinde02/gurukul-match/internal/domain"
)

type connEntry struct {
	Conn     core.SignalConnection
	LastSeen time.Time
}

// Registry maps a user id to its single live connection. It is the source
// of truth for "is this user currently reachable".
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.UserID]*connEntry
	clock func() time.Time

	// onEvict runs the disconnect cascade (queue + session unwind).
	// Fired at most once per connection lifetime, outside the lock.
	onEvict func(domain.UserID)
	// onSupersede lets higher layers clean up state tied to a replaced
	// connection (a reconnecting client keeps its session, drops its
	// stale queue entry).
	onSupersede func(domain.UserID)
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[domain.UserID]*connEntry),
		clock: time.Now,
	}
}

func (r *Registry) OnEvict(fn func(domain.UserID))     { r.onEvict = fn }
func (r *Registry) OnSupersede(fn func(domain.UserID)) { r.onSupersede = fn }

// Register stores conn as the live connection for userID. Any prior
// connection for the same id is superseded: closed, not rejected.
func (r *Registry) Register(userID domain.UserID, conn core.SignalConnection) {
	r.mu.Lock()
	prev, had := r.conns[userID]
	if had && prev.Conn == conn {
		prev.LastSeen = r.clock()
		r.mu.Unlock()
		return
	}
	r.conns[userID] = &connEntry{Conn: conn, LastSeen: r.clock()}
	r.mu.Unlock()

	if had {
		log.Info().Str("module", "app.registry").Str("user", string(userID)).Msg("connection superseded")
		prev.Conn.Close()
		if r.onSupersede != nil {
			r.onSupersede(userID)
		}
	} else {
		log.Info().Str("module", "app.registry").Str("user", string(userID)).Msg("registered connection")
	}
}

func (r *Registry) Lookup(userID domain.UserID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[userID]
	if !ok {
		return nil, false
	}
	return e.Conn, true
}

func (r *Registry) IsAlive(userID domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}

// Touch refreshes the liveness timestamp, e.g. on a pong or any inbound frame.
func (r *Registry) Touch(userID domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[userID]; ok {
		e.LastSeen = r.clock()
	}
}

// Unregister removes the mapping and fires the disconnect cascade exactly
// once. conn guards against a superseded socket's dying read loop tearing
// down the state of the connection that replaced it.
func (r *Registry) Unregister(userID domain.UserID, conn core.SignalConnection) bool {
	r.mu.Lock()
	e, ok := r.conns[userID]
	if !ok || (conn != nil && e.Conn != conn) {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, userID)
	r.mu.Unlock()

	e.Conn.Close()
	log.Info().Str("module", "app.registry").Str("user", string(userID)).Msg("unregistered connection")
	if r.onEvict != nil {
		r.onEvict(userID)
	}
	return true
}

// StaleConn identifies a connection that has gone quiet. The conn is
// carried along so the eventual Unregister only acts if that exact
// connection is still current.
type StaleConn struct {
	UserID domain.UserID
	Conn   core.SignalConnection
}

// Stale returns connections not seen since cutoff.
func (r *Registry) Stale(cutoff time.Time) []StaleConn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []StaleConn
	for id, e := range r.conns {
		if e.LastSeen.Before(cutoff) {
			out = append(out, StaleConn{UserID: id, Conn: e.Conn})
		}
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Each snapshots the connection set and visits it without holding the lock.
func (r *Registry) Each(fn func(domain.UserID, core.SignalConnection)) {
	r.mu.RLock()
	snap := make(map[domain.UserID]core.SignalConnection, len(r.conns))
	for id, e := range r.conns {
		snap[id] = e.Conn
	}
	r.mu.RUnlock()
	for id, c := range snap {
		fn(id, c)
	}
}
