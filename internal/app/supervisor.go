package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AniketShinde02/gurukul-match/internal/protocol"
)

// Supervisor is the periodic defense against ghost queue entries and
// orphaned sessions: clients that vanish without a clean close are detected
// here, not by the read loop. It also enforces the queue TTL and the
// buddies_first → global promotion delay.
type Supervisor struct {
	Orch *Orchestrator

	Interval time.Duration
	// PongWait is how long a connection may go without any sign of life
	// (two missed transport pings) before it is evicted.
	PongWait time.Duration
	QueueTTL time.Duration
	// PromoteAfter is how long a buddies_first entry waits before it is
	// matched like any global entry. Zero disables promotion.
	PromoteAfter time.Duration
}

// Run blocks until ctx is done, sweeping every Interval.
func (s *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.supervisor").Msg("supervisor stopped")
			return
		case <-ticker.C:
			s.Sweep(time.Now())
		}
	}
}

// Sweep runs one pass of all three housekeeping duties.
func (s *Supervisor) Sweep(now time.Time) {
	for _, sc := range s.Orch.Registry.Stale(now.Add(-s.PongWait)) {
		// Passing the snapshotted conn keeps a user who reconnected
		// between the snapshot and the eviction from losing the fresh
		// connection.
		if s.Orch.Registry.Unregister(sc.UserID, sc.Conn) {
			log.Warn().Str("module", "app.supervisor").Str("user", string(sc.UserID)).Msg("evicted dead connection")
		}
	}

	for _, userID := range s.Orch.Match.ExpireBefore(now.Add(-s.QueueTTL)) {
		s.Orch.send(userID, protocol.TypeQueueTimeout, protocol.QueueTimeoutPayload{
			Message: "Search timed out",
		})
	}

	if s.PromoteAfter > 0 {
		for _, match := range s.Orch.Match.Promote(now.Add(-s.PromoteAfter)) {
			s.Orch.notifyMatch(match)
		}
	}
}
