package app

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/AniketShinde02/gurukul-match/internal/domain"
)

var (
	ErrAlreadyQueued  = errors.New("already queued")
	ErrInSession      = errors.New("already in a session")
	ErrNoSuchSession  = errors.New("no such session")
	ErrNotParticipant = errors.New("not a participant of this session")
)

// Match is the result of an atomic pair-commit. Session.Initiator tells
// which side creates the WebRTC offer.
type Match struct {
	Session domain.Session
}

// Matchmaker owns both the mode-partitioned waiting queues and the session
// table. One mutex guards everything: pairing removes two queue entries and
// creates a session in a single critical section, so there is no window
// where a user is half-matched.
type Matchmaker struct {
	mu      sync.Mutex
	global  []*domain.QueueEntry
	buddies []*domain.QueueEntry
	byUser  map[domain.UserID]*domain.QueueEntry

	sessions  map[domain.SessionID]*domain.Session
	sessionOf map[domain.UserID]domain.SessionID

	// alive is probed before committing a pair; a candidate whose
	// connection died between discovery and commit is dropped and the
	// search retries against the next one.
	alive func(domain.UserID) bool
	clock func() time.Time
	newID func() string
}

func NewMatchmaker(alive func(domain.UserID) bool) *Matchmaker {
	return &Matchmaker{
		byUser:    make(map[domain.UserID]*domain.QueueEntry),
		sessions:  make(map[domain.SessionID]*domain.Session),
		sessionOf: make(map[domain.UserID]domain.SessionID),
		alive:     alive,
		clock:     time.Now,
		newID:     uuid.NewString,
	}
}

// Join enqueues the user and immediately attempts a match. On a match it
// returns the committed session; otherwise the queue position (1-based
// within the entry's partition).
func (m *Matchmaker) Join(userID domain.UserID, mode domain.MatchMode, buddyIDs []domain.UserID) (*Match, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.joinLocked(userID, mode, buddyIDs)
}

func (m *Matchmaker) joinLocked(userID domain.UserID, mode domain.MatchMode, buddyIDs []domain.UserID) (*Match, int, error) {
	if _, ok := m.byUser[userID]; ok {
		return nil, 0, ErrAlreadyQueued
	}
	if _, ok := m.sessionOf[userID]; ok {
		return nil, 0, ErrInSession
	}

	entry := domain.NewQueueEntry(userID, mode, buddyIDs, m.clock())
	if cand := m.findLocked(entry); cand != nil {
		m.removeLocked(cand)
		sess := m.createLocked(cand.UserID, entry.UserID)
		return &Match{Session: *sess}, 0, nil
	}

	m.byUser[userID] = entry
	if mode == domain.ModeBuddiesFirst {
		m.buddies = append(m.buddies, entry)
		return nil, len(m.buddies), nil
	}
	m.global = append(m.global, entry)
	return nil, len(m.global), nil
}

// findLocked scans for the best candidate for entry, earliest enqueue time
// first. Candidates with dead connections are evicted and the scan retries.
func (m *Matchmaker) findLocked(entry *domain.QueueEntry) *domain.QueueEntry {
	for {
		var best *domain.QueueEntry
		consider := func(cand *domain.QueueEntry) {
			if cand.UserID == entry.UserID {
				return
			}
			if !m.eligibleLocked(entry, cand) {
				return
			}
			if best == nil || cand.EnqueuedAt.Before(best.EnqueuedAt) {
				best = cand
			}
		}
		for _, c := range m.global {
			consider(c)
		}
		for _, c := range m.buddies {
			consider(c)
		}
		if best == nil {
			return nil
		}
		if m.alive == nil || m.alive(best.UserID) {
			return best
		}
		// Stale candidate: connection died while it was waiting.
		log.Warn().Str("module", "app.matchmaker").Str("user", string(best.UserID)).Msg("dropping stale queue entry")
		m.removeLocked(best)
	}
}

// eligibleLocked implements the partition rules. The buddy relation is
// symmetric: it is enough that either side lists the other.
func (m *Matchmaker) eligibleLocked(entry, cand *domain.QueueEntry) bool {
	related := entry.Lists(cand.UserID) || cand.Lists(entry.UserID)
	if entry.Mode == domain.ModeBuddiesFirst && !entry.Promoted {
		return related
	}
	// Global entries match other global (or promoted) entries FIFO, and
	// buddies_first waiters only through the buddy relation.
	if cand.Mode == domain.ModeBuddiesFirst && !cand.Promoted {
		return related
	}
	return true
}

// createLocked commits a pair. The entry that was already waiting receives
// the call; the newly joining side is the initiator.
func (m *Matchmaker) createLocked(waiterID, joinerID domain.UserID) *domain.Session {
	sess := &domain.Session{
		ID:        domain.SessionID(m.newID()),
		UserA:     waiterID,
		UserB:     joinerID,
		Initiator: joinerID,
		State:     domain.SessionConnecting,
		CreatedAt: m.clock(),
	}
	m.sessions[sess.ID] = sess
	m.sessionOf[sess.UserA] = sess.ID
	m.sessionOf[sess.UserB] = sess.ID
	log.Info().Str("module", "app.matchmaker").
		Str("session", string(sess.ID)).
		Str("waiter", string(waiterID)).
		Str("joiner", string(joinerID)).
		Msg("match committed")
	return sess
}

// Leave removes the user's queue entry if present. Absence is not an error.
func (m *Matchmaker) Leave(userID domain.UserID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.byUser[userID]
	if !ok {
		return false
	}
	m.removeLocked(entry)
	return true
}

func (m *Matchmaker) removeLocked(entry *domain.QueueEntry) {
	delete(m.byUser, entry.UserID)
	part := &m.global
	if entry.Mode == domain.ModeBuddiesFirst && !entry.Promoted {
		part = &m.buddies
	}
	for i, e := range *part {
		if e == entry {
			*part = append((*part)[:i], (*part)[i+1:]...)
			return
		}
	}
}

// Get returns a snapshot of the session.
func (m *Matchmaker) Get(sessionID domain.SessionID) (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return domain.Session{}, false
	}
	return *sess, true
}

// End transitions the session to ended and evicts it. The returned snapshot
// lets the caller notify the other participant.
func (m *Matchmaker) End(sessionID domain.SessionID) (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endLocked(sessionID)
}

func (m *Matchmaker) endLocked(sessionID domain.SessionID) (domain.Session, bool) {
	sess, ok := m.sessions[sessionID]
	if !ok {
		return domain.Session{}, false
	}
	sess.State = domain.SessionEnded
	delete(m.sessions, sessionID)
	delete(m.sessionOf, sess.UserA)
	delete(m.sessionOf, sess.UserB)
	return *sess, true
}

// EndByUser ends whatever non-ended session the user participates in.
func (m *Matchmaker) EndByUser(userID domain.UserID) (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sid, ok := m.sessionOf[userID]
	if !ok {
		return domain.Session{}, false
	}
	return m.endLocked(sid)
}

// Skip ends the requester's current session and atomically re-enqueues only
// the requester. The skipped partner is never auto-requeued.
func (m *Matchmaker) Skip(sessionID domain.SessionID, userID domain.UserID, mode domain.MatchMode, buddyIDs []domain.UserID) (domain.Session, *Match, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return domain.Session{}, nil, 0, ErrNoSuchSession
	}
	if !sess.Has(userID) {
		return domain.Session{}, nil, 0, ErrNotParticipant
	}
	ended, _ := m.endLocked(sessionID)
	match, pos, err := m.joinLocked(userID, mode, buddyIDs)
	return ended, match, pos, err
}

// Relayable validates that from participates in a live session and resolves
// the relay target. This is the security boundary for signal traffic.
func (m *Matchmaker) Relayable(sessionID domain.SessionID, from domain.UserID) (domain.UserID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok || !sess.Has(from) {
		return "", false
	}
	return sess.Other(from), true
}

// MarkActive flips connecting → active once signaling actually flows.
func (m *Matchmaker) MarkActive(sessionID domain.SessionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[sessionID]; ok && sess.State == domain.SessionConnecting {
		sess.State = domain.SessionActive
	}
}

// ExpireBefore drops queue entries older than cutoff and reports who timed out.
func (m *Matchmaker) ExpireBefore(cutoff time.Time) []domain.UserID {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.UserID
	for _, entry := range m.staleLocked(cutoff, m.global, m.buddies) {
		m.removeLocked(entry)
		out = append(out, entry.UserID)
	}
	return out
}

// Promote moves buddies_first entries that waited past cutoff into the
// global partition (keeping their original enqueue time) and attempts a
// match for each, as if they had just re-joined globally.
func (m *Matchmaker) Promote(cutoff time.Time) []*Match {
	m.mu.Lock()
	defer m.mu.Unlock()
	stale := m.staleLocked(cutoff, m.buddies)
	var matches []*Match
	for _, entry := range stale {
		m.removeLocked(entry)
		entry.Promoted = true
		if cand := m.findLocked(entry); cand != nil {
			m.removeLocked(cand)
			sess := m.createLocked(cand.UserID, entry.UserID)
			matches = append(matches, &Match{Session: *sess})
			continue
		}
		m.byUser[entry.UserID] = entry
		m.global = append(m.global, entry)
		log.Info().Str("module", "app.matchmaker").Str("user", string(entry.UserID)).Msg("promoted to global queue")
	}
	return matches
}

func (m *Matchmaker) staleLocked(cutoff time.Time, partitions ...[]*domain.QueueEntry) []*domain.QueueEntry {
	var out []*domain.QueueEntry
	for _, part := range partitions {
		for _, e := range part {
			if e.EnqueuedAt.Before(cutoff) {
				out = append(out, e)
			}
		}
	}
	return out
}

func (m *Matchmaker) QueueSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byUser)
}

func (m *Matchmaker) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
