package domain

import "time"

// QueueEntry is one waiting user. Position in the partition is derived
// from slice order, never stored.
type QueueEntry struct {
	UserID     UserID
	Mode       MatchMode
	BuddyIDs   map[UserID]struct{}
	EnqueuedAt time.Time
	// Promoted marks a buddies_first entry that waited past the promotion
	// delay and now lives in the global partition. EnqueuedAt is kept from
	// the original join so FIFO fairness is preserved.
	Promoted bool
}

func NewQueueEntry(userID UserID, mode MatchMode, buddyIDs []UserID, now time.Time) *QueueEntry {
	e := &QueueEntry{
		UserID:     userID,
		Mode:       mode,
		EnqueuedAt: now,
	}
	if len(buddyIDs) > 0 {
		e.BuddyIDs = make(map[UserID]struct{}, len(buddyIDs))
		for _, id := range buddyIDs {
			e.BuddyIDs[id] = struct{}{}
		}
	}
	return e
}

// Lists returns true when id is on this entry's buddy allow-list.
func (e *QueueEntry) Lists(id UserID) bool {
	_, ok := e.BuddyIDs[id]
	return ok
}
