package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMatchMode(t *testing.T) {
	tests := []struct {
		in      string
		want    MatchMode
		wantErr bool
	}{
		{"global", ModeGlobal, false},
		{"", ModeGlobal, false}, // omitted mode defaults to global
		{"buddies_first", ModeBuddiesFirst, false},
		{"psychic", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMatchMode(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrBadMatchMode, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestValidateUserID(t *testing.T) {
	assert.ErrorIs(t, ValidateUserID(""), ErrUserIDEmpty)
	assert.ErrorIs(t, ValidateUserID(UserID(strings.Repeat("x", MaxUserIDLen+1))), ErrUserIDTooLong)
	assert.NoError(t, ValidateUserID("6b9f1c2e-user"))
}

func TestSessionParticipants(t *testing.T) {
	s := &Session{ID: "s1", UserA: "alice", UserB: "bob", Initiator: "bob"}

	assert.True(t, s.Has("alice"))
	assert.True(t, s.Has("bob"))
	assert.False(t, s.Has("mallory"))
	assert.Equal(t, UserID("bob"), s.Other("alice"))
	assert.Equal(t, UserID("alice"), s.Other("bob"))
}

func TestQueueEntryBuddySet(t *testing.T) {
	e := NewQueueEntry("alice", ModeBuddiesFirst, []UserID{"bob", "carol"}, time.Unix(0, 0))
	assert.True(t, e.Lists("bob"))
	assert.False(t, e.Lists("dave"))

	plain := NewQueueEntry("bob", ModeGlobal, nil, time.Unix(0, 0))
	assert.False(t, plain.Lists("alice"))
}
