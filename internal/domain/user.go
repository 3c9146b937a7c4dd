// Package domain contains entity types without logic, just meta-data.
package domain

import "errors"

const MaxUserIDLen = 64

var (
	ErrUserIDEmpty   = errors.New("userId required")
	ErrUserIDTooLong = errors.New("userId too long")
	ErrBadMatchMode  = errors.New("unknown match mode")
)

// UserID is the opaque identifier supplied by the outer application.
// The server performs no authentication on it.
type UserID string

// MatchMode selects which queue partition an entry waits in.
type MatchMode string

const (
	ModeGlobal       MatchMode = "global"
	ModeBuddiesFirst MatchMode = "buddies_first"
)

func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(s) {
	case ModeGlobal, "":
		return ModeGlobal, nil
	case ModeBuddiesFirst:
		return ModeBuddiesFirst, nil
	default:
		return "", ErrBadMatchMode
	}
}

func ValidateUserID(id UserID) error {
	if id == "" {
		return ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return ErrUserIDTooLong
	}
	return nil
}
