package app

import "github.com/AniketShinde02/gurukul-match/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickUser
)

// Policy decides what to do with a user whose send buffer is full.
type Policy interface {
	OnBackPressure(user domain.UserID) BackpressureAction
}

// SimplePolicy kicks slow consumers: a client that cannot drain a 64-frame
// buffer will not finish WebRTC negotiation anyway.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(user domain.UserID) BackpressureAction {
	return KickUser
}
