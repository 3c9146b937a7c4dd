// Package core holds the narrow interfaces the app layer uses to talk to
// transport endpoints. It never imports adapters.
package core

// Frame is a raw outbound payload, already encoded.
type Frame []byte

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
