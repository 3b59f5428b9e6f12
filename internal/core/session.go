package core

// Frame is a raw outbound payload, already encoded for the wire.
type Frame []byte

// ConnID identifies one live transport session. A user with several tabs
// open holds several ConnIDs at once.
type ConnID string

// SignalConnection abstracts the system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
