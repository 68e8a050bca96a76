package usecase

// Connection is one transport peer. Implementations must be pointer
// types: handles are compared and keyed by identity. The core never
// closes a handle except as the negotiated rematch-decline side effect.
type Connection interface {
	// Send writes one encoded message. Writes to a closed peer are
	// silently dropped, never awaited.
	Send(payload []byte)

	// Close tears the transport down. Safe to call more than once.
	Close()

	IsOpen() bool
	RemoteAddr() string
}
