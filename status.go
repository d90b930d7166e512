package moya

// MessageStatus tracks a message through its turn lifecycle.
//
// User messages move sending → sent once the transport accepts the
// request. Assistant placeholders are created as streaming and always
// resolve to a terminal status (sent or error); they are never left in
// streaming after the owning stream reaches a terminal state.
type MessageStatus string

const (
	StatusSending   MessageStatus = "sending"
	StatusStreaming MessageStatus = "streaming"
	StatusSent      MessageStatus = "sent"
	StatusError     MessageStatus = "error"
)

// Terminal reports whether the status is a resting state for a message.
func (s MessageStatus) Terminal() bool {
	return s == StatusSent || s == StatusError
}

// ConnStatus is the session-level connection status.
type ConnStatus string

const (
	ConnConnected ConnStatus = "connected"
	ConnLoading   ConnStatus = "loading"
	ConnError     ConnStatus = "error"
)

// Connection describes the session's view of backend reachability.
// Detail carries a human-readable message and is empty when connected.
type Connection struct {
	Status ConnStatus
	Detail string
}

// Connected returns the initial connection state.
func Connected() Connection {
	return Connection{Status: ConnConnected}
}
