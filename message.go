package moya

import "time"

// Message is a single transcript entry. ID, Role, and Timestamp are
// immutable after creation; Content and Status change only through
// Transcript.Update. Assistant content under active streaming grows
// monotonically; each update replaces it with the accumulated value.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
	Status    MessageStatus
}

// MessageUpdate is a partial update merged into an existing message.
// Nil fields are left untouched.
type MessageUpdate struct {
	Status  *MessageStatus
	Content *string
}

// WithStatus returns a copy of the update with Status set.
func (u MessageUpdate) WithStatus(s MessageStatus) MessageUpdate {
	u.Status = &s
	return u
}

// WithContent returns a copy of the update with Content set.
func (u MessageUpdate) WithContent(c string) MessageUpdate {
	u.Content = &c
	return u
}
