package moya

import "fmt"

// Transcript is the ordered message sequence for one conversation
// thread. Insertion order is append-only and defines display order.
// IDs are unique within a transcript.
//
// Transcript is not safe for concurrent use; the owning session
// serializes access.
type Transcript struct {
	messages []Message
	byID     map[string]int
}

// NewTranscript creates an empty Transcript.
func NewTranscript() *Transcript {
	return &Transcript{byID: make(map[string]int)}
}

// Append inserts a message at the end. It fails with ErrDuplicateID if
// the ID is already present, leaving the transcript unchanged.
func (t *Transcript) Append(msg Message) error {
	if msg.ID == "" {
		return fmt.Errorf("append: id must not be empty: %w", ErrValidation)
	}
	if _, ok := t.byID[msg.ID]; ok {
		return fmt.Errorf("append %q: %w", msg.ID, ErrDuplicateID)
	}
	t.byID[msg.ID] = len(t.messages)
	t.messages = append(t.messages, msg)
	return nil
}

// Update merges a partial update into the message with the given ID.
// It fails with ErrNotFound if the ID is absent, leaving the transcript
// unchanged. Content updates replace the stored value with the
// accumulated text so far; the caller is responsible for accumulation.
func (t *Transcript) Update(id string, upd MessageUpdate) error {
	i, ok := t.byID[id]
	if !ok {
		return fmt.Errorf("update %q: %w", id, ErrNotFound)
	}
	if upd.Status != nil {
		t.messages[i].Status = *upd.Status
	}
	if upd.Content != nil {
		t.messages[i].Content = *upd.Content
	}
	return nil
}

// Clear empties the sequence.
func (t *Transcript) Clear() {
	t.messages = nil
	t.byID = make(map[string]int)
}

// Snapshot returns a copy of the current ordered sequence for rendering.
// The caller owns the returned slice.
func (t *Transcript) Snapshot() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}
