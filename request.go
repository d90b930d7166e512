package moya

import (
	"fmt"
	"strings"
)

// Request is one outgoing message submission: the text content and the
// thread it belongs to. Transport-level acceptance of a Request is a
// separate event from the start of streaming.
type Request struct {
	ThreadID string
	Text     string
}

// Validate checks universal constraints on Request.
// Stream clients may apply additional transport-specific validation.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("text must not be empty: %w", ErrValidation)
	}
	if r.ThreadID == "" {
		return fmt.Errorf("thread id must not be empty: %w", ErrValidation)
	}
	return nil
}
