package moya

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request failed validation.
	ErrValidation = errors.New("validation error")

	// ErrDuplicateID indicates an Append with an ID already in the transcript.
	ErrDuplicateID = errors.New("duplicate message id")

	// ErrNotFound indicates an Update for an ID absent from the transcript.
	ErrNotFound = errors.New("message not found")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")
)
