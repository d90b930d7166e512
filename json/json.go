// Package json persists session transcripts to disk. The core keeps
// transcripts session-lifetime only; this package is the external
// persistence collaborator used by the CLI.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/montycloud/moya"
)

// envelope is the v1 wire format for a persisted transcript.
type envelope struct {
	Version  int          `json:"version"`
	ThreadID string       `json:"thread_id"`
	SavedAt  time.Time    `json:"saved_at"`
	Messages []messageDTO `json:"messages"`
}

type messageDTO struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// Marshal serializes a transcript to JSON in v1 envelope format.
func Marshal(threadID string, msgs []moya.Message) ([]byte, error) {
	env := envelope{
		Version:  1,
		ThreadID: threadID,
		SavedAt:  time.Now(),
		Messages: make([]messageDTO, len(msgs)),
	}
	for i, msg := range msgs {
		env.Messages[i] = messageDTO{
			ID:        msg.ID,
			Role:      string(msg.Role),
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
			Status:    string(msg.Status),
		}
	}
	return json.MarshalIndent(env, "", "  ")
}

// Unmarshal deserializes a transcript from JSON in v1 envelope format.
func Unmarshal(data []byte) (string, []moya.Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return "", nil, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	msgs := make([]moya.Message, len(env.Messages))
	for i, dto := range env.Messages {
		msg, err := unmarshalMessage(dto)
		if err != nil {
			return "", nil, fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i] = msg
	}
	return env.ThreadID, msgs, nil
}

func unmarshalMessage(dto messageDTO) (moya.Message, error) {
	role := moya.Role(dto.Role)
	switch role {
	case moya.RoleUser, moya.RoleAssistant, moya.RoleSystem:
	default:
		return moya.Message{}, fmt.Errorf("unknown role %q", dto.Role)
	}

	status := moya.MessageStatus(dto.Status)
	switch status {
	case moya.StatusSent, moya.StatusError:
	case moya.StatusSending, moya.StatusStreaming:
		// A persisted transcript holds no in-flight turns; coerce any
		// non-terminal status that leaked into a save to its terminal
		// counterpart.
		status = moya.StatusError
	default:
		return moya.Message{}, fmt.Errorf("unknown status %q", dto.Status)
	}

	return moya.Message{
		ID:        dto.ID,
		Role:      role,
		Content:   dto.Content,
		Timestamp: dto.Timestamp,
		Status:    status,
	}, nil
}

// Save writes a transcript to a JSON file, creating parent directories
// as needed. The write is atomic (temp file + rename).
func Save(path, threadID string, msgs []moya.Message) error {
	data, err := Marshal(threadID, msgs)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	// A uniquely named temp file keeps concurrent saves to the same
	// path from interleaving; the rename is atomic either way.
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name()) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a transcript from a JSON file.
func Load(path string) (string, []moya.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read file: %w", err)
	}
	return Unmarshal(data)
}
