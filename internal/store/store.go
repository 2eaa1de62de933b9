package store

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
)

// Roles used in a transcript.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// Message is one transcript entry.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// UnmarshalJSON never fails. A non-object decodes to the zero Message, a
// non-string role is dropped, and a non-string text keeps its compact JSON
// form so generated test-case arrays survive a round trip.
func (m *Message) UnmarshalJSON(data []byte) error {
	*m = Message{}
	var raw struct {
		Role json.RawMessage `json:"role"`
		Text json.RawMessage `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	_ = json.Unmarshal(raw.Role, &m.Role)
	m.Text = textValue(raw.Text)
	return nil
}

func textValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// MessageStore persists transcripts keyed by MessageKey. Get reports
// found=false for a key that was never stored or was deleted.
type MessageStore interface {
	Get(ctx context.Context, key string) ([]Message, bool, error)
	Set(ctx context.Context, key string, msgs []Message) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// MessageKey is the storage key for an issue's transcript.
func MessageKey(issueKey string) string {
	return "messages-" + issueKey
}

// Memory is a process-local MessageStore.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]Message
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]Message)}
}

func (m *Memory) Get(_ context.Context, key string) ([]Message, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]Message(nil), msgs...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, msgs []Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]Message{}, msgs...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error { return nil }
