// Package history persists the list of past chat sessions as JSON text under
// a single storage key.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"chatwidget/internal/chat"
	"chatwidget/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultKey is the storage key holding the serialized history.
const DefaultKey = "chatHistory"

type Store struct {
	kv     storage.KV
	key    string
	logger *slog.Logger
}

func New(kv storage.KV, key string, logger *slog.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, key: key, logger: logger}
}

func (s *Store) Key() string {
	return s.key
}

// Load returns the stored sessions. A missing key, a storage failure or text
// that is not valid JSON all yield an empty history; none of them is an error
// for the caller.
func (s *Store) Load() []chat.Session {
	if s.kv == nil {
		return nil
	}
	raw, ok, err := s.kv.GetItem(s.key)
	if err != nil {
		s.logger.Warn("history unavailable", "key", s.key, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var sessions []chat.Session
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		s.logger.Warn("discarding unreadable history", "key", s.key, "error", err)
		return nil
	}
	return sessions
}

// Save overwrites the key with the full list.
func (s *Store) Save(sessions []chat.Session) error {
	_, span := otel.Tracer("chatwidget/internal/history").Start(context.Background(), "history_save")
	defer span.End()
	span.SetAttributes(attribute.Int("sessions", len(sessions)))

	if sessions == nil {
		sessions = []chat.Session{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := s.kv.SetItem(s.key, string(data)); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Find returns the session with the given id.
func Find(sessions []chat.Session, id int64) (chat.Session, bool) {
	for _, s := range sessions {
		if s.ID == id {
			return s, true
		}
	}
	return chat.Session{}, false
}

// Latest returns the most recently created session.
func Latest(sessions []chat.Session) (chat.Session, bool) {
	if len(sessions) == 0 {
		return chat.Session{}, false
	}
	latest := sessions[0]
	for _, s := range sessions[1:] {
		if s.ID > latest.ID {
			latest = s
		}
	}
	return latest, true
}
