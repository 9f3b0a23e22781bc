package creator

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/suPer8Hu/image-creator/internal/ai"
	"github.com/suPer8Hu/image-creator/internal/logging"
	"github.com/suPer8Hu/image-creator/internal/store/kv"
)

// DefaultNamespace prefixes every key this package writes.
const DefaultNamespace = "imageCreator"

// getJSON decodes the value stored at key. A missing key or an undecodable
// value both yield the zero T and false; only I/O failures are errors.
// Decoding goes into a fresh value so a half-decoded payload never leaks out.
func getJSON[T any](ctx context.Context, store kv.Store, log *zap.Logger, key string) (T, bool, error) {
	var zero T
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return zero, false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return zero, false, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Warn("discarding corrupt stored value", zap.String("key", key), zap.Error(err))
		return zero, false, nil
	}
	return v, true, nil
}

func setJSON(ctx context.Context, store kv.Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// SessionStore persists the ordered creation list under one fixed key.
type SessionStore struct {
	kv  kv.Store
	key string
	log *zap.Logger
}

func NewSessionStore(store kv.Store, namespace string, log *zap.Logger) *SessionStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &SessionStore{kv: store, key: kv.Key(namespace, "creations"), log: logging.OrNop(log)}
}

// Load never returns nil on success. Entries without an id are dropped.
func (s *SessionStore) Load(ctx context.Context) ([]CreationSession, error) {
	list, _, err := getJSON[[]CreationSession](ctx, s.kv, s.log, s.key)
	if err != nil {
		return nil, err
	}
	out := make([]CreationSession, 0, len(list))
	for _, session := range list {
		if session.ID == "" {
			s.log.Warn("discarding stored creation without id", zap.String("name", session.Name))
			continue
		}
		out = append(out, session)
	}
	return out, nil
}

func (s *SessionStore) Save(ctx context.Context, sessions []CreationSession) error {
	if sessions == nil {
		sessions = []CreationSession{}
	}
	return setJSON(ctx, s.kv, s.key, sessions)
}

// MessageStore persists per-session message logs and selected brains.
type MessageStore struct {
	kv        kv.Store
	namespace string
	log       *zap.Logger
}

func NewMessageStore(store kv.Store, namespace string, log *zap.Logger) *MessageStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &MessageStore{kv: store, namespace: namespace, log: logging.OrNop(log)}
}

func (s *MessageStore) messagesKey(sessionID string) string {
	return kv.Key(s.namespace, sessionID, "messages")
}

func (s *MessageStore) brainKey(sessionID string) string {
	return kv.Key(s.namespace, sessionID, "selectedBackend")
}

// Messages returns the log most-recent-first; never nil on success.
func (s *MessageStore) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	out, _, err := getJSON[[]Message](ctx, s.kv, s.log, s.messagesKey(sessionID))
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Message{}
	}
	return out, nil
}

// SaveMessages overwrites the whole log.
func (s *MessageStore) SaveMessages(ctx context.Context, sessionID string, msgs []Message) error {
	if msgs == nil {
		msgs = []Message{}
	}
	return setJSON(ctx, s.kv, s.messagesKey(sessionID), msgs)
}

// SelectedBrain returns nil when nothing was selected.
func (s *MessageStore) SelectedBrain(ctx context.Context, sessionID string) (*ai.Brain, error) {
	b, ok, err := getJSON[ai.Brain](ctx, s.kv, s.log, s.brainKey(sessionID))
	if err != nil || !ok || b.ID == "" {
		return nil, err
	}
	return &b, nil
}

// SaveSelectedBrain stores b, or removes the key when b is nil.
func (s *MessageStore) SaveSelectedBrain(ctx context.Context, sessionID string, b *ai.Brain) error {
	if b == nil {
		return s.kv.Delete(ctx, s.brainKey(sessionID))
	}
	return setJSON(ctx, s.kv, s.brainKey(sessionID), b)
}

// Purge drops everything stored for a session.
func (s *MessageStore) Purge(ctx context.Context, sessionID string) error {
	if err := s.kv.Delete(ctx, s.messagesKey(sessionID)); err != nil {
		return err
	}
	return s.kv.Delete(ctx, s.brainKey(sessionID))
}
