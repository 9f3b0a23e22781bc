package creator

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/suPer8Hu/image-creator/internal/logging"
	"github.com/suPer8Hu/image-creator/internal/metrics"
)

// IDGenerator hands out process-unique ids.
type IDGenerator interface {
	Next() string
}

// Observer receives the full creation list after every mutation. Observers
// run synchronously and must not mutate the registry.
type Observer func(sessions []CreationSession)

// Registry owns the creation list and mirrors it from the SessionStore.
type Registry struct {
	store    *SessionStore
	messages *MessageStore
	ids      IDGenerator
	log      *zap.Logger
	metrics  *metrics.Metrics

	// writeMu serializes read-modify-write cycles and their notifications.
	writeMu sync.Mutex

	mu        sync.RWMutex
	sessions  []CreationSession
	observers map[int]Observer
	nextObs   int
}

// NewRegistry loads the persisted list. messages may be nil, in which case
// removing a creation leaves its message log in place.
func NewRegistry(ctx context.Context, store *SessionStore, messages *MessageStore, ids IDGenerator, log *zap.Logger, m *metrics.Metrics) (*Registry, error) {
	sessions, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Registry{
		store:     store,
		messages:  messages,
		ids:       ids,
		log:       logging.OrNop(log),
		metrics:   m,
		sessions:  sessions,
		observers: make(map[int]Observer),
	}, nil
}

// List returns a copy of the current list in insertion order.
func (r *Registry) List() []CreationSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.sessions)
}

func (r *Registry) Get(id string) (CreationSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return CreationSession{}, false
}

// Subscribe registers o and returns a func that removes it.
func (r *Registry) Subscribe(o Observer) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextObs
	r.nextObs++
	r.observers[id] = o
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.observers, id)
		r.mu.Unlock()
	}
}

// Create appends a new creation. Names need not be unique.
func (r *Registry) Create(ctx context.Context, name string) (CreationSession, error) {
	session := CreationSession{ID: r.ids.Next(), Name: name}

	err := r.mutate(ctx, func(list []CreationSession) ([]CreationSession, bool) {
		return append(list, session), true
	})
	if err != nil {
		return CreationSession{}, err
	}
	r.metrics.SessionCreated()
	r.log.Info("creation created", zap.String("session_id", session.ID))
	return session, nil
}

// CreateDefault creates a creation named DefaultName.
func (r *Registry) CreateDefault(ctx context.Context) (CreationSession, error) {
	return r.Create(ctx, DefaultName)
}

// Rename updates the name in place. Unknown ids are ignored.
func (r *Registry) Rename(ctx context.Context, id, name string) error {
	return r.mutate(ctx, func(list []CreationSession) ([]CreationSession, bool) {
		i := slices.IndexFunc(list, func(s CreationSession) bool { return s.ID == id })
		if i < 0 {
			return list, false
		}
		list[i].Name = name
		return list, true
	})
}

// Remove deletes the creation and its stored messages. Unknown ids are ignored.
func (r *Registry) Remove(ctx context.Context, id string) error {
	removed := false
	err := r.mutate(ctx, func(list []CreationSession) ([]CreationSession, bool) {
		i := slices.IndexFunc(list, func(s CreationSession) bool { return s.ID == id })
		if i < 0 {
			return list, false
		}
		removed = true
		return slices.Delete(list, i, i+1), true
	})
	if err != nil || !removed {
		return err
	}

	r.metrics.SessionRemoved()
	r.log.Info("creation removed", zap.String("session_id", id))
	if r.messages != nil {
		if err := r.messages.Purge(ctx, id); err != nil {
			r.log.Warn("purge messages failed", zap.String("session_id", id), zap.Error(err))
		}
	}
	return nil
}

// mutate runs one read-modify-write cycle against the store, re-reads the
// persisted list into memory and notifies observers. fn reports whether it
// changed anything; when it did not, nothing is written.
func (r *Registry) mutate(ctx context.Context, fn func([]CreationSession) ([]CreationSession, bool)) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	list, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	list, changed := fn(list)
	if !changed {
		return nil
	}
	if err := r.store.Save(ctx, list); err != nil {
		return err
	}
	persisted, err := r.store.Load(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.sessions = persisted
	observers := make([]Observer, 0, len(r.observers))
	for _, o := range r.observers {
		observers = append(observers, o)
	}
	r.mu.Unlock()

	for _, o := range observers {
		o(slices.Clone(persisted))
	}
	return nil
}
