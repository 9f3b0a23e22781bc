package creator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/suPer8Hu/image-creator/internal/ai"
	"github.com/suPer8Hu/image-creator/internal/logging"
	"github.com/suPer8Hu/image-creator/internal/metrics"
)

// Workspace tracks the open views of the host and wires them to the
// registry: removing a creation closes its view.
type Workspace struct {
	registry *Registry
	store    *MessageStore
	brains   *ai.Manager
	previews *Previews
	ids      IDGenerator
	log      *zap.Logger
	metrics  *metrics.Metrics
	renames  *Debouncer

	mu    sync.Mutex
	views map[string]*View

	unsubscribe func()
}

func NewWorkspace(registry *Registry, store *MessageStore, brains *ai.Manager, previews *Previews, ids IDGenerator, renameDelay time.Duration, log *zap.Logger, m *metrics.Metrics) *Workspace {
	w := &Workspace{
		registry: registry,
		store:    store,
		brains:   brains,
		previews: previews,
		ids:      ids,
		log:      logging.OrNop(log),
		metrics:  m,
		renames:  NewDebouncer(renameDelay),
		views:    make(map[string]*View),
	}
	w.unsubscribe = registry.Subscribe(w.closeRemoved)
	return w
}

func (w *Workspace) Registry() *Registry { return w.registry }

func (w *Workspace) Previews() *Previews { return w.previews }

// Brains lists the brains a view can select.
func (w *Workspace) Brains() []ai.Brain {
	return w.brains.Available(ai.CapabilityImageGeneration)
}

// Brain resolves a brain id regardless of capability; SelectBrain checks it.
func (w *Workspace) Brain(id string) (ai.Brain, bool) {
	return w.brains.Brain(id)
}

// Open returns the creation's view, opening it if needed. The registry is
// consulted under w.mu: a removal either happens first and is seen here, or
// its notification closes the view once w.mu is released.
func (w *Workspace) Open(ctx context.Context, id string) (*View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.registry.Get(id); !ok {
		return nil, ErrNoSuchCreation
	}
	if v, ok := w.views[id]; ok {
		return v, nil
	}
	v, err := OpenView(ctx, id, w.store, w.brains, w.previews, w.ids, w.log, w.metrics)
	if err != nil {
		return nil, err
	}
	w.views[id] = v
	return v, nil
}

// View returns an already open view.
func (w *Workspace) View(id string) (*View, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.views[id]
	return v, ok
}

// Close closes the view if it is open.
func (w *Workspace) Close(id string) {
	w.mu.Lock()
	v, ok := w.views[id]
	delete(w.views, id)
	w.mu.Unlock()
	if ok {
		v.Close()
	}
}

// CreateAndOpen is the "create" command: a default-named creation, opened.
func (w *Workspace) CreateAndOpen(ctx context.Context, name string) (CreationSession, *View, error) {
	if name == "" {
		name = DefaultName
	}
	s, err := w.registry.Create(ctx, name)
	if err != nil {
		return CreationSession{}, nil, err
	}
	v, err := w.Open(ctx, s.ID)
	if err != nil {
		return s, nil, err
	}
	return s, v, nil
}

// RenameDebounced persists the name once input has been quiet for the
// rename delay.
func (w *Workspace) RenameDebounced(id, name string) {
	w.renames.Push(id, func() {
		if err := w.registry.Rename(context.Background(), id, name); err != nil {
			w.log.Error("rename failed", zap.String("session_id", id), zap.Error(err))
		}
	})
}

// Remove deletes the creation; its open view is closed by the registry
// notification.
func (w *Workspace) Remove(ctx context.Context, id string) error {
	w.renames.Cancel(id)
	return w.registry.Remove(ctx, id)
}

// Snapshot renders an open view with its current name.
func (w *Workspace) Snapshot(id string) (Snapshot, bool) {
	v, ok := w.View(id)
	if !ok {
		return Snapshot{}, false
	}
	snap := v.Snapshot()
	if s, ok := w.registry.Get(id); ok {
		snap.Session = s
	}
	return snap, true
}

func (w *Workspace) closeRemoved(sessions []CreationSession) {
	alive := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		alive[s.ID] = struct{}{}
	}

	w.mu.Lock()
	var gone []*View
	for id, v := range w.views {
		if _, ok := alive[id]; !ok {
			gone = append(gone, v)
			delete(w.views, id)
		}
	}
	w.mu.Unlock()

	for _, v := range gone {
		v.Close()
	}
}

// Shutdown flushes pending renames and closes every view.
func (w *Workspace) Shutdown() {
	w.renames.Flush()
	w.unsubscribe()

	w.mu.Lock()
	views := w.views
	w.views = make(map[string]*View)
	w.mu.Unlock()
	for _, v := range views {
		v.Close()
	}
}
