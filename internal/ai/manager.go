package ai

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrUnknownBrain = errors.New("unknown brain")

type registered struct {
	brain  Brain
	client Client
}

// Manager is the host's brain registry. Lookups are case-insensitive and
// listings keep registration order.
type Manager struct {
	mu     sync.RWMutex
	order  []string
	brains map[string]registered
}

func NewManager() *Manager {
	return &Manager{brains: make(map[string]registered)}
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Register adds or replaces a brain.
func (m *Manager) Register(b Brain, c Client) error {
	id := normalizeID(b.ID)
	if id == "" {
		return errors.New("brain id is required")
	}
	if c == nil {
		return fmt.Errorf("brain %s: client is nil", b.ID)
	}
	for _, capability := range b.Capabilities {
		if _, err := ParseCapability(string(capability)); err != nil {
			return fmt.Errorf("brain %s: %w", b.ID, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.brains[id]; !exists {
		m.order = append(m.order, id)
	}
	m.brains[id] = registered{brain: b, client: c}
	return nil
}

// Available lists the brains that declare capability c.
func (m *Manager) Available(c Capability) []Brain {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Brain, 0, len(m.order))
	for _, id := range m.order {
		if b := m.brains[id].brain; b.Has(c) {
			out = append(out, b)
		}
	}
	return out
}

func (m *Manager) Brain(id string) (Brain, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.brains[normalizeID(id)]
	return r.brain, ok
}

func (m *Manager) Client(id string) (Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.brains[normalizeID(id)]
	return r.client, ok
}

// Get returns the client for id or ErrUnknownBrain.
func (m *Manager) Get(id string) (Client, error) {
	c, ok := m.Client(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBrain, id)
	}
	return c, nil
}
