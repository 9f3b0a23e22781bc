// Package ids generates process-unique identifiers for creations, messages
// and attachments, and opaque tokens for preview handles.
package ids

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Generator produces ULID strings. ULIDs embed the current time, so ids stay
// distinct across restarts without any persisted counter.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// NewGenerator returns a generator backed by crypto/rand. Within a single
// millisecond the entropy is incremented monotonically.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// NewGeneratorWithEntropy is useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{entropy: entropy, now: now}
}

// Next returns a new identifier.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}

var defaultGen = NewGenerator()

// New returns an identifier from the package generator.
func New() string { return defaultGen.Next() }

// Token returns a random opaque token.
func Token() string { return uuid.NewString() }
