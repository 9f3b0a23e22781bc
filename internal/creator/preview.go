package creator

import (
	"sync"

	"github.com/suPer8Hu/image-creator/internal/ids"
)

// Previews holds the bytes behind live preview handles so they can be
// served while a file is staged.
type Previews struct {
	mu    sync.RWMutex
	items map[string]previewData
}

type previewData struct {
	data []byte
	mime string
}

func NewPreviews() *Previews {
	return &Previews{items: make(map[string]previewData)}
}

// Create registers data and returns its handle. The caller owns the handle
// and must Release it.
func (p *Previews) Create(data []byte, mime string) *Preview {
	token := ids.Token()
	p.mu.Lock()
	p.items[token] = previewData{data: data, mime: mime}
	p.mu.Unlock()
	return &Preview{Token: token, owner: p}
}

// Open returns the bytes of a live handle.
func (p *Previews) Open(token string) ([]byte, string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.items[token]
	return d.data, d.mime, ok
}

// Len is the number of live handles.
func (p *Previews) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}

func (p *Previews) revoke(token string) {
	p.mu.Lock()
	delete(p.items, token)
	p.mu.Unlock()
}

// Preview is a revocable reference to staged bytes.
type Preview struct {
	Token string
	owner *Previews
	once  sync.Once
}

// Release revokes the handle. Safe to call more than once.
func (h *Preview) Release() {
	if h == nil {
		return
	}
	h.once.Do(func() { h.owner.revoke(h.Token) })
}
