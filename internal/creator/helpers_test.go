package creator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/suPer8Hu/image-creator/internal/ai"
	"github.com/suPer8Hu/image-creator/internal/store/kv"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func openTestKV(t *testing.T) *kv.GormStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	s, err := kv.NewGormStore(db)
	require.NoError(t, err)
	return s
}

// seqIDs hands out s1, s2, ... with an optional prefix.
type seqIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (g *seqIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	p := g.prefix
	if p == "" {
		p = "s"
	}
	return fmt.Sprintf("%s%d", p, g.n)
}

// fakeClient records every request. When release is non-nil each call
// blocks until a value arrives on it.
type fakeClient struct {
	mu       sync.Mutex
	requests []ai.Request

	started chan struct{}
	release chan struct{}

	resp *ai.Response
	err  error
}

func (f *fakeClient) Generate(ctx context.Context, req ai.Request) (*ai.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	resp, err := f.resp, f.err
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return resp, err
}

func (f *fakeClient) calls() []ai.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ai.Request(nil), f.requests...)
}

var imageBrain = ai.Brain{
	ID:           "painter",
	DisplayName:  "Painter",
	Capabilities: []ai.Capability{ai.CapabilityImageGeneration},
}

var textBrain = ai.Brain{
	ID:           "talker",
	DisplayName:  "Talker",
	Capabilities: []ai.Capability{ai.CapabilityTextGeneration},
}

func newManager(t *testing.T, client ai.Client) *ai.Manager {
	t.Helper()
	m := ai.NewManager()
	require.NoError(t, m.Register(imageBrain, client))
	require.NoError(t, m.Register(textBrain, client))
	return m
}

type viewFixture struct {
	kv       *kv.GormStore
	store    *MessageStore
	previews *Previews
	client   *fakeClient
	view     *View
}

func newViewFixture(t *testing.T, client *fakeClient) *viewFixture {
	t.Helper()
	store := openTestKV(t)
	f := &viewFixture{
		kv:       store,
		store:    NewMessageStore(store, "", nil),
		previews: NewPreviews(),
		client:   client,
	}
	v, err := OpenView(context.Background(), "s1", f.store, newManager(t, client), f.previews, &seqIDs{prefix: "id"}, nil, nil)
	require.NoError(t, err)
	f.view = v
	t.Cleanup(func() {
		v.Close()
		v.Wait()
	})
	return f
}
