package creator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/suPer8Hu/image-creator/internal/ai"
	"github.com/suPer8Hu/image-creator/internal/logging"
	"github.com/suPer8Hu/image-creator/internal/metrics"
)

// BrainSource resolves a selected brain to a client.
type BrainSource interface {
	Client(id string) (ai.Client, bool)
}

// View is one open creation: its message log, draft prompt, staged files,
// selected brain and the single in-flight generation request.
type View struct {
	sessionID string
	store     *MessageStore
	brains    BrainSource
	staging   *Staging
	ids       IDGenerator
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	changed   *broadcast

	mu       sync.Mutex
	prompt   string
	messages []Message
	selected *ai.Brain
	state    State
	closed   bool

	inflight sync.WaitGroup
}

// OpenView loads the stored log and selected brain for sessionID.
func OpenView(ctx context.Context, sessionID string, store *MessageStore, brains BrainSource, previews *Previews, ids IDGenerator, log *zap.Logger, m *metrics.Metrics) (*View, error) {
	log = logging.OrNop(log).With(zap.String("session_id", sessionID))

	msgs, err := store.Messages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	selected, err := store.SelectedBrain(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	changed := newBroadcast()
	staging := NewStaging(previews, ids, log, m)
	staging.changed = changed

	return &View{
		sessionID: sessionID,
		store:     store,
		brains:    brains,
		staging:   staging,
		ids:       ids,
		log:       log,
		metrics:   m,
		now:       time.Now,
		changed:   changed,
		messages:  msgs,
		selected:  selected,
	}, nil
}

func (v *View) SessionID() string { return v.sessionID }

// Staging returns the view's staged-file list.
func (v *View) Staging() *Staging { return v.staging }

// Changed returns a channel closed on the next change to anything the
// view renders.
func (v *View) Changed() <-chan struct{} { return v.changed.Wait() }

func (v *View) SetPrompt(p string) {
	v.mu.Lock()
	v.prompt = p
	v.mu.Unlock()
	v.changed.Notify()
}

func (v *View) Prompt() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.prompt
}

// Messages returns the log, most recent first.
func (v *View) Messages() []Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.messages)
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *View) SelectedBrain() *ai.Brain {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selected == nil {
		return nil
	}
	b := *v.selected
	return &b
}

// SelectBrain remembers b for this creation. A request already in flight
// keeps the brain it was sent to.
func (v *View) SelectBrain(ctx context.Context, b ai.Brain) error {
	if !b.Has(ai.CapabilityImageGeneration) {
		return fmt.Errorf("%w: brain %s cannot generate images", ai.ErrCapability, b.ID)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewClosed
	}
	if err := v.store.SaveSelectedBrain(ctx, v.sessionID, &b); err != nil {
		return err
	}
	v.selected = &b
	v.changed.Notify()
	return nil
}

// Snapshot collects everything the view renders. Session.Name is left to
// the caller.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	snap := Snapshot{
		Session:  CreationSession{ID: v.sessionID},
		Prompt:   v.prompt,
		Messages: slices.Clone(v.messages),
		State:    v.state,
	}
	if v.selected != nil {
		b := *v.selected
		snap.SelectedBrain = &b
	}
	v.mu.Unlock()
	snap.Staged = v.staging.List()
	return snap
}

// Submit sends the draft prompt and every staged file to the selected brain.
// It returns once the request is under way; the prompt and staged files are
// cleared immediately. At most one request runs per view, further calls
// return ErrBusy until it resolves. There is no cancellation: the request
// outlives ctx.
func (v *View) Submit(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	if v.state.Submitting {
		v.mu.Unlock()
		return ErrBusy
	}
	prompt := v.prompt
	if strings.TrimSpace(prompt) == "" {
		v.mu.Unlock()
		return ErrEmptyPrompt
	}
	if v.selected == nil || !v.selected.Has(ai.CapabilityImageGeneration) {
		v.mu.Unlock()
		return ErrNoBackend
	}
	brainID := v.selected.ID
	client, ok := v.brains.Client(brainID)
	if !ok {
		v.mu.Unlock()
		return fmt.Errorf("%w: %s is not available", ErrNoBackend, brainID)
	}

	v.state = State{Submitting: true}
	v.prompt = ""
	files := v.staging.take()
	v.inflight.Add(1)
	v.mu.Unlock()
	v.changed.Notify()

	req := ai.Request{
		Role:                   ai.RoleUser,
		SentAt:                 v.now().UTC(),
		PromptText:             prompt,
		ExpectedResponseFormat: ai.ResponseBase64,
		Attachments:            make([]ai.RequestAttachment, 0, len(files)),
	}
	for _, f := range files {
		req.Attachments = append(req.Attachments, f.requestAttachment())
	}

	v.log.Info("generation submitted",
		zap.String("brain", brainID),
		zap.Int("attachments", len(req.Attachments)),
	)
	go v.run(context.WithoutCancel(ctx), brainID, client, req)
	return nil
}

func (v *View) run(ctx context.Context, brainID string, client ai.Client, req ai.Request) {
	defer v.inflight.Done()

	done := v.metrics.GenerationStarted(brainID)
	resp, err := client.Generate(ctx, req)
	if err == nil && resp == nil {
		err = errors.New("empty response")
	}
	done(err)

	defer v.changed.Notify()
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Submitting = false

	if v.closed {
		v.log.Info("dropping response for closed view", zap.String("brain", brainID), zap.Error(err))
		return
	}
	if err != nil {
		v.log.Error("generation failed", zap.String("brain", brainID), zap.Error(err))
		v.state.LastError = err.Error()
		return
	}

	msg := Message{
		ID:          v.ids.Next(),
		PromptText:  promptText(req.PromptText, resp),
		Attachments: make([]Attachment, 0, len(resp.Attachments)),
	}
	for _, a := range resp.Attachments {
		msg.Attachments = append(msg.Attachments, toAttachment(a, v.ids))
	}

	next := make([]Message, 0, len(v.messages)+1)
	next = append(next, msg)
	next = append(next, v.messages...)
	if err := v.store.SaveMessages(ctx, v.sessionID, next); err != nil {
		v.log.Error("persist message failed", zap.Error(err))
		v.state.LastError = err.Error()
		return
	}
	v.messages = next
	v.log.Info("generation completed", zap.String("brain", brainID), zap.Int("attachments", len(msg.Attachments)))
}

// Wait blocks until no request is in flight.
func (v *View) Wait() {
	v.inflight.Wait()
}

// Close releases the staged files. A request still in flight completes but
// its response is discarded.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.staging.Close()
	v.changed.Notify()
}

// Closed reports whether Close was called.
func (v *View) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}
