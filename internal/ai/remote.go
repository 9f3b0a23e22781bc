package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Caller sends one request body and waits for the reply body.
type Caller interface {
	Call(ctx context.Context, body []byte) ([]byte, error)
}

type remoteEnvelope struct {
	BrainID string  `json:"brainId"`
	Request Request `json:"request"`
}

type remoteReply struct {
	Response *Response `json:"response,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// RemoteBrain forwards generation calls for one brain id to a worker
// process. The worker must have the same brain registered. A positive
// Timeout bounds each call, including the wait for the reply.
type RemoteBrain struct {
	BrainID string
	Caller  Caller
	Timeout time.Duration
}

func (r *RemoteBrain) Generate(ctx context.Context, req Request) (*Response, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	body, err := json.Marshal(remoteEnvelope{BrainID: r.BrainID, Request: req})
	if err != nil {
		return nil, err
	}
	out, err := r.Caller.Call(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("remote brain %s: %w", r.BrainID, err)
	}
	var reply remoteReply
	if err := json.Unmarshal(out, &reply); err != nil {
		return nil, fmt.Errorf("remote brain %s: decode reply: %w", r.BrainID, err)
	}
	if reply.Error != "" {
		return nil, errors.New(reply.Error)
	}
	if reply.Response == nil {
		return nil, fmt.Errorf("remote brain %s: empty reply", r.BrainID)
	}
	return reply.Response, nil
}

// ServeRemote answers RemoteBrain calls from the brains registered in m.
// Generation failures travel back inside the reply; only undecodable input
// is returned as an error.
func ServeRemote(m *Manager) func(ctx context.Context, body []byte) ([]byte, error) {
	return func(ctx context.Context, body []byte) ([]byte, error) {
		var env remoteEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode request: %w", err)
		}
		if env.BrainID == "" {
			return nil, errors.New("decode request: brain id missing")
		}

		var reply remoteReply
		client, err := m.Get(env.BrainID)
		if err == nil {
			reply.Response, err = client.Generate(ctx, env.Request)
		}
		if err != nil {
			reply = remoteReply{Error: err.Error()}
		}
		return json.Marshal(reply)
	}
}

// CallerFunc adapts a function to Caller.
type CallerFunc func(ctx context.Context, body []byte) ([]byte, error)

func (f CallerFunc) Call(ctx context.Context, body []byte) ([]byte, error) { return f(ctx, body) }
