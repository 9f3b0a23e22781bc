package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteBrainRoundTrip(t *testing.T) {
	worker := NewManager()
	require.NoError(t, worker.Register(Brain{ID: "flux"}, ClientFunc(func(ctx context.Context, req Request) (*Response, error) {
		return &Response{
			ResultText:  "ok:" + req.PromptText,
			Attachments: []ResponseAttachment{{MimeType: "image/png", FileType: "image", Raw: []byte{1, 2}}},
		}, nil
	})))

	serve := ServeRemote(worker)
	remote := &RemoteBrain{BrainID: "flux", Caller: CallerFunc(serve)}

	resp, err := remote.Generate(context.Background(), Request{
		Role:        RoleUser,
		SentAt:      time.Now(),
		PromptText:  "cube",
		Attachments: []RequestAttachment{{Data: []byte("img"), MimeType: "image/png", OriginalFileName: "a.png"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok:cube", resp.ResultText)
	require.Len(t, resp.Attachments, 1)
	assert.Equal(t, []byte{1, 2}, resp.Attachments[0].Raw)
}

func TestRemoteBrainCarriesErrors(t *testing.T) {
	worker := NewManager()
	require.NoError(t, worker.Register(Brain{ID: "broken"}, ClientFunc(func(ctx context.Context, req Request) (*Response, error) {
		return nil, errors.New("gpu on fire")
	})))
	serve := ServeRemote(worker)

	_, err := (&RemoteBrain{BrainID: "broken", Caller: CallerFunc(serve)}).Generate(context.Background(), Request{})
	assert.EqualError(t, err, "gpu on fire")

	_, err = (&RemoteBrain{BrainID: "ghost", Caller: CallerFunc(serve)}).Generate(context.Background(), Request{})
	assert.ErrorContains(t, err, "unknown brain")

	_, err = serve(context.Background(), []byte("{not json"))
	assert.Error(t, err)
}

func TestRemoteBrainTimesOutWithoutReply(t *testing.T) {
	silent := CallerFunc(func(ctx context.Context, body []byte) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	brain := &RemoteBrain{BrainID: "flux", Caller: silent, Timeout: 50 * time.Millisecond}

	start := time.Now()
	_, err := brain.Generate(context.Background(), Request{PromptText: "x"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
