package rabbitmq

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/image-creator/internal/ids"
)

// Runs against a live broker when RABBIT_TEST_URL is set.
func brokerURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("RABBIT_TEST_URL")
	if url == "" {
		t.Skip("RABBIT_TEST_URL not set")
	}
	return url
}

func TestCallRoundTrip(t *testing.T) {
	url := brokerURL(t)
	queue := "image_creator_test_" + strings.ToLower(ids.New())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &Server{
		URL:         url,
		Queue:       queue,
		Concurrency: 2,
		Handler: func(ctx context.Context, body []byte) ([]byte, error) {
			if string(body) == "bad" {
				return nil, errors.New("bad request")
			}
			return []byte(strings.ToUpper(string(body))), nil
		},
	}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	client, err := Dial(url, queue)
	require.NoError(t, err)
	defer client.Close()

	callCtx, callCancel := context.WithTimeout(ctx, 10*time.Second)
	defer callCancel()
	out, err := client.Call(callCtx, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "HELLO", string(out))

	// rejected requests get no reply
	shortCtx, shortCancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer shortCancel()
	_, err = client.Call(shortCtx, []byte("bad"))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
