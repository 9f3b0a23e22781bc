package ai

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// newHTTPClient returns a client that retries connection errors, 429s and
// 5xx responses. After the last attempt the final response is handed back
// unchanged so callers can report the backend's own error body.
func newHTTPClient(timeout time.Duration) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := rc.StandardClient()
	c.Timeout = timeout
	return c
}
