// Package kv defines the key-value persistence contract used for creations,
// message logs and selected brains, plus a gorm-backed implementation.
package kv

import (
	"context"
	"strings"
)

// Store persists opaque JSON payloads by key. Get on a missing key reports
// ok=false and no error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Key joins namespace parts with dots: Key("imageCreator", id, "messages").
func Key(parts ...string) string {
	return strings.Join(parts, ".")
}
