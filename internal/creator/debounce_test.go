package creator

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerRunsLastPush(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var got atomic.Value
	var runs atomic.Int32
	for _, name := range []string{"S", "Su", "Sunset"} {
		d.Push("s1", func() {
			got.Store(name)
			runs.Add(1)
		})
	}

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, "Sunset", got.Load())
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)

	var runs atomic.Int32
	d.Push("a", func() { runs.Add(1) })
	d.Push("b", func() { runs.Add(1) })

	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDebouncerCancelAndFlush(t *testing.T) {
	d := NewDebouncer(time.Hour)

	var cancelled, flushed atomic.Bool
	d.Push("a", func() { cancelled.Store(true) })
	d.Push("b", func() { flushed.Store(true) })

	d.Cancel("a")
	d.Flush()

	assert.False(t, cancelled.Load())
	assert.True(t, flushed.Load())
}
