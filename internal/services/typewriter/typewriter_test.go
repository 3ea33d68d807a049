// File: internal/services/typewriter/typewriter_test.go
package typewriter

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Warn(string, ...interface{})  {}

func fastWriter(t *testing.T) *Typewriter {
	t.Helper()
	tw, err := New(&Config{CharInterval: time.Millisecond}, noopLogger{})
	require.NoError(t, err)
	return tw
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(&Config{CharInterval: 0}, noopLogger{})
	assert.Error(t, err)
}

func TestStart_RevealsFullTextAndCompletes(t *testing.T) {
	tw := fastWriter(t)

	var mu sync.Mutex
	var ticks []string
	done := make(chan struct{})

	tw.Start("abc", func(revealed string) {
		mu.Lock()
		ticks = append(ticks, revealed)
		mu.Unlock()
	}, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reveal did not complete")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "ab", "abc"}, ticks)
	assert.Equal(t, StateIdle, tw.State())
}

func TestStart_EmptyTextIsNoOp(t *testing.T) {
	tw := fastWriter(t)
	tw.Start("", nil, func() { t.Fatal("completion must not fire for empty text") })

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateIdle, tw.State())
}

func TestCancel_FreezesPartialWithoutCompletion(t *testing.T) {
	tw := fastWriter(t)

	completed := make(chan struct{}, 1)
	halfway := make(chan struct{})
	var once sync.Once

	text := "a longer answer that takes many ticks to reveal"
	tw.Start(text, func(revealed string) {
		if len(revealed) >= 5 {
			once.Do(func() { close(halfway) })
		}
	}, func() { completed <- struct{}{} })

	select {
	case <-halfway:
	case <-time.After(time.Second):
		t.Fatal("reveal never progressed")
	}

	partial := tw.Cancel()
	assert.NotEmpty(t, partial)
	assert.Less(t, len(partial), len(text))
	assert.Equal(t, text[:len(partial)], partial)
	assert.Equal(t, StateIdle, tw.State())

	// The loop must notice the cancellation and never complete.
	select {
	case <-completed:
		t.Fatal("cancelled reveal fired completion")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFinish_SnapsToFullText(t *testing.T) {
	tw := fastWriter(t)

	completed := make(chan struct{}, 1)
	tw.Start("the complete answer", nil, func() { completed <- struct{}{} })

	full := tw.Finish()
	assert.Equal(t, "the complete answer", full)
	assert.Equal(t, "the complete answer", tw.Revealed())
	assert.Equal(t, StateIdle, tw.State())

	select {
	case <-completed:
		t.Fatal("finished reveal fired completion callback")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStart_RestartDiscardsPriorRun(t *testing.T) {
	tw := fastWriter(t)

	firstCompleted := make(chan struct{}, 1)
	tw.Start("first answer text", nil, func() { firstCompleted <- struct{}{} })

	done := make(chan struct{})
	tw.Start("second", nil, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second reveal did not complete")
	}
	assert.Equal(t, "second", tw.Revealed())

	select {
	case <-firstCompleted:
		t.Fatal("superseded reveal fired completion")
	case <-time.After(50 * time.Millisecond):
	}
}
