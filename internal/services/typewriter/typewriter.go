// File: internal/services/typewriter/typewriter.go
package typewriter

import (
	"sync"
	"time"
)

// Logger defines the logging interface used by the typewriter.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// State represents the renderer's lifecycle.
type State int

const (
	StateIdle State = iota
	StateRunning
)

// Typewriter reveals a finalized response string one character per tick.
//
// Two stop operations exist and they are not interchangeable:
//   - Cancel freezes whatever prefix was last revealed and returns it, without
//     signaling completion. The interruption path consumes this.
//   - Finish snaps the revealed text to the full final string and stops. The
//     "stop animating" path uses this when a turn is superseded.
type Typewriter struct {
	mu     sync.Mutex
	config *Config
	logger Logger

	state    State
	text     []rune
	revealed int
	gen      int // invalidates stale reveal loops after restart/cancel
}

func New(config *Config, logger Logger) (*Typewriter, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Typewriter{config: config, logger: logger}, nil
}

// Start begins revealing text from zero, discarding any reveal already in
// progress. onTick receives each newly revealed prefix; onComplete fires
// best-effort once the full string is shown. Empty text is a no-op.
func (t *Typewriter) Start(text string, onTick func(revealed string), onComplete func()) {
	if text == "" {
		return
	}

	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.state = StateRunning
	t.text = []rune(text)
	t.revealed = 0
	t.mu.Unlock()

	t.logger.Debug("typewriter started", "chars", len(text))
	go t.run(gen, onTick, onComplete)
}

func (t *Typewriter) run(gen int, onTick func(string), onComplete func()) {
	ticker := time.NewTicker(t.config.CharInterval)
	defer ticker.Stop()

	for range ticker.C {
		t.mu.Lock()
		if t.gen != gen {
			// Superseded or cancelled; stop within one tick.
			t.mu.Unlock()
			return
		}

		t.revealed++
		prefix := string(t.text[:t.revealed])
		done := t.revealed == len(t.text)
		if done {
			t.state = StateIdle
		}
		t.mu.Unlock()

		if onTick != nil {
			onTick(prefix)
		}
		if done {
			if onComplete != nil {
				onComplete()
			}
			return
		}
	}
}

// Cancel stops a reveal mid-flight without signaling completion and returns
// the frozen partial prefix for the interruption path.
func (t *Typewriter) Cancel() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	partial := string(t.text[:t.revealed])
	if t.state == StateRunning {
		t.logger.Debug("typewriter cancelled", "revealed", t.revealed, "total", len(t.text))
	}
	t.gen++
	t.state = StateIdle
	return partial
}

// Finish snaps the displayed text to the full final string and stops. No
// completion callback fires; the caller owns the final render.
func (t *Typewriter) Finish() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	t.state = StateIdle
	t.revealed = len(t.text)
	return string(t.text)
}

// State returns the renderer's current lifecycle state.
func (t *Typewriter) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Revealed returns the currently revealed prefix.
func (t *Typewriter) Revealed() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.text[:t.revealed])
}
