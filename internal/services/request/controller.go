// File: internal/services/request/controller.go
package request

import (
	"context"
	"errors"
	"sync"
)

// Outcome classifies how an in-flight request finished.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeAborted Outcome = "aborted"
	OutcomeFailed  Outcome = "failed"
)

// aborter is implemented by errors that represent cooperative cancellation.
type aborter interface {
	Aborted() bool
}

// Classify maps a request error to its completion outcome.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	if errors.Is(err, context.Canceled) {
		return OutcomeAborted
	}
	var a aborter
	if errors.As(err, &a) && a.Aborted() {
		return OutcomeAborted
	}
	return OutcomeFailed
}

// Controller tracks the single in-flight backend request for a session.
// Beginning a new request cancels and supersedes the previous one; its token
// lets late resolutions detect that they are stale and must be discarded.
type Controller struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func NewController() *Controller {
	return &Controller{}
}

// Token identifies one issued request. A stale token means the request was
// superseded or cancelled and its result must not be applied.
type Token struct {
	gen uint64
	c   *Controller
}

// Stale reports whether a newer request has superseded this one.
func (t Token) Stale() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	return t.gen != t.c.gen
}

// Begin cancels any in-flight request and issues a fresh cancellable context
// plus the token guarding its resolution.
func (c *Controller) Begin(parent context.Context) (context.Context, Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	return ctx, Token{gen: c.gen, c: c}
}

// CancelInFlight aborts the current request, if any. Reports whether one
// was actually in flight.
func (c *Controller) CancelInFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel == nil {
		return false
	}
	c.cancel()
	c.cancel = nil
	c.gen++ // outstanding tokens go stale immediately
	return true
}

// Settle marks the request identified by token as finished. Late calls with a
// stale token are ignored.
func (c *Controller) Settle(token Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token.gen != c.gen {
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// InFlight reports whether a request is currently outstanding.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}
