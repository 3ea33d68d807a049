// File: internal/services/request/controller_test.go
package request

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type abortErr struct{ abort bool }

func (e *abortErr) Error() string { return "request finished" }
func (e *abortErr) Aborted() bool { return e.abort }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil error", nil, OutcomeSuccess},
		{"context canceled", context.Canceled, OutcomeAborted},
		{"wrapped cancellation", fmt.Errorf("send: %w", context.Canceled), OutcomeAborted},
		{"abort-typed error", &abortErr{abort: true}, OutcomeAborted},
		{"non-abort typed error", &abortErr{abort: false}, OutcomeFailed},
		{"plain failure", errors.New("boom"), OutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestBegin_CancelsPredecessor(t *testing.T) {
	c := NewController()

	ctx1, token1 := c.Begin(context.Background())
	assert.False(t, token1.Stale())
	assert.True(t, c.InFlight())

	ctx2, token2 := c.Begin(context.Background())

	assert.Error(t, ctx1.Err(), "superseded context must be cancelled")
	assert.NoError(t, ctx2.Err())
	assert.True(t, token1.Stale())
	assert.False(t, token2.Stale())
}

func TestCancelInFlight(t *testing.T) {
	c := NewController()

	assert.False(t, c.CancelInFlight(), "nothing in flight yet")

	ctx, token := c.Begin(context.Background())
	assert.True(t, c.CancelInFlight())

	assert.Error(t, ctx.Err())
	assert.True(t, token.Stale())
	assert.False(t, c.InFlight())
}

func TestSettle(t *testing.T) {
	c := NewController()

	_, token := c.Begin(context.Background())
	c.Settle(token)
	assert.False(t, c.InFlight())

	// A late settle with a stale token must not disturb the current request.
	_, stale := c.Begin(context.Background())
	_, fresh := c.Begin(context.Background())
	c.Settle(stale)
	assert.True(t, c.InFlight())
	c.Settle(fresh)
	assert.False(t, c.InFlight())
}
