// File: internal/services/backend/responder_test.go
package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCannedResponder_KeywordMatching(t *testing.T) {
	r := NewCannedResponder(0, noopLogger{})

	tests := []struct {
		question string
		want     string
	}{
		{"What are symptoms of flu?", "influenza"},
		{"Explain INFLUENZA complications", "influenza"},
		{"How do I diagnose diabetes?", "hyperglycemia"},
		{"Tell me about blood pressure management", "Hypertension"},
		{"What is the CPR compression rate?", "compressions"},
		{"When should amoxicillin be prescribed?", "Antibiotics"},
	}

	for _, tt := range tests {
		answer, err := r.Respond(context.Background(), tt.question)
		require.NoError(t, err, tt.question)
		assert.Contains(t, answer, tt.want, tt.question)
	}
}

func TestCannedResponder_FallbackCarriesDisclaimer(t *testing.T) {
	r := NewCannedResponder(0, noopLogger{})

	answer, err := r.Respond(context.Background(), "What is the airspeed of an unladen swallow?")
	require.NoError(t, err)
	assert.Contains(t, answer, Disclaimer)
}

func TestCannedResponder_CancellationDuringDelay(t *testing.T) {
	r := NewCannedResponder(time.Second, noopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := r.Respond(ctx, "flu")
	elapsed := time.Since(start)

	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.True(t, be.Aborted())
	assert.Less(t, elapsed, 500*time.Millisecond, "cancellation must not wait out the delay")
}
