package eventstream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyPublisher struct {
	failures int
	calls    int
	closed   bool
}

func (f *flakyPublisher) Publish(context.Context, Envelope) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("leader not available")
	}
	return nil
}

func (f *flakyPublisher) Close() error {
	f.closed = true
	return nil
}

func newTestRetrying(next Publisher, attempts int) (*Retrying, *[]time.Duration) {
	r := NewRetrying(next, attempts, time.Second)
	r.maxJitter = 0
	var waits []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return r, &waits
}

func TestRetrying_RecoversWithinAttempts(t *testing.T) {
	inner := &flakyPublisher{failures: 2}
	r, waits := newTestRetrying(inner, 3)

	require.NoError(t, r.Publish(context.Background(), Envelope{Type: "task.created"}))
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *waits)
}

func TestRetrying_GivesUp(t *testing.T) {
	inner := &flakyPublisher{failures: 5}
	r, waits := newTestRetrying(inner, 3)

	require.Error(t, r.Publish(context.Background(), Envelope{Type: "task.created"}))
	assert.Equal(t, 3, inner.calls)
	assert.Len(t, *waits, 2)

	require.NoError(t, r.Close())
	assert.True(t, inner.closed)
}

func TestRetrying_StopsWhenContextEnds(t *testing.T) {
	inner := &flakyPublisher{failures: 5}
	r := NewRetrying(inner, 5, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, r.Publish(ctx, Envelope{Type: "task.created"}))
	assert.Equal(t, 1, inner.calls)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Duration(0), backoff(0, time.Second))
	assert.Equal(t, 400*time.Millisecond, backoff(3, time.Second))
	assert.Equal(t, time.Second, backoff(10, time.Second))
}
