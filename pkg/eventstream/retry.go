package eventstream

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Retrying retries failed publishes with exponential backoff until the attempts
// run out or the context ends.
type Retrying struct {
	next        Publisher
	maxAttempts int
	maxBackoff  time.Duration
	maxJitter   time.Duration

	mu    sync.Mutex
	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetrying(next Publisher, maxAttempts int, maxBackoff time.Duration) *Retrying {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrying{
		next:        next,
		maxAttempts: maxAttempts,
		maxBackoff:  maxBackoff,
		maxJitter:   maxBackoff / 4,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec
		sleep:       sleepCtx,
	}
}

func (r *Retrying) Publish(ctx context.Context, env Envelope) error {
	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err = r.next.Publish(ctx, env); err == nil {
			return nil
		}
		if attempt == r.maxAttempts {
			break
		}
		if serr := r.sleep(ctx, backoff(attempt, r.maxBackoff)+r.jitter()); serr != nil {
			return err
		}
	}
	return err
}

func (r *Retrying) Close() error {
	return r.next.Close()
}

func (r *Retrying) jitter() time.Duration {
	if r.maxJitter <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// [0, maxJitter]
	return time.Duration(r.rng.Int63n(int64(r.maxJitter) + 1))
}

// backoff is 100ms * 2^(attempts-1), capped at maxBackoff.
func backoff(attempts int, maxBackoff time.Duration) time.Duration {
	if attempts <= 0 {
		return 0
	}
	d := time.Duration(math.Pow(2, float64(attempts-1)) * float64(100*time.Millisecond))
	if maxBackoff > 0 && d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
