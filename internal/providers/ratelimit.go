package providers

import (
	"context"
	"math/rand"
	"net/http"
	"time"
)

// backoff is a small jittered retry helper shared by every HTTP-backed
// provider here, rather than each provider reimplementing its own retry
// loop.
type backoff struct {
	base    time.Duration
	max     time.Duration
	factor  float64
	retries int
}

func newBackoff() backoff {
	return backoff{base: 500 * time.Millisecond, max: 5 * time.Second, factor: 2, retries: 2}
}

func (b backoff) delay(attempt int) time.Duration {
	d := b.base
	for i := 0; i < attempt; i++ {
		d = time.Duration(float64(d) * b.factor)
		if d > b.max {
			d = b.max
			break
		}
	}
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}

// doWithRetry runs do, retrying on transport-level errors (timeouts,
// connection resets) with jittered backoff. A response that merely
// carries a non-2xx status is returned as-is without retrying; callers
// treat those as "no data" per the fails-soft contract, not as transient.
func doWithRetry(ctx context.Context, do func() (*http.Response, error)) (*http.Response, error) {
	b := newBackoff()

	var lastErr error
	for attempt := 0; attempt <= b.retries; attempt++ {
		resp, err := do()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == b.retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.delay(attempt)):
		}
	}
	return nil, lastErr
}
