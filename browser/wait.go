package browser

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by Poll when the predicate never held within the timeout.
var ErrTimeout = errors.New("wait timed out")

// Predicate reports whether the awaited condition holds. A non-nil error
// is remembered as the last failure but does not stop polling.
type Predicate func(ctx context.Context) (bool, error)

// Poll evaluates pred immediately and then every interval until it holds,
// the timeout elapses, or ctx is done. On timeout the returned error wraps
// ErrTimeout together with the last predicate error, if any.
func Poll(ctx context.Context, timeout, interval time.Duration, pred Predicate) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last error
	for {
		ok, err := pred(waitCtx)
		if ok {
			return nil
		}
		if err != nil {
			last = err
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if last != nil {
				return errors.Join(ErrTimeout, last)
			}
			return ErrTimeout
		case <-ticker.C:
		}
	}
}
