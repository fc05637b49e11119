package retry

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrTooManyAttempts = errors.New("too many retry attempts")

// Callable runs one attempt. Returning an error created with Error marks
// the attempt as recoverable and schedules a retry; any other error
// aborts immediately.
type Callable func(attempt int) error

type recoverableError struct {
	error
	attempt int
}

// Error marks err as recoverable for the given attempt.
func Error(err error, attempt int) error {
	if err == nil {
		return nil
	}

	return &recoverableError{error: err, attempt: attempt}
}

// Incremental retries cb with a linearly growing pause between attempts:
// step after the first failure, 2*step after the second and so on, up to
// maxAttempts runs in total.
func Incremental(ctx context.Context, step time.Duration, maxAttempts int, cb Callable) error {
	pause := time.Duration(0)

	for attempt := 1; ; attempt++ {
		err := cb(attempt)
		if err == nil {
			return nil
		}

		if _, ok := err.(*recoverableError); !ok {
			return errors.Wrapf(err, "attempt %d failed", attempt)
		}

		if attempt >= maxAttempts {
			return ErrTooManyAttempts
		}

		pause += step

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
}
