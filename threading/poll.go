package threading

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"
)

var errNotYet = errors.New("condition not met")

// Poll calls check up to attempts times with a fixed sleep of interval
// between calls and stops at the first call that reports done. It returns
// the number of calls made. err is the last error returned by check, or the
// context error if ctx ended the loop early. attempts <= 0 returns at once
// without calling check.
func Poll(ctx context.Context, attempts int, interval time.Duration, check func(attempt int) (bool, error)) (n int, done bool, err error) {
	if attempts <= 0 {
		return 0, false, nil
	}

	var lastErr error
	err = retry.Do(
		func() error {
			n++
			ok, cerr := check(n)
			if cerr != nil {
				lastErr = cerr
				return cerr
			}
			if !ok {
				return errNotYet
			}
			return nil
		},
		retry.Attempts(uint(attempts)),
		retry.Delay(interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err == nil {
		return n, true, nil
	}
	if ctx.Err() != nil {
		return n, false, ctx.Err()
	}
	return n, false, lastErr
}
