package timeutils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrAllAttemptsFailed = errors.New("all attempts failed")
)

// Retry calls function once, then once more after each of attemptDelays while
// needRetry returns true for the error. The last error is wrapped with
// ErrAllAttemptsFailed.
func Retry[T any](
	ctx context.Context,
	attemptDelays []time.Duration,
	function func(context.Context) (T, error),
	needRetry func(error) bool,
) (T, error) {
	res, err := function(ctx)
	if err == nil || !needRetry(err) {
		return res, err
	}
	for _, delay := range attemptDelays {
		if sleepErr := SleepCtx(ctx, delay); sleepErr != nil {
			var zero T
			return zero, fmt.Errorf("retry canceled: %w, last error %w", sleepErr, err)
		}
		res, err = function(ctx)
		if err == nil || !needRetry(err) {
			return res, err
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %w", ErrAllAttemptsFailed, err)
}

func SleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("sleep canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
