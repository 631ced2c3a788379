// Package await bounds the latency of an operation by racing it against a
// wall-clock timer.
//
// Unlike context.WithTimeout, the slow operation is not torn down when the
// timer wins — it is abandoned. The fetch orchestration treats a timer win
// as a soft failure and proceeds to synthetic data immediately, while the
// straggler goroutine finishes (or errors) into a buffered channel and is
// garbage collected. The operation still receives a cancelable context, so
// cooperative cancellation works where the transport supports it.
package await

import (
	"context"
	"time"

	"github.com/sakif/playmate/internal/apperror"
)

type result[T any] struct {
	value T
	err   error
}

// Do runs fn with budget d. Whichever of fn and the timer finishes first
// decides the outcome; a timer win returns apperror.ErrTimeout wrapped with
// the operation name.
func Do[T any](ctx context.Context, operation string, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithCancel(ctx)

	// Buffered so the abandoned goroutine can always complete its send.
	ch := make(chan result[T], 1)
	go func() {
		v, err := fn(ctx)
		ch <- result[T]{value: v, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	var zero T
	select {
	case res := <-ch:
		cancel()
		return res.value, res.err
	case <-timer.C:
		cancel() // best-effort; the loser is not waited on
		return zero, apperror.Timeout(operation)
	case <-ctx.Done():
		cancel()
		return zero, ctx.Err()
	}
}
