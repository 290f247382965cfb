package async

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/snooze/pkg/observability"
)

// SafeGo runs fn in a goroutine with panic recovery and an optional timeout.
// A timeout of zero lets fn run until ctx is cancelled. Errors and panics are
// logged and delivered on the returned channel, which is closed when fn
// returns. Cancellation of ctx is not reported as an error.
//
// Use this instead of a bare `go func()` for background work:
//
//	async.SafeGo(ctx, logger, 30*time.Second, "initial stats", server.RefreshStats)
func SafeGo(parentCtx context.Context, logger logrus.FieldLogger, timeout time.Duration, taskName string, fn func(context.Context) error) <-chan error {
	done := make(chan error, 1)

	go func() {
		defer close(done)

		ctx, cancel := parentCtx, context.CancelFunc(func() {})
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(parentCtx, timeout)
		}
		defer cancel()

		err := run(ctx, fn)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).WithField("task", taskName).Error("background task failed")
			done <- err
		}
	}()

	return done
}

// run calls fn and converts a panic into an error
func run(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = observability.MustRecover(r)
		}
	}()
	return fn(ctx)
}
