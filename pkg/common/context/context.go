package context

import (
	"context"

	gferrors "github.com/vnykmshr/flowops/pkg/common/errors"
)

// IsCanceled returns true if the context has been canceled
func IsCanceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// IsTimedOut returns true if the context was canceled due to a timeout
func IsTimedOut(ctx context.Context) bool {
	return ctx.Err() == context.DeadlineExceeded
}

// Checkpoint returns a CancelError attributing context.Cause(ctx) once ctx is done,
// and nil otherwise. Operators call it before every upstream pull and every yield.
func Checkpoint(ctx context.Context) error {
	if ctx.Err() != nil {
		return gferrors.NewCancelError(ctx)
	}
	return nil
}

// Checkpoints is Checkpoint over several contexts, reporting the first one that is done.
func Checkpoints(ctxs ...context.Context) error {
	for _, ctx := range ctxs {
		if err := Checkpoint(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Merge returns a child of ctx that is also canceled, with context.Cause(other),
// once other is done. stop must be called to release the link to other.
func Merge(ctx, other context.Context) (merged context.Context, stop func()) {
	merged, cancel := context.WithCancelCause(ctx)
	unlink := context.AfterFunc(other, func() { cancel(context.Cause(other)) })
	return merged, func() {
		unlink()
		cancel(nil)
	}
}
