package stream

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/flowops/internal/testutil"
	gferrors "github.com/vnykmshr/flowops/pkg/common/errors"
)

// countingLimiter admits limit waits and then fails.
type countingLimiter struct {
	waits atomic.Int32
	limit int32
	err   error
}

func (l *countingLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.waits.Add(1) > l.limit {
		return l.err
	}
	return nil
}

func TestMap_RateLimitWaitsPerItem(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	limiter := &countingLimiter{limit: 100}
	out, err := Map(ctx, FromSlice(ints(5)), double, WithConcurrency(2), WithRateLimit(limiter))
	testutil.AssertNoError(t, err)

	result, err := ToSlice(ctx, out)
	testutil.AssertNoError(t, err)
	testutil.AssertSliceEqual(t, result, []int{2, 4, 6, 8, 10})
	// One wait per item plus the one before the pull that reports the end.
	testutil.AssertEqual(t, limiter.waits.Load(), int32(6))
}

func TestMap_RateLimitFailure(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	errLimited := errors.New("quota exhausted")
	limiter := &countingLimiter{limit: 2, err: errLimited}
	src := newCounting(ints(10))
	out, err := Map(ctx, src, double, WithConcurrency(1), WithRateLimit(limiter))
	testutil.AssertNoError(t, err)

	defer out.Close()

	var result []int
	for {
		v, ok, err := out.Next(ctx)
		if err != nil {
			testutil.AssertErrorIs(t, err, errLimited)
			break
		}
		if !ok {
			t.Fatal("stream ended without the limiter error")
		}
		result = append(result, v)
	}
	testutil.AssertSliceEqual(t, result, []int{2, 4})
	testutil.AssertEqual(t, src.pulls.Load(), int32(2))
}

// blockingLimiter never admits a transform.
type blockingLimiter struct{}

func (blockingLimiter) Wait(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestMap_RateLimitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := Map(ctx, FromSlice(ints(3)), double, WithRateLimit(blockingLimiter{}))
	testutil.AssertNoError(t, err)
	defer out.Close()

	time.AfterFunc(20*time.Millisecond, cancel)
	_, _, err = out.Next(context.Background())
	if !gferrors.IsCanceled(err) {
		t.Fatalf("Next() error = %v, want cancellation", err)
	}
}
