// Package schedule adapts a cron expression to a stream.Source of fire times.
package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	gferrors "github.com/vnykmshr/flowops/pkg/common/errors"
	"github.com/vnykmshr/flowops/pkg/common/validation"
	"github.com/vnykmshr/flowops/pkg/metrics"
	"github.com/vnykmshr/flowops/pkg/streaming/stream"
)

const module = "schedule"

// Clock abstracts time so tests can run schedules without real delays.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Config holds configuration for a schedule source.
type Config struct {
	// Spec is a standard five-field cron expression, or six fields with
	// WithSeconds. Descriptors such as "@hourly" and "@every 5m" are accepted.
	Spec string

	// WithSeconds enables a leading seconds field.
	WithSeconds bool

	// Location is the time zone the schedule is evaluated in. Defaults to time.Local.
	Location *time.Location

	// Clock defaults to the wall clock.
	Clock Clock

	// Metrics counts fired ticks when set.
	Metrics *metrics.Registry
}

type source struct {
	config   Config
	schedule cron.Schedule
	closed   atomic.Bool
}

// NewSource creates an unbounded stream.Source that waits for and yields each
// fire time of config.Spec. Pair it with stream.Take to bound it.
func NewSource(config Config) (stream.Source[time.Time], error) {
	if err := validation.ValidateNotEmpty(module, "spec", config.Spec); err != nil {
		return nil, err
	}

	fields := cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor
	if config.WithSeconds {
		fields |= cron.Second
	}
	sched, err := cron.NewParser(fields).Parse(config.Spec)
	if err != nil {
		return nil, gferrors.NewValidationError(module, "spec", config.Spec, err.Error()).
			WithHint("use a cron expression such as \"*/5 * * * *\"")
	}

	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Clock == nil {
		config.Clock = realClock{}
	}
	return &source{config: config, schedule: sched}, nil
}

// Next waits until the next fire time and returns it. The stream ends only if
// the schedule has no future fire time.
func (s *source) Next(ctx context.Context) (time.Time, bool, error) {
	if s.closed.Load() {
		return time.Time{}, false, gferrors.ErrClosed
	}

	now := s.config.Clock.Now().In(s.config.Location)
	next := s.schedule.Next(now)
	if next.IsZero() {
		return time.Time{}, false, nil
	}

	select {
	case <-s.config.Clock.After(next.Sub(now)):
	case <-ctx.Done():
		return time.Time{}, false, ctx.Err()
	}

	if s.config.Metrics != nil {
		s.config.Metrics.SourceItems.WithLabelValues(module, s.config.Spec).Inc()
	}
	return next, true, nil
}

func (s *source) Close() error {
	s.closed.Store(true)
	return nil
}
