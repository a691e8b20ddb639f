package stream

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	gferrors "github.com/vnykmshr/flowops/pkg/common/errors"
	"github.com/vnykmshr/flowops/pkg/metrics"
)

// instrumentation reports one operator run to the configured logger and
// metrics registry. A nil registry disables metrics.
type instrumentation struct {
	op      string
	name    string
	log     zerolog.Logger
	reg     *metrics.Registry
	started time.Time
}

func newInstrumentation(op string, cfg config) *instrumentation {
	return &instrumentation{
		op:   op,
		name: cfg.name,
		log: cfg.logger.With().
			Str("operation", op).
			Str("stream_name", cfg.name).
			Str("run_id", uuid.NewString()).
			Logger(),
		reg: cfg.metrics,
	}
}

func (i *instrumentation) begin(cfg config) {
	i.started = time.Now()
	i.log.Debug().
		Int("concurrency", cfg.concurrency).
		Int("lookahead", cfg.lookahead).
		Int("capacity", cfg.capacity()).
		Msg("stream started")
	if i.reg == nil {
		return
	}
	i.reg.StreamOperations.WithLabelValues(i.op, i.name).Inc()
	i.reg.StreamBufferSize.WithLabelValues(i.name).Set(float64(cfg.capacity()))
}

func (i *instrumentation) state(queued, inFlight int) {
	if i.reg == nil {
		return
	}
	i.reg.StreamBufferUsage.WithLabelValues(i.name).Set(float64(queued))
	i.reg.StreamInFlight.WithLabelValues(i.name).Set(float64(inFlight))
}

func (i *instrumentation) backpressure(reason string) {
	if i.reg == nil {
		return
	}
	i.reg.BackpressureEvents.WithLabelValues(reason, i.name).Inc()
}

func (i *instrumentation) transform(d time.Duration) {
	if i.reg == nil {
		return
	}
	i.reg.TransformDuration.WithLabelValues(i.op, i.name).Observe(d.Seconds())
}

func (i *instrumentation) yielded() {
	if i.reg == nil {
		return
	}
	i.reg.StreamItems.WithLabelValues(i.op, i.name).Inc()
}

// end records how the run terminated. A nil err is a clean end.
func (i *instrumentation) end(err error) {
	var elapsed time.Duration
	if !i.started.IsZero() {
		elapsed = time.Since(i.started)
	}
	switch {
	case err == nil:
		i.log.Debug().Dur("elapsed", elapsed).Msg("stream ended")
	case gferrors.IsCanceled(err):
		i.log.Debug().Err(err).Dur("elapsed", elapsed).Msg("stream canceled")
		if i.reg != nil {
			i.reg.StreamCancellations.WithLabelValues(i.op, i.name).Inc()
		}
	default:
		i.log.Warn().Err(err).Dur("elapsed", elapsed).Msg("stream failed")
		if i.reg != nil {
			i.reg.StreamErrors.WithLabelValues(i.op, i.name).Inc()
		}
	}
}

func (i *instrumentation) closed() {
	i.log.Debug().Msg("stream closed")
	i.state(0, 0)
}
