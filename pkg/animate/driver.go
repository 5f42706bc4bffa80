// Package animate drives a reveal state machine through a frame composer
// into a display sink at the cadence the machine asks for.
package animate

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"gitlab.com/tinyland/lab/phosphor/pkg/reveal"
)

// Stepper produces the text state for each tick. *reveal.Machine
// implements it.
type Stepper interface {
	// Next advances one tick. ok is false once the sequence is done.
	Next() (reveal.TextState, bool)

	// Interval is the delay that follows the tick Next just produced.
	Interval() time.Duration

	// Stop ends the sequence early.
	Stop()
}

// Composer renders a text state into a frame. *crt.Composer implements it.
type Composer interface {
	Compose(state reveal.TextState) *image.NRGBA
}

// Sink consumes finished frames. Present takes ownership of the frame.
type Sink interface {
	Present(ctx context.Context, frame *image.NRGBA) error

	// Cancelled reports whether the user asked to stop. It is polled once
	// per tick.
	Cancelled() bool
}

// doneSink is implemented by sinks that can signal cancellation while the
// driver is waiting between frames.
type doneSink interface {
	Done() <-chan struct{}
}

// Stats summarizes a run.
type Stats struct {
	Frames    int
	Cancelled bool
	Elapsed   time.Duration
}

// FPS returns the achieved frame rate.
func (s Stats) FPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Elapsed.Seconds()
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger used for run summaries.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// Driver runs the animation loop on the calling goroutine.
type Driver struct {
	machine  Stepper
	composer Composer
	sink     Sink
	logger   *slog.Logger
}

// New creates a Driver.
func New(machine Stepper, composer Composer, sink Sink, opts ...Option) *Driver {
	d := &Driver{
		machine:  machine,
		composer: composer,
		sink:     sink,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run plays the animation until the machine is done, ctx is cancelled, or
// the sink reports cancellation. Cancellation is not an error; it is
// reported through Stats.Cancelled. A Present error aborts the run.
func (d *Driver) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	var st Stats

	var done <-chan struct{}
	if ds, ok := d.sink.(doneSink); ok {
		done = ds.Done()
	}

	for {
		if ctx.Err() != nil || d.sink.Cancelled() {
			d.machine.Stop()
			st.Cancelled = true
			break
		}

		tickStart := time.Now()
		state, ok := d.machine.Next()
		if !ok {
			break
		}
		interval := d.machine.Interval()

		frame := d.composer.Compose(state)
		if err := d.sink.Present(ctx, frame); err != nil {
			d.machine.Stop()
			// A sink that refuses the frame because the run was stopped
			// while composing is a cancellation.
			if ctx.Err() != nil || d.sink.Cancelled() {
				st.Cancelled = true
				break
			}
			st.Elapsed = time.Since(start)
			return st, fmt.Errorf("animate: present frame %d: %w", st.Frames, err)
		}
		st.Frames++

		if !wait(ctx, done, interval-time.Since(tickStart)) {
			d.machine.Stop()
			st.Cancelled = true
			break
		}
	}

	st.Elapsed = time.Since(start)
	d.logger.Debug("animation finished",
		"frames", st.Frames,
		"cancelled", st.Cancelled,
		"elapsed", st.Elapsed,
		"fps", fmt.Sprintf("%.1f", st.FPS()),
	)
	return st, nil
}

// wait blocks for d. It returns false if ctx or done fired first.
func wait(ctx context.Context, done <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		case <-done:
			return false
		default:
			return true
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-done:
		return false
	}
}
