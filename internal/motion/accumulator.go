// Package motion batches high-frequency relative pointer deltas into
// periodic host moves.
package motion

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"
)

// DefaultInterval is the drain period used when Options.Interval is zero
const DefaultInterval = 80 * time.Millisecond

// MaxPending bounds each pending axis in pixels. Motion past it is dropped.
const MaxPending = 1e6

// Mover is the part of the host capability the accumulator drives
type Mover interface {
	MoveRelative(ctx context.Context, dx, dy int) error
}

// Options configures an Accumulator
type Options struct {
	// Sensitivity scales deltas passed to Accumulate
	Sensitivity float64
	// Interval is the drain period used by Run
	Interval time.Duration
	// CallTimeout bounds each host move; zero means unbounded
	CallTimeout time.Duration
}

// Accumulator sums scaled pointer deltas and periodically applies their
// integer part as a single relative move. The fractional remainder carries
// over to the next drain.
type Accumulator struct {
	mover  Mover
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	pendingX float64
	pendingY float64
}

// New creates an accumulator with empty pending motion
func New(mover Mover, opts Options, logger *slog.Logger) *Accumulator {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Sensitivity == 0 {
		opts.Sensitivity = 1
	}
	return &Accumulator{
		mover:  mover,
		opts:   opts,
		logger: logger.With("component", "motion"),
	}
}

// Accumulate adds a delta scaled by the configured sensitivity
func (a *Accumulator) Accumulate(dx, dy float64) {
	a.AccumulateScaled(dx, dy, a.opts.Sensitivity)
}

// AccumulateScaled adds dx*sensitivity and dy*sensitivity to the pending motion.
// Non-finite products are ignored and each axis saturates at MaxPending.
func (a *Accumulator) AccumulateScaled(dx, dy, sensitivity float64) {
	sx, sy := dx*sensitivity, dy*sensitivity
	if !finite(sx) || !finite(sy) {
		return
	}
	a.mu.Lock()
	a.pendingX = clamp(a.pendingX + clamp(sx))
	a.pendingY = clamp(a.pendingY + clamp(sy))
	a.mu.Unlock()
}

// Pending returns the motion not yet applied
func (a *Accumulator) Pending() (x, y float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pendingX, a.pendingY
}

// Drain applies the rounded pending motion as one relative move and returns
// what was applied. Rounded values are removed from the pending motion before
// the host call, so a failed move is dropped rather than retried.
func (a *Accumulator) Drain(ctx context.Context) (dx, dy int) {
	a.mu.Lock()
	rx, ry := math.Round(a.pendingX), math.Round(a.pendingY)
	if rx == 0 && ry == 0 {
		a.mu.Unlock()
		return 0, 0
	}
	a.pendingX -= rx
	a.pendingY -= ry
	a.mu.Unlock()

	dx, dy = int(rx), int(ry)
	if a.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.CallTimeout)
		defer cancel()
	}
	if err := a.mover.MoveRelative(ctx, dx, dy); err != nil {
		a.logger.Debug("Relative move dropped", "dx", dx, "dy", dy, "err", err)
	}
	return dx, dy
}

// Run drains on every interval tick until ctx is done
func (a *Accumulator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.opts.Interval)
	defer ticker.Stop()

	a.logger.Debug("Motion drain started", "interval", a.opts.Interval, "sensitivity", a.opts.Sensitivity)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Drain(ctx)
		}
	}
}

func clamp(v float64) float64 {
	return math.Max(-MaxPending, math.Min(MaxPending, v))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
