// Package loop drives fixed-rate updates and variable-rate rendering.
//
// Each frame runs every update that is due, up to a cap, then renders once
// with the frame's wall-clock time. When updates fall further behind than the
// cap allows, the backlog is carried into later frames rather than skipped.
package loop

import (
	"context"
	"time"
)

// Config sets the loop rates in Hz.
type Config struct {
	UpdateRate            int
	MaxConsecutiveUpdates int
	FrameRate             int
}

// UpdateFunc advances the simulation by one fixed step.
type UpdateFunc func() error

// RenderFunc draws a frame for wall-clock time now.
type RenderFunc func(now time.Time) error

// Ticker produces frame ticks every d. stop releases it.
type Ticker func(d time.Duration) (ticks <-chan time.Time, stop func())

// Option configures a Loop.
type Option func(*Loop)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		l.now = now
	}
}

// WithTicker replaces the frame ticker.
func WithTicker(t Ticker) Option {
	return func(l *Loop) {
		l.ticker = t
	}
}

// Loop runs update and render callbacks on the calling goroutine.
type Loop struct {
	step     time.Duration
	maxSteps int
	frame    time.Duration
	now      func() time.Time
	ticker   Ticker

	nextUpdate time.Time
	updates    uint64
	frames     uint64
}

// New creates a loop. Non-positive rates fall back to 30 updates, 5
// consecutive updates and 60 frames per second.
func New(cfg Config, opts ...Option) *Loop {
	if cfg.UpdateRate <= 0 {
		cfg.UpdateRate = 30
	}
	if cfg.MaxConsecutiveUpdates <= 0 {
		cfg.MaxConsecutiveUpdates = 5
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 60
	}
	l := &Loop{
		step:     time.Second / time.Duration(cfg.UpdateRate),
		maxSteps: cfg.MaxConsecutiveUpdates,
		frame:    time.Second / time.Duration(cfg.FrameRate),
		now:      time.Now,
		ticker:   realTicker,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run calls Frame on every tick until ctx is done or a callback fails.
// Cancellation returns nil.
func (l *Loop) Run(ctx context.Context, update UpdateFunc, render RenderFunc) error {
	l.nextUpdate = l.now()
	ticks, stop := l.ticker(l.frame)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
			if err := l.Frame(update, render); err != nil {
				return err
			}
		}
	}
}

// Frame runs one iteration: due updates, then a render.
func (l *Loop) Frame(update UpdateFunc, render RenderFunc) error {
	now := l.now()
	if l.nextUpdate.IsZero() {
		l.nextUpdate = now
	}
	for n := 0; now.After(l.nextUpdate) && n < l.maxSteps; n++ {
		if err := update(); err != nil {
			return err
		}
		l.nextUpdate = l.nextUpdate.Add(l.step)
		l.updates++
	}
	l.frames++
	return render(now)
}

// Updates returns the number of updates run so far.
func (l *Loop) Updates() uint64 {
	return l.updates
}

// Frames returns the number of frames rendered so far.
func (l *Loop) Frames() uint64 {
	return l.frames
}

// Backlog returns how far the next update lags behind now.
func (l *Loop) Backlog() time.Duration {
	if d := l.now().Sub(l.nextUpdate); d > 0 {
		return d
	}
	return 0
}

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
