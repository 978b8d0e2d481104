package loop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLoop(rate, maxSteps int) (*Loop, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := New(Config{UpdateRate: rate, MaxConsecutiveUpdates: maxSteps, FrameRate: 60}, WithClock(clock.now))
	return l, clock
}

func TestFrameRunsDueUpdates(t *testing.T) {
	l, clock := newTestLoop(10, 5)
	updates := 0
	update := func() error { updates++; return nil }
	var rendered []time.Time
	render := func(now time.Time) error { rendered = append(rendered, now); return nil }

	require.NoError(t, l.Frame(update, render))
	assert.Equal(t, 0, updates, "nothing is due at the start")

	clock.advance(250 * time.Millisecond)
	require.NoError(t, l.Frame(update, render))
	assert.Equal(t, 3, updates, "ticks at 0, 100 and 200ms are due")

	clock.advance(50 * time.Millisecond)
	require.NoError(t, l.Frame(update, render))
	assert.Equal(t, 3, updates, "the 300ms tick is due only once the clock passes it")

	clock.advance(10 * time.Millisecond)
	require.NoError(t, l.Frame(update, render))
	assert.Equal(t, 4, updates)

	require.Len(t, rendered, 4)
	assert.Equal(t, clock.t, rendered[3])
	assert.Equal(t, uint64(4), l.Frames())
	assert.Equal(t, uint64(4), l.Updates())
}

func TestFrameCapsConsecutiveUpdates(t *testing.T) {
	l, clock := newTestLoop(10, 2)
	updates := 0
	update := func() error { updates++; return nil }
	render := func(time.Time) error { return nil }

	require.NoError(t, l.Frame(update, render))
	clock.advance(time.Second)
	require.NoError(t, l.Frame(update, render))
	assert.Equal(t, 2, updates)
	assert.Greater(t, l.Backlog(), time.Duration(0))

	require.NoError(t, l.Frame(update, render))
	assert.Equal(t, 4, updates, "backlog carries over")
}

func TestFrameStopsOnError(t *testing.T) {
	l, clock := newTestLoop(10, 5)
	boom := errors.New("boom")
	rendered := false

	require.NoError(t, l.Frame(func() error { return nil }, func(time.Time) error { return nil }))
	clock.advance(time.Second)
	err := l.Frame(func() error { return boom }, func(time.Time) error { rendered = true; return nil })
	assert.ErrorIs(t, err, boom)
	assert.False(t, rendered)
}

func TestRunStopsOnCancel(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	ticks := make(chan time.Time)
	stopped := false
	l := New(Config{UpdateRate: 10}, WithClock(clock.now), WithTicker(func(time.Duration) (<-chan time.Time, func()) {
		return ticks, func() { stopped = true }
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	frames := 0
	go func() {
		done <- l.Run(ctx, func() error { return nil }, func(time.Time) error { frames++; return nil })
	}()

	ticks <- time.Time{}
	ticks <- time.Time{}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	assert.Equal(t, 2, frames)
	assert.True(t, stopped)
}

func TestRunReturnsRenderError(t *testing.T) {
	ticks := make(chan time.Time, 1)
	ticks <- time.Time{}
	l := New(Config{}, WithTicker(func(time.Duration) (<-chan time.Time, func()) {
		return ticks, func() {}
	}))

	boom := errors.New("render failed")
	err := l.Run(context.Background(), func() error { return nil }, func(time.Time) error { return boom })
	assert.ErrorIs(t, err, boom)
}
