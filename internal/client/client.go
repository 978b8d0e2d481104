// Package client ties the mirror together: frames drained from the inbox are
// decoded and reconciled on the update tick, and the render tick samples
// every interpolation buffer slightly in the past.
package client

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zeusync/worldmirror/internal/codec"
	"github.com/zeusync/worldmirror/internal/core/events/bus"
	"github.com/zeusync/worldmirror/internal/core/interp"
	"github.com/zeusync/worldmirror/internal/core/models"
	"github.com/zeusync/worldmirror/internal/core/observability/log"
	"github.com/zeusync/worldmirror/internal/core/reconcile"
	"github.com/zeusync/worldmirror/internal/core/registry"
	"github.com/zeusync/worldmirror/internal/core/snapshot"
	"github.com/zeusync/worldmirror/internal/render"
	"github.com/zeusync/worldmirror/internal/transport"
)

// DefaultRenderLag is how far behind the newest snapshot the client renders.
const DefaultRenderLag = 50 * time.Millisecond

// Option configures a Client.
type Option func(*Client)

// WithRenderLag sets the render lag.
func WithRenderLag(lag time.Duration) Option {
	return func(c *Client) {
		c.lag = lag
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Log) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithReconciler replaces the default reconciler. Its events only reach the
// client's bus if it was built with WithEventBus(client bus).
func WithReconciler(r *reconcile.Reconciler) Option {
	return func(c *Client) {
		c.reconciler = r
	}
}

// WithEventBus sets the bus lifecycle events are dispatched on.
func WithEventBus(b bus.EventBus) Option {
	return func(c *Client) {
		c.bus = b
	}
}

// WithDebugOverlay adds entity and traffic counters to every frame.
func WithDebugOverlay(enabled bool) Option {
	return func(c *Client) {
		c.debug = enabled
	}
}

// Stats are running counters kept by the client.
type Stats struct {
	Frames    uint64
	Snapshots uint64
	Discarded uint64
	Created   uint64
	Destroyed uint64
}

// Client mirrors server state into a local registry. Update and Render must
// be called from the same goroutine; the inbox is the only thing shared with
// receiver goroutines.
type Client struct {
	registry   *registry.Registry
	reconciler *reconcile.Reconciler
	codec      codec.Codec
	inbox      *transport.Inbox
	renderer   render.Renderer
	bus        bus.EventBus
	lag        time.Duration
	debug      bool
	logger     log.Log

	local    models.Entity
	hasLocal bool

	frames    uint64
	snapshots uint64
	discarded uint64
	created   atomic.Uint64
	destroyed atomic.Uint64
}

// New creates a client reading frames from inbox and drawing with renderer.
func New(c codec.Codec, inbox *transport.Inbox, renderer render.Renderer, opts ...Option) (*Client, error) {
	cl := &Client{
		registry: registry.New(),
		codec:    c,
		inbox:    inbox,
		renderer: renderer,
		lag:      DefaultRenderLag,
		logger:   log.NewNop(),
	}
	for _, opt := range opts {
		opt(cl)
	}
	if cl.bus == nil {
		cl.bus = bus.New()
	}
	if cl.reconciler == nil {
		rec, err := reconcile.New(
			reconcile.WithLogger(cl.logger),
			reconcile.WithEventBus(cl.bus),
		)
		if err != nil {
			return nil, err
		}
		cl.reconciler = rec
	}

	if _, err := cl.bus.Subscribe(reconcile.EventEntityCreated, func(bus.Event) error {
		cl.created.Add(1)
		return nil
	}); err != nil {
		return nil, err
	}
	if _, err := cl.bus.Subscribe(reconcile.EventEntityDestroyed, func(bus.Event) error {
		cl.destroyed.Add(1)
		return nil
	}); err != nil {
		return nil, err
	}
	return cl, nil
}

// Registry exposes the mirrored world.
func (c *Client) Registry() *registry.Registry {
	return c.registry
}

// Bus exposes the event bus. Events dispatched during Update are delivered
// at its end.
func (c *Client) Bus() bus.EventBus {
	return c.bus
}

// Local returns the entity the server assigned to this client, if any yet.
func (c *Client) Local() (models.Entity, bool) {
	return c.local, c.hasLocal
}

// Stats returns the client counters.
func (c *Client) Stats() Stats {
	return Stats{
		Frames:    c.frames,
		Snapshots: c.snapshots,
		Discarded: c.discarded,
		Created:   c.created.Load(),
		Destroyed: c.destroyed.Load(),
	}
}

// Update drains the inbox, applies every frame in arrival order and flushes
// queued events.
func (c *Client) Update() error {
	for _, f := range c.inbox.Drain() {
		if err := c.HandleFrame(f); err != nil {
			return err
		}
	}
	return c.bus.Flush()
}

// HandleFrame decodes and applies one frame. Frames that cannot be decoded or
// carry an unknown opcode are logged and dropped.
func (c *Client) HandleFrame(f transport.Frame) error {
	c.frames++
	p, err := c.codec.Decode(f.Data)
	switch {
	case errors.Is(err, codec.ErrUnknownOpcode):
		c.discarded++
		c.logger.Debug("Ignoring packet", log.Error(err))
		return nil
	case err != nil:
		c.discarded++
		c.logger.Warn("Dropping undecodable frame", log.Int("size", len(f.Data)), log.Error(err))
		return nil
	}

	switch p.Op {
	case snapshot.OpcodeID:
		c.local, c.hasLocal = p.Identity.Entity, true
		c.logger.Info("Assigned entity", log.Uint32("entity", uint32(p.Identity.Entity)))
	case snapshot.OpcodeState:
		c.snapshots++
		at := interp.TimestampOf(f.ReceivedAt)
		res, err := c.reconciler.Apply(c.registry, *p.State, at)
		if err != nil {
			return fmt.Errorf("apply snapshot: %w", err)
		}
		c.logger.Debug("Applied snapshot",
			log.Float64("at", float64(at)),
			log.Int("entities", len(p.State.Entities)),
			log.Int("destroyed", res.Destroyed))
	}
	return nil
}

// Frame samples every drawable entity at now minus the render lag.
func (c *Client) Frame(now time.Time) render.Frame {
	at := interp.TimestampOf(now).Sub(c.lag)
	f := render.Frame{Time: at}

	c.registry.View(reconcile.TypePosition, reconcile.TypeDisplay).Each(func(e models.Entity, components ...models.Component) {
		buf, ok := components[0].(*interp.PositionBuffer)
		if !ok {
			return
		}
		item := render.Item{
			Entity:   e,
			Position: buf.Get(at),
			Local:    c.hasLocal && e == c.local,
		}
		if d, ok := components[1].(*reconcile.Display); ok {
			item.Glyph = d.Glyph
		}
		f.Items = append(f.Items, item)
	})

	if c.debug {
		stats := c.Stats()
		f.Overlay = []string{
			fmt.Sprintf("entities %d  drawn %d  fingerprint %016x", c.registry.Size(), len(f.Items), c.registry.Fingerprint()),
			fmt.Sprintf("snapshots %d  created %d  destroyed %d  dropped %d", stats.Snapshots, stats.Created, stats.Destroyed, c.inbox.Dropped()),
		}
	}
	return f
}

// Render draws the frame for now.
func (c *Client) Render(now time.Time) error {
	return c.renderer.Render(c.Frame(now))
}
