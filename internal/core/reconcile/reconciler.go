// Package reconcile mirrors authoritative server snapshots into a local
// registry. Each snapshot is a complete description of the world: entities it
// names are created or updated, managed components it omits are removed and
// entities it does not name are destroyed.
package reconcile

import (
	"fmt"

	"github.com/zeusync/worldmirror/internal/core/events/bus"
	"github.com/zeusync/worldmirror/internal/core/interp"
	"github.com/zeusync/worldmirror/internal/core/models"
	"github.com/zeusync/worldmirror/internal/core/observability/log"
	"github.com/zeusync/worldmirror/internal/core/registry"
	"github.com/zeusync/worldmirror/internal/core/snapshot"
	"github.com/zeusync/worldmirror/pkg/sequence"
)

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithHandlers replaces the component handlers.
func WithHandlers(handlers ...Handler) Option {
	return func(r *Reconciler) {
		r.handlers = handlers
	}
}

// WithAttachments replaces the attachments added to patched entities.
func WithAttachments(attachments ...Attachment) Option {
	return func(r *Reconciler) {
		r.attachments = attachments
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger log.Log) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithEventBus makes the reconciler queue lifecycle events on b with
// Dispatch. They are delivered on the bus's next Flush.
func WithEventBus(b bus.EventBus) Option {
	return func(r *Reconciler) {
		r.bus = b
	}
}

// WithBufferCapacity sets the capacity of the default position handler.
// It has no effect when WithHandlers is also given.
func WithBufferCapacity(capacity int) Option {
	return func(r *Reconciler) {
		r.capacity = capacity
	}
}

// Result counts what a single Apply did.
type Result struct {
	Created   int
	Updated   int
	Removed   int
	Destroyed int
	Skipped   int
}

// Reconciler applies snapshots to a registry.
type Reconciler struct {
	handlers    []Handler
	attachments []Attachment
	capacity    int
	logger      log.Log
	bus         bus.EventBus
}

// New creates a Reconciler. Without options it manages positions through
// interpolation buffers and attaches a Display to every patched entity. Handlers
// not built with NewHandler are rejected with ErrInvalidHandler.
func New(opts ...Option) (*Reconciler, error) {
	r := &Reconciler{
		capacity:    interp.DefaultCapacity,
		attachments: []Attachment{DisplayAttachment()},
		logger:      log.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handlers == nil {
		r.handlers = []Handler{PositionHandler(r.capacity)}
	}

	for i, h := range r.handlers {
		if h.Key == "" || h.Type == "" || h.decode == nil || h.construct == nil || h.update == nil {
			return nil, fmt.Errorf("%w: handler %d (key %q, type %q)", ErrInvalidHandler, i, h.Key, h.Type)
		}
	}
	for i, a := range r.attachments {
		if a.Type == "" || a.Construct == nil {
			return nil, fmt.Errorf("%w: attachment %d (type %q)", ErrInvalidAttachment, i, a.Type)
		}
	}
	return r, nil
}

// Handlers returns the configured handlers.
func (r *Reconciler) Handlers() []Handler {
	return r.handlers
}

// Apply makes reg mirror snap. at is the local receive time of the snapshot
// and stamps every position sample taken from it.
//
// Malformed component patches are logged and skipped. A registry error aborts
// the pass and is returned; entities already processed keep their new state.
func (r *Reconciler) Apply(reg *registry.Registry, snap snapshot.Snapshot, at interp.Timestamp) (Result, error) {
	var res Result
	seen := make(map[models.Entity]struct{}, len(snap.Entities))

	for _, state := range snap.Entities {
		id := state.ID
		if reg.Alive(id) {
			res.Updated++
			r.logger.Debug("updating entity", log.Stringer("entity", id))
		} else {
			if err := reg.Insert(id); err != nil {
				return res, err
			}
			res.Created++
			r.logger.Debug("creating entity", log.Stringer("entity", id))
			r.dispatch(EventEntityCreated, EntityEvent{Entity: id})
		}

		if state.HasPatches() {
			if err := r.patch(reg, id, state.Components, at, &res); err != nil {
				return res, err
			}
		}
		seen[id] = struct{}{}
	}

	stale := sequence.Map(
		reg.View().Sequence().Filter(func(row registry.Row) bool {
			_, ok := seen[row.Entity]
			return !ok
		}),
		func(row registry.Row) models.Entity { return row.Entity },
	).Collect()
	for _, e := range stale {
		reg.Destroy(e)
		res.Destroyed++
		r.logger.Debug("deleting entity", log.Stringer("entity", e))
		r.dispatch(EventEntityDestroyed, EntityEvent{Entity: e})
	}

	r.logger.Debug("snapshot applied",
		log.Int("created", res.Created),
		log.Int("updated", res.Updated),
		log.Int("removed", res.Removed),
		log.Int("destroyed", res.Destroyed),
		log.Int("skipped", res.Skipped),
		log.Uint64("fingerprint", reg.Fingerprint()),
	)
	return res, nil
}

func (r *Reconciler) patch(reg *registry.Registry, id models.Entity, patches snapshot.Patches, at interp.Timestamp, res *Result) error {
	for _, a := range r.attachments {
		if _, err := reg.GetOrEmplace(a.Type, id, func() models.Component {
			return a.Construct(id)
		}); err != nil {
			return err
		}
	}

	for _, h := range r.handlers {
		raw, present := patches[h.Key]
		if !present || raw == nil {
			if !reg.Has(h.Type, id) {
				continue
			}
			if err := reg.Remove(h.Type, id); err != nil {
				return err
			}
			res.Removed++
			r.dispatch(EventComponentRemoved, ComponentEvent{Entity: id, Type: h.Type})
			continue
		}

		value, err := h.decode(raw)
		if err != nil {
			res.Skipped++
			r.logger.Warn("skipping malformed component patch",
				log.Stringer("entity", id),
				log.String("component", h.Type),
				log.Error(err),
			)
			continue
		}
		if err = reg.EmplaceOrUpdate(h.Type, id,
			func() models.Component {
				return h.construct(value, at)
			},
			func(current models.Component) models.Component {
				return h.update(current, value, at)
			},
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) dispatch(typ string, data any) {
	if r.bus == nil {
		return
	}
	r.bus.Dispatch(bus.NewEvent(typ, EventSource, data))
}
