package reconcile

import "github.com/zeusync/worldmirror/internal/core/models"

// Event types published while applying snapshots.
const (
	EventEntityCreated    = "entity.created"
	EventEntityDestroyed  = "entity.destroyed"
	EventComponentRemoved = "component.removed"
)

// EventSource is the Source() of every event the reconciler publishes.
const EventSource = "reconcile"

// EntityEvent is the payload of entity.created and entity.destroyed.
type EntityEvent struct {
	Entity models.Entity
}

// ComponentEvent is the payload of component.removed.
type ComponentEvent struct {
	Entity models.Entity
	Type   string
}
