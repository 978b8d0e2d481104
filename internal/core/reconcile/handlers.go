package reconcile

import (
	"github.com/zeusync/worldmirror/internal/core/interp"
	"github.com/zeusync/worldmirror/internal/core/models"
	"github.com/zeusync/worldmirror/internal/core/vmath"
)

// Component type names managed by the default handlers.
const (
	TypePosition = "position"
	TypeDisplay  = "display"
)

// WirePosition is the snapshot key carrying position patches.
const WirePosition = "p"

// Handler applies one kind of component patch to the registry.
// Handlers must be built with NewHandler; New rejects a zero value.
type Handler struct {
	// Key is the component key in the snapshot patch set.
	Key string
	// Type is the registry component type the handler owns.
	Type string

	decode    func(patch any) (any, error)
	construct func(value any, at interp.Timestamp) models.Component
	update    func(current models.Component, value any, at interp.Timestamp) models.Component
}

// NewHandler builds a Handler from typed functions.
//
// decode turns raw patch data into a T; a decode error marks the patch as
// malformed and it is skipped. construct builds the component the first time
// an entity carries the patch; update folds later patches into the stored
// component and returns the value to keep. A stored value that is not a C is
// replaced by a freshly constructed one.
func NewHandler[T any, C any](
	key, typ string,
	decode func(patch any) (T, error),
	construct func(value T, at interp.Timestamp) C,
	update func(current C, value T, at interp.Timestamp) C,
) Handler {
	return Handler{
		Key:  key,
		Type: typ,
		decode: func(patch any) (any, error) {
			return decode(patch)
		},
		construct: func(value any, at interp.Timestamp) models.Component {
			return construct(value.(T), at)
		},
		update: func(current models.Component, value any, at interp.Timestamp) models.Component {
			c, ok := current.(C)
			if !ok {
				return construct(value.(T), at)
			}
			return update(c, value.(T), at)
		},
	}
}

// PositionHandler keeps an interpolation buffer of positions per entity.
func PositionHandler(capacity int) Handler {
	return NewHandler(WirePosition, TypePosition,
		vmath.Vec2FromAny,
		func(pos vmath.Vec2, at interp.Timestamp) *interp.PositionBuffer {
			return interp.NewPositionBuffer(pos, at, capacity)
		},
		func(buf *interp.PositionBuffer, pos vmath.Vec2, at interp.Timestamp) *interp.PositionBuffer {
			buf.Update(pos, at)
			return buf
		},
	)
}

// Attachment is a component added once to every entity that arrives with a
// patch set and never updated afterwards.
type Attachment struct {
	Type      string
	Construct func(e models.Entity) models.Component
}

// Display marks an entity as drawable. The renderer decides how it looks.
type Display struct {
	Glyph rune
}

// DisplayAttachment attaches a default Display to every patched entity.
func DisplayAttachment() Attachment {
	return Attachment{
		Type: TypeDisplay,
		Construct: func(models.Entity) models.Component {
			return &Display{Glyph: '@'}
		},
	}
}
