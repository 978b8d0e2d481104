// Package render defines what the client hands to a renderer each frame.
package render

import (
	"github.com/zeusync/worldmirror/internal/core/interp"
	"github.com/zeusync/worldmirror/internal/core/models"
	"github.com/zeusync/worldmirror/internal/core/vmath"
)

// Item is one drawable entity.
type Item struct {
	Entity   models.Entity
	Position vmath.Vec2
	Glyph    rune
	// Local marks the entity this client controls.
	Local bool
}

// Frame is everything drawn for one render tick.
type Frame struct {
	// Time is the interpolated world time, already shifted by the render lag.
	Time  interp.Timestamp
	Items []Item
	// Overlay holds debug lines drawn above the world.
	Overlay []string
}

// Renderer draws frames.
type Renderer interface {
	Render(f Frame) error
}

// Func adapts a function to Renderer.
type Func func(f Frame) error

func (fn Func) Render(f Frame) error {
	return fn(f)
}
