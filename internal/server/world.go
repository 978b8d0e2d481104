package server

import (
	"math"
	"slices"
	"sync"
	"time"

	"github.com/zeusync/worldmirror/internal/core/models"
	"github.com/zeusync/worldmirror/internal/core/reconcile"
	"github.com/zeusync/worldmirror/internal/core/snapshot"
	"github.com/zeusync/worldmirror/internal/core/vmath"
)

// body is one simulated entity moving on a circle.
type body struct {
	id     models.Entity
	player bool
	center vmath.Vec2
	radius float64
	// speed in radians per second
	speed float64
	phase float64
}

func (b body) position(elapsed float64) vmath.Vec2 {
	angle := b.phase + b.speed*elapsed
	return b.center.Add(vmath.Vec2{X: math.Cos(angle), Y: math.Sin(angle)}.Scale(b.radius))
}

// World is the authoritative demo simulation: a few bodies orbiting the
// origin plus one body per connected player. Every dropEvery steps the oldest
// non-player body is replaced by a new one so clients see entities vanish.
type World struct {
	mu        sync.Mutex
	bodies    []body
	next      models.Entity
	elapsed   float64
	steps     int
	dropEvery int
}

// NewWorld creates a world with n orbiting bodies. dropEvery <= 0 disables
// replacement.
func NewWorld(n, dropEvery int) *World {
	w := &World{dropEvery: dropEvery}
	for i := 0; i < n; i++ {
		w.spawn(false)
	}
	return w
}

// Join adds a body for a new player and returns its entity.
func (w *World) Join() models.Entity {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spawn(true)
}

// Leave removes e from the world.
func (w *World) Leave(e models.Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bodies = slices.DeleteFunc(w.bodies, func(b body) bool { return b.id == e })
}

// Step advances the simulation by dt.
func (w *World) Step(dt time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.elapsed += dt.Seconds()
	w.steps++
	if w.dropEvery <= 0 || w.steps%w.dropEvery != 0 {
		return
	}
	idx := slices.IndexFunc(w.bodies, func(b body) bool { return !b.player })
	if idx < 0 {
		return
	}
	w.bodies = slices.Delete(w.bodies, idx, idx+1)
	w.spawn(false)
}

// Snapshot describes every body with a position patch.
func (w *World) Snapshot() snapshot.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := snapshot.Snapshot{Entities: make([]snapshot.EntityState, 0, len(w.bodies))}
	for _, b := range w.bodies {
		snap.Entities = append(snap.Entities, snapshot.EntityState{
			ID:         b.id,
			Components: snapshot.Patches{reconcile.WirePosition: b.position(w.elapsed)},
		})
	}
	return snap
}

// Entities returns the live entities in spawn order.
func (w *World) Entities() []models.Entity {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := make([]models.Entity, len(w.bodies))
	for i, b := range w.bodies {
		ids[i] = b.id
	}
	return ids
}

func (w *World) spawn(player bool) models.Entity {
	id := w.next
	w.next++
	n := float64(id)
	b := body{
		id:     id,
		player: player,
		radius: 4 + math.Mod(n*3, 8),
		speed:  0.5 + math.Mod(n*0.37, 1),
		phase:  n * 1.3,
	}
	if player {
		b.radius = 2
		b.speed = 1.5
	}
	w.bodies = append(w.bodies, b)
	return id
}
