// Package registry holds the client-side mirror of server entities and their
// components. Component storage is keyed by caller-chosen type names and holds
// values of any type; typed access goes through GetAs and EmplaceOrUpdateAs.
//
// A Registry is not safe for concurrent use. Callers marshal all access onto a
// single goroutine.
package registry

import (
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/worldmirror/internal/core/models"
)

// Constructor builds the initial value of a component.
type Constructor func() models.Component

// Updater receives the stored component and returns the value to keep.
// Pointer components are usually mutated in place and returned as-is.
type Updater func(current models.Component) models.Component

// Registry owns the set of live entities and one entity->value map per component type.
type Registry struct {
	sequence   models.Entity
	entities   entitySet
	components map[string]map[models.Entity]models.Component
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entities:   newEntitySet(),
		components: make(map[string]map[models.Entity]models.Component),
	}
}

// Create allocates the next sequence identifier and marks it live.
// Identifiers already made live through Insert are skipped.
func (r *Registry) Create() models.Entity {
	for r.entities.has(r.sequence) {
		r.sequence++
	}
	e := r.sequence
	r.sequence++
	r.entities.add(e)
	return e
}

// Insert marks an externally assigned identifier live.
func (r *Registry) Insert(e models.Entity) error {
	if !r.entities.add(e) {
		return &DuplicateEntityError{Entity: e}
	}
	return nil
}

// Alive reports whether e is live.
func (r *Registry) Alive(e models.Entity) bool {
	return r.entities.has(e)
}

// Destroy removes e and every component it owns. Destroying a dead entity is a no-op.
func (r *Registry) Destroy(e models.Entity) {
	if !r.entities.delete(e) {
		return
	}
	for _, store := range r.components {
		delete(store, e)
	}
}

// Get returns the component of the given type for e. The boolean is false when
// e has no such component.
func (r *Registry) Get(typ string, e models.Entity) (models.Component, bool, error) {
	if !r.entities.has(e) {
		return nil, false, &DeadEntityError{Op: "get", Type: typ, Entity: e}
	}
	c, ok := r.components[typ][e]
	return c, ok, nil
}

// Has reports whether a component of the given type exists for e. Dead
// entities never have components.
func (r *Registry) Has(typ string, e models.Entity) bool {
	_, ok := r.components[typ][e]
	return ok
}

// Emplace stores c as e's component of the given type, replacing any previous value.
func (r *Registry) Emplace(typ string, e models.Entity, c models.Component) error {
	if !r.entities.has(e) {
		return &DeadEntityError{Op: "set", Type: typ, Entity: e}
	}
	r.store(typ)[e] = c
	return nil
}

// EmplaceOrUpdate constructs the component on first sight and hands the stored
// value to update afterwards, so stateful components keep their history.
func (r *Registry) EmplaceOrUpdate(typ string, e models.Entity, construct Constructor, update Updater) error {
	if !r.entities.has(e) {
		return &DeadEntityError{Op: "set", Type: typ, Entity: e}
	}
	store := r.store(typ)
	if current, ok := store[e]; ok {
		store[e] = update(current)
		return nil
	}
	store[e] = construct()
	return nil
}

// GetOrEmplace returns e's component of the given type, constructing and
// storing it first when absent.
func (r *Registry) GetOrEmplace(typ string, e models.Entity, construct Constructor) (models.Component, error) {
	if !r.entities.has(e) {
		return nil, &DeadEntityError{Op: "set", Type: typ, Entity: e}
	}
	store := r.store(typ)
	if current, ok := store[e]; ok {
		return current, nil
	}
	c := construct()
	store[e] = c
	return c, nil
}

// Remove deletes e's component of the given type if present.
func (r *Registry) Remove(typ string, e models.Entity) error {
	if !r.entities.has(e) {
		return &DeadEntityError{Op: "remove", Type: typ, Entity: e}
	}
	if store, ok := r.components[typ]; ok {
		delete(store, e)
	}
	return nil
}

// View returns a lazy view over live entities owning every listed type.
func (r *Registry) View(types ...string) *View {
	return &View{registry: r, types: slices.Clone(types)}
}

// Size returns the number of live entities.
func (r *Registry) Size() int {
	return r.entities.len()
}

// Entities returns the live entities in insertion order.
func (r *Registry) Entities() []models.Entity {
	return r.entities.snapshot()
}

// Types returns the sorted names of every component type that has storage.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.components))
	for typ := range r.components {
		types = append(types, typ)
	}
	slices.Sort(types)
	return types
}

// Clear destroys every entity and drops all component storage. The sequence
// counter keeps running.
func (r *Registry) Clear() {
	r.entities.reset()
	clear(r.components)
}

// Fingerprint digests the live entity set and the component types each
// entity holds. Component values are not part of the digest.
func (r *Registry) Fingerprint() uint64 {
	types := r.Types()
	d := xxhash.New()
	var buf [4]byte
	for _, e := range r.entities.snapshot() {
		binary.LittleEndian.PutUint32(buf[:], uint32(e))
		_, _ = d.Write(buf[:])
		for _, typ := range types {
			if _, ok := r.components[typ][e]; ok {
				_, _ = d.WriteString(typ)
				_, _ = d.Write([]byte{0})
			}
		}
		_, _ = d.Write([]byte{0xFF})
	}
	return d.Sum64()
}

func (r *Registry) store(typ string) map[models.Entity]models.Component {
	store, ok := r.components[typ]
	if !ok {
		store = make(map[models.Entity]models.Component)
		r.components[typ] = store
	}
	return store
}
