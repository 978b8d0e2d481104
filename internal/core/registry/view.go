package registry

import (
	"iter"
	"slices"

	"github.com/zeusync/worldmirror/internal/core/models"
	"github.com/zeusync/worldmirror/pkg/sequence"
)

var _ models.Iterator[Row] = (*viewIterator)(nil)

// Row is one entity yielded by a View with its components in the requested type order.
type Row struct {
	Entity     models.Entity
	Components []models.Component
}

// View is a restartable, lazy query over a Registry.
//
// Every iteration copies the live entity set when it starts and resolves
// components per entity as it goes, so the registry may be mutated from inside
// the loop. Entities destroyed before they are reached are skipped. An empty
// type list yields every live entity with no components.
type View struct {
	registry *Registry
	types    []string
}

// Types returns the component types the view requires.
func (v *View) Types() []string {
	return slices.Clone(v.types)
}

// All yields each matching entity with its components.
func (v *View) All() iter.Seq2[models.Entity, []models.Component] {
	return func(yield func(models.Entity, []models.Component) bool) {
		for _, e := range v.registry.entities.snapshot() {
			components, ok := v.resolve(e)
			if !ok {
				continue
			}
			if !yield(e, components) {
				return
			}
		}
	}
}

// Rows yields each matching entity as a Row.
func (v *View) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for e, components := range v.All() {
			if !yield(Row{Entity: e, Components: components}) {
				return
			}
		}
	}
}

// Each calls fn once per matching entity, passing the components in the
// same order as the requested types.
func (v *View) Each(fn func(e models.Entity, components ...models.Component)) {
	for e, components := range v.All() {
		fn(e, components...)
	}
}

// Sequence exposes the view as a chainable sequence.
func (v *View) Sequence() *sequence.Iterator[Row] {
	return sequence.FromSeq(v.Rows())
}

// Iterator returns a pull-style iterator over the view.
func (v *View) Iterator() models.Iterator[Row] {
	return &viewIterator{view: v, entities: v.registry.entities.snapshot(), cursor: -1}
}

// Entities returns the matching entities in iteration order.
func (v *View) Entities() []models.Entity {
	return sequence.Map(v.Sequence(), func(row Row) models.Entity { return row.Entity }).Collect()
}

// Count returns the number of matching entities.
func (v *View) Count() int {
	return v.Sequence().Count()
}

// resolve looks up the requested components for e, stopping at the first
// missing type.
func (v *View) resolve(e models.Entity) ([]models.Component, bool) {
	r := v.registry
	if !r.entities.has(e) {
		return nil, false
	}
	if len(v.types) == 0 {
		return nil, true
	}
	components := make([]models.Component, len(v.types))
	for i, typ := range v.types {
		c, ok := r.components[typ][e]
		if !ok {
			return nil, false
		}
		components[i] = c
	}
	return components, true
}

type viewIterator struct {
	view     *View
	entities []models.Entity
	cursor   int
	current  Row
	closed   bool
}

func (it *viewIterator) Next() bool {
	if it.closed {
		return false
	}
	for it.cursor+1 < len(it.entities) {
		it.cursor++
		e := it.entities[it.cursor]
		if components, ok := it.view.resolve(e); ok {
			it.current = Row{Entity: e, Components: components}
			return true
		}
	}
	it.current = Row{}
	return false
}

func (it *viewIterator) Item() Row {
	return it.current
}

func (it *viewIterator) Error() error {
	return nil
}

func (it *viewIterator) Close() error {
	it.closed = true
	it.entities = nil
	return nil
}

// ToSlice drains the remaining rows.
func (it *viewIterator) ToSlice() []Row {
	var out []Row
	for it.Next() {
		out = append(out, it.Item())
	}
	return out
}

// Count drains the iterator and returns the number of remaining rows.
func (it *viewIterator) Count() int {
	n := 0
	for it.Next() {
		n++
	}
	return n
}
