package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/worldmirror/internal/core/models"
)

type compA struct{ A int }
type compB struct{ B int }

func populate(t *testing.T) *Registry {
	t.Helper()
	r := New()
	for i := 0; i < 5; i++ {
		e := r.Create()
		if i != 2 {
			require.NoError(t, r.Emplace("a", e, &compA{A: i}))
		}
		if i != 4 {
			require.NoError(t, r.Emplace("b", e, &compB{B: i}))
		}
	}
	return r
}

func TestViewFiltersByAllTypes(t *testing.T) {
	r := populate(t)

	type row struct {
		entity models.Entity
		a      *compA
		b      *compB
	}
	var got []row
	r.View("a", "b").Each(func(e models.Entity, components ...models.Component) {
		require.Len(t, components, 2)
		got = append(got, row{e, components[0].(*compA), components[1].(*compB)})
	})

	expected := []row{
		{0, &compA{0}, &compB{0}},
		{1, &compA{1}, &compB{1}},
		{3, &compA{3}, &compB{3}},
	}
	assert.Equal(t, expected, got)
}

func TestViewComponentOrderFollowsTypes(t *testing.T) {
	r := populate(t)

	for e, components := range r.View("b", "a").All() {
		assert.IsType(t, &compB{}, components[0])
		assert.IsType(t, &compA{}, components[1])
		assert.Equal(t, int(e), components[0].(*compB).B)
	}
}

func TestViewAllEntities(t *testing.T) {
	r := New()
	var expected []models.Entity
	for i := 0; i < 10; i++ {
		expected = append(expected, r.Create())
	}

	var got []models.Entity
	r.View().Each(func(e models.Entity, components ...models.Component) {
		assert.Empty(t, components)
		got = append(got, e)
	})
	assert.Equal(t, expected, got)
}

func TestViewUnknownTypeYieldsNothing(t *testing.T) {
	r := New()
	for i := 0; i < 10; i++ {
		r.Create()
	}
	assert.Zero(t, r.View("test").Count())
	assert.Empty(t, r.View("test").Entities())
}

func TestViewIsLazyAndRestartable(t *testing.T) {
	r := New()
	v := r.View("a")
	assert.Zero(t, v.Count())

	e := r.Create()
	require.NoError(t, r.Emplace("a", e, 1))

	assert.Equal(t, []models.Entity{e}, v.Entities())
	assert.Equal(t, 1, v.Count())
}

func TestViewDestroyDuringIteration(t *testing.T) {
	r := New()
	for i := 0; i < 6; i++ {
		r.Create()
	}

	var visited []models.Entity
	r.View().Each(func(e models.Entity, _ ...models.Component) {
		visited = append(visited, e)
		r.Destroy(e + 1)
		r.Create()
	})

	// created entities are not part of the running snapshot, destroyed ones are skipped
	assert.Equal(t, []models.Entity{0, 2, 4}, visited)
}

func TestViewBreakStopsIteration(t *testing.T) {
	r := populate(t)
	n := 0
	for range r.View("a").All() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestViewSequence(t *testing.T) {
	r := populate(t)

	odd := r.View("a").Sequence().Filter(func(row Row) bool {
		return row.Entity%2 == 1
	}).Collect()

	require.Len(t, odd, 2)
	assert.Equal(t, models.Entity(1), odd[0].Entity)
	assert.Equal(t, models.Entity(3), odd[1].Entity)
}

func TestViewIterator(t *testing.T) {
	r := populate(t)

	it := r.View("a", "b").Iterator()
	defer func() { _ = it.Close() }()

	require.True(t, it.Next())
	assert.Equal(t, models.Entity(0), it.Item().Entity)
	assert.NoError(t, it.Error())
	assert.Equal(t, 2, it.Count())
	assert.False(t, it.Next())

	rows := r.View("b").Iterator().ToSlice()
	assert.Len(t, rows, 4)

	closed := r.View().Iterator()
	require.NoError(t, closed.Close())
	assert.False(t, closed.Next())
}

func TestViewTypesCopied(t *testing.T) {
	types := []string{"a", "b"}
	v := New().View(types...)
	types[0] = "z"
	assert.Equal(t, []string{"a", "b"}, v.Types())
}
