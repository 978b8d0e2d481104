package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/worldmirror/internal/core/models"
	"github.com/zeusync/worldmirror/internal/core/observability/log"
	"github.com/zeusync/worldmirror/internal/core/vmath"
)

func TestWorldReplacesOldestBody(t *testing.T) {
	w := NewWorld(3, 2)
	player := w.Join()
	assert.Equal(t, []models.Entity{0, 1, 2, 3}, w.Entities())

	w.Step(100 * time.Millisecond)
	assert.Equal(t, []models.Entity{0, 1, 2, 3}, w.Entities())

	w.Step(100 * time.Millisecond)
	assert.Equal(t, []models.Entity{1, 2, player, 4}, w.Entities())

	w.Leave(player)
	assert.Equal(t, []models.Entity{1, 2, 4}, w.Entities())
}

func TestWorldNeverDropsPlayers(t *testing.T) {
	w := NewWorld(0, 1)
	p := w.Join()
	for i := 0; i < 5; i++ {
		w.Step(time.Second)
	}
	assert.Equal(t, []models.Entity{p}, w.Entities())
}

func TestWorldSnapshotMoves(t *testing.T) {
	w := NewWorld(1, 0)
	before, err := vmath.Vec2FromAny(w.Snapshot().Entities[0].Components["p"])
	require.NoError(t, err)

	w.Step(500 * time.Millisecond)
	after, err := vmath.Vec2FromAny(w.Snapshot().Entities[0].Components["p"])
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestHubDropsFramesForFullSessions(t *testing.T) {
	h := NewHub(2, log.NewNop())
	s := h.register(7, []byte("id"))

	h.Broadcast([]byte("a"))
	h.Broadcast([]byte("b"))

	assert.Equal(t, []byte("id"), <-s.send)
	assert.Equal(t, []byte("a"), <-s.send)
	assert.Empty(t, s.send)

	h.unregister(s)
	h.unregister(s)
	_, open := <-s.send
	assert.False(t, open)
	assert.Zero(t, h.Len())
}
