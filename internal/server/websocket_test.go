package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/worldmirror/internal/codec"
	"github.com/zeusync/worldmirror/internal/core/models"
	"github.com/zeusync/worldmirror/internal/core/observability/log"
	"github.com/zeusync/worldmirror/internal/core/snapshot"
)

func newTestServer(t *testing.T, codecName string) (*Server, string) {
	t.Helper()
	cfg := DefaultServerConfig()
	cfg.Codec = codecName
	cfg.Entities = 2
	cfg.DropEvery = 0

	srv, err := NewServer(cfg, log.NewNop())
	require.NoError(t, err)

	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return srv, "ws" + strings.TrimPrefix(hs.URL, "http")
}

func readPacket(t *testing.T, conn *websocket.Conn, c codec.Codec) snapshot.Packet {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	p, err := c.Decode(data)
	require.NoError(t, err)
	return p
}

func TestWebSocketIdentityThenState(t *testing.T) {
	for _, name := range []string{codec.NameJSON, codec.NameMsgpack} {
		t.Run(name, func(t *testing.T) {
			srv, url := newTestServer(t, name)
			c, err := codec.ByName(name)
			require.NoError(t, err)

			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			require.NoError(t, err)
			defer conn.Close()

			id := readPacket(t, conn, c)
			require.Equal(t, snapshot.OpcodeID, id.Op)
			assert.Equal(t, models.Entity(2), id.Identity.Entity)

			require.NoError(t, srv.Tick(100*time.Millisecond))
			state := readPacket(t, conn, c)
			require.Equal(t, snapshot.OpcodeState, state.Op)
			assert.Equal(t, []models.Entity{0, 1, 2}, state.State.IDs())
			for _, e := range state.State.Entities {
				assert.True(t, e.HasPatches())
				assert.Contains(t, e.Components, "p")
			}
		})
	}
}

func TestWebSocketDisconnectRemovesPlayer(t *testing.T) {
	srv, url := newTestServer(t, codec.NameJSON)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	readPacket(t, conn, codec.NewJSON())
	require.Equal(t, 1, srv.Hub().Len())
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return srv.Hub().Len() == 0 && len(srv.Entities()) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubCloseSendsGoingAway(t *testing.T) {
	srv, url := newTestServer(t, codec.NameJSON)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	readPacket(t, conn, codec.NewJSON())

	srv.Hub().Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestNewServerRejectsBadConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Codec = "xml"
	_, err := NewServer(cfg, log.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultServerConfig()
	cfg.TickRate = 0
	_, err = NewServer(cfg, log.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
