package transport_test

import (
	"context"
	"crypto/tls"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/worldmirror/internal/codec"
	"github.com/zeusync/worldmirror/internal/config"
	"github.com/zeusync/worldmirror/internal/core/observability/log"
	"github.com/zeusync/worldmirror/internal/core/snapshot"
	"github.com/zeusync/worldmirror/internal/server"
	"github.com/zeusync/worldmirror/internal/transport"
)

func newServer(t *testing.T) *server.Server {
	t.Helper()
	cfg := server.DefaultServerConfig()
	cfg.Entities = 1
	cfg.DropEvery = 0
	srv, err := server.NewServer(cfg, log.NewNop())
	require.NoError(t, err)
	return srv
}

// collect runs r until it has delivered n frames, then cancels it.
func collect(t *testing.T, r transport.Receiver, srv *server.Server, n int) []transport.Frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	inbox := transport.NewInbox(16)
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, inbox.Push) }()

	require.Eventually(t, func() bool { return inbox.Len() >= 1 }, 5*time.Second, 5*time.Millisecond)
	for i := 1; i < n; i++ {
		require.NoError(t, srv.Tick(100*time.Millisecond))
	}
	require.Eventually(t, func() bool { return inbox.Len() >= n }, 5*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("receiver did not stop")
	}
	return inbox.Drain()
}

func decodeAll(t *testing.T, frames []transport.Frame) []snapshot.Packet {
	t.Helper()
	out := make([]snapshot.Packet, 0, len(frames))
	for _, f := range frames {
		assert.False(t, f.ReceivedAt.IsZero())
		p, err := codec.NewJSON().Decode(f.Data)
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func TestWebSocketReceiver(t *testing.T) {
	srv := newServer(t)
	hs := httptest.NewServer(srv.Handler())
	defer hs.Close()

	url := "ws" + strings.TrimPrefix(hs.URL, "http")
	r := transport.NewWebSocketReceiver(url, 1<<20, log.NewNop())

	packets := decodeAll(t, collect(t, r, srv, 3))
	require.Len(t, packets, 3)
	assert.Equal(t, snapshot.OpcodeID, packets[0].Op)
	assert.Equal(t, snapshot.OpcodeState, packets[1].Op)
	assert.Equal(t, snapshot.OpcodeState, packets[2].Op)
}

func TestWebSocketReceiverServerClose(t *testing.T) {
	srv := newServer(t)
	hs := httptest.NewServer(srv.Handler())
	defer hs.Close()

	url := "ws" + strings.TrimPrefix(hs.URL, "http")
	r := transport.NewWebSocketReceiver(url, 1<<20, log.NewNop())

	inbox := transport.NewInbox(4)
	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background(), inbox.Push) }()

	require.Eventually(t, func() bool { return inbox.Len() == 1 }, 5*time.Second, 5*time.Millisecond)
	srv.Hub().Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, transport.ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("receiver did not stop")
	}
}

func TestWebSocketReceiverDialFailure(t *testing.T) {
	r := transport.NewWebSocketReceiver("ws://127.0.0.1:1/", 1<<20, log.NewNop())
	err := r.Run(context.Background(), func(transport.Frame) {})
	assert.Error(t, err)
}

func TestQUICReceiver(t *testing.T) {
	srv := newServer(t)
	tlsConf, err := server.SelfSignedTLS()
	require.NoError(t, err)

	ln, err := quic.ListenAddr("127.0.0.1:0", tlsConf, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.ServeQUIC(ctx, ln) }()

	r := transport.NewQUICReceiver(ln.Addr().String(), &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // self-signed test certificate
		NextProtos:         []string{transport.ALPN},
		MinVersion:         tls.VersionTLS13,
	}, 1<<20, log.NewNop())

	packets := decodeAll(t, collect(t, r, srv, 3))
	require.Len(t, packets, 3)
	assert.Equal(t, snapshot.OpcodeID, packets[0].Op)
	assert.Equal(t, snapshot.OpcodeState, packets[2].Op)
}

func TestNewSelectsReceiver(t *testing.T) {
	cfg := config.Default().Server

	r, err := transport.New(cfg, log.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &transport.WebSocketReceiver{}, r)

	cfg.Transport = config.TransportQUIC
	cfg.URL = "quic://localhost:8002"
	r, err = transport.New(cfg, log.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &transport.QUICReceiver{}, r)

	cfg.Transport = "smoke"
	_, err = transport.New(cfg, log.NewNop())
	assert.ErrorIs(t, err, transport.ErrUnknownTransport)
}
