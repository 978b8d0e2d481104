package injector

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/worldmirror/internal/config"
	"github.com/zeusync/worldmirror/internal/core/observability/log"
	"github.com/zeusync/worldmirror/internal/render"
	"github.com/zeusync/worldmirror/internal/server"
)

func TestInitializeAppRejectsUnknownCodec(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Codec = "xml"
	_, err := InitializeApp(cfg, render.Func(func(render.Frame) error { return nil }))
	assert.Error(t, err)
}

func TestAppMirrorsServer(t *testing.T) {
	srvCfg := server.DefaultServerConfig()
	srvCfg.Entities = 3
	srvCfg.DropEvery = 0
	srv, err := server.NewServer(srvCfg, log.NewNop())
	require.NoError(t, err)
	hs := httptest.NewServer(srv.Handler())
	defer hs.Close()

	cfg := config.Default()
	cfg.Server.URL = "ws" + strings.TrimPrefix(hs.URL, "http")
	cfg.Log.Level = "silent"
	cfg.Loop.UpdateRate = 100
	cfg.Loop.FrameRate = 100

	frames := make(chan render.Frame, 256)
	app, err := InitializeApp(cfg, render.Func(func(f render.Frame) error {
		select {
		case frames <- f:
		default:
		}
		return nil
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return srv.Hub().Len() == 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, srv.Tick(100*time.Millisecond))

	var last render.Frame
	require.Eventually(t, func() bool {
		for {
			select {
			case f := <-frames:
				last = f
			default:
				return len(last.Items) == 4
			}
		}
	}, 5*time.Second, 10*time.Millisecond)

	local := 0
	for _, item := range last.Items {
		if item.Local {
			local++
		}
	}
	assert.Equal(t, 1, local)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
