package injector

import (
	"github.com/zeusync/worldmirror/internal/client"
	"github.com/zeusync/worldmirror/internal/codec"
	"github.com/zeusync/worldmirror/internal/config"
	"github.com/zeusync/worldmirror/internal/core/events/bus"
	"github.com/zeusync/worldmirror/internal/core/observability/log"
	"github.com/zeusync/worldmirror/internal/core/reconcile"
	"github.com/zeusync/worldmirror/internal/loop"
	"github.com/zeusync/worldmirror/internal/render"
	"github.com/zeusync/worldmirror/internal/transport"
)

// ProvideCodec resolves the configured codec.
func ProvideCodec(cfg config.Config) (codec.Codec, error) {
	return codec.ByName(cfg.Server.Codec)
}

// ProvideClient assembles the client around the shared bus and reconciler.
func ProvideClient(
	cfg config.Config,
	c codec.Codec,
	inbox *transport.Inbox,
	renderer render.Renderer,
	reconciler *reconcile.Reconciler,
	b bus.EventBus,
	logger log.Log,
) (*client.Client, error) {
	return client.New(c, inbox, renderer,
		client.WithRenderLag(cfg.Sync.RenderLag),
		client.WithReconciler(reconciler),
		client.WithEventBus(b),
		client.WithLogger(logger),
		client.WithDebugOverlay(cfg.Debug),
	)
}

// ProvideLogger builds the logger described by cfg.
func ProvideLogger(cfg config.Config) log.Log {
	return cfg.Logger()
}

// ProvideInbox sizes the inbox from cfg.
func ProvideInbox(cfg config.Config) *transport.Inbox {
	return transport.NewInbox(cfg.Sync.InboxSize)
}

// ProvideReceiver selects the transport from cfg.
func ProvideReceiver(cfg config.Config, logger log.Log) (transport.Receiver, error) {
	return transport.New(cfg.Server, logger)
}

// ProvideEventBus creates the client event bus.
func ProvideEventBus() bus.EventBus {
	return bus.New()
}

// ProvideReconciler builds the reconciler with the configured buffer capacity.
func ProvideReconciler(cfg config.Config, logger log.Log, b bus.EventBus) (*reconcile.Reconciler, error) {
	return reconcile.New(
		reconcile.WithBufferCapacity(cfg.Sync.BufferCapacity),
		reconcile.WithLogger(logger),
		reconcile.WithEventBus(b),
	)
}

// ProvideLoop builds the game loop from cfg.
func ProvideLoop(cfg config.Config) *loop.Loop {
	return loop.New(loop.Config{
		UpdateRate:            cfg.Loop.UpdateRate,
		MaxConsecutiveUpdates: cfg.Loop.MaxConsecutiveUpdates,
		FrameRate:             cfg.Loop.FrameRate,
	})
}
