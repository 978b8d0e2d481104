package injector

import (
	"context"

	"github.com/zeusync/worldmirror/internal/client"
	"github.com/zeusync/worldmirror/internal/config"
	"github.com/zeusync/worldmirror/internal/core/observability/log"
	"github.com/zeusync/worldmirror/internal/loop"
	"github.com/zeusync/worldmirror/internal/transport"
	"golang.org/x/sync/errgroup"
)

// App is the assembled mirror client.
type App struct {
	Config   config.Config
	Logger   log.Log
	Client   *client.Client
	Receiver transport.Receiver
	Inbox    *transport.Inbox
	Loop     *loop.Loop
}

// Run starts the receiver and the game loop, plus any extra tasks, and
// returns when ctx is done or the first of them fails.
func (a *App) Run(ctx context.Context, extra ...func(ctx context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Receiver.Run(ctx, a.Inbox.Push)
	})
	g.Go(func() error {
		return a.Loop.Run(ctx, a.Client.Update, a.Client.Render)
	})
	for _, task := range extra {
		g.Go(func() error {
			return task(ctx)
		})
	}

	a.Logger.Info("Client started",
		log.String("url", a.Config.Server.URL),
		log.String("transport", a.Config.Server.Transport),
		log.String("codec", a.Config.Server.Codec),
		log.Duration("render_lag", a.Config.Sync.RenderLag),
		log.Bool("debug", a.Config.Debug))
	return g.Wait()
}
