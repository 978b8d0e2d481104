//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/worldmirror/internal/config"
	"github.com/zeusync/worldmirror/internal/render"
)

var clientSet = wire.NewSet(
	ProvideLogger,
	ProvideCodec,
	ProvideInbox,
	ProvideReceiver,
	ProvideEventBus,
	ProvideReconciler,
	ProvideLoop,
	ProvideClient,
	wire.Struct(new(App), "*"),
)

// InitializeApp wires a client App for cfg drawing with renderer.
func InitializeApp(cfg config.Config, renderer render.Renderer) (*App, error) {
	wire.Build(clientSet)
	return nil, nil
}
