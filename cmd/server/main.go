package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/worldmirror/internal/core/observability/log"
	"github.com/zeusync/worldmirror/internal/server"
)

func main() {
	cfg := server.DefaultServerConfig()
	flag.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "WebSocket listen address")
	flag.StringVar(&cfg.QUICAddr, "quic", cfg.QUICAddr, "QUIC listen address, empty to disable")
	flag.StringVar(&cfg.Codec, "codec", cfg.Codec, "wire codec: json or msgpack")
	flag.IntVar(&cfg.TickRate, "rate", cfg.TickRate, "snapshots per second")
	flag.IntVar(&cfg.Entities, "entities", cfg.Entities, "number of simulated bodies")
	flag.IntVar(&cfg.DropEvery, "drop-every", cfg.DropEvery, "replace a body every N ticks, 0 to disable")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	lvl, err := log.ParseLevel(*level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
	logger := log.New(lvl)
	defer func() { _ = logger.Sync() }()

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("Error creating server", log.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server stopped with error", log.Error(err))
		os.Exit(1)
	}
}
