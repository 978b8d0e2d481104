package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"github.com/zeusync/worldmirror/internal/config"
	"github.com/zeusync/worldmirror/internal/injector"
	"github.com/zeusync/worldmirror/internal/render"
	"github.com/zeusync/worldmirror/internal/render/term"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	profileMode := flag.String("profile", "", "write a cpu, mem or trace profile to the working directory")
	headless := flag.Bool("headless", false, "print the debug overlay instead of drawing the world")
	flag.Parse()

	if err := run(*configPath, *profileMode, *headless); err != nil && !errors.Is(err, term.ErrQuit) {
		fmt.Fprintln(os.Stderr, "worldmirror:", err)
		os.Exit(1)
	}
}

func run(configPath, profileMode string, headless bool) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return err
		}
	}

	if p := startProfile(profileMode); p != nil {
		defer p.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if headless {
		app, err := injector.InitializeApp(cfg, &printer{every: time.Second})
		if err != nil {
			return err
		}
		return app.Run(ctx)
	}

	screen, err := term.Open(term.DefaultScale)
	if err != nil {
		return err
	}
	defer screen.Close()

	// The screen owns the terminal; only file logging stays on.
	if cfg.Log.File == "" {
		cfg.Log.Level = "silent"
	}
	app, err := injector.InitializeApp(cfg, screen)
	if err != nil {
		return err
	}
	return app.Run(ctx, screen.WaitQuit)
}

func startProfile(mode string) interface{ Stop() } {
	opts := []func(*profile.Profile){profile.ProfilePath("."), profile.NoShutdownHook}
	switch strings.ToLower(mode) {
	case "":
		return nil
	case "cpu":
		opts = append(opts, profile.CPUProfile)
	case "mem":
		opts = append(opts, profile.MemProfile)
	case "trace":
		opts = append(opts, profile.TraceProfile)
	default:
		fmt.Fprintf(os.Stderr, "worldmirror: unknown profile mode %q, profiling disabled\n", mode)
		return nil
	}
	return profile.Start(opts...)
}

// printer is the headless renderer: it prints the overlay at most once per interval.
type printer struct {
	every time.Duration
	last  time.Time
}

func (p *printer) Render(f render.Frame) error {
	now := time.Now()
	if now.Sub(p.last) < p.every {
		return nil
	}
	p.last = now
	fmt.Printf("%d drawn\n", len(f.Items))
	for _, line := range f.Overlay {
		fmt.Println(line)
	}
	return nil
}
