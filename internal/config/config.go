// Package config loads the mirror client configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/zeusync/worldmirror/internal/codec"
	"github.com/zeusync/worldmirror/internal/core/observability/log"
	"gopkg.in/yaml.v3"
)

// Transport names.
const (
	TransportWebSocket = "websocket"
	TransportQUIC      = "quic"
)

// Config is the full client configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Sync   SyncConfig   `yaml:"sync"`
	Loop   LoopConfig   `yaml:"loop"`
	Log    LogConfig    `yaml:"log"`
	Debug  bool         `yaml:"debug"`
}

// ServerConfig describes how to reach the snapshot server.
type ServerConfig struct {
	URL       string `yaml:"url"`
	Transport string `yaml:"transport"`
	Codec     string `yaml:"codec"`
	// Insecure skips TLS verification on QUIC connections.
	Insecure     bool `yaml:"insecure"`
	MaxFrameSize int  `yaml:"max_frame_size"`
}

// SyncConfig tunes reconciliation and interpolation.
type SyncConfig struct {
	RenderLag      time.Duration `yaml:"render_lag"`
	BufferCapacity int           `yaml:"buffer_capacity"`
	InboxSize      int           `yaml:"inbox_size"`
}

// LoopConfig tunes the game loop.
type LoopConfig struct {
	UpdateRate            int `yaml:"update_rate"`
	MaxConsecutiveUpdates int `yaml:"max_consecutive_updates"`
	FrameRate             int `yaml:"frame_rate"`
}

// LogConfig selects the log level and destination. An empty File logs to stderr.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			URL:          "ws://localhost:8001/",
			Transport:    TransportWebSocket,
			Codec:        codec.NameJSON,
			MaxFrameSize: 1 << 20,
		},
		Sync: SyncConfig{
			RenderLag:      50 * time.Millisecond,
			BufferCapacity: 5,
			InboxSize:      64,
		},
		Loop: LoopConfig{
			UpdateRate:            30,
			MaxConsecutiveUpdates: 5,
			FrameRate:             60,
		},
		Log: LogConfig{
			Level: "info",
		},
		Debug: true,
	}
}

// Load reads YAML from r on top of the defaults and validates the result.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile loads the configuration at path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Load(bytes.NewReader(data))
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Server.Transport {
	case TransportWebSocket, TransportQUIC:
	default:
		return invalid("server.transport", c.Server.Transport)
	}
	if _, err := codec.ByName(c.Server.Codec); err != nil {
		return invalid("server.codec", c.Server.Codec)
	}
	if c.Server.URL == "" {
		return invalid("server.url", c.Server.URL)
	}
	if c.Server.MaxFrameSize <= 0 {
		return invalid("server.max_frame_size", c.Server.MaxFrameSize)
	}
	if c.Sync.RenderLag < 0 {
		return invalid("sync.render_lag", c.Sync.RenderLag)
	}
	if c.Sync.BufferCapacity <= 0 {
		return invalid("sync.buffer_capacity", c.Sync.BufferCapacity)
	}
	if c.Sync.InboxSize <= 0 {
		return invalid("sync.inbox_size", c.Sync.InboxSize)
	}
	if c.Loop.UpdateRate <= 0 {
		return invalid("loop.update_rate", c.Loop.UpdateRate)
	}
	if c.Loop.MaxConsecutiveUpdates <= 0 {
		return invalid("loop.max_consecutive_updates", c.Loop.MaxConsecutiveUpdates)
	}
	if c.Loop.FrameRate <= 0 {
		return invalid("loop.frame_rate", c.Loop.FrameRate)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", c.Log.Level)
	}
	return nil
}

// LogLevel returns the parsed log level. Validate guarantees it parses.
func (c Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.LevelInfo
	}
	return level
}

// Logger builds the logger described by the log section.
func (c Config) Logger() *log.Logger {
	if c.Log.File != "" {
		return log.NewFile(c.LogLevel(), c.Log.File)
	}
	return log.New(c.LogLevel())
}

func invalid(field string, value any) error {
	return fmt.Errorf("%w: %s = %v", ErrInvalidConfig, field, value)
}
