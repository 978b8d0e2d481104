// Package server is the authoritative counterpart of the mirror client: it
// simulates a small world and broadcasts full snapshots to every connected
// client over WebSocket and, optionally, QUIC.
package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"
	"github.com/zeusync/worldmirror/internal/codec"
	"github.com/zeusync/worldmirror/internal/core/models"
	"github.com/zeusync/worldmirror/internal/core/observability/log"
	"github.com/zeusync/worldmirror/internal/core/snapshot"
	"github.com/zeusync/worldmirror/internal/transport"
	"golang.org/x/sync/errgroup"
)

// Config holds server configuration
type Config struct {
	// HTTPAddr serves WebSocket clients on "/".
	HTTPAddr string
	// QUICAddr serves QUIC clients. Empty disables QUIC.
	QUICAddr string
	Codec    string

	TickRate int
	// Entities is the number of non-player bodies.
	Entities int
	// DropEvery replaces one non-player body every DropEvery ticks.
	DropEvery int

	SessionQueue int
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		HTTPAddr:     ":8001",
		Codec:        codec.NameJSON,
		TickRate:     10,
		Entities:     4,
		DropEvery:    30,
		SessionQueue: 16,
		WriteTimeout: 5 * time.Second,
	}
}

// Server represents a snapshot broadcasting server
type Server struct {
	config   Config
	codec    codec.Codec
	world    *World
	hub      *Hub
	upgrader websocket.Upgrader
	msgType  int
	running  int32
	logger   log.Log
}

// NewServer validates config and builds a server around a fresh world.
func NewServer(config Config, logger log.Log) (*Server, error) {
	if config.TickRate <= 0 || config.SessionQueue <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "tick rate %d, session queue %d", config.TickRate, config.SessionQueue)
	}
	c, err := codec.ByName(config.Codec)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	logger = logger.With(log.String("component", "server"))
	msgType := websocket.BinaryMessage
	if c.Name() == codec.NameJSON {
		msgType = websocket.TextMessage
	}

	return &Server{
		config: config,
		codec:  c,
		world:  NewWorld(config.Entities, config.DropEvery),
		hub:    NewHub(config.SessionQueue, logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		msgType: msgType,
		logger:  logger,
	}, nil
}

// World exposes the simulation.
func (s *Server) World() *World {
	return s.world
}

// Hub exposes the session hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler serves WebSocket clients on "/".
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWebSocket)
	return mux
}

// Tick advances the world by dt and broadcasts the resulting snapshot.
func (s *Server) Tick(dt time.Duration) error {
	s.world.Step(dt)
	snap := s.world.Snapshot()
	frame, err := s.codec.Encode(snapshot.Packet{Op: snapshot.OpcodeState, State: &snap})
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	s.hub.Broadcast(frame)
	return nil
}

// Run serves clients and broadcasts snapshots until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}
	defer atomic.StoreInt32(&s.running, 0)

	var ln *quic.Listener
	if s.config.QUICAddr != "" {
		tlsConf, err := SelfSignedTLS()
		if err != nil {
			return err
		}
		ln, err = quic.ListenAddr(s.config.QUICAddr, tlsConf, &quic.Config{
			MaxIdleTimeout:  30 * time.Second,
			KeepAlivePeriod: 10 * time.Second,
		})
		if err != nil {
			return errors.Wrap(ErrListenerFailed, err.Error())
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	httpServer := &http.Server{
		Addr:              s.config.HTTPAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		s.logger.Info("Server listening", log.String("addr", s.config.HTTPAddr), log.String("codec", s.codec.Name()),
			log.Duration("tick", time.Second/time.Duration(s.config.TickRate)))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(ErrListenerFailed, err.Error())
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if ln != nil {
		s.logger.Info("QUIC listening", log.String("addr", ln.Addr().String()))
		g.Go(func() error {
			return s.ServeQUIC(ctx, ln)
		})
	}

	g.Go(func() error {
		dt := time.Second / time.Duration(s.config.TickRate)
		ticker := time.NewTicker(dt)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := s.Tick(dt); err != nil {
					return err
				}
			}
		}
	})

	err := g.Wait()
	s.logger.Info("Server stopped")
	return err
}

// join spawns a player body and registers a session primed with its ID packet.
func (s *Server) join() (*session, error) {
	entity := s.world.Join()
	frame, err := s.codec.Encode(snapshot.Packet{
		Op:       snapshot.OpcodeID,
		Identity: &snapshot.Identity{Entity: entity},
	})
	if err != nil {
		s.world.Leave(entity)
		return nil, errors.Wrap(err, "encode identity")
	}
	return s.hub.register(entity, frame), nil
}

func (s *Server) leave(sess *session) {
	s.hub.unregister(sess)
	s.world.Leave(sess.entity)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Upgrade failed", log.String("remote_addr", r.RemoteAddr), log.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	sess, err := s.join()
	if err != nil {
		s.logger.Error("Failed to admit client", log.Error(err))
		return
	}
	defer s.leave(sess)

	// Client input is not simulated; reads only detect disconnects.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case frame, ok := <-sess.send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(time.Second))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := conn.WriteMessage(s.msgType, frame); err != nil {
				s.logger.Debug("Write failed", log.String("session", sess.id), log.Error(err))
				return
			}
		}
	}
}

// ServeQUIC accepts QUIC clients on ln until ctx is cancelled. Each client
// gets one server-opened stream carrying length-prefixed frames.
func (s *Server) ServeQUIC(ctx context.Context, ln *quic.Listener) error {
	defer func() { _ = ln.Close() }()
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "accept quic connection")
		}
		go s.handleQUIC(ctx, conn)
	}
}

func (s *Server) handleQUIC(ctx context.Context, conn *quic.Conn) {
	defer func() { _ = conn.CloseWithError(0, "") }()

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		s.logger.Warn("Failed to open stream", log.Error(err))
		return
	}

	sess, err := s.join()
	if err != nil {
		s.logger.Error("Failed to admit client", log.Error(err))
		return
	}
	defer s.leave(sess)

	go func() {
		<-conn.Context().Done()
		s.hub.unregister(sess)
	}()

	for frame := range sess.send {
		if err := transport.WriteFrame(stream, frame); err != nil {
			s.logger.Debug("Write failed", log.String("session", sess.id), log.Error(err))
			return
		}
	}
	_ = stream.Close()
}

// Entities returns the entities currently simulated.
func (s *Server) Entities() []models.Entity {
	return s.world.Entities()
}
