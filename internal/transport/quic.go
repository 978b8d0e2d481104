package transport

import (
	"context"
	"crypto/tls"
	"io"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"
	"github.com/zeusync/worldmirror/internal/core/observability/log"
)

// QUICReceiver reads length-prefixed frames from the first stream the
// server opens on a QUIC connection.
type QUICReceiver struct {
	addr         string
	tlsConfig    *tls.Config
	quicConfig   *quic.Config
	maxFrameSize int
	logger       log.Log
}

// NewQUICReceiver creates a receiver for addr (host:port).
func NewQUICReceiver(addr string, tlsConfig *tls.Config, maxFrameSize int, logger log.Log) *QUICReceiver {
	return &QUICReceiver{
		addr:      addr,
		tlsConfig: tlsConfig,
		quicConfig: &quic.Config{
			HandshakeIdleTimeout: 10 * time.Second,
			MaxIdleTimeout:       30 * time.Second,
			KeepAlivePeriod:      10 * time.Second,
		},
		maxFrameSize: maxFrameSize,
		logger:       logger.With(log.String("transport", "quic")),
	}
}

func (r *QUICReceiver) Run(ctx context.Context, deliver Deliver) error {
	logger := r.logger.With(log.String("session", uuid.NewString()), log.String("addr", r.addr))

	conn, err := quic.DialAddr(ctx, r.addr, r.tlsConfig, r.quicConfig)
	if err != nil {
		return errors.Wrapf(err, "dial %s", r.addr)
	}
	defer func() { _ = conn.CloseWithError(0, "client closing") }()

	logger.Info("Connected to server",
		log.String("local_addr", conn.LocalAddr().String()),
		log.String("remote_addr", conn.RemoteAddr().String()))

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Wrap(err, "accept quic stream")
	}

	stop := context.AfterFunc(ctx, func() {
		stream.CancelRead(0)
	})
	defer stop()

	for {
		data, err := ReadFrame(stream, r.maxFrameSize)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("Disconnected")
				return nil
			}
			if errors.Is(err, io.EOF) {
				logger.Info("Server closed stream")
				return errors.Wrap(ErrClosed, "quic")
			}
			return errors.Wrap(err, "read quic frame")
		}

		logger.Debug("Frame received",
			log.Int("size", len(data)),
			log.Uint64("digest", xxhash.Sum64(data)))
		deliver(Frame{Data: data, ReceivedAt: time.Now()})
	}
}
