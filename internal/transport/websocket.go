package transport

import (
	"context"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/zeusync/worldmirror/internal/core/observability/log"
)

// WebSocketReceiver reads binary or text frames from a WebSocket endpoint.
type WebSocketReceiver struct {
	url          string
	dialer       *websocket.Dialer
	maxFrameSize int
	logger       log.Log
}

// NewWebSocketReceiver creates a receiver for url.
func NewWebSocketReceiver(url string, maxFrameSize int, logger log.Log) *WebSocketReceiver {
	return &WebSocketReceiver{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   4096,
			WriteBufferSize:  1024,
		},
		maxFrameSize: maxFrameSize,
		logger:       logger.With(log.String("transport", "websocket")),
	}
}

func (r *WebSocketReceiver) Run(ctx context.Context, deliver Deliver) error {
	logger := r.logger.With(log.String("session", uuid.NewString()), log.String("url", r.url))

	conn, _, err := r.dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return errors.Wrapf(err, "dial %s", r.url)
	}
	defer func() { _ = conn.Close() }()
	conn.SetReadLimit(int64(r.maxFrameSize))

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	logger.Info("Connected to server")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("Disconnected")
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Info("Server closed connection")
				return errors.Wrap(ErrClosed, "websocket")
			}
			return errors.Wrap(err, "read websocket frame")
		}

		logger.Debug("Frame received",
			log.Int("size", len(data)),
			log.Uint64("digest", xxhash.Sum64(data)))
		deliver(Frame{Data: data, ReceivedAt: time.Now()})
	}
}
