// Package transport receives server frames off the game thread.
//
// A Receiver owns one connection and pushes every frame it reads to a
// Deliver callback from its own goroutine. The Inbox is the usual callback:
// it buffers frames until the update tick drains them on the game thread.
package transport

import (
	"context"
	"crypto/tls"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/zeusync/worldmirror/internal/config"
	"github.com/zeusync/worldmirror/internal/core/observability/log"
)

// ALPN is the application protocol negotiated on QUIC connections.
const ALPN = "worldmirror"

// Frame is one raw server frame and the local time it arrived.
type Frame struct {
	Data       []byte
	ReceivedAt time.Time
}

// Deliver receives frames. It is called from the receiver goroutine.
type Deliver func(Frame)

// Receiver reads frames from a server until ctx is cancelled or the
// connection fails. Cancellation returns nil; a server-side close returns an
// error matching ErrClosed.
type Receiver interface {
	Run(ctx context.Context, deliver Deliver) error
}

// New builds the receiver selected by the server section of cfg.
func New(cfg config.ServerConfig, logger log.Log) (Receiver, error) {
	switch cfg.Transport {
	case config.TransportWebSocket:
		return NewWebSocketReceiver(cfg.URL, cfg.MaxFrameSize, logger), nil
	case config.TransportQUIC:
		addr, err := hostPort(cfg.URL)
		if err != nil {
			return nil, err
		}
		tlsConf := &tls.Config{
			NextProtos:         []string{ALPN},
			MinVersion:         tls.VersionTLS13,
			InsecureSkipVerify: cfg.Insecure, //nolint:gosec // opt-in for self-signed development servers
		}
		return NewQUICReceiver(addr, tlsConf, cfg.MaxFrameSize, logger), nil
	default:
		return nil, errors.Wrapf(ErrUnknownTransport, "transport %q", cfg.Transport)
	}
}

// hostPort accepts either a bare host:port or a URL such as quic://host:port/.
func hostPort(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(err, "parse server url")
	}
	if u.Host == "" {
		return "", errors.Errorf("server url %q has no host", raw)
	}
	return u.Host, nil
}
