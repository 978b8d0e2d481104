package transport

import "errors"

var (
	ErrClosed           = errors.New("transport: connection closed by server")
	ErrFrameTooLarge    = errors.New("transport: frame too large")
	ErrUnknownTransport = errors.New("transport: unknown transport")
)
