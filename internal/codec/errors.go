package codec

import "errors"

var (
	ErrDecode        = errors.New("codec: malformed frame")
	ErrEncode        = errors.New("codec: cannot encode packet")
	ErrUnknownOpcode = errors.New("codec: unknown opcode")
	ErrUnknownCodec  = errors.New("codec: unknown codec")
)
