package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/zeusync/worldmirror/internal/core/snapshot"
	"github.com/zeusync/worldmirror/pkg/generic"
)

var buffers = generic.NewPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset)

// JSONCodec serializes envelopes as JSON text. Numbers decode as float64.
type JSONCodec struct{}

// NewJSON returns a JSON codec.
func NewJSON() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Name() string {
	return NameJSON
}

// Encode converts a packet into a JSON frame.
func (c *JSONCodec) Encode(p snapshot.Packet) ([]byte, error) {
	env, err := toWire(p)
	if err != nil {
		return nil, err
	}
	buf := buffers.Get()
	defer buffers.Put(buf)
	if err = json.NewEncoder(buf).Encode(env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	// Encode appends a newline.
	return bytes.Clone(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})), nil
}

// Decode converts a JSON frame back into a packet.
func (c *JSONCodec) Decode(data []byte) (snapshot.Packet, error) {
	var env map[string]any
	if err := json.Unmarshal(data, &env); err != nil {
		return snapshot.Packet{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return fromWire(env)
}
