package codec

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/hashicorp/go-msgpack/v2/codec"
	"github.com/zeusync/worldmirror/internal/core/snapshot"
)

// MsgpackCodec serializes envelopes as MessagePack. Nested maps decode as
// map[string]any and strings as string, matching what the JSON codec yields.
type MsgpackCodec struct {
	handle *codec.MsgpackHandle
}

// NewMsgpack returns a MessagePack codec.
func NewMsgpack() *MsgpackCodec {
	h := &codec.MsgpackHandle{}
	h.MapType = reflect.TypeOf(map[string]any(nil))
	h.RawToString = true
	h.WriteExt = true
	return &MsgpackCodec{handle: h}
}

func (c *MsgpackCodec) Name() string {
	return NameMsgpack
}

// Encode converts a packet into a MessagePack frame.
func (c *MsgpackCodec) Encode(p snapshot.Packet) ([]byte, error) {
	env, err := toWire(p)
	if err != nil {
		return nil, err
	}
	buf := buffers.Get()
	defer buffers.Put(buf)
	if err = codec.NewEncoder(buf, c.handle).Encode(env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Decode converts a MessagePack frame back into a packet.
func (c *MsgpackCodec) Decode(data []byte) (snapshot.Packet, error) {
	var env map[string]any
	if err := codec.NewDecoderBytes(data, c.handle).Decode(&env); err != nil {
		return snapshot.Packet{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return fromWire(env)
}
