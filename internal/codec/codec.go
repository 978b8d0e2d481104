// Package codec converts between wire frames and decoded packets.
//
// Every frame is an envelope {o: opcode, d: data}. The concrete format (JSON
// or MessagePack) only decides how that envelope is serialized; both formats
// share the conversion from plain structured data into snapshot packets, so
// component patches reach the reconciler as maps, slices and numbers.
package codec

import (
	"fmt"

	"github.com/zeusync/worldmirror/internal/core/models"
	"github.com/zeusync/worldmirror/internal/core/snapshot"
)

// Codec encodes and decodes whole packets.
type Codec interface {
	// Name is the configuration name of the codec.
	Name() string
	// Encode serializes p into one frame.
	Encode(p snapshot.Packet) ([]byte, error)
	// Decode parses one frame. Unknown opcodes fail with ErrUnknownOpcode,
	// everything else that cannot be parsed with ErrDecode.
	Decode(data []byte) (snapshot.Packet, error)
}

// Names of the built-in codecs.
const (
	NameJSON    = "json"
	NameMsgpack = "msgpack"
)

// ByName returns the built-in codec registered under name.
func ByName(name string) (Codec, error) {
	switch name {
	case NameJSON:
		return NewJSON(), nil
	case NameMsgpack:
		return NewMsgpack(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// Envelope keys.
const (
	keyOpcode   = "o"
	keyData     = "d"
	keyValue    = "v"
	keyEntities = "e"
	keyID       = "i"
	keyPatches  = "c"
)

// toWire builds the plain-data envelope for p.
func toWire(p snapshot.Packet) (map[string]any, error) {
	env := map[string]any{keyOpcode: uint8(p.Op)}
	switch p.Op {
	case snapshot.OpcodeID:
		if p.Identity == nil {
			return nil, fmt.Errorf("%w: ID packet without identity", ErrEncode)
		}
		env[keyData] = map[string]any{keyValue: uint32(p.Identity.Entity)}
	case snapshot.OpcodeState:
		if p.State == nil {
			return nil, fmt.Errorf("%w: STATE packet without snapshot", ErrEncode)
		}
		entities := make([]any, 0, len(p.State.Entities))
		for _, e := range p.State.Entities {
			desc := map[string]any{keyID: uint32(e.ID)}
			if e.HasPatches() {
				desc[keyPatches] = map[string]any(e.Components)
			}
			entities = append(entities, desc)
		}
		env[keyData] = map[string]any{keyEntities: entities}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, p.Op)
	}
	return env, nil
}

// fromWire interprets a decoded envelope.
func fromWire(env map[string]any) (snapshot.Packet, error) {
	rawOp, ok := env[keyOpcode]
	if !ok {
		return snapshot.Packet{}, fmt.Errorf("%w: missing opcode", ErrDecode)
	}
	op, err := toUint32(rawOp)
	if err != nil {
		return snapshot.Packet{}, fmt.Errorf("%w: opcode: %v", ErrDecode, err)
	}
	data, err := toMap(env[keyData])
	if err != nil {
		return snapshot.Packet{}, fmt.Errorf("%w: data: %v", ErrDecode, err)
	}

	switch snapshot.Opcode(op) {
	case snapshot.OpcodeID:
		id, err := toUint32(data[keyValue])
		if err != nil {
			return snapshot.Packet{}, fmt.Errorf("%w: identity: %v", ErrDecode, err)
		}
		return snapshot.Packet{
			Op:       snapshot.OpcodeID,
			Identity: &snapshot.Identity{Entity: models.Entity(id)},
		}, nil
	case snapshot.OpcodeState:
		snap, err := toSnapshot(data[keyEntities])
		if err != nil {
			return snapshot.Packet{}, fmt.Errorf("%w: state: %v", ErrDecode, err)
		}
		return snapshot.Packet{Op: snapshot.OpcodeState, State: snap}, nil
	default:
		return snapshot.Packet{}, fmt.Errorf("%w: %d", ErrUnknownOpcode, op)
	}
}

func toSnapshot(raw any) (*snapshot.Snapshot, error) {
	if raw == nil {
		return &snapshot.Snapshot{}, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("entities: expected list, got %T", raw)
	}
	snap := &snapshot.Snapshot{Entities: make([]snapshot.EntityState, 0, len(list))}
	for i, item := range list {
		desc, err := toMap(item)
		if err != nil {
			return nil, fmt.Errorf("entity %d: %v", i, err)
		}
		id, err := toUint32(desc[keyID])
		if err != nil {
			return nil, fmt.Errorf("entity %d: id: %v", i, err)
		}
		state := snapshot.EntityState{ID: models.Entity(id)}
		if rawPatches, present := desc[keyPatches]; present && rawPatches != nil {
			patches, err := toMap(rawPatches)
			if err != nil {
				return nil, fmt.Errorf("entity %d: components: %v", i, err)
			}
			state.Components = snapshot.Patches(patches)
		}
		snap.Entities = append(snap.Entities, state)
	}
	return snap, nil
}

func toMap(raw any) (map[string]any, error) {
	switch m := raw.(type) {
	case map[string]any:
		return m, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", k)
			}
			out[ks] = v
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("missing object")
	default:
		return nil, fmt.Errorf("expected object, got %T", raw)
	}
}

func toUint32(raw any) (uint32, error) {
	var f float64
	switch n := raw.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		return n, nil
	case uint64:
		f = float64(n)
	case nil:
		return 0, fmt.Errorf("missing number")
	default:
		return 0, fmt.Errorf("expected number, got %T", raw)
	}
	if f < 0 || f > float64(^uint32(0)) || f != float64(uint32(f)) {
		return 0, fmt.Errorf("%v is not a valid identifier", f)
	}
	return uint32(f), nil
}
