// Package snapshot describes decoded server packets: full world snapshots and
// the identity packet that tells a client which entity it controls.
package snapshot

import "github.com/zeusync/worldmirror/internal/core/models"

// Opcode identifies the kind of a server packet.
type Opcode uint8

const (
	OpcodeID Opcode = iota
	OpcodeState
)

func (o Opcode) String() string {
	switch o {
	case OpcodeID:
		return "ID"
	case OpcodeState:
		return "STATE"
	default:
		return "NULL"
	}
}

// ClientOpcode identifies the kind of a client packet.
type ClientOpcode uint8

const (
	ClientOpcodeInput ClientOpcode = iota
)

func (o ClientOpcode) String() string {
	switch o {
	case ClientOpcodeInput:
		return "INPUT"
	default:
		return "NULL"
	}
}

// Patches maps wire component keys to decoded component data. The values are
// plain structured data as produced by a codec (maps, slices, numbers).
type Patches map[string]any

// EntityState describes one entity in a snapshot. A nil Components means the
// descriptor carries no patch set at all; an empty non-nil map is a patch set
// that omits every component.
type EntityState struct {
	ID         models.Entity
	Components Patches
}

// HasPatches reports whether the descriptor carries a patch set.
func (s EntityState) HasPatches() bool {
	return s.Components != nil
}

// Snapshot is the full server view of the world at one point in time.
// Entities absent from it no longer exist.
type Snapshot struct {
	Entities []EntityState
}

// IDs returns the entity identifiers in snapshot order.
func (s Snapshot) IDs() []models.Entity {
	ids := make([]models.Entity, len(s.Entities))
	for i, e := range s.Entities {
		ids[i] = e.ID
	}
	return ids
}

// Identity is the payload of an ID packet.
type Identity struct {
	Entity models.Entity
}

// Packet is a decoded server packet. Exactly one of Identity and State is set,
// matching Op.
type Packet struct {
	Op       Opcode
	Identity *Identity
	State    *Snapshot
}
