package models

import "strconv"

// Entity is an opaque identifier grouping zero or more components.
//
// The low 16 bits hold the slot index and the high 16 bits are reserved for a
// generation counter. Nothing recycles indices yet, so the generation is
// always zero for sequence-allocated entities; server-assigned identifiers are
// taken verbatim.
type Entity uint32

const (
	indexBits   = 16
	indexMask   = 1<<indexBits - 1
	versionMask = ^Entity(indexMask)
)

// MakeEntity packs an index and a generation into an Entity.
func MakeEntity(index, version uint16) Entity {
	return Entity(version)<<indexBits | Entity(index)
}

// Index returns the slot index of the entity.
func (e Entity) Index() uint16 {
	return uint16(e & indexMask)
}

// Version returns the generation stored in the high bits.
func (e Entity) Version() uint16 {
	return uint16((e & versionMask) >> indexBits)
}

// String prints the raw identifier. Generations are not managed, so a
// server-assigned id above the index range is not split.
func (e Entity) String() string {
	return strconv.FormatUint(uint64(e), 10)
}

// Component is any value stored under a component type name.
type Component = any
