package registry

import (
	"errors"
	"fmt"

	"github.com/zeusync/worldmirror/internal/core/models"
)

// Registry errors
var (
	ErrDuplicateEntity  = errors.New("duplicate entity")
	ErrDeadEntityAccess = errors.New("dead entity access")
	ErrComponentType    = errors.New("component has unexpected type")
)

// DuplicateEntityError is returned by Insert for an identifier that is already live.
type DuplicateEntityError struct {
	Entity models.Entity
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("cannot re-use entity ID %d", uint32(e.Entity))
}

func (e *DuplicateEntityError) Unwrap() error {
	return ErrDuplicateEntity
}

// DeadEntityError is returned by component operations on an entity that is not live.
type DeadEntityError struct {
	Op     string
	Type   string
	Entity models.Entity
}

func (e *DeadEntityError) Error() string {
	return fmt.Sprintf("cannot %s %q component for dead entity ID %d", e.Op, e.Type, uint32(e.Entity))
}

func (e *DeadEntityError) Unwrap() error {
	return ErrDeadEntityAccess
}
