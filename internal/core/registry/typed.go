package registry

import (
	"fmt"

	"github.com/zeusync/worldmirror/internal/core/models"
)

// GetAs is Get with a checked type assertion. A stored value of another type
// is reported as ErrComponentType.
func GetAs[T any](r *Registry, typ string, e models.Entity) (T, bool, error) {
	var zero T
	c, ok, err := r.Get(typ, e)
	if err != nil || !ok {
		return zero, ok, err
	}
	v, ok := c.(T)
	if !ok {
		return zero, false, fmt.Errorf("%w: %q for entity %d is %T", ErrComponentType, typ, uint32(e), c)
	}
	return v, true, nil
}

// EmplaceOrUpdateAs is the typed form of EmplaceOrUpdate. If the stored value
// is not a T it is replaced by a freshly constructed one.
func EmplaceOrUpdateAs[T any](r *Registry, typ string, e models.Entity, construct func() T, update func(T) T) error {
	return r.EmplaceOrUpdate(typ, e,
		func() models.Component { return construct() },
		func(current models.Component) models.Component {
			v, ok := current.(T)
			if !ok {
				return construct()
			}
			return update(v)
		},
	)
}
