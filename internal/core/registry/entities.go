package registry

import "github.com/zeusync/worldmirror/internal/core/models"

// entitySet keeps live entities in insertion order. Removal leaves a hole
// that is compacted once holes outnumber live slots.
type entitySet struct {
	slots []slot
	pos   map[models.Entity]int
	holes int
}

type slot struct {
	entity models.Entity
	live   bool
}

func newEntitySet() entitySet {
	return entitySet{pos: make(map[models.Entity]int)}
}

func (s *entitySet) has(e models.Entity) bool {
	_, ok := s.pos[e]
	return ok
}

func (s *entitySet) add(e models.Entity) bool {
	if s.has(e) {
		return false
	}
	s.pos[e] = len(s.slots)
	s.slots = append(s.slots, slot{entity: e, live: true})
	return true
}

func (s *entitySet) delete(e models.Entity) bool {
	i, ok := s.pos[e]
	if !ok {
		return false
	}
	delete(s.pos, e)
	s.slots[i].live = false
	s.holes++
	if s.holes > len(s.pos) {
		s.compact()
	}
	return true
}

func (s *entitySet) compact() {
	n := 0
	for _, sl := range s.slots {
		if !sl.live {
			continue
		}
		s.slots[n] = sl
		s.pos[sl.entity] = n
		n++
	}
	clear(s.slots[n:])
	s.slots = s.slots[:n]
	s.holes = 0
}

func (s *entitySet) len() int {
	return len(s.pos)
}

// snapshot copies the live entities in insertion order.
func (s *entitySet) snapshot() []models.Entity {
	out := make([]models.Entity, 0, len(s.pos))
	for _, sl := range s.slots {
		if sl.live {
			out = append(out, sl.entity)
		}
	}
	return out
}

func (s *entitySet) reset() {
	s.slots = nil
	s.pos = make(map[models.Entity]int)
	s.holes = 0
}
