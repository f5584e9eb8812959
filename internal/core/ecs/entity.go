// Package ecs is the in-memory entity/component store the simulation runs
// on. It is intentionally tiny: a generational entity pool, typed component
// stores, and the queries needed to iterate several components together.
package ecs

// EntityID is the opaque, stable identity spec.md calls "Entity". The lower
// 32 bits are a slot index; the upper 32 bits are a generation counter that
// increments every time the slot is destroyed, so a stale reference captured
// before a destroy is never mistaken for the entity that later reused the
// slot.
type EntityID uint64

func newEntityID(index, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) index() uint32      { return uint32(id) }
func (id EntityID) generation() uint32 { return uint32(id >> 32) }

// IsZero reports whether id is the zero value, used as a "no entity"
// sentinel (e.g. a resolved ClientEntity id of 0 for an absent attack
// target, per spec.md §4.8).
func (id EntityID) IsZero() bool { return id == 0 }

// Pool allocates and recycles EntityIDs with generational indices and a
// free list, so a destroyed slot can be reused without aliasing old refs.
type Pool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
}

func NewPool() *Pool {
	return &Pool{
		generations: make([]uint32, 0, 1024),
		freeList:    make([]uint32, 0, 256),
	}
}

func (p *Pool) Create() EntityID {
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return newEntityID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		// Generations start at 1 so no live entity is the zero "no entity" id.
		p.generations = append(p.generations, 1)
	}
	return newEntityID(idx, p.generations[idx])
}

func (p *Pool) Alive(id EntityID) bool {
	idx := id.index()
	if idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == id.generation()
}

func (p *Pool) Destroy(id EntityID) {
	idx := id.index()
	if idx >= p.nextIndex || p.generations[idx] != id.generation() {
		return // already destroyed, stale reference
	}
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
}

// Count returns the number of currently-alive entities.
func (p *Pool) Count() int {
	return int(p.nextIndex) - len(p.freeList)
}
