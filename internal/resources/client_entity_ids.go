package resources

import "github.com/ironrose/server/internal/components"

// graceTicks is how many ticks a freed ClientEntity id is held back before
// reuse, satisfying spec.md §3's "recycled... with a grace window ≥ 2 ticks".
const graceTicks = 2

// ClientEntityIdList allocates the compact, zone-scoped network ids
// ClientEntity carries. Each zone gets its own id space starting at 1 (0 is
// reserved as "no target"/"no client entity").
type ClientEntityIdList struct {
	zones map[components.ZoneID]*zoneIDs
}

// pendingRelease is a freed id waiting out its grace window before reuse.
type pendingRelease struct {
	id        uint32
	ticksLeft int
}

type zoneIDs struct {
	next    uint32
	free    []uint32
	pending []pendingRelease
}

func NewClientEntityIdList() *ClientEntityIdList {
	return &ClientEntityIdList{zones: make(map[components.ZoneID]*zoneIDs)}
}

func (c *ClientEntityIdList) zone(z components.ZoneID) *zoneIDs {
	zi, ok := c.zones[z]
	if !ok {
		zi = &zoneIDs{next: 1}
		c.zones[z] = zi
	}
	return zi
}

// Acquire returns the next available ClientEntity id for the zone, reusing
// a freed id only once it has cleared the grace window.
func (c *ClientEntityIdList) Acquire(zone components.ZoneID) uint32 {
	zi := c.zone(zone)
	if len(zi.free) > 0 {
		id := zi.free[len(zi.free)-1]
		zi.free = zi.free[:len(zi.free)-1]
		return id
	}
	id := zi.next
	zi.next++
	return id
}

// Release queues id for reuse after graceTicks have elapsed.
func (c *ClientEntityIdList) Release(zone components.ZoneID, id uint32) {
	zi := c.zone(zone)
	zi.pending = append(zi.pending, pendingRelease{id: id, ticksLeft: graceTicks})
}

// Tick advances every zone's grace countdown by one tick, moving ids whose
// countdown has elapsed onto the free list. Call once per tick.
func (c *ClientEntityIdList) Tick() {
	for _, zi := range c.zones {
		remaining := zi.pending[:0]
		for _, p := range zi.pending {
			p.ticksLeft--
			if p.ticksLeft <= 0 {
				zi.free = append(zi.free, p.id)
			} else {
				remaining = append(remaining, p)
			}
		}
		zi.pending = remaining
	}
}
