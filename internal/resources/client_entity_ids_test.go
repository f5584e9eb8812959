package resources

import (
	"testing"

	"github.com/ironrose/server/internal/components"
)

func TestClientEntityIdListAcquireIncrementsWithinZone(t *testing.T) {
	c := NewClientEntityIdList()
	zone := components.ZoneID(1)

	a := c.Acquire(zone)
	b := c.Acquire(zone)
	if a == 0 || b == 0 {
		t.Fatalf("ids must be nonzero (0 is reserved), got %d, %d", a, b)
	}
	if a == b {
		t.Fatalf("Acquire returned duplicate ids %d, %d", a, b)
	}
}

func TestClientEntityIdListZonesHaveIndependentIdSpaces(t *testing.T) {
	c := NewClientEntityIdList()
	a := c.Acquire(components.ZoneID(1))
	b := c.Acquire(components.ZoneID(2))
	if a != 1 || b != 1 {
		t.Fatalf("first id in each zone should be 1, got zone1=%d zone2=%d", a, b)
	}
}

func TestClientEntityIdListReleaseHonorsGraceWindowBeforeReuse(t *testing.T) {
	c := NewClientEntityIdList()
	zone := components.ZoneID(1)

	id := c.Acquire(zone)
	c.Release(zone, id)

	// Released id must not be handed out again before graceTicks have
	// elapsed, even though it's the only thing that could be freed.
	next := c.Acquire(zone)
	if next == id {
		t.Fatalf("Acquire reused a released id before its grace window elapsed")
	}

	c.Tick()
	if next == id {
		t.Fatalf("sanity: next must differ from id")
	}

	c.Tick() // graceTicks == 2, so this is the tick that frees it
	reused := c.Acquire(zone)
	if reused != id {
		t.Fatalf("Acquire() after grace window = %d, want recycled id %d", reused, id)
	}
}
