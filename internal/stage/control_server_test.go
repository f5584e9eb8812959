package stage

import (
	"testing"

	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	"github.com/ironrose/server/internal/worldmap"
)

func newControlServerTestContext(t *testing.T) *Context {
	t.Helper()
	ctx := newGameTestContext(t)
	ctx.World = ecs.NewWorld()
	ctx.Grid = worldmap.NewGrid()
	ctx.Visibility = worldmap.NewVisibility()
	return ctx
}

func TestControlServerDisconnectedEntitiesFindsClosedSockets(t *testing.T) {
	ctx := newControlServerTestContext(t)
	alive := ecs.EntityID(1)
	dead := ecs.EntityID(2)

	aliveConn := newTestConn(t, alive, TierGame)
	ctx.Conns[alive] = aliveConn

	deadConn := newTestConn(t, dead, TierGame)
	deadConn.Net.Close()
	ctx.Conns[dead] = deadConn

	s := NewControlServer(ctx, nil)
	got := s.DisconnectedEntities()

	if len(got) != 1 || got[0] != dead {
		t.Fatalf("DisconnectedEntities() = %v, want [%v]", got, dead)
	}
}

func TestControlServerReapDisconnectedReleasesZoneStateAndDestroysEntity(t *testing.T) {
	ctx := newControlServerTestContext(t)
	id := ctx.World.CreateEntity()

	conn := newTestConn(t, id, TierGame)
	conn.Net.Close()
	ctx.Conns[id] = conn

	zone := components.ZoneID(1)
	clientID := ctx.ClientEntIDs.Acquire(zone)
	ctx.Stores.ClientEntities.Set(id, &components.ClientEntity{ID: clientID})
	ctx.Stores.Positions.Set(id, &components.Position{Zone: zone})
	ctx.Grid.Add(uint64(id), zone, components.Point{})
	ctx.Visibility.Update(uint64(id), zone, components.Point{}, ctx.Grid, func(uint64) (components.Point, bool) {
		return components.Point{}, false
	})

	s := NewControlServer(ctx, nil)
	s.Run(0)

	if _, ok := ctx.Conns[id]; ok {
		t.Fatalf("reapDisconnected should have removed the connection entity from Conns")
	}
	if !ctx.World.Alive(id) {
		t.Fatalf("MarkForDestruction should defer the destroy, not kill the entity immediately")
	}
	ctx.World.Flush()
	if ctx.World.Alive(id) {
		t.Fatalf("entity should be gone once Flush runs")
	}

	// The zone's client id should be reusable once the grace window
	// elapses: Acquire immediately after Release must not hand it back
	// yet (graceTicks=2).
	if got := ctx.ClientEntIDs.Acquire(zone); got == clientID {
		t.Fatalf("Acquire returned the just-released id %d before the grace window elapsed", clientID)
	}
}

func TestControlServerRunAcceptsNoServersWithoutPanicking(t *testing.T) {
	ctx := newControlServerTestContext(t)
	s := NewControlServer(ctx, nil)
	s.Run(0) // no TierServers registered and no disconnects: must be a no-op
}
