// Package spawner creates zone NPC populations at startup and keeps
// monster spawn points topped up to their configured cap. Grounded on the
// teacher's internal/system/npc_respawn.go countdown-and-respawn pattern,
// adapted from a flat NPC list to spec.md §4.10's per-spawn-point model.
package spawner

import (
	"math"
	"math/rand"
	"time"

	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	"github.com/ironrose/server/internal/data"
	"github.com/ironrose/server/internal/resources"
)

// Stores bundles the component stores spawning touches, so call sites
// don't thread five store pointers through every function individually.
type Stores struct {
	Positions      *ecs.Store[components.Position]
	ClientEntities *ecs.Store[components.ClientEntity]
	Commands       *ecs.Store[components.Command]
	Health         *ecs.Store[components.HealthPoints]
	AITags         *ecs.Store[components.AIControlled]
	IDs            *resources.ClientEntityIdList
}

// Point is one configured monster spawn location: spawns one NPC per
// interval T_spawn while its population is under cap.
type Point struct {
	def       data.NPCSpawnDef
	zone      components.ZoneID
	alive     []ecs.EntityID
	nextSpawn time.Time
}

// Spawner owns every zone's static NPCs and monster spawn points.
type Spawner struct {
	points []*Point
}

// Bootstrap registers a spawn point for every NPC entry of every zone in
// gd, per spec.md §4.10, and spawns one NPC at each point immediately;
// later Tick calls top each point up to its cap.
func Bootstrap(gd *data.GameData, world *ecs.World, stores Stores) *Spawner {
	s := &Spawner{}

	for _, zone := range gd.Zones {
		for _, npcDef := range zone.NPCs {
			s.points = append(s.points, &Point{
				def:  npcDef,
				zone: components.ZoneID(zone.ID),
			})
		}
	}

	for _, p := range s.points {
		spawnOne(p, world, stores)
	}
	return s
}

// Tick draws replacements for any spawn point under its cap whose interval
// has elapsed. Call once per tick from the monster_spawn stage.
func (s *Spawner) Tick(now time.Time, world *ecs.World, stores Stores) {
	for _, p := range s.points {
		p.alive = liveOnly(p.alive, world)
		if len(p.alive) >= p.def.Cap {
			continue
		}
		if now.Before(p.nextSpawn) {
			continue
		}
		spawnOne(p, world, stores)
		p.nextSpawn = now.Add(time.Duration(p.def.IntervalSec) * time.Second)
	}
}

func liveOnly(ids []ecs.EntityID, world *ecs.World) []ecs.EntityID {
	live := ids[:0]
	for _, id := range ids {
		if world.Alive(id) {
			live = append(live, id)
		}
	}
	return live
}

func spawnOne(p *Point, world *ecs.World, stores Stores) {
	offset := randomOffset(p.def.RadiusSpawn)
	pos := components.Position{
		Zone: p.zone,
		Point: components.Point{
			X: p.def.Position.X + offset.X,
			Y: p.def.Position.Y + offset.Y,
			Z: p.def.Position.Z,
		},
	}

	id := world.CreateEntity()
	stores.Positions.Set(id, &pos)
	stores.ClientEntities.Set(id, &components.ClientEntity{ID: stores.IDs.Acquire(p.zone)})
	stores.Commands.Set(id, &components.Command{Kind: components.CommandStop})
	stores.Health.Set(id, &components.HealthPoints{Current: p.def.MaxHP, Max: p.def.MaxHP})
	stores.AITags.Set(id, &components.AIControlled{AIScript: p.def.AIScript})

	p.alive = append(p.alive, id)
}

func randomOffset(radius float32) components.Point {
	if radius <= 0 {
		return components.Point{}
	}
	angle := rand.Float64() * 2 * math.Pi
	dist := rand.Float64() * float64(radius)
	return components.Point{
		X: float32(dist * math.Cos(angle)),
		Y: float32(dist * math.Sin(angle)),
	}
}
