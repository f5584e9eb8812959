package stage

import (
	"time"

	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	coresys "github.com/ironrose/server/internal/core/system"
	"github.com/ironrose/server/internal/message"
)

// ClientEntityVisibility implements the client_entity_visibility stage:
// keeps the AOI grid current and diffs each observer's known-entity set,
// per spec.md §4.9. Entering entities produce a SpawnEntity delivered
// straight to the observer; leaving entities produce a RemoveEntities
// delivered the same way.
type ClientEntityVisibility struct {
	ctx *Context
}

func NewClientEntityVisibility(ctx *Context) *ClientEntityVisibility {
	return &ClientEntityVisibility{ctx: ctx}
}

func (s *ClientEntityVisibility) Stage() coresys.Stage { return coresys.ClientEntityVisibility }

func (s *ClientEntityVisibility) Run(time.Duration) {
	st := s.ctx.Stores
	grid := s.ctx.Grid

	ecs.Each2(st.ClientEntities, st.Positions, func(id ecs.EntityID, _ *components.ClientEntity, pos *components.Position) {
		grid.Move(uint64(id), pos.Zone, pos.Point)
	})

	lookup := func(raw uint64) (components.Point, bool) {
		id := ecs.EntityID(raw)
		pos, ok := st.Positions.Get(id)
		if !ok {
			return components.Point{}, false
		}
		return pos.Point, true
	}

	ecs.Each2(st.ClientEntities, st.Positions, func(id ecs.EntityID, _ *components.ClientEntity, pos *components.Position) {
		diff := s.ctx.Visibility.Update(uint64(id), pos.Zone, pos.Point, grid, lookup)

		for _, raw := range diff.Entered {
			other := ecs.EntityID(raw)
			otherEnt, ok := st.ClientEntities.Get(other)
			if !ok {
				continue
			}
			otherPos, ok := st.Positions.Get(other)
			if !ok {
				continue
			}
			s.ctx.Direct(id, message.ServerMessage{
				Kind:        message.KindSpawnEntity,
				SpawnEntity: &message.SpawnEntity{ClientID: otherEnt.ID, Position: *otherPos},
			})
		}

		if len(diff.Left) > 0 {
			ids := make([]uint32, 0, len(diff.Left))
			for _, raw := range diff.Left {
				other := ecs.EntityID(raw)
				if otherEnt, ok := st.ClientEntities.Get(other); ok {
					ids = append(ids, otherEnt.ID)
				}
			}
			s.ctx.Direct(id, message.ServerMessage{
				Kind:           message.KindRemoveEntities,
				RemoveEntities: &message.RemoveEntities{ClientIDs: ids},
			})
		}
	})
}
