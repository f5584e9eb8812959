package stage

import (
	"time"

	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	coresys "github.com/ironrose/server/internal/core/system"
)

// speedUnitsPerSecond is the flat movement speed every entity moves at
// until per-entity movement stats exist. Matches the fixed pace the
// teacher's own movement system assumes in the absence of a stat table.
const speedUnitsPerSecond = 400.0

// UpdatePosition implements the update_position stage: step Position
// toward Destination at a fixed speed, clearing Destination on arrival.
type UpdatePosition struct {
	ctx *Context
}

func NewUpdatePosition(ctx *Context) *UpdatePosition { return &UpdatePosition{ctx: ctx} }

func (s *UpdatePosition) Stage() coresys.Stage { return coresys.UpdatePosition }

func (s *UpdatePosition) Run(dt time.Duration) {
	st := s.ctx.Stores
	step := float32(speedUnitsPerSecond * dt.Seconds())

	var arrived []ecs.EntityID
	ecs.Each2(st.Positions, st.Destinations, func(id ecs.EntityID, pos *components.Position, dest *components.Destination) {
		remaining := pos.Point.DistanceXY(dest.Point)
		if remaining <= step {
			pos.Point = dest.Point
			arrived = append(arrived, id)
			return
		}

		dx := dest.Point.X - pos.Point.X
		dy := dest.Point.Y - pos.Point.Y
		pos.Point.X += dx / remaining * step
		pos.Point.Y += dy / remaining * step
	})

	for _, id := range arrived {
		st.Destinations.Remove(id)
	}
}
