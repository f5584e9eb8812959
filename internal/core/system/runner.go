package system

import (
	"sort"
	"time"

	"github.com/ironrose/server/internal/core/ecs"
)

// flushAfter is the last stage that runs before the scheduler applies
// deferred structural changes, per spec: the boundary sits "nominally
// after game_server_join_system" — this core also drains GameServerMove
// before flushing, since move/chat/hotbar ingestion is still pre-command.
const flushAfter = GameServerMove

// Runner executes registered systems in stage order each tick, flushing the
// world's deferred command buffer once between GameServerMove and Command.
type Runner struct {
	world   *ecs.World
	systems []System
	sorted  bool
}

func NewRunner(world *ecs.World) *Runner {
	return &Runner{
		world:   world,
		systems: make([]System, 0, 24),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every registered system in stage order, flushing the world's
// deferred command buffer once the ordering crosses the flush boundary.
func (r *Runner) Tick(dt time.Duration) {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Stage() < r.systems[j].Stage()
		})
		r.sorted = true
	}

	flushed := false
	for _, s := range r.systems {
		if !flushed && s.Stage() > flushAfter {
			r.world.Flush()
			flushed = true
		}
		s.Run(dt)
	}
	if !flushed {
		r.world.Flush()
	}
}
