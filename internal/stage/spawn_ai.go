package stage

import (
	"time"

	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	coresys "github.com/ironrose/server/internal/core/system"
)

// MonsterSpawn implements the monster_spawn stage: tops up every zone's
// spawn points via the bootstrap Spawner, per spec.md §4.10.
type MonsterSpawn struct {
	ctx *Context
}

func NewMonsterSpawn(ctx *Context) *MonsterSpawn { return &MonsterSpawn{ctx: ctx} }

func (s *MonsterSpawn) Stage() coresys.Stage { return coresys.MonsterSpawn }

func (s *MonsterSpawn) Run(time.Duration) {
	s.ctx.Spawner.Tick(s.ctx.WorldTime.Now(), s.ctx.World, s.ctx.Stores.ForSpawner(s.ctx.ClientEntIDs))
}

// NpcAI implements the npc_ai stage: every AIControlled entity gets a
// decision from the Lua engine (or the Stop fallback) and the decision is
// folded into NextCommand exactly as a player's queued intent would be.
type NpcAI struct {
	ctx *Context
}

func NewNpcAI(ctx *Context) *NpcAI { return &NpcAI{ctx: ctx} }

func (s *NpcAI) Stage() coresys.Stage { return coresys.NpcAI }

func (s *NpcAI) Run(time.Duration) {
	st := s.ctx.Stores

	ecs.Each2(st.AITags, st.Positions, func(id ecs.EntityID, _ *components.AIControlled, pos *components.Position) {
		cmd, ok := st.Commands.Get(id)
		if !ok || !cmd.Complete() {
			return
		}
		if st.NextCommands.Has(id) {
			return
		}

		decision := s.ctx.AI.Decide(int(id), pos.Point)
		st.NextCommands.Set(id, &components.NextCommand{
			Kind:        decision.Kind,
			Destination: decision.Destination,
		})
	})
}

// BotAI implements the bot_ai stage. This core has no bot-player population
// mechanism (bots are a deployment-specific feature built on the same
// AIControlled/NextCommand contract as NPCs); the stage still runs, as an
// empty pass, so the scheduler's stage order matches spec.md §4.5 exactly.
type BotAI struct{}

func NewBotAI() *BotAI { return &BotAI{} }

func (s *BotAI) Stage() coresys.Stage { return coresys.BotAI }

func (s *BotAI) Run(time.Duration) {}
