package stage

import (
	"time"

	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	coresys "github.com/ironrose/server/internal/core/system"
	"go.uber.org/zap"
)

// corpseLifetime is how long a dead entity's DeathMarker lingers before
// expire_time removes it, grounded on the teacher's regen.go-style
// tick-accumulator approach but expressed against WorldTime instead of a
// raw tick counter.
const corpseLifetime = 5 * time.Second

// ApplyDamage implements the apply_damage stage: drains each entity's
// queued PendingDamage into HealthPoints, clamping at zero and tagging the
// entity with DeathMarker the tick it dies.
type ApplyDamage struct {
	ctx *Context
}

func NewApplyDamage(ctx *Context) *ApplyDamage { return &ApplyDamage{ctx: ctx} }

func (s *ApplyDamage) Stage() coresys.Stage { return coresys.ApplyDamage }

func (s *ApplyDamage) Run(time.Duration) {
	st := s.ctx.Stores

	var hit []ecs.EntityID
	ecs.Each2(st.HealthPoints, st.PendingDamage, func(id ecs.EntityID, _ *components.HealthPoints, _ *components.PendingDamage) {
		hit = append(hit, id)
	})

	for _, id := range hit {
		hp, _ := st.HealthPoints.Get(id)
		dmg, _ := st.PendingDamage.Get(id)

		if dmg.Amount >= hp.Current {
			hp.Current = 0
		} else {
			hp.Current -= dmg.Amount
		}
		st.PendingDamage.Remove(id)

		if hp.Current == 0 && !st.DeathMarkers.Has(id) {
			st.DeathMarkers.Set(id, &components.DeathMarker{At: s.ctx.WorldTime.Now()})
		}
	}
}

// ExpireTime implements the expire_time stage: destroys corpses once
// corpseLifetime has elapsed since their DeathMarker was set. Character
// delete-time pruning (spec.md §4.7) happens in world_server_authentication,
// not here. This stage destroys every entity carrying a DeathMarker,
// player characters included: apply_damage marks any entity whose
// HealthPoints reach zero.
type ExpireTime struct {
	ctx *Context
}

func NewExpireTime(ctx *Context) *ExpireTime { return &ExpireTime{ctx: ctx} }

func (s *ExpireTime) Stage() coresys.Stage { return coresys.ExpireTime }

func (s *ExpireTime) Run(time.Duration) {
	st := s.ctx.Stores
	now := s.ctx.WorldTime.Now()

	var expired []ecs.EntityID
	st.DeathMarkers.Each(func(id ecs.EntityID, marker *components.DeathMarker) {
		if now.Sub(marker.At) >= corpseLifetime {
			expired = append(expired, id)
		}
	})

	for _, id := range expired {
		s.ctx.World.MarkForDestruction(id)
	}
}

// ApplyPendingXP, StatusEffect and Weight are named in spec.md §4.5's
// schedule but their content — progression formulas, buff/debuff tables,
// inventory weight limits — falls under spec.md §1's explicit
// gameplay-content non-goal. They still run, in stage order, as the
// external tables' future attachment point.

type ApplyPendingXP struct{}

func NewApplyPendingXP() *ApplyPendingXP { return &ApplyPendingXP{} }

func (s *ApplyPendingXP) Stage() coresys.Stage { return coresys.ApplyPendingXP }

func (s *ApplyPendingXP) Run(time.Duration) {}

type StatusEffect struct{}

func NewStatusEffect() *StatusEffect { return &StatusEffect{} }

func (s *StatusEffect) Stage() coresys.Stage { return coresys.StatusEffect }

func (s *StatusEffect) Run(time.Duration) {}

type Weight struct{}

func NewWeight() *Weight { return &Weight{} }

func (s *Weight) Stage() coresys.Stage { return coresys.Weight }

func (s *Weight) Run(time.Duration) {}

// Save implements the save stage: best-effort periodic persistence of
// every loaded Character, per spec.md §6 "no persistence guarantees beyond
// best-effort save on state change". Rather than tracking a dirty flag per
// character this core just re-saves on a fixed cadence — simple, and cheap
// enough at this scale since Character records are small YAML blobs.
type Save struct {
	ctx        *Context
	everyTicks uint64
}

func NewSave(ctx *Context, everyTicks uint64) *Save {
	return &Save{ctx: ctx, everyTicks: everyTicks}
}

func (s *Save) Stage() coresys.Stage { return coresys.Save }

func (s *Save) Run(time.Duration) {
	if s.everyTicks == 0 || uint64(s.ctx.WorldTime.Ticks)%s.everyTicks != 0 {
		return
	}

	st := s.ctx.Stores
	st.Characters.Each(func(id ecs.EntityID, ch *components.Character) {
		if err := s.ctx.Characters.Save(*ch); err != nil {
			s.ctx.Log.Warn("character save failed", zap.Uint64("entity", uint64(id)), zap.Error(err))
		}
	})
}
