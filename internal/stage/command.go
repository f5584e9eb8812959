package stage

import (
	"time"

	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	coresys "github.com/ironrose/server/internal/core/system"
	"github.com/ironrose/server/internal/message"
)

// Command implements the command stage: the per-entity Stop/Move/Attack
// state machine. Grounded exactly on original_source's command system —
// same duration bookkeeping, same transition table, same "invalid attack
// target falls back to Stop" rule — with the two literal constants
// (attack range, attack duration) resolved through GameData.AbilityValueCalculator
// instead of hardcoded in the stage.
type Command struct {
	ctx *Context
}

func NewCommand(ctx *Context) *Command { return &Command{ctx: ctx} }

func (s *Command) Stage() coresys.Stage { return coresys.Command }

func (s *Command) Run(dt time.Duration) {
	st := s.ctx.Stores

	var pending []ecs.EntityID
	ecs.Each3(st.ClientEntities, st.Positions, st.Commands,
		func(id ecs.EntityID, _ *components.ClientEntity, _ *components.Position, cmd *components.Command) {
			cmd.Duration += dt
			if cmd.Complete() && st.NextCommands.Has(id) {
				pending = append(pending, id)
			}
		})

	for _, id := range pending {
		s.transition(id)
	}
}

func (s *Command) transition(id ecs.EntityID) {
	st := s.ctx.Stores

	entID, ok := st.ClientEntities.Get(id)
	if !ok {
		return
	}
	pos, ok := st.Positions.Get(id)
	if !ok {
		return
	}
	cmd, ok := st.Commands.Get(id)
	if !ok {
		return
	}
	next, ok := st.NextCommands.Get(id)
	if !ok {
		return
	}

	switch next.Kind {
	case components.CommandStop:
		s.setStop(id, entID, pos, cmd)
	case components.CommandMove:
		s.startMove(id, entID, pos, cmd, next)
	case components.CommandAttack:
		s.startAttack(id, entID, pos, cmd, next)
	}

	st.NextCommands.Remove(id)
}

func (s *Command) setStop(id ecs.EntityID, entID *components.ClientEntity, pos *components.Position, cmd *components.Command) {
	st := s.ctx.Stores
	st.Destinations.Remove(id)

	s.ctx.Broadcast(pos.Zone, id, message.ServerMessage{
		Kind:           message.KindStopMoveEntity,
		StopMoveEntity: &message.StopMoveEntity{ClientID: entID.ID, Position: pos.Point},
	})

	*cmd = components.Command{Kind: components.CommandStop}
}

func (s *Command) startMove(id ecs.EntityID, entID *components.ClientEntity, pos *components.Position, cmd *components.Command, next *components.NextCommand) {
	st := s.ctx.Stores
	st.Destinations.Set(id, &components.Destination{Point: next.Destination})

	var targetEntID uint32
	if next.Target != 0 {
		if te, ok := st.ClientEntities.Get(next.Target); ok {
			targetEntID = te.ID
		}
	}

	distance := pos.Point.DistanceXY(next.Destination)
	s.ctx.Broadcast(pos.Zone, id, message.ServerMessage{
		Kind: message.KindMoveEntity,
		MoveEntity: &message.MoveEntity{
			ClientID:    entID.ID,
			TargetID:    targetEntID,
			Distance:    distance,
			Destination: next.Destination,
		},
	})

	*cmd = components.Command{Kind: components.CommandMove, Target: next.Target}
}

// startAttack resolves the CommandAttack transition: an invalid target
// (missing ClientEntity/Position, or a different zone) falls back to Stop.
// A valid target either starts the attack animation (in range) or reissues
// a chase Move toward the target's current position (out of range).
func (s *Command) startAttack(id ecs.EntityID, entID *components.ClientEntity, pos *components.Position, cmd *components.Command, next *components.NextCommand) {
	st := s.ctx.Stores

	targetEntID, ok := st.ClientEntities.Get(next.Target)
	if !ok {
		s.setStop(id, entID, pos, cmd)
		return
	}
	targetPos, ok := st.Positions.Get(next.Target)
	if !ok || targetPos.Zone != pos.Zone {
		s.setStop(id, entID, pos, cmd)
		return
	}

	distance := pos.Point.DistanceXY(targetPos.Point)
	attackRange := s.ctx.GameData.AbilityValueCalculator.AttackRange(id)

	sameEngagement := (cmd.Kind == components.CommandAttack || cmd.Kind == components.CommandMove) && cmd.Target == next.Target
	attackStarted := !sameEngagement

	if distance < attackRange {
		duration := s.ctx.GameData.AbilityValueCalculator.AttackDuration(id)
		st.Destinations.Remove(id)
		*cmd = components.Command{Kind: components.CommandAttack, Target: next.Target, RequiredDuration: &duration}
	} else {
		st.Destinations.Set(id, &components.Destination{Point: targetPos.Point})
		*cmd = components.Command{Kind: components.CommandMove, Target: next.Target}
	}

	if attackStarted {
		s.ctx.Broadcast(pos.Zone, id, message.ServerMessage{
			Kind: message.KindAttackEntity,
			AttackEntity: &message.AttackEntity{
				AttackerID: entID.ID,
				TargetID:   targetEntID.ID,
				Distance:   distance,
				Target:     targetPos.Point,
			},
		})
	}
}
