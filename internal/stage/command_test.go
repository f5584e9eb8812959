package stage

import (
	"testing"
	"time"

	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	"github.com/ironrose/server/internal/data"
	"github.com/ironrose/server/internal/message"
	"github.com/ironrose/server/internal/resources"
)

func newTestContext() *Context {
	return &Context{
		Stores:   NewStores(),
		Messages: resources.NewServerMessages(),
		GameData: &data.GameData{AbilityValueCalculator: data.DefaultAbilityValueCalculator{}},
	}
}

func spawnMover(ctx *Context, clientID uint32, zone components.ZoneID, pos components.Point) ecs.EntityID {
	id := ecs.EntityID(clientID)
	ctx.Stores.ClientEntities.Set(id, &components.ClientEntity{ID: clientID})
	ctx.Stores.Positions.Set(id, &components.Position{Zone: zone, Point: pos})
	ctx.Stores.Commands.Set(id, &components.Command{Kind: components.CommandStop})
	return id
}

func TestCommandMoveTransitionSetsDestinationAndBroadcasts(t *testing.T) {
	ctx := newTestContext()
	cmdStage := NewCommand(ctx)

	id := spawnMover(ctx, 1, 1, components.Point{X: 0, Y: 0})
	ctx.Stores.NextCommands.Set(id, &components.NextCommand{
		Kind:        components.CommandMove,
		Destination: components.Point{X: 100, Y: 0},
	})

	cmdStage.Run(0)

	cmd, _ := ctx.Stores.Commands.Get(id)
	if cmd.Kind != components.CommandMove {
		t.Fatalf("Command.Kind = %v, want CommandMove", cmd.Kind)
	}
	dest, ok := ctx.Stores.Destinations.Get(id)
	if !ok || dest.Point.X != 100 {
		t.Fatalf("Destination = %+v, ok=%v, want X=100", dest, ok)
	}
	if ctx.Stores.NextCommands.Has(id) {
		t.Fatalf("NextCommand should be consumed after transition")
	}

	msgs := ctx.Messages.Drain()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 broadcast message, got %d", len(msgs))
	}
}

func TestCommandStopClearsDestination(t *testing.T) {
	ctx := newTestContext()
	cmdStage := NewCommand(ctx)

	id := spawnMover(ctx, 1, 1, components.Point{X: 0, Y: 0})
	ctx.Stores.Destinations.Set(id, &components.Destination{Point: components.Point{X: 50, Y: 0}})
	ctx.Stores.NextCommands.Set(id, &components.NextCommand{Kind: components.CommandStop})

	cmdStage.Run(0)

	if ctx.Stores.Destinations.Has(id) {
		t.Fatalf("Destination should be removed on Stop")
	}
	cmd, _ := ctx.Stores.Commands.Get(id)
	if cmd.Kind != components.CommandStop {
		t.Fatalf("Command.Kind = %v, want CommandStop", cmd.Kind)
	}
}

func TestCommandAttackOutOfRangeChasesTarget(t *testing.T) {
	ctx := newTestContext()
	cmdStage := NewCommand(ctx)

	attacker := spawnMover(ctx, 1, 1, components.Point{X: 0, Y: 0})
	target := spawnMover(ctx, 2, 1, components.Point{X: 1000, Y: 0})

	ctx.Stores.NextCommands.Set(attacker, &components.NextCommand{Kind: components.CommandAttack, Target: target})
	cmdStage.Run(0)

	cmd, _ := ctx.Stores.Commands.Get(attacker)
	if cmd.Kind != components.CommandMove {
		t.Fatalf("out-of-range attack should fall back to chase Move, got %v", cmd.Kind)
	}
	dest, ok := ctx.Stores.Destinations.Get(attacker)
	if !ok || dest.Point.X != 1000 {
		t.Fatalf("chase Destination = %+v, ok=%v, want the target's position", dest, ok)
	}
}

func TestCommandAttackInRangeStartsAttackWithRequiredDuration(t *testing.T) {
	ctx := newTestContext()
	cmdStage := NewCommand(ctx)

	attacker := spawnMover(ctx, 1, 1, components.Point{X: 0, Y: 0})
	target := spawnMover(ctx, 2, 1, components.Point{X: 10, Y: 0})

	ctx.Stores.NextCommands.Set(attacker, &components.NextCommand{Kind: components.CommandAttack, Target: target})
	cmdStage.Run(0)

	cmd, _ := ctx.Stores.Commands.Get(attacker)
	if cmd.Kind != components.CommandAttack {
		t.Fatalf("in-range attack should start CommandAttack, got %v", cmd.Kind)
	}
	if cmd.RequiredDuration == nil || *cmd.RequiredDuration != time.Second {
		t.Fatalf("RequiredDuration = %v, want 1s (DefaultAbilityValueCalculator)", cmd.RequiredDuration)
	}
	if ctx.Stores.Destinations.Has(attacker) {
		t.Fatalf("an in-range attack must not leave a stale Destination")
	}
}

func TestCommandAttackInvalidTargetFallsBackToStop(t *testing.T) {
	ctx := newTestContext()
	cmdStage := NewCommand(ctx)

	attacker := spawnMover(ctx, 1, 1, components.Point{X: 0, Y: 0})
	ctx.Stores.NextCommands.Set(attacker, &components.NextCommand{Kind: components.CommandAttack, Target: ecs.EntityID(999)})

	cmdStage.Run(0)

	cmd, _ := ctx.Stores.Commands.Get(attacker)
	if cmd.Kind != components.CommandStop {
		t.Fatalf("attack against a nonexistent target should fall back to Stop, got %v", cmd.Kind)
	}
}

func TestCommandOnlyTransitionsWhenCommandComplete(t *testing.T) {
	ctx := newTestContext()
	cmdStage := NewCommand(ctx)

	attacker := spawnMover(ctx, 1, 1, components.Point{X: 0, Y: 0})
	target := spawnMover(ctx, 2, 1, components.Point{X: 10, Y: 0})

	ctx.Stores.NextCommands.Set(attacker, &components.NextCommand{Kind: components.CommandAttack, Target: target})
	cmdStage.Run(0) // starts the attack, RequiredDuration = 1s

	ctx.Stores.NextCommands.Set(attacker, &components.NextCommand{Kind: components.CommandStop})
	cmdStage.Run(500 * time.Millisecond) // still mid-attack, must not transition yet

	cmd, _ := ctx.Stores.Commands.Get(attacker)
	if cmd.Kind != components.CommandAttack {
		t.Fatalf("Command transitioned early while still mid-duration: %v", cmd.Kind)
	}
	if !ctx.Stores.NextCommands.Has(attacker) {
		t.Fatalf("NextCommand should still be pending while the attack isn't complete")
	}

	cmdStage.Run(600 * time.Millisecond) // now past the 1s requirement
	cmd, _ = ctx.Stores.Commands.Get(attacker)
	if cmd.Kind != components.CommandStop {
		t.Fatalf("Command should transition to Stop once the attack duration elapses, got %v", cmd.Kind)
	}
}

func TestCommandChasingSameTargetDoesNotRebroadcastAttack(t *testing.T) {
	ctx := newTestContext()
	cmdStage := NewCommand(ctx)

	attacker := spawnMover(ctx, 1, 1, components.Point{X: 0, Y: 0})
	target := spawnMover(ctx, 2, 1, components.Point{X: 1000, Y: 0})

	ctx.Stores.NextCommands.Set(attacker, &components.NextCommand{Kind: components.CommandAttack, Target: target})
	cmdStage.Run(0) // out of range: starts chasing, broadcasts AttackEntity once

	msgs := ctx.Messages.Drain()
	if len(msgs) != 1 || msgs[0].Kind != message.KindAttackEntity {
		t.Fatalf("expected exactly 1 AttackEntity broadcast on first engagement, got %+v", msgs)
	}

	// Target hasn't moved into range yet; re-issuing the same attack
	// command while still chasing it must not re-broadcast.
	ctx.Stores.NextCommands.Set(attacker, &components.NextCommand{Kind: components.CommandAttack, Target: target})
	cmdStage.Run(0)

	if msgs := ctx.Messages.Drain(); len(msgs) != 0 {
		t.Fatalf("chasing the same target again re-broadcast AttackEntity: %+v", msgs)
	}
}

func TestCommandSwitchingAttackTargetRebroadcasts(t *testing.T) {
	ctx := newTestContext()
	cmdStage := NewCommand(ctx)

	attacker := spawnMover(ctx, 1, 1, components.Point{X: 0, Y: 0})
	first := spawnMover(ctx, 2, 1, components.Point{X: 1000, Y: 0})
	second := spawnMover(ctx, 3, 1, components.Point{X: 1000, Y: 0})

	ctx.Stores.NextCommands.Set(attacker, &components.NextCommand{Kind: components.CommandAttack, Target: first})
	cmdStage.Run(0)
	ctx.Messages.Drain()

	ctx.Stores.NextCommands.Set(attacker, &components.NextCommand{Kind: components.CommandAttack, Target: second})
	cmdStage.Run(0)

	msgs := ctx.Messages.Drain()
	if len(msgs) != 1 || msgs[0].Kind != message.KindAttackEntity {
		t.Fatalf("switching to a new attack target should re-broadcast AttackEntity, got %+v", msgs)
	}
}
