package stage

import (
	"testing"

	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	"github.com/ironrose/server/internal/message"
	"github.com/ironrose/server/internal/resources"
)

func newGameTestContext(t *testing.T) *Context {
	t.Helper()
	ctx := newWorldTestContext(t)
	ctx.ClientEntIDs = resources.NewClientEntityIdList()
	ctx.Messages = resources.NewServerMessages()
	return ctx
}

func TestGameServerAuthenticationLoadsCharacterAndConsumesToken(t *testing.T) {
	ctx := newGameTestContext(t)
	name := "hero"
	if err := ctx.Characters.Save(components.Character{
		Info:     components.CharacterInfo{Name: name},
		Position: components.Position{Zone: 1, Point: components.Point{X: 5, Y: 5}},
	}); err != nil {
		t.Fatalf("seed character: %v", err)
	}

	tok := ctx.LoginTokens.Issue("alice", 10, 20)
	tok.SelectedCharacter = &name

	s := NewGameServerAuthentication(ctx)
	conn := newTestConn(t, 1, TierGame)
	ctx.Conns[1] = conn

	reply := message.NewReply[message.ConnectionRequestReply]()
	conn.Inbox <- message.ClientMessage{
		Kind: message.KindConnectionRequest,
		ConnectionRequest: &message.ConnectionRequest{
			LoginToken: tok.Token,
			Reply:      reply,
		},
	}
	s.Run(0)

	rep := <-reply
	if !rep.Ok {
		t.Fatalf("ConnectionRequest reply Ok = false, want true")
	}
	if !ctx.Stores.Accounts.Has(1) {
		t.Fatalf("Account component should be attached after a successful game handshake")
	}
	hp, ok := ctx.Stores.HealthPoints.Get(1)
	if !ok || hp.Current != defaultPlayerMaxHP || hp.Max != defaultPlayerMaxHP {
		t.Fatalf("HealthPoints = %+v, ok=%v, want %d/%d", hp, ok, defaultPlayerMaxHP, defaultPlayerMaxHP)
	}
	if _, stillValid := ctx.LoginTokens.Lookup(tok.Token); stillValid {
		t.Fatalf("a consumed game-tier token must not remain lookup-able")
	}
}

func TestGameServerAuthenticationRejectsTokenWithoutSelectedCharacter(t *testing.T) {
	ctx := newGameTestContext(t)
	tok := ctx.LoginTokens.Issue("alice", 10, 20) // no SelectedCharacter set

	s := NewGameServerAuthentication(ctx)
	conn := newTestConn(t, 1, TierGame)
	ctx.Conns[1] = conn

	reply := message.NewReply[message.ConnectionRequestReply]()
	conn.Inbox <- message.ClientMessage{
		Kind:              message.KindConnectionRequest,
		ConnectionRequest: &message.ConnectionRequest{LoginToken: tok.Token, Reply: reply},
	}
	s.Run(0)

	rep := <-reply
	if rep.Ok {
		t.Fatalf("a token without a selected character must not authenticate onto the game tier")
	}
}

func TestGameServerJoinAttachesClientEntityAtCharacterPosition(t *testing.T) {
	ctx := newGameTestContext(t)
	id := ecs.EntityID(1)
	conn := newTestConn(t, id, TierGame)
	ctx.Conns[id] = conn
	ctx.Stores.Accounts.Set(id, &components.Account{Name: "alice"})
	ctx.Stores.Characters.Set(id, &components.Character{
		Position: components.Position{Zone: 3, Point: components.Point{X: 7, Y: 9}},
	})

	s := NewGameServerJoin(ctx)
	reply := message.NewReply[message.JoinZoneReply]()
	conn.Inbox <- message.ClientMessage{
		Kind:     message.KindJoinZone,
		JoinZone: &message.JoinZone{Reply: reply},
	}
	s.Run(0)

	rep := <-reply
	if !rep.Ok || rep.ClientEntity == 0 {
		t.Fatalf("JoinZone reply = %+v, want Ok with a nonzero ClientEntity", rep)
	}
	if rep.Position.Zone != 3 || rep.Position.Point.X != 7 {
		t.Fatalf("JoinZone reply Position = %+v, want the character's saved position", rep.Position)
	}
	if !ctx.Stores.ClientEntities.Has(id) || !ctx.Stores.Positions.Has(id) || !ctx.Stores.Commands.Has(id) {
		t.Fatalf("JoinZone should attach ClientEntity, Position and Command")
	}
}

func TestGameServerJoinSkipsAlreadyJoinedConnections(t *testing.T) {
	ctx := newGameTestContext(t)
	id := ecs.EntityID(1)
	conn := newTestConn(t, id, TierGame)
	ctx.Conns[id] = conn
	ctx.Stores.Accounts.Set(id, &components.Account{Name: "alice"})
	ctx.Stores.ClientEntities.Set(id, &components.ClientEntity{ID: 1})

	s := NewGameServerJoin(ctx)
	reply := message.NewReply[message.JoinZoneReply]()
	conn.Inbox <- message.ClientMessage{
		Kind:     message.KindJoinZone,
		JoinZone: &message.JoinZone{Reply: reply},
	}
	s.Run(0)

	select {
	case rep := <-reply:
		t.Fatalf("an already-joined connection should not be re-processed, got reply %+v", rep)
	default:
	}
}

func TestGameServerMoveSetsNextCommandFromDestination(t *testing.T) {
	ctx := newGameTestContext(t)
	id := ecs.EntityID(1)
	conn := newTestConn(t, id, TierGame)
	ctx.Conns[id] = conn
	ctx.Stores.ClientEntities.Set(id, &components.ClientEntity{ID: 1})

	s := NewGameServerMove(ctx)
	conn.Inbox <- message.ClientMessage{
		Kind: message.KindMove,
		Move: &message.Move{Destination: components.Point{X: 42, Y: 0}},
	}
	s.Run(0)

	next, ok := ctx.Stores.NextCommands.Get(id)
	if !ok || next.Kind != components.CommandMove || next.Destination.X != 42 {
		t.Fatalf("NextCommand = %+v, ok=%v, want a Move to X=42", next, ok)
	}
}

func TestGameServerMoveWithTargetSetsAttackNextCommand(t *testing.T) {
	ctx := newGameTestContext(t)
	id := ecs.EntityID(1)
	target := ecs.EntityID(2)
	conn := newTestConn(t, id, TierGame)
	ctx.Conns[id] = conn
	ctx.Stores.ClientEntities.Set(id, &components.ClientEntity{ID: 1})

	s := NewGameServerMove(ctx)
	conn.Inbox <- message.ClientMessage{
		Kind: message.KindMove,
		Move: &message.Move{Target: &target},
	}
	s.Run(0)

	next, ok := ctx.Stores.NextCommands.Get(id)
	if !ok || next.Kind != components.CommandAttack || next.Target != target {
		t.Fatalf("NextCommand = %+v, ok=%v, want an Attack targeting %v", next, ok, target)
	}
}

func TestGameServerMoveChatBroadcastsToZone(t *testing.T) {
	ctx := newGameTestContext(t)
	id := ecs.EntityID(1)
	conn := newTestConn(t, id, TierGame)
	ctx.Conns[id] = conn
	ctx.Stores.ClientEntities.Set(id, &components.ClientEntity{ID: 7})
	ctx.Stores.Positions.Set(id, &components.Position{Zone: 2})

	s := NewGameServerMove(ctx)
	conn.Inbox <- message.ClientMessage{
		Kind: message.KindChat,
		Chat: &message.Chat{Text: "hello"},
	}
	s.Run(0)

	msgs := ctx.Messages.Drain()
	if len(msgs) != 1 || msgs[0].Kind != message.KindChatBroadcast {
		t.Fatalf("Drain() = %+v, want exactly one ChatBroadcast", msgs)
	}
	if msgs[0].ChatBroadcast.SpeakerID != 7 || msgs[0].ChatBroadcast.Text != "hello" {
		t.Fatalf("ChatBroadcast = %+v, want SpeakerID=7 Text=hello", msgs[0].ChatBroadcast)
	}
	if msgs[0].Scope.Zone != 2 {
		t.Fatalf("ChatBroadcast Scope = %+v, want Zone=2", msgs[0].Scope)
	}
}

func TestGameServerMoveSetHotbarSlotUpdatesCharacter(t *testing.T) {
	ctx := newGameTestContext(t)
	id := ecs.EntityID(1)
	conn := newTestConn(t, id, TierGame)
	ctx.Conns[id] = conn
	ctx.Stores.ClientEntities.Set(id, &components.ClientEntity{ID: 1})
	ctx.Stores.Characters.Set(id, &components.Character{})

	s := NewGameServerMove(ctx)
	conn.Inbox <- message.ClientMessage{
		Kind:          message.KindSetHotbarSlot,
		SetHotbarSlot: &message.SetHotbarSlot{Slot: 2, Data: components.HotbarSlot{Kind: 9}},
	}
	s.Run(0)

	ch, _ := ctx.Stores.Characters.Get(id)
	if ch.Hotbar[2].Kind != 9 {
		t.Fatalf("Hotbar[2] = %+v, want Kind=9", ch.Hotbar[2])
	}
}
