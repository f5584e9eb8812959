package stage

import (
	"testing"

	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	"github.com/ironrose/server/internal/message"
	"github.com/ironrose/server/internal/worldmap"
)

func TestServerMessagesSenderDeliversDirectMessages(t *testing.T) {
	ctx := newGameTestContext(t)
	id := ecs.EntityID(1)
	conn := newTestConn(t, id, TierGame)
	ctx.Conns[id] = conn

	ctx.Messages.Push(message.ServerMessage{
		Kind:           message.KindStopMoveEntity,
		Scope:          message.Scope{DirectTo: id},
		StopMoveEntity: &message.StopMoveEntity{ClientID: 5},
	})

	s := NewServerMessagesSender(ctx)
	s.Run(0)

	select {
	case out := <-conn.Outbox:
		if out.StopMoveEntity.ClientID != 5 {
			t.Fatalf("delivered StopMoveEntity = %+v, want ClientID=5", out.StopMoveEntity)
		}
	default:
		t.Fatalf("DirectTo message never reached the recipient's Outbox")
	}
}

func TestServerMessagesSenderDeliversToCurrentObserversOnly(t *testing.T) {
	ctx := newGameTestContext(t)
	ctx.Visibility = worldmap.NewVisibility()

	observer := ecs.EntityID(1)
	bystander := ecs.EntityID(2)
	target := ecs.EntityID(3)

	obsConn := newTestConn(t, observer, TierGame)
	ctx.Conns[observer] = obsConn
	byConn := newTestConn(t, bystander, TierGame)
	ctx.Conns[bystander] = byConn

	grid := worldmap.NewGrid()
	grid.Add(uint64(target), 0, components.Point{})
	ctx.Visibility.Update(uint64(observer), 0, components.Point{}, grid, func(id uint64) (components.Point, bool) {
		if id == uint64(target) {
			return components.Point{}, true
		}
		return components.Point{}, false
	})

	ctx.Messages.Push(message.ServerMessage{
		Kind:         message.KindMoveEntity,
		Scope:        message.Scope{Entity: target},
		MoveEntity:   &message.MoveEntity{ClientID: 9},
	})

	s := NewServerMessagesSender(ctx)
	s.Run(0)

	select {
	case out := <-obsConn.Outbox:
		if out.MoveEntity.ClientID != 9 {
			t.Fatalf("delivered MoveEntity = %+v, want ClientID=9", out.MoveEntity)
		}
	default:
		t.Fatalf("the observer of target should have received the entity-scoped message")
	}

	select {
	case out := <-byConn.Outbox:
		t.Fatalf("a connection that never observed target should not receive the message, got %+v", out)
	default:
	}
}

func TestServerMessagesSenderDeliversToWholeZone(t *testing.T) {
	ctx := newGameTestContext(t)

	inZone := ecs.EntityID(1)
	otherZone := ecs.EntityID(2)

	inConn := newTestConn(t, inZone, TierGame)
	ctx.Conns[inZone] = inConn
	ctx.Stores.Positions.Set(inZone, &components.Position{Zone: 5})

	outConn := newTestConn(t, otherZone, TierGame)
	ctx.Conns[otherZone] = outConn
	ctx.Stores.Positions.Set(otherZone, &components.Position{Zone: 6})

	ctx.Messages.Push(message.ServerMessage{
		Kind:  message.KindChatBroadcast,
		Scope: message.Scope{Zone: 5},
		ChatBroadcast: &message.ChatBroadcast{
			SpeakerID: 1, Text: "hi zone 5",
		},
	})

	s := NewServerMessagesSender(ctx)
	s.Run(0)

	select {
	case <-inConn.Outbox:
	default:
		t.Fatalf("a connection in the target zone should receive the zone-scoped message")
	}
	select {
	case out := <-outConn.Outbox:
		t.Fatalf("a connection in a different zone should not receive the message, got %+v", out)
	default:
	}
}

func TestServerMessagesSenderDropsWhenOutboxFull(t *testing.T) {
	ctx := newGameTestContext(t)
	id := ecs.EntityID(1)
	conn := newTestConn(t, id, TierGame)
	ctx.Conns[id] = conn

	for i := 0; i < outboxSize; i++ {
		conn.Outbox <- message.ServerMessage{}
	}

	ctx.Messages.Push(message.ServerMessage{
		Kind:  message.KindStopMoveEntity,
		Scope: message.Scope{DirectTo: id},
	})

	s := NewServerMessagesSender(ctx)
	s.Run(0) // must not block even though the Outbox is saturated
}

func TestCleanupUnreadMessagesDrainsEveryInbox(t *testing.T) {
	ctx := newGameTestContext(t)
	id := ecs.EntityID(1)
	conn := newTestConn(t, id, TierGame)
	ctx.Conns[id] = conn

	conn.Inbox <- message.ClientMessage{Kind: message.KindChat}
	conn.Inbox <- message.ClientMessage{Kind: message.KindChat}

	s := NewCleanupUnreadMessages(ctx)
	s.Run(0)

	select {
	case leftover := <-conn.Inbox:
		t.Fatalf("CleanupUnreadMessages should have drained the Inbox, found %+v", leftover)
	default:
	}
}
