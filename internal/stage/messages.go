package stage

import (
	"time"

	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	coresys "github.com/ironrose/server/internal/core/system"
	"github.com/ironrose/server/internal/message"
)

// ServerMessagesSender drains the tick's broadcast queue and fans each
// message out to every connection its Scope selects: straight to one
// connection (DirectTo), to every current observer of an entity
// (Entity), or to every connection in a zone (Zone). Per spec.md §8 the
// queue is always empty once this stage returns.
type ServerMessagesSender struct {
	ctx *Context
}

func NewServerMessagesSender(ctx *Context) *ServerMessagesSender {
	return &ServerMessagesSender{ctx: ctx}
}

func (s *ServerMessagesSender) Stage() coresys.Stage { return coresys.ServerMessagesSender }

func (s *ServerMessagesSender) Run(time.Duration) {
	for _, msg := range s.ctx.Messages.Drain() {
		switch {
		case msg.Scope.DirectTo != 0:
			s.deliver(msg.Scope.DirectTo, msg)
		case msg.Scope.Entity != 0:
			for _, raw := range s.ctx.Visibility.Observers(uint64(msg.Scope.Entity)) {
				s.deliver(ecs.EntityID(raw), msg)
			}
		default:
			s.deliverZone(msg.Scope.Zone, msg)
		}
	}
}

func (s *ServerMessagesSender) deliver(recipient ecs.EntityID, msg message.ServerMessage) {
	c, ok := s.ctx.Conns[recipient]
	if !ok || c.Tier != TierGame {
		return
	}
	select {
	case c.Outbox <- msg:
	default:
		// Outbox full: a network-stalled client. Drop rather than stall
		// the tick, per spec.md §4.3's back-pressure rule.
	}
}

func (s *ServerMessagesSender) deliverZone(zone components.ZoneID, msg message.ServerMessage) {
	st := s.ctx.Stores
	for id, c := range s.ctx.Conns {
		if c.Tier != TierGame {
			continue
		}
		pos, ok := st.Positions.Get(id)
		if !ok || pos.Zone != zone {
			continue
		}
		s.deliver(id, msg)
	}
}

// CleanupUnreadMessages drops whatever each connection's Inbox still holds
// at the end of the tick: a client that sent more than one command this
// tick has the rest discarded rather than carried forward, per spec.md
// §8's "every client's inbound buffer is empty" post-condition.
type CleanupUnreadMessages struct {
	ctx *Context
}

func NewCleanupUnreadMessages(ctx *Context) *CleanupUnreadMessages {
	return &CleanupUnreadMessages{ctx: ctx}
}

func (s *CleanupUnreadMessages) Stage() coresys.Stage { return coresys.CleanupUnreadMessages }

func (s *CleanupUnreadMessages) Run(time.Duration) {
	for _, c := range s.ctx.Conns {
		drain := true
		for drain {
			select {
			case <-c.Inbox:
			default:
				drain = false
			}
		}
	}
}
