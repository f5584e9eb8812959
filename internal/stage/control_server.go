package stage

import (
	"time"

	"github.com/ironrose/server/internal/client"
	"github.com/ironrose/server/internal/core/ecs"
	coresys "github.com/ironrose/server/internal/core/system"
	"github.com/ironrose/server/internal/netio"
)

// TierServer pairs a netio.Server with the tier personality it serves.
type TierServer struct {
	Tier   Tier
	Server *netio.Server
}

// ControlServer implements the control_server stage: drain each hosted
// tier's accept queue and turn every new Connection into a bare client
// entity with no components yet — login_server_authentication is what
// attaches Account once the handshake completes. It also launches the new
// connection's per-tier protocol client goroutine (internal/client), which
// is what actually moves bytes between conn.InQueue/OutQueue and the
// Conn's Inbox/Outbox the rest of the stages read and write.
type ControlServer struct {
	ctx     *Context
	servers []TierServer
}

func NewControlServer(ctx *Context, servers []TierServer) *ControlServer {
	return &ControlServer{ctx: ctx, servers: servers}
}

func (s *ControlServer) Stage() coresys.Stage { return coresys.ControlServer }

func (s *ControlServer) Run(dt time.Duration) {
	s.reapDisconnected()

	for _, ts := range s.servers {
	drain:
		for {
			select {
			case conn := <-ts.Server.NewConnections():
				id := s.ctx.World.CreateEntity()
				c := NewConn(id, ts.Tier, conn)
				s.ctx.Conns[id] = c
				go s.runProtocolClient(c)
			default:
				break drain
			}
		}
	}
}

// reapDisconnected destroys every connection entity whose socket has
// closed since the last tick, releasing its zone-scoped client id and
// dropping its observer visibility bookkeeping along with it.
func (s *ControlServer) reapDisconnected() {
	for _, id := range s.DisconnectedEntities() {
		if entID, ok := s.ctx.Stores.ClientEntities.Get(id); ok {
			if pos, ok := s.ctx.Stores.Positions.Get(id); ok {
				s.ctx.ClientEntIDs.Release(pos.Zone, entID.ID)
			}
			s.ctx.Grid.Remove(uint64(id))
			s.ctx.Visibility.Forget(uint64(id))
		}
		delete(s.ctx.Conns, id)
		s.ctx.World.MarkForDestruction(id)
	}
}

func (s *ControlServer) runProtocolClient(c *Conn) {
	switch c.Tier {
	case TierLogin:
		client.RunLogin(c.Net, c.Inbox)
	case TierWorld:
		client.RunWorld(c.Net, c.Inbox)
	case TierGame:
		client.RunGame(c.Net, c.Inbox, c.Outbox)
	}
}

// DisconnectedEntities returns every connection entity whose Connection
// has closed, so the caller can mark them for destruction.
func (s *ControlServer) DisconnectedEntities() []ecs.EntityID {
	var dead []ecs.EntityID
	for id, c := range s.ctx.Conns {
		if c.Net.IsClosed() {
			dead = append(dead, id)
		}
	}
	return dead
}
