package stage

import (
	"time"

	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	coresys "github.com/ironrose/server/internal/core/system"
	"github.com/ironrose/server/internal/message"
	"go.uber.org/zap"
)

// defaultPlayerMaxHP is the starting health pool a character joins the
// world with until a real stats system replaces it — out of scope per
// spec.md's no-gameplay-content Non-goal.
const defaultPlayerMaxHP uint32 = 100

// GameServerAuthentication handles a fresh game-tier connection's
// handshake: resolve the login token minted by world-tier SelectCharacter,
// load the selected character, and consume the token (one session per
// token).
type GameServerAuthentication struct {
	ctx *Context
}

func NewGameServerAuthentication(ctx *Context) *GameServerAuthentication {
	return &GameServerAuthentication{ctx: ctx}
}

func (s *GameServerAuthentication) Stage() coresys.Stage {
	return coresys.GameServerAuthentication
}

func (s *GameServerAuthentication) Run(time.Duration) {
	for id, c := range s.ctx.Conns {
		if c.Tier != TierGame || s.ctx.Stores.Accounts.Has(id) {
			continue
		}
		msg, ok := recv(c)
		if !ok {
			continue
		}
		if msg.Kind != message.KindConnectionRequest {
			c.Net.Close()
			continue
		}
		s.handleConnectionRequest(id, msg.ConnectionRequest)
	}
}

func (s *GameServerAuthentication) handleConnectionRequest(id ecs.EntityID, req *message.ConnectionRequest) {
	tok, ok := s.ctx.LoginTokens.Lookup(req.LoginToken)
	if !ok || tok.SelectedCharacter == nil {
		req.Reply <- message.ConnectionRequestReply{Ok: false}
		return
	}

	ch, err := s.ctx.Characters.TryLoad(*tok.SelectedCharacter)
	if err != nil {
		s.ctx.Log.Warn("character load failed", zap.String("name", *tok.SelectedCharacter), zap.Error(err))
		req.Reply <- message.ConnectionRequestReply{Ok: false}
		return
	}

	s.ctx.Stores.Accounts.Set(id, &components.Account{Name: tok.Username})
	s.ctx.Stores.Characters.Set(id, &ch)
	s.ctx.Stores.HealthPoints.Set(id, &components.HealthPoints{Current: defaultPlayerMaxHP, Max: defaultPlayerMaxHP})
	s.ctx.Stores.LoginTokenRefs.Set(id, &components.LoginTokenRef{Token: req.LoginToken})
	s.ctx.LoginTokens.Consume(req.LoginToken)

	req.Reply <- message.ConnectionRequestReply{Ok: true, PacketSequenceID: packetSequenceID}
}

// GameServerJoin handles the JoinZone handshake: an authenticated game
// connection that hasn't yet entered the simulated world gets its
// ClientEntity, Position and Command attached here, from the character's
// last saved position.
type GameServerJoin struct {
	ctx *Context
}

func NewGameServerJoin(ctx *Context) *GameServerJoin { return &GameServerJoin{ctx: ctx} }

func (s *GameServerJoin) Stage() coresys.Stage { return coresys.GameServerJoin }

func (s *GameServerJoin) Run(time.Duration) {
	st := s.ctx.Stores
	for id, c := range s.ctx.Conns {
		if c.Tier != TierGame || !st.Accounts.Has(id) || st.ClientEntities.Has(id) {
			continue
		}
		msg, ok := recv(c)
		if !ok {
			continue
		}
		if msg.Kind != message.KindJoinZone {
			c.Net.Close()
			continue
		}
		s.handleJoinZone(id, msg.JoinZone)
	}
}

func (s *GameServerJoin) handleJoinZone(id ecs.EntityID, req *message.JoinZone) {
	st := s.ctx.Stores
	ch, _ := st.Characters.Get(id)

	pos := ch.Position
	clientID := s.ctx.ClientEntIDs.Acquire(pos.Zone)

	st.Positions.Set(id, &components.Position{Zone: pos.Zone, Point: pos.Point})
	st.ClientEntities.Set(id, &components.ClientEntity{ID: clientID})
	st.Commands.Set(id, &components.Command{Kind: components.CommandStop})

	req.Reply <- message.JoinZoneReply{Ok: true, ClientEntity: clientID, Position: pos}
}

// GameServerMove ingests Move/Chat/SetHotbarSlot traffic from already
// zone-joined connections. Unlike the handshake stages it has no
// request/response shape: all three are fire-and-forget per spec.md §4.8.
type GameServerMove struct {
	ctx *Context
}

func NewGameServerMove(ctx *Context) *GameServerMove { return &GameServerMove{ctx: ctx} }

func (s *GameServerMove) Stage() coresys.Stage { return coresys.GameServerMove }

func (s *GameServerMove) Run(time.Duration) {
	st := s.ctx.Stores
	for id, c := range s.ctx.Conns {
		if c.Tier != TierGame || !st.ClientEntities.Has(id) {
			continue
		}
		msg, ok := recv(c)
		if !ok {
			continue
		}
		switch msg.Kind {
		case message.KindMove:
			s.handleMove(id, msg.Move)
		case message.KindChat:
			s.handleChat(id, msg.Chat)
		case message.KindSetHotbarSlot:
			s.handleSetHotbarSlot(id, msg.SetHotbarSlot)
		default:
			c.Net.Close()
		}
	}
}

func (s *GameServerMove) handleMove(id ecs.EntityID, move *message.Move) {
	st := s.ctx.Stores
	if move.Target != nil {
		st.NextCommands.Set(id, &components.NextCommand{Kind: components.CommandAttack, Target: *move.Target})
		return
	}
	st.NextCommands.Set(id, &components.NextCommand{Kind: components.CommandMove, Destination: move.Destination})
}

func (s *GameServerMove) handleChat(id ecs.EntityID, chat *message.Chat) {
	st := s.ctx.Stores
	entID, ok := st.ClientEntities.Get(id)
	if !ok {
		return
	}
	pos, ok := st.Positions.Get(id)
	if !ok {
		return
	}
	s.ctx.Broadcast(pos.Zone, 0, message.ServerMessage{
		Kind:          message.KindChatBroadcast,
		ChatBroadcast: &message.ChatBroadcast{SpeakerID: entID.ID, Text: chat.Text},
	})
}

func (s *GameServerMove) handleSetHotbarSlot(id ecs.EntityID, req *message.SetHotbarSlot) {
	ch, ok := s.ctx.Stores.Characters.Get(id)
	if !ok || req.Slot < 0 || req.Slot >= len(ch.Hotbar) {
		return
	}
	ch.Hotbar[req.Slot] = req.Data
}
