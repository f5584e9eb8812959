package stage

import (
	"errors"
	"time"

	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	coresys "github.com/ironrose/server/internal/core/system"
	"github.com/ironrose/server/internal/message"
	"github.com/ironrose/server/internal/storage"
	"go.uber.org/zap"
)

// packetSequenceID is the fixed placeholder spec.md §6 requires every
// handshake reply to carry, in lieu of a real per-session sequence
// negotiation.
const packetSequenceID uint32 = 123

// LoginServerAuthentication handles login-tier traffic from a connection
// entity that hasn't yet attached Account: ConnectionRequest's bare
// handshake and LoginRequest's credential check against AccountStorage.
type LoginServerAuthentication struct {
	ctx *Context
}

func NewLoginServerAuthentication(ctx *Context) *LoginServerAuthentication {
	return &LoginServerAuthentication{ctx: ctx}
}

func (s *LoginServerAuthentication) Stage() coresys.Stage {
	return coresys.LoginServerAuthentication
}

func (s *LoginServerAuthentication) Run(time.Duration) {
	for id, c := range s.ctx.Conns {
		if c.Tier != TierLogin || s.ctx.Stores.Accounts.Has(id) {
			continue
		}
		msg, ok := recv(c)
		if !ok {
			continue
		}
		switch msg.Kind {
		case message.KindConnectionRequest:
			msg.ConnectionRequest.Reply <- message.ConnectionRequestReply{Ok: true, PacketSequenceID: packetSequenceID}
		case message.KindLoginRequest:
			s.handleLogin(id, msg.LoginRequest)
		default:
			c.Net.Close()
		}
	}
}

func (s *LoginServerAuthentication) handleLogin(id ecs.EntityID, req *message.LoginRequest) {
	acct, err := s.ctx.Accounts.TryLoad(req.Username, req.PasswordMD5)
	switch {
	case err == nil:
		s.ctx.Stores.Accounts.Set(id, &components.Account{Name: acct.Name, CharacterNames: acct.CharacterNames})
		req.Reply <- message.LoginRequestReply{Ok: true}
	case errors.Is(err, storage.ErrNotFound):
		req.Reply <- message.LoginRequestReply{Ok: false, Error: message.LoginErrorInvalidAccount}
	case errors.Is(err, storage.ErrInvalidPassword):
		req.Reply <- message.LoginRequestReply{Ok: false, Error: message.LoginErrorInvalidPassword}
	default:
		s.ctx.Log.Warn("account load failed", zap.String("username", req.Username), zap.Error(err))
		req.Reply <- message.LoginRequestReply{Ok: false, Error: message.LoginErrorFailed}
	}
}

// LoginServer handles post-Account login traffic: the server directory and
// the join handshake that hands the client off to a world server.
type LoginServer struct {
	ctx *Context
}

func NewLoginServer(ctx *Context) *LoginServer { return &LoginServer{ctx: ctx} }

func (s *LoginServer) Stage() coresys.Stage { return coresys.LoginServer }

func (s *LoginServer) Run(time.Duration) {
	for id, c := range s.ctx.Conns {
		if c.Tier != TierLogin || !s.ctx.Stores.Accounts.Has(id) {
			continue
		}
		msg, ok := recv(c)
		if !ok {
			continue
		}
		switch msg.Kind {
		case message.KindGetWorldServerList:
			s.handleGetWorldServerList(msg.GetWorldServerList)
		case message.KindGetChannelList:
			s.handleGetChannelList(msg.GetChannelList)
		case message.KindJoinServer:
			s.handleJoinServer(id, msg.JoinServer)
		default:
			c.Net.Close()
		}
	}
}

func (s *LoginServer) handleGetWorldServerList(req *message.GetWorldServerList) {
	list := make([]message.WorldServerInfo, len(s.ctx.ServerList.Worlds))
	for i, w := range s.ctx.ServerList.Worlds {
		list[i] = message.WorldServerInfo{Index: i, Name: w.Name}
	}
	req.Reply <- list
}

func (s *LoginServer) handleGetChannelList(req *message.GetChannelList) {
	world, ok := s.ctx.ServerList.World(req.ServerID)
	if !ok {
		req.Reply <- message.GetChannelListReply{Ok: false}
		return
	}
	channels := make([]message.ChannelInfo, len(world.Channels))
	for i, ch := range world.Channels {
		channels[i] = message.ChannelInfo{Index: i, Name: ch.Name}
	}
	req.Reply <- message.GetChannelListReply{Ok: true, Channels: channels}
}

func (s *LoginServer) handleJoinServer(id ecs.EntityID, req *message.JoinServer) {
	world, ok := s.ctx.ServerList.World(req.ServerID)
	if !ok {
		req.Reply <- message.JoinServerReply{Ok: false}
		return
	}
	channel, ok := s.ctx.ServerList.Channel(req.ServerID, req.ChannelID)
	if !ok {
		req.Reply <- message.JoinServerReply{Ok: false}
		return
	}
	acct, _ := s.ctx.Stores.Accounts.Get(id)

	token := s.ctx.LoginTokens.Issue(acct.Name, world.Entity, channel.Entity)
	req.Reply <- message.JoinServerReply{
		Ok:        true,
		Token:     token.Token,
		CodecSeed: world.Seed,
		IP:        world.IP,
		Port:      world.Port,
	}
}
