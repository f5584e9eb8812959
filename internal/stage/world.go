package stage

import (
	"time"

	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	coresys "github.com/ironrose/server/internal/core/system"
	"github.com/ironrose/server/internal/message"
	"github.com/ironrose/server/internal/resources"
	"github.com/ironrose/server/internal/storage"
	"go.uber.org/zap"
)

// maxCharacters is the account-wide character slot cap spec.md §3 names.
const maxCharacters = 5

// minCharacterNameLen and maxCharacterNameLen are CreateCharacter's name
// length bounds (spec.md §4.7/§8), per
// original_source/src/game/systems/world_server.rs's
// message.name.len() < 4 || message.name.len() > 20 check.
const (
	minCharacterNameLen = 4
	maxCharacterNameLen = 20
)

// deleteGracePeriod is how long a character marked for deletion sits with
// DeleteTime set before it's actually eligible for removal, giving the
// owning account a window to cancel the delete.
const deleteGracePeriod = 7 * 24 * time.Hour

// WorldServerAuthentication handles a world-tier connection's handshake:
// look up the login token minted by the login tier, re-verify the account
// password, load the account's characters, and prune any past their
// delete grace period.
type WorldServerAuthentication struct {
	ctx *Context
}

func NewWorldServerAuthentication(ctx *Context) *WorldServerAuthentication {
	return &WorldServerAuthentication{ctx: ctx}
}

func (s *WorldServerAuthentication) Stage() coresys.Stage {
	return coresys.WorldServerAuthentication
}

func (s *WorldServerAuthentication) Run(time.Duration) {
	for id, c := range s.ctx.Conns {
		if c.Tier != TierWorld || s.ctx.Stores.Accounts.Has(id) {
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

func (s *WorldServerAuthentication) handleConnectionRequest(id ecs.EntityID, req *message.ConnectionRequest) {
	tok, ok := s.ctx.LoginTokens.Lookup(req.LoginToken)
	if !ok {
		req.Reply <- message.ConnectionRequestReply{Ok: false}
		return
	}

	acct, err := s.ctx.Accounts.TryLoad(tok.Username, req.PasswordMD5)
	if err != nil {
		req.Reply <- message.ConnectionRequestReply{Ok: false}
		return
	}

	now := s.ctx.WorldTime.Now()
	var charList components.CharacterList
	kept := acct.CharacterNames[:0]
	for _, name := range acct.CharacterNames {
		ch, err := s.ctx.Characters.TryLoad(name)
		if err != nil {
			continue
		}
		if ch.DeleteTime != nil && !now.Before(*ch.DeleteTime) {
			if err := s.ctx.Characters.Delete(name); err != nil {
				s.ctx.Log.Warn("character delete failed", zap.String("name", name), zap.Error(err))
			}
			continue
		}
		charList.Characters = append(charList.Characters, ch)
		kept = append(kept, name)
	}
	if len(kept) != len(acct.CharacterNames) {
		acct.CharacterNames = kept
		if err := s.ctx.Accounts.Save(acct); err != nil {
			s.ctx.Log.Warn("account save failed", zap.String("name", acct.Name), zap.Error(err))
		}
	}

	s.ctx.Stores.Accounts.Set(id, &components.Account{Name: acct.Name, CharacterNames: kept})
	s.ctx.Stores.CharacterLists.Set(id, &charList)
	s.ctx.Stores.LoginTokenRefs.Set(id, &components.LoginTokenRef{Token: req.LoginToken})

	req.Reply <- message.ConnectionRequestReply{Ok: true, PacketSequenceID: packetSequenceID}
}

// WorldServer handles post-Account world traffic: character list/create/
// delete/select.
type WorldServer struct {
	ctx *Context
}

func NewWorldServer(ctx *Context) *WorldServer { return &WorldServer{ctx: ctx} }

func (s *WorldServer) Stage() coresys.Stage { return coresys.WorldServer }

func (s *WorldServer) Run(time.Duration) {
	for id, c := range s.ctx.Conns {
		if c.Tier != TierWorld || !s.ctx.Stores.Accounts.Has(id) {
			continue
		}
		msg, ok := recv(c)
		if !ok {
			continue
		}
		switch msg.Kind {
		case message.KindGetCharacterList:
			s.handleGetCharacterList(id, msg.GetCharacterList)
		case message.KindCreateCharacter:
			s.handleCreateCharacter(id, msg.CreateCharacter)
		case message.KindDeleteCharacter:
			s.handleDeleteCharacter(id, msg.DeleteCharacter)
		case message.KindSelectCharacter:
			s.handleSelectCharacter(id, msg.SelectCharacter)
		default:
			c.Net.Close()
		}
	}
}

func (s *WorldServer) handleGetCharacterList(id ecs.EntityID, req *message.GetCharacterList) {
	charList, _ := s.ctx.Stores.CharacterLists.Get(id)
	items := make([]components.CharacterListItem, len(charList.Characters))
	for i, ch := range charList.Characters {
		items[i] = components.CharacterListItem{Slot: i, Name: ch.Info.Name, Level: ch.Level}
	}
	req.Reply <- items
}

func (s *WorldServer) handleCreateCharacter(id ecs.EntityID, req *message.CreateCharacter) {
	charList, _ := s.ctx.Stores.CharacterLists.Get(id)
	acct, _ := s.ctx.Stores.Accounts.Get(id)

	if len(charList.Characters) >= maxCharacters {
		req.Reply <- message.CreateCharacterReply{Ok: false, Error: message.CreateCharacterErrorNoMoreSlots}
		return
	}
	if n := len(req.Request.Name); n < minCharacterNameLen || n > maxCharacterNameLen {
		req.Reply <- message.CreateCharacterReply{Ok: false, Error: message.CreateCharacterErrorInvalidValue}
		return
	}
	if s.ctx.Characters.Exists(req.Request.Name) {
		req.Reply <- message.CreateCharacterReply{Ok: false, Error: message.CreateCharacterErrorAlreadyExists}
		return
	}

	ch, err := s.ctx.GameData.CharacterCreator.CreateCharacter(components.CharacterInfo{
		Name:       req.Request.Name,
		Gender:     req.Request.Gender,
		Face:       req.Request.Face,
		Hair:       req.Request.Hair,
		BirthStone: req.Request.BirthStone,
	})
	if err != nil {
		req.Reply <- message.CreateCharacterReply{Ok: false, Error: message.CreateCharacterErrorInvalidValue}
		return
	}

	if err := s.ctx.Characters.Save(ch); err != nil {
		s.ctx.Log.Warn("character save failed", zap.String("name", ch.Info.Name), zap.Error(err))
		req.Reply <- message.CreateCharacterReply{Ok: false, Error: message.CreateCharacterErrorInvalidValue}
		return
	}

	charList.Characters = append(charList.Characters, ch)
	acct.CharacterNames = append(acct.CharacterNames, ch.Info.Name)
	if err := s.ctx.Accounts.Save(storage.Account{Name: acct.Name, CharacterNames: acct.CharacterNames}); err != nil {
		s.ctx.Log.Warn("account save failed", zap.String("name", acct.Name), zap.Error(err))
	}

	req.Reply <- message.CreateCharacterReply{Ok: true, Slot: len(charList.Characters) - 1}
}

func (s *WorldServer) handleDeleteCharacter(id ecs.EntityID, req *message.DeleteCharacter) {
	charList, _ := s.ctx.Stores.CharacterLists.Get(id)
	if req.Slot < 0 || req.Slot >= len(charList.Characters) || charList.Characters[req.Slot].Info.Name != req.Name {
		req.Reply <- message.DeleteCharacterReply{Ok: false}
		return
	}

	ch := &charList.Characters[req.Slot]
	if req.IsDelete {
		at := s.ctx.WorldTime.Now().Add(deleteGracePeriod)
		ch.DeleteTime = &at
	} else {
		ch.DeleteTime = nil
	}

	if err := s.ctx.Characters.Save(*ch); err != nil {
		s.ctx.Log.Warn("character save failed", zap.String("name", ch.Info.Name), zap.Error(err))
		req.Reply <- message.DeleteCharacterReply{Ok: false}
		return
	}

	var unix *int64
	if ch.DeleteTime != nil {
		v := ch.DeleteTime.Unix()
		unix = &v
	}
	req.Reply <- message.DeleteCharacterReply{Ok: true, DeleteTime: unix}
}

func (s *WorldServer) handleSelectCharacter(id ecs.EntityID, req *message.SelectCharacter) {
	charList, _ := s.ctx.Stores.CharacterLists.Get(id)
	if req.Slot < 0 || req.Slot >= len(charList.Characters) || charList.Characters[req.Slot].Info.Name != req.Name {
		req.Reply <- message.SelectCharacterReply{Ok: false}
		return
	}

	ref, _ := s.ctx.Stores.LoginTokenRefs.Get(id)
	tok, ok := s.ctx.LoginTokens.Lookup(ref.Token)
	if !ok {
		req.Reply <- message.SelectCharacterReply{Ok: false}
		return
	}
	gameServer, ok := findGameServer(s.ctx.ServerList, tok.SelectedGameServer)
	if !ok {
		req.Reply <- message.SelectCharacterReply{Ok: false}
		return
	}

	acct, _ := s.ctx.Stores.Accounts.Get(id)
	name := req.Name
	newTok := s.ctx.LoginTokens.Issue(acct.Name, tok.SelectedWorldServer, tok.SelectedGameServer)
	newTok.SelectedCharacter = &name
	s.ctx.LoginTokens.Consume(ref.Token)

	req.Reply <- message.SelectCharacterReply{
		Ok:         true,
		LoginToken: newTok.Token,
		CodecSeed:  gameServer.Seed,
		IP:         gameServer.IP,
		Port:       gameServer.Port,
	}
}

// findGameServer searches every world's channel list for the GameServer
// entry bound to entity, since LoginTokens only remembers the entity id a
// JoinServer call selected, not the channel's IP/Port/Seed.
func findGameServer(list *resources.ServerList, entity ecs.EntityID) (resources.GameServer, bool) {
	for _, w := range list.Worlds {
		for _, ch := range w.Channels {
			if ch.Entity == entity {
				return ch, true
			}
		}
	}
	return resources.GameServer{}, false
}
