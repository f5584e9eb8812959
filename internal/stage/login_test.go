package stage

import (
	stdnet "net"
	"testing"

	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	"github.com/ironrose/server/internal/message"
	"github.com/ironrose/server/internal/netio"
	"github.com/ironrose/server/internal/resources"
	"github.com/ironrose/server/internal/storage"
	"go.uber.org/zap"
)

// newTestConn builds a Conn backed by an in-memory net.Pipe, good enough to
// drive a stage's Run method directly through Inbox/Outbox without a real
// socket. The read/write loops are never started; tests push straight onto
// Inbox and read straight off Outbox or a request's Reply channel.
func newTestConn(t *testing.T, id ecs.EntityID, tier Tier) *Conn {
	t.Helper()
	_, server := stdnet.Pipe()
	t.Cleanup(func() { server.Close() })
	nc := netio.NewConnection(server, uint64(id), 8, 8, zap.NewNop())
	return NewConn(id, tier, nc)
}

func newLoginTestContext(t *testing.T) *Context {
	t.Helper()
	return &Context{
		Stores:      NewStores(),
		Accounts:    storage.NewAccountStorage(t.TempDir()),
		Characters:  storage.NewCharacterStorage(t.TempDir()),
		ServerList:  resources.NewServerList(),
		LoginTokens: resources.NewLoginTokens(),
		Conns:       make(map[ecs.EntityID]*Conn),
		Log:         zap.NewNop(),
	}
}

func TestLoginServerAuthenticationConnectionRequestReplies(t *testing.T) {
	ctx := newLoginTestContext(t)
	s := NewLoginServerAuthentication(ctx)

	conn := newTestConn(t, 1, TierLogin)
	ctx.Conns[1] = conn

	reply := message.NewReply[message.ConnectionRequestReply]()
	conn.Inbox <- message.ClientMessage{
		Kind:              message.KindConnectionRequest,
		ConnectionRequest: &message.ConnectionRequest{Reply: reply},
	}

	s.Run(0)

	select {
	case rep := <-reply:
		if !rep.Ok {
			t.Fatalf("ConnectionRequest reply Ok = false, want true")
		}
	default:
		t.Fatalf("stage never answered the ConnectionRequest")
	}
}

func TestLoginServerAuthenticationRejectsUnknownAccount(t *testing.T) {
	ctx := newLoginTestContext(t)
	s := NewLoginServerAuthentication(ctx)

	conn := newTestConn(t, 1, TierLogin)
	ctx.Conns[1] = conn

	reply := message.NewReply[message.LoginRequestReply]()
	conn.Inbox <- message.ClientMessage{
		Kind: message.KindLoginRequest,
		LoginRequest: &message.LoginRequest{
			Username:    "nobody",
			PasswordMD5: "x",
			Reply:       reply,
		},
	}

	s.Run(0)

	rep := <-reply
	if rep.Ok {
		t.Fatalf("login with unknown account should fail")
	}
	if rep.Error != message.LoginErrorInvalidAccount {
		t.Fatalf("Error = %v, want LoginErrorInvalidAccount", rep.Error)
	}
	if ctx.Stores.Accounts.Has(1) {
		t.Fatalf("a failed login must not attach an Account component")
	}
}

func TestLoginServerAuthenticationAcceptsValidCredentials(t *testing.T) {
	ctx := newLoginTestContext(t)
	if _, err := ctx.Accounts.Create("alice", "pw-hash"); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	s := NewLoginServerAuthentication(ctx)

	conn := newTestConn(t, 1, TierLogin)
	ctx.Conns[1] = conn

	reply := message.NewReply[message.LoginRequestReply]()
	conn.Inbox <- message.ClientMessage{
		Kind: message.KindLoginRequest,
		LoginRequest: &message.LoginRequest{
			Username:    "alice",
			PasswordMD5: "pw-hash",
			Reply:       reply,
		},
	}

	s.Run(0)

	rep := <-reply
	if !rep.Ok {
		t.Fatalf("login with correct credentials should succeed, got error %v", rep.Error)
	}
	if !ctx.Stores.Accounts.Has(1) {
		t.Fatalf("a successful login must attach an Account component")
	}
}

func TestLoginServerGetWorldServerListReturnsSeededWorlds(t *testing.T) {
	ctx := newLoginTestContext(t)
	ctx.ServerList.Worlds = []resources.WorldServer{
		{Entity: 10, Name: "world-1"},
		{Entity: 11, Name: "world-2"},
	}
	s := NewLoginServer(ctx)

	conn := newTestConn(t, 1, TierLogin)
	ctx.Conns[1] = conn
	ctx.Stores.Accounts.Set(1, &components.Account{Name: "alice"})

	reply := message.NewReply[[]message.WorldServerInfo]()
	conn.Inbox <- message.ClientMessage{
		Kind:               message.KindGetWorldServerList,
		GetWorldServerList: &message.GetWorldServerList{Reply: reply},
	}

	s.Run(0)

	list := <-reply
	if len(list) != 2 || list[0].Name != "world-1" || list[1].Name != "world-2" {
		t.Fatalf("GetWorldServerList reply = %+v, want [world-1 world-2]", list)
	}
}

func TestLoginServerJoinServerIssuesToken(t *testing.T) {
	ctx := newLoginTestContext(t)
	ctx.ServerList.Worlds = []resources.WorldServer{
		{
			Entity: 10,
			Name:   "world-1",
			IP:     "127.0.0.1",
			Port:   9000,
			Seed:   42,
			Channels: []resources.GameServer{
				{Entity: 20, Name: "channel-1", IP: "10.0.0.5", Port: 7100, Seed: 7},
			},
		},
	}
	s := NewLoginServer(ctx)

	conn := newTestConn(t, 1, TierLogin)
	ctx.Conns[1] = conn
	ctx.Stores.Accounts.Set(1, &components.Account{Name: "alice"})

	reply := message.NewReply[message.JoinServerReply]()
	conn.Inbox <- message.ClientMessage{
		Kind: message.KindJoinServer,
		JoinServer: &message.JoinServer{
			ServerID:  0,
			ChannelID: 0,
			Reply:     reply,
		},
	}

	s.Run(0)

	rep := <-reply
	if !rep.Ok {
		t.Fatalf("JoinServer reply Ok = false, want true")
	}
	if rep.Token == 0 {
		t.Fatalf("JoinServer should mint a nonzero login token")
	}
	if rep.IP != "127.0.0.1" || rep.Port != 9000 || rep.CodecSeed != 42 {
		t.Fatalf("JoinServer reply = %+v, want the seeded world server's address", rep)
	}

	tok, ok := ctx.LoginTokens.Lookup(rep.Token)
	if !ok || tok.Username != "alice" {
		t.Fatalf("Lookup(%d) = %+v, ok=%v, want a token for alice", rep.Token, tok, ok)
	}
}

func TestLoginServerJoinServerRejectsUnknownWorld(t *testing.T) {
	ctx := newLoginTestContext(t)
	s := NewLoginServer(ctx)

	conn := newTestConn(t, 1, TierLogin)
	ctx.Conns[1] = conn
	ctx.Stores.Accounts.Set(1, &components.Account{Name: "alice"})

	reply := message.NewReply[message.JoinServerReply]()
	conn.Inbox <- message.ClientMessage{
		Kind: message.KindJoinServer,
		JoinServer: &message.JoinServer{
			ServerID:  7,
			ChannelID: 0,
			Reply:     reply,
		},
	}

	s.Run(0)

	rep := <-reply
	if rep.Ok {
		t.Fatalf("JoinServer against an unknown world should fail")
	}
}
