// Package stage implements the scheduler's sixteen ordered stages. Each
// stage is a small system.System reading and writing a shared *Context —
// the resource bundle and component stores spec.md §9 calls out as
// "ambient shared state" that handlers declare reads/writes against.
package stage

import (
	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	"github.com/ironrose/server/internal/data"
	"github.com/ironrose/server/internal/message"
	"github.com/ironrose/server/internal/netio"
	"github.com/ironrose/server/internal/resources"
	"github.com/ironrose/server/internal/scripting"
	"github.com/ironrose/server/internal/spawner"
	"github.com/ironrose/server/internal/storage"
	"github.com/ironrose/server/internal/worldmap"
	"go.uber.org/zap"
)

// Stores bundles every component store a stage might touch.
type Stores struct {
	Positions      *ecs.Store[components.Position]
	Destinations   *ecs.Store[components.Destination]
	Commands       *ecs.Store[components.Command]
	NextCommands   *ecs.Store[components.NextCommand]
	Accounts       *ecs.Store[components.Account]
	CharacterLists *ecs.Store[components.CharacterList]
	Characters     *ecs.Store[components.Character]
	ClientEntities *ecs.Store[components.ClientEntity]
	HealthPoints   *ecs.Store[components.HealthPoints]
	LoginTokenRefs *ecs.Store[components.LoginTokenRef]
	AITags         *ecs.Store[components.AIControlled]
	PendingDamage  *ecs.Store[components.PendingDamage]
	DeathMarkers   *ecs.Store[components.DeathMarker]
}

// NewStores allocates every store in the bundle.
func NewStores() Stores {
	return Stores{
		Positions:      ecs.NewStore[components.Position](),
		Destinations:   ecs.NewStore[components.Destination](),
		Commands:       ecs.NewStore[components.Command](),
		NextCommands:   ecs.NewStore[components.NextCommand](),
		Accounts:       ecs.NewStore[components.Account](),
		CharacterLists: ecs.NewStore[components.CharacterList](),
		Characters:     ecs.NewStore[components.Character](),
		ClientEntities: ecs.NewStore[components.ClientEntity](),
		HealthPoints:   ecs.NewStore[components.HealthPoints](),
		LoginTokenRefs: ecs.NewStore[components.LoginTokenRef](),
		AITags:         ecs.NewStore[components.AIControlled](),
		PendingDamage:  ecs.NewStore[components.PendingDamage](),
		DeathMarkers:   ecs.NewStore[components.DeathMarker](),
	}
}

// ForSpawner projects the subset of Stores the spawner package needs,
// paired with the entity id recycler.
func (s Stores) ForSpawner(ids *resources.ClientEntityIdList) spawner.Stores {
	return spawner.Stores{
		Positions:      s.Positions,
		ClientEntities: s.ClientEntities,
		Commands:       s.Commands,
		Health:         s.HealthPoints,
		AITags:         s.AITags,
		IDs:            ids,
	}
}

// Register adds every store to the world's registry so entity destroy
// clears all of them.
func (s Stores) Register(reg *ecs.Registry) {
	reg.Register(s.Positions)
	reg.Register(s.Destinations)
	reg.Register(s.Commands)
	reg.Register(s.NextCommands)
	reg.Register(s.Accounts)
	reg.Register(s.CharacterLists)
	reg.Register(s.Characters)
	reg.Register(s.ClientEntities)
	reg.Register(s.HealthPoints)
	reg.Register(s.LoginTokenRefs)
	reg.Register(s.AITags)
	reg.Register(s.PendingDamage)
	reg.Register(s.DeathMarkers)
}

// Tier is which protocol personality a connection entity belongs to.
type Tier int

const (
	TierLogin Tier = iota
	TierWorld
	TierGame
)

// Conn is one connection entity's bookkeeping: the channels bridging it to
// its netio.Connection and which tier it belongs to. Stored outside the ecs
// stores since it's I/O-domain-facing glue, not simulation data.
// outboxSize bounds the per-connection outbound ServerMessage channel, per
// spec.md §4.3's "outbound: per-connection single-producer single-consumer,
// bounded" contract. A full outbox means a network-stalled client; the
// server_messages_sender stage drops it rather than stalling the tick.
const outboxSize = 256

// inboxSize matches spec.md §4.3's recommended inbound bound.
const inboxSize = 64

type Conn struct {
	Entity ecs.EntityID
	Tier   Tier
	Net    *netio.Connection

	// Inbox carries decoded ClientMessage values from this connection's
	// per-tier protocol client goroutine. Each tick, the stage matching
	// this connection's current state reads at most one value;
	// cleanup_unread_messages drains whatever is left.
	Inbox chan message.ClientMessage

	// Outbox carries ServerMessage values bound for this connection's
	// per-tier client loop, which encodes and writes them to the socket.
	// Only populated/consumed for game-tier connections today; login and
	// world tiers only ever reply through request/response Reply channels.
	Outbox chan message.ServerMessage
}

// NewConn allocates a Conn with its Inbox/Outbox ready to use.
func NewConn(entity ecs.EntityID, tier Tier, net *netio.Connection) *Conn {
	return &Conn{
		Entity: entity,
		Tier:   tier,
		Net:    net,
		Inbox:  make(chan message.ClientMessage, inboxSize),
		Outbox: make(chan message.ServerMessage, outboxSize),
	}
}

// Context is the resource bundle every stage reads and writes.
type Context struct {
	World  *ecs.World
	Stores Stores

	ServerList    *resources.ServerList
	LoginTokens   *resources.LoginTokens
	ClientEntIDs  *resources.ClientEntityIdList
	Messages      *resources.ServerMessages
	WorldTime     *resources.WorldTime
	GameData      *data.GameData

	Accounts   *storage.AccountStorage
	Characters *storage.CharacterStorage

	AI        *scripting.AI
	DropTable *scripting.DropTable

	Visibility *worldmap.Visibility
	Grid       *worldmap.Grid

	Spawner *spawner.Spawner

	// Conns holds every live connection entity's I/O glue, keyed by its
	// ecs.EntityID. Populated by control_server on accept, removed at
	// entity destroy.
	Conns map[ecs.EntityID]*Conn

	Log *zap.Logger
}

// Broadcast is a convenience wrapper matching spec.md §4.9: entity-scoped
// if entity is nonzero, zone-scoped otherwise.
func (c *Context) Broadcast(zone components.ZoneID, entity ecs.EntityID, msg message.ServerMessage) {
	msg.Scope = message.Scope{Entity: entity, Zone: zone}
	c.Messages.Push(msg)
}

// Direct pushes msg straight to recipient's own connection, bypassing
// visibility. Used for an observer's personal Spawn/RemoveEntities feed.
func (c *Context) Direct(recipient ecs.EntityID, msg message.ServerMessage) {
	msg.Scope = message.Scope{DirectTo: recipient}
	c.Messages.Push(msg)
}

// recv does a non-blocking receive of at most one ClientMessage from conn's
// Inbox. The authentication/traffic stages each call this once per
// connection per tick; whatever is left unread is drained by
// cleanup_unread_messages at the end of the tick.
func recv(conn *Conn) (message.ClientMessage, bool) {
	select {
	case msg := <-conn.Inbox:
		return msg, true
	default:
		return message.ClientMessage{}, false
	}
}
