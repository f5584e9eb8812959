package message

import (
	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
)

// ServerMessage is the tagged union of broadcast traffic the simulation
// pushes toward connections outside of a request/response reply. Scope
// says whether delivery fans out to one entity's observers or to the
// whole zone.
type ServerMessage struct {
	Kind  ServerMessageKind
	Scope Scope

	StopMoveEntity *StopMoveEntity
	MoveEntity     *MoveEntity
	AttackEntity   *AttackEntity
	SpawnEntity    *SpawnEntity
	RemoveEntities *RemoveEntities
	ChatBroadcast  *ChatBroadcast
}

type ServerMessageKind int

const (
	KindStopMoveEntity ServerMessageKind = iota
	KindMoveEntity
	KindAttackEntity
	KindSpawnEntity
	KindRemoveEntities
	KindChatBroadcast
)

// Scope selects how ServerMessagesSender fans a message out to connections.
// Exactly one of DirectTo, or (Entity and/or Zone), is meaningful for a
// given message — see Context.Broadcast and Context.Direct in internal/stage.
type Scope struct {
	// Entity-scoped: delivered to every observer currently able to see
	// Entity (per worldmap.Visibility), not to Entity's own connection.
	Entity ecs.EntityID
	// Zone-scoped: delivered to every observer in Zone. Nonzero Entity
	// takes precedence over Zone for entity-scoped messages.
	Zone components.ZoneID
	// DirectTo, when nonzero, delivers straight to the connection owning
	// this entity, bypassing visibility entirely. client_entity_visibility
	// uses this for an observer's own Spawn/RemoveEntities feed: a Spawn
	// about entity T entering observer O's view must reach only O, not
	// every other connection that can already see T.
	DirectTo ecs.EntityID
}

type StopMoveEntity struct {
	ClientID uint32
	Position components.Point
}

type MoveEntity struct {
	ClientID    uint32
	TargetID    uint32 // 0 if no target
	Distance    float32
	Destination components.Point
}

type AttackEntity struct {
	AttackerID uint32
	TargetID   uint32
	Distance   float32
	Target     components.Point
}

type SpawnEntity struct {
	ClientID uint32
	Position components.Position
}

type RemoveEntities struct {
	ClientIDs []uint32
}

// ChatBroadcast carries one zone-scoped chat line out to every observer in
// range, per the game tier's fire-and-forget Chat client message.
type ChatBroadcast struct {
	SpeakerID uint32
	Text      string
}
