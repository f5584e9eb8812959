// Package message defines the typed inbound/outbound unions that cross the
// protocol-to-simulation bridge. A Connection's read loop decodes a wire
// Packet and a tier-specific client loop converts it to a ClientMessage
// before it ever reaches the simulation; nothing past this package touches
// raw packet bytes.
package message

import (
	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
)

// Reply is a single-use, one-shot reply channel embedded in a request
// ClientMessage variant. The simulation sends exactly one value (or closes
// the channel without sending, which the client loop treats as failure).
type Reply[T any] chan T

func NewReply[T any]() Reply[T] {
	return make(Reply[T], 1)
}

// ClientMessage is the tagged union of everything a connection can send
// into the simulation, across all three tiers. Exactly one field is set
// per value; Kind says which.
type ClientMessage struct {
	Kind ClientMessageKind

	ConnectionRequest   *ConnectionRequest
	LoginRequest        *LoginRequest
	GetWorldServerList  *GetWorldServerList
	GetChannelList      *GetChannelList
	JoinServer          *JoinServer

	GetCharacterList *GetCharacterList
	CreateCharacter  *CreateCharacter
	DeleteCharacter  *DeleteCharacter
	SelectCharacter  *SelectCharacter

	JoinZone      *JoinZone
	Chat          *Chat
	Move          *Move
	SetHotbarSlot *SetHotbarSlot
}

type ClientMessageKind int

const (
	KindConnectionRequest ClientMessageKind = iota
	KindLoginRequest
	KindGetWorldServerList
	KindGetChannelList
	KindJoinServer
	KindGetCharacterList
	KindCreateCharacter
	KindDeleteCharacter
	KindSelectCharacter
	KindJoinZone
	KindChat
	KindMove
	KindSetHotbarSlot
)

// ConnectionRequestReply is the common Ok/Failed reply shape for a tier's
// initial handshake.
type ConnectionRequestReply struct {
	Ok               bool
	PacketSequenceID uint32
}

// ConnectionRequest is login tier's bare handshake, or world/game tier's
// handshake carrying the login token minted by the previous tier.
type ConnectionRequest struct {
	LoginToken  uint32 // zero on the login tier
	PasswordMD5 string // re-verified by world tier; token is not a bearer secret
	Reply       Reply[ConnectionRequestReply]
}

type LoginRequestReply struct {
	Ok    bool
	Error LoginError
}

type LoginError int

const (
	LoginErrorNone LoginError = iota
	LoginErrorInvalidAccount
	LoginErrorInvalidPassword
	LoginErrorFailed
)

type LoginRequest struct {
	Username    string
	PasswordMD5 string
	Reply       Reply[LoginRequestReply]
}

type WorldServerInfo struct {
	Index int
	Name  string
}

type GetWorldServerList struct {
	Reply Reply[[]WorldServerInfo]
}

type ChannelInfo struct {
	Index int
	Name  string
}

type GetChannelListReply struct {
	Ok       bool // false means InvalidServerId
	Channels []ChannelInfo
}

type GetChannelList struct {
	ServerID int
	Reply    Reply[GetChannelListReply]
}

type JoinServerReply struct {
	Ok        bool // false means InvalidServerId/InvalidChannelId
	Token     uint32
	CodecSeed int32
	IP        string
	Port      int
}

type JoinServer struct {
	ServerID  int
	ChannelID int
	Reply     Reply[JoinServerReply]
}

type GetCharacterList struct {
	Reply Reply[[]components.CharacterListItem]
}

type CreateCharacterRequest struct {
	Name       string
	Gender     int
	Face       int
	Hair       int
	BirthStone int
}

type CreateCharacterError int

const (
	CreateCharacterErrorNone CreateCharacterError = iota
	CreateCharacterErrorNoMoreSlots
	CreateCharacterErrorInvalidValue
	CreateCharacterErrorAlreadyExists
)

type CreateCharacterReply struct {
	Ok    bool
	Error CreateCharacterError
	Slot  int
}

type CreateCharacter struct {
	Request CreateCharacterRequest
	Reply   Reply[CreateCharacterReply]
}

type DeleteCharacterReply struct {
	Ok         bool
	DeleteTime *int64 // unix seconds remaining-until-delete marker, nil if cleared
}

type DeleteCharacter struct {
	Slot     int
	Name     string
	IsDelete bool
	Reply    Reply[DeleteCharacterReply]
}

type SelectCharacterReply struct {
	Ok         bool
	LoginToken uint32
	CodecSeed  int32
	IP         string
	Port       int
}

type SelectCharacter struct {
	Slot  int
	Name  string
	Reply Reply[SelectCharacterReply]
}

type JoinZoneReply struct {
	Ok           bool
	ClientEntity uint32
	Position     components.Position
}

type JoinZone struct {
	Reply Reply[JoinZoneReply]
}

// Chat, Move and SetHotbarSlot are fire-and-forget: no reply channel.
type Chat struct {
	Text string
}

type Move struct {
	Destination components.Point
	Target      *ecs.EntityID
}

type SetHotbarSlot struct {
	Slot int
	Data components.HotbarSlot
}
