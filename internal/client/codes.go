// Package client is the protocol-to-simulation bridge (spec.md §4.2): one
// goroutine per connection, running the same skeleton on all three tiers —
// decode an incoming Packet into a ClientMessage, forward it to the
// simulation's inbox, await the reply for request/response commands, write
// the reply packet back. Nothing past this package ever touches raw
// packet bytes or protocol.Cipher state.
//
// The exact wire opcode numbers are this package's own — spec.md treats
// the byte-for-byte dictionary as an external, out-of-scope artifact
// (§4.1), so these constants exist to give every ClientMessage/ServerMessage
// variant a concrete command id rather than to match any published client.
package client

// Login tier command ids.
const (
	CmdConnectionRequest   uint16 = 1
	CmdLoginRequest        uint16 = 2
	CmdGetWorldServerList  uint16 = 3
	CmdGetChannelList      uint16 = 4
	CmdJoinServer          uint16 = 5
)

// World tier command ids.
const (
	CmdWorldConnectionRequest uint16 = 10
	CmdGetCharacterList       uint16 = 11
	CmdCreateCharacter        uint16 = 12
	CmdDeleteCharacter        uint16 = 13
	CmdSelectCharacter        uint16 = 14
)

// Game tier command ids, inbound and outbound.
const (
	CmdGameConnectionRequest uint16 = 20
	CmdJoinZone              uint16 = 21
	CmdChat                  uint16 = 22
	CmdMove                  uint16 = 23
	CmdSetHotbarSlot         uint16 = 24

	CmdStopMoveEntity uint16 = 30
	CmdMoveEntity     uint16 = 31
	CmdAttackEntity   uint16 = 32
	CmdSpawnEntity    uint16 = 33
	CmdRemoveEntities uint16 = 34
	CmdChatBroadcast  uint16 = 35
)
