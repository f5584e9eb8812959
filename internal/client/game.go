package client

import (
	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/core/ecs"
	"github.com/ironrose/server/internal/message"
	"github.com/ironrose/server/internal/netio"
	"github.com/ironrose/server/internal/protocol"
)

// RunGame is the game tier's protocol client loop. Unlike login/world, it
// also drains outbox — the simulation's ServerMessage feed for this one
// connection — and encodes each value straight to the wire, interleaved
// with inbound packet handling exactly as spec.md §4.2's event-loop select
// describes.
func RunGame(conn *netio.Connection, inbox chan<- message.ClientMessage, outbox <-chan message.ServerMessage) {
	defer conn.Close()

	for {
		select {
		case <-conn.Done():
			return
		case pkt := <-conn.InQueue:
			if !dispatchGame(conn, inbox, pkt) {
				return
			}
		case msg := <-outbox:
			conn.Send(encodeServerMessage(msg))
		}
	}
}

func dispatchGame(conn *netio.Connection, inbox chan<- message.ClientMessage, pkt protocol.Packet) bool {
	r := protocol.NewPayloadReader(pkt.Payload)

	switch pkt.Command {
	case CmdGameConnectionRequest:
		loginToken := r.ReadUint32()
		reply := message.NewReply[message.ConnectionRequestReply]()
		if !send(inbox, message.ClientMessage{
			Kind:              message.KindConnectionRequest,
			ConnectionRequest: &message.ConnectionRequest{LoginToken: loginToken, Reply: reply},
		}) {
			return false
		}
		rep, ok := <-reply
		if !ok {
			return false
		}
		w := protocol.NewPayloadWriter()
		w.WriteByte(boolByte(rep.Ok))
		w.WriteUint32(rep.PacketSequenceID)
		conn.Send(protocol.Packet{Command: CmdGameConnectionRequest, Seq: pkt.Seq, Payload: w.Bytes()})
		return true

	case CmdJoinZone:
		reply := message.NewReply[message.JoinZoneReply]()
		if !send(inbox, message.ClientMessage{
			Kind:     message.KindJoinZone,
			JoinZone: &message.JoinZone{Reply: reply},
		}) {
			return false
		}
		rep, ok := <-reply
		if !ok {
			return false
		}
		w := protocol.NewPayloadWriter()
		w.WriteByte(boolByte(rep.Ok))
		w.WriteUint32(rep.ClientEntity)
		w.WriteUint32(uint32(rep.Position.Zone))
		w.WriteFloat32(rep.Position.Point.X)
		w.WriteFloat32(rep.Position.Point.Y)
		w.WriteFloat32(rep.Position.Point.Z)
		conn.Send(protocol.Packet{Command: CmdJoinZone, Seq: pkt.Seq, Payload: w.Bytes()})
		return true

	case CmdChat:
		return send(inbox, message.ClientMessage{
			Kind: message.KindChat,
			Chat: &message.Chat{Text: r.ReadString()},
		})

	case CmdMove:
		dest := components.Point{X: r.ReadFloat32(), Y: r.ReadFloat32(), Z: r.ReadFloat32()}
		hasTarget := r.ReadByte() != 0
		var target *ecs.EntityID
		if hasTarget {
			id := ecs.EntityID(r.ReadUint32())
			target = &id
		}
		return send(inbox, message.ClientMessage{
			Kind: message.KindMove,
			Move: &message.Move{Destination: dest, Target: target},
		})

	case CmdSetHotbarSlot:
		slot := int(r.ReadByte())
		data := components.HotbarSlot{Kind: int(r.ReadByte()), ID: int(r.ReadUint32())}
		return send(inbox, message.ClientMessage{
			Kind:          message.KindSetHotbarSlot,
			SetHotbarSlot: &message.SetHotbarSlot{Slot: slot, Data: data},
		})

	default:
		return false
	}
}

// encodeServerMessage turns one outbound ServerMessage into its wire
// Packet. Scope has already been resolved by server_messages_sender; by
// the time a value reaches here it's simply "write this to this socket".
func encodeServerMessage(msg message.ServerMessage) protocol.Packet {
	w := protocol.NewPayloadWriter()

	switch msg.Kind {
	case message.KindStopMoveEntity:
		m := msg.StopMoveEntity
		w.WriteUint32(m.ClientID)
		w.WriteFloat32(m.Position.X)
		w.WriteFloat32(m.Position.Y)
		w.WriteFloat32(m.Position.Z)
		return protocol.Packet{Command: CmdStopMoveEntity, Payload: w.Bytes()}

	case message.KindMoveEntity:
		m := msg.MoveEntity
		w.WriteUint32(m.ClientID)
		w.WriteUint32(m.TargetID)
		w.WriteFloat32(m.Distance)
		w.WriteFloat32(m.Destination.X)
		w.WriteFloat32(m.Destination.Y)
		w.WriteFloat32(m.Destination.Z)
		return protocol.Packet{Command: CmdMoveEntity, Payload: w.Bytes()}

	case message.KindAttackEntity:
		m := msg.AttackEntity
		w.WriteUint32(m.AttackerID)
		w.WriteUint32(m.TargetID)
		w.WriteFloat32(m.Distance)
		w.WriteFloat32(m.Target.X)
		w.WriteFloat32(m.Target.Y)
		w.WriteFloat32(m.Target.Z)
		return protocol.Packet{Command: CmdAttackEntity, Payload: w.Bytes()}

	case message.KindSpawnEntity:
		m := msg.SpawnEntity
		w.WriteUint32(m.ClientID)
		w.WriteUint32(uint32(m.Position.Zone))
		w.WriteFloat32(m.Position.Point.X)
		w.WriteFloat32(m.Position.Point.Y)
		w.WriteFloat32(m.Position.Point.Z)
		return protocol.Packet{Command: CmdSpawnEntity, Payload: w.Bytes()}

	case message.KindRemoveEntities:
		m := msg.RemoveEntities
		w.WriteUint16(uint16(len(m.ClientIDs)))
		for _, id := range m.ClientIDs {
			w.WriteUint32(id)
		}
		return protocol.Packet{Command: CmdRemoveEntities, Payload: w.Bytes()}

	case message.KindChatBroadcast:
		m := msg.ChatBroadcast
		w.WriteUint32(m.SpeakerID)
		w.WriteString(m.Text)
		return protocol.Packet{Command: CmdChatBroadcast, Payload: w.Bytes()}
	}

	return protocol.Packet{Command: CmdRemoveEntities, Payload: nil}
}
