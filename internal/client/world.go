package client

import (
	"github.com/ironrose/server/internal/components"
	"github.com/ironrose/server/internal/message"
	"github.com/ironrose/server/internal/netio"
	"github.com/ironrose/server/internal/protocol"
)

// RunWorld is the world tier's protocol client loop.
func RunWorld(conn *netio.Connection, inbox chan<- message.ClientMessage) {
	defer conn.Close()

	for {
		select {
		case <-conn.Done():
			return
		case pkt := <-conn.InQueue:
			if !dispatchWorld(conn, inbox, pkt) {
				return
			}
		}
	}
}

func dispatchWorld(conn *netio.Connection, inbox chan<- message.ClientMessage, pkt protocol.Packet) bool {
	r := protocol.NewPayloadReader(pkt.Payload)

	switch pkt.Command {
	case CmdWorldConnectionRequest:
		loginToken := r.ReadUint32()
		passwordMD5 := r.ReadString()
		reply := message.NewReply[message.ConnectionRequestReply]()
		if !send(inbox, message.ClientMessage{
			Kind: message.KindConnectionRequest,
			ConnectionRequest: &message.ConnectionRequest{
				LoginToken:  loginToken,
				PasswordMD5: passwordMD5,
				Reply:       reply,
			},
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
		conn.Send(protocol.Packet{Command: CmdWorldConnectionRequest, Seq: pkt.Seq, Payload: w.Bytes()})
		return true

	case CmdGetCharacterList:
		return dispatchGetCharacterList(conn, inbox, pkt)

	case CmdCreateCharacter:
		req := message.CreateCharacterRequest{
			Name:       r.ReadString(),
			Gender:     int(r.ReadByte()),
			Face:       int(r.ReadByte()),
			Hair:       int(r.ReadByte()),
			BirthStone: int(r.ReadByte()),
		}
		reply := message.NewReply[message.CreateCharacterReply]()
		if !send(inbox, message.ClientMessage{
			Kind:            message.KindCreateCharacter,
			CreateCharacter: &message.CreateCharacter{Request: req, Reply: reply},
		}) {
			return false
		}
		rep, ok := <-reply
		if !ok {
			return false
		}
		w := protocol.NewPayloadWriter()
		w.WriteByte(boolByte(rep.Ok))
		w.WriteByte(byte(rep.Error))
		w.WriteUint16(uint16(rep.Slot))
		conn.Send(protocol.Packet{Command: CmdCreateCharacter, Seq: pkt.Seq, Payload: w.Bytes()})
		return true

	case CmdDeleteCharacter:
		slot := int(r.ReadByte())
		name := r.ReadString()
		isDelete := r.ReadByte() != 0
		reply := message.NewReply[message.DeleteCharacterReply]()
		if !send(inbox, message.ClientMessage{
			Kind:            message.KindDeleteCharacter,
			DeleteCharacter: &message.DeleteCharacter{Slot: slot, Name: name, IsDelete: isDelete, Reply: reply},
		}) {
			return false
		}
		rep, ok := <-reply
		if !ok {
			return false
		}
		w := protocol.NewPayloadWriter()
		w.WriteByte(boolByte(rep.Ok))
		if rep.DeleteTime != nil {
			w.WriteByte(1)
			w.WriteUint32(uint32(*rep.DeleteTime))
		} else {
			w.WriteByte(0)
		}
		conn.Send(protocol.Packet{Command: CmdDeleteCharacter, Seq: pkt.Seq, Payload: w.Bytes()})
		return true

	case CmdSelectCharacter:
		slot := int(r.ReadByte())
		name := r.ReadString()
		reply := message.NewReply[message.SelectCharacterReply]()
		if !send(inbox, message.ClientMessage{
			Kind:            message.KindSelectCharacter,
			SelectCharacter: &message.SelectCharacter{Slot: slot, Name: name, Reply: reply},
		}) {
			return false
		}
		rep, ok := <-reply
		if !ok {
			return false
		}
		w := protocol.NewPayloadWriter()
		w.WriteByte(boolByte(rep.Ok))
		w.WriteUint32(rep.LoginToken)
		w.WriteUint32(uint32(rep.CodecSeed))
		w.WriteString(rep.IP)
		w.WriteUint16(uint16(rep.Port))
		conn.Send(protocol.Packet{Command: CmdSelectCharacter, Seq: pkt.Seq, Payload: w.Bytes()})
		return true

	default:
		return false
	}
}

func dispatchGetCharacterList(conn *netio.Connection, inbox chan<- message.ClientMessage, pkt protocol.Packet) bool {
	reply := message.NewReply[[]components.CharacterListItem]()
	if !send(inbox, message.ClientMessage{
		Kind:             message.KindGetCharacterList,
		GetCharacterList: &message.GetCharacterList{Reply: reply},
	}) {
		return false
	}
	items, ok := <-reply
	if !ok {
		return false
	}
	w := protocol.NewPayloadWriter()
	w.WriteUint16(uint16(len(items)))
	for _, it := range items {
		w.WriteByte(byte(it.Slot))
		w.WriteString(it.Name)
		w.WriteUint16(uint16(it.Level))
	}
	conn.Send(protocol.Packet{Command: CmdGetCharacterList, Seq: pkt.Seq, Payload: w.Bytes()})
	return true
}
