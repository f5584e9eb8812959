package client

import (
	"github.com/ironrose/server/internal/message"
	"github.com/ironrose/server/internal/netio"
	"github.com/ironrose/server/internal/protocol"
)

// RunLogin is the login tier's protocol client loop. It owns conn's
// lifetime from the simulation's point of view: when this goroutine
// returns, conn has already been closed.
func RunLogin(conn *netio.Connection, inbox chan<- message.ClientMessage) {
	defer conn.Close()

	for {
		select {
		case <-conn.Done():
			return
		case pkt := <-conn.InQueue:
			if !dispatchLogin(conn, inbox, pkt) {
				return
			}
		}
	}
}

func dispatchLogin(conn *netio.Connection, inbox chan<- message.ClientMessage, pkt protocol.Packet) bool {
	r := protocol.NewPayloadReader(pkt.Payload)

	switch pkt.Command {
	case CmdConnectionRequest:
		reply := message.NewReply[message.ConnectionRequestReply]()
		if !send(inbox, message.ClientMessage{
			Kind:              message.KindConnectionRequest,
			ConnectionRequest: &message.ConnectionRequest{Reply: reply},
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
		conn.Send(protocol.Packet{Command: CmdConnectionRequest, Seq: pkt.Seq, Payload: w.Bytes()})
		return true

	case CmdLoginRequest:
		username := r.ReadString()
		passwordMD5 := r.ReadString()
		reply := message.NewReply[message.LoginRequestReply]()
		if !send(inbox, message.ClientMessage{
			Kind: message.KindLoginRequest,
			LoginRequest: &message.LoginRequest{
				Username:    username,
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
		w.WriteByte(byte(rep.Error))
		conn.Send(protocol.Packet{Command: CmdLoginRequest, Seq: pkt.Seq, Payload: w.Bytes()})
		return true

	case CmdGetWorldServerList:
		reply := message.NewReply[[]message.WorldServerInfo]()
		if !send(inbox, message.ClientMessage{
			Kind:               message.KindGetWorldServerList,
			GetWorldServerList: &message.GetWorldServerList{Reply: reply},
		}) {
			return false
		}
		servers, ok := <-reply
		if !ok {
			return false
		}
		w := protocol.NewPayloadWriter()
		w.WriteUint16(uint16(len(servers)))
		for _, s := range servers {
			w.WriteUint16(uint16(s.Index))
			w.WriteString(s.Name)
		}
		conn.Send(protocol.Packet{Command: CmdGetWorldServerList, Seq: pkt.Seq, Payload: w.Bytes()})
		return true

	case CmdGetChannelList:
		serverID := int(r.ReadUint16())
		reply := message.NewReply[message.GetChannelListReply]()
		if !send(inbox, message.ClientMessage{
			Kind:           message.KindGetChannelList,
			GetChannelList: &message.GetChannelList{ServerID: serverID, Reply: reply},
		}) {
			return false
		}
		rep, ok := <-reply
		if !ok {
			return false
		}
		w := protocol.NewPayloadWriter()
		w.WriteByte(boolByte(rep.Ok))
		w.WriteUint16(uint16(len(rep.Channels)))
		for _, c := range rep.Channels {
			w.WriteUint16(uint16(c.Index))
			w.WriteString(c.Name)
		}
		conn.Send(protocol.Packet{Command: CmdGetChannelList, Seq: pkt.Seq, Payload: w.Bytes()})
		return true

	case CmdJoinServer:
		serverID := int(r.ReadUint16())
		channelID := int(r.ReadUint16())
		reply := message.NewReply[message.JoinServerReply]()
		if !send(inbox, message.ClientMessage{
			Kind:       message.KindJoinServer,
			JoinServer: &message.JoinServer{ServerID: serverID, ChannelID: channelID, Reply: reply},
		}) {
			return false
		}
		rep, ok := <-reply
		if !ok {
			return false
		}
		w := protocol.NewPayloadWriter()
		w.WriteByte(boolByte(rep.Ok))
		w.WriteUint32(rep.Token)
		w.WriteUint32(uint32(rep.CodecSeed))
		w.WriteString(rep.IP)
		w.WriteUint16(uint16(rep.Port))
		conn.Send(protocol.Packet{Command: CmdJoinServer, Seq: pkt.Seq, Payload: w.Bytes()})
		return true

	default:
		// Any other command on this tier's connection is a protocol fault.
		return false
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// send delivers msg to inbox without blocking the connection forever: a
// full inbox means a misbehaving client outrunning the simulation, which
// spec.md §4.3 says to drop.
func send(inbox chan<- message.ClientMessage, msg message.ClientMessage) bool {
	select {
	case inbox <- msg:
		return true
	default:
		return false
	}
}
