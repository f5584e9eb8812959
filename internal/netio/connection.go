package netio

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ironrose/server/internal/protocol"
	"go.uber.org/zap"
)

// cmdHandshake is the command id of the plaintext frame a Connection sends
// immediately on accept, announcing the codec seed it will use for every
// subsequent frame. It has no reply and carries no session-state gating;
// real opcode numbering lives in the external protocol dictionary.
const cmdHandshake uint16 = 0

// Connection owns one client socket: a pair of goroutines move encrypted
// frames between the wire and two channels. It never touches simulation
// state directly — a per-tier client loop (internal/client) drains InQueue
// and feeds OutQueue, bridging them to the simulation's typed messages.
type Connection struct {
	ID   uint64
	conn net.Conn

	cipher *protocol.Cipher
	mu     sync.Mutex // guards the handshake write

	InQueue  chan protocol.Packet // per-tier client loop reads inbound packets here
	OutQueue chan protocol.Packet // writeLoop reads outbound packets here

	IP string

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func NewConnection(conn net.Conn, id uint64, inSize, outSize int, log *zap.Logger) *Connection {
	return &Connection{
		ID:       id,
		conn:     conn,
		InQueue:  make(chan protocol.Packet, inSize),
		OutQueue: make(chan protocol.Packet, outSize),
		IP:       conn.RemoteAddr().String(),
		closeCh:  make(chan struct{}),
		log:      log.With(zap.Uint64("conn", id)),
	}
}

// Start sends the plaintext handshake frame, initializes the cipher, and
// launches the read and write loops.
func (c *Connection) Start() {
	seed := rand.Int31n(0x7FFFFFFE) + 1 // positive, nonzero

	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, uint32(seed))

	buf := make([]byte, 6+len(payload))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(buf)))
	binary.LittleEndian.PutUint16(buf[2:4], cmdHandshake)
	binary.LittleEndian.PutUint16(buf[4:6], 0)
	copy(buf[6:], payload)

	c.mu.Lock()
	_, err := c.conn.Write(buf)
	c.mu.Unlock()
	if err != nil {
		c.log.Debug("handshake write failed", zap.Error(err))
		c.Close()
		return
	}

	c.cipher = protocol.NewCipher(seed)

	go c.readLoop()
	go c.writeLoop()
}

// Send queues an outbound packet. Non-blocking: a full OutQueue means the
// client is network-stalled, and per the back-pressure contract the
// connection is dropped rather than allowed to stall the simulation.
func (c *Connection) Send(p protocol.Packet) {
	if c.closed.Load() {
		return
	}
	select {
	case c.OutQueue <- p:
	default:
		c.log.Warn("outbound queue full, dropping connection")
		c.Close()
	}
}

// Close is idempotent; safe to call from either loop or the simulation.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.closeCh)
		c.conn.Close()
	})
}

func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}

// Done returns a channel closed once the connection has shut down, so a
// per-tier client loop can select on it alongside InQueue/OutQueue instead
// of polling IsClosed.
func (c *Connection) Done() <-chan struct{} {
	return c.closeCh
}

// readLoop decodes frames off the wire and forwards them to InQueue. It
// blocks on a full InQueue rather than dropping: losing an inbound packet
// silently would desync the sender's view of its own command state, and
// blocking here only stalls this one connection's goroutine.
func (c *Connection) readLoop() {
	defer c.Close()

	for {
		select {
		case <-c.closeCh:
			return
		default:
		}

		p, err := protocol.ReadPacket(c.conn, c.cipher)
		if err != nil {
			if !c.closed.Load() {
				c.log.Debug("read error", zap.Error(err))
			}
			return
		}

		select {
		case c.InQueue <- p:
		case <-c.closeCh:
			return
		}
	}
}

// writeLoop drains OutQueue, encrypts, and writes framed packets to the wire.
func (c *Connection) writeLoop() {
	defer c.Close()

	for {
		select {
		case p := <-c.OutQueue:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := protocol.WritePacket(c.conn, p, c.cipher); err != nil {
				if !c.closed.Load() {
					c.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-c.closeCh:
			return
		}
	}
}

func (c *Connection) String() string {
	return fmt.Sprintf("conn#%d(%s)", c.ID, c.IP)
}
