package netio

import (
	"fmt"
	"net"
	"sync/atomic"

	"go.uber.org/zap"
)

// Server accepts TCP connections on one tier's bind address and hands
// them to the control stage via a channel. One Server exists per hosted
// tier (login/world/game).
type Server struct {
	listener net.Listener
	nextID   atomic.Uint64
	newConns chan *Connection
	inSize   int
	outSize  int
	log      *zap.Logger
	closeCh  chan struct{}
}

func NewServer(bindAddr string, inSize, outSize int, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: ln,
		newConns: make(chan *Connection, 64),
		inSize:   inSize,
		outSize:  outSize,
		log:      log,
		closeCh:  make(chan struct{}),
	}, nil
}

// AcceptLoop accepts connections, starts their I/O loops, and publishes
// them on NewConnections. Run it in its own goroutine.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return
			default:
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}

		id := s.nextID.Add(1)
		c := NewConnection(conn, id, s.inSize, s.outSize, s.log)
		c.Start()

		s.log.Info(fmt.Sprintf("connection accepted conn=%d ip=%s", id, c.IP))

		select {
		case s.newConns <- c:
		default:
			s.log.Warn("accept queue full, rejecting connection")
			c.Close()
		}
	}
}

// NewConnections returns the channel the control stage drains each tick.
func (s *Server) NewConnections() <-chan *Connection {
	return s.newConns
}

// Shutdown stops accepting new connections.
func (s *Server) Shutdown() {
	close(s.closeCh)
	s.listener.Close()
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
