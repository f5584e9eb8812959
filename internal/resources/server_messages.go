package resources

import "github.com/ironrose/server/internal/message"

// ServerMessages is the broadcast queue stages push into during the tick;
// server_messages_sender drains it and fans each entry out to every
// recipient connection's outbound channel. Folds in the shape of the
// teacher's double-buffered event bus (emit this tick, deliver once) but
// scoped by entity/zone instead of by Go type, since delivery here is
// about *who* receives a message, not *what type* a subscriber wants.
type ServerMessages struct {
	queue []message.ServerMessage
}

func NewServerMessages() *ServerMessages {
	return &ServerMessages{queue: make([]message.ServerMessage, 0, 128)}
}

// Push enqueues a message for delivery at the next server_messages_sender
// stage.
func (m *ServerMessages) Push(msg message.ServerMessage) {
	m.queue = append(m.queue, msg)
}

// Drain returns and clears the queue. Called exactly once per tick by
// server_messages_sender; spec.md §8 requires the queue be empty after.
func (m *ServerMessages) Drain() []message.ServerMessage {
	q := m.queue
	m.queue = nil
	return q
}
