package network

// MessageHandler consumes the frames that pass the phase gate. It is invoked
// from the owning peer's receive loop, so for a single peer calls are
// sequential and in arrival order; across peers they are concurrent.
//
// A returned error is logged against the peer and the loop carries on; one
// bad frame does not take the peer down, let alone the engine.
type MessageHandler interface {
	HandleMessage(peer *Peer, msg *Message) error
}

// MessageHandlerFunc adapts a function to the MessageHandler interface.
type MessageHandlerFunc func(peer *Peer, msg *Message) error

// HandleMessage implements the MessageHandler interface.
func (f MessageHandlerFunc) HandleMessage(peer *Peer, msg *Message) error {
	return f(peer, msg)
}
