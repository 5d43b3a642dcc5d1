package network

import (
	"net"
	"time"
)

// StreamLayer provides the low level stream abstraction used by the Engine.
// It is a net.Listener for the inbound side, plus a dialer for the outbound
// side.
type StreamLayer interface {
	net.Listener

	// Dial is used to create a new outgoing connection
	Dial(address string, timeout time.Duration) (net.Conn, error)

	// AdvertiseAddr returns the publicly-reachable address of the stream
	AdvertiseAddr() string
}
