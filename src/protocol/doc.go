// Package protocol implements the application side of the wire protocol. The
// network engine delivers gated frames to the Handler, which interprets them
// against the chain store: it completes handshakes, answers liveness and
// address queries, serves block inventories, and relays new objects to the
// other ready peers.
package protocol
