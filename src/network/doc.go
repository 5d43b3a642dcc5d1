// Package network implements the peer-to-peer engine of a Meridian node.
//
// The Engine owns the full lifecycle of remote peer connections. Start dials
// the configured endpoints in parallel and begins accepting inbound
// connections on the bound listener. Every successful connection, inbound or
// outbound, goes through the same onboarding pipeline: the peer is added to
// the registry, a dedicated receive loop is spawned, and the local version
// message is sent as the first frame.
//
// Before a peer has completed the version/verack handshake it is connected
// but not ready, and only handshake frames are dispatched to the message
// handler; everything else is dropped silently. Once ready, the relation
// inverts: application frames are dispatched and redundant handshake frames
// are dropped. This phase gate is the only content-independent filter in the
// engine; interpreting accepted frames is the handler's business.
//
// Peer failures are isolated at peer granularity. A dial failure, a broken
// onboarding send, a transport error in a receive loop, or a failed broadcast
// send only ever takes down the one peer involved; the engine and the other
// peers carry on.
package network
