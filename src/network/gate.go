package network

// AcceptFrame is the phase gate applied to every inbound frame before it
// reaches the message handler.
//
//	ready  handshake  outcome
//	false  true       accept - this is how a peer becomes ready
//	false  false      drop   - no application traffic before the handshake
//	true   false      accept - normal application traffic
//	true   true       drop   - redundant handshake traffic
//
// Drops are silent: no log, no disconnect.
func AcceptFrame(peerReady, handshake bool) bool {
	return peerReady != handshake
}
