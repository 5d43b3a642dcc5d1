package network

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// ProtocolVersion is the version number announced in the handshake.
const ProtocolVersion uint32 = 2

// HeightProvider exposes the current chain height to the handshake context.
// The chain store satisfies it.
type HeightProvider interface {
	Height() uint32
}

// HandshakeContext produces the local version payload announced to every new
// peer. Identity fields are fixed for the process lifetime; the timestamp and
// chain height are read fresh on every call, so a descriptor is never stale.
//
// It has no state machine of its own and is safe for concurrent use from many
// receive loops.
type HandshakeContext struct {
	version   uint32
	port      uint16
	nonce     uint32
	userAgent string
	nodeID    string
	relay     bool
	chain     HeightProvider
}

// NewHandshakeContext fixes the identity fields of the local version payload.
// The nonce is drawn once from a cryptographic random source; it is what lets
// a node recognize an accidental connection to itself.
func NewHandshakeContext(port uint16, userAgent, nodeID string, relay bool, chain HeightProvider) (*HandshakeContext, error) {
	if chain == nil {
		return nil, fmt.Errorf("handshake context requires a height provider")
	}

	nonceBytes := make([]byte, 4)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, fmt.Errorf("generating handshake nonce: %v", err)
	}

	return &HandshakeContext{
		version:   ProtocolVersion,
		port:      port,
		nonce:     binary.BigEndian.Uint32(nonceBytes),
		userAgent: userAgent,
		nodeID:    nodeID,
		relay:     relay,
		chain:     chain,
	}, nil
}

// Nonce returns the process-lifetime handshake nonce.
func (h *HandshakeContext) Nonce() uint32 {
	return h.nonce
}

// NodeID returns the node's public identity string.
func (h *HandshakeContext) NodeID() string {
	return h.nodeID
}

// CurrentVersion builds a fresh version payload reflecting the current time
// and chain height.
func (h *HandshakeContext) CurrentVersion() *VersionPayload {
	return &VersionPayload{
		Version:     h.version,
		Timestamp:   time.Now().Unix(),
		Port:        h.port,
		Nonce:       h.nonce,
		UserAgent:   h.userAgent,
		StartHeight: h.chain.Height(),
		Relay:       h.relay,
		NodeID:      h.nodeID,
	}
}
