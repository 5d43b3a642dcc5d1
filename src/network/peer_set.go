package network

import "sync"

// PeerSet is the registry of currently connected peers. It supports
// concurrent registration, removal and snapshot iteration; a writer never
// holds up readers for longer than a map operation.
//
// Membership reflects "currently believed connected". A peer is registered
// exactly once, when its transport is established, and removed when it is
// disconnected; it never re-enters the set, a reconnection produces a new
// Peer.
type PeerSet struct {
	sync.RWMutex
	peers map[string]*Peer
}

// NewPeerSet returns an empty PeerSet.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		peers: make(map[string]*Peer),
	}
}

// Register adds a peer to the set.
func (s *PeerSet) Register(peer *Peer) {
	s.Lock()
	defer s.Unlock()
	s.peers[peer.Addr()] = peer
}

// Unregister removes a peer from the set. It is a no-op if the peer is
// absent, or if the slot holds a different Peer instance with the same
// address.
func (s *PeerSet) Unregister(peer *Peer) {
	s.Lock()
	defer s.Unlock()
	if current, ok := s.peers[peer.Addr()]; ok && current == peer {
		delete(s.peers, peer.Addr())
	}
}

// Get returns the registered peer with the given address, or nil.
func (s *PeerSet) Get(addr string) *Peer {
	s.RLock()
	defer s.RUnlock()
	return s.peers[addr]
}

// Snapshot returns the live set at call time. Peers registered or removed
// afterwards are not reflected; callers must tolerate a snapshotted peer
// having disconnected mid-iteration.
func (s *PeerSet) Snapshot() []*Peer {
	s.RLock()
	defer s.RUnlock()

	peers := make([]*Peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	return peers
}

// Len returns the number of registered peers.
func (s *PeerSet) Len() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.peers)
}
