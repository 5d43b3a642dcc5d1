package network

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Broadcast fans a message out to the registered peers, in parallel, and
// returns when every send has completed or failed. When a filter is given,
// peers for which it returns false are skipped.
//
// Delivery is best effort: a peer's send failure is logged and does not
// affect delivery to the others, nor does it fail the call as a whole.
func (e *Engine) Broadcast(msg *Message, filter func(*Peer) bool) {
	var wg sync.WaitGroup

	for _, p := range e.peers.Snapshot() {
		if filter != nil && !filter(p) {
			continue
		}

		wg.Add(1)
		go func(p *Peer) {
			defer wg.Done()

			if err := p.Send(msg); err != nil {
				e.logger.WithFields(logrus.Fields{
					"peer":    p.Addr(),
					"command": msg.Command.String(),
					"error":   err,
				}).Error("Broadcast send failed")
			}
		}(p)
	}

	wg.Wait()
}

// PeerAddrs returns the advertised addresses of the ready peers. It backs
// the addr response to a getaddr request.
func (e *Engine) PeerAddrs() []string {
	peers := e.peers.Snapshot()

	addrs := make([]string, 0, len(peers))
	for _, p := range peers {
		if !p.Ready() {
			continue
		}
		addrs = append(addrs, p.Addr())
	}
	return addrs
}
