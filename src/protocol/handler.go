package protocol

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/meridiannetwork/meridian/src/chain"
	"github.com/meridiannetwork/meridian/src/crypto"
	"github.com/meridiannetwork/meridian/src/network"
)

// maxInvHashes caps the number of hashes in a single inventory response.
const maxInvHashes = 500

// Relayer is the slice of the network engine the handler needs to talk back
// to the rest of the network.
type Relayer interface {
	Broadcast(msg *network.Message, filter func(*network.Peer) bool)
	PeerAddrs() []string
}

// Handler interprets inbound frames against the chain store. It implements
// network.MessageHandler; the engine invokes it from the peer receive loops,
// so it must be safe for concurrent use.
type Handler struct {
	hs     *network.HandshakeContext
	store  chain.Store
	relay  Relayer
	logger *logrus.Entry
}

// NewHandler ...
func NewHandler(
	hs *network.HandshakeContext,
	store chain.Store,
	relay Relayer,
	logger *logrus.Entry) *Handler {

	return &Handler{
		hs:     hs,
		store:  store,
		relay:  relay,
		logger: logger,
	}
}

// HandleMessage implements the network.MessageHandler interface.
func (h *Handler) HandleMessage(p *network.Peer, msg *network.Message) error {
	switch msg.Command {
	case network.CmdVersion:
		return h.handleVersion(p, msg)
	case network.CmdVerack:
		return h.handleVerack(p)
	case network.CmdGetAddr:
		return h.handleGetAddr(p)
	case network.CmdAddr:
		return h.handleAddr(p, msg)
	case network.CmdPing:
		return h.handlePing(p, msg)
	case network.CmdPong:
		return h.handlePong(p, msg)
	case network.CmdGetBlocks:
		return h.handleGetBlocks(p, msg)
	case network.CmdInv:
		return h.handleInv(p, msg)
	case network.CmdGetData:
		return h.handleGetData(p, msg)
	case network.CmdBlock:
		return h.handleBlock(p, msg)
	case network.CmdTx:
		return h.handleTx(p, msg)
	default:
		return fmt.Errorf("unhandled command %s", msg.Command)
	}
}

// handleVersion records the remote descriptor and acknowledges it. A nonce
// matching our own means the node connected to itself; such connections are
// torn down immediately.
func (h *Handler) handleVersion(p *network.Peer, msg *network.Message) error {
	version := new(network.VersionPayload)
	if err := network.DecodePayload(msg.Payload, version); err != nil {
		return err
	}

	if version.Nonce == h.hs.Nonce() {
		p.Disconnect()
		return fmt.Errorf("self connection detected")
	}

	if version.Version != network.ProtocolVersion {
		p.Disconnect()
		return fmt.Errorf("protocol version mismatch: %d, expected %d",
			version.Version, network.ProtocolVersion)
	}

	p.SetVersion(version)

	h.logger.WithFields(logrus.Fields{
		"peer":         p.Addr(),
		"user_agent":   version.UserAgent,
		"start_height": version.StartHeight,
	}).Debug("Received version")

	return p.Send(network.NewMessage(network.CmdVerack, nil))
}

// handleVerack completes the handshake; the peer may now send and receive
// application traffic.
func (h *Handler) handleVerack(p *network.Peer) error {
	p.SetReady()

	h.logger.WithField("peer", p.Addr()).Debug("Peer ready")

	return nil
}

func (h *Handler) handleGetAddr(p *network.Peer) error {
	msg, err := network.NewTypedMessage(network.CmdAddr, &network.AddrPayload{
		Addrs: h.relay.PeerAddrs(),
	})
	if err != nil {
		return err
	}
	return p.Send(msg)
}

func (h *Handler) handleAddr(p *network.Peer, msg *network.Message) error {
	addr := new(network.AddrPayload)
	if err := network.DecodePayload(msg.Payload, addr); err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"peer":  p.Addr(),
		"addrs": len(addr.Addrs),
	}).Debug("Received peer addresses")

	return nil
}

func (h *Handler) handlePing(p *network.Peer, msg *network.Message) error {
	ping := new(network.PingPayload)
	if err := network.DecodePayload(msg.Payload, ping); err != nil {
		return err
	}

	pong, err := network.NewTypedMessage(network.CmdPong, &network.PingPayload{
		Nonce:  ping.Nonce,
		Height: h.store.Height(),
	})
	if err != nil {
		return err
	}
	return p.Send(pong)
}

func (h *Handler) handlePong(p *network.Peer, msg *network.Message) error {
	pong := new(network.PingPayload)
	if err := network.DecodePayload(msg.Payload, pong); err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"peer":   p.Addr(),
		"height": pong.Height,
	}).Debug("Received pong")

	return nil
}

// handleGetBlocks answers with an inventory of the block hashes the store
// holds above the requested index.
func (h *Handler) handleGetBlocks(p *network.Peer, msg *network.Message) error {
	req := new(network.GetBlocksPayload)
	if err := network.DecodePayload(msg.Payload, req); err != nil {
		return err
	}

	count := req.Count
	if count == 0 || count > maxInvHashes {
		count = maxInvHashes
	}

	hashes := [][]byte{}
	for index := req.FromIndex + 1; index <= req.FromIndex+count; index++ {
		block, err := h.store.GetBlockByIndex(index)
		if err != nil {
			break
		}
		hashes = append(hashes, block.Hash)
	}

	if len(hashes) == 0 {
		return nil
	}

	inv, err := network.NewTypedMessage(network.CmdInv, &network.InvPayload{
		Type:   network.InvTypeBlock,
		Hashes: hashes,
	})
	if err != nil {
		return err
	}
	return p.Send(inv)
}

// handleInv requests the advertised objects the store does not hold yet.
func (h *Handler) handleInv(p *network.Peer, msg *network.Message) error {
	inv := new(network.InvPayload)
	if err := network.DecodePayload(msg.Payload, inv); err != nil {
		return err
	}

	missing := [][]byte{}
	for _, hash := range inv.Hashes {
		switch inv.Type {
		case network.InvTypeBlock:
			if !h.store.HasBlock(hash) {
				missing = append(missing, hash)
			}
		case network.InvTypeTx:
			if !h.store.HasTransaction(hash) {
				missing = append(missing, hash)
			}
		default:
			return fmt.Errorf("unknown inventory type %d", inv.Type)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	getData, err := network.NewTypedMessage(network.CmdGetData, &network.InvPayload{
		Type:   inv.Type,
		Hashes: missing,
	})
	if err != nil {
		return err
	}
	return p.Send(getData)
}

// handleGetData serves the requested objects from the store. Hashes the store
// does not hold are skipped.
func (h *Handler) handleGetData(p *network.Peer, msg *network.Message) error {
	req := new(network.InvPayload)
	if err := network.DecodePayload(msg.Payload, req); err != nil {
		return err
	}

	for _, hash := range req.Hashes {
		switch req.Type {
		case network.InvTypeBlock:
			block, err := h.store.GetBlock(hash)
			if err != nil {
				continue
			}
			reply, err := network.NewTypedMessage(network.CmdBlock, block)
			if err != nil {
				return err
			}
			if err := p.Send(reply); err != nil {
				return err
			}
		case network.InvTypeTx:
			tx, err := h.store.GetTransaction(hash)
			if err != nil {
				continue
			}
			reply, err := network.NewTypedMessage(network.CmdTx, tx)
			if err != nil {
				return err
			}
			if err := p.Send(reply); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown inventory type %d", req.Type)
		}
	}

	return nil
}

// handleBlock stores a received block and advertises it to the other ready
// peers.
func (h *Handler) handleBlock(p *network.Peer, msg *network.Message) error {
	block := new(chain.BlockHeader)
	if err := network.DecodePayload(msg.Payload, block); err != nil {
		return err
	}

	if h.store.HasBlock(block.Hash) {
		return nil
	}

	if err := h.store.SetBlock(block); err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"peer":  p.Addr(),
		"index": block.Index,
	}).Debug("Stored block")

	return h.relayInv(p, network.InvTypeBlock, block.Hash)
}

// handleTx stores a received transaction and advertises it to the other ready
// peers.
func (h *Handler) handleTx(p *network.Peer, msg *network.Message) error {
	tx := new(chain.Transaction)
	if err := network.DecodePayload(msg.Payload, tx); err != nil {
		return err
	}

	if len(tx.Hash) == 0 {
		tx.Hash = crypto.SHA256(tx.Payload)
	}

	if h.store.HasTransaction(tx.Hash) {
		return nil
	}

	if err := h.store.SetTransaction(tx); err != nil {
		return err
	}

	return h.relayInv(p, network.InvTypeTx, tx.Hash)
}

// relayInv advertises a newly stored object to every ready peer except the
// one it came from.
func (h *Handler) relayInv(from *network.Peer, invType network.InvType, hash []byte) error {
	inv, err := network.NewTypedMessage(network.CmdInv, &network.InvPayload{
		Type:   invType,
		Hashes: [][]byte{hash},
	})
	if err != nil {
		return err
	}

	h.relay.Broadcast(inv, func(p *network.Peer) bool {
		return p.Ready() && p != from
	})

	return nil
}
