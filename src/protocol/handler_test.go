package protocol

import (
	"bytes"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/meridiannetwork/meridian/src/chain"
	"github.com/meridiannetwork/meridian/src/common"
	"github.com/meridiannetwork/meridian/src/crypto"
	"github.com/meridiannetwork/meridian/src/network"
)

// fakeRelayer records broadcasts instead of fanning them out.
type fakeRelayer struct {
	lock       sync.Mutex
	broadcasts []*network.Message
	filters    []func(*network.Peer) bool
	addrs      []string
}

func (r *fakeRelayer) Broadcast(msg *network.Message, filter func(*network.Peer) bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.broadcasts = append(r.broadcasts, msg)
	r.filters = append(r.filters, filter)
}

func (r *fakeRelayer) PeerAddrs() []string {
	return r.addrs
}

func (r *fakeRelayer) lastBroadcast() (*network.Message, func(*network.Peer) bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(r.broadcasts) == 0 {
		return nil, nil
	}
	return r.broadcasts[len(r.broadcasts)-1], r.filters[len(r.filters)-1]
}

func testHandler(t *testing.T) (*Handler, chain.Store, *fakeRelayer) {
	t.Helper()

	store := chain.NewInmemStore()

	hs, err := network.NewHandshakeContext(20333, "/meridian:0.2/", "node", true, store)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	relay := &fakeRelayer{}
	handler := NewHandler(hs, store, relay, common.NewTestEntry(t))

	return handler, store, relay
}

// peerPair returns a handler-side peer and the raw remote end to observe its
// replies on.
func peerPair(t *testing.T) (*network.Peer, *network.Peer) {
	t.Helper()

	list, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer list.Close()

	acceptCh := make(chan net.Conn, 1)
	go func() {
		conn, err := list.Accept()
		if err != nil {
			return
		}
		acceptCh <- conn
	}()

	client, err := net.Dial("tcp", list.Addr().String())
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	server := <-acceptCh

	return network.NewPeer(server, true), network.NewPeer(client, false)
}

func typedMessage(t *testing.T, command network.Command, payload interface{}) *network.Message {
	t.Helper()

	msg, err := network.NewTypedMessage(command, payload)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	return msg
}

func readReply(t *testing.T, remote *network.Peer) *network.Message {
	t.Helper()

	msg, err := remote.Poll(time.Second)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	return msg
}

func TestHandleVersion(t *testing.T) {
	handler, _, _ := testHandler(t)
	peer, remote := peerPair(t)
	defer peer.Disconnect()
	defer remote.Disconnect()

	msg := typedMessage(t, network.CmdVersion, &network.VersionPayload{
		Version:     network.ProtocolVersion,
		Nonce:       12345,
		UserAgent:   "/other:0.1/",
		StartHeight: 7,
	})

	if err := handler.HandleMessage(peer, msg); err != nil {
		t.Fatalf("err: %v", err)
	}

	if reply := readReply(t, remote); reply.Command != network.CmdVerack {
		t.Fatalf("command %s, expected verack", reply.Command)
	}

	version := peer.Version()
	if version == nil || version.UserAgent != "/other:0.1/" {
		t.Fatalf("version %+v, expected user agent /other:0.1/", version)
	}
	if peer.Ready() {
		t.Fatal("peer should not be ready before verack")
	}

	if err := handler.HandleMessage(peer, network.NewMessage(network.CmdVerack, nil)); err != nil {
		t.Fatalf("err: %v", err)
	}
	if !peer.Ready() {
		t.Fatal("peer should be ready after verack")
	}
}

func TestHandleVersionSelfConnection(t *testing.T) {
	handler, _, _ := testHandler(t)
	peer, remote := peerPair(t)
	defer remote.Disconnect()

	msg := typedMessage(t, network.CmdVersion, &network.VersionPayload{
		Version: network.ProtocolVersion,
		Nonce:   handler.hs.Nonce(),
	})

	if err := handler.HandleMessage(peer, msg); err == nil {
		t.Fatal("expected an error for a self connection")
	}
	if peer.Connected() {
		t.Fatal("self connection should be torn down")
	}
}

func TestHandleVersionMismatch(t *testing.T) {
	handler, _, _ := testHandler(t)
	peer, remote := peerPair(t)
	defer remote.Disconnect()

	msg := typedMessage(t, network.CmdVersion, &network.VersionPayload{
		Version: network.ProtocolVersion + 1,
		Nonce:   12345,
	})

	if err := handler.HandleMessage(peer, msg); err == nil {
		t.Fatal("expected an error for a protocol version mismatch")
	}
	if peer.Connected() {
		t.Fatal("mismatched peer should be torn down")
	}
}

func TestHandlePing(t *testing.T) {
	handler, store, _ := testHandler(t)
	peer, remote := peerPair(t)
	defer peer.Disconnect()
	defer remote.Disconnect()

	if err := store.SetHeight(7); err != nil {
		t.Fatalf("err: %v", err)
	}

	msg := typedMessage(t, network.CmdPing, &network.PingPayload{Nonce: 99})
	if err := handler.HandleMessage(peer, msg); err != nil {
		t.Fatalf("err: %v", err)
	}

	reply := readReply(t, remote)
	if reply.Command != network.CmdPong {
		t.Fatalf("command %s, expected pong", reply.Command)
	}

	pong := new(network.PingPayload)
	if err := network.DecodePayload(reply.Payload, pong); err != nil {
		t.Fatalf("err: %v", err)
	}
	if pong.Nonce != 99 {
		t.Fatalf("nonce %d, expected 99", pong.Nonce)
	}
	if pong.Height != 7 {
		t.Fatalf("height %d, expected 7", pong.Height)
	}
}

func TestHandleGetAddr(t *testing.T) {
	handler, _, relay := testHandler(t)
	peer, remote := peerPair(t)
	defer peer.Disconnect()
	defer remote.Disconnect()

	relay.addrs = []string{"127.0.0.1:20334", "127.0.0.1:20335"}

	if err := handler.HandleMessage(peer, network.NewMessage(network.CmdGetAddr, nil)); err != nil {
		t.Fatalf("err: %v", err)
	}

	reply := readReply(t, remote)
	if reply.Command != network.CmdAddr {
		t.Fatalf("command %s, expected addr", reply.Command)
	}

	addr := new(network.AddrPayload)
	if err := network.DecodePayload(reply.Payload, addr); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(addr.Addrs) != 2 {
		t.Fatalf("got %d addrs, expected 2", len(addr.Addrs))
	}
}

func TestHandleGetBlocks(t *testing.T) {
	handler, store, _ := testHandler(t)
	peer, remote := peerPair(t)
	defer peer.Disconnect()
	defer remote.Disconnect()

	for i := uint32(1); i <= 3; i++ {
		block := &chain.BlockHeader{Index: i, Hash: []byte{byte(i)}}
		if err := store.SetBlock(block); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	msg := typedMessage(t, network.CmdGetBlocks, &network.GetBlocksPayload{
		FromIndex: 0,
		Count:     10,
	})
	if err := handler.HandleMessage(peer, msg); err != nil {
		t.Fatalf("err: %v", err)
	}

	reply := readReply(t, remote)
	if reply.Command != network.CmdInv {
		t.Fatalf("command %s, expected inv", reply.Command)
	}

	inv := new(network.InvPayload)
	if err := network.DecodePayload(reply.Payload, inv); err != nil {
		t.Fatalf("err: %v", err)
	}
	if inv.Type != network.InvTypeBlock {
		t.Fatalf("inv type %s, expected block", inv.Type)
	}
	if len(inv.Hashes) != 3 {
		t.Fatalf("got %d hashes, expected 3", len(inv.Hashes))
	}
}

func TestHandleInvRequestsMissing(t *testing.T) {
	handler, store, _ := testHandler(t)
	peer, remote := peerPair(t)
	defer peer.Disconnect()
	defer remote.Disconnect()

	known := &chain.BlockHeader{Index: 1, Hash: []byte{0x01}}
	if err := store.SetBlock(known); err != nil {
		t.Fatalf("err: %v", err)
	}

	missing := []byte{0x02}

	msg := typedMessage(t, network.CmdInv, &network.InvPayload{
		Type:   network.InvTypeBlock,
		Hashes: [][]byte{known.Hash, missing},
	})
	if err := handler.HandleMessage(peer, msg); err != nil {
		t.Fatalf("err: %v", err)
	}

	reply := readReply(t, remote)
	if reply.Command != network.CmdGetData {
		t.Fatalf("command %s, expected getdata", reply.Command)
	}

	req := new(network.InvPayload)
	if err := network.DecodePayload(reply.Payload, req); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(req.Hashes) != 1 || !bytes.Equal(req.Hashes[0], missing) {
		t.Fatalf("requested %v, expected only the missing hash", req.Hashes)
	}
}

func TestHandleGetData(t *testing.T) {
	handler, store, _ := testHandler(t)
	peer, remote := peerPair(t)
	defer peer.Disconnect()
	defer remote.Disconnect()

	block := &chain.BlockHeader{Index: 5, Hash: []byte{0x05}, Timestamp: 1724572800}
	if err := store.SetBlock(block); err != nil {
		t.Fatalf("err: %v", err)
	}

	msg := typedMessage(t, network.CmdGetData, &network.InvPayload{
		Type:   network.InvTypeBlock,
		Hashes: [][]byte{block.Hash},
	})
	if err := handler.HandleMessage(peer, msg); err != nil {
		t.Fatalf("err: %v", err)
	}

	reply := readReply(t, remote)
	if reply.Command != network.CmdBlock {
		t.Fatalf("command %s, expected block", reply.Command)
	}

	decoded := new(chain.BlockHeader)
	if err := network.DecodePayload(reply.Payload, decoded); err != nil {
		t.Fatalf("err: %v", err)
	}
	if decoded.Index != 5 {
		t.Fatalf("index %d, expected 5", decoded.Index)
	}
}

func TestHandleBlockStoresAndRelays(t *testing.T) {
	handler, store, relay := testHandler(t)
	peer, remote := peerPair(t)
	defer peer.Disconnect()
	defer remote.Disconnect()

	block := &chain.BlockHeader{Index: 1, Hash: []byte{0xaa}}

	msg := typedMessage(t, network.CmdBlock, block)
	if err := handler.HandleMessage(peer, msg); err != nil {
		t.Fatalf("err: %v", err)
	}

	if !store.HasBlock(block.Hash) {
		t.Fatal("block was not stored")
	}
	if store.Height() != 1 {
		t.Fatalf("height %d, expected 1", store.Height())
	}

	inv, filter := relay.lastBroadcast()
	if inv == nil || inv.Command != network.CmdInv {
		t.Fatal("expected an inv relay")
	}

	// The relay filter must exclude the sender and not-ready peers.
	if filter(peer) {
		t.Fatal("relay filter should exclude the sender")
	}
	other, otherRemote := peerPair(t)
	defer other.Disconnect()
	defer otherRemote.Disconnect()
	if filter(other) {
		t.Fatal("relay filter should exclude not-ready peers")
	}
	other.SetReady()
	if !filter(other) {
		t.Fatal("relay filter should include other ready peers")
	}

	// A duplicate block is ignored and not relayed again.
	if err := handler.HandleMessage(peer, msg); err != nil {
		t.Fatalf("err: %v", err)
	}
	relay.lock.Lock()
	count := len(relay.broadcasts)
	relay.lock.Unlock()
	if count != 1 {
		t.Fatalf("broadcast %d times, expected 1", count)
	}
}

func TestHandleTxStoresAndRelays(t *testing.T) {
	handler, store, relay := testHandler(t)
	peer, remote := peerPair(t)
	defer peer.Disconnect()
	defer remote.Disconnect()

	tx := &chain.Transaction{Hash: []byte{0xbb}, Type: 1, Payload: []byte("raw")}

	msg := typedMessage(t, network.CmdTx, tx)
	if err := handler.HandleMessage(peer, msg); err != nil {
		t.Fatalf("err: %v", err)
	}

	if !store.HasTransaction(tx.Hash) {
		t.Fatal("transaction was not stored")
	}

	inv, _ := relay.lastBroadcast()
	if inv == nil || inv.Command != network.CmdInv {
		t.Fatal("expected an inv relay")
	}

	payload := new(network.InvPayload)
	if err := network.DecodePayload(inv.Payload, payload); err != nil {
		t.Fatalf("err: %v", err)
	}
	if payload.Type != network.InvTypeTx {
		t.Fatalf("inv type %s, expected tx", payload.Type)
	}
}

func TestHandleTxDerivesHash(t *testing.T) {
	handler, store, _ := testHandler(t)
	peer, remote := peerPair(t)
	defer peer.Disconnect()
	defer remote.Disconnect()

	// A transaction arriving without a hash is stored under the hash of its
	// payload.
	msg := typedMessage(t, network.CmdTx, &chain.Transaction{Type: 1, Payload: []byte("raw")})
	if err := handler.HandleMessage(peer, msg); err != nil {
		t.Fatalf("err: %v", err)
	}

	expected := crypto.SHA256([]byte("raw"))
	if !store.HasTransaction(expected) {
		t.Fatal("transaction should be stored under its derived hash")
	}
}
