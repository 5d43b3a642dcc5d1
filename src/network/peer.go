package network

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// bufSize is the size of the buffered reader and writer wrapping a
	// peer's connection.
	bufSize = 1 << 16

	// sendTimeout bounds a single framed write to a peer.
	sendTimeout = 10 * time.Second

	// frameTimeout bounds reading the remainder of a frame once its first
	// byte has arrived.
	frameTimeout = 10 * time.Second
)

// Peer is a connected remote node. It owns its transport exclusively: only
// its receive loop reads from the connection, and writes are serialized by an
// internal lock.
//
// A Peer starts connected but not ready. Readiness is flipped exactly once,
// by the handler that processes the peer's handshake completion, and never
// reverts while the peer remains connected.
type Peer struct {
	conn    net.Conn
	addr    string
	inbound bool

	r *bufio.Reader

	sendLock sync.Mutex
	w        *bufio.Writer

	connected int32
	ready     int32

	versionLock sync.Mutex
	version     *VersionPayload
}

// NewPeer wraps an established connection. The inbound flag records which
// side initiated it.
func NewPeer(conn net.Conn, inbound bool) *Peer {
	return &Peer{
		conn:      conn,
		addr:      conn.RemoteAddr().String(),
		inbound:   inbound,
		r:         bufio.NewReaderSize(conn, bufSize),
		w:         bufio.NewWriterSize(conn, bufSize),
		connected: 1,
	}
}

// Addr returns the remote address of the peer.
func (p *Peer) Addr() string {
	return p.addr
}

// Inbound reports whether the remote side initiated the connection.
func (p *Peer) Inbound() bool {
	return p.inbound
}

// Connected reports whether the peer's transport is still up.
func (p *Peer) Connected() bool {
	return atomic.LoadInt32(&p.connected) == 1
}

// Ready reports whether the peer has completed the handshake.
func (p *Peer) Ready() bool {
	return atomic.LoadInt32(&p.ready) == 1
}

// SetReady marks the handshake as completed. The transition happens at most
// once; later calls are no-ops.
func (p *Peer) SetReady() {
	atomic.CompareAndSwapInt32(&p.ready, 0, 1)
}

// Version returns the version payload announced by the remote node, or nil
// before it arrived.
func (p *Peer) Version() *VersionPayload {
	p.versionLock.Lock()
	defer p.versionLock.Unlock()
	return p.version
}

// SetVersion records the version payload announced by the remote node.
func (p *Peer) SetVersion(version *VersionPayload) {
	p.versionLock.Lock()
	defer p.versionLock.Unlock()
	p.version = version
}

// Send frames and writes a message to the peer. Sends from different
// goroutines are serialized; a send does not interleave with another send.
func (p *Peer) Send(msg *Message) error {
	p.sendLock.Lock()
	defer p.sendLock.Unlock()

	if !p.Connected() {
		return ErrPeerDisconnected
	}

	p.conn.SetWriteDeadline(time.Now().Add(sendTimeout))

	if err := writeMessage(p.w, msg); err != nil {
		return err
	}

	return p.w.Flush()
}

// Poll attempts to receive one frame, waiting at most interval for the first
// byte. It returns ErrNoData when nothing arrived in time, which is not a
// failure; any other error means the transport is no longer usable.
func (p *Peer) Poll(interval time.Duration) (*Message, error) {
	if !p.Connected() {
		return nil, ErrPeerDisconnected
	}

	p.conn.SetReadDeadline(time.Now().Add(interval))

	if _, err := p.r.Peek(1); err != nil {
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			return nil, ErrNoData
		}
		return nil, err
	}

	// A frame has started to arrive; allow it to complete.
	p.conn.SetReadDeadline(time.Now().Add(frameTimeout))

	return readMessage(p.r)
}

// Disconnect tears down the peer's transport. It is safe to call multiple
// times and from any goroutine; the first call closes the connection, which
// also unblocks a receive loop waiting in Poll.
func (p *Peer) Disconnect() {
	if atomic.CompareAndSwapInt32(&p.connected, 1, 0) {
		p.conn.Close()
	}
}
