package network

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Engine is the composition root of the p2p layer. It owns the listener, the
// connector, the peer registry and every per-peer receive loop, all scoped by
// a shared shutdown signal.
type Engine struct {
	state

	conf   *Config
	logger *logrus.Entry

	hs      *HandshakeContext
	handler MessageHandler

	peers *PeerSet

	lifecycleLock sync.Mutex
	stream        StreamLayer
	connector     *Connector

	shutdownLock sync.Mutex
	shutdownCh   chan struct{}

	start time.Time
}

// NewEngine wires the engine's collaborators together. A nil collaborator is
// a programming error and fails construction immediately.
func NewEngine(conf *Config, hs *HandshakeContext, handler MessageHandler) (*Engine, error) {
	if conf == nil {
		return nil, fmt.Errorf("engine requires a config")
	}
	if hs == nil {
		return nil, fmt.Errorf("engine requires a handshake context")
	}
	if handler == nil {
		return nil, fmt.Errorf("engine requires a message handler")
	}
	if conf.Logger == nil {
		logger := logrus.New()
		logger.Level = logrus.DebugLevel
		conf.Logger = logrus.NewEntry(logger)
	}

	engine := &Engine{
		conf:    conf,
		logger:  conf.Logger.WithField("bind_addr", conf.BindAddr),
		hs:      hs,
		handler: handler,
		peers:   NewPeerSet(),
	}

	return engine, nil
}

// Peers returns the registry of connected peers.
func (e *Engine) Peers() *PeerSet {
	return e.peers
}

// Addr returns the address the engine is currently listening on, or "" when
// stopped.
func (e *Engine) Addr() string {
	e.lifecycleLock.Lock()
	defer e.lifecycleLock.Unlock()

	if e.stream == nil {
		return ""
	}
	return e.stream.Addr().String()
}

// DialFailures returns the endpoints of the current run that could not be
// dialed.
func (e *Engine) DialFailures() []DialFailure {
	e.lifecycleLock.Lock()
	defer e.lifecycleLock.Unlock()

	if e.connector == nil {
		return nil
	}
	return e.connector.Failures()
}

// Start brings the engine up: it binds the listener, dials the configured
// endpoints in parallel, and begins accepting inbound connections. Calling
// Start on a running engine performs a full Stop first.
func (e *Engine) Start() error {
	e.Stop()

	e.lifecycleLock.Lock()
	defer e.lifecycleLock.Unlock()

	stream, err := NewTCPStreamLayer(e.conf.BindAddr, e.conf.AdvertiseAddr)
	if err != nil {
		return err
	}

	e.stream = stream
	e.connector = NewConnector(stream, e.conf.DialTimeout, e.logger)

	e.shutdownLock.Lock()
	e.shutdownCh = make(chan struct{})
	e.shutdownLock.Unlock()

	e.setState(Running)
	e.start = time.Now()

	connector := e.connector
	e.goFunc(func() { e.acceptLoop(stream) })
	e.goFunc(func() { connector.ConnectAll(e.conf.Endpoints, e.OnboardPeer) })

	e.logger.WithField("endpoints", len(e.conf.Endpoints)).Debug("Engine started")

	return nil
}

// Stop tears the engine down: it stops the listener so no new peers come in,
// disconnects every registered peer, clears the registry, signals shutdown,
// and waits for all spawned goroutines to terminate. Stopping a stopped
// engine is a no-op.
func (e *Engine) Stop() {
	e.lifecycleLock.Lock()

	if e.getState() != Running {
		e.lifecycleLock.Unlock()
		return
	}

	// No new inbound peers.
	e.stream.Close()

	// Disconnect registered peers and clear the registry.
	for _, p := range e.peers.Snapshot() {
		p.Disconnect()
		e.peers.Unregister(p)
	}

	// Wake receive loops out of their polling delay.
	e.shutdownLock.Lock()
	close(e.shutdownCh)
	e.shutdownLock.Unlock()

	e.setState(Stopped)

	e.lifecycleLock.Unlock()

	e.waitRoutines()

	e.logger.Debug("Engine stopped")
}

// Close stops the engine and detaches it from its stream layer. The engine
// can still be restarted with Start, which binds a fresh listener.
func (e *Engine) Close() {
	e.Stop()

	e.lifecycleLock.Lock()
	e.stream = nil
	e.connector = nil
	e.lifecycleLock.Unlock()
}

// isShutdown reports whether the current run's shutdown signal has fired.
func (e *Engine) isShutdown() bool {
	e.shutdownLock.Lock()
	ch := e.shutdownCh
	e.shutdownLock.Unlock()

	if ch == nil {
		return true
	}

	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// acceptLoop accepts inbound connections until the listener is closed.
func (e *Engine) acceptLoop(stream StreamLayer) {
	for {
		conn, err := stream.Accept()
		if err != nil {
			if e.isShutdown() || errors.Is(err, net.ErrClosed) {
				return
			}
			e.logger.WithField("error", err).Error("Failed to accept connection")
			continue
		}

		e.logger.WithField("from", conn.RemoteAddr()).Debug("Accepted connection")

		peer := NewPeer(conn, true)
		e.goFunc(func() { e.OnboardPeer(peer) })
	}
}

// OnboardPeer is the single entry point for new peers, inbound and outbound
// alike: register, spawn the receive loop, send the local version message.
// Any failure is resolved by disconnecting this peer only; it never affects
// other peers or the engine.
func (e *Engine) OnboardPeer(p *Peer) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithFields(logrus.Fields{
				"peer":  p.Addr(),
				"panic": r,
			}).Error("Recovered from onboarding failure")

			e.peers.Unregister(p)
			p.Disconnect()
		}
	}()

	if e.isShutdown() {
		p.Disconnect()
		return
	}

	e.peers.Register(p)

	// A Stop that raced the registration above would miss this peer when
	// clearing the registry.
	if e.isShutdown() {
		e.peers.Unregister(p)
		p.Disconnect()
		return
	}

	e.goFunc(func() { e.receiveLoop(p) })

	msg, err := NewTypedMessage(CmdVersion, e.hs.CurrentVersion())
	if err == nil {
		err = p.Send(msg)
	}

	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"peer":  p.Addr(),
			"error": err,
		}).Error("Failed to onboard peer")

		e.peers.Unregister(p)
		p.Disconnect()

		return
	}

	e.logger.WithFields(logrus.Fields{
		"peer":    p.Addr(),
		"inbound": p.Inbound(),
	}).Debug("Onboarded peer")
}

// receiveLoop polls a single peer for inbound frames, gates them by protocol
// phase, and dispatches accepted frames to the message handler. Frames from
// one peer are processed sequentially, in arrival order.
//
// Whatever ends the loop, the peer leaves the registry; a dead peer must not
// linger and receive broadcasts.
func (e *Engine) receiveLoop(p *Peer) {
	defer func() {
		e.peers.Unregister(p)
		p.Disconnect()

		e.logger.WithField("peer", p.Addr()).Debug("Receive loop stopped")
	}()

	for p.Connected() && !e.isShutdown() {
		msg, err := p.Poll(e.conf.PollInterval)

		if err == ErrNoData {
			continue
		}

		if err != nil {
			if !e.isShutdown() && err != io.EOF && err != ErrPeerDisconnected {
				e.logger.WithFields(logrus.Fields{
					"peer":  p.Addr(),
					"error": err,
				}).Debug("Receive failed")
			}
			return
		}

		if !AcceptFrame(p.Ready(), msg.Command.IsHandshake()) {
			continue
		}

		e.dispatch(p, msg)
	}
}

// dispatch hands an accepted frame to the handler. Handler errors and panics
// are confined to the frame: they are logged and the loop carries on.
func (e *Engine) dispatch(p *Peer, msg *Message) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithFields(logrus.Fields{
				"peer":    p.Addr(),
				"command": msg.Command.String(),
				"panic":   r,
			}).Error("Recovered from handler panic")
		}
	}()

	if err := e.handler.HandleMessage(p, msg); err != nil {
		e.logger.WithFields(logrus.Fields{
			"peer":    p.Addr(),
			"command": msg.Command.String(),
			"error":   err,
		}).Error("Handler error")
	}
}

// Stats returns engine statistics.
func (e *Engine) Stats() map[string]string {
	peers := e.peers.Snapshot()

	ready := 0
	inbound := 0
	for _, p := range peers {
		if p.Ready() {
			ready++
		}
		if p.Inbound() {
			inbound++
		}
	}

	uptime := time.Duration(0)
	if e.getState() == Running {
		uptime = time.Since(e.start)
	}

	return map[string]string{
		"state":          e.getState().String(),
		"num_peers":      strconv.Itoa(len(peers)),
		"ready_peers":    strconv.Itoa(ready),
		"inbound_peers":  strconv.Itoa(inbound),
		"outbound_peers": strconv.Itoa(len(peers) - inbound),
		"dial_failures":  strconv.Itoa(len(e.DialFailures())),
		"uptime":         uptime.String(),
	}
}
