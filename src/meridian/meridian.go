package meridian

import (
	"crypto/ecdsa"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/meridiannetwork/meridian/src/chain"
	"github.com/meridiannetwork/meridian/src/config"
	"github.com/meridiannetwork/meridian/src/crypto"
	"github.com/meridiannetwork/meridian/src/crypto/keys"
	"github.com/meridiannetwork/meridian/src/network"
	"github.com/meridiannetwork/meridian/src/protocol"
	"github.com/meridiannetwork/meridian/src/service"
)

// Meridian is a blockchain node: a chain store, a p2p network engine driven
// by the protocol handler, and an optional HTTP API service.
type Meridian struct {
	Config  *config.Config
	Store   chain.Store
	Engine  *network.Engine
	Service *service.Service
}

// NewMeridian ...
func NewMeridian(config *config.Config) *Meridian {
	node := &Meridian{
		Config: config,
	}

	return node
}

func (m *Meridian) initKey() error {
	if m.Config.Key == nil {
		pemKey := crypto.NewPemKey(m.Config.DataDir)

		privKey, err := pemKey.ReadKey()

		if err != nil {
			m.Config.Logger().Warn("Cannot read private key from file", err)

			privKey, err = Keygen(m.Config.DataDir)

			if err != nil {
				m.Config.Logger().Error("Cannot generate a new private key", err)

				return err
			}

			pem, _ := crypto.ToPemKey(privKey)

			m.Config.Logger().Info("Created a new key:", pem.PublicKey)
		}

		m.Config.Key = privKey
	}
	return nil
}

func (m *Meridian) initStore() error {
	if !m.Config.Store {
		m.Store = chain.NewInmemStore()

		m.Config.Logger().Debug("created new in-mem store")
	} else {
		var err error

		m.Config.Logger().WithField("path", m.Config.DatabaseDir).Debug("Attempting to load or create database")

		m.Store, err = chain.LoadOrCreateBadgerStore(m.Config.DatabaseDir)

		if err != nil {
			return err
		}

		m.Config.Logger().WithField("height", m.Store.Height()).Debug("Loaded badger store")
	}

	return nil
}

func (m *Meridian) initEngine() error {
	key := m.Config.Key

	nodeID := keys.PublicKeyHex(&key.PublicKey)

	port, err := bindPort(m.Config)
	if err != nil {
		return err
	}

	hs, err := network.NewHandshakeContext(
		port,
		m.Config.UserAgent,
		nodeID,
		m.Config.Relay,
		m.Store,
	)
	if err != nil {
		return err
	}

	endpointStore := config.NewJSONEndpoints(m.Config.DataDir)

	endpoints, err := endpointStore.Endpoints()
	if err != nil {
		m.Config.Logger().Warn("Cannot read peers.json, starting without endpoints", err)
	}

	engineConf := network.NewConfig(
		m.Config.BindAddr,
		m.Config.AdvertiseAddr,
		config.NetAddrs(endpoints),
		m.Config.DialTimeout,
		m.Config.PollInterval,
		m.Config.Logger(),
	)

	handler := protocol.NewHandler(hs, m.Store, &lazyRelayer{node: m}, m.Config.Logger())

	m.Engine, err = network.NewEngine(engineConf, hs, handler)
	if err != nil {
		return err
	}

	return nil
}

func (m *Meridian) initService() error {
	if !m.Config.NoService {
		m.Service = service.NewService(m.Config.ServiceAddr, m.Engine, m.Store, m.Config.Logger())
	}
	return nil
}

// Init initializes the node's components in dependency order.
func (m *Meridian) Init() error {
	if err := m.initKey(); err != nil {
		return err
	}

	if err := m.initStore(); err != nil {
		return err
	}

	if err := m.initEngine(); err != nil {
		return err
	}

	if err := m.initService(); err != nil {
		return err
	}

	return nil
}

// Run starts the engine and the optional API service, then blocks until an
// interrupt or termination signal arrives, at which point it shuts the node
// down.
func (m *Meridian) Run() error {
	if m.Service != nil {
		go m.Service.Serve()
	}

	if err := m.Engine.Start(); err != nil {
		return err
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	sig := <-signalCh

	m.Config.Logger().WithField("signal", sig).Debug("Shutting down")

	m.Shutdown()

	return nil
}

// Shutdown stops the engine and closes the store.
func (m *Meridian) Shutdown() {
	m.Engine.Stop()

	if err := m.Store.Close(); err != nil {
		m.Config.Logger().WithError(err).Error("Closing store")
	}
}

// Keygen generates a new key pair and writes it to datadir, refusing to
// overwrite an existing keyfile.
func Keygen(datadir string) (*ecdsa.PrivateKey, error) {
	pemKey := crypto.NewPemKey(datadir)

	_, err := pemKey.ReadKey()

	if err == nil {
		return nil, fmt.Errorf("Another key already lives under %s", datadir)
	}

	privKey, err := keys.GenerateECDSAKey()

	if err != nil {
		return nil, err
	}

	if err := pemKey.WriteKey(privKey); err != nil {
		return nil, err
	}

	return privKey, nil
}

// lazyRelayer defers the engine lookup to call time; the protocol handler is
// built before the engine it relays through.
type lazyRelayer struct {
	node *Meridian
}

func (r *lazyRelayer) Broadcast(msg *network.Message, filter func(*network.Peer) bool) {
	r.node.Engine.Broadcast(msg, filter)
}

func (r *lazyRelayer) PeerAddrs() []string {
	return r.node.Engine.PeerAddrs()
}

// bindPort extracts the port announced in the version handshake, preferring
// the advertised address when one is configured.
func bindPort(conf *config.Config) (uint16, error) {
	addr := conf.AdvertiseAddr
	if addr == "" {
		addr = conf.BindAddr
	}

	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return 0, err
	}

	return uint16(port), nil
}
