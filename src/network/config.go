package network

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Config regroups the options consumed by the Engine. The endpoint list is
// fixed for a run; there is no dynamic reconfiguration.
type Config struct {
	// BindAddr is the local address:port the engine listens on.
	BindAddr string

	// AdvertiseAddr is the address announced to other nodes, when different
	// from BindAddr.
	AdvertiseAddr string

	// Endpoints is the list of remote addresses dialed on Start.
	Endpoints []string

	// DialTimeout bounds each outbound connection attempt.
	DialTimeout time.Duration

	// PollInterval is the delay between two empty polls of a peer
	// connection.
	PollInterval time.Duration

	Logger *logrus.Entry
}

// NewConfig ...
func NewConfig(
	bindAddr string,
	advertiseAddr string,
	endpoints []string,
	dialTimeout time.Duration,
	pollInterval time.Duration,
	logger *logrus.Entry) *Config {

	return &Config{
		BindAddr:      bindAddr,
		AdvertiseAddr: advertiseAddr,
		Endpoints:     endpoints,
		DialTimeout:   dialTimeout,
		PollInterval:  pollInterval,
		Logger:        logger,
	}
}

// DefaultConfig returns a Config with default values and no endpoints.
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		BindAddr:     "127.0.0.1:20333",
		DialTimeout:  3000 * time.Millisecond,
		PollInterval: 100 * time.Millisecond,
		Logger:       logrus.NewEntry(logger),
	}
}
