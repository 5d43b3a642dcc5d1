package network

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DialFailure records a configured endpoint that could not be reached.
type DialFailure struct {
	Endpoint string
	Err      error
}

// Connector dials the configured remote endpoints. Dials are issued in
// parallel and succeed or fail independently; a refused or timed-out
// endpoint is recorded and never retried.
type Connector struct {
	stream  StreamLayer
	timeout time.Duration
	logger  *logrus.Entry

	failedLock sync.Mutex
	failed     []DialFailure
}

// NewConnector ...
func NewConnector(stream StreamLayer, timeout time.Duration, logger *logrus.Entry) *Connector {
	return &Connector{
		stream:  stream,
		timeout: timeout,
		logger:  logger,
	}
}

// ConnectAll dials every endpoint in parallel and hands each successful
// connection to onboard as an outbound Peer. It returns once every dial has
// either connected or failed.
func (c *Connector) ConnectAll(endpoints []string, onboard func(*Peer)) {
	var wg sync.WaitGroup

	for _, endpoint := range endpoints {
		wg.Add(1)
		go func(endpoint string) {
			defer wg.Done()

			conn, err := c.stream.Dial(endpoint, c.timeout)
			if err != nil {
				c.logger.WithFields(logrus.Fields{
					"endpoint": endpoint,
					"error":    err,
				}).Error("Failed to connect to endpoint")

				c.failedLock.Lock()
				c.failed = append(c.failed, DialFailure{Endpoint: endpoint, Err: err})
				c.failedLock.Unlock()

				return
			}

			c.logger.WithField("endpoint", endpoint).Debug("Connected to endpoint")

			onboard(NewPeer(conn, false))
		}(endpoint)
	}

	wg.Wait()
}

// Failures returns the endpoints that could not be dialed.
func (c *Connector) Failures() []DialFailure {
	c.failedLock.Lock()
	defer c.failedLock.Unlock()

	failed := make([]DialFailure, len(c.failed))
	copy(failed, c.failed)
	return failed
}
