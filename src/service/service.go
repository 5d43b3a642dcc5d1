package service

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/meridiannetwork/meridian/src/chain"
	"github.com/meridiannetwork/meridian/src/network"
)

// peerInfo is the JSON view of a connected peer.
type peerInfo struct {
	Addr      string `json:"addr"`
	Inbound   bool   `json:"inbound"`
	Ready     bool   `json:"ready"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Service ...
type Service struct {
	bindAddress string
	engine      *network.Engine
	store       chain.Store
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, engine *network.Engine, store chain.Store, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		engine:      engine,
		store:       store,
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

// registerHandlers registers the API handlers with the DefaultServerMux of the
// http package. It is possible that another server in the same process is
// simultaneously using the DefaultServerMux. In which case, the handlers will
// be accessible from both servers.
func (s *Service) registerHandlers() {
	s.logger.Debug("Registering Meridian API handlers")
	http.HandleFunc("/stats", s.makeHandler(s.GetStats))
	http.HandleFunc("/peers", s.makeHandler(s.GetPeers))
	http.HandleFunc("/block/", s.makeHandler(s.GetBlock))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Serve calls ListenAndServe. This is a blocking call. It is not necessary to
// call Serve when another server has already been started with the
// DefaultServerMux and the same address:port combination; the handlers have
// already been registered when the service was instantiated.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving Meridian API")

	// Use the DefaultServerMux
	err := http.ListenAndServe(s.bindAddress, nil)
	if err != nil {
		s.logger.Error(err)
	}
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.engine.Stats()
	stats["height"] = strconv.FormatUint(uint64(s.store.Height()), 10)

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(stats)
}

// GetPeers ...
func (s *Service) GetPeers(w http.ResponseWriter, r *http.Request) {
	peers := s.engine.Peers().Snapshot()

	infos := make([]peerInfo, 0, len(peers))
	for _, p := range peers {
		info := peerInfo{
			Addr:    p.Addr(),
			Inbound: p.Inbound(),
			Ready:   p.Ready(),
		}
		if version := p.Version(); version != nil {
			info.UserAgent = version.UserAgent
		}
		infos = append(infos, info)
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(infos)
}

// GetBlock ...
func (s *Service) GetBlock(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Path[len("/block/"):]

	blockIndex, err := strconv.ParseUint(param, 10, 32)

	if err != nil {
		s.logger.WithError(err).Errorf("Parsing block_index parameter %s", param)

		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	block, err := s.store.GetBlockByIndex(uint32(blockIndex))

	if err != nil {
		s.logger.WithError(err).Errorf("Retrieving block %d", blockIndex)

		http.Error(w, err.Error(), http.StatusNotFound)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(block)
}
