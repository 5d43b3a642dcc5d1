package config

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"sync"
)

const (
	jsonEndpointsPath = "peers.json"
)

// Endpoint describes a remote node that this node should dial at startup.
type Endpoint struct {
	NetAddr string
	Moniker string
}

// JSONEndpoints provides persistence of the startup endpoint list in the form
// of a JSON file, which human operators can edit by hand.
type JSONEndpoints struct {
	l    sync.Mutex
	path string
}

// NewJSONEndpoints creates a new JSONEndpoints with reference to a base
// directory where the JSON file resides.
func NewJSONEndpoints(base string) *JSONEndpoints {
	store := &JSONEndpoints{
		path: filepath.Join(base, jsonEndpointsPath),
	}
	return store
}

// Endpoints parses the underlying JSON file and returns the endpoint list.
func (j *JSONEndpoints) Endpoints() ([]*Endpoint, error) {
	j.l.Lock()
	defer j.l.Unlock()

	// Read the file
	buf, err := ioutil.ReadFile(j.path)
	if err != nil {
		return nil, err
	}

	// Check for no endpoints
	if len(buf) == 0 {
		return nil, nil
	}

	// Decode the endpoints
	var endpoints []*Endpoint
	dec := json.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(&endpoints); err != nil {
		return nil, err
	}

	return endpoints, nil
}

// Write persists the endpoint list to the underlying JSON file.
func (j *JSONEndpoints) Write(endpoints []*Endpoint) error {
	j.l.Lock()
	defer j.l.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "\t")
	if err := enc.Encode(endpoints); err != nil {
		return err
	}

	return ioutil.WriteFile(j.path, buf.Bytes(), 0644)
}

// NetAddrs flattens a list of endpoints into a list of network addresses.
func NetAddrs(endpoints []*Endpoint) []string {
	addrs := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		addrs = append(addrs, e.NetAddr)
	}
	return addrs
}
