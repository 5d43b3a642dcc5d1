package network

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/meridiannetwork/meridian/src/common"
)

func TestConnectorConnectAll(t *testing.T) {
	logger := common.NewTestEntry(t)

	live := []string{}
	for i := 0; i < 2; i++ {
		list, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		defer list.Close()

		live = append(live, list.Addr().String())

		go func(list net.Listener) {
			conn, err := list.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			time.Sleep(time.Second)
		}(list)
	}

	stream, err := NewTCPStreamLayer("127.0.0.1:0", "")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer stream.Close()

	dead := "127.0.0.1:1"
	connector := NewConnector(stream, time.Second, logger)

	var lock sync.Mutex
	peers := []*Peer{}
	connector.ConnectAll(append(live, dead), func(p *Peer) {
		lock.Lock()
		peers = append(peers, p)
		lock.Unlock()
	})

	if len(peers) != 2 {
		t.Fatalf("onboarded %d peers, expected 2", len(peers))
	}
	for _, p := range peers {
		if p.Inbound() {
			t.Fatal("dialed peers should be outbound")
		}
		p.Disconnect()
	}

	failures := connector.Failures()
	if len(failures) != 1 {
		t.Fatalf("recorded %d failures, expected 1", len(failures))
	}
	if failures[0].Endpoint != dead {
		t.Fatalf("failed endpoint %s, expected %s", failures[0].Endpoint, dead)
	}
	if failures[0].Err == nil {
		t.Fatal("failure should carry the dial error")
	}
}

func TestTCPStreamLayerAdvertiseAddr(t *testing.T) {
	stream, err := NewTCPStreamLayer("127.0.0.1:0", "")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer stream.Close()

	if stream.AdvertiseAddr() != stream.Addr().String() {
		t.Fatalf("advertise addr %s, expected %s",
			stream.AdvertiseAddr(), stream.Addr().String())
	}

	advertised, err := NewTCPStreamLayer("127.0.0.1:0", "node.example.com:20333")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer advertised.Close()

	if advertised.AdvertiseAddr() != "node.example.com:20333" {
		t.Fatalf("advertise addr %s, expected node.example.com:20333",
			advertised.AdvertiseAddr())
	}
}
