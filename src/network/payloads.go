package network

// VersionPayload is a node's self-announcement, sent as the first message on
// every new connection. Nonce distinguishes accidental self-connections;
// NodeID is the hex form of the node's public identity key.
type VersionPayload struct {
	Version     uint32
	Timestamp   int64
	Port        uint16
	Nonce       uint32
	UserAgent   string
	StartHeight uint32
	Relay       bool
	NodeID      string
}

// PingPayload probes a peer. The nonce pairs pongs with pings; the height
// lets idle peers track each other's progress.
type PingPayload struct {
	Nonce  uint32
	Height uint32
}

// AddrPayload carries known peer addresses in response to getaddr.
type AddrPayload struct {
	Addrs []string
}

// GetBlocksPayload requests an inventory of block hashes for indexes in
// ]FromIndex, FromIndex+Count].
type GetBlocksPayload struct {
	FromIndex uint32
	Count     uint32
}

// InvType distinguishes the object class of an inventory item.
type InvType uint8

const (
	// InvTypeBlock ...
	InvTypeBlock InvType = iota + 1
	// InvTypeTx ...
	InvTypeTx
)

// String ...
func (t InvType) String() string {
	switch t {
	case InvTypeBlock:
		return "block"
	case InvTypeTx:
		return "tx"
	default:
		return "unknown"
	}
}

// InvPayload advertises or requests objects by hash. It is the payload of
// both inv and getdata.
type InvPayload struct {
	Type   InvType
	Hashes [][]byte
}
