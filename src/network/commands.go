package network

// Command identifies the type of a wire message. The vocabulary is closed and
// versioned with the protocol; unknown tags are rejected at the framing layer.
type Command uint8

const (
	// CmdVersion announces a node's identity and chain height. It is the
	// first message sent on every new connection.
	CmdVersion Command = iota + 1
	// CmdVerack acknowledges a version message and completes the handshake.
	CmdVerack
	// CmdGetAddr requests the addresses of the remote node's peers.
	CmdGetAddr
	// CmdAddr carries a list of known peer addresses.
	CmdAddr
	// CmdPing probes a peer for liveness.
	CmdPing
	// CmdPong answers a ping with the sender's current height.
	CmdPong
	// CmdGetBlocks requests an inventory of block hashes above an index.
	CmdGetBlocks
	// CmdInv advertises block or transaction hashes.
	CmdInv
	// CmdGetData requests the objects behind advertised hashes.
	CmdGetData
	// CmdBlock carries a block header.
	CmdBlock
	// CmdTx carries a raw transaction.
	CmdTx
)

// String ...
func (c Command) String() string {
	switch c {
	case CmdVersion:
		return "version"
	case CmdVerack:
		return "verack"
	case CmdGetAddr:
		return "getaddr"
	case CmdAddr:
		return "addr"
	case CmdPing:
		return "ping"
	case CmdPong:
		return "pong"
	case CmdGetBlocks:
		return "getblocks"
	case CmdInv:
		return "inv"
	case CmdGetData:
		return "getdata"
	case CmdBlock:
		return "block"
	case CmdTx:
		return "tx"
	default:
		return "unknown"
	}
}

// valid reports whether c belongs to the command vocabulary.
func (c Command) valid() bool {
	return c >= CmdVersion && c <= CmdTx
}

// IsHandshake reports whether the command belongs to the handshake phase of
// the protocol. Exactly version and verack qualify.
func (c Command) IsHandshake() bool {
	return c == CmdVersion || c == CmdVerack
}
