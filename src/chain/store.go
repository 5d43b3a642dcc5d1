package chain

// Store is the interface to the persistent chain state. It is consumed by the
// protocol handler and, for the height, by the network handshake context.
//
// Implementations must be safe for concurrent use; lookups and insertions come
// from many peer receive loops at once.
type Store interface {
	// Height returns the index of the last stored block.
	Height() uint32

	// SetHeight records the index of the last stored block.
	SetHeight(height uint32) error

	GetBlock(hash []byte) (*BlockHeader, error)
	GetBlockByIndex(index uint32) (*BlockHeader, error)
	SetBlock(block *BlockHeader) error
	HasBlock(hash []byte) bool

	GetTransaction(hash []byte) (*Transaction, error)
	SetTransaction(tx *Transaction) error
	HasTransaction(hash []byte) bool

	GetAccount(scriptHash []byte) (*Account, error)
	SetAccount(account *Account) error

	Close() error
}
