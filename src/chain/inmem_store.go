package chain

import (
	"strconv"
	"sync"

	cm "github.com/meridiannetwork/meridian/src/common"
)

// InmemStore implements the Store interface with in-memory maps. It is used
// when the node is started without persistent storage, and as the cache layer
// of the BadgerStore.
type InmemStore struct {
	sync.RWMutex

	height        uint32
	blocks        map[string]*BlockHeader
	blocksByIndex map[uint32]*BlockHeader
	transactions  map[string]*Transaction
	accounts      map[string]*Account
}

// NewInmemStore returns an empty InmemStore.
func NewInmemStore() *InmemStore {
	return &InmemStore{
		blocks:        make(map[string]*BlockHeader),
		blocksByIndex: make(map[uint32]*BlockHeader),
		transactions:  make(map[string]*Transaction),
		accounts:      make(map[string]*Account),
	}
}

// Height implements the Store interface.
func (s *InmemStore) Height() uint32 {
	s.RLock()
	defer s.RUnlock()
	return s.height
}

// SetHeight implements the Store interface.
func (s *InmemStore) SetHeight(height uint32) error {
	s.Lock()
	defer s.Unlock()
	s.height = height
	return nil
}

// GetBlock implements the Store interface.
func (s *InmemStore) GetBlock(hash []byte) (*BlockHeader, error) {
	s.RLock()
	defer s.RUnlock()

	key := cm.EncodeToString(hash)
	block, ok := s.blocks[key]
	if !ok {
		return nil, cm.NewStoreErr("Block", cm.KeyNotFound, key)
	}
	return block, nil
}

// GetBlockByIndex implements the Store interface.
func (s *InmemStore) GetBlockByIndex(index uint32) (*BlockHeader, error) {
	s.RLock()
	defer s.RUnlock()

	block, ok := s.blocksByIndex[index]
	if !ok {
		return nil, cm.NewStoreErr("Block", cm.KeyNotFound, strconv.FormatUint(uint64(index), 10))
	}
	return block, nil
}

// SetBlock implements the Store interface. The height is bumped when the
// block extends the chain.
func (s *InmemStore) SetBlock(block *BlockHeader) error {
	s.Lock()
	defer s.Unlock()

	s.blocks[cm.EncodeToString(block.Hash)] = block
	s.blocksByIndex[block.Index] = block

	if block.Index > s.height {
		s.height = block.Index
	}

	return nil
}

// HasBlock implements the Store interface.
func (s *InmemStore) HasBlock(hash []byte) bool {
	s.RLock()
	defer s.RUnlock()

	_, ok := s.blocks[cm.EncodeToString(hash)]
	return ok
}

// GetTransaction implements the Store interface.
func (s *InmemStore) GetTransaction(hash []byte) (*Transaction, error) {
	s.RLock()
	defer s.RUnlock()

	key := cm.EncodeToString(hash)
	tx, ok := s.transactions[key]
	if !ok {
		return nil, cm.NewStoreErr("Transaction", cm.KeyNotFound, key)
	}
	return tx, nil
}

// SetTransaction implements the Store interface.
func (s *InmemStore) SetTransaction(tx *Transaction) error {
	s.Lock()
	defer s.Unlock()

	s.transactions[cm.EncodeToString(tx.Hash)] = tx
	return nil
}

// HasTransaction implements the Store interface.
func (s *InmemStore) HasTransaction(hash []byte) bool {
	s.RLock()
	defer s.RUnlock()

	_, ok := s.transactions[cm.EncodeToString(hash)]
	return ok
}

// GetAccount implements the Store interface.
func (s *InmemStore) GetAccount(scriptHash []byte) (*Account, error) {
	s.RLock()
	defer s.RUnlock()

	key := cm.EncodeToString(scriptHash)
	account, ok := s.accounts[key]
	if !ok {
		return nil, cm.NewStoreErr("Account", cm.KeyNotFound, key)
	}
	return account, nil
}

// SetAccount implements the Store interface.
func (s *InmemStore) SetAccount(account *Account) error {
	s.Lock()
	defer s.Unlock()

	s.accounts[cm.EncodeToString(account.ScriptHash)] = account
	return nil
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}
