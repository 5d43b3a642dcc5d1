package chain

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/dgraph-io/badger"
	cm "github.com/meridiannetwork/meridian/src/common"
)

const (
	blockPrefix   = "block"
	indexPrefix   = "blockindex"
	txPrefix      = "tx"
	accountPrefix = "account"
	heightKey     = "height"
)

// BadgerStore implements the Store interface on top of a Badger database.
// An InmemStore is used as a write-through cache; lookups fall back to the
// database when the cache misses.
type BadgerStore struct {
	cache *InmemStore
	db    *badger.DB
	path  string
}

// NewBadgerStore creates a brand new Store with a new database.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithSyncWrites(false).WithLogger(nil)
	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	store := &BadgerStore{
		cache: NewInmemStore(),
		db:    handle,
		path:  path,
	}
	if err := store.loadHeight(); err != nil {
		return nil, err
	}
	return store, nil
}

// LoadOrCreateBadgerStore attempts to load a BadgerStore from an existing
// database directory, and creates a fresh one if the directory does not
// exist.
func LoadOrCreateBadgerStore(path string) (*BadgerStore, error) {
	if _, err := os.Stat(path); err != nil {
		if err := os.MkdirAll(path, 0700); err != nil {
			return nil, err
		}
	}
	return NewBadgerStore(path)
}

// Path returns the database directory.
func (s *BadgerStore) Path() string {
	return s.path
}

// Height implements the Store interface.
func (s *BadgerStore) Height() uint32 {
	return s.cache.Height()
}

// SetHeight implements the Store interface.
func (s *BadgerStore) SetHeight(height uint32) error {
	if err := s.cache.SetHeight(height); err != nil {
		return err
	}
	return s.dbSetHeight(height)
}

// GetBlock implements the Store interface.
func (s *BadgerStore) GetBlock(hash []byte) (*BlockHeader, error) {
	res, err := s.cache.GetBlock(hash)
	if err != nil {
		res, err = s.dbGetBlock(hash)
	}
	return res, err
}

// GetBlockByIndex implements the Store interface.
func (s *BadgerStore) GetBlockByIndex(index uint32) (*BlockHeader, error) {
	res, err := s.cache.GetBlockByIndex(index)
	if err != nil {
		res, err = s.dbGetBlockByIndex(index)
	}
	return res, err
}

// SetBlock implements the Store interface.
func (s *BadgerStore) SetBlock(block *BlockHeader) error {
	if err := s.cache.SetBlock(block); err != nil {
		return err
	}
	if err := s.dbSetBlock(block); err != nil {
		return err
	}
	return s.dbSetHeight(s.cache.Height())
}

// HasBlock implements the Store interface.
func (s *BadgerStore) HasBlock(hash []byte) bool {
	if s.cache.HasBlock(hash) {
		return true
	}
	_, err := s.dbGetBlock(hash)
	return err == nil
}

// GetTransaction implements the Store interface.
func (s *BadgerStore) GetTransaction(hash []byte) (*Transaction, error) {
	res, err := s.cache.GetTransaction(hash)
	if err != nil {
		res, err = s.dbGetTransaction(hash)
	}
	return res, err
}

// SetTransaction implements the Store interface.
func (s *BadgerStore) SetTransaction(tx *Transaction) error {
	if err := s.cache.SetTransaction(tx); err != nil {
		return err
	}
	return s.dbSetTransaction(tx)
}

// HasTransaction implements the Store interface.
func (s *BadgerStore) HasTransaction(hash []byte) bool {
	if s.cache.HasTransaction(hash) {
		return true
	}
	_, err := s.dbGetTransaction(hash)
	return err == nil
}

// GetAccount implements the Store interface.
func (s *BadgerStore) GetAccount(scriptHash []byte) (*Account, error) {
	res, err := s.cache.GetAccount(scriptHash)
	if err != nil {
		res, err = s.dbGetAccount(scriptHash)
	}
	return res, err
}

// SetAccount implements the Store interface.
func (s *BadgerStore) SetAccount(account *Account) error {
	if err := s.cache.SetAccount(account); err != nil {
		return err
	}
	return s.dbSetAccount(account)
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

/* Keys */

func blockKey(hash []byte) []byte {
	return []byte(fmt.Sprintf("%s_%X", blockPrefix, hash))
}

func blockIndexKey(index uint32) []byte {
	return []byte(fmt.Sprintf("%s_%09d", indexPrefix, index))
}

func txKey(hash []byte) []byte {
	return []byte(fmt.Sprintf("%s_%X", txPrefix, hash))
}

func accountKey(scriptHash []byte) []byte {
	return []byte(fmt.Sprintf("%s_%X", accountPrefix, scriptHash))
}

/* DB Methods */

func (s *BadgerStore) loadHeight() error {
	var heightBytes []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(heightKey))
		if err != nil {
			return err
		}
		heightBytes, err = item.ValueCopy(nil)
		return err
	})

	if err == badger.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	return s.cache.SetHeight(binary.BigEndian.Uint32(heightBytes))
}

func (s *BadgerStore) dbSetHeight(height uint32) error {
	heightBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(heightBytes, height)

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(heightKey), heightBytes)
	})
}

func (s *BadgerStore) dbGetBlock(hash []byte) (*BlockHeader, error) {
	var blockBytes []byte
	key := blockKey(hash)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		blockBytes, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, cm.NewStoreErr("Block", cm.KeyNotFound, string(key))
	}

	block := new(BlockHeader)
	if err := block.Unmarshal(blockBytes); err != nil {
		return nil, err
	}

	return block, nil
}

func (s *BadgerStore) dbGetBlockByIndex(index uint32) (*BlockHeader, error) {
	var hash []byte
	key := blockIndexKey(index)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		hash, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, cm.NewStoreErr("Block", cm.KeyNotFound, string(key))
	}

	return s.dbGetBlock(hash)
}

func (s *BadgerStore) dbSetBlock(block *BlockHeader) error {
	blockBytes, err := block.Marshal()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(blockKey(block.Hash), blockBytes); err != nil {
			return err
		}
		return txn.Set(blockIndexKey(block.Index), block.Hash)
	})
}

func (s *BadgerStore) dbGetTransaction(hash []byte) (*Transaction, error) {
	var txBytes []byte
	key := txKey(hash)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		txBytes, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, cm.NewStoreErr("Transaction", cm.KeyNotFound, string(key))
	}

	tx := new(Transaction)
	if err := tx.Unmarshal(txBytes); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *BadgerStore) dbSetTransaction(tx *Transaction) error {
	txBytes, err := tx.Marshal()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(txKey(tx.Hash), txBytes)
	})
}

func (s *BadgerStore) dbGetAccount(scriptHash []byte) (*Account, error) {
	var accountBytes []byte
	key := accountKey(scriptHash)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		accountBytes, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, cm.NewStoreErr("Account", cm.KeyNotFound, string(key))
	}

	account := new(Account)
	if err := account.Unmarshal(accountBytes); err != nil {
		return nil, err
	}

	return account, nil
}

func (s *BadgerStore) dbSetAccount(account *Account) error {
	accountBytes, err := account.Marshal()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(accountKey(account.ScriptHash), accountBytes)
	})
}
