package chain

import (
	"bytes"
	"testing"

	cm "github.com/meridiannetwork/meridian/src/common"
)

func TestInmemStoreBlocks(t *testing.T) {
	store := NewInmemStore()

	if store.Height() != 0 {
		t.Fatalf("height %d, expected 0", store.Height())
	}

	block := &BlockHeader{
		Index:     1,
		Hash:      []byte{0x01},
		PrevHash:  []byte{0x00},
		Timestamp: 1724572800,
	}

	if _, err := store.GetBlock(block.Hash); !cm.IsStore(err, cm.KeyNotFound) {
		t.Fatalf("err: %v, expected KeyNotFound", err)
	}
	if store.HasBlock(block.Hash) {
		t.Fatal("store should not have the block yet")
	}

	if err := store.SetBlock(block); err != nil {
		t.Fatalf("err: %v", err)
	}

	if !store.HasBlock(block.Hash) {
		t.Fatal("store should have the block")
	}

	got, err := store.GetBlock(block.Hash)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got.Index != 1 || !bytes.Equal(got.Hash, block.Hash) {
		t.Fatalf("got %+v", got)
	}

	byIndex, err := store.GetBlockByIndex(1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !bytes.Equal(byIndex.Hash, block.Hash) {
		t.Fatalf("got %+v", byIndex)
	}
}

func TestInmemStoreHeight(t *testing.T) {
	store := NewInmemStore()

	// Storing a block that extends the chain bumps the height.
	if err := store.SetBlock(&BlockHeader{Index: 3, Hash: []byte{0x03}}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if store.Height() != 3 {
		t.Fatalf("height %d, expected 3", store.Height())
	}

	// A block below the tip does not lower it.
	if err := store.SetBlock(&BlockHeader{Index: 2, Hash: []byte{0x02}}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if store.Height() != 3 {
		t.Fatalf("height %d, expected 3", store.Height())
	}

	if err := store.SetHeight(10); err != nil {
		t.Fatalf("err: %v", err)
	}
	if store.Height() != 10 {
		t.Fatalf("height %d, expected 10", store.Height())
	}
}

func TestInmemStoreTransactions(t *testing.T) {
	store := NewInmemStore()

	tx := &Transaction{Hash: []byte{0xaa}, Type: 1, Payload: []byte("raw")}

	if store.HasTransaction(tx.Hash) {
		t.Fatal("store should not have the transaction yet")
	}
	if _, err := store.GetTransaction(tx.Hash); !cm.IsStore(err, cm.KeyNotFound) {
		t.Fatalf("err: %v, expected KeyNotFound", err)
	}

	if err := store.SetTransaction(tx); err != nil {
		t.Fatalf("err: %v", err)
	}

	got, err := store.GetTransaction(tx.Hash)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got.Type != 1 || !bytes.Equal(got.Payload, tx.Payload) {
		t.Fatalf("got %+v", got)
	}
}

func TestInmemStoreAccounts(t *testing.T) {
	store := NewInmemStore()

	account := &Account{ScriptHash: []byte{0xbb}, Balance: 100, Nonce: 1}

	if _, err := store.GetAccount(account.ScriptHash); !cm.IsStore(err, cm.KeyNotFound) {
		t.Fatalf("err: %v, expected KeyNotFound", err)
	}

	if err := store.SetAccount(account); err != nil {
		t.Fatalf("err: %v", err)
	}

	got, err := store.GetAccount(account.ScriptHash)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got.Balance != 100 || got.Nonce != 1 {
		t.Fatalf("got %+v", got)
	}
}
