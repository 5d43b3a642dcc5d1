package chain

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// BlockHeader is the header of a block in the chain. The payload of block
// messages on the wire decodes into this type.
type BlockHeader struct {
	Index      uint32
	Hash       []byte
	PrevHash   []byte
	MerkleRoot []byte
	Timestamp  int64
}

// Marshal returns the canonical JSON encoding of the header.
func (b *BlockHeader) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)

	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(buf, jh)

	if err := enc.Encode(b); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Unmarshal parses a canonical JSON encoding into the header.
func (b *BlockHeader) Unmarshal(data []byte) error {
	buf := bytes.NewBuffer(data)

	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(buf, jh)

	return dec.Decode(b)
}

// Transaction is a raw transaction as it travels on the wire. The core does
// not interpret the payload; validation belongs to upper layers.
type Transaction struct {
	Hash    []byte
	Type    uint8
	Payload []byte
}

// Marshal returns the canonical JSON encoding of the transaction.
func (t *Transaction) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)

	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(buf, jh)

	if err := enc.Encode(t); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Unmarshal parses a canonical JSON encoding into the transaction.
func (t *Transaction) Unmarshal(data []byte) error {
	buf := bytes.NewBuffer(data)

	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(buf, jh)

	return dec.Decode(t)
}

// Account is the state attached to a script hash.
type Account struct {
	ScriptHash []byte
	Balance    uint64
	Nonce      uint64
}

// Marshal returns the canonical JSON encoding of the account.
func (a *Account) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)

	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(buf, jh)

	if err := enc.Encode(a); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Unmarshal parses a canonical JSON encoding into the account.
func (a *Account) Unmarshal(data []byte) error {
	buf := bytes.NewBuffer(data)

	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(buf, jh)

	return dec.Decode(a)
}
