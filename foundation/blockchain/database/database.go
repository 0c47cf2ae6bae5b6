// Package database handles all the lower level support for the blockchain
// data: transactions, blocks, the unspent outputs they produce and the
// consensus rules that validate them.
package database

import (
	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(height uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// BlockData represents what is written to storage.
type BlockData struct {
	Height uint64        `json:"height" cbor:"1,keyasint"`
	Hash   digest.Digest `json:"hash" cbor:"2,keyasint"`
	Block  Block         `json:"block" cbor:"3,keyasint"`
}

// NewBlockData constructs the value to serialize to storage.
func NewBlockData(height uint64, block Block) BlockData {
	return BlockData{
		Height: height,
		Hash:   block.Hash(),
		Block:  block,
	}
}
