package database

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
	"github.com/ardanlabs/utxochain/foundation/blockchain/merkle"
	"github.com/fxamacker/cbor/v2"
)

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	TimeStamp     uint64        `json:"timestamp" cbor:"1,keyasint"`       // Bitcoin: Time the block was mined.
	Nonce         uint64        `json:"nonce" cbor:"2,keyasint"`           // Bitcoin: Value identified to solve the hash solution.
	PrevBlockHash digest.Digest `json:"prev_block_hash" cbor:"3,keyasint"` // Bitcoin: Hash of the previous block in the chain.
	MerkleRoot    digest.Digest `json:"merkle_root" cbor:"4,keyasint"`     // Bitcoin: Merkle tree root hash for the transactions in this block.
	Target        Target        `json:"target" cbor:"5,keyasint"`          // Bitcoin: Largest hash value that solves the block.
}

// Hash returns the unique hash for the header.
func (bh BlockHeader) Hash() digest.Digest {
	return digest.Hash(bh)
}

// Solved reports whether the header hash satisfies its own target.
func (bh BlockHeader) Solved() bool {
	return bh.Hash().MatchesTarget(bh.Target.Int())
}

// Mine searches for a nonce that solves the header for at most the specified
// number of steps. When the nonce space is exhausted the nonce starts over
// at zero with a fresh timestamp. On failure the header is left in the last
// state tried so the caller can resume. Pointer semantics are being used
// since a nonce is being discovered.
func (bh *BlockHeader) Mine(steps uint64) bool {
	target := bh.Target.Int()

	if bh.Hash().MatchesTarget(target) {
		return true
	}

	for range steps {
		if bh.Nonce == math.MaxUint64 {
			bh.Nonce = 0
			bh.TimeStamp = uint64(time.Now().UTC().Unix())
		} else {
			bh.Nonce++
		}

		if bh.Hash().MatchesTarget(target) {
			return true
		}
	}

	return false
}

// =============================================================================

// Block represents a group of transactions batched together. The transaction
// at index 0 is the coinbase.
type Block struct {
	Header BlockHeader `json:"header" cbor:"1,keyasint"`
	Trans  []Tx        `json:"trans" cbor:"2,keyasint"`
}

// NewBlock constructs a block that is ready to be mined on top of the
// specified previous block hash.
func NewBlock(prevBlockHash digest.Digest, target Target, trans []Tx) (Block, error) {

	// The root of the merkle tree for these transactions will be part of
	// the block to be mined.
	root, err := merkle.Root(trans)
	if err != nil {
		return Block{}, err
	}

	b := Block{
		Header: BlockHeader{
			TimeStamp:     uint64(time.Now().UTC().Unix()),
			Nonce:         0, // Will be identified by the POW algorithm.
			PrevBlockHash: prevBlockHash,
			MerkleRoot:    root,
			Target:        target,
		},
		Trans: make([]Tx, len(trans)),
	}
	copy(b.Trans, trans)

	return b, nil
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() digest.Digest {

	// CORE NOTE: Hashing the block header and not the whole block so the blockchain
	// can be cryptographically checked by only needing block headers and not full
	// blocks with the transaction data. The merkle root ties the transactions
	// to the header.

	return b.Header.Hash()
}

// ValidateSelf checks the block is internally consistent: the header solves
// its own target and the merkle root matches the transactions.
func (b Block) ValidateSelf() error {
	hash := b.Hash()
	if !hash.MatchesTarget(b.Header.Target.Int()) {
		return invalidBlock("%s does not satisfy target %s", hash, b.Header.Target)
	}

	root, err := merkle.Root(b.Trans)
	if err != nil {
		return invalidBlock("calculating merkle root: %s", err)
	}

	if root != b.Header.MerkleRoot {
		return invalidBlock("merkle root does not match transactions, got %s, exp %s", root, b.Header.MerkleRoot)
	}

	return nil
}

// Save writes the block to the writer as a CBOR blob.
func (b Block) Save(w io.Writer) error {
	return cbor.NewEncoder(w).Encode(b)
}

// LoadBlock reads a block written by Save.
func LoadBlock(r io.Reader) (Block, error) {
	var b Block
	if err := cbor.NewDecoder(r).Decode(&b); err != nil {
		return Block{}, fmt.Errorf("decoding block: %w", err)
	}

	return b, nil
}

// =============================================================================

// POW performs the work to find a nonce that solves the block. The search
// runs in rounds of the specified number of steps so it can be cancelled
// between rounds.
func POW(ctx context.Context, block Block, stepsPerRound uint64, ev func(v string, args ...any)) (Block, error) {
	ev("database: POW: MINING: started")
	defer ev("database: POW: MINING: completed")

	// Log the transactions that are a part of this potential block.
	for _, tx := range block.Trans {
		ev("database: POW: MINING: tx[%s]", tx)
	}

	// Choose a random starting point for the nonce. After this, the nonce
	// will be incremented by 1 until a solution is found by us or another node.
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return Block{}, err
	}
	block.Header.Nonce = binary.BigEndian.Uint64(buf[:])

	if stepsPerRound == 0 {
		stepsPerRound = 1
	}

	var rounds uint64
	for {
		rounds++

		// Did we timeout trying to solve the problem.
		if ctx.Err() != nil {
			ev("database: POW: MINING: CANCELLED")
			return Block{}, ctx.Err()
		}

		if block.Header.Mine(stepsPerRound) {
			break
		}

		if rounds%100 == 0 {
			ev("database: POW: MINING: attempts[%d]", rounds*stepsPerRound)
		}
	}

	ev("database: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", block.Header.PrevBlockHash, block.Hash())

	return block, nil
}
