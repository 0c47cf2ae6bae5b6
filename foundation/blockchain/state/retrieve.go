package state

import (
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/mempool"
	"github.com/ardanlabs/utxochain/foundation/blockchain/peer"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/holiman/uint256"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveMinerKey returns the key paid by the blocks this node mines.
func (s *State) RetrieveMinerKey() signature.PublicKey {
	return s.minerKey
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrievePhase returns the phase of the ledger.
func (s *State) RetrievePhase() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.phase.Current()
}

// RetrieveHeight returns the number of blocks in the chain.
func (s *State) RetrieveHeight() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return uint64(len(s.blocks))
}

// RetrieveLatestBlock returns a copy the current latest block. The second
// return value is false when the chain is empty.
func (s *State) RetrieveLatestBlock() (database.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.blocks) == 0 {
		return database.Block{}, false
	}

	return s.blocks[len(s.blocks)-1], true
}

// RetrieveBlock returns the block at the specified height.
func (s *State) RetrieveBlock(height uint64) (database.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if height >= uint64(len(s.blocks)) {
		return database.Block{}, fmt.Errorf("block %d not found, height is %d", height, len(s.blocks))
	}

	return s.blocks[height], nil
}

// RetrieveBlocks returns the blocks in the inclusive range of heights. The
// range is trimmed to the blocks that exist.
func (s *State) RetrieveBlocks(from uint64, to uint64) []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := uint64(len(s.blocks))
	if count == 0 || from >= count || from > to {
		return nil
	}

	if to >= count {
		to = count - 1
	}

	blocks := make([]database.Block, to-from+1)
	copy(blocks, s.blocks[from:to+1])

	return blocks
}

// RetrieveTarget returns a copy of the current target.
func (s *State) RetrieveTarget() *uint256.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return new(uint256.Int).Set(s.target)
}

// RetrieveUTXOs returns a copy of the unspent outputs.
func (s *State) RetrieveUTXOs() database.UTXOSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.utxos.Copy()
}

// RetrieveUTXOsByOwner returns the unspent outputs owned by the key.
func (s *State) RetrieveUTXOsByOwner(owner signature.PublicKey) database.UTXOSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.utxos.ByOwner(owner)
}

// RetrieveMempool returns a copy of the mempool entries. The read lock keeps
// a block that is being applied from showing up half done.
func (s *State) RetrieveMempool() []mempool.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.mempool.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.knownPeers.Copy(s.host)
}

// RetrievePeerStatus returns the status this node reports to others.
func (s *State) RetrievePeerStatus() peer.PeerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return peer.PeerStatus{
		LatestBlockHash: s.latestHash(),
		Height:          uint64(len(s.blocks)),
		KnownPeers:      s.knownPeers.Copy(s.host),
	}
}
