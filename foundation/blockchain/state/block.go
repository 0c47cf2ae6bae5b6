package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/bits"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are not enough transactions.
var ErrNoTransactions = errors.New("no transactions in mempool")

// =============================================================================

// AddBlock validates the block against the consensus rules and, when it
// passes, makes it the new tip of the chain. A rejected block changes nothing.
func (s *State) AddBlock(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addBlock(block, true)
}

// MineNewBlock attempts to create a new block with a proper hash that can become
// the next block in the chain.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Are there enough transactions in the pool. The first block of the
	// chain only pays the reward so it doesn't need any.
	if s.mempool.Count() == 0 && s.RetrieveHeight() > 0 {
		return database.Block{}, ErrNoTransactions
	}

	template, err := s.BlockTemplate(s.minerKey)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	// Attempt to solve the POW puzzle. This can be cancelled.
	block, err := database.POW(ctx, template, s.stepsPerRound, s.evHandler)
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: validate and update database")

	if err := s.AddBlock(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.Header.PrevBlockHash, block.Hash(), len(block.Trans))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash())

	if err := s.AddBlock(block); err != nil {
		return err
	}

	// If a mining operation is running it's working on a block that can
	// no longer extend the chain.
	s.Worker.SignalCancelMining()

	// There may still be transactions waiting to be mined.
	s.Worker.SignalStartMining()

	return nil
}

// RebuildUTXOs recomputes the unspent outputs by replaying every block from
// the start of the chain.
func (s *State) RebuildUTXOs() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rebuildUTXOs()
}

// TryAdjustTarget retargets the difficulty when the chain length is a
// multiple of the difficulty update interval. The target changes at most
// once per chain length. It reports whether a retarget happened.
func (s *State) TryAdjustTarget() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tryAdjustTarget()
}

// =============================================================================

// addBlock runs the block through the rules for the current phase and
// applies it. The caller must hold the write lock.
func (s *State) addBlock(block database.Block, persist bool) error {
	var err error
	switch s.phase.Current() {
	case PhaseEmpty:
		err = s.acceptGenesis(block)
	default:
		err = s.acceptNext(block)
	}

	if err != nil {
		blocksRejected.Inc()
		s.evHandler("state: addBlock: REJECTED: blk[%s]: %s", block.Hash(), err)
		return err
	}

	return s.applyBlock(block, persist)
}

// acceptGenesis validates the first block of the chain. Only the link to
// the zero digest is required.
func (s *State) acceptGenesis(block database.Block) error {
	s.evHandler("state: acceptGenesis: validate: blk[%s]: check: prev block hash is zero", block.Hash())

	if !block.Header.PrevBlockHash.IsZero() {
		return database.InvalidBlock("genesis block must link to the zero hash, got %s", block.Header.PrevBlockHash)
	}

	return nil
}

// acceptNext validates a block extending a chain that has a genesis block.
func (s *State) acceptNext(block database.Block) error {
	height := uint64(len(s.blocks))
	latest := s.blocks[height-1]

	s.evHandler("state: acceptNext: validate: blk[%d]: check: parent hash does match parent block", height)

	if block.Header.PrevBlockHash != latest.Hash() {
		return database.InvalidBlock("parent block hash doesn't match our known parent, got %s, exp %s", block.Header.PrevBlockHash, latest.Hash())
	}

	s.evHandler("state: acceptNext: validate: blk[%d]: check: block target is not easier than the chain target", height)

	if block.Header.Target.Int().Gt(s.target) {
		return database.InvalidBlock("block target %s is easier than chain target %s", block.Header.Target, s.target.Hex())
	}

	s.evHandler("state: acceptNext: validate: blk[%d]: check: block hash has been solved and merkle root does match transactions", height)

	if err := block.ValidateSelf(); err != nil {
		return err
	}

	s.evHandler("state: acceptNext: validate: blk[%d]: check: block's timestamp is not before parent block's timestamp", height)

	if block.Header.TimeStamp < latest.Header.TimeStamp {
		return database.InvalidBlock("block timestamp is before parent block, parent %d, block %d", latest.Header.TimeStamp, block.Header.TimeStamp)
	}

	s.evHandler("state: acceptNext: validate: blk[%d]: check: transactions", height)

	return block.VerifyTransactions(s.genesis, height, s.utxos, s.verifier)
}

// applyBlock appends a validated block and updates everything derived from
// the chain. The write to storage happens first so a failure leaves the
// ledger untouched.
func (s *State) applyBlock(block database.Block, persist bool) error {
	height := uint64(len(s.blocks))

	if persist {
		s.evHandler("state: applyBlock: write to storage: blk[%d]", height)

		if err := s.storage.Write(database.NewBlockData(height, block)); err != nil {
			return fmt.Errorf("writing block %d: %w", height, err)
		}
	}

	s.blocks = append(s.blocks, block)

	if height == 0 {
		if err := s.phase.Event(context.Background(), eventGenesis); err != nil {
			return err
		}
	}

	removed := s.mempool.RemoveMined(block.Trans)
	s.evHandler("state: applyBlock: removed mined transactions from mempool[%d]", removed)

	s.rebuildUTXOs()

	if s.tryAdjustTarget() {
		s.evHandler("state: applyBlock: retarget: height[%d]: target[%s]", len(s.blocks), s.target.Hex())
	}

	blocksAccepted.Inc()
	updateMetrics(s)

	// Send an event about this new block.
	s.blockEvent(height, block)

	return nil
}

// rebuildUTXOs replays the chain into a fresh utxo set and reserves the
// utxos still spent by mempool transactions. The caller must hold the
// write lock.
func (s *State) rebuildUTXOs() {
	utxos := make(database.UTXOSet)
	for _, block := range s.blocks {
		for _, tx := range block.Trans {
			utxos.Apply(tx)
		}
	}

	for _, tx := range s.mempool.Reserve(utxos) {
		s.evHandler("state: rebuildUTXOs: dropped stale mempool tx[%s]", tx)
	}

	s.utxos = utxos
}

// tryAdjustTarget performs the retarget. The caller must hold the write lock.
func (s *State) tryAdjustTarget() bool {
	count := uint64(len(s.blocks))
	interval := s.genesis.DifficultyUpdateInterval

	if count == 0 || count%interval != 0 || count == s.lastRetarget {
		return false
	}

	first := s.blocks[count-interval].Header.TimeStamp
	last := s.blocks[count-1].Header.TimeStamp

	var elapsed uint64
	if last > first {
		elapsed = last - first
	}

	hi, ideal := bits.Mul64(s.genesis.IdealBlockTime, interval)
	if hi != 0 {
		ideal = ^uint64(0)
	}

	s.target = database.NextTarget(s.target, elapsed, ideal, s.genesis.MinTargetInt())
	s.lastRetarget = count

	return true
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(height uint64, block database.Block) {
	blockHeaderJSON, err := json.Marshal(block.Header)
	if err != nil {
		blockHeaderJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	blockTransJSON, err := json.Marshal(block.Trans)
	if err != nil {
		blockTransJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"height":%d,"hash":%q,"header":%s,"trans":%s}`, height, block.Hash(), string(blockHeaderJSON), string(blockTransJSON))
}

// latestHash returns the hash a new block must link to. The caller must hold
// a lock.
func (s *State) latestHash() digest.Digest {
	if len(s.blocks) == 0 {
		return digest.Zero
	}
	return s.blocks[len(s.blocks)-1].Hash()
}
