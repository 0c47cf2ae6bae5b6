package state

import (
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
)

// BlockTemplate builds an unsolved block extending the current tip. It holds
// the best paying mempool transactions and a coinbase paying the reward and
// the fees to the specified miner.
func (s *State) BlockTemplate(miner signature.PublicKey) (database.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	height := uint64(len(s.blocks))

	// The first block of the chain carries the coinbase only.
	var picked []database.Tx
	if height > 0 {
		picked = s.mempool.PickBest(int(s.genesis.TransPerBlock))
	}

	trans := make([]database.Tx, 0, len(picked)+1)
	trans = append(trans, database.Tx{})
	trans = append(trans, picked...)

	fees, err := database.Block{Trans: trans}.MinerFees(s.utxos)
	if err != nil {
		return database.Block{}, err
	}

	reward := database.BlockReward(s.genesis, height)
	if reward+fees < reward {
		return database.Block{}, database.InvalidBlock("coinbase value overflows: reward %d, fees %d", reward, fees)
	}
	trans[0] = database.NewCoinbaseTx(reward+fees, miner)

	s.evHandler("state: BlockTemplate: height[%d]: trans[%d]: reward[%d]: fees[%d]", height, len(trans), reward, fees)

	return database.NewBlock(s.latestHash(), database.TargetFromInt(s.target), trans)
}

// ValidateTemplate reports whether a template can still become the next
// block once solved. A template is stale when the tip moved or one of its
// transactions no longer verifies.
func (s *State) ValidateTemplate(block database.Block) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if block.Header.PrevBlockHash != s.latestHash() {
		return false
	}

	if block.Header.Target.Int().Gt(s.target) {
		return false
	}

	height := uint64(len(s.blocks))
	if err := block.VerifyTransactions(s.genesis, height, s.utxos, s.verifier); err != nil {
		s.evHandler("state: ValidateTemplate: stale: %s", err)
		return false
	}

	return true
}

// SubmitTemplate accepts a template solved by a miner as the next block.
func (s *State) SubmitTemplate(block database.Block) error {
	s.evHandler("state: SubmitTemplate: blk[%s]", block.Hash())

	return s.ProcessProposedBlock(block)
}
