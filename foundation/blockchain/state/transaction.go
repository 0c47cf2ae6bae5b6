package state

import (
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// SubmitWalletTx accepts a transaction from a wallet for inclusion. The
// transaction is shared with the known peers once accepted.
func (s *State) SubmitWalletTx(tx database.Tx) error {
	if err := s.addTx(tx); err != nil {
		return err
	}

	s.Worker.SignalShareTx(tx)
	s.Worker.SignalStartMining()

	return nil
}

// ProcessPeerTx accepts a transaction shared by another node.
func (s *State) ProcessPeerTx(tx database.Tx) error {
	if err := s.addTx(tx); err != nil {
		return err
	}

	s.Worker.SignalStartMining()

	return nil
}

// CleanupMempool drops the transactions that waited longer than the max
// mempool age and releases the utxos they reserved.
func (s *State) CleanupMempool(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := s.mempool.Cleanup(s.utxos, now, s.genesis.MaxMempoolAge())
	for _, tx := range expired {
		s.evHandler("state: CleanupMempool: expired tx[%s]", tx)
	}

	updateMetrics(s)

	return len(expired)
}

// =============================================================================

// addTx validates the signatures of the transaction and adds it to the
// mempool. A transaction already known to the mempool is ignored.
func (s *State) addTx(tx database.Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txHash := tx.Hash()

	if err := s.verifySignatures(tx); err != nil {
		txRejected.Inc()
		return err
	}

	evicted, err := s.mempool.Add(tx, s.utxos, time.Now())
	if err != nil {
		txRejected.Inc()
		return err
	}

	for _, old := range evicted {
		s.evHandler("state: addTx: evicted tx[%s]: replaced by tx[%s]", old, txHash)
	}

	s.evHandler("state: addTx: accepted tx[%s]: mempool[%d]", txHash, s.mempool.Count())
	updateMetrics(s)

	return nil
}

// verifySignatures checks every input is signed by the owner of the utxo it
// spends. The utxo lookups are left to the mempool.
func (s *State) verifySignatures(tx database.Tx) error {
	for i, in := range tx.Inputs {
		utxo, exists := s.utxos[in.PrevOutput]
		if !exists {
			return database.InvalidTransaction("input %d: unknown utxo %s", i, in.PrevOutput)
		}

		if !s.verifier.Verify(in.PrevOutput, in.Signature, utxo.Output.Owner) {
			return database.InvalidTransaction("input %d: invalid signature", i)
		}
	}

	return nil
}
