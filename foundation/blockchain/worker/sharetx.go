package worker

import (
	"context"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/jellydator/ttlcache/v3"
)

// maxTxShareRequests represents the max number of pending tx network share
// requests that can be outstanding before share requests are dropped. To keep
// this simple, a buffered channel of this arbitrary number is being used. If
// the channel does become full, requests for new transactions to be shared
// will not be accepted.
const maxTxShareRequests = 100

// =============================================================================

// shareTxOperations handles sharing new transactions.
func (w *Worker) shareTxOperations() {
	w.evHandler("worker: shareTxOperations: G started")
	defer w.evHandler("worker: shareTxOperations: G completed")

	for {
		select {
		case tx := <-w.txSharing:
			if !w.isShutdown() {
				w.runShareTxOperation(tx)
			}
		case <-w.shut:
			w.evHandler("worker: shareTxOperations: received shut signal")
			return
		}
	}
}

// runShareTxOperation shares a new transaction with the known peers. A
// transaction already shared recently is skipped.
func (w *Worker) runShareTxOperation(tx database.Tx) {
	w.evHandler("worker: runShareTxOperation: started")
	defer w.evHandler("worker: runShareTxOperation: completed")

	txHash := tx.Hash()
	if w.shared.Has(txHash) {
		w.evHandler("worker: runShareTxOperation: already shared tx[%s]", txHash)
		return
	}
	w.shared.Set(txHash, struct{}{}, ttlcache.DefaultTTL)

	ctx, cancel := context.WithTimeout(context.Background(), w.requestTimeout)
	defer cancel()

	w.state.NetSendTxToPeers(ctx, tx)
}
