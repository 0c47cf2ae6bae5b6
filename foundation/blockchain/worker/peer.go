package worker

import (
	"context"

	"github.com/ardanlabs/utxochain/foundation/blockchain/peer"
)

// peerOperations handles finding new peers and missing blocks.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	for {
		select {
		case <-w.peerTicker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation updates the peer list and pulls the blocks the peers
// have that this node doesn't.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	ctx, cancel := context.WithTimeout(context.Background(), w.requestTimeout)
	w.state.NetDiscoverPeers(ctx)
	cancel()

	for _, pr := range w.state.RetrieveKnownPeers() {
		w.syncPeer(pr)
	}
}

// syncPeer asks the peer how far ahead it is and fetches the missing blocks.
func (w *Worker) syncPeer(pr peer.Peer) {
	ctx, cancel := context.WithTimeout(context.Background(), w.requestTimeout)
	defer cancel()

	delta, err := w.state.NetRequestPeerDifference(ctx, pr)
	if err != nil {
		w.evHandler("worker: syncPeer: difference: %s: ERROR: %s", pr, err)
		return
	}

	if delta <= 0 {
		return
	}

	w.evHandler("worker: syncPeer: %s: blocks behind[%d]", pr, delta)

	// Each block gets its own deadline so a long chain can be pulled.
	for i := int64(0); i < delta; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), w.requestTimeout)
		err := w.state.NetRequestPeerBlocks(ctx, pr, 1)
		cancel()

		if err != nil {
			w.evHandler("worker: syncPeer: fetch blocks: %s: ERROR: %s", pr, err)
			return
		}
	}
}
