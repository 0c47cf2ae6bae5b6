package worker

import "time"

// cleanupOperations handles expiring old mempool transactions.
func (w *Worker) cleanupOperations() {
	w.evHandler("worker: cleanupOperations: G started")
	defer w.evHandler("worker: cleanupOperations: G completed")

	for {
		select {
		case <-w.cleanupTicker.C:
			if !w.isShutdown() {
				w.runCleanupOperation()
			}
		case <-w.shut:
			w.evHandler("worker: cleanupOperations: received shut signal")
			return
		}
	}
}

// runCleanupOperation drops the mempool transactions that waited too long.
func (w *Worker) runCleanupOperation() {
	if n := w.state.CleanupMempool(time.Now()); n > 0 {
		w.evHandler("worker: runCleanupOperation: expired transactions[%d]", n)
	}
}
