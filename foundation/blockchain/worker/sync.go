package worker

// Sync updates the peer list and pulls the blocks this node is missing.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	w.runPeersOperation()
}
