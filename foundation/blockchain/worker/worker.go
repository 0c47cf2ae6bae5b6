// Package worker implements mining, peer updates, mempool cleanup and
// transaction sharing for the blockchain.
package worker

import (
	"sync"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/jellydator/ttlcache/v3"
)

// Default intervals used when the config leaves them empty.
const (
	defaultPeerUpdateInterval = time.Minute
	defaultCleanupInterval    = 30 * time.Second
	defaultRequestTimeout     = 10 * time.Second
)

// Config represents the settings of the background workflows.
type Config struct {
	Mining             bool
	PeerUpdateInterval time.Duration
	CleanupInterval    time.Duration
	RequestTimeout     time.Duration
	EvHandler          state.EventHandler
}

// =============================================================================

// Worker manages the POW workflows for the blockchain.
type Worker struct {
	state          *state.State
	mining         bool
	requestTimeout time.Duration
	wg             sync.WaitGroup
	peerTicker     *time.Ticker
	cleanupTicker  *time.Ticker
	shut           chan struct{}
	startMining    chan bool
	cancelMining   chan bool
	txSharing      chan database.Tx
	shared         *ttlcache.Cache[digest.Digest, struct{}]
	evHandler      state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, cfg Config) *Worker {
	if cfg.PeerUpdateInterval <= 0 {
		cfg.PeerUpdateInterval = defaultPeerUpdateInterval
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaultCleanupInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.EvHandler == nil {
		cfg.EvHandler = func(v string, args ...any) {}
	}

	// Transactions are only shared once while they could still be in a
	// peer's mempool.
	shared := ttlcache.New[digest.Digest, struct{}](
		ttlcache.WithTTL[digest.Digest, struct{}](st.RetrieveGenesis().MaxMempoolAge()),
		ttlcache.WithDisableTouchOnHit[digest.Digest, struct{}](),
	)

	w := Worker{
		state:          st,
		mining:         cfg.Mining,
		requestTimeout: cfg.RequestTimeout,
		peerTicker:     time.NewTicker(cfg.PeerUpdateInterval),
		cleanupTicker:  time.NewTicker(cfg.CleanupInterval),
		shut:           make(chan struct{}),
		startMining:    make(chan bool, 1),
		cancelMining:   make(chan bool, 1),
		txSharing:      make(chan database.Tx, maxTxShareRequests),
		shared:         shared,
		evHandler:      cfg.EvHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Update this node before starting any support G's.
	w.Sync()

	// Load the set of operations we need to run.
	operations := []func(){
		w.peerOperations,
		w.miningOperations,
		w.cleanupOperations,
		w.shareTxOperations,
		w.shared.Start,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	// Mine the genesis block or anything left in the mempool.
	w.SignalStartMining()

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop tickers")
	w.peerTicker.Stop()
	w.cleanupTicker.Stop()

	w.evHandler("worker: shutdown: signal cancel mining")
	w.SignalCancelMining()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.shared.Stop()
	w.wg.Wait()
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since a mining operation will start.
func (w *Worker) SignalStartMining() {
	if !w.mining {
		return
	}

	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately.
func (w *Worker) SignalCancelMining() {
	select {
	case w.cancelMining <- true:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
}

// SignalShareTx signals a share transaction operation. If
// maxTxShareRequests signals exist in the channel, we won't send these.
func (w *Worker) SignalShareTx(tx database.Tx) {
	select {
	case w.txSharing <- tx:
		w.evHandler("worker: SignalShareTx: share Tx signaled")
	default:
		w.evHandler("worker: SignalShareTx: queue full, transactions won't be shared.")
	}
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
