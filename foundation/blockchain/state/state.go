// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"errors"
	"sync"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/mempool"
	"github.com/ardanlabs/utxochain/foundation/blockchain/peer"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/holiman/uint256"
	"github.com/looplab/fsm"
)

// Phases of the ledger. A ledger without blocks only accepts a genesis
// block, after that every block must extend the chain.
const (
	PhaseEmpty  = "empty"
	PhaseActive = "active"
)

// Events moving the ledger between phases.
const (
	eventGenesis = "genesis"
	eventReset   = "reset"
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, peer updates, and transaction sharing.
type Worker interface {
	Shutdown()
	Sync()
	SignalStartMining()
	SignalCancelMining()
	SignalShareTx(tx database.Tx)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	MinerKey      signature.PublicKey
	Host          string
	Storage       database.Storage
	Genesis       genesis.Genesis
	Verifier      signature.Verifier
	KnownPeers    *peer.PeerSet
	StepsPerRound uint64
	EvHandler     EventHandler
}

// State manages the blockchain database. Every method changing the chain,
// the utxos, the mempool or the target holds the write lock for its whole
// duration so no caller can observe a partially applied change.
type State struct {
	minerKey      signature.PublicKey
	host          string
	stepsPerRound uint64
	evHandler     EventHandler

	mu           sync.RWMutex
	phase        *fsm.FSM
	blocks       []database.Block
	utxos        database.UTXOSet
	target       *uint256.Int
	lastRetarget uint64

	knownPeers *peer.PeerSet
	genesis    genesis.Genesis
	verifier   signature.Verifier
	mempool    *mempool.Mempool
	storage    database.Storage

	Worker Worker
}

// New constructs a new blockchain for data management. The blocks found in
// storage are replayed through the consensus rules.
func New(cfg Config) (*State, error) {
	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	verifier := cfg.Verifier
	if verifier == nil {
		verifier = signature.ECDSA{}
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	stepsPerRound := cfg.StepsPerRound
	if stepsPerRound == 0 {
		stepsPerRound = 10_000
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		minerKey:      cfg.MinerKey,
		host:          cfg.Host,
		stepsPerRound: stepsPerRound,
		evHandler:     ev,

		phase:  newPhase(),
		utxos:  make(database.UTXOSet),
		target: cfg.Genesis.MinTargetInt(),

		knownPeers: knownPeers,
		genesis:    cfg.Genesis,
		verifier:   verifier,
		mempool:    mempool.New(),
		storage:    cfg.Storage,

		// The Worker is replaced when worker.Run is called.
		Worker: nopWorker{},
	}

	// Replay the blocks in storage through the same rules used for new
	// blocks so a tampered store can't produce an invalid ledger.
	iter := cfg.Storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if err := state.addBlock(blockData.Block, false); err != nil {
			return nil, err
		}
	}

	ev("state: New: loaded blocks[%d]: target[%s]", len(state.blocks), state.target.Hex())

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Make sure the database file is properly closed.
	defer func() {
		s.storage.Close()
	}()

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()

	return nil
}

// Truncate resets the chain both in storage and in memory.
func (s *State) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Reset(); err != nil {
		return err
	}

	s.mempool.Truncate()
	s.blocks = nil
	s.utxos = make(database.UTXOSet)
	s.target = s.genesis.MinTargetInt()
	s.lastRetarget = 0

	if s.phase.Is(PhaseActive) {
		if err := s.phase.Event(context.Background(), eventReset); err != nil {
			return err
		}
	}

	updateMetrics(s)

	return nil
}

// =============================================================================

// newPhase constructs the machine tracking the phase of the ledger.
func newPhase() *fsm.FSM {
	return fsm.NewFSM(
		PhaseEmpty,
		fsm.Events{
			{Name: eventGenesis, Src: []string{PhaseEmpty}, Dst: PhaseActive},
			{Name: eventReset, Src: []string{PhaseActive}, Dst: PhaseEmpty},
		},
		fsm.Callbacks{},
	)
}

// nopWorker is used until a worker registers itself.
type nopWorker struct{}

func (nopWorker) Shutdown() {}
func (nopWorker) Sync() {}
func (nopWorker) SignalStartMining() {}
func (nopWorker) SignalCancelMining() {}
func (nopWorker) SignalShareTx(database.Tx) {}
