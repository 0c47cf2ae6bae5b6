// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"sort"
	"sync"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
)

// Entry represents a transaction waiting in the mempool.
type Entry struct {
	ReceivedAt time.Time   `json:"received_at"`
	Fee        uint64      `json:"fee"`
	Tx         database.Tx `json:"tx"`
}

// Mempool represents a cache of transactions waiting to be mined, kept in
// ascending order of the fee they pay. Every UTXO an entry spends is marked
// pending in the UTXO set handed to the mempool, and an UTXO is reserved by
// at most one entry.
type Mempool struct {
	mu      sync.RWMutex
	entries []Entry
}

// New constructs a new, empty mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.entries)
}

// Copy returns a copy of the entries in ascending fee order.
func (mp *Mempool) Copy() []Entry {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	entries := make([]Entry, len(mp.entries))
	copy(entries, mp.entries)
	return entries
}

// Contains reports whether a transaction with the digest is in the pool.
func (mp *Mempool) Contains(txHash digest.Digest) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	for _, e := range mp.entries {
		if e.Tx.Hash() == txHash {
			return true
		}
	}
	return false
}

// Add validates the transaction against the utxos and stores it. A
// transaction spending an UTXO already reserved by another entry evicts that
// entry, the last one submitted wins. Nothing is changed when validation
// fails. The evicted transactions are returned.
func (mp *Mempool) Add(tx database.Tx, utxos database.UTXOSet, now time.Time) ([]database.Tx, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if len(tx.Inputs) == 0 {
		return nil, database.InvalidTransaction("transaction has no inputs")
	}

	txHash := tx.Hash()
	for _, e := range mp.entries {
		if e.Tx.Hash() == txHash {
			return nil, database.InvalidTransaction("transaction %s already in mempool", txHash)
		}
	}

	seen := make(map[digest.Digest]struct{}, len(tx.Inputs))
	conflicts := make(map[int]struct{})

	for _, in := range tx.Inputs {
		if _, exists := seen[in.PrevOutput]; exists {
			return nil, database.InvalidTransaction("input %s is spent twice", in.PrevOutput)
		}
		seen[in.PrevOutput] = struct{}{}

		utxo, exists := utxos[in.PrevOutput]
		if !exists {
			return nil, database.InvalidTransaction("input %s does not reference a known utxo", in.PrevOutput)
		}

		if utxo.Pending {
			if idx := mp.reservedBy(in.PrevOutput); idx >= 0 {
				conflicts[idx] = struct{}{}
			}
		}
	}

	inputs, err := utxos.InputValue(tx)
	if err != nil {
		return nil, err
	}

	outputs, err := tx.OutputValue()
	if err != nil {
		return nil, err
	}

	if outputs > inputs {
		return nil, database.InvalidTransaction("outputs %d exceed inputs %d", outputs, inputs)
	}

	// Validation is complete, the mempool and utxos can now change.

	var evicted []database.Tx
	if len(conflicts) > 0 {
		kept := make([]Entry, 0, len(mp.entries))
		for i, e := range mp.entries {
			if _, exists := conflicts[i]; !exists {
				kept = append(kept, e)
				continue
			}

			release(e.Tx, utxos)
			evicted = append(evicted, e.Tx)
		}
		mp.entries = kept
	}

	for _, in := range tx.Inputs {
		utxos.Mark(in.PrevOutput, true)
	}

	mp.entries = append(mp.entries, Entry{
		ReceivedAt: now,
		Fee:        inputs - outputs,
		Tx:         tx,
	})
	sort.Stable(byFee(mp.entries))

	return evicted, nil
}

// Cleanup removes the entries that have been waiting longer than the max
// age and releases the utxos they reserved. The removed transactions are
// returned.
func (mp *Mempool) Cleanup(utxos database.UTXOSet, now time.Time, maxAge time.Duration) []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var expired []database.Tx
	kept := mp.entries[:0]
	for _, e := range mp.entries {
		if now.Sub(e.ReceivedAt) > maxAge {
			release(e.Tx, utxos)
			expired = append(expired, e.Tx)
			continue
		}
		kept = append(kept, e)
	}
	mp.entries = kept

	return expired
}

// RemoveMined removes the transactions that were included in a mined block.
// The utxos they spent are gone from the chain so nothing is released.
func (mp *Mempool) RemoveMined(trans []database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mined := make(map[digest.Digest]struct{}, len(trans))
	for _, tx := range trans {
		mined[tx.Hash()] = struct{}{}
	}

	kept := mp.entries[:0]
	for _, e := range mp.entries {
		if _, exists := mined[e.Tx.Hash()]; !exists {
			kept = append(kept, e)
		}
	}

	removed := len(mp.entries) - len(kept)
	mp.entries = kept

	return removed
}

// Reserve marks the utxos spent by the entries as pending. It's used after
// the utxos are rebuilt from the chain. Entries spending an utxo that no
// longer exists can never be mined, so they're dropped and returned.
func (mp *Mempool) Reserve(utxos database.UTXOSet) []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var stale []database.Tx
	kept := mp.entries[:0]

next:
	for _, e := range mp.entries {
		for _, in := range e.Tx.Inputs {
			if _, exists := utxos[in.PrevOutput]; !exists {
				stale = append(stale, e.Tx)
				continue next
			}
		}

		for _, in := range e.Tx.Inputs {
			utxos.Mark(in.PrevOutput, true)
		}
		kept = append(kept, e)
	}
	mp.entries = kept

	return stale
}

// PickBest returns the transactions paying the highest fees, best first.
// Pass -1 for all the transactions.
func (mp *Mempool) PickBest(howMany int) []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if howMany < 0 || howMany > len(mp.entries) {
		howMany = len(mp.entries)
	}

	best := make([]database.Tx, 0, howMany)
	for i := len(mp.entries) - 1; i >= 0 && len(best) < howMany; i-- {
		best = append(best, mp.entries[i].Tx)
	}

	return best
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.entries = nil
}

// =============================================================================

// reservedBy returns the index of the entry spending the utxo, -1 if none.
func (mp *Mempool) reservedBy(key digest.Digest) int {
	for i, e := range mp.entries {
		for _, in := range e.Tx.Inputs {
			if in.PrevOutput == key {
				return i
			}
		}
	}
	return -1
}

// release clears the pending flag of every utxo spent by the transaction.
func release(tx database.Tx, utxos database.UTXOSet) {
	for _, in := range tx.Inputs {
		utxos.Mark(in.PrevOutput, false)
	}
}
