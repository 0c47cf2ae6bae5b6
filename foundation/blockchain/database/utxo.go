package database

import (
	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
)

// UTXO represents an unspent output. Pending is mempool bookkeeping: it is
// true while a mempool transaction is provisionally spending the output.
type UTXO struct {
	Pending bool     `json:"pending" cbor:"1,keyasint"`
	Output  TxOutput `json:"output" cbor:"2,keyasint"`
}

// UTXOSet maps the key of an unspent output to the output. Outputs are keyed
// by their own digest so every output of a transaction stays spendable.
type UTXOSet map[digest.Digest]UTXO

// Apply removes the outputs spent by the transaction and adds the outputs it
// creates.
func (us UTXOSet) Apply(tx Tx) {
	for _, in := range tx.Inputs {
		delete(us, in.PrevOutput)
	}

	for _, out := range tx.Outputs {
		us[out.Hash()] = UTXO{Output: out}
	}
}

// Mark sets the pending flag for the specified key if it exists.
func (us UTXOSet) Mark(key digest.Digest, pending bool) {
	utxo, exists := us[key]
	if !exists {
		return
	}

	utxo.Pending = pending
	us[key] = utxo
}

// Copy returns a copy of the set.
func (us UTXOSet) Copy() UTXOSet {
	cpy := make(UTXOSet, len(us))
	for key, utxo := range us {
		cpy[key] = utxo
	}
	return cpy
}

// ByOwner returns the outputs owned by the specified public key.
func (us UTXOSet) ByOwner(owner signature.PublicKey) UTXOSet {
	owned := make(UTXOSet)
	for key, utxo := range us {
		if utxo.Output.Owner == owner {
			owned[key] = utxo
		}
	}
	return owned
}

// InputValue resolves every input of the transaction and returns the sum of
// the referenced output values.
func (us UTXOSet) InputValue(tx Tx) (uint64, error) {
	var total uint64
	for _, in := range tx.Inputs {
		utxo, exists := us[in.PrevOutput]
		if !exists {
			return 0, invalidTx("input %s does not reference a known utxo", in.PrevOutput)
		}

		var err error
		if total, err = addValue(total, utxo.Output.Value); err != nil {
			return 0, err
		}
	}

	return total, nil
}
