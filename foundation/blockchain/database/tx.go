package database

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// TxOutput represents spendable value created by a transaction.
type TxOutput struct {
	Value    uint64              `json:"value" cbor:"1,keyasint"`     // Amount in the smallest unit.
	UniqueID uuid.UUID           `json:"unique_id" cbor:"2,keyasint"` // Keeps outputs with the same value and owner distinct.
	Owner    signature.PublicKey `json:"owner" cbor:"3,keyasint"`     // Key that must sign to spend this output.
}

// NewTxOutput constructs an output with a fresh unique id.
func NewTxOutput(value uint64, owner signature.PublicKey) TxOutput {
	return TxOutput{
		Value:    value,
		UniqueID: uuid.New(),
		Owner:    owner,
	}
}

// Hash returns the unique digest for the output.
func (out TxOutput) Hash() digest.Digest {
	return digest.Hash(out)
}

// =============================================================================

// TxInput references a previously created output and carries the signature
// authorizing the spend.
type TxInput struct {
	PrevOutput digest.Digest       `json:"prev_output" cbor:"1,keyasint"` // Key of the UTXO being spent.
	Signature  signature.Signature `json:"signature" cbor:"2,keyasint"`   // Signature over PrevOutput by the output owner.
}

// NewTxInput signs the referenced UTXO key with the signer to construct an
// input spending it.
func NewTxInput(prevOutput digest.Digest, signer signature.Signer) (TxInput, error) {
	sig, err := signer.Sign(prevOutput)
	if err != nil {
		return TxInput{}, err
	}

	return TxInput{PrevOutput: prevOutput, Signature: sig}, nil
}

// =============================================================================

// Tx represents a request to spend a set of outputs into a new set of outputs.
// A Tx is never modified after construction, a new value is built instead.
type Tx struct {
	Inputs  []TxInput  `json:"inputs" cbor:"1,keyasint"`
	Outputs []TxOutput `json:"outputs" cbor:"2,keyasint"`
}

// NewTx constructs a transaction from copies of the inputs and outputs.
func NewTx(inputs []TxInput, outputs []TxOutput) Tx {
	tx := Tx{
		Inputs:  make([]TxInput, len(inputs)),
		Outputs: make([]TxOutput, len(outputs)),
	}
	copy(tx.Inputs, inputs)
	copy(tx.Outputs, outputs)

	return tx
}

// NewCoinbaseTx constructs the reward transaction that pays the miner.
func NewCoinbaseTx(value uint64, miner signature.PublicKey) Tx {
	return NewTx(nil, []TxOutput{NewTxOutput(value, miner)})
}

// Hash implements the merkle Hashable interface for providing the digest
// that identifies the transaction.
func (tx Tx) Hash() digest.Digest {
	return digest.Hash(tx)
}

// Equals implements the merkle Hashable interface for providing an equality
// check between two transactions.
func (tx Tx) Equals(otherTx Tx) bool {
	return tx.Hash() == otherTx.Hash()
}

// IsCoinbase reports whether the transaction has the shape of a coinbase.
func (tx Tx) IsCoinbase() bool {
	return len(tx.Inputs) == 0
}

// OutputValue returns the sum of all output values.
func (tx Tx) OutputValue() (uint64, error) {
	var total uint64
	for _, out := range tx.Outputs {
		var err error
		if total, err = addValue(total, out.Value); err != nil {
			return 0, err
		}
	}

	return total, nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:in[%d]:out[%d]", tx.Hash(), len(tx.Inputs), len(tx.Outputs))
}

// Save writes the transaction to the writer as a CBOR blob.
func (tx Tx) Save(w io.Writer) error {
	return cbor.NewEncoder(w).Encode(tx)
}

// LoadTx reads a transaction written by Save.
func LoadTx(r io.Reader) (Tx, error) {
	var tx Tx
	if err := cbor.NewDecoder(r).Decode(&tx); err != nil {
		return Tx{}, fmt.Errorf("decoding transaction: %w", err)
	}

	return tx, nil
}

// =============================================================================

// addValue adds two amounts, reporting an invalid transaction on overflow.
func addValue(a uint64, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, invalidTx("value overflow adding %d and %d", a, b)
	}

	return sum, nil
}
