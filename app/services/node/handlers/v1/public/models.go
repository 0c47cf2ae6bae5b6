package public

import (
	"fmt"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ardanlabs/utxochain/foundation/validate"
	"github.com/google/uuid"
)

type status struct {
	Phase       string `json:"phase"`
	Height      uint64 `json:"height"`
	LatestBlock string `json:"latest_block"`
	Target      string `json:"target"`
	Mempool     int    `json:"mempool"`
	KnownPeers  int    `json:"known_peers"`
}

type utxo struct {
	Key       digest.Digest `json:"key"`
	Value     uint64        `json:"value"`
	UniqueID  uuid.UUID     `json:"unique_id"`
	Owner     string        `json:"owner"`
	OwnerName string        `json:"owner_name"`
	Pending   bool          `json:"pending"`
}

type balance struct {
	Owner     string `json:"owner"`
	OwnerName string `json:"owner_name"`
	Confirmed uint64 `json:"confirmed"`
	Pending   uint64 `json:"pending"`
	UTXOs     []utxo `json:"utxos"`
}

type output struct {
	Value     uint64    `json:"value"`
	UniqueID  uuid.UUID `json:"unique_id"`
	Owner     string    `json:"owner"`
	OwnerName string    `json:"owner_name"`
}

type tx struct {
	Hash    digest.Digest   `json:"hash"`
	Inputs  []digest.Digest `json:"inputs"`
	Outputs []output        `json:"outputs"`
	Fee     uint64          `json:"fee,omitempty"`
	Since   *time.Time      `json:"received_at,omitempty"`
}

type block struct {
	Height        uint64        `json:"height"`
	Hash          digest.Digest `json:"hash"`
	PrevBlockHash digest.Digest `json:"prev_block_hash"`
	MerkleRoot    digest.Digest `json:"merkle_root"`
	Target        string        `json:"target"`
	TimeStamp     uint64        `json:"timestamp"`
	Nonce         uint64        `json:"nonce"`
	Trans         []tx          `json:"trans"`
}

// =============================================================================

type newInput struct {
	PrevOutput string `json:"prev_output" validate:"required,hexadecimal"`
	Signature  string `json:"signature" validate:"required,hexadecimal"`
}

type newOutput struct {
	Value    uint64 `json:"value" validate:"gt=0"`
	UniqueID string `json:"unique_id" validate:"required,uuid"`
	Owner    string `json:"owner" validate:"required,hexadecimal"`
}

type newTx struct {
	Inputs  []newInput  `json:"inputs" validate:"required,min=1,dive"`
	Outputs []newOutput `json:"outputs" validate:"required,min=1,dive"`
}

// Validate checks the data in the model is considered clean.
func (ntx newTx) Validate() error {
	return validate.Check(ntx)
}

// toTx converts the payload into a ledger transaction.
func (ntx newTx) toTx() (database.Tx, error) {
	inputs := make([]database.TxInput, len(ntx.Inputs))
	for i, in := range ntx.Inputs {
		prev, err := digest.FromHex(in.PrevOutput)
		if err != nil {
			return database.Tx{}, fmt.Errorf("input %d: %w", i, err)
		}

		var sig signature.Signature
		if err := sig.UnmarshalText([]byte(in.Signature)); err != nil {
			return database.Tx{}, fmt.Errorf("input %d: %w", i, err)
		}

		inputs[i] = database.TxInput{PrevOutput: prev, Signature: sig}
	}

	outputs := make([]database.TxOutput, len(ntx.Outputs))
	for i, out := range ntx.Outputs {
		id, err := uuid.Parse(out.UniqueID)
		if err != nil {
			return database.Tx{}, fmt.Errorf("output %d: %w", i, err)
		}

		owner, err := signature.ToPublicKey(out.Owner)
		if err != nil {
			return database.Tx{}, fmt.Errorf("output %d: %w", i, err)
		}

		outputs[i] = database.TxOutput{Value: out.Value, UniqueID: id, Owner: owner}
	}

	return database.NewTx(inputs, outputs), nil
}
