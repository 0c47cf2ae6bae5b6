package database

import (
	"math/bits"

	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
)

// UnitsPerCoin is the number of smallest units in one whole coin.
const UnitsPerCoin = 100_000_000

// BlockReward returns the amount the coinbase of the block at the specified
// height is allowed to mint. The reward halves every halving interval.
func BlockReward(gen genesis.Genesis, height uint64) uint64 {
	hi, reward := bits.Mul64(gen.InitialReward, UnitsPerCoin)
	if hi != 0 {
		return 0
	}

	halvings := height / gen.HalvingInterval
	if halvings >= 64 {
		return 0
	}

	return reward >> halvings
}

// MinerFees returns the sum of the fees paid by the non-coinbase transactions
// in the block. Every input must resolve against the utxos and no utxo can be
// referenced twice in the block.
func (b Block) MinerFees(utxos UTXOSet) (uint64, error) {
	spent := make(map[digest.Digest]struct{})
	created := make(map[digest.Digest]struct{})

	var fees uint64
	for i, tx := range b.Trans {
		for _, out := range tx.Outputs {
			key := out.Hash()
			if _, exists := created[key]; exists {
				return 0, invalidTx("tx[%d]: output %s is duplicated in the block", i, key)
			}
			created[key] = struct{}{}
		}

		if i == 0 {
			continue
		}

		var inputs uint64
		for _, in := range tx.Inputs {
			if _, exists := spent[in.PrevOutput]; exists {
				return 0, invalidTx("tx[%d]: input %s is spent twice in the block", i, in.PrevOutput)
			}
			spent[in.PrevOutput] = struct{}{}

			utxo, exists := utxos[in.PrevOutput]
			if !exists {
				return 0, invalidTx("tx[%d]: input %s does not reference a known utxo", i, in.PrevOutput)
			}

			var err error
			if inputs, err = addValue(inputs, utxo.Output.Value); err != nil {
				return 0, err
			}
		}

		outputs, err := tx.OutputValue()
		if err != nil {
			return 0, err
		}

		if outputs > inputs {
			return 0, invalidTx("tx[%d]: outputs %d exceed inputs %d", i, outputs, inputs)
		}

		if fees, err = addValue(fees, inputs-outputs); err != nil {
			return 0, err
		}
	}

	return fees, nil
}

// VerifyCoinbase checks the first transaction of the block pays exactly the
// block reward plus the fees of the other transactions.
func (b Block) VerifyCoinbase(gen genesis.Genesis, height uint64, utxos UTXOSet) error {
	if len(b.Trans) == 0 {
		return invalidTx("block has no coinbase transaction")
	}

	coinbase := b.Trans[0]

	if len(coinbase.Inputs) != 0 {
		return invalidTx("coinbase has %d inputs, exp 0", len(coinbase.Inputs))
	}

	if len(coinbase.Outputs) == 0 {
		return invalidTx("coinbase has no outputs")
	}

	fees, err := b.MinerFees(utxos)
	if err != nil {
		return err
	}

	paid, err := coinbase.OutputValue()
	if err != nil {
		return err
	}

	exp, err := addValue(BlockReward(gen, height), fees)
	if err != nil {
		return err
	}

	if paid != exp {
		return invalidTx("coinbase pays %d, exp %d", paid, exp)
	}

	return nil
}

// VerifyTransactions checks every transaction in the block against the utxos
// in the order a node must apply them. The coinbase is checked first. Any
// failure invalidates the whole block.
func (b Block) VerifyTransactions(gen genesis.Genesis, height uint64, utxos UTXOSet, verifier signature.Verifier) error {
	if err := b.VerifyCoinbase(gen, height, utxos); err != nil {
		return err
	}

	spent := make(map[digest.Digest]struct{})

	for i, tx := range b.Trans[1:] {
		i++

		if len(tx.Inputs) == 0 {
			return invalidTx("tx[%d]: only the first transaction can be a coinbase", i)
		}

		var inputs uint64
		for _, in := range tx.Inputs {
			if _, exists := spent[in.PrevOutput]; exists {
				return invalidTx("tx[%d]: input %s is spent twice", i, in.PrevOutput)
			}
			spent[in.PrevOutput] = struct{}{}

			utxo, exists := utxos[in.PrevOutput]
			if !exists {
				return invalidTx("tx[%d]: input %s does not reference a known utxo", i, in.PrevOutput)
			}

			if !verifier.Verify(in.PrevOutput, in.Signature, utxo.Output.Owner) {
				return invalidTx("tx[%d]: signature for input %s is not from the owner", i, in.PrevOutput)
			}

			var err error
			if inputs, err = addValue(inputs, utxo.Output.Value); err != nil {
				return err
			}
		}

		outputs, err := tx.OutputValue()
		if err != nil {
			return err
		}

		if outputs > inputs {
			return invalidTx("tx[%d]: outputs %d exceed inputs %d", i, outputs, inputs)
		}
	}

	return nil
}
