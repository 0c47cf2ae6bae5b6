package commands

import (
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
)

// Transactions prints the transactions of every block. When an owner is
// specified as the third argument only transactions paying that owner are
// printed.
func Transactions(args []string, st *state.State) error {
	var owner signature.PublicKey
	filter := len(args) == 3
	if filter {
		var err error
		if owner, err = signature.ToPublicKey(args[2]); err != nil {
			return err
		}
	}

	height := st.RetrieveHeight()
	if height == 0 {
		fmt.Println("Chain is empty")
		return nil
	}

	for i, block := range st.RetrieveBlocks(0, height-1) {
		for _, tx := range block.Trans {
			if filter && !paysOwner(tx.Outputs, owner) {
				continue
			}

			fmt.Printf("Height: %d  Tx: %s  Inputs: %d\n", i, tx.Hash(), len(tx.Inputs))
			for _, out := range tx.Outputs {
				fmt.Printf("    Owner: %s  Value: %d\n", out.Owner, out.Value)
			}
		}
	}

	return nil
}

func paysOwner(outputs []database.TxOutput, owner signature.PublicKey) bool {
	for _, out := range outputs {
		if out.Owner == owner {
			return true
		}
	}
	return false
}
