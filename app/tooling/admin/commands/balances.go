// Package commands contains the admin commands.
package commands

import (
	"fmt"
	"sort"

	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
)

// Balances prints the unspent value held by every owner, or by the owner
// specified as the third argument.
func Balances(args []string, st *state.State) error {
	utxos := st.RetrieveUTXOs()

	if len(args) == 3 {
		owner, err := signature.ToPublicKey(args[2])
		if err != nil {
			return err
		}
		utxos = utxos.ByOwner(owner)
	}

	bals := make(map[signature.PublicKey]uint64)
	for _, utxo := range utxos {
		bals[utxo.Output.Owner] += utxo.Output.Value
	}

	owners := make([]signature.PublicKey, 0, len(bals))
	for owner := range bals {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i].String() < owners[j].String() })

	fmt.Printf("LastestBlockHash: %s\n\n", st.RetrievePeerStatus().LatestBlockHash)

	for _, owner := range owners {
		fmt.Printf("Owner: %s  Balance: %d\n", owner, bals[owner])
	}

	return nil
}
