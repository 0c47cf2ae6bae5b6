package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ardanlabs/utxochain/foundation/blockchain/wire"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	owner := signature.PublicKeyFromECDSA(privateKey.PublicKey)
	fmt.Println("For Owner:", owner)

	ctx, cancel := requestContext()
	defer cancel()

	entries, err := fetchUTXOs(ctx, owner)
	if err != nil {
		log.Fatal(err)
	}

	var confirmed, pending uint64
	for _, entry := range entries {
		if entry.Pending {
			pending += entry.Output.Value
			continue
		}
		confirmed += entry.Output.Value
	}

	fmt.Println("Spendable:", confirmed)
	fmt.Println("Pending:  ", pending)
}

// fetchUTXOs asks the node for the unspent outputs owned by the key.
func fetchUTXOs(ctx context.Context, owner signature.PublicKey) ([]wire.UTXOEntry, error) {
	reply, err := wire.Request(ctx, nodeHost, wire.FetchUTXOs{Owner: owner})
	if err != nil {
		return nil, err
	}

	utxos, ok := reply.(wire.UTXOs)
	if !ok {
		return nil, fmt.Errorf("unexpected reply %s", reply.Kind())
	}

	return utxos.UTXOs, nil
}
