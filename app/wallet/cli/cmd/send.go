package cmd

import (
	"errors"
	"fmt"
	"log"
	"math/bits"
	"sort"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ardanlabs/utxochain/foundation/blockchain/wire"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

// ErrInsufficientFunds is returned when the spendable outputs can't cover
// the value and the fee.
var ErrInsufficientFunds = errors.New("insufficient funds")

var (
	to    string
	value uint64
	fee   uint64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Public key of the receiver.")
	sendCmd.Flags().Uint64VarP(&value, "value", "v", 0, "Value to send.")
	sendCmd.Flags().Uint64VarP(&fee, "fee", "f", 0, "Fee paid to the miner.")
	sendCmd.MarkFlagRequired("to")
}

func sendRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	receiver, err := signature.ToPublicKey(to)
	if err != nil {
		log.Fatal(err)
	}

	signer := signature.NewKeySigner(privateKey)

	ctx, cancel := requestContext()
	defer cancel()

	entries, err := fetchUTXOs(ctx, signer.PublicKey())
	if err != nil {
		log.Fatal(err)
	}

	tx, err := buildTx(signer, entries, receiver, value, fee)
	if err != nil {
		log.Fatal(err)
	}

	if err := wire.Notify(ctx, nodeHost, wire.SubmitTransaction{Tx: tx}); err != nil {
		log.Fatal(err)
	}

	fmt.Println("submitted:", tx.Hash())
}

// buildTx spends enough of the confirmed outputs to pay the value and the
// fee. The remainder is returned to the signer as a change output.
func buildTx(signer signature.KeySigner, entries []wire.UTXOEntry, receiver signature.PublicKey, value uint64, fee uint64) (database.Tx, error) {
	if value == 0 {
		return database.Tx{}, errors.New("value must be greater than zero")
	}

	need := value + fee
	if need < value {
		return database.Tx{}, errors.New("value plus fee overflows")
	}

	// Outputs reserved by a mempool transaction would be rejected as a
	// double spend.
	spendable := make([]database.TxOutput, 0, len(entries))
	for _, entry := range entries {
		if !entry.Pending {
			spendable = append(spendable, entry.Output)
		}
	}

	// Largest first keeps the number of inputs small.
	sort.SliceStable(spendable, func(i, j int) bool { return spendable[i].Value > spendable[j].Value })

	var inputs []database.TxInput
	var total uint64
	for _, out := range spendable {
		if total >= need {
			break
		}

		in, err := database.NewTxInput(out.Hash(), signer)
		if err != nil {
			return database.Tx{}, fmt.Errorf("signing input: %w", err)
		}

		sum, carry := bits.Add64(total, out.Value, 0)
		if carry != 0 {
			return database.Tx{}, errors.New("input value overflows")
		}

		inputs = append(inputs, in)
		total = sum
	}

	if total < need {
		return database.Tx{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, total, need)
	}

	outputs := []database.TxOutput{database.NewTxOutput(value, receiver)}
	if change := total - need; change > 0 {
		outputs = append(outputs, database.NewTxOutput(change, signer.PublicKey()))
	}

	return database.NewTx(inputs, outputs), nil
}
