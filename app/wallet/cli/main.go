// This program provides a thin wallet for generating keys, checking a
// balance and sending value over the wire protocol.
package main

import "github.com/ardanlabs/utxochain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
