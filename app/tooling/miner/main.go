// This program mines blocks, either a block saved to a file or templates
// fetched from a node.
package main

import "github.com/ardanlabs/utxochain/app/tooling/miner/cmd"

func main() {
	cmd.Execute()
}
