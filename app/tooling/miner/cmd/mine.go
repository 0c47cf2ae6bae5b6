package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine <block_file> <steps>",
	Short: "Mine the block saved in the file and write it back",
	Args:  cobra.ExactArgs(2),
	RunE:  mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
}

func mineRun(cmd *cobra.Command, args []string) error {
	steps, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil || steps == 0 {
		return fmt.Errorf("invalid <steps> value %q", args[1])
	}

	block, err := loadBlock(args[0])
	if err != nil {
		return err
	}

	fmt.Println("original block header hash:", block.Header.Hash())

	for !block.Header.Mine(steps) {
		fmt.Println("mining")
	}

	fmt.Println("mined block header hash:   ", block.Header.Hash())

	return saveBlock(args[0], block)
}

func loadBlock(path string) (database.Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return database.Block{}, err
	}
	defer f.Close()

	return database.LoadBlock(f)
}

func saveBlock(path string, block database.Block) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return block.Save(f)
}
