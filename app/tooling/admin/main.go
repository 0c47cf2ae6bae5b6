// This program performs administrative tasks against the blocks a node
// has written to disk.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/utxochain/app/tooling/admin/commands"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database/storage/disk"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

const (
	dbPath      = "zblock/miner1/"
	genesisPath = ""
)

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	if len(os.Args) < 2 {
		return errors.New("usage: admin bals|trans [owner]")
	}

	log.Infow("startup", "version", build, "db", dbPath)

	gen, err := genesis.Load(genesisPath)
	if err != nil {
		return err
	}

	storage, err := disk.New(dbPath)
	if err != nil {
		return err
	}

	// Replaying through the state validates every block on disk.
	st, err := state.New(state.Config{
		Storage: storage,
		Genesis: gen,
	})
	if err != nil {
		storage.Close()
		return err
	}
	defer st.Shutdown()

	return processCommands(os.Args, st)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args []string, st *state.State) error {
	switch args[1] {
	case "bals":
		if err := commands.Balances(args, st); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}
	case "trans":
		if err := commands.Transactions(args, st); err != nil {
			return fmt.Errorf("getting transaction: %w", err)
		}
	default:
		return fmt.Errorf("unknown command %q", args[1])
	}

	return nil
}
