package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ardanlabs/utxochain/foundation/blockchain/wire"
	"github.com/ardanlabs/utxochain/foundation/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	steps          uint64
	validateEvery  uint64
	blocks         uint64
	requestTimeout time.Duration
)

var remoteCmd = &cobra.Command{
	Use:   "remote <address> <public_key_file>",
	Short: "Mine templates fetched from a node paying the public key",
	Args:  cobra.ExactArgs(2),
	RunE:  remoteRun,
}

func init() {
	rootCmd.AddCommand(remoteCmd)
	remoteCmd.Flags().Uint64VarP(&steps, "steps", "s", 100_000, "Nonces tried per mining round.")
	remoteCmd.Flags().Uint64Var(&validateEvery, "validate-every", 10, "Rounds between template validity checks.")
	remoteCmd.Flags().Uint64VarP(&blocks, "blocks", "b", 0, "Blocks to mine before exiting, 0 mines forever.")
	remoteCmd.Flags().DurationVar(&requestTimeout, "timeout", 10*time.Second, "Time allowed for a node request.")
}

func remoteRun(cmd *cobra.Command, args []string) error {
	if steps == 0 {
		return errors.New("steps must be greater than zero")
	}

	miner, err := signature.LoadPublicKeyFile(args[1])
	if err != nil {
		return fmt.Errorf("reading public key from file %s: %w", args[1], err)
	}

	log, err := logger.New("MINER")
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := remote{
		log:     log,
		address: args[0],
		miner:   miner,
	}

	log.Infow("remote", "status", "started", "address", r.address, "miner", miner)

	for mined := uint64(0); blocks == 0 || mined < blocks; {
		ok, err := r.mineOne(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Errorw("remote", "status", "mining failed", "ERROR", err)
			time.Sleep(time.Second)
			continue
		}

		if ok {
			mined++
		}
	}

	return nil
}

// =============================================================================

// remote mines the templates handed out by a node.
type remote struct {
	log     *zap.SugaredLogger
	address string
	miner   signature.PublicKey
}

// mineOne fetches a template and mines it. The template is abandoned when
// the node reports it can no longer be accepted. The return is true when a
// solved block was submitted.
func (r remote) mineOne(ctx context.Context) (bool, error) {
	block, err := r.fetchTemplate(ctx)
	if err != nil {
		return false, err
	}

	r.log.Infow("remote", "status", "mining template", "prev_block", block.Header.PrevBlockHash, "trans", len(block.Trans))

	for round := uint64(1); !block.Header.Mine(steps); round++ {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		if validateEvery == 0 || round%validateEvery != 0 {
			continue
		}

		valid, err := r.validateTemplate(ctx, block)
		if err != nil {
			return false, err
		}

		if !valid {
			r.log.Infow("remote", "status", "template is stale")
			return false, nil
		}
	}

	if err := r.send(ctx, wire.SubmitTemplate{Block: block}); err != nil {
		return false, err
	}

	r.log.Infow("remote", "status", "block submitted", "hash", block.Hash(), "nonce", block.Header.Nonce)

	return true, nil
}

func (r remote) fetchTemplate(ctx context.Context) (database.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	reply, err := wire.Request(ctx, r.address, wire.FetchTemplate{Miner: r.miner})
	if err != nil {
		return database.Block{}, err
	}

	tmpl, ok := reply.(wire.Template)
	if !ok {
		return database.Block{}, fmt.Errorf("unexpected reply %s", reply.Kind())
	}

	return tmpl.Block, nil
}

func (r remote) validateTemplate(ctx context.Context, block database.Block) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	reply, err := wire.Request(ctx, r.address, wire.ValidateTemplate{Block: block})
	if err != nil {
		return false, err
	}

	tv, ok := reply.(wire.TemplateValidity)
	if !ok {
		return false, fmt.Errorf("unexpected reply %s", reply.Kind())
	}

	return tv.Valid, nil
}

func (r remote) send(ctx context.Context, msg wire.Message) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	return wire.Notify(ctx, r.address, msg)
}
