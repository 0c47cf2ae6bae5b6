// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ardanlabs/utxochain/business/web/errs"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrievePeerStatus(), http.StatusOK)
}

// BlocksByHeight returns all the blocks based on the specified to/from values.
func (h Handlers) BlocksByHeight(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := h.State.RetrieveHeight()
	if latest == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
	latest--

	parse := func(param string) (uint64, error) {
		s := web.Param(r, param)
		if s == "latest" || s == "" {
			return latest, nil
		}
		return strconv.ParseUint(s, 10, 64)
	}

	from, err := parse("from")
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	to, err := parse("to")
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if from > to {
		return errs.NewTrusted(errors.New("from greater than to"), http.StatusBadRequest)
	}

	blocks := h.State.RetrieveBlocks(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blockData := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		blockData[i] = database.NewBlockData(from+uint64(i), block)
	}

	return web.Respond(ctx, w, blockData, http.StatusOK)
}

// Template returns a block template paying the specified miner.
func (h Handlers) Template(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	miner, err := signature.ToPublicKey(web.Param(r, "miner"))
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid miner: %w", err), http.StatusBadRequest)
	}

	block, err := h.State.BlockTemplate(miner)
	if err != nil {
		return errs.NewLedgerError(err)
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// Truncate resets the chain, the mempool and the storage of the node.
func (h Handlers) Truncate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.State.Truncate(); err != nil {
		return err
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "truncated",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
