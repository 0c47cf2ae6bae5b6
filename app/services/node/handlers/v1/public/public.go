// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/utxochain/business/web/errs"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
	"github.com/ardanlabs/utxochain/foundation/blockchain/mempool"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/events"
	"github.com/ardanlabs/utxochain/foundation/nameservice"
	"github.com/ardanlabs/utxochain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitWalletTransaction adds new user transactions to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ntx newTx
	if err := web.Decode(r, &ntx); err != nil {
		return err
	}

	tx, err := ntx.toTx()
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("add user tran", "traceid", v.TraceID, "tx", tx, "inputs", len(tx.Inputs), "outputs", len(tx.Outputs))
	if err := h.State.SubmitWalletTx(tx); err != nil {
		return errs.NewLedgerError(err)
	}

	resp := struct {
		Status string `json:"status"`
		Hash   string `json:"hash"`
	}{
		Status: "transaction added to mempool",
		Hash:   tx.Hash().String(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Status returns the current status of the ledger.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ps := h.State.RetrievePeerStatus()

	st := status{
		Phase:       h.State.RetrievePhase(),
		Height:      ps.Height,
		LatestBlock: ps.LatestBlockHash.String(),
		Target:      h.State.RetrieveTarget().Hex(),
		Mempool:     len(h.State.RetrieveMempool()),
		KnownPeers:  len(ps.KnownPeers),
	}

	return web.Respond(ctx, w, st, http.StatusOK)
}

// Block returns the block at the specified height.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	height, err := strconv.ParseUint(web.Param(r, "height"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid height: %w", err), http.StatusBadRequest)
	}

	blk, err := h.State.RetrieveBlock(height)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, h.toBlock(height, blk), http.StatusOK)
}

// UTXOs returns the unspent outputs and balance of the specified owner.
func (h Handlers) UTXOs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	owner, err := signature.ToPublicKey(web.Param(r, "owner"))
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid owner: %w", err), http.StatusBadRequest)
	}

	bal := balance{
		Owner:     owner.String(),
		OwnerName: h.NS.Lookup(owner),
		UTXOs:     []utxo{},
	}

	for key, u := range h.State.RetrieveUTXOsByOwner(owner) {
		if u.Pending {
			bal.Pending += u.Output.Value
		} else {
			bal.Confirmed += u.Output.Value
		}

		bal.UTXOs = append(bal.UTXOs, utxo{
			Key:       key,
			Value:     u.Output.Value,
			UniqueID:  u.Output.UniqueID,
			Owner:     owner.String(),
			OwnerName: bal.OwnerName,
			Pending:   u.Pending,
		})
	}

	return web.Respond(ctx, w, bal, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions, best fee first.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	entries := h.State.RetrieveMempool()

	trans := make([]tx, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		trans = append(trans, h.toEntry(entries[i]))
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// =============================================================================

func (h Handlers) toTx(dbTx database.Tx) tx {
	t := tx{
		Hash:    dbTx.Hash(),
		Inputs:  make([]digest.Digest, len(dbTx.Inputs)),
		Outputs: make([]output, len(dbTx.Outputs)),
	}

	for i, in := range dbTx.Inputs {
		t.Inputs[i] = in.PrevOutput
	}

	for i, out := range dbTx.Outputs {
		t.Outputs[i] = output{
			Value:     out.Value,
			UniqueID:  out.UniqueID,
			Owner:     out.Owner.String(),
			OwnerName: h.NS.Lookup(out.Owner),
		}
	}

	return t
}

func (h Handlers) toEntry(e mempool.Entry) tx {
	t := h.toTx(e.Tx)
	t.Fee = e.Fee
	t.Since = &e.ReceivedAt
	return t
}

func (h Handlers) toBlock(height uint64, blk database.Block) block {
	b := block{
		Height:        height,
		Hash:          blk.Hash(),
		PrevBlockHash: blk.Header.PrevBlockHash,
		MerkleRoot:    blk.Header.MerkleRoot,
		Target:        blk.Header.Target.String(),
		TimeStamp:     blk.Header.TimeStamp,
		Nonce:         blk.Header.Nonce,
		Trans:         make([]tx, len(blk.Trans)),
	}

	for i, dbTx := range blk.Trans {
		b.Trans[i] = h.toTx(dbTx)
	}

	return b
}
