package private

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/peer"
	"github.com/ardanlabs/utxochain/foundation/blockchain/wire"
)

// proposeTimeout bounds sharing a block submitted by a miner.
const proposeTimeout = 10 * time.Second

// Wire dispatches a message received over the wire protocol. Rejected
// transactions and blocks are logged and get no reply.
func (h Handlers) Wire(ctx context.Context, msg wire.Message) (wire.Message, error) {
	switch m := msg.(type) {
	case wire.FetchUTXOs:
		utxos := h.State.RetrieveUTXOsByOwner(m.Owner)

		reply := wire.UTXOs{UTXOs: make([]wire.UTXOEntry, 0, len(utxos))}
		for _, u := range utxos {
			reply.UTXOs = append(reply.UTXOs, wire.UTXOEntry{Output: u.Output, Pending: u.Pending})
		}
		return reply, nil

	case wire.SubmitTransaction:
		if err := h.State.SubmitWalletTx(m.Tx); err != nil {
			h.Log.Infow("wire", "kind", msg.Kind(), "status", "rejected", "tx", m.Tx, "ERROR", err)
		}
		return nil, nil

	case wire.NewTransaction:
		if err := h.State.ProcessPeerTx(m.Tx); err != nil {
			h.Log.Infow("wire", "kind", msg.Kind(), "status", "rejected", "tx", m.Tx, "ERROR", err)
		}
		return nil, nil

	case wire.FetchTemplate:
		block, err := h.State.BlockTemplate(m.Miner)
		if err != nil {
			return nil, fmt.Errorf("building template: %w", err)
		}
		return wire.Template{Block: block}, nil

	case wire.ValidateTemplate:
		return wire.TemplateValidity{Valid: h.State.ValidateTemplate(m.Block)}, nil

	case wire.SubmitTemplate:
		if err := h.State.SubmitTemplate(m.Block); err != nil {
			h.Log.Infow("wire", "kind", msg.Kind(), "status", "rejected", "block", m.Block.Hash(), "ERROR", err)
			return nil, nil
		}

		// The miner is not a peer, the network learns about the block
		// from this node.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), proposeTimeout)
			defer cancel()

			if err := h.State.NetSendBlockToPeers(ctx, m.Block); err != nil {
				h.Log.Infow("wire", "kind", msg.Kind(), "status", "propose block", "ERROR", err)
			}
		}()
		return nil, nil

	case wire.DiscoverNodes:
		nodes := h.State.RetrieveKnownPeers()
		if h.State.AddKnownPeer(peer.New(m.Host)) {
			h.Log.Infow("wire", "kind", msg.Kind(), "status", "added peer", "host", m.Host)
		}

		reply := wire.NodeList{Nodes: make([]string, 0, len(nodes))}
		for _, pr := range nodes {
			if !pr.Match(m.Host) {
				reply.Nodes = append(reply.Nodes, pr.Host)
			}
		}
		return reply, nil

	case wire.AskDifference:
		height := h.State.RetrieveHeight()
		return wire.Difference{Delta: int64(height) - int64(m.Height)}, nil

	case wire.FetchBlock:
		block, err := h.State.RetrieveBlock(m.Height)
		if err != nil {
			return nil, err
		}
		return wire.NewBlock{Block: block}, nil

	case wire.NewBlock:
		if err := h.State.ProcessProposedBlock(m.Block); err != nil {
			h.Log.Infow("wire", "kind", msg.Kind(), "status", "rejected", "block", m.Block.Hash(), "ERROR", err)
		}
		return nil, nil
	}

	return nil, fmt.Errorf("unexpected message %s", msg.Kind())
}
