package private_test

import (
	"context"
	"testing"

	"github.com/ardanlabs/utxochain/app/services/node/handlers/v1/private"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/peer"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/blockchain/wire"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const host = "127.0.0.1:9180"

func newHandlers(t *testing.T) (private.Handlers, signature.PublicKey) {
	gen := genesis.Default()
	for i := range gen.MinTarget {
		gen.MinTarget[i] = 0xff
	}

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	miner := signature.PublicKeyFromECDSA(key.PublicKey)

	st, err := state.New(state.Config{
		MinerKey:   miner,
		Host:       host,
		Storage:    memory.New(),
		Genesis:    gen,
		KnownPeers: peer.NewPeerSet("127.0.0.1:9280"),
	})
	require.NoError(t, err)

	h := private.Handlers{
		Log:   zap.NewNop().Sugar(),
		State: st,
	}

	return h, miner
}

func Test_WireTemplate(t *testing.T) {
	h, miner := newHandlers(t)
	ctx := context.Background()

	reply, err := h.Wire(ctx, wire.FetchTemplate{Miner: miner})
	require.NoError(t, err)

	tmpl, ok := reply.(wire.Template)
	require.True(t, ok)
	require.Len(t, tmpl.Block.Trans, 1)

	block := tmpl.Block
	require.True(t, block.Header.Mine(1_000))

	reply, err = h.Wire(ctx, wire.ValidateTemplate{Block: block})
	require.NoError(t, err)
	require.Equal(t, wire.TemplateValidity{Valid: true}, reply)

	reply, err = h.Wire(ctx, wire.SubmitTemplate{Block: block})
	require.NoError(t, err)
	require.Nil(t, reply)
	require.EqualValues(t, 1, h.State.RetrieveHeight())

	// The chain moved on so the same template is stale.
	reply, err = h.Wire(ctx, wire.ValidateTemplate{Block: block})
	require.NoError(t, err)
	require.Equal(t, wire.TemplateValidity{Valid: false}, reply)

	reply, err = h.Wire(ctx, wire.FetchUTXOs{Owner: miner})
	require.NoError(t, err)

	utxos, ok := reply.(wire.UTXOs)
	require.True(t, ok)
	require.Len(t, utxos.UTXOs, 1)
	require.False(t, utxos.UTXOs[0].Pending)
	require.Equal(t, block.Trans[0].Outputs[0], utxos.UTXOs[0].Output)

	reply, err = h.Wire(ctx, wire.FetchBlock{Height: 0})
	require.NoError(t, err)
	require.Equal(t, block.Hash(), reply.(wire.NewBlock).Block.Hash())

	_, err = h.Wire(ctx, wire.FetchBlock{Height: 1})
	require.Error(t, err)

	reply, err = h.Wire(ctx, wire.AskDifference{Height: 0})
	require.NoError(t, err)
	require.Equal(t, wire.Difference{Delta: 1}, reply)

	reply, err = h.Wire(ctx, wire.AskDifference{Height: 3})
	require.NoError(t, err)
	require.Equal(t, wire.Difference{Delta: -2}, reply)
}

func Test_WireDiscoverNodes(t *testing.T) {
	h, _ := newHandlers(t)
	ctx := context.Background()

	reply, err := h.Wire(ctx, wire.DiscoverNodes{Host: "127.0.0.1:9380"})
	require.NoError(t, err)
	require.Equal(t, wire.NodeList{Nodes: []string{"127.0.0.1:9280"}}, reply)

	// The requester is now known but is never handed its own address.
	reply, err = h.Wire(ctx, wire.DiscoverNodes{Host: "127.0.0.1:9380"})
	require.NoError(t, err)
	require.Equal(t, wire.NodeList{Nodes: []string{"127.0.0.1:9280"}}, reply)

	reply, err = h.Wire(ctx, wire.DiscoverNodes{})
	require.NoError(t, err)
	require.Equal(t, wire.NodeList{Nodes: []string{"127.0.0.1:9280", "127.0.0.1:9380"}}, reply)

	// The node never learns its own address.
	_, err = h.Wire(ctx, wire.DiscoverNodes{Host: host})
	require.NoError(t, err)
	require.Len(t, h.State.RetrieveKnownPeers(), 2)
}

func Test_WireUnexpected(t *testing.T) {
	h, _ := newHandlers(t)

	_, err := h.Wire(context.Background(), wire.UTXOs{})
	require.Error(t, err)
}
