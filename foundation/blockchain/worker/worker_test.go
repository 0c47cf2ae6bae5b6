package worker_test

import (
	"testing"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/blockchain/worker"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const minerHexKey = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"

func Test_MinesGenesis(t *testing.T) {
	gen := genesis.Default()
	for i := range gen.MinTarget {
		gen.MinTarget[i] = 0xff
	}

	key, err := crypto.HexToECDSA(minerHexKey)
	require.NoError(t, err)
	miner := signature.PublicKeyFromECDSA(key.PublicKey)

	st, err := state.New(state.Config{
		MinerKey: miner,
		Host:     "127.0.0.1:9180",
		Storage:  memory.New(),
		Genesis:  gen,
	})
	require.NoError(t, err)

	w := worker.Run(st, worker.Config{
		Mining:             true,
		PeerUpdateInterval: time.Hour,
		CleanupInterval:    time.Hour,
	})
	defer w.Shutdown()

	require.Eventually(t, func() bool { return st.RetrieveHeight() == 1 }, 5*time.Second, 10*time.Millisecond)

	var total uint64
	for _, utxo := range st.RetrieveUTXOsByOwner(miner) {
		total += utxo.Output.Value
	}
	require.Equal(t, database.BlockReward(gen, 0), total)

	// Nothing is waiting in the mempool so no other block is mined.
	time.Sleep(50 * time.Millisecond)
	require.EqualValues(t, 1, st.RetrieveHeight())
}

func Test_MiningDisabled(t *testing.T) {
	st, err := state.New(state.Config{
		Storage: memory.New(),
		Genesis: genesis.Default(),
	})
	require.NoError(t, err)

	w := worker.Run(st, worker.Config{
		PeerUpdateInterval: time.Hour,
		CleanupInterval:    time.Hour,
	})

	time.Sleep(50 * time.Millisecond)
	w.Shutdown()

	require.Zero(t, st.RetrieveHeight())
}
