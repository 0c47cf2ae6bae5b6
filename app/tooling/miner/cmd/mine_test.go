package cmd

import (
	"path/filepath"
	"testing"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/stretchr/testify/require"
)

func Test_MineFile(t *testing.T) {
	var target database.Target
	for i := 1; i < len(target); i++ {
		target[i] = 0xff
	}

	coinbase := database.NewCoinbaseTx(50, signature.PublicKey{})
	block, err := database.NewBlock(digest.Zero, target, []database.Tx{coinbase})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "block.cbor")
	require.NoError(t, saveBlock(path, block))

	require.NoError(t, mineRun(mineCmd, []string{path, "100"}))

	mined, err := loadBlock(path)
	require.NoError(t, err)
	require.True(t, mined.Header.Solved())
	require.Equal(t, block.Header.MerkleRoot, mined.Header.MerkleRoot)
	require.NoError(t, mined.ValidateSelf())
}

func Test_MineInvalidArgs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block.cbor")

	require.Error(t, mineRun(mineCmd, []string{path, "0"}))
	require.Error(t, mineRun(mineCmd, []string{path, "abc"}))
	require.Error(t, mineRun(mineCmd, []string{path, "10"}))
}
