package digest_test

import (
	"encoding/json"
	"testing"

	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string
	Value uint64
	Tags  map[string]uint64
}

func Test_HashDeterministic(t *testing.T) {
	a := record{Name: "bill", Value: 144, Tags: map[string]uint64{"a": 1, "b": 2, "c": 3}}
	b := record{Name: "bill", Value: 144, Tags: map[string]uint64{"c": 3, "b": 2, "a": 1}}

	require.Equal(t, digest.Hash(a), digest.Hash(b), "map order must not change the digest")
	require.Equal(t, digest.Hash(a), digest.Hash(a))

	b.Value++
	require.NotEqual(t, digest.Hash(a), digest.Hash(b))
}

func Test_HashPanicsOnUnserializable(t *testing.T) {
	require.Panics(t, func() {
		digest.Hash(func() {})
	})
}

func Test_MatchesTarget(t *testing.T) {
	d := digest.Digest{31: 0x10}

	require.True(t, d.MatchesTarget(uint256.NewInt(0x10)), "equal to target")
	require.True(t, d.MatchesTarget(uint256.NewInt(0x11)), "below target")
	require.False(t, d.MatchesTarget(uint256.NewInt(0x0f)), "above target")

	high := digest.Digest{0: 0x01}
	require.False(t, high.MatchesTarget(uint256.NewInt(^uint64(0))))
	require.True(t, digest.Zero.MatchesTarget(uint256.NewInt(0)))
}

func Test_TextRoundTrip(t *testing.T) {
	d := digest.Hash("utxo")

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var got digest.Digest
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, d, got)

	fromHex, err := digest.FromHex(d.String())
	require.NoError(t, err)
	require.Equal(t, d, fromHex)

	_, err = digest.FromHex("0x1234")
	require.Error(t, err)

	// Text decoding goes through the same path as FromHex.
	require.Error(t, got.UnmarshalText([]byte(d.String()[2:])), "missing 0x prefix")
	require.Error(t, got.UnmarshalText([]byte("0x1234")), "short digest")
	require.Error(t, json.Unmarshal([]byte(`"0xzz"`), &got), "not hex")
}
