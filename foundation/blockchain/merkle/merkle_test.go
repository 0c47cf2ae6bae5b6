package merkle_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
	"github.com/ardanlabs/utxochain/foundation/blockchain/merkle"
)

// Data is a simple value that can be placed in the tree.
type Data struct {
	X string
}

// Hash implements the merkle Hashable interface.
func (d Data) Hash() digest.Digest {
	return digest.Hash(d)
}

// Equals implements the merkle Hashable interface.
func (d Data) Equals(other Data) bool {
	return d.X == other.X
}

func values(xs ...string) []Data {
	data := make([]Data, len(xs))
	for i, x := range xs {
		data[i] = Data{X: x}
	}
	return data
}

// =============================================================================

func Test_RootLayers(t *testing.T) {
	a, b, c := Data{"a"}.Hash(), Data{"b"}.Hash(), Data{"c"}.Hash()

	type table struct {
		name string
		data []Data
		exp  digest.Digest
	}

	tt := []table{
		{name: "single", data: values("a"), exp: a},
		{name: "pair", data: values("a", "b"), exp: merkle.Pair(a, b)},
		{name: "odd", data: values("a", "b", "c"), exp: merkle.Pair(merkle.Pair(a, b), merkle.Pair(c, c))},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			root, err := merkle.Root(tst.data)
			if err != nil {
				t.Fatalf("Test %s:\tShould be able to calculate the root: %s", tst.name, err)
			}

			if root != tst.exp {
				t.Logf("Test %s:\tgot: %s", tst.name, root)
				t.Logf("Test %s:\texp: %s", tst.name, tst.exp)
				t.Fatalf("Test %s:\tShould get back the right root.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_RootEmpty(t *testing.T) {
	if _, err := merkle.Root([]Data{}); !errors.Is(err, merkle.ErrNoContent) {
		t.Fatalf("Should not be able to build a tree without content: %v", err)
	}
}

func Test_RootDeterministicAndOrdered(t *testing.T) {
	data := values("a", "b", "c", "d", "e")

	r1, err := merkle.Root(data)
	if err != nil {
		t.Fatalf("Should be able to calculate the root: %s", err)
	}

	r2, _ := merkle.Root(values("a", "b", "c", "d", "e"))
	if r1 != r2 {
		t.Fatalf("Should get the same root for the same values.")
	}

	swapped, _ := merkle.Root(values("b", "a", "c", "d", "e"))
	if r1 == swapped {
		t.Fatalf("Should get a different root when the order changes.")
	}
}

func Test_ProofAndVerify(t *testing.T) {
	data := values("a", "b", "c", "d", "e", "f", "g")

	tree, err := merkle.NewTree(data)
	if err != nil {
		t.Fatalf("Should be able to build the tree: %s", err)
	}

	if err := tree.Verify(); err != nil {
		t.Fatalf("Should be able to verify the tree: %s", err)
	}

	for _, d := range data {
		proof, order, err := tree.Proof(d)
		if err != nil {
			t.Fatalf("Should be able to get a proof for %s: %s", d.X, err)
		}

		if !merkle.VerifyProof(tree.MerkleRoot, d.Hash(), proof, order) {
			t.Fatalf("Should be able to verify the proof for %s.", d.X)
		}

		if merkle.VerifyProof(tree.MerkleRoot, Data{"z"}.Hash(), proof, order) {
			t.Fatalf("Should not verify a proof for data not in the tree.")
		}
	}

	if _, _, err := tree.Proof(Data{"z"}); err == nil {
		t.Fatalf("Should not get a proof for data not in the tree.")
	}

	tree.MerkleRoot = digest.Zero
	if err := tree.Verify(); err == nil {
		t.Fatalf("Should detect a corrupted merkle root.")
	}
}

func Test_Values(t *testing.T) {
	data := values("a", "b", "c")

	tree, err := merkle.NewTree(data)
	if err != nil {
		t.Fatalf("Should be able to build the tree: %s", err)
	}

	got := tree.Values()
	if len(got) != len(data) {
		t.Fatalf("Should get back %d values, got %d.", len(data), len(got))
	}

	for i := range data {
		if !got[i].Equals(data[i]) {
			t.Fatalf("Should get back the values in order.")
		}
	}
}
