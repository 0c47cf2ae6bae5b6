// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, and turned into generics.

// Package merkle provides an implementation of a merkle tree for validation
// support for the blockchain.
package merkle

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
)

// ErrNoContent is returned when a tree is requested for an empty set of values.
var ErrNoContent = errors.New("cannot construct tree with no content")

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Hash() digest.Digest
	Equals(other T) bool
}

// =============================================================================

// Root calculates the merkle root for the specified values without keeping
// the tree around.
func Root[T Hashable[T]](values []T) (digest.Digest, error) {
	tree, err := NewTree(values)
	if err != nil {
		return digest.Digest{}, err
	}

	return tree.MerkleRoot, nil
}

// Pair produces the parent digest for two child digests.
func Pair(left digest.Digest, right digest.Digest) digest.Digest {
	return digest.Hash([2]digest.Digest{left, right})
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits the
// behavior defined by the Hashable constraint.
type Tree[T Hashable[T]] struct {
	Root       *Node[T]
	Leafs      []*Node[T]
	MerkleRoot digest.Digest
}

// NewTree constructs a new merkle tree that uses data of some type T that
// exhibits the behavior defined by the Hashable interface.
func NewTree[T Hashable[T]](values []T) (*Tree[T], error) {
	var t Tree[T]
	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// Generate constructs the leafs and nodes of the tree from the specified
// data. If the tree has been generated previously, the tree is re-generated
// from scratch.
//
// A layer with an odd number of nodes pairs its last node with itself. A
// single value is its own root.
func (t *Tree[T]) Generate(values []T) error {
	if len(values) == 0 {
		return ErrNoContent
	}

	leafs := make([]*Node[T], len(values))
	for i, value := range values {
		leafs[i] = &Node[T]{
			Hash:  value.Hash(),
			Value: value,
			leaf:  true,
		}
	}

	layer := leafs
	for len(layer) > 1 {
		next := make([]*Node[T], 0, (len(layer)+1)/2)

		for i := 0; i < len(layer); i += 2 {
			left, right := layer[i], layer[i]
			if i+1 < len(layer) {
				right = layer[i+1]
			}

			n := Node[T]{
				Left:  left,
				Right: right,
				Hash:  Pair(left.Hash, right.Hash),
			}

			left.Parent = &n
			right.Parent = &n
			next = append(next, &n)
		}

		layer = next
	}

	t.Root = layer[0]
	t.Leafs = leafs
	t.MerkleRoot = layer[0].Hash

	return nil
}

// Values returns the values stored in the tree in their original order.
func (t *Tree[T]) Values() []T {
	values := make([]T, len(t.Leafs))
	for i, node := range t.Leafs {
		values[i] = node.Value
	}

	return values
}

// Proof returns the set of hashes and the order of concatenating those
// hashes for proving a value is in the tree.
//
// Hash the data in question and know the merkle root. For each proof entry,
// an order of 0 says the proof digest is the left child and 1 says it is the
// right child of the pair.
//
//	d = Pair(proof[0], dataHash)  -- Order 0 says proof comes first.
//	d = Pair(d, proof[1])         -- Order 1 says proof comes second.
//
// The final digest should match the merkle root.
func (t *Tree[T]) Proof(data T) ([]digest.Digest, []int64, error) {
	for _, node := range t.Leafs {
		if !node.Value.Equals(data) {
			continue
		}

		var proof []digest.Digest
		var order []int64

		for parent := node.Parent; parent != nil; parent = parent.Parent {
			if parent.Left == node {
				proof = append(proof, parent.Right.Hash)
				order = append(order, 1)
			} else {
				proof = append(proof, parent.Left.Hash)
				order = append(order, 0)
			}
			node = parent
		}

		return proof, order, nil
	}

	return nil, nil, errors.New("unable to find data in tree")
}

// Verify recalculates every level of the tree and checks the result against
// the stored merkle root.
func (t *Tree[T]) Verify() error {
	if t.Root == nil {
		return ErrNoContent
	}

	if calculated := t.Root.calculate(); calculated != t.MerkleRoot {
		return fmt.Errorf("root hash invalid, got %s, exp %s", calculated, t.MerkleRoot)
	}

	return nil
}

// RootHex converts the merkle root to a hex encoded string.
func (t *Tree[T]) RootHex() string {
	return t.MerkleRoot.String()
}

// VerifyProof checks the proof produced by Tree.Proof for the specified data
// digest against a merkle root.
func VerifyProof(root digest.Digest, dataHash digest.Digest, proof []digest.Digest, order []int64) bool {
	if len(proof) != len(order) {
		return false
	}

	d := dataHash
	for i := range proof {
		switch order[i] {
		case 0:
			d = Pair(proof[i], d)
		case 1:
			d = Pair(d, proof[i])
		default:
			return false
		}
	}

	return d == root
}

// =============================================================================

// Node represents a node, root, or leaf in the tree. It stores pointers to its
// immediate relationships, a hash, and the data if it is a leaf.
type Node[T Hashable[T]] struct {
	Parent *Node[T]
	Left   *Node[T]
	Right  *Node[T]
	Hash   digest.Digest
	Value  T
	leaf   bool
}

// calculate walks down the tree until hitting a leaf, calculating the hash at
// each level and returning the resulting hash of the node.
func (n *Node[T]) calculate() digest.Digest {
	if n.leaf {
		return n.Value.Hash()
	}

	return Pair(n.Left.calculate(), n.Right.calculate())
}

// String returns a string representation of the node.
func (n *Node[T]) String() string {
	return fmt.Sprintf("%t %s %v", n.leaf, n.Hash, n.Value)
}
