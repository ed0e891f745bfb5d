package crypto

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var (
	ErrIndexOutOfRange = errors.New("leaf index out of range")
	ErrProofMismatch   = errors.New("merkle proof does not reproduce root")
)

// MerkleTree is a binary SHA-256 tree over an ordered list of leaf hashes.
// An unpaired node at the end of a level is promoted to the next level
// unchanged, so proofs for such nodes are shorter than the tree height.
type MerkleTree struct {
	leaves []chainhash.Hash
}

func NewMerkleTree(leaves []chainhash.Hash) *MerkleTree {
	copied := make([]chainhash.Hash, len(leaves))
	copy(copied, leaves)
	return &MerkleTree{leaves: copied}
}

func (t *MerkleTree) Len() int {
	return len(t.leaves)
}

// Root returns the tree root. The root of an empty tree is the zero hash.
func (t *MerkleTree) Root() chainhash.Hash {
	if len(t.leaves) == 0 {
		return chainhash.Hash{}
	}

	level := t.leaves
	for len(level) > 1 {
		level = nextLevel(level)
	}
	return level[0]
}

// Proof returns the sibling hashes needed to rebuild the root from the leaf
// at index, ordered bottom-up. Levels where the node has no sibling add no
// entry. The proof carries no left/right flags: verifiers derive them from
// the index parity.
func (t *MerkleTree) Proof(index int) ([]chainhash.Hash, error) {
	if index < 0 || index >= len(t.leaves) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(t.leaves))
	}

	proof := make([]chainhash.Hash, 0)
	level := t.leaves
	for len(level) > 1 {
		sibling := index ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		level = nextLevel(level)
		index /= 2
	}
	return proof, nil
}

// VerifyProof recomputes the root for leaf at index in a tree of leafCount
// leaves and compares it to root.
func VerifyProof(leaf chainhash.Hash, index, leafCount int, proof []chainhash.Hash, root chainhash.Hash) error {
	if index < 0 || index >= leafCount {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, leafCount)
	}

	current := leaf
	used := 0
	for width := leafCount; width > 1; width = (width + 1) / 2 {
		sibling := index ^ 1
		if sibling < width {
			if used >= len(proof) {
				return fmt.Errorf("%w: proof too short", ErrProofMismatch)
			}
			if index%2 == 0 {
				current = HashPair(current, proof[used])
			} else {
				current = HashPair(proof[used], current)
			}
			used++
		}
		index /= 2
	}

	if used != len(proof) {
		return fmt.Errorf("%w: %d unused proof entries", ErrProofMismatch, len(proof)-used)
	}
	if current != root {
		return ErrProofMismatch
	}
	return nil
}

// HashPair returns SHA-256(left || right).
func HashPair(left, right chainhash.Hash) chainhash.Hash {
	var buf [2 * chainhash.HashSize]byte
	copy(buf[:chainhash.HashSize], left[:])
	copy(buf[chainhash.HashSize:], right[:])
	return chainhash.HashH(buf[:])
}

func nextLevel(level []chainhash.Hash) []chainhash.Hash {
	next := make([]chainhash.Hash, 0, (len(level)+1)/2)
	for i := 0; i < len(level); i += 2 {
		if i+1 < len(level) {
			next = append(next, HashPair(level[i], level[i+1]))
		} else {
			next = append(next, level[i])
		}
	}
	return next
}
