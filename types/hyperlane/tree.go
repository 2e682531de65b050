package hyperlane

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// TreeDepth is the depth of the Hyperlane incremental merkle tree.
const TreeDepth = 32

// MaxLeaves is the maximum number of leaves the tree can hold.
const MaxLeaves = (1 << TreeDepth) - 1

// zeroHashes[i] is the root of an empty subtree of depth i.
var zeroHashes = func() [TreeDepth][32]byte {
	var zh [TreeDepth][32]byte
	for i := 1; i < TreeDepth; i++ {
		copy(zh[i][:], crypto.Keccak256(zh[i-1][:], zh[i-1][:]))
	}
	return zh
}()

// Tree is the Hyperlane incremental merkle tree as maintained by the
// MerkleTreeHook contract: 32 branch slots plus a leaf count. A Tree value
// taken at a given message nonce is the "snapshot" the message-inclusion
// program resumes from.
type Tree struct {
	Branch [TreeDepth][32]byte
	Count  uint64
}

// Insert appends a leaf to the tree.
func (t *Tree) Insert(leaf [32]byte) error {
	if t.Count >= MaxLeaves {
		return fmt.Errorf("merkle tree full at %d leaves", t.Count)
	}
	t.Count++
	size := t.Count
	node := leaf
	for i := 0; i < TreeDepth; i++ {
		if size&1 == 1 {
			t.Branch[i] = node
			return nil
		}
		copy(node[:], crypto.Keccak256(t.Branch[i][:], node[:]))
		size /= 2
	}
	// unreachable while Count < MaxLeaves
	return fmt.Errorf("merkle tree insert did not terminate")
}

// Root computes the current tree root.
func (t *Tree) Root() [32]byte {
	var node [32]byte
	index := t.Count
	for i := 0; i < TreeDepth; i++ {
		if (index>>uint(i))&1 == 1 {
			copy(node[:], crypto.Keccak256(t.Branch[i][:], node[:]))
		} else {
			copy(node[:], crypto.Keccak256(node[:], zeroHashes[i][:]))
		}
	}
	return node
}

// Clone returns a copy of the tree.
func (t *Tree) Clone() Tree {
	return Tree{Branch: t.Branch, Count: t.Count}
}

// Marshal returns a fixed-width serialization: 32 branch slots then the count.
func (t *Tree) Marshal() []byte {
	out := make([]byte, 0, TreeDepth*32+8)
	for i := range t.Branch {
		out = append(out, t.Branch[i][:]...)
	}
	var cnt [8]byte
	for i := 0; i < 8; i++ {
		cnt[i] = byte(t.Count >> (8 * i))
	}
	return append(out, cnt[:]...)
}

// Unmarshal decodes the fixed-width serialization.
func (t *Tree) Unmarshal(data []byte) error {
	if len(data) != TreeDepth*32+8 {
		return fmt.Errorf("merkle tree: %d bytes, want %d", len(data), TreeDepth*32+8)
	}
	for i := range t.Branch {
		copy(t.Branch[i][:], data[i*32:])
	}
	t.Count = 0
	for i := 0; i < 8; i++ {
		t.Count |= uint64(data[TreeDepth*32+i]) << (8 * i)
	}
	return nil
}
