package hyperlane

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/ev-prover/types"
)

// MerkleTreeHookSlotBase is the first storage slot of the MerkleTreeHook
// contract's branch array; slots base..base+31 hold the branch nodes and
// base+32 holds the leaf count.
const MerkleTreeHookSlotBase = 0x97

// MerkleTreeSlots returns the 33 storage keys the branch proof must cover:
// the 32 branch slots plus the count slot.
func MerkleTreeSlots() []common.Hash {
	keys := make([]common.Hash, 0, TreeDepth+1)
	for i := int64(0); i <= TreeDepth; i++ {
		keys = append(keys, common.BigToHash(big.NewInt(MerkleTreeHookSlotBase+i)))
	}
	return keys
}

// BranchProof is an EIP-1186 account plus storage proof for the
// MerkleTreeHook contract, rooted at the target rollup state root.
type BranchProof struct {
	// AccountProof is the MPT proof for the contract account.
	AccountProof [][]byte
	// AccountRLP is the RLP-encoded trie account leaf value.
	AccountRLP []byte
	// StorageProofs holds one MPT proof per merkle-tree storage slot, in
	// slot order.
	StorageProofs [][][]byte
	// StorageValues holds the 32-byte value per slot, in slot order.
	StorageValues [][]byte
}

// InclusionInput is the input record for the message-inclusion program.
type InclusionInput struct {
	// TargetStateRoot is the rollup state root the proof anchors to. It
	// must be covered by an existing range-execution proof.
	TargetStateRoot [32]byte
	// MerkleTreeAddress is the MerkleTreeHook contract address.
	MerkleTreeAddress common.Address
	// Messages are the dispatched messages in ascending nonce order with
	// no gaps.
	Messages []Message
	// Proof is the branch proof at TargetStateRoot.
	Proof BranchProof
	// Snapshot is the incremental merkle tree as of the previous target.
	Snapshot Tree
}

// Validate checks that message nonces are consecutive and resume from the
// snapshot count.
func (in *InclusionInput) Validate() error {
	if len(in.Messages) == 0 {
		return fmt.Errorf("inclusion input: no messages")
	}
	next := uint32(in.Snapshot.Count)
	for i, m := range in.Messages {
		if m.Nonce != next {
			return fmt.Errorf("inclusion input: message %d has nonce %d, want %d", i, m.Nonce, next)
		}
		next++
	}
	return nil
}

// Marshal returns the canonical serialization of the input.
func (in *InclusionInput) Marshal() []byte {
	e := types.NewEncoder()
	e.Fixed(in.TargetStateRoot[:])
	e.Fixed(in.MerkleTreeAddress.Bytes())
	e.Uint64(uint64(len(in.Messages)))
	for i := range in.Messages {
		e.Bytes(in.Messages[i].Pack())
	}
	e.ByteSlices(in.Proof.AccountProof)
	e.Bytes(in.Proof.AccountRLP)
	e.Uint64(uint64(len(in.Proof.StorageProofs)))
	for _, p := range in.Proof.StorageProofs {
		e.ByteSlices(p)
	}
	e.ByteSlices(in.Proof.StorageValues)
	e.Fixed(in.Snapshot.Marshal())
	return e.Finish()
}

// Unmarshal decodes the canonical serialization into in.
func (in *InclusionInput) Unmarshal(data []byte) error {
	d := types.NewDecoder(data)
	root, err := d.Fixed32()
	if err != nil {
		return fmt.Errorf("inclusion input: %w", err)
	}
	in.TargetStateRoot = root
	addr, err := d.Fixed(common.AddressLength)
	if err != nil {
		return fmt.Errorf("inclusion input: %w", err)
	}
	in.MerkleTreeAddress = common.BytesToAddress(addr)
	n, err := d.Uint64()
	if err != nil {
		return fmt.Errorf("inclusion input: %w", err)
	}
	in.Messages = make([]Message, 0, n)
	for i := uint64(0); i < n; i++ {
		raw, err := d.Bytes()
		if err != nil {
			return fmt.Errorf("inclusion input: %w", err)
		}
		m, err := UnpackMessage(raw)
		if err != nil {
			return fmt.Errorf("inclusion input: %w", err)
		}
		in.Messages = append(in.Messages, m)
	}
	if in.Proof.AccountProof, err = d.ByteSlices(); err != nil {
		return fmt.Errorf("inclusion input: %w", err)
	}
	if in.Proof.AccountRLP, err = d.Bytes(); err != nil {
		return fmt.Errorf("inclusion input: %w", err)
	}
	np, err := d.Uint64()
	if err != nil {
		return fmt.Errorf("inclusion input: %w", err)
	}
	in.Proof.StorageProofs = make([][][]byte, 0, np)
	for i := uint64(0); i < np; i++ {
		p, err := d.ByteSlices()
		if err != nil {
			return fmt.Errorf("inclusion input: %w", err)
		}
		in.Proof.StorageProofs = append(in.Proof.StorageProofs, p)
	}
	if in.Proof.StorageValues, err = d.ByteSlices(); err != nil {
		return fmt.Errorf("inclusion input: %w", err)
	}
	snap, err := d.Fixed(TreeDepth*32 + 8)
	if err != nil {
		return fmt.Errorf("inclusion input: %w", err)
	}
	if err := in.Snapshot.Unmarshal(snap); err != nil {
		return fmt.Errorf("inclusion input: %w", err)
	}
	return d.Done()
}

// Fingerprint is the sha256 digest of the canonical serialization.
func (in *InclusionInput) Fingerprint() [32]byte {
	return sha256.Sum256(in.Marshal())
}

// InclusionOutput is the public output committed by the message-inclusion
// program.
type InclusionOutput struct {
	TargetStateRoot [32]byte
	MessageIDs      [][32]byte
}

// Marshal returns the canonical serialization of the output.
func (out *InclusionOutput) Marshal() []byte {
	e := types.NewEncoder()
	e.Fixed(out.TargetStateRoot[:])
	e.Uint64(uint64(len(out.MessageIDs)))
	for i := range out.MessageIDs {
		e.Fixed(out.MessageIDs[i][:])
	}
	return e.Finish()
}

// Unmarshal decodes the canonical serialization into out.
func (out *InclusionOutput) Unmarshal(data []byte) error {
	d := types.NewDecoder(data)
	root, err := d.Fixed32()
	if err != nil {
		return fmt.Errorf("inclusion output: %w", err)
	}
	out.TargetStateRoot = root
	n, err := d.Uint64()
	if err != nil {
		return fmt.Errorf("inclusion output: %w", err)
	}
	out.MessageIDs = make([][32]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		id, err := d.Fixed32()
		if err != nil {
			return fmt.Errorf("inclusion output: %w", err)
		}
		out.MessageIDs = append(out.MessageIDs, id)
	}
	return d.Done()
}
