package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// WitnessFormat tags the execution-witness variant carried by a
// BlockExecInput. The two zk-VM runtimes consume incompatible witness
// encodings fetched over different rollup RPC methods; exactly one format
// is active per process.
type WitnessFormat uint8

const (
	// WitnessRsp is the stateless client-executor witness used by the
	// sp1 block-execution guest.
	WitnessRsp WitnessFormat = iota + 1
	// WitnessZeth is the preflight witness used by the risc0
	// block-execution guest.
	WitnessZeth
)

func (f WitnessFormat) String() string {
	switch f {
	case WitnessRsp:
		return "rsp"
	case WitnessZeth:
		return "zeth"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(f))
	}
}

// BlockExecInput is the input record for the block-execution program. It
// covers all rollup blocks embedded in a single DA block in the configured
// namespace. A DA block with no blobs in the namespace produces an input
// with empty Blobs and Witnesses that still advances the DA header hash.
type BlockExecInput struct {
	// HeaderRaw is the raw DA block header.
	HeaderRaw []byte
	// DAHRowRoots and DAHColumnRoots are the data-availability header roots.
	DAHRowRoots    [][]byte
	DAHColumnRoots [][]byte
	// Namespace filters the blob set.
	Namespace Namespace
	// SequencerPubKey authenticates blob signatures inside the guest.
	SequencerPubKey [32]byte
	// Blobs are the raw blob payloads at this height, in canonical share order.
	Blobs [][]byte
	// ShareProofs are the namespace inclusion proofs for the full
	// namespace run, one per row, in canonical order.
	ShareProofs [][]byte
	// WitnessFormat tags the Witnesses encoding.
	WitnessFormat WitnessFormat
	// Witnesses are per-rollup-block execution witnesses in ascending
	// rollup-height order.
	Witnesses [][]byte
	// RollupHeights are the rollup block numbers covered by Witnesses.
	RollupHeights []uint64
	// Checkpoint anchors the state transition.
	Checkpoint TrustedCheckpoint
}

// IsEmpty reports whether this input represents a null transition: a DA
// block with no blobs in the namespace.
func (in *BlockExecInput) IsEmpty() bool {
	return len(in.Blobs) == 0
}

// Marshal returns the canonical serialization of the input.
func (in *BlockExecInput) Marshal() []byte {
	e := NewEncoder()
	e.Bytes(in.HeaderRaw)
	e.ByteSlices(in.DAHRowRoots)
	e.ByteSlices(in.DAHColumnRoots)
	e.Fixed(in.Namespace[:])
	e.Fixed(in.SequencerPubKey[:])
	e.ByteSlices(in.Blobs)
	e.ByteSlices(in.ShareProofs)
	e.Uint8(uint8(in.WitnessFormat))
	e.ByteSlices(in.Witnesses)
	e.Uint64s(in.RollupHeights)
	in.Checkpoint.encode(e)
	return e.Finish()
}

// Unmarshal decodes the canonical serialization into in.
func (in *BlockExecInput) Unmarshal(data []byte) error {
	d := NewDecoder(data)
	var err error
	if in.HeaderRaw, err = d.Bytes(); err != nil {
		return fmt.Errorf("block exec input: %w", err)
	}
	if in.DAHRowRoots, err = d.ByteSlices(); err != nil {
		return fmt.Errorf("block exec input: %w", err)
	}
	if in.DAHColumnRoots, err = d.ByteSlices(); err != nil {
		return fmt.Errorf("block exec input: %w", err)
	}
	ns, err := d.Fixed(NamespaceSize)
	if err != nil {
		return fmt.Errorf("block exec input: %w", err)
	}
	copy(in.Namespace[:], ns)
	if in.SequencerPubKey, err = d.Fixed32(); err != nil {
		return fmt.Errorf("block exec input: %w", err)
	}
	if in.Blobs, err = d.ByteSlices(); err != nil {
		return fmt.Errorf("block exec input: %w", err)
	}
	if in.ShareProofs, err = d.ByteSlices(); err != nil {
		return fmt.Errorf("block exec input: %w", err)
	}
	format, err := d.Uint8()
	if err != nil {
		return fmt.Errorf("block exec input: %w", err)
	}
	in.WitnessFormat = WitnessFormat(format)
	if in.Witnesses, err = d.ByteSlices(); err != nil {
		return fmt.Errorf("block exec input: %w", err)
	}
	if in.RollupHeights, err = d.Uint64s(); err != nil {
		return fmt.Errorf("block exec input: %w", err)
	}
	if in.Checkpoint, err = decodeCheckpoint(d); err != nil {
		return fmt.Errorf("block exec input: %w", err)
	}
	return d.Done()
}

// Fingerprint is the sha256 digest of the canonical serialization. Two
// inputs share a fingerprint iff they are byte-identical after
// canonicalization.
func (in *BlockExecInput) Fingerprint() [32]byte {
	return sha256.Sum256(in.Marshal())
}

// BlockExecOutput is the public output committed by the block-execution
// program.
type BlockExecOutput struct {
	// NewDAHeaderHash is the hash of the DA block header proven.
	NewDAHeaderHash [32]byte
	// PrevDAHeaderHash is the hash of the preceding DA block header.
	PrevDAHeaderHash [32]byte
	// NewRollupHeight is the rollup block number after the state
	// transition function has been applied.
	NewRollupHeight uint64
	// NewRollupStateRoot is the rollup state root after the transition.
	NewRollupStateRoot [32]byte
	// TrustedRollupHeight is the rollup block number before the transition.
	TrustedRollupHeight uint64
	// TrustedRollupStateRoot is the rollup state root before the transition.
	TrustedRollupStateRoot [32]byte
	// Namespace is the DA namespace containing the blob data.
	Namespace Namespace
	// SequencerPubKey verified the blob signatures.
	SequencerPubKey [32]byte
}

// Marshal returns the canonical serialization of the output.
func (out *BlockExecOutput) Marshal() []byte {
	e := NewEncoder()
	e.Fixed(out.NewDAHeaderHash[:])
	e.Fixed(out.PrevDAHeaderHash[:])
	e.Uint64(out.NewRollupHeight)
	e.Fixed(out.NewRollupStateRoot[:])
	e.Uint64(out.TrustedRollupHeight)
	e.Fixed(out.TrustedRollupStateRoot[:])
	e.Fixed(out.Namespace[:])
	e.Fixed(out.SequencerPubKey[:])
	return e.Finish()
}

// Unmarshal decodes the canonical serialization into out.
func (out *BlockExecOutput) Unmarshal(data []byte) error {
	d := NewDecoder(data)
	var err error
	if out.NewDAHeaderHash, err = d.Fixed32(); err != nil {
		return fmt.Errorf("block exec output: %w", err)
	}
	if out.PrevDAHeaderHash, err = d.Fixed32(); err != nil {
		return fmt.Errorf("block exec output: %w", err)
	}
	if out.NewRollupHeight, err = d.Uint64(); err != nil {
		return fmt.Errorf("block exec output: %w", err)
	}
	if out.NewRollupStateRoot, err = d.Fixed32(); err != nil {
		return fmt.Errorf("block exec output: %w", err)
	}
	if out.TrustedRollupHeight, err = d.Uint64(); err != nil {
		return fmt.Errorf("block exec output: %w", err)
	}
	if out.TrustedRollupStateRoot, err = d.Fixed32(); err != nil {
		return fmt.Errorf("block exec output: %w", err)
	}
	ns, err := d.Fixed(NamespaceSize)
	if err != nil {
		return fmt.Errorf("block exec output: %w", err)
	}
	copy(out.Namespace[:], ns)
	if out.SequencerPubKey, err = d.Fixed32(); err != nil {
		return fmt.Errorf("block exec output: %w", err)
	}
	return d.Done()
}

func (out *BlockExecOutput) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "BlockExecOutput{\n")
	fmt.Fprintf(&b, "  da_header_hash: %s\n", hex.EncodeToString(out.NewDAHeaderHash[:]))
	fmt.Fprintf(&b, "  prev_da_header_hash: %s\n", hex.EncodeToString(out.PrevDAHeaderHash[:]))
	fmt.Fprintf(&b, "  new_height: %d\n", out.NewRollupHeight)
	fmt.Fprintf(&b, "  new_state_root: %s\n", hex.EncodeToString(out.NewRollupStateRoot[:]))
	fmt.Fprintf(&b, "  trusted_height: %d\n", out.TrustedRollupHeight)
	fmt.Fprintf(&b, "  trusted_state_root: %s\n", hex.EncodeToString(out.TrustedRollupStateRoot[:]))
	fmt.Fprintf(&b, "  namespace: %s\n", out.Namespace)
	fmt.Fprintf(&b, "  public_key: %s\n", hex.EncodeToString(out.SequencerPubKey[:]))
	fmt.Fprintf(&b, "}")
	return b.String()
}
