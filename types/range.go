package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrContinuity reports a broken link between consecutive block-execution
// outputs fed into range aggregation. It is fatal for the pipeline that
// detects it.
var ErrContinuity = errors.New("continuity violation")

// RangeExecElement pairs one block-execution proof with its verifying key
// and public output for recursive aggregation.
type RangeExecElement struct {
	VerifyingKey [32]byte
	Output       BlockExecOutput
	Proof        []byte
}

// RangeExecInput is the input record for the range-aggregation program:
// an ordered sequence of block-execution results whose DA headers and
// rollup state roots form an unbroken chain from the on-chain trusted
// checkpoint.
type RangeExecInput struct {
	Elements []RangeExecElement
}

// Validate checks the continuity invariants: element i's previous DA
// header hash must equal element i-1's new DA header hash, and element
// i's trusted rollup state root must equal element i-1's new rollup state
// root. The first element must anchor at the provided checkpoint.
func (in *RangeExecInput) Validate(trusted TrustedCheckpoint) error {
	if len(in.Elements) == 0 {
		return fmt.Errorf("range exec input: empty element sequence")
	}
	first := in.Elements[0].Output
	if first.TrustedRollupHeight != trusted.RollupHeight {
		return fmt.Errorf("%w: first element trusted height %d != checkpoint height %d",
			ErrContinuity, first.TrustedRollupHeight, trusted.RollupHeight)
	}
	if first.TrustedRollupStateRoot != trusted.RollupStateRoot {
		return fmt.Errorf("%w: first element trusted root %x != checkpoint root %x",
			ErrContinuity, first.TrustedRollupStateRoot, trusted.RollupStateRoot)
	}
	if first.PrevDAHeaderHash != trusted.DAHeaderHash {
		return fmt.Errorf("%w: first element prev DA header %x != checkpoint DA header %x",
			ErrContinuity, first.PrevDAHeaderHash, trusted.DAHeaderHash)
	}
	for i := 1; i < len(in.Elements); i++ {
		prev, cur := in.Elements[i-1].Output, in.Elements[i].Output
		if cur.PrevDAHeaderHash != prev.NewDAHeaderHash {
			return fmt.Errorf("%w: element %d prev DA header %x != element %d new DA header %x",
				ErrContinuity, i, cur.PrevDAHeaderHash, i-1, prev.NewDAHeaderHash)
		}
		if cur.TrustedRollupStateRoot != prev.NewRollupStateRoot {
			return fmt.Errorf("%w: element %d trusted root %x != element %d new root %x",
				ErrContinuity, i, cur.TrustedRollupStateRoot, i-1, prev.NewRollupStateRoot)
		}
		if cur.TrustedRollupHeight != prev.NewRollupHeight {
			return fmt.Errorf("%w: element %d trusted height %d != element %d new height %d",
				ErrContinuity, i, cur.TrustedRollupHeight, i-1, prev.NewRollupHeight)
		}
	}
	return nil
}

// Marshal returns the canonical serialization of the input.
func (in *RangeExecInput) Marshal() []byte {
	e := NewEncoder()
	e.Uint64(uint64(len(in.Elements)))
	for i := range in.Elements {
		el := &in.Elements[i]
		e.Fixed(el.VerifyingKey[:])
		e.Bytes(el.Output.Marshal())
		e.Bytes(el.Proof)
	}
	return e.Finish()
}

// Unmarshal decodes the canonical serialization into in.
func (in *RangeExecInput) Unmarshal(data []byte) error {
	d := NewDecoder(data)
	n, err := d.Uint64()
	if err != nil {
		return fmt.Errorf("range exec input: %w", err)
	}
	in.Elements = make([]RangeExecElement, 0, n)
	for i := uint64(0); i < n; i++ {
		var el RangeExecElement
		if el.VerifyingKey, err = d.Fixed32(); err != nil {
			return fmt.Errorf("range exec input: %w", err)
		}
		outRaw, err := d.Bytes()
		if err != nil {
			return fmt.Errorf("range exec input: %w", err)
		}
		if err := el.Output.Unmarshal(outRaw); err != nil {
			return fmt.Errorf("range exec input: %w", err)
		}
		if el.Proof, err = d.Bytes(); err != nil {
			return fmt.Errorf("range exec input: %w", err)
		}
		in.Elements = append(in.Elements, el)
	}
	return d.Done()
}

// Fingerprint is the sha256 digest of the canonical serialization.
func (in *RangeExecInput) Fingerprint() [32]byte {
	return sha256.Sum256(in.Marshal())
}

// RangeExecOutput is the public output committed by the range-aggregation
// program: the advanced trusted checkpoint plus the final DA header hash.
type RangeExecOutput struct {
	// DAHeaderHash is the hash of the DA header at which NewRollupHeight
	// is available.
	DAHeaderHash [32]byte
	// TrustedRollupHeight is the rollup height the range started from.
	TrustedRollupHeight uint64
	// TrustedRollupStateRoot is the state root the range started from.
	TrustedRollupStateRoot [32]byte
	// NewRollupHeight is the rollup height after N state transitions.
	NewRollupHeight uint64
	// NewRollupStateRoot is the computed state root at NewRollupHeight.
	NewRollupStateRoot [32]byte
	// Namespace is the DA namespace containing the blob data.
	Namespace Namespace
	// SequencerPubKey verified the blob signatures.
	SequencerPubKey [32]byte
}

// Marshal returns the canonical serialization of the output.
func (out *RangeExecOutput) Marshal() []byte {
	e := NewEncoder()
	e.Fixed(out.DAHeaderHash[:])
	e.Uint64(out.TrustedRollupHeight)
	e.Fixed(out.TrustedRollupStateRoot[:])
	e.Uint64(out.NewRollupHeight)
	e.Fixed(out.NewRollupStateRoot[:])
	e.Fixed(out.Namespace[:])
	e.Fixed(out.SequencerPubKey[:])
	return e.Finish()
}

// Unmarshal decodes the canonical serialization into out.
func (out *RangeExecOutput) Unmarshal(data []byte) error {
	d := NewDecoder(data)
	var err error
	if out.DAHeaderHash, err = d.Fixed32(); err != nil {
		return fmt.Errorf("range exec output: %w", err)
	}
	if out.TrustedRollupHeight, err = d.Uint64(); err != nil {
		return fmt.Errorf("range exec output: %w", err)
	}
	if out.TrustedRollupStateRoot, err = d.Fixed32(); err != nil {
		return fmt.Errorf("range exec output: %w", err)
	}
	if out.NewRollupHeight, err = d.Uint64(); err != nil {
		return fmt.Errorf("range exec output: %w", err)
	}
	if out.NewRollupStateRoot, err = d.Fixed32(); err != nil {
		return fmt.Errorf("range exec output: %w", err)
	}
	ns, err := d.Fixed(NamespaceSize)
	if err != nil {
		return fmt.Errorf("range exec output: %w", err)
	}
	copy(out.Namespace[:], ns)
	if out.SequencerPubKey, err = d.Fixed32(); err != nil {
		return fmt.Errorf("range exec output: %w", err)
	}
	return d.Done()
}

func (out *RangeExecOutput) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "RangeExecOutput{\n")
	fmt.Fprintf(&b, "  da_header_hash: %s\n", hex.EncodeToString(out.DAHeaderHash[:]))
	fmt.Fprintf(&b, "  trusted_height: %d\n", out.TrustedRollupHeight)
	fmt.Fprintf(&b, "  trusted_state_root: %s\n", hex.EncodeToString(out.TrustedRollupStateRoot[:]))
	fmt.Fprintf(&b, "  new_height: %d\n", out.NewRollupHeight)
	fmt.Fprintf(&b, "  new_state_root: %s\n", hex.EncodeToString(out.NewRollupStateRoot[:]))
	fmt.Fprintf(&b, "  namespace: %s\n", out.Namespace)
	fmt.Fprintf(&b, "}")
	return b.String()
}
