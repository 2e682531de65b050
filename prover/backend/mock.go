package backend

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/celestiaorg/ev-prover/types"
	"github.com/celestiaorg/ev-prover/types/hyperlane"
)

// MockBackend executes the guest semantics natively and emits placeholder
// proof bytes. It exists for development mode and tests; it provides no
// security. Public outputs match what the real guests commit for the same
// logical input, so the pipelines behave identically under it.
type MockBackend struct{}

func NewMock() *MockBackend { return &MockBackend{} }

func (b *MockBackend) Name() string { return "mock" }

func (b *MockBackend) Prove(ctx context.Context, program string, input []byte, mode ProofMode) (Proof, error) {
	if err := ctx.Err(); err != nil {
		return Proof{}, err
	}
	var public []byte
	var err error
	switch program {
	case ProgramBlockExec:
		public, err = mockBlockExec(input)
	case ProgramRangeExec:
		public, err = mockRangeExec(input)
	case ProgramMessageInclusion:
		public, err = mockMessageInclusion(input)
	default:
		return Proof{}, fmt.Errorf("%w: %s", ErrUnknownProgram, program)
	}
	if err != nil {
		return Proof{}, fmt.Errorf("%w: %v", ErrGuestPanic, err)
	}
	digest := sha256.Sum256(append([]byte(program+"/"+mode.String()), input...))
	return Proof{ProofBytes: digest[:], PublicOutputs: public}, nil
}

func (b *MockBackend) VerifyingKey(program string) ([32]byte, error) {
	switch program {
	case ProgramBlockExec, ProgramRangeExec, ProgramMessageInclusion:
		return digestProgram(b.Name(), program), nil
	default:
		return [32]byte{}, fmt.Errorf("%w: %s", ErrUnknownProgram, program)
	}
}

func (b *MockBackend) Verify(ctx context.Context, program string, proof Proof) (bool, error) {
	return len(proof.ProofBytes) == sha256.Size, nil
}

// MockDAHeaderHash is the header-hash derivation the mock guest commits:
// real guests commit the DA header's merkle hash, the mock digests the raw
// header bytes. Test fixtures use the same derivation.
func MockDAHeaderHash(headerRaw []byte) [32]byte {
	return sha256.Sum256(headerRaw)
}

// MockStateRoot derives the post-state root the mock guest commits for an
// execution witness.
func MockStateRoot(witness []byte) [32]byte {
	return sha256.Sum256(append([]byte("state/"), witness...))
}

func mockBlockExec(raw []byte) ([]byte, error) {
	var in types.BlockExecInput
	if err := in.Unmarshal(raw); err != nil {
		return nil, err
	}
	out := types.BlockExecOutput{
		NewDAHeaderHash:        MockDAHeaderHash(in.HeaderRaw),
		PrevDAHeaderHash:       in.Checkpoint.DAHeaderHash,
		TrustedRollupHeight:    in.Checkpoint.RollupHeight,
		TrustedRollupStateRoot: in.Checkpoint.RollupStateRoot,
		NewRollupHeight:        in.Checkpoint.RollupHeight,
		NewRollupStateRoot:     in.Checkpoint.RollupStateRoot,
		Namespace:              in.Namespace,
		SequencerPubKey:        in.SequencerPubKey,
	}
	if !in.IsEmpty() {
		if len(in.Witnesses) != len(in.RollupHeights) {
			return nil, fmt.Errorf("witness count %d != height count %d", len(in.Witnesses), len(in.RollupHeights))
		}
		out.NewRollupHeight = in.RollupHeights[len(in.RollupHeights)-1]
		out.NewRollupStateRoot = MockStateRoot(in.Witnesses[len(in.Witnesses)-1])
	}
	return out.Marshal(), nil
}

func mockRangeExec(raw []byte) ([]byte, error) {
	var in types.RangeExecInput
	if err := in.Unmarshal(raw); err != nil {
		return nil, err
	}
	if len(in.Elements) == 0 {
		return nil, fmt.Errorf("empty range")
	}
	first := in.Elements[0].Output
	trusted := types.TrustedCheckpoint{
		RollupHeight:    first.TrustedRollupHeight,
		RollupStateRoot: first.TrustedRollupStateRoot,
		DAHeaderHash:    first.PrevDAHeaderHash,
	}
	if err := in.Validate(trusted); err != nil {
		return nil, err
	}
	last := in.Elements[len(in.Elements)-1].Output
	out := types.RangeExecOutput{
		DAHeaderHash:           last.NewDAHeaderHash,
		TrustedRollupHeight:    first.TrustedRollupHeight,
		TrustedRollupStateRoot: first.TrustedRollupStateRoot,
		NewRollupHeight:        last.NewRollupHeight,
		NewRollupStateRoot:     last.NewRollupStateRoot,
		Namespace:              last.Namespace,
		SequencerPubKey:        last.SequencerPubKey,
	}
	return out.Marshal(), nil
}

func mockMessageInclusion(raw []byte) ([]byte, error) {
	var in hyperlane.InclusionInput
	if err := in.Unmarshal(raw); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	out := hyperlane.InclusionOutput{TargetStateRoot: in.TargetStateRoot}
	for i := range in.Messages {
		out.MessageIDs = append(out.MessageIDs, in.Messages[i].ID())
	}
	return out.Marshal(), nil
}
