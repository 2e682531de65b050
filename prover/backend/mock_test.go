package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/ev-prover/types"
	"github.com/celestiaorg/ev-prover/types/hyperlane"
)

func testNamespace() types.Namespace {
	var ns types.Namespace
	ns[0] = 1
	return ns
}

func TestMockBlockExecEmptyBlock(t *testing.T) {
	bk := NewMock()
	trusted := types.TrustedCheckpoint{
		RollupHeight:    10,
		RollupStateRoot: [32]byte{1},
		DAHeaderHash:    [32]byte{2},
		DAHeight:        11,
	}
	in := &types.BlockExecInput{
		HeaderRaw:     []byte("header-12"),
		Namespace:     testNamespace(),
		WitnessFormat: types.WitnessRsp,
		Checkpoint:    trusted,
	}

	proof, err := bk.Prove(context.Background(), ProgramBlockExec, in.Marshal(), ModeCompressed)
	require.NoError(t, err)

	var out types.BlockExecOutput
	require.NoError(t, out.Unmarshal(proof.PublicOutputs))

	// An empty namespace still advances the DA header hash while leaving
	// the rollup state untouched.
	require.Equal(t, trusted.RollupStateRoot, out.NewRollupStateRoot)
	require.Equal(t, trusted.RollupHeight, out.NewRollupHeight)
	require.Equal(t, trusted.DAHeaderHash, out.PrevDAHeaderHash)
	require.Equal(t, MockDAHeaderHash([]byte("header-12")), out.NewDAHeaderHash)
}

func TestMockBlockExecAdvancesState(t *testing.T) {
	bk := NewMock()
	in := &types.BlockExecInput{
		HeaderRaw:     []byte("header"),
		Namespace:     testNamespace(),
		Blobs:         [][]byte{[]byte("blob")},
		WitnessFormat: types.WitnessRsp,
		Witnesses:     [][]byte{[]byte("w-101")},
		RollupHeights: []uint64{101},
		Checkpoint:    types.TrustedCheckpoint{RollupHeight: 100},
	}
	proof, err := bk.Prove(context.Background(), ProgramBlockExec, in.Marshal(), ModeCompressed)
	require.NoError(t, err)

	var out types.BlockExecOutput
	require.NoError(t, out.Unmarshal(proof.PublicOutputs))
	require.Equal(t, uint64(101), out.NewRollupHeight)
	require.Equal(t, MockStateRoot([]byte("w-101")), out.NewRollupStateRoot)
}

func TestMockRangeExec(t *testing.T) {
	bk := NewMock()
	first := types.BlockExecOutput{
		NewDAHeaderHash:        [32]byte{11},
		PrevDAHeaderHash:       [32]byte{10},
		NewRollupHeight:        21,
		NewRollupStateRoot:     [32]byte{21},
		TrustedRollupHeight:    20,
		TrustedRollupStateRoot: [32]byte{20},
	}
	second := types.BlockExecOutput{
		NewDAHeaderHash:        [32]byte{12},
		PrevDAHeaderHash:       [32]byte{11},
		NewRollupHeight:        22,
		NewRollupStateRoot:     [32]byte{22},
		TrustedRollupHeight:    21,
		TrustedRollupStateRoot: [32]byte{21},
	}
	in := &types.RangeExecInput{Elements: []types.RangeExecElement{
		{Output: first, Proof: []byte{1}},
		{Output: second, Proof: []byte{2}},
	}}

	proof, err := bk.Prove(context.Background(), ProgramRangeExec, in.Marshal(), ModeGroth16)
	require.NoError(t, err)

	var out types.RangeExecOutput
	require.NoError(t, out.Unmarshal(proof.PublicOutputs))
	require.Equal(t, uint64(20), out.TrustedRollupHeight)
	require.Equal(t, uint64(22), out.NewRollupHeight)
	require.Equal(t, [32]byte{22}, out.NewRollupStateRoot)
	require.Equal(t, [32]byte{12}, out.DAHeaderHash)
}

func TestMockRangeExecContinuityViolation(t *testing.T) {
	bk := NewMock()
	first := types.BlockExecOutput{NewRollupStateRoot: [32]byte{1}, NewRollupHeight: 1}
	second := types.BlockExecOutput{TrustedRollupStateRoot: [32]byte{9}, TrustedRollupHeight: 1}
	in := &types.RangeExecInput{Elements: []types.RangeExecElement{
		{Output: first}, {Output: second},
	}}

	_, err := bk.Prove(context.Background(), ProgramRangeExec, in.Marshal(), ModeGroth16)
	require.ErrorIs(t, err, ErrGuestPanic)
}

func TestMockMessageInclusion(t *testing.T) {
	bk := NewMock()
	msg := hyperlane.Message{Version: 3, Nonce: 0, Body: []byte("hi")}
	in := &hyperlane.InclusionInput{
		TargetStateRoot: [32]byte{5},
		Messages:        []hyperlane.Message{msg},
	}
	proof, err := bk.Prove(context.Background(), ProgramMessageInclusion, in.Marshal(), ModeGroth16)
	require.NoError(t, err)

	var out hyperlane.InclusionOutput
	require.NoError(t, out.Unmarshal(proof.PublicOutputs))
	require.Equal(t, [32]byte{5}, out.TargetStateRoot)
	require.Equal(t, [][32]byte{msg.ID()}, out.MessageIDs)
}

func TestMockUnknownProgram(t *testing.T) {
	bk := NewMock()
	_, err := bk.Prove(context.Background(), "nope", nil, ModeDefault)
	require.ErrorIs(t, err, ErrUnknownProgram)
}

func TestMockVerifyingKeysStable(t *testing.T) {
	bk := NewMock()
	a, err := bk.VerifyingKey(ProgramBlockExec)
	require.NoError(t, err)
	b, err := NewMock().VerifyingKey(ProgramBlockExec)
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := bk.VerifyingKey(ProgramRangeExec)
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestMockProveVerify(t *testing.T) {
	bk := NewMock()
	in := &types.BlockExecInput{HeaderRaw: []byte("h"), Checkpoint: types.TrustedCheckpoint{}}
	proof, err := bk.Prove(context.Background(), ProgramBlockExec, in.Marshal(), ModeDefault)
	require.NoError(t, err)
	ok, err := bk.Verify(context.Background(), ProgramBlockExec, proof)
	require.NoError(t, err)
	require.True(t, ok)
}
