package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// chainOutputs builds n contiguous block-exec outputs anchored at trusted.
func chainOutputs(trusted TrustedCheckpoint, n int) []BlockExecOutput {
	outputs := make([]BlockExecOutput, 0, n)
	prevDA := trusted.DAHeaderHash
	height := trusted.RollupHeight
	root := trusted.RollupStateRoot
	for i := 0; i < n; i++ {
		var newDA, newRoot [32]byte
		newDA[0] = byte(i + 1)
		newRoot[0] = byte(0x80 + i)
		out := BlockExecOutput{
			NewDAHeaderHash:        newDA,
			PrevDAHeaderHash:       prevDA,
			NewRollupHeight:        height + 1,
			NewRollupStateRoot:     newRoot,
			TrustedRollupHeight:    height,
			TrustedRollupStateRoot: root,
		}
		outputs = append(outputs, out)
		prevDA = newDA
		height++
		root = newRoot
	}
	return outputs
}

func rangeInput(outputs []BlockExecOutput) *RangeExecInput {
	in := &RangeExecInput{}
	for i, out := range outputs {
		in.Elements = append(in.Elements, RangeExecElement{
			VerifyingKey: [32]byte{byte(i)},
			Output:       out,
			Proof:        []byte{byte(i), byte(i)},
		})
	}
	return in
}

func TestRangeValidateOK(t *testing.T) {
	trusted := TrustedCheckpoint{RollupHeight: 10, RollupStateRoot: [32]byte{1}, DAHeaderHash: [32]byte{2}}
	in := rangeInput(chainOutputs(trusted, 3))
	require.NoError(t, in.Validate(trusted))
}

func TestRangeValidateSingleElement(t *testing.T) {
	trusted := TrustedCheckpoint{RollupHeight: 5, RollupStateRoot: [32]byte{1}, DAHeaderHash: [32]byte{2}}
	in := rangeInput(chainOutputs(trusted, 1))
	require.NoError(t, in.Validate(trusted))
}

func TestRangeValidateEmpty(t *testing.T) {
	in := &RangeExecInput{}
	require.Error(t, in.Validate(TrustedCheckpoint{}))
}

func TestRangeValidateWrongAnchor(t *testing.T) {
	trusted := TrustedCheckpoint{RollupHeight: 10, RollupStateRoot: [32]byte{1}, DAHeaderHash: [32]byte{2}}
	in := rangeInput(chainOutputs(trusted, 2))

	other := trusted
	other.RollupStateRoot = [32]byte{0xff}
	err := in.Validate(other)
	require.ErrorIs(t, err, ErrContinuity)
}

func TestRangeValidateBrokenStateRoot(t *testing.T) {
	trusted := TrustedCheckpoint{RollupHeight: 10, RollupStateRoot: [32]byte{1}, DAHeaderHash: [32]byte{2}}
	outputs := chainOutputs(trusted, 3)
	outputs[2].TrustedRollupStateRoot = [32]byte{0xee}
	err := rangeInput(outputs).Validate(trusted)
	require.ErrorIs(t, err, ErrContinuity)
}

func TestRangeValidateBrokenDAChain(t *testing.T) {
	trusted := TrustedCheckpoint{RollupHeight: 10, RollupStateRoot: [32]byte{1}, DAHeaderHash: [32]byte{2}}
	outputs := chainOutputs(trusted, 3)
	outputs[1].PrevDAHeaderHash = [32]byte{0xdd}
	err := rangeInput(outputs).Validate(trusted)
	require.ErrorIs(t, err, ErrContinuity)
}

func TestRangeInputRoundTrip(t *testing.T) {
	trusted := TrustedCheckpoint{RollupHeight: 3, RollupStateRoot: [32]byte{1}, DAHeaderHash: [32]byte{2}}
	in := rangeInput(chainOutputs(trusted, 2))

	var out RangeExecInput
	require.NoError(t, out.Unmarshal(in.Marshal()))
	require.Equal(t, *in, out)
	require.Equal(t, in.Fingerprint(), out.Fingerprint())
}

func TestRangeOutputRoundTrip(t *testing.T) {
	out := &RangeExecOutput{
		DAHeaderHash:           [32]byte{1},
		TrustedRollupHeight:    10,
		TrustedRollupStateRoot: [32]byte{2},
		NewRollupHeight:        20,
		NewRollupStateRoot:     [32]byte{3},
		Namespace:              testNamespace(),
		SequencerPubKey:        [32]byte{4},
	}
	var decoded RangeExecOutput
	require.NoError(t, decoded.Unmarshal(out.Marshal()))
	require.Equal(t, *out, decoded)
}
