package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testNamespace() Namespace {
	var ns Namespace
	for i := range ns {
		ns[i] = byte(i)
	}
	return ns
}

func testInput() *BlockExecInput {
	return &BlockExecInput{
		HeaderRaw:       []byte("da-header"),
		DAHRowRoots:     [][]byte{{1, 1}, {2, 2}},
		DAHColumnRoots:  [][]byte{{3, 3}},
		Namespace:       testNamespace(),
		SequencerPubKey: [32]byte{9},
		Blobs:           [][]byte{[]byte("blob-a"), []byte("blob-b")},
		ShareProofs:     [][]byte{[]byte("proof-row-0")},
		WitnessFormat:   WitnessRsp,
		Witnesses:       [][]byte{[]byte("w1"), []byte("w2")},
		RollupHeights:   []uint64{101, 102},
		Checkpoint: TrustedCheckpoint{
			RollupHeight:    100,
			RollupStateRoot: [32]byte{7},
			DAHeaderHash:    [32]byte{8},
			DAHeight:        19,
		},
	}
}

func TestBlockExecInputRoundTrip(t *testing.T) {
	in := testInput()
	raw := in.Marshal()

	var out BlockExecInput
	require.NoError(t, out.Unmarshal(raw))
	require.Equal(t, *in, out)
	require.Equal(t, raw, out.Marshal())
}

func TestBlockExecInputFingerprint(t *testing.T) {
	a := testInput()
	b := testInput()
	require.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.RollupHeights[1] = 103
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestBlockExecInputEmpty(t *testing.T) {
	in := &BlockExecInput{
		HeaderRaw:     []byte("header"),
		Namespace:     testNamespace(),
		WitnessFormat: WitnessZeth,
	}
	require.True(t, in.IsEmpty())

	var out BlockExecInput
	require.NoError(t, out.Unmarshal(in.Marshal()))
	require.True(t, out.IsEmpty())
	require.Equal(t, WitnessZeth, out.WitnessFormat)
}

func TestBlockExecInputRejectsTrailing(t *testing.T) {
	raw := append(testInput().Marshal(), 0xff)
	var out BlockExecInput
	require.Error(t, out.Unmarshal(raw))
}

func TestBlockExecOutputRoundTrip(t *testing.T) {
	out := &BlockExecOutput{
		NewDAHeaderHash:        [32]byte{1},
		PrevDAHeaderHash:       [32]byte{2},
		NewRollupHeight:        42,
		NewRollupStateRoot:     [32]byte{3},
		TrustedRollupHeight:    40,
		TrustedRollupStateRoot: [32]byte{4},
		Namespace:              testNamespace(),
		SequencerPubKey:        [32]byte{5},
	}
	var decoded BlockExecOutput
	require.NoError(t, decoded.Unmarshal(out.Marshal()))
	require.Equal(t, *out, decoded)
}

func TestNamespaceFromHex(t *testing.T) {
	ns := testNamespace()
	parsed, err := NamespaceFromHex(ns.String())
	require.NoError(t, err)
	require.Equal(t, ns, parsed)

	_, err = NamespaceFromHex("abcd")
	require.Error(t, err)

	_, err = NamespaceFromHex("zz")
	require.Error(t, err)
}
