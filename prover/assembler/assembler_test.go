package assembler

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/cosmos/gogoproto/proto"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/ev-prover/celestia"
	"github.com/celestiaorg/ev-prover/evm"
	"github.com/celestiaorg/ev-prover/prover/backend"
	"github.com/celestiaorg/ev-prover/types"
)

type fakeDA struct {
	headers map[uint64]*celestia.Header
	blobs   map[uint64][]celestia.BlobEntry
	proofs  map[uint64][][]byte

	headerErrs atomic.Int32
}

func (f *fakeDA) Head(ctx context.Context) (uint64, error) { return 0, nil }

func (f *fakeDA) GetHeader(ctx context.Context, height uint64) (*celestia.Header, error) {
	if f.headerErrs.Add(-1) >= 0 {
		return nil, fmt.Errorf("connection refused")
	}
	h, ok := f.headers[height]
	if !ok {
		return nil, fmt.Errorf("header %d not found", height)
	}
	return h, nil
}

func (f *fakeDA) GetBlobs(ctx context.Context, height uint64, ns types.Namespace) ([]celestia.BlobEntry, error) {
	return f.blobs[height], nil
}

func (f *fakeDA) GetNamespaceProofs(ctx context.Context, height uint64, ns types.Namespace) ([][]byte, error) {
	return f.proofs[height], nil
}

func (f *fakeDA) Subscribe(ctx context.Context) (<-chan uint64, error) { return nil, nil }
func (f *fakeDA) Close()                                               {}

type fakeRollup struct {
	witnessErrs atomic.Int32
}

func (f *fakeRollup) ExecutionWitness(ctx context.Context, number uint64, format types.WitnessFormat) ([]byte, error) {
	if f.witnessErrs.Add(-1) >= 0 {
		return nil, fmt.Errorf("connection refused")
	}
	return []byte(fmt.Sprintf("wit-%d-%s", number, format)), nil
}

func (f *fakeRollup) BlockByNumber(ctx context.Context, number uint64) (evm.BlockInfo, error) {
	return evm.BlockInfo{
		Number:    number,
		StateRoot: backend.MockStateRoot([]byte(fmt.Sprintf("wit-%d-rsp", number))),
	}, nil
}

var sequencerPub, sequencerPriv, _ = ed25519.GenerateKey(nil)

func sequencerKey() [32]byte {
	var key [32]byte
	copy(key[:], sequencerPub)
	return key
}

func signedBlob(t *testing.T, height uint64) []byte {
	t.Helper()
	data := &types.BlobData{Metadata: &types.BlobMetadata{Height: height}, Txs: [][]byte{[]byte("tx")}}
	body, err := proto.Marshal(data)
	require.NoError(t, err)
	raw, err := proto.Marshal(&types.SignedData{Data: data, Signature: ed25519.Sign(sequencerPriv, body)})
	require.NoError(t, err)
	return raw
}

func header(height uint64, hash, prev byte) *celestia.Header {
	return &celestia.Header{
		Height:      height,
		Hash:        []byte{hash},
		PrevHash:    []byte{prev},
		Raw:         []byte(fmt.Sprintf("raw-%d", height)),
		RowRoots:    [][]byte{{1}},
		ColumnRoots: [][]byte{{2}},
	}
}

func testAssembler(da *fakeDA, rollup *fakeRollup) *Assembler {
	return New(da, rollup, Config{
		Format:          types.WitnessRsp,
		Namespace:       types.Namespace{1},
		SequencerPubKey: sequencerKey(),
		RetryBudget:     3,
		RetryBaseDelay:  time.Millisecond,
		CallTimeout:     time.Second,
	}, log.NewNopLogger())
}

func TestAssembleEmptyNamespace(t *testing.T) {
	da := &fakeDA{headers: map[uint64]*celestia.Header{12: header(12, 0x12, 0x11)}}
	asm := testAssembler(da, &fakeRollup{})

	trusted := types.TrustedCheckpoint{RollupHeight: 5, DAHeight: 11}
	trusted.DAHeaderHash[0] = 0x11

	got, err := asm.Assemble(context.Background(), 12, trusted, []byte{0x11})
	require.NoError(t, err)
	require.True(t, got.Input.IsEmpty())
	require.Equal(t, trusted, got.Input.Checkpoint)

	// The null transition advances only the DA side of the checkpoint.
	require.Equal(t, uint64(5), got.NextCheckpoint.RollupHeight)
	require.Equal(t, uint64(12), got.NextCheckpoint.DAHeight)
	require.Equal(t, byte(0x12), got.NextCheckpoint.DAHeaderHash[0])
}

func TestAssembleWithBlobs(t *testing.T) {
	da := &fakeDA{
		headers: map[uint64]*celestia.Header{20: header(20, 0x20, 0x1f)},
		blobs: map[uint64][]celestia.BlobEntry{20: {
			{Data: signedBlob(t, 101)},
			{Data: signedBlob(t, 102)},
		}},
		proofs: map[uint64][][]byte{20: {[]byte("nsproof-0")}},
	}
	rollup := &fakeRollup{}
	asm := testAssembler(da, rollup)

	trusted := types.TrustedCheckpoint{RollupHeight: 100, DAHeight: 19}
	got, err := asm.Assemble(context.Background(), 20, trusted, nil)
	require.NoError(t, err)

	require.Equal(t, []uint64{101, 102}, got.Input.RollupHeights)
	require.Len(t, got.Input.Witnesses, 2)
	require.Equal(t, []byte("wit-101-rsp"), got.Input.Witnesses[0])
	require.Equal(t, [][]byte{[]byte("nsproof-0")}, got.Input.ShareProofs)

	require.Equal(t, uint64(102), got.NextCheckpoint.RollupHeight)
	require.Equal(t, backend.MockStateRoot([]byte("wit-102-rsp")), got.NextCheckpoint.RollupStateRoot)
}

func TestAssembleHeaderMismatch(t *testing.T) {
	da := &fakeDA{headers: map[uint64]*celestia.Header{12: header(12, 0x12, 0x11)}}
	asm := testAssembler(da, &fakeRollup{})

	_, err := asm.Assemble(context.Background(), 12, types.TrustedCheckpoint{}, []byte{0x99})
	require.ErrorIs(t, err, ErrHeaderMismatch)
}

func TestAssembleMalformedBlob(t *testing.T) {
	da := &fakeDA{
		headers: map[uint64]*celestia.Header{12: header(12, 0x12, 0x11)},
		blobs:   map[uint64][]celestia.BlobEntry{12: {{Data: []byte("garbage")}}},
	}
	asm := testAssembler(da, &fakeRollup{})

	_, err := asm.Assemble(context.Background(), 12, types.TrustedCheckpoint{}, nil)
	require.ErrorIs(t, err, ErrMalformedBlob)
}

func TestAssembleBadSignature(t *testing.T) {
	data := &types.BlobData{Metadata: &types.BlobMetadata{Height: 5}}
	raw, err := proto.Marshal(&types.SignedData{Data: data, Signature: make([]byte, ed25519.SignatureSize)})
	require.NoError(t, err)

	da := &fakeDA{
		headers: map[uint64]*celestia.Header{12: header(12, 0x12, 0x11)},
		blobs:   map[uint64][]celestia.BlobEntry{12: {{Data: raw}}},
	}
	asm := testAssembler(da, &fakeRollup{})

	_, err = asm.Assemble(context.Background(), 12, types.TrustedCheckpoint{}, nil)
	require.ErrorIs(t, err, ErrMalformedBlob)
}

func TestAssembleRetriesTransientHeaderFailure(t *testing.T) {
	da := &fakeDA{headers: map[uint64]*celestia.Header{12: header(12, 0x12, 0x11)}}
	da.headerErrs.Store(2)
	asm := testAssembler(da, &fakeRollup{})

	got, err := asm.Assemble(context.Background(), 12, types.TrustedCheckpoint{}, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(12), got.DAHeight)
}

func TestAssembleWitnessFetchExhausted(t *testing.T) {
	da := &fakeDA{
		headers: map[uint64]*celestia.Header{12: header(12, 0x12, 0x11)},
		blobs:   map[uint64][]celestia.BlobEntry{12: {{Data: signedBlob(t, 50)}}},
	}
	rollup := &fakeRollup{}
	rollup.witnessErrs.Store(100)
	asm := testAssembler(da, rollup)

	_, err := asm.Assemble(context.Background(), 12, types.TrustedCheckpoint{}, nil)
	require.ErrorIs(t, err, ErrWitnessFetch)
}
