package server

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/cosmos/gogoproto/proto"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/celestiaorg/ev-prover/celestia"
	"github.com/celestiaorg/ev-prover/evm"
	"github.com/celestiaorg/ev-prover/prover/assembler"
	"github.com/celestiaorg/ev-prover/prover/backend"
	"github.com/celestiaorg/ev-prover/prover/pipeline"
	"github.com/celestiaorg/ev-prover/prover/registry"
	proverclient "github.com/celestiaorg/ev-prover/provers/client"
	"github.com/celestiaorg/ev-prover/types"
)

var sequencerPub, sequencerPriv, _ = ed25519.GenerateKey(nil)

// countingBackend counts Prove invocations over the mock backend.
type countingBackend struct {
	backend.Backend
	proves atomic.Int32
	// release blocks Prove until closed, so concurrent requests overlap.
	release chan struct{}
}

func (c *countingBackend) Prove(ctx context.Context, program string, input []byte, mode backend.ProofMode) (backend.Proof, error) {
	c.proves.Add(1)
	if c.release != nil {
		<-c.release
	}
	return c.Backend.Prove(ctx, program, input, mode)
}

type fakeDA struct{}

func headerRaw(h uint64) []byte { return []byte(fmt.Sprintf("header-%d", h)) }

func (fakeDA) Head(ctx context.Context) (uint64, error) { return 100, nil }

func (fakeDA) GetHeader(ctx context.Context, height uint64) (*celestia.Header, error) {
	hash := backend.MockDAHeaderHash(headerRaw(height))
	prev := backend.MockDAHeaderHash(headerRaw(height - 1))
	return &celestia.Header{
		Height: height, Hash: hash[:], PrevHash: prev[:], Raw: headerRaw(height),
	}, nil
}

func (fakeDA) GetBlobs(ctx context.Context, height uint64, ns types.Namespace) ([]celestia.BlobEntry, error) {
	data := &types.BlobData{Metadata: &types.BlobMetadata{Height: height * 10}, Txs: [][]byte{[]byte("tx")}}
	body, err := proto.Marshal(data)
	if err != nil {
		return nil, err
	}
	raw, err := proto.Marshal(&types.SignedData{Data: data, Signature: ed25519.Sign(sequencerPriv, body)})
	if err != nil {
		return nil, err
	}
	return []celestia.BlobEntry{{Data: raw}}, nil
}

func (fakeDA) GetNamespaceProofs(ctx context.Context, height uint64, ns types.Namespace) ([][]byte, error) {
	return [][]byte{[]byte("nsproof")}, nil
}

func (fakeDA) Subscribe(ctx context.Context) (<-chan uint64, error) { return nil, nil }
func (fakeDA) Close()                                               {}

type fakeRollup struct{}

func (fakeRollup) ExecutionWitness(ctx context.Context, number uint64, format types.WitnessFormat) ([]byte, error) {
	return []byte(fmt.Sprintf("wit-%d", number)), nil
}

func (fakeRollup) BlockByNumber(ctx context.Context, number uint64) (evm.BlockInfo, error) {
	return evm.BlockInfo{Number: number}, nil
}

func testServer(t *testing.T, bk backend.Backend) (*Server, *registry.Registry, *pipeline.CheckpointCell) {
	t.Helper()
	var key [32]byte
	copy(key[:], sequencerPub)
	asm := assembler.New(fakeDA{}, fakeRollup{}, assembler.Config{
		Format:          types.WitnessRsp,
		SequencerPubKey: key,
		RetryBudget:     1,
		RetryBaseDelay:  time.Millisecond,
		CallTimeout:     time.Second,
	}, log.NewNopLogger())

	reg := registry.New(time.Hour)
	cell := &pipeline.CheckpointCell{}
	cell.Store(types.TrustedCheckpoint{RollupHeight: 10, DAHeight: 19})

	return New(bk, reg, cell, asm, nil, nil, nil, log.NewNopLogger()), reg, cell
}

// Two concurrent Prove calls with identical parameters produce one backend
// invocation and two handles resolving to the same result.
func TestProveDeduplicates(t *testing.T) {
	bk := &countingBackend{Backend: backend.NewMock(), release: make(chan struct{})}
	srv, reg, _ := testServer(t, bk)

	ctx := context.Background()
	req := &proverclient.ProveRequest{Program: backend.ProgramBlockExec, DaHeight: 20}

	var wg sync.WaitGroup
	handles := make([]*proverclient.JobHandle, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := srv.Prove(ctx, req)
			errs[i] = err
			if err == nil {
				handles[i] = resp.Handle
			}
		}(i)
	}
	wg.Wait()
	close(bk.release)

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Equal(t, handles[0].Fingerprint, handles[1].Fingerprint)

	awaitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	a, err := srv.Await(awaitCtx, &proverclient.AwaitRequest{Handle: handles[0]})
	require.NoError(t, err)
	b, err := srv.Await(awaitCtx, &proverclient.AwaitRequest{Handle: handles[1]})
	require.NoError(t, err)
	require.Equal(t, a.Proof, b.Proof)

	require.Equal(t, int32(1), bk.proves.Load(), "identical requests must share one proving job")
	require.Equal(t, 1, reg.Len())
}

func TestProveUnknownProgram(t *testing.T) {
	srv, _, _ := testServer(t, backend.NewMock())
	_, err := srv.Prove(context.Background(), &proverclient.ProveRequest{Program: "bogus"})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestProveRangeRejected(t *testing.T) {
	srv, _, _ := testServer(t, backend.NewMock())
	_, err := srv.Prove(context.Background(), &proverclient.ProveRequest{Program: backend.ProgramRangeExec})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestAwaitUnknownJob(t *testing.T) {
	srv, _, _ := testServer(t, backend.NewMock())
	_, err := srv.Await(context.Background(), &proverclient.AwaitRequest{
		Handle: &proverclient.JobHandle{Program: "ev-exec", Fingerprint: fmt.Sprintf("%064x", 1)},
	})
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestAwaitMalformedHandle(t *testing.T) {
	srv, _, _ := testServer(t, backend.NewMock())
	_, err := srv.Await(context.Background(), &proverclient.AwaitRequest{
		Handle: &proverclient.JobHandle{Program: "ev-exec", Fingerprint: "zz"},
	})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestStatusReportsCheckpoint(t *testing.T) {
	srv, _, cell := testServer(t, backend.NewMock())
	cell.Store(types.TrustedCheckpoint{RollupHeight: 44, RollupStateRoot: [32]byte{7}, DAHeight: 90})

	resp, err := srv.Status(context.Background(), &proverclient.StatusRequest{})
	require.NoError(t, err)
	require.Equal(t, uint64(44), resp.TrustedRollupHeight)
	require.Equal(t, uint64(90), resp.TrustedDaHeight)
	require.Equal(t, byte(7), resp.TrustedStateRoot[0])
}

func TestInfoReportsVerifyingKeys(t *testing.T) {
	srv, _, _ := testServer(t, backend.NewMock())
	resp, err := srv.Info(context.Background(), &proverclient.InfoRequest{})
	require.NoError(t, err)
	require.Equal(t, "mock", resp.Backend)
	require.Len(t, resp.StateTransitionVerifierKey, 66)
	require.NotEqual(t, resp.StateTransitionVerifierKey, resp.RangeVerifierKey)
}

func TestFailedJobMapsToStatusCode(t *testing.T) {
	srv, reg, _ := testServer(t, backend.NewMock())

	key := registry.JobKey{Program: backend.ProgramBlockExec}
	key.Fingerprint[0] = 0xaa
	_, guard, fresh := reg.Claim(key)
	require.True(t, fresh)
	guard.Fail(fmt.Errorf("%w: stuck", backend.ErrProverNetwork))

	_, err := srv.Await(context.Background(), &proverclient.AwaitRequest{Handle: &proverclient.JobHandle{
		Program:     key.Program,
		Fingerprint: fmt.Sprintf("%x", key.Fingerprint),
	}})
	require.Equal(t, codes.Unavailable, status.Code(err))
}
