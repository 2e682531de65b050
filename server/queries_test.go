package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/celestiaorg/ev-prover/prover/backend"
	"github.com/celestiaorg/ev-prover/prover/pipeline"
	"github.com/celestiaorg/ev-prover/prover/registry"
	proverclient "github.com/celestiaorg/ev-prover/provers/client"
	"github.com/celestiaorg/ev-prover/store"
)

func testServerWithStore(t *testing.T) (*Server, *store.ProofStore) {
	t.Helper()
	proofs, err := store.Open(filepath.Join(t.TempDir(), "proofs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { proofs.Close() })

	srv := New(backend.NewMock(), registry.New(time.Hour), &pipeline.CheckpointCell{}, nil, nil, proofs, nil, log.NewNopLogger())
	return srv, proofs
}

func TestGetBlockProof(t *testing.T) {
	srv, proofs := testServerWithStore(t)
	require.NoError(t, proofs.PutBlockProof(100, []byte{1, 2, 3, 4}, []byte{5, 6, 7, 8}))

	resp, err := srv.GetBlockProof(context.Background(), &proverclient.GetBlockProofRequest{CelestiaHeight: 100})
	require.NoError(t, err)
	require.Equal(t, uint64(100), resp.Proof.CelestiaHeight)
	require.Equal(t, []byte{1, 2, 3, 4}, resp.Proof.ProofData)
	require.Equal(t, []byte{5, 6, 7, 8}, resp.Proof.PublicValues)

	_, err = srv.GetBlockProof(context.Background(), &proverclient.GetBlockProofRequest{CelestiaHeight: 999})
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestGetBlockProofsInRange(t *testing.T) {
	srv, proofs := testServerWithStore(t)
	for _, h := range []uint64{30, 31, 32, 33, 34, 35} {
		require.NoError(t, proofs.PutBlockProof(h, []byte{byte(h)}, nil))
	}

	resp, err := srv.GetBlockProofsInRange(context.Background(), &proverclient.GetBlockProofsInRangeRequest{
		StartHeight: 31, EndHeight: 34,
	})
	require.NoError(t, err)
	require.Len(t, resp.Proofs, 4)
	require.Equal(t, uint64(31), resp.Proofs[0].CelestiaHeight)
	require.Equal(t, uint64(34), resp.Proofs[3].CelestiaHeight)
}

func TestGetLatestBlockProof(t *testing.T) {
	srv, proofs := testServerWithStore(t)

	_, err := srv.GetLatestBlockProof(context.Background(), &proverclient.GetLatestBlockProofRequest{})
	require.Equal(t, codes.NotFound, status.Code(err))

	for _, h := range []uint64{30, 31, 32} {
		require.NoError(t, proofs.PutBlockProof(h, []byte{byte(h)}, nil))
	}
	resp, err := srv.GetLatestBlockProof(context.Background(), &proverclient.GetLatestBlockProofRequest{})
	require.NoError(t, err)
	require.Equal(t, uint64(32), resp.Proof.CelestiaHeight)
}

func TestGetRangeProofs(t *testing.T) {
	srv, proofs := testServerWithStore(t)
	require.NoError(t, proofs.PutRangeProof(30, 35, []byte("a"), nil))
	require.NoError(t, proofs.PutRangeProof(36, 40, []byte("b"), nil))
	require.NoError(t, proofs.PutRangeProof(41, 45, []byte("c"), nil))

	resp, err := srv.GetRangeProofs(context.Background(), &proverclient.GetRangeProofsRequest{
		StartHeight: 30, EndHeight: 45,
	})
	require.NoError(t, err)
	require.Len(t, resp.Proofs, 3)
	require.Equal(t, uint64(30), resp.Proofs[0].StartHeight)
	require.Equal(t, uint64(35), resp.Proofs[0].EndHeight)
}

func TestGetMembershipProofs(t *testing.T) {
	srv, proofs := testServerWithStore(t)
	require.NoError(t, proofs.PutMembershipProof(100, []byte{9, 10}, []byte{11}))
	require.NoError(t, proofs.PutMembershipProof(102, []byte{12}, nil))

	resp, err := srv.GetMembershipProof(context.Background(), &proverclient.GetMembershipProofRequest{Height: 100})
	require.NoError(t, err)
	require.Equal(t, []byte{9, 10}, resp.Proof.ProofData)

	latest, err := srv.GetLatestMembershipProof(context.Background(), &proverclient.GetLatestMembershipProofRequest{})
	require.NoError(t, err)
	require.Equal(t, uint64(102), latest.Proof.Height)

	_, err = srv.GetMembershipProof(context.Background(), &proverclient.GetMembershipProofRequest{Height: 101})
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestQueriesWithoutStore(t *testing.T) {
	srv, _, _ := testServer(t, backend.NewMock())
	_, err := srv.GetLatestBlockProof(context.Background(), &proverclient.GetLatestBlockProofRequest{})
	require.Equal(t, codes.Unavailable, status.Code(err))
}
