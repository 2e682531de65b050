package server

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	proverclient "github.com/celestiaorg/ev-prover/provers/client"
	"github.com/celestiaorg/ev-prover/store"
)

// Stored-proof queries, served from the proof cache. A server constructed
// without a store reports Unavailable for all of them.

func (s *Server) GetBlockProof(ctx context.Context, req *proverclient.GetBlockProofRequest) (*proverclient.GetBlockProofResponse, error) {
	if s.proofs == nil {
		return nil, status.Error(codes.Unavailable, "proof store not configured")
	}
	proof, found, err := s.proofs.GetBlockProof(req.CelestiaHeight)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to get block proof: %v", err)
	}
	if !found {
		return nil, status.Errorf(codes.NotFound, "block proof not found for height %d", req.CelestiaHeight)
	}
	return &proverclient.GetBlockProofResponse{
		Proof: blockProofMsg(req.CelestiaHeight, proof),
	}, nil
}

func (s *Server) GetBlockProofsInRange(ctx context.Context, req *proverclient.GetBlockProofsInRangeRequest) (*proverclient.GetBlockProofsInRangeResponse, error) {
	if s.proofs == nil {
		return nil, status.Error(codes.Unavailable, "proof store not configured")
	}
	heights, proofs, err := s.proofs.BlockProofsInRange(req.StartHeight, req.EndHeight)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to get block proofs: %v", err)
	}
	resp := &proverclient.GetBlockProofsInRangeResponse{}
	for i := range proofs {
		resp.Proofs = append(resp.Proofs, blockProofMsg(heights[i], proofs[i]))
	}
	return resp, nil
}

func (s *Server) GetLatestBlockProof(ctx context.Context, req *proverclient.GetLatestBlockProofRequest) (*proverclient.GetLatestBlockProofResponse, error) {
	if s.proofs == nil {
		return nil, status.Error(codes.Unavailable, "proof store not configured")
	}
	height, proof, found, err := s.proofs.LatestBlockProof()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to get latest block proof: %v", err)
	}
	if !found {
		return nil, status.Error(codes.NotFound, "no block proofs found in storage")
	}
	return &proverclient.GetLatestBlockProofResponse{
		Proof: blockProofMsg(height, proof),
	}, nil
}

func (s *Server) GetRangeProofs(ctx context.Context, req *proverclient.GetRangeProofsRequest) (*proverclient.GetRangeProofsResponse, error) {
	if s.proofs == nil {
		return nil, status.Error(codes.Unavailable, "proof store not configured")
	}
	keys, proofs, err := s.proofs.RangeProofs(req.StartHeight, req.EndHeight)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to get range proofs: %v", err)
	}
	resp := &proverclient.GetRangeProofsResponse{}
	for i := range proofs {
		resp.Proofs = append(resp.Proofs, &proverclient.RangeProof{
			StartHeight:  keys[i].From,
			EndHeight:    keys[i].To,
			ProofData:    proofs[i].Proof,
			PublicValues: proofs[i].PublicOutputs,
			CreatedAt:    proofs[i].CreatedAt,
		})
	}
	return resp, nil
}

func (s *Server) GetMembershipProof(ctx context.Context, req *proverclient.GetMembershipProofRequest) (*proverclient.GetMembershipProofResponse, error) {
	if s.proofs == nil {
		return nil, status.Error(codes.Unavailable, "proof store not configured")
	}
	proof, found, err := s.proofs.GetMembershipProof(req.Height)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to get membership proof: %v", err)
	}
	if !found {
		return nil, status.Errorf(codes.NotFound, "membership proof not found for height %d", req.Height)
	}
	return &proverclient.GetMembershipProofResponse{
		Proof: membershipProofMsg(req.Height, proof),
	}, nil
}

func (s *Server) GetLatestMembershipProof(ctx context.Context, req *proverclient.GetLatestMembershipProofRequest) (*proverclient.GetLatestMembershipProofResponse, error) {
	if s.proofs == nil {
		return nil, status.Error(codes.Unavailable, "proof store not configured")
	}
	height, proof, found, err := s.proofs.LatestMembershipProof()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to get latest membership proof: %v", err)
	}
	if !found {
		return nil, status.Error(codes.NotFound, "no membership proofs found in storage")
	}
	return &proverclient.GetLatestMembershipProofResponse{
		Proof: membershipProofMsg(height, proof),
	}, nil
}

func blockProofMsg(height uint64, proof store.StoredProof) *proverclient.BlockProof {
	return &proverclient.BlockProof{
		CelestiaHeight: height,
		ProofData:      proof.Proof,
		PublicValues:   proof.PublicOutputs,
		CreatedAt:      proof.CreatedAt,
	}
}

func membershipProofMsg(height uint64, proof store.StoredProof) *proverclient.MembershipProof {
	return &proverclient.MembershipProof{
		Height:       height,
		ProofData:    proof.Proof,
		PublicValues: proof.PublicOutputs,
		CreatedAt:    proof.CreatedAt,
	}
}
