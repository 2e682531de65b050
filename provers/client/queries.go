package client

import (
	"context"

	"github.com/cosmos/gogoproto/proto"
	"google.golang.org/grpc"
)

// Stored-proof query types, served from the orchestrator's proof cache.

type BlockProof struct {
	CelestiaHeight uint64 `protobuf:"varint,1,opt,name=celestia_height,json=celestiaHeight,proto3" json:"celestia_height,omitempty"`
	ProofData      []byte `protobuf:"bytes,2,opt,name=proof_data,json=proofData,proto3" json:"proof_data,omitempty"`
	PublicValues   []byte `protobuf:"bytes,3,opt,name=public_values,json=publicValues,proto3" json:"public_values,omitempty"`
	CreatedAt      int64  `protobuf:"varint,4,opt,name=created_at,json=createdAt,proto3" json:"created_at,omitempty"`
}

func (m *BlockProof) Reset()         { *m = BlockProof{} }
func (m *BlockProof) String() string { return proto.CompactTextString(m) }
func (*BlockProof) ProtoMessage()    {}

type GetBlockProofRequest struct {
	CelestiaHeight uint64 `protobuf:"varint,1,opt,name=celestia_height,json=celestiaHeight,proto3" json:"celestia_height,omitempty"`
}

func (m *GetBlockProofRequest) Reset()         { *m = GetBlockProofRequest{} }
func (m *GetBlockProofRequest) String() string { return proto.CompactTextString(m) }
func (*GetBlockProofRequest) ProtoMessage()    {}

type GetBlockProofResponse struct {
	Proof *BlockProof `protobuf:"bytes,1,opt,name=proof,proto3" json:"proof,omitempty"`
}

func (m *GetBlockProofResponse) Reset()         { *m = GetBlockProofResponse{} }
func (m *GetBlockProofResponse) String() string { return proto.CompactTextString(m) }
func (*GetBlockProofResponse) ProtoMessage()    {}

type GetBlockProofsInRangeRequest struct {
	StartHeight uint64 `protobuf:"varint,1,opt,name=start_height,json=startHeight,proto3" json:"start_height,omitempty"`
	EndHeight   uint64 `protobuf:"varint,2,opt,name=end_height,json=endHeight,proto3" json:"end_height,omitempty"`
}

func (m *GetBlockProofsInRangeRequest) Reset()         { *m = GetBlockProofsInRangeRequest{} }
func (m *GetBlockProofsInRangeRequest) String() string { return proto.CompactTextString(m) }
func (*GetBlockProofsInRangeRequest) ProtoMessage()    {}

type GetBlockProofsInRangeResponse struct {
	Proofs []*BlockProof `protobuf:"bytes,1,rep,name=proofs,proto3" json:"proofs,omitempty"`
}

func (m *GetBlockProofsInRangeResponse) Reset()         { *m = GetBlockProofsInRangeResponse{} }
func (m *GetBlockProofsInRangeResponse) String() string { return proto.CompactTextString(m) }
func (*GetBlockProofsInRangeResponse) ProtoMessage()    {}

type GetLatestBlockProofRequest struct{}

func (m *GetLatestBlockProofRequest) Reset()         { *m = GetLatestBlockProofRequest{} }
func (m *GetLatestBlockProofRequest) String() string { return proto.CompactTextString(m) }
func (*GetLatestBlockProofRequest) ProtoMessage()    {}

type GetLatestBlockProofResponse struct {
	Proof *BlockProof `protobuf:"bytes,1,opt,name=proof,proto3" json:"proof,omitempty"`
}

func (m *GetLatestBlockProofResponse) Reset()         { *m = GetLatestBlockProofResponse{} }
func (m *GetLatestBlockProofResponse) String() string { return proto.CompactTextString(m) }
func (*GetLatestBlockProofResponse) ProtoMessage()    {}

type RangeProof struct {
	StartHeight  uint64 `protobuf:"varint,1,opt,name=start_height,json=startHeight,proto3" json:"start_height,omitempty"`
	EndHeight    uint64 `protobuf:"varint,2,opt,name=end_height,json=endHeight,proto3" json:"end_height,omitempty"`
	ProofData    []byte `protobuf:"bytes,3,opt,name=proof_data,json=proofData,proto3" json:"proof_data,omitempty"`
	PublicValues []byte `protobuf:"bytes,4,opt,name=public_values,json=publicValues,proto3" json:"public_values,omitempty"`
	CreatedAt    int64  `protobuf:"varint,5,opt,name=created_at,json=createdAt,proto3" json:"created_at,omitempty"`
}

func (m *RangeProof) Reset()         { *m = RangeProof{} }
func (m *RangeProof) String() string { return proto.CompactTextString(m) }
func (*RangeProof) ProtoMessage()    {}

type GetRangeProofsRequest struct {
	StartHeight uint64 `protobuf:"varint,1,opt,name=start_height,json=startHeight,proto3" json:"start_height,omitempty"`
	EndHeight   uint64 `protobuf:"varint,2,opt,name=end_height,json=endHeight,proto3" json:"end_height,omitempty"`
}

func (m *GetRangeProofsRequest) Reset()         { *m = GetRangeProofsRequest{} }
func (m *GetRangeProofsRequest) String() string { return proto.CompactTextString(m) }
func (*GetRangeProofsRequest) ProtoMessage()    {}

type GetRangeProofsResponse struct {
	Proofs []*RangeProof `protobuf:"bytes,1,rep,name=proofs,proto3" json:"proofs,omitempty"`
}

func (m *GetRangeProofsResponse) Reset()         { *m = GetRangeProofsResponse{} }
func (m *GetRangeProofsResponse) String() string { return proto.CompactTextString(m) }
func (*GetRangeProofsResponse) ProtoMessage()    {}

type MembershipProof struct {
	Height       uint64 `protobuf:"varint,1,opt,name=height,proto3" json:"height,omitempty"`
	ProofData    []byte `protobuf:"bytes,2,opt,name=proof_data,json=proofData,proto3" json:"proof_data,omitempty"`
	PublicValues []byte `protobuf:"bytes,3,opt,name=public_values,json=publicValues,proto3" json:"public_values,omitempty"`
	CreatedAt    int64  `protobuf:"varint,4,opt,name=created_at,json=createdAt,proto3" json:"created_at,omitempty"`
}

func (m *MembershipProof) Reset()         { *m = MembershipProof{} }
func (m *MembershipProof) String() string { return proto.CompactTextString(m) }
func (*MembershipProof) ProtoMessage()    {}

type GetMembershipProofRequest struct {
	Height uint64 `protobuf:"varint,1,opt,name=height,proto3" json:"height,omitempty"`
}

func (m *GetMembershipProofRequest) Reset()         { *m = GetMembershipProofRequest{} }
func (m *GetMembershipProofRequest) String() string { return proto.CompactTextString(m) }
func (*GetMembershipProofRequest) ProtoMessage()    {}

type GetMembershipProofResponse struct {
	Proof *MembershipProof `protobuf:"bytes,1,opt,name=proof,proto3" json:"proof,omitempty"`
}

func (m *GetMembershipProofResponse) Reset()         { *m = GetMembershipProofResponse{} }
func (m *GetMembershipProofResponse) String() string { return proto.CompactTextString(m) }
func (*GetMembershipProofResponse) ProtoMessage()    {}

type GetLatestMembershipProofRequest struct{}

func (m *GetLatestMembershipProofRequest) Reset()         { *m = GetLatestMembershipProofRequest{} }
func (m *GetLatestMembershipProofRequest) String() string { return proto.CompactTextString(m) }
func (*GetLatestMembershipProofRequest) ProtoMessage()    {}

type GetLatestMembershipProofResponse struct {
	Proof *MembershipProof `protobuf:"bytes,1,opt,name=proof,proto3" json:"proof,omitempty"`
}

func (m *GetLatestMembershipProofResponse) Reset()         { *m = GetLatestMembershipProofResponse{} }
func (m *GetLatestMembershipProofResponse) String() string { return proto.CompactTextString(m) }
func (*GetLatestMembershipProofResponse) ProtoMessage()    {}

func init() {
	proto.RegisterType((*BlockProof)(nil), "celestia.prover.v1.BlockProof")
	proto.RegisterType((*GetBlockProofRequest)(nil), "celestia.prover.v1.GetBlockProofRequest")
	proto.RegisterType((*GetBlockProofResponse)(nil), "celestia.prover.v1.GetBlockProofResponse")
	proto.RegisterType((*GetBlockProofsInRangeRequest)(nil), "celestia.prover.v1.GetBlockProofsInRangeRequest")
	proto.RegisterType((*GetBlockProofsInRangeResponse)(nil), "celestia.prover.v1.GetBlockProofsInRangeResponse")
	proto.RegisterType((*GetLatestBlockProofRequest)(nil), "celestia.prover.v1.GetLatestBlockProofRequest")
	proto.RegisterType((*GetLatestBlockProofResponse)(nil), "celestia.prover.v1.GetLatestBlockProofResponse")
	proto.RegisterType((*RangeProof)(nil), "celestia.prover.v1.RangeProof")
	proto.RegisterType((*GetRangeProofsRequest)(nil), "celestia.prover.v1.GetRangeProofsRequest")
	proto.RegisterType((*GetRangeProofsResponse)(nil), "celestia.prover.v1.GetRangeProofsResponse")
	proto.RegisterType((*MembershipProof)(nil), "celestia.prover.v1.MembershipProof")
	proto.RegisterType((*GetMembershipProofRequest)(nil), "celestia.prover.v1.GetMembershipProofRequest")
	proto.RegisterType((*GetMembershipProofResponse)(nil), "celestia.prover.v1.GetMembershipProofResponse")
	proto.RegisterType((*GetLatestMembershipProofRequest)(nil), "celestia.prover.v1.GetLatestMembershipProofRequest")
	proto.RegisterType((*GetLatestMembershipProofResponse)(nil), "celestia.prover.v1.GetLatestMembershipProofResponse")
}

func (c *proverClient) GetBlockProof(ctx context.Context, in *GetBlockProofRequest, opts ...grpc.CallOption) (*GetBlockProofResponse, error) {
	out := new(GetBlockProofResponse)
	if err := c.cc.Invoke(ctx, "/celestia.prover.v1.Prover/GetBlockProof", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *proverClient) GetBlockProofsInRange(ctx context.Context, in *GetBlockProofsInRangeRequest, opts ...grpc.CallOption) (*GetBlockProofsInRangeResponse, error) {
	out := new(GetBlockProofsInRangeResponse)
	if err := c.cc.Invoke(ctx, "/celestia.prover.v1.Prover/GetBlockProofsInRange", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *proverClient) GetLatestBlockProof(ctx context.Context, in *GetLatestBlockProofRequest, opts ...grpc.CallOption) (*GetLatestBlockProofResponse, error) {
	out := new(GetLatestBlockProofResponse)
	if err := c.cc.Invoke(ctx, "/celestia.prover.v1.Prover/GetLatestBlockProof", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *proverClient) GetRangeProofs(ctx context.Context, in *GetRangeProofsRequest, opts ...grpc.CallOption) (*GetRangeProofsResponse, error) {
	out := new(GetRangeProofsResponse)
	if err := c.cc.Invoke(ctx, "/celestia.prover.v1.Prover/GetRangeProofs", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *proverClient) GetMembershipProof(ctx context.Context, in *GetMembershipProofRequest, opts ...grpc.CallOption) (*GetMembershipProofResponse, error) {
	out := new(GetMembershipProofResponse)
	if err := c.cc.Invoke(ctx, "/celestia.prover.v1.Prover/GetMembershipProof", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *proverClient) GetLatestMembershipProof(ctx context.Context, in *GetLatestMembershipProofRequest, opts ...grpc.CallOption) (*GetLatestMembershipProofResponse, error) {
	out := new(GetLatestMembershipProofResponse)
	if err := c.cc.Invoke(ctx, "/celestia.prover.v1.Prover/GetLatestMembershipProof", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func getBlockProofHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetBlockProofRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProverServer).GetBlockProof(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/celestia.prover.v1.Prover/GetBlockProof"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProverServer).GetBlockProof(ctx, req.(*GetBlockProofRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getBlockProofsInRangeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetBlockProofsInRangeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProverServer).GetBlockProofsInRange(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/celestia.prover.v1.Prover/GetBlockProofsInRange"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProverServer).GetBlockProofsInRange(ctx, req.(*GetBlockProofsInRangeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getLatestBlockProofHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetLatestBlockProofRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProverServer).GetLatestBlockProof(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/celestia.prover.v1.Prover/GetLatestBlockProof"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProverServer).GetLatestBlockProof(ctx, req.(*GetLatestBlockProofRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getRangeProofsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetRangeProofsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProverServer).GetRangeProofs(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/celestia.prover.v1.Prover/GetRangeProofs"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProverServer).GetRangeProofs(ctx, req.(*GetRangeProofsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getMembershipProofHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetMembershipProofRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProverServer).GetMembershipProof(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/celestia.prover.v1.Prover/GetMembershipProof"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProverServer).GetMembershipProof(ctx, req.(*GetMembershipProofRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getLatestMembershipProofHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetLatestMembershipProofRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProverServer).GetLatestMembershipProof(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/celestia.prover.v1.Prover/GetLatestMembershipProof"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProverServer).GetLatestMembershipProof(ctx, req.(*GetLatestMembershipProofRequest))
	}
	return interceptor(ctx, in, info, handler)
}
