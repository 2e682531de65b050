package client

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ProverClient is the client API for the celestia.prover.v1.Prover service.
type ProverClient interface {
	Info(ctx context.Context, in *InfoRequest, opts ...grpc.CallOption) (*InfoResponse, error)
	Status(ctx context.Context, in *StatusRequest, opts ...grpc.CallOption) (*StatusResponse, error)
	Prove(ctx context.Context, in *ProveRequest, opts ...grpc.CallOption) (*ProveResponse, error)
	Await(ctx context.Context, in *AwaitRequest, opts ...grpc.CallOption) (*AwaitResponse, error)
	StreamCompletions(ctx context.Context, in *StreamCompletionsRequest, opts ...grpc.CallOption) (Prover_StreamCompletionsClient, error)
	GetBlockProof(ctx context.Context, in *GetBlockProofRequest, opts ...grpc.CallOption) (*GetBlockProofResponse, error)
	GetBlockProofsInRange(ctx context.Context, in *GetBlockProofsInRangeRequest, opts ...grpc.CallOption) (*GetBlockProofsInRangeResponse, error)
	GetLatestBlockProof(ctx context.Context, in *GetLatestBlockProofRequest, opts ...grpc.CallOption) (*GetLatestBlockProofResponse, error)
	GetRangeProofs(ctx context.Context, in *GetRangeProofsRequest, opts ...grpc.CallOption) (*GetRangeProofsResponse, error)
	GetMembershipProof(ctx context.Context, in *GetMembershipProofRequest, opts ...grpc.CallOption) (*GetMembershipProofResponse, error)
	GetLatestMembershipProof(ctx context.Context, in *GetLatestMembershipProofRequest, opts ...grpc.CallOption) (*GetLatestMembershipProofResponse, error)
}

type proverClient struct {
	cc grpc.ClientConnInterface
}

// NewProverClient constructs a client over an established connection.
func NewProverClient(cc grpc.ClientConnInterface) ProverClient {
	return &proverClient{cc}
}

func (c *proverClient) Info(ctx context.Context, in *InfoRequest, opts ...grpc.CallOption) (*InfoResponse, error) {
	out := new(InfoResponse)
	if err := c.cc.Invoke(ctx, "/celestia.prover.v1.Prover/Info", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *proverClient) Status(ctx context.Context, in *StatusRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	out := new(StatusResponse)
	if err := c.cc.Invoke(ctx, "/celestia.prover.v1.Prover/Status", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *proverClient) Prove(ctx context.Context, in *ProveRequest, opts ...grpc.CallOption) (*ProveResponse, error) {
	out := new(ProveResponse)
	if err := c.cc.Invoke(ctx, "/celestia.prover.v1.Prover/Prove", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *proverClient) Await(ctx context.Context, in *AwaitRequest, opts ...grpc.CallOption) (*AwaitResponse, error) {
	out := new(AwaitResponse)
	if err := c.cc.Invoke(ctx, "/celestia.prover.v1.Prover/Await", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *proverClient) StreamCompletions(ctx context.Context, in *StreamCompletionsRequest, opts ...grpc.CallOption) (Prover_StreamCompletionsClient, error) {
	stream, err := c.cc.NewStream(ctx, &ProverServiceDesc.Streams[0], "/celestia.prover.v1.Prover/StreamCompletions", opts...)
	if err != nil {
		return nil, err
	}
	x := &proverStreamCompletionsClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type Prover_StreamCompletionsClient interface {
	Recv() (*JobCompletion, error)
	grpc.ClientStream
}

type proverStreamCompletionsClient struct {
	grpc.ClientStream
}

func (x *proverStreamCompletionsClient) Recv() (*JobCompletion, error) {
	m := new(JobCompletion)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ProverServer is the server API for the celestia.prover.v1.Prover service.
type ProverServer interface {
	Info(context.Context, *InfoRequest) (*InfoResponse, error)
	Status(context.Context, *StatusRequest) (*StatusResponse, error)
	Prove(context.Context, *ProveRequest) (*ProveResponse, error)
	Await(context.Context, *AwaitRequest) (*AwaitResponse, error)
	StreamCompletions(*StreamCompletionsRequest, Prover_StreamCompletionsServer) error
	GetBlockProof(context.Context, *GetBlockProofRequest) (*GetBlockProofResponse, error)
	GetBlockProofsInRange(context.Context, *GetBlockProofsInRangeRequest) (*GetBlockProofsInRangeResponse, error)
	GetLatestBlockProof(context.Context, *GetLatestBlockProofRequest) (*GetLatestBlockProofResponse, error)
	GetRangeProofs(context.Context, *GetRangeProofsRequest) (*GetRangeProofsResponse, error)
	GetMembershipProof(context.Context, *GetMembershipProofRequest) (*GetMembershipProofResponse, error)
	GetLatestMembershipProof(context.Context, *GetLatestMembershipProofRequest) (*GetLatestMembershipProofResponse, error)
}

// UnimplementedProverServer provides forward-compatible defaults.
type UnimplementedProverServer struct{}

func (UnimplementedProverServer) Info(context.Context, *InfoRequest) (*InfoResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Info not implemented")
}
func (UnimplementedProverServer) Status(context.Context, *StatusRequest) (*StatusResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Status not implemented")
}
func (UnimplementedProverServer) Prove(context.Context, *ProveRequest) (*ProveResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Prove not implemented")
}
func (UnimplementedProverServer) Await(context.Context, *AwaitRequest) (*AwaitResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Await not implemented")
}
func (UnimplementedProverServer) StreamCompletions(*StreamCompletionsRequest, Prover_StreamCompletionsServer) error {
	return status.Errorf(codes.Unimplemented, "method StreamCompletions not implemented")
}
func (UnimplementedProverServer) GetBlockProof(context.Context, *GetBlockProofRequest) (*GetBlockProofResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetBlockProof not implemented")
}
func (UnimplementedProverServer) GetBlockProofsInRange(context.Context, *GetBlockProofsInRangeRequest) (*GetBlockProofsInRangeResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetBlockProofsInRange not implemented")
}
func (UnimplementedProverServer) GetLatestBlockProof(context.Context, *GetLatestBlockProofRequest) (*GetLatestBlockProofResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetLatestBlockProof not implemented")
}
func (UnimplementedProverServer) GetRangeProofs(context.Context, *GetRangeProofsRequest) (*GetRangeProofsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetRangeProofs not implemented")
}
func (UnimplementedProverServer) GetMembershipProof(context.Context, *GetMembershipProofRequest) (*GetMembershipProofResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetMembershipProof not implemented")
}
func (UnimplementedProverServer) GetLatestMembershipProof(context.Context, *GetLatestMembershipProofRequest) (*GetLatestMembershipProofResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetLatestMembershipProof not implemented")
}

type Prover_StreamCompletionsServer interface {
	Send(*JobCompletion) error
	grpc.ServerStream
}

type proverStreamCompletionsServer struct {
	grpc.ServerStream
}

func (x *proverStreamCompletionsServer) Send(m *JobCompletion) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterProverServer registers the service implementation on a server.
func RegisterProverServer(s grpc.ServiceRegistrar, srv ProverServer) {
	s.RegisterService(&ProverServiceDesc, srv)
}

func infoHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(InfoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProverServer).Info(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/celestia.prover.v1.Prover/Info"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProverServer).Info(ctx, req.(*InfoRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func statusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProverServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/celestia.prover.v1.Prover/Status"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProverServer).Status(ctx, req.(*StatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func proveHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ProveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProverServer).Prove(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/celestia.prover.v1.Prover/Prove"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProverServer).Prove(ctx, req.(*ProveRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func awaitHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AwaitRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProverServer).Await(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/celestia.prover.v1.Prover/Await"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProverServer).Await(ctx, req.(*AwaitRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func streamCompletionsHandler(srv interface{}, stream grpc.ServerStream) error {
	m := new(StreamCompletionsRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ProverServer).StreamCompletions(m, &proverStreamCompletionsServer{stream})
}

// ProverServiceDesc is the grpc.ServiceDesc for the Prover service.
var ProverServiceDesc = grpc.ServiceDesc{
	ServiceName: "celestia.prover.v1.Prover",
	HandlerType: (*ProverServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Info", Handler: infoHandler},
		{MethodName: "Status", Handler: statusHandler},
		{MethodName: "Prove", Handler: proveHandler},
		{MethodName: "Await", Handler: awaitHandler},
		{MethodName: "GetBlockProof", Handler: getBlockProofHandler},
		{MethodName: "GetBlockProofsInRange", Handler: getBlockProofsInRangeHandler},
		{MethodName: "GetLatestBlockProof", Handler: getLatestBlockProofHandler},
		{MethodName: "GetRangeProofs", Handler: getRangeProofsHandler},
		{MethodName: "GetMembershipProof", Handler: getMembershipProofHandler},
		{MethodName: "GetLatestMembershipProof", Handler: getLatestMembershipProofHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamCompletions", Handler: streamCompletionsHandler, ServerStreams: true},
	},
	Metadata: "provers/proto/prover/v1/prover.proto",
}
