// Package client contains the celestia.prover.v1 gRPC service types shared
// by the orchestrator's server and its clients. Generated from
// provers/proto/prover/v1/prover.proto.
package client

import (
	"github.com/cosmos/gogoproto/proto"
)

type InfoRequest struct{}

func (m *InfoRequest) Reset()         { *m = InfoRequest{} }
func (m *InfoRequest) String() string { return proto.CompactTextString(m) }
func (*InfoRequest) ProtoMessage()    {}

type InfoResponse struct {
	Backend                    string `protobuf:"bytes,1,opt,name=backend,proto3" json:"backend,omitempty"`
	StateTransitionVerifierKey string `protobuf:"bytes,2,opt,name=state_transition_verifier_key,json=stateTransitionVerifierKey,proto3" json:"state_transition_verifier_key,omitempty"`
	StateMembershipVerifierKey string `protobuf:"bytes,3,opt,name=state_membership_verifier_key,json=stateMembershipVerifierKey,proto3" json:"state_membership_verifier_key,omitempty"`
	RangeVerifierKey           string `protobuf:"bytes,4,opt,name=range_verifier_key,json=rangeVerifierKey,proto3" json:"range_verifier_key,omitempty"`
}

func (m *InfoResponse) Reset()         { *m = InfoResponse{} }
func (m *InfoResponse) String() string { return proto.CompactTextString(m) }
func (*InfoResponse) ProtoMessage()    {}

type StatusRequest struct{}

func (m *StatusRequest) Reset()         { *m = StatusRequest{} }
func (m *StatusRequest) String() string { return proto.CompactTextString(m) }
func (*StatusRequest) ProtoMessage()    {}

type PipelineHealth struct {
	Name    string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Healthy bool   `protobuf:"varint,2,opt,name=healthy,proto3" json:"healthy,omitempty"`
	Detail  string `protobuf:"bytes,3,opt,name=detail,proto3" json:"detail,omitempty"`
}

func (m *PipelineHealth) Reset()         { *m = PipelineHealth{} }
func (m *PipelineHealth) String() string { return proto.CompactTextString(m) }
func (*PipelineHealth) ProtoMessage()    {}

type StatusResponse struct {
	TrustedRollupHeight uint64            `protobuf:"varint,1,opt,name=trusted_rollup_height,json=trustedRollupHeight,proto3" json:"trusted_rollup_height,omitempty"`
	TrustedStateRoot    []byte            `protobuf:"bytes,2,opt,name=trusted_state_root,json=trustedStateRoot,proto3" json:"trusted_state_root,omitempty"`
	TrustedDaHeight     uint64            `protobuf:"varint,3,opt,name=trusted_da_height,json=trustedDaHeight,proto3" json:"trusted_da_height,omitempty"`
	TrustedDaHeaderHash []byte            `protobuf:"bytes,4,opt,name=trusted_da_header_hash,json=trustedDaHeaderHash,proto3" json:"trusted_da_header_hash,omitempty"`
	RunningJobs         uint64            `protobuf:"varint,5,opt,name=running_jobs,json=runningJobs,proto3" json:"running_jobs,omitempty"`
	TrackedJobs         uint64            `protobuf:"varint,6,opt,name=tracked_jobs,json=trackedJobs,proto3" json:"tracked_jobs,omitempty"`
	Pipelines           []*PipelineHealth `protobuf:"bytes,7,rep,name=pipelines,proto3" json:"pipelines,omitempty"`
	RecentJobs          []*JobCompletion  `protobuf:"bytes,8,rep,name=recent_jobs,json=recentJobs,proto3" json:"recent_jobs,omitempty"`
}

func (m *StatusResponse) Reset()         { *m = StatusResponse{} }
func (m *StatusResponse) String() string { return proto.CompactTextString(m) }
func (*StatusResponse) ProtoMessage()    {}

type ProveRequest struct {
	Program   string `protobuf:"bytes,1,opt,name=program,proto3" json:"program,omitempty"`
	DaHeight  uint64 `protobuf:"varint,2,opt,name=da_height,json=daHeight,proto3" json:"da_height,omitempty"`
	EndHeight uint64 `protobuf:"varint,3,opt,name=end_height,json=endHeight,proto3" json:"end_height,omitempty"`
}

func (m *ProveRequest) Reset()         { *m = ProveRequest{} }
func (m *ProveRequest) String() string { return proto.CompactTextString(m) }
func (*ProveRequest) ProtoMessage()    {}

type JobHandle struct {
	Program     string `protobuf:"bytes,1,opt,name=program,proto3" json:"program,omitempty"`
	Fingerprint string `protobuf:"bytes,2,opt,name=fingerprint,proto3" json:"fingerprint,omitempty"`
}

func (m *JobHandle) Reset()         { *m = JobHandle{} }
func (m *JobHandle) String() string { return proto.CompactTextString(m) }
func (*JobHandle) ProtoMessage()    {}

type ProveResponse struct {
	Handle *JobHandle `protobuf:"bytes,1,opt,name=handle,proto3" json:"handle,omitempty"`
}

func (m *ProveResponse) Reset()         { *m = ProveResponse{} }
func (m *ProveResponse) String() string { return proto.CompactTextString(m) }
func (*ProveResponse) ProtoMessage()    {}

type AwaitRequest struct {
	Handle *JobHandle `protobuf:"bytes,1,opt,name=handle,proto3" json:"handle,omitempty"`
}

func (m *AwaitRequest) Reset()         { *m = AwaitRequest{} }
func (m *AwaitRequest) String() string { return proto.CompactTextString(m) }
func (*AwaitRequest) ProtoMessage()    {}

type AwaitResponse struct {
	State        string `protobuf:"bytes,1,opt,name=state,proto3" json:"state,omitempty"`
	Proof        []byte `protobuf:"bytes,2,opt,name=proof,proto3" json:"proof,omitempty"`
	PublicValues []byte `protobuf:"bytes,3,opt,name=public_values,json=publicValues,proto3" json:"public_values,omitempty"`
	Error        string `protobuf:"bytes,4,opt,name=error,proto3" json:"error,omitempty"`
}

func (m *AwaitResponse) Reset()         { *m = AwaitResponse{} }
func (m *AwaitResponse) String() string { return proto.CompactTextString(m) }
func (*AwaitResponse) ProtoMessage()    {}

type StreamCompletionsRequest struct{}

func (m *StreamCompletionsRequest) Reset()         { *m = StreamCompletionsRequest{} }
func (m *StreamCompletionsRequest) String() string { return proto.CompactTextString(m) }
func (*StreamCompletionsRequest) ProtoMessage()    {}

type JobCompletion struct {
	Program     string `protobuf:"bytes,1,opt,name=program,proto3" json:"program,omitempty"`
	Fingerprint string `protobuf:"bytes,2,opt,name=fingerprint,proto3" json:"fingerprint,omitempty"`
	State       string `protobuf:"bytes,3,opt,name=state,proto3" json:"state,omitempty"`
	Error       string `protobuf:"bytes,4,opt,name=error,proto3" json:"error,omitempty"`
	FinishedAt  int64  `protobuf:"varint,5,opt,name=finished_at,json=finishedAt,proto3" json:"finished_at,omitempty"`
}

func (m *JobCompletion) Reset()         { *m = JobCompletion{} }
func (m *JobCompletion) String() string { return proto.CompactTextString(m) }
func (*JobCompletion) ProtoMessage()    {}

func init() {
	proto.RegisterType((*InfoRequest)(nil), "celestia.prover.v1.InfoRequest")
	proto.RegisterType((*InfoResponse)(nil), "celestia.prover.v1.InfoResponse")
	proto.RegisterType((*StatusRequest)(nil), "celestia.prover.v1.StatusRequest")
	proto.RegisterType((*PipelineHealth)(nil), "celestia.prover.v1.PipelineHealth")
	proto.RegisterType((*StatusResponse)(nil), "celestia.prover.v1.StatusResponse")
	proto.RegisterType((*ProveRequest)(nil), "celestia.prover.v1.ProveRequest")
	proto.RegisterType((*JobHandle)(nil), "celestia.prover.v1.JobHandle")
	proto.RegisterType((*ProveResponse)(nil), "celestia.prover.v1.ProveResponse")
	proto.RegisterType((*AwaitRequest)(nil), "celestia.prover.v1.AwaitRequest")
	proto.RegisterType((*AwaitResponse)(nil), "celestia.prover.v1.AwaitResponse")
	proto.RegisterType((*StreamCompletionsRequest)(nil), "celestia.prover.v1.StreamCompletionsRequest")
	proto.RegisterType((*JobCompletion)(nil), "celestia.prover.v1.JobCompletion")
}
