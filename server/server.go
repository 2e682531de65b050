// Package server exposes the orchestrator's gRPC surface: status, manual
// proof requests, awaiting and completion streaming. Every method is
// idempotent with respect to the job key: identical requests deduplicate
// onto the same job.
package server

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"sync"

	"cosmossdk.io/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/celestiaorg/ev-prover/prover/assembler"
	"github.com/celestiaorg/ev-prover/prover/backend"
	"github.com/celestiaorg/ev-prover/prover/pipeline"
	"github.com/celestiaorg/ev-prover/prover/registry"
	proverclient "github.com/celestiaorg/ev-prover/provers/client"
	"github.com/celestiaorg/ev-prover/store"
	"github.com/celestiaorg/ev-prover/types"
)

// recentJobCount bounds the completed-job list in status responses.
const recentJobCount = 10

// Health reports one pipeline's liveness for the status endpoint.
type Health struct {
	Name    string
	Healthy bool
	Detail  string
}

// HealthSource supplies per-pipeline health snapshots.
type HealthSource interface {
	PipelineHealth() []Health
}

// Server implements celestia.prover.v1.Prover.
type Server struct {
	proverclient.UnimplementedProverServer

	backend  backend.Backend
	registry *registry.Registry
	cell     *pipeline.CheckpointCell
	asm      *assembler.Assembler
	messages *pipeline.MessagePipeline
	proofs   *store.ProofStore
	health   HealthSource
	logger   log.Logger

	grpcServer *grpc.Server

	subMu sync.Mutex
	subs  map[chan *proverclient.JobCompletion]struct{}
}

// New constructs the server and registers the completion fan-out on the
// registry.
func New(
	bk backend.Backend,
	reg *registry.Registry,
	cell *pipeline.CheckpointCell,
	asm *assembler.Assembler,
	messages *pipeline.MessagePipeline,
	proofs *store.ProofStore,
	health HealthSource,
	logger log.Logger,
) *Server {
	s := &Server{
		backend:  bk,
		registry: reg,
		cell:     cell,
		asm:      asm,
		messages: messages,
		proofs:   proofs,
		health:   health,
		logger:   logger.With("component", "grpc"),
		subs:     make(map[chan *proverclient.JobCompletion]struct{}),
	}
	reg.OnComplete(s.fanout)
	return s
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.grpcServer = grpc.NewServer()
	proverclient.RegisterProverServer(s.grpcServer, s)

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		s.grpcServer.GracefulStop()
		close(done)
	}()

	s.logger.Info("grpc server listening", "addr", addr)
	if err := s.grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	<-done
	return nil
}

func (s *Server) Info(ctx context.Context, req *proverclient.InfoRequest) (*proverclient.InfoResponse, error) {
	resp := &proverclient.InfoResponse{Backend: s.backend.Name()}
	if vk, err := s.backend.VerifyingKey(backend.ProgramBlockExec); err == nil {
		resp.StateTransitionVerifierKey = "0x" + hex.EncodeToString(vk[:])
	}
	if vk, err := s.backend.VerifyingKey(backend.ProgramMessageInclusion); err == nil {
		resp.StateMembershipVerifierKey = "0x" + hex.EncodeToString(vk[:])
	}
	if vk, err := s.backend.VerifyingKey(backend.ProgramRangeExec); err == nil {
		resp.RangeVerifierKey = "0x" + hex.EncodeToString(vk[:])
	}
	return resp, nil
}

func (s *Server) Status(ctx context.Context, req *proverclient.StatusRequest) (*proverclient.StatusResponse, error) {
	resp := &proverclient.StatusResponse{
		RunningJobs: uint64(s.registry.Running()),
		TrackedJobs: uint64(s.registry.Len()),
	}
	if cp, ok := s.cell.Load(); ok {
		resp.TrustedRollupHeight = cp.RollupHeight
		resp.TrustedStateRoot = append([]byte(nil), cp.RollupStateRoot[:]...)
		resp.TrustedDaHeight = cp.DAHeight
		resp.TrustedDaHeaderHash = append([]byte(nil), cp.DAHeaderHash[:]...)
	}
	if s.health != nil {
		for _, h := range s.health.PipelineHealth() {
			resp.Pipelines = append(resp.Pipelines, &proverclient.PipelineHealth{
				Name:    h.Name,
				Healthy: h.Healthy,
				Detail:  h.Detail,
			})
		}
	}
	for _, summary := range s.registry.Recent(recentJobCount) {
		resp.RecentJobs = append(resp.RecentJobs, &proverclient.JobCompletion{
			Program:     summary.Key.Program,
			Fingerprint: hex.EncodeToString(summary.Key.Fingerprint[:]),
			State:       summary.State.String(),
			Error:       summary.Err,
			FinishedAt:  summary.FinishedAt.Unix(),
		})
	}
	return resp, nil
}

func (s *Server) Prove(ctx context.Context, req *proverclient.ProveRequest) (*proverclient.ProveResponse, error) {
	switch req.Program {
	case backend.ProgramBlockExec:
		return s.proveBlock(ctx, req)
	case backend.ProgramMessageInclusion:
		return s.proveMessages(ctx, req)
	case backend.ProgramRangeExec:
		return nil, status.Error(codes.InvalidArgument, "range proofs are scheduled by the range pipeline")
	default:
		return nil, status.Errorf(codes.InvalidArgument, "unknown program %q", req.Program)
	}
}

// proveBlock assembles and proves a single DA height anchored at the
// current trusted checkpoint. A request identical to one the block
// pipeline is already proving resolves to the same job.
func (s *Server) proveBlock(ctx context.Context, req *proverclient.ProveRequest) (*proverclient.ProveResponse, error) {
	if req.DaHeight == 0 {
		return nil, status.Error(codes.InvalidArgument, "da_height is required for ev-exec")
	}
	trusted, ok := s.cell.Load()
	if !ok {
		return nil, status.Error(codes.FailedPrecondition, "trusted checkpoint not initialized")
	}

	asm, err := s.asm.Assemble(ctx, req.DaHeight, trusted, nil)
	if err != nil {
		return nil, mapAssembleError(err)
	}

	key := registry.JobKey{Program: backend.ProgramBlockExec, Fingerprint: asm.Input.Fingerprint()}
	handle, guard, fresh := s.registry.Claim(key)
	if fresh {
		input := asm.Input.Marshal()
		go func() {
			defer guard.Close()
			guard.Start()
			proof, err := s.backend.Prove(context.Background(), backend.ProgramBlockExec, input, backend.ModeCompressed)
			if err != nil {
				guard.Fail(err)
				return
			}
			guard.Complete(proof.ProofBytes, proof.PublicOutputs)
		}()
	}
	return &proverclient.ProveResponse{Handle: toHandle(handle.Key())}, nil
}

func (s *Server) proveMessages(ctx context.Context, req *proverclient.ProveRequest) (*proverclient.ProveResponse, error) {
	if req.EndHeight == 0 {
		return nil, status.Error(codes.InvalidArgument, "end_height is required for ev-hyperlane")
	}
	// Blocks until a range proof covers the window's end height.
	handle, err := s.messages.Request(ctx, req.EndHeight)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoMessages) {
			return nil, status.Error(codes.InvalidArgument, "no dispatched messages in window")
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, status.Error(codes.DeadlineExceeded, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &proverclient.ProveResponse{Handle: toHandle(handle.Key())}, nil
}

func (s *Server) Await(ctx context.Context, req *proverclient.AwaitRequest) (*proverclient.AwaitResponse, error) {
	if req.Handle == nil {
		return nil, status.Error(codes.InvalidArgument, "handle is required")
	}
	key, err := fromHandle(req.Handle)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	handle, ok := s.registry.Lookup(key)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "no job %s", key)
	}
	res, err := s.registry.Await(ctx, handle)
	if err != nil {
		return nil, status.Error(codes.DeadlineExceeded, err.Error())
	}
	if res.Err != nil {
		return nil, mapJobError(res.Err)
	}
	return &proverclient.AwaitResponse{
		State:        s.registry.State(handle).String(),
		Proof:        res.Proof,
		PublicValues: res.PublicOutputs,
	}, nil
}

func (s *Server) StreamCompletions(req *proverclient.StreamCompletionsRequest, stream proverclient.Prover_StreamCompletionsServer) error {
	sub := make(chan *proverclient.JobCompletion, 64)
	s.subMu.Lock()
	s.subs[sub] = struct{}{}
	s.subMu.Unlock()
	defer func() {
		s.subMu.Lock()
		delete(s.subs, sub)
		s.subMu.Unlock()
	}()

	for {
		select {
		case completion := <-sub:
			if err := stream.Send(completion); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func (s *Server) fanout(summary registry.Summary) {
	completion := &proverclient.JobCompletion{
		Program:     summary.Key.Program,
		Fingerprint: hex.EncodeToString(summary.Key.Fingerprint[:]),
		State:       summary.State.String(),
		Error:       summary.Err,
		FinishedAt:  summary.FinishedAt.Unix(),
	}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for sub := range s.subs {
		select {
		case sub <- completion:
		default:
			// Slow consumer; drop rather than block the registry.
		}
	}
}

func toHandle(key registry.JobKey) *proverclient.JobHandle {
	return &proverclient.JobHandle{
		Program:     key.Program,
		Fingerprint: hex.EncodeToString(key.Fingerprint[:]),
	}
}

func fromHandle(h *proverclient.JobHandle) (registry.JobKey, error) {
	raw, err := hex.DecodeString(h.Fingerprint)
	if err != nil || len(raw) != 32 {
		return registry.JobKey{}, fmt.Errorf("malformed fingerprint %q", h.Fingerprint)
	}
	key := registry.JobKey{Program: h.Program}
	copy(key.Fingerprint[:], raw)
	return key, nil
}

// mapAssembleError maps assembler failures onto stable gRPC codes.
func mapAssembleError(err error) error {
	switch {
	case errors.Is(err, assembler.ErrMalformedBlob):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, assembler.ErrHeaderMismatch):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, assembler.ErrRPCUnavailable), errors.Is(err, assembler.ErrWitnessFetch):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// mapJobError maps terminal job failures onto stable gRPC codes.
func mapJobError(err error) error {
	switch {
	case errors.Is(err, types.ErrContinuity):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, backend.ErrUnsupportedMode):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, backend.ErrTimeout):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, backend.ErrProverNetwork):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
