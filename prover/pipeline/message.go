package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/ev-prover/mpt"
	"github.com/celestiaorg/ev-prover/prover/backend"
	"github.com/celestiaorg/ev-prover/prover/registry"
	"github.com/celestiaorg/ev-prover/store"
	"github.com/celestiaorg/ev-prover/types/hyperlane"
)

// ErrNoMessages marks a message-proof request window containing no
// dispatched messages.
var ErrNoMessages = errors.New("no dispatched messages in window")

// MessageResult is a completed message-inclusion proof.
type MessageResult struct {
	// AnchorHeight is the rollup height whose proven state root anchors
	// the inclusion proof.
	AnchorHeight uint64
	Output       hyperlane.InclusionOutput
	Proof        []byte
}

// MessageRequest asks for an inclusion proof of all messages dispatched up
// to EndHeight. The pipeline blocks the request until a range proof covers
// a rollup height >= EndHeight, then anchors at that height. done receives
// the registry handle once the job is claimed, so gRPC callers can await.
type MessageRequest struct {
	EndHeight uint64
	done      chan<- requestClaim
}

type requestClaim struct {
	handle registry.Handle
	err    error
}

// MessageRollupClient is the rollup RPC surface the message pipeline needs.
type MessageRollupClient interface {
	DispatchLogs(ctx context.Context, mailbox common.Address, fromBlock, toBlock uint64) ([]hyperlane.DispatchedMessage, error)
	BranchProof(ctx context.Context, contract common.Address, number uint64) (hyperlane.BranchProof, error)
}

// MessageConfig tunes the message-inclusion pipeline.
type MessageConfig struct {
	Mailbox           common.Address
	MerkleTreeAddress common.Address
	Mode              backend.ProofMode
}

// MessagePipeline proves Hyperlane message inclusion anchored at state
// roots covered by range proofs. It runs independently of the other
// pipelines and consumes their anchor notifications; it never proves
// against a state root no range proof has committed.
type MessagePipeline struct {
	rollup   MessageRollupClient
	backend  backend.Backend
	registry *registry.Registry
	proofs   *store.ProofStore
	cfg      MessageConfig
	logger   log.Logger

	anchors  <-chan Anchor
	requests chan MessageRequest
	out      chan<- MessageResult

	// provenHeight is the last rollup height whose messages were proven;
	// snapshot is the incremental merkle tree at that point.
	provenHeight uint64
	snapshot     hyperlane.Tree

	// lastHandle refers to the most recent inclusion job, so explicit
	// requests whose window an automatic sweep already covered resolve to
	// the same job.
	lastHandle registry.Handle
	haveHandle bool
}

// NewMessage constructs the pipeline. The snapshot and proven height are
// restored from the snapshot store when present.
func NewMessage(
	rollup MessageRollupClient,
	bk backend.Backend,
	reg *registry.Registry,
	proofs *store.ProofStore,
	cfg MessageConfig,
	anchors <-chan Anchor,
	out chan<- MessageResult,
	logger log.Logger,
) (*MessagePipeline, error) {
	p := &MessagePipeline{
		rollup:   rollup,
		backend:  bk,
		registry: reg,
		proofs:   proofs,
		cfg:      cfg,
		logger:   logger.With("pipeline", "message"),
		anchors:  anchors,
		requests: make(chan MessageRequest, 16),
		out:      out,
	}
	if proofs != nil {
		snapshot, height, ok, err := proofs.LatestSnapshot()
		if err != nil {
			return nil, fmt.Errorf("load hyperlane snapshot: %w", err)
		}
		if ok {
			p.snapshot = snapshot
			p.provenHeight = height
			p.logger.Info("restored hyperlane snapshot", "proven_height", height, "leaves", snapshot.Count)
		}
	}
	return p, nil
}

// Request enqueues an explicit proof request and returns the registry
// handle once the pipeline claims the job. It blocks until a range proof
// covering EndHeight exists.
func (p *MessagePipeline) Request(ctx context.Context, endHeight uint64) (registry.Handle, error) {
	done := make(chan requestClaim, 1)
	select {
	case p.requests <- MessageRequest{EndHeight: endHeight, done: done}:
	case <-ctx.Done():
		return registry.Handle{}, ctx.Err()
	}
	select {
	case claim := <-done:
		return claim.handle, claim.err
	case <-ctx.Done():
		return registry.Handle{}, ctx.Err()
	}
}

// Run drives the pipeline until ctx is cancelled. Each anchor notification
// triggers an automatic sweep of messages dispatched since the last proven
// height; queued explicit requests drain once their end height is covered.
func (p *MessagePipeline) Run(ctx context.Context) error {
	var latest *Anchor
	var waiting []MessageRequest

	for {
		select {
		case a, ok := <-p.anchors:
			if !ok {
				return nil
			}
			latest = &a

			if err := p.sweep(ctx, a); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.logger.Error("message sweep failed", "anchor_height", a.RollupHeight, "err", err)
			}

			// Drain requests whose window the new anchor covers.
			remaining := waiting[:0]
			for _, req := range waiting {
				if req.EndHeight <= a.RollupHeight {
					p.serve(ctx, req, a)
				} else {
					remaining = append(remaining, req)
				}
			}
			waiting = remaining

		case req := <-p.requests:
			if latest != nil && req.EndHeight <= latest.RollupHeight {
				p.serve(ctx, req, *latest)
				continue
			}
			// No anchor covers the window yet; hold the request until the
			// range pipeline catches up.
			waiting = append(waiting, req)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// sweep proves all messages dispatched in (provenHeight, anchor] if any.
func (p *MessagePipeline) sweep(ctx context.Context, anchor Anchor) error {
	if anchor.RollupHeight <= p.provenHeight {
		return nil
	}
	_, err := p.proveWindow(ctx, anchor)
	if errors.Is(err, ErrNoMessages) {
		// Nothing dispatched; just advance the watermark.
		p.provenHeight = anchor.RollupHeight
		return nil
	}
	return err
}

func (p *MessagePipeline) serve(ctx context.Context, req MessageRequest, anchor Anchor) {
	handle, err := p.proveWindow(ctx, anchor)
	if errors.Is(err, ErrNoMessages) && p.haveHandle {
		// An automatic sweep already proved the window; resolve onto that
		// job.
		req.done <- requestClaim{handle: p.lastHandle}
		return
	}
	req.done <- requestClaim{handle: handle, err: err}
}

// proveWindow collects dispatched messages in (provenHeight, anchor],
// proves their inclusion anchored at the anchor state root and advances
// the snapshot.
func (p *MessagePipeline) proveWindow(ctx context.Context, anchor Anchor) (registry.Handle, error) {
	dispatched, err := p.rollup.DispatchLogs(ctx, p.cfg.Mailbox, p.provenHeight+1, anchor.RollupHeight)
	if err != nil {
		return registry.Handle{}, fmt.Errorf("collect dispatch logs: %w", err)
	}
	if len(dispatched) == 0 {
		return registry.Handle{}, ErrNoMessages
	}

	// Dispatch order is nonce order; logs arrive ordered by block and log
	// index but are re-sorted defensively before the gap check.
	sort.Slice(dispatched, func(i, j int) bool {
		return dispatched[i].Message.Nonce < dispatched[j].Message.Nonce
	})

	branchProof, err := p.rollup.BranchProof(ctx, p.cfg.MerkleTreeAddress, anchor.RollupHeight)
	if err != nil {
		return registry.Handle{}, fmt.Errorf("fetch branch proof: %w", err)
	}
	// Sanity-check the proof against the anchor root before paying for a
	// zk proof; the guest re-verifies it in-circuit.
	if err := mpt.VerifyBranchProof(anchor.StateRoot, p.cfg.MerkleTreeAddress, &branchProof); err != nil {
		return registry.Handle{}, fmt.Errorf("branch proof rejected: %w", err)
	}

	input := &hyperlane.InclusionInput{
		TargetStateRoot:   anchor.StateRoot,
		MerkleTreeAddress: p.cfg.MerkleTreeAddress,
		Proof:             branchProof,
		Snapshot:          p.snapshot.Clone(),
	}
	for _, d := range dispatched {
		input.Messages = append(input.Messages, d.Message)
	}
	// Nonces must be consecutive from the snapshot count; a gap means the
	// log window missed a dispatch and proving would commit a wrong tree.
	if err := input.Validate(); err != nil {
		return registry.Handle{}, fmt.Errorf("validate message window: %w", err)
	}

	key := registry.JobKey{Program: backend.ProgramMessageInclusion, Fingerprint: input.Fingerprint()}
	handle, guard, fresh := p.registry.Claim(key)
	p.lastHandle = handle
	p.haveHandle = true
	if !fresh {
		return handle, nil
	}
	defer guard.Close()
	guard.Start()

	p.logger.Info("proving message inclusion",
		"messages", len(input.Messages),
		"from_height", p.provenHeight+1, "anchor_height", anchor.RollupHeight)

	proof, err := p.backend.Prove(ctx, backend.ProgramMessageInclusion, input.Marshal(), p.cfg.Mode)
	if err != nil {
		guard.Fail(err)
		return handle, fmt.Errorf("prove message inclusion: %w", err)
	}

	var output hyperlane.InclusionOutput
	if err := output.Unmarshal(proof.PublicOutputs); err != nil {
		guard.Fail(fmt.Errorf("decode public outputs: %w", err))
		return handle, fmt.Errorf("decode message inclusion outputs: %w", err)
	}
	guard.Complete(proof.ProofBytes, proof.PublicOutputs)

	// Advance the snapshot with the proven message ids.
	for _, id := range output.MessageIDs {
		if err := p.snapshot.Insert(id); err != nil {
			return handle, fmt.Errorf("advance snapshot: %w", err)
		}
	}
	p.provenHeight = anchor.RollupHeight

	if p.proofs != nil {
		if err := p.proofs.PutMembershipProof(anchor.RollupHeight, proof.ProofBytes, proof.PublicOutputs); err != nil {
			p.logger.Error("failed to store membership proof", "err", err)
		}
		if err := p.proofs.PutSnapshot(anchor.RollupHeight, p.snapshot); err != nil {
			p.logger.Error("failed to store snapshot", "err", err)
		}
	}

	p.logger.Info("message inclusion proof completed",
		"messages", len(output.MessageIDs), "anchor_height", anchor.RollupHeight)

	result := MessageResult{AnchorHeight: anchor.RollupHeight, Output: output, Proof: proof.ProofBytes}
	select {
	case p.out <- result:
	case <-ctx.Done():
		return handle, ctx.Err()
	}
	return handle, nil
}
