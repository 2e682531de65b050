// Package pipeline contains the three proving pipelines: block execution,
// range aggregation and Hyperlane message inclusion. Pipelines are
// cooperative tasks communicating over bounded channels; each owns its
// scheduling state exclusively.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"

	"github.com/celestiaorg/ev-prover/prover/assembler"
	"github.com/celestiaorg/ev-prover/prover/backend"
	"github.com/celestiaorg/ev-prover/prover/registry"
	"github.com/celestiaorg/ev-prover/store"
	"github.com/celestiaorg/ev-prover/types"
)

// BlockResult is a completed block-execution proof tagged with its DA
// height and covered rollup range. Results are emitted in completion
// order, not height order; downstream consumers re-sort.
type BlockResult struct {
	DAHeight     uint64
	RollupRange  [2]uint64
	VerifyingKey [32]byte
	Output       types.BlockExecOutput
	Proof        []byte
}

// BlockExecConfig tunes the block-execution pipeline.
type BlockExecConfig struct {
	// MaxConcurrent caps in-flight proving jobs. When full, the pipeline
	// stops pulling from the watcher.
	MaxConcurrent int
	// Mode is the proof mode requested per block. Range aggregation
	// requires compressed proofs where the backend supports them.
	Mode backend.ProofMode
}

// BlockExecPipeline consumes ascending DA heights, assembles witnesses,
// proves block execution and emits results.
type BlockExecPipeline struct {
	asm      *assembler.Assembler
	backend  backend.Backend
	registry *registry.Registry
	proofs   *store.ProofStore
	cfg      BlockExecConfig
	logger   log.Logger

	heights <-chan uint64
	out     chan<- BlockResult
}

// NewBlockExec constructs the pipeline. proofs may be nil to disable the
// proof cache.
func NewBlockExec(
	asm *assembler.Assembler,
	bk backend.Backend,
	reg *registry.Registry,
	proofs *store.ProofStore,
	cfg BlockExecConfig,
	heights <-chan uint64,
	out chan<- BlockResult,
	logger log.Logger,
) *BlockExecPipeline {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	return &BlockExecPipeline{
		asm:      asm,
		backend:  bk,
		registry: reg,
		proofs:   proofs,
		cfg:      cfg,
		logger:   logger.With("pipeline", "block_exec"),
		heights:  heights,
		out:      out,
	}
}

// Run drives the pipeline from the given trusted checkpoint until ctx is
// cancelled. Heights arrive in ascending order with no gaps; the pipeline
// assigns each height the optimistic checkpoint produced by its
// predecessor, then proves concurrently up to MaxConcurrent.
func (p *BlockExecPipeline) Run(ctx context.Context, start types.TrustedCheckpoint) error {
	sem := make(chan struct{}, p.cfg.MaxConcurrent)
	var wg sync.WaitGroup
	defer wg.Wait()

	trusted := start
	var prevHash []byte
	if start.DAHeaderHash != ([32]byte{}) {
		prevHash = append([]byte(nil), start.DAHeaderHash[:]...)
	}

	for {
		// Acquire a proving slot before pulling the next height so a full
		// pipeline exerts backpressure on the watcher.
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		var height uint64
		select {
		case h, ok := <-p.heights:
			if !ok {
				<-sem
				return nil
			}
			height = h
		case <-ctx.Done():
			<-sem
			return ctx.Err()
		}

		asm, skip, err := p.assembleWithRecovery(ctx, height, trusted, prevHash)
		if err != nil {
			<-sem
			return err
		}
		if skip {
			<-sem
			prevHash = nil
			continue
		}

		key := registry.JobKey{Program: backend.ProgramBlockExec, Fingerprint: asm.Input.Fingerprint()}
		handle, guard, fresh := p.registry.Claim(key)
		if !fresh {
			// An identical job is already in flight (a manual gRPC request
			// raced the watcher). Reuse its result instead of proving twice.
			p.logger.Debug("job already in flight, awaiting", "job", key)
			wg.Add(1)
			go func(h uint64, rollupRange [2]uint64) {
				defer wg.Done()
				defer func() { <-sem }()
				p.emitExisting(ctx, h, rollupRange, handle)
			}(asm.DAHeight, rollupRange(asm.Input))
		} else {
			wg.Add(1)
			go func(a *assembler.Assembled, g *registry.Guard) {
				defer wg.Done()
				defer func() { <-sem }()
				defer g.Close()
				p.prove(ctx, a, g)
			}(asm, guard)
		}

		trusted = asm.NextCheckpoint
		prevHash = asm.HeaderHash
	}
}

// assembleWithRecovery assembles one height, retrying indefinitely on
// exhausted transport budgets: the chain will not move past a height the
// pipeline cannot fetch, so giving up would only trade liveness for
// nothing. A malformed blob is reported with skip=true.
func (p *BlockExecPipeline) assembleWithRecovery(ctx context.Context, height uint64, trusted types.TrustedCheckpoint, prevHash []byte) (*assembler.Assembled, bool, error) {
	const retryDelay = 10 * time.Second
	for {
		asm, err := p.asm.Assemble(ctx, height, trusted, prevHash)
		if err == nil {
			return asm, false, nil
		}
		switch {
		case errors.Is(err, assembler.ErrMalformedBlob):
			// Non-retryable decode failure. The height is skipped with a
			// loud diagnostic; the range pipeline's gap tolerance will
			// halt the service if this breaks continuity.
			p.logger.Error("MALFORMED BLOB, skipping DA height", "da_height", height, "err", err)
			return nil, true, nil
		case ctx.Err() != nil:
			return nil, false, ctx.Err()
		case errors.Is(err, assembler.ErrHeaderMismatch):
			// A header that no longer chains to the trusted hash means the
			// DA chain reorged past the checkpoint.
			return nil, false, fmt.Errorf("block exec pipeline: %w: %v", types.ErrContinuity, err)
		default:
			p.logger.Error("witness assembly failed, retrying height",
				"da_height", height, "retry_in", retryDelay, "err", err)
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil, false, ctx.Err()
			}
		}
	}
}

func rollupRange(in *types.BlockExecInput) [2]uint64 {
	if len(in.RollupHeights) == 0 {
		return [2]uint64{in.Checkpoint.RollupHeight, in.Checkpoint.RollupHeight}
	}
	return [2]uint64{in.RollupHeights[0], in.RollupHeights[len(in.RollupHeights)-1]}
}

func (p *BlockExecPipeline) prove(ctx context.Context, asm *assembler.Assembled, guard *registry.Guard) {
	guard.Start()

	vk, err := p.backend.VerifyingKey(backend.ProgramBlockExec)
	if err != nil {
		guard.Fail(err)
		p.logger.Error("verifying key lookup failed", "err", err)
		return
	}

	proof, err := p.backend.Prove(ctx, backend.ProgramBlockExec, asm.Input.Marshal(), p.cfg.Mode)
	if ctx.Err() != nil {
		// In-flight backend calls run to completion on shutdown; the
		// result is discarded.
		guard.Fail(ctx.Err())
		return
	}
	if err != nil {
		guard.Fail(err)
		if errors.Is(err, backend.ErrGuestPanic) {
			p.logger.Error("guest panicked, job abandoned", "da_height", asm.DAHeight, "err", err)
			return
		}
		p.logger.Error("proving failed", "da_height", asm.DAHeight, "err", err)
		return
	}

	var output types.BlockExecOutput
	if err := output.Unmarshal(proof.PublicOutputs); err != nil {
		guard.Fail(fmt.Errorf("decode public outputs: %w", err))
		p.logger.Error("bad public outputs from backend", "da_height", asm.DAHeight, "err", err)
		return
	}
	guard.Complete(proof.ProofBytes, proof.PublicOutputs)

	if p.proofs != nil {
		if err := p.proofs.PutBlockProof(asm.DAHeight, proof.ProofBytes, proof.PublicOutputs); err != nil {
			// The store is a cache; a write failure must not stall proving.
			p.logger.Error("failed to store block proof", "da_height", asm.DAHeight, "err", err)
		}
	}

	p.logger.Info("block proof completed",
		"da_height", asm.DAHeight, "new_height", output.NewRollupHeight)

	result := BlockResult{
		DAHeight:     asm.DAHeight,
		RollupRange:  rollupRange(asm.Input),
		VerifyingKey: vk,
		Output:       output,
		Proof:        proof.ProofBytes,
	}
	select {
	case p.out <- result:
	case <-ctx.Done():
	}
}

func (p *BlockExecPipeline) emitExisting(ctx context.Context, daHeight uint64, rollupRange [2]uint64, handle registry.Handle) {
	res, err := p.registry.Await(ctx, handle)
	if err != nil || res.Err != nil {
		return
	}
	vk, err := p.backend.VerifyingKey(backend.ProgramBlockExec)
	if err != nil {
		return
	}
	var output types.BlockExecOutput
	if err := output.Unmarshal(res.PublicOutputs); err != nil {
		p.logger.Error("bad public outputs on shared job", "da_height", daHeight, "err", err)
		return
	}
	select {
	case p.out <- BlockResult{
		DAHeight:     daHeight,
		RollupRange:  rollupRange,
		VerifyingKey: vk,
		Output:       output,
		Proof:        res.Proof,
	}:
	case <-ctx.Done():
	}
}
