package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/log"

	"github.com/celestiaorg/ev-prover/prover/backend"
	"github.com/celestiaorg/ev-prover/prover/registry"
	"github.com/celestiaorg/ev-prover/store"
	"github.com/celestiaorg/ev-prover/types"
)

// Anchor notifies the message pipeline that a range proof now covers the
// given rollup height and state root.
type Anchor struct {
	RollupHeight uint64
	StateRoot    [32]byte
}

// RangeResult is a completed range-aggregation proof together with the
// checkpoint it advances to.
type RangeResult struct {
	Output     types.RangeExecOutput
	Proof      []byte
	Checkpoint types.TrustedCheckpoint
	// DARange is the inclusive DA height span the proof aggregates.
	DARange [2]uint64
}

// RangeConfig tunes the range-aggregation pipeline.
type RangeConfig struct {
	// WindowSize dispatches a range proof once this many block proofs are
	// buffered contiguously.
	WindowSize int
	// WindowTimeout dispatches a smaller window once this much time has
	// passed since the oldest queued proof.
	WindowTimeout time.Duration
	// GapTolerance bounds how long the pipeline waits for a missing block
	// proof while later ones are queued. Exceeding it is a fatal alarm.
	GapTolerance time.Duration
	// Mode is the proof mode for the aggregate; groth16 for on-chain
	// verification.
	Mode backend.ProofMode
}

// RangePipeline buffers completed block proofs, restores height order,
// validates continuity and dispatches recursive aggregation proofs. It is
// the sole writer of the trusted checkpoint. One range proof is in flight
// at a time; block proofs keep accumulating while it runs.
type RangePipeline struct {
	backend  backend.Backend
	registry *registry.Registry
	proofs   *store.ProofStore
	cfg      RangeConfig
	logger   log.Logger

	in      <-chan BlockResult
	out     chan<- RangeResult
	anchors chan<- Anchor
	cell    *CheckpointCell

	trusted types.TrustedCheckpoint
}

// NewRange constructs the pipeline. proofs and anchors may be nil.
func NewRange(
	bk backend.Backend,
	reg *registry.Registry,
	proofs *store.ProofStore,
	cfg RangeConfig,
	in <-chan BlockResult,
	out chan<- RangeResult,
	anchors chan<- Anchor,
	cell *CheckpointCell,
	logger log.Logger,
) *RangePipeline {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 1
	}
	if cfg.WindowTimeout <= 0 {
		cfg.WindowTimeout = time.Minute
	}
	if cfg.GapTolerance <= 0 {
		cfg.GapTolerance = 10 * time.Minute
	}
	return &RangePipeline{
		backend:  bk,
		registry: reg,
		proofs:   proofs,
		cfg:      cfg,
		logger:   logger.With("pipeline", "range"),
		in:       in,
		out:      out,
		anchors:  anchors,
		cell:     cell,
	}
}

// Trusted returns the pipeline's current trusted checkpoint. Only valid
// to read from the pipeline's own goroutine or after Run returns; other
// components receive snapshots via RangeResult.
func (p *RangePipeline) Trusted() types.TrustedCheckpoint {
	return p.trusted
}

// Run drives the pipeline from the given on-chain checkpoint until ctx is
// cancelled or a continuity violation halts it.
func (p *RangePipeline) Run(ctx context.Context, start types.TrustedCheckpoint) error {
	p.trusted = start
	if p.cell != nil {
		p.cell.Store(start)
	}

	// Pending block results keyed by DA height; the next expected height
	// is always trusted.DAHeight + 1.
	pending := make(map[uint64]BlockResult)
	var window []BlockResult
	var oldestQueued time.Time
	var gapSince time.Time

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case res, ok := <-p.in:
			if !ok {
				return nil
			}
			if res.DAHeight <= p.trusted.DAHeight {
				p.logger.Debug("dropping stale block proof", "da_height", res.DAHeight)
				continue
			}
			if _, dup := pending[res.DAHeight]; dup {
				continue
			}
			pending[res.DAHeight] = res

		case <-ticker.C:
			// fall through to window evaluation

		case <-ctx.Done():
			return ctx.Err()
		}

		// Drain contiguously available results into the ordered window.
		for {
			next, ok := pending[p.nextHeight(window)]
			if !ok {
				break
			}
			delete(pending, next.DAHeight)
			if len(window) == 0 {
				oldestQueued = time.Now()
			}
			window = append(window, next)
			gapSince = time.Time{}
		}

		// A later proof queued while the next expected height is missing
		// starts the gap clock.
		if len(pending) > 0 {
			if gapSince.IsZero() {
				gapSince = time.Now()
			}
			if time.Since(gapSince) > p.cfg.GapTolerance {
				return fmt.Errorf("%w: block proof for DA height %d missing for %s with %d later proofs queued",
					types.ErrContinuity, p.nextHeight(window), p.cfg.GapTolerance, len(pending))
			}
		}

		dispatch := len(window) >= p.cfg.WindowSize ||
			(len(window) > 0 && time.Since(oldestQueued) > p.cfg.WindowTimeout)
		if !dispatch {
			continue
		}

		batch := window
		if len(batch) > p.cfg.WindowSize {
			batch = batch[:p.cfg.WindowSize]
		}
		result, err := p.aggregate(ctx, batch)
		if err != nil {
			if errors.Is(err, types.ErrContinuity) {
				// Fatal: never prove a divergent chain.
				return fmt.Errorf("range pipeline halted: %w", err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("range aggregation failed, will retry window", "err", err)
			continue
		}

		window = window[len(batch):]
		if len(window) > 0 {
			oldestQueued = time.Now()
		}
		p.trusted = result.Checkpoint
		if p.cell != nil {
			p.cell.Store(result.Checkpoint)
		}

		if p.anchors != nil {
			select {
			case p.anchors <- Anchor{RollupHeight: result.Checkpoint.RollupHeight, StateRoot: result.Checkpoint.RollupStateRoot}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		select {
		case p.out <- result:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *RangePipeline) nextHeight(window []BlockResult) uint64 {
	if len(window) > 0 {
		return window[len(window)-1].DAHeight + 1
	}
	return p.trusted.DAHeight + 1
}

func (p *RangePipeline) aggregate(ctx context.Context, batch []BlockResult) (RangeResult, error) {
	input := types.RangeExecInput{Elements: make([]types.RangeExecElement, 0, len(batch))}
	for _, res := range batch {
		input.Elements = append(input.Elements, types.RangeExecElement{
			VerifyingKey: res.VerifyingKey,
			Output:       res.Output,
			Proof:        res.Proof,
		})
	}
	if err := input.Validate(p.trusted); err != nil {
		return RangeResult{}, err
	}

	key := registry.JobKey{Program: backend.ProgramRangeExec, Fingerprint: input.Fingerprint()}
	handle, guard, fresh := p.registry.Claim(key)
	if !fresh {
		res, err := p.registry.Await(ctx, handle)
		if err != nil {
			return RangeResult{}, err
		}
		if res.Err != nil {
			return RangeResult{}, res.Err
		}
		return p.finish(batch, res.Proof, res.PublicOutputs)
	}
	defer guard.Close()
	guard.Start()

	p.logger.Info("dispatching range proof",
		"blocks", len(batch),
		"da_from", batch[0].DAHeight, "da_to", batch[len(batch)-1].DAHeight)

	proof, err := p.backend.Prove(ctx, backend.ProgramRangeExec, input.Marshal(), p.cfg.Mode)
	if err != nil {
		guard.Fail(err)
		return RangeResult{}, fmt.Errorf("prove range: %w", err)
	}
	guard.Complete(proof.ProofBytes, proof.PublicOutputs)

	return p.finish(batch, proof.ProofBytes, proof.PublicOutputs)
}

func (p *RangePipeline) finish(batch []BlockResult, proof, public []byte) (RangeResult, error) {
	var output types.RangeExecOutput
	if err := output.Unmarshal(public); err != nil {
		return RangeResult{}, fmt.Errorf("decode range public outputs: %w", err)
	}

	last := batch[len(batch)-1]
	checkpoint := types.TrustedCheckpoint{
		RollupHeight:    output.NewRollupHeight,
		RollupStateRoot: output.NewRollupStateRoot,
		DAHeaderHash:    output.DAHeaderHash,
		DAHeight:        last.DAHeight,
	}
	if checkpoint.RollupHeight < p.trusted.RollupHeight {
		return RangeResult{}, fmt.Errorf("%w: range output height %d regresses below trusted %d",
			types.ErrContinuity, checkpoint.RollupHeight, p.trusted.RollupHeight)
	}

	daRange := [2]uint64{batch[0].DAHeight, last.DAHeight}
	if p.proofs != nil {
		if err := p.proofs.PutRangeProof(daRange[0], daRange[1], proof, public); err != nil {
			p.logger.Error("failed to store range proof", "err", err)
		}
	}

	p.logger.Info("range proof completed",
		"trusted_height", output.TrustedRollupHeight,
		"new_height", output.NewRollupHeight,
		"da_from", daRange[0], "da_to", daRange[1])

	return RangeResult{
		Output:     output,
		Proof:      proof,
		Checkpoint: checkpoint,
		DARange:    daRange,
	}, nil
}
