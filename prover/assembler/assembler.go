// Package assembler composes block-execution program inputs from raw chain
// RPC responses: DA headers, namespaced blobs with their inclusion proofs
// and per-rollup-block execution witnesses.
package assembler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/log"
	"github.com/cenkalti/backoff/v4"

	"github.com/celestiaorg/ev-prover/celestia"
	"github.com/celestiaorg/ev-prover/evm"
	"github.com/celestiaorg/ev-prover/types"
)

// Error kinds surfaced to the pipeline. The caller sees either success or
// one categorized error; retries are local to the assembler.
var (
	// ErrRPCUnavailable wraps transport failures that exhausted the retry
	// budget.
	ErrRPCUnavailable = errors.New("rpc unavailable")
	// ErrMalformedBlob marks a blob that does not decode or carries a bad
	// signature. Fatal for the height; the pipeline skips it loudly.
	ErrMalformedBlob = errors.New("malformed blob")
	// ErrWitnessFetch marks an execution-witness fetch that failed after
	// bounded retries. Fatal for the height.
	ErrWitnessFetch = errors.New("witness fetch failed")
	// ErrHeaderMismatch marks a DA header that does not chain back to the
	// trusted DA header hash.
	ErrHeaderMismatch = errors.New("da header does not chain to trusted hash")
)

// RollupClient is the rollup RPC surface the assembler needs: witness
// fetch in the active backend's format plus header lookups for the
// optimistic checkpoint advance.
type RollupClient interface {
	ExecutionWitness(ctx context.Context, number uint64, format types.WitnessFormat) ([]byte, error)
	BlockByNumber(ctx context.Context, number uint64) (evm.BlockInfo, error)
}

// Config tunes the assembler's local retry behavior.
type Config struct {
	// Format selects the witness variant for the active backend.
	Format types.WitnessFormat
	// Namespace filters DA blobs.
	Namespace types.Namespace
	// SequencerPubKey authenticates blob envelopes.
	SequencerPubKey [32]byte
	// RetryBudget bounds retries per RPC call.
	RetryBudget uint64
	// RetryBaseDelay is the initial backoff interval.
	RetryBaseDelay time.Duration
	// CallTimeout bounds each individual RPC call.
	CallTimeout time.Duration
}

// Assembler builds block-execution inputs for DA heights.
type Assembler struct {
	da     celestia.Client
	rollup RollupClient
	cfg    Config
	logger log.Logger
}

// Assembled pairs a block-execution input with the scheduling context the
// pipeline needs: the DA header hash for chaining and the optimistic
// checkpoint for the next height's input.
type Assembled struct {
	DAHeight   uint64
	HeaderHash []byte
	Input      *types.BlockExecInput
	// NextCheckpoint anchors the following DA height. For an empty input
	// only the DA fields advance; otherwise the rollup fields advance to
	// the last embedded block using the state root advertised by the
	// rollup node. The advance is optimistic: proofs still verify it.
	NextCheckpoint types.TrustedCheckpoint
}

// New constructs an assembler.
func New(da celestia.Client, rollup RollupClient, cfg Config, logger log.Logger) *Assembler {
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	return &Assembler{da: da, rollup: rollup, cfg: cfg, logger: logger.With("component", "assembler")}
}

// Assemble builds the block-execution input covering all rollup blocks
// embedded in DA block height in the configured namespace, anchored at the
// trusted checkpoint. A height with no blobs in the namespace yields an
// empty input that still advances the DA header hash.
//
// The trusted checkpoint's DA header hash must be the hash of height-1 (or
// of a prior output already scheduled); the header's previous-hash link is
// validated against it when prevHash is non-nil.
func (a *Assembler) Assemble(ctx context.Context, height uint64, trusted types.TrustedCheckpoint, prevHash []byte) (*Assembled, error) {
	header, err := a.fetchHeader(ctx, height)
	if err != nil {
		return nil, err
	}
	if prevHash != nil && !bytes.Equal(header.PrevHash, prevHash) {
		return nil, fmt.Errorf("%w: height %d prev hash %x, expected %x",
			ErrHeaderMismatch, height, header.PrevHash, prevHash)
	}

	blobs, err := a.fetchBlobs(ctx, height)
	if err != nil {
		return nil, err
	}

	input := &types.BlockExecInput{
		HeaderRaw:       header.Raw,
		DAHRowRoots:     header.RowRoots,
		DAHColumnRoots:  header.ColumnRoots,
		Namespace:       a.cfg.Namespace,
		SequencerPubKey: a.cfg.SequencerPubKey,
		WitnessFormat:   a.cfg.Format,
		Checkpoint:      trusted,
	}

	if len(blobs) == 0 {
		// Null transition: no blobs in the namespace at this height. The
		// proof still advances the DA header hash.
		a.logger.Debug("no blobs in namespace", "da_height", height)
		next := trusted
		next.DAHeaderHash = hash32(header.Hash)
		next.DAHeight = height
		return &Assembled{DAHeight: height, HeaderHash: header.Hash, Input: input, NextCheckpoint: next}, nil
	}

	proofs, err := a.fetchNamespaceProofs(ctx, height)
	if err != nil {
		return nil, err
	}
	input.ShareProofs = proofs

	// Blob order is the DA layer's canonical share order as returned by
	// the node; it is committed to in the DAH and must not be reordered.
	for i, b := range blobs {
		signed, err := types.DecodeSignedData(b.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: height %d blob %d: %v", ErrMalformedBlob, height, i, err)
		}
		if err := signed.VerifySignature(a.cfg.SequencerPubKey); err != nil {
			return nil, fmt.Errorf("%w: height %d blob %d: %v", ErrMalformedBlob, height, i, err)
		}
		input.Blobs = append(input.Blobs, b.Data)
		input.RollupHeights = append(input.RollupHeights, signed.RollupHeight())
	}

	for _, rollupHeight := range input.RollupHeights {
		witness, err := a.fetchWitness(ctx, rollupHeight)
		if err != nil {
			return nil, err
		}
		input.Witnesses = append(input.Witnesses, witness)
	}

	last := input.RollupHeights[len(input.RollupHeights)-1]
	block, err := a.fetchBlockInfo(ctx, last)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("assembled block exec input",
		"da_height", height, "blobs", len(input.Blobs), "rollup_heights", input.RollupHeights)
	return &Assembled{
		DAHeight:   height,
		HeaderHash: header.Hash,
		Input:      input,
		NextCheckpoint: types.TrustedCheckpoint{
			RollupHeight:    last,
			RollupStateRoot: [32]byte(block.StateRoot),
			DAHeaderHash:    hash32(header.Hash),
			DAHeight:        height,
		},
	}, nil
}

func (a *Assembler) fetchBlockInfo(ctx context.Context, number uint64) (evm.BlockInfo, error) {
	var info evm.BlockInfo
	err := a.retry(ctx, func(callCtx context.Context) error {
		var err error
		info, err = a.rollup.BlockByNumber(callCtx, number)
		return err
	})
	if err != nil {
		return info, fmt.Errorf("%w: rollup header %d: %v", ErrRPCUnavailable, number, err)
	}
	return info, nil
}

func hash32(b []byte) [32]byte {
	var out [32]byte
	copy(out[:], b)
	return out
}

func (a *Assembler) fetchHeader(ctx context.Context, height uint64) (*celestia.Header, error) {
	var header *celestia.Header
	err := a.retry(ctx, func(callCtx context.Context) error {
		var err error
		header, err = a.da.GetHeader(callCtx, height)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: header at %d: %v", ErrRPCUnavailable, height, err)
	}
	return header, nil
}

func (a *Assembler) fetchBlobs(ctx context.Context, height uint64) ([]celestia.BlobEntry, error) {
	var blobs []celestia.BlobEntry
	err := a.retry(ctx, func(callCtx context.Context) error {
		var err error
		blobs, err = a.da.GetBlobs(callCtx, height, a.cfg.Namespace)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: blobs at %d: %v", ErrRPCUnavailable, height, err)
	}
	return blobs, nil
}

func (a *Assembler) fetchNamespaceProofs(ctx context.Context, height uint64) ([][]byte, error) {
	var proofs [][]byte
	err := a.retry(ctx, func(callCtx context.Context) error {
		var err error
		proofs, err = a.da.GetNamespaceProofs(callCtx, height, a.cfg.Namespace)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: namespace proofs at %d: %v", ErrRPCUnavailable, height, err)
	}
	return proofs, nil
}

func (a *Assembler) fetchWitness(ctx context.Context, rollupHeight uint64) ([]byte, error) {
	var witness []byte
	err := a.retry(ctx, func(callCtx context.Context) error {
		var err error
		witness, err = a.rollup.ExecutionWitness(callCtx, rollupHeight, a.cfg.Format)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: rollup block %d: %v", ErrWitnessFetch, rollupHeight, err)
	}
	return witness, nil
}

// retry runs op under the assembler's backoff policy with a per-call
// timeout. Context cancellation is terminal.
func (a *Assembler) retry(ctx context.Context, op func(context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = a.cfg.RetryBaseDelay
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, a.cfg.RetryBudget), ctx)

	return backoff.Retry(func() error {
		callCtx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
		defer cancel()
		if err := op(callCtx); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		return nil
	}, policy)
}
