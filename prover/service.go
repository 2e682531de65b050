// Package prover wires the chain watchers, pipelines, backend pool,
// publisher and gRPC surface into one long-running service.
package prover

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/celestiaorg/ev-prover/celestia"
	"github.com/celestiaorg/ev-prover/config"
	"github.com/celestiaorg/ev-prover/evm"
	"github.com/celestiaorg/ev-prover/prover/assembler"
	"github.com/celestiaorg/ev-prover/prover/backend"
	"github.com/celestiaorg/ev-prover/prover/pipeline"
	"github.com/celestiaorg/ev-prover/prover/registry"
	"github.com/celestiaorg/ev-prover/publisher"
	"github.com/celestiaorg/ev-prover/server"
	"github.com/celestiaorg/ev-prover/store"
	"github.com/celestiaorg/ev-prover/types"
	"github.com/celestiaorg/ev-prover/zkism"
)

// Exit classifications surfaced to the process entrypoint.
var (
	// ErrContinuityHalt wraps an unrecoverable continuity violation.
	ErrContinuityHalt = errors.New("continuity halt")
	// ErrSignerFailure wraps a fatal publisher signing failure.
	ErrSignerFailure = errors.New("signer failure")
)

const (
	registryRetention = time.Hour
	reapInterval      = 5 * time.Minute
	queueCapacity     = 256
)

// Service is the assembled orchestrator.
type Service struct {
	cfg    config.Config
	logger log.Logger

	daClient  celestia.Client
	evmClient *evm.Client
	chainConn *grpc.ClientConn

	backend  backend.Backend
	registry *registry.Registry
	proofs   *store.ProofStore
	cell     *pipeline.CheckpointCell

	asm         *assembler.Assembler
	watcher     *celestia.Watcher
	headWatcher *evm.HeadWatcher
	blocks      *pipeline.BlockExecPipeline
	ranges      *pipeline.RangePipeline
	messages    *pipeline.MessagePipeline
	pub         *publisher.Publisher
	grpcSrv     *server.Server

	start          types.TrustedCheckpoint
	heights        chan uint64
	rangeResults   chan pipeline.RangeResult
	messageResults chan pipeline.MessageResult

	healthMu sync.Mutex
	health   map[string]server.Health
}

// New assembles the service from configuration. All connections are
// established here; a failure is a configuration or startup error.
func New(ctx context.Context, cfg config.Config, homeDir string, logger log.Logger) (*Service, error) {
	s := &Service{
		cfg:    cfg,
		logger: logger,
		cell:   &pipeline.CheckpointCell{},
		health: make(map[string]server.Health),
	}

	namespace, err := cfg.ParseNamespace()
	if err != nil {
		return nil, err
	}
	sequencerKey, err := cfg.ParseSequencerKey()
	if err != nil {
		return nil, err
	}
	mode, err := backend.ParseProofMode(cfg.ProofMode)
	if err != nil {
		return nil, err
	}

	// Backend selection is a startup-time decision; it cannot change at
	// runtime.
	bk, format, err := s.buildBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	s.backend = backend.WithRetry(bk, backend.RetryPolicy{
		Budget:    cfg.RetryBudget,
		BaseDelay: cfg.RetryBaseDelay,
		MaxDelay:  time.Minute,
	})

	s.daClient, err = celestia.Dial(ctx, cfg.DARpc, cfg.DAAuthToken)
	if err != nil {
		return nil, err
	}
	s.evmClient, err = evm.Dial(ctx, cfg.EvmRpc)
	if err != nil {
		return nil, err
	}
	s.chainConn, err = grpc.NewClient(cfg.CelestiaGrpc, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to chain grpc %s: %w", cfg.CelestiaGrpc, err)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(homeDir, config.DataDir, "proofs.db")
	}
	s.proofs, err = store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	s.registry = registry.New(registryRetention)
	s.asm = assembler.New(s.daClient, s.evmClient, assembler.Config{
		Format:          format,
		Namespace:       namespace,
		SequencerPubKey: sequencerKey,
		RetryBudget:     cfg.RetryBudget,
		RetryBaseDelay:  cfg.RetryBaseDelay,
		CallTimeout:     cfg.CallTimeout,
	}, logger)
	s.watcher = celestia.NewWatcher(s.daClient, logger)
	if cfg.EvmWs != "" {
		s.headWatcher = evm.NewHeadWatcher(cfg.EvmWs, logger)
	}

	// Bounded queues between pipeline stages.
	heights := make(chan uint64, queueCapacity)
	blockResults := make(chan pipeline.BlockResult, queueCapacity)
	rangeResults := make(chan pipeline.RangeResult, queueCapacity)
	messageResults := make(chan pipeline.MessageResult, queueCapacity)
	anchors := make(chan pipeline.Anchor, queueCapacity)

	blockMode := backend.ModeCompressed
	if cfg.Backend == "risc0" {
		// risc0 rejects the compressed artifact shape; its recursion
		// consumes default-mode receipts.
		blockMode = backend.ModeDefault
	}

	s.blocks = pipeline.NewBlockExec(s.asm, s.backend, s.registry, s.proofs, pipeline.BlockExecConfig{
		MaxConcurrent: cfg.MaxConcurrentProofs,
		Mode:          blockMode,
	}, heights, blockResults, logger)

	rangeMode := backend.ModeGroth16
	if mode != backend.ModeDefault {
		rangeMode = mode
	}
	s.ranges = pipeline.NewRange(s.backend, s.registry, s.proofs, pipeline.RangeConfig{
		WindowSize:    cfg.RangeWindowSize,
		WindowTimeout: cfg.RangeWindowTimeout,
		GapTolerance:  cfg.RangeGapTolerance,
		Mode:          rangeMode,
	}, blockResults, rangeResults, anchors, s.cell, logger)

	s.messages, err = pipeline.NewMessage(s.evmClient, s.backend, s.registry, s.proofs, pipeline.MessageConfig{
		Mailbox:           common.HexToAddress(cfg.MailboxAddress),
		MerkleTreeAddress: common.HexToAddress(cfg.MerkleTreeAddress),
		Mode:              rangeMode,
	}, anchors, messageResults, logger)
	if err != nil {
		return nil, err
	}

	if cfg.SignerKey != "" {
		signerKey, err := cfg.ParseSignerKey()
		if err != nil {
			return nil, err
		}
		s.pub, err = publisher.New(publisher.Config{
			ChainID:          cfg.ChainID,
			CometRPC:         cfg.CometRpc,
			IsmID:            cfg.IsmID,
			SignerKey:        signerKey,
			GasLimit:         cfg.GasLimit,
			FeeAmount:        cfg.FeeAmount,
			InclusionTimeout: cfg.InclusionTimeout,
			MaxAttempts:      cfg.MaxTxAttempts,
		}, s.chainConn, rangeResults, messageResults, logger)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("no signer_key configured, proofs will not be submitted on-chain")
	}

	s.grpcSrv = server.New(s.backend, s.registry, s.cell, s.asm, s.messages, s.proofs, s, logger)

	s.heights = heights
	s.rangeResults = rangeResults
	s.messageResults = messageResults
	return s, nil
}

func (s *Service) buildBackend(ctx context.Context, cfg config.Config, logger log.Logger) (backend.Backend, types.WitnessFormat, error) {
	switch cfg.Backend {
	case "sp1":
		bk, err := backend.NewSP1(ctx, cfg.Sp1Endpoint, cfg.CallTimeout, logger)
		if err != nil {
			return nil, 0, err
		}
		return bk, types.WitnessRsp, nil
	case "risc0":
		bk, err := backend.NewRisc0(ctx, cfg.Risc0Endpoint, cfg.Risc0ApiKey, cfg.CallTimeout, logger)
		if err != nil {
			return nil, 0, err
		}
		return bk, types.WitnessZeth, nil
	case "mock":
		logger.Warn("mock backend enabled, proofs provide no security")
		return backend.NewMock(), types.WitnessRsp, nil
	default:
		return nil, 0, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Bootstrap loads the trusted checkpoint: the on-chain zkism state when it
// exists, otherwise the genesis checkpoint from configuration.
func (s *Service) Bootstrap(ctx context.Context) error {
	genesis, err := s.cfg.ParseTrustedCheckpoint()
	if err != nil {
		return err
	}
	s.start = genesis

	if s.cfg.IsmID != "" {
		query := zkism.NewQueryClient(s.chainConn)
		checkpoint, ok, err := query.TrustedCheckpoint(ctx, s.cfg.IsmID)
		if err != nil {
			return fmt.Errorf("bootstrap from zkism: %w", err)
		}
		if ok {
			s.start = checkpoint
			s.logger.Info("bootstrapped trusted checkpoint from chain", "checkpoint", checkpoint)
			return nil
		}
	}
	s.logger.Info("using genesis trusted checkpoint", "checkpoint", genesis)
	return nil
}

// Run drives all tasks until ctx is cancelled or a fatal error halts the
// service. The returned error is nil on graceful shutdown.
func (s *Service) Run(ctx context.Context) error {
	defer s.close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.trackHealth("da_watcher", s.watcher.Run(ctx, s.start.DAHeight+1, s.heights))
	})
	g.Go(func() error {
		err := s.blocks.Run(ctx, s.start)
		if err != nil && errors.Is(err, types.ErrContinuity) {
			err = fmt.Errorf("%w: %v", ErrContinuityHalt, err)
		}
		return s.trackHealth("block_exec", err)
	})
	g.Go(func() error {
		err := s.ranges.Run(ctx, s.start)
		if err != nil && errors.Is(err, types.ErrContinuity) {
			err = fmt.Errorf("%w: %v", ErrContinuityHalt, err)
		}
		return s.trackHealth("range", err)
	})
	g.Go(func() error {
		return s.trackHealth("message", s.messages.Run(ctx))
	})
	if s.pub != nil {
		g.Go(func() error {
			err := s.pub.Run(ctx)
			if err != nil && errors.Is(err, publisher.ErrSubmissionFailed) {
				err = fmt.Errorf("%w: %v", ErrSignerFailure, err)
			}
			return s.trackHealth("publisher", err)
		})
	} else {
		// Without a publisher the results are drained so the pipelines
		// keep proving.
		g.Go(func() error {
			for {
				select {
				case <-s.rangeResults:
				case <-s.messageResults:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	}
	g.Go(func() error {
		return s.grpcSrv.Serve(ctx, s.cfg.GrpcListenAddr)
	})
	if s.cfg.HTTPListenAddr != "" {
		g.Go(func() error {
			return server.ServeHTTP(ctx, s.cfg.HTTPListenAddr, s.cell, s.registry, s.logger)
		})
	}
	if s.headWatcher != nil {
		rollupHeads := make(chan uint64, queueCapacity)
		g.Go(func() error {
			return s.headWatcher.Run(ctx, rollupHeads)
		})
		g.Go(func() error {
			return s.monitorLag(ctx, rollupHeads)
		})
	}
	g.Go(func() error {
		ticker := time.NewTicker(reapInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := s.registry.Reap(); n > 0 {
					s.logger.Debug("reaped terminal jobs", "count", n)
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// warnDistance is how far the trusted checkpoint may trail the rollup
// head before the lag is logged as a warning.
const warnDistance = 32

// monitorLag consumes rollup head notifications and reports how far the
// proven checkpoint trails the chain.
func (s *Service) monitorLag(ctx context.Context, heads <-chan uint64) error {
	for {
		select {
		case head, ok := <-heads:
			if !ok {
				return nil
			}
			cp, ok := s.cell.Load()
			if !ok {
				continue
			}
			distance := head - cp.RollupHeight
			if head < cp.RollupHeight {
				distance = 0
			}
			if distance >= warnDistance {
				s.logger.Warn("prover is behind rollup head", "distance", distance, "head", head, "trusted", cp.RollupHeight)
			} else {
				s.logger.Debug("rollup head observed", "distance", distance, "head", head)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// PipelineHealth implements server.HealthSource.
func (s *Service) PipelineHealth() []server.Health {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	names := []string{"da_watcher", "block_exec", "range", "message", "publisher"}
	out := make([]server.Health, 0, len(names))
	for _, name := range names {
		if h, ok := s.health[name]; ok {
			out = append(out, h)
		} else {
			out = append(out, server.Health{Name: name, Healthy: true})
		}
	}
	return out
}

func (s *Service) trackHealth(name string, err error) error {
	if err != nil && !errors.Is(err, context.Canceled) {
		s.healthMu.Lock()
		s.health[name] = server.Health{Name: name, Healthy: false, Detail: err.Error()}
		s.healthMu.Unlock()
	}
	return err
}

func (s *Service) close() {
	if s.daClient != nil {
		s.daClient.Close()
	}
	if s.evmClient != nil {
		s.evmClient.Close()
	}
	if s.chainConn != nil {
		s.chainConn.Close()
	}
	if s.proofs != nil {
		s.proofs.Close()
	}
}
