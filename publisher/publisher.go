// Package publisher submits finalized proofs to the DA chain's zkism
// module as signed cosmos transactions and polls their inclusion.
// Submission is serialized per signer so no two in-flight transactions
// share a sequence number.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/cosmos/cosmos-sdk/client"
	clienttx "github.com/cosmos/cosmos-sdk/client/tx"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txsigning "github.com/cosmos/cosmos-sdk/types/tx/signing"
	authsigning "github.com/cosmos/cosmos-sdk/x/auth/signing"
	authtx "github.com/cosmos/cosmos-sdk/x/auth/tx"
	"google.golang.org/grpc"

	"github.com/celestiaorg/ev-prover/prover/pipeline"
	"github.com/celestiaorg/ev-prover/zkism"
)

// ErrSubmissionFailed marks a transaction that was rejected on delivery or
// never included within the retry cap.
var ErrSubmissionFailed = errors.New("proof submission failed")

// Config tunes the publisher.
type Config struct {
	// ChainID is the DA chain id.
	ChainID string
	// CometRPC is the comet RPC endpoint for inclusion polling.
	CometRPC string
	// IsmID is the zkism instance advanced by range proofs.
	IsmID string
	// SignerKey is the raw Ed25519 signing key from configuration.
	SignerKey []byte
	// GasLimit per transaction.
	GasLimit uint64
	// FeeAmount in utia.
	FeeAmount int64
	// InclusionTimeout bounds one inclusion-polling round.
	InclusionTimeout time.Duration
	// MaxAttempts caps resubmissions with fresh sequence numbers.
	MaxAttempts int
}

// Publisher signs and submits proof messages.
type Publisher struct {
	cfg       Config
	clientCtx client.Context
	privKey   cryptotypes.PrivKey
	signer    sdk.AccAddress
	logger    log.Logger

	// signerMu serializes one in-flight transaction per signer for the
	// duration of a tx round-trip. No suspension elsewhere holds it.
	signerMu sync.Mutex

	ranges   <-chan pipeline.RangeResult
	messages <-chan pipeline.MessageResult

	// submitted de-duplicates repeat submissions after inclusion.
	submittedMu sync.Mutex
	submitted   map[string]struct{}
}

// New constructs a publisher over an established chain gRPC connection.
func New(
	cfg Config,
	grpcConn *grpc.ClientConn,
	ranges <-chan pipeline.RangeResult,
	messages <-chan pipeline.MessageResult,
	logger log.Logger,
) (*Publisher, error) {
	if cfg.GasLimit == 0 {
		cfg.GasLimit = 400_000
	}
	if cfg.InclusionTimeout == 0 {
		cfg.InclusionTimeout = 90 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}

	privKey, err := signerKeyFromHex(cfg.SignerKey)
	if err != nil {
		return nil, fmt.Errorf("parse signer key: %w", err)
	}
	clientCtx, err := setupClientContext(cfg.ChainID, cfg.CometRPC, grpcConn)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		cfg:       cfg,
		clientCtx: clientCtx,
		privKey:   privKey,
		signer:    sdk.AccAddress(privKey.PubKey().Address()),
		logger:    logger.With("component", "publisher"),
		ranges:    ranges,
		messages:  messages,
		submitted: make(map[string]struct{}),
	}, nil
}

// SignerAddress returns the bech32 signer address.
func (p *Publisher) SignerAddress() string {
	return sdk.MustBech32ifyAddressBytes(Bech32Prefix, p.signer)
}

// Run consumes range and message results until both inputs close or ctx is
// cancelled. A signer failure is fatal.
func (p *Publisher) Run(ctx context.Context) error {
	ranges := p.ranges
	messages := p.messages
	for ranges != nil || messages != nil {
		select {
		case res, ok := <-ranges:
			if !ok {
				ranges = nil
				continue
			}
			msg := &zkism.MsgUpdateZKExecutionISM{
				Id:           p.cfg.IsmID,
				Height:       res.Checkpoint.RollupHeight,
				Proof:        res.Proof,
				PublicValues: res.Output.Marshal(),
				Signer:       p.SignerAddress(),
			}
			if err := p.Submit(ctx, msg, dedupKey("range", res.Proof)); err != nil {
				return fmt.Errorf("publish range proof at height %d: %w", res.Checkpoint.RollupHeight, err)
			}

		case res, ok := <-messages:
			if !ok {
				messages = nil
				continue
			}
			msg := &zkism.MsgSubmitMessages{
				Id:           p.cfg.IsmID,
				Height:       res.AnchorHeight,
				Proof:        res.Proof,
				PublicValues: res.Output.Marshal(),
				Signer:       p.SignerAddress(),
			}
			if err := p.Submit(ctx, msg, dedupKey("message", res.Proof)); err != nil {
				return fmt.Errorf("publish message proof at height %d: %w", res.AnchorHeight, err)
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Submit signs, broadcasts and awaits inclusion of one message.
// Resubmitting a proof that was already included is a no-op.
func (p *Publisher) Submit(ctx context.Context, msg sdk.Msg, key string) error {
	p.submittedMu.Lock()
	if _, done := p.submitted[key]; done {
		p.submittedMu.Unlock()
		p.logger.Debug("proof already submitted, skipping", "key", key)
		return nil
	}
	p.submittedMu.Unlock()

	p.signerMu.Lock()
	defer p.signerMu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		txHash, err := p.broadcast(ctx, msg)
		if err != nil {
			lastErr = err
			p.logger.Error("broadcast failed", "attempt", attempt, "err", err)
			continue
		}
		included, err := p.awaitInclusion(ctx, txHash)
		if err != nil {
			return err
		}
		if included {
			p.submittedMu.Lock()
			p.submitted[key] = struct{}{}
			p.submittedMu.Unlock()
			p.logger.Info("proof included on-chain", "tx_hash", txHash, "attempt", attempt)
			return nil
		}
		// Not seen within the timeout: retry with a fresh sequence number.
		lastErr = fmt.Errorf("tx %s not included within %s", txHash, p.cfg.InclusionTimeout)
		p.logger.Warn("inclusion timeout, resubmitting with fresh sequence",
			"tx_hash", txHash, "attempt", attempt)
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrSubmissionFailed, p.cfg.MaxAttempts, lastErr)
}

// broadcast builds, signs and broadcasts a tx with the signer's current
// on-chain sequence, returning the tx hash.
func (p *Publisher) broadcast(ctx context.Context, msg sdk.Msg) (string, error) {
	accNum, accSeq, err := p.clientCtx.AccountRetriever.GetAccountNumberSequence(p.clientCtx, p.signer)
	if err != nil {
		return "", fmt.Errorf("query signer account: %w", err)
	}

	builder := p.clientCtx.TxConfig.NewTxBuilder()
	if err := builder.SetMsgs(msg); err != nil {
		return "", fmt.Errorf("set msgs: %w", err)
	}
	builder.SetGasLimit(p.cfg.GasLimit)
	builder.SetFeeAmount(sdk.NewCoins(sdk.NewInt64Coin("utia", p.cfg.FeeAmount)))
	builder.SetMemo("ev-prover proof submission")

	signerData := authsigning.SignerData{
		Address:       p.SignerAddress(),
		ChainID:       p.cfg.ChainID,
		AccountNumber: accNum,
		Sequence:      accSeq,
		PubKey:        p.privKey.PubKey(),
	}

	// Set an empty signature first so the sign bytes cover the right mode.
	sigData := txsigning.SignatureV2{
		PubKey: p.privKey.PubKey(),
		Data: &txsigning.SingleSignatureData{
			SignMode: txsigning.SignMode_SIGN_MODE_DIRECT,
		},
		Sequence: accSeq,
	}
	if err := builder.SetSignatures(sigData); err != nil {
		return "", fmt.Errorf("set placeholder signature: %w", err)
	}

	sig, err := clienttx.SignWithPrivKey(
		ctx, txsigning.SignMode_SIGN_MODE_DIRECT, signerData,
		builder, p.privKey, p.clientCtx.TxConfig, accSeq,
	)
	if err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}
	if err := builder.SetSignatures(sig); err != nil {
		return "", fmt.Errorf("set signature: %w", err)
	}

	raw, err := p.clientCtx.TxConfig.TxEncoder()(builder.GetTx())
	if err != nil {
		return "", fmt.Errorf("encode tx: %w", err)
	}

	resp, err := p.clientCtx.BroadcastTxSync(raw)
	if err != nil {
		return "", fmt.Errorf("broadcast tx: %w", err)
	}
	if resp.Code != 0 {
		return "", fmt.Errorf("%w: broadcast rejected with code %d: %s", ErrSubmissionFailed, resp.Code, resp.RawLog)
	}
	return resp.TxHash, nil
}

// awaitInclusion polls the tx by hash until it lands in a block or the
// inclusion timeout elapses. Returns (false, nil) on timeout so the caller
// can resubmit.
func (p *Publisher) awaitInclusion(ctx context.Context, txHash string) (bool, error) {
	pollCtx, cancel := context.WithTimeout(ctx, p.cfg.InclusionTimeout)
	defer cancel()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			resp, err := authtx.QueryTx(p.clientCtx, txHash)
			if err != nil {
				// Not found yet; keep polling.
				continue
			}
			if resp.Code != 0 {
				return false, fmt.Errorf("%w: tx %s executed with code %d: %s",
					ErrSubmissionFailed, txHash, resp.Code, resp.RawLog)
			}
			p.logger.Debug("tx landed", "tx_hash", txHash, "height", resp.Height)
			return true, nil
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return false, nil
		}
	}
}

func dedupKey(kind string, proof []byte) string {
	if len(proof) > 16 {
		proof = proof[:16]
	}
	return fmt.Sprintf("%s/%x", kind, proof)
}
