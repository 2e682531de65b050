package backend

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cosmossdk.io/log"
)

// SP1Backend drives an sp1-style prover daemon over its HTTP JSON API.
// The daemon holds the compiled guest ELFs; the orchestrator addresses
// them by program identifier. All three proof modes are supported.
type SP1Backend struct {
	endpoint string
	client   *http.Client
	logger   log.Logger

	vkeys map[string][32]byte
}

// NewSP1 constructs the backend and loads the verifying key table from the
// daemon once. Verifying keys are pure per program and cached for the
// process lifetime.
func NewSP1(ctx context.Context, endpoint string, callTimeout time.Duration, logger log.Logger) (*SP1Backend, error) {
	b := &SP1Backend{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   &http.Client{Timeout: callTimeout},
		logger:   logger.With("backend", "sp1"),
	}
	vkeys, err := b.fetchVerifyingKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("sp1: load verifying keys: %w", err)
	}
	b.vkeys = vkeys
	return b, nil
}

func (b *SP1Backend) Name() string { return "sp1" }

type sp1ProveRequest struct {
	Program string `json:"program"`
	Mode    string `json:"mode"`
	// Stdin is the hex-encoded serialized program input.
	Stdin string `json:"stdin"`
}

type sp1ProveResponse struct {
	Proof        string `json:"proof"`
	PublicValues string `json:"public_values"`
	Error        string `json:"error,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
}

func (b *SP1Backend) Prove(ctx context.Context, program string, input []byte, mode ProofMode) (Proof, error) {
	if _, ok := b.vkeys[program]; !ok {
		return Proof{}, fmt.Errorf("%w: %s", ErrUnknownProgram, program)
	}
	req := sp1ProveRequest{Program: program, Mode: mode.String(), Stdin: hex.EncodeToString(input)}

	var resp sp1ProveResponse
	if err := b.post(ctx, "/v1/prove", req, &resp); err != nil {
		return Proof{}, err
	}
	if resp.Error != "" {
		return Proof{}, classifySP1Error(resp.ErrorKind, resp.Error)
	}

	proof, err := hex.DecodeString(resp.Proof)
	if err != nil {
		return Proof{}, fmt.Errorf("sp1: decode proof: %w", err)
	}
	public, err := hex.DecodeString(resp.PublicValues)
	if err != nil {
		return Proof{}, fmt.Errorf("sp1: decode public values: %w", err)
	}
	return Proof{ProofBytes: proof, PublicOutputs: public}, nil
}

func (b *SP1Backend) VerifyingKey(program string) ([32]byte, error) {
	vk, ok := b.vkeys[program]
	if !ok {
		return [32]byte{}, fmt.Errorf("%w: %s", ErrUnknownProgram, program)
	}
	return vk, nil
}

type sp1VerifyRequest struct {
	Program      string `json:"program"`
	Proof        string `json:"proof"`
	PublicValues string `json:"public_values"`
}

type sp1VerifyResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func (b *SP1Backend) Verify(ctx context.Context, program string, proof Proof) (bool, error) {
	req := sp1VerifyRequest{
		Program:      program,
		Proof:        hex.EncodeToString(proof.ProofBytes),
		PublicValues: hex.EncodeToString(proof.PublicOutputs),
	}
	var resp sp1VerifyResponse
	if err := b.post(ctx, "/v1/verify", req, &resp); err != nil {
		return false, err
	}
	if resp.Error != "" {
		return false, fmt.Errorf("sp1: verify: %s", resp.Error)
	}
	return resp.Valid, nil
}

type sp1VKeyResponse struct {
	Keys map[string]string `json:"keys"`
}

func (b *SP1Backend) fetchVerifyingKeys(ctx context.Context) (map[string][32]byte, error) {
	var resp sp1VKeyResponse
	if err := b.get(ctx, "/v1/verifying_keys", &resp); err != nil {
		return nil, err
	}
	out := make(map[string][32]byte, len(resp.Keys))
	for program, hexKey := range resp.Keys {
		raw, err := hex.DecodeString(strings.TrimPrefix(hexKey, "0x"))
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("bad verifying key for %s: %q", program, hexKey)
		}
		var vk [32]byte
		copy(vk[:], raw)
		out[program] = vk
	}
	return out, nil
}

func (b *SP1Backend) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("sp1: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("sp1: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return b.do(req, out)
}

func (b *SP1Backend) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+path, nil)
	if err != nil {
		return fmt.Errorf("sp1: build request: %w", err)
	}
	return b.do(req, out)
}

func (b *SP1Backend) do(req *http.Request, out any) error {
	resp, err := b.client.Do(req)
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w: %s %s: %v", ErrTimeout, req.Method, req.URL.Path, err)
		}
		return fmt.Errorf("%w: %s %s: %v", ErrProverNetwork, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrProverNetwork, err)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s returned %d: %s", ErrProverNetwork, req.URL.Path, resp.StatusCode, raw)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sp1: %s returned %d: %s", req.URL.Path, resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("sp1: decode response: %w", err)
	}
	return nil
}

func classifySP1Error(kind, msg string) error {
	switch kind {
	case "guest_panic":
		return fmt.Errorf("%w: %s", ErrGuestPanic, msg)
	case "network":
		return fmt.Errorf("%w: %s", ErrProverNetwork, msg)
	case "timeout":
		return fmt.Errorf("%w: %s", ErrTimeout, msg)
	default:
		return fmt.Errorf("sp1 prover error: %s", msg)
	}
}

// digestProgram derives the deterministic program digests that MockBackend
// reports as verifying keys.
func digestProgram(backendName, program string) [32]byte {
	return sha256.Sum256([]byte(backendName + "/" + program))
}
