package backend

import (
	"bytes"
	"context"
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

// Risc0Backend drives a risc0 proving service over its session-based REST
// API: create a proving session for the image with the input inline, poll
// the session until it succeeds or fails. The compressed proof mode is an
// sp1-only artifact shape and is rejected here with ErrUnsupportedMode.
type Risc0Backend struct {
	endpoint     string
	apiKey       string
	client       *http.Client
	pollInterval time.Duration
	logger       log.Logger

	// imageIDs maps program identifiers to the 32-byte guest image IDs,
	// which double as the verifying key digests.
	imageIDs map[string][32]byte
}

// NewRisc0 constructs the backend and loads the image ID table from the
// proving service.
func NewRisc0(ctx context.Context, endpoint, apiKey string, callTimeout time.Duration, logger log.Logger) (*Risc0Backend, error) {
	b := &Risc0Backend{
		endpoint:     strings.TrimSuffix(endpoint, "/"),
		apiKey:       apiKey,
		client:       &http.Client{Timeout: callTimeout},
		pollInterval: 2 * time.Second,
		logger:       logger.With("backend", "risc0"),
	}
	ids, err := b.fetchImageIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("risc0: load image ids: %w", err)
	}
	b.imageIDs = ids
	return b, nil
}

func (b *Risc0Backend) Name() string { return "risc0" }

type risc0SessionRequest struct {
	ImageID string `json:"image_id"`
	Input   string `json:"input"`
	// SnarkWrap requests groth16 wrapping of the STARK receipt.
	SnarkWrap bool `json:"snark_wrap"`
}

type risc0SessionResponse struct {
	UUID string `json:"uuid"`
}

type risc0StatusResponse struct {
	Status  string `json:"status"`
	Receipt string `json:"receipt,omitempty"`
	Journal string `json:"journal,omitempty"`
	Error   string `json:"error_msg,omitempty"`
}

func (b *Risc0Backend) Prove(ctx context.Context, program string, input []byte, mode ProofMode) (Proof, error) {
	imageID, ok := b.imageIDs[program]
	if !ok {
		return Proof{}, fmt.Errorf("%w: %s", ErrUnknownProgram, program)
	}
	if mode == ModeCompressed {
		return Proof{}, fmt.Errorf("%w: risc0 has no compressed mode", ErrUnsupportedMode)
	}

	req := risc0SessionRequest{
		ImageID:   hex.EncodeToString(imageID[:]),
		Input:     hex.EncodeToString(input),
		SnarkWrap: mode == ModeGroth16,
	}
	var created risc0SessionResponse
	if err := b.post(ctx, "/sessions/create", req, &created); err != nil {
		return Proof{}, err
	}
	b.logger.Debug("created proving session", "program", program, "session", created.UUID)

	for {
		var status risc0StatusResponse
		if err := b.get(ctx, "/sessions/status/"+created.UUID, &status); err != nil {
			return Proof{}, err
		}
		switch status.Status {
		case "RUNNING", "QUEUED":
			select {
			case <-time.After(b.pollInterval):
			case <-ctx.Done():
				return Proof{}, ctx.Err()
			}
		case "SUCCEEDED":
			receipt, err := hex.DecodeString(status.Receipt)
			if err != nil {
				return Proof{}, fmt.Errorf("risc0: decode receipt: %w", err)
			}
			journal, err := hex.DecodeString(status.Journal)
			if err != nil {
				return Proof{}, fmt.Errorf("risc0: decode journal: %w", err)
			}
			return Proof{ProofBytes: receipt, PublicOutputs: journal}, nil
		case "FAILED":
			if strings.Contains(status.Error, "guest panicked") {
				return Proof{}, fmt.Errorf("%w: %s", ErrGuestPanic, status.Error)
			}
			return Proof{}, fmt.Errorf("risc0 session failed: %s", status.Error)
		default:
			return Proof{}, fmt.Errorf("risc0: unknown session status %q", status.Status)
		}
	}
}

func (b *Risc0Backend) VerifyingKey(program string) ([32]byte, error) {
	id, ok := b.imageIDs[program]
	if !ok {
		return [32]byte{}, fmt.Errorf("%w: %s", ErrUnknownProgram, program)
	}
	return id, nil
}

type risc0VerifyRequest struct {
	ImageID string `json:"image_id"`
	Receipt string `json:"receipt"`
	Journal string `json:"journal"`
}

type risc0VerifyResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error_msg,omitempty"`
}

func (b *Risc0Backend) Verify(ctx context.Context, program string, proof Proof) (bool, error) {
	imageID, ok := b.imageIDs[program]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownProgram, program)
	}
	req := risc0VerifyRequest{
		ImageID: hex.EncodeToString(imageID[:]),
		Receipt: hex.EncodeToString(proof.ProofBytes),
		Journal: hex.EncodeToString(proof.PublicOutputs),
	}
	var resp risc0VerifyResponse
	if err := b.post(ctx, "/receipts/verify", req, &resp); err != nil {
		return false, err
	}
	if resp.Error != "" {
		return false, fmt.Errorf("risc0: verify: %s", resp.Error)
	}
	return resp.Valid, nil
}

type risc0ImagesResponse struct {
	Images map[string]string `json:"images"`
}

func (b *Risc0Backend) fetchImageIDs(ctx context.Context) (map[string][32]byte, error) {
	var resp risc0ImagesResponse
	if err := b.get(ctx, "/images", &resp); err != nil {
		return nil, err
	}
	out := make(map[string][32]byte, len(resp.Images))
	for program, hexID := range resp.Images {
		raw, err := hex.DecodeString(strings.TrimPrefix(hexID, "0x"))
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("bad image id for %s: %q", program, hexID)
		}
		var id [32]byte
		copy(id[:], raw)
		out[program] = id
	}
	return out, nil
}

func (b *Risc0Backend) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("risc0: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("risc0: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return b.do(req, out)
}

func (b *Risc0Backend) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+path, nil)
	if err != nil {
		return fmt.Errorf("risc0: build request: %w", err)
	}
	return b.do(req, out)
}

func (b *Risc0Backend) do(req *http.Request, out any) error {
	if b.apiKey != "" {
		req.Header.Set("x-api-key", b.apiKey)
	}
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
		return fmt.Errorf("risc0: %s returned %d: %s", req.URL.Path, resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("risc0: decode response: %w", err)
	}
	return nil
}
