// Package backend hides the two zk-VM runtimes behind one contract.
// Exactly one concrete backend is active per process, selected from
// configuration at startup. Inputs and outputs are opaque byte strings;
// serialization is the caller's responsibility.
package backend

import (
	"context"
	"errors"
	"fmt"
)

// Program identifiers for the compiled guests.
const (
	ProgramBlockExec        = "ev-exec"
	ProgramRangeExec        = "ev-range-exec"
	ProgramMessageInclusion = "ev-hyperlane"
)

// ProofMode selects the proof artifact shape.
type ProofMode uint8

const (
	ModeDefault ProofMode = iota + 1
	ModeCompressed
	ModeGroth16
)

func (m ProofMode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeCompressed:
		return "compressed"
	case ModeGroth16:
		return "groth16"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// ParseProofMode parses a configuration string into a ProofMode.
func ParseProofMode(s string) (ProofMode, error) {
	switch s {
	case "default", "":
		return ModeDefault, nil
	case "compressed":
		return ModeCompressed, nil
	case "groth16":
		return ModeGroth16, nil
	default:
		return 0, fmt.Errorf("unknown proof mode %q", s)
	}
}

// Error kinds surfaced by backends. ErrProverNetwork and ErrTimeout are
// retryable; the rest are fatal for the job.
var (
	ErrUnsupportedMode = errors.New("proof mode not supported by backend")
	ErrGuestPanic      = errors.New("guest program panicked")
	ErrProverNetwork   = errors.New("prover network error")
	ErrTimeout         = errors.New("prover call timed out")
	ErrUnknownProgram  = errors.New("unknown program identifier")
)

// Retryable reports whether the error consumes retry budget rather than
// failing the job outright.
func Retryable(err error) bool {
	return errors.Is(err, ErrProverNetwork) || errors.Is(err, ErrTimeout)
}

// Proof is a proof artifact with its committed public outputs.
type Proof struct {
	ProofBytes    []byte
	PublicOutputs []byte
}

// Backend is the contract over a zk-VM runtime.
//
// Both backends must produce semantically equivalent public outputs for
// the same logical input. VerifyingKey is pure and stable across restarts.
type Backend interface {
	// Name identifies the backend kind ("sp1", "risc0" or "mock").
	Name() string
	// Prove runs the identified guest over input and returns the proof
	// with its public outputs.
	Prove(ctx context.Context, program string, input []byte, mode ProofMode) (Proof, error)
	// VerifyingKey returns the 32-byte verifying key digest for a program.
	VerifyingKey(program string) ([32]byte, error)
	// Verify checks a proof against its public outputs. Used in tests and
	// diagnostics only.
	Verify(ctx context.Context, program string, proof Proof) (bool, error)
}
