package backend

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// flakyBackend fails with the configured error until failures is drained.
type flakyBackend struct {
	failures atomic.Int32
	err      error
	calls    atomic.Int32
}

func (f *flakyBackend) Name() string { return "flaky" }

func (f *flakyBackend) Prove(ctx context.Context, program string, input []byte, mode ProofMode) (Proof, error) {
	f.calls.Add(1)
	if f.failures.Add(-1) >= 0 {
		return Proof{}, f.err
	}
	return Proof{ProofBytes: []byte("ok")}, nil
}

func (f *flakyBackend) VerifyingKey(program string) ([32]byte, error) {
	return [32]byte{}, nil
}

func (f *flakyBackend) Verify(ctx context.Context, program string, proof Proof) (bool, error) {
	return true, nil
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{Budget: 4, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetryEventuallySucceeds(t *testing.T) {
	inner := &flakyBackend{err: fmt.Errorf("%w: refused", ErrProverNetwork)}
	inner.failures.Store(2)
	bk := WithRetry(inner, fastPolicy())

	proof, err := bk.Prove(context.Background(), ProgramBlockExec, nil, ModeDefault)
	require.NoError(t, err)
	require.Equal(t, []byte("ok"), proof.ProofBytes)
	require.Equal(t, int32(3), inner.calls.Load())
}

func TestRetryBudgetExhausted(t *testing.T) {
	inner := &flakyBackend{err: fmt.Errorf("%w: refused", ErrProverNetwork)}
	inner.failures.Store(100)
	bk := WithRetry(inner, fastPolicy())

	_, err := bk.Prove(context.Background(), ProgramBlockExec, nil, ModeDefault)
	require.ErrorIs(t, err, ErrProverNetwork)
	require.Equal(t, int32(5), inner.calls.Load(), "one initial attempt plus four retries")
}

func TestNonRetryableFailsImmediately(t *testing.T) {
	inner := &flakyBackend{err: fmt.Errorf("%w: assertion", ErrGuestPanic)}
	inner.failures.Store(100)
	bk := WithRetry(inner, fastPolicy())

	_, err := bk.Prove(context.Background(), ProgramBlockExec, nil, ModeDefault)
	require.ErrorIs(t, err, ErrGuestPanic)
	require.Equal(t, int32(1), inner.calls.Load())
}

func TestRetryStopsOnCancel(t *testing.T) {
	inner := &flakyBackend{err: fmt.Errorf("%w: refused", ErrProverNetwork)}
	inner.failures.Store(1000)
	bk := WithRetry(inner, RetryPolicy{Budget: 1000, BaseDelay: 10 * time.Millisecond, MaxDelay: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := bk.Prove(ctx, ProgramBlockExec, nil, ModeDefault)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrProverNetwork) || errors.Is(err, context.DeadlineExceeded))
}
