package backend

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds retries of retryable backend errors: exponential
// backoff with jitter up to a budget of attempts.
type RetryPolicy struct {
	// Budget is the maximum number of retries after the first attempt.
	Budget uint64
	// BaseDelay is the initial backoff interval.
	BaseDelay time.Duration
	// MaxDelay caps the backoff interval.
	MaxDelay time.Duration
}

// DefaultRetryPolicy matches the service-wide retry defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Budget: 5, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

func (p RetryPolicy) newBackoff(ctx context.Context) backoff.BackOffContext {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.MaxInterval = p.MaxDelay
	bo.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(bo, p.Budget), ctx)
}

// WithRetry wraps a backend so retryable errors are retried under the
// policy before surfacing. Non-retryable errors surface immediately.
func WithRetry(b Backend, policy RetryPolicy) Backend {
	return &retryingBackend{inner: b, policy: policy}
}

type retryingBackend struct {
	inner  Backend
	policy RetryPolicy
}

func (r *retryingBackend) Name() string { return r.inner.Name() }

func (r *retryingBackend) Prove(ctx context.Context, program string, input []byte, mode ProofMode) (Proof, error) {
	var proof Proof
	op := func() error {
		var err error
		proof, err = r.inner.Prove(ctx, program, input, mode)
		if err != nil && !Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := backoff.Retry(op, r.policy.newBackoff(ctx)); err != nil {
		return Proof{}, err
	}
	return proof, nil
}

func (r *retryingBackend) VerifyingKey(program string) ([32]byte, error) {
	return r.inner.VerifyingKey(program)
}

func (r *retryingBackend) Verify(ctx context.Context, program string, proof Proof) (bool, error) {
	return r.inner.Verify(ctx, program, proof)
}
