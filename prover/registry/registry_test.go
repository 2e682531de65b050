package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testKey(b byte) JobKey {
	k := JobKey{Program: "ev-exec"}
	k.Fingerprint[0] = b
	return k
}

func TestClaimFresh(t *testing.T) {
	r := New(time.Hour)
	h, guard, fresh := r.Claim(testKey(1))
	require.True(t, fresh)
	require.NotNil(t, guard)
	require.Equal(t, StatePending, r.State(h))

	guard.Start()
	require.Equal(t, StateRunning, r.State(h))

	guard.Complete([]byte("proof"), []byte("public"))
	require.Equal(t, StateCompleted, r.State(h))

	res, err := r.Await(context.Background(), h)
	require.NoError(t, err)
	require.Equal(t, []byte("proof"), res.Proof)
	require.Equal(t, []byte("public"), res.PublicOutputs)
}

func TestClaimDuplicate(t *testing.T) {
	r := New(time.Hour)
	_, guard, fresh := r.Claim(testKey(1))
	require.True(t, fresh)

	h2, guard2, fresh2 := r.Claim(testKey(1))
	require.False(t, fresh2)
	require.Nil(t, guard2)

	guard.Complete([]byte("p"), nil)
	res, err := r.Await(context.Background(), h2)
	require.NoError(t, err)
	require.Equal(t, []byte("p"), res.Proof)
}

// Concurrent claims for the same key must yield exactly one fresh owner.
func TestConcurrentClaims(t *testing.T) {
	r := New(time.Hour)
	var freshCount atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, guard, fresh := r.Claim(testKey(7))
			if fresh {
				freshCount.Add(1)
				guard.Complete(nil, nil)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int64(1), freshCount.Load())
}

func TestAwaitBlocksUntilComplete(t *testing.T) {
	r := New(time.Hour)
	h, guard, _ := r.Claim(testKey(2))

	done := make(chan Result, 1)
	go func() {
		res, _ := r.Await(context.Background(), h)
		done <- res
	}()

	select {
	case <-done:
		t.Fatal("await returned before completion")
	case <-time.After(20 * time.Millisecond):
	}

	guard.Fail(errors.New("boom"))
	select {
	case res := <-done:
		require.Error(t, res.Err)
	case <-time.After(time.Second):
		t.Fatal("await did not wake")
	}
}

func TestAwaitContextCancel(t *testing.T) {
	r := New(time.Hour)
	h, _, _ := r.Claim(testKey(3))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := r.Await(ctx, h)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuardCloseFailsAbandonedJob(t *testing.T) {
	r := New(time.Hour)
	h, guard, _ := r.Claim(testKey(4))
	guard.Start()
	guard.Close()

	require.Equal(t, StateFailed, r.State(h))
	res, err := r.Await(context.Background(), h)
	require.NoError(t, err)
	require.Error(t, res.Err)
}

func TestTerminalStateIsSticky(t *testing.T) {
	r := New(time.Hour)
	h, guard, _ := r.Claim(testKey(5))
	guard.Complete([]byte("p"), nil)
	// A late Close must not overwrite the completed state.
	guard.Close()
	require.Equal(t, StateCompleted, r.State(h))
}

func TestReap(t *testing.T) {
	r := New(time.Hour)
	now := time.Now()
	r.now = func() time.Time { return now }

	_, guard, _ := r.Claim(testKey(6))
	guard.Complete(nil, nil)
	_, _, _ = r.Claim(testKey(7)) // still pending, must survive

	require.Equal(t, 0, r.Reap(), "fresh terminal entries stay within retention")

	r.now = func() time.Time { return now.Add(2 * time.Hour) }
	require.Equal(t, 1, r.Reap())
	require.Equal(t, 1, r.Len())
}

func TestOnComplete(t *testing.T) {
	r := New(time.Hour)
	var got []Summary
	var mu sync.Mutex
	r.OnComplete(func(s Summary) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, s)
	})

	_, guard, _ := r.Claim(testKey(8))
	guard.Complete(nil, nil)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	require.Equal(t, StateCompleted, got[0].State)
}

func TestRecent(t *testing.T) {
	r := New(time.Hour)
	base := time.Now()
	tick := 0
	r.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Second) }

	for i := byte(0); i < 5; i++ {
		_, guard, _ := r.Claim(testKey(i))
		guard.Complete(nil, nil)
	}
	recent := r.Recent(3)
	require.Len(t, recent, 3)
	require.True(t, recent[0].FinishedAt.After(recent[1].FinishedAt))
	require.True(t, recent[1].FinishedAt.After(recent[2].FinishedAt))
}
