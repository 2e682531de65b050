// Package registry tracks in-flight proving jobs keyed by
// (program, input fingerprint) and guarantees at most one concurrent
// proving task per key. Entries in a terminal state are retained for a
// window so late gRPC awaiters can still read results, then reaped.
package registry

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// JobKey uniquely identifies a proving task.
type JobKey struct {
	Program     string
	Fingerprint [32]byte
}

func (k JobKey) String() string {
	return fmt.Sprintf("%s/%s", k.Program, hex.EncodeToString(k.Fingerprint[:8]))
}

// State is the lifecycle state of a job. Transitions are monotonic:
// Pending -> Running -> (Completed | Failed).
type State uint8

const (
	StatePending State = iota + 1
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

func (s State) terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Result is the terminal outcome of a job.
type Result struct {
	Proof         []byte
	PublicOutputs []byte
	Err           error
}

type entry struct {
	key        JobKey
	state      State
	result     Result
	done       chan struct{}
	finishedAt time.Time
	createdAt  time.Time
}

// Handle refers to a claimed or observed job and can be awaited.
type Handle struct {
	e *entry
}

// Key returns the job key the handle refers to.
func (h Handle) Key() JobKey { return h.e.key }

// Registry is the process-wide in-flight job table.
type Registry struct {
	mu        sync.Mutex
	jobs      map[JobKey]*entry
	retention time.Duration
	now       func() time.Time

	listenersMu sync.Mutex
	listeners   []func(Summary)
}

// OnComplete registers a callback invoked after any job reaches a terminal
// state. Callbacks run outside the registry lock and must not block.
func (r *Registry) OnComplete(fn func(Summary)) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Registry) notify(s Summary) {
	r.listenersMu.Lock()
	listeners := make([]func(Summary), len(r.listeners))
	copy(listeners, r.listeners)
	r.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

// New constructs a registry that retains terminal entries for the given
// window before Reap removes them.
func New(retention time.Duration) *Registry {
	return &Registry{
		jobs:      make(map[JobKey]*entry),
		retention: retention,
		now:       time.Now,
	}
}

// Claim atomically inserts a Pending entry for the key, or returns a
// handle to the existing one. fresh is true iff the caller owns the job
// and must eventually call the guard's Complete or Fail.
func (r *Registry) Claim(key JobKey) (h Handle, guard *Guard, fresh bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.jobs[key]; ok {
		return Handle{e: e}, nil, false
	}
	e := &entry{
		key:       key,
		state:     StatePending,
		done:      make(chan struct{}),
		createdAt: r.now(),
	}
	r.jobs[key] = e
	return Handle{e: e}, &Guard{r: r, e: e}, true
}

// Lookup returns a handle for the key if an entry exists.
func (r *Registry) Lookup(key JobKey) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.jobs[key]
	return Handle{e: e}, ok
}

// Await blocks until the job reaches a terminal state or ctx is done.
func (r *Registry) Await(ctx context.Context, h Handle) (Result, error) {
	select {
	case <-h.e.done:
		return h.e.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// State returns the current state of the job.
func (r *Registry) State(h Handle) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return h.e.state
}

// Reap removes terminal entries older than the retention window and
// returns the number removed.
func (r *Registry) Reap() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.retention)
	removed := 0
	for k, e := range r.jobs {
		if e.state.terminal() && e.finishedAt.Before(cutoff) {
			delete(r.jobs, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Running returns the number of entries in the Running state.
func (r *Registry) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.jobs {
		if e.state == StateRunning {
			n++
		}
	}
	return n
}

// Recent returns up to n terminal entries ordered most recent first.
func (r *Registry) Recent(n int) []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Summary, 0, n)
	for _, e := range r.jobs {
		if !e.state.terminal() {
			continue
		}
		out = append(out, summarize(e))
	}
	// newest first; the table is small after reaping, a simple sort is fine
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].FinishedAt.After(out[j-1].FinishedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Summary is a read-only snapshot of a terminal job.
type Summary struct {
	Key        JobKey
	State      State
	Err        string
	FinishedAt time.Time
}

func summarize(e *entry) Summary {
	s := Summary{Key: e.key, State: e.state, FinishedAt: e.finishedAt}
	if e.result.Err != nil {
		s.Err = e.result.Err.Error()
	}
	return s
}

func (r *Registry) complete(e *entry, res Result) {
	r.mu.Lock()
	if e.state.terminal() {
		r.mu.Unlock()
		return
	}
	if res.Err != nil {
		e.state = StateFailed
	} else {
		e.state = StateCompleted
	}
	e.result = res
	e.finishedAt = r.now()
	close(e.done)
	summary := summarize(e)
	r.mu.Unlock()

	r.notify(summary)
}

func (r *Registry) markRunning(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.state == StatePending {
		e.state = StateRunning
	}
}

// Guard pairs a fresh claim with exactly one completion. If the owner
// returns without completing, Close fails the job so awaiters are never
// stranded.
type Guard struct {
	r        *Registry
	e        *entry
	resolved bool
}

// Start transitions the job from Pending to Running.
func (g *Guard) Start() {
	g.r.markRunning(g.e)
}

// Complete resolves the job successfully.
func (g *Guard) Complete(proof, publicOutputs []byte) {
	g.resolved = true
	g.r.complete(g.e, Result{Proof: proof, PublicOutputs: publicOutputs})
}

// Fail resolves the job with an error.
func (g *Guard) Fail(err error) {
	g.resolved = true
	g.r.complete(g.e, Result{Err: err})
}

// Close fails the job if it was never resolved. Intended for defer.
func (g *Guard) Close() {
	if !g.resolved {
		g.Fail(fmt.Errorf("job %s abandoned before completion", g.e.key))
	}
}
