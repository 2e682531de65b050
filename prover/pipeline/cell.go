package pipeline

import (
	"sync/atomic"

	"github.com/celestiaorg/ev-prover/types"
)

// CheckpointCell publishes the trusted checkpoint from its single writer
// (the range pipeline) to concurrent readers (the gRPC server, manual
// proof requests). Reads take no locks.
type CheckpointCell struct {
	p atomic.Pointer[types.TrustedCheckpoint]
}

// Store replaces the published checkpoint.
func (c *CheckpointCell) Store(cp types.TrustedCheckpoint) {
	c.p.Store(&cp)
}

// Load returns the published checkpoint; ok is false before the first
// Store.
func (c *CheckpointCell) Load() (types.TrustedCheckpoint, bool) {
	cp := c.p.Load()
	if cp == nil {
		return types.TrustedCheckpoint{}, false
	}
	return *cp, true
}
