package types

import (
	"encoding/hex"
	"fmt"
)

// NamespaceSize is the size in bytes of a DA namespace identifier.
const NamespaceSize = 29

// Namespace identifies one rollup's blob data within the DA layer.
type Namespace [NamespaceSize]byte

// NamespaceFromHex parses a hex-encoded 29-byte namespace.
func NamespaceFromHex(s string) (Namespace, error) {
	var ns Namespace
	raw, err := hex.DecodeString(s)
	if err != nil {
		return ns, fmt.Errorf("decode namespace hex: %w", err)
	}
	if len(raw) != NamespaceSize {
		return ns, fmt.Errorf("namespace must be %d bytes, got %d", NamespaceSize, len(raw))
	}
	copy(ns[:], raw)
	return ns, nil
}

func (ns Namespace) String() string {
	return hex.EncodeToString(ns[:])
}

// TrustedCheckpoint describes the last state proven on-chain. It is created
// at genesis from configuration, advanced by the range-aggregation pipeline
// and read back from the zkISM module on startup.
type TrustedCheckpoint struct {
	// RollupHeight is the rollup block number of the checkpoint.
	RollupHeight uint64
	// RollupStateRoot is the rollup application state root at RollupHeight.
	RollupStateRoot [32]byte
	// DAHeaderHash is the hash of the DA header at which RollupHeight is available.
	DAHeaderHash [32]byte
	// DAHeight is the DA block height of DAHeaderHash.
	DAHeight uint64
}

func (c TrustedCheckpoint) Equal(other TrustedCheckpoint) bool {
	return c == other
}

func (c TrustedCheckpoint) String() string {
	return fmt.Sprintf("TrustedCheckpoint{rollup_height: %d, state_root: %x, da_height: %d, da_header_hash: %x}",
		c.RollupHeight, c.RollupStateRoot, c.DAHeight, c.DAHeaderHash)
}

func (c TrustedCheckpoint) encode(e *Encoder) {
	e.Uint64(c.RollupHeight)
	e.Fixed(c.RollupStateRoot[:])
	e.Fixed(c.DAHeaderHash[:])
	e.Uint64(c.DAHeight)
}

func decodeCheckpoint(d *Decoder) (TrustedCheckpoint, error) {
	var c TrustedCheckpoint
	var err error
	if c.RollupHeight, err = d.Uint64(); err != nil {
		return c, err
	}
	if c.RollupStateRoot, err = d.Fixed32(); err != nil {
		return c, err
	}
	if c.DAHeaderHash, err = d.Fixed32(); err != nil {
		return c, err
	}
	if c.DAHeight, err = d.Uint64(); err != nil {
		return c, err
	}
	return c, nil
}
