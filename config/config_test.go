package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Default()
	cfg.Namespace = strings.Repeat("ab", 29)
	cfg.SequencerPublicKey = strings.Repeat("cd", 32)
	cfg.Sp1Endpoint = "http://127.0.0.1:3000"
	return cfg
}

func TestDefaultYAMLParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(DefaultYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sp1", cfg.Backend)
	require.Equal(t, 8, cfg.RangeWindowSize)
	require.Equal(t, 5*time.Minute, cfg.RangeWindowTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default().GrpcListenAddr, cfg.GrpcListenAddr)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: mock\nrange_window_size: 3\nretry_base_delay: 250ms\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "mock", cfg.Backend)
	require.Equal(t, 3, cfg.RangeWindowSize)
	require.Equal(t, 250*time.Millisecond, cfg.RetryBaseDelay)
	// Untouched keys keep their defaults.
	require.Equal(t, Default().MaxConcurrentProofs, cfg.MaxConcurrentProofs)
}

func TestValidateRejectsBadNamespace(t *testing.T) {
	cfg := validConfig()
	cfg.Namespace = "abcd"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Backend = "plonky2"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsRisc0Compressed(t *testing.T) {
	cfg := validConfig()
	cfg.Backend = "risc0"
	cfg.Risc0Endpoint = "http://127.0.0.1:4000"
	cfg.ProofMode = "compressed"
	require.Error(t, cfg.Validate())

	cfg.ProofMode = "groth16"
	require.NoError(t, cfg.Validate())
}

func TestValidateRequiresBackendEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Sp1Endpoint = ""
	require.Error(t, cfg.Validate())
}

func TestValidateSignerKey(t *testing.T) {
	cfg := validConfig()
	cfg.SignerKey = "zz"
	require.Error(t, cfg.Validate())

	cfg.SignerKey = strings.Repeat("11", 32)
	require.NoError(t, cfg.Validate())

	key, err := cfg.ParseSignerKey()
	require.NoError(t, err)
	require.Len(t, key, 32)
}

func TestParseTrustedCheckpoint(t *testing.T) {
	cfg := validConfig()
	cfg.TrustedCheckpoint = TrustedCheckpointConfig{
		RollupHeight:    7,
		RollupStateRoot: "0x" + strings.Repeat("aa", 32),
		DAHeaderHash:    strings.Repeat("bb", 32),
		DAHeight:        9,
	}
	cp, err := cfg.ParseTrustedCheckpoint()
	require.NoError(t, err)
	require.Equal(t, uint64(7), cp.RollupHeight)
	require.Equal(t, uint64(9), cp.DAHeight)

	want, _ := hex.DecodeString(strings.Repeat("aa", 32))
	require.Equal(t, want, cp.RollupStateRoot[:])

	cfg.TrustedCheckpoint.DAHeaderHash = "abcd"
	_, err = cfg.ParseTrustedCheckpoint()
	require.Error(t, err)
}
