// Package config loads and validates the orchestrator configuration from a
// YAML file with EV_PROVER_-prefixed environment overrides.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/celestiaorg/ev-prover/types"
)

// Default file locations relative to the home directory.
const (
	AppHome    = ".ev-prover"
	ConfigDir  = "config"
	ConfigFile = "config.yaml"
	DataDir    = "data"
)

// TrustedCheckpointConfig is the genesis checkpoint applied when the zkism
// module has no state yet.
type TrustedCheckpointConfig struct {
	RollupHeight    uint64 `mapstructure:"rollup_height"`
	RollupStateRoot string `mapstructure:"rollup_state_root"`
	DAHeaderHash    string `mapstructure:"da_header_hash"`
	DAHeight        uint64 `mapstructure:"da_height"`
}

// Config is the orchestrator configuration.
type Config struct {
	// Endpoints.
	DARpc        string `mapstructure:"da_rpc"`
	DAAuthToken  string `mapstructure:"da_auth_token"`
	EvmRpc       string `mapstructure:"evm_rpc"`
	EvmWs        string `mapstructure:"evm_ws"`
	CelestiaGrpc string `mapstructure:"celestia_grpc"`
	CometRpc     string `mapstructure:"comet_rpc"`

	// Chain identity.
	ChainID            string `mapstructure:"chain_id"`
	Namespace          string `mapstructure:"namespace"`
	SequencerPublicKey string `mapstructure:"sequencer_public_key"`
	IsmID              string `mapstructure:"ism_id"`

	// Genesis trusted checkpoint.
	TrustedCheckpoint TrustedCheckpointConfig `mapstructure:"trusted_checkpoint"`

	// Backend selection; one of "sp1", "risc0" or "mock".
	Backend       string `mapstructure:"backend"`
	ProofMode     string `mapstructure:"proof_mode"`
	Sp1Endpoint   string `mapstructure:"sp1_endpoint"`
	Risc0Endpoint string `mapstructure:"risc0_endpoint"`
	Risc0ApiKey   string `mapstructure:"risc0_api_key"`

	// Pipeline tuning.
	RangeWindowSize     int           `mapstructure:"range_window_size"`
	RangeWindowTimeout  time.Duration `mapstructure:"range_window_timeout"`
	RangeGapTolerance   time.Duration `mapstructure:"range_gap_tolerance"`
	MaxConcurrentProofs int           `mapstructure:"max_concurrent_proofs"`
	RetryBudget         uint64        `mapstructure:"retry_budget"`
	RetryBaseDelay      time.Duration `mapstructure:"retry_base_delay"`
	CallTimeout         time.Duration `mapstructure:"call_timeout"`

	// Hyperlane contracts on the rollup.
	MailboxAddress    string `mapstructure:"mailbox_address"`
	MerkleTreeAddress string `mapstructure:"merkle_tree_address"`

	// Publisher.
	SignerKey        string        `mapstructure:"signer_key"`
	GasLimit         uint64        `mapstructure:"gas_limit"`
	FeeAmount        int64         `mapstructure:"fee_amount"`
	InclusionTimeout time.Duration `mapstructure:"inclusion_timeout"`
	MaxTxAttempts    int           `mapstructure:"max_tx_attempts"`

	// Listeners and storage.
	GrpcListenAddr string `mapstructure:"grpc_listen_addr"`
	HTTPListenAddr string `mapstructure:"http_listen_addr"`
	DBPath         string `mapstructure:"db_path"`
}

// Default returns the configuration defaults.
func Default() Config {
	return Config{
		DARpc:               "ws://127.0.0.1:26658",
		EvmRpc:              "http://127.0.0.1:8545",
		EvmWs:               "ws://127.0.0.1:8546",
		CelestiaGrpc:        "127.0.0.1:9090",
		CometRpc:            "http://127.0.0.1:26657",
		ChainID:             "celestia-zkevm-testnet",
		Backend:             "sp1",
		ProofMode:           "default",
		RangeWindowSize:     8,
		RangeWindowTimeout:  5 * time.Minute,
		RangeGapTolerance:   10 * time.Minute,
		MaxConcurrentProofs: 16,
		RetryBudget:         5,
		RetryBaseDelay:      time.Second,
		CallTimeout:         30 * time.Second,
		GasLimit:            400_000,
		FeeAmount:           20_000,
		InclusionTimeout:    90 * time.Second,
		MaxTxAttempts:       3,
		GrpcListenAddr:      "127.0.0.1:50051",
		HTTPListenAddr:      "127.0.0.1:8080",
	}
}

// Load reads the configuration file at path, applying defaults and
// EV_PROVER_ environment overrides. A missing file is not an error; the
// defaults plus environment apply.
func Load(path string) (Config, error) {
	// A .env beside the process is honored the way the rest of the tooling
	// does it; absence is fine.
	_ = godotenv.Load()

	v := viper.New()
	cfg := Default()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("EV_PROVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			if !strings.Contains(err.Error(), "no such file") {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for startup. Configuration errors
// prevent launch.
func (c Config) Validate() error {
	if c.DARpc == "" {
		return fmt.Errorf("da_rpc is required")
	}
	if c.EvmRpc == "" {
		return fmt.Errorf("evm_rpc is required")
	}
	if _, err := c.ParseNamespace(); err != nil {
		return err
	}
	if _, err := c.ParseSequencerKey(); err != nil {
		return err
	}
	switch c.Backend {
	case "sp1":
		if c.Sp1Endpoint == "" {
			return fmt.Errorf("sp1_endpoint is required for the sp1 backend")
		}
	case "risc0":
		if c.Risc0Endpoint == "" {
			return fmt.Errorf("risc0_endpoint is required for the risc0 backend")
		}
	case "mock":
	default:
		return fmt.Errorf("backend must be one of sp1, risc0, mock; got %q", c.Backend)
	}
	switch c.ProofMode {
	case "", "default", "compressed", "groth16":
	default:
		return fmt.Errorf("proof_mode must be one of default, compressed, groth16; got %q", c.ProofMode)
	}
	if c.Backend == "risc0" && c.ProofMode == "compressed" {
		return fmt.Errorf("the risc0 backend does not support the compressed proof mode")
	}
	if c.RangeWindowSize < 1 {
		return fmt.Errorf("range_window_size must be at least 1")
	}
	if c.MaxConcurrentProofs < 1 {
		return fmt.Errorf("max_concurrent_proofs must be at least 1")
	}
	if c.SignerKey != "" {
		if _, err := c.ParseSignerKey(); err != nil {
			return err
		}
	}
	if _, err := c.ParseTrustedCheckpoint(); err != nil {
		return err
	}
	return nil
}

// ParseNamespace decodes the configured namespace.
func (c Config) ParseNamespace() (types.Namespace, error) {
	ns, err := types.NamespaceFromHex(strings.TrimPrefix(c.Namespace, "0x"))
	if err != nil {
		return types.Namespace{}, fmt.Errorf("namespace: %w", err)
	}
	return ns, nil
}

// ParseSequencerKey decodes the configured sequencer public key.
func (c Config) ParseSequencerKey() ([32]byte, error) {
	var key [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(c.SequencerPublicKey, "0x"))
	if err != nil {
		return key, fmt.Errorf("sequencer_public_key: %w", err)
	}
	if len(raw) != 32 {
		return key, fmt.Errorf("sequencer_public_key must be 32 bytes, got %d", len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

// ParseSignerKey decodes the configured signer private key.
func (c Config) ParseSignerKey() ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(c.SignerKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("signer_key: %w", err)
	}
	if len(raw) != 32 && len(raw) != 64 {
		return nil, fmt.Errorf("signer_key must be 32 or 64 bytes, got %d", len(raw))
	}
	return raw, nil
}

// ParseTrustedCheckpoint decodes the genesis checkpoint.
func (c Config) ParseTrustedCheckpoint() (types.TrustedCheckpoint, error) {
	cp := types.TrustedCheckpoint{
		RollupHeight: c.TrustedCheckpoint.RollupHeight,
		DAHeight:     c.TrustedCheckpoint.DAHeight,
	}
	if c.TrustedCheckpoint.RollupStateRoot != "" {
		raw, err := hex.DecodeString(strings.TrimPrefix(c.TrustedCheckpoint.RollupStateRoot, "0x"))
		if err != nil || len(raw) != 32 {
			return cp, fmt.Errorf("trusted_checkpoint.rollup_state_root must be 32 hex bytes")
		}
		copy(cp.RollupStateRoot[:], raw)
	}
	if c.TrustedCheckpoint.DAHeaderHash != "" {
		raw, err := hex.DecodeString(strings.TrimPrefix(c.TrustedCheckpoint.DAHeaderHash, "0x"))
		if err != nil || len(raw) != 32 {
			return cp, fmt.Errorf("trusted_checkpoint.da_header_hash must be 32 hex bytes")
		}
		copy(cp.DAHeaderHash[:], raw)
	}
	return cp, nil
}
