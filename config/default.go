package config

// DefaultYAML is the configuration template written by `ev-prover init`.
const DefaultYAML = `# ev-prover configuration

# DA node RPC (celestia-node) and optional auth token.
da_rpc: "ws://127.0.0.1:26658"
da_auth_token: ""

# Rollup JSON-RPC and websocket endpoints.
evm_rpc: "http://127.0.0.1:8545"
evm_ws: "ws://127.0.0.1:8546"

# DA chain gRPC and comet RPC, used for zkism queries and tx submission.
celestia_grpc: "127.0.0.1:9090"
comet_rpc: "http://127.0.0.1:26657"
chain_id: "celestia-zkevm-testnet"

# 29-byte namespace holding the rollup's blob data, hex encoded.
namespace: "00000000000000000000000000000000000000a8045f161bf468bf4d44"

# Sequencer Ed25519 public key, hex encoded.
sequencer_public_key: "3964a68700cf76e215626e076e76d23bd1f4c3b31184b5822fd7b4df15d5ce9a"

# zkism instance advanced by range proofs.
ism_id: ""

# Genesis trusted checkpoint, used when the zkism has no state yet.
trusted_checkpoint:
  rollup_height: 0
  rollup_state_root: ""
  da_header_hash: ""
  da_height: 0

# Proving backend: sp1, risc0 or mock.
backend: "sp1"
proof_mode: "default"
sp1_endpoint: "http://127.0.0.1:3000"
risc0_endpoint: ""
risc0_api_key: ""

# Pipeline tuning.
range_window_size: 8
range_window_timeout: 5m
range_gap_tolerance: 10m
max_concurrent_proofs: 16
retry_budget: 5
retry_base_delay: 1s
call_timeout: 30s

# Hyperlane contracts on the rollup.
mailbox_address: ""
merkle_tree_address: ""

# Hex-encoded Ed25519 signing key for proof submission. Leave empty to
# disable publishing.
signer_key: ""
gas_limit: 400000
fee_amount: 20000
inclusion_timeout: 90s
max_tx_attempts: 3

# Listeners and storage.
grpc_listen_addr: "127.0.0.1:50051"
http_listen_addr: "127.0.0.1:8080"
db_path: ""
`
