// Package evm wraps the rollup JSON-RPC endpoints: execution witnesses for
// the active backend's guest, EIP-1186 storage proofs for the Hyperlane
// merkle tree and Dispatch event log filtering.
package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/rpc"

	evtypes "github.com/celestiaorg/ev-prover/types"
	"github.com/celestiaorg/ev-prover/types/hyperlane"
)

// Witness RPC methods per backend variant. The two encodings are not
// interconvertible; the node serves each from a dedicated namespace.
const (
	rspWitnessMethod  = "debug_executionWitness"
	zethWitnessMethod = "zeth_buildWitness"
)

// BlockInfo is the rollup header subset the pipelines consume.
type BlockInfo struct {
	Number    uint64
	Hash      common.Hash
	StateRoot common.Hash
}

// Client is the rollup RPC client.
type Client struct {
	eth  *ethclient.Client
	geth *gethclient.Client
	raw  *rpc.Client
}

// Dial connects to the rollup JSON-RPC endpoint.
func Dial(ctx context.Context, addr string) (*Client, error) {
	raw, err := rpc.DialContext(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("connect to rollup node %s: %w", addr, err)
	}
	return &Client{
		eth:  ethclient.NewClient(raw),
		geth: gethclient.New(raw),
		raw:  raw,
	}, nil
}

func (c *Client) Close() {
	c.raw.Close()
}

// BlockByNumber fetches the header info at a rollup height.
func (c *Client) BlockByNumber(ctx context.Context, number uint64) (BlockInfo, error) {
	header, err := c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return BlockInfo{}, fmt.Errorf("get rollup header %d: %w", number, err)
	}
	return BlockInfo{
		Number:    header.Number.Uint64(),
		Hash:      header.Hash(),
		StateRoot: header.Root,
	}, nil
}

// ExecutionWitness fetches the stateless execution witness for a rollup
// block in the requested format. The serialized witness is opaque to the
// orchestrator.
func (c *Client) ExecutionWitness(ctx context.Context, number uint64, format evtypes.WitnessFormat) ([]byte, error) {
	var method string
	switch format {
	case evtypes.WitnessRsp:
		method = rspWitnessMethod
	case evtypes.WitnessZeth:
		method = zethWitnessMethod
	default:
		return nil, fmt.Errorf("unknown witness format %v", format)
	}
	var witness hexutil.Bytes
	if err := c.raw.CallContext(ctx, &witness, method, hexutil.Uint64(number)); err != nil {
		return nil, fmt.Errorf("%s(%d): %w", method, number, err)
	}
	if len(witness) == 0 {
		return nil, fmt.Errorf("%s(%d): empty witness", method, number)
	}
	return witness, nil
}

// BranchProof fetches the EIP-1186 account and storage proof for the
// Hyperlane merkle tree slots, anchored at the given rollup height.
func (c *Client) BranchProof(ctx context.Context, contract common.Address, number uint64) (hyperlane.BranchProof, error) {
	result, err := c.geth.GetProof(ctx, contract, hashesToHex(hyperlane.MerkleTreeSlots()), new(big.Int).SetUint64(number))
	if err != nil {
		return hyperlane.BranchProof{}, fmt.Errorf("eth_getProof %s at %d: %w", contract, number, err)
	}

	accountRLP, err := rlp.EncodeToBytes(&trieAccount{
		Nonce:    result.Nonce,
		Balance:  result.Balance,
		Root:     result.StorageHash,
		CodeHash: result.CodeHash.Bytes(),
	})
	if err != nil {
		return hyperlane.BranchProof{}, fmt.Errorf("encode trie account: %w", err)
	}

	proof := hyperlane.BranchProof{
		AccountProof: decodeProofNodes(result.AccountProof),
		AccountRLP:   accountRLP,
	}
	for _, sp := range result.StorageProof {
		proof.StorageProofs = append(proof.StorageProofs, decodeProofNodes(sp.Proof))
		value := make([]byte, 32)
		sp.Value.FillBytes(value)
		proof.StorageValues = append(proof.StorageValues, value)
	}
	return proof, nil
}

// DispatchLogs fetches Mailbox Dispatch events in the inclusive rollup
// block range and parses them into messages.
func (c *Client) DispatchLogs(ctx context.Context, mailbox common.Address, fromBlock, toBlock uint64) ([]hyperlane.DispatchedMessage, error) {
	logs, err := c.eth.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{mailbox},
		Topics:    [][]common.Hash{{hyperlane.DispatchEventSignature}},
	})
	if err != nil {
		return nil, fmt.Errorf("filter dispatch logs [%d, %d]: %w", fromBlock, toBlock, err)
	}
	out := make([]hyperlane.DispatchedMessage, 0, len(logs))
	for i := range logs {
		msg, err := hyperlane.ParseDispatchLog(&logs[i])
		if err != nil {
			return nil, fmt.Errorf("parse dispatch log: %w", err)
		}
		out = append(out, hyperlane.DispatchedMessage{
			Message:     msg,
			BlockNumber: logs[i].BlockNumber,
			TxHash:      logs[i].TxHash,
			LogIndex:    logs[i].Index,
		})
	}
	return out, nil
}

// trieAccount is the RLP shape of an account leaf in the state trie.
type trieAccount struct {
	Nonce    uint64
	Balance  *big.Int
	Root     common.Hash
	CodeHash []byte
}

func hashesToHex(hashes []common.Hash) []string {
	out := make([]string, 0, len(hashes))
	for _, h := range hashes {
		out = append(out, h.Hex())
	}
	return out
}

func decodeProofNodes(nodes []string) [][]byte {
	out := make([][]byte, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, common.FromHex(n))
	}
	return out
}
