// Package mpt verifies Ethereum Merkle-Patricia trie proofs. The message
// pipeline uses it to sanity-check EIP-1186 branch proofs against the
// anchoring state root before paying for a zk proof; the guest re-verifies
// inside the circuit.
package mpt

import (
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"

	"github.com/celestiaorg/ev-prover/types/hyperlane"
)

// VerifyProof verifies an MPT proof for key against rootHash and returns
// the stored value. A nil value with nil error proves absence.
func VerifyProof(rootHash ethcommon.Hash, key []byte, proof [][]byte) (value []byte, err error) {
	proofDB, err := reconstructProofDB(proof)
	if err != nil {
		return nil, fmt.Errorf("failed to decode proof: %w", err)
	}
	return trie.VerifyProof(rootHash, key, proofDB)
}

// reconstructProofDB calculates the node hashes, sets them as keys in the
// db and each encoded node from the proof list as a value.
func reconstructProofDB(proof [][]byte) (ethdb.Database, error) {
	proofDB := rawdb.NewMemoryDatabase()
	for i, encodedNode := range proof {
		nodeKey := encodedNode
		if len(encodedNode) >= 32 { // small MPT nodes are not hashed
			nodeKey = crypto.Keccak256(encodedNode)
		}
		if err := proofDB.Put(nodeKey, encodedNode); err != nil {
			return nil, fmt.Errorf("failed to load proof node %d into mem db: %w", i, err)
		}
	}

	return proofDB, nil
}

// VerifyBranchProof checks a Hyperlane merkle-tree branch proof against
// the rollup state root: the account proof for the MerkleTreeHook contract
// and each storage-slot proof against the account's storage root.
func VerifyBranchProof(stateRoot [32]byte, contract ethcommon.Address, proof *hyperlane.BranchProof) error {
	accountKey := crypto.Keccak256(contract.Bytes())
	accountValue, err := VerifyProof(ethcommon.Hash(stateRoot), accountKey, proof.AccountProof)
	if err != nil {
		return fmt.Errorf("account proof: %w", err)
	}
	if accountValue == nil {
		return fmt.Errorf("account %s not present in state root %x", contract, stateRoot)
	}

	var account struct {
		Nonce    uint64
		Balance  *big.Int
		Root     ethcommon.Hash
		CodeHash []byte
	}
	if err := rlp.DecodeBytes(accountValue, &account); err != nil {
		return fmt.Errorf("decode trie account: %w", err)
	}

	slots := hyperlane.MerkleTreeSlots()
	if len(proof.StorageProofs) != len(slots) {
		return fmt.Errorf("expected %d storage proofs, got %d", len(slots), len(proof.StorageProofs))
	}
	if len(proof.StorageValues) != len(slots) {
		return fmt.Errorf("expected %d storage values, got %d", len(slots), len(proof.StorageValues))
	}
	for i, slot := range slots {
		storageKey := crypto.Keccak256(slot.Bytes())
		value, err := VerifyProof(account.Root, storageKey, proof.StorageProofs[i])
		if err != nil {
			return fmt.Errorf("storage proof for slot %s: %w", slot, err)
		}
		if err := compareStorageValue(value, proof.StorageValues[i]); err != nil {
			return fmt.Errorf("slot %s: %w", slot, err)
		}
	}
	return nil
}

// compareStorageValue compares the RLP-decoded proven value against the
// padded 32-byte value the proof record carries. An absent value proves an
// empty (zero) slot.
func compareStorageValue(proven, recorded []byte) error {
	var want big.Int
	want.SetBytes(recorded)

	if proven == nil {
		if want.Sign() != 0 {
			return fmt.Errorf("slot proven empty but record holds %x", recorded)
		}
		return nil
	}
	var got []byte
	if err := rlp.DecodeBytes(proven, &got); err != nil {
		return fmt.Errorf("decode stored value: %w", err)
	}
	var gotInt big.Int
	gotInt.SetBytes(got)
	if gotInt.Cmp(&want) != 0 {
		return fmt.Errorf("stored value %x != recorded %x", got, recorded)
	}
	return nil
}
