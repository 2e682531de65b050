package mpt

import (
	"math/big"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/ev-prover/types/hyperlane"
)

type proofList [][]byte

func (p *proofList) Put(key, value []byte) error {
	*p = append(*p, value)
	return nil
}

func (p *proofList) Delete(key []byte) error { return nil }

type trieAccount struct {
	Nonce    uint64
	Balance  *big.Int
	Root     ethcommon.Hash
	CodeHash []byte
}

// buildBranchFixture constructs a state trie holding the merkle-tree
// contract whose storage slots all carry non-zero values, and returns the
// state root with a complete branch proof.
func buildBranchFixture(t *testing.T, contract ethcommon.Address) ([32]byte, *hyperlane.BranchProof) {
	t.Helper()

	slots := hyperlane.MerkleTreeSlots()
	storage := trie.NewEmpty(triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil))
	values := make([][]byte, 0, len(slots))
	for i, slot := range slots {
		raw := []byte{byte(i + 1)}
		encoded, err := rlp.EncodeToBytes(raw)
		require.NoError(t, err)
		storage.MustUpdate(crypto.Keccak256(slot.Bytes()), encoded)

		padded := make([]byte, 32)
		padded[31] = byte(i + 1)
		values = append(values, padded)
	}
	storageRoot := storage.Hash()

	account := trieAccount{Nonce: 1, Balance: big.NewInt(0), Root: storageRoot, CodeHash: make([]byte, 32)}
	accountRLP, err := rlp.EncodeToBytes(&account)
	require.NoError(t, err)

	state := trie.NewEmpty(triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil))
	state.MustUpdate(crypto.Keccak256(contract.Bytes()), accountRLP)
	// A second account so the trie has more than one node.
	other := ethcommon.HexToAddress("0x00000000000000000000000000000000000000ff")
	state.MustUpdate(crypto.Keccak256(other.Bytes()), accountRLP)
	stateRoot := state.Hash()

	var accountProof proofList
	require.NoError(t, state.Prove(crypto.Keccak256(contract.Bytes()), &accountProof))

	proof := &hyperlane.BranchProof{
		AccountProof:  accountProof,
		AccountRLP:    accountRLP,
		StorageValues: values,
	}
	for _, slot := range slots {
		var slotProof proofList
		require.NoError(t, storage.Prove(crypto.Keccak256(slot.Bytes()), &slotProof))
		proof.StorageProofs = append(proof.StorageProofs, slotProof)
	}

	var root [32]byte
	copy(root[:], stateRoot.Bytes())
	return root, proof
}

func TestVerifyBranchProof(t *testing.T) {
	contract := ethcommon.HexToAddress("0x00000000000000000000000000000000000000aa")
	root, proof := buildBranchFixture(t, contract)
	require.NoError(t, VerifyBranchProof(root, contract, proof))
}

func TestVerifyBranchProofWrongRoot(t *testing.T) {
	contract := ethcommon.HexToAddress("0x00000000000000000000000000000000000000aa")
	_, proof := buildBranchFixture(t, contract)

	var wrong [32]byte
	wrong[0] = 0xde
	require.Error(t, VerifyBranchProof(wrong, contract, proof))
}

func TestVerifyBranchProofTamperedValue(t *testing.T) {
	contract := ethcommon.HexToAddress("0x00000000000000000000000000000000000000aa")
	root, proof := buildBranchFixture(t, contract)
	proof.StorageValues[0][31] = 0x99
	require.Error(t, VerifyBranchProof(root, contract, proof))
}

func TestVerifyBranchProofMissingSlots(t *testing.T) {
	contract := ethcommon.HexToAddress("0x00000000000000000000000000000000000000aa")
	root, proof := buildBranchFixture(t, contract)
	proof.StorageProofs = proof.StorageProofs[:5]
	require.Error(t, VerifyBranchProof(root, contract, proof))
}

func TestVerifyProofValue(t *testing.T) {
	tr := trie.NewEmpty(triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil))
	key := crypto.Keccak256([]byte("key"))
	tr.MustUpdate(key, []byte("value"))
	// Pad the trie so the proof has internal nodes.
	tr.MustUpdate(crypto.Keccak256([]byte("other")), []byte("x"))

	var proof proofList
	require.NoError(t, tr.Prove(key, &proof))

	value, err := VerifyProof(tr.Hash(), key, proof)
	require.NoError(t, err)
	require.Equal(t, []byte("value"), value)
}
