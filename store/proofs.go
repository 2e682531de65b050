// Package store persists completed proofs and Hyperlane tree snapshots in
// an embedded BoltDB database. The store is a cache serving the gRPC query
// surface; correctness never depends on it and deleting the database only
// loses query history.
package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/celestiaorg/ev-prover/types/hyperlane"
)

var (
	blockBucket      = []byte("block_proofs")
	rangeBucket      = []byte("range_proofs")
	membershipBucket = []byte("membership_proofs")
	snapshotBucket   = []byte("hyperlane_snapshots")
)

// StoredProof is one persisted proof with its public outputs.
type StoredProof struct {
	Proof         []byte
	PublicOutputs []byte
	CreatedAt     int64
}

// RangeKey locates a stored range proof by its DA span.
type RangeKey struct {
	From uint64
	To   uint64
}

// ProofStore wraps the BoltDB database.
type ProofStore struct {
	db  *bolt.DB
	now func() time.Time
}

// Open opens or creates the proof database at path.
func Open(path string) (*ProofStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open proof db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{blockBucket, rangeBucket, membershipBucket, snapshotBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &ProofStore{db: db, now: time.Now}, nil
}

func (s *ProofStore) Close() error {
	return s.db.Close()
}

// PutBlockProof stores a block-execution proof keyed by DA height.
func (s *ProofStore) PutBlockProof(daHeight uint64, proof, public []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blockBucket).Put(u64Key(daHeight), s.encode(proof, public))
	})
}

// GetBlockProof fetches the block proof at a DA height.
func (s *ProofStore) GetBlockProof(daHeight uint64) (StoredProof, bool, error) {
	return s.get(blockBucket, u64Key(daHeight))
}

// BlockProofsInRange returns the stored block proofs with DA heights in
// [from, to], ascending, paired with their heights.
func (s *ProofStore) BlockProofsInRange(from, to uint64) ([]uint64, []StoredProof, error) {
	var heights []uint64
	var proofs []StoredProof
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(blockBucket).Cursor()
		for k, v := c.Seek(u64Key(from)); k != nil && bytes.Compare(k, u64Key(to)) <= 0; k, v = c.Next() {
			p, err := decodeStored(v)
			if err != nil {
				return err
			}
			heights = append(heights, binary.BigEndian.Uint64(k))
			proofs = append(proofs, p)
		}
		return nil
	})
	return heights, proofs, err
}

// LatestBlockProof returns the block proof with the highest DA height.
func (s *ProofStore) LatestBlockProof() (uint64, StoredProof, bool, error) {
	var height uint64
	var proof StoredProof
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		k, v := tx.Bucket(blockBucket).Cursor().Last()
		if k == nil {
			return nil
		}
		p, err := decodeStored(v)
		if err != nil {
			return err
		}
		height = binary.BigEndian.Uint64(k)
		proof = p
		found = true
		return nil
	})
	return height, proof, found, err
}

// PutRangeProof stores a range proof keyed by its DA span.
func (s *ProofStore) PutRangeProof(from, to uint64, proof, public []byte) error {
	key := append(u64Key(from), u64Key(to)...)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rangeBucket).Put(key, s.encode(proof, public))
	})
}

// RangeProofs returns stored range proofs whose spans start within
// [from, to], ascending by start height.
func (s *ProofStore) RangeProofs(from, to uint64) ([]RangeKey, []StoredProof, error) {
	var keys []RangeKey
	var proofs []StoredProof
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(rangeBucket).Cursor()
		for k, v := c.Seek(u64Key(from)); k != nil && binary.BigEndian.Uint64(k[:8]) <= to; k, v = c.Next() {
			if len(k) != 16 {
				continue
			}
			p, err := decodeStored(v)
			if err != nil {
				return err
			}
			keys = append(keys, RangeKey{From: binary.BigEndian.Uint64(k[:8]), To: binary.BigEndian.Uint64(k[8:])})
			proofs = append(proofs, p)
		}
		return nil
	})
	return keys, proofs, err
}

// PutMembershipProof stores a message-inclusion proof keyed by the rollup
// anchor height.
func (s *ProofStore) PutMembershipProof(anchorHeight uint64, proof, public []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(membershipBucket).Put(u64Key(anchorHeight), s.encode(proof, public))
	})
}

// GetMembershipProof fetches the membership proof at an anchor height.
func (s *ProofStore) GetMembershipProof(anchorHeight uint64) (StoredProof, bool, error) {
	return s.get(membershipBucket, u64Key(anchorHeight))
}

// LatestMembershipProof returns the most recent membership proof.
func (s *ProofStore) LatestMembershipProof() (uint64, StoredProof, bool, error) {
	var height uint64
	var proof StoredProof
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		k, v := tx.Bucket(membershipBucket).Cursor().Last()
		if k == nil {
			return nil
		}
		p, err := decodeStored(v)
		if err != nil {
			return err
		}
		height = binary.BigEndian.Uint64(k)
		proof = p
		found = true
		return nil
	})
	return height, proof, found, err
}

// PutSnapshot stores the Hyperlane tree snapshot as of a proven rollup
// height.
func (s *ProofStore) PutSnapshot(provenHeight uint64, tree hyperlane.Tree) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Put(u64Key(provenHeight), tree.Marshal())
	})
}

// LatestSnapshot returns the most recent snapshot and its proven height.
func (s *ProofStore) LatestSnapshot() (hyperlane.Tree, uint64, bool, error) {
	var tree hyperlane.Tree
	var height uint64
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		k, v := tx.Bucket(snapshotBucket).Cursor().Last()
		if k == nil {
			return nil
		}
		if err := tree.Unmarshal(v); err != nil {
			return err
		}
		height = binary.BigEndian.Uint64(k)
		found = true
		return nil
	})
	return tree, height, found, err
}

func (s *ProofStore) get(bucket, key []byte) (StoredProof, bool, error) {
	var proof StoredProof
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucket).Get(key)
		if v == nil {
			return nil
		}
		p, err := decodeStored(v)
		if err != nil {
			return err
		}
		proof = p
		found = true
		return nil
	})
	return proof, found, err
}

// encode packs a stored proof as created_at | proof_len | proof | public.
func (s *ProofStore) encode(proof, public []byte) []byte {
	out := make([]byte, 0, 16+len(proof)+len(public))
	out = binary.BigEndian.AppendUint64(out, uint64(s.now().Unix()))
	out = binary.BigEndian.AppendUint64(out, uint64(len(proof)))
	out = append(out, proof...)
	out = append(out, public...)
	return out
}

func decodeStored(v []byte) (StoredProof, error) {
	if len(v) < 16 {
		return StoredProof{}, fmt.Errorf("stored proof record too short: %d bytes", len(v))
	}
	createdAt := int64(binary.BigEndian.Uint64(v[:8]))
	proofLen := binary.BigEndian.Uint64(v[8:16])
	if uint64(len(v)-16) < proofLen {
		return StoredProof{}, fmt.Errorf("stored proof record truncated")
	}
	return StoredProof{
		CreatedAt:     createdAt,
		Proof:         append([]byte(nil), v[16:16+proofLen]...),
		PublicOutputs: append([]byte(nil), v[16+proofLen:]...),
	}, nil
}

func u64Key(v uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, v)
	return key
}
