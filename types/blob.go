package types

import (
	"crypto/ed25519"
	"fmt"

	"github.com/cosmos/gogoproto/proto"
)

// SignedData is the protobuf envelope the sequencer posts as a blob
// payload. Each envelope carries one rollup block's transaction data plus
// an Ed25519 signature over Data by the sequencer key.
type SignedData struct {
	Data      *BlobData `protobuf:"bytes,1,opt,name=data,proto3" json:"data,omitempty"`
	Signature []byte    `protobuf:"bytes,2,opt,name=signature,proto3" json:"signature,omitempty"`
}

func (m *SignedData) Reset()         { *m = SignedData{} }
func (m *SignedData) String() string { return proto.CompactTextString(m) }
func (*SignedData) ProtoMessage()    {}

// BlobData is the signed body of a blob envelope.
type BlobData struct {
	Metadata *BlobMetadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Txs      [][]byte      `protobuf:"bytes,2,rep,name=txs,proto3" json:"txs,omitempty"`
}

func (m *BlobData) Reset()         { *m = BlobData{} }
func (m *BlobData) String() string { return proto.CompactTextString(m) }
func (*BlobData) ProtoMessage()    {}

// BlobMetadata carries the rollup block number the blob encodes.
type BlobMetadata struct {
	Height uint64 `protobuf:"varint,1,opt,name=height,proto3" json:"height,omitempty"`
	Time   uint64 `protobuf:"varint,2,opt,name=time,proto3" json:"time,omitempty"`
}

func (m *BlobMetadata) Reset()         { *m = BlobMetadata{} }
func (m *BlobMetadata) String() string { return proto.CompactTextString(m) }
func (*BlobMetadata) ProtoMessage()    {}

func init() {
	proto.RegisterType((*SignedData)(nil), "ev.types.v1.SignedData")
	proto.RegisterType((*BlobData)(nil), "ev.types.v1.BlobData")
	proto.RegisterType((*BlobMetadata)(nil), "ev.types.v1.BlobMetadata")
}

// DecodeSignedData parses a blob payload into its envelope. A payload that
// does not decode, or decodes without metadata, is malformed.
func DecodeSignedData(raw []byte) (*SignedData, error) {
	var sd SignedData
	if err := proto.Unmarshal(raw, &sd); err != nil {
		return nil, fmt.Errorf("decode signed data: %w", err)
	}
	if sd.Data == nil || sd.Data.Metadata == nil {
		return nil, fmt.Errorf("decode signed data: missing metadata")
	}
	return &sd, nil
}

// VerifySignature checks the envelope signature against the sequencer key.
func (m *SignedData) VerifySignature(pubKey [32]byte) error {
	if len(m.Signature) != ed25519.SignatureSize {
		return fmt.Errorf("signed data: signature is %d bytes, want %d", len(m.Signature), ed25519.SignatureSize)
	}
	body, err := proto.Marshal(m.Data)
	if err != nil {
		return fmt.Errorf("signed data: marshal body: %w", err)
	}
	if !ed25519.Verify(pubKey[:], body, m.Signature) {
		return fmt.Errorf("signed data: signature verification failed")
	}
	return nil
}

// RollupHeight returns the rollup block number the envelope encodes.
func (m *SignedData) RollupHeight() uint64 {
	return m.Data.Metadata.Height
}
