package hyperlane

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// DispatchEventSignature is the Hyperlane Mailbox Dispatch event:
// Dispatch(address indexed sender, uint32 indexed destination, bytes32 indexed recipient, bytes message).
var DispatchEventSignature = crypto.Keccak256Hash([]byte("Dispatch(address,uint32,bytes32,bytes)"))

// Message is a Hyperlane message as packed by the Mailbox contract.
type Message struct {
	Version           uint8
	Nonce             uint32
	OriginDomain      uint32
	Sender            [32]byte
	DestinationDomain uint32
	Recipient         [32]byte
	Body              []byte
}

// Pack returns the canonical Hyperlane wire encoding of the message:
// big-endian fixed-width fields followed by the raw body.
func (m *Message) Pack() []byte {
	out := make([]byte, 0, 77+len(m.Body))
	out = append(out, m.Version)
	out = binary.BigEndian.AppendUint32(out, m.Nonce)
	out = binary.BigEndian.AppendUint32(out, m.OriginDomain)
	out = append(out, m.Sender[:]...)
	out = binary.BigEndian.AppendUint32(out, m.DestinationDomain)
	out = append(out, m.Recipient[:]...)
	out = append(out, m.Body...)
	return out
}

// UnpackMessage parses the canonical Hyperlane wire encoding.
func UnpackMessage(raw []byte) (Message, error) {
	var m Message
	if len(raw) < 77 {
		return m, fmt.Errorf("hyperlane message: %d bytes, want at least 77", len(raw))
	}
	m.Version = raw[0]
	m.Nonce = binary.BigEndian.Uint32(raw[1:5])
	m.OriginDomain = binary.BigEndian.Uint32(raw[5:9])
	copy(m.Sender[:], raw[9:41])
	m.DestinationDomain = binary.BigEndian.Uint32(raw[41:45])
	copy(m.Recipient[:], raw[45:77])
	m.Body = append([]byte(nil), raw[77:]...)
	return m, nil
}

// ID is the keccak digest of the packed message, as committed by the
// MerkleTreeHook contract.
func (m *Message) ID() [32]byte {
	var id [32]byte
	copy(id[:], crypto.Keccak256(m.Pack()))
	return id
}

func (m *Message) String() string {
	id := m.ID()
	return fmt.Sprintf("Message{nonce: %d, origin: %d, destination: %d, id: %s}",
		m.Nonce, m.OriginDomain, m.DestinationDomain, hex.EncodeToString(id[:]))
}

// ParseDispatchLog extracts a Message from a Mailbox Dispatch event log.
// The packed message is the sole non-indexed data field, ABI-encoded as a
// dynamic bytes value.
func ParseDispatchLog(lg *types.Log) (Message, error) {
	if len(lg.Topics) != 4 || lg.Topics[0] != DispatchEventSignature {
		return Message{}, fmt.Errorf("log %s is not a Dispatch event", lg.TxHash)
	}
	if len(lg.Data) < 64 {
		return Message{}, fmt.Errorf("dispatch log data too short: %d bytes", len(lg.Data))
	}
	offset := binary.BigEndian.Uint64(lg.Data[24:32])
	if offset+32 > uint64(len(lg.Data)) {
		return Message{}, fmt.Errorf("dispatch log: bad abi offset %d", offset)
	}
	length := binary.BigEndian.Uint64(lg.Data[offset+24 : offset+32])
	start := offset + 32
	if start+length > uint64(len(lg.Data)) {
		return Message{}, fmt.Errorf("dispatch log: bad abi length %d", length)
	}
	return UnpackMessage(lg.Data[start : start+length])
}

// DispatchedMessage pairs a parsed message with its dispatch location on
// the rollup.
type DispatchedMessage struct {
	Message     Message
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
}
