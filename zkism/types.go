// Package zkism contains the celestia.zkism.v1 message and query types the
// publisher submits to the DA chain's zk-ISM verifier module, in gogoproto
// wire form.
package zkism

import (
	"github.com/cosmos/gogoproto/proto"
)

// MsgUpdateZKExecutionISM carries a range-execution proof that advances
// the ISM's trusted checkpoint.
type MsgUpdateZKExecutionISM struct {
	Id           string `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Height       uint64 `protobuf:"varint,2,opt,name=height,proto3" json:"height,omitempty"`
	Proof        []byte `protobuf:"bytes,3,opt,name=proof,proto3" json:"proof,omitempty"`
	PublicValues []byte `protobuf:"bytes,4,opt,name=public_values,json=publicValues,proto3" json:"public_values,omitempty"`
	Signer       string `protobuf:"bytes,5,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgUpdateZKExecutionISM) Reset()         { *m = MsgUpdateZKExecutionISM{} }
func (m *MsgUpdateZKExecutionISM) String() string { return proto.CompactTextString(m) }
func (*MsgUpdateZKExecutionISM) ProtoMessage()    {}

// XXX_MessageName supplies the type URL expected by the zkism module.
func (*MsgUpdateZKExecutionISM) XXX_MessageName() string {
	return "celestia.zkism.v1.MsgUpdateZKExecutionISM"
}

// MsgSubmitMessages carries a message-inclusion proof for Hyperlane
// messages anchored at a proven state root.
type MsgSubmitMessages struct {
	Id           string `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Height       uint64 `protobuf:"varint,2,opt,name=height,proto3" json:"height,omitempty"`
	Proof        []byte `protobuf:"bytes,3,opt,name=proof,proto3" json:"proof,omitempty"`
	PublicValues []byte `protobuf:"bytes,4,opt,name=public_values,json=publicValues,proto3" json:"public_values,omitempty"`
	Signer       string `protobuf:"bytes,5,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgSubmitMessages) Reset()         { *m = MsgSubmitMessages{} }
func (m *MsgSubmitMessages) String() string { return proto.CompactTextString(m) }
func (*MsgSubmitMessages) ProtoMessage()    {}

func (*MsgSubmitMessages) XXX_MessageName() string {
	return "celestia.zkism.v1.MsgSubmitMessages"
}

// Ism is the on-chain verifier state: the trusted checkpoint plus the
// verification parameters committed at creation.
type Ism struct {
	Id                 string `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Creator            string `protobuf:"bytes,2,opt,name=creator,proto3" json:"creator,omitempty"`
	Height             uint64 `protobuf:"varint,3,opt,name=height,proto3" json:"height,omitempty"`
	StateRoot          []byte `protobuf:"bytes,4,opt,name=state_root,json=stateRoot,proto3" json:"state_root,omitempty"`
	CelestiaHeight     uint64 `protobuf:"varint,5,opt,name=celestia_height,json=celestiaHeight,proto3" json:"celestia_height,omitempty"`
	CelestiaHeaderHash []byte `protobuf:"bytes,6,opt,name=celestia_header_hash,json=celestiaHeaderHash,proto3" json:"celestia_header_hash,omitempty"`
	Namespace          []byte `protobuf:"bytes,7,opt,name=namespace,proto3" json:"namespace,omitempty"`
	SequencerPublicKey []byte `protobuf:"bytes,8,opt,name=sequencer_public_key,json=sequencerPublicKey,proto3" json:"sequencer_public_key,omitempty"`
}

func (m *Ism) Reset()         { *m = Ism{} }
func (m *Ism) String() string { return proto.CompactTextString(m) }
func (*Ism) ProtoMessage()    {}

func (*Ism) XXX_MessageName() string { return "celestia.zkism.v1.Ism" }

// QueryIsmRequest queries a single ISM by id.
type QueryIsmRequest struct {
	Id string `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
}

func (m *QueryIsmRequest) Reset()         { *m = QueryIsmRequest{} }
func (m *QueryIsmRequest) String() string { return proto.CompactTextString(m) }
func (*QueryIsmRequest) ProtoMessage()    {}

func (*QueryIsmRequest) XXX_MessageName() string { return "celestia.zkism.v1.QueryIsmRequest" }

// QueryIsmResponse returns the ISM state.
type QueryIsmResponse struct {
	Ism *Ism `protobuf:"bytes,1,opt,name=ism,proto3" json:"ism,omitempty"`
}

func (m *QueryIsmResponse) Reset()         { *m = QueryIsmResponse{} }
func (m *QueryIsmResponse) String() string { return proto.CompactTextString(m) }
func (*QueryIsmResponse) ProtoMessage()    {}

func (*QueryIsmResponse) XXX_MessageName() string { return "celestia.zkism.v1.QueryIsmResponse" }

func init() {
	proto.RegisterType((*MsgUpdateZKExecutionISM)(nil), "celestia.zkism.v1.MsgUpdateZKExecutionISM")
	proto.RegisterType((*MsgSubmitMessages)(nil), "celestia.zkism.v1.MsgSubmitMessages")
	proto.RegisterType((*Ism)(nil), "celestia.zkism.v1.Ism")
	proto.RegisterType((*QueryIsmRequest)(nil), "celestia.zkism.v1.QueryIsmRequest")
	proto.RegisterType((*QueryIsmResponse)(nil), "celestia.zkism.v1.QueryIsmResponse")
}
