package zkism

import (
	"testing"

	"github.com/cosmos/gogoproto/proto"
	"github.com/stretchr/testify/require"
)

func TestMsgUpdateRoundTrip(t *testing.T) {
	msg := &MsgUpdateZKExecutionISM{
		Id:           "zkism-0",
		Height:       120,
		Proof:        []byte{1, 2, 3},
		PublicValues: []byte{4, 5, 6},
		Signer:       "celestia1abc",
	}
	raw, err := proto.Marshal(msg)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	var decoded MsgUpdateZKExecutionISM
	require.NoError(t, proto.Unmarshal(raw, &decoded))
	require.Equal(t, *msg, decoded)
}

func TestMsgSubmitMessagesRoundTrip(t *testing.T) {
	msg := &MsgSubmitMessages{
		Id:           "zkism-0",
		Height:       130,
		Proof:        []byte{7},
		PublicValues: []byte{8},
		Signer:       "celestia1def",
	}
	raw, err := proto.Marshal(msg)
	require.NoError(t, err)

	var decoded MsgSubmitMessages
	require.NoError(t, proto.Unmarshal(raw, &decoded))
	require.Equal(t, *msg, decoded)
}

func TestMessageNames(t *testing.T) {
	require.Equal(t, "celestia.zkism.v1.MsgUpdateZKExecutionISM", proto.MessageName(&MsgUpdateZKExecutionISM{}))
	require.Equal(t, "celestia.zkism.v1.MsgSubmitMessages", proto.MessageName(&MsgSubmitMessages{}))
}

func TestQueryIsmResponseRoundTrip(t *testing.T) {
	resp := &QueryIsmResponse{Ism: &Ism{
		Id:                 "zkism-0",
		Height:             99,
		StateRoot:          make([]byte, 32),
		CelestiaHeight:     200,
		CelestiaHeaderHash: make([]byte, 32),
	}}
	raw, err := proto.Marshal(resp)
	require.NoError(t, err)

	var decoded QueryIsmResponse
	require.NoError(t, proto.Unmarshal(raw, &decoded))
	require.Equal(t, resp.Ism.Height, decoded.Ism.Height)
	require.Equal(t, resp.Ism.CelestiaHeight, decoded.Ism.CelestiaHeight)
}
