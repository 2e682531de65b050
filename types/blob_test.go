package types

import (
	"crypto/ed25519"
	"testing"

	"github.com/cosmos/gogoproto/proto"
	"github.com/stretchr/testify/require"
)

func signedBlob(t *testing.T, priv ed25519.PrivateKey, height uint64) []byte {
	t.Helper()
	data := &BlobData{
		Metadata: &BlobMetadata{Height: height},
		Txs:      [][]byte{[]byte("tx")},
	}
	body, err := proto.Marshal(data)
	require.NoError(t, err)
	raw, err := proto.Marshal(&SignedData{Data: data, Signature: ed25519.Sign(priv, body)})
	require.NoError(t, err)
	return raw
}

func TestDecodeSignedData(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	raw := signedBlob(t, priv, 77)
	sd, err := DecodeSignedData(raw)
	require.NoError(t, err)
	require.Equal(t, uint64(77), sd.RollupHeight())

	var key [32]byte
	copy(key[:], pub)
	require.NoError(t, sd.VerifySignature(key))
}

func TestDecodeSignedDataMissingMetadata(t *testing.T) {
	raw, err := proto.Marshal(&SignedData{Data: &BlobData{}})
	require.NoError(t, err)
	_, err = DecodeSignedData(raw)
	require.Error(t, err)
}

func TestVerifySignatureWrongKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	sd, err := DecodeSignedData(signedBlob(t, priv, 1))
	require.NoError(t, err)

	var wrong [32]byte
	wrong[0] = 1
	require.Error(t, sd.VerifySignature(wrong))
}

func TestVerifySignatureTruncated(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	sd, err := DecodeSignedData(signedBlob(t, priv, 1))
	require.NoError(t, err)
	sd.Signature = sd.Signature[:10]

	var key [32]byte
	require.Error(t, sd.VerifySignature(key))
}
