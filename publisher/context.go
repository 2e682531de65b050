package publisher

import (
	"fmt"

	"cosmossdk.io/x/tx/signing"
	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/codec/address"
	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	cryptoed25519 "github.com/cosmos/cosmos-sdk/crypto/keys/ed25519"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	"github.com/cosmos/cosmos-sdk/std"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtx "github.com/cosmos/cosmos-sdk/x/auth/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/cosmos/gogoproto/proto"
	"google.golang.org/grpc"
	protov2 "google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/celestiaorg/ev-prover/zkism"
)

// Bech32Prefix is the account address prefix of the DA chain.
const Bech32Prefix = "celestia"

// signerKeyFromHex parses the configured hex-encoded Ed25519 private key.
func signerKeyFromHex(raw []byte) (cryptotypes.PrivKey, error) {
	if len(raw) != 64 && len(raw) != 32 {
		return nil, fmt.Errorf("signer key must be a 32-byte seed or 64-byte expanded key, got %d bytes", len(raw))
	}
	if len(raw) == 32 {
		// Expand the seed the way the ed25519 key type expects.
		return cryptoed25519.GenPrivKeyFromSecret(raw), nil
	}
	return &cryptoed25519.PrivKey{Key: raw}, nil
}

// setupClientContext builds the cosmos-sdk client context used for signing
// and broadcasting zkism transactions: codec with the zkism interfaces
// registered, comet RPC client for inclusion polling and the chain gRPC
// connection for account queries.
func setupClientContext(chainID, cometRPC string, grpcConn *grpc.ClientConn) (client.Context, error) {
	addrCodec := address.Bech32Codec{Bech32Prefix: Bech32Prefix}

	signingOptions := signing.Options{
		AddressCodec:          addrCodec,
		ValidatorAddressCodec: address.Bech32Codec{Bech32Prefix: Bech32Prefix + "valoper"},
	}
	// The zkism messages carry their signer in a plain "signer" field; the
	// module's proto files are not linked into this binary, so signer
	// resolution is defined explicitly.
	for _, name := range []string{
		"celestia.zkism.v1.MsgUpdateZKExecutionISM",
		"celestia.zkism.v1.MsgSubmitMessages",
	} {
		signingOptions.DefineCustomGetSigners(protoreflect.FullName(name), func(msg protov2.Message) ([][]byte, error) {
			fd := msg.ProtoReflect().Descriptor().Fields().ByName("signer")
			if fd == nil {
				return nil, fmt.Errorf("message has no signer field")
			}
			return addressBytes(addrCodec, msg.ProtoReflect().Get(fd).String())
		})
	}

	interfaceRegistry, err := cdctypes.NewInterfaceRegistryWithOptions(cdctypes.InterfaceRegistryOptions{
		ProtoFiles:     proto.HybridResolver,
		SigningOptions: signingOptions,
	})
	if err != nil {
		return client.Context{}, fmt.Errorf("create interface registry: %w", err)
	}
	std.RegisterInterfaces(interfaceRegistry)
	authtypes.RegisterInterfaces(interfaceRegistry)
	interfaceRegistry.RegisterImplementations((*sdk.Msg)(nil),
		&zkism.MsgUpdateZKExecutionISM{},
		&zkism.MsgSubmitMessages{},
	)

	appCodec := codec.NewProtoCodec(interfaceRegistry)
	txConfig := authtx.NewTxConfig(appCodec, authtx.DefaultSignModes)

	cometNode, err := rpchttp.New(cometRPC, "/websocket")
	if err != nil {
		return client.Context{}, fmt.Errorf("connect to comet rpc %s: %w", cometRPC, err)
	}

	clientCtx := client.Context{}.
		WithChainID(chainID).
		WithGRPCClient(grpcConn).
		WithInterfaceRegistry(interfaceRegistry).
		WithAccountRetriever(authtypes.AccountRetriever{}).
		WithTxConfig(txConfig).
		WithBroadcastMode("sync").
		WithClient(cometNode).
		WithCodec(appCodec)

	return clientCtx, nil
}

func addressBytes(codec address.Bech32Codec, bech string) ([][]byte, error) {
	raw, err := codec.StringToBytes(bech)
	if err != nil {
		return nil, fmt.Errorf("decode signer address %q: %w", bech, err)
	}
	return [][]byte{raw}, nil
}
