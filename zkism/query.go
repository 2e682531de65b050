package zkism

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/celestiaorg/ev-prover/types"
)

// QueryClient queries the zkism module over the chain's gRPC endpoint.
type QueryClient struct {
	conn grpc.ClientConnInterface
}

// NewQueryClient wraps an established gRPC connection.
func NewQueryClient(conn grpc.ClientConnInterface) *QueryClient {
	return &QueryClient{conn: conn}
}

// Ism fetches a single ISM by id.
func (c *QueryClient) Ism(ctx context.Context, req *QueryIsmRequest) (*QueryIsmResponse, error) {
	resp := new(QueryIsmResponse)
	if err := c.conn.Invoke(ctx, "/celestia.zkism.v1.Query/Ism", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// TrustedCheckpoint queries the ISM and converts its state into the
// orchestrator's checkpoint type. Returns ok=false when the ISM does not
// exist yet (fresh chain; the genesis checkpoint from configuration
// applies).
func (c *QueryClient) TrustedCheckpoint(ctx context.Context, ismID string) (types.TrustedCheckpoint, bool, error) {
	resp, err := c.Ism(ctx, &QueryIsmRequest{Id: ismID})
	if status.Code(err) == codes.NotFound {
		return types.TrustedCheckpoint{}, false, nil
	}
	if err != nil {
		return types.TrustedCheckpoint{}, false, fmt.Errorf("query ism %s: %w", ismID, err)
	}
	if resp.Ism == nil {
		return types.TrustedCheckpoint{}, false, nil
	}
	ism := resp.Ism
	if len(ism.StateRoot) != 32 {
		return types.TrustedCheckpoint{}, false, fmt.Errorf("ism %s: state root is %d bytes", ismID, len(ism.StateRoot))
	}
	if len(ism.CelestiaHeaderHash) != 32 {
		return types.TrustedCheckpoint{}, false, fmt.Errorf("ism %s: header hash is %d bytes", ismID, len(ism.CelestiaHeaderHash))
	}
	checkpoint := types.TrustedCheckpoint{
		RollupHeight: ism.Height,
		DAHeight:     ism.CelestiaHeight,
	}
	copy(checkpoint.RollupStateRoot[:], ism.StateRoot)
	copy(checkpoint.DAHeaderHash[:], ism.CelestiaHeaderHash)
	return checkpoint, true, nil
}
