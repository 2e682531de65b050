// Package celestia wraps the DA node's RPC API with the narrow surface the
// orchestrator needs: headers, namespaced blobs and share inclusion proofs.
package celestia

import (
	"context"
	"encoding/json"
	"fmt"

	client "github.com/celestiaorg/celestia-openrpc"
	"github.com/celestiaorg/celestia-openrpc/types/header"
	"github.com/celestiaorg/celestia-openrpc/types/share"

	"github.com/celestiaorg/ev-prover/types"
)

// Header is the subset of a DA extended header the assembler consumes.
type Header struct {
	// Height is the DA block height.
	Height uint64
	// Hash is the header hash.
	Hash []byte
	// PrevHash is the previous header hash.
	PrevHash []byte
	// Raw is the serialized raw header, as fed to the guest.
	Raw []byte
	// RowRoots and ColumnRoots are the data-availability header roots.
	RowRoots    [][]byte
	ColumnRoots [][]byte
}

// BlobEntry is one namespaced blob with its share commitment, in canonical
// share order.
type BlobEntry struct {
	Data       []byte
	Commitment []byte
}

// Client is the DA RPC client used by the assembler and the height watcher.
type Client interface {
	// Head returns the local chain head height.
	Head(ctx context.Context) (uint64, error)
	// GetHeader fetches the extended header at a height.
	GetHeader(ctx context.Context, height uint64) (*Header, error)
	// GetBlobs fetches all blobs at a height in the namespace, preserving
	// canonical share order.
	GetBlobs(ctx context.Context, height uint64, namespace types.Namespace) ([]BlobEntry, error)
	// GetNamespaceProofs fetches the namespace inclusion proofs for the
	// full namespace run at a height, one serialized proof per row in
	// canonical order.
	GetNamespaceProofs(ctx context.Context, height uint64, namespace types.Namespace) ([][]byte, error)
	// Subscribe streams new header heights. The channel closes when the
	// subscription drops; callers reconnect.
	Subscribe(ctx context.Context) (<-chan uint64, error)
	Close()
}

type rpcClient struct {
	inner *client.Client
}

// Dial connects to a celestia node RPC endpoint.
func Dial(ctx context.Context, addr, authToken string) (Client, error) {
	c, err := client.NewClient(ctx, addr, authToken)
	if err != nil {
		return nil, fmt.Errorf("connect to celestia node %s: %w", addr, err)
	}
	return &rpcClient{inner: c}, nil
}

func (c *rpcClient) Head(ctx context.Context) (uint64, error) {
	h, err := c.inner.Header.LocalHead(ctx)
	if err != nil {
		return 0, fmt.Errorf("get local head: %w", err)
	}
	return h.Height(), nil
}

func (c *rpcClient) GetHeader(ctx context.Context, height uint64) (*Header, error) {
	eh, err := c.inner.Header.GetByHeight(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("get header %d: %w", height, err)
	}
	return convertHeader(eh)
}

func convertHeader(eh *header.ExtendedHeader) (*Header, error) {
	raw, err := json.Marshal(eh.RawHeader)
	if err != nil {
		return nil, fmt.Errorf("marshal raw header: %w", err)
	}
	h := &Header{
		Height:   eh.Height(),
		Hash:     eh.Hash(),
		PrevHash: eh.RawHeader.LastBlockID.Hash,
		Raw:      raw,
	}
	if eh.DAH != nil {
		for _, r := range eh.DAH.RowRoots {
			h.RowRoots = append(h.RowRoots, r)
		}
		for _, r := range eh.DAH.ColumnRoots {
			h.ColumnRoots = append(h.ColumnRoots, r)
		}
	}
	return h, nil
}

func (c *rpcClient) GetBlobs(ctx context.Context, height uint64, namespace types.Namespace) ([]BlobEntry, error) {
	ns, err := toShareNamespace(namespace)
	if err != nil {
		return nil, err
	}
	blobs, err := c.inner.Blob.GetAll(ctx, height, []share.Namespace{ns})
	if err != nil {
		return nil, fmt.Errorf("get blobs at %d: %w", height, err)
	}
	// GetAll returns blobs in the DA layer's canonical share order; it is
	// preserved as-is.
	out := make([]BlobEntry, 0, len(blobs))
	for _, b := range blobs {
		out = append(out, BlobEntry{Data: b.Blob.Data, Commitment: b.Commitment})
	}
	return out, nil
}

func (c *rpcClient) GetNamespaceProofs(ctx context.Context, height uint64, namespace types.Namespace) ([][]byte, error) {
	ns, err := toShareNamespace(namespace)
	if err != nil {
		return nil, err
	}
	eh, err := c.inner.Header.GetByHeight(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("get header %d: %w", height, err)
	}
	rows, err := c.inner.Share.GetSharesByNamespace(ctx, eh, ns)
	if err != nil {
		return nil, fmt.Errorf("get namespace shares at %d: %w", height, err)
	}
	proofs := make([][]byte, 0, len(*rows))
	for i, row := range *rows {
		if row.Proof == nil {
			continue
		}
		raw, err := json.Marshal(row.Proof)
		if err != nil {
			return nil, fmt.Errorf("marshal namespace proof row %d: %w", i, err)
		}
		proofs = append(proofs, raw)
	}
	return proofs, nil
}

func (c *rpcClient) Subscribe(ctx context.Context) (<-chan uint64, error) {
	headers, err := c.inner.Header.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe to headers: %w", err)
	}
	out := make(chan uint64)
	go func() {
		defer close(out)
		for {
			select {
			case eh, ok := <-headers:
				if !ok {
					return
				}
				select {
				case out <- eh.Height():
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *rpcClient) Close() {
	c.inner.Close()
}

func toShareNamespace(ns types.Namespace) (share.Namespace, error) {
	// The configured namespace is the full 29-byte identifier: version
	// byte plus 28-byte ID. NewBlobNamespaceV0 takes the trailing
	// user-chosen bytes of a v0 namespace.
	sns, err := share.NewBlobNamespaceV0(ns[types.NamespaceSize-10:])
	if err != nil {
		return nil, fmt.Errorf("construct namespace: %w", err)
	}
	return sns, nil
}
