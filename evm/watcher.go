package evm

import (
	"context"
	"time"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// HeadWatcher streams new rollup head heights over the websocket endpoint,
// reconnecting on subscription failure. Emission is monotone in height.
type HeadWatcher struct {
	wsAddr         string
	logger         log.Logger
	reconnectDelay time.Duration
}

// NewHeadWatcher constructs a watcher over the rollup websocket endpoint.
func NewHeadWatcher(wsAddr string, logger log.Logger) *HeadWatcher {
	return &HeadWatcher{
		wsAddr:         wsAddr,
		logger:         logger.With("component", "evm_watcher"),
		reconnectDelay: 5 * time.Second,
	}
}

// Run emits new head heights into out until ctx is cancelled. Heights are
// strictly increasing; duplicate or reordered notifications from the node
// are dropped.
func (w *HeadWatcher) Run(ctx context.Context, out chan<- uint64) error {
	var last uint64

	for {
		err := w.watchOnce(ctx, out, &last)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.logger.Error("head subscription dropped, reconnecting", "err", err, "delay", w.reconnectDelay)
		select {
		case <-time.After(w.reconnectDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *HeadWatcher) watchOnce(ctx context.Context, out chan<- uint64, last *uint64) error {
	client, err := ethclient.DialContext(ctx, w.wsAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	heads := make(chan *types.Header)
	sub, err := client.SubscribeNewHead(ctx, heads)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	for {
		select {
		case head := <-heads:
			height := head.Number.Uint64()
			if height <= *last {
				continue
			}
			*last = height
			select {
			case out <- height:
			case <-ctx.Done():
				return ctx.Err()
			}
		case err := <-sub.Err():
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
