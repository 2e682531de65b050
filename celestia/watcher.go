package celestia

import (
	"context"
	"time"

	"cosmossdk.io/log"
)

// Watcher turns the node's header subscription into a gapless ascending
// stream of finalized DA heights. If the subscription skips ahead or
// drops, missing heights are emitted eagerly in order before the new head.
type Watcher struct {
	client         Client
	logger         log.Logger
	reconnectDelay time.Duration
}

// NewWatcher constructs a watcher over a DA client.
func NewWatcher(client Client, logger log.Logger) *Watcher {
	return &Watcher{
		client:         client,
		logger:         logger.With("component", "da_watcher"),
		reconnectDelay: 5 * time.Second,
	}
}

// Run emits every DA height >= from exactly once, in ascending order, into
// out. It blocks until ctx is cancelled. Emission is monotone: a height is
// never emitted twice and never out of order.
func (w *Watcher) Run(ctx context.Context, from uint64, out chan<- uint64) error {
	next := from

	emitThrough := func(head uint64) error {
		for next <= head {
			select {
			case out <- next:
				next++
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}

	for {
		heads, err := w.client.Subscribe(ctx)
		if err != nil {
			w.logger.Error("header subscription failed, reconnecting", "err", err, "delay", w.reconnectDelay)
			select {
			case <-time.After(w.reconnectDelay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		// Catch up to the current head before consuming the subscription
		// so a restart does not wait for the next block.
		if head, err := w.client.Head(ctx); err == nil {
			if err := emitThrough(head); err != nil {
				return err
			}
		} else {
			w.logger.Warn("could not fetch local head", "err", err)
		}

	consume:
		for {
			select {
			case head, ok := <-heads:
				if !ok {
					w.logger.Warn("header subscription closed, reconnecting", "delay", w.reconnectDelay)
					break consume
				}
				if err := emitThrough(head); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		select {
		case <-time.After(w.reconnectDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
