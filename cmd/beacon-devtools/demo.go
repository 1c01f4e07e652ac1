package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/beacon-dev/beacon/pkg/beacon"
	"github.com/beacon-dev/beacon/pkg/metrics"
)

// demoSession is the demo's root state.
type demoSession struct {
	User      string
	RenewedAt time.Time
}

// demoOrders is loaded per session renewal.
type demoOrders struct {
	Count int
}

// startDemo wires a small signal graph to the given observers and keeps
// it moving until ctx is cancelled. The returned scope owns the graph.
func startDemo(ctx context.Context, logger *slog.Logger, observers ...beacon.Observer) *beacon.Scope {
	var obs []beacon.Observer
	for _, o := range observers {
		if o == nil {
			continue
		}
		if col, ok := o.(*metrics.Collector); ok && col == nil {
			continue
		}
		obs = append(obs, o)
	}

	root := beacon.NewScope(nil, beacon.WithObserver(beacon.MultiObserver(obs...)))

	session := beacon.Provide(root, func() *beacon.Signal[demoSession] {
		return beacon.New(demoSession{User: "demo"}, beacon.WithName("session"))
	})

	orders := beacon.New(demoOrders{}, beacon.WithName("orders"))
	root.OnCleanup(orders.Dispose)
	if err := beacon.Derive(root, orders, func(parent *beacon.Signal[demoSession], c beacon.Change) {
		if c.Kind == beacon.KindPayload {
			loadOrders(ctx, orders)
		}
	}); err != nil {
		logger.Error("demo derive failed", "error", err)
	}

	// A binder standing in for a view: logs instead of re-rendering.
	view := beacon.NewBinder(func() {
		logger.Info("view refresh",
			"status", orders.Status().String(),
			"count", orders.Get().Count,
			"error", orders.ErrorMessage())
	})
	view.Attach(orders)
	root.OnCleanup(view.Detach)

	go func() {
		renew := time.NewTicker(5 * time.Second)
		defer renew.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-renew.C:
				session.Update(func(s demoSession) demoSession {
					s.RenewedAt = time.Now()
					return s
				})
			}
		}
	}()

	loadOrders(ctx, orders)
	return root
}

// loadOrders simulates a slow fetch that fails now and then.
func loadOrders(ctx context.Context, orders *beacon.Signal[demoOrders]) {
	orders.Go(ctx, func(opCtx context.Context) error {
		select {
		case <-opCtx.Done():
			return opCtx.Err()
		case <-time.After(time.Duration(100+rand.Intn(400)) * time.Millisecond):
		}
		if rand.Intn(5) == 0 {
			return fmt.Errorf("orders backend unavailable")
		}
		orders.Set(demoOrders{Count: rand.Intn(50)}, beacon.Silently())
		return nil
	})
}
