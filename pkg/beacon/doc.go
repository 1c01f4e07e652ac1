// Package beacon provides the reactive core for the Beacon state library.
//
// A Signal[T] owns a piece of domain state together with a busy/success/error
// status and a single notification channel that fires whenever either one
// changes. Views (or any other consumer) subscribe a Listener to a signal and
// perform their own idempotent refresh when notified.
//
// # Core Types
//
// Signal[T] holds a value and a Status:
//
//	user := beacon.New(User{})
//	user.MarkBusy()            // status -> Busy, notifies
//	user.Set(loaded)           // payload write, notifies
//	user.MarkSuccess()         // status -> Success, notifies
//
// Guarded operations wrap the busy/success/error transitions around a unit
// of work so a signal can never be left stuck at Busy:
//
//	err := user.Run(ctx, func(ctx context.Context) error {
//	    u, err := api.FetchUser(ctx, id)
//	    if err != nil {
//	        return err
//	    }
//	    user.Set(u, beacon.Silently())
//	    return nil
//	})
//
// Scope owns signals and resolves the nearest instance of a type for
// descendant code:
//
//	sc := beacon.NewScope(nil)
//	user := beacon.Provide(sc, func() *beacon.Signal[User] {
//	    return beacon.New(User{})
//	})
//	same, err := beacon.Resolve[User](sc)
//
// # Delivery Model
//
// Notification delivery is synchronous and runs to completion on the calling
// goroutine. Listeners are notified in subscription order against a snapshot
// of the subscriber list, so a listener that cancels itself mid-delivery is
// not invoked again in that pass and a listener added mid-delivery does not
// see the in-flight event. A panicking listener is isolated and does not
// abort delivery to the rest.
//
// # Disposal
//
// Dispose is idempotent. A disposed signal absorbs every further mutation
// silently: no status change, no notification. The signal's Lifetime context
// is cancelled on dispose so in-flight guarded operations can observe
// disposal and abort promptly.
package beacon
