package beacon

import "sync"

// Binder connects a view's re-render callback to a signal. It is the
// rebuild half of the library's contract with a UI layer: the view attaches
// once when it appears, re-renders on every forwarded notification, and
// detaches exactly once when it is torn down.
type Binder struct {
	id       uint64
	rerender func()

	mu       sync.Mutex
	sub      *Subscription
	detached bool
}

// NewBinder wraps a re-render callback. The callback must be idempotent:
// coalesced deliveries may collapse several emissions into one call.
func NewBinder(rerender func()) *Binder {
	return &Binder{
		id:       nextID(),
		rerender: rerender,
	}
}

// MarkDirty implements Listener by invoking the re-render callback.
func (b *Binder) MarkDirty(Change) {
	b.rerender()
}

// ID implements Listener.
func (b *Binder) ID() uint64 {
	return b.id
}

// Attach subscribes the binder to src. Re-attaching, to the same signal or
// a new one, cancels the prior subscription before installing the new one,
// so the binder never holds two active subscriptions. Attaching after
// Detach is inert.
func (b *Binder) Attach(src Source, opts ...SubscribeOption) {
	b.mu.Lock()
	if b.detached {
		b.mu.Unlock()
		return
	}
	old := b.sub
	b.mu.Unlock()

	if old != nil {
		old.Cancel()
	}
	sub := src.Subscribe(b, opts...)

	b.mu.Lock()
	if b.detached {
		b.mu.Unlock()
		sub.Cancel()
		return
	}
	b.sub = sub
	b.mu.Unlock()
}

// Detach unsubscribes. After Detach returns the re-render callback is not
// invoked again. Double-detach is a no-op.
func (b *Binder) Detach() {
	b.mu.Lock()
	if b.detached {
		b.mu.Unlock()
		return
	}
	b.detached = true
	sub := b.sub
	b.sub = nil
	b.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

// Attached reports whether the binder currently holds an active
// subscription.
func (b *Binder) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sub != nil && b.sub.Active()
}
